package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/session"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Dial the signaling endpoint and hold a stream session open",
	Long: `connect negotiates a WebRTC session against the configured signaling
endpoint and keeps it alive until interrupted, printing dashboard events
(clipboard updates, server settings pushes, upload progress) as they arrive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewConsole(cfg.Debug, "streamctl")

		s, err := newSession(log)
		if err != nil {
			return err
		}

		ctx := awaitInterrupt()
		if err := s.Initialize(ctx); err != nil {
			return err
		}
		log.Info().Str("signaling", cfg.Signaling.URL).Msg("session initialized, awaiting offer")

		go printDashboardEvents(ctx, log, s)
		go watchFocusSignals(ctx, s)

		<-ctx.Done()
		log.Info().Msg("shutting down")
		return s.Cleanup(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

// printDashboardEvents relays the Session's outbound dashboard channel to
// the console, standing in for the browser dashboard that would otherwise
// subscribe to it.
func printDashboardEvents(ctx context.Context, log *logger.Logger, s *session.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.DashboardEvents:
			if !ok {
				return
			}
			logDashboardEvent(log, ev)
		}
	}
}

// watchFocusSignals stands in for the browser's window focus/blur events
// (spec.md §4.H): there is no terminal window to focus, so SIGCONT
// (resumed to foreground) and SIGTSTP (suspended to background) drive the
// same OnFocus/OnBlur methods a real dashboard shell would call directly.
func watchFocusSignals(ctx context.Context, s *session.Session) {
	sig := make(chan os.Signal, 4)
	signal.Notify(sig, syscall.SIGCONT, syscall.SIGTSTP)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case sn := <-sig:
			switch sn {
			case syscall.SIGCONT:
				s.OnFocus(nil)
			case syscall.SIGTSTP:
				s.OnBlur()
			}
		}
	}
}

func logDashboardEvent(log *logger.Logger, ev session.DashboardEvent) {
	switch ev.Type {
	case session.EventClipboardContentUpdate:
		log.Info().Str("event", string(ev.Type)).Int("len", len(ev.ClipboardText)).Msg("clipboard updated")
	case session.EventFileUpload:
		log.Info().Str("event", string(ev.Type)).Str("status", ev.UploadStatus).
			Str("file", ev.UploadFileName).Int64("offset", ev.UploadProgress).
			Int64("size", ev.UploadFileSize).Msg("upload progress")
	case session.EventServerSettings:
		log.Info().Str("event", string(ev.Type)).Msg("server settings reconciled")
	case session.EventGPUStats, session.EventSystemStats:
		log.Debug().Str("event", string(ev.Type)).Str("payload", ev.HostStatsPayload).Msg("host stats")
	default:
		log.Debug().Str("event", string(ev.Type)).Msg("dashboard event")
	}
}
