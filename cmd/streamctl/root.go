package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/selkies-project/selkies/internal/geometry"
	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/session"
	"github.com/selkies-project/selkies/internal/settings/filestore"
	"github.com/selkies-project/selkies/internal/webrtcx"
)

var Version = "dev"

var cfg = NewConfig()

// rootCmd is the base command, in the same shape as
// BioHazard786-Warpdrop/cli/cmd/root.go's rootCmd: a bare cobra.Command
// with no default Run, subcommands do the work.
var rootCmd = &cobra.Command{
	Use:     "streamctl",
	Short:   "Drive a Selkies WebRTC desktop stream from the command line",
	Long:    `streamctl dials a Selkies signaling endpoint, negotiates a WebRTC session, and exposes the stream's settings, file upload pipeline, and live stats to a terminal instead of a browser dashboard.`,
	Version: Version,
}

func init() {
	cfg.ParseFlags(rootCmd.PersistentFlags())
}

// Execute runs the command tree. Unlike the plain CLI utilities in the
// pack, every long-running streamctl subcommand owns a Session that needs
// its Cleanup to run on interrupt, so SIGINT/SIGTERM is left to each
// subcommand's awaitInterrupt context instead of an immediate os.Exit here.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "streamctl:", err)
		os.Exit(1)
	}
}

// newSession wires a Session Orchestrator from the resolved Config, shared
// by every subcommand that needs a live connection.
func newSession(log *logger.Logger) (*session.Session, error) {
	target, err := url.Parse(cfg.Signaling.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid signaling URL: %w", err)
	}

	store := filestore.New(cfg.StateDir)
	iceServers := resolveICEServers(log)

	s := session.New(log, store, session.Config{
		Namespace:      cfg.Namespace,
		SignalingURL:   *target,
		BackoffBase:    cfg.Signaling.BackoffBase,
		BackoffCeiling: cfg.Signaling.BackoffCeiling,
		ICEServers:     iceServers,
		ForceRelay:     cfg.Webrtc.ForceRelay,
		MetricsAddr:    cfg.MetricsAddr,
		WindowSize: func() (int, int) {
			return cfg.Window.Width, cfg.Window.Height
		},
		ApplyStyle: func(size geometry.Size, hint string) {
			log.Debug().Int("w", size.W).Int("h", size.H).Str("hint", hint).Msg("surface geometry updated")
		},
	})
	return s, nil
}

// resolveICEServers implements spec.md §6's turn-configuration contract:
// when --turn-config-url is set, ICE servers come from that endpoint's
// entry [0] (STUN) and entry [1] (TURN, if present); otherwise the static
// --stun/--turn flags are used directly.
func resolveICEServers(log *logger.Logger) []webrtcx.ICEServer {
	if cfg.Webrtc.TURNConfigURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		servers, err := webrtcx.FetchICEServers(ctx, nil, cfg.Webrtc.TURNConfigURL)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.Webrtc.TURNConfigURL).Msg("falling back to static ICE server config")
		} else {
			return servers
		}
	}

	var iceServers []webrtcx.ICEServer
	if cfg.Webrtc.STUNServer != "" {
		iceServers = append(iceServers, webrtcx.ICEServer{URLs: []string{cfg.Webrtc.STUNServer}})
	}
	if cfg.Webrtc.TURNServer != "" {
		iceServers = append(iceServers, webrtcx.ICEServer{
			URLs:       []string{cfg.Webrtc.TURNServer},
			Username:   cfg.Webrtc.TURNUser,
			Credential: cfg.Webrtc.TURNPass,
		})
	}
	return iceServers
}

// awaitInterrupt returns immediately with a context that is cancelled
// when SIGINT or SIGTERM arrives.
func awaitInterrupt() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}

func main() {
	Execute()
}
