package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/session"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path> [path...]",
	Short: "Connect and push one or more files/directories through the upload pipeline",
	Long: `upload negotiates a session, waits for the transport to come up, then
walks and streams each given path over the auxiliary data channel, mirroring
what the browser dashboard's drag-and-drop upload does (spec.md §4.F).`,
	Args: cobra.MinimumNArgs(1),
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
		defer s.Cleanup(context.Background())

		log.Info().Msg("waiting for the transport to negotiate before uploading")

		done := make(chan error, 1)
		go func() { done <- renderUploadProgress(ctx, s) }()

		s.HandleDashboardMessage(session.DashboardMessage{
			Type:        session.MsgRequestFileUpload,
			UploadPaths: args,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

// renderUploadProgress drives a single progressbar.ProgressBar across the
// fileUpload{...} dashboard events for one batch, the same
// describe-and-Set64 loop as quocthang28-yapfs's ProgressUI.UpdateProgress,
// swapped from a throughput percentage onto the raw byte offsets this
// pipeline reports.
func renderUploadProgress(ctx context.Context, s *session.Session) error {
	var bar *progressbar.ProgressBar

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.DashboardEvents:
			if !ok {
				return nil
			}
			if ev.Type != session.EventFileUpload {
				continue
			}
			switch ev.UploadStatus {
			case "start":
				bar = progressbar.NewOptions64(ev.UploadFileSize,
					progressbar.OptionSetDescription(fmt.Sprintf("Uploading %s", ev.UploadFileName)),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetWidth(50),
					progressbar.OptionShowCount(),
					progressbar.OptionFullWidth(),
					progressbar.OptionSetRenderBlankState(true),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionSetPredictTime(false),
				)
			case "progress":
				if bar != nil {
					_ = bar.Set64(ev.UploadProgress)
				}
			case "complete":
				if bar != nil {
					_ = bar.Finish()
				}
				return nil
			case "error", "warning":
				if bar != nil {
					_ = bar.Clear()
				}
				return fmt.Errorf("upload %s: %s", ev.UploadFileName, ev.UploadMessage)
			}
		}
	}
}
