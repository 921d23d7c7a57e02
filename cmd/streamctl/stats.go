package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Connect and print live bitrate/latency figures as a table",
	Long: `stats negotiates a session and renders each Stats Aggregator tick
(spec.md §4.G) as a row in a terminal table: video/audio bitrate and
video/audio/connection latency, refreshed once per second.`,
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

		renderStatsTable(ctx, s.StatsSnapshots())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// renderStatsTable prints one table per tick using jedib0t/go-pretty's
// table.Writer, the same declarative row/header shape used by the
// dependency pack's other CLI table renderers.
func renderStatsTable(ctx context.Context, snapshots <-chan stats.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Video Mbps", "Audio Kbps", "Video ms", "Audio ms", "Conn ms"})
			t.AppendRow(table.Row{
				fmt.Sprintf("%.2f", snap.VideoBitrateMbps),
				fmt.Sprintf("%.2f", snap.AudioBitrateKbps),
				fmt.Sprintf("%.1f", snap.VideoLatencyMs),
				fmt.Sprintf("%.1f", snap.AudioLatencyMs),
				fmt.Sprintf("%.1f", snap.ConnectionLatencyMs),
			})
			t.Render()
		}
	}
}
