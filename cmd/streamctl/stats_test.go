package main

import (
	"context"
	"testing"
	"time"

	"github.com/selkies-project/selkies/internal/stats"
)

func TestRenderStatsTableStopsOnChannelClose(t *testing.T) {
	ch := make(chan stats.Snapshot, 2)
	ch <- stats.Snapshot{VideoBitrateMbps: 4.2, ConnectionLatencyMs: 18}
	close(ch)

	done := make(chan struct{})
	go func() {
		renderStatsTable(context.Background(), ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("renderStatsTable did not return after the channel closed")
	}
}

func TestRenderStatsTableStopsOnContextCancel(t *testing.T) {
	ch := make(chan stats.Snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		renderStatsTable(ctx, ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("renderStatsTable did not return after context cancellation")
	}
}
