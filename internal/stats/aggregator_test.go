package stats

import (
	"context"
	"sync"
	"testing"
)

func TestDeriveBitrateFromByteDelta(t *testing.T) {
	prev := Sample{VideoBytesReceived: 0, AudioBytesReceived: 0}
	cur := Sample{VideoBytesReceived: 1_000_000, AudioBytesReceived: 25_000}

	snap := Derive(prev, cur, 1.0)

	wantVideo := (1_000_000.0 * 8) / 1e6
	if snap.VideoBitrateMbps != wantVideo {
		t.Fatalf("VideoBitrateMbps = %v, want %v", snap.VideoBitrateMbps, wantVideo)
	}
	wantAudio := (25_000.0 * 8) / 1e3
	if snap.AudioBitrateKbps != wantAudio {
		t.Fatalf("AudioBitrateKbps = %v, want %v", snap.AudioBitrateKbps, wantAudio)
	}
}

func TestDeriveZeroDtYieldsZeroBitrate(t *testing.T) {
	prev := Sample{VideoBytesReceived: 100}
	cur := Sample{VideoBytesReceived: 200}

	snap := Derive(prev, cur, 0)

	if snap.VideoBitrateMbps != 0 || snap.AudioBitrateKbps != 0 {
		t.Fatalf("expected zero bitrate with dt=0, got %+v", snap)
	}
}

func TestDeriveLatencyUsesRTTPlusJitterDelta(t *testing.T) {
	prev := Sample{
		RoundTripTimeMs:    0,
		VideoJitterDelay:   1.0,
		VideoJitterEmitted: 100,
	}
	cur := Sample{
		RoundTripTimeMs:    20,
		VideoJitterDelay:   1.2,
		VideoJitterEmitted: 200,
	}

	snap := Derive(prev, cur, 1.0)

	want := 20 + 1000*(0.2)/100
	if snap.VideoLatencyMs != want {
		t.Fatalf("VideoLatencyMs = %v, want %v", snap.VideoLatencyMs, want)
	}
}

func TestDeriveLatencyZeroWhenJitterEmittedUnchanged(t *testing.T) {
	prev := Sample{RoundTripTimeMs: 15, VideoJitterEmitted: 500, VideoJitterDelay: 3}
	cur := Sample{RoundTripTimeMs: 15, VideoJitterEmitted: 500, VideoJitterDelay: 9}

	snap := Derive(prev, cur, 1.0)

	if snap.VideoLatencyMs != 0 {
		t.Fatalf("VideoLatencyMs = %v, want 0 when jitter emitted count unchanged", snap.VideoLatencyMs)
	}
}

func TestDeriveConnectionLatencyIsMax(t *testing.T) {
	prev := Sample{
		VideoJitterEmitted: 0, AudioJitterEmitted: 0,
	}
	cur := Sample{
		RoundTripTimeMs:    10,
		VideoJitterEmitted: 10, VideoJitterDelay: 0,
		AudioJitterEmitted: 10, AudioJitterDelay: 0.5,
	}

	snap := Derive(prev, cur, 1.0)

	wantAudio := 10 + 1000*0.5/10
	if snap.AudioLatencyMs != wantAudio {
		t.Fatalf("AudioLatencyMs = %v, want %v", snap.AudioLatencyMs, wantAudio)
	}
	if snap.ConnectionLatencyMs != snap.AudioLatencyMs {
		t.Fatalf("ConnectionLatencyMs = %v, want max() = %v", snap.ConnectionLatencyMs, snap.AudioLatencyMs)
	}
}

type stepSource struct {
	mu      sync.Mutex
	samples []Sample
	i       int
}

func (s *stepSource) Sample() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.samples) {
		return s.samples[len(s.samples)-1], nil
	}
	v := s.samples[s.i]
	s.i++
	return v, nil
}

type fakePrimary struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakePrimary) SendDataChannelMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, text)
	return nil
}

func (f *fakePrimary) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.lines {
		if len(l) >= len(prefix) && l[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestAggregatorPushesStatsVideoEveryTick(t *testing.T) {
	src := &stepSource{samples: []Sample{
		{VideoBytesReceived: 0},
		{VideoBytesReceived: 1000},
		{VideoBytesReceived: 2500},
	}}
	primary := &fakePrimary{}
	agg := New(src, primary, func() ClientSample { return ClientSample{FPS: 60, LatencyMs: 12} })

	agg.tick()
	agg.tick()
	agg.tick()

	if got := primary.count("_stats_video,"); got != 2 {
		t.Fatalf("expected 2 _stats_video pushes after 3 ticks (first tick seeds baseline), got %d", got)
	}
}

func TestAggregatorFirstTickSeedsBaselineWithoutPublishing(t *testing.T) {
	src := &stepSource{samples: []Sample{{VideoBytesReceived: 500}}}
	primary := &fakePrimary{}
	agg := New(src, primary, nil)

	agg.tick()

	select {
	case <-agg.DashboardEvents:
		t.Fatal("expected no dashboard event on the seeding tick")
	default:
	}
}

func TestAggregatorReportsClientFPSAndLatency(t *testing.T) {
	primary := &fakePrimary{}
	agg := New(&stepSource{samples: []Sample{{}}}, primary, func() ClientSample {
		return ClientSample{FPS: 30, LatencyMs: 5}
	})

	agg.reportClientSample()

	if primary.count("_f,") != 1 {
		t.Fatalf("expected one _f push, got lines %v", primary.lines)
	}
	if primary.count("_l,") != 1 {
		t.Fatalf("expected one _l push, got lines %v", primary.lines)
	}
}

func TestAggregatorRunShutdownIsIdempotent(t *testing.T) {
	src := &stepSource{samples: []Sample{{}, {VideoBytesReceived: 10}}}
	agg := New(src, &fakePrimary{}, nil)

	agg.Run()
	agg.Run() // second Run before Shutdown must not spawn a duplicate loop

	if err := agg.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := agg.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
