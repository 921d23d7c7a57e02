// Package stats implements the Stats Aggregator (spec.md §4.G): a 1s
// sampling loop deriving bitrate and latency figures from transport
// counters, grounded on the teacher's periodic-ticker idiom (e.g.
// pkg/worker/room.go's autosave ticker) generalized into a cancellable
// loop, with Prometheus publication grounded on pkg/monitoring.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/selkies-project/selkies/internal/monitoring"
	"github.com/selkies-project/selkies/internal/protocol"
)

const (
	sampleInterval       = 1 * time.Second
	clientReportInterval = 5 * time.Second
)

// PrimarySender pushes a line onto the primary data channel.
type PrimarySender interface {
	SendDataChannelMessage(text string) error
}

// ClientSample is the browser-observed FPS/latency pair pushed every
// 5s via "_f"/"_l" (spec.md §4.G).
type ClientSample struct {
	FPS       int
	LatencyMs int
}

// Aggregator runs the sampling loop. DashboardEvents receives one
// Snapshot per tick for the dashboard bridge (spec.md §6 "well-known
// message channel").
type Aggregator struct {
	source  Source
	primary PrimarySender

	DashboardEvents chan Snapshot

	clientSample func() ClientSample

	prev       Sample
	haveSample bool
	prevTick   time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(source Source, primary PrimarySender, clientSample func() ClientSample) *Aggregator {
	return &Aggregator{
		source:          source,
		primary:         primary,
		DashboardEvents: make(chan Snapshot, 4),
		clientSample:    clientSample,
	}
}

// Run implements lifecycle.Runnable, starting the sampling and
// client-report loops in the background. Idempotent.
func (a *Aggregator) Run() {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()

	go a.loop(ctx)
}

// Shutdown implements lifecycle.Runnable, stopping the loops started by
// Run. Idempotent.
func (a *Aggregator) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (a *Aggregator) String() string { return "stats.Aggregator" }

// loop drives the sampling and client-report ticks until ctx is
// cancelled.
func (a *Aggregator) loop(ctx context.Context) {
	sampleTicker := time.NewTicker(sampleInterval)
	defer sampleTicker.Stop()
	clientTicker := time.NewTicker(clientReportInterval)
	defer clientTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sampleTicker.C:
			a.tick()
		case <-clientTicker.C:
			a.reportClientSample()
		}
	}
}

func (a *Aggregator) tick() {
	now := time.Now()
	cur, err := a.source.Sample()
	if err != nil {
		return
	}

	if !a.haveSample {
		a.prev = cur
		a.prevTick = now
		a.haveSample = true
		return
	}

	dt := now.Sub(a.prevTick).Seconds()
	snap := Derive(a.prev, cur, dt)
	a.prev = cur
	a.prevTick = now

	monitoring.VideoBitrateMbps.Set(snap.VideoBitrateMbps)
	monitoring.AudioBitrateKbps.Set(snap.AudioBitrateKbps)
	monitoring.VideoLatencyMs.Set(snap.VideoLatencyMs)
	monitoring.AudioLatencyMs.Set(snap.AudioLatencyMs)
	monitoring.ConnectionLatencyMs.Set(snap.ConnectionLatencyMs)

	select {
	case a.DashboardEvents <- snap:
	default:
	}

	if a.primary != nil {
		payload := protocol.StatsVideoPayload{
			BytesReceived:     cur.VideoBytesReceived,
			PacketsReceived:   0,
			JitterBufferDelay: cur.VideoJitterDelay,
			JitterBufferEmit:  cur.VideoJitterEmitted,
			Codec:             cur.VideoCodec,
			RoundTripTimeMs:   cur.RoundTripTimeMs,
		}
		if line, err := protocol.EncodeStatsVideo(payload); err == nil {
			_ = a.primary.SendDataChannelMessage(line)
		}
	}
}

func (a *Aggregator) reportClientSample() {
	if a.clientSample == nil || a.primary == nil {
		return
	}
	cs := a.clientSample()
	_ = a.primary.SendDataChannelMessage(protocol.EncodeInt(protocol.OpClientFPS, cs.FPS))
	_ = a.primary.SendDataChannelMessage(protocol.EncodeInt(protocol.OpClientLatency, cs.LatencyMs))
}

// Derive implements the spec.md §4.G formulas. dt is the elapsed time in
// seconds between prev and cur; denominators of zero yield a latency of
// 0 rather than dividing by zero.
func Derive(prev, cur Sample, dt float64) Snapshot {
	var snap Snapshot
	if dt > 0 {
		dVideoBytes := float64(cur.VideoBytesReceived - prev.VideoBytesReceived)
		dAudioBytes := float64(cur.AudioBytesReceived - prev.AudioBytesReceived)
		snap.VideoBitrateMbps = (dVideoBytes * 8) / (dt * 1e6)
		snap.AudioBitrateKbps = (dAudioBytes * 8) / (dt * 1e3)
	}

	snap.VideoLatencyMs = latencyMs(cur.RoundTripTimeMs, prev.VideoJitterDelay, cur.VideoJitterDelay, prev.VideoJitterEmitted, cur.VideoJitterEmitted)
	snap.AudioLatencyMs = latencyMs(cur.RoundTripTimeMs, prev.AudioJitterDelay, cur.AudioJitterDelay, prev.AudioJitterEmitted, cur.AudioJitterEmitted)
	snap.ConnectionLatencyMs = max(snap.VideoLatencyMs, snap.AudioLatencyMs)
	return snap
}

func latencyMs(rtt, prevDelay, curDelay float64, prevEmitted, curEmitted uint64) float64 {
	dEmitted := curEmitted - prevEmitted
	if dEmitted == 0 {
		return 0
	}
	dDelay := curDelay - prevDelay
	return rtt + 1000*dDelay/float64(dEmitted)
}
