// Package session implements the Session Orchestrator (spec.md §4.H):
// the thin façade composing the Signaling Client, Transport Manager,
// Settings Reconciler, Rendering Geometry Controller, File Upload
// Pipeline and Stats Aggregator behind one lifecycle, grounded on the
// teacher's pkg/coordinator/user.User — a thin per-connection façade
// composing a wire client and a worker handle behind one type.
package session

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/selkies-project/selkies/internal/geometry"
	"github.com/selkies-project/selkies/internal/lifecycle"
	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/monitoring"
	"github.com/selkies-project/selkies/internal/netutil"
	"github.com/selkies-project/selkies/internal/protocol"
	"github.com/selkies-project/selkies/internal/settings"
	"github.com/selkies-project/selkies/internal/signaling"
	"github.com/selkies-project/selkies/internal/stats"
	"github.com/selkies-project/selkies/internal/upload"
	"github.com/selkies-project/selkies/internal/webrtcx"
)

// reloadDelay is the pause between a server "reload" system action and
// the orchestrator tearing down the transport (spec.md §8 scenario 6).
const reloadDelay = 700 * time.Millisecond

// Config bundles everything needed to construct a Session.
type Config struct {
	Namespace      string // storage slug, spec.md §6
	SignalingURL   url.URL
	BackoffBase    time.Duration
	BackoffCeiling time.Duration
	ICEServers     []webrtcx.ICEServer
	ForceRelay     bool
	MetricsAddr    string

	WindowSize func() (int, int)
	ApplyStyle func(geometry.Size, string)

	ClientSample func() stats.ClientSample
}

// Session wires Modules A-G into one lifecycle, driven by dashboard
// messages in and DashboardEvents out.
type Session struct {
	id        netutil.Uid
	log       *logger.Logger
	namespace string

	store     settings.Store
	transport *webrtcx.Manager
	sig       *signaling.Client
	geometry  *geometry.Controller
	uploader  *upload.Pipeline
	statsAgg  *stats.Aggregator
	metrics   *monitoring.Server

	group lifecycle.Group

	DashboardEvents chan DashboardEvent
	uploadOut       chan upload.Event

	mu         sync.Mutex
	runCtx     context.Context
	cancel     context.CancelFunc
	cleanedUp  bool
	streamMode string
}

// New constructs a Session. store is the persisted settings adapter
// (filestore.Store for production use, memstore.Store in tests).
func New(log *logger.Logger, store settings.Store, cfg Config) *Session {
	id := netutil.NewUid()
	log = log.Extend(log.With().Str("session", id.Short()))

	transport := webrtcx.New(log, nil)
	transport.Configure(webrtcx.Config{ICEServers: cfg.ICEServers, ForceRelay: cfg.ForceRelay})

	sig := signaling.New(log, cfg.SignalingURL, cfg.BackoffBase, cfg.BackoffCeiling)

	s := &Session{
		id:              id,
		log:             log,
		namespace:       cfg.Namespace,
		store:           store,
		transport:       transport,
		sig:             sig,
		uploader:        upload.New(transport, transport),
		DashboardEvents: make(chan DashboardEvent, 16),
		uploadOut:       make(chan upload.Event, 32),
		streamMode:      "webrtc",
	}

	s.geometry = geometry.New(cfg.WindowSize, s.sendResolution, cfg.ApplyStyle)
	s.statsAgg = stats.New(&statsSource{transport: transport}, transport, cfg.ClientSample)

	s.group.Add(transport, s.statsAgg)
	if cfg.MetricsAddr != "" {
		s.metrics = monitoring.New(log, cfg.MetricsAddr)
		s.group.Add(s.metrics)
	}

	return s
}

// Initialize starts the component group and begins bridging component
// events (spec.md §6 "initialize()"). It returns once the signaling
// connection is dialed; steady-state work runs in background
// goroutines tied to ctx's lifetime.
func (s *Session) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runCtx = ctx
	s.cancel = cancel
	s.cleanedUp = false
	s.mu.Unlock()

	s.group.Start()

	go s.bridgeSignaling(ctx)
	go s.bridgeTransport(ctx)
	go s.bridgeUpload(ctx)

	return s.sig.Connect(ctx)
}

// Cleanup tears down every listener and resets mutable state
// (spec.md §6 exit policy). Idempotent: a second call is a no-op.
func (s *Session) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	if s.cleanedUp {
		s.mu.Unlock()
		return nil
	}
	s.cleanedUp = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.geometry.DisableAutoResize()
	s.sig.Disconnect()
	return s.group.Shutdown(ctx)
}

// ID returns the session's opaque log-correlation identifier. It has no
// counterpart in spec.md's browser-side model — the browser's DOM has no
// analog for multiplexing many concurrent sessions through one process's
// log stream, so this exists purely to tell them apart here.
func (s *Session) ID() netutil.Uid { return s.id }

// OnFocus implements spec.md §4.H focus handling: a keyboard reset plus,
// in a secure context, a clipboard read forwarded via "cw". secureRead
// is the embedder-supplied clipboard accessor (nil in headless use).
func (s *Session) OnFocus(secureRead func() (string, bool)) {
	_ = s.transport.SendDataChannelMessage(protocol.Encode(protocol.OpKeyboardReset, ""))
	if secureRead == nil {
		return
	}
	if text, ok := secureRead(); ok {
		s.sendClipboard(text)
	}
}

// OnBlur implements spec.md §4.H blur handling: keyboard reset only.
func (s *Session) OnBlur() {
	_ = s.transport.SendDataChannelMessage(protocol.Encode(protocol.OpKeyboardReset, ""))
}

func (s *Session) sendResolution(w, h int) {
	_ = s.sig.SendResolution(w, h)
	_ = s.transport.SendDataChannelMessage(protocol.EncodeResolution(w, h))
}

func (s *Session) sendClipboard(text string) {
	if err := s.transport.SendDataChannelMessage(protocol.EncodeClipboard(text)); err != nil {
		s.log.Warn().Err(err).Msg("clipboard write dropped")
	}
	emitDashboard(s.DashboardEvents, DashboardEvent{Type: EventClipboardContentUpdate, ClipboardText: text})
}

func (s *Session) sendCommand(cmd string) {
	_ = s.transport.SendDataChannelMessage(protocol.Encode(protocol.OpCommand, cmd))
}

// setStreamMode persists the stream-mode switch and triggers the same
// reload path as a server "reload" system action (spec.md §4.H "mode
// (stream-mode switch; triggers reload)").
func (s *Session) setStreamMode(mode string) {
	s.mu.Lock()
	s.streamMode = mode
	ctx := s.runCtx
	s.mu.Unlock()
	_ = s.store.Set(s.namespace, "stream_mode", mode)

	if ctx != nil {
		s.handleSystemAction(ctx, "reload")
	}
}

func (s *Session) setScaleLocally(v bool) {
	_ = s.store.Set(s.namespace, "resize_remote", formatBool(!v))
}

func (s *Session) setManualResolution(w, h int) {
	s.geometry.ApplyManualStyle(w, h, true)
	_ = s.sig.SendResolution(w, h)
	_ = s.transport.SendDataChannelMessage(protocol.EncodeResolution(w, h))
	_ = s.store.Set(s.namespace, "manual_width", strconv.Itoa(w))
	_ = s.store.Set(s.namespace, "manual_height", strconv.Itoa(h))
	_ = s.store.Set(s.namespace, "is_manual_resolution_mode", "true")
}

// StatsSnapshots exposes the Stats Aggregator's per-tick channel directly,
// for embedders (streamctl's "stats" subcommand) that want the derived
// bitrate/latency numbers without polling /metrics. The Session itself
// does not read this channel, so the caller is its sole consumer.
func (s *Session) StatsSnapshots() <-chan stats.Snapshot {
	return s.statsAgg.DashboardEvents
}

func (s *Session) requestFileUpload(paths []string) {
	go func() {
		if err := s.uploader.UploadPaths(context.Background(), paths, s.uploadOut); err != nil {
			s.log.Warn().Err(err).Msg("upload batch ended with error")
		}
	}()
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func emitDashboard(ch chan DashboardEvent, ev DashboardEvent) {
	select {
	case ch <- ev:
	default:
	}
}

// statsSource adapts webrtcx.Manager.GetStats to stats.Source.
type statsSource struct {
	transport *webrtcx.Manager
}

func (a *statsSource) Sample() (stats.Sample, error) {
	snap, err := a.transport.GetStats(context.Background())
	if err != nil {
		return stats.Sample{}, err
	}
	return stats.Sample{
		VideoBytesReceived: snap.VideoBytesReceived,
		AudioBytesReceived: snap.AudioBytesReceived,
		VideoJitterDelay:   snap.VideoJitterDelay,
		VideoJitterEmitted: snap.VideoJitterEmitted,
		AudioJitterDelay:   snap.AudioJitterDelay,
		AudioJitterEmitted: snap.AudioJitterEmitted,
		VideoCodec:         snap.VideoCodec,
		AudioCodec:         snap.AudioCodec,
		RoundTripTimeMs:    snap.RoundTripTimeMs,
	}, nil
}
