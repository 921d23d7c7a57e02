// Package webrtcx is the Transport Manager (spec.md §4.B): it owns the
// peer connection, the primary and auxiliary data channels, and the two
// media receivers. Unlike the teacher — which plays the offerer/server
// role — this Manager is the answerer, since the core it belongs to
// stands in for the browser tab. Peer-connection assembly (media
// engine, interceptor registry, setting engine) is grounded on the
// teacher's pkg/webrtc/peer.go and connection.go; data-channel handling
// is grounded on pkg/webrtc/inputchan.go.
package webrtcx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"

	"github.com/selkies-project/selkies/internal/logger"
)

const (
	// HighWaterMark and LowWaterMark bound the aux channel's buffered
	// amount (spec.md §4.B back-pressure policy).
	HighWaterMark = 1 << 20   // 1 MiB
	LowWaterMark  = 256 << 10 // 256 KiB

	primaryChannelLabel = "input"
	auxChannelLabel     = "aux"

	minLatencyInterval = 15 * time.Millisecond
)

var (
	ErrAuxChannelNotOpen = errors.New("webrtcx: aux channel is not open")
	ErrPrimaryNotOpen    = errors.New("webrtcx: primary channel is not open")
	ErrNoPeerConnection  = errors.New("webrtcx: connect has not been called")
)

// JitterBufferResetter lets a caller wire the minimum-latency loop
// (spec.md §4.B) into a real jitter-buffer control surface. pion/webrtc
// exposes no public jitter-buffer target API, so by default the loop
// runs but has nothing to reset; embedders that need the real effect
// supply their own resetter.
type JitterBufferResetter interface {
	ResetJitterBufferTarget()
}

type noopResetter struct{}

func (noopResetter) ResetJitterBufferTarget() {}

// Manager is the Transport Manager. Zero value is not usable; construct
// with New.
type Manager struct {
	log      *logger.Logger
	cfg      Config
	Events   *Events
	resetter JitterBufferResetter

	mu      sync.Mutex
	pc      *webrtc.PeerConnection
	primary *webrtc.DataChannel
	aux     *webrtc.DataChannel

	minLatencyCancel context.CancelFunc
}

func New(log *logger.Logger, resetter JitterBufferResetter) *Manager {
	if resetter == nil {
		resetter = noopResetter{}
	}
	return &Manager{log: log, Events: newEvents(), resetter: resetter}
}

// Configure sets the ICE server list and relay policy. Must be called
// before Connect.
func (m *Manager) Configure(cfg Config) { m.cfg = cfg }

// Run satisfies lifecycle.Runnable. The Manager has no independent
// background loop of its own outside a negotiated connection — it is
// driven by Connect/AddICECandidate calls from the Session Orchestrator
// — so this only logs readiness.
func (m *Manager) Run() {
	m.log.Info().Msg("transport manager ready")
}

// Shutdown tears down any live peer connection, satisfying
// lifecycle.Runnable for the Session Orchestrator's component group.
func (m *Manager) Shutdown(ctx context.Context) error {
	return m.Reset()
}

func (m *Manager) String() string { return "webrtcx.Manager" }

// Connect negotiates as the answerer: it consumes the server's offer and
// returns the local answer. Resolves once the peer connection object
// exists; callers should wait on Events.DataChannelOpen for the primary
// channel readiness spec.md promises.
func (m *Manager) Connect(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	pc, err := m.newPeerConnection()
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	m.mu.Lock()
	m.pc = pc
	m.mu.Unlock()

	m.wireCallbacks(pc)

	if err := pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

// AddICECandidate forwards a remote candidate discovered over signaling.
func (m *Manager) AddICECandidate(c webrtc.ICECandidateInit) error {
	m.mu.Lock()
	pc := m.pc
	m.mu.Unlock()
	if pc == nil {
		return ErrNoPeerConnection
	}
	return pc.AddICECandidate(c)
}

func (m *Manager) newPeerConnection() (*webrtc.PeerConnection, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := registerCodecs(mediaEngine); err != nil {
		return nil, err
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, err
	}

	settingEngine := webrtc.SettingEngine{LoggerFactory: logger.NewPionLogger(m.log, 0)}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(settingEngine),
	)
	return api.NewPeerConnection(m.cfg.toPion())
}

func (m *Manager) wireCallbacks(pc *webrtc.PeerConnection) {
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		switch dc.Label() {
		case primaryChannelLabel:
			m.attachPrimary(dc)
		case auxChannelLabel:
			m.attachAux(dc)
		default:
			m.log.Debug().Str("label", dc.Label()).Msg("ignoring unknown data channel")
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		emit(m.Events.ConnectionStateChange, s.String())
		if s == webrtc.PeerConnectionStateConnected {
			m.startMinLatencyLoop()
		}
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed || s == webrtc.PeerConnectionStateDisconnected {
			m.stopMinLatencyLoop()
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		m.log.Debug().Str("kind", track.Kind().String()).Str("codec", track.Codec().MimeType).Msg("received remote track")
		go m.drainTrack(track)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			// end-of-candidates: nothing further to trickle.
			return
		}
		emit(m.Events.ICECandidate, c.ToJSON())
	})
}

// drainTrack discards RTP packets on the two receiver tracks; actual
// decode/render happens outside this core (spec.md scopes it to the
// media surface, not the transport).
func (m *Manager) drainTrack(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

func (m *Manager) attachPrimary(dc *webrtc.DataChannel) {
	m.mu.Lock()
	m.primary = dc
	m.mu.Unlock()

	dc.OnOpen(func() { emit(m.Events.DataChannelOpen, struct{}{}) })
	dc.OnClose(func() { emit(m.Events.DataChannelClose, struct{}{}) })
	dc.OnError(func(err error) { emit(m.Events.Error, err) })
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		m.handlePrimaryMessage(msg)
	})
}

func (m *Manager) attachAux(dc *webrtc.DataChannel) {
	dc.SetBufferedAmountLowThreshold(uint64(LowWaterMark))
	m.mu.Lock()
	m.aux = dc
	m.mu.Unlock()
}

// SendDataChannelMessage sends text on the primary channel. Per
// spec.md §4.B it MUST drop with a logged warning, not error loudly,
// when the channel is not open — errors are still returned so callers
// that need to know (e.g. the upload pipeline's FILE_UPLOAD_* framing)
// can react.
func (m *Manager) SendDataChannelMessage(text string) error {
	m.mu.Lock()
	dc := m.primary
	m.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		m.log.Warn().Msg("primary channel not open, dropping message")
		return ErrPrimaryNotOpen
	}
	return dc.SendText(text)
}

// SendDataChannelBytes sends binary cursor/stats payloads on the primary
// channel, same drop-not-throw policy as SendDataChannelMessage.
func (m *Manager) SendDataChannelBytes(data []byte) error {
	m.mu.Lock()
	dc := m.primary
	m.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		m.log.Warn().Msg("primary channel not open, dropping binary message")
		return ErrPrimaryNotOpen
	}
	return dc.Send(data)
}

// CreateAuxDataChannel allocates the on-demand auxiliary channel. Returns
// false without disturbing any existing channel if one is already open
// (spec.md §3 aux-channel invariant).
func (m *Manager) CreateAuxDataChannel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aux != nil {
		return false
	}
	if m.pc == nil {
		return false
	}

	ordered := true
	dc, err := m.pc.CreateDataChannel(auxChannelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to create aux data channel")
		return false
	}
	dc.SetBufferedAmountLowThreshold(uint64(LowWaterMark))
	m.aux = dc
	return true
}

// WaitForAuxChannelOpen blocks until the aux channel's ready state is
// open or ctx is cancelled.
func (m *Manager) WaitForAuxChannelOpen(ctx context.Context) error {
	m.mu.Lock()
	dc := m.aux
	m.mu.Unlock()
	if dc == nil {
		return ErrAuxChannelNotOpen
	}
	if dc.ReadyState() == webrtc.DataChannelStateOpen {
		return nil
	}

	opened := make(chan struct{})
	dc.OnOpen(func() { close(opened) })
	select {
	case <-opened:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendAuxChannelData sends one framed chunk on the aux channel.
func (m *Manager) SendAuxChannelData(data []byte) error {
	m.mu.Lock()
	dc := m.aux
	m.mu.Unlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrAuxChannelNotOpen
	}
	return dc.Send(data)
}

// IsAuxBufferNearThreshold reports whether the aux channel's buffered
// amount has reached the high-water mark.
func (m *Manager) IsAuxBufferNearThreshold() bool {
	m.mu.Lock()
	dc := m.aux
	m.mu.Unlock()
	if dc == nil {
		return false
	}
	return dc.BufferedAmount() >= HighWaterMark
}

// AwaitAuxBufferToDrain blocks until the aux channel's buffered amount
// falls to the low-water mark, the channel closes, or ctx is cancelled.
func (m *Manager) AwaitAuxBufferToDrain(ctx context.Context) {
	m.mu.Lock()
	dc := m.aux
	m.mu.Unlock()
	if dc == nil {
		return
	}
	if dc.BufferedAmount() <= LowWaterMark {
		return
	}

	drained := make(chan struct{}, 1)
	dc.OnBufferedAmountLow(func() {
		select {
		case drained <- struct{}{}:
		default:
		}
	})

	for {
		select {
		case <-drained:
			return
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
			if dc.ReadyState() != webrtc.DataChannelStateOpen || dc.BufferedAmount() <= LowWaterMark {
				return
			}
		}
	}
}

// CloseAuxDataChannel closes and forgets the aux channel, freeing the
// "at most one" slot for the next batch.
func (m *Manager) CloseAuxDataChannel() {
	m.mu.Lock()
	dc := m.aux
	m.aux = nil
	m.mu.Unlock()
	if dc != nil {
		_ = dc.Close()
	}
}

// Reset tears down the peer connection and both channels, leaving media
// elements detached per spec.md §4.B.
func (m *Manager) Reset() error {
	m.stopMinLatencyLoop()

	m.mu.Lock()
	pc := m.pc
	m.pc = nil
	m.primary = nil
	m.aux = nil
	m.mu.Unlock()

	if pc == nil {
		return nil
	}
	return pc.Close()
}

func (m *Manager) startMinLatencyLoop() {
	m.mu.Lock()
	if m.minLatencyCancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.minLatencyCancel = cancel
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(minLatencyInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.resetter.ResetJitterBufferTarget()
			}
		}
	}()
}

func (m *Manager) stopMinLatencyLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.minLatencyCancel != nil {
		m.minLatencyCancel()
		m.minLatencyCancel = nil
	}
}
