package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/selkies-project/selkies/internal/protocol"
	"github.com/selkies-project/selkies/internal/settings"
	"github.com/selkies-project/selkies/internal/signaling"
	"github.com/selkies-project/selkies/internal/upload"
)

// bridgeSignaling wires the answerer side of negotiation (spec.md §4.B
// "polarity inversion"): an incoming offer frame is handed to the
// Transport Manager, whose answer and discovered ICE candidates stream
// back out over the same signaling connection.
func (s *Session) bridgeSignaling(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-s.sig.Events.Frame:
			if !ok {
				return
			}
			s.handleSignalingFrame(frame)
		case dc, ok := <-s.sig.Events.Disconnect:
			if !ok {
				return
			}
			if dc.Reconnect {
				_ = s.transport.Reset()
			}
		case <-s.sig.Events.Status:
		case <-s.sig.Events.Error:
		case <-s.sig.Events.Debug:
		}
	}
}

func (s *Session) handleSignalingFrame(frame signaling.Frame) {
	switch frame.Kind {
	case signaling.KindOffer:
		var offer webrtc.SessionDescription
		if err := json.Unmarshal(frame.Payload, &offer); err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed sdp offer")
			return
		}
		answer, err := s.transport.Connect(offer)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to answer offer")
			return
		}
		if err := s.sig.SendAnswer(answer); err != nil {
			s.log.Warn().Err(err).Msg("failed to send answer")
		}
	case signaling.KindICE:
		var cand webrtc.ICECandidateInit
		if err := json.Unmarshal(frame.Payload, &cand); err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed ice candidate")
			return
		}
		if err := s.transport.AddICECandidate(cand); err != nil {
			s.log.Warn().Err(err).Msg("failed to add remote ice candidate")
		}
	default:
		s.log.Debug().Str("kind", string(frame.Kind)).Msg("unhandled signaling frame kind")
	}
}

// bridgeTransport fans the Transport Manager's typed events out to the
// dashboard, the Settings Reconciler, and the reload/reconnect path.
func (s *Session) bridgeTransport(ctx context.Context) {
	ev := s.transport.Events
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-ev.ClipboardContent:
			if !ok {
				return
			}
			emitDashboard(s.DashboardEvents, DashboardEvent{Type: EventClipboardContentUpdate, ClipboardText: text})
		case payload, ok := <-ev.ServerSettings:
			if !ok {
				return
			}
			s.reconcileServerSettings(payload)
		case action, ok := <-ev.SystemAction:
			if !ok {
				return
			}
			s.handleSystemAction(ctx, action)
		case cand, ok := <-ev.ICECandidate:
			if !ok {
				return
			}
			if err := s.sig.SendICECandidate(cand); err != nil {
				s.log.Warn().Err(err).Msg("failed to send local ice candidate")
			}
		case payload, ok := <-ev.GPUStats:
			if !ok {
				return
			}
			emitDashboard(s.DashboardEvents, DashboardEvent{Type: EventGPUStats, HostStatsPayload: payload})
		case payload, ok := <-ev.SystemStats:
			if !ok {
				return
			}
			emitDashboard(s.DashboardEvents, DashboardEvent{Type: EventSystemStats, HostStatsPayload: payload})
		case <-ev.DataChannelOpen:
		case <-ev.DataChannelClose:
		case <-ev.ConnectionStateChange:
		case <-ev.PlayStreamRequired:
		case <-ev.CursorChange:
		case <-ev.LatencyMeasurement:
		case <-ev.Status:
		case <-ev.Error:
		case <-ev.Debug:
		}
	}
}

func (s *Session) reconcileServerSettings(payload string) {
	server, err := protocol.DecodeServerSettings(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed server_settings payload")
		return
	}

	res := settings.Reconcile(s.store, s.namespace, server)

	if len(res.Delta) > 0 {
		line, err := protocol.EncodeSettings(res.Delta)
		if err == nil {
			_ = s.transport.SendDataChannelMessage(line)
		}
	}

	if res.Manual {
		s.geometry.ApplyManualStyle(res.ManualW, res.ManualH, true)
	}

	emitDashboard(s.DashboardEvents, DashboardEvent{Type: EventServerSettings, ServerSettingsPayload: payload})
}

// handleSystemAction implements spec.md §8 scenario 6: a "reload"
// directive tears the transport and signaling connection down 700ms
// later so the server can drive a fresh offer.
func (s *Session) handleSystemAction(ctx context.Context, action string) {
	if action != "reload" {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(reloadDelay):
		}
		_ = s.transport.Reset()
		s.sig.Disconnect()
		_ = s.sig.Connect(ctx)
	}()
}

// bridgeUpload forwards File Upload Pipeline progress events to the
// dashboard as fileUpload{...} messages (spec.md §6).
func (s *Session) bridgeUpload(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.uploadOut:
			if !ok {
				return
			}
			emitDashboard(s.DashboardEvents, uploadEventToDashboard(e))
		}
	}
}

func uploadEventToDashboard(e upload.Event) DashboardEvent {
	ev := DashboardEvent{
		Type:           EventFileUpload,
		UploadFileName: e.Path,
		UploadFileSize: e.FileSize,
		UploadProgress: e.Offset,
		UploadMessage:  e.Message,
	}
	switch e.Kind {
	case upload.EventStart:
		ev.UploadStatus = "start"
	case upload.EventProgress:
		ev.UploadStatus = "progress"
	case upload.EventComplete:
		ev.UploadStatus = "complete"
	case upload.EventError:
		ev.UploadStatus = "error"
	case upload.EventRejected:
		ev.UploadStatus = "warning"
		ev.UploadFileName = "_N/A_"
	}
	return ev
}
