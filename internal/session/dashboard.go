package session

// DashboardMessageType enumerates the inbound dashboard message kinds
// (spec.md §4.H). Each maps 1:1 onto a method of one underlying
// component; unknown types are warned and dropped.
type DashboardMessageType string

const (
	MsgMode                    DashboardMessageType = "mode"
	MsgSetScaleLocally         DashboardMessageType = "setScaleLocally"
	MsgResetResolutionToWindow DashboardMessageType = "resetResolutionToWindow"
	MsgSetManualResolution     DashboardMessageType = "setManualResolution"
	MsgSetUseCSSScaling        DashboardMessageType = "setUseCssScaling"
	MsgClipboardUpdateFromUI   DashboardMessageType = "clipboardUpdateFromUI"
	MsgSettings                DashboardMessageType = "settings"
	MsgCommand                 DashboardMessageType = "command"
	MsgRequestFileUpload       DashboardMessageType = "requestFileUpload"
)

// DashboardMessage is one inbound postMessage payload, reformulated as a
// typed Go value instead of an untyped JS object (spec.md §9 Design
// Note "callback-soup event emitters").
type DashboardMessage struct {
	Type DashboardMessageType

	Mode          string
	Bool          bool
	Width, Height int
	ClipboardText string
	SettingsPatch map[string]string
	Command       string
	UploadPaths   []string
}

// DashboardEventType enumerates the outbound postMessage kinds
// (spec.md §6).
type DashboardEventType string

const (
	EventClipboardContentUpdate DashboardEventType = "clipboardContentUpdate"
	EventFileUpload             DashboardEventType = "fileUpload"
	EventServerSettings         DashboardEventType = "serverSettings"
	EventGPUStats               DashboardEventType = "gpuStats"
	EventSystemStats            DashboardEventType = "systemStats"
)

// DashboardEvent is one outbound message the orchestrator publishes for
// the embedding dashboard to subscribe to.
type DashboardEvent struct {
	Type DashboardEventType

	ClipboardText string

	UploadStatus   string
	UploadFileName string
	UploadFileSize int64
	UploadProgress int64
	UploadMessage  string

	ServerSettingsPayload string

	// HostStatsPayload carries the raw gpu_stats/system_stats JSON body
	// the host process reported (spec.md §4.B ongpustats/onsystemstats);
	// the orchestrator does not interpret it, only relays it.
	HostStatsPayload string
}

// HandleDashboardMessage routes one inbound message to the matching
// component call (spec.md §4.H routing table). Unknown types are
// logged at warning and dropped.
func (s *Session) HandleDashboardMessage(msg DashboardMessage) {
	switch msg.Type {
	case MsgMode:
		s.setStreamMode(msg.Mode)
	case MsgSetScaleLocally:
		s.setScaleLocally(msg.Bool)
	case MsgResetResolutionToWindow:
		s.geometry.ResetToWindowResolution()
	case MsgSetManualResolution:
		s.setManualResolution(msg.Width, msg.Height)
	case MsgSetUseCSSScaling:
		s.geometry.SetUseCSSScaling(msg.Bool)
	case MsgClipboardUpdateFromUI:
		s.sendClipboard(msg.ClipboardText)
	case MsgSettings:
		s.applySettingsPatch(msg.SettingsPatch)
	case MsgCommand:
		s.sendCommand(msg.Command)
	case MsgRequestFileUpload:
		s.requestFileUpload(msg.UploadPaths)
	default:
		s.log.Warn().Str("type", string(msg.Type)).Msg("dropping unknown dashboard message type")
	}
}
