package webrtcx

import "github.com/pion/webrtc/v3"

// ICEServer mirrors one entry of the "./turn" HTTP response (spec.md
// §6): urls plus optional short-lived TURN credentials.
type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

// Config configures a Manager before Connect is called (spec.md §4.B
// "configure(iceServers, forceRelay) before connect()").
type Config struct {
	ICEServers []ICEServer
	ForceRelay bool
}

func (c Config) toPion() webrtc.Configuration {
	cfg := webrtc.Configuration{}
	for _, s := range c.ICEServers {
		cfg.ICEServers = append(cfg.ICEServers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	if c.ForceRelay {
		cfg.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}
	return cfg
}
