package main

import (
	"os"
	"time"

	"github.com/kkyr/fig"
	flag "github.com/spf13/pflag"
)

// envPrefix mirrors the teacher's pkg/config/loader.go convention: a
// SCREAMING_SNAKE prefix in front of every environment override.
const envPrefix = "STREAMCTL"

// configPath allows a custom configuration file location, set via -c.
var configPath string

// Config bundles everything streamctl needs to dial a stream and drive a
// Session Orchestrator, loadable from a YAML/TOML/JSON file, environment
// variables, or flags, in that increasing order of precedence.
type Config struct {
	Namespace   string `fig:"namespace" default:"default"`
	StateDir    string `fig:"state_dir"`
	Debug       bool   `fig:"debug"`
	MetricsAddr string `fig:"metrics_addr"`

	Signaling struct {
		URL            string        `fig:"url" default:"ws://127.0.0.1:8080/signaling/"`
		BackoffBase    time.Duration `fig:"backoff_base" default:"500ms"`
		BackoffCeiling time.Duration `fig:"backoff_ceiling" default:"30s"`
	} `fig:"signaling"`

	Webrtc struct {
		STUNServer string `fig:"stun_server" default:"stun:stun.l.google.com:19302"`
		TURNServer string `fig:"turn_server"`
		TURNUser   string `fig:"turn_user"`
		TURNPass   string `fig:"turn_pass"`
		ForceRelay bool   `fig:"force_relay"`
		// TURNConfigURL, when set, takes priority over the static
		// STUN/TURN fields above: it is fetched via HTTP GET at
		// connect time (spec.md §6 "./turn" endpoint).
		TURNConfigURL string `fig:"turn_config_url"`
	} `fig:"webrtc"`

	Window struct {
		Width  int `fig:"width" default:"1280"`
		Height int `fig:"height" default:"720"`
	} `fig:"window"`
}

// NewConfig loads Config the way the teacher's config.NewCoordinatorConfig
// does: fig.Load against a small search path, panicking on a malformed
// file rather than limping along with half-applied settings.
func NewConfig() *Config {
	var c Config
	dirs := []string{"."}
	if configPath != "" {
		dirs = []string{configPath}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home+"/.streamctl")
	}
	// A missing streamctl.yaml is fine — every field above has a fig
	// default tag — but a malformed one that fig did find is not.
	if err := fig.Load(&c, fig.File("streamctl.yaml"), fig.Dirs(dirs...), fig.UseEnv(envPrefix)); err != nil {
		if _, statErr := os.Stat(dirs[0] + "/streamctl.yaml"); statErr == nil {
			panic(err)
		}
	}
	if c.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.StateDir = home + "/.streamctl/state"
		} else {
			c.StateDir = ".streamctl-state"
		}
	}
	return &c
}

// ParseFlags registers streamctl's global flags, letting a command-line
// override win over the file/env-derived defaults (teacher's
// CoordinatorConfig.ParseFlags shape, spf13/pflag instead of stdlib flag).
func (c *Config) ParseFlags(fs *flag.FlagSet) {
	fs.StringVarP(&configPath, "config", "c", "", "directory containing streamctl.yaml")
	fs.StringVarP(&c.Namespace, "namespace", "n", c.Namespace, "settings namespace (URL-slug prefix)")
	fs.BoolVarP(&c.Debug, "debug", "d", c.Debug, "enable debug logging")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "address to serve /metrics on, empty disables it")
	fs.StringVar(&c.Signaling.URL, "signaling-url", c.Signaling.URL, "signaling websocket URL")
	fs.DurationVar(&c.Signaling.BackoffBase, "backoff-base", c.Signaling.BackoffBase, "reconnect backoff base delay")
	fs.DurationVar(&c.Signaling.BackoffCeiling, "backoff-ceiling", c.Signaling.BackoffCeiling, "reconnect backoff ceiling")
	fs.StringVar(&c.Webrtc.STUNServer, "stun", c.Webrtc.STUNServer, "STUN server URL")
	fs.StringVar(&c.Webrtc.TURNServer, "turn", c.Webrtc.TURNServer, "TURN server URL")
	fs.StringVar(&c.Webrtc.TURNUser, "turn-user", c.Webrtc.TURNUser, "TURN username")
	fs.StringVar(&c.Webrtc.TURNPass, "turn-pass", c.Webrtc.TURNPass, "TURN credential")
	fs.BoolVar(&c.Webrtc.ForceRelay, "relay", c.Webrtc.ForceRelay, "force TURN relay")
	fs.StringVar(&c.Webrtc.TURNConfigURL, "turn-config-url", c.Webrtc.TURNConfigURL, "fetch ICE servers from this ./turn endpoint instead of --stun/--turn")
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "reported window width")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "reported window height")
}
