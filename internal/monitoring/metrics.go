package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The gauge set spec.md §4.G's Stats Aggregator publishes every tick.
var (
	VideoBitrateMbps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "selkies_video_bitrate_mbps",
		Help: "Current inbound video bitrate in megabits per second.",
	})
	AudioBitrateKbps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "selkies_audio_bitrate_kbps",
		Help: "Current inbound audio bitrate in kilobits per second.",
	})
	VideoLatencyMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "selkies_video_latency_ms",
		Help: "Estimated video path latency: RTT plus jitter-buffer-induced delay.",
	})
	AudioLatencyMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "selkies_audio_latency_ms",
		Help: "Estimated audio path latency: RTT plus jitter-buffer-induced delay.",
	})
	ConnectionLatencyMs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "selkies_connection_latency_ms",
		Help: "max(video_latency_ms, audio_latency_ms).",
	})
)
