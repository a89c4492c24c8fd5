package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	frames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_frames",
		Help: "The number of rendered frames.",
	})

	frameLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_frame_latency",
		Help:    "The time to render a frame with every renderer.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	})

	renderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "render_errors",
		Help: "The number of frames a renderer failed to draw.",
	})
)

func instrumentFrame(f func()) {
	start := time.Now()
	f()

	frames.Inc()
	frameLatency.Observe(time.Since(start).Seconds())
}

func instrumentRenderError() {
	renderErrors.Inc()
}
