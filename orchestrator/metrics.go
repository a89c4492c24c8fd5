package orchestrator

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	stageLabel   = "stage"
)

var (
	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "viewer_stage_latency",
		Help: "The time to complete a viewer loading stage.",
	}, []string{
		stageLabel,
	})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewer_stage_failures",
		Help: "The number of viewer loading stages that failed.",
	}, []string{
		stageLabel,
		errTypeLabel,
	})
)

// instrumentStep records the latency of the step leaving stage.
func instrumentStep(stage Stage, f func() (Stage, error)) (Stage, error) {
	start := time.Now()

	next, err := f()
	if err != nil {
		stageFailures.With(prometheus.Labels{
			stageLabel:   stage.String(),
			errTypeLabel: errors.Type(err),
		}).Inc()
		return next, err
	}

	stageLatency.With(prometheus.Labels{
		stageLabel: next.String(),
	}).Observe(time.Since(start).Seconds())
	return next, nil
}
