package client

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	routeLabel   = "route"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulation_api_requests",
		Help: "The number of requests sent to the simulation service.",
	}, []string{
		routeLabel,
	})

	apiRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulation_api_request_errors",
		Help: "The errors that occured while calling the simulation service.",
	}, []string{
		routeLabel,
		errTypeLabel,
	})

	apiRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "simulation_api_request_latency",
		Help: "The time to get a simulation service response.",
	}, []string{
		routeLabel,
	})
)

func instrumentRequest(route string, f func() error) error {
	start := time.Now()
	defer func() {
		apiRequestLatency.With(prometheus.Labels{
			routeLabel: route,
		}).Observe(time.Since(start).Seconds())
	}()

	apiRequests.With(prometheus.Labels{
		routeLabel: route,
	}).Inc()

	err := f()
	if err != nil {
		apiRequestErrors.With(prometheus.Labels{
			routeLabel:   route,
			errTypeLabel: errors.Type(err),
		}).Inc()
	}
	return err
}
