package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel        = "error_type"
	inputTypeLabel      = "input_type"
	codecLabel          = "codec"
	publicEndpointLabel = "public_endpoint"
)

var (
	wsConnectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of connected clients.",
	}, []string{
		publicEndpointLabel,
		codecLabel,
	})

	wsReceivedInputs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_inputs",
		Help: "The number of inputs received from WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		inputTypeLabel,
	})

	wsReceivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_bytes",
		Help: "The number of bytes received from WebSocket connections.",
	}, []string{
		publicEndpointLabel,
	})

	wsReceiveError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_receive_errors",
		Help: "The errors that occured while receiving a websocket input.",
	}, []string{
		publicEndpointLabel,
		errTypeLabel,
	})

	wsSentFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_frames",
		Help: "The number of frames sent to WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		codecLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	}, []string{
		publicEndpointLabel,
		codecLabel,
	})

	wsSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occured while sending a websocket frame.",
	}, []string{
		publicEndpointLabel,
		errTypeLabel,
		codecLabel,
	})

	wsInputLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ws_input_latency",
		Help: "The time to apply a WebSocket input.",
	}, []string{
		publicEndpointLabel,
		inputTypeLabel,
	})
)

func HandlerWithMetrics(h Handler, publicEndpoint string) Handler {
	return &handlerWithMetrics{
		Handler:        h,
		publicEndpoint: publicEndpoint,
	}
}

type handlerWithMetrics struct {
	Handler

	codec          string
	publicEndpoint string
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn, send func(Frame) bool) {
	h.Handler.HandleConnect(conn, send)

	h.codec = h.Handler.CodecName()

	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			codecLabel:          h.codec,
		}).
		Inc()
}

func (h *handlerWithMetrics) HandleInput(ctx context.Context, in Input) error {
	start := time.Now()

	err := h.Handler.HandleInput(ctx, in)

	wsInputLatency.With(prometheus.Labels{
		publicEndpointLabel: h.publicEndpoint,
		inputTypeLabel:      inputTypeName(in.Type),
	}).Observe(time.Since(start).Seconds())

	return err
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
			codecLabel:          h.codec,
		}).
		Dec()

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Input, int, error) {
		in, n, err := receive()
		if err != nil {
			wsReceiveError.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					errTypeLabel:        errors.Type(err),
				}).
				Inc()
		} else {
			wsReceivedInputs.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					inputTypeLabel:      inputTypeName(in.Type),
				}).
				Inc()
		}

		if n != 0 {
			wsReceivedBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
				}).
				Add(float64(n))
		}

		return in, n, err
	}
}

func (h *handlerWithMetrics) Sender() Sender {
	sender := h.Handler.Sender()

	return func(f Frame) (int, error) {
		n, err := sender(f)
		if err != nil {
			wsSendError.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					errTypeLabel:        errors.Type(err),
					codecLabel:          h.codec,
				}).
				Inc()
		}

		if n != 0 {
			wsSentFrames.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					codecLabel:          h.codec,
				}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					codecLabel:          h.codec,
				}).
				Add(float64(n))
		}

		return n, err
	}
}
