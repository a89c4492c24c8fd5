// Package websocket streams the viewer scene to browsers and applies their
// camera interactions.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/net/websocket"
)

const (
	// The number of frames waiting to be sent to a client. Frames rendered
	// while the queue is full are skipped.
	sendChanSize = 8
)

// Receiver receives a client input. It returns the number of bytes read.
type Receiver func() (Input, int, error)

// Sender sends a frame to a client. It returns the number of bytes written.
type Sender func(Frame) (int, error)

// Handler represents a viewer client handler.
type Handler interface {
	// Handles a client connection. Frames to send to the client are pushed
	// with send, which returns false when the frame was skipped.
	HandleConnect(conn *websocket.Conn, send func(Frame) bool)

	// Handles a camera interaction.
	HandleInput(ctx context.Context, in Input) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Creates a receiver used to receive incoming inputs.
	Receiver() Receiver

	// Creates a sender used to send frames.
	Sender() Sender

	// Closes the handler and releases its allocated resources.
	Close()

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// The name of the codec used to encode frames.
	CodecName() string

	GetClientID() string
}

// Handle handles the given client connection until it is closed or ctx is
// done.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The viewer handler.
	Handler Handler

	sendChan       chan Frame
	inputChan      chan Input
	sender         Sender
	receiver       Receiver
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.disconnectChan = make(chan error, 8)
	h.sendChan = make(chan Frame, sendChanSize)
	h.inputChan = make(chan Input)

	h.Handler.HandleConnect(h.Conn, h.send)

	var wg sync.WaitGroup

	h.sender = h.Handler.Sender()
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx)
	}()

	h.receiver = h.Handler.Receiver()
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx)
	}()

	err := h.handleInputs(ctx)
	h.handleDisconnect(err)

	// The closed connection unblocks the receiver.
	cancel()
	wg.Wait()
}

// handleInputs applies client inputs until the client must be disconnected
// and returns the reason.
func (h *handler) handleInputs(ctx context.Context) error {
	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-idleTimer.C:
			return errors.New("idle connection").WithTag("duration", idleTimeout)

		case in := <-h.inputChan:
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)

			if err := h.Handler.HandleInput(ctx, in); err != nil {
				return errors.New("handling input failed").Wrap(err)
			}

		case err := <-h.disconnectChan:
			return err
		}
	}
}

// send queues a frame without blocking the render loop.
func (h *handler) send(f Frame) bool {
	select {
	case h.sendChan <- f:
		return true
	default:
		return false
	}
}

func (h *handler) startSending(ctx context.Context) {
	defer func() {
		for len(h.sendChan) != 0 {
			<-h.sendChan
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-h.sendChan:
			if _, err := h.sender(f); err != nil {
				h.disconnect(errors.New("sending frame failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context) {
	for {
		in, _, err := h.receiver()
		if err != nil {
			h.disconnect(errors.New("receiving input failed").Wrap(err))
			return
		}

		select {
		case <-ctx.Done():
			return

		case h.inputChan <- in:
		}
	}
}

func (h *handler) disconnect(err error) {
	select {
	case h.disconnectChan <- err:
	default:
	}
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}
