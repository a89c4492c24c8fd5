package websocket

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/radiomap/viewer/models"
	"github.com/radiomap/viewer/render"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeFrameSkipped = "frame_skipped"

	DefaultClientIdleTimeout = time.Minute * 2
)

// FrameHandler registers renderers called on each frame.
type FrameHandler interface {
	HandleFrame(render.Renderer) (cancel func())
}

// ViewerHandler streams the viewer state to a single client and applies its
// camera interactions to the shared camera.
type ViewerHandler struct {
	Viewer *models.ViewerContext

	// The loop that calls the handler on each rendered frame.
	Frames FrameHandler

	// The codec used to encode frames. Defaults to JSONCodec.
	Codec Codec

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	conn              *websocket.Conn
	clientID          string
	send              func(Frame) bool
	stopFrameHandling func()

	mutex        sync.Mutex
	seq          uint64
	cursor       int
	stateSent    bool
	stateVersion uint64
}

func (h *ViewerHandler) HandleConnect(conn *websocket.Conn, send func(Frame) bool) {
	h.conn = conn
	h.clientID = uuid.NewString()
	h.send = send

	if h.Codec == nil {
		h.Codec = JSONCodec{}
	}

	h.stopFrameHandling = h.Frames.HandleFrame(h)
}

// Render queues the scene objects and the camera state the client has not
// received yet. A frame that does not fit in the client queue is skipped and
// its content is sent with the next frame.
func (h *ViewerHandler) Render(v models.View) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	f := Frame{Seq: h.seq + 1}
	if !h.stateSent || v.StateVersion != h.stateVersion {
		f.State = newFrameState(v)
	}
	if h.cursor < len(v.Objects) {
		f.Objects = v.Objects[h.cursor:]
	}
	if f.Empty() {
		return nil
	}

	if !h.send(f) {
		return errors.New("client queue is full").
			WithType(ErrTypeFrameSkipped).
			WithTag("client_id", h.clientID).
			WithTag("seq", f.Seq)
	}

	h.seq = f.Seq
	h.cursor = len(v.Objects)
	h.stateSent = true
	h.stateVersion = v.StateVersion
	return nil
}

func (h *ViewerHandler) HandleInput(ctx context.Context, in Input) error {
	if in.Type == InputPing {
		return nil
	}

	return h.Viewer.UpdateCamera(func(cam *models.Camera, ctl *models.Controls) error {
		switch in.Type {
		case InputOrbit:
			if !finite(in.Azimuth, in.Polar) {
				return invalidInput(in)
			}
			ctl.Orbit(cam, in.Azimuth, in.Polar)

		case InputPan:
			if !finite(in.DX, in.DY) {
				return invalidInput(in)
			}
			ctl.Pan(cam, in.DX, in.DY)

		case InputZoom:
			if !finite(in.Scale) || in.Scale <= 0 {
				return invalidInput(in)
			}
			ctl.Zoom(cam, in.Scale)

		case InputResize:
			if !finite(in.Width, in.Height) || in.Width <= 0 || in.Height <= 0 {
				return invalidInput(in)
			}
			cam.SetAspect(in.Width, in.Height)

		default:
			return errors.New("unknown input type").
				WithType(ErrTypeInvalidInput).
				WithTag("input_type", in.Type)
		}
		return nil
	})
}

func (h *ViewerHandler) HandleDisconnect(_ error) {
	h.stopFrames()
}

func (h *ViewerHandler) Receiver() Receiver {
	return func() (Input, int, error) {
		var data []byte
		if err := websocket.Message.Receive(h.conn, &data); err != nil {
			return Input{}, 0, err
		}

		var in Input
		if err := json.Unmarshal(data, &in); err != nil {
			return Input{}, len(data), errors.New("decoding input failed").
				WithType(ErrTypeInvalidInput).
				Wrap(err)
		}
		return in, len(data), nil
	}
}

func (h *ViewerHandler) Sender() Sender {
	return func(f Frame) (int, error) {
		b, err := h.Codec.Encode(f)
		if err != nil {
			return 0, errors.New("encoding frame failed").
				WithTag("codec", h.Codec.Name()).
				Wrap(err)
		}

		if h.Codec.PayloadType() == websocket.TextFrame {
			err = websocket.Message.Send(h.conn, string(b))
		} else {
			err = websocket.Message.Send(h.conn, b)
		}
		return len(b), err
	}
}

func (h *ViewerHandler) Close() {
	h.stopFrames()
}

func (h *ViewerHandler) IdleTimeout() time.Duration {
	if h.ClientIdleTimeout <= 0 {
		return DefaultClientIdleTimeout
	}
	return h.ClientIdleTimeout
}

func (h *ViewerHandler) GetClientID() string {
	return h.clientID
}

func (h *ViewerHandler) CodecName() string {
	if h.Codec == nil {
		return CodecJSON
	}
	return h.Codec.Name()
}

func (h *ViewerHandler) stopFrames() {
	if h.stopFrameHandling != nil {
		h.stopFrameHandling()
	}
}

func invalidInput(in Input) error {
	return errors.New("invalid input values").
		WithType(ErrTypeInvalidInput).
		WithTag("input_type", in.Type)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
