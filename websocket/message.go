package websocket

import (
	"github.com/radiomap/viewer/models"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeInvalidInput = "invalid_input"

	InputOrbit  = "orbit"
	InputPan    = "pan"
	InputZoom   = "zoom"
	InputResize = "resize"

	// Keeps a passive client connected.
	InputPing = "ping"

	// Reported in metrics and logs in place of unsupported input types.
	InputUnknown = "unknown"
)

// inputTypeName returns t when it is a supported input type and InputUnknown
// otherwise. Input types come from clients and must not be used as metric
// labels as is.
func inputTypeName(t string) string {
	switch t {
	case InputOrbit, InputPan, InputZoom, InputResize, InputPing:
		return t
	default:
		return InputUnknown
	}
}

// Frame is what a client receives on each rendered frame. State is only set
// when the camera, the controls or the status changed since the previous frame
// sent to the client. Objects are the scene objects the client did not receive
// yet.
type Frame struct {
	Seq     uint64           `json:"seq"`
	State   *FrameState      `json:"state,omitempty"`
	Objects []*models.Object `json:"objects,omitempty"`
}

// Empty reports whether the frame carries nothing to draw.
func (f Frame) Empty() bool {
	return f.State == nil && len(f.Objects) == 0
}

type FrameState struct {
	Camera   CameraState          `json:"camera"`
	Status   models.Status        `json:"status"`
	Settings models.SceneSettings `json:"settings"`
}

// CameraState is the camera and its matrices as column-major arrays ready to be
// uploaded to a GPU.
type CameraState struct {
	Position    r3.Vec      `json:"position"`
	Up          r3.Vec      `json:"up"`
	Target      r3.Vec      `json:"target"`
	Fov         float64     `json:"fov"`
	Aspect      float64     `json:"aspect"`
	Near        float64     `json:"near"`
	Far         float64     `json:"far"`
	MinDistance float64     `json:"min_distance"`
	MaxDistance float64     `json:"max_distance"`
	Projection  [16]float64 `json:"projection"`
	View        [16]float64 `json:"view"`
}

func newFrameState(v models.View) *FrameState {
	return &FrameState{
		Camera: CameraState{
			Position:    v.Camera.Position,
			Up:          v.Camera.Up,
			Target:      v.Controls.Target,
			Fov:         v.Camera.Fov,
			Aspect:      v.Camera.Aspect,
			Near:        v.Camera.Near,
			Far:         v.Camera.Far,
			MinDistance: v.Controls.MinDistance,
			MaxDistance: v.Controls.MaxDistance,
			Projection:  v.Camera.ProjectionMatrix(),
			View:        v.Camera.ViewMatrix(v.Controls.Target),
		},
		Status:   v.Status,
		Settings: v.Settings,
	}
}

// Input is a camera interaction sent by a client as a JSON text message.
type Input struct {
	Type string `json:"type"`

	// Orbit angles in radians.
	Azimuth float64 `json:"azimuth,omitempty"`
	Polar   float64 `json:"polar,omitempty"`

	// Pan offsets as fractions of the camera to target distance.
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// Zoom factor applied to the camera to target distance.
	Scale float64 `json:"scale,omitempty"`

	// Viewport size in pixels.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}
