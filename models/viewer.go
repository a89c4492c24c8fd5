package models

import (
	"sync"
	"time"
)

// Status is the viewer state visible to users.
type Status struct {
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Failed reports whether the viewer stopped on an error.
func (s Status) Failed() bool {
	return s.Error != ""
}

// View is a consistent read of everything required to draw a frame.
type View struct {
	Settings SceneSettings
	Objects  []*Object
	Camera   Camera
	Controls Controls
	Status   Status

	// Incremented on each scene mutation.
	SceneVersion uint64

	// Incremented on each camera, controls or status mutation.
	StateVersion uint64
}

// ViewerContext owns the state shared by the session orchestrator, the render
// loop and the connected clients. It is created once at startup.
type ViewerContext struct {
	Scene *Scene

	mutex        sync.RWMutex
	camera       Camera
	controls     Controls
	sessionID    string
	status       Status
	stateVersion uint64
}

func NewViewerContext(cam Camera) *ViewerContext {
	return &ViewerContext{
		Scene:  NewScene(),
		camera: cam,
		status: Status{UpdatedAt: time.Now()},
	}
}

func (v *ViewerContext) SessionID() string {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	return v.sessionID
}

func (v *ViewerContext) SetSessionID(id string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.sessionID = id
}

func (v *ViewerContext) Status() Status {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	return v.status
}

// SetStatus records the current stage. A non nil err marks the viewer as
// failed.
func (v *ViewerContext) SetStatus(stage string, err error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	previous := v.status.Stage
	v.status = Status{
		Stage:     stage,
		UpdatedAt: time.Now(),
	}
	if err != nil {
		v.status.Error = err.Error()
	}
	v.stateVersion++

	instrumentStage(previous, stage)
}

// Camera returns a copy of the camera and controls.
func (v *ViewerContext) Camera() (Camera, Controls) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	return v.camera, v.controls
}

// UpdateCamera runs f with exclusive access to the camera and controls.
func (v *ViewerContext) UpdateCamera(f func(*Camera, *Controls) error) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	cam := v.camera
	ctl := v.controls
	if err := f(&cam, &ctl); err != nil {
		return err
	}

	v.camera = cam
	v.controls = ctl
	v.stateVersion++
	return nil
}

func (v *ViewerContext) View() View {
	v.mutex.RLock()
	view := View{
		Camera:       v.camera,
		Controls:     v.controls,
		Status:       v.status,
		StateVersion: v.stateVersion,
	}
	v.mutex.RUnlock()

	// The scene has its own lock; a mutation landing between both reads is
	// drawn on the next frame.
	view.Settings = v.Scene.Settings
	view.SceneVersion = v.Scene.Version()
	view.Objects = v.Scene.Objects()
	return view
}
