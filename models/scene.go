package models

import (
	"sync"
)

// SceneSettings holds the fixed lighting and background of a scene.
type SceneSettings struct {
	Background        Color   `json:"background"`
	AmbientColor      Color   `json:"ambient_color"`
	AmbientIntensity  float64 `json:"ambient_intensity"`
	CameraLightColor  Color   `json:"camera_light_color"`
	CameraLightFactor float64 `json:"camera_light_intensity"`
}

// DefaultSceneSettings returns a black background lit by a white ambient light
// and a dimmer light attached to the camera.
func DefaultSceneSettings() SceneSettings {
	return SceneSettings{
		Background:        Black,
		AmbientColor:      White,
		AmbientIntensity:  0.8,
		CameraLightColor:  White,
		CameraLightFactor: 0.25,
	}
}

// Scene is the ordered collection of drawable objects. Objects are only ever
// appended.
type Scene struct {
	Settings SceneSettings

	objectIDs SequentialIDGenerator
	mutex     sync.RWMutex
	objects   []*Object
	version   uint64
}

func NewScene() *Scene {
	return &Scene{
		Settings: DefaultSceneSettings(),
	}
}

// Add assigns an id to the given object and appends it to the scene.
func (s *Scene) Add(o *Object) uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	o.ID = s.objectIDs.New()
	s.objects = append(s.objects, o)
	s.version++

	instrumentSceneObject(o)
	return o.ID
}

// Objects returns the scene objects in insertion order.
func (s *Scene) Objects() []*Object {
	return s.ObjectsSince(0)
}

// ObjectsSince returns the objects appended after the first n ones.
func (s *Scene) ObjectsSince(n int) []*Object {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if n < 0 {
		n = 0
	}
	if n >= len(s.objects) {
		return nil
	}

	objects := make([]*Object, len(s.objects)-n)
	copy(objects, s.objects[n:])
	return objects
}

func (s *Scene) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.objects)
}

// Version returns a counter incremented on each scene mutation.
func (s *Scene) Version() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.version
}
