// Package render drives the per-frame drawing of the viewer.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/radiomap/viewer/models"
)

// DefaultFrameDuration approximates a 60Hz display refresh.
const DefaultFrameDuration = time.Millisecond * 16

// Renderer draws a view.
type Renderer interface {
	Render(models.View) error
}

// RendererFunc is a function that satisfies the Renderer interface.
type RendererFunc func(models.View) error

func (f RendererFunc) Render(v models.View) error {
	return f(v)
}

// Loop redraws the latest viewer state on every frame until its context is
// done.
type Loop struct {
	viewer        *models.ViewerContext
	frameDuration time.Duration

	rendererIDs models.SequentialIDGenerator
	renderers   map[uint32]Renderer
	mutex       sync.RWMutex
	runOnce     sync.Once
}

func NewLoop(viewer *models.ViewerContext, frameDuration time.Duration) *Loop {
	if frameDuration <= 0 {
		frameDuration = DefaultFrameDuration
	}

	return &Loop{
		viewer:        viewer,
		frameDuration: frameDuration,
		renderers:     make(map[uint32]Renderer),
	}
}

// HandleFrame registers r to be called on each frame. Calling cancel
// unregisters it.
func (l *Loop) HandleFrame(r Renderer) (cancel func()) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	id := l.rendererIDs.New()
	l.renderers[id] = r

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mutex.Lock()
			defer l.mutex.Unlock()

			delete(l.renderers, id)
			l.rendererIDs.Reuse(id)
		})
	}
}

// Run renders frames until ctx is done. Calling Run more than once has no
// effect.
func (l *Loop) Run(ctx context.Context) {
	l.runOnce.Do(func() {
		ticker := time.NewTicker(l.frameDuration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				l.RenderFrame()
			}
		}
	})
}

// RenderFrame draws the current viewer state with every registered renderer.
// A failing renderer does not prevent the others from drawing.
func (l *Loop) RenderFrame() {
	instrumentFrame(func() {
		view := l.viewer.View()

		for id, r := range l.snapshot() {
			if err := r.Render(view); err != nil {
				instrumentRenderError()
				logs.WithTag("renderer_id", id).
					WithTag("scene_version", view.SceneVersion).
					Debug(errors.New("rendering frame failed").Wrap(err))
			}
		}
	})
}

// snapshot copies the renderers so they can unregister while drawing.
func (l *Loop) snapshot() map[uint32]Renderer {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	renderers := make(map[uint32]Renderer, len(l.renderers))
	for id, r := range l.renderers {
		renderers[id] = r
	}
	return renderers
}

// Len returns the number of registered renderers.
func (l *Loop) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return len(l.renderers)
}
