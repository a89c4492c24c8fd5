package framing

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/radiomap/viewer/models"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitCube() r3.Box {
	return r3.Box{
		Min: r3.Vec{X: -0.5, Y: -0.5, Z: -0.5},
		Max: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
	}
}

func newFramingState(aspect float64) (models.Camera, models.Controls) {
	cam := models.NewCamera(45, aspect, models.DefaultNear, models.DefaultFar)
	cam.Position = r3.Vec{X: -3, Y: 0, Z: 2}
	return cam, models.Controls{}
}

func TestFrameUnitCube(t *testing.T) {
	cam, ctl := newFramingState(1)

	distance, err := Frame(&cam, &ctl, unitCube(), Options{FitOffset: 1})
	require.NoError(t, err)

	// The visible height at the framing distance equals the cube extent.
	visibleHeight := 2 * distance * math.Tan(mgl64.DegToRad(cam.Fov)/2)
	require.InDelta(t, 1, visibleHeight, 1e-12)

	require.Equal(t, distance/100, cam.Near)
	require.Equal(t, distance*100, cam.Far)
	require.Equal(t, distance*10, ctl.MaxDistance)
	require.Equal(t, r3.Vec{}, ctl.Target)
	require.InDelta(t, distance, ctl.Distance(&cam), 1e-12)

	expected := mgl64.Perspective(mgl64.DegToRad(45), 1, cam.Near, cam.Far)
	require.True(t, expected.ApproxEqual(cam.ProjectionMatrix()))
}

func TestFrameKeepsViewingDirection(t *testing.T) {
	cam, ctl := newFramingState(1)
	before := r3.Unit(r3.Sub(ctl.Target, cam.Position))

	box := r3.Box{Min: r3.Vec{X: 10, Y: 10, Z: 0}, Max: r3.Vec{X: 20, Y: 30, Z: 5}}
	_, err := Frame(&cam, &ctl, box, Options{FitOffset: 1.2})
	require.NoError(t, err)

	after := r3.Unit(r3.Sub(ctl.Target, cam.Position))
	require.InDelta(t, before.X, after.X, 1e-12)
	require.InDelta(t, before.Y, after.Y, 1e-12)
	require.InDelta(t, before.Z, after.Z, 1e-12)
	require.Equal(t, Center(box), ctl.Target)
}

func TestFrameWideViewport(t *testing.T) {
	cam, ctl := newFramingState(2)

	distance, err := Frame(&cam, &ctl, unitCube(), Options{FitOffset: 1})
	require.NoError(t, err)

	fitHeightDistance := 1 / (2 * math.Tan(mgl64.DegToRad(45)/2))
	require.InDelta(t, fitHeightDistance, distance, 1e-12)

	t.Run("narrow viewport uses the width distance", func(t *testing.T) {
		cam, ctl := newFramingState(0.5)

		distance, err := Frame(&cam, &ctl, unitCube(), Options{FitOffset: 1})
		require.NoError(t, err)
		require.InDelta(t, fitHeightDistance*2, distance, 1e-12)
	})
}

func TestFrameIsIdempotent(t *testing.T) {
	box := r3.Box{Min: r3.Vec{X: -4, Y: 1, Z: 0}, Max: r3.Vec{X: 8, Y: 3, Z: 2}}

	cam, ctl := newFramingState(16.0 / 9.0)
	first, err := Frame(&cam, &ctl, box, Options{FitOffset: 1.2})
	require.NoError(t, err)
	camOnce, ctlOnce := cam, ctl

	second, err := Frame(&cam, &ctl, box, Options{FitOffset: 1.2})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.InDelta(t, camOnce.Position.X, cam.Position.X, 1e-9)
	require.InDelta(t, camOnce.Position.Y, cam.Position.Y, 1e-9)
	require.InDelta(t, camOnce.Position.Z, cam.Position.Z, 1e-9)
	require.Equal(t, camOnce.Near, cam.Near)
	require.Equal(t, camOnce.Far, cam.Far)
	require.Equal(t, ctlOnce, ctl)
}

func TestFrameLegacyFormula(t *testing.T) {
	cam, ctl := newFramingState(1)

	distance, err := Frame(&cam, &ctl, unitCube(), Options{
		FitOffset: 1,
		Formula:   FormulaLegacy,
	})
	require.NoError(t, err)
	require.InDelta(t, 1/(2*math.Atan(math.Pi*45/360)), distance, 1e-12)

	perspective, err := Frame(&cam, &ctl, unitCube(), Options{FitOffset: 1})
	require.NoError(t, err)
	require.Greater(t, distance, perspective)
}

func TestFrameDegenerateBox(t *testing.T) {
	cam, ctl := newFramingState(1)
	p := r3.Vec{X: 1, Y: 2, Z: 3}

	distance, err := Frame(&cam, &ctl, r3.Box{Min: p, Max: p}, Options{FitOffset: 1})
	require.NoError(t, err)
	require.False(t, math.IsNaN(distance) || math.IsInf(distance, 0))
	require.Greater(t, distance, 0.0)
	require.Less(t, cam.Near, cam.Far)
	require.Greater(t, cam.Near, 0.0)
}

func TestFrameCameraOnTarget(t *testing.T) {
	cam, ctl := newFramingState(1)
	cam.Position = r3.Vec{}

	distance, err := Frame(&cam, &ctl, unitCube(), Options{FitOffset: 1})
	require.NoError(t, err)
	require.InDelta(t, distance, ctl.Distance(&cam), 1e-12)
	require.InDelta(t, -distance, cam.Position.Y, 1e-12)
}

func TestFrameInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		fov    float64
		aspect float64
		offset float64
		box    r3.Box
	}{
		{name: "zero fov", fov: 0, aspect: 1, offset: 1, box: unitCube()},
		{name: "flat fov", fov: 180, aspect: 1, offset: 1, box: unitCube()},
		{name: "zero aspect", fov: 45, aspect: 0, offset: 1, box: unitCube()},
		{name: "nan aspect", fov: 45, aspect: math.NaN(), offset: 1, box: unitCube()},
		{name: "zero fit offset", fov: 45, aspect: 1, offset: 0, box: unitCube()},
		{name: "empty box", fov: 45, aspect: 1, offset: 1, box: r3.Box{Min: r3.Vec{X: 1}, Max: r3.Vec{X: -1}}},
		{name: "infinite box", fov: 45, aspect: 1, offset: 1, box: r3.Box{Max: r3.Vec{X: math.Inf(1)}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cam, ctl := newFramingState(1)
			cam.Fov = test.fov
			cam.Aspect = test.aspect
			before := cam

			_, err := Frame(&cam, &ctl, test.box, Options{FitOffset: test.offset})
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidFraming, errors.Type(err))
			require.Equal(t, before.Position, cam.Position)
			require.Equal(t, before.Near, cam.Near)
		})
	}
}

func TestFrameFirstMesh(t *testing.T) {
	cam, ctl := newFramingState(1)
	box := r3.Box{Min: r3.Vec{X: -100, Y: -50, Z: 0}, Max: r3.Vec{X: 100, Y: 150, Z: 30}}

	distance, err := FrameFirstMesh(&cam, &ctl, box, Options{FitOffset: DefaultFitOffset})
	require.NoError(t, err)
	require.Equal(t, Center(box), ctl.Target)

	// The initial corner placement looked at the origin from (min.x, center.y,
	// 1.5*max.z); the framed camera keeps that direction.
	corner := r3.Vec{X: -100, Y: 50, Z: 45}
	expected := r3.Sub(Center(box), r3.Scale(distance, r3.Unit(r3.Sub(r3.Vec{}, corner))))
	require.InDelta(t, expected.X, cam.Position.X, 1e-9)
	require.InDelta(t, expected.Y, cam.Position.Y, 1e-9)
	require.InDelta(t, expected.Z, cam.Position.Z, 1e-9)
}

func TestInitialPlacement(t *testing.T) {
	cam, ctl := newFramingState(1)
	ctl.Target = r3.Vec{X: 5}

	InitialPlacement(&cam, &ctl, r3.Box{Min: r3.Vec{X: -1, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 4, Z: 2}})
	require.Equal(t, r3.Vec{X: -1, Y: 2, Z: 3}, cam.Position)
	require.Equal(t, r3.Vec{}, ctl.Target)
}

func TestFormulaString(t *testing.T) {
	require.Equal(t, "perspective", FormulaPerspective.String())
	require.Equal(t, "legacy", FormulaLegacy.String())
}

func TestFrameFirstMeshTopDownViewMatrix(t *testing.T) {
	cam, ctl := newFramingState(1)

	// The corner placement sits straight above the origin and looks down the
	// up axis.
	box := r3.Box{Min: r3.Vec{X: 0, Y: -5, Z: 0}, Max: r3.Vec{X: 10, Y: 5, Z: 2}}

	_, err := FrameFirstMesh(&cam, &ctl, box, Options{FitOffset: DefaultFitOffset})
	require.NoError(t, err)
	require.InDelta(t, 5, cam.Position.X, 1e-9)
	require.InDelta(t, 0, cam.Position.Y, 1e-9)
	require.Greater(t, cam.Position.Z, ctl.Target.Z)

	view := cam.ViewMatrix(ctl.Target)
	for i, v := range view {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "element %d is %v", i, v)
	}

	center := view.Mul4x1(mgl64.Vec4{ctl.Target.X, ctl.Target.Y, ctl.Target.Z, 1})
	require.InDelta(t, 0, center.X(), 1e-9)
	require.InDelta(t, 0, center.Y(), 1e-9)
}
