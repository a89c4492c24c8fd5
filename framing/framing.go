package framing

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/radiomap/viewer/models"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeInvalidFraming = "invalid_framing"

	// MinExtent is the smallest box extent used as a divisor. Degenerate boxes
	// are framed as if they were MinExtent wide.
	MinExtent = 1e-6

	// DefaultFitOffset is the margin applied when framing a first scene mesh.
	DefaultFitOffset = 0.3

	maxDistanceFactor = 10
	clipFactor        = 100
)

// Formula selects how the field of view maps to a fitting distance.
type Formula int

const (
	// FormulaPerspective uses the geometrically exact 2*tan(fov/2).
	FormulaPerspective Formula = iota

	// FormulaLegacy uses 2*atan(pi*fov/360), the constant earlier viewer
	// releases used. Distances differ from FormulaPerspective by about 20% at
	// fov=45.
	FormulaLegacy
)

func (f Formula) String() string {
	switch f {
	case FormulaLegacy:
		return "legacy"
	default:
		return "perspective"
	}
}

// viewHeight returns the visible height at a distance of 1.
func (f Formula) viewHeight(fov float64) float64 {
	switch f {
	case FormulaLegacy:
		return 2 * math.Atan(math.Pi*fov/360)
	default:
		return 2 * math.Tan(fov*math.Pi/360)
	}
}

// Options configures Frame.
type Options struct {
	// The multiplicative margin applied to the fitting distance.
	FitOffset float64

	Formula Formula
}

// fallbackDirection is used when the camera sits on its target and no view
// direction can be derived.
var fallbackDirection = r3.Vec{Y: 1}

// Frame moves the camera so that box fills the view with the configured
// margin. The viewing direction from the controls target is kept, the pan
// target is set to the box center, the zoom out limit to 10 times the distance
// and the clip planes to distance/100 and distance*100.
//
// The camera and controls are left untouched when an error is returned.
// Framing the same box again yields the same state.
func Frame(cam *models.Camera, ctl *models.Controls, box r3.Box, opts Options) (float64, error) {
	if err := validate(cam, box, opts); err != nil {
		return 0, err
	}

	size := Size(box)
	center := Center(box)

	maxSize := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxSize < MinExtent {
		maxSize = MinExtent
	}

	fitHeightDistance := maxSize / opts.Formula.viewHeight(cam.Fov)
	fitWidthDistance := fitHeightDistance / cam.Aspect
	distance := opts.FitOffset * math.Max(fitHeightDistance, fitWidthDistance)

	direction := viewDirection(cam.Position, ctl.Target)

	ctl.MaxDistance = distance * maxDistanceFactor
	ctl.Target = center

	cam.Near = distance / clipFactor
	cam.Far = distance * clipFactor
	cam.UpdateProjectionMatrix()

	cam.Position = r3.Sub(center, r3.Scale(distance, direction))
	ctl.Update(cam)
	return distance, nil
}

// viewDirection returns the unit vector from position towards target.
func viewDirection(position, target r3.Vec) r3.Vec {
	d := r3.Sub(target, position)
	n := r3.Norm(d)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallbackDirection
	}
	return r3.Scale(1/n, d)
}

func validate(cam *models.Camera, box r3.Box, opts Options) error {
	switch {
	case !(cam.Fov > 0 && cam.Fov < 180):
		return errors.New("field of view must be in (0, 180)").
			WithType(ErrTypeInvalidFraming).
			WithTag("fov", cam.Fov)

	case !(cam.Aspect > 0) || math.IsInf(cam.Aspect, 0):
		return errors.New("aspect ratio must be positive").
			WithType(ErrTypeInvalidFraming).
			WithTag("aspect", cam.Aspect)

	case !(opts.FitOffset > 0) || math.IsInf(opts.FitOffset, 0):
		return errors.New("fit offset must be positive").
			WithType(ErrTypeInvalidFraming).
			WithTag("fit_offset", opts.FitOffset)

	case !finite(box.Min) || !finite(box.Max):
		return errors.New("bounding box is not finite").
			WithType(ErrTypeInvalidFraming).
			WithTag("min", box.Min).
			WithTag("max", box.Max)

	case box.Max.X < box.Min.X || box.Max.Y < box.Min.Y || box.Max.Z < box.Min.Z:
		return errors.New("bounding box is empty").
			WithType(ErrTypeInvalidFraming).
			WithTag("min", box.Min).
			WithTag("max", box.Max)
	}
	return nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
