// Package framing computes bounding volumes and places a perspective camera so
// that a bounding box fills the view.
package framing

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/radiomap/viewer/models"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeEmptyGeometry = "empty_geometry"
)

// Bounds returns the minimal axis-aligned box enclosing the given points.
func Bounds(points []r3.Vec) (r3.Box, error) {
	if len(points) == 0 {
		return r3.Box{}, errors.New("bounds of an empty point set").
			WithType(ErrTypeEmptyGeometry)
	}

	box := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range points {
		box = ExpandByPoint(box, p)
	}
	return box, nil
}

// ObjectBounds returns the bounding box of a scene object positions.
func ObjectBounds(o *models.Object) (r3.Box, error) {
	box, err := Bounds(o.Points())
	if err != nil {
		return r3.Box{}, errors.New("bounds of an object without positions").
			WithType(ErrTypeEmptyGeometry).
			WithTag("object_id", o.ID).
			WithTag("kind", o.Kind).
			Wrap(err)
	}
	return box, nil
}

// ExpandByPoint returns the box grown to include p.
func ExpandByPoint(box r3.Box, p r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Vec{
			X: math.Min(box.Min.X, p.X),
			Y: math.Min(box.Min.Y, p.Y),
			Z: math.Min(box.Min.Z, p.Z),
		},
		Max: r3.Vec{
			X: math.Max(box.Max.X, p.X),
			Y: math.Max(box.Max.Y, p.Y),
			Z: math.Max(box.Max.Z, p.Z),
		},
	}
}

// Center returns (min+max)/2.
func Center(box r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(box.Min, box.Max))
}

// Size returns max-min. A single point box has a zero size.
func Size(box r3.Box) r3.Vec {
	return r3.Sub(box.Max, box.Min)
}

// Contains reports whether p lies inside the box, bounds included.
func Contains(box r3.Box, p r3.Vec) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X &&
		p.Y >= box.Min.Y && p.Y <= box.Max.Y &&
		p.Z >= box.Min.Z && p.Z <= box.Max.Z
}
