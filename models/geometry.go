package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeInvalidGeometry = "invalid_geometry"
)

// ObjectKind describes how a scene object is drawn.
type ObjectKind string

const (
	KindMesh   ObjectKind = "mesh"
	KindPoints ObjectKind = "points"
	KindLines  ObjectKind = "lines"
)

// MaterialType names the browser side material an object is drawn with.
type MaterialType string

const (
	MaterialStandard  MaterialType = "standard"
	MaterialPoints    MaterialType = "points"
	MaterialLineBasic MaterialType = "line_basic"
)

// Material is the fixed drawing descriptor attached to a scene object.
type Material struct {
	Type            MaterialType `json:"type"`
	VertexColors    bool         `json:"vertex_colors,omitempty"`
	Color           *Color       `json:"color,omitempty"`
	Roughness       float64      `json:"roughness,omitempty"`
	Metalness       float64      `json:"metalness,omitempty"`
	DoubleSided     bool         `json:"double_sided,omitempty"`
	FlatShading     bool         `json:"flat_shading,omitempty"`
	Size            float64      `json:"size,omitempty"`
	SizeAttenuation bool         `json:"size_attenuation,omitempty"`
	AlphaTest       float64      `json:"alpha_test,omitempty"`
	Transparent     bool         `json:"transparent,omitempty"`
	LineWidth       float64      `json:"line_width,omitempty"`
}

// Object is a renderable scene graph entry. It owns its geometry buffers and
// its material. Buffers are flat: 3 floats per position, 3 floats per color
// and 3 indices per triangle.
//
// An object must not be modified once added to a scene.
type Object struct {
	ID        uint32     `json:"id"`
	Kind      ObjectKind `json:"kind"`
	Name      string     `json:"name,omitempty"`
	Positions []float32  `json:"positions"`
	Indices   []uint32   `json:"indices,omitempty"`
	Colors    []float32  `json:"colors,omitempty"`
	Material  Material   `json:"material"`
}

// VertexCount returns the number of vertices or points.
func (o *Object) VertexCount() int {
	return len(o.Positions) / 3
}

// FaceCount returns the number of indexed triangles.
func (o *Object) FaceCount() int {
	return len(o.Indices) / 3
}

// Points returns the object positions as vectors.
func (o *Object) Points() []r3.Vec {
	points := make([]r3.Vec, 0, o.VertexCount())
	for i := 0; i+2 < len(o.Positions); i += 3 {
		points = append(points, r3.Vec{
			X: float64(o.Positions[i]),
			Y: float64(o.Positions[i+1]),
			Z: float64(o.Positions[i+2]),
		})
	}
	return points
}

// NewMesh builds an indexed triangle mesh with per-vertex colors.
func NewMesh(name string, vertices [][]float64, faces [][]int64, colors [][]float64) (*Object, error) {
	positions, err := flatten3("vertices", vertices)
	if err != nil {
		return nil, err
	}

	vertexColors, err := flatten3("colors", colors)
	if err != nil {
		return nil, err
	}
	if len(colors) != len(vertices) {
		return nil, errors.New("color count does not match vertex count").
			WithType(ErrTypeInvalidGeometry).
			WithTag("vertices", len(vertices)).
			WithTag("colors", len(colors))
	}

	indices := make([]uint32, 0, len(faces)*3)
	for i, f := range faces {
		if len(f) != 3 {
			return nil, errors.New("face is not a triangle").
				WithType(ErrTypeInvalidGeometry).
				WithTag("face", i).
				WithTag("components", len(f))
		}

		for _, idx := range f {
			if idx < 0 || idx >= int64(len(vertices)) {
				return nil, errors.New("face references an unknown vertex").
					WithType(ErrTypeInvalidGeometry).
					WithTag("face", i).
					WithTag("index", idx).
					WithTag("vertices", len(vertices))
			}
			indices = append(indices, uint32(idx))
		}
	}

	return &Object{
		Kind:      KindMesh,
		Name:      name,
		Positions: positions,
		Indices:   indices,
		Colors:    vertexColors,
		Material: Material{
			Type:         MaterialStandard,
			VertexColors: true,
			Roughness:    1,
			Metalness:    0,
			DoubleSided:  true,
			FlatShading:  true,
		},
	}, nil
}

// NewPointCloud builds a colored point cloud whose points are drawn as
// attenuated sprites of the given radius.
func NewPointCloud(name string, points [][]float64, colors [][]float64, radius float64) (*Object, error) {
	positions, err := flatten3("points", points)
	if err != nil {
		return nil, err
	}

	pointColors, err := flatten3("colors", colors)
	if err != nil {
		return nil, err
	}
	if len(colors) != len(points) {
		return nil, errors.New("color count does not match point count").
			WithType(ErrTypeInvalidGeometry).
			WithTag("points", len(points)).
			WithTag("colors", len(colors))
	}

	if radius < 0 {
		return nil, errors.New("negative point radius").
			WithType(ErrTypeInvalidGeometry).
			WithTag("radius", radius)
	}

	return &Object{
		Kind:      KindPoints,
		Name:      name,
		Positions: positions,
		Colors:    pointColors,
		Material: Material{
			Type:            MaterialPoints,
			VertexColors:    true,
			Size:            2 * radius,
			SizeAttenuation: true,
			AlphaTest:       0.5,
			Transparent:     true,
		},
	}, nil
}

// NewLineSet builds a set of line segments. Each segment is a pair of 3D
// endpoints.
func NewLineSet(name string, segments [][][]float64, color Color, width float64) (*Object, error) {
	positions := make([]float32, 0, len(segments)*6)

	for i, s := range segments {
		if len(s) != 2 {
			return nil, errors.New("segment must have 2 endpoints").
				WithType(ErrTypeInvalidGeometry).
				WithTag("segment", i).
				WithTag("endpoints", len(s))
		}

		endpoints, err := flatten3("segments", s)
		if err != nil {
			return nil, errors.New("invalid segment").
				WithType(ErrTypeInvalidGeometry).
				WithTag("segment", i).
				Wrap(err)
		}
		positions = append(positions, endpoints...)
	}

	return &Object{
		Kind:      KindLines,
		Name:      name,
		Positions: positions,
		Material: Material{
			Type:      MaterialLineBasic,
			Color:     &color,
			LineWidth: width,
		},
	}, nil
}

func flatten3(field string, rows [][]float64) ([]float32, error) {
	flat := make([]float32, 0, len(rows)*3)
	for i, r := range rows {
		if len(r) != 3 {
			return nil, errors.New("entry must have 3 components").
				WithType(ErrTypeInvalidGeometry).
				WithTag("field", field).
				WithTag("entry", i).
				WithTag("components", len(r))
		}
		flat = append(flat, float32(r[0]), float32(r[1]), float32(r[2]))
	}
	return flat, nil
}
