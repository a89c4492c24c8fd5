package models

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewMesh(t *testing.T) {
	t.Run("mesh is built", func(t *testing.T) {
		mesh, err := NewMesh("triangle",
			[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][]int64{{0, 1, 2}},
			[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		)
		require.NoError(t, err)
		require.Equal(t, KindMesh, mesh.Kind)
		require.Equal(t, 3, mesh.VertexCount())
		require.Equal(t, 1, mesh.FaceCount())
		require.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, mesh.Positions)
		require.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
		require.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, mesh.Colors)
		require.True(t, mesh.Material.VertexColors)
		require.True(t, mesh.Material.DoubleSided)
		require.True(t, mesh.Material.FlatShading)
		require.Equal(t, float64(1), mesh.Material.Roughness)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := NewMesh("",
			[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][]int64{{0, 1, 3}},
			[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := NewMesh("",
			[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][]int64{{-1, 1, 2}},
			[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		)
		require.Error(t, err)
	})

	t.Run("color count mismatch", func(t *testing.T) {
		_, err := NewMesh("",
			[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][]int64{{0, 1, 2}},
			[][]float64{{1, 0, 0}},
		)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})

	t.Run("face is not a triangle", func(t *testing.T) {
		_, err := NewMesh("",
			[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			[][]int64{{0, 1}},
			[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		)
		require.Error(t, err)
	})

	t.Run("vertex with missing component", func(t *testing.T) {
		_, err := NewMesh("",
			[][]float64{{0, 0}},
			nil,
			[][]float64{{1, 0, 0}},
		)
		require.Error(t, err)
	})
}

func TestNewPointCloud(t *testing.T) {
	t.Run("point cloud is built", func(t *testing.T) {
		points, err := NewPointCloud("devices",
			[][]float64{{0, 100, 20}, {80, 100, 1.5}},
			[][]float64{{1, 0, 0}, {0, 0, 1}},
			2.5,
		)
		require.NoError(t, err)
		require.Equal(t, KindPoints, points.Kind)
		require.Equal(t, 2, points.VertexCount())
		require.Len(t, points.Colors, 6)
		require.Equal(t, float64(5), points.Material.Size)
		require.True(t, points.Material.Transparent)
		require.Equal(t, 0.5, points.Material.AlphaTest)
	})

	t.Run("color count mismatch", func(t *testing.T) {
		_, err := NewPointCloud("",
			[][]float64{{0, 100, 20}, {80, 100, 1.5}},
			[][]float64{{1, 0, 0}},
			1,
		)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})

	t.Run("negative radius", func(t *testing.T) {
		_, err := NewPointCloud("", nil, nil, -1)
		require.Error(t, err)
	})
}

func TestNewLineSet(t *testing.T) {
	t.Run("line set is built", func(t *testing.T) {
		lines, err := NewLineSet("path",
			[][][]float64{
				{{0, 0, 0}, {1, 1, 1}},
				{{1, 1, 1}, {2, 0, 1}},
			},
			Color{1, 0, 0},
			3,
		)
		require.NoError(t, err)
		require.Equal(t, KindLines, lines.Kind)
		require.Equal(t, 4, lines.VertexCount())
		require.Equal(t, &Color{1, 0, 0}, lines.Material.Color)
		require.Equal(t, float64(3), lines.Material.LineWidth)
	})

	t.Run("segment with a single endpoint", func(t *testing.T) {
		_, err := NewLineSet("", [][][]float64{{{0, 0, 0}}}, White, 1)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})
}

func TestObjectPoints(t *testing.T) {
	o := Object{Positions: []float32{1, 2, 3, 4, 5, 6}}
	require.Equal(t, []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, o.Points())
}

func TestColorUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		out     Color
		invalid bool
	}{
		{name: "hex string", in: `"#ff0000"`, out: Color{1, 0, 0}},
		{name: "number", in: `65280`, out: Color{0, 1, 0}},
		{name: "array", in: `[0, 0, 0.5]`, out: Color{0, 0, 0.5}},
		{name: "short hex string", in: `"#fff"`, invalid: true},
		{name: "array with 2 components", in: `[1, 1]`, invalid: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var c Color
			err := json.Unmarshal([]byte(test.in), &c)
			if test.invalid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.out, c)
		})
	}
}
