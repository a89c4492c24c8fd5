package websocket

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/radiomap/viewer/models"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
	"google.golang.org/protobuf/encoding/protowire"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeUnknownCodec = "unknown_codec"

	CodecJSON  = "json"
	CodecProto = "proto"
)

// Codec encodes frames sent to clients.
type Codec interface {
	Name() string

	// The websocket payload type of encoded frames.
	PayloadType() byte

	Encode(Frame) ([]byte, error)
}

// CodecByName returns the codec registered under the given name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecJSON, "":
		return JSONCodec{}, nil

	case CodecProto:
		return ProtoCodec{}, nil

	default:
		return nil, errors.New("unknown codec").
			WithType(ErrTypeUnknownCodec).
			WithTag("codec", name)
	}
}

// JSONCodec encodes frames as JSON text messages.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return CodecJSON
}

func (JSONCodec) PayloadType() byte {
	return websocket.TextFrame
}

func (JSONCodec) Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// ProtoCodec encodes frames as binary messages in the protocol buffers wire
// format. Geometry buffers are packed repeated fields.
//
//	Frame:    1 seq, 2 state, 3 objects
//	State:    1 position, 2 up, 3 target, 4 fov, 5 aspect, 6 near, 7 far,
//	          8 projection, 9 view, 10 stage, 11 error, 12 updated_at_ms,
//	          13 min_distance, 14 max_distance, 15 background
//	Object:   1 id, 2 kind, 3 name, 4 positions, 5 indices, 6 colors,
//	          7 material
//	Material: 1 type, 2 vertex_colors, 3 color, 4 roughness, 5 metalness,
//	          6 double_sided, 7 flat_shading, 8 size, 9 size_attenuation,
//	          10 alpha_test, 11 transparent, 12 line_width
type ProtoCodec struct{}

func (ProtoCodec) Name() string {
	return CodecProto
}

func (ProtoCodec) PayloadType() byte {
	return websocket.BinaryFrame
}

func (ProtoCodec) Encode(f Frame) ([]byte, error) {
	var b []byte
	b = appendVarint(b, 1, f.Seq)

	if f.State != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeState(f.State))
	}

	for _, o := range f.Objects {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeObject(o))
	}
	return b, nil
}

func encodeState(s *FrameState) []byte {
	var b []byte
	b = appendVec(b, 1, s.Camera.Position)
	b = appendVec(b, 2, s.Camera.Up)
	b = appendVec(b, 3, s.Camera.Target)
	b = appendDouble(b, 4, s.Camera.Fov)
	b = appendDouble(b, 5, s.Camera.Aspect)
	b = appendDouble(b, 6, s.Camera.Near)
	b = appendDouble(b, 7, s.Camera.Far)
	b = appendDoubles(b, 8, s.Camera.Projection[:])
	b = appendDoubles(b, 9, s.Camera.View[:])
	b = appendString(b, 10, s.Status.Stage)
	b = appendString(b, 11, s.Status.Error)
	b = appendVarint(b, 12, uint64(s.Status.UpdatedAt.UnixMilli()))
	b = appendDouble(b, 13, s.Camera.MinDistance)
	b = appendDouble(b, 14, s.Camera.MaxDistance)
	b = appendFloats(b, 15, s.Settings.Background[:])
	return b
}

func encodeObject(o *models.Object) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(o.ID))
	b = appendString(b, 2, string(o.Kind))
	b = appendString(b, 3, o.Name)
	b = appendFloats(b, 4, o.Positions)
	b = appendUint32s(b, 5, o.Indices)
	b = appendFloats(b, 6, o.Colors)

	b = protowire.AppendTag(b, 7, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeMaterial(o.Material))
	return b
}

func encodeMaterial(m models.Material) []byte {
	var b []byte
	b = appendString(b, 1, string(m.Type))
	b = appendBool(b, 2, m.VertexColors)
	if m.Color != nil {
		b = appendFloats(b, 3, m.Color[:])
	}
	b = appendDouble(b, 4, m.Roughness)
	b = appendDouble(b, 5, m.Metalness)
	b = appendBool(b, 6, m.DoubleSided)
	b = appendBool(b, 7, m.FlatShading)
	b = appendDouble(b, 8, m.Size)
	b = appendBool(b, 9, m.SizeAttenuation)
	b = appendDouble(b, 10, m.AlphaTest)
	b = appendBool(b, 11, m.Transparent)
	b = appendDouble(b, 12, m.LineWidth)
	return b
}

// Zero scalars are omitted as in proto3.

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVec(b []byte, num protowire.Number, v r3.Vec) []byte {
	return appendDoubles(b, num, []float64{v.X, v.Y, v.Z})
}

func appendDoubles(b []byte, num protowire.Number, v []float64) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(v)*8))
	for _, f := range v {
		b = protowire.AppendFixed64(b, math.Float64bits(f))
	}
	return b
}

func appendFloats(b []byte, num protowire.Number, v []float32) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(v)*4))
	for _, f := range v {
		b = protowire.AppendFixed32(b, math.Float32bits(f))
	}
	return b
}

func appendUint32s(b []byte, num protowire.Number, v []uint32) []byte {
	if len(v) == 0 {
		return b
	}

	size := 0
	for _, n := range v {
		size += protowire.SizeVarint(uint64(n))
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size))
	for _, n := range v {
		b = protowire.AppendVarint(b, uint64(n))
	}
	return b
}
