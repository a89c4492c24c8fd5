package models

import (
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Color is a linear RGB color with components in [0, 1].
type Color [3]float32

var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

// ColorFromHex converts a 0xRRGGBB value to a Color.
func ColorFromHex(v uint32) Color {
	return Color{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}
}

// UnmarshalJSON accepts the color notations the simulation service emits: a
// "#rrggbb" string, a 0xRRGGBB number or an [r, g, b] array.
func (c *Color) UnmarshalJSON(b []byte) error {
	switch {
	case len(b) == 0:
		return errors.New("empty color").WithType(ErrTypeInvalidGeometry)

	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		hex := strings.TrimPrefix(s, "#")
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || len(hex) != 6 {
			return errors.New("invalid hex color").
				WithType(ErrTypeInvalidGeometry).
				WithTag("color", s)
		}
		*c = ColorFromHex(uint32(v))
		return nil

	case b[0] == '[':
		var rgb []float32
		if err := json.Unmarshal(b, &rgb); err != nil {
			return err
		}
		if len(rgb) != 3 {
			return errors.New("color array must have 3 components").
				WithType(ErrTypeInvalidGeometry).
				WithTag("components", len(rgb))
		}
		*c = Color{rgb[0], rgb[1], rgb[2]}
		return nil

	default:
		var v uint32
		if err := json.Unmarshal(b, &v); err != nil {
			return errors.New("invalid numeric color").
				WithType(ErrTypeInvalidGeometry).
				Wrap(err)
		}
		*c = ColorFromHex(v)
		return nil
	}
}
