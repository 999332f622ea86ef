package branding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as six uppercase hex digits without a leading '#'.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q is not 6 hex digits", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q is not 6 hex digits", ErrInvalidColor, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ColorFromRGB builds a color from integer components in 0..255.
func ColorFromRGB(r, g, b int) (Color, error) {
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return Color{}, fmt.Errorf("%w: component %d out of range 0-255", ErrInvalidColor, v)
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// parseColorJSON accepts a hex string or a three element integer array.
func parseColorJSON(raw json.RawMessage) (Color, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Color{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
		}
		return ParseColor(s)
	}
	var parts []float64
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Color{}, fmt.Errorf("%w: expected hex string or [r, g, b]", ErrInvalidColor)
	}
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidColor, len(parts))
	}
	var ints [3]int
	for i, p := range parts {
		if p != float64(int(p)) {
			return Color{}, fmt.Errorf("%w: component %v is not an integer", ErrInvalidColor, p)
		}
		ints[i] = int(p)
	}
	return ColorFromRGB(ints[0], ints[1], ints[2])
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
