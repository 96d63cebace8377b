package state

import (
	"encoding/json"
	"fmt"
)

// Rect is an on-screen rectangle in pixels
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Validate rejects negative sizes
func (r Rect) Validate() error {
	if r.W < 0 || r.H < 0 {
		return fmt.Errorf("invalid rect [%d,%d,%d,%d]: width and height must be non-negative", r.X, r.Y, r.W, r.H)
	}
	return nil
}

// Apply returns a copy of entry with x, y, w, h replaced by r. Other keys
// of the calibration entry are kept.
func (r Rect) Apply(entry map[string]any) map[string]any {
	out := make(map[string]any, len(entry)+4)
	for k, v := range entry {
		out[k] = v
	}
	out["x"] = r.X
	out["y"] = r.Y
	out["w"] = r.W
	out["h"] = r.H
	return out
}

// Offset returns the centre of r moved by dx, dy
func (r Rect) Offset(dx, dy int) (int, int) {
	return r.X + r.W/2 + dx, r.Y + r.H/2 + dy
}

// RectFromEntry reads x, y, w, h out of a region entry
func RectFromEntry(entry map[string]any) (Rect, error) {
	var r Rect
	fields := []struct {
		key string
		dst *int
	}{
		{"x", &r.X}, {"y", &r.Y}, {"w", &r.W}, {"h", &r.H},
	}
	for _, f := range fields {
		v, ok := entry[f.key]
		if !ok {
			return Rect{}, fmt.Errorf("missing %q", f.key)
		}
		n, err := toInt(v)
		if err != nil {
			return Rect{}, fmt.Errorf("field %q: %w", f.key, err)
		}
		*f.dst = n
	}
	return r, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, err
			}
			return int(f), nil
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
