package shared

import (
	"fmt"
	"math"
	"strings"
)

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

func (m MediaType) String() string {
	return string(m)
}

func (m MediaType) Valid() bool {
	return m == MediaTypeVideo || m == MediaTypeImage
}

func ParseMediaType(s string) (MediaType, error) {
	if s == "" {
		return MediaTypeVideo, nil
	}
	m := MediaType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidConfig, s)
	}
	return m, nil
}

// CloneVector returns a private copy so stored vectors cannot be mutated by callers.
func CloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func ValidVector(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}
