package search

import (
	"fmt"
	"math"

	"github.com/eleven-am/video-search/internal/shared"
)

// MaxPerFrameK bounds per-frame neighbour counts regardless of MaxCandidates.
const MaxPerFrameK = 1000

type Config struct {
	MinMatches          int
	SimilarityThreshold float64
	PerFrameK           int
	OffsetTolerance     float64
	ResultLimit         int

	// MaxCandidates caps query frames × PerFrameK for one search. Zero disables the cap.
	MaxCandidates   int
	ConfidenceScale float64
	QueryWorkers    int
	IngestWorkers   int

	// MaxFramesPerVideo and MaxDuration bound what one video may hold. Zero
	// disables the limit.
	MaxFramesPerVideo int
	MaxDuration       float64
}

func DefaultConfig() Config {
	return Config{
		MinMatches:          3,
		SimilarityThreshold: 0.8,
		PerFrameK:           10,
		OffsetTolerance:     0.5,
		ResultLimit:         20,
		MaxCandidates:       5000,
		ConfidenceScale:     5,
		QueryWorkers:        8,
		IngestWorkers:       10,
		MaxFramesPerVideo:   100,
		MaxDuration:         300,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MinMatches < 1:
		return invalid("min_matches must be at least 1, got %d", c.MinMatches)
	case math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return invalid("similarity_threshold must be in [0,1], got %v", c.SimilarityThreshold)
	case c.PerFrameK < 1:
		return invalid("per_frame_k must be at least 1, got %d", c.PerFrameK)
	case c.PerFrameK > MaxPerFrameK:
		return invalid("per_frame_k must be at most %d, got %d", MaxPerFrameK, c.PerFrameK)
	case math.IsNaN(c.OffsetTolerance) || c.OffsetTolerance <= 0:
		return invalid("offset_tolerance must be positive, got %v", c.OffsetTolerance)
	case c.ResultLimit < 1:
		return invalid("limit must be at least 1, got %d", c.ResultLimit)
	case c.MaxCandidates < 0:
		return invalid("max_candidates must not be negative, got %d", c.MaxCandidates)
	case c.MaxCandidates > 0 && c.PerFrameK > c.MaxCandidates:
		return invalid("per_frame_k %d exceeds max_candidates %d", c.PerFrameK, c.MaxCandidates)
	case math.IsNaN(c.ConfidenceScale) || c.ConfidenceScale <= 0:
		return invalid("confidence_scale must be positive, got %v", c.ConfidenceScale)
	case c.QueryWorkers < 1:
		return invalid("query_workers must be at least 1, got %d", c.QueryWorkers)
	case c.IngestWorkers < 1:
		return invalid("ingest_workers must be at least 1, got %d", c.IngestWorkers)
	case c.MaxFramesPerVideo < 0:
		return invalid("max_frames_per_video must not be negative, got %d", c.MaxFramesPerVideo)
	case math.IsNaN(c.MaxDuration) || c.MaxDuration < 0:
		return invalid("max_duration must not be negative, got %v", c.MaxDuration)
	}
	return nil
}

// Overrides carries per-request tuning. Nil fields keep the configured value.
type Overrides struct {
	MinMatches          *int
	SimilarityThreshold *float64
	PerFrameK           *int
	Limit               *int
}

// WithOverrides returns a validated copy; the receiver is never modified.
func (c Config) WithOverrides(o Overrides) (Config, error) {
	if o.MinMatches != nil {
		c.MinMatches = *o.MinMatches
	}
	if o.SimilarityThreshold != nil {
		c.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.PerFrameK != nil {
		c.PerFrameK = *o.PerFrameK
	}
	if o.Limit != nil {
		c.ResultLimit = *o.Limit
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
