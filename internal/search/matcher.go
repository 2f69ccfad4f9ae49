package search

import (
	"context"
	"fmt"

	"github.com/eleven-am/video-search/internal/index"
	"github.com/eleven-am/video-search/internal/shared"
	"golang.org/x/sync/errgroup"
)

type QueryFrame struct {
	Timestamp float64
	Vector    []float32
}

// MatchCandidate pairs one query frame with one stored frame that passed the
// similarity threshold.
type MatchCandidate struct {
	QueryIndex         int
	QueryTimestamp     float64
	VideoID            string
	FrameIndex         int
	CandidateTimestamp float64
	Distance           float64
	Similarity         float64
}

func (m MatchCandidate) Offset() float64 {
	return m.QueryTimestamp - m.CandidateTimestamp
}

type FrameMatches struct {
	QueryIndex int
	Candidates []MatchCandidate
}

// Similarity maps an L2 distance onto (0,1]; identical vectors score 1.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}

type Matcher struct {
	index         index.VectorIndex
	workers       int
	maxCandidates int
}

func NewMatcher(idx index.VectorIndex, workers, maxCandidates int) *Matcher {
	if workers < 1 {
		workers = 1
	}
	return &Matcher{
		index:         idx,
		workers:       workers,
		maxCandidates: maxCandidates,
	}
}

// Match queries the index once per (possibly sampled) query frame and keeps
// hits whose similarity reaches threshold. Query frames without survivors are
// omitted. The result is ordered by query frame position.
func (m *Matcher) Match(ctx context.Context, frames []QueryFrame, perFrameK int, threshold float64, filter index.Filter) ([]FrameMatches, error) {
	if len(frames) == 0 {
		return nil, shared.ErrEmptyQuery
	}
	if perFrameK < 1 {
		return nil, fmt.Errorf("%w: per_frame_k must be at least 1", shared.ErrInvalidConfig)
	}
	if perFrameK > MaxPerFrameK || (m.maxCandidates > 0 && perFrameK > m.maxCandidates) {
		return nil, fmt.Errorf("%w: per_frame_k %d exceeds the candidate cap", shared.ErrInvalidConfig, perFrameK)
	}

	dim := m.index.Dimension()
	for i, f := range frames {
		if len(f.Vector) != dim {
			return nil, &shared.DimensionMismatchError{Expected: dim, Got: len(f.Vector)}
		}
		if !shared.ValidVector(f.Vector) {
			return nil, fmt.Errorf("%w: query frame %d vector contains NaN or Inf", shared.ErrInvalidConfig, i)
		}
	}

	selected := sampleFrames(len(frames), perFrameK, m.maxCandidates)
	results := make([][]MatchCandidate, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for slot, qi := range selected {
		g.Go(func() error {
			q := frames[qi]
			hits, err := m.index.Query(gctx, q.Vector, perFrameK, filter)
			if err != nil {
				return err
			}
			results[slot] = filterHits(qi, q.Timestamp, hits, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FrameMatches, 0, len(results))
	for slot, cands := range results {
		if len(cands) == 0 {
			continue
		}
		out = append(out, FrameMatches{QueryIndex: selected[slot], Candidates: cands})
	}
	return out, nil
}

func filterHits(queryIndex int, queryTimestamp float64, hits []index.Hit, threshold float64) []MatchCandidate {
	var out []MatchCandidate
	for _, h := range hits {
		sim := Similarity(h.Distance)
		if sim < threshold {
			continue
		}
		out = append(out, MatchCandidate{
			QueryIndex:         queryIndex,
			QueryTimestamp:     queryTimestamp,
			VideoID:            h.VideoID,
			FrameIndex:         h.FrameIndex,
			CandidateTimestamp: h.Timestamp,
			Distance:           h.Distance,
			Similarity:         sim,
		})
	}
	return out
}

// sampleFrames returns the positions of the query frames to search. When
// n × k exceeds maxCandidates the frames are thinned to an evenly spaced
// subset of max(1, maxCandidates/k) positions.
func sampleFrames(n, k, maxCandidates int) []int {
	keep := n
	if maxCandidates > 0 && n > maxCandidates/k {
		keep = max(1, maxCandidates/k)
	}

	out := make([]int, keep)
	for i := range out {
		out[i] = i * n / keep
	}
	return out
}
