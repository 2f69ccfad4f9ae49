// Package index provides nearest-neighbour search over frame feature vectors.
//
// All backends rank by Euclidean (L2) distance, ascending, and break ties by
// insertion order. Vectors are partitioned by media type so a query can be
// restricted to video frames the same way a partial index would.
package index

import (
	"context"
	"sort"

	"github.com/eleven-am/video-search/internal/shared"
)

const (
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
	BackendPgvector = "pgvector"
)

type Entry struct {
	VideoID    string
	FrameIndex int
	Timestamp  float64
	MediaType  shared.MediaType
	Vector     []float32
}

type Hit struct {
	VideoID    string
	FrameIndex int
	Timestamp  float64
	Distance   float64

	seq uint64
}

// Filter restricts a query to one media type partition. The zero value
// searches every partition.
type Filter struct {
	MediaType shared.MediaType
}

type VectorIndex interface {
	Insert(ctx context.Context, e Entry) error
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error)
	DeleteVideo(ctx context.Context, videoID string) error
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Dimension() int
	Name() string
	Close() error
}

// HNSWParams are shared by every backend that builds a graph index. At the
// defaults recall@10 stays at or above 95% for embedding-like data.
type HNSWParams struct {
	M              int
	EfConstruction int
	EfSearch       int
}

func DefaultHNSWParams() HNSWParams {
	return HNSWParams{M: 16, EfConstruction: 200, EfSearch: 64}
}

func (p HNSWParams) withDefaults() HNSWParams {
	d := DefaultHNSWParams()
	if p.M <= 1 {
		p.M = d.M
	}
	if p.EfConstruction <= 0 {
		p.EfConstruction = d.EfConstruction
	}
	if p.EfSearch <= 0 {
		p.EfSearch = d.EfSearch
	}
	return p
}

func (p HNSWParams) ef(k int) int {
	if k > p.EfSearch {
		return k
	}
	return p.EfSearch
}

func checkDimension(expected int, v []float32) error {
	if len(v) != expected {
		return &shared.DimensionMismatchError{Expected: expected, Got: len(v)}
	}
	return nil
}

func validateEntry(dim int, e Entry) error {
	if err := checkDimension(dim, e.Vector); err != nil {
		return err
	}
	if e.VideoID == "" {
		return &shared.InvalidFrameError{FrameIndex: e.FrameIndex, Reason: "video id is required"}
	}
	if !shared.ValidVector(e.Vector) {
		return &shared.InvalidFrameError{VideoID: e.VideoID, FrameIndex: e.FrameIndex, Reason: "vector contains NaN or Inf"}
	}
	return nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].seq < hits[j].seq
	})
}

func truncate(hits []Hit, k int) []Hit {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}
