package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eleven-am/video-search/internal/cache"
	"github.com/eleven-am/video-search/internal/frame"
	"github.com/eleven-am/video-search/internal/index"
	"github.com/eleven-am/video-search/internal/shared"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testDim = 8

type countingIndex struct {
	index.VectorIndex
	queries atomic.Int64
}

func (c *countingIndex) Query(ctx context.Context, vec []float32, k int, f index.Filter) ([]index.Hit, error) {
	c.queries.Add(1)
	return c.VectorIndex.Query(ctx, vec, k, f)
}

// hookIndex runs hook once, right after the after-th query returns.
type hookIndex struct {
	index.VectorIndex
	calls atomic.Int64
	after int64
	hook  func()
}

func (h *hookIndex) Query(ctx context.Context, vec []float32, k int, f index.Filter) ([]index.Hit, error) {
	hits, err := h.VectorIndex.Query(ctx, vec, k, f)
	if h.calls.Add(1) == h.after && h.hook != nil {
		h.hook()
	}
	return hits, err
}

func setupTestStore(t *testing.T) *frame.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := frame.NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestEngine(t *testing.T) (*Engine, *countingIndex) {
	t.Helper()
	idx := &countingIndex{VectorIndex: index.NewMemory(index.MemoryConfig{Dimension: testDim})}
	engine, err := NewEngine(setupTestStore(t), idx, cache.NewLocal(time.Minute), DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, idx
}

func newTestEngine(t *testing.T, idx index.VectorIndex, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(setupTestStore(t), idx, cache.NewLocal(time.Minute), cfg, testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func randomVec(rng *rand.Rand) []float32 {
	v := make([]float32, testDim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

// ingestVideo stores n frames one second apart and returns their vectors.
func ingestVideo(t *testing.T, e *Engine, rng *rand.Rand, videoID string, n int) [][]float32 {
	t.Helper()
	vectors := make([][]float32, n)
	frames := make([]FrameInput, n)
	for i := range frames {
		vectors[i] = randomVec(rng)
		frames[i] = FrameInput{FrameIndex: i, Timestamp: float64(i), IsKeyframe: i%5 == 0, Vector: vectors[i]}
	}
	report, err := e.IndexFrames(context.Background(), videoID, frames, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexFrames failed: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
	return vectors
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinMatches = 0
	_, err := NewEngine(nil, index.NewMemory(index.MemoryConfig{Dimension: 2}), nil, cfg, testLogger())
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngine_SearchFindsClipAtOffset(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(1))
	x := ingestVideo(t, e, rng, "video_x", 20)
	ingestVideo(t, e, rng, "video_y", 20)

	query := make([]QueryFrame, 10)
	for q := range query {
		query[q] = QueryFrame{Timestamp: float64(q), Vector: randomVec(rng)}
	}
	for q := 2; q < 8; q++ {
		query[q].Vector = x[q-2]
	}

	results, err := e.Search(context.Background(), SearchRequest{Frames: query})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %+v", results)
	}
	got := results[0]
	if got.VideoID != "video_x" || got.MatchCount != 6 {
		t.Errorf("expected video_x with 6 matches, got %s with %d", got.VideoID, got.MatchCount)
	}
	if got.Offset != 2 {
		t.Errorf("expected offset 2.0, got %f", got.Offset)
	}
	if got.Confidence <= 0 || got.Confidence >= 1 {
		t.Errorf("confidence out of range: %f", got.Confidence)
	}
	if len(got.Pairs) != 6 || got.Pairs[0].QueryTimestamp != 2 || got.Pairs[0].CandidateTimestamp != 0 {
		t.Errorf("unexpected pairs %+v", got.Pairs)
	}
}

func TestEngine_SearchIgnoresScatteredSingleHits(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(2))
	a := ingestVideo(t, e, rng, "video_a", 10)
	b := ingestVideo(t, e, rng, "video_b", 10)

	query := []QueryFrame{
		{Timestamp: 0, Vector: a[3]},
		{Timestamp: 1, Vector: b[7]},
		{Timestamp: 2, Vector: randomVec(rng)},
		{Timestamp: 3, Vector: randomVec(rng)},
	}

	results, err := e.Search(context.Background(), SearchRequest{Frames: query})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty result list, got %#v", results)
	}
}

func TestEngine_SearchEmptyQuery(t *testing.T) {
	e, idx := setupTestEngine(t)

	_, err := e.Search(context.Background(), SearchRequest{})
	if !errors.Is(err, shared.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if idx.queries.Load() != 0 {
		t.Error("index should not be queried for an empty request")
	}
}

func TestEngine_SearchDimensionMismatch(t *testing.T) {
	e, _ := setupTestEngine(t)

	_, err := e.Search(context.Background(), SearchRequest{Frames: []QueryFrame{{Vector: []float32{1, 2}}}})
	if !errors.Is(err, shared.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEngine_SearchInvalidOverride(t *testing.T) {
	e, _ := setupTestEngine(t)
	threshold := 1.5

	_, err := e.Search(context.Background(), SearchRequest{
		Frames:    []QueryFrame{{Vector: make([]float32, testDim)}},
		Overrides: Overrides{SimilarityThreshold: &threshold},
	})
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if e.Config().SimilarityThreshold != DefaultConfig().SimilarityThreshold {
		t.Error("engine config must not change")
	}
}

func TestEngine_SearchExcludeVideo(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(3))
	x := ingestVideo(t, e, rng, "video_x", 6)

	query := make([]QueryFrame, len(x))
	for i, v := range x {
		query[i] = QueryFrame{Timestamp: float64(i) + 1, Vector: v}
	}

	results, _ := e.Search(context.Background(), SearchRequest{Frames: query})
	if len(results) != 1 {
		t.Fatalf("expected self match, got %+v", results)
	}

	results, err := e.Search(context.Background(), SearchRequest{Frames: query, ExcludeVideoID: "video_x"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("excluded video returned: %+v", results)
	}
}

func TestEngine_SearchImagesSeparatedFromVideos(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(4))
	v := randomVec(rng)

	_, err := e.IndexFrames(context.Background(), "still", []FrameInput{{FrameIndex: 0, Vector: v}}, IndexOptions{MediaType: shared.MediaTypeImage})
	if err != nil {
		t.Fatalf("IndexFrames failed: %v", err)
	}

	one := 1
	req := SearchRequest{
		Frames:    []QueryFrame{{Timestamp: 0, Vector: v}},
		Overrides: Overrides{MinMatches: &one},
	}
	results, _ := e.Search(context.Background(), req)
	if len(results) != 0 {
		t.Errorf("image should not match a video search, got %+v", results)
	}

	req.MediaType = shared.MediaTypeImage
	results, _ = e.Search(context.Background(), req)
	if len(results) != 1 || results[0].VideoID != "still" {
		t.Errorf("expected image match, got %+v", results)
	}
}

func TestEngine_SearchUsesCache(t *testing.T) {
	e, idx := setupTestEngine(t)
	rng := rand.New(rand.NewSource(5))
	x := ingestVideo(t, e, rng, "video_x", 5)

	query := []QueryFrame{{Timestamp: 0, Vector: x[0]}, {Timestamp: 1, Vector: x[1]}, {Timestamp: 2, Vector: x[2]}}
	first, _ := e.Search(context.Background(), SearchRequest{Frames: query})
	calls := idx.queries.Load()

	second, err := e.Search(context.Background(), SearchRequest{Frames: query})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if idx.queries.Load() != calls {
		t.Error("repeated search should be served from cache")
	}
	if len(first) != len(second) || second[0].VideoID != first[0].VideoID || second[0].MatchCount != first[0].MatchCount {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	ingestVideo(t, e, rng, "video_y", 3)
	e.Search(context.Background(), SearchRequest{Frames: query})
	if idx.queries.Load() == calls {
		t.Error("ingestion should invalidate cached searches")
	}
}

func TestEngine_IndexFramesPartialFailure(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(6))

	frames := []FrameInput{
		{FrameIndex: 4, Timestamp: 4, Vector: randomVec(rng)},
		{FrameIndex: 0, Timestamp: 0, Vector: randomVec(rng)},
		{FrameIndex: 2, Timestamp: 2, Vector: []float32{1, 2, 3}},
		{FrameIndex: 1, Timestamp: 1, Vector: randomVec(rng)},
		{FrameIndex: 3, Timestamp: 3, Vector: randomVec(rng)},
	}

	report, err := e.IndexFrames(context.Background(), "video_a", frames, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexFrames failed: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].FrameIndex != 2 {
		t.Fatalf("expected frame 2 to fail, got %+v", report.Failures)
	}
	if !errors.Is(report.Failures[0].Err, shared.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", report.Failures[0].Err)
	}
	want := []int{0, 1, 3, 4}
	if len(report.Indexed) != len(want) {
		t.Fatalf("expected indexed %v, got %v", want, report.Indexed)
	}
	for i, fi := range want {
		if report.Indexed[i] != fi {
			t.Errorf("expected indexed %v, got %v", want, report.Indexed)
			break
		}
	}

	stored, _ := e.ListFrames(context.Background(), "video_a")
	if len(stored) != 4 {
		t.Errorf("expected 4 stored frames, got %d", len(stored))
	}
	n, _ := e.Index().Len(context.Background())
	if n != 4 {
		t.Errorf("expected 4 indexed vectors, got %d", n)
	}
}

func TestEngine_IndexFramesDuplicate(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(7))
	ingestVideo(t, e, rng, "video_a", 3)

	report, err := e.IndexFrames(context.Background(), "video_a", []FrameInput{
		{FrameIndex: 1, Timestamp: 1, Vector: randomVec(rng)},
	}, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexFrames failed: %v", err)
	}
	if len(report.Failures) != 1 || shared.ErrorCode(report.Failures[0].Err) != "duplicate_frame" {
		t.Errorf("expected duplicate_frame failure, got %+v", report.Failures)
	}
}

func TestEngine_IndexFramesIdempotentOverwrite(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(8))

	frames := make([]FrameInput, 5)
	for i := range frames {
		frames[i] = FrameInput{FrameIndex: i * 2, Timestamp: float64(i) * 0.5, IsKeyframe: i == 0, Vector: randomVec(rng)}
	}
	ctx := context.Background()
	opts := IndexOptions{Overwrite: true}

	if _, err := e.IndexFrames(ctx, "video_a", frames, opts); err != nil {
		t.Fatalf("first IndexFrames failed: %v", err)
	}
	once, _ := e.ListFrames(ctx, "video_a")
	onceLen, _ := e.Index().Len(ctx)

	report, err := e.IndexFrames(ctx, "video_a", frames, opts)
	if err != nil {
		t.Fatalf("second IndexFrames failed: %v", err)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures on overwrite: %+v", report.Failures)
	}
	twice, _ := e.ListFrames(ctx, "video_a")
	twiceLen, _ := e.Index().Len(ctx)

	if len(once) != len(twice) || onceLen != twiceLen {
		t.Fatalf("state changed: %d/%d frames, %d/%d vectors", len(once), len(twice), onceLen, twiceLen)
	}
	for i := range once {
		a, b := once[i], twice[i]
		if a.FrameIndex != b.FrameIndex || a.Timestamp != b.Timestamp || a.IsKeyframe != b.IsKeyframe {
			t.Errorf("frame %d differs: %+v vs %+v", i, a, b)
		}
	}

	for i, f := range frames {
		hits, _ := e.Index().Query(ctx, f.Vector, 1, index.Filter{})
		if len(hits) != 1 || hits[0].Distance != 0 || hits[0].FrameIndex != i*2 {
			t.Errorf("expected self match for frame %d, got %+v", i*2, hits)
		}
	}
}

func TestEngine_IndexFramesRejectsImageSequences(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(9))

	report, _ := e.IndexFrames(context.Background(), "img", []FrameInput{
		{FrameIndex: 0, Vector: randomVec(rng)},
		{FrameIndex: 1, Timestamp: 1, Vector: randomVec(rng)},
	}, IndexOptions{MediaType: shared.MediaTypeImage})

	if len(report.Indexed) != 1 || len(report.Failures) != 1 {
		t.Fatalf("expected one indexed and one rejected frame, got %+v", report)
	}
	if !errors.Is(report.Failures[0].Err, shared.ErrInvalidFrame) {
		t.Errorf("expected invalid frame, got %v", report.Failures[0].Err)
	}
}

func TestEngine_IndexFramesInvalidInput(t *testing.T) {
	e, _ := setupTestEngine(t)

	if _, err := e.IndexFrames(context.Background(), "", nil, IndexOptions{}); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty video id, got %v", err)
	}
	if _, err := e.IndexFrames(context.Background(), "v", nil, IndexOptions{MediaType: "audio"}); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown media type, got %v", err)
	}
}

func TestEngine_DeleteVideo(t *testing.T) {
	e, _ := setupTestEngine(t)
	rng := rand.New(rand.NewSource(10))
	x := ingestVideo(t, e, rng, "video_x", 5)
	ingestVideo(t, e, rng, "video_y", 5)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := e.DeleteVideo(ctx, "video_x"); err != nil {
			t.Fatalf("DeleteVideo call %d failed: %v", i+1, err)
		}
	}

	frames, _ := e.ListFrames(ctx, "video_x")
	if len(frames) != 0 {
		t.Errorf("expected no frames after delete, got %d", len(frames))
	}
	if _, err := e.GetVideo(ctx, "video_x"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	n, _ := e.Index().Len(ctx)
	if n != 5 {
		t.Errorf("expected 5 remaining vectors, got %d", n)
	}

	one := 1
	results, _ := e.Search(ctx, SearchRequest{
		Frames:    []QueryFrame{{Vector: x[0]}},
		Overrides: Overrides{MinMatches: &one},
	})
	for _, r := range results {
		if r.VideoID == "video_x" {
			t.Error("deleted video still searchable")
		}
	}
}

func TestEngine_Rebuild(t *testing.T) {
	store := setupTestStore(t)
	rng := rand.New(rand.NewSource(11))

	first, err := NewEngine(store, index.NewMemory(index.MemoryConfig{Dimension: testDim}), nil, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	x := ingestVideo(t, first, rng, "video_x", 12)

	fresh := index.NewMemory(index.MemoryConfig{Dimension: testDim})
	second, _ := NewEngine(store, fresh, nil, DefaultConfig(), testLogger())
	loaded, err := second.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if loaded != 12 {
		t.Errorf("expected 12 frames loaded, got %d", loaded)
	}

	query := []QueryFrame{{Timestamp: 5, Vector: x[0]}, {Timestamp: 6, Vector: x[1]}, {Timestamp: 7, Vector: x[2]}}
	results, _ := second.Search(context.Background(), SearchRequest{Frames: query})
	if len(results) != 1 || results[0].VideoID != "video_x" || results[0].Offset != 5 {
		t.Errorf("expected rebuilt index to find video_x at offset 5, got %+v", results)
	}
}

func TestEngine_SearchRejectsOversizedPerFrameK(t *testing.T) {
	e, idx := setupTestEngine(t)
	rng := rand.New(rand.NewSource(20))
	x := ingestVideo(t, e, rng, "video_x", 5)

	for _, k := range []int{e.Config().MaxCandidates + 1, MaxPerFrameK + 1, 1 << 40} {
		_, err := e.Search(context.Background(), SearchRequest{
			Frames:    []QueryFrame{{Timestamp: 0, Vector: x[0]}},
			Overrides: Overrides{PerFrameK: &k},
		})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("per_frame_k=%d: expected ErrInvalidConfig, got %v", k, err)
		}
	}
	if idx.queries.Load() != 0 {
		t.Errorf("expected no index queries, got %d", idx.queries.Load())
	}
}

func TestEngine_SearchCacheIgnoresResultsOverlappingIngest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryWorkers = 1
	idx := &hookIndex{VectorIndex: index.NewMemory(index.MemoryConfig{Dimension: testDim})}
	e := newTestEngine(t, idx, cfg)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(21))
	x := ingestVideo(t, e, rng, "video_x", 6)

	query := make([]QueryFrame, len(x))
	frames := make([]FrameInput, len(x))
	for i, v := range x {
		query[i] = QueryFrame{Timestamp: float64(i), Vector: v}
		frames[i] = FrameInput{FrameIndex: i, Timestamp: float64(i), Vector: v}
	}

	idx.after = int64(len(query))
	idx.hook = func() {
		report, err := e.IndexFrames(ctx, "video_y", frames, IndexOptions{})
		if err != nil || len(report.Failures) != 0 {
			t.Errorf("ingest during search failed: %v %+v", err, report)
		}
	}

	if _, err := e.Search(ctx, SearchRequest{Frames: query}); err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	results, err := e.Search(ctx, SearchRequest{Frames: query})
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if len(results) != 2 || results[0].VideoID != "video_x" || results[1].VideoID != "video_y" {
		t.Errorf("expected [video_x video_y] after the overlapping ingest, got %+v", results)
	}
}

func TestEngine_IndexFramesOrderIsDeterministic(t *testing.T) {
	batches := map[string][]FrameInput{
		"sorted": {
			{FrameIndex: 1, Timestamp: 5, Vector: make([]float32, testDim)},
			{FrameIndex: 2, Timestamp: 3, Vector: make([]float32, testDim)},
		},
		"reversed": {
			{FrameIndex: 2, Timestamp: 3, Vector: make([]float32, testDim)},
			{FrameIndex: 1, Timestamp: 5, Vector: make([]float32, testDim)},
		},
	}

	for name, batch := range batches {
		t.Run(name, func(t *testing.T) {
			for run := 0; run < 50; run++ {
				e, _ := setupTestEngine(t)
				report, err := e.IndexFrames(context.Background(), "video_a", batch, IndexOptions{})
				if err != nil {
					t.Fatalf("IndexFrames failed: %v", err)
				}
				if len(report.Indexed) != 1 || report.Indexed[0] != 1 {
					t.Fatalf("run %d: expected frame 1 indexed, got %v", run, report.Indexed)
				}
				if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, shared.ErrInvalidFrame) {
					t.Fatalf("run %d: expected frame 2 rejected as invalid, got %+v", run, report.Failures)
				}
			}
		})
	}
}

func TestEngine_IndexFramesEnforcesVideoLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFramesPerVideo = 3
	cfg.MaxDuration = 10
	e := newTestEngine(t, index.NewMemory(index.MemoryConfig{Dimension: testDim}), cfg)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(22))

	single := func(frameIndex int, ts float64, overwrite bool) *IndexReport {
		t.Helper()
		report, err := e.IndexFrames(ctx, "video_a", []FrameInput{
			{FrameIndex: frameIndex, Timestamp: ts, Vector: randomVec(rng)},
		}, IndexOptions{Overwrite: overwrite})
		if err != nil {
			t.Fatalf("IndexFrames failed: %v", err)
		}
		return report
	}

	report, err := e.IndexFrames(ctx, "video_a", []FrameInput{
		{FrameIndex: 0, Timestamp: 0, Vector: randomVec(rng)},
		{FrameIndex: 1, Timestamp: 5, Vector: randomVec(rng)},
		{FrameIndex: 2, Timestamp: 10.5, Vector: randomVec(rng)},
		{FrameIndex: 3, Timestamp: 11, Vector: randomVec(rng)},
	}, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexFrames failed: %v", err)
	}
	if len(report.Indexed) != 2 || len(report.Failures) != 2 {
		t.Fatalf("expected frames 0 and 1 indexed, got %v / %+v", report.Indexed, report.Failures)
	}
	for _, f := range report.Failures {
		if !errors.Is(f.Err, shared.ErrInvalidFrame) {
			t.Errorf("frame %d: expected invalid frame, got %v", f.FrameIndex, f.Err)
		}
	}

	if r := single(2, 8, false); len(r.Indexed) != 1 {
		t.Fatalf("expected third frame to fit the budget, got %+v", r.Failures)
	}

	r := single(3, 9, false)
	if len(r.Failures) != 1 || !errors.Is(r.Failures[0].Err, shared.ErrInvalidFrame) {
		t.Errorf("expected the fourth frame to exceed the budget, got %+v", r)
	}

	if r := single(1, 5, true); len(r.Indexed) != 1 {
		t.Errorf("overwriting a stored frame must not count against the budget, got %+v", r.Failures)
	}

	stored, _ := e.ListFrames(ctx, "video_a")
	if len(stored) != 3 {
		t.Errorf("expected 3 stored frames, got %d", len(stored))
	}
}

func TestEngine_IndexVideos(t *testing.T) {
	e, _ := setupTestEngine(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(23))

	videos := make([]VideoFrames, 4)
	for i := range videos {
		frames := make([]FrameInput, 3)
		for j := range frames {
			frames[j] = FrameInput{FrameIndex: j, Timestamp: float64(j), Vector: randomVec(rng)}
		}
		videos[i] = VideoFrames{VideoID: fmt.Sprintf("video_%d", i), Frames: frames}
	}

	reports, err := e.IndexVideos(ctx, videos, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexVideos failed: %v", err)
	}
	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	for i, r := range reports {
		if r.VideoID != videos[i].VideoID || len(r.Indexed) != 3 {
			t.Errorf("report %d: unexpected %+v", i, r)
		}
	}
	n, _ := e.Index().Len(ctx)
	if n != 12 {
		t.Errorf("expected 12 indexed vectors, got %d", n)
	}

	_, err = e.IndexVideos(ctx, []VideoFrames{videos[0], videos[0]}, IndexOptions{})
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for a repeated video, got %v", err)
	}
}
