package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/eleven-am/video-search/internal/cache"
	"github.com/eleven-am/video-search/internal/frame"
	"github.com/eleven-am/video-search/internal/index"
	"github.com/eleven-am/video-search/internal/shared"
	"golang.org/x/sync/errgroup"
)

type SearchRequest struct {
	Frames    []QueryFrame
	Overrides Overrides
	// MediaType selects the index partition; empty searches video frames.
	MediaType      shared.MediaType
	ExcludeVideoID string
}

type FrameInput struct {
	FrameIndex int
	Timestamp  float64
	IsKeyframe bool
	Vector     []float32
}

type IndexOptions struct {
	Overwrite bool
	MediaType shared.MediaType
}

type FrameFailure struct {
	FrameIndex int
	Err        error
}

// VideoFrames is one video's share of a multi-video ingest.
type VideoFrames struct {
	VideoID string
	Frames  []FrameInput
}

type IndexReport struct {
	VideoID  string
	Indexed  []int
	Failures []FrameFailure
}

// Engine ties the frame store, vector index and result cache together. It
// holds no per-request state and is safe for concurrent use.
type Engine struct {
	store   *frame.Store
	index   index.VectorIndex
	cache   cache.Cache
	matcher *Matcher
	cfg     Config
	logger  *slog.Logger
}

func NewEngine(store *frame.Store, idx index.VectorIndex, c cache.Cache, cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Engine{
		store:   store,
		index:   idx,
		cache:   c,
		matcher: NewMatcher(idx, cfg.QueryWorkers, cfg.MaxCandidates),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Index() index.VectorIndex {
	return e.index
}

// Search returns the stored videos that contain the query clip, best first.
// It fails only on invalid input or an unreachable index.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]VideoMatchResult, error) {
	if len(req.Frames) == 0 {
		return nil, shared.ErrEmptyQuery
	}
	cfg, err := e.cfg.WithOverrides(req.Overrides)
	if err != nil {
		return nil, err
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = shared.MediaTypeVideo
	}
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidConfig, mediaType)
	}

	key := searchKey(req, mediaType, cfg)
	var cached []VideoMatchResult
	gen, found, err := e.cache.Get(ctx, key, &cached)
	cacheable := err == nil
	if err != nil {
		e.logger.Warn("search cache read failed", "error", err)
	} else if found {
		e.logger.Debug("search cache hit", "frames", len(req.Frames))
		return cached, nil
	}

	matches, err := e.matcher.Match(ctx, req.Frames, cfg.PerFrameK, cfg.SimilarityThreshold, index.Filter{MediaType: mediaType})
	if err != nil {
		return nil, err
	}
	if req.ExcludeVideoID != "" {
		matches = excludeVideo(matches, req.ExcludeVideoID)
	}

	clusters := Align(matches, cfg.OffsetTolerance)
	results := NewRanker(cfg.OffsetTolerance, cfg.ConfidenceScale).Rank(clusters, cfg.MinMatches, cfg.ResultLimit)

	if cacheable {
		if err := e.cache.Set(ctx, gen, key, results); err != nil {
			e.logger.Warn("search cache write failed", "error", err)
		}
	}

	e.logger.Debug("search completed",
		"frames", len(req.Frames),
		"matched_frames", len(matches),
		"videos", len(clusters),
		"results", len(results),
	)
	return results, nil
}

// IndexFrames stores and indexes each frame in its own transaction, in
// frame_index order. A frame that fails is reported and skipped; the rest of
// the batch continues.
func (e *Engine) IndexFrames(ctx context.Context, videoID string, frames []FrameInput, opts IndexOptions) (*IndexReport, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrInvalidConfig)
	}
	mediaType := opts.MediaType
	if mediaType == "" {
		mediaType = shared.MediaTypeVideo
	}
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidConfig, mediaType)
	}

	ordered := make([]FrameInput, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FrameIndex < ordered[j].FrameIndex
	})

	report := &IndexReport{VideoID: videoID, Indexed: []int{}, Failures: []FrameFailure{}}
	for _, in := range ordered {
		if err := e.indexFrame(ctx, videoID, in, mediaType, opts.Overwrite); err != nil {
			report.Failures = append(report.Failures, FrameFailure{FrameIndex: in.FrameIndex, Err: err})
			continue
		}
		report.Indexed = append(report.Indexed, in.FrameIndex)
	}

	if len(report.Indexed) > 0 {
		e.invalidate(ctx)
	}
	for _, f := range report.Failures {
		e.logger.Warn("frame rejected",
			"video_id", videoID,
			"frame_index", f.FrameIndex,
			"code", shared.ErrorCode(f.Err),
			"error", f.Err,
		)
	}
	e.logger.Info("frames indexed",
		"video_id", videoID,
		"indexed", len(report.Indexed),
		"failed", len(report.Failures),
	)
	return report, nil
}

// IndexVideos ingests several videos at once, up to IngestWorkers in
// parallel. Frames of one video are always written in order by a single
// worker, so a video may appear only once per call.
func (e *Engine) IndexVideos(ctx context.Context, videos []VideoFrames, opts IndexOptions) ([]*IndexReport, error) {
	seen := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		if _, dup := seen[v.VideoID]; dup {
			return nil, fmt.Errorf("%w: video %q appears more than once", shared.ErrInvalidConfig, v.VideoID)
		}
		seen[v.VideoID] = struct{}{}
	}

	reports := make([]*IndexReport, len(videos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.IngestWorkers)
	for i, v := range videos {
		g.Go(func() error {
			report, err := e.IndexFrames(gctx, v.VideoID, v.Frames, opts)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (e *Engine) indexFrame(ctx context.Context, videoID string, in FrameInput, mediaType shared.MediaType, overwrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dim := e.index.Dimension(); len(in.Vector) != dim {
		return &shared.DimensionMismatchError{Expected: dim, Got: len(in.Vector)}
	}
	if e.cfg.MaxDuration > 0 && in.Timestamp > e.cfg.MaxDuration {
		return &shared.InvalidFrameError{
			VideoID:    videoID,
			FrameIndex: in.FrameIndex,
			Reason:     fmt.Sprintf("timestamp %.3f exceeds the maximum duration of %.0fs", in.Timestamp, e.cfg.MaxDuration),
		}
	}
	if mediaType == shared.MediaTypeImage && in.FrameIndex != 0 {
		return &shared.InvalidFrameError{VideoID: videoID, FrameIndex: in.FrameIndex, Reason: "images hold a single frame at index 0"}
	}

	f := frame.NewFrame(videoID, in.FrameIndex, in.Timestamp, in.IsKeyframe, in.Vector)
	f.MediaType = mediaType

	return e.store.Put(ctx, f, frame.PutOptions{
		Overwrite: overwrite,
		MaxFrames: e.cfg.MaxFramesPerVideo,
		OnWrite: func(ctx context.Context, f *frame.Frame) error {
			return e.index.Insert(ctx, index.Entry{
				VideoID:    f.VideoID,
				FrameIndex: f.FrameIndex,
				Timestamp:  f.Timestamp,
				MediaType:  f.MediaType,
				Vector:     f.Values(),
			})
		},
	})
}

// DeleteVideo removes a video from the index and the store. Deleting an
// unknown video succeeds.
func (e *Engine) DeleteVideo(ctx context.Context, videoID string) error {
	if videoID == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrInvalidConfig)
	}
	if err := e.index.DeleteVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete from index: %w", err)
	}
	if err := e.store.DeleteVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete from store: %w", err)
	}
	e.invalidate(ctx)
	e.logger.Info("video deleted", "video_id", videoID)
	return nil
}

// Rebuild loads every stored frame into the index. It is used to warm an
// in-process index after a restart.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	loaded := 0
	err := e.store.EachFrame(ctx, 500, func(frames []*frame.Frame) error {
		for _, f := range frames {
			err := e.index.Insert(ctx, index.Entry{
				VideoID:    f.VideoID,
				FrameIndex: f.FrameIndex,
				Timestamp:  f.Timestamp,
				MediaType:  f.MediaType,
				Vector:     f.Values(),
			})
			if err != nil {
				return fmt.Errorf("index frame %d of %s: %w", f.FrameIndex, f.VideoID, err)
			}
			loaded++
		}
		return nil
	})
	if err != nil {
		return loaded, err
	}
	e.invalidate(ctx)
	return loaded, nil
}

func (e *Engine) ListFrames(ctx context.Context, videoID string) ([]*frame.Frame, error) {
	return e.store.ListFrames(ctx, videoID)
}

func (e *Engine) GetVideo(ctx context.Context, videoID string) (*frame.VideoSummary, error) {
	return e.store.GetVideo(ctx, videoID)
}

func (e *Engine) ListVideos(ctx context.Context, limit, offset int) ([]frame.VideoSummary, error) {
	return e.store.ListVideos(ctx, limit, offset)
}

func (e *Engine) invalidate(ctx context.Context) {
	if err := e.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("search cache invalidation failed", "error", err)
	}
}

func excludeVideo(matches []FrameMatches, videoID string) []FrameMatches {
	out := make([]FrameMatches, 0, len(matches))
	for _, fm := range matches {
		kept := make([]MatchCandidate, 0, len(fm.Candidates))
		for _, c := range fm.Candidates {
			if c.VideoID != videoID {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			out = append(out, FrameMatches{QueryIndex: fm.QueryIndex, Candidates: kept})
		}
	}
	return out
}

func searchKey(req SearchRequest, mediaType shared.MediaType, cfg Config) string {
	k := cache.NewKey("search").
		String(string(mediaType)).
		String(req.ExcludeVideoID).
		Int(cfg.MinMatches).
		Float64(cfg.SimilarityThreshold).
		Int(cfg.PerFrameK).
		Float64(cfg.OffsetTolerance).
		Int(cfg.ResultLimit).
		Int(cfg.MaxCandidates).
		Float64(cfg.ConfidenceScale).
		Int(len(req.Frames))
	for _, f := range req.Frames {
		k.Float64(f.Timestamp).Vector(f.Vector)
	}
	return k.Sum()
}

// IsClientError reports whether err was caused by the request rather than
// by the service or its backends.
func IsClientError(err error) bool {
	return errors.Is(err, shared.ErrEmptyQuery) ||
		errors.Is(err, shared.ErrDimensionMismatch) ||
		errors.Is(err, shared.ErrInvalidConfig) ||
		errors.Is(err, shared.ErrInvalidFrame)
}
