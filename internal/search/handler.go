package search

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/video-search/internal/dto"
	"github.com/eleven-am/video-search/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/search", h.Search)
	g.GET("/videos", h.ListVideos)
	g.GET("/videos/:id", h.GetVideo)
	g.DELETE("/videos/:id", h.DeleteVideo)
	g.POST("/videos/:id/frames", h.IndexFrames)
	g.GET("/videos/:id/frames", h.ListFrames)
}

// @Summary      Search by clip
// @Description  Finds stored videos whose frames match the query frames at a consistent time offset
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SearchRequest  true  "Query frames and optional tuning"
// @Success      200      {object}  dto.SearchResponse
// @Failure      400      {object}  shared.APIError
// @Failure      503      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /search [post]
func (h *Handler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	mediaType, err := shared.ParseMediaType(req.MediaType)
	if err != nil {
		return shared.BadRequest("invalid_parameters", err.Error())
	}

	frames := make([]QueryFrame, len(req.Frames))
	for i, f := range req.Frames {
		frames[i] = QueryFrame{Timestamp: f.Timestamp, Vector: f.Vector}
	}

	results, err := h.engine.Search(c.Request().Context(), SearchRequest{
		Frames: frames,
		Overrides: Overrides{
			MinMatches:          req.MinMatches,
			SimilarityThreshold: req.SimilarityThreshold,
			PerFrameK:           req.PerFrameK,
			Limit:               req.Limit,
		},
		MediaType:      mediaType,
		ExcludeVideoID: req.ExcludeVideoID,
	})
	if err != nil {
		return h.toHTTPError(err, "search failed")
	}

	response := make([]dto.MatchResponse, len(results))
	for i, r := range results {
		response[i] = matchToResponse(r)
	}
	return c.JSON(http.StatusOK, dto.SearchResponse{
		Results: response,
		Count:   len(response),
	})
}

// @Summary      Index frames
// @Description  Stores and indexes frames of a video. Each frame succeeds or fails on its own.
// @Tags         videos
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Video ID"
// @Param        request  body      dto.IndexFramesRequest  true  "Frames to index"
// @Success      200      {object}  dto.IndexFramesResponse
// @Failure      400      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /videos/{id}/frames [post]
func (h *Handler) IndexFrames(c echo.Context) error {
	videoID := c.Param("id")

	var req dto.IndexFramesRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if len(req.Frames) == 0 {
		return shared.BadRequest("invalid_request", "at least one frame is required")
	}

	mediaType, err := shared.ParseMediaType(req.MediaType)
	if err != nil {
		return shared.BadRequest("invalid_parameters", err.Error())
	}

	frames := make([]FrameInput, len(req.Frames))
	for i, f := range req.Frames {
		frames[i] = FrameInput{
			FrameIndex: f.FrameIndex,
			Timestamp:  f.Timestamp,
			IsKeyframe: f.IsKeyframe,
			Vector:     f.Vector,
		}
	}

	report, err := h.engine.IndexFrames(c.Request().Context(), videoID, frames, IndexOptions{
		Overwrite: req.Overwrite,
		MediaType: mediaType,
	})
	if err != nil {
		return h.toHTTPError(err, "index frames failed")
	}

	failures := make([]dto.FrameFailureResponse, len(report.Failures))
	for i, f := range report.Failures {
		failures[i] = dto.FrameFailureResponse{
			FrameIndex: f.FrameIndex,
			Code:       shared.ErrorCode(f.Err),
			Message:    f.Err.Error(),
		}
	}

	return c.JSON(http.StatusOK, dto.IndexFramesResponse{
		VideoID:  report.VideoID,
		Indexed:  report.Indexed,
		Failures: failures,
	})
}

// @Summary      List frames
// @Description  Returns the frames of a video ordered by frame index
// @Tags         videos
// @Produce      json
// @Param        id       path      string  true   "Video ID"
// @Param        vectors  query     bool    false  "Include feature vectors"
// @Success      200      {object}  dto.FrameListResponse
// @Failure      500      {object}  shared.APIError
// @Router       /videos/{id}/frames [get]
func (h *Handler) ListFrames(c echo.Context) error {
	videoID := c.Param("id")
	withVectors, _ := strconv.ParseBool(c.QueryParam("vectors"))

	frames, err := h.engine.ListFrames(c.Request().Context(), videoID)
	if err != nil {
		return h.toHTTPError(err, "list frames failed")
	}

	response := make([]dto.FrameResponse, len(frames))
	for i, f := range frames {
		response[i] = dto.FrameResponse{
			FrameIndex: f.FrameIndex,
			Timestamp:  f.Timestamp,
			IsKeyframe: f.IsKeyframe,
			MediaType:  string(f.MediaType),
		}
		if withVectors {
			response[i].Vector = f.Values()
		}
	}

	return c.JSON(http.StatusOK, dto.FrameListResponse{
		VideoID: videoID,
		Frames:  response,
	})
}

// @Summary      List videos
// @Description  Returns indexed videos with frame counts, newest first
// @Tags         videos
// @Produce      json
// @Param        limit   query     int  false  "Number of results (default 20, max 100)"
// @Param        offset  query     int  false  "Offset for pagination"
// @Success      200     {object}  dto.VideoListResponse
// @Failure      500     {object}  shared.APIError
// @Router       /videos [get]
func (h *Handler) ListVideos(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	offsetStr := c.QueryParam("offset")

	limit := 20
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	offset := 0
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	videos, err := h.engine.ListVideos(c.Request().Context(), limit, offset)
	if err != nil {
		return h.toHTTPError(err, "list videos failed")
	}

	response := make([]dto.VideoResponse, len(videos))
	for i, v := range videos {
		response[i] = dto.VideoResponse{
			ID:         v.ID,
			MediaType:  string(v.MediaType),
			FrameCount: v.FrameCount,
			Duration:   v.Duration,
			CreatedAt:  v.CreatedAt,
		}
	}

	return c.JSON(http.StatusOK, dto.VideoListResponse{
		Videos: response,
		Limit:  limit,
		Offset: offset,
	})
}

// @Summary      Get a video
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID"
// @Success      200  {object}  dto.VideoResponse
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /videos/{id} [get]
func (h *Handler) GetVideo(c echo.Context) error {
	v, err := h.engine.GetVideo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.toHTTPError(err, "get video failed")
	}

	return c.JSON(http.StatusOK, dto.VideoResponse{
		ID:         v.ID,
		MediaType:  string(v.MediaType),
		FrameCount: v.FrameCount,
		Duration:   v.Duration,
		CreatedAt:  v.CreatedAt,
	})
}

// @Summary      Delete a video
// @Description  Removes a video, its frames and their vectors. Unknown videos are ignored.
// @Tags         videos
// @Param        id   path  string  true  "Video ID"
// @Success      204
// @Failure      503  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /videos/{id} [delete]
func (h *Handler) DeleteVideo(c echo.Context) error {
	if err := h.engine.DeleteVideo(c.Request().Context(), c.Param("id")); err != nil {
		return h.toHTTPError(err, "delete video failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) toHTTPError(err error, msg string) error {
	code := shared.ErrorCode(err)
	switch {
	case IsClientError(err):
		return shared.BadRequest(code, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound(code, err.Error())
	case errors.Is(err, shared.ErrIndexUnavailable):
		h.logger.Error(msg, "error", err)
		return shared.ServiceUnavailable(code, "vector index unavailable")
	default:
		h.logger.Error(msg, "error", err)
		return shared.InternalError(code, msg)
	}
}

func matchToResponse(r VideoMatchResult) dto.MatchResponse {
	pairs := make([]dto.MatchPair, len(r.Pairs))
	for i, p := range r.Pairs {
		pairs[i] = dto.MatchPair{
			QueryTimestamp:     p.QueryTimestamp,
			CandidateTimestamp: p.CandidateTimestamp,
		}
	}
	return dto.MatchResponse{
		VideoID:    r.VideoID,
		MatchCount: r.MatchCount,
		Confidence: r.Confidence,
		Offset:     r.Offset,
		Pairs:      pairs,
	}
}
