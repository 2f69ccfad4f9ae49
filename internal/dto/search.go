package dto

import "time"

type FrameRequest struct {
	FrameIndex int       `json:"frame_index" example:"0"`
	Timestamp  float64   `json:"timestamp" example:"1.5"`
	IsKeyframe bool      `json:"is_keyframe" example:"true"`
	Vector     []float32 `json:"vector"`
}

type IndexFramesRequest struct {
	MediaType string         `json:"media_type,omitempty" example:"video" enums:"video,image"`
	Overwrite bool           `json:"overwrite"`
	Frames    []FrameRequest `json:"frames"`
}

type FrameFailureResponse struct {
	FrameIndex int    `json:"frame_index" example:"3"`
	Code       string `json:"code" example:"dimension_mismatch"`
	Message    string `json:"message"`
}

type IndexFramesResponse struct {
	VideoID  string                 `json:"video_id" example:"clip-42"`
	Indexed  []int                  `json:"indexed"`
	Failures []FrameFailureResponse `json:"failures"`
}

type FrameResponse struct {
	FrameIndex int       `json:"frame_index"`
	Timestamp  float64   `json:"timestamp"`
	IsKeyframe bool      `json:"is_keyframe"`
	MediaType  string    `json:"media_type"`
	Vector     []float32 `json:"vector,omitempty"`
}

type FrameListResponse struct {
	VideoID string          `json:"video_id"`
	Frames  []FrameResponse `json:"frames"`
}

type VideoResponse struct {
	ID         string    `json:"id" example:"clip-42"`
	MediaType  string    `json:"media_type" example:"video"`
	FrameCount int64     `json:"frame_count" example:"120"`
	Duration   float64   `json:"duration" example:"59.5"`
	CreatedAt  time.Time `json:"created_at"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type QueryFrameRequest struct {
	Timestamp float64   `json:"timestamp" example:"0.5"`
	Vector    []float32 `json:"vector"`
}

type SearchRequest struct {
	Frames              []QueryFrameRequest `json:"frames"`
	MinMatches          *int                `json:"min_matches,omitempty" example:"3"`
	SimilarityThreshold *float64            `json:"similarity_threshold,omitempty" example:"0.8"`
	PerFrameK           *int                `json:"per_frame_k,omitempty" example:"10"`
	Limit               *int                `json:"limit,omitempty" example:"20"`
	MediaType           string              `json:"media_type,omitempty" example:"video"`
	ExcludeVideoID      string              `json:"exclude_video_id,omitempty"`
}

type MatchPair struct {
	QueryTimestamp     float64 `json:"query_timestamp"`
	CandidateTimestamp float64 `json:"candidate_timestamp"`
}

type MatchResponse struct {
	VideoID    string      `json:"video_id" example:"clip-42"`
	MatchCount int         `json:"match_count" example:"6"`
	Confidence float64     `json:"confidence" example:"0.69"`
	Offset     float64     `json:"offset" example:"2.0"`
	Pairs      []MatchPair `json:"pairs"`
}

type SearchResponse struct {
	Results []MatchResponse `json:"results"`
	Count   int             `json:"count"`
}
