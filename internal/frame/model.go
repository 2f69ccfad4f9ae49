package frame

import (
	"time"

	"github.com/eleven-am/video-search/internal/shared"
	"github.com/pgvector/pgvector-go"
)

type Video struct {
	ID        string           `gorm:"primaryKey" json:"id"`
	MediaType shared.MediaType `gorm:"not null" json:"media_type"`
	Frames    []Frame          `gorm:"foreignKey:VideoID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Frame is one sampled instant of a video with its feature vector. Within a
// video, ordering by FrameIndex and ordering by Timestamp agree.
type Frame struct {
	ID         uint             `gorm:"primaryKey" json:"-"`
	VideoID    string           `gorm:"not null;uniqueIndex:idx_video_frame" json:"video_id"`
	FrameIndex int              `gorm:"not null;uniqueIndex:idx_video_frame" json:"frame_index"`
	Timestamp  float64          `gorm:"not null" json:"timestamp"`
	IsKeyframe bool             `gorm:"not null;default:false" json:"is_keyframe"`
	MediaType  shared.MediaType `gorm:"not null;index" json:"media_type"`
	Vector     pgvector.Vector  `gorm:"type:vector" json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewFrame(videoID string, frameIndex int, timestamp float64, isKeyframe bool, vector []float32) *Frame {
	return &Frame{
		VideoID:    videoID,
		FrameIndex: frameIndex,
		Timestamp:  timestamp,
		IsKeyframe: isKeyframe,
		MediaType:  shared.MediaTypeVideo,
		Vector:     pgvector.NewVector(shared.CloneVector(vector)),
	}
}

func (f *Frame) Values() []float32 {
	return f.Vector.Slice()
}

func (f *Frame) Dimension() int {
	return len(f.Vector.Slice())
}

type VideoSummary struct {
	ID         string           `json:"id"`
	MediaType  shared.MediaType `json:"media_type"`
	FrameCount int64            `json:"frame_count"`
	Duration   float64          `json:"duration"`
	CreatedAt  time.Time        `json:"created_at"`
}
