package frame

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/eleven-am/video-search/internal/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PutOptions struct {
	Overwrite bool
	// MaxFrames rejects new frames once the video holds this many. Zero
	// disables the limit.
	MaxFrames int
	// OnWrite runs inside the frame's transaction; an error rolls the frame back.
	OnWrite func(ctx context.Context, f *Frame) error
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	if s.db.Dialector.Name() == "postgres" {
		if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("create vector extension: %w", err)
		}
	}
	return s.db.AutoMigrate(&Video{}, &Frame{})
}

func (s *Store) Put(ctx context.Context, f *Frame, opts PutOptions) error {
	if err := validateFrame(f); err != nil {
		return err
	}
	if f.MediaType == "" {
		f.MediaType = shared.MediaTypeVideo
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		video := &Video{ID: f.VideoID, MediaType: f.MediaType}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(video).Error; err != nil {
			return fmt.Errorf("ensure video: %w", err)
		}
		if err := lockVideo(tx, f.VideoID); err != nil {
			return err
		}

		var existing []Frame
		err := tx.Where("video_id = ? AND frame_index = ?", f.VideoID, f.FrameIndex).
			Limit(1).Find(&existing).Error
		if err != nil {
			return fmt.Errorf("lookup frame: %w", err)
		}
		if len(existing) > 0 && !opts.Overwrite {
			return &shared.DuplicateFrameError{VideoID: f.VideoID, FrameIndex: f.FrameIndex}
		}

		if len(existing) == 0 && opts.MaxFrames > 0 {
			var count int64
			if err := tx.Model(&Frame{}).Where("video_id = ?", f.VideoID).Count(&count).Error; err != nil {
				return fmt.Errorf("count frames: %w", err)
			}
			if count >= int64(opts.MaxFrames) {
				return &shared.InvalidFrameError{
					VideoID:    f.VideoID,
					FrameIndex: f.FrameIndex,
					Reason:     fmt.Sprintf("video already holds the maximum of %d frames", opts.MaxFrames),
				}
			}
		}

		if err := checkOrdering(tx, f); err != nil {
			return err
		}

		if len(existing) > 0 {
			f.ID = existing[0].ID
			f.CreatedAt = existing[0].CreatedAt
			if err := tx.Save(f).Error; err != nil {
				return fmt.Errorf("replace frame: %w", err)
			}
		} else if err := tx.Create(f).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &shared.DuplicateFrameError{VideoID: f.VideoID, FrameIndex: f.FrameIndex}
			}
			return fmt.Errorf("insert frame: %w", err)
		}

		if opts.OnWrite != nil {
			return opts.OnWrite(ctx, f)
		}
		return nil
	})
}

func (s *Store) ListFrames(ctx context.Context, videoID string) ([]*Frame, error) {
	frames := []*Frame{}
	err := s.db.WithContext(ctx).Where("video_id = ?", videoID).
		Order("frame_index ASC").Find(&frames).Error
	return frames, err
}

// EachFrame streams every stored frame in primary key order, batchSize at a time.
func (s *Store) EachFrame(ctx context.Context, batchSize int, fn func([]*Frame) error) error {
	var batch []*Frame
	return s.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func (s *Store) CountFrames(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Frame{}).Count(&count).Error
	return count, err
}

func (s *Store) GetVideo(ctx context.Context, videoID string) (*VideoSummary, error) {
	var out []VideoSummary
	err := s.summaryQuery(ctx).Where("videos.id = ?", videoID).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, shared.ErrNotFound
	}
	return &out[0], nil
}

func (s *Store) ListVideos(ctx context.Context, limit, offset int) ([]VideoSummary, error) {
	out := []VideoSummary{}
	err := s.summaryQuery(ctx).
		Order("videos.created_at DESC, videos.id ASC").
		Limit(limit).Offset(offset).
		Scan(&out).Error
	return out, err
}

// DeleteVideo removes the video and all of its frames. Deleting an unknown
// video is not an error.
func (s *Store) DeleteVideo(ctx context.Context, videoID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&Frame{}).Error; err != nil {
			return fmt.Errorf("delete frames: %w", err)
		}
		if err := tx.Where("id = ?", videoID).Delete(&Video{}).Error; err != nil {
			return fmt.Errorf("delete video: %w", err)
		}
		return nil
	})
}

func (s *Store) summaryQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Video{}).
		Select("videos.id, videos.media_type, videos.created_at, " +
			"COUNT(frames.id) AS frame_count, COALESCE(MAX(frames.timestamp), 0) AS duration").
		Joins("LEFT JOIN frames ON frames.video_id = videos.id").
		Group("videos.id, videos.media_type, videos.created_at")
}

// lockVideo serialises writers of one video so the ordering and frame budget
// checks see every committed neighbour. SQLite already serialises writers at
// the first write of the transaction.
func lockVideo(tx *gorm.DB, videoID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	var v Video
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id = ?", videoID).Take(&v).Error
	if err != nil {
		return fmt.Errorf("lock video: %w", err)
	}
	return nil
}

func validateFrame(f *Frame) error {
	invalid := func(reason string) error {
		return &shared.InvalidFrameError{VideoID: f.VideoID, FrameIndex: f.FrameIndex, Reason: reason}
	}
	switch {
	case f.VideoID == "":
		return invalid("video id is required")
	case f.FrameIndex < 0:
		return invalid("frame index must not be negative")
	case math.IsNaN(f.Timestamp) || math.IsInf(f.Timestamp, 0) || f.Timestamp < 0:
		return invalid("timestamp must be a finite non-negative number")
	case f.Dimension() == 0:
		return invalid("vector is empty")
	case !shared.ValidVector(f.Values()):
		return invalid("vector contains NaN or Inf")
	}
	return nil
}

func checkOrdering(tx *gorm.DB, f *Frame) error {
	var prev, next []Frame
	if err := tx.Where("video_id = ? AND frame_index < ?", f.VideoID, f.FrameIndex).
		Order("frame_index DESC").Limit(1).Find(&prev).Error; err != nil {
		return fmt.Errorf("lookup previous frame: %w", err)
	}
	if len(prev) > 0 && prev[0].Timestamp >= f.Timestamp {
		return &shared.InvalidFrameError{
			VideoID:    f.VideoID,
			FrameIndex: f.FrameIndex,
			Reason:     fmt.Sprintf("timestamp %.3f not after frame %d at %.3f", f.Timestamp, prev[0].FrameIndex, prev[0].Timestamp),
		}
	}

	if err := tx.Where("video_id = ? AND frame_index > ?", f.VideoID, f.FrameIndex).
		Order("frame_index ASC").Limit(1).Find(&next).Error; err != nil {
		return fmt.Errorf("lookup next frame: %w", err)
	}
	if len(next) > 0 && next[0].Timestamp <= f.Timestamp {
		return &shared.InvalidFrameError{
			VideoID:    f.VideoID,
			FrameIndex: f.FrameIndex,
			Reason:     fmt.Sprintf("timestamp %.3f not before frame %d at %.3f", f.Timestamp, next[0].FrameIndex, next[0].Timestamp),
		}
	}
	return nil
}
