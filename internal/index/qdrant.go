package index

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/eleven-am/video-search/internal/shared"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var pointNamespace = uuid.MustParse("6f1c2a52-3b0e-4d5c-9a55-1f0e8c7b2d41")

type QdrantConfig struct {
	Collection string
	Dimension  int
	HNSW       HNSWParams
}

type Qdrant struct {
	client *qdrant.Client
	cfg    QdrantConfig
	seq    atomic.Uint64
}

func NewQdrant(ctx context.Context, client *qdrant.Client, cfg QdrantConfig) (*Qdrant, error) {
	if client == nil {
		return nil, errors.New("qdrant client not configured")
	}
	if cfg.Collection == "" {
		cfg.Collection = "frames"
	}
	cfg.HNSW = cfg.HNSW.withDefaults()

	q := &Qdrant{client: client, cfg: cfg}
	if err := q.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Qdrant) Name() string {
	return BackendQdrant
}

func (q *Qdrant) Dimension() int {
	return q.cfg.Dimension
}

func (q *Qdrant) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.Collection)
	if err != nil {
		return classifyQdrant(err)
	}

	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.Collection)
		if err != nil {
			return classifyQdrant(err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && int(size) != q.cfg.Dimension {
			return &shared.DimensionMismatchError{Expected: q.cfg.Dimension, Got: int(size)}
		}
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.cfg.Dimension),
			Distance: qdrant.Distance_Euclid,
		}),
		HnswConfig: &qdrant.HnswConfigDiff{
			M:           qdrant.PtrOf(uint64(q.cfg.HNSW.M)),
			EfConstruct: qdrant.PtrOf(uint64(q.cfg.HNSW.EfConstruction)),
		},
	})
	if err != nil {
		return classifyQdrant(err)
	}

	for _, field := range []string{"media_type", "video_id"} {
		_, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: q.cfg.Collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return classifyQdrant(err)
		}
	}
	return nil
}

func (q *Qdrant) Insert(ctx context.Context, e Entry) error {
	if err := validateEntry(q.cfg.Dimension, e); err != nil {
		return err
	}
	if e.MediaType == "" {
		e.MediaType = shared.MediaTypeVideo
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(pointID(e.VideoID, e.FrameIndex)),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"video_id":    e.VideoID,
					"frame_index": int64(e.FrameIndex),
					"timestamp":   e.Timestamp,
					"media_type":  string(e.MediaType),
					"seq":         int64(q.nextSeq()),
				}),
			},
		},
	})
	return classifyQdrant(err)
}

func (q *Qdrant) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if err := checkDimension(q.cfg.Dimension, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	req := &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Params: &qdrant.SearchParams{
			HnswEf: qdrant.PtrOf(uint64(q.cfg.HNSW.ef(k))),
		},
	}
	if filter.MediaType != "" {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("media_type", string(filter.MediaType))},
		}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, classifyQdrant(err)
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		hits = append(hits, Hit{
			VideoID:    payload["video_id"].GetStringValue(),
			FrameIndex: int(payload["frame_index"].GetIntegerValue()),
			Timestamp:  payload["timestamp"].GetDoubleValue(),
			Distance:   float64(p.GetScore()),
			seq:        uint64(payload["seq"].GetIntegerValue()),
		})
	}
	sortHits(hits)
	return hits, nil
}

func (q *Qdrant) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("video_id", videoID)},
		}),
	})
	return classifyQdrant(err)
}

func (q *Qdrant) Len(ctx context.Context) (int, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.cfg.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classifyQdrant(err)
	}
	return int(count), nil
}

func (q *Qdrant) Ping(ctx context.Context) error {
	_, err := q.client.HealthCheck(ctx)
	return classifyQdrant(err)
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

// nextSeq yields a strictly increasing sequence that survives restarts.
func (q *Qdrant) nextSeq() uint64 {
	for {
		last := q.seq.Load()
		next := uint64(time.Now().UnixNano())
		if next <= last {
			next = last + 1
		}
		if q.seq.CompareAndSwap(last, next) {
			return next
		}
	}
}

func pointID(videoID string, frameIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s/%d", videoID, frameIndex))).String()
}

func classifyQdrant(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unauthenticated:
		return &shared.IndexUnavailableError{Backend: BackendQdrant, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &shared.IndexUnavailableError{Backend: BackendQdrant, Err: err}
	}
	return fmt.Errorf("qdrant: %w", err)
}
