package index

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/eleven-am/video-search/internal/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// pgvector rejects hnsw.ef_search above this value.
const pgvectorMaxEfSearch = 1000

type PgvectorConfig struct {
	Dimension int
	HNSW      HNSWParams
}

// Pgvector stores vectors in a Postgres table with one HNSW partial index per
// media type, so filtered queries can use the matching index.
type Pgvector struct {
	pool *pgxpool.Pool
	cfg  PgvectorConfig
}

func NewPgvector(ctx context.Context, pool *pgxpool.Pool, cfg PgvectorConfig) (*Pgvector, error) {
	if pool == nil {
		return nil, errors.New("postgres pool not configured")
	}
	cfg.HNSW = cfg.HNSW.withDefaults()

	p := &Pgvector{pool: pool, cfg: cfg}
	if err := p.initSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pgvector) Name() string {
	return BackendPgvector
}

func (p *Pgvector) Dimension() int {
	return p.cfg.Dimension
}

func (p *Pgvector) initSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return classifyPg(fmt.Errorf("create vector extension: %w", err))
	}

	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS frame_vectors (
			seq BIGSERIAL PRIMARY KEY,
			video_id TEXT NOT NULL,
			frame_index INTEGER NOT NULL,
			ts DOUBLE PRECISION NOT NULL,
			media_type TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			UNIQUE (video_id, frame_index)
		);
		CREATE INDEX IF NOT EXISTS idx_frame_vectors_video_id ON frame_vectors (video_id);
	`, p.cfg.Dimension))
	if err != nil {
		return classifyPg(fmt.Errorf("create frame_vectors: %w", err))
	}

	for _, mt := range []shared.MediaType{shared.MediaTypeVideo, shared.MediaTypeImage} {
		_, err := p.pool.Exec(ctx, fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS idx_frame_vectors_hnsw_%[1]s ON frame_vectors
			USING hnsw (embedding vector_l2_ops) WITH (m = %[2]d, ef_construction = %[3]d)
			WHERE media_type = '%[1]s'`,
			mt, p.cfg.HNSW.M, p.cfg.HNSW.EfConstruction))
		if err != nil {
			return classifyPg(fmt.Errorf("create hnsw index: %w", err))
		}
	}
	return nil
}

func (p *Pgvector) Insert(ctx context.Context, e Entry) error {
	if err := validateEntry(p.cfg.Dimension, e); err != nil {
		return err
	}
	if e.MediaType == "" {
		e.MediaType = shared.MediaTypeVideo
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO frame_vectors (video_id, frame_index, ts, media_type, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, frame_index) DO UPDATE
		SET ts = EXCLUDED.ts, media_type = EXCLUDED.media_type, embedding = EXCLUDED.embedding,
			seq = nextval(pg_get_serial_sequence('frame_vectors', 'seq'))`,
		e.VideoID, e.FrameIndex, e.Timestamp, string(e.MediaType), pgvector.NewVector(e.Vector))
	if err != nil {
		return classifyPg(fmt.Errorf("insert vector: %w", err))
	}
	return nil
}

func (p *Pgvector) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if err := checkDimension(p.cfg.Dimension, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	if filter.MediaType != "" && !filter.MediaType.Valid() {
		return nil, fmt.Errorf("%w: unknown media type %q", shared.ErrInvalidConfig, filter.MediaType)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, classifyPg(fmt.Errorf("begin query: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", min(p.cfg.HNSW.ef(k), pgvectorMaxEfSearch))); err != nil {
		return nil, classifyPg(fmt.Errorf("set ef_search: %w", err))
	}

	rows, err := tx.Query(ctx, querySQL(filter), pgvector.NewVector(vector), k)
	if err != nil {
		return nil, classifyPg(fmt.Errorf("query vectors: %w", err))
	}
	defer rows.Close()

	hits := make([]Hit, 0, min(k, pgvectorMaxEfSearch))
	for rows.Next() {
		var h Hit
		var seq int64
		if err := rows.Scan(&h.VideoID, &h.FrameIndex, &h.Timestamp, &seq, &h.Distance); err != nil {
			return nil, fmt.Errorf("scan vector hit: %w", err)
		}
		h.seq = uint64(seq)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPg(err)
	}

	sortHits(hits)
	return hits, nil
}

func (p *Pgvector) DeleteVideo(ctx context.Context, videoID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM frame_vectors WHERE video_id = $1`, videoID); err != nil {
		return classifyPg(fmt.Errorf("delete vectors: %w", err))
	}
	return nil
}

func (p *Pgvector) Len(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM frame_vectors`).Scan(&count); err != nil {
		return 0, classifyPg(err)
	}
	return count, nil
}

func (p *Pgvector) Ping(ctx context.Context) error {
	return classifyPg(p.pool.Ping(ctx))
}

func (p *Pgvector) Close() error {
	p.pool.Close()
	return nil
}

// querySQL inlines the media type so the planner can pick the matching
// partial HNSW index. Callers validate the filter first.
func querySQL(filter Filter) string {
	sql := `SELECT video_id, frame_index, ts, seq, embedding <-> $1 AS distance FROM frame_vectors`
	if filter.MediaType != "" {
		sql += fmt.Sprintf(` WHERE media_type = '%s'`, filter.MediaType)
	}
	return sql + ` ORDER BY embedding <-> $1 LIMIT $2`
}

func classifyPg(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return &shared.IndexUnavailableError{Backend: BackendPgvector, Err: err}
	}
	return err
}
