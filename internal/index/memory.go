package index

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/eleven-am/video-search/internal/shared"
)

type MemoryConfig struct {
	Dimension int
	HNSW      HNSWParams
	// ExactThreshold switches a partition to a linear scan while it holds at
	// most this many live vectors.
	ExactThreshold int
	Seed           int64
}

// Memory is an in-process HNSW index with one graph per media type. Each
// insert is applied under the partition's write lock, so readers observe a
// vector either fully linked or not at all.
type Memory struct {
	cfg        MemoryConfig
	seq        atomic.Uint64
	mu         sync.RWMutex
	partitions map[shared.MediaType]*partition
}

type partition struct {
	mu     sync.RWMutex
	graph  *graph
	videos map[string]map[int]int32
	seed   int64
}

func NewMemory(cfg MemoryConfig) *Memory {
	cfg.HNSW = cfg.HNSW.withDefaults()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &Memory{
		cfg:        cfg,
		partitions: make(map[shared.MediaType]*partition),
	}
}

func (m *Memory) Name() string {
	return BackendMemory
}

func (m *Memory) Dimension() int {
	return m.cfg.Dimension
}

func (m *Memory) Insert(ctx context.Context, e Entry) error {
	if err := validateEntry(m.cfg.Dimension, e); err != nil {
		return err
	}
	if e.MediaType == "" {
		e.MediaType = shared.MediaTypeVideo
	}

	for mt, p := range m.snapshot() {
		if mt != e.MediaType {
			p.removeFrame(e.VideoID, e.FrameIndex)
		}
	}

	n := &node{
		videoID:    e.VideoID,
		frameIndex: e.FrameIndex,
		timestamp:  e.Timestamp,
		vec:        shared.CloneVector(e.Vector),
		seq:        m.seq.Add(1),
	}
	m.partition(e.MediaType).insert(n)
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Hit, error) {
	if err := checkDimension(m.cfg.Dimension, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	var parts []*partition
	if filter.MediaType != "" {
		m.mu.RLock()
		if p, ok := m.partitions[filter.MediaType]; ok {
			parts = append(parts, p)
		}
		m.mu.RUnlock()
	} else {
		for _, p := range m.snapshot() {
			parts = append(parts, p)
		}
	}

	hits := []Hit{}
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits = append(hits, p.query(vector, k, m.cfg.ExactThreshold)...)
	}
	sortHits(hits)
	return truncate(hits, k), nil
}

func (m *Memory) DeleteVideo(ctx context.Context, videoID string) error {
	for _, p := range m.snapshot() {
		p.removeVideo(videoID)
	}
	return nil
}

func (m *Memory) Len(ctx context.Context) (int, error) {
	total := 0
	for _, p := range m.snapshot() {
		p.mu.RLock()
		total += p.graph.live
		p.mu.RUnlock()
	}
	return total, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) snapshot() map[shared.MediaType]*partition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[shared.MediaType]*partition, len(m.partitions))
	for k, v := range m.partitions {
		out[k] = v
	}
	return out
}

func (m *Memory) partition(mt shared.MediaType) *partition {
	m.mu.RLock()
	p, ok := m.partitions[mt]
	m.mu.RUnlock()
	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.partitions[mt]; ok {
		return p
	}
	seed := m.cfg.Seed + int64(len(m.partitions))
	p = &partition{
		graph:  newGraph(m.cfg.HNSW, seed),
		videos: make(map[string]map[int]int32),
		seed:   seed,
	}
	m.partitions[mt] = p
	return p
}

func (p *partition) insert(n *node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames, ok := p.videos[n.videoID]
	if !ok {
		frames = make(map[int]int32)
		p.videos[n.videoID] = frames
	}
	if old, ok := frames[n.frameIndex]; ok {
		p.graph.remove(old)
	}
	frames[n.frameIndex] = p.graph.insert(n)
	p.compactLocked()
}

func (p *partition) query(q []float32, k, exactThreshold int) []Hit {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var found []candidate
	if p.graph.live <= exactThreshold {
		found = p.graph.exact(q, k)
	} else {
		found = p.graph.search(q, k)
	}

	hits := make([]Hit, len(found))
	for i, c := range found {
		n := p.graph.nodes[c.id]
		hits[i] = Hit{
			VideoID:    n.videoID,
			FrameIndex: n.frameIndex,
			Timestamp:  n.timestamp,
			Distance:   math.Sqrt(c.dist),
			seq:        n.seq,
		}
	}
	return hits
}

func (p *partition) removeFrame(videoID string, frameIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames, ok := p.videos[videoID]
	if !ok {
		return
	}
	if id, ok := frames[frameIndex]; ok {
		p.graph.remove(id)
		delete(frames, frameIndex)
	}
	if len(frames) == 0 {
		delete(p.videos, videoID)
	}
	p.compactLocked()
}

func (p *partition) removeVideo(videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames, ok := p.videos[videoID]
	if !ok {
		return
	}
	for _, id := range frames {
		p.graph.remove(id)
	}
	delete(p.videos, videoID)
	p.compactLocked()
}

// compactLocked rebuilds the graph from live nodes once tombstones dominate.
func (p *partition) compactLocked() {
	if !p.graph.needsRebuild() {
		return
	}

	old := p.graph
	p.graph = newGraph(old.params, p.seed)
	p.videos = make(map[string]map[int]int32, len(p.videos))
	for _, n := range old.nodes {
		if n.deleted {
			continue
		}
		fresh := &node{
			videoID:    n.videoID,
			frameIndex: n.frameIndex,
			timestamp:  n.timestamp,
			vec:        n.vec,
			seq:        n.seq,
		}
		frames, ok := p.videos[n.videoID]
		if !ok {
			frames = make(map[int]int32)
			p.videos[n.videoID] = frames
		}
		frames[n.frameIndex] = p.graph.insert(fresh)
	}
}
