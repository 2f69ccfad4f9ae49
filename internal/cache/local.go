package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Local is an in-process cache used when no Redis address is configured.
// Values are stored encoded so callers never share decoded structures.
type Local struct {
	store      *gocache.Cache
	generation atomic.Int64
}

func NewLocal(ttl time.Duration) *Local {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Local{store: gocache.New(ttl, 2*ttl)}
}

func (l *Local) entryKey(gen Generation, key string) string {
	return strconv.FormatInt(int64(gen), 10) + ":" + key
}

func (l *Local) Get(ctx context.Context, key string, dst any) (Generation, bool, error) {
	gen := Generation(l.generation.Load())
	k := l.entryKey(gen, key)

	v, ok := l.store.Get(k)
	if !ok {
		return gen, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		l.store.Delete(k)
		return gen, false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, fmt.Errorf("decode cached entry: %w", err)
	}
	return gen, true, nil
}

func (l *Local) Set(ctx context.Context, gen Generation, key string, value any) error {
	if gen != Generation(l.generation.Load()) {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	l.store.SetDefault(l.entryKey(gen, key), data)
	return nil
}

// Invalidate moves to a new generation and drops the entries of older ones.
func (l *Local) Invalidate(ctx context.Context) error {
	l.generation.Add(1)
	l.store.Flush()
	return nil
}

func (l *Local) ItemCount() int {
	return l.store.ItemCount()
}
