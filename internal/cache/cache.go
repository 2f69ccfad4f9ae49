// Package cache memoises search results. Entries are never updated in place;
// any write to the frame corpus bumps a generation and orphans older keys.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Generation identifies the corpus version a lookup observed.
type Generation int64

type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found,
	// together with the generation the lookup ran against.
	Get(ctx context.Context, key string, dst any) (Generation, bool, error)
	// Set stores value under the generation returned by the matching Get. A
	// value computed before an Invalidate is never visible after it.
	Set(ctx context.Context, gen Generation, key string, value any) error
	Invalidate(ctx context.Context) error
}

type KeyBuilder struct {
	h   hash.Hash
	buf [8]byte
}

func NewKey(namespace string) *KeyBuilder {
	k := &KeyBuilder{h: sha256.New()}
	return k.String(namespace)
}

func (k *KeyBuilder) String(s string) *KeyBuilder {
	k.Int(len(s))
	k.h.Write([]byte(s))
	return k
}

func (k *KeyBuilder) Int(v int) *KeyBuilder {
	binary.LittleEndian.PutUint64(k.buf[:], uint64(v))
	k.h.Write(k.buf[:])
	return k
}

func (k *KeyBuilder) Float64(v float64) *KeyBuilder {
	binary.LittleEndian.PutUint64(k.buf[:], math.Float64bits(v))
	k.h.Write(k.buf[:])
	return k
}

func (k *KeyBuilder) Vector(v []float32) *KeyBuilder {
	k.Int(len(v))
	for _, x := range v {
		binary.LittleEndian.PutUint32(k.buf[:4], math.Float32bits(x))
		k.h.Write(k.buf[:4])
	}
	return k
}

func (k *KeyBuilder) Sum() string {
	return hex.EncodeToString(k.h.Sum(nil))
}

type Nop struct{}

func (Nop) Get(ctx context.Context, key string, dst any) (Generation, bool, error) {
	return 0, false, nil
}

func (Nop) Set(ctx context.Context, gen Generation, key string, value any) error {
	return nil
}

func (Nop) Invalidate(ctx context.Context) error {
	return nil
}
