package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/eleven-am/video-search/internal/index"
)

func TestNewVectorIndex_Memory(t *testing.T) {
	cfg := &Config{IndexBackend: index.BackendMemory, VectorDimension: 8, IndexExactThreshold: 10}

	idx, err := NewVectorIndex(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewVectorIndex failed: %v", err)
	}
	defer idx.Close()

	if idx.Name() != index.BackendMemory {
		t.Errorf("expected backend %q, got %q", index.BackendMemory, idx.Name())
	}
	if idx.Dimension() != 8 {
		t.Errorf("expected dimension 8, got %d", idx.Dimension())
	}
}

func TestNewVectorIndex_UnsupportedBackend(t *testing.T) {
	cfg := &Config{IndexBackend: "faiss", VectorDimension: 8}

	idx, err := NewVectorIndex(context.Background(), cfg)
	if err == nil {
		idx.Close()
		t.Fatal("expected error for unsupported backend")
	}
	if !strings.Contains(err.Error(), "faiss") {
		t.Errorf("expected backend name in error, got %v", err)
	}
}

func TestProvideDatabase_UnsupportedDriver(t *testing.T) {
	_, err := ProvideDatabase(&Config{DatabaseDriver: "mysql"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
