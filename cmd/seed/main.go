package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/eleven-am/video-search/internal/bootstrap"
	"github.com/eleven-am/video-search/internal/cache"
	"github.com/eleven-am/video-search/internal/frame"
	"github.com/eleven-am/video-search/internal/index"
	"github.com/eleven-am/video-search/internal/search"
	"github.com/eleven-am/video-search/internal/shared"
)

// seed fills the frame store and the configured vector index with synthetic
// videos so a fresh deployment has something to search against. Vectors are
// random and frames are spaced one second apart.
func main() {
	cfg := bootstrap.LoadConfig()
	videos := getEnvInt("SEED_VIDEOS", 20)
	frames := getEnvInt("SEED_FRAMES", 60)
	if cfg.Search.MaxFramesPerVideo > 0 {
		frames = min(frames, cfg.Search.MaxFramesPerVideo)
	}

	db, err := bootstrap.ProvideDatabase(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	store := frame.NewStore(db)
	if err := store.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	idx, err := bootstrap.NewVectorIndex(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s index: %v\n", cfg.IndexBackend, err)
		os.Exit(1)
	}
	defer idx.Close()

	logger := bootstrap.ProvideLogger(cfg)
	engine, err := search.NewEngine(store, idx, cache.Nop{}, cfg.Search, logger.With("component", "seed"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create engine: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(1))
	batch := make([]search.VideoFrames, videos)
	for v := range batch {
		inputs := make([]search.FrameInput, frames)
		for i := range inputs {
			vec := make([]float32, cfg.VectorDimension)
			for j := range vec {
				vec[j] = rng.Float32()
			}
			inputs[i] = search.FrameInput{
				FrameIndex: i,
				Timestamp:  float64(i),
				IsKeyframe: i%10 == 0,
				Vector:     vec,
			}
		}
		batch[v] = search.VideoFrames{VideoID: fmt.Sprintf("seed-video-%03d", v), Frames: inputs}
	}

	reports, err := engine.IndexVideos(ctx, batch, search.IndexOptions{
		Overwrite: true,
		MediaType: shared.MediaTypeVideo,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to index videos: %v\n", err)
		os.Exit(1)
	}

	total := 0
	for _, r := range reports {
		for _, f := range r.Failures {
			fmt.Fprintf(os.Stderr, "  %s frame %d: %v\n", r.VideoID, f.FrameIndex, f.Err)
		}
		total += len(r.Indexed)
	}

	fmt.Println("Seed data created successfully!")
	fmt.Println("")
	fmt.Printf("Videos: %d\n", videos)
	fmt.Printf("Frames: %d\n", total)
	fmt.Printf("Index: %s (dimension %d)\n", idx.Name(), idx.Dimension())
	if idx.Name() == index.BackendMemory {
		fmt.Println("The server rebuilds its in-memory index from the database on start.")
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
