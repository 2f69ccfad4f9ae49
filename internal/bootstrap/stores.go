package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/video-search/internal/cache"
	"github.com/eleven-am/video-search/internal/frame"
	"github.com/eleven-am/video-search/internal/index"
	"github.com/eleven-am/video-search/internal/search"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideFrameStore(db *gorm.DB) *frame.Store {
	return frame.NewStore(db)
}

func ProvideEngine(store *frame.Store, idx index.VectorIndex, c cache.Cache, cfg *Config, logger *slog.Logger) (*search.Engine, error) {
	return search.NewEngine(store, idx, c, cfg.Search, logger.With("component", "engine"))
}

func RunMigrations(store *frame.Store) error {
	return store.Migrate()
}

// WarmIndex reloads stored frames into an in-process index, which starts
// empty on every boot. External backends keep their own state.
func WarmIndex(lc fx.Lifecycle, engine *search.Engine, logger *slog.Logger) {
	if engine.Index().Name() != index.BackendMemory {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			loaded, err := engine.Rebuild(ctx)
			if err != nil {
				return err
			}
			logger.Info("memory index warmed", "frames", loaded)
			return nil
		},
	})
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideFrameStore,
		ProvideEngine,
	),
	fx.Invoke(RunMigrations),
	fx.Invoke(WarmIndex),
)
