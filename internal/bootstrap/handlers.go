package bootstrap

import (
	"log/slog"
	"os"
	"time"

	_ "github.com/eleven-am/video-search/docs"
	"github.com/eleven-am/video-search/internal/search"
	"github.com/labstack/echo/v4"
	"github.com/lmittmann/tint"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type HandlerParams struct {
	fx.In

	SearchHandler *search.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")
	params.SearchHandler.RegisterRoutes(api)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandlerV3())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func ProvideSearchHandler(engine *search.Engine, logger *slog.Logger) *search.Handler {
	return search.NewHandler(engine, logger.With("handler", "search"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideSearchHandler,
	),
	fx.Invoke(RegisterRoutes),
)
