package rest

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/infrastructure/config"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
	"gifticon-wallet/internal/presentation/rest/handler"
	restmiddleware "gifticon-wallet/internal/presentation/rest/middleware"
	"gifticon-wallet/internal/presentation/websocket"
)

// Router REST APIルーター
type Router struct {
	echo          *echo.Echo
	screenHandler *handler.ScreenHandler
	healthHandler *handler.HealthHandler
	eventsHandler *websocket.Handler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	registry *screen.Registry,
	healthHandler *handler.HealthHandler,
	eventsHandler *websocket.Handler,
) *Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	setupMiddleware(e, cfg, logger, metrics)

	screenHandler := handler.NewScreenHandler(registry)
	setupRoutes(e, cfg, logger, screenHandler, healthHandler, eventsHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:          e,
		screenHandler: screenHandler,
		healthHandler: healthHandler,
		eventsHandler: eventsHandler,
	}
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Presentation.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			restmiddleware.APIKeyHeader,
		},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスはエラーハンドラーが決めたステータスで記録する
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	screenHandler *handler.ScreenHandler,
	healthHandler *handler.HealthHandler,
	eventsHandler *websocket.Handler,
) {
	api := e.Group("/api/v1", restmiddleware.APIKeyMiddleware(&cfg.Presentation, logger))

	// 画面のライフサイクル
	api.POST("/screens", screenHandler.MountScreen)
	api.GET("/screens/:id", screenHandler.GetScreen)
	api.DELETE("/screens/:id", screenHandler.UnmountScreen)
	api.GET("/screens/:id/events", eventsHandler.Subscribe)

	// 一覧の読み込み
	api.POST("/screens/:id/refresh", screenHandler.Refresh)
	api.POST("/screens/:id/load-more", screenHandler.LoadMore)
	api.POST("/screens/:id/retry", screenHandler.Retry)
	api.POST("/screens/:id/focus", screenHandler.Focus)

	// タブ・フィルター・並び順
	api.PUT("/screens/:id/category", screenHandler.ChangeCategory)
	api.PUT("/screens/:id/filter", screenHandler.ChangeFilter)
	api.PUT("/screens/:id/sort", screenHandler.ChangeSort)

	// 使用処理
	api.POST("/screens/:id/gifticons/:gifticonId/mark-used", screenHandler.MarkUsed)
	api.POST("/screens/:id/gifticons/:gifticonId/use-amount", screenHandler.UseAmount)

	// ヘルスチェックエンドポイント（APIキー不要）
	e.GET("/health", healthHandler.Health)
}

// Handler HTTPハンドラーを返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
