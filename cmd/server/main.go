package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gifticon-wallet/internal/application/gifticon_list"
	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/infrastructure/config"
	"gifticon-wallet/internal/infrastructure/gifticonapi"
	"gifticon-wallet/internal/infrastructure/i18n"
	"gifticon-wallet/internal/infrastructure/identity"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
	"gifticon-wallet/internal/infrastructure/persistence/sqlite"
	grpcserver "gifticon-wallet/internal/presentation/grpc"
	"gifticon-wallet/internal/presentation/rest"
	"gifticon-wallet/internal/presentation/rest/handler"
	"gifticon-wallet/internal/presentation/websocket"
)

const healthCheckInterval = 15 * time.Second

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	logger := otelinfra.NewLogger(otelinfra.Tracer("gifticon-wallet"))
	logger.SetLevel(otelinfra.ParseLogLevel(cfg.LogLevel))
	metrics, err := otelinfra.NewMetrics("gifticon-wallet")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// 端末ストアの初期化
	db, err := sqlite.NewDB(&cfg.Device)
	if err != nil {
		log.Fatalf("Failed to open device store: %v", err)
	}
	defer db.Close()

	identityStore := identity.NewStore(sqlite.NewKeyValueStore(db))
	if err := identityStore.SaveSession(ctx, cfg.Session.UserID, cfg.Session.AccessToken); err != nil {
		log.Fatalf("Failed to save session: %v", err)
	}

	catalog, err := i18n.NewCatalog(cfg.Presentation.Locale)
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}
	location := cfg.Presentation.Location()

	// ギフティコンAPIクライアントの初期化
	apiClient := gifticonapi.NewClient(
		cfg.API.BaseURL,
		cfg.API.Timeout,
		logger,
		metrics,
		gifticonapi.WithTokenSource(identityStore),
		gifticonapi.WithLocation(location),
	)

	// 画面レジストリの初期化
	hub := websocket.NewHub(logger)
	registry := screen.NewRegistry(
		apiClient,
		catalog,
		identityStore,
		hub,
		logger,
		metrics,
		gifticon_list.WithLocation(location),
		gifticon_list.WithPageSize(cfg.API.PageSize),
	)

	// REST APIルーターの初期化
	router := rest.NewRouter(
		cfg,
		logger,
		metrics,
		registry,
		handler.NewHealthHandler(db, registry),
		websocket.NewHandler(hub, registry, cfg.Presentation.AllowedOrigins, logger),
	)

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address": address,
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
		}
	}()

	// gRPCヘルスチェックサーバーの初期化
	var grpcSrv *grpcserver.Server
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to create gRPC server: %v", err)
		}
		go grpcSrv.MonitorHealth(monitorCtx, db, healthCheckInterval)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error(ctx, "gRPC server error", err, nil)
			}
		}()
	}

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down servers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopMonitor()
	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error(ctx, "Error shutting down gRPC server", err, nil)
		}
	}

	// 画面を閉じてからWebSocketを切断し、HTTPサーバーを止める
	registry.Close(shutdownCtx)
	hub.CloseAll()
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}

	logger.Info(ctx, "Servers stopped", nil)
}
