package handler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gifticon-wallet/internal/application/gifticon_list"
	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/domain/gifticon"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
	restmiddleware "gifticon-wallet/internal/presentation/rest/middleware"
)

// MockGateway モックゲートウェイ
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FetchAvailable(ctx context.Context, q gifticon.AvailableQuery) (*gifticon.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gifticon.Page), args.Error(1)
}

func (m *MockGateway) FetchUsed(ctx context.Context, q gifticon.UsedQuery) (*gifticon.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gifticon.Page), args.Error(1)
}

func (m *MockGateway) MarkProductUsed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGateway) UseAmount(ctx context.Context, id int64, amount int64) error {
	return m.Called(ctx, id, amount).Error(0)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, gifticon_list.StateView) {}
func (nopPublisher) Close(string) {}

type keyMessages struct{}

func (keyMessages) Text(key string, _ map[string]string) string { return key }
func (keyMessages) FormatAmount(int64) string { return "" }

// handlerFixture 画面ハンドラーのテスト用サーバー
type handlerFixture struct {
	e        *echo.Echo
	gw       *MockGateway
	registry *screen.Registry
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	gw := new(MockGateway)
	now := time.Date(2026, 10, 15, 4, 0, 0, 0, time.UTC)
	registry := screen.NewRegistry(gw, keyMessages{}, nil, nopPublisher{}, logger, metrics,
		gifticon_list.WithClock(func() time.Time { return now }),
		gifticon_list.WithLocation(time.UTC),
	)

	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	h := NewScreenHandler(registry)
	api := e.Group("/api/v1")
	api.POST("/screens", h.MountScreen)
	api.GET("/screens/:id", h.GetScreen)
	api.DELETE("/screens/:id", h.UnmountScreen)
	api.POST("/screens/:id/refresh", h.Refresh)
	api.POST("/screens/:id/load-more", h.LoadMore)
	api.POST("/screens/:id/retry", h.Retry)
	api.POST("/screens/:id/focus", h.Focus)
	api.PUT("/screens/:id/category", h.ChangeCategory)
	api.PUT("/screens/:id/filter", h.ChangeFilter)
	api.PUT("/screens/:id/sort", h.ChangeSort)
	api.POST("/screens/:id/gifticons/:gifticonId/mark-used", h.MarkUsed)
	api.POST("/screens/:id/gifticons/:gifticonId/use-amount", h.UseAmount)

	return &handlerFixture{e: e, gw: gw, registry: registry}
}

func myBoxQuery() gifticon.AvailableQuery {
	return gifticon.AvailableQuery{Size: 10, Scope: gifticon.ScopeMyBox, Sort: gifticon.SortCreatedDesc}
}

func productItem(id int64) *gifticon.Gifticon {
	return gifticon.MustNewGifticon(gifticon.Params{
		ID: id, Name: "아메리카노", Type: gifticon.GifticonTypeProduct, Scope: gifticon.ScopeMyBox,
	})
}

func amountItem(id, remaining int64) *gifticon.Gifticon {
	return gifticon.MustNewGifticon(gifticon.Params{
		ID: id, Name: "금액권", Type: gifticon.GifticonTypeAmount, Scope: gifticon.ScopeMyBox, RemainingAmount: remaining,
	})
}

func pageOf(items ...*gifticon.Gifticon) *gifticon.Page {
	return &gifticon.Page{Items: append([]*gifticon.Gifticon{}, items...)}
}
