package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gifticon-wallet/internal/application/screen"
	"gifticon-wallet/internal/domain/gifticon"
	"gifticon-wallet/internal/infrastructure/config"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
	"gifticon-wallet/internal/presentation/rest/handler"
	"gifticon-wallet/internal/presentation/websocket"
)

const testAPIKey = "test-api-key"

type stubGateway struct{}

func (stubGateway) FetchAvailable(context.Context, gifticon.AvailableQuery) (*gifticon.Page, error) {
	return &gifticon.Page{Items: []*gifticon.Gifticon{
		gifticon.MustNewGifticon(gifticon.Params{ID: 1, Name: "아메리카노", Type: gifticon.GifticonTypeProduct, Scope: gifticon.ScopeMyBox}),
	}}, nil
}

func (stubGateway) FetchUsed(context.Context, gifticon.UsedQuery) (*gifticon.Page, error) {
	return &gifticon.Page{Items: []*gifticon.Gifticon{}}, nil
}

func (stubGateway) MarkProductUsed(context.Context, int64) error { return nil }
func (stubGateway) UseAmount(context.Context, int64, int64) error { return nil }

type keyMessages struct{}

func (keyMessages) Text(key string, _ map[string]string) string { return key }
func (keyMessages) FormatAmount(int64) string { return "" }

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck() error { return s.err }

func newTestRouter(t *testing.T, deviceErr error) *Router {
	t.Helper()
	logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	cfg := &config.Config{
		Presentation: config.PresentationConfig{
			APIKey:         testAPIKey,
			AllowedOrigins: []string{"*"},
		},
	}

	hub := websocket.NewHub(logger)
	registry := screen.NewRegistry(stubGateway{}, keyMessages{}, nil, hub, logger, metrics)
	t.Cleanup(func() {
		registry.Close(context.Background())
		hub.CloseAll()
	})

	return NewRouter(
		cfg,
		logger,
		metrics,
		registry,
		handler.NewHealthHandler(stubChecker{err: deviceErr}, registry),
		websocket.NewHandler(hub, registry, cfg.Presentation.AllowedOrigins, logger),
	)
}

func serve(r *Router, method, path, body string, withKey bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		deviceErr  error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "正常系: APIキーなしで参照できる",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "異常系: 端末ストアに接続できない",
			deviceErr:  errors.New("database is closed"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestRouter(t, tt.deviceErr), http.MethodGet, "/health", "", false)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body handler.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
		})
	}
}

func TestRouter_APIKey(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := serve(r, http.MethodPost, "/api/v1/screens", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/api/v1/screens", "", true)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_ScreenRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := serve(r, http.MethodPost, "/api/v1/screens", `{"category":"MY_BOX"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var mounted handler.ScreenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mounted))
	require.NotEmpty(t, mounted.ScreenID)
	assert.Len(t, mounted.State.Items, 1)

	base := "/api/v1/screens/" + mounted.ScreenID
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "正常系: 取得", method: http.MethodGet, path: base, wantStatus: http.StatusOK},
		{name: "正常系: 新しい読み込み", method: http.MethodPost, path: base + "/refresh", wantStatus: http.StatusOK},
		{name: "正常系: 次ページ", method: http.MethodPost, path: base + "/load-more", wantStatus: http.StatusOK},
		{name: "正常系: 再試行", method: http.MethodPost, path: base + "/retry", wantStatus: http.StatusOK},
		{name: "正常系: 再表示", method: http.MethodPost, path: base + "/focus", wantStatus: http.StatusOK},
		{name: "正常系: フィルター", method: http.MethodPut, path: base + "/filter", body: `{"filter":"PRODUCT"}`, wantStatus: http.StatusOK},
		{name: "正常系: 並び順", method: http.MethodPut, path: base + "/sort", body: `{"sort":"EXPIRY"}`, wantStatus: http.StatusOK},
		{name: "正常系: 使用完了", method: http.MethodPost, path: base + "/gifticons/1/mark-used", wantStatus: http.StatusOK},
		{name: "正常系: タブ", method: http.MethodPut, path: base + "/category", body: `{"category":"USED"}`, wantStatus: http.StatusOK},
		{name: "異常系: 不正なタブ", method: http.MethodPut, path: base + "/category", body: `{"category":"TRASH"}`, wantStatus: http.StatusBadRequest},
		{name: "異常系: 未定義のルート", method: http.MethodGet, path: "/api/v1/unknown", wantStatus: http.StatusNotFound},
		{name: "正常系: 解除", method: http.MethodDelete, path: base, wantStatus: http.StatusNoContent},
		{name: "異常系: 解除済みの画面", method: http.MethodGet, path: base, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.method, tt.path, tt.body, true)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_Documentation(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := serve(r, http.MethodGet, "/openapi.yaml", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/screens/{id}/gifticons/{gifticonId}/use-amount")

	rec = serve(r, http.MethodGet, "/redoc", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `spec-url="/openapi.yaml"`)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/health", "", false)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
