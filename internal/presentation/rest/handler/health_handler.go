package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck() error
}

// ScreenCounter マウント中の画面数
type ScreenCounter interface {
	Count() int
}

// HealthHandler ヘルスチェックハンドラー
type HealthHandler struct {
	device  HealthChecker
	screens ScreenCounter
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(device HealthChecker, screens ScreenCounter) *HealthHandler {
	return &HealthHandler{
		device:  device,
		screens: screens,
	}
}

// Health ヘルスチェック
// @Summary ヘルスチェック
// @Description 端末ストアの疎通とマウント中の画面数を返します
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "正常"
// @Failure 503 {object} HealthResponse "端末ストアに接続できない"
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Screens: h.screens.Count()}
	if err := h.device.HealthCheck(); err != nil {
		resp.Status = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
