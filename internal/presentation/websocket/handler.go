package websocket

import (
	"encoding/json"
	"slices"

	ws "github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"gifticon-wallet/internal/application/screen"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// Screens マウント中の画面の参照
type Screens interface {
	Get(id string) (*screen.Screen, error)
}

// Handler 画面の状態を配信するWebSocketハンドラー
type Handler struct {
	hub     *Hub
	screens Screens
	accept  *ws.AcceptOptions
	logger  *otelinfra.Logger
}

// NewHandler 新しいHandlerを作成。allowedOriginsに"*"を含む場合はOriginを検証しない
func NewHandler(hub *Hub, screens Screens, allowedOrigins []string, logger *otelinfra.Logger) *Handler {
	accept := &ws.AcceptOptions{OriginPatterns: allowedOrigins}
	if slices.Contains(allowedOrigins, "*") {
		accept = &ws.AcceptOptions{InsecureSkipVerify: true}
	}
	return &Handler{
		hub:     hub,
		screens: screens,
		accept:  accept,
		logger:  logger,
	}
}

// Subscribe 画面の状態の購読
// @Summary 画面の状態の購読
// @Description WebSocketで画面の状態を購読します。接続直後に現在の状態、以降は変化のたびに状態が送られます
// @Tags screens
// @Param id path string true "画面ID"
// @Success 101 {object} Message
// @Failure 404 {object} handler.ErrorResponse
// @Router /screens/{id}/events [get]
func (h *Handler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	screenID := c.Param("id")

	s, err := h.screens.Get(screenID)
	if err != nil {
		return err
	}

	view := s.Controller.View()
	initial, err := json.Marshal(Message{Type: MessageTypeState, ScreenID: screenID, State: &view})
	if err != nil {
		return err
	}

	conn, err := ws.Accept(c.Response(), c.Request(), h.accept)
	if err != nil {
		h.logger.Warn(ctx, "WebSocket accept failed", map[string]interface{}{
			"screen_id": screenID,
			"error":     err.Error(),
		})
		return nil
	}
	defer conn.CloseNow()

	h.logger.Info(ctx, "Screen subscriber connected", map[string]interface{}{
		"screen_id": screenID,
	})

	client := NewClient(h.hub, conn, screenID)
	client.Run(ctx, initial, func() bool {
		_, err := h.screens.Get(screenID)
		return err == nil
	})

	h.logger.Info(ctx, "Screen subscriber disconnected", map[string]interface{}{
		"screen_id": screenID,
	})
	return nil
}
