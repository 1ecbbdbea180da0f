package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"gifticon-wallet/internal/application/gifticon_list"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

// メッセージ種別
const (
	MessageTypeState  = "state"
	MessageTypeClosed = "closed"
)

// Message 購読者に送るメッセージ
type Message struct {
	Type     string                   `json:"type"`
	ScreenID string                   `json:"screenId"`
	State    *gifticon_list.StateView `json:"state,omitempty"`
}

// Hub 画面ごとの購読者を管理し、画面の状態を配信する
type Hub struct {
	mu      sync.RWMutex
	screens map[string]map[*Client]struct{}
	logger  *otelinfra.Logger
}

// NewHub 新しいHubを作成
func NewHub(logger *otelinfra.Logger) *Hub {
	return &Hub{
		screens: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register 購読者を登録する
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	clients, ok := h.screens[c.screenID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.screens[c.screenID] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister 購読者を解除し、送信チャネルを閉じる
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.screens[c.screenID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.screens, c.screenID)
	}
}

// Publish 画面の状態をその画面の購読者に送る。
// 送信バッファが埋まっている購読者には送らない
func (h *Hub) Publish(screenID string, view gifticon_list.StateView) {
	h.send(screenID, Message{Type: MessageTypeState, ScreenID: screenID, State: &view})
}

// Close 画面の破棄を通知し、その画面の購読者をすべて解除する
func (h *Hub) Close(screenID string) {
	h.send(screenID, Message{Type: MessageTypeClosed, ScreenID: screenID})

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.screens[screenID] {
		h.removeLocked(c)
	}
}

// CloseAll すべての購読者を解除する
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.screens {
		for c := range clients {
			h.removeLocked(c)
		}
	}
}

func (h *Hub) send(screenID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), "Failed to marshal screen message", err, map[string]interface{}{
			"screen_id": screenID,
			"type":      msg.Type,
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.screens[screenID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn(context.Background(), "Subscriber buffer full, message dropped", map[string]interface{}{
				"screen_id": screenID,
				"type":      msg.Type,
			})
		}
	}
}

// ClientCount 画面の購読者数
func (h *Hub) ClientCount(screenID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.screens[screenID])
}
