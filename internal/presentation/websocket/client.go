package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client 一つの画面を購読するWebSocket接続
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	screenID string
	send     chan []byte
}

// NewClient 新しいClientを作成
func NewClient(hub *Hub, conn *ws.Conn, screenID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		screenID: screenID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Run 購読者を登録し、接続が閉じるまでブロックする。
// initialは最初のメッセージとして送る。登録後にactiveがfalseなら画面は
// すでに破棄されているため、すぐに接続を閉じる
func (c *Client) Run(ctx context.Context, initial []byte, active func() bool) {
	if initial != nil {
		c.send <- initial
	}

	c.hub.Register(c)
	defer c.hub.Unregister(c)
	if active != nil && !active() {
		c.hub.Unregister(c)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		c.writePump(ctx)
	}()
	c.readPump(ctx)
}

// readPump 受信したメッセージは読み捨てる。切断でエラーになり終了する
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump 送信チャネルの内容を書き込み、定期的にpingを送る
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// 画面が破棄された
				_ = c.conn.Close(ws.StatusNormalClosure, "screen closed")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
