package websocket

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gifticon-wallet/internal/application/gifticon_list"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

func newTestHub() *Hub {
	return NewHub(otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), io.Discard))
}

// mockClient 接続を持たないClient
func mockClient(hub *Hub, screenID string) *Client {
	return &Client{
		hub:      hub,
		screenID: screenID,
		send:     make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return Message{}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := newTestHub()
	c1 := mockClient(hub, "screen-a")
	c2 := mockClient(hub, "screen-a")
	c3 := mockClient(hub, "screen-b")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)
	assert.Equal(t, 2, hub.ClientCount("screen-a"))
	assert.Equal(t, 1, hub.ClientCount("screen-b"))

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount("screen-a"))

	// 二重解除でパニックしない
	hub.Unregister(c1)
	hub.Unregister(c2)
	hub.Unregister(c3)
	assert.Equal(t, 0, hub.ClientCount("screen-a"))
	assert.Equal(t, 0, hub.ClientCount("screen-b"))
	assert.Empty(t, hub.screens)
}

func TestHub_Publish(t *testing.T) {
	hub := newTestHub()
	target := mockClient(hub, "screen-a")
	other := mockClient(hub, "screen-b")
	hub.Register(target)
	hub.Register(other)

	hub.Publish("screen-a", gifticon_list.StateView{Category: "MY_BOX", Generation: 3})

	msg := receive(t, target)
	assert.Equal(t, MessageTypeState, msg.Type)
	assert.Equal(t, "screen-a", msg.ScreenID)
	require.NotNil(t, msg.State)
	assert.Equal(t, "MY_BOX", msg.State.Category)
	assert.Equal(t, uint64(3), msg.State.Generation)

	assert.Empty(t, other.send)
}

func TestHub_PublishFullBuffer(t *testing.T) {
	hub := newTestHub()
	c := mockClient(hub, "screen-a")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Publish("screen-a", gifticon_list.StateView{Generation: uint64(i)})
	}
	// ブロックもパニックもせずに捨てる
	hub.Publish("screen-a", gifticon_list.StateView{Generation: 999})

	assert.Len(t, c.send, sendBufferSize)
	hub.Unregister(c)
}

func TestHub_Close(t *testing.T) {
	hub := newTestHub()
	c1 := mockClient(hub, "screen-a")
	c2 := mockClient(hub, "screen-a")
	other := mockClient(hub, "screen-b")
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)

	hub.Close("screen-a")

	for _, c := range []*Client{c1, c2} {
		msg := receive(t, c)
		assert.Equal(t, MessageTypeClosed, msg.Type)
		assert.Nil(t, msg.State)
		_, ok := <-c.send
		assert.False(t, ok)
	}
	assert.Equal(t, 0, hub.ClientCount("screen-a"))
	assert.Equal(t, 1, hub.ClientCount("screen-b"))

	// 解除済みの購読者の後始末でパニックしない
	hub.Unregister(c1)
	hub.Publish("screen-a", gifticon_list.StateView{})
}

func TestHub_CloseAll(t *testing.T) {
	hub := newTestHub()
	c1 := mockClient(hub, "screen-a")
	c2 := mockClient(hub, "screen-b")
	hub.Register(c1)
	hub.Register(c2)

	hub.CloseAll()

	_, ok := <-c1.send
	assert.False(t, ok)
	_, ok = <-c2.send
	assert.False(t, ok)
	assert.Empty(t, hub.screens)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "screen-a")
			hub.Register(c)
			hub.Publish("screen-a", gifticon_list.StateView{})
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount("screen-a"))
}
