package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikkim/store-rating-backend/internal/app/model"
)

func startHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(origins)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.URL.Query().Get("store"), 10, 64)
		if err != nil {
			http.Error(w, "bad store", http.StatusBadRequest)
			return
		}
		_ = hub.Subscribe(w, r, uint(id))
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, storeID uint, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?store=" + strconv.FormatUint(uint64(storeID), 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_DeliversToStoreSubscribersOnly(t *testing.T) {
	hub, srv := startHub(t)

	coffee := dial(t, srv, 1, nil)
	bakery := dial(t, srv, 2, nil)
	require.Eventually(t, func() bool {
		return hub.SubscriberCount(1) == 1 && hub.SubscriberCount(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.PublishRating(1, "rating.created", &model.Rating{ID: 7, StoreID: 1, UserID: 3, Score: 5})

	event := readEvent(t, coffee)
	assert.Equal(t, "rating.created", event.Type)
	assert.Equal(t, uint(1), event.StoreID)
	require.NotNil(t, event.Rating)
	assert.Equal(t, 5, event.Rating.Score)

	require.NoError(t, bakery.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bakery.ReadMessage()
	assert.Error(t, err, "other stores must not receive the event")
}

func TestHub_AnswersPing(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, 1, nil)
	require.Eventually(t, func() bool { return hub.SubscriberCount(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	event := readEvent(t, conn)
	assert.Equal(t, "pong", event.Type)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, 4, nil)
	require.Eventually(t, func() bool { return hub.SubscriberCount(4) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.SubscriberCount(4) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, srv := startHub(t, "http://allowed.test")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?store=1"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://allowed.test"}})
	require.NoError(t, err)
	conn.Close()
}

func TestHub_RateLimitsClientMessages(t *testing.T) {
	hub := NewHub(nil)
	client := &Client{Hub: hub, StoreID: 1, Send: make(chan []byte, 1), LastResetTime: time.Now()}

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	}

	// only pings within the limit were queued, and the direct queue never blocks
	assert.Equal(t, maxMessagesPerSecond, len(hub.direct))
}

func TestHub_RegistrationAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		client := &Client{Hub: hub, StoreID: 1, Send: make(chan []byte, 1)}
		for i := 0; i < 2*cap(hub.unregister); i++ {
			hub.Unregister(client)
		}
		hub.Register(client)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Register/Unregister blocked after the hub stopped")
	}
}
