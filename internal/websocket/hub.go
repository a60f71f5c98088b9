package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/pkg/logger"
)

const sendBufferSize = 256

// ClientMessage is a frame sent by a subscriber. Only "ping" is answered.
type ClientMessage struct {
	Type string `json:"type"`
}

// Event is pushed to every subscriber of a store.
type Event struct {
	Type    string        `json:"type"`
	StoreID uint          `json:"storeId"`
	Rating  *model.Rating `json:"rating,omitempty"`
}

// Client is one websocket subscription to a store's rating feed.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	StoreID       uint
	Send          chan []byte
	MessageCount  int       // messages received in the current second
	LastResetTime time.Time // start of the current rate window
	RateMu        sync.Mutex
}

// BroadcastMessage is queued for delivery to all subscribers of a store.
type BroadcastMessage struct {
	StoreID uint
	Message []byte
}

type directMessage struct {
	client  *Client
	message []byte
}

// Hub fans rating events out to per-store subscribers. Channel sends and
// closes on Client.Send happen only on the Run goroutine.
type Hub struct {
	// storeID -> subscribers
	stores map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	direct     chan *directMessage

	// closed once Run has returned
	done     chan struct{}
	doneOnce sync.Once

	upgrader websocket.Upgrader
	mu       sync.RWMutex
}

// NewHub creates a hub. Browser upgrades are accepted from allowedOrigins;
// requests without an Origin header and a "*" entry accept everything.
func NewHub(allowedOrigins []string) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Hub{
		stores:     make(map[uint]map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		direct:     make(chan *directMessage, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Run processes registrations and deliveries until ctx is done, then
// disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.doneOnce.Do(func() { close(h.done) })
			return

		case client := <-h.register:
			h.mu.Lock()
			subs, ok := h.stores[client.StoreID]
			if !ok {
				subs = make(map[*Client]bool)
				h.stores[client.StoreID] = subs
			}
			subs[client] = true
			total := len(subs)
			h.mu.Unlock()
			logger.Info("Rating feed subscriber registered", map[string]interface{}{
				"store_id":    client.StoreID,
				"subscribers": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.stores[client.StoreID]; ok && subs[client] {
				delete(subs, client)
				if len(subs) == 0 {
					delete(h.stores, client.StoreID)
				}
				close(client.Send)
			}
			remaining := len(h.stores[client.StoreID])
			h.mu.Unlock()
			logger.Info("Rating feed subscriber unregistered", map[string]interface{}{
				"store_id":    client.StoreID,
				"subscribers": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.stores[message.StoreID] {
				select {
				case client.Send <- message.Message:
				default:
					// slow subscriber, drop it asynchronously
					go h.Unregister(client)
					logger.Warn("Subscriber send buffer full, disconnecting", map[string]interface{}{
						"store_id": message.StoreID,
					})
				}
			}
			h.mu.RUnlock()

		case dm := <-h.direct:
			h.mu.RLock()
			if h.stores[dm.client.StoreID][dm.client] {
				select {
				case dm.client.Send <- dm.message:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for storeID, subs := range h.stores {
		for client := range subs {
			close(client.Send)
		}
		delete(h.stores, storeID)
	}
}

// Subscribe upgrades the request and attaches the connection to storeID's feed.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, storeID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		Hub:           h,
		Conn:          &Conn{Conn: conn},
		StoreID:       storeID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}
	h.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// PublishRating queues a rating event for the store's subscribers. Events are
// dropped when the queue is full.
func (h *Hub) PublishRating(storeID uint, event string, rating *model.Rating) {
	data, err := json.Marshal(Event{Type: event, StoreID: storeID, Rating: rating})
	if err != nil {
		logger.Error("Failed to marshal rating event", err, map[string]interface{}{
			"store_id": storeID,
		})
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{StoreID: storeID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, rating event dropped", map[string]interface{}{
			"store_id": storeID,
			"event":    event,
		})
	}
}

// Register attaches a client. After shutdown the client's Send channel is
// closed instead, which makes its WritePump close the connection.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister detaches a client. It never blocks once Run has returned.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SubscriberCount returns the number of live subscribers of a store.
func (h *Hub) SubscriberCount(storeID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.stores[storeID])
}

// HandleClientMessage rate limits inbound frames and answers pings.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"store_id": client.StoreID,
			"count":    count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Debug("Ignoring malformed client message", map[string]interface{}{
			"store_id": client.StoreID,
			"error":    err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		select {
		case h.direct <- &directMessage{client: client, message: []byte(`{"type":"pong"}`)}:
		default:
		}
	}
}
