package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"nenegana-backend/internal/logger"
	"nenegana-backend/internal/services"
)

type tokenParser interface {
	ParsePlayerID(token string) (uuid.UUID, error)
}

// Hub fans redis pub/sub updates out to every open socket of a player.
type Hub struct {
	mu          sync.RWMutex
	upgrader    websocket.Upgrader
	connections map[uuid.UUID][]*client
	redisClient *redis.Client
	auth        tokenParser
	cancelFuncs map[uuid.UUID]context.CancelFunc
	log         *logger.Logger
}

// client serializes writes; gorilla connections allow one writer at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func NewHub(redisClient *redis.Client, auth tokenParser, allowedOrigin string, log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		connections: make(map[uuid.UUID][]*client),
		redisClient: redisClient,
		auth:        auth,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		log:         log.With("component", "websocket.Hub"),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket requests, so the token rides in the query.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playerID, err := h.auth.ParsePlayerID(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.registerConnection(playerID, c)

	go func() {
		defer h.unregisterConnection(playerID, c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(playerID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[playerID] = append(h.connections[playerID], c)

	// first socket for this player opens the subscription
	if len(h.connections[playerID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[playerID] = cancel
		go h.subscribeToPubSub(ctx, playerID)
	}

	h.log.Debug("websocket connected", "player_id", playerID, "total", len(h.connections[playerID]))
}

func (h *Hub) unregisterConnection(playerID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()

	conns := h.connections[playerID]
	for i, existing := range conns {
		if existing == c {
			h.connections[playerID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[playerID]) == 0 {
		delete(h.connections, playerID)
		if cancel, ok := h.cancelFuncs[playerID]; ok {
			cancel()
			delete(h.cancelFuncs, playerID)
		}
	}

	h.log.Debug("websocket disconnected", "player_id", playerID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, playerID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, services.UpdatesChannel(playerID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(playerID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(playerID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.connections[playerID] {
		if err := c.write(data); err != nil {
			h.log.Debug("websocket write failed", "player_id", playerID, "error", err)
		}
	}
}

// Close cancels every subscription and closes all sockets.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
	for id, conns := range h.connections {
		for _, c := range conns {
			c.conn.Close()
		}
		delete(h.connections, id)
	}
}
