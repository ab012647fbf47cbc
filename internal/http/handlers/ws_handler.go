package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/promoter-dashboard/backend/internal/auth"
	"github.com/promoter-dashboard/backend/internal/config"
	"github.com/promoter-dashboard/backend/internal/events"
	"go.uber.org/zap"
)

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
)

// wsClient is one open dashboard socket. Only its writer goroutine touches
// the connection for writes.
type wsClient struct {
	userID uuid.UUID
	send   chan []byte
}

// WSHub pushes campaign events to connected dashboards.
type WSHub struct {
	cfg        *config.Config
	subscriber events.Subscriber
	log        *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*wsClient]struct{}
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:        cfg,
		subscriber: subscriber,
		log:        log,
		clients:    make(map[uuid.UUID]map[*wsClient]struct{}),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamCampaign, h.dispatch)
}

// dispatch routes an event to its recipient, or to everyone when the event
// has no recipient.
func (h *WSHub) dispatch(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if event.UserID == "" {
		for _, set := range h.clients {
			for cl := range set {
				h.enqueue(cl, data)
			}
		}
		return
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		h.log.Warn("event with malformed recipient", zap.String("type", event.Type), zap.String("user_id", event.UserID))
		return
	}
	for cl := range h.clients[userID] {
		h.enqueue(cl, data)
	}
}

// enqueue never blocks the subscriber; a client whose buffer is full misses
// the event. Callers hold h.mu.
func (h *WSHub) enqueue(cl *wsClient, data []byte) {
	select {
	case cl.send <- data:
	default:
		h.log.Warn("ws client too slow, event dropped", zap.String("user_id", cl.userID.String()))
	}
}

func (h *WSHub) register(userID uuid.UUID) *wsClient {
	cl := &wsClient{userID: userID, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*wsClient]struct{})
	}
	h.clients[userID][cl] = struct{}{}
	return cl
}

func (h *WSHub) unregister(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[cl.userID]; ok {
		delete(set, cl)
		if len(set) == 0 {
			delete(h.clients, cl.userID)
		}
	}
	close(cl.send)
}

// Connections reports how many sockets are open.
func (h *WSHub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	// Browsers cannot set headers on websocket requests, so accept the
	// token as a query param or the session cookie.
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		tokenStr = conn.Cookies(h.cfg.SessionCookieName)
	}
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	cl := h.register(claims.UserID)
	h.log.Debug("ws connected", zap.String("user_id", claims.UserID.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(conn, cl)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(cl)
	<-done
	conn.Close()
	h.log.Debug("ws disconnected", zap.String("user_id", claims.UserID.String()))
}

// writeLoop drains the client queue and keeps the socket alive with pings.
// It returns once the queue is closed or a write fails.
func (h *WSHub) writeLoop(conn *websocket.Conn, cl *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-cl.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
