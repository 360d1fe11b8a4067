package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"caketime/events"
	"caketime/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// feedConn is the part of *websocket.Conn the hub writes through.
type feedConn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	Close() error
}

// OrderFeed pushes order events to connected dashboard sessions.
// It implements events.Publisher.
type OrderFeed struct {
	clients    map[feedConn]uint // conn -> admin user id
	broadcast  chan events.OrderEvent
	register   chan subscription
	unregister chan feedConn
	mu         sync.Mutex
	logger     *zap.Logger
	done       chan struct{}
	closeOnce  sync.Once
	writeWait  time.Duration
}

type subscription struct {
	conn   feedConn
	userID uint
}

func NewOrderFeed(logger *zap.Logger) *OrderFeed {
	return &OrderFeed{
		clients:    make(map[feedConn]uint),
		broadcast:  make(chan events.OrderEvent, 64),
		register:   make(chan subscription),
		unregister: make(chan feedConn),
		logger:     logger,
		done:       make(chan struct{}),
		writeWait:  writeWait,
	}
}

// Run serves register/unregister/broadcast until ctx ends or Close is called.
func (h *OrderFeed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.dropAll()
			return
		case <-h.done:
			h.dropAll()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub.conn] = sub.userID
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				// a stalled dashboard must not hold up the rest
				_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					h.logger.Debug("ws write error", zap.Error(err))
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *OrderFeed) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// Publish never blocks a request: when the feed is backed up the event is
// dropped for dashboard viewers (the durable copy goes to Kafka).
func (h *OrderFeed) Publish(_ context.Context, ev events.OrderEvent) error {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("order feed full, dropping event", zap.String("type", ev.Type), zap.Uint("order_id", ev.OrderID))
	}
	return nil
}

func (h *OrderFeed) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

func (h *OrderFeed) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWebSocket: GET /api/v1/admin/ws/orders (behind WSAuthMiddleware)
func (h *OrderFeed) HandleWebSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade error", zap.Error(err))
		return
	}

	select {
	case h.register <- subscription{conn: conn, userID: userID}:
	case <-h.done:
		conn.Close()
		return
	}
	go h.listen(conn)
}

// the feed is one-way; reading only detects the close
func (h *OrderFeed) listen(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
