package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
	maxInbound = 512
)

// Metrics is the subset of observability.Prom the hub reports to.
type Metrics interface {
	SocketOpened()
	SocketClosed()
	NotificationDelivered(kind string)
}

// envelope is what travels over the Redis channel between instances.
type envelope struct {
	UserID  string          `json:"user_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks websocket clients per user and delivers notifications to them.
// With Redis configured, Notify publishes on a channel and every instance running
// the hub delivers to its own sockets; without Redis delivery is in-process.
type Hub struct {
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
	metrics Metrics

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	running atomic.Bool
	conns   atomic.Int64
}

type Options struct {
	Redis          *redis.Client
	Channel        string
	Logger         *logrus.Logger
	Metrics        Metrics
	AllowedOrigins []string
}

func NewHub(opts Options) *Hub {
	if opts.Channel == "" {
		opts.Channel = "notifications"
	}
	h := &Hub{
		rdb:     opts.Redis,
		channel: opts.Channel,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		clients: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     OriginChecker(opts.AllowedOrigins),
	}
	return h
}

// OriginChecker accepts requests without an Origin header, any origin when the list
// contains "*", and otherwise only the listed origins.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// Running reports whether Run is active.
func (h *Hub) Running() bool {
	return h != nil && h.running.Load()
}

// Connections returns the number of open sockets on this instance.
func (h *Hub) Connections() int {
	if h == nil {
		return 0
	}
	return int(h.conns.Load())
}

// Run blocks until ctx is done, relaying notifications from Redis when configured.
// Open sockets are closed on return.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()

	if h.rdb == nil {
		h.running.Store(true)
		defer h.running.Store(false)
		<-ctx.Done()
		return nil
	}

	sub := h.rdb.Subscribe(ctx, h.channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	h.running.Store(true)
	defer h.running.Store(false)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				h.warn(err, "dropping malformed realtime message")
				continue
			}
			h.deliver(env.UserID, env.Type, env.Payload)
		}
	}
}

// Notify sends n to every socket of userID.
func (h *Hub) Notify(ctx context.Context, userID string, n entity.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if h.rdb == nil {
		h.deliver(userID, n.Type, payload)
		return nil
	}
	b, err := json.Marshal(envelope{UserID: userID, Type: n.Type, Payload: payload})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, h.channel, b).Err()
}

func (h *Hub) deliver(userID, kind string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
			if h.metrics != nil {
				h.metrics.NotificationDelivered(kind)
			}
		default:
			// slow consumer; its writer will catch up or the read deadline drops it
			h.warn(nil, "realtime send buffer full, dropping notification")
		}
	}
}

// ServeWS upgrades the request and serves the socket until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.conns.Add(1)
	if h.metrics != nil {
		h.metrics.SocketOpened()
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, present := set[c]; !present {
			h.mu.Unlock()
			return
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	c.close()
	h.conns.Add(-1)
	if h.metrics != nil {
		h.metrics.SocketClosed()
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

// readPump discards inbound frames; it exists to process pongs and detect closes.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInbound)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) warn(err error, msg string) {
	if h.logger == nil {
		return
	}
	if err != nil {
		h.logger.WithError(err).Warn(msg)
		return
	}
	h.logger.Warn(msg)
}
