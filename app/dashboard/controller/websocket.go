package controller

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rogue-datahub/atlasx/pkg/redis"
	"github.com/rogue-datahub/atlasx/pkg/state"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action  string `json:"action"`  // "subscribe" or "unsubscribe"
	Session string `json:"session"` // session id whose state events to receive
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "exchanges.updated", "votes.updated", "subscribed", "unsubscribed", "info", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks the sessions a client follows.
type clientSubscriptions struct {
	mu       sync.RWMutex
	sessions map[string]bool
}

// NewClientSubscriptions creates a new clientSubscriptions tracker.
func NewClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{
		sessions: make(map[string]bool),
	}
}

func (cs *clientSubscriptions) Subscribe(session string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.sessions[session] = true
}

func (cs *clientSubscriptions) Unsubscribe(session string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.sessions, session)
}

func (cs *clientSubscriptions) IsSubscribed(session string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.sessions[session]
}

// HandleWebSocket upgrades the connection and streams session state events.
//
// Protocol:
// Client sends: {"action": "subscribe", "session": "<id>"}
// Client sends: {"action": "unsubscribe", "session": "<id>"}
//
// Server sends:
// - {"type": "exchanges.updated", "payload": {"session": "...", "domain": "exchanges", "status": {...}}}
// - {"type": "votes.updated", "payload": {...}}
// - {"type": "subscribed", "payload": {"session": "<id>"}}, followed by the current status of each domain
// - {"type": "unsubscribed", "payload": {"session": "<id>"}}
// - {"type": "error", "payload": {"message": "..."}}
//
// Events travel through Redis so that any dashboard replica can serve the socket.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
		}
	}()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := NewClientSubscriptions()
	send := make(chan ServerMessage, 256)

	var wg sync.WaitGroup
	c.goSafe(&wg, cancel, r.RemoteAddr, "redis subscriber", func() { c.subscribeToRedis(ctx, send, subs) })
	c.goSafe(&wg, cancel, r.RemoteAddr, "ping ticker", func() { c.sendPings(ctx, conn) })

	// The writer drains send until it is closed below.
	var writer sync.WaitGroup
	c.goSafe(&writer, cancel, r.RemoteAddr, "message writer", func() { c.writeMessages(conn, send) })

	// Blocks until the connection closes
	c.readClientMessages(ctx, conn, cancel, subs, send)

	cancel()
	wg.Wait()
	close(send)
	writer.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// goSafe runs fn in a goroutine tracked by wg. A panic cancels the connection.
func (c *Controller) goSafe(wg *sync.WaitGroup, cancel context.CancelFunc, remote, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in WebSocket goroutine",
					zap.String("goroutine", name),
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", remote))
				cancel()
			}
		}()
		fn()
	}()
}

// subscribeToRedis follows every session channel and forwards the events the client
// subscribed to. Lost subscriptions are re-established with exponential backoff.
func (c *Controller) subscribeToRedis(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions) {
	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
		jitterFactor   = 0.1
	)

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := c.attemptRedisSubscription(ctx, send, subs, attempt)
		if ctx.Err() != nil {
			return
		}

		c.App.Logger.Warn("Redis subscription lost, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		if !trySend(ctx, send, ServerMessage{
			Type: "error",
			Payload: map[string]interface{}{
				"message":     "Redis connection lost, attempting to reconnect...",
				"retryIn":     backoff.Seconds(),
				"attempt":     attempt,
				"recoverable": true,
			},
		}) {
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = CalculateNextBackoff(backoff, maxBackoff, backoffFactor, jitterFactor)
	}
}

func (c *Controller) attemptRedisSubscription(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions, attempt int) error {
	pubsub := c.App.RedisClient.PSubscribe(ctx, redis.SessionPattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			c.App.Logger.Debug("Error closing Redis subscription", zap.Error(err))
		}
	}()

	receiveCtx, receiveCancel := context.WithTimeout(ctx, 5*time.Second)
	defer receiveCancel()
	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}

	if attempt > 1 && !trySend(ctx, send, ServerMessage{
		Type:    "info",
		Payload: map[string]interface{}{"message": "Redis connection established", "attempt": attempt},
	}) {
		return ctx.Err()
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			out, ok := c.relay(msg, subs)
			if !ok {
				continue
			}
			if !trySend(ctx, send, out) {
				return ctx.Err()
			}
		}
	}
}

// relay turns a pub/sub message into a client message. It reports false for channels
// that are not session events, sessions the client does not follow, and bad payloads.
func (c *Controller) relay(msg *goredis.Message, subs *clientSubscriptions) (ServerMessage, bool) {
	session, event, ok := redis.ParseSessionChannel(msg.Channel)
	if !ok {
		c.App.Logger.Warn("Unexpected channel on session pattern", zap.String("channel", msg.Channel))
		return ServerMessage{}, false
	}
	if !subs.IsSubscribed(session) {
		return ServerMessage{}, false
	}

	var payload state.Event
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		c.App.Logger.Error("Failed to parse Redis message",
			zap.Error(err),
			zap.String("channel", msg.Channel))
		return ServerMessage{}, false
	}
	return ServerMessage{Type: event, Payload: payload}, true
}

// CalculateNextBackoff calculates the next backoff duration with exponential growth and jitter.
func CalculateNextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}

	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	nextWithJitter := time.Duration(float64(next) + jitter)

	if nextWithJitter < current {
		nextWithJitter = current
	}
	if nextWithJitter > max {
		nextWithJitter = max
	}
	return nextWithJitter
}

func trySend(ctx context.Context, send chan<- ServerMessage, msg ServerMessage) bool {
	select {
	case send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// currentStatus is the state of each domain the session has, sent on subscribe so the
// client does not wait for the next change.
func (c *Controller) currentStatus(session string) []ServerMessage {
	var out []ServerMessage
	if st, ok := c.App.Exchanges.Get(session); ok {
		out = append(out, ServerMessage{
			Type:    state.Exchanges.Event(),
			Payload: state.Event{Session: session, Domain: state.Exchanges, Event: state.Exchanges.Event(), Status: st.Status},
		})
	}
	if st, ok := c.App.Votes.Get(session); ok {
		out = append(out, ServerMessage{
			Type:    state.Votes.Event(),
			Payload: state.Event{Session: session, Domain: state.Votes, Event: state.Votes.Event(), Status: st.Status},
		})
	}
	return out
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Debug("Failed to write WebSocket message", zap.Error(err))
			// keep draining so producers never block on a dead connection
			for range send {
			}
			return
		}
	}
}

// readClientMessages handles subscription requests until the connection closes.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *clientSubscriptions, send chan<- ServerMessage) {
	const readTimeout = 60 * time.Second

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for ctx.Err() == nil {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.App.Logger.Error("WebSocket read error", zap.Error(err))
			}
			cancel()
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
			return
		}

		for _, out := range c.handleClientMessage(msg, subs) {
			if !trySend(ctx, send, out) {
				return
			}
		}
	}
}

// handleClientMessage applies msg to subs and returns the replies.
func (c *Controller) handleClientMessage(msg ClientMessage, subs *clientSubscriptions) []ServerMessage {
	switch msg.Action {
	case "subscribe", "unsubscribe":
	default:
		return []ServerMessage{{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}}
	}
	if msg.Session == "" {
		return []ServerMessage{{Type: "error", Payload: map[string]string{"message": "session is required"}}}
	}

	if msg.Action == "unsubscribe" {
		subs.Unsubscribe(msg.Session)
		return []ServerMessage{{Type: "unsubscribed", Payload: map[string]string{"session": msg.Session}}}
	}

	subs.Subscribe(msg.Session)
	c.App.Logger.Debug("Client subscribed", zap.String("session", msg.Session))
	replies := []ServerMessage{{Type: "subscribed", Payload: map[string]string{"session": msg.Session}}}
	return append(replies, c.currentStatus(msg.Session)...)
}
