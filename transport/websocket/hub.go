package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/controlrelay/classroom"
	"github.com/wricardo/mcp-training/controlrelay/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultMaxMessageSize = 64 * 1024
	defaultSendBuffer     = 256
)

var ErrHubStopped = errors.New("hub stopped")

// Options tunes per-connection limits and the origin check.
type Options struct {
	// MaxMessageSize caps inbound frames, in bytes.
	MaxMessageSize int64
	// SendBuffer is the number of outbound frames queued per client before
	// the client is considered stalled and closed.
	SendBuffer int
	// AllowedOrigins restricts browser origins. Empty allows all.
	AllowedOrigins []string
}

type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub owns the classroom router and serializes every event that touches it:
// connects, frames, disconnects and operator calls all run on the Run
// goroutine.
type Hub struct {
	router *classroom.Router
	log    zerolog.Logger
	opts   Options

	upgrader websocket.Upgrader

	// Connected clients by id, joined or not.
	clients map[classroom.ParticipantID]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound frames from clients
	inbound chan inboundFrame

	// Operator calls against the router
	exec chan func(*classroom.Router)

	stopped chan struct{}
}

// NewHub creates a hub around router.
func NewHub(router *classroom.Router, logger zerolog.Logger, opts Options) *Hub {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	h := &Hub{
		router:     router,
		log:        logger,
		opts:       opts,
		clients:    make(map[classroom.ParticipantID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		exec:       make(chan func(*classroom.Router)),
		stopped:    make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run starts the hub's event loop and blocks until ctx is cancelled. On
// return every client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case frame := <-h.inbound:
			if frame.client.closed {
				continue
			}
			h.router.HandleFrame(frame.client, frame.data)

		case fn := <-h.exec:
			fn(h.router)

		case <-ctx.Done():
			return
		}
	}
}

// ServeWS upgrades the request and attaches a new client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.opts.SendBuffer),
		id:   classroom.ParticipantID(uuid.NewString()),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Do runs fn on the event loop and waits for it to finish.
func (h *Hub) Do(ctx context.Context, fn func(*classroom.Router)) error {
	done := make(chan struct{})
	task := func(r *classroom.Router) {
		defer close(done)
		fn(r)
	}

	select {
	case h.exec <- task:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Roster returns the current classroom roster. Results travel over
// buffered channels so a caller that gives up never shares memory with the
// event loop.
func (h *Hub) Roster(ctx context.Context) (classroom.Roster, error) {
	result := make(chan classroom.Roster, 1)
	if err := h.Do(ctx, func(r *classroom.Router) {
		result <- r.Roster()
	}); err != nil {
		return classroom.Roster{}, err
	}
	return <-result, nil
}

// GrantControl hands control to target on behalf of an operator.
func (h *Hub) GrantControl(ctx context.Context, target classroom.ParticipantID) error {
	result := make(chan error, 1)
	if err := h.Do(ctx, func(r *classroom.Router) {
		result <- r.GrantControl(target)
	}); err != nil {
		return err
	}
	return <-result
}

// RevokeControl clears control on behalf of an operator and reports whether
// anyone held it.
func (h *Hub) RevokeControl(ctx context.Context) (bool, error) {
	result := make(chan bool, 1)
	if err := h.Do(ctx, func(r *classroom.Router) {
		result <- r.RevokeControl()
	}); err != nil {
		return false, err
	}
	return <-result, nil
}

// registerClient tracks a freshly upgraded connection. It has no
// participant until it sends a join.
func (h *Hub) registerClient(client *Client) {
	h.clients[client.id] = client
	metrics.RecordConnectionOpened()

	h.log.Info().Str("conn", string(client.id)).Int("clients", len(h.clients)).Msg("Client connected")
}

// unregisterClient removes a client and lets the router forget it.
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)
	client.closeSend()
	metrics.RecordConnectionClosed()

	h.router.Disconnect(client.id)

	h.log.Info().Str("conn", string(client.id)).Int("clients", len(h.clients)).Msg("Client disconnected")
}

func (h *Hub) shutdown() {
	close(h.stopped)
	for _, client := range h.clients {
		client.closeSend()
		metrics.RecordConnectionClosed()
	}
	h.clients = make(map[classroom.ParticipantID]*Client)
	h.log.Info().Msg("Hub stopped")
}

// checkOrigin allows requests without an Origin header (non-browser
// clients) and, when AllowedOrigins is set, browsers from those origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	return false
}
