package notify

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/clock"
)

const writeWait = 10 * time.Second

// Message is the envelope written to websocket clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub events.
const (
	EventSnapshot = "snapshot"
	EventPost     = "reminder_posted"
	EventCancel   = "reminder_cancelled"
)

// Hub streams reminders to websocket clients and remembers the ones still
// shown, so it also answers which reminders are active.
type Hub struct {
	upgrader websocket.Upgrader
	clock    clock.Clock

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	active  map[int]Reminder
}

// NewHub returns an empty Hub.
func NewHub(c clock.Clock) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clock:   c,
		clients: make(map[*websocket.Conn]struct{}),
		active:  make(map[int]Reminder),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. The client first receives the active reminders.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	err = write(conn, Message{Event: EventSnapshot, Data: h.activeLocked()})
	if err == nil {
		h.clients[conn] = struct{}{}
	}
	n := len(h.clients)
	h.mu.Unlock()
	if err != nil {
		zap.S().Warnw("failed to send reminder snapshot", "error", err)
		conn.Close()
		return
	}
	zap.S().Debugw("reminder client connected", "remote", r.RemoteAddr, "clients", n)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Post implements Sink.
func (h *Hub) Post(id int, title, body string, count int) error {
	r := Reminder{ID: id, Title: title, Body: body, Count: count, PostedAt: h.clock.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.active[id] = r
	h.broadcastLocked(Message{Event: EventPost, Data: r})
	return nil
}

// Cancel implements Sink.
func (h *Hub) Cancel(id int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[id]; !ok {
		return nil
	}
	delete(h.active, id)
	h.broadcastLocked(Message{Event: EventCancel, Data: map[string]int{"id": id}})
	return nil
}

// Active returns the reminders currently shown, ordered by id.
func (h *Hub) Active() []Reminder {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeLocked()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) activeLocked() []Reminder {
	out := make([]Reminder, 0, len(h.active))
	for _, r := range h.active {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (h *Hub) broadcastLocked(msg Message) {
	for conn := range h.clients {
		if err := write(conn, msg); err != nil {
			zap.S().Warnw("dropping reminder client", "event", msg.Event, "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
