// Package rollfeed broadcasts logged rolls to websocket subscribers, so a
// table display can follow the dice as they land.
package rollfeed

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"golang.org/x/net/websocket"
)

const (
	// maxHistory is how many recent rolls a new subscriber receives.
	maxHistory             = 20
	maxDecodeErrorsPerConn = 3

	// outboxSize is how many frames may wait for a slow subscriber.
	outboxSize = 64

	frameHistory = "roll.history"
	frameLogged  = "roll.logged"
	framePing    = "roll.ping"
	framePong    = "roll.pong"
	frameError   = "roll.error"
)

// Frame is the websocket envelope.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Roll is the wire form of one logged roll.
type Roll struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	Notation  string `json:"notation,omitempty"`
	Label     string `json:"label,omitempty"`
	Rolls     []int  `json:"rolls"`
	Modifier  int    `json:"modifier"`
	Total     int    `json:"total"`
	CreatedAt string `json:"created_at"`
}

type historyPayload struct {
	Rolls []Roll `json:"rolls"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type peer struct {
	conn      io.Closer
	out       chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(conn io.Closer) *peer {
	return &peer{
		conn: conn,
		out:  make(chan Frame, outboxSize),
		done: make(chan struct{}),
	}
}

// enqueue hands frame to the writer without blocking. It reports false when
// the peer is closed or its outbox is full.
func (p *peer) enqueue(frame Frame) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.out <- frame:
		return true
	default:
		return false
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if p.conn != nil {
			_ = p.conn.Close()
		}
	})
}

// writeLoop drains the outbox until the peer closes or a write fails.
func (p *peer) writeLoop(conn *websocket.Conn, timeout time.Duration) {
	defer p.close()
	encoder := json.NewEncoder(conn)
	for {
		select {
		case <-p.done:
			return
		case frame := <-p.out:
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return
			}
			if err := encoder.Encode(frame); err != nil {
				log.Printf("rollfeed: dropping subscriber: %v", err)
				return
			}
		}
	}
}

// Hub fans logged rolls out to every connected subscriber.
type Hub struct {
	mu           sync.Mutex
	history      []Roll
	subscribers  map[*peer]struct{}
	writeTimeout time.Duration
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers:  make(map[*peer]struct{}),
		writeTimeout: timeouts.FeedWrite,
	}
}

// Publish records the roll and queues it for current subscribers without
// waiting on any of them. A subscriber whose outbox is full is dropped.
func (h *Hub) Publish(record storage.RollRecord) {
	roll := toRoll(record)
	frame := Frame{Type: frameLogged, Payload: mustJSON(roll)}

	var lagging []*peer
	h.mu.Lock()
	h.history = append(h.history, roll)
	if len(h.history) > maxHistory {
		h.history = h.history[len(h.history)-maxHistory:]
	}
	for subscriber := range h.subscribers {
		if !subscriber.enqueue(frame) {
			delete(h.subscribers, subscriber)
			lagging = append(lagging, subscriber)
		}
	}
	h.mu.Unlock()

	for _, subscriber := range lagging {
		log.Printf("rollfeed: dropping subscriber that fell %d frames behind", outboxSize)
		subscriber.close()
	}
}

// Subscribers reports the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// join registers p and queues the history frame before any live roll.
func (h *Hub) join(p *peer) []Roll {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[p] = struct{}{}
	history := append([]Roll{}, h.history...)
	p.enqueue(Frame{Type: frameHistory, Payload: mustJSON(historyPayload{Rolls: history})})
	return history
}

func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	delete(h.subscribers, p)
	h.mu.Unlock()
}

// Handler serves the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	wsHandler := websocket.Handler(h.serveConn)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
}

func (h *Hub) serveConn(conn *websocket.Conn) {
	p := newPeer(conn)
	defer p.close()
	h.join(p)
	defer h.leave(p)
	go p.writeLoop(conn, h.writeTimeout)

	decoder := json.NewDecoder(conn)
	decodeErrors := 0
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) || isClosed(p) {
				return
			}
			decodeErrors++
			writeError(p, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				log.Printf("rollfeed: closing connection after %d decode errors: %v", decodeErrors, err)
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case framePing:
			p.enqueue(Frame{Type: framePong, RequestID: frame.RequestID})
		default:
			writeError(p, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func isClosed(p *peer) bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func writeError(p *peer, requestID, code, message string) {
	p.enqueue(Frame{
		Type:      frameError,
		RequestID: requestID,
		Payload:   mustJSON(errorPayload{Code: code, Message: message}),
	})
}

func toRoll(record storage.RollRecord) Roll {
	rolls := record.Rolls
	if rolls == nil {
		rolls = []int{}
	}
	return Roll{
		ID:        record.ID,
		Tool:      record.Tool,
		Notation:  record.Notation,
		Label:     record.Label,
		Rolls:     rolls,
		Modifier:  record.Modifier,
		Total:     record.Total,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
