package daemon

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reelforge/internal/api"
	"reelforge/internal/logging"
)

const (
	subscriberBuffer = 64
	eventWriteWait   = 10 * time.Second
	eventPingPeriod  = 30 * time.Second
)

// eventHub fans job events out to websocket subscribers. Slow subscribers
// drop events rather than stalling renders.
type eventHub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	requestID string
	ch        chan api.Event
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[*subscriber]struct{})}
}

// subscribe registers a listener. An empty requestID receives every event.
func (h *eventHub) subscribe(requestID string) (*subscriber, func()) {
	sub := &subscriber{requestID: requestID, ch: make(chan api.Event, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub, func() {}
	}
	h.subs[sub] = struct{}{}
	return sub, func() { h.unsubscribe(sub) }
}

func (h *eventHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func (h *eventHub) publish(evt api.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.requestID != "" && sub.requestID != evt.RequestID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

func (h *eventHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEvents upgrades to a websocket and streams job events until either
// side closes. ?request_id= narrows the stream to one job.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Warn("event stream upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	sub, cancel := s.daemon.events.subscribe(r.URL.Query().Get("request_id"))
	defer cancel()

	// Reads only detect client close; clients never send payloads.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-sub.ch:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon stopping"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
