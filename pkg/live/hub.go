// Package live fans verdicts of running sessions out to websocket clients.
package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"github.com/sirupsen/logrus"
)

//Message is the envelope of everything written to a client
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

//Hub keeps the connected clients and broadcasts to them. It implements stream.Sink.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{} //closed when Run returns
	mu         sync.RWMutex
	log        *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		log:        logrus.WithField("component", "live"),
	}
}

//Run serves register, unregister and broadcast requests until ctx is done.
//A hub is run once, connections arriving after it stopped are closed right away.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Infof("client %s connected, %d total", c.id, count)

			if b, err := json.Marshal(Message{Type: "welcome", Timestamp: time.Now(), Data: map[string]string{"clientId": c.id}}); err == nil {
				c.trySend(b)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Infof("client %s disconnected, %d total", c.id, len(h.clients))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.trySend(msg) {
					//slow client, drop it
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

//Publish queues e for every client. It never blocks the live loop: when the queue is full the event is dropped.
func (h *Hub) Publish(_ context.Context, e stream.Event) error {
	b, err := json.Marshal(Message{Type: "verdict", Timestamp: e.At, Data: e})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- b:
	default:
		h.log.Warn("Publish: broadcast queue full, dropping verdict")
	}
	return nil
}

//ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
