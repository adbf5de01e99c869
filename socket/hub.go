package socket

import (
	"context"
	"encoding/json"
	"sync"

	"yanote/internal/note/model"
	"yanote/pkg/logger"
)

const broadcastBuffer = 256

type Hub struct {
	// Rooms holds the open connections of each user.
	Rooms      map[int64]map[*Client]bool
	Broadcast  chan model.NoteEvent
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[int64]map[*Client]bool),
		Broadcast:  make(chan model.NoteEvent, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Publish queues event for the author's connections. It never blocks the
// caller; when the queue is full the event is dropped.
func (h *Hub) Publish(event model.NoteEvent) {
	select {
	case h.Broadcast <- event:
	default:
		logger.Sugar.Warnf("Hub broadcast queue full, dropping %s for user %d", event.Type, event.AuthorID)
	}
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

// Run dispatches events until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()
			logger.Sugar.Debugf("User %d connected to the note feed", client.UserID)

		case client := <-h.Unregister:
			h.remove(client)

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling note event: %v", err)
				continue
			}

			// Collect recipients under the lock, send outside of it.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[event.AuthorID]))
			for client := range h.Rooms[event.AuthorID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// If the send buffer is full, the client is lagging.
					logger.Sugar.Warnf("Client of user %d has a full send buffer. Dropping it.", client.UserID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Rooms[client.UserID][client]; ok {
		delete(h.Rooms[client.UserID], client)
		close(client.Send)
		if len(h.Rooms[client.UserID]) == 0 {
			delete(h.Rooms, client.UserID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
		}
		delete(h.Rooms, userID)
	}
}
