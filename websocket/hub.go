package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// The hub pushes per-user events (certificate issued, attempt graded) to
// connected clients. One connection per user; a newer connection replaces the
// older one.

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

type Event struct {
	UserID  uuid.UUID   `json:"-"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventCertificateIssued = "certificate.issued"
	EventAttemptGraded     = "attempt.graded"
)

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var events = make(chan Event, 64)

// NotifyUser queues an event for delivery. Sends never block request
// handlers; if the buffer is full the event is dropped.
func NotifyUser(userID uuid.UUID, eventType string, payload interface{}) {
	select {
	case events <- Event{UserID: userID, Type: eventType, Payload: payload}:
	default:
		log.Printf("Event buffer full, dropping %s for user %s", eventType, userID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()

		case client := <-Unregister:
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()

		case event := <-events:
			clientsMu.RLock()
			conn, ok := clients[event.UserID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Error pushing %s to user %s: %v", event.Type, event.UserID, err)
				conn.Close()
				clientsMu.Lock()
				if cur, ok := clients[event.UserID]; ok && cur == conn {
					delete(clients, event.UserID)
				}
				clientsMu.Unlock()
			}
		}
	}
}
