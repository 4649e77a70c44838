package hub

import (
	"encoding/json"
	"sync"
)

// Event types broadcast over a game's feed.
const (
	EventGameStarted      = "game_started"
	EventQuestionSelected = "question_selected"
	EventAnswerSubmitted  = "answer_submitted"
	EventGameEnded        = "game_ended"
)

// Event represents a real-time game event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single subscriber to a game's event feed.
// The websocket handler drains this channel into the connection.
type Client chan []byte

// NewClient returns a client channel with enough buffer to ride out a
// briefly slow reader without dropping events.
func NewClient() Client {
	return make(Client, 16)
}

// Hub manages the event feeds of all active games.
type Hub struct {
	games map[uint]map[Client]bool
	mu    sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		games: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a new client to a specific game's feed.
func (h *Hub) Subscribe(gameID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.games[gameID]; !ok {
		h.games[gameID] = make(map[Client]bool)
	}
	h.games[gameID][client] = true
}

// Unsubscribe removes a client from a game's feed.
func (h *Hub) Unsubscribe(gameID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.games[gameID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the reader to stop.
			if len(clients) == 0 {
				delete(h.games, gameID)
			}
		}
	}
}

// Broadcast sends an event to all clients subscribed to a game.
func (h *Hub) Broadcast(gameID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.games[gameID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return
	}

	for client := range clients {
		// Non-blocking send so a stalled client cannot block the hub.
		select {
		case client <- messageBytes:
		default:
		}
	}
}
