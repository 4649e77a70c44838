package handler

import (
	"log"
	"net/http"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GameEvents godoc
// @Summary      Subscribe to a game's event feed
// @Description  Upgrades to a websocket and streams game events (game_started, question_selected, answer_submitted, game_ended).
// @Tags         play
// @Security     BearerAuth
// @Param        id   path  int  true  "Game ID"
// @Success      101  {string}  string "Switching Protocols"
// @Failure      403  {object}  ErrorResponse "Not a participant"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id}/ws [get]
func GameEvents(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	g, err := loadGame(database.DB, gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if !canViewGame(g, viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this game"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket for game %d: %v", gameID, err)
		return
	}
	defer conn.Close()

	client := hub.NewClient()
	hub.GlobalHub.Subscribe(gameID, client)
	defer hub.GlobalHub.Unsubscribe(gameID, client)

	// Drain (and discard) reads so client close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case message, ok := <-client:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
