package handler

import (
	"net/http"
	"strconv"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/game"
	"quizclash/backend/internal/hub"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

type SelectQuestionInput struct {
	QuestionID uint `json:"question_id" binding:"required"`
}

type SubmitAnswerInput struct {
	AnswerID uint `json:"answer_id" binding:"required"`
}

// AnswerResult reveals the outcome of a submission. The correct answer's id
// is always included, win or lose.
type AnswerResult struct {
	Correct   bool   `json:"correct"`
	Choice    string `json:"choice"`
	CorrectID uint   `json:"correct_id"`
}

// endregion

func gameIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return 0, false
	}
	return uint(id), true
}

// actingPlayer resolves the player whose turn it is. The players slice must
// be ordered by ascending id.
func actingPlayer(g models.Game) *models.GamePlayer {
	idx := game.CurrentPlayerIndex(g.CurrentTurnIndex, len(g.Players))
	if idx < 0 {
		return nil
	}
	return &g.Players[idx]
}

// StartGame godoc
// @Summary      Start a game
// @Description  Moves a CREATED game to STARTED. Owner or admin only.
// @Tags         play
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse "Game already started or ended"
// @Failure      403  {object}  ErrorResponse "Not the owner"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id}/start [post]
func StartGame(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	game.Locks.Lock(gameID)
	defer game.Locks.Unlock(gameID)

	g, err := loadGame(database.DB, gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if g.OwnerID != caller.ID && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can start a game"})
		return
	}

	if g.Status != models.StatusCreated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game already started or ended"})
		return
	}

	if err := database.DB.Model(&g).Update("status", models.StatusStarted).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start game"})
		return
	}
	g.Status = models.StatusStarted

	hub.GlobalHub.Broadcast(g.ID, hub.Event{
		Type:    hub.EventGameStarted,
		Payload: gin.H{"game_id": g.ID},
	})

	c.JSON(http.StatusOK, newGameResponse(g))
}

// SelectQuestion godoc
// @Summary      Select the next question
// @Description  Sets the game's current question. Only the acting player (or an admin) may select, and only while no question is pending.
// @Tags         play
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true "Game ID"
// @Param        input body      SelectQuestionInput true "Question selection"
// @Success      200  {object}  map[string]string "{"message": "Question selected"}"
// @Failure      400  {object}  ErrorResponse "Wrong state or question already played"
// @Failure      403  {object}  ErrorResponse "Not your turn"
// @Failure      404  {object}  ErrorResponse "Game or question not found"
// @Router       /games/{id}/select-question [post]
func SelectQuestion(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var input SelectQuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game.Locks.Lock(gameID)
	defer game.Locks.Unlock(gameID)

	g, err := loadGame(database.DB, gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if g.Status != models.StatusStarted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game is not in STARTED state"})
		return
	}

	if g.SelectedQuestionID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A question is already selected"})
		return
	}

	player := actingPlayer(g)
	if player == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No players in this game"})
		return
	}

	if player.UserID != caller.ID && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "It is not your turn"})
		return
	}

	var gameQuestion models.GameQuestion
	err = database.DB.
		Where("game_id = ? AND question_id = ?", g.ID, input.QuestionID).
		First(&gameQuestion).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not in this game"})
		return
	}

	if gameQuestion.IsPlayed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question already played"})
		return
	}

	if err := database.DB.Model(&g).Update("selected_question_id", input.QuestionID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to select question"})
		return
	}

	hub.GlobalHub.Broadcast(g.ID, hub.Event{
		Type: hub.EventQuestionSelected,
		Payload: gin.H{
			"game_id":     g.ID,
			"question_id": input.QuestionID,
			"user_id":     player.UserID,
		},
	})

	c.JSON(http.StatusOK, gin.H{"message": "Question selected"})
}

// SubmitAnswer godoc
// @Summary      Answer the selected question
// @Description  Records the acting player's answer, scores it, advances the turn and ends the game when the pool is exhausted.
// @Tags         play
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int               true "Game ID"
// @Param        input body      SubmitAnswerInput true "Answer submission"
// @Success      200  {object}  AnswerResult
// @Failure      400  {object}  ErrorResponse "No question selected or answer mismatch"
// @Failure      403  {object}  ErrorResponse "Not your turn"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id}/answer [post]
func SubmitAnswer(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var input SubmitAnswerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game.Locks.Lock(gameID)
	defer game.Locks.Unlock(gameID)

	g, err := loadGame(database.DB, gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if g.SelectedQuestionID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No question selected"})
		return
	}
	selectedQuestionID := *g.SelectedQuestionID

	player := actingPlayer(g)
	if player == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No players in this game"})
		return
	}

	if player.UserID != caller.ID && caller.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "It is not your turn"})
		return
	}

	var answer models.Answer
	if err := database.DB.First(&answer, input.AnswerID).Error; err != nil || answer.QuestionID != selectedQuestionID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer does not belong to the selected question"})
		return
	}

	var question models.Question
	if err := database.DB.First(&question, selectedQuestionID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load question"})
		return
	}

	// One question remains "unplayed" in the loaded snapshot: the one being
	// answered right now. The game ends when it was the last one.
	remaining := 0
	for _, gq := range g.Questions {
		if !gq.IsPlayed && gq.QuestionID != selectedQuestionID {
			remaining++
		}
	}
	newStatus := models.StatusStarted
	if remaining == 0 {
		newStatus = models.StatusEnded
	}

	scoreIncrement := 0
	if answer.Correct {
		scoreIncrement = game.Points(question.Difficulty)
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		playerAnswer := models.PlayerAnswer{
			GameID:     g.ID,
			UserID:     player.UserID,
			QuestionID: selectedQuestionID,
			AnswerID:   answer.ID,
		}
		if err := tx.Create(&playerAnswer).Error; err != nil {
			return err
		}

		if scoreIncrement > 0 {
			err := tx.Model(&models.GamePlayer{}).
				Where("id = ?", player.ID).
				Update("score", gorm.Expr("score + ?", scoreIncrement)).Error
			if err != nil {
				return err
			}
		}

		err := tx.Model(&models.GameQuestion{}).
			Where("game_id = ? AND question_id = ?", g.ID, selectedQuestionID).
			Update("is_played", true).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.Game{}).
			Where("id = ?", g.ID).
			Updates(map[string]interface{}{
				"selected_question_id": nil,
				"current_turn_index":   gorm.Expr("current_turn_index + ?", 1),
				"status":               newStatus,
			}).Error
		if err != nil {
			return err
		}

		if newStatus == models.StatusEnded {
			return aggregateGameStats(tx, g.ID)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit answer"})
		return
	}

	if newStatus == models.StatusEnded {
		invalidateLeaderboardCache(c.Request.Context())
	}

	hub.GlobalHub.Broadcast(g.ID, hub.Event{
		Type: hub.EventAnswerSubmitted,
		Payload: gin.H{
			"game_id":     g.ID,
			"user_id":     player.UserID,
			"question_id": selectedQuestionID,
			"correct":     answer.Correct,
			"points":      scoreIncrement,
		},
	})
	if newStatus == models.StatusEnded {
		hub.GlobalHub.Broadcast(g.ID, hub.Event{
			Type:    hub.EventGameEnded,
			Payload: gin.H{"game_id": g.ID},
		})
	}

	correctID := answer.ID
	if !answer.Correct {
		var correctAnswer models.Answer
		if err := database.DB.Where("question_id = ? AND correct = ?", selectedQuestionID, true).First(&correctAnswer).Error; err == nil {
			correctID = correctAnswer.ID
		}
	}

	c.JSON(http.StatusOK, AnswerResult{
		Correct:   answer.Correct,
		Choice:    answer.Text,
		CorrectID: correctID,
	})
}

// aggregateGameStats folds a finished game's final scores into each player's
// lifetime totals. Every player sharing the maximum score is credited a win.
// Runs exactly once per game, on the single STARTED -> ENDED edge.
func aggregateGameStats(tx *gorm.DB, gameID uint) error {
	var finalPlayers []models.GamePlayer
	if err := tx.Where("game_id = ?", gameID).Find(&finalPlayers).Error; err != nil {
		return err
	}

	scores := make([]int, 0, len(finalPlayers))
	for _, player := range finalPlayers {
		scores = append(scores, player.Score)
	}
	maxScore := game.MaxScore(scores)

	for _, player := range finalPlayers {
		wonIncrement := 0
		if player.Score == maxScore {
			wonIncrement = 1
		}

		err := tx.Model(&models.User{}).
			Where("id = ?", player.UserID).
			Updates(map[string]interface{}{
				"games_played_count": gorm.Expr("games_played_count + ?", 1),
				"total_points":       gorm.Expr("total_points + ?", player.Score),
				"games_won_count":    gorm.Expr("games_won_count + ?", wonIncrement),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
