package handler

import (
	"net/http"
	"strconv"
	"time"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/game"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

type CreateGameInput struct {
	Name        string `json:"name" binding:"required"`
	Language    string `json:"language" binding:"required"`
	PlayerIDs   []uint `json:"player_ids" binding:"required"`
	QuestionIDs []uint `json:"question_ids" binding:"required"`
}

type GamePlayerResponse struct {
	ID    uint         `json:"id"`
	Score int          `json:"score"`
	User  UserResponse `json:"user"`
}

type GameQuestionResponse struct {
	ID       uint             `json:"id"`
	IsPlayed bool             `json:"is_played"`
	Question QuestionResponse `json:"question"`
}

type GameResponse struct {
	ID                 uint                   `json:"id"`
	CreatedAt          time.Time              `json:"created_at"`
	Name               string                 `json:"name"`
	Language           string                 `json:"language"`
	OwnerID            uint                   `json:"owner_id"`
	Status             models.GameStatus      `json:"status"`
	CurrentTurnIndex   int                    `json:"current_turn_index"`
	SelectedQuestionID *uint                  `json:"selected_question_id"`
	CurrentPlayerID    *uint                  `json:"current_player_id"`
	Players            []GamePlayerResponse   `json:"players"`
	Questions          []GameQuestionResponse `json:"questions"`
}

// GameSummaryResponse is the lighter shape used in game lists.
type GameSummaryResponse struct {
	ID               uint                 `json:"id"`
	CreatedAt        time.Time            `json:"created_at"`
	Name             string               `json:"name"`
	Language         string               `json:"language"`
	OwnerID          uint                 `json:"owner_id"`
	Status           models.GameStatus    `json:"status"`
	CurrentTurnIndex int                  `json:"current_turn_index"`
	QuestionCount    int                  `json:"question_count"`
	Players          []GamePlayerResponse `json:"players"`
}

func newGamePlayerResponse(player models.GamePlayer) GamePlayerResponse {
	return GamePlayerResponse{
		ID:    player.ID,
		Score: player.Score,
		User:  newUserResponse(player.User),
	}
}

func newGameResponse(g models.Game) GameResponse {
	players := make([]GamePlayerResponse, 0, len(g.Players))
	for _, player := range g.Players {
		players = append(players, newGamePlayerResponse(player))
	}

	questions := make([]GameQuestionResponse, 0, len(g.Questions))
	for _, gq := range g.Questions {
		questions = append(questions, GameQuestionResponse{
			ID:       gq.ID,
			IsPlayed: gq.IsPlayed,
			Question: newQuestionResponse(gq.Question),
		})
	}

	// The acting player is derived, never stored.
	var currentPlayerID *uint
	if idx := game.CurrentPlayerIndex(g.CurrentTurnIndex, len(g.Players)); idx >= 0 {
		currentPlayerID = &g.Players[idx].UserID
	}

	return GameResponse{
		ID:                 g.ID,
		CreatedAt:          g.CreatedAt,
		Name:               g.Name,
		Language:           g.Language,
		OwnerID:            g.OwnerID,
		Status:             g.Status,
		CurrentTurnIndex:   g.CurrentTurnIndex,
		SelectedQuestionID: g.SelectedQuestionID,
		CurrentPlayerID:    currentPlayerID,
		Players:            players,
		Questions:          questions,
	}
}

func newGameSummaryResponse(g models.Game) GameSummaryResponse {
	players := make([]GamePlayerResponse, 0, len(g.Players))
	for _, player := range g.Players {
		players = append(players, newGamePlayerResponse(player))
	}

	return GameSummaryResponse{
		ID:               g.ID,
		CreatedAt:        g.CreatedAt,
		Name:             g.Name,
		Language:         g.Language,
		OwnerID:          g.OwnerID,
		Status:           g.Status,
		CurrentTurnIndex: g.CurrentTurnIndex,
		QuestionCount:    len(g.Questions),
		Players:          players,
	}
}

// loadGame fetches a game with its full relation tree. Players are loaded in
// ascending id order, which fixes the round-robin turn order.
func loadGame(db *gorm.DB, id uint) (models.Game, error) {
	var g models.Game
	err := db.
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_players.id asc")
		}).
		Preload("Players.User").
		Preload("Questions.Question.Topic").
		Preload("Questions.Question.Answers").
		First(&g, id).Error
	return g, err
}

// endregion

// region --- Handlers ---

// CreateGame godoc
// @Summary      Create a new game
// @Description  Creates a game with a fixed roster and question pool. The number of questions must be divisible by the number of players.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateGameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse "Validation failure"
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Router       /games [post]
func CreateGame(c *gin.Context) {
	owner, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(input.PlayerIDs) == 0 || len(input.QuestionIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one player and one question required"})
		return
	}

	if len(input.QuestionIDs)%len(input.PlayerIDs) != 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Number of questions must be divisible by number of players"})
		return
	}

	var playerCount int64
	database.DB.Model(&models.User{}).Where("id IN ?", input.PlayerIDs).Count(&playerCount)
	if playerCount != int64(len(input.PlayerIDs)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "One or more players do not exist"})
		return
	}

	var questionCount int64
	database.DB.Model(&models.Question{}).Where("id IN ?", input.QuestionIDs).Count(&questionCount)
	if questionCount != int64(len(input.QuestionIDs)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "One or more questions do not exist"})
		return
	}

	g := models.Game{
		Name:     input.Name,
		Language: input.Language,
		OwnerID:  owner.ID,
		Status:   models.StatusCreated,
	}
	for _, userID := range input.PlayerIDs {
		g.Players = append(g.Players, models.GamePlayer{UserID: userID})
	}
	for _, questionID := range input.QuestionIDs {
		g.Questions = append(g.Questions, models.GameQuestion{QuestionID: questionID})
	}

	// Game, players and questions are inserted together.
	if err := database.DB.Create(&g).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	g, err := loadGame(database.DB, g.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(g))
}

// GetGames godoc
// @Summary      List games
// @Description  Admins see every game; other users see games they own or play in. Newest first.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(20)
// @Success      200  {object}  PaginatedResponse[GameSummaryResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /games [get]
func GetGames(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)

	query := database.DB.
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_players.id asc")
		}).
		Preload("Players.User").
		Preload("Questions").
		Order("created_at desc")

	if viewer.Role != models.RoleAdmin {
		query = query.Where(
			"owner_id = ? OR id IN (?)",
			viewer.ID,
			database.DB.Model(&models.GamePlayer{}).Select("game_id").Where("user_id = ?", viewer.ID),
		)
	}

	response, err := paginate(query, page, limit, newGameSummaryResponse)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetGameByID godoc
// @Summary      Get a game
// @Description  Retrieves a game with its players, questions and answers. Restricted to its players, owner or an admin.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not a participant"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func GetGameByID(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	g, err := loadGame(database.DB, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if !canViewGame(g, viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this game"})
		return
	}

	c.JSON(http.StatusOK, newGameResponse(g))
}

func canViewGame(g models.Game, viewer models.User) bool {
	if viewer.Role == models.RoleAdmin || g.OwnerID == viewer.ID {
		return true
	}
	for _, player := range g.Players {
		if player.UserID == viewer.ID {
			return true
		}
	}
	return false
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes a game and its players/questions. Owner or admin only.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      200  {object}  map[string]string "{"message": "Game deleted"}"
// @Failure      403  {object}  ErrorResponse "Not the owner"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [delete]
func DeleteGame(c *gin.Context) {
	viewer, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	// A delete is a transition like any other: it must not interleave with
	// an in-flight start/select/answer on the same game.
	game.Locks.Lock(uint(id))
	defer game.Locks.Unlock(uint(id))

	var g models.Game
	if err := database.DB.First(&g, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	if g.OwnerID != viewer.ID && viewer.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an admin can delete a game"})
		return
	}

	// The game owns its player and question rows; remove them with it.
	tx := database.DB.Begin()
	if err := tx.Where("game_id = ?", g.ID).Delete(&models.GamePlayer{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	if err := tx.Where("game_id = ?", g.ID).Delete(&models.GameQuestion{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	if err := tx.Delete(&g).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}
	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

// DuplicateGame godoc
// @Summary      Duplicate a game
// @Description  Copies a game's question set into a new CREATED game owned by the caller, with the caller as the sole player.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Game ID"
// @Success      201  {object}  GameResponse
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id}/duplicate [post]
func DuplicateGame(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	var original models.Game
	if err := database.DB.Preload("Questions").First(&original, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	duplicate := models.Game{
		Name:     original.Name + " (Copy)",
		Language: original.Language,
		OwnerID:  caller.ID,
		Status:   models.StatusCreated,
		Players:  []models.GamePlayer{{UserID: caller.ID}},
	}
	for _, gq := range original.Questions {
		duplicate.Questions = append(duplicate.Questions, models.GameQuestion{QuestionID: gq.QuestionID})
	}

	if err := database.DB.Create(&duplicate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to duplicate game"})
		return
	}

	duplicate, err = loadGame(database.DB, duplicate.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(duplicate))
}

// endregion
