package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"quizclash/backend/internal/auth"
	"quizclash/backend/internal/config"
	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"
	"quizclash/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// setupTest wires the handler package to a fresh in-memory database and
// returns a router with the production route table.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "handler-test-secret"}

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	database.DB = db
	database.RDB = nil

	return newTestRouter()
}

func newTestRouter() *gin.Engine {
	router := gin.New()

	apiV1 := router.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	authRoutes.POST("/register", RegisterUser)
	authRoutes.POST("/login", LoginUser)
	authRoutes.POST("/guest", GuestLogin)

	apiV1.GET("/leaderboard", GetLeaderboard)
	apiV1.GET("/topics", GetTopics)

	userRoutes := apiV1.Group("/users")
	userRoutes.Use(auth.AuthMiddleware())
	userRoutes.GET("/me", GetMe)

	topicRoutes := apiV1.Group("/topics")
	topicRoutes.Use(auth.AuthMiddleware(), auth.EditorMiddleware())
	topicRoutes.POST("", CreateTopic)
	topicRoutes.PUT("/:id", UpdateTopic)
	topicRoutes.DELETE("/:id", DeleteTopic)

	questionRoutes := apiV1.Group("/questions")
	questionRoutes.Use(auth.AuthMiddleware())
	questionRoutes.GET("", GetQuestions)
	editorQuestionRoutes := questionRoutes.Group("")
	editorQuestionRoutes.Use(auth.EditorMiddleware())
	editorQuestionRoutes.POST("", CreateQuestion)
	editorQuestionRoutes.PUT("/:id", UpdateQuestion)
	editorQuestionRoutes.DELETE("/:id", DeleteQuestion)

	gameRoutes := apiV1.Group("/games")
	gameRoutes.Use(auth.AuthMiddleware())
	gameRoutes.GET("", GetGames)
	gameRoutes.GET("/:id", GetGameByID)
	gameRoutes.DELETE("/:id", DeleteGame)
	gameRoutes.POST("/:id/start", StartGame)
	gameRoutes.POST("/:id/select-question", SelectQuestion)
	gameRoutes.POST("/:id/answer", SubmitAnswer)
	gameRoutes.GET("/:id/ws", GameEvents)
	editorGameRoutes := gameRoutes.Group("")
	editorGameRoutes.Use(auth.EditorMiddleware())
	editorGameRoutes.POST("", CreateGame)
	editorGameRoutes.POST("/:id/duplicate", DuplicateGame)

	playerRoutes := apiV1.Group("/players")
	playerRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
	playerRoutes.GET("", GetPlayers)
	playerRoutes.PUT("/:id", UpdatePlayerRole)
	playerRoutes.DELETE("/:id", DeletePlayer)

	return router
}

// createUser inserts a user directly and returns it with a valid token.
func createUser(t *testing.T, username string, role models.Role) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("generate token for %s: %v", username, err)
	}
	return user, token
}

// createQuestion inserts a question with four answers; the first one is
// correct.
func createQuestion(t *testing.T, topicID uint, difficulty int) models.Question {
	t.Helper()

	question := models.Question{
		TopicID:    topicID,
		Text:       fmt.Sprintf("question d%d #%d", difficulty, atomic.AddInt64(&testDBCounter, 1)),
		Difficulty: difficulty,
		Language:   "en",
		Answers: []models.Answer{
			{Text: "right", Correct: true, Plausibility: 1},
			{Text: "wrong a", Plausibility: 2},
			{Text: "wrong b", Plausibility: 3},
			{Text: "wrong c", Plausibility: 4},
		},
	}
	if err := database.DB.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return question
}

func createTopic(t *testing.T, text string) models.Topic {
	t.Helper()

	topic := models.Topic{Text: text}
	if err := database.DB.Create(&topic).Error; err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return topic
}

// doRequest performs a JSON request against the test router.
func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
