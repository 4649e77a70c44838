package main

import (
	"fmt"
	"log"
	"net/http"

	"quizclash/backend/internal/auth"
	"quizclash/backend/internal/config"
	"quizclash/backend/internal/database"
	"quizclash/backend/internal/handler"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "quizclash/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Quizclash API
// @version         1.0
// @description     This is the API for the Quizclash trivia game service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database and cache
	database.Connect(config.AppConfig.DatabaseURL)
	database.ConnectRedis(config.AppConfig.RedisAddr)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
			authRoutes.POST("/guest", handler.GuestLogin)
		}

		// Public routes
		apiV1.GET("/leaderboard", handler.GetLeaderboard)
		apiV1.GET("/topics", handler.GetTopics)

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
		}

		// Content routes (protected; writes require editor or admin)
		topicRoutes := apiV1.Group("/topics")
		topicRoutes.Use(auth.AuthMiddleware(), auth.EditorMiddleware())
		{
			topicRoutes.POST("", handler.CreateTopic)
			topicRoutes.PUT("/:id", handler.UpdateTopic)
			topicRoutes.DELETE("/:id", handler.DeleteTopic)
		}

		questionRoutes := apiV1.Group("/questions")
		questionRoutes.Use(auth.AuthMiddleware())
		{
			questionRoutes.GET("", handler.GetQuestions)

			editorQuestionRoutes := questionRoutes.Group("")
			editorQuestionRoutes.Use(auth.EditorMiddleware())
			{
				editorQuestionRoutes.POST("", handler.CreateQuestion)
				editorQuestionRoutes.PUT("/:id", handler.UpdateQuestion)
				editorQuestionRoutes.DELETE("/:id", handler.DeleteQuestion)
			}
		}

		// Game routes (protected)
		gameRoutes := apiV1.Group("/games")
		gameRoutes.Use(auth.AuthMiddleware())
		{
			gameRoutes.GET("", handler.GetGames)
			gameRoutes.GET("/:id", handler.GetGameByID)
			gameRoutes.DELETE("/:id", handler.DeleteGame)

			// Turn engine transitions
			gameRoutes.POST("/:id/start", handler.StartGame)
			gameRoutes.POST("/:id/select-question", handler.SelectQuestion)
			gameRoutes.POST("/:id/answer", handler.SubmitAnswer)

			// Live event feed
			gameRoutes.GET("/:id/ws", handler.GameEvents)

			editorGameRoutes := gameRoutes.Group("")
			editorGameRoutes.Use(auth.EditorMiddleware())
			{
				editorGameRoutes.POST("", handler.CreateGame)
				editorGameRoutes.POST("/:id/duplicate", handler.DuplicateGame)
			}
		}

		// Admin routes (protected by auth and admin check)
		playerRoutes := apiV1.Group("/players")
		playerRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			playerRoutes.GET("", handler.GetPlayers)
			playerRoutes.PUT("/:id", handler.UpdatePlayerRole)
			playerRoutes.DELETE("/:id", handler.DeletePlayer)
		}
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ServerAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
