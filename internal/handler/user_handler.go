package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"
	"quizclash/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Username string `json:"username" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// GuestInput defines the structure for guest login.
type GuestInput struct {
	Username string `json:"username" binding:"required" example:"guest42"`
}

// UpdateRoleInput defines the structure for an admin role change.
type UpdateRoleInput struct {
	Role models.Role `json:"role" binding:"required" example:"EDITOR"`
}

// UserResponse defines the structure for a user's public profile.
type UserResponse struct {
	ID       uint        `json:"id" example:"1"`
	Username string      `json:"username" example:"testuser"`
	Image    string      `json:"image"`
	Role     models.Role `json:"role" example:"PLAYER"`
	IsGuest  bool        `json:"is_guest"`
}

// ProfileResponse defines the structure for the authenticated user's own
// profile, including lifetime aggregates.
type ProfileResponse struct {
	ID               uint        `json:"id" example:"1"`
	Username         string      `json:"username" example:"testuser"`
	Image            string      `json:"image"`
	Role             models.Role `json:"role" example:"PLAYER"`
	IsGuest          bool        `json:"is_guest"`
	TotalPoints      int         `json:"total_points"`
	GamesPlayedCount int         `json:"games_played_count"`
	GamesWonCount    int         `json:"games_won_count"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Image:    user.Image,
		Role:     user.Role,
		IsGuest:  user.IsGuest,
	}
}

func newProfileResponse(user models.User) ProfileResponse {
	return ProfileResponse{
		ID:               user.ID,
		Username:         user.Username,
		Image:            user.Image,
		Role:             user.Role,
		IsGuest:          user.IsGuest,
		TotalPoints:      user.TotalPoints,
		GamesPlayedCount: user.GamesPlayedCount,
		GamesWonCount:    user.GamesWonCount,
	}
}

func avatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username)
}

// currentUser loads the authenticated user set by the auth middleware.
// Writes the error response itself when the lookup fails.
func currentUser(c *gin.Context) (models.User, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.User{}, false
	}

	var user models.User
	if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
		return models.User{}, false
	}
	return user, true
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new PLAYER user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Username already taken"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existingUser models.User
	if err := database.DB.Where("username = ?", input.Username).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlayer,
		Image:        avatarURL(input.Username),
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Guest and OAuth accounts carry no credential.
	if user.PasswordHash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account has no password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GuestLogin godoc
// @Summary      Log in as a guest
// @Description  Creates (or reuses) a guest user for the given name and returns a token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body GuestInput true "Guest Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Name belongs to a registered user"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/guest [post]
func GuestLogin(c *gin.Context) {
	var input GuestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := database.DB.Where("username = ?", input.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	if err == nil && !user.IsGuest {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken by a registered user"})
		return
	}

	if err != nil {
		user = models.User{
			Username: input.Username,
			Role:     models.RolePlayer,
			IsGuest:  true,
			Image:    avatarURL(input.Username),
		}
		if err := database.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest user"})
			return
		}
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetMe godoc
// @Summary      Get current user's profile
// @Description  Retrieves the profile and lifetime stats of the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

// endregion

// region --- Admin Player Handlers ---

// GetPlayers godoc
// @Summary      List all users
// @Description  Retrieves every user in the system, ordered by username.
// @Tags         admin-players
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   UserResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /players [get]
func GetPlayers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, newUserResponse(user))
	}
	c.JSON(http.StatusOK, response)
}

// UpdatePlayerRole godoc
// @Summary      Change a user's role
// @Description  Sets a user's role to ADMIN, EDITOR or PLAYER.
// @Tags         admin-players
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true "User ID"
// @Param        input body      UpdateRoleInput true "New role"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /players/{id} [put]
func UpdatePlayerRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch input.Role {
	case models.RoleAdmin, models.RoleEditor, models.RolePlayer:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := database.DB.Model(&user).Update("role", input.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// DeletePlayer godoc
// @Summary      Delete a user
// @Description  Deletes a user. Self-deletion and removing the last admin are rejected.
// @Tags         admin-players
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]string "{"message": "User deleted"}"
// @Failure      400  {object}  ErrorResponse "Cannot delete yourself or the last admin"
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /players/{id} [delete]
func DeletePlayer(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if uint(id) == viewerID.(uint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// At least one admin must remain in the system.
	if user.Role == models.RoleAdmin {
		var adminCount int64
		database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
		if adminCount <= 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the last admin"})
			return
		}
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// endregion
