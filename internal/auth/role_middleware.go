package auth

import (
	"net/http"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware creates a gin middleware to check for the ADMIN role.
// It must be used AFTER the standard AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return requireRole(func(role models.Role) bool {
		return role == models.RoleAdmin
	}, "Admin access required")
}

// EditorMiddleware allows editors and admins through; plain players are
// rejected. It must be used AFTER the standard AuthMiddleware.
func EditorMiddleware() gin.HandlerFunc {
	return requireRole(func(role models.Role) bool {
		return role != models.RolePlayer
	}, "Editor access required")
}

func requireRole(allowed func(models.Role) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
			return
		}

		if !allowed(user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}

		c.Next()
	}
}
