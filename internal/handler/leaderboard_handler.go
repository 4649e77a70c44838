package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardCacheKey = "leaderboard:top"
	leaderboardCacheTTL = 60 * time.Second
	leaderboardSize     = 50
)

// LeaderboardEntry is one row of the lifetime-points ranking.
type LeaderboardEntry struct {
	ID               uint   `json:"id"`
	Username         string `json:"username"`
	Image            string `json:"image"`
	TotalPoints      int    `json:"total_points"`
	GamesPlayedCount int    `json:"games_played_count"`
	GamesWonCount    int    `json:"games_won_count"`
}

// GetLeaderboard godoc
// @Summary      Get the leaderboard
// @Description  Retrieves the top 50 users by lifetime points. Served from a short-lived Redis cache when available.
// @Tags         leaderboard
// @Produce      json
// @Success      200  {array}   LeaderboardEntry
// @Router       /leaderboard [get]
func GetLeaderboard(c *gin.Context) {
	ctx := c.Request.Context()

	if entries, ok := leaderboardFromCache(ctx); ok {
		c.JSON(http.StatusOK, entries)
		return
	}

	var users []models.User
	err := database.DB.
		Where("total_points > 0").
		Order("total_points desc").
		Limit(leaderboardSize).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, LeaderboardEntry{
			ID:               user.ID,
			Username:         user.Username,
			Image:            user.Image,
			TotalPoints:      user.TotalPoints,
			GamesPlayedCount: user.GamesPlayedCount,
			GamesWonCount:    user.GamesWonCount,
		})
	}

	cacheLeaderboard(ctx, entries)
	c.JSON(http.StatusOK, entries)
}

// The cache is best effort: Redis being down or unset never fails the
// request, the database stays authoritative.

func leaderboardFromCache(ctx context.Context) ([]LeaderboardEntry, bool) {
	if database.RDB == nil {
		return nil, false
	}

	data, err := database.RDB.Get(ctx, leaderboardCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to read leaderboard cache: %v", err)
		}
		return nil, false
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		log.Printf("Failed to decode leaderboard cache: %v", err)
		return nil, false
	}
	return entries, true
}

func cacheLeaderboard(ctx context.Context, entries []LeaderboardEntry) {
	if database.RDB == nil {
		return
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return
	}

	if err := database.RDB.Set(ctx, leaderboardCacheKey, data, leaderboardCacheTTL).Err(); err != nil {
		log.Printf("Failed to store leaderboard cache: %v", err)
	}
}

// invalidateLeaderboardCache drops the cached ranking after an aggregation
// changes lifetime totals.
func invalidateLeaderboardCache(ctx context.Context) {
	if database.RDB == nil {
		return
	}

	if err := database.RDB.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate leaderboard cache: %v", err)
	}
}
