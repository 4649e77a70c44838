package handler

import (
	"fmt"
	"net/http"
	"testing"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"
)

func TestLeaderboardOrderingAndExclusion(t *testing.T) {
	router := setupTest(t)

	points := []int{40, 120, 0, 75}
	for i, p := range points {
		user, _ := createUser(t, fmt.Sprintf("ranked-%d", i), models.RolePlayer)
		err := database.DB.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"total_points":       p,
				"games_played_count": 3,
				"games_won_count":    1,
			}).Error
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	// Public endpoint, no token required.
	w := doRequest(router, http.MethodGet, "/api/v1/leaderboard", "", nil)
	wantStatus(t, w, http.StatusOK)

	var entries []LeaderboardEntry
	decodeBody(t, w, &entries)

	if len(entries) != 3 {
		t.Fatalf("entry count = %d, want 3 (zero-point users excluded)", len(entries))
	}
	wantOrder := []string{"ranked-1", "ranked-3", "ranked-0"}
	for i, want := range wantOrder {
		if entries[i].Username != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Username, want)
		}
	}
	if entries[0].TotalPoints != 120 || entries[0].GamesPlayedCount != 3 || entries[0].GamesWonCount != 1 {
		t.Errorf("top entry aggregates = %+v, want 120/3/1", entries[0])
	}
}

func TestLeaderboardCap(t *testing.T) {
	router := setupTest(t)

	for i := 0; i < leaderboardSize+5; i++ {
		user, _ := createUser(t, fmt.Sprintf("bulk-%d", i), models.RolePlayer)
		err := database.DB.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("total_points", i+1).Error
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	w := doRequest(router, http.MethodGet, "/api/v1/leaderboard", "", nil)
	wantStatus(t, w, http.StatusOK)

	var entries []LeaderboardEntry
	decodeBody(t, w, &entries)

	if len(entries) != leaderboardSize {
		t.Fatalf("entry count = %d, want the cap of %d", len(entries), leaderboardSize)
	}
	// Highest totals survive the cut.
	if entries[0].TotalPoints != leaderboardSize+5 {
		t.Errorf("top points = %d, want %d", entries[0].TotalPoints, leaderboardSize+5)
	}
	if entries[len(entries)-1].TotalPoints != 6 {
		t.Errorf("last points = %d, want 6", entries[len(entries)-1].TotalPoints)
	}
}
