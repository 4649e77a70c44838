package handler

import (
	"fmt"
	"net/http"
	"testing"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	router := setupTest(t)

	w := doRequest(router, http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Username: "alice",
		Password: "password123",
	})
	wantStatus(t, w, http.StatusCreated)

	var body map[string]string
	decodeBody(t, w, &body)
	if body["token"] == "" {
		t.Fatal("expected a token in the register response")
	}

	// The token works against a protected route.
	w = doRequest(router, http.MethodGet, "/api/v1/users/me", body["token"], nil)
	wantStatus(t, w, http.StatusOK)

	var profile ProfileResponse
	decodeBody(t, w, &profile)
	if profile.Username != "alice" || profile.Role != models.RolePlayer {
		t.Errorf("profile = %+v, want alice with PLAYER role", profile)
	}

	// Same username again conflicts.
	w = doRequest(router, http.MethodPost, "/api/v1/auth/register", "", RegisterInput{
		Username: "alice",
		Password: "password123",
	})
	wantStatus(t, w, http.StatusConflict)

	// Login with the right and wrong password.
	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Username: "alice",
		Password: "password123",
	})
	wantStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Username: "alice",
		Password: "not-the-password",
	})
	wantStatus(t, w, http.StatusUnauthorized)

	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Username: "nobody",
		Password: "password123",
	})
	wantStatus(t, w, http.StatusNotFound)
}

func TestGuestLogin(t *testing.T) {
	router := setupTest(t)

	w := doRequest(router, http.MethodPost, "/api/v1/auth/guest", "", GuestInput{Username: "drifter"})
	wantStatus(t, w, http.StatusOK)

	var guest models.User
	if err := database.DB.Where("username = ?", "drifter").First(&guest).Error; err != nil {
		t.Fatalf("guest user not created: %v", err)
	}
	if !guest.IsGuest || guest.PasswordHash != "" {
		t.Errorf("guest = %+v, want IsGuest without credential", guest)
	}

	// A second guest login reuses the same user.
	w = doRequest(router, http.MethodPost, "/api/v1/auth/guest", "", GuestInput{Username: "drifter"})
	wantStatus(t, w, http.StatusOK)

	var count int64
	database.DB.Model(&models.User{}).Where("username = ?", "drifter").Count(&count)
	if count != 1 {
		t.Errorf("guest user count = %d, want 1", count)
	}

	// A registered user's name cannot be claimed by a guest.
	createUser(t, "claimed", models.RolePlayer)
	w = doRequest(router, http.MethodPost, "/api/v1/auth/guest", "", GuestInput{Username: "claimed"})
	wantStatus(t, w, http.StatusConflict)

	// A guest account has no password to log in with.
	w = doRequest(router, http.MethodPost, "/api/v1/auth/login", "", LoginInput{
		Username: "drifter",
		Password: "anything1",
	})
	wantStatus(t, w, http.StatusUnauthorized)
}

func TestGuestLoginStoreFailure(t *testing.T) {
	router := setupTest(t)

	// A broken store must surface as a server error, not mint a new guest.
	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.Close()

	w := doRequest(router, http.MethodPost, "/api/v1/auth/guest", "", GuestInput{Username: "phantom"})
	wantStatus(t, w, http.StatusInternalServerError)
}

func TestPlayerManagement(t *testing.T) {
	router := setupTest(t)

	_, adminToken := createUser(t, "admin", models.RoleAdmin)
	player, playerToken := createUser(t, "player", models.RolePlayer)

	// Listing users is admin-only.
	w := doRequest(router, http.MethodGet, "/api/v1/players", playerToken, nil)
	wantStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodGet, "/api/v1/players", adminToken, nil)
	wantStatus(t, w, http.StatusOK)

	var users []UserResponse
	decodeBody(t, w, &users)
	if len(users) != 2 {
		t.Fatalf("user count = %d, want 2", len(users))
	}

	// Promote the player to editor.
	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/players/%d", player.ID), adminToken, UpdateRoleInput{Role: models.RoleEditor})
	wantStatus(t, w, http.StatusOK)

	var updated models.User
	database.DB.First(&updated, player.ID)
	if updated.Role != models.RoleEditor {
		t.Errorf("role = %s, want EDITOR", updated.Role)
	}

	// Unknown roles are rejected.
	w = doRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/players/%d", player.ID), adminToken, map[string]string{"role": "WIZARD"})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestDeletePlayerGuards(t *testing.T) {
	router := setupTest(t)

	admin, adminToken := createUser(t, "admin", models.RoleAdmin)
	victim, _ := createUser(t, "victim", models.RolePlayer)

	// Self-deletion is rejected.
	w := doRequest(router, http.MethodDelete, fmt.Sprintf("/api/v1/players/%d", admin.ID), adminToken, nil)
	wantStatus(t, w, http.StatusBadRequest)

	// With two admins, removing one is allowed; the survivor can never be
	// removed, so at least one admin always remains.
	secondAdmin, secondToken := createUser(t, "admin2", models.RoleAdmin)
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/v1/players/%d", admin.ID), secondToken, nil)
	wantStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/v1/players/%d", secondAdmin.ID), secondToken, nil)
	wantStatus(t, w, http.StatusBadRequest)

	var admins int64
	database.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	if admins != 1 {
		t.Errorf("admin count = %d, want 1", admins)
	}

	// Ordinary users can still be deleted.
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/v1/players/%d", victim.ID), secondToken, nil)
	wantStatus(t, w, http.StatusOK)

	var count int64
	database.DB.Model(&models.User{}).Where("id = ?", victim.ID).Count(&count)
	if count != 0 {
		t.Error("victim still present after delete")
	}
}
