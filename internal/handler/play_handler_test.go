package handler

import (
	"fmt"
	"net/http"
	"testing"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// createGameViaAPI creates a game through the handler and returns its
// response shape.
func createGameViaAPI(t *testing.T, router *gin.Engine, token string, playerIDs, questionIDs []uint) GameResponse {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/v1/games", token, CreateGameInput{
		Name:        "Friday quiz",
		Language:    "en",
		PlayerIDs:   playerIDs,
		QuestionIDs: questionIDs,
	})
	wantStatus(t, w, http.StatusCreated)

	var g GameResponse
	decodeBody(t, w, &g)
	return g
}

func reloadGame(t *testing.T, id uint) models.Game {
	t.Helper()
	g, err := loadGame(database.DB, id)
	if err != nil {
		t.Fatalf("reload game %d: %v", id, err)
	}
	return g
}

func TestGameLifecycle(t *testing.T) {
	router := setupTest(t)

	_, hostToken := createUser(t, "host", models.RoleEditor)
	userA, tokenA := createUser(t, "player-a", models.RolePlayer)
	userB, tokenB := createUser(t, "player-b", models.RolePlayer)

	topic := createTopic(t, "Science")
	q1 := createQuestion(t, topic.ID, 1) // 10 points
	q2 := createQuestion(t, topic.ID, 2) // 20 points

	created := createGameViaAPI(t, router, hostToken, []uint{userA.ID, userB.ID}, []uint{q1.ID, q2.ID})
	if created.Status != models.StatusCreated || created.CurrentTurnIndex != 0 {
		t.Fatalf("created game = %+v, want CREATED at turn 0", created)
	}
	if len(created.Players) != 2 || len(created.Questions) != 2 {
		t.Fatalf("players/questions = %d/%d, want 2/2", len(created.Players), len(created.Questions))
	}
	if created.CurrentPlayerID == nil || *created.CurrentPlayerID != userA.ID {
		t.Fatal("expected player A to open the game")
	}

	gamePath := fmt.Sprintf("/api/v1/games/%d", created.ID)

	// Selecting before the game starts is rejected.
	w := doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusBadRequest)

	// Only the owner (or an admin) starts the game.
	w = doRequest(router, http.MethodPost, gamePath+"/start", tokenA, nil)
	wantStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodPost, gamePath+"/start", hostToken, nil)
	wantStatus(t, w, http.StatusOK)

	var started GameResponse
	decodeBody(t, w, &started)
	if started.Status != models.StatusStarted {
		t.Fatalf("status = %s, want STARTED", started.Status)
	}

	// Starting twice is rejected.
	w = doRequest(router, http.MethodPost, gamePath+"/start", hostToken, nil)
	wantStatus(t, w, http.StatusBadRequest)

	// It is A's turn, not B's.
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenB, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusOK)

	// A second selection while one is pending is rejected.
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: q2.ID})
	wantStatus(t, w, http.StatusBadRequest)

	// Answers from the wrong player, or for the wrong question, are rejected.
	w = doRequest(router, http.MethodPost, gamePath+"/answer", tokenB, SubmitAnswerInput{AnswerID: q1.Answers[0].ID})
	wantStatus(t, w, http.StatusForbidden)

	w = doRequest(router, http.MethodPost, gamePath+"/answer", tokenA, SubmitAnswerInput{AnswerID: q2.Answers[0].ID})
	wantStatus(t, w, http.StatusBadRequest)

	// A answers q1 correctly: 10 points, turn advances, q1 is consumed.
	w = doRequest(router, http.MethodPost, gamePath+"/answer", tokenA, SubmitAnswerInput{AnswerID: q1.Answers[0].ID})
	wantStatus(t, w, http.StatusOK)

	var result AnswerResult
	decodeBody(t, w, &result)
	if !result.Correct || result.CorrectID != q1.Answers[0].ID || result.Choice != "right" {
		t.Fatalf("result = %+v, want a correct answer revealing %d", result, q1.Answers[0].ID)
	}

	g := reloadGame(t, created.ID)
	if g.Status != models.StatusStarted {
		t.Errorf("status = %s, want STARTED while q2 remains", g.Status)
	}
	if g.CurrentTurnIndex != 1 || g.SelectedQuestionID != nil {
		t.Errorf("turn/selection = %d/%v, want 1/nil", g.CurrentTurnIndex, g.SelectedQuestionID)
	}
	if g.Players[0].Score != 10 || g.Players[1].Score != 0 {
		t.Errorf("scores = %d/%d, want 10/0", g.Players[0].Score, g.Players[1].Score)
	}

	// q1 cannot be picked again.
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenB, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusBadRequest)

	// B selects q2 and answers wrong: no points, but the turn still
	// advances and the game ends with the pool exhausted.
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenB, SelectQuestionInput{QuestionID: q2.ID})
	wantStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodPost, gamePath+"/answer", tokenB, SubmitAnswerInput{AnswerID: q2.Answers[1].ID})
	wantStatus(t, w, http.StatusOK)

	decodeBody(t, w, &result)
	if result.Correct {
		t.Error("result.Correct = true, want false")
	}
	if result.CorrectID != q2.Answers[0].ID {
		t.Errorf("correct id = %d, want %d (revealed on a miss too)", result.CorrectID, q2.Answers[0].ID)
	}

	g = reloadGame(t, created.ID)
	if g.Status != models.StatusEnded {
		t.Fatalf("status = %s, want ENDED", g.Status)
	}
	if g.CurrentTurnIndex != 2 {
		t.Errorf("turn index = %d, want 2", g.CurrentTurnIndex)
	}

	// Aggregation: A won 10-0, both played one game.
	var a, b models.User
	database.DB.First(&a, userA.ID)
	database.DB.First(&b, userB.ID)
	if a.TotalPoints != 10 || a.GamesPlayedCount != 1 || a.GamesWonCount != 1 {
		t.Errorf("A stats = %d/%d/%d, want 10/1/1", a.TotalPoints, a.GamesPlayedCount, a.GamesWonCount)
	}
	if b.TotalPoints != 0 || b.GamesPlayedCount != 1 || b.GamesWonCount != 0 {
		t.Errorf("B stats = %d/%d/%d, want 0/1/0", b.TotalPoints, b.GamesPlayedCount, b.GamesWonCount)
	}

	// Two audit rows, one per submission.
	var auditCount int64
	database.DB.Model(&models.PlayerAnswer{}).Where("game_id = ?", created.ID).Count(&auditCount)
	if auditCount != 2 {
		t.Errorf("audit rows = %d, want 2", auditCount)
	}

	// The ended game accepts no further transitions.
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestWrongTurnMutatesNothing(t *testing.T) {
	router := setupTest(t)

	_, hostToken := createUser(t, "host", models.RoleEditor)
	userA, tokenA := createUser(t, "player-a", models.RolePlayer)
	userB, tokenB := createUser(t, "player-b", models.RolePlayer)

	topic := createTopic(t, "Sports")
	q1 := createQuestion(t, topic.ID, 3)
	q2 := createQuestion(t, topic.ID, 3)

	created := createGameViaAPI(t, router, hostToken, []uint{userA.ID, userB.ID}, []uint{q1.ID, q2.ID})
	gamePath := fmt.Sprintf("/api/v1/games/%d", created.ID)
	doRequest(router, http.MethodPost, gamePath+"/start", hostToken, nil)

	w := doRequest(router, http.MethodPost, gamePath+"/select-question", tokenB, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusForbidden)

	g := reloadGame(t, created.ID)
	if g.SelectedQuestionID != nil || g.CurrentTurnIndex != 0 {
		t.Errorf("state mutated by a rejected request: %+v", g)
	}

	// A question outside the game's pool is not found and selects nothing.
	foreign := createQuestion(t, topic.ID, 1)
	w = doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: foreign.ID})
	wantStatus(t, w, http.StatusNotFound)

	g = reloadGame(t, created.ID)
	if g.SelectedQuestionID != nil {
		t.Errorf("selection = %v, want nil after a rejected pick", g.SelectedQuestionID)
	}
}

func TestAdminActsForCurrentPlayer(t *testing.T) {
	router := setupTest(t)

	_, adminToken := createUser(t, "admin", models.RoleAdmin)
	userA, _ := createUser(t, "player-a", models.RolePlayer)

	topic := createTopic(t, "Music")
	q1 := createQuestion(t, topic.ID, 4)

	created := createGameViaAPI(t, router, adminToken, []uint{userA.ID}, []uint{q1.ID})
	gamePath := fmt.Sprintf("/api/v1/games/%d", created.ID)
	doRequest(router, http.MethodPost, gamePath+"/start", adminToken, nil)

	// The admin drives A's turn; the score lands on A.
	w := doRequest(router, http.MethodPost, gamePath+"/select-question", adminToken, SelectQuestionInput{QuestionID: q1.ID})
	wantStatus(t, w, http.StatusOK)

	w = doRequest(router, http.MethodPost, gamePath+"/answer", adminToken, SubmitAnswerInput{AnswerID: q1.Answers[0].ID})
	wantStatus(t, w, http.StatusOK)

	g := reloadGame(t, created.ID)
	if g.Players[0].Score != 100 {
		t.Errorf("score = %d, want 100 for difficulty 4", g.Players[0].Score)
	}
	if g.Status != models.StatusEnded {
		t.Errorf("status = %s, want ENDED after the only question", g.Status)
	}

	// The audit row belongs to the acting player, not the admin.
	var audit models.PlayerAnswer
	database.DB.Where("game_id = ?", created.ID).First(&audit)
	if audit.UserID != userA.ID {
		t.Errorf("audit user = %d, want %d", audit.UserID, userA.ID)
	}
}

func TestTieCreditsAllWinners(t *testing.T) {
	router := setupTest(t)

	_, hostToken := createUser(t, "host", models.RoleEditor)
	userA, tokenA := createUser(t, "player-a", models.RolePlayer)
	userB, tokenB := createUser(t, "player-b", models.RolePlayer)

	topic := createTopic(t, "Nature")
	q1 := createQuestion(t, topic.ID, 5)
	q2 := createQuestion(t, topic.ID, 5)

	created := createGameViaAPI(t, router, hostToken, []uint{userA.ID, userB.ID}, []uint{q1.ID, q2.ID})
	gamePath := fmt.Sprintf("/api/v1/games/%d", created.ID)
	doRequest(router, http.MethodPost, gamePath+"/start", hostToken, nil)

	// Both answer correctly for 150 points each.
	doRequest(router, http.MethodPost, gamePath+"/select-question", tokenA, SelectQuestionInput{QuestionID: q1.ID})
	doRequest(router, http.MethodPost, gamePath+"/answer", tokenA, SubmitAnswerInput{AnswerID: q1.Answers[0].ID})
	doRequest(router, http.MethodPost, gamePath+"/select-question", tokenB, SelectQuestionInput{QuestionID: q2.ID})
	w := doRequest(router, http.MethodPost, gamePath+"/answer", tokenB, SubmitAnswerInput{AnswerID: q2.Answers[0].ID})
	wantStatus(t, w, http.StatusOK)

	var a, b models.User
	database.DB.First(&a, userA.ID)
	database.DB.First(&b, userB.ID)
	if a.GamesWonCount != 1 || b.GamesWonCount != 1 {
		t.Errorf("wins = %d/%d, want 1/1 on a tie", a.GamesWonCount, b.GamesWonCount)
	}
	if a.TotalPoints != 150 || b.TotalPoints != 150 {
		t.Errorf("points = %d/%d, want 150/150", a.TotalPoints, b.TotalPoints)
	}
}

func TestCreateGameValidation(t *testing.T) {
	router := setupTest(t)

	_, hostToken := createUser(t, "host", models.RoleEditor)
	_, playerToken := createUser(t, "solo", models.RolePlayer)
	userA, _ := createUser(t, "player-a", models.RolePlayer)
	userB, _ := createUser(t, "player-b", models.RolePlayer)

	topic := createTopic(t, "Art")
	q1 := createQuestion(t, topic.ID, 1)
	q2 := createQuestion(t, topic.ID, 1)
	q3 := createQuestion(t, topic.ID, 1)

	// Players cannot create games at all.
	w := doRequest(router, http.MethodPost, "/api/v1/games", playerToken, CreateGameInput{
		Name:        "nope",
		Language:    "en",
		PlayerIDs:   []uint{userA.ID},
		QuestionIDs: []uint{q1.ID},
	})
	wantStatus(t, w, http.StatusForbidden)

	// Three questions cannot be split between two players.
	w = doRequest(router, http.MethodPost, "/api/v1/games", hostToken, CreateGameInput{
		Name:        "uneven",
		Language:    "en",
		PlayerIDs:   []uint{userA.ID, userB.ID},
		QuestionIDs: []uint{q1.ID, q2.ID, q3.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Empty rosters and unknown references are rejected.
	w = doRequest(router, http.MethodPost, "/api/v1/games", hostToken, CreateGameInput{
		Name:        "empty",
		Language:    "en",
		PlayerIDs:   []uint{},
		QuestionIDs: []uint{q1.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	w = doRequest(router, http.MethodPost, "/api/v1/games", hostToken, CreateGameInput{
		Name:        "ghost",
		Language:    "en",
		PlayerIDs:   []uint{99999},
		QuestionIDs: []uint{q1.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// None of the rejected creations persisted anything.
	var gameCount int64
	database.DB.Model(&models.Game{}).Count(&gameCount)
	if gameCount != 0 {
		t.Errorf("game count = %d, want 0", gameCount)
	}
}
