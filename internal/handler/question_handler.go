package handler

import (
	"net/http"
	"strconv"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type AnswerInput struct {
	Text         string `json:"text" binding:"required"`
	Correct      bool   `json:"correct"`
	Plausibility int    `json:"plausibility"`
}

type QuestionInput struct {
	Text       string        `json:"text" binding:"required"`
	Difficulty int           `json:"difficulty" binding:"required,min=1,max=5"`
	Language   string        `json:"language" binding:"required"`
	TopicID    uint          `json:"topic_id" binding:"required"`
	Answers    []AnswerInput `json:"answers" binding:"required"`
}

type AnswerResponse struct {
	ID           uint   `json:"id"`
	Text         string `json:"text"`
	Correct      bool   `json:"correct"`
	Plausibility int    `json:"plausibility"`
}

type QuestionResponse struct {
	ID         uint             `json:"id"`
	Text       string           `json:"text"`
	Difficulty int              `json:"difficulty"`
	Language   string           `json:"language"`
	Topic      TopicResponse    `json:"topic"`
	Answers    []AnswerResponse `json:"answers"`
}

func newAnswerResponse(answer models.Answer) AnswerResponse {
	return AnswerResponse{
		ID:           answer.ID,
		Text:         answer.Text,
		Correct:      answer.Correct,
		Plausibility: answer.Plausibility,
	}
}

func newQuestionResponse(question models.Question) QuestionResponse {
	answers := make([]AnswerResponse, 0, len(question.Answers))
	for _, answer := range question.Answers {
		answers = append(answers, newAnswerResponse(answer))
	}

	return QuestionResponse{
		ID:         question.ID,
		Text:       question.Text,
		Difficulty: question.Difficulty,
		Language:   question.Language,
		Topic:      newTopicResponse(question.Topic),
		Answers:    answers,
	}
}

// validateAnswers enforces the write-time invariant: exactly four answers,
// exactly one of them correct.
func validateAnswers(answers []AnswerInput) string {
	if len(answers) != 4 {
		return "A question must have exactly 4 answers"
	}

	correctCount := 0
	for _, answer := range answers {
		if answer.Correct {
			correctCount++
		}
	}
	if correctCount != 1 {
		return "Exactly one answer must be correct"
	}
	return ""
}

// endregion

// CreateQuestion godoc
// @Summary      Create a new question
// @Description  Creates a question with its four answers, exactly one of which must be correct.
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body QuestionInput true "Question Info"
// @Success      201  {object}  QuestionResponse
// @Failure      400  {object}  ErrorResponse "Invalid question data"
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Topic not found"
// @Router       /questions [post]
func CreateQuestion(c *gin.Context) {
	var input QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg := validateAnswers(input.Answers); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var topic models.Topic
	if err := database.DB.First(&topic, input.TopicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	question := models.Question{
		TopicID:    input.TopicID,
		Text:       input.Text,
		Difficulty: input.Difficulty,
		Language:   input.Language,
	}
	for _, answer := range input.Answers {
		question.Answers = append(question.Answers, models.Answer{
			Text:         answer.Text,
			Correct:      answer.Correct,
			Plausibility: answer.Plausibility,
		})
	}

	if err := database.DB.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	question.Topic = topic
	c.JSON(http.StatusCreated, newQuestionResponse(question))
}

// GetQuestions godoc
// @Summary      List questions
// @Description  Retrieves a paginated list of questions with their topics and answers.
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(20)
// @Success      200  {object}  PaginatedResponse[QuestionResponse]
// @Failure      401  {object}  ErrorResponse
// @Router       /questions [get]
func GetQuestions(c *gin.Context) {
	page, limit := pageParams(c)

	query := database.DB.Preload("Topic").Preload("Answers").Order("text asc")
	response, err := paginate(query, page, limit, newQuestionResponse)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve questions"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateQuestion godoc
// @Summary      Update a question
// @Description  Updates a question and replaces its answer set wholesale.
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int           true  "Question ID"
// @Param        input body      QuestionInput true  "New Question Info"
// @Success      200  {object}  QuestionResponse
// @Failure      400  {object}  ErrorResponse "Invalid question data"
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Question not found"
// @Router       /questions/{id} [put]
func UpdateQuestion(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var input QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg := validateAnswers(input.Answers); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var question models.Question
	if err := database.DB.First(&question, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	// Replace the question and its answers as one unit.
	tx := database.DB.Begin()

	if err := tx.Unscoped().Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}

	question.TopicID = input.TopicID
	question.Text = input.Text
	question.Difficulty = input.Difficulty
	question.Language = input.Language
	question.Answers = nil
	for _, answer := range input.Answers {
		question.Answers = append(question.Answers, models.Answer{
			QuestionID:   question.ID,
			Text:         answer.Text,
			Correct:      answer.Correct,
			Plausibility: answer.Plausibility,
		})
	}

	if err := tx.Save(&question).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}

	tx.Commit()

	database.DB.Preload("Topic").Preload("Answers").First(&question, question.ID)
	c.JSON(http.StatusOK, newQuestionResponse(question))
}

// DeleteQuestion godoc
// @Summary      Delete a question
// @Description  Deletes a question and its answers.
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Question ID"
// @Success      200  {object}  map[string]string "{"message": "Question deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Question not found"
// @Router       /questions/{id} [delete]
func DeleteQuestion(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	result := database.DB.Delete(&models.Question{}, uint(id))
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}
