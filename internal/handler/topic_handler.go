package handler

import (
	"net/http"
	"strconv"
	"time"

	"quizclash/backend/internal/database"
	"quizclash/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type TopicInput struct {
	Text  string `json:"text" binding:"required"`
	Image string `json:"image"`
}

type TopicResponse struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Text      string    `json:"text"`
	Image     string    `json:"image"`
}

func newTopicResponse(topic models.Topic) TopicResponse {
	return TopicResponse{
		ID:        topic.ID,
		CreatedAt: topic.CreatedAt,
		UpdatedAt: topic.UpdatedAt,
		Text:      topic.Text,
		Image:     topic.Image,
	}
}

// CreateTopic godoc
// @Summary      Create a new topic
// @Description  Creates a new question category.
// @Tags         topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body TopicInput true "Topic Info"
// @Success      201  {object}  TopicResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      409  {object}  ErrorResponse "Topic already exists"
// @Router       /topics [post]
func CreateTopic(c *gin.Context) {
	var input TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic := models.Topic{Text: input.Text, Image: input.Image}
	if err := database.DB.Create(&topic).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Topic already exists or another error occurred"})
		return
	}

	c.JSON(http.StatusCreated, newTopicResponse(topic))
}

// GetTopics godoc
// @Summary      Get all topics
// @Description  Retrieves all question categories, ordered by name.
// @Tags         topics
// @Produce      json
// @Success      200  {array}   TopicResponse
// @Router       /topics [get]
func GetTopics(c *gin.Context) {
	var topics []models.Topic
	database.DB.Order("text asc").Find(&topics)

	response := make([]TopicResponse, 0, len(topics))
	for _, topic := range topics {
		response = append(response, newTopicResponse(topic))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateTopic godoc
// @Summary      Update a topic
// @Description  Updates the name and image of an existing topic.
// @Tags         topics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Topic ID"
// @Param        input body      TopicInput true  "New Topic Info"
// @Success      200  {object}  TopicResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Topic not found"
// @Router       /topics/{id} [put]
func UpdateTopic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var input TopicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var topic models.Topic
	if err := database.DB.First(&topic, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	database.DB.Model(&topic).Updates(map[string]interface{}{
		"text":  input.Text,
		"image": input.Image,
	})
	c.JSON(http.StatusOK, newTopicResponse(topic))
}

// DeleteTopic godoc
// @Summary      Delete a topic
// @Description  Deletes an existing topic.
// @Tags         topics
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Topic ID"
// @Success      200  {object}  map[string]string "{"message": "Topic deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Editor access required"
// @Failure      404  {object}  ErrorResponse "Topic not found"
// @Router       /topics/{id} [delete]
func DeleteTopic(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	result := database.DB.Delete(&models.Topic{}, uint(id))
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topic not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Topic deleted"})
}
