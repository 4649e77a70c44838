package models

import "gorm.io/gorm"

// PlayerAnswer is an append-only audit record of one submitted answer.
type PlayerAnswer struct {
	gorm.Model
	GameID     uint `gorm:"not null;index"`
	UserID     uint `gorm:"not null;index"`
	QuestionID uint `gorm:"not null"`
	AnswerID   uint `gorm:"not null"`
}
