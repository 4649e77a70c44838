package models

import "gorm.io/gorm"

// Question belongs to exactly one topic and carries exactly four answers,
// exactly one of which is correct. The invariant is enforced at write time.
type Question struct {
	gorm.Model
	TopicID    uint   `gorm:"not null;index"`
	Text       string `gorm:"not null"`
	Difficulty int    `gorm:"not null;default:1"` // 1-5, drives the point table
	Language   string `gorm:"size:10;not null"`

	Topic   Topic    `gorm:"foreignKey:TopicID"`
	Answers []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;"`
}

// Answer is one of a question's four choices. Plausibility is a display
// ranking hint and plays no part in scoring.
type Answer struct {
	gorm.Model
	QuestionID   uint   `gorm:"not null;index"`
	Text         string `gorm:"not null"`
	Correct      bool   `gorm:"not null;default:false"`
	Plausibility int    `gorm:"not null;default:0"`
}
