package models

import "gorm.io/gorm"

// Topic represents a question category (e.g., "History", "Movies").
type Topic struct {
	gorm.Model
	Text  string `gorm:"size:255;unique;not null"`
	Image string `gorm:"size:512"`
}
