package models

import "gorm.io/gorm"

// Role defines what a user is allowed to manage.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RolePlayer Role = "PLAYER"
)

// User represents a user in the system. Guests carry no password hash.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255"`
	Role         Role   `gorm:"size:50;not null;default:'PLAYER';index"`
	IsGuest      bool   `gorm:"not null;default:false"`
	Image        string `gorm:"size:512"`

	// Lifetime aggregates, folded in when a game ends.
	TotalPoints      int `gorm:"not null;default:0;index"`
	GamesPlayedCount int `gorm:"not null;default:0"`
	GamesWonCount    int `gorm:"not null;default:0"`
}
