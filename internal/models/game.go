package models

import "gorm.io/gorm"

// GameStatus is the lifecycle state of a game session.
// Transitions are strictly forward: CREATED -> STARTED -> ENDED.
type GameStatus string

const (
	StatusCreated GameStatus = "CREATED"
	StatusStarted GameStatus = "STARTED"
	StatusEnded   GameStatus = "ENDED"
)

// Game is the session aggregate: a fixed roster of players and a fixed pool
// of questions played round-robin. The acting player is derived from
// CurrentTurnIndex, never stored.
type Game struct {
	gorm.Model
	Name               string     `gorm:"size:255;not null"`
	Language           string     `gorm:"size:10;not null"`
	OwnerID            uint       `gorm:"not null;index"`
	Status             GameStatus `gorm:"size:50;not null;default:'CREATED'"`
	CurrentTurnIndex   int        `gorm:"not null;default:0"`
	SelectedQuestionID *uint

	Owner     User           `gorm:"foreignKey:OwnerID"`
	Players   []GamePlayer   `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE;"`
	Questions []GameQuestion `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE;"`
}

// GamePlayer is one participant's seat in a game with their running score.
// The roster is fixed at creation; turn order is ascending id.
type GamePlayer struct {
	gorm.Model
	GameID uint `gorm:"not null;index"`
	UserID uint `gorm:"not null;index"`
	Score  int  `gorm:"not null;default:0"`

	User User `gorm:"foreignKey:UserID"`
}

// GameQuestion marks a question's inclusion and played status within a game.
type GameQuestion struct {
	gorm.Model
	GameID     uint `gorm:"not null;uniqueIndex:idx_game_question"`
	QuestionID uint `gorm:"not null;uniqueIndex:idx_game_question"`
	IsPlayed   bool `gorm:"not null;default:false"`

	Question Question `gorm:"foreignKey:QuestionID"`
}
