package schema

import "gorm.io/gorm"

// Game is one board. Code and card set are immutable after creation; only
// the cards' reveal state, the selections and Version ever change.
// Version is bumped by every accepted mutation so clients can cheaply ask
// "did anything change since cursor X".
type Game struct {
	gorm.Model
	Code      string `gorm:"uniqueIndex"`
	SessionID *uint
	Version   int64
	Cards     []GameCard
}
