package schema

import "gorm.io/gorm"

// Selection is a participant's single candidate card on a board. One row
// per (game, participant); re-selecting the same card deletes the row.
type Selection struct {
	gorm.Model
	GameID      uint   `gorm:"uniqueIndex:idx_game_participant"`
	Participant string `gorm:"uniqueIndex:idx_game_participant"`
	CardIdx     int
}
