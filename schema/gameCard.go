package schema

import "gorm.io/gorm"

// GameCard is one board position. Idx runs from the top left to the
// bottom right starting at 0 and is unique per game. Revealed only ever
// goes false to true; RevealedVersion records the game version of that
// transition for delta queries.
type GameCard struct {
	gorm.Model
	GameID          uint `gorm:"uniqueIndex:idx_game_card"`
	Idx             int  `gorm:"uniqueIndex:idx_game_card"`
	PhraseID        uint
	Phrase          Phrase
	Kind            string
	Revealed        bool
	RevealedVersion int64
}
