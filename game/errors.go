package game

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRevealed is returned to the loser of a reveal race. It is
	// expected under concurrent guessing and not a fault.
	ErrAlreadyRevealed = errors.New("card is already revealed")
	// ErrCardRevealed rejects selections pointing at a revealed card.
	ErrCardRevealed = errors.New("cannot select a revealed card")
	ErrNotFound     = errors.New("not found")
)

// NotEnoughPhrasesError reports a board generation that could not draw a
// full card set. Both counts are surfaced so the caller can explain the
// shortfall.
type NotEnoughPhrasesError struct {
	Needed    int
	Available int
}

func (e *NotEnoughPhrasesError) Error() string {
	return fmt.Sprintf("not enough phrases: needed %d, %d available", e.Needed, e.Available)
}
