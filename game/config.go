package game

import "fmt"

// Defaults mirror the physical card game: a 5x5 board, eight guess cards
// per team plus one extra for the team going first, and a single black card.
const (
	DefaultCardsPerGame = 25
	DefaultGuessAmount  = 8
	DefaultBlackAmount  = 1
	DefaultCodeLength   = 6
	CardsPerRow         = 5
)

type Config struct {
	CardsPerGame int
	GuessAmount  int
	BlackAmount  int
	CodeLength   int
}

func DefaultConfig() Config {
	return Config{
		CardsPerGame: DefaultCardsPerGame,
		GuessAmount:  DefaultGuessAmount,
		BlackAmount:  DefaultBlackAmount,
		CodeLength:   DefaultCodeLength,
	}
}

// Validate rejects card amounts that leave no room for tan cards. The rest
// of the board logic assumes every kind count is non-negative.
func (c Config) Validate() error {
	if c.GuessAmount < 1 {
		return fmt.Errorf("guess amount must be at least 1, got %d", c.GuessAmount)
	}
	if c.BlackAmount < 0 {
		return fmt.Errorf("black amount must not be negative, got %d", c.BlackAmount)
	}
	if c.CardsPerGame <= 2*c.GuessAmount+1+c.BlackAmount {
		return fmt.Errorf(
			"cards per game must be more than %d for %d guesses and %d black cards, got %d",
			2*c.GuessAmount+1+c.BlackAmount, c.GuessAmount, c.BlackAmount, c.CardsPerGame)
	}
	if c.CodeLength < 1 {
		return fmt.Errorf("code length must be at least 1, got %d", c.CodeLength)
	}
	return nil
}

func (c Config) TanAmount() int {
	return c.CardsPerGame - (2*c.GuessAmount + 1) - c.BlackAmount
}
