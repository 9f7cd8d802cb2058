package game

import "testing"

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %s", err)
	}

	tooTight := Config{CardsPerGame: 17, GuessAmount: 8, BlackAmount: 1, CodeLength: 6}
	if err := tooTight.Validate(); err == nil {
		t.Errorf("config with no room for tan cards should be invalid")
	}

	noGuesses := Config{CardsPerGame: 25, GuessAmount: 0, BlackAmount: 1, CodeLength: 6}
	if err := noGuesses.Validate(); err == nil {
		t.Errorf("config without guess cards should be invalid")
	}
}

func TestConfigTanAmount(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.TanAmount(); got != 7 {
		t.Errorf("default config should leave 7 tan cards, got %d", got)
	}
}
