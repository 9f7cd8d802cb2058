package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/schema"
)

const codeAttempts = 5

// createGame draws a board from the eligible pool and persists it with
// its cards. Runs inside the caller's transaction so a generation failure
// leaves no partial rows behind.
func createGame(tx *gorm.DB, cfg game.Config, sessionID *uint, tagIDs []uint, exclude []uint) (*schema.Game, error) {
	pool, derr := EligiblePhrases(tx, tagIDs, exclude)
	if derr != nil {
		return nil, derr
	}
	board, err := game.Generate(cfg, pool)
	if err != nil {
		return nil, err
	}

	code := board.Code
	for i := 0; i < codeAttempts; i++ {
		var count int64
		if err := tx.Model(&schema.Game{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return nil, newQueryError(err)
		}
		if count == 0 {
			break
		}
		code = game.NewCode(cfg.CodeLength)
	}

	g := &schema.Game{
		Code:      code,
		SessionID: sessionID,
		Version:   1,
		Cards:     make([]schema.GameCard, len(board.Cards)),
	}
	for i, c := range board.Cards {
		g.Cards[i] = schema.GameCard{
			Idx:      c.Index,
			PhraseID: c.Phrase.ID,
			Kind:     string(c.Kind),
		}
	}
	if err := tx.Create(g).Error; err != nil {
		return nil, newInsertError(err)
	}
	return g, nil
}

func tagIDs(tags []schema.Tag) []uint {
	ids := make([]uint, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

// CreateStandaloneGame makes a board outside any session.
func CreateStandaloneGame(db *gorm.DB, cfg game.Config, tagNames []string) (*schema.Game, error) {
	var created *schema.Game
	err := db.Transaction(func(tx *gorm.DB) error {
		tags, err := TagsByName(tx, tagNames)
		if err != nil {
			return err
		}
		g, err := createGame(tx, cfg, nil, tagIDs(tags), nil)
		if err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// StartSession creates a session with the given tag filter and its first
// board. The whole thing rolls back if the pool cannot fill a board.
func StartSession(db *gorm.DB, cfg game.Config, name string, tagNames []string) (*schema.Session, *schema.Game, error) {
	var (
		sess  *schema.Session
		first *schema.Game
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		tags, err := TagsByName(tx, tagNames)
		if err != nil {
			return err
		}
		sess = &schema.Session{Name: name, Tags: tags}
		if err := tx.Create(sess).Error; err != nil {
			return newInsertError(err)
		}
		first, err = createGame(tx, cfg, &sess.ID, tagIDs(tags), nil)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, first, nil
}

// CurrentGame is the most recently created board of the session, ties
// broken by creation order.
func CurrentGame(db *gorm.DB, sessionID uint) (*schema.Game, error) {
	var g schema.Game
	err := db.Where("session_id = ?", sessionID).Order("id DESC").First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %d has no games: %w", sessionID, game.ErrNotFound)
	}
	if err != nil {
		return nil, newQueryError(err)
	}
	return &g, nil
}

// NextGame advances the session to a fresh board, excluding every phrase
// already used by the session. If the caller's idea of the current game
// is stale the session is not advanced; the actual current game is
// returned instead, so two racing clients cannot double-advance. The
// second return value reports whether a board was actually created.
func NextGame(db *gorm.DB, cfg game.Config, sessionID uint, currentCode string) (*schema.Game, bool, error) {
	var (
		result  *schema.Game
		created bool
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var sess schema.Session
		if err := tx.Preload("Tags").First(&sess, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("session %d: %w", sessionID, game.ErrNotFound)
			}
			return newQueryError(err)
		}

		cur, err := CurrentGame(tx, sessionID)
		if err != nil && !errors.Is(err, game.ErrNotFound) {
			return err
		}
		if cur != nil && cur.Code != currentCode {
			result = cur
			return nil
		}

		exclude, derr := usedPhraseIDs(tx, sessionID)
		if derr != nil {
			return derr
		}
		next, err := createGame(tx, cfg, &sess.ID, tagIDs(sess.Tags), exclude)
		if err != nil {
			return err
		}
		result = next
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// GameByCode loads a board with its cards in grid order.
func GameByCode(db *gorm.DB, code string) (*schema.Game, error) {
	var g schema.Game
	err := db.
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("game_cards.idx") }).
		Preload("Cards.Phrase").
		Where("code = ?", code).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("game %s: %w", code, game.ErrNotFound)
	}
	if err != nil {
		return nil, newQueryError(err)
	}
	return &g, nil
}
