package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/schema"
)

// errNoChange rolls a transaction back without surfacing an error, for
// mutations that turn out to be no-ops.
var errNoChange = errors.New("no change")

func gameHeadByCode(tx *gorm.DB, code string) (*schema.Game, error) {
	var g schema.Game
	err := tx.Where("code = ?", code).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("game %s: %w", code, game.ErrNotFound)
	}
	if err != nil {
		return nil, newQueryError(err)
	}
	return &g, nil
}

// bumpVersion advances the game's version cursor. The row update doubles
// as the per-game critical section: concurrent mutators on the same board
// serialize on this row lock, mutators on different boards do not.
func bumpVersion(tx *gorm.DB, gameID uint) (int64, error) {
	res := tx.Model(&schema.Game{}).Where("id = ?", gameID).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return 0, newUpdateError(res.Error)
	}
	var g schema.Game
	if err := tx.Select("version").First(&g, gameID).Error; err != nil {
		return 0, newQueryError(err)
	}
	return g.Version, nil
}

// RevealCard turns a card face up exactly once. The transition is a
// compare-and-set on the revealed flag; of two racing guessers exactly
// one wins and the other gets game.ErrAlreadyRevealed with the version
// bump rolled back.
func RevealCard(db *gorm.DB, code string, index int) (*game.RevealResult, error) {
	var result *game.RevealResult
	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := gameHeadByCode(tx, code)
		if err != nil {
			return err
		}
		version, err := bumpVersion(tx, g.ID)
		if err != nil {
			return err
		}

		var card schema.GameCard
		err = tx.Where("game_id = ? AND idx = ?", g.ID, index).First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("game %s card %d: %w", code, index, game.ErrNotFound)
		}
		if err != nil {
			return newQueryError(err)
		}

		res := tx.Model(&schema.GameCard{}).
			Where("game_id = ? AND idx = ? AND revealed = ?", g.ID, index, false).
			Updates(map[string]interface{}{"revealed": true, "revealed_version": version})
		if res.Error != nil {
			return newUpdateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return game.ErrAlreadyRevealed
		}

		// Selections pointing at a revealed card are meaningless.
		if err := tx.Where("game_id = ? AND card_idx = ?", g.ID, index).
			Delete(&schema.Selection{}).Error; err != nil {
			return newUpdateError(err)
		}

		tally, err := gameTally(tx, g.ID)
		if err != nil {
			return err
		}
		result = &game.RevealResult{
			Index:   index,
			Kind:    game.Kind(card.Kind),
			Version: version,
			Tally:   tally,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetSelection points the participant's marker at a card, or clears it.
// Selecting the card already selected clears it (toggle); selecting a
// different card replaces the previous marker. index == nil clears
// explicitly. Returns the new version cursor and whether anything
// actually changed; clearing an absent selection is a no-op and keeps
// the cursor where it was.
func SetSelection(db *gorm.DB, code, participant string, index *int) (int64, bool, error) {
	var version int64
	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := gameHeadByCode(tx, code)
		if err != nil {
			return err
		}
		v, err := bumpVersion(tx, g.ID)
		if err != nil {
			return err
		}
		version = v

		var existing schema.Selection
		findErr := tx.Where("game_id = ? AND participant = ?", g.ID, participant).
			First(&existing).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return newQueryError(findErr)
		}
		hasExisting := findErr == nil

		if index == nil {
			if !hasExisting {
				// Rolling back undoes the bump, report the cursor as it was.
				version = v - 1
				return errNoChange
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return newUpdateError(err)
			}
			return nil
		}

		var card schema.GameCard
		err = tx.Where("game_id = ? AND idx = ?", g.ID, *index).First(&card).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("game %s card %d: %w", code, *index, game.ErrNotFound)
		}
		if err != nil {
			return newQueryError(err)
		}
		if card.Revealed {
			return game.ErrCardRevealed
		}

		switch {
		case hasExisting && existing.CardIdx == *index:
			if err := tx.Delete(&existing).Error; err != nil {
				return newUpdateError(err)
			}
		case hasExisting:
			if err := tx.Model(&existing).Update("card_idx", *index).Error; err != nil {
				return newUpdateError(err)
			}
		default:
			sel := schema.Selection{GameID: g.ID, Participant: participant, CardIdx: *index}
			if err := tx.Create(&sel).Error; err != nil {
				return newInsertError(err)
			}
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return version, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

func gameTally(tx *gorm.DB, gameID uint) (game.Tally, error) {
	var rows []struct {
		Kind     string
		Total    int
		Revealed int
	}
	err := tx.Model(&schema.GameCard{}).
		Select("kind, count(*) as total, sum(case when revealed then 1 else 0 end) as revealed").
		Where("game_id = ?", gameID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, newQueryError(err)
	}
	tally := make(game.Tally, len(rows))
	for _, r := range rows {
		tally[game.Kind(r.Kind)] = game.Count{Revealed: r.Revealed, Total: r.Total}
	}
	return tally, nil
}

// Tally reports revealed/total counts per kind for a board.
func Tally(db *gorm.DB, code string) (game.Tally, error) {
	g, err := gameHeadByCode(db, code)
	if err != nil {
		return nil, err
	}
	return gameTally(db, g.ID)
}

func selectionCounts(tx *gorm.DB, gameID uint) (map[int]int, error) {
	var rows []struct {
		CardIdx int
		N       int
	}
	err := tx.Model(&schema.Selection{}).
		Select("card_idx, count(*) as n").
		Where("game_id = ?", gameID).
		Group("card_idx").
		Scan(&rows).Error
	if err != nil {
		return nil, newQueryError(err)
	}
	counts := make(map[int]int, len(rows))
	for _, r := range rows {
		counts[r.CardIdx] = r.N
	}
	return counts, nil
}

// Snapshot is the full board as seen by one viewer. Unrevealed kinds are
// only included for the privileged (spymaster) view.
func Snapshot(db *gorm.DB, code string, privileged bool) (*game.BoardView, error) {
	var view *game.BoardView
	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := GameByCode(tx, code)
		if err != nil {
			return err
		}
		counts, err := selectionCounts(tx, g.ID)
		if err != nil {
			return err
		}

		cards := make([]game.CardView, len(g.Cards))
		tally := make(game.Tally)
		for i, c := range g.Cards {
			kind := game.Kind(c.Kind)
			cv := game.CardView{
				Index:      c.Idx,
				Phrase:     c.Phrase.Text,
				Revealed:   c.Revealed,
				Selections: counts[c.Idx],
			}
			if c.Revealed || privileged {
				cv.Kind = kind
			}
			cards[i] = cv

			count := tally[kind]
			count.Total++
			if c.Revealed {
				count.Revealed++
			}
			tally[kind] = count
		}
		view = &game.BoardView{
			Code:        g.Code,
			Version:     g.Version,
			CardsPerRow: game.CardsPerRow,
			Cards:       cards,
			Tally:       tally,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ChangesSince answers the polling question "anything new since cursor?".
// It returns nil with no error when nothing changed. The delta holds the
// cards revealed after the cursor, current tallies and the selection
// overlay, all read from post-mutation state in one transaction.
func ChangesSince(db *gorm.DB, code string, cursor int64) (*game.Delta, error) {
	var delta *game.Delta
	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := gameHeadByCode(tx, code)
		if err != nil {
			return err
		}
		if g.Version == cursor {
			return nil
		}

		var revealed []schema.GameCard
		err = tx.Preload("Phrase").
			Where("game_id = ? AND revealed = ? AND revealed_version > ?", g.ID, true, cursor).
			Order("idx").
			Find(&revealed).Error
		if err != nil {
			return newQueryError(err)
		}

		tally, err := gameTally(tx, g.ID)
		if err != nil {
			return err
		}
		counts, err := selectionCounts(tx, g.ID)
		if err != nil {
			return err
		}

		views := make([]game.CardView, len(revealed))
		for i, c := range revealed {
			views[i] = game.CardView{
				Index:    c.Idx,
				Phrase:   c.Phrase.Text,
				Revealed: true,
				Kind:     game.Kind(c.Kind),
			}
		}
		delta = &game.Delta{
			Version:    g.Version,
			Revealed:   views,
			Tally:      tally,
			Selections: counts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delta, nil
}
