package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/schema"
)

// AddPhrases puts phrases into the catalog under the named tag, creating
// the tag if needed. Safe to re-run; existing phrases only gain the tag.
func AddPhrases(db *gorm.DB, tagName string, phrases []string) *DatabaseError {
	return newInsertError(db.Transaction(func(tx *gorm.DB) error {
		tag := schema.Tag{Name: tagName}
		if err := tx.Where("name = ?", tagName).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		for _, text := range phrases {
			phrase := schema.Phrase{Text: text}
			if err := tx.Where("text = ?", text).FirstOrCreate(&phrase).Error; err != nil {
				return err
			}
			if err := tx.Model(&phrase).Association("Tags").Append(&tag); err != nil {
				return err
			}
		}
		return nil
	}))
}

func AllTags(db *gorm.DB) ([]schema.Tag, *DatabaseError) {
	var tags []schema.Tag
	if err := db.Order("name").Find(&tags).Error; err != nil {
		return nil, newQueryError(err)
	}
	return tags, nil
}

// TagsByName resolves tag names to rows. An unknown name is a not-found
// condition, not a silently empty filter.
func TagsByName(db *gorm.DB, names []string) ([]schema.Tag, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("tag filter is empty: %w", game.ErrNotFound)
	}
	var tags []schema.Tag
	if err := db.Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, newQueryError(err)
	}
	if len(tags) != len(names) {
		return nil, fmt.Errorf("unknown tag in %v: %w", names, game.ErrNotFound)
	}
	return tags, nil
}

// EligiblePhrases returns every phrase carrying at least one of the given
// tags and not in the exclusion set. The uniform draw itself happens in
// game.Generate; this only builds the pool.
func EligiblePhrases(db *gorm.DB, tagIDs []uint, exclude []uint) ([]schema.Phrase, *DatabaseError) {
	q := db.Model(&schema.Phrase{}).
		Distinct("phrases.*").
		Joins("JOIN phrase_tags ON phrase_tags.phrase_id = phrases.id").
		Where("phrase_tags.tag_id IN ?", tagIDs)
	if len(exclude) > 0 {
		q = q.Where("phrases.id NOT IN ?", exclude)
	}
	var phrases []schema.Phrase
	if err := q.Find(&phrases).Error; err != nil {
		return nil, newQueryError(err)
	}
	return phrases, nil
}

// usedPhraseIDs is the union of phrases on every board of the session,
// the exclusion set that keeps session boards disjoint.
func usedPhraseIDs(db *gorm.DB, sessionID uint) ([]uint, *DatabaseError) {
	var ids []uint
	err := db.Model(&schema.GameCard{}).
		Joins("JOIN games ON games.id = game_cards.game_id").
		Where("games.session_id = ?", sessionID).
		Pluck("game_cards.phrase_id", &ids).Error
	if err != nil {
		return nil, newQueryError(err)
	}
	return ids, nil
}
