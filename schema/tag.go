package schema

import "gorm.io/gorm"

type Tag struct {
	gorm.Model
	Name    string   `gorm:"uniqueIndex"`
	Phrases []Phrase `gorm:"many2many:phrase_tags;" json:"-"`
}
