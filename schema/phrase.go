package schema

import "gorm.io/gorm"

type Phrase struct {
	gorm.Model
	Text string `gorm:"uniqueIndex"`
	Tags []Tag  `gorm:"many2many:phrase_tags;"`
}
