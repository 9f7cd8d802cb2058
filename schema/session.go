package schema

import "gorm.io/gorm"

// Session is a series of games played by the same group. Games in one
// session never repeat a phrase.
type Session struct {
	gorm.Model
	Name  string
	Tags  []Tag  `gorm:"many2many:session_tags;"`
	Games []Game `json:"-"`
}
