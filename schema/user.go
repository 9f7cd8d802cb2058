package schema

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex"`
	Password    []byte `json:"-"`
	Username    string
	Participant string `gorm:"uniqueIndex"`
}
