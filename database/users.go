package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/schema"
)

func AddUser(db *gorm.DB, user *schema.User) (uint, *DatabaseError) {
	if _, err := GetUserByEmail(db, user.Email); err == nil {
		return 0, newConflictError(fmt.Errorf("user with that email already exists"))
	}

	if err := db.Create(user).Error; err != nil {
		return 0, newInsertError(err)
	}
	return user.ID, nil
}

func GetUserByID(db *gorm.DB, id uint) (*schema.User, *DatabaseError) {
	var user schema.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, newQueryError(err)
	}
	return &user, nil
}

func GetUserByEmail(db *gorm.DB, email string) (*schema.User, *DatabaseError) {
	var user schema.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, newQueryError(err)
	}
	return &user, nil
}
