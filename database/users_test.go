package database

import (
	"testing"

	"github.com/bitterlily/codeboard/schema"
)

func TestAddUser(t *testing.T) {
	db := openTestDB(t, "users")

	id, derr := AddUser(db, &schema.User{
		Email:       "anna@example.com",
		Username:    "anna",
		Participant: "participant-anna",
	})
	if derr != nil {
		t.Fatalf("could not add user: %s", derr)
	}

	user, derr := GetUserByID(db, id)
	if derr != nil {
		t.Fatalf("could not load user: %s", derr)
	}
	if user.Email != "anna@example.com" {
		t.Errorf("loaded user has email %s", user.Email)
	}

	_, derr = AddUser(db, &schema.User{
		Email:       "anna@example.com",
		Username:    "other anna",
		Participant: "participant-other",
	})
	if derr == nil || derr.ErrorType != ConflictError {
		t.Errorf("expected a conflict for a duplicate email, got %v", derr)
	}
}
