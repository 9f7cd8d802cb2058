package database

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/bitterlily/codeboard/game"
)

// openTestDB gives each test its own in-memory database. The shared
// cache keeps the database alive across the connections gorm pools.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, derr := Open(Config{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name),
	})
	if derr != nil {
		t.Fatalf("could not open test database: %s", derr)
	}
	if derr := Automigrate(db); derr != nil {
		t.Fatalf("could not migrate test database: %s", derr)
	}
	return db
}

func seedTag(t *testing.T, db *gorm.DB, tag string, n int) {
	t.Helper()
	phrases := make([]string, n)
	for i := range phrases {
		phrases[i] = fmt.Sprintf("%s-phrase-%02d", tag, i)
	}
	if derr := AddPhrases(db, tag, phrases); derr != nil {
		t.Fatalf("could not seed phrases: %s", derr)
	}
}

func newTestGame(t *testing.T, db *gorm.DB) string {
	t.Helper()
	seedTag(t, db, "animals", 40)
	g, err := CreateStandaloneGame(db, game.DefaultConfig(), []string{"animals"})
	if err != nil {
		t.Fatalf("could not create game: %s", err)
	}
	return g.Code
}
