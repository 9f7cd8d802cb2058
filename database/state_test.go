package database

import (
	"errors"
	"sync"
	"testing"

	"github.com/bitterlily/codeboard/game"
)

func TestRevealCard(t *testing.T) {
	db := openTestDB(t, "reveal")
	code := newTestGame(t, db)

	result, err := RevealCard(db, code, 3)
	if err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	if result.Index != 3 {
		t.Errorf("revealed card %d instead of 3", result.Index)
	}
	if !result.Kind.Valid() {
		t.Errorf("revealed card has invalid kind %q", result.Kind)
	}
	if result.Version != 2 {
		t.Errorf("reveal should move the version from 1 to 2, got %d", result.Version)
	}

	var revealed, total int
	for _, count := range result.Tally {
		revealed += count.Revealed
		total += count.Total
	}
	if total != game.DefaultCardsPerGame {
		t.Errorf("tally covers %d cards instead of %d", total, game.DefaultCardsPerGame)
	}
	if revealed != 1 {
		t.Errorf("tally reports %d revealed cards instead of 1", revealed)
	}
}

func TestRevealCard_SecondRevealLoses(t *testing.T) {
	db := openTestDB(t, "reveal-twice")
	code := newTestGame(t, db)

	if _, err := RevealCard(db, code, 3); err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	_, err := RevealCard(db, code, 3)
	if !errors.Is(err, game.ErrAlreadyRevealed) {
		t.Fatalf("expected ErrAlreadyRevealed, got %v", err)
	}

	// The loser's version bump must have rolled back.
	view, err := Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take snapshot: %s", err)
	}
	if view.Version != 2 {
		t.Errorf("a failed reveal moved the version to %d", view.Version)
	}
}

func TestRevealCard_Concurrent(t *testing.T) {
	db := openTestDB(t, "reveal-race")
	code := newTestGame(t, db)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = RevealCard(db, code, 7)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, game.ErrAlreadyRevealed):
			losses++
		default:
			t.Fatalf("unexpected error from racing reveal: %s", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Errorf("expected exactly one winner and one loser, got %d and %d", wins, losses)
	}
}

func TestRevealCard_UnknownCard(t *testing.T) {
	db := openTestDB(t, "reveal-unknown")
	code := newTestGame(t, db)

	if _, err := RevealCard(db, code, 99); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("expected ErrNotFound for card 99, got %v", err)
	}
	if _, err := RevealCard(db, "ZZZZZZ", 0); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown game, got %v", err)
	}
}

func selectCard(i int) *int { return &i }

func TestSetSelection_Toggle(t *testing.T) {
	db := openTestDB(t, "select-toggle")
	code := newTestGame(t, db)

	_, changed, err := SetSelection(db, code, "anna", selectCard(3))
	if err != nil {
		t.Fatalf("could not select card: %s", err)
	}
	if !changed {
		t.Errorf("a fresh selection should count as a change")
	}
	view, err := Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take snapshot: %s", err)
	}
	if view.Cards[3].Selections != 1 {
		t.Errorf("card 3 has %d selections instead of 1", view.Cards[3].Selections)
	}

	// Selecting the same card again clears the marker.
	if _, _, err := SetSelection(db, code, "anna", selectCard(3)); err != nil {
		t.Fatalf("could not toggle selection: %s", err)
	}
	view, err = Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take snapshot: %s", err)
	}
	if view.Cards[3].Selections != 0 {
		t.Errorf("card 3 has %d selections after a toggle instead of 0", view.Cards[3].Selections)
	}
}

func TestSetSelection_Replace(t *testing.T) {
	db := openTestDB(t, "select-replace")
	code := newTestGame(t, db)

	if _, _, err := SetSelection(db, code, "anna", selectCard(3)); err != nil {
		t.Fatalf("could not select card: %s", err)
	}
	if _, _, err := SetSelection(db, code, "anna", selectCard(7)); err != nil {
		t.Fatalf("could not move selection: %s", err)
	}

	view, err := Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take snapshot: %s", err)
	}
	if view.Cards[3].Selections != 0 {
		t.Errorf("card 3 still has %d selections after the marker moved", view.Cards[3].Selections)
	}
	if view.Cards[7].Selections != 1 {
		t.Errorf("card 7 has %d selections instead of 1", view.Cards[7].Selections)
	}
}

func TestSetSelection_ClearWithoutSelection(t *testing.T) {
	db := openTestDB(t, "select-clear-empty")
	code := newTestGame(t, db)

	version, changed, err := SetSelection(db, code, "anna", nil)
	if err != nil {
		t.Fatalf("clearing an absent selection should not fail: %s", err)
	}
	if changed {
		t.Errorf("clearing an absent selection should not count as a change")
	}
	if version != 1 {
		t.Errorf("clearing an absent selection moved the version to %d", version)
	}
}

func TestSetSelection_RevealedCard(t *testing.T) {
	db := openTestDB(t, "select-revealed")
	code := newTestGame(t, db)

	if _, err := RevealCard(db, code, 5); err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	if _, _, err := SetSelection(db, code, "anna", selectCard(5)); !errors.Is(err, game.ErrCardRevealed) {
		t.Errorf("expected ErrCardRevealed, got %v", err)
	}
}

func TestRevealCard_ClearsSelections(t *testing.T) {
	db := openTestDB(t, "reveal-clears-selections")
	code := newTestGame(t, db)

	if _, _, err := SetSelection(db, code, "anna", selectCard(5)); err != nil {
		t.Fatalf("could not select card: %s", err)
	}
	if _, err := RevealCard(db, code, 5); err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	view, err := Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take snapshot: %s", err)
	}
	if view.Cards[5].Selections != 0 {
		t.Errorf("revealed card kept %d selections", view.Cards[5].Selections)
	}
}

func TestSnapshot_HidesUnrevealedKinds(t *testing.T) {
	db := openTestDB(t, "snapshot-hidden")
	code := newTestGame(t, db)

	if _, err := RevealCard(db, code, 0); err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}

	public, err := Snapshot(db, code, false)
	if err != nil {
		t.Fatalf("could not take public snapshot: %s", err)
	}
	if public.CardsPerRow != game.CardsPerRow {
		t.Errorf("snapshot reports %d cards per row instead of %d", public.CardsPerRow, game.CardsPerRow)
	}
	for _, c := range public.Cards {
		if c.Revealed && c.Kind == "" {
			t.Errorf("revealed card %d is missing its kind", c.Index)
		}
		if !c.Revealed && c.Kind != "" {
			t.Errorf("unrevealed card %d leaks kind %s", c.Index, c.Kind)
		}
	}

	privileged, err := Snapshot(db, code, true)
	if err != nil {
		t.Fatalf("could not take privileged snapshot: %s", err)
	}
	for _, c := range privileged.Cards {
		if c.Kind == "" {
			t.Errorf("privileged view is missing the kind of card %d", c.Index)
		}
	}
}

func TestChangesSince(t *testing.T) {
	db := openTestDB(t, "changes")
	code := newTestGame(t, db)

	result, err := RevealCard(db, code, 4)
	if err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}

	delta, err := ChangesSince(db, code, result.Version-1)
	if err != nil {
		t.Fatalf("could not compute delta: %s", err)
	}
	if delta == nil {
		t.Fatalf("expected a delta after a reveal")
	}
	if delta.Version != result.Version {
		t.Errorf("delta version %d does not match head %d", delta.Version, result.Version)
	}
	if len(delta.Revealed) != 1 || delta.Revealed[0].Index != 4 {
		t.Errorf("delta should carry exactly the revealed card 4, got %+v", delta.Revealed)
	}
	if delta.Revealed[0].Kind != result.Kind {
		t.Errorf("delta reports kind %s instead of %s", delta.Revealed[0].Kind, result.Kind)
	}

	// A current client gets nothing.
	delta, err = ChangesSince(db, code, result.Version)
	if err != nil {
		t.Fatalf("could not compute delta: %s", err)
	}
	if delta != nil {
		t.Errorf("expected no delta for a current cursor, got %+v", delta)
	}
}

func TestChangesSince_OldCursorSeesEverything(t *testing.T) {
	db := openTestDB(t, "changes-old")
	code := newTestGame(t, db)

	for _, idx := range []int{1, 2, 3} {
		if _, err := RevealCard(db, code, idx); err != nil {
			t.Fatalf("could not reveal card %d: %s", idx, err)
		}
	}

	delta, err := ChangesSince(db, code, 1)
	if err != nil {
		t.Fatalf("could not compute delta: %s", err)
	}
	if delta == nil || len(delta.Revealed) != 3 {
		t.Fatalf("a cursor from before all reveals should see all 3, got %+v", delta)
	}
}

func TestChangesSince_UnknownGame(t *testing.T) {
	db := openTestDB(t, "changes-unknown")
	if _, err := ChangesSince(db, "ZZZZZZ", 0); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVersionsAreMonotonic(t *testing.T) {
	db := openTestDB(t, "monotonic")
	code := newTestGame(t, db)

	last := int64(1)
	bump := func(version int64) {
		t.Helper()
		if version != last+1 {
			t.Errorf("version moved from %d to %d instead of %d", last, version, last+1)
		}
		last = version
	}

	result, err := RevealCard(db, code, 0)
	if err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	bump(result.Version)

	version, _, err := SetSelection(db, code, "anna", selectCard(1))
	if err != nil {
		t.Fatalf("could not select card: %s", err)
	}
	bump(version)

	version, _, err = SetSelection(db, code, "anna", nil)
	if err != nil {
		t.Fatalf("could not clear selection: %s", err)
	}
	bump(version)
}
