package game

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/bitterlily/codeboard/schema"
)

// Card is one generated board position before it is persisted.
type Card struct {
	Phrase schema.Phrase
	Index  int
	Kind   Kind
}

// Board is a freshly generated card grid. First is the team that got the
// extra guess card and therefore goes first; it is not persisted
// separately, the category counts carry the same information.
type Board struct {
	Code  string
	First Kind
	Cards []Card
}

// Generate draws cfg.CardsPerGame phrases from pool uniformly without
// replacement and deals them onto a board. A coin flip decides which team
// receives the extra card; the kind multiset is shuffled independently of
// the draw order and grid indices follow that shuffled order.
func Generate(cfg Config, pool []schema.Phrase) (*Board, error) {
	if len(pool) < cfg.CardsPerGame {
		return nil, &NotEnoughPhrasesError{Needed: cfg.CardsPerGame, Available: len(pool)}
	}

	drawn := make([]int, cfg.CardsPerGame)
	sampleuv.WithoutReplacement(drawn, len(pool), nil)

	first := Red
	if rand.Intn(2) == 0 {
		first = Blue
	}
	kinds := dealKinds(cfg, first)
	rand.Shuffle(len(kinds), func(i, j int) {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	})

	cards := make([]Card, cfg.CardsPerGame)
	for i, p := range drawn {
		cards[i] = Card{
			Phrase: pool[p],
			Index:  i,
			Kind:   kinds[i],
		}
	}

	board := &Board{
		Code:  NewCode(cfg.CodeLength),
		First: first,
		Cards: cards,
	}
	if err := board.check(cfg); err != nil {
		return nil, err
	}
	return board, nil
}

func dealKinds(cfg Config, first Kind) []Kind {
	kinds := make([]Kind, 0, cfg.CardsPerGame)
	for _, k := range []Kind{Red, Blue} {
		n := cfg.GuessAmount
		if k == first {
			n++
		}
		for i := 0; i < n; i++ {
			kinds = append(kinds, k)
		}
	}
	for i := 0; i < cfg.BlackAmount; i++ {
		kinds = append(kinds, Black)
	}
	for i := 0; i < cfg.TanAmount(); i++ {
		kinds = append(kinds, Tan)
	}
	return kinds
}

// check verifies the generation invariants: kind counts add up to the
// configured amounts and indices form a permutation of 0..N-1. A failure
// here is an internal fault, not a user error.
func (b *Board) check(cfg Config) error {
	if len(b.Cards) != cfg.CardsPerGame {
		return fmt.Errorf("board %s: generated %d cards instead of %d", b.Code, len(b.Cards), cfg.CardsPerGame)
	}
	counts := make(map[Kind]int)
	seen := make(map[int]struct{}, len(b.Cards))
	phrases := make(map[uint]struct{}, len(b.Cards))
	for _, c := range b.Cards {
		counts[c.Kind]++
		if c.Index < 0 || c.Index >= cfg.CardsPerGame {
			return fmt.Errorf("board %s: card index %d out of range", b.Code, c.Index)
		}
		if _, ok := seen[c.Index]; ok {
			return fmt.Errorf("board %s: duplicate card index %d", b.Code, c.Index)
		}
		seen[c.Index] = struct{}{}
		if _, ok := phrases[c.Phrase.ID]; ok {
			return fmt.Errorf("board %s: duplicate phrase %q", b.Code, c.Phrase.Text)
		}
		phrases[c.Phrase.ID] = struct{}{}
	}

	want := map[Kind]int{
		b.First: cfg.GuessAmount + 1,
		Black:   cfg.BlackAmount,
		Tan:     cfg.TanAmount(),
	}
	if b.First == Red {
		want[Blue] = cfg.GuessAmount
	} else {
		want[Red] = cfg.GuessAmount
	}
	for _, k := range AllKinds() {
		if counts[k] != want[k] {
			return fmt.Errorf("board %s: %d %s cards instead of %d", b.Code, counts[k], k, want[k])
		}
	}
	return nil
}
