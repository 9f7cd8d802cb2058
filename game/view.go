package game

// CardView is one board position as shown to a viewer. Kind is empty on
// unrevealed cards unless the viewer asked for the spymaster view.
type CardView struct {
	Index      int    `json:"index"`
	Phrase     string `json:"phrase"`
	Revealed   bool   `json:"revealed"`
	Kind       Kind   `json:"kind,omitempty"`
	Selections int    `json:"selections,omitempty"`
}

// Count is the revealed/total pair for one kind.
type Count struct {
	Revealed int `json:"revealed"`
	Total    int `json:"total"`
}

type Tally map[Kind]Count

// BoardView is the full state of a board at one version cursor.
// CardsPerRow tells the presentation layer how to lay out the grid.
type BoardView struct {
	Code        string     `json:"code"`
	Version     int64      `json:"version"`
	CardsPerRow int        `json:"cardsPerRow"`
	Cards       []CardView `json:"cards"`
	Tally       Tally      `json:"tally"`
}

// Delta describes what changed since a version cursor: the cards revealed
// after it, the current tallies and the current selection overlay. A
// client holding Version needs nothing else to catch up.
type Delta struct {
	Version    int64       `json:"version"`
	Revealed   []CardView  `json:"revealed"`
	Tally      Tally       `json:"tally"`
	Selections map[int]int `json:"selections"`
}

// RevealResult is returned to the guesser who won the reveal.
type RevealResult struct {
	Index   int   `json:"index"`
	Kind    Kind  `json:"kind"`
	Version int64 `json:"version"`
	Tally   Tally `json:"tally"`
}
