package game

import "fmt"

// Kind is the hidden classification of a card. It is only shown to
// everyone once the card has been revealed.
type Kind string

const (
	Red   Kind = "red"
	Blue  Kind = "blue"
	Black Kind = "black"
	Tan   Kind = "tan"
)

func AllKinds() []Kind {
	return []Kind{Red, Blue, Black, Tan}
}

func (k Kind) Valid() bool {
	switch k {
	case Red, Blue, Black, Tan:
		return true
	}
	return false
}

// Display holds the presentation attributes of a kind. The mapping is
// total over AllKinds, which KindDisplay falls back on checking.
type Display struct {
	Class string `json:"class"`
	Badge string `json:"badge"`
}

var displays = map[Kind]Display{
	Red:   {Class: "bg-danger-subtle", Badge: "🐵"},
	Blue:  {Class: "bg-primary-subtle", Badge: "🐵"},
	Black: {Class: "text-light bg-black", Badge: "🙊"},
	Tan:   {Class: "bg-warning-subtle", Badge: "🐵"},
}

func KindDisplay(k Kind) (Display, error) {
	d, ok := displays[k]
	if !ok {
		return Display{}, fmt.Errorf("no display for kind %q", k)
	}
	return d, nil
}
