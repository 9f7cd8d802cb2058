package containers

import (
	"fmt"
	"io"

	"github.com/bitterlily/codeboard/utils"
)

// TagFilter selects which part of the phrase catalog a board draws from.
type TagFilter struct {
	Tags []string
}

func ParseTagFilter(data io.ReadCloser) (*TagFilter, error) {
	var container interface{} = &TagFilter{}
	res, err := utils.Parse(data, container)
	if err != nil {
		return nil, err
	}

	filter, ok := res.(*TagFilter)
	if !ok {
		return nil, fmt.Errorf("could not convert to tag filter")
	}
	return filter, nil
}

type SessionStart struct {
	Name string
	Tags []string
}

func ParseSessionStart(data io.ReadCloser) (*SessionStart, error) {
	var container interface{} = &SessionStart{}
	res, err := utils.Parse(data, container)
	if err != nil {
		return nil, err
	}

	start, ok := res.(*SessionStart)
	if !ok {
		return nil, fmt.Errorf("could not convert to session start")
	}
	return start, nil
}

// Advance carries the game code the client believes is current, so a
// stale client can be redirected instead of double-advancing the session.
type Advance struct {
	Current string
}

func ParseAdvance(data io.ReadCloser) (*Advance, error) {
	var container interface{} = &Advance{}
	res, err := utils.Parse(data, container)
	if err != nil {
		return nil, err
	}

	advance, ok := res.(*Advance)
	if !ok {
		return nil, fmt.Errorf("could not convert to advance")
	}
	return advance, nil
}

type Reveal struct {
	Index int
}

func ParseReveal(data io.ReadCloser) (*Reveal, error) {
	var container interface{} = &Reveal{}
	res, err := utils.Parse(data, container)
	if err != nil {
		return nil, err
	}

	reveal, ok := res.(*Reveal)
	if !ok {
		return nil, fmt.Errorf("could not convert to reveal")
	}
	return reveal, nil
}

// Select carries a candidate card index; nil clears the selection.
type Select struct {
	Index *int
}

func ParseSelect(data io.ReadCloser) (*Select, error) {
	var container interface{} = &Select{}
	res, err := utils.Parse(data, container)
	if err != nil {
		return nil, err
	}

	sel, ok := res.(*Select)
	if !ok {
		return nil, fmt.Errorf("could not convert to select")
	}
	return sel, nil
}
