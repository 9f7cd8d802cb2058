package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bitterlily/codeboard/game"
)

// subscriptionBuffer bounds how far a slow consumer may fall behind
// before it is dropped instead of blocking everyone else.
const subscriptionBuffer = 8

// Subscription is one observer of one board. C is closed on unsubscribe.
type Subscription struct {
	ID   uuid.UUID
	Game string
	C    chan *game.Delta
}

// Broadcaster fans accepted mutations out to every live subscription of
// the mutated board. It knows nothing about transports; the websocket
// handler drains Subscription.C.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[uuid.UUID]*Subscription
	log  *logrus.Logger
}

func NewBroadcaster(log *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]map[uuid.UUID]*Subscription),
		log:  log,
	}
}

func (b *Broadcaster) Subscribe(code string) *Subscription {
	sub := &Subscription{
		ID:   uuid.New(),
		Game: code,
		C:    make(chan *game.Delta, subscriptionBuffer),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[uuid.UUID]*Subscription)
	}
	b.subs[code][sub.ID] = sub
	return sub
}

// Unsubscribe removes the handle and closes its channel. Idempotent, so
// both the connection teardown path and the slow-consumer path may call
// it without coordination.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	board, ok := b.subs[sub.Game]
	if !ok {
		return
	}
	if _, ok := board[sub.ID]; !ok {
		return
	}
	delete(board, sub.ID)
	if len(board) == 0 {
		delete(b.subs, sub.Game)
	}
	close(sub.C)
}

// Publish delivers a delta to every subscription of the board. Sends are
// non-blocking; a subscriber whose buffer is full is dropped afterwards
// rather than allowed to stall the others. Called after the mutating
// transaction has committed, never inside it.
func (b *Broadcaster) Publish(code string, delta *game.Delta) {
	var stale []*Subscription

	b.mu.RLock()
	for _, sub := range b.subs[code] {
		select {
		case sub.C <- delta:
		default:
			stale = append(stale, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range stale {
		b.log.WithFields(logrus.Fields{
			"game":         sub.Game,
			"subscription": sub.ID,
		}).Warn("dropping slow subscriber")
		b.Unsubscribe(sub)
	}
}

// Count reports the live subscriptions for a board.
func (b *Broadcaster) Count(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[code])
}
