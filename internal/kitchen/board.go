// Package kitchen holds the display-side state of the fulfillment feed: the
// board of processing orders a kitchen screen renders. The dispatch channel
// is at-least-once, so the board is where redelivered events get collapsed.
package kitchen

import (
	"sort"
	"sync"
	"time"

	"kasirless/internal/realtime"

	"github.com/google/uuid"
)

// Card is one order on the board.
type Card struct {
	OrderID      uuid.UUID
	TableNumber  int
	CustomerName string
	Items        []realtime.ItemSnapshot
	CreatedAt    time.Time
	ReceivedAt   time.Time
}

// Elapsed is how long the order has been on the board at time now.
func (c *Card) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.ReceivedAt)
}

// doneLimit caps the remembered completions. Late redeliveries arrive within
// seconds, so remembering the last thousand completed orders is ample; the
// cap keeps a display that runs for weeks from growing without bound.
const doneLimit = 1024

// Board deduplicates events by order id and keeps the processing set.
// A newOrder for an id already on the board (or already completed) is a
// redelivery and is ignored: one card, one alert per order.
type Board struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*Card
	// done remembers recently completed orders, oldest evicted first.
	done    map[uuid.UUID]bool
	doneSeq []uuid.UUID
	// alert fires exactly once per genuinely new order (sound, flash).
	alert func(*Card)
	now   func() time.Time
}

func NewBoard(alert func(*Card)) *Board {
	return &Board{
		cards: make(map[uuid.UUID]*Card),
		done:  make(map[uuid.UUID]bool),
		alert: alert,
		now:   time.Now,
	}
}

// Apply feeds one dispatch event into the board. It reports whether the event
// changed anything (false for duplicates and unknown completions).
func (b *Board) Apply(ev realtime.Event) bool {
	switch ev.Type {
	case realtime.EventNewOrder:
		if ev.Order == nil {
			return false
		}
		return b.add(ev.Order)
	case realtime.EventOrderCompleted:
		return b.complete(ev.OrderID)
	default:
		return false
	}
}

func (b *Board) add(snap *realtime.OrderSnapshot) bool {
	b.mu.Lock()
	if b.done[snap.OrderID] {
		b.mu.Unlock()
		return false
	}
	if _, exists := b.cards[snap.OrderID]; exists {
		b.mu.Unlock()
		return false
	}
	card := &Card{
		OrderID:      snap.OrderID,
		TableNumber:  snap.TableNumber,
		CustomerName: snap.CustomerName,
		Items:        snap.Items,
		CreatedAt:    snap.CreatedAt,
		ReceivedAt:   b.now(),
	}
	b.cards[snap.OrderID] = card
	alert := b.alert
	b.mu.Unlock()

	if alert != nil {
		alert(card)
	}
	return true
}

func (b *Board) complete(orderID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markDone(orderID)
	if _, exists := b.cards[orderID]; !exists {
		return false
	}
	delete(b.cards, orderID)
	return true
}

// markDone records a completion for redelivery dedupe, evicting the oldest
// entry past doneLimit. Caller holds the lock.
func (b *Board) markDone(orderID uuid.UUID) {
	if b.done[orderID] {
		return
	}
	b.done[orderID] = true
	b.doneSeq = append(b.doneSeq, orderID)
	if len(b.doneSeq) > doneLimit {
		delete(b.done, b.doneSeq[0])
		b.doneSeq = b.doneSeq[1:]
	}
}

// Cards returns the board ordered oldest first, the way tickets are worked.
func (b *Board) Cards() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Card, 0, len(b.cards))
	for _, c := range b.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ByTable groups the board for the per-table view.
func (b *Board) ByTable() map[int][]Card {
	grouped := make(map[int][]Card)
	for _, c := range b.Cards() {
		grouped[c.TableNumber] = append(grouped[c.TableNumber], c)
	}
	return grouped
}

// Resync replaces the board with the authoritative processing list, used
// after a reconnect. Orders that vanished while offline are dropped; orders
// that appeared alert as new.
func (b *Board) Resync(snapshots []realtime.OrderSnapshot) {
	current := make(map[uuid.UUID]bool, len(snapshots))
	for i := range snapshots {
		current[snapshots[i].OrderID] = true
	}

	b.mu.Lock()
	for id := range b.cards {
		if !current[id] {
			delete(b.cards, id)
		}
	}
	b.mu.Unlock()

	for i := range snapshots {
		b.add(&snapshots[i])
	}
}
