/*
Package game
File: engine.go
Description:
    Manages the runtime sales state of one bakery session.
    The Engine owns the single SalesState instance and exposes the sole
    mutating operation, RecordSale. Every mutation is pushed to subscribed
    observers as an immutable Snapshot.
*/

package game

import (
	"math"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Engine is the Sales State Engine. It is safe for concurrent use; all
// mutations are serialized by mu.
type Engine struct {
	// mu protects state and observers.
	// Observers are invoked while it is held and must not call back into the Engine.
	mu sync.Mutex

	catalog *Catalog
	session string
	state   SalesState

	observers []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Observer
}

// NewEngine starts a fresh session: nothing sold, no revenue, first item current.
func NewEngine(catalog *Catalog) *Engine {
	e := &Engine{
		catalog: catalog,
		session: uuid.NewString(),
	}
	log.WithFields(log.Fields{
		"session": e.session,
		"items":   catalog.Len(),
	}).Info("Bakery session started")
	return e
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Session returns the session ID.
func (e *Engine) Session() string {
	return e.session
}

// RecordSale sells one unit of the current item. It never fails.
func (e *Engine) RecordSale() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. Charge the price of the item that was current BEFORE this sale
	price := e.catalog.items[e.state.CurrentIndex].UnitPrice

	// 2. Advance the counters (saturating, so the operation stays total)
	if e.state.UnitsSold < math.MaxInt64 {
		e.state.UnitsSold++
	}
	if e.state.Revenue > math.MaxInt64-price {
		e.state.Revenue = math.MaxInt64
	} else {
		e.state.Revenue += price
	}

	// 3. Re-select the current item from the new units count
	prev := e.state.CurrentIndex
	e.state.CurrentIndex = e.catalog.IndexFor(e.state.UnitsSold)
	if e.state.CurrentIndex != prev {
		log.WithFields(log.Fields{
			"session":    e.session,
			"units_sold": e.state.UnitsSold,
			"item":       e.catalog.items[e.state.CurrentIndex].Key,
		}).Debug("Current dessert advanced")
	}

	// 4. Publish
	snap := e.snapshotLocked()
	for _, sub := range e.observers {
		sub.fn(snap)
	}
	return snap
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Republish hands the current snapshot to fn while the engine lock is held,
// so fn is ordered against the observers of every RecordSale. Like an
// observer, fn must not call back into the Engine.
func (e *Engine) Republish(fn Observer) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshotLocked()
	fn(snap)
	return snap
}

// State returns the raw counters.
func (e *Engine) State() SalesState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn to receive every snapshot published after this call.
// The returned cancel func removes it; calling cancel more than once is a no-op.
func (e *Engine) Subscribe(fn Observer) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	e.observers = append(e.observers, subscription{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.observers {
			if sub.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	item := e.catalog.items[e.state.CurrentIndex]
	return Snapshot{
		Session:         e.session,
		UnitsSold:       e.state.UnitsSold,
		Revenue:         e.state.Revenue,
		CurrentIndex:    e.state.CurrentIndex,
		CurrentImageRef: item.ImageRef,
		CurrentName:     item.Name,
		CurrentPrice:    item.UnitPrice,
	}
}
