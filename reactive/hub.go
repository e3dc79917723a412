// Package reactive is the explicit observer mechanism that drives runtime
// rebuilds. Reactions declare the topics they depend on; model mutations
// notify topics; all reactions made dirty within one scheduler tick run once,
// after the mutation batch settles.
package reactive

import "log"

// Topic names one observable piece of model state.
type Topic string

// Poster schedules work for the next scheduler tick. frame.Scheduler
// satisfies it.
type Poster interface {
	Post(fn func())
}

// maxFlushRounds bounds reactions that keep re-dirtying each other.
const maxFlushRounds = 100

// Hub tracks subscriptions and dirty reactions. It is not safe for
// concurrent use; every call must come from the scheduler goroutine.
type Hub struct {
	poster    Poster
	topics    map[Topic]map[*Reaction]struct{}
	dirty     []*Reaction
	batch     int
	scheduled bool
	flushing  bool
	runs      uint64
}

// NewHub creates a hub that schedules flushes through p. A nil p flushes
// synchronously when the outermost batch ends.
func NewHub(p Poster) *Hub {
	return &Hub{
		poster: p,
		topics: make(map[Topic]map[*Reaction]struct{}),
	}
}

// Reaction is a subscribed function.
type Reaction struct {
	hub      *Hub
	name     string
	fn       func()
	topics   []Topic
	dirty    bool
	disposed bool
}

// Subscribe registers fn to run whenever any of topics is notified. fn is
// not run immediately.
func (h *Hub) Subscribe(name string, fn func(), topics ...Topic) *Reaction {
	r := &Reaction{hub: h, name: name, fn: fn}
	r.SetTopics(topics...)
	return r
}

// Autorun subscribes fn and runs it once right away, inside a batch.
func (h *Hub) Autorun(name string, fn func(), topics ...Topic) *Reaction {
	r := h.Subscribe(name, fn, topics...)
	h.run(r)
	return r
}

// SetTopics replaces the reaction's dependencies.
func (r *Reaction) SetTopics(topics ...Topic) {
	if r.disposed {
		return
	}
	r.unlink()
	r.topics = append(r.topics[:0], topics...)
	for _, t := range r.topics {
		subs := r.hub.topics[t]
		if subs == nil {
			subs = make(map[*Reaction]struct{})
			r.hub.topics[t] = subs
		}
		subs[r] = struct{}{}
	}
}

// Dispose unsubscribes the reaction. A pending run is dropped. Disposing
// twice is a no-op.
func (r *Reaction) Dispose() {
	if r == nil || r.disposed {
		return
	}
	r.unlink()
	r.disposed = true
	r.dirty = false
}

// Disposed reports whether Dispose was called.
func (r *Reaction) Disposed() bool {
	return r.disposed
}

func (r *Reaction) unlink() {
	for _, t := range r.topics {
		if subs := r.hub.topics[t]; subs != nil {
			delete(subs, r)
			if len(subs) == 0 {
				delete(r.hub.topics, t)
			}
		}
	}
}

// Notify marks every reaction subscribed to topics dirty and schedules a
// flush once the current batch completes.
func (h *Hub) Notify(topics ...Topic) {
	for _, t := range topics {
		for r := range h.topics[t] {
			if !r.dirty {
				r.dirty = true
				h.dirty = append(h.dirty, r)
			}
		}
	}
	h.schedule()
}

// Batch runs fn with flushing deferred until the outermost batch ends.
func (h *Hub) Batch(fn func()) {
	h.batch++
	defer func() {
		h.batch--
		h.schedule()
	}()
	fn()
}

// Runs reports how many reaction runs the hub has performed.
func (h *Hub) Runs() uint64 {
	return h.runs
}

func (h *Hub) schedule() {
	if h.batch > 0 || h.flushing || h.scheduled || len(h.dirty) == 0 {
		return
	}
	if h.poster == nil {
		h.Flush()
		return
	}
	h.scheduled = true
	h.poster.Post(func() {
		h.scheduled = false
		h.Flush()
	})
}

// Flush runs dirty reactions until none remain. Reactions dirtied while a
// round runs are picked up by the next round.
func (h *Hub) Flush() {
	if h.flushing {
		return
	}
	h.flushing = true
	defer func() { h.flushing = false }()

	for round := 0; len(h.dirty) > 0; round++ {
		if round == maxFlushRounds {
			log.Printf("WARN reactive Flush: giving up after %d rounds, %d reactions still dirty", round, len(h.dirty))
			for _, r := range h.dirty {
				r.dirty = false
			}
			h.dirty = nil
			return
		}
		pending := h.dirty
		h.dirty = nil
		for _, r := range pending {
			if r.disposed || !r.dirty {
				continue
			}
			h.run(r)
		}
	}
}

func (h *Hub) run(r *Reaction) {
	r.dirty = false
	h.runs++
	h.batch++
	defer func() {
		h.batch--
		h.schedule()
	}()
	r.fn()
}

// Name returns the label given at subscription time.
func (r *Reaction) Name() string {
	return r.name
}
