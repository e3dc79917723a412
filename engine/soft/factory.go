package soft

import (
	"sync"

	"github.com/fietser28/studio/engine"
)

// Poster schedules a function for a later scheduler tick.
type Poster interface {
	Post(fn func())
}

// Factory starts soft engines. Readiness is signalled on the next tick of
// the poster, never from inside New.
type Factory struct {
	poster Poster
	opts   []Option

	mu      sync.Mutex
	created []*Engine
}

// NewFactory creates a factory whose engines get opts.
func NewFactory(p Poster, opts ...Option) *Factory {
	return &Factory{poster: p, opts: opts}
}

func (f *Factory) New(v engine.Version, ready func()) engine.Engine {
	e := New(v, f.opts...)
	f.mu.Lock()
	f.created = append(f.created, e)
	f.mu.Unlock()
	f.poster.Post(ready)
	return e
}

// Created returns every engine the factory has started, oldest first.
func (f *Factory) Created() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Engine(nil), f.created...)
}

// Last returns the most recently started engine, or nil.
func (f *Factory) Last() *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

var _ engine.Factory = (*Factory)(nil)
