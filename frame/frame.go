// Package frame provides the cooperative scheduler that drives every page
// runtime: next-tick tasks for engine readiness and reactive flushes, and
// per-frame callbacks for render loops.
package frame

import "sync"

// ID identifies a requested frame callback. 0 is never issued.
type ID uint64

type callback struct {
	id ID
	fn func()
}

// Scheduler runs tasks and frame callbacks on the goroutine that calls
// Pump. Post, RequestFrame and CancelFrame may be called from any goroutine.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []func()
	frames []callback
	// inFlight holds the IDs of the frame currently being run so that a
	// callback can cancel a later one.
	inFlight map[ID]bool
	nextID   ID
	count    uint64
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Post queues fn to run on the next Pump, before frame callbacks.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

// RequestFrame queues fn to run once during the next frame.
func (s *Scheduler) RequestFrame(fn func()) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.frames = append(s.frames, callback{id: s.nextID, fn: fn})
	return s.nextID
}

// CancelFrame removes a pending frame callback. Unknown or already run IDs
// are ignored.
func (s *Scheduler) CancelFrame(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
	for i, cb := range s.frames {
		if cb.id == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return
		}
	}
}

// PendingFrames reports how many frame callbacks are waiting.
func (s *Scheduler) PendingFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frames reports how many frames Pump has run.
func (s *Scheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Pump runs one scheduler tick: all queued tasks (including tasks they
// post), then the frame callbacks that were pending when the frame began,
// then any tasks those callbacks posted. Callbacks requested during the
// frame run on the next Pump.
func (s *Scheduler) Pump() {
	s.drainTasks()

	s.mu.Lock()
	frames := s.frames
	s.frames = nil
	s.count++
	s.inFlight = make(map[ID]bool, len(frames))
	for _, cb := range frames {
		s.inFlight[cb.id] = true
	}
	s.mu.Unlock()

	for _, cb := range frames {
		s.mu.Lock()
		live := s.inFlight[cb.id]
		delete(s.inFlight, cb.id)
		s.mu.Unlock()
		if live {
			cb.fn()
		}
	}

	s.drainTasks()
}

func (s *Scheduler) drainTasks() {
	for {
		s.mu.Lock()
		tasks := s.tasks
		s.tasks = nil
		s.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, t := range tasks {
			t()
		}
	}
}
