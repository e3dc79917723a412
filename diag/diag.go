// Package diag collects the anomalies page runtimes absorb instead of
// returning: missing resources, failed materializations, reflection
// mismatches and programmer errors. Every report goes to the installed
// Handler; the default handler logs it.
package diag

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Kind categorizes a report.
type Kind int

const (
	KindUnknown Kind = iota
	// KindResourceUnavailable: a bitmap or font had no payload or could not
	// be placed in engine memory.
	KindResourceUnavailable
	// KindMaterialization: the widget tree produced no root object.
	KindMaterialization
	// KindReflectionMismatch: declared and reported flags disagree.
	KindReflectionMismatch
	// KindProgrammer: an unknown part, state or style property was used.
	KindProgrammer
	// KindInit: the engine refused to initialize.
	KindInit
)

func (k Kind) String() string {
	switch k {
	case KindResourceUnavailable:
		return "resource-unavailable"
	case KindMaterialization:
		return "materialization"
	case KindReflectionMismatch:
		return "reflection-mismatch"
	case KindProgrammer:
		return "programmer"
	case KindInit:
		return "init"
	default:
		return "unknown"
	}
}

// Error is one reported anomaly.
type Error struct {
	// Op is the operation that hit the anomaly, e.g. "pageruntime.Editor.rebuild".
	Op        string
	Kind      Kind
	Err       error
	Timestamp time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Handler receives reports.
type Handler interface {
	Handle(err *Error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(err *Error)

func (f HandlerFunc) Handle(err *Error) { f(err) }

// LogHandler writes reports with the standard logger.
type LogHandler struct{}

func (LogHandler) Handle(err *Error) {
	level := "WARN"
	if err.Kind == KindProgrammer || err.Kind == KindInit {
		level = "ERROR"
	}
	log.Printf("%s %s", level, err.Error())
}

var (
	mu      sync.RWMutex
	handler Handler = LogHandler{}
)

// SetHandler installs h. A nil h restores LogHandler.
func SetHandler(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = LogHandler{}
	}
	handler = h
}

// CurrentHandler returns the installed handler.
func CurrentHandler() Handler {
	mu.RLock()
	defer mu.RUnlock()
	return handler
}

// Report sends a new Error to the installed handler.
func Report(op string, kind Kind, err error) {
	CurrentHandler().Handle(&Error{Op: op, Kind: kind, Err: err, Timestamp: time.Now()})
}

// Reportf is Report with a formatted message.
func Reportf(op string, kind Kind, format string, args ...any) {
	Report(op, kind, fmt.Errorf(format, args...))
}

// Multi fans a report out to several handlers.
type Multi []Handler

func (m Multi) Handle(err *Error) {
	for _, h := range m {
		h.Handle(err)
	}
}
