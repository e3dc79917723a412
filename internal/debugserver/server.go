// Package debugserver exposes the state of running page runtimes over HTTP:
// JSON snapshots, PNG frames of each canvas and a websocket stream of
// lifecycle events and diagnostics.
//
// The scheduler goroutine publishes; HTTP handlers only ever read what was
// published, under the server's lock.
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/fietser28/studio/diag"
	"github.com/fietser28/studio/pageruntime"
	"github.com/fietser28/studio/project"
	"github.com/fietser28/studio/render"
)

// subscriberBuffer is how many messages a slow websocket client may lag
// behind before messages are dropped for it.
const subscriberBuffer = 64

// PageInfo describes one project page.
type PageInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Widgets   int    `json:"widgets"`
	FlowIndex int    `json:"flowIndex"`
	// Runtimes lists the runtimes attached to the page.
	Runtimes []project.RuntimeID `json:"runtimes,omitempty"`
}

// Snapshot is the state published by the scheduler goroutine.
type Snapshot struct {
	TakenAt      time.Time           `json:"takenAt"`
	SelectedPage string              `json:"selectedPage,omitempty"`
	Pages        []PageInfo          `json:"pages"`
	Runtimes     []pageruntime.Stats `json:"runtimes"`
}

// StatsSource is implemented by every page runtime.
type StatsSource interface {
	Stats() pageruntime.Stats
}

// Collect builds a snapshot of store and runtimes. It must run on the
// scheduler goroutine.
func Collect(store *project.Store, runtimes ...StatsSource) Snapshot {
	snap := Snapshot{TakenAt: time.Now()}
	if p := store.View.SelectedPage; p != nil {
		snap.SelectedPage = p.Name
	}
	for _, page := range store.Project.AllPages() {
		snap.Pages = append(snap.Pages, PageInfo{
			ID:        page.ID,
			Name:      page.Name,
			Width:     page.Width,
			Height:    page.Height,
			Widgets:   len(page.Widgets()),
			FlowIndex: store.FlowIndex(page),
			Runtimes:  page.AttachedRuntimes(),
		})
	}
	for _, rt := range runtimes {
		snap.Runtimes = append(snap.Runtimes, rt.Stats())
	}
	sort.Slice(snap.Runtimes, func(i, j int) bool { return snap.Runtimes[i].ID < snap.Runtimes[j].ID })
	return snap
}

// DiagInfo is the wire form of a diag.Error.
type DiagInfo struct {
	Op        string    `json:"op"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is one websocket frame.
type Message struct {
	Type     string             `json:"type"`
	Event    *pageruntime.Event `json:"event,omitempty"`
	Diag     *DiagInfo          `json:"diag,omitempty"`
	Snapshot *Snapshot          `json:"snapshot,omitempty"`
}

const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
	MessageDiag     = "diag"
)

// Poster runs fn on the scheduler goroutine. frame.Scheduler satisfies it.
type Poster interface {
	Post(fn func())
}

type subscriber struct {
	ch      chan Message
	dropped int
}

// Server is the inspection HTTP handler.
type Server struct {
	router chi.Router

	mu       sync.RWMutex
	poster   Poster
	selector func(name string)
	snap     Snapshot
	canvases map[string]*render.ImageCanvas
	subs     map[*subscriber]struct{}
}

// New creates a server with its routes registered.
func New() *Server {
	s := &Server{
		canvases: make(map[string]*render.ImageCanvas),
		subs:     make(map[*subscriber]struct{}),
	}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.getSnapshot)
		r.Get("/runtimes", s.listRuntimes)
		r.Get("/runtimes/{id}", s.getRuntime)
		r.Get("/pages", s.listPages)
		r.Post("/pages/{name}/select", s.handleSelectPage)
		r.Get("/canvases", s.listCanvases)
		r.Get("/canvases/{name}.png", s.getCanvas)
		r.Get("/events", s.streamEvents)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetPageSelector enables POST /api/pages/{name}/select. fn runs on the
// goroutine that drains p.
func (s *Server) SetPageSelector(p Poster, fn func(name string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poster, s.selector = p, fn
}

// Publish replaces the served snapshot and pushes it to subscribers.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.broadcast(Message{Type: MessageSnapshot, Snapshot: &snap})
}

// AddCanvas serves c under name.
func (s *Server) AddCanvas(name string, c *render.ImageCanvas) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.canvases[name]; exists {
		log.Printf("WARN debugserver AddCanvas: Overwriting canvas '%s'", name)
	}
	s.canvases[name] = c
}

// Event forwards a runtime lifecycle event. It has the signature of
// pageruntime.Options.Observer.
func (s *Server) Event(ev pageruntime.Event) {
	s.broadcast(Message{Type: MessageEvent, Event: &ev})
}

// Handle forwards a diagnostic, making the server a diag.Handler.
func (s *Server) Handle(err *diag.Error) {
	msg := ""
	if err.Err != nil {
		msg = err.Err.Error()
	}
	s.broadcast(Message{Type: MessageDiag, Diag: &DiagInfo{
		Op:        err.Op,
		Kind:      err.Kind.String(),
		Message:   msg,
		Timestamp: err.Timestamp,
	}})
}

func (s *Server) broadcast(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- m:
		default:
			sub.dropped++
		}
	}
}

func (s *Server) subscribe() *subscriber {
	sub := &subscriber{ch: make(chan Message, subscriberBuffer)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Server) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
	if sub.dropped > 0 {
		log.Printf("WARN debugserver events: subscriber dropped %d messages", sub.dropped)
	}
}

// Subscribers reports how many websocket clients are connected.
func (s *Server) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Server) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) listRuntimes(w http.ResponseWriter, r *http.Request) {
	rts := s.snapshot().Runtimes
	if rts == nil {
		rts = []pageruntime.Stats{}
	}
	writeJSON(w, http.StatusOK, rts)
}

func (s *Server) getRuntime(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid runtime id: "+raw)
		return
	}
	for _, st := range s.snapshot().Runtimes {
		if uint64(st.ID) == id {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "no runtime "+raw)
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	pages := s.snapshot().Pages
	if pages == nil {
		pages = []PageInfo{}
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleSelectPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	poster, fn := s.poster, s.selector
	s.mu.RUnlock()
	if poster == nil || fn == nil {
		writeError(w, http.StatusNotImplemented, "READ_ONLY", "page selection is not enabled")
		return
	}
	found := false
	for _, p := range s.snapshot().Pages {
		if p.Name == name {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no page "+name)
		return
	}
	poster.Post(func() { fn(name) })
	writeJSON(w, http.StatusAccepted, map[string]string{"selected": name})
}

func (s *Server) listCanvases(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.canvases))
	for name := range s.canvases {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) getCanvas(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.RLock()
	c := s.canvases[name]
	s.mu.RUnlock()
	if c == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no canvas "+name)
		return
	}
	img := c.Snapshot()
	if img == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_FRAME", "canvas "+name+" has no frame yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		log.Printf("debugserver getCanvas: encode error: %v", err)
	}
}

// streamEvents sends the current snapshot, then every published message
// until the client goes away.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	sub := s.subscribe()
	defer s.unsubscribe(sub)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("debugserver events: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	snap := s.snapshot()
	if err := send(ctx, conn, Message{Type: MessageSnapshot, Snapshot: &snap}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.ch:
			if err := send(ctx, conn, m); err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					log.Printf("debugserver events: write: %v", err)
				}
				return
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, m Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, m)
}

// ListenAndServe serves s on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s,
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()
	log.Printf("debugserver: listening on %s", addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("debugserver writeJSON: encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
