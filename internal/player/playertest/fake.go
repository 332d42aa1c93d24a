// Package playertest provides an in-memory embed API for tests.
package playertest

import (
	"fmt"
	"sync"

	"popup-orchestrator/internal/player"
)

// API is a scriptable player.EmbedAPI. Its journal records widget creation
// and destruction in the order they happen.
type API struct {
	mu      sync.Mutex
	ready   bool
	widgets []*Widget
	journal []string
}

// NewAPI returns an API that reports ready as given.
func NewAPI(ready bool) *API {
	return &API{ready: ready}
}

func (a *API) SetReady(ready bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ready = ready
}

func (a *API) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *API) NewWidget(identifier string, cfg player.EmbedConfig, emit func(player.WidgetEvent)) (player.Widget, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		return nil, player.ErrAPINotReady
	}
	w := &Widget{api: a, N: len(a.widgets) + 1, Identifier: identifier, Config: cfg, emit: emit}
	a.widgets = append(a.widgets, w)
	a.journal = append(a.journal, fmt.Sprintf("new:%s#%d", identifier, w.N))
	return w, nil
}

// Widgets returns every widget created so far.
func (a *API) Widgets() []*Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Widget(nil), a.widgets...)
}

// Last returns the most recently created widget, or nil.
func (a *API) Last() *Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.widgets) == 0 {
		return nil
	}
	return a.widgets[len(a.widgets)-1]
}

// Journal returns the creation and destruction log.
func (a *API) Journal() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.journal...)
}

// Widget records the commands it receives.
type Widget struct {
	api        *API
	N          int
	Identifier string
	Config     player.EmbedConfig
	emit       func(player.WidgetEvent)

	mu             sync.Mutex
	calls          []string
	destroyed      bool
	CommandErr     error
	PanicOnDestroy bool
}

func (w *Widget) record(call string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	return w.CommandErr
}

func (w *Widget) Mute() error   { return w.record("mute") }
func (w *Widget) Unmute() error { return w.record("unmute") }
func (w *Widget) Play() error   { return w.record("play") }
func (w *Widget) Pause() error  { return w.record("pause") }

func (w *Widget) Destroy() error {
	w.mu.Lock()
	w.destroyed = true
	w.calls = append(w.calls, "destroy")
	panicking := w.PanicOnDestroy
	w.mu.Unlock()

	w.api.mu.Lock()
	w.api.journal = append(w.api.journal, fmt.Sprintf("destroy:%s#%d", w.Identifier, w.N))
	w.api.mu.Unlock()

	if panicking {
		panic("widget already gone")
	}
	return nil
}

// Calls returns the commands received so far.
func (w *Widget) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

// Destroyed reports whether Destroy was called.
func (w *Widget) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Emit delivers a raw platform event as the widget would.
func (w *Widget) Emit(name string, data int) {
	w.emit(player.WidgetEvent{Name: name, Data: data})
}
