// Package player wraps the platform's embeddable media widget behind a small
// command interface and a closed set of lifecycle events.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/serial"
)

// DefaultRetryInterval is how often Mount polls an EmbedAPI that is not ready.
const DefaultRetryInterval = 100 * time.Millisecond

// ErrNotMounted is returned by commands issued while no widget is loaded.
var ErrNotMounted = errors.New("player not mounted")

// Options configures an Adapter.
type Options struct {
	RetryInterval time.Duration
	Config        EmbedConfig
}

// Adapter owns at most one widget instance at a time. All methods, and every
// callback it schedules, run as tasks on the executor passed to NewAdapter.
//
// When the embed API is not ready at mount time the adapter polls it on a
// fixed interval with no cap. The platform script has no failure signal, so a
// script that never loads leaves the adapter polling until Destroy or the next
// Mount.
type Adapter struct {
	api     EmbedAPI
	clock   clock.Clock
	exec    serial.Executor
	handler Handler
	log     *slog.Logger
	opts    Options

	instance   uint64
	mounted    bool
	identifier string
	widget     Widget
	retry      clock.Timer
}

// NewAdapter returns an Adapter with no widget. A zero RetryInterval uses
// DefaultRetryInterval.
func NewAdapter(api EmbedAPI, clk clock.Clock, exec serial.Executor, h Handler, log *slog.Logger, opts Options) *Adapter {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	return &Adapter{api: api, clock: clk, exec: exec, handler: h, log: log, opts: opts}
}

// Mount destroys any current widget and starts building a fresh one for
// identifier. It returns the new instance id; events from earlier instances
// are dropped.
func (a *Adapter) Mount(identifier string) uint64 {
	a.Destroy()
	a.mounted = true
	a.identifier = identifier
	a.tryInit(a.instance)
	return a.instance
}

// Destroy releases the widget and any pending retry. It is safe to call any
// number of times and never panics; teardown failures are logged and dropped.
func (a *Adapter) Destroy() {
	clock.Stop(a.retry)
	a.retry = nil
	if a.widget != nil {
		if err := safeDestroy(a.widget); err != nil {
			a.log.Debug("widget destroy failed",
				slog.String("identifier", a.identifier),
				slog.String("error", err.Error()))
		}
	}
	a.widget = nil
	a.mounted = false
	a.instance++
}

// Instance returns the id of the current (or next) widget instance.
func (a *Adapter) Instance() uint64 { return a.instance }

// Loaded reports whether a widget exists and accepts commands.
func (a *Adapter) Loaded() bool { return a.widget != nil }

func (a *Adapter) Mute() error   { return a.command("mute", Widget.Mute) }
func (a *Adapter) Unmute() error { return a.command("unmute", Widget.Unmute) }
func (a *Adapter) Play() error   { return a.command("play", Widget.Play) }
func (a *Adapter) Pause() error  { return a.command("pause", Widget.Pause) }

func (a *Adapter) command(name string, fn func(Widget) error) error {
	if a.widget == nil {
		return ErrNotMounted
	}
	if err := fn(a.widget); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (a *Adapter) tryInit(inst uint64) {
	if inst != a.instance || !a.mounted || a.widget != nil {
		return
	}
	if !a.api.Ready() {
		a.scheduleRetry(inst)
		return
	}
	w, err := a.api.NewWidget(a.identifier, a.opts.Config, a.emitter(inst))
	if err != nil {
		if !errors.Is(err, ErrAPINotReady) {
			a.log.Warn("widget init failed, retrying",
				slog.String("identifier", a.identifier),
				slog.String("error", err.Error()))
		}
		a.scheduleRetry(inst)
		return
	}
	a.widget = w
	a.log.Debug("widget created",
		slog.String("identifier", a.identifier),
		slog.Uint64("instance", inst))
}

func (a *Adapter) scheduleRetry(inst uint64) {
	a.retry = a.clock.AfterFunc(a.opts.RetryInterval, func() {
		a.exec.Post(func() {
			if inst != a.instance {
				return
			}
			a.retry = nil
			a.tryInit(inst)
		})
	})
}

func (a *Adapter) emitter(inst uint64) func(WidgetEvent) {
	return func(ev WidgetEvent) {
		a.exec.Post(func() { a.dispatch(inst, ev) })
	}
}

func (a *Adapter) dispatch(inst uint64, ev WidgetEvent) {
	if inst != a.instance || a.widget == nil {
		a.log.Debug("dropping event from stale widget",
			slog.String("event", ev.Name),
			slog.Uint64("instance", inst))
		return
	}

	switch ev.Name {
	case WidgetReady:
		a.handler.HandlePlayerEvent(Event{Kind: EventReady, Instance: inst})
	case WidgetStateChange:
		if ev.Data == StateEnded {
			a.handler.HandlePlayerEvent(Event{Kind: EventEnded, Instance: inst})
		}
	case WidgetError:
		if IsPlaybackDisabled(ev.Data) {
			a.handler.HandlePlayerEvent(Event{Kind: EventError, Code: ev.Data, Instance: inst})
			return
		}
		a.log.Warn("player notice",
			slog.String("kind", "transient_platform_notice"),
			slog.String("identifier", a.identifier),
			slog.Int("code", ev.Data))
	case WidgetLost:
		a.log.Warn("widget lost", slog.String("identifier", a.identifier), slog.Uint64("instance", inst))
		a.widget = nil
		a.handler.HandlePlayerEvent(Event{Kind: EventLost, Instance: inst})
	default:
		a.log.Debug("unknown widget event", slog.String("event", ev.Name))
	}
}

func safeDestroy(w Widget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panicked: %v", r)
		}
	}()
	return w.Destroy()
}
