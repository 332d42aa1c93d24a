package playback

import (
	"errors"
	"fmt"
	"log/slog"

	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/serial"
	"popup-orchestrator/internal/verdict"
)

var (
	// ErrNotPrimed is returned when a loop is started before priming completed.
	ErrNotPrimed = errors.New("player not primed")

	// ErrNoItems is returned when there is nothing displayable to reveal.
	ErrNoItems = errors.New("no items to reveal")
)

// Sink receives the two display tracks of a session: the ephemeral overlay and
// the append-only history.
type Sink interface {
	OverlayShown(item verdict.FactItem)
	OverlayHidden()
	HistoryAppended(item verdict.FactItem)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) OverlayShown(verdict.FactItem)    {}
func (NopSink) OverlayHidden()                   {}
func (NopSink) HistoryAppended(verdict.FactItem) {}

// SessionState is the observable state of one Loop.
type SessionState struct {
	Cursor         int                `json:"cursor"`
	ActiveItem     *verdict.FactItem  `json:"activeItem,omitempty"`
	OverlayVisible bool               `json:"overlayVisible"`
	History        []verdict.FactItem `json:"history"`
	Done           bool               `json:"done"`
}

// Scheduler starts fact loops. It holds no per-session data.
type Scheduler struct {
	clock  clock.Clock
	exec   serial.Executor
	timing Timing
	log    *slog.Logger
}

// NewScheduler returns a Scheduler using timing.
func NewScheduler(clk clock.Clock, exec serial.Executor, timing Timing, log *slog.Logger) *Scheduler {
	return &Scheduler{clock: clk, exec: exec, timing: timing, log: log}
}

// Loop is one session: it reveals items[0] FirstReveal after start, then one
// item every RevealInterval, and ends once the cursor runs past the last item.
// Each reveal shows the overlay for OverlayDuration.
type Loop struct {
	sched *Scheduler
	items []verdict.FactItem
	sink  Sink

	state      SessionState
	stopped    bool
	reveals    int
	reveal     clock.Timer
	visibility clock.Timer
}

// Start unmutes and resumes playback and schedules the first reveal. The
// player must be primed and at least one item must have text.
func (s *Scheduler) Start(r Readiness, ctrl Controls, items []verdict.FactItem, sink Sink) (*Loop, error) {
	if r != Primed {
		return nil, ErrNotPrimed
	}
	shown := make([]verdict.FactItem, 0, len(items))
	for _, it := range items {
		if it.Displayable() {
			shown = append(shown, it)
		}
	}
	if len(shown) == 0 {
		return nil, ErrNoItems
	}
	if sink == nil {
		sink = NopSink{}
	}

	if err := ctrl.Unmute(); err != nil {
		return nil, fmt.Errorf("resume playback: %w", err)
	}
	if err := ctrl.Play(); err != nil {
		return nil, fmt.Errorf("resume playback: %w", err)
	}

	l := &Loop{
		sched: s,
		items: shown,
		sink:  sink,
		state: SessionState{History: []verdict.FactItem{}},
	}
	l.reveal = s.clock.AfterFunc(s.timing.FirstReveal, l.task(l.first))
	s.log.Debug("fact loop started", slog.Int("items", len(shown)))
	return l, nil
}

// Stop cancels both timers. No callback scheduled by the loop mutates its
// state afterwards. Stop is idempotent.
func (l *Loop) Stop() {
	if l.stopped {
		return
	}
	l.stopped = true
	l.stopTimers()
}

// Done reports whether the loop has ended, naturally or by Stop.
func (l *Loop) Done() bool { return l.stopped }

// Snapshot returns a copy of the session state.
func (l *Loop) Snapshot() SessionState {
	st := l.state
	st.History = append([]verdict.FactItem(nil), l.state.History...)
	if l.state.ActiveItem != nil {
		item := *l.state.ActiveItem
		st.ActiveItem = &item
	}
	return st
}

func (l *Loop) task(fn func()) func() {
	return func() {
		l.sched.exec.Post(func() {
			if l.stopped {
				return
			}
			fn()
		})
	}
}

func (l *Loop) first() {
	l.show(0)
	l.armTick()
}

func (l *Loop) armTick() {
	l.reveal = l.sched.clock.AfterFunc(l.sched.timing.RevealInterval, l.task(l.tick))
}

func (l *Loop) tick() {
	l.state.Cursor++
	if l.state.Cursor >= len(l.items) {
		l.finish()
		return
	}
	l.show(l.state.Cursor)
	l.armTick()
}

func (l *Loop) show(i int) {
	item := l.items[i]
	l.state.ActiveItem = &item

	// Guards against the same reveal being delivered twice.
	if n := len(l.state.History); n == 0 || l.state.History[n-1].Text != item.Text {
		l.state.History = append(l.state.History, item)
		l.sink.HistoryAppended(item)
	}

	l.state.OverlayVisible = true
	l.sink.OverlayShown(item)

	l.reveals++
	seq := l.reveals
	clock.Stop(l.visibility)
	l.visibility = l.sched.clock.AfterFunc(l.sched.timing.OverlayDuration, l.task(func() {
		// A hide that fired late must not cut short a newer reveal.
		if seq == l.reveals {
			l.hide()
		}
	}))
}

func (l *Loop) hide() {
	l.visibility = nil
	l.state.OverlayVisible = false
	l.sink.OverlayHidden()
}

func (l *Loop) finish() {
	if l.state.OverlayVisible {
		l.hide()
	}
	l.stopped = true
	l.state.Done = true
	l.stopTimers()
	l.sched.log.Debug("fact loop finished", slog.Int("revealed", len(l.state.History)))
}

func (l *Loop) stopTimers() {
	clock.Stop(l.reveal)
	clock.Stop(l.visibility)
	l.reveal = nil
	l.visibility = nil
}
