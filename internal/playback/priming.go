package playback

import (
	"log/slog"
	"time"

	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/serial"
)

// Sequencer builds Priming runs. It holds no per-session data.
type Sequencer struct {
	clock clock.Clock
	exec  serial.Executor
	delay time.Duration
	log   *slog.Logger
}

// NewSequencer returns a Sequencer that pauses delay after starting muted playback.
func NewSequencer(clk clock.Clock, exec serial.Executor, delay time.Duration, log *slog.Logger) *Sequencer {
	return &Sequencer{clock: clk, exec: exec, delay: delay, log: log}
}

// Priming captures the autoplay gesture for one player instance: muted play,
// a short wait, then pause. Playing immediately after the user's submit keeps
// the gesture token alive through the slow generation call, so the later
// unmuted resume is allowed.
type Priming struct {
	seq       *Sequencer
	ctrl      Controls
	onPrimed  func()
	started   bool
	stopped   bool
	readiness Readiness
	timer     clock.Timer
}

// Begin returns a Priming for ctrl. onPrimed runs, on the executor, once the
// instance is primed.
func (s *Sequencer) Begin(ctrl Controls, onPrimed func()) *Priming {
	return &Priming{seq: s, ctrl: ctrl, onPrimed: onPrimed}
}

// OnReady starts the sequence. Only the first call per Priming has any effect.
func (p *Priming) OnReady() {
	if p.started || p.stopped {
		return
	}
	p.started = true
	if err := p.ctrl.Mute(); err != nil {
		p.seq.log.Warn("priming mute failed", slog.String("error", err.Error()))
	}
	if err := p.ctrl.Play(); err != nil {
		p.seq.log.Warn("priming play failed", slog.String("error", err.Error()))
	}
	p.timer = p.seq.clock.AfterFunc(p.seq.delay, func() {
		p.seq.exec.Post(p.finish)
	})
}

func (p *Priming) finish() {
	if p.stopped || p.readiness == Primed {
		return
	}
	p.timer = nil
	if err := p.ctrl.Pause(); err != nil {
		p.seq.log.Warn("priming pause failed", slog.String("error", err.Error()))
	}
	p.readiness = Primed
	if p.onPrimed != nil {
		p.onPrimed()
	}
}

// Stop cancels a pending pause. A stopped Priming never becomes primed.
func (p *Priming) Stop() {
	p.stopped = true
	clock.Stop(p.timer)
	p.timer = nil
}

// Readiness reports how far the sequence has got.
func (p *Priming) Readiness() Readiness { return p.readiness }

// Primed reports whether the pause has run and the instance may be resumed.
func (p *Priming) Primed() bool { return p.readiness == Primed }
