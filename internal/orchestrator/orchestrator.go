package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"popup-orchestrator/internal/generation"
	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/logger"
	"popup-orchestrator/internal/platform/metrics"
	"popup-orchestrator/internal/platform/serial"
	"popup-orchestrator/internal/playback"
	"popup-orchestrator/internal/player"
	"popup-orchestrator/internal/verdict"
)

// Generator produces a verdict for one identifier.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (verdict.Verdict, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req generation.Request) (verdict.Verdict, error)

func (f GeneratorFunc) Generate(ctx context.Context, req generation.Request) (verdict.Verdict, error) {
	return f(ctx, req)
}

// TitleResolver looks up a human title for an identifier.
type TitleResolver interface {
	ResolveTitle(ctx context.Context, id string) (string, bool)
}

// Config holds the orchestrator's timing.
type Config struct {
	Timing            playback.Timing
	EndGrace          time.Duration
	EmbedAPIPoll      time.Duration
	GenerationTimeout time.Duration
}

// DefaultConfig returns the shipped timings.
func DefaultConfig() Config {
	return Config{
		Timing:            playback.DefaultTiming(),
		EndGrace:          2 * time.Second,
		EmbedAPIPoll:      player.DefaultRetryInterval,
		GenerationTimeout: time.Minute,
	}
}

// Deps are the orchestrator's collaborators. Titles, Sink and Metrics may be nil.
type Deps struct {
	Generator Generator
	Titles    TitleResolver
	Embed     player.EmbedAPI
	Sink      playback.Sink
	Clock     clock.Clock
	Log       *slog.Logger
	Metrics   *metrics.Metrics
}

// Orchestrator is the per-session state machine. Every mutation happens in a
// task on its serial queue. Work that completes later (timers, widget events,
// the generation call) carries the session number it was started under and is
// dropped if the session has moved on.
type Orchestrator struct {
	queue   *serial.Queue
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
	gen     Generator
	titles  TitleResolver
	sink    playback.Sink
	cfg     Config

	adapter *player.Adapter
	primer  *playback.Sequencer
	loops   *playback.Scheduler

	state      State
	session    uint64
	identifier string
	verdict    *verdict.Verdict
	warning    bool
	failure    *Failure
	priming    *playback.Priming
	loop       *playback.Loop
	endTimer   clock.Timer
	cancelGen  context.CancelFunc
}

// New returns an idle Orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Sink == nil {
		deps.Sink = playback.NopSink{}
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultConfig().GenerationTimeout
	}

	q := serial.New()
	o := &Orchestrator{
		queue:   q,
		clock:   deps.Clock,
		log:     deps.Log,
		metrics: deps.Metrics,
		gen:     deps.Generator,
		titles:  deps.Titles,
		sink:    deps.Sink,
		cfg:     cfg,
		state:   StateIdle,
	}
	o.adapter = player.NewAdapter(deps.Embed, deps.Clock, q, o, deps.Log, player.Options{
		RetryInterval: cfg.EmbedAPIPoll,
		Config:        player.LeanBack(),
	})
	o.primer = playback.NewSequencer(deps.Clock, q, cfg.Timing.PrimingDelay, deps.Log)
	o.loops = playback.NewScheduler(deps.Clock, q, cfg.Timing, deps.Log)
	return o
}

// Submit starts a new session for identifier, tearing down whatever was
// running. The player is mounted before the generation call is issued so
// priming can begin immediately.
func (o *Orchestrator) Submit(identifier string) error {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return ErrEmptyIdentifier
	}
	o.queue.Call(func() { o.submit(id) })
	return nil
}

// Reset tears the session down and returns to idle.
func (o *Orchestrator) Reset() {
	o.queue.Call(o.reset)
}

// Snapshot returns a copy of the current session.
func (o *Orchestrator) Snapshot() Snapshot {
	var s Snapshot
	o.queue.Call(func() { s = o.snapshot() })
	return s
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	var s State
	o.queue.Call(func() { s = o.state })
	return s
}

// HandlePlayerEvent implements player.Handler. The adapter only calls it from
// tasks on the orchestrator's queue.
func (o *Orchestrator) HandlePlayerEvent(e player.Event) {
	if e.Instance != o.adapter.Instance() {
		return
	}
	switch e.Kind {
	case player.EventReady:
		if o.priming != nil {
			o.priming.OnReady()
		}
	case player.EventEnded:
		o.onEnded()
	case player.EventError:
		if o.state != StateGenerating && o.state != StatePlaying {
			return
		}
		o.log.Info("playback disabled by platform",
			slog.String("identifier", o.identifier),
			slog.Int("code", e.Code))
		o.fail(KindPlaybackDisabled, MsgPlaybackDisabled)
	case player.EventLost:
		if o.state != StateGenerating && o.state != StatePlaying {
			return
		}
		o.log.Warn("player connection lost", slog.String("identifier", o.identifier))
		o.fail(KindConnectionLost, MsgConnectionLost)
	}
}

func (o *Orchestrator) submit(id string) {
	o.teardown()
	if o.state != StateIdle {
		o.transition(StateIdle)
	}
	o.failure = nil
	o.identifier = id
	o.transition(StateGenerating)
	o.metrics.IncSubmissions()

	sess := o.session
	o.adapter.Mount(id)
	o.priming = o.primer.Begin(o.adapter, func() { o.onPrimed(sess) })

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.GenerationTimeout)
	o.cancelGen = cancel
	go o.generate(ctx, sess, id)
}

func (o *Orchestrator) generate(ctx context.Context, sess uint64, id string) {
	var title string
	if o.titles != nil {
		if t, ok := o.titles.ResolveTitle(ctx, id); ok {
			title = t
		}
	}
	v, err := o.gen.Generate(ctx, generation.Request{Identifier: id, Title: title})
	o.queue.Post(func() { o.applyVerdict(sess, v, err) })
}

func (o *Orchestrator) applyVerdict(sess uint64, v verdict.Verdict, err error) {
	if sess != o.session || o.state != StateGenerating {
		o.log.Debug("discarding superseded generation result", slog.String("identifier", o.identifier))
		return
	}
	o.cancelGen()
	o.cancelGen = nil

	if err != nil {
		o.log.Error("generation failed",
			slog.String("identifier", o.identifier),
			slog.String("error", err.Error()))
		o.fail(KindGenerationFailed, MsgGenerationFailed)
		return
	}

	c := verdict.Classify(v)
	o.metrics.IncVerdict(c.Outcome.String())
	o.log.Info("verdict classified",
		slog.String("identifier", o.identifier),
		slog.String("outcome", c.Outcome.String()),
		slog.Int("items", len(v.Items)))

	switch c.Outcome {
	case verdict.Reject:
		o.fail(KindValidationRejected, c.Reason)
		return
	case verdict.AcceptWithWarning:
		o.warning = true
	}
	o.verdict = &v
	o.transition(StatePlaying)
	o.maybeStartLoop()
}

func (o *Orchestrator) onPrimed(sess uint64) {
	if sess != o.session {
		return
	}
	o.log.Debug("player primed", slog.String("identifier", o.identifier))
	o.maybeStartLoop()
}

// maybeStartLoop starts the fact loop once both the verdict and priming are
// in place. Whichever arrives second triggers it; it never starts twice.
func (o *Orchestrator) maybeStartLoop() {
	if o.state != StatePlaying || o.verdict == nil || o.loop != nil {
		return
	}
	if o.priming == nil || !o.priming.Primed() {
		return
	}
	loop, err := o.loops.Start(o.priming.Readiness(), o.adapter, o.verdict.Items, meteredSink{o.sink, o.metrics})
	if err != nil {
		if errors.Is(err, playback.ErrNoItems) {
			o.log.Info("verdict has no facts to show", slog.String("identifier", o.identifier))
		} else {
			o.log.Error("autoplay failed", slog.String("identifier", o.identifier), slog.String("error", err.Error()))
		}
		return
	}
	o.loop = loop
}

func (o *Orchestrator) onEnded() {
	if o.state != StatePlaying {
		o.log.Debug("ignoring end of video", slog.String("state", string(o.state)))
		return
	}
	if o.loop != nil {
		o.loop.Stop()
	}
	sess := o.session
	clock.Stop(o.endTimer)
	o.endTimer = o.clock.AfterFunc(o.cfg.EndGrace, func() {
		o.queue.Post(func() {
			if sess != o.session {
				return
			}
			o.reset()
		})
	})
}

func (o *Orchestrator) reset() {
	o.teardown()
	o.failure = nil
	if o.state != StateIdle {
		o.transition(StateIdle)
	}
}

func (o *Orchestrator) fail(kind ErrorKind, msg string) {
	o.teardown()
	o.failure = &Failure{Kind: kind, Message: msg}
	o.metrics.IncSessionErrors(string(kind))
	o.transition(StateError)
}

// teardown releases everything tied to the current session, in order: loop
// timers, priming, pending end-of-video reset, the widget, the in-flight
// generation call. It then bumps the session number so late work is ignored.
func (o *Orchestrator) teardown() {
	if o.loop != nil {
		o.loop.Stop()
		o.loop = nil
	}
	if o.priming != nil {
		o.priming.Stop()
		o.priming = nil
	}
	clock.Stop(o.endTimer)
	o.endTimer = nil
	o.adapter.Destroy()
	if o.cancelGen != nil {
		o.cancelGen()
		o.cancelGen = nil
	}
	o.verdict = nil
	o.warning = false
	o.session++
}

func (o *Orchestrator) transition(to State) {
	if !canTransition(o.state, to) {
		o.log.Error("illegal state transition",
			slog.String("from", string(o.state)),
			slog.String("to", string(to)))
		return
	}
	o.log.Debug("state transition",
		slog.String("from", string(o.state)),
		slog.String("to", string(to)),
		slog.String("identifier", o.identifier))
	o.state = to
}

func (o *Orchestrator) snapshot() Snapshot {
	s := Snapshot{
		State:   o.state,
		Warning: o.warning,
	}
	if o.state != StateIdle {
		s.Identifier = o.identifier
	}
	if o.verdict != nil {
		s.VideoTitle = o.verdict.VideoTitle
	}
	if o.failure != nil {
		f := *o.failure
		s.Error = &f
	}
	if o.priming != nil {
		s.Readiness = o.priming.Readiness().String()
	}
	if o.loop != nil {
		st := o.loop.Snapshot()
		s.Playback = &st
	}
	return s
}

type meteredSink struct {
	playback.Sink
	metrics *metrics.Metrics
}

func (s meteredSink) OverlayShown(item verdict.FactItem) {
	s.metrics.IncFactsRevealed()
	s.Sink.OverlayShown(item)
}
