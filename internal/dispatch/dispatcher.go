package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/intent"
	"github.com/mattjoyce/intentd/internal/log"
)

// Outcome is the terminal (or scheduled) state of one link.
type Outcome string

const (
	OutcomeNoIntent  Outcome = "no_intent"
	OutcomeDropped   Outcome = "dropped"
	OutcomeScheduled Outcome = "scheduled"
)

const (
	DefaultDelay           = 500 * time.Millisecond
	DefaultTeardownTimeout = 2 * time.Second
)

// Config tunes the dispatcher.
type Config struct {
	// Scheme is the custom deep-link scheme to normalize.
	Scheme string
	// Delay between teardown and handler invocation.
	Delay time.Duration
	// TeardownTimeout bounds the wait on a TeardownAwaiter.
	TeardownTimeout time.Duration
}

// Inspection is the outcome of the pure pipeline stages for one link.
type Inspection struct {
	Raw        string
	Normalized string
	IsIntent   bool
	Intent     intent.Intent
	Payload    intent.Payload
}

// Dispatcher runs links through the intent pipeline and dispatches the result.
type Dispatcher struct {
	cfg      Config
	registry *intent.Registry
	sessions SessionChecker
	closer   SurfaceCloser
	events   events.Publisher
	clock    Clock
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[intent.Kind]Handler

	pending sync.WaitGroup
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock used for scheduling.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l.With("component", "dispatch") }
}

// New creates a Dispatcher. A nil registry uses intent.DefaultRegistry and a
// nil publisher discards events.
func New(cfg Config, reg *intent.Registry, sessions SessionChecker, closer SurfaceCloser, pub events.Publisher, opts ...Option) *Dispatcher {
	if cfg.Scheme == "" {
		cfg.Scheme = intent.DefaultScheme
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = DefaultTeardownTimeout
	}
	if reg == nil {
		reg = intent.DefaultRegistry()
	}
	if pub == nil {
		pub = discardPublisher{}
	}

	d := &Dispatcher{
		cfg:      cfg,
		registry: reg,
		sessions: sessions,
		closer:   closer,
		events:   pub,
		clock:    realClock{},
		logger:   log.WithComponent("dispatch"),
		handlers: make(map[intent.Kind]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Route binds the handler invoked for kind once a dispatch fires.
func (d *Dispatcher) Route(kind intent.Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

func (d *Dispatcher) handler(kind intent.Kind) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[kind]
	return h, ok
}

// Inspect runs normalization, extraction and validation without dispatching.
func (d *Dispatcher) Inspect(raw string) (Inspection, error) {
	ins := Inspection{Raw: raw, Normalized: intent.Normalize(raw, d.cfg.Scheme)}

	in, ok, err := intent.Extract(ins.Normalized, d.registry)
	if err != nil {
		return ins, err
	}
	if !ok {
		return ins, nil
	}

	payload, err := d.registry.Validate(in)
	if err != nil {
		return ins, err
	}
	ins.IsIntent = true
	ins.Intent = in
	ins.Payload = payload
	return ins, nil
}

// HandleLink runs raw through the whole pipeline. Benign outcomes are reported
// through Outcome; an error means the link could not be parsed or its kind has
// no routed handler.
func (d *Dispatcher) HandleLink(ctx context.Context, raw string) (Outcome, error) {
	linkID := uuid.NewString()
	logger := d.logger.With("link_id", linkID)

	d.events.Publish(events.TypeLinkReceived, map[string]any{
		"link_id": linkID,
		"link":    log.TruncateLink(raw),
	})

	ins, err := d.Inspect(raw)
	if err != nil {
		return "", fmt.Errorf("link %s: %w", linkID, err)
	}
	if !ins.IsIntent {
		logger.Debug("link is not an intent")
		d.events.Publish(events.TypeIntentNone, map[string]any{"link_id": linkID})
		return OutcomeNoIntent, nil
	}

	return d.dispatch(ctx, linkID, ins.Payload)
}

// Dispatch applies the session gate and teardown-then-open protocol to an
// already validated payload.
func (d *Dispatcher) Dispatch(ctx context.Context, payload intent.Payload) (Outcome, error) {
	return d.dispatch(ctx, uuid.NewString(), payload)
}

func (d *Dispatcher) dispatch(ctx context.Context, linkID string, payload intent.Payload) (Outcome, error) {
	kind := payload.Kind()
	logger := d.logger.With("link_id", linkID, "kind", string(kind))

	h, ok := d.handler(kind)
	if !ok {
		return "", fmt.Errorf("no handler routed for intent kind %q", kind)
	}

	if d.sessions == nil || !d.sessions.HasSession(ctx) {
		logger.Info("intent dropped: no authenticated session")
		d.events.Publish(events.TypeIntentDropped, map[string]any{
			"link_id": linkID,
			"kind":    kind,
			"reason":  "no_session",
		})
		return OutcomeDropped, nil
	}

	// The handler outlives the caller's context; there is no cancel edge.
	fireCtx := context.WithoutCancel(ctx)
	fire := d.firer(fireCtx, linkID, h, payload, logger)

	scheduled := map[string]any{
		"link_id": linkID,
		"kind":    kind,
	}

	d.pending.Add(1)
	if awaiter, ok := d.closer.(TeardownAwaiter); ok {
		done := awaiter.CloseAllActiveAndWait(ctx)
		d.scheduleOnTeardown(done, fire)
		scheduled["trigger"] = "teardown"
		scheduled["teardown_timeout_ms"] = d.cfg.TeardownTimeout.Milliseconds()
		logger.Info("intent scheduled", "trigger", "teardown", "teardown_timeout_ms", d.cfg.TeardownTimeout.Milliseconds())
	} else {
		if d.closer != nil {
			d.closer.CloseAllActive(ctx)
		}
		d.clock.AfterFunc(d.cfg.Delay, func() { fire("delay") })
		scheduled["trigger"] = "delay"
		scheduled["delay_ms"] = d.cfg.Delay.Milliseconds()
		logger.Info("intent scheduled", "trigger", "delay", "delay_ms", d.cfg.Delay.Milliseconds())
	}

	d.events.Publish(events.TypeIntentScheduled, scheduled)
	return OutcomeScheduled, nil
}

// scheduleOnTeardown fires on teardown completion or after the teardown
// timeout, whichever comes first. fire runs at most once.
func (d *Dispatcher) scheduleOnTeardown(done <-chan struct{}, fire func(trigger string)) {
	var once sync.Once
	fired := make(chan struct{})
	fireOnce := func(trigger string) {
		once.Do(func() {
			close(fired)
			fire(trigger)
		})
	}

	timer := d.clock.AfterFunc(d.cfg.TeardownTimeout, func() { fireOnce("teardown_timeout") })
	go func() {
		select {
		case <-done:
			timer.Stop()
			fireOnce("teardown_complete")
		case <-fired:
		}
	}()
}

func (d *Dispatcher) firer(ctx context.Context, linkID string, h Handler, payload intent.Payload, logger *slog.Logger) func(trigger string) {
	return func(trigger string) {
		defer d.pending.Done()

		data := map[string]any{
			"link_id": linkID,
			"kind":    payload.Kind(),
			"trigger": trigger,
		}
		if err := h.Handle(ctx, payload); err != nil {
			logger.Error("intent handler failed", "trigger", trigger, "error", err)
			data["error"] = err.Error()
		} else {
			logger.Info("intent dispatched", "trigger", trigger)
		}
		d.events.Publish(events.TypeIntentDispatched, data)
	}
}

// Wait blocks until every scheduled dispatch has fired. It never cancels.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

type discardPublisher struct{}

func (discardPublisher) Publish(string, any) {}
