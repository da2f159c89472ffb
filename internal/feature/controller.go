// Package feature implements the per-panel request state machine.
//
// A Controller owns one feature's input buffer, in-flight flag and result
// slot. Submitting is split in two: Start performs the guarded transition
// into Submitting synchronously and hands back a Job; running the Job issues
// the request and commits the outcome. This lets an event loop keep every
// guard decision on its own goroutine while the request runs elsewhere.
package feature

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/daviddao/nexus/internal/logging"
	"github.com/daviddao/nexus/internal/types"
	"go.uber.org/zap"
)

// State is a controller's lifecycle position.
type State int

// Lifecycle states.
const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy decides how a successful result is committed.
type Policy int

const (
	// Replace keeps only the latest result.
	Replace Policy = iota
	// Accumulate prepends each result, newest first.
	Accumulate
)

// RequestFunc performs the backend call for one submitted input.
type RequestFunc[T any] func(ctx context.Context, input string) (T, error)

// Job issues the request captured by Start and commits its outcome.
// Running it more than once has no further effect.
type Job func(ctx context.Context)

// Transition is delivered to observers after every state change.
type Transition struct {
	Feature types.Feature
	From    State
	To      State
	// Elapsed is the request duration; zero for transitions into Submitting.
	Elapsed time.Duration
}

// Snapshot is a copy of a controller's observable state.
type Snapshot[T any] struct {
	Input    string
	State    State
	InFlight bool
	// Results is empty when absent. Replace controllers hold at most one.
	Results []T
}

// Latest returns the most recent result, if any.
func (s Snapshot[T]) Latest() (T, bool) {
	if len(s.Results) == 0 {
		var zero T
		return zero, false
	}
	return s.Results[0], true
}

type settings struct {
	policy         Policy
	clearOnSuccess bool
	inputOptional  bool
	clone          func(any) any
	logger         *zap.Logger
}

// Option configures a Controller.
type Option func(*settings)

// WithPolicy sets the commit policy (default Replace).
func WithPolicy(p Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithClearOnSuccess empties the input after a successful request.
func WithClearOnSuccess() Option {
	return func(s *settings) { s.clearOnSuccess = true }
}

// WithoutInput skips the empty-input guard for feeds that take no input.
func WithoutInput() Option {
	return func(s *settings) { s.inputOptional = true }
}

// WithClone sets the deep-copy function applied to results on commit and in
// Snapshot. Without it results are copied by value only, which is enough for
// types that hold no slices, maps or pointers.
func WithClone[T any](fn func(T) T) Option {
	return func(s *settings) {
		s.clone = func(v any) any { return fn(v.(T)) }
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Controller drives one feature's request lifecycle.
type Controller[T any] struct {
	feature types.Feature
	request RequestFunc[T]
	opts    settings
	logger  *zap.Logger

	mu        sync.Mutex
	input     string
	state     State
	results   []T
	observers []func(Transition)
}

// New creates an idle controller for feature.
func New[T any](feature types.Feature, request RequestFunc[T], opts ...Option) *Controller[T] {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return &Controller[T]{
		feature: feature,
		request: request,
		opts:    s,
		logger:  logging.OrNop(s.logger).With(zap.String("feature", string(feature))),
	}
}

// Feature returns the feature this controller serves.
func (c *Controller[T]) Feature() types.Feature {
	return c.feature
}

// Subscribe registers fn to be called synchronously after every transition.
func (c *Controller[T]) Subscribe(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// SetInput replaces the input buffer. It is accepted in any state; a request
// already in flight keeps the text it was started with.
func (c *Controller[T]) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

// Input returns the input buffer verbatim.
func (c *Controller[T]) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight reports whether a request is outstanding.
func (c *Controller[T]) InFlight() bool {
	return c.State() == Submitting
}

// Snapshot returns a copy of the observable state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := make([]T, len(c.results))
	for i, r := range c.results {
		results[i] = c.copyOf(r)
	}
	return Snapshot[T]{
		Input:    c.input,
		State:    c.state,
		InFlight: c.state == Submitting,
		Results:  results,
	}
}

// Start attempts the guarded transition into Submitting. It returns false,
// and changes nothing, when a request is already outstanding or the input is
// blank. On success the returned Job must be run to complete the cycle.
func (c *Controller[T]) Start() (Job, bool) {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		c.logger.Debug("submit suppressed, request in flight")
		return nil, false
	}
	if !c.opts.inputOptional && strings.TrimSpace(c.input) == "" {
		c.mu.Unlock()
		return nil, false
	}
	from := c.state
	input := c.input
	c.state = Submitting
	c.mu.Unlock()

	c.emit(Transition{Feature: c.feature, From: from, To: Submitting})

	var once sync.Once
	return func(ctx context.Context) {
		once.Do(func() { c.run(ctx, input) })
	}, true
}

// Submit starts a request and runs it to completion on the calling
// goroutine. It reports whether a request was issued.
func (c *Controller[T]) Submit(ctx context.Context) bool {
	job, ok := c.Start()
	if !ok {
		return false
	}
	job(ctx)
	return true
}

// Clear drops any results, returning the controller to Idle. Ignored while a
// request is in flight.
func (c *Controller[T]) Clear() {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.results = nil
	c.state = Idle
	c.mu.Unlock()

	if from != Idle {
		c.emit(Transition{Feature: c.feature, From: from, To: Idle})
	}
}

func (c *Controller[T]) run(ctx context.Context, input string) {
	start := time.Now()
	result, err := c.request(ctx, input)
	elapsed := time.Since(start)

	c.mu.Lock()
	if err != nil {
		c.state = Failed
	} else {
		c.state = Success
		c.commit(result)
		if c.opts.clearOnSuccess {
			c.input = ""
		}
	}
	to := c.state
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		c.logger.Debug("request succeeded", zap.Duration("elapsed", elapsed))
	}
	c.emit(Transition{Feature: c.feature, From: Submitting, To: to, Elapsed: elapsed})
}

// commit applies the result per policy. Caller holds mu.
func (c *Controller[T]) commit(result T) {
	result = c.copyOf(result)
	switch c.opts.policy {
	case Accumulate:
		c.results = append([]T{result}, c.results...)
	default:
		c.results = []T{result}
	}
}

func (c *Controller[T]) copyOf(v T) T {
	if c.opts.clone == nil {
		return v
	}
	return c.opts.clone(v).(T)
}

func (c *Controller[T]) emit(t Transition) {
	c.mu.Lock()
	observers := make([]func(Transition), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
}
