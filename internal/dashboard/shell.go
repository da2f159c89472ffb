// Package dashboard composes the four feature controllers into one shell.
//
// The shell owns no transition logic. It builds the controllers, forwards
// input and submit requests to them by feature name, triggers the one-time
// menu load, and journals every completed request.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/daviddao/nexus/internal/config"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/logging"
	"github.com/daviddao/nexus/internal/types"
	"go.uber.org/zap"
)

// Backend is the set of operations the shell needs from the API client.
type Backend interface {
	FetchMenu(ctx context.Context) ([]types.MenuEntry, error)
	Summarize(ctx context.Context, subject, body string) (types.MailSummary, error)
	AnalyzeSentiment(ctx context.Context, text string) (types.SentimentResult, error)
	ExtractDeadlines(ctx context.Context, subject, body string) (types.ExtractionResult, error)
}

// panel is the type-erased view of a controller used for forwarding.
type panel interface {
	Feature() types.Feature
	SetInput(text string)
	Input() string
	State() feature.State
	Start() (feature.Job, bool)
	Clear()
	Subscribe(fn func(feature.Transition))
}

// Shell holds the four controllers.
type Shell struct {
	menu      *feature.Controller[[]types.MenuEntry]
	mail      *feature.Controller[types.MailSummary]
	sentiment *feature.Controller[types.SentimentResult]
	extract   *feature.Controller[types.ExtractionResult]

	panels  map[types.Feature]panel
	journal *journal.Journal
	logger  *zap.Logger
	mounted atomic.Bool

	inflight sync.WaitGroup
}

type options struct {
	subject string
	journal *journal.Journal
	logger  *zap.Logger
}

// Option configures a Shell.
type Option func(*options)

// WithSubject sets the subject sent with mail and extraction requests.
func WithSubject(subject string) Option {
	return func(o *options) {
		if subject != "" {
			o.subject = subject
		}
	}
}

// WithJournal records every completed request in j.
func WithJournal(j *journal.Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithLogger attaches a logger to the shell and its controllers.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a shell whose controllers call backend.
func New(backend Backend, opts ...Option) *Shell {
	o := options{subject: config.DefaultMailSubject}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)
	subject := o.subject

	s := &Shell{
		menu: feature.New(types.FeatureMenu,
			func(ctx context.Context, _ string) ([]types.MenuEntry, error) {
				return backend.FetchMenu(ctx)
			},
			feature.WithoutInput(), feature.WithClone(types.CloneMenu), feature.WithLogger(logger)),
		mail: feature.New(types.FeatureMail,
			func(ctx context.Context, body string) (types.MailSummary, error) {
				return backend.Summarize(ctx, subject, body)
			},
			feature.WithPolicy(feature.Accumulate), feature.WithClearOnSuccess(), feature.WithLogger(logger)),
		sentiment: feature.New(types.FeatureSentiment,
			backend.AnalyzeSentiment,
			feature.WithLogger(logger)),
		extract: feature.New(types.FeatureExtract,
			func(ctx context.Context, body string) (types.ExtractionResult, error) {
				return backend.ExtractDeadlines(ctx, subject, body)
			},
			feature.WithClone(types.ExtractionResult.Clone), feature.WithLogger(logger)),
		journal: o.journal,
		logger:  logger,
	}

	s.panels = map[types.Feature]panel{
		types.FeatureMenu:      s.menu,
		types.FeatureMail:      s.mail,
		types.FeatureSentiment: s.sentiment,
		types.FeatureExtract:   s.extract,
	}
	for _, p := range s.panels {
		p.Subscribe(s.observe)
	}
	return s
}

// Menu returns the menu feed controller.
func (s *Shell) Menu() *feature.Controller[[]types.MenuEntry] { return s.menu }

// Mail returns the mail summarizer controller.
func (s *Shell) Mail() *feature.Controller[types.MailSummary] { return s.mail }

// Sentiment returns the sentiment analyzer controller.
func (s *Shell) Sentiment() *feature.Controller[types.SentimentResult] { return s.sentiment }

// Extraction returns the deadline extractor controller.
func (s *Shell) Extraction() *feature.Controller[types.ExtractionResult] { return s.extract }

// Features lists feature names in display order.
func (s *Shell) Features() []types.Feature {
	out := make([]types.Feature, len(types.Features))
	copy(out, types.Features)
	return out
}

// Journal returns the attached journal, or nil.
func (s *Shell) Journal() *journal.Journal { return s.journal }

// Mount returns the one-time menu load. Every call after the first returns
// false; a failed load is never retried.
func (s *Shell) Mount() (feature.Job, bool) {
	if !s.mounted.CompareAndSwap(false, true) {
		return nil, false
	}
	return s.track(s.menu.Start())
}

// SetInput forwards text to a feature's input buffer.
func (s *Shell) SetInput(f types.Feature, text string) error {
	p, err := s.panel(f)
	if err != nil {
		return err
	}
	p.SetInput(text)
	return nil
}

// Input returns a feature's input buffer.
func (s *Shell) Input(f types.Feature) string {
	if p, err := s.panel(f); err == nil {
		return p.Input()
	}
	return ""
}

// State returns a feature's lifecycle state.
func (s *Shell) State(f types.Feature) feature.State {
	if p, err := s.panel(f); err == nil {
		return p.State()
	}
	return feature.Idle
}

// Start forwards a submit to a feature. The menu has no user submit.
func (s *Shell) Start(f types.Feature) (feature.Job, bool) {
	if f == types.FeatureMenu {
		return nil, false
	}
	p, err := s.panel(f)
	if err != nil {
		return nil, false
	}
	return s.track(p.Start())
}

// Drain waits for every started job to finish, or for ctx to end. A job that
// was started but never run keeps Drain waiting until ctx ends.
func (s *Shell) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Shell) track(job feature.Job, ok bool) (feature.Job, bool) {
	if !ok {
		return nil, false
	}
	s.inflight.Add(1)
	var once sync.Once
	return func(ctx context.Context) {
		once.Do(func() {
			defer s.inflight.Done()
			job(ctx)
		})
	}, true
}

// Clear drops a feature's results.
func (s *Shell) Clear(f types.Feature) {
	if f == types.FeatureMenu {
		return
	}
	if p, err := s.panel(f); err == nil {
		p.Clear()
	}
}

func (s *Shell) panel(f types.Feature) (panel, error) {
	if !types.IsValidFeature(f) {
		return nil, fmt.Errorf("unknown feature %q", f)
	}
	return s.panels[f], nil
}

// observe logs every transition and journals completed requests.
func (s *Shell) observe(t feature.Transition) {
	s.logger.Debug("transition",
		zap.String("feature", string(t.Feature)),
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
	)
	var outcome string
	switch t.To {
	case feature.Success:
		outcome = types.OutcomeSuccess
	case feature.Failed:
		outcome = types.OutcomeFailed
	default:
		return
	}
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(&types.Activity{Feature: t.Feature, Outcome: outcome, Elapsed: t.Elapsed}); err != nil {
		s.logger.Warn("journal record failed", zap.String("feature", string(t.Feature)), zap.Error(err))
	}
}
