package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/daviddao/nexus/internal/api"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu        sync.Mutex
	calls     map[string]int
	subjects  []string
	failMenu  bool
	failMail  bool
	mailCount int
	release   chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) FetchMenu(ctx context.Context) ([]types.MenuEntry, error) {
	f.hit("menu")
	if f.failMenu {
		return nil, api.ErrRequestFailed
	}
	return []types.MenuEntry{{MealType: "Lunch", Menu: "Dal, Rice", Rating: 4.2}}, nil
}

func (f *fakeBackend) Summarize(ctx context.Context, subject, body string) (types.MailSummary, error) {
	f.hit("mail")
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.subjects = append(f.subjects, subject)
	f.mailCount++
	n := f.mailCount
	f.mu.Unlock()
	if f.failMail {
		return types.MailSummary{}, api.ErrRequestFailed
	}
	return types.MailSummary{Subject: body, PriorityScore: n}, nil
}

func (f *fakeBackend) AnalyzeSentiment(ctx context.Context, text string) (types.SentimentResult, error) {
	f.hit("sentiment")
	return types.SentimentResult{Sentiment: "positive", Score: 0.9, Emoji: "😊"}, nil
}

func (f *fakeBackend) ExtractDeadlines(ctx context.Context, subject, body string) (types.ExtractionResult, error) {
	f.hit("extract")
	return types.ExtractionResult{Deadlines: []string{"Friday"}, Events: []string{}}, nil
}

func TestMountLoadsMenuOnce(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	job, ok := s.Mount()
	require.True(t, ok)
	assert.Equal(t, feature.Submitting, s.State(types.FeatureMenu))
	job(context.Background())

	snap := s.Menu().Snapshot()
	assert.Equal(t, feature.Success, snap.State)
	menu, ok := snap.Latest()
	require.True(t, ok)
	assert.Equal(t, "Lunch", menu[0].MealType)

	_, ok = s.Mount()
	assert.False(t, ok)
	assert.Equal(t, 1, backend.count("menu"))
}

func TestMountFailureLeavesMenuEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.failMenu = true
	s := New(backend)

	job, ok := s.Mount()
	require.True(t, ok)
	job(context.Background())

	snap := s.Menu().Snapshot()
	assert.Equal(t, feature.Failed, snap.State)
	assert.Empty(t, snap.Results)

	_, ok = s.Mount()
	assert.False(t, ok, "failed menu load must not be retried")
}

func TestMenuHasNoUserSubmit(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	_, ok := s.Start(types.FeatureMenu)
	assert.False(t, ok)
	assert.Zero(t, backend.count("menu"))
}

func TestMailUsesConfiguredSubject(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, WithSubject("Weekly digest"))

	require.NoError(t, s.SetInput(types.FeatureMail, "Meeting moved to 3pm"))
	job, ok := s.Start(types.FeatureMail)
	require.True(t, ok)
	job(context.Background())

	assert.Equal(t, []string{"Weekly digest"}, backend.subjects)
	assert.Empty(t, s.Input(types.FeatureMail), "mail input clears on success")
}

func TestMailDefaultSubject(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, WithSubject(""))

	require.NoError(t, s.SetInput(types.FeatureMail, "hello"))
	assert.True(t, s.Mail().Submit(context.Background()))
	assert.Equal(t, []string{"Input"}, backend.subjects)
}

func TestMailAccumulatesNewestFirst(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	for _, body := range []string{"first", "second", "third"} {
		require.NoError(t, s.SetInput(types.FeatureMail, body))
		job, ok := s.Start(types.FeatureMail)
		require.True(t, ok)
		job(context.Background())
	}

	results := s.Mail().Snapshot().Results
	require.Len(t, results, 3)
	assert.Equal(t, "third", results[0].Subject)
	assert.Equal(t, "first", results[2].Subject)
}

func TestMailFailurePreservesInput(t *testing.T) {
	backend := newFakeBackend()
	backend.failMail = true
	s := New(backend)

	require.NoError(t, s.SetInput(types.FeatureMail, "  keep me  "))
	job, ok := s.Start(types.FeatureMail)
	require.True(t, ok)
	job(context.Background())

	assert.Equal(t, feature.Failed, s.State(types.FeatureMail))
	assert.Equal(t, "  keep me  ", s.Input(types.FeatureMail))
}

func TestBlankInputIssuesNoRequest(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	for _, f := range []types.Feature{types.FeatureMail, types.FeatureSentiment, types.FeatureExtract} {
		require.NoError(t, s.SetInput(f, " \n\t "))
		_, ok := s.Start(f)
		assert.False(t, ok, f)
		assert.Equal(t, feature.Idle, s.State(f), f)
	}
	assert.Zero(t, backend.count("mail"))
	assert.Zero(t, backend.count("sentiment"))
	assert.Zero(t, backend.count("extract"))
}

func TestControllersAreIndependent(t *testing.T) {
	backend := newFakeBackend()
	backend.release = make(chan struct{})
	s := New(backend)

	require.NoError(t, s.SetInput(types.FeatureMail, "slow"))
	mailJob, ok := s.Start(types.FeatureMail)
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		defer close(done)
		mailJob(context.Background())
	}()

	_, ok = s.Start(types.FeatureMail)
	assert.False(t, ok, "second mail submit while in flight")

	require.NoError(t, s.SetInput(types.FeatureSentiment, "great"))
	assert.True(t, s.Sentiment().Submit(context.Background()))
	assert.Equal(t, feature.Success, s.State(types.FeatureSentiment))
	assert.Equal(t, feature.Submitting, s.State(types.FeatureMail))

	close(backend.release)
	<-done
	assert.Equal(t, feature.Success, s.State(types.FeatureMail))
	assert.Equal(t, 1, backend.count("mail"))
}

func TestClearForwards(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	require.NoError(t, s.SetInput(types.FeatureExtract, "report due Friday"))
	require.True(t, s.Extraction().Submit(context.Background()))
	require.NotEmpty(t, s.Extraction().Snapshot().Results)

	s.Clear(types.FeatureExtract)
	assert.Empty(t, s.Extraction().Snapshot().Results)
	assert.Equal(t, feature.Idle, s.State(types.FeatureExtract))
}

func TestUnknownFeature(t *testing.T) {
	s := New(newFakeBackend())

	err := s.SetInput("weather", "sunny")
	require.Error(t, err)
	_, ok := s.Start("weather")
	assert.False(t, ok)
	assert.Equal(t, "", s.Input("weather"))
}

func TestJournalRecordsOutcomes(t *testing.T) {
	j, err := journal.Open()
	require.NoError(t, err)
	defer j.Close()

	backend := newFakeBackend()
	backend.failMenu = true
	s := New(backend, WithJournal(j))

	job, _ := s.Mount()
	job(context.Background())
	require.NoError(t, s.SetInput(types.FeatureSentiment, "fine"))
	require.True(t, s.Sentiment().Submit(context.Background()))

	counts, err := j.CountByOutcome()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[types.OutcomeSuccess])
	assert.Equal(t, 1, counts[types.OutcomeFailed])

	recent, err := j.Recent(0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	features := []types.Feature{recent[0].Feature, recent[1].Feature}
	assert.ElementsMatch(t, []types.Feature{types.FeatureMenu, types.FeatureSentiment}, features)
}

func TestFeaturesDisplayOrder(t *testing.T) {
	s := New(newFakeBackend())
	got := s.Features()
	assert.Equal(t, types.Features, got)

	got[0] = "mutated"
	assert.Equal(t, types.FeatureMenu, s.Features()[0])
}

func TestDrainWaitsForRunningJobs(t *testing.T) {
	backend := newFakeBackend()
	backend.release = make(chan struct{})
	s := New(backend)

	require.NoError(t, s.Drain(context.Background()), "nothing started")

	require.NoError(t, s.SetInput(types.FeatureMail, "slow"))
	job, ok := s.Start(types.FeatureMail)
	require.True(t, ok)
	done := make(chan struct{})
	go func() {
		defer close(done)
		job(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Drain(ctx), context.DeadlineExceeded)

	close(backend.release)
	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, feature.Success, s.State(types.FeatureMail))
	<-done
}

func TestJobRunTwiceDrainsOnce(t *testing.T) {
	s := New(newFakeBackend())

	require.NoError(t, s.SetInput(types.FeatureSentiment, "fine"))
	job, ok := s.Start(types.FeatureSentiment)
	require.True(t, ok)
	job(context.Background())
	job(context.Background())

	require.NoError(t, s.Drain(context.Background()))
}

func TestMenuSnapshotDoesNotAliasStoredMenu(t *testing.T) {
	s := New(newFakeBackend())
	job, ok := s.Mount()
	require.True(t, ok)
	job(context.Background())

	menu, _ := s.Menu().Snapshot().Latest()
	menu[0].Menu = "mutated"

	got, _ := s.Menu().Snapshot().Latest()
	assert.Equal(t, "Dal, Rice", got[0].Menu)
}
