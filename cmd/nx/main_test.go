package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/daviddao/nexus/internal/journal"
	"github.com/daviddao/nexus/internal/types"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendStub struct {
	hits    atomic.Int32
	failing map[string]bool
}

func newBackend(t *testing.T, failing ...string) (*backendStub, *httptest.Server) {
	t.Helper()
	b := &backendStub{failing: map[string]bool{}}
	for _, p := range failing {
		b.failing[p] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		if b.failing[r.URL.Path] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/mess-menu":
			io.WriteString(w, `[{"meal_type":"Breakfast","menu":"Poha","rating":4.1}]`)
		case "/api/summarize":
			io.WriteString(w, `{"action_item":"Pay fees","category":"Finance","is_urgent":true}`)
		case "/api/analyze-sentiment":
			io.WriteString(w, `{"sentiment":"Positive","score":0.92,"emoji":"😊","is_toxic":false}`)
		case "/api/extract-deadlines":
			io.WriteString(w, `{"deadlines":["5 PM"],"events":["Quiz on 12th March"]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NEXUS_LOG_FILE", "")
	t.Setenv("NEXUS_METRICS_ADDR", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	base := []string{"--config", filepath.Join(t.TempDir(), "config.yaml")}
	rootCmd.SetArgs(append(base, args...))

	err := rootCmd.ExecuteContext(context.Background())
	teardown()
	return out.String(), err
}

func TestSentimentJSON(t *testing.T) {
	_, srv := newBackend(t)

	out, err := execute(t, "", "--api-url", srv.URL, "--json", "sentiment", "Food", "was", "great!")
	require.NoError(t, err)

	var got types.SentimentResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, types.SentimentResult{Sentiment: "Positive", Score: 0.92, Emoji: "😊"}, got)
}

func TestSummarizeFromStdin(t *testing.T) {
	_, srv := newBackend(t)

	out, err := execute(t, "Please pay the hostel fees by Friday", "--api-url", srv.URL, "--json", "summarize", "-")
	require.NoError(t, err)

	var got types.MailSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Finance", got.Category)
	assert.True(t, got.IsUrgent)
}

func TestBlankInputIssuesNoRequest(t *testing.T) {
	b, srv := newBackend(t)

	_, err := execute(t, "  \n ", "--api-url", srv.URL, "--json", "extract", "-")
	require.ErrorIs(t, err, errEmptyInput)
	assert.Zero(t, b.hits.Load())
}

func TestBackendFailure(t *testing.T) {
	_, srv := newBackend(t, "/api/analyze-sentiment")

	out, err := execute(t, "", "--api-url", srv.URL, "--json", "sentiment", "meh")
	require.ErrorIs(t, err, errBackend)
	assert.Empty(t, out)
	assert.NotContains(t, err.Error(), "boom", "error detail is not surfaced")
}

func TestMenuJSON(t *testing.T) {
	_, srv := newBackend(t)

	out, err := execute(t, "", "--api-url", srv.URL, "--json", "menu")
	require.NoError(t, err)

	var got []types.MenuEntry
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []types.MenuEntry{{MealType: "Breakfast", Menu: "Poha", Rating: 4.1}}, got)
}

func TestMenuTable(t *testing.T) {
	_, srv := newBackend(t)

	out, err := execute(t, "", "--api-url", srv.URL, "--json=false", "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "Breakfast")
	assert.Contains(t, out, "★4.1")
	assert.Contains(t, out, "╭")
}

func TestScanRunsAllThree(t *testing.T) {
	b, srv := newBackend(t)

	path := filepath.Join(t.TempDir(), "notice.txt")
	require.NoError(t, os.WriteFile(path, []byte("Quiz on 12th March, submit by 5 PM"), 0o644))

	out, err := execute(t, "", "--api-url", srv.URL, "--json", "scan", path)
	require.NoError(t, err)
	assert.Equal(t, int32(3), b.hits.Load())

	var got scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Summary)
	require.NotNil(t, got.Sentiment)
	require.NotNil(t, got.Extraction)
	assert.Equal(t, []string{"5 PM"}, got.Extraction.Deadlines)
	assert.Len(t, got.Activity, 3)
}

func TestScanPartialFailure(t *testing.T) {
	_, srv := newBackend(t, "/api/summarize")

	out, err := execute(t, "Quiz tomorrow", "--api-url", srv.URL, "--json", "scan", "-")
	require.ErrorIs(t, err, errBackend)

	var got scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got.Summary)
	assert.NotNil(t, got.Sentiment)
	assert.NotNil(t, got.Extraction)
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := execute(t, "", "--api-url", "ftp://example.com", "--json", "menu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "nx version dev\n", out)
}

func TestReadText(t *testing.T) {
	got, err := readText(strings.NewReader("from stdin"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	got, err = readText(strings.NewReader("from stdin"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	got, err = readText(strings.NewReader("ignored"), []string{"two", "words"})
	require.NoError(t, err)
	assert.Equal(t, "two words", got)
}

func TestReadSourceMissingFile(t *testing.T) {
	_, err := readSource(strings.NewReader(""), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestReadTextRejectsOversizedInput(t *testing.T) {
	_, err := readText(strings.NewReader(strings.Repeat("a", maxInputBytes)+"TAIL deadline tomorrow"), []string{"-"})
	require.ErrorIs(t, err, errTooLarge)

	got, err := readText(strings.NewReader(strings.Repeat("a", maxInputBytes)), []string{"-"})
	require.NoError(t, err)
	assert.Len(t, got, maxInputBytes)
}

func TestOversizedFileIssuesNoRequest(t *testing.T) {
	b, srv := newBackend(t)

	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", maxInputBytes+1)), 0o644))

	_, err := execute(t, "", "--api-url", srv.URL, "--json", "scan", path)
	require.ErrorIs(t, err, errTooLarge)
	assert.Zero(t, b.hits.Load())
}

func TestScanTextReportsCompletion(t *testing.T) {
	_, srv := newBackend(t)

	out, err := execute(t, "Quiz on 12th March", "--api-url", srv.URL, "--json=false", "scan", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 requests completed")
	assert.Contains(t, out, "Session activity")
	assert.Contains(t, out, "Mail Summarizer")
}

func TestScanTextOmitsCompletionOnFailure(t *testing.T) {
	_, srv := newBackend(t, "/api/extract-deadlines")

	out, err := execute(t, "Quiz on 12th March", "--api-url", srv.URL, "--json=false", "scan", "-")
	require.ErrorIs(t, err, errBackend)
	assert.NotContains(t, out, "requests completed")
	assert.Contains(t, out, "Backend error")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil))

	cols := []column{{header: "Meal"}, {header: "Rating", align: text.AlignRight}}
	out := renderTable(cols, [][]string{{"Lunch", "★4"}, {"Dinner"}})
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "Dinner")
	assert.Equal(t, 6, strings.Count(out, "\n")+1, "top, header, separator, two rows, bottom")
}

func TestMenuTableWrapsLongDishes(t *testing.T) {
	out := menuTable([]types.MenuEntry{
		{MealType: "Lunch", Menu: "Rajma Chawal + Jeera Aloo + Mixed Veg + Boondi Raita + Papad + Salad", Rating: 4.9},
	})
	assert.Contains(t, out, "★4.9")
	assert.Greater(t, strings.Count(out, "\n")+1, 5, "dish wraps onto a second line")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 80)
	}
}

func TestActivityTable(t *testing.T) {
	out := activityTable([]journal.FeatureStats{
		{Feature: types.FeatureMail, Success: 2, Failed: 1, Average: 150 * time.Millisecond},
	})
	assert.Contains(t, out, "mail")
	assert.Contains(t, out, "150ms")
	assert.Contains(t, out, "Failed")
}
