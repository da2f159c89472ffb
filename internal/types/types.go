// Package types defines core data structures for nexus.
package types

import (
	"slices"
	"time"
)

// Feature names one dashboard panel.
type Feature string

// Feature constants, in display order.
const (
	FeatureMenu      Feature = "menu"
	FeatureMail      Feature = "mail"
	FeatureSentiment Feature = "sentiment"
	FeatureExtract   Feature = "extract"
)

// Features lists every feature in display order.
var Features = []Feature{FeatureMenu, FeatureSentiment, FeatureMail, FeatureExtract}

// IsValidFeature checks if a feature name is known.
func IsValidFeature(f Feature) bool {
	for _, v := range Features {
		if v == f {
			return true
		}
	}
	return false
}

// MenuEntry is one meal on the mess menu.
type MenuEntry struct {
	MealType string  `json:"mealType"`
	Menu     string  `json:"menu"`
	Rating   float64 `json:"rating"`
}

// MailSummary is the condensed form of one summarized email.
type MailSummary struct {
	ActionItem    string `json:"actionItem"`
	Category      string `json:"category"`
	IsUrgent      bool   `json:"isUrgent"`
	Subject       string `json:"subject,omitempty"`
	PriorityScore int    `json:"priorityScore,omitempty"`
}

// SentimentResult is the backend's verdict on a piece of feedback.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Emoji     string  `json:"emoji"`
	IsToxic   bool    `json:"isToxic"`
}

// ExtractionResult holds deadline and event sentences found in a message.
type ExtractionResult struct {
	Deadlines []string `json:"deadlines"`
	Events    []string `json:"events"`
}

// Clone returns a copy that shares no backing arrays with r.
func (r ExtractionResult) Clone() ExtractionResult {
	return ExtractionResult{
		Deadlines: slices.Clone(r.Deadlines),
		Events:    slices.Clone(r.Events),
	}
}

// CloneMenu returns a copy of a menu that shares no backing array with m.
func CloneMenu(m []MenuEntry) []MenuEntry {
	return slices.Clone(m)
}

// Outcome constants for completed requests.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Activity records one completed backend request in the session journal.
type Activity struct {
	ID      string        `json:"id"`
	Feature Feature       `json:"feature"`
	Outcome string        `json:"outcome"`
	Elapsed time.Duration `json:"elapsed"`
	At      time.Time     `json:"at"`
}
