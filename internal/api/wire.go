package api

import "github.com/daviddao/nexus/internal/types"

// Wire shapes use the backend's snake_case field names. Nothing outside this
// package sees them.

type emailWire struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type feedbackWire struct {
	Text string `json:"text"`
}

type menuEntryWire struct {
	MealType string  `json:"meal_type"`
	Menu     string  `json:"menu"`
	Rating   float64 `json:"rating"`
}

type mailSummaryWire struct {
	OriginalSubject string `json:"original_subject"`
	ActionItem      string `json:"action_item"`
	Category        string `json:"category"`
	PriorityScore   int    `json:"priority_score"`
	IsUrgent        bool   `json:"is_urgent"`
}

type sentimentWire struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Emoji     string  `json:"emoji"`
	IsToxic   bool    `json:"is_toxic"`
}

type extractionWire struct {
	Deadlines []string `json:"deadlines"`
	Events    []string `json:"events"`
}

func menuFromWire(in []menuEntryWire) []types.MenuEntry {
	out := make([]types.MenuEntry, 0, len(in))
	for _, m := range in {
		out = append(out, types.MenuEntry{
			MealType: m.MealType,
			Menu:     m.Menu,
			Rating:   m.Rating,
		})
	}
	return out
}

func (w mailSummaryWire) toType() types.MailSummary {
	return types.MailSummary{
		ActionItem:    w.ActionItem,
		Category:      w.Category,
		IsUrgent:      w.IsUrgent,
		Subject:       w.OriginalSubject,
		PriorityScore: w.PriorityScore,
	}
}

func (w sentimentWire) toType() types.SentimentResult {
	return types.SentimentResult{
		Sentiment: w.Sentiment,
		Score:     w.Score,
		Emoji:     w.Emoji,
		IsToxic:   w.IsToxic,
	}
}

func (w extractionWire) toType() types.ExtractionResult {
	return types.ExtractionResult{
		Deadlines: append([]string{}, w.Deadlines...),
		Events:    append([]string{}, w.Events...),
	}
}
