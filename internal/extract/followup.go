package extract

import (
	"regexp"
	"strings"

	"github.com/clinscribe/clinscribe/internal/transcript"
)

// FollowUp is an action item lifted from a transcript segment. StartMS
// points back at the segment for ordering and citation.
type FollowUp struct {
	Text     string `json:"text"`
	StartMS  int64  `json:"start_ms"`
	Priority string `json:"priority"`
	Timing   string `json:"timing"`
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"

	timingNotSpecified = "Not specified"
)

var followUpPhrases = []string{
	"follow up",
	"follow-up",
	"come back",
	"schedule",
	"appointment",
	"blood test",
	"next week",
	"check back",
	"recheck",
}

var followUpTimingRe = regexp.MustCompile(`(?i)next week|two weeks|in \d+ (?:days?|weeks?|months?)`)

// FollowUps emits one item per segment containing a follow-up phrase. No
// deduplication: repeated instructions are repeated items, and the caller
// can use StartMS to tell them apart.
func FollowUps(segments []transcript.Segment) []FollowUp {
	out := []FollowUp{}
	for _, seg := range segments {
		lower := strings.ToLower(seg.Text)
		if !containsAny(lower, followUpPhrases) {
			continue
		}

		priority := PriorityMedium
		if strings.Contains(lower, "urgent") || strings.Contains(lower, "immediately") {
			priority = PriorityHigh
		}

		timing := followUpTimingRe.FindString(seg.Text)
		if timing == "" {
			timing = timingNotSpecified
		} else {
			timing = strings.ToLower(timing)
		}

		out = append(out, FollowUp{
			Text:     seg.Text,
			StartMS:  seg.StartMS,
			Priority: priority,
			Timing:   timing,
		})
	}
	return out
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
