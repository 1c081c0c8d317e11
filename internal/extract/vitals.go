// Package extract scans clinical free text for vitals, keyword entities and
// follow-up cues. Everything here is deterministic, side-effect-free and
// bounded by input length; it is the fallback the service relies on when the
// generative provider is unavailable, so it must never fail on well-formed
// string input. Categories with no matches come back empty, never nil or
// fabricated.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/clinscribe/clinscribe/internal/transcript"
)

// Source records where a blood-pressure reading was found. SOAP notes are
// the clinician's structured record and outrank the visit summary, which in
// turn outranks the raw transcript.
type Source string

const (
	SourceSummary    Source = "summary"
	SourceSOAP       Source = "soap"
	SourceTranscript Source = "transcript"
)

// Reading is one validated blood-pressure measurement. Timestamp is set
// (mm:ss) only for transcript-sourced readings.
type Reading struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Source    Source `json:"source"`
	Timestamp string `json:"timestamp,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
}

// Physiological acceptance ranges. Number pairs outside these bounds are
// skipped, never returned.
const (
	minSystolic  = 70
	maxSystolic  = 260
	minDiastolic = 40
	maxDiastolic = 160
)

var (
	// An explicit BP label followed by up to 20 non-digit characters and a
	// numeric pair. Tried first: the label is the strongest evidence.
	labeledBPRe = regexp.MustCompile(`(?i)(?:blood pressure|bp)[^0-9]{0,20}(\d{2,3})\s*(?:/|over)\s*(\d{2,3})`)

	// A bare numeric pair. Only accepted when a BP keyword appears within
	// keywordWindow characters of the match, which suppresses dates, scores
	// and other unrelated ratios.
	genericBPRe = regexp.MustCompile(`(?i)(\d{2,3})\s*(?:/|over)\s*(\d{2,3})`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

const keywordWindow = 30

var bpKeywords = []string{"blood pressure", "bp", "pressure"}

// ExtractReading returns the first range-valid blood-pressure reading in
// text, or nil when none is found. Labeled matches win over generic ones;
// out-of-range candidates are skipped and scanning continues, so an invalid
// pair never hides a valid one later in the text.
func ExtractReading(text string, source Source) *Reading {
	for _, m := range labeledBPRe.FindAllStringSubmatchIndex(text, -1) {
		if r := buildReading(text, m, source); r != nil {
			return r
		}
	}

	for _, m := range genericBPRe.FindAllStringSubmatchIndex(text, -1) {
		if !keywordNear(text, m[0], m[1]) {
			continue
		}
		if r := buildReading(text, m, source); r != nil {
			return r
		}
	}
	return nil
}

// ExtractTranscriptReading scans segments most-recent-first so the latest
// mention of blood pressure in a conversation takes precedence. The
// returned reading carries the segment's start offset as an mm:ss timestamp.
func ExtractTranscriptReading(segments []transcript.Segment) *Reading {
	for i := len(segments) - 1; i >= 0; i-- {
		if r := ExtractReading(segments[i].Text, SourceTranscript); r != nil {
			r.Timestamp = formatMMSS(segments[i].StartMS)
			return r
		}
	}
	return nil
}

// ResolveReading picks the single reading for a visit: SOAP note text
// first, then the visit summary, then the transcript. First non-nil wins.
func ResolveReading(soapText, summaryText string, segments []transcript.Segment) *Reading {
	if r := ExtractReading(soapText, SourceSOAP); r != nil {
		return r
	}
	if r := ExtractReading(summaryText, SourceSummary); r != nil {
		return r
	}
	return ExtractTranscriptReading(segments)
}

func buildReading(text string, m []int, source Source) *Reading {
	sys := atoiSpan(text, m[2], m[3])
	dia := atoiSpan(text, m[4], m[5])
	if sys < minSystolic || sys > maxSystolic || dia < minDiastolic || dia > maxDiastolic {
		return nil
	}
	return &Reading{
		Systolic:  sys,
		Diastolic: dia,
		Source:    source,
		Excerpt:   excerpt(text, m[0], m[1]),
	}
}

func keywordNear(text string, start, end int) bool {
	lo := start - keywordWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + keywordWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])
	for _, kw := range bpKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// excerpt returns the match surroundings (-35/+45 characters) with
// whitespace runs collapsed, for display next to the reading.
func excerpt(text string, start, end int) string {
	lo := start - 35
	if lo < 0 {
		lo = 0
	}
	hi := end + 45
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text[lo:hi], " "))
}

func atoiSpan(text string, start, end int) int {
	n := 0
	for _, c := range text[start:end] {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func formatMMSS(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
