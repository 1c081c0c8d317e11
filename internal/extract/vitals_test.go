package extract

import (
	"strings"
	"testing"

	"github.com/clinscribe/clinscribe/internal/transcript"
)

func TestExtractReadingLabeled(t *testing.T) {
	tests := []struct {
		text     string
		sys, dia int
	}{
		{"Your blood pressure today is 132 over 82.", 132, 82},
		{"BP 120/80 noted at intake", 120, 80},
		{"blood pressure: 145 / 95", 145, 95},
		{"Bp was about 110 over 70 this morning", 110, 70},
	}
	for _, tt := range tests {
		r := ExtractReading(tt.text, SourceSummary)
		if r == nil {
			t.Errorf("ExtractReading(%q) = nil", tt.text)
			continue
		}
		if r.Systolic != tt.sys || r.Diastolic != tt.dia {
			t.Errorf("ExtractReading(%q) = %d/%d, want %d/%d", tt.text, r.Systolic, r.Diastolic, tt.sys, tt.dia)
		}
		if r.Source != SourceSummary {
			t.Errorf("source = %s, want summary", r.Source)
		}
	}
}

func TestExtractReadingGenericRequiresKeyword(t *testing.T) {
	// A bare pair with no BP keyword nearby is not a reading.
	if r := ExtractReading("The patient scored 120/80 on the survey form today", SourceSummary); r != nil {
		t.Errorf("got %+v for keyword-free pair, want nil", r)
	}

	// The same pair with "pressure" within the window is accepted.
	r := ExtractReading("pressure looked fine at 120/80 overall", SourceSummary)
	if r == nil || r.Systolic != 120 || r.Diastolic != 80 {
		t.Errorf("got %+v, want 120/80", r)
	}
}

func TestExtractReadingRangeValidation(t *testing.T) {
	for _, text := range []string{
		"Score was 45/90 yesterday",       // systolic below 70, no keyword either
		"bp 300/80 is clearly a typo",     // systolic above 260
		"blood pressure 120/30 recheck",   // diastolic below 40
		"blood pressure 120/170 recorded", // diastolic above 160
	} {
		if r := ExtractReading(text, SourceSOAP); r != nil {
			t.Errorf("ExtractReading(%q) = %d/%d, want nil", text, r.Systolic, r.Diastolic)
		}
	}
}

func TestExtractReadingSkipsInvalidKeepsValid(t *testing.T) {
	// The out-of-range pair is skipped and scanning continues to the valid
	// one later in the same text.
	r := ExtractReading("bp 400/80 was mistyped, corrected blood pressure 138 over 88", SourceSOAP)
	if r == nil {
		t.Fatal("expected the later valid pair to be returned")
	}
	if r.Systolic != 138 || r.Diastolic != 88 {
		t.Errorf("got %d/%d, want 138/88", r.Systolic, r.Diastolic)
	}
}

func TestExtractReadingLabeledBeatsGeneric(t *testing.T) {
	// Generic pair appears first in the text, labeled pair later; the
	// labeled family is tried first and wins.
	r := ExtractReading("pressure chart shows 118/76 earlier, blood pressure now 142/92", SourceSummary)
	if r == nil || r.Systolic != 142 || r.Diastolic != 92 {
		t.Errorf("got %+v, want labeled 142/92", r)
	}
}

func TestExtractReadingExcerpt(t *testing.T) {
	text := "Lead-in words here.   The   blood pressure\twas 132 over 82 and stable, continuing text that runs on for a while."
	r := ExtractReading(text, SourceSummary)
	if r == nil {
		t.Fatal("expected a reading")
	}
	if strings.Contains(r.Excerpt, "  ") || strings.Contains(r.Excerpt, "\t") {
		t.Errorf("excerpt whitespace not collapsed: %q", r.Excerpt)
	}
	if !strings.Contains(r.Excerpt, "132 over 82") {
		t.Errorf("excerpt does not contain match: %q", r.Excerpt)
	}
}

func TestExtractTranscriptReadingMostRecentWins(t *testing.T) {
	segs := []transcript.Segment{
		{Speaker: transcript.SpeakerClinician, StartMS: 0, EndMS: 4000, Text: "Last visit your blood pressure was 150/95."},
		{Speaker: transcript.SpeakerPatient, StartMS: 4000, EndMS: 6000, Text: "That worried me."},
		{Speaker: transcript.SpeakerClinician, StartMS: 65000, EndMS: 70000, Text: "Today the blood pressure is 132 over 82, much better."},
	}

	r := ExtractTranscriptReading(segs)
	if r == nil {
		t.Fatal("expected a reading")
	}
	if r.Systolic != 132 || r.Diastolic != 82 {
		t.Errorf("got %d/%d, want the most recent 132/82", r.Systolic, r.Diastolic)
	}
	if r.Source != SourceTranscript {
		t.Errorf("source = %s, want transcript", r.Source)
	}
	if r.Timestamp != "01:05" {
		t.Errorf("timestamp = %q, want 01:05", r.Timestamp)
	}
}

func TestResolveReadingOrder(t *testing.T) {
	segs := []transcript.Segment{
		{Speaker: transcript.SpeakerClinician, StartMS: 0, EndMS: 3000, Text: "blood pressure 128/78 today"},
	}

	// SOAP wins over both.
	r := ResolveReading("Objective: BP 140/90.", "Summary says blood pressure 135/85.", segs)
	if r == nil || r.Source != SourceSOAP || r.Systolic != 140 {
		t.Errorf("got %+v, want SOAP 140/90", r)
	}

	// No SOAP reading: summary wins over transcript.
	r = ResolveReading("Objective: lungs clear.", "Summary says blood pressure 135/85.", segs)
	if r == nil || r.Source != SourceSummary || r.Systolic != 135 {
		t.Errorf("got %+v, want summary 135/85", r)
	}

	// Neither: transcript.
	r = ResolveReading("", "", segs)
	if r == nil || r.Source != SourceTranscript || r.Systolic != 128 {
		t.Errorf("got %+v, want transcript 128/78", r)
	}

	// Nothing anywhere: nil, not an error.
	if r = ResolveReading("", "", nil); r != nil {
		t.Errorf("got %+v, want nil", r)
	}
}

func TestFormatMMSS(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{1500, "00:01"},
		{65000, "01:05"},
		{600000, "10:00"},
	}
	for _, tt := range tests {
		if got := formatMMSS(tt.ms); got != tt.want {
			t.Errorf("formatMMSS(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
