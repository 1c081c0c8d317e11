package transcript

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseTextEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n\t  \n"} {
		if segs := ParseText(raw); len(segs) != 0 {
			t.Errorf("ParseText(%q) = %d segments, want 0", raw, len(segs))
		}
	}
}

func TestParseTextStructuredArray(t *testing.T) {
	raw := `Here is the transcription result:
[{"speaker":"clinician","text":"How are you feeling?","start_ms":0,"end_ms":2000},
 {"speaker":"patient","text":"Better, thanks.","start_ms":2000,"end_ms":4000}]
Let me know if you need anything else.`

	segs := ParseText(raw)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Speaker != SpeakerClinician || segs[1].Speaker != SpeakerPatient {
		t.Errorf("speakers = %s, %s", segs[0].Speaker, segs[1].Speaker)
	}
	if segs[0].Text != "How are you feeling?" {
		t.Errorf("text = %q", segs[0].Text)
	}
	if segs[0].StartMS != 0 || segs[0].EndMS != 2000 {
		t.Errorf("timing = [%d,%d], want [0,2000]", segs[0].StartMS, segs[0].EndMS)
	}
}

func TestParseTextStructuredDefaults(t *testing.T) {
	raw := `[{"text":"Hello there"},{"speaker":"narrator","text":"Unknown role"},{"speaker":"clinician"},{"text":"   "}]`

	segs := ParseText(raw)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2 (elements without text are dropped)", len(segs))
	}
	// Missing and unrecognized speakers both default to patient.
	for i, s := range segs {
		if s.Speaker != SpeakerPatient {
			t.Errorf("segment %d speaker = %s, want patient", i, s.Speaker)
		}
	}
	// Missing timing defaults to 0 and is then recomputed to the estimate.
	if segs[0].StartMS != 0 || segs[0].EndMS < minTurnMS {
		t.Errorf("timing = [%d,%d]", segs[0].StartMS, segs[0].EndMS)
	}
}

func TestParseTextMalformedJSONFallsThrough(t *testing.T) {
	raw := "[{broken json\nDoctor: Please take a seat.\nPatient: Thank you."

	segs := ParseText(raw)
	if len(segs) == 0 {
		t.Fatal("expected line fallback to produce segments")
	}
	for _, s := range segs {
		if strings.Contains(s.Text, "{broken") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(s.Text), "doctor:") {
			t.Errorf("speaker label not stripped: %q", s.Text)
		}
	}
}

func TestParseTextSpeakerLabels(t *testing.T) {
	tests := []struct {
		label string
		want  Speaker
	}{
		{"Doctor", SpeakerClinician},
		{"dr", SpeakerClinician},
		{"CLINICIAN", SpeakerClinician},
		{"Provider", SpeakerClinician},
		{"Patient", SpeakerPatient},
		{"pt", SpeakerPatient},
	}
	for _, tt := range tests {
		segs := ParseText(tt.label + ": hello\n" + tt.label + ": goodbye")
		if len(segs) != 2 {
			t.Fatalf("label %q: got %d segments", tt.label, len(segs))
		}
		if segs[0].Speaker != tt.want {
			t.Errorf("label %q: speaker = %s, want %s", tt.label, segs[0].Speaker, tt.want)
		}
	}
}

func TestParseTextStripsTimestamps(t *testing.T) {
	raw := "[00:12] Doctor: How is the new dose working?\n(01:02:03) Patient: Much better."

	segs := ParseText(raw)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "How is the new dose working?" {
		t.Errorf("text = %q", segs[0].Text)
	}
	if segs[1].Text != "Much better." {
		t.Errorf("text = %q", segs[1].Text)
	}
}

func TestParseTextSingleLineSentenceSplit(t *testing.T) {
	raw := "I recommend we increase the dose. I have been feeling dizzy lately! Let's check again next month."

	segs := ParseText(raw)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if segs[0].Speaker != SpeakerClinician {
		t.Errorf("segment 0 speaker = %s, want clinician", segs[0].Speaker)
	}
	if segs[1].Speaker != SpeakerPatient {
		t.Errorf("segment 1 speaker = %s, want patient", segs[1].Speaker)
	}
}

func TestParseTextSingleUnitNoPunctuation(t *testing.T) {
	// No JSON array, one line, no terminal punctuation: the whole input
	// becomes a single segment.
	segs := ParseText("patient seems stable overall")
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Text != "patient seems stable overall" {
		t.Errorf("text = %q", segs[0].Text)
	}
}

func TestParseTextSynthesizedTimingMonotone(t *testing.T) {
	raw := "Doctor: First line here.\nPatient: Second line responding now.\nDoctor: Third and final line."

	segs := ParseText(raw)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	for i, s := range segs {
		if s.EndMS < s.StartMS {
			t.Errorf("segment %d: end %d before start %d", i, s.EndMS, s.StartMS)
		}
		if i > 0 && s.StartMS < segs[i-1].EndMS {
			t.Errorf("segment %d overlaps previous: start %d < prev end %d", i, s.StartMS, segs[i-1].EndMS)
		}
	}
}

func TestParseTextDurationClamp(t *testing.T) {
	short := ParseText("Doctor: Hi.\nPatient: Hello.")
	if d := short[0].EndMS - short[0].StartMS; d != 1500 {
		t.Errorf("short line duration = %d, want 1500", d)
	}

	long := ParseText("Doctor: " + strings.Repeat("word ", 100) + "\nPatient: ok then")
	if d := long[0].EndMS - long[0].StartMS; d != 15000 {
		t.Errorf("long line duration = %d, want 15000", d)
	}
}

func TestParseTextMinimumTurnDuration(t *testing.T) {
	raw := `[{"speaker":"patient","text":"yes","start_ms":1000,"end_ms":1100}]`

	segs := ParseText(raw)
	if len(segs) != 1 {
		t.Fatalf("got %d segments", len(segs))
	}
	// Declared end is less than start+500, so it is recomputed from the
	// duration estimate.
	if segs[0].EndMS != segs[0].StartMS+1500 {
		t.Errorf("end = %d, want %d", segs[0].EndMS, segs[0].StartMS+1500)
	}
}

func TestParseTextIdempotent(t *testing.T) {
	first := ParseText("Doctor: Your blood pressure today is 132 over 82.\nPatient: Okay, that's better than last time.")

	// Round-trip the sanitized output through its JSON shape and parse again.
	b, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	second := ParseText(string(b))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round-trip changed segments:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParseTextScenarioConversation(t *testing.T) {
	segs := ParseText("Doctor: Your blood pressure today is 132 over 82. Patient: Okay, that's better than last time.")
	// Single line splits by sentence; each sentence keeps its explicit label.
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Speaker != SpeakerClinician || segs[1].Speaker != SpeakerPatient {
		t.Errorf("speakers = %s, %s", segs[0].Speaker, segs[1].Speaker)
	}
}

func TestInferSpeaker(t *testing.T) {
	tests := []struct {
		text string
		prev Speaker
		want Speaker
	}{
		{"I have a headache and I started lisinopril 10mg daily", SpeakerClinician, SpeakerPatient},
		{"I recommend you follow up in two weeks", SpeakerPatient, SpeakerClinician},
		{"it hurts when I bend over", SpeakerClinician, SpeakerPatient},
		{"let's schedule a blood test", SpeakerPatient, SpeakerClinician},
		// No hints either way: alternate from the previous speaker.
		{"okay", SpeakerClinician, SpeakerPatient},
		{"okay", SpeakerPatient, SpeakerClinician},
	}
	for _, tt := range tests {
		if got := InferSpeaker(tt.text, tt.prev); got != tt.want {
			t.Errorf("InferSpeaker(%q, %s) = %s, want %s", tt.text, tt.prev, got, tt.want)
		}
	}
}
