package transcript

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// Leading "[12:34]" / "(1:02:03)" style timestamp tokens.
	timestampRe = regexp.MustCompile(`^\s*[\[(]\d{1,2}:\d{2}(?::\d{2})?[\])]\s*`)

	// Leading explicit speaker labels such as "Doctor:" or "pt:".
	speakerLabelRe = regexp.MustCompile(`(?i)^(doctor|dr|clinician|provider|patient|pt)\s*:\s*`)

	sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)
)

// ParseText converts a block of raw text into ordered segments.
//
// A JSON array embedded anywhere in the text is tried first, because
// structured input is authoritative; if none is found (or it yields nothing
// usable) the text is split into lines, or into sentences when it is a
// single line. ParseText never fails: unusable input yields an empty slice,
// which callers must treat as "no transcript", not as an error.
func ParseText(raw string) []Segment {
	if strings.TrimSpace(raw) == "" {
		return []Segment{}
	}

	if segs := parseStructured(raw); len(segs) > 0 {
		return sanitize(segs, false)
	}

	lines := strings.Split(raw, "\n")
	var usable []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			usable = append(usable, l)
		}
	}
	if len(usable) <= 1 {
		usable = splitSentences(raw)
	}

	var segs []Segment
	var cursor int64
	prev := SpeakerClinician
	for _, line := range usable {
		line = timestampRe.ReplaceAllString(line, "")

		speaker, labeled := stripSpeakerLabel(&line)
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if !labeled {
			speaker = InferSpeaker(text, prev)
		}

		dur := estimateDurationMS(text)
		segs = append(segs, Segment{
			Speaker: speaker,
			StartMS: cursor,
			EndMS:   cursor + dur,
			Text:    text,
		})
		cursor += dur
		prev = speaker
	}

	return sanitize(segs, true)
}

// parseStructured locates a JSON array literal inside raw via bracket
// matching (so surrounding prose is tolerated) and converts its usable
// elements. Malformed JSON or an array with no usable elements returns nil,
// which sends the caller down the line-based path.
func parseStructured(raw string) []Segment {
	arr, ok := locateJSONArray(raw)
	if !ok {
		return nil
	}

	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil
	}

	var segs []Segment
	for _, item := range items {
		text, _ := item["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		speaker := SpeakerPatient
		if s, _ := item["speaker"].(string); s == string(SpeakerClinician) || s == string(SpeakerPatient) {
			speaker = Speaker(s)
		}

		segs = append(segs, Segment{
			Speaker: speaker,
			StartMS: numberMS(item["start_ms"]),
			EndMS:   numberMS(item["end_ms"]),
			Text:    text,
		})
	}
	return segs
}

// locateJSONArray returns the first balanced [...] substring of raw.
// Brackets inside JSON strings are ignored so that text values containing
// "[" do not break the match.
func locateJSONArray(raw string) (string, bool) {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

func numberMS(v interface{}) int64 {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return int64(f)
}

func stripSpeakerLabel(line *string) (Speaker, bool) {
	m := speakerLabelRe.FindStringSubmatch(*line)
	if m == nil {
		return SpeakerPatient, false
	}
	*line = (*line)[len(m[0]):]
	switch strings.ToLower(m[1]) {
	case "doctor", "dr", "clinician", "provider":
		return SpeakerClinician, true
	default:
		return SpeakerPatient, true
	}
}

// splitSentences breaks text at ., ! or ? followed by whitespace, keeping
// the terminal punctuation with its sentence.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		out = append(out, text[last:loc[0]+1])
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// estimateDurationMS approximates how long a turn took to say, at roughly
// 500ms per word, clamped so that one-word lines and rambling monologues
// both stay plausible.
func estimateDurationMS(text string) int64 {
	words := int64(len(strings.Fields(text)))
	dur := words * 500
	if dur < 1500 {
		dur = 1500
	}
	if dur > 15000 {
		dur = 15000
	}
	return dur
}

// sanitize applies the invariants every segment sequence must satisfy:
// non-empty trimmed text, end after start by at least the minimum turn
// duration, and (for synthesized timing) a running cursor so segments never
// overlap.
func sanitize(segs []Segment, synthesized bool) []Segment {
	out := make([]Segment, 0, len(segs))
	var cursor int64
	for _, s := range segs {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if s.StartMS < 0 {
			s.StartMS = 0
		}
		if synthesized && s.StartMS < cursor {
			s.StartMS = cursor
		}
		if s.EndMS < s.StartMS+minTurnMS {
			s.EndMS = s.StartMS + estimateDurationMS(s.Text)
		}
		cursor = s.EndMS
		out = append(out, s)
	}
	return out
}
