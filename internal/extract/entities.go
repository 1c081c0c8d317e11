package extract

import (
	"regexp"
	"strings"
)

// Entity is one keyword match with whatever structured attributes were found
// within its context window. Attribute fields are populated only when
// actually present near the match; absence stays empty. Start/End are byte
// offsets into the exact input text, valid for span highlighting.
type Entity struct {
	Name       string  `json:"name"`
	Dosage     string  `json:"dosage,omitempty"`
	Frequency  string  `json:"frequency,omitempty"`
	Severity   string  `json:"severity,omitempty"`
	Duration   string  `json:"duration,omitempty"`
	Timing     string  `json:"timing,omitempty"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// VitalSign is a label-anchored vital match (blood pressure, heart rate,
// temperature). The label is part of the regex, so no keyword-window
// validation applies.
type VitalSign struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Entities is the full extraction result for one text. Unmatched categories
// are empty slices, never nil, so the JSON shape is stable.
type Entities struct {
	Medications []Entity    `json:"medications"`
	Symptoms    []Entity    `json:"symptoms"`
	Procedures  []Entity    `json:"procedures"`
	Vitals      []VitalSign `json:"vitals"`
	RedFlags    []string    `json:"red_flags"`
}

// Fixed per-kind confidence scores. These are heuristic trust weights used
// only for display ordering; they are constants, not derived values.
const (
	medicationConfidence = 0.9
	symptomConfidence    = 0.85
	procedureConfidence  = 0.9
)

// Context window half-widths, in characters, for attribute lookup around a
// keyword match.
const (
	medicationWindow = 50
	symptomWindow    = 30
	procedureWindow  = 40
)

var (
	dosageRe    = regexp.MustCompile(`(?i)\d+\s*(?:mg|mcg|g|ml)`)
	frequencyRe = regexp.MustCompile(`(?i)once|twice|three times|daily|weekly|hourly|every \d+ hours`)
	severityRe  = regexp.MustCompile(`(?i)mild|moderate|severe|extreme`)
	durationRe  = regexp.MustCompile(`(?i)\d+\s*(?:days?|weeks?|months?|years?)`)
	timingRe    = regexp.MustCompile(`(?i)today|tomorrow|next week|in \d+ (?:days?|weeks?|months?)`)

	bpVitalRe   = regexp.MustCompile(`(?i)(?:blood pressure|bp)[^0-9]{0,20}\d{2,3}\s*(?:/|over)\s*\d{2,3}`)
	hrVitalRe   = regexp.MustCompile(`(?i)(?:heart rate|hr|pulse)[^0-9]{0,15}\d{2,3}`)
	tempVitalRe = regexp.MustCompile(`(?i)(?:temperature|temp)[^0-9]{0,15}\d{2,3}(?:\.\d+)?`)
)

// Extractor holds the keyword tables. The tables are fixed at construction
// and never mutated, so a single Extractor is safe for concurrent use and
// alternative configurations (per locale, say) can coexist.
type Extractor struct {
	medications []string
	symptoms    []string
	procedures  []string
	redFlags    []string

	medicationRes []*regexp.Regexp
	symptomRes    []*regexp.Regexp
	procedureRes  []*regexp.Regexp
}

// Config overrides the default keyword tables. Empty fields keep the
// defaults.
type Config struct {
	Medications []string
	Symptoms    []string
	Procedures  []string
	RedFlags    []string
}

// Default keyword tables. Tuned lists carried verbatim; extending them is a
// configuration change, not a code change.
var (
	defaultMedications = []string{
		"lisinopril", "metformin", "atorvastatin", "amlodipine", "metoprolol",
		"omeprazole", "losartan", "gabapentin", "hydrochlorothiazide",
		"sertraline", "ibuprofen", "acetaminophen", "aspirin", "amoxicillin",
		"prednisone", "albuterol", "insulin", "warfarin", "levothyroxine",
	}

	defaultSymptoms = []string{
		"headache", "dizziness", "nausea", "fatigue", "fever", "cough",
		"chest pain", "shortness of breath", "palpitations", "swelling",
		"rash", "vomiting", "diarrhea", "constipation", "insomnia",
		"anxiety", "back pain", "sore throat", "numbness",
	}

	defaultProcedures = []string{
		"x-ray", "mri", "ct scan", "ultrasound", "blood test", "ekg",
		"echocardiogram", "colonoscopy", "biopsy", "vaccination",
		"physical therapy", "surgery", "endoscopy", "stress test",
	}

	defaultRedFlags = []string{
		"chest pain", "difficulty breathing", "stroke", "severe bleeding",
		"loss of consciousness", "suicidal", "slurred speech",
		"numbness on one side",
	}
)

// NewExtractor returns an extractor with the default keyword tables.
func NewExtractor() *Extractor {
	return NewExtractorWithConfig(Config{})
}

// NewExtractorWithConfig returns an extractor using cfg's tables where set.
func NewExtractorWithConfig(cfg Config) *Extractor {
	e := &Extractor{
		medications: defaultMedications,
		symptoms:    defaultSymptoms,
		procedures:  defaultProcedures,
		redFlags:    defaultRedFlags,
	}
	if len(cfg.Medications) > 0 {
		e.medications = cfg.Medications
	}
	if len(cfg.Symptoms) > 0 {
		e.symptoms = cfg.Symptoms
	}
	if len(cfg.Procedures) > 0 {
		e.procedures = cfg.Procedures
	}
	if len(cfg.RedFlags) > 0 {
		e.redFlags = cfg.RedFlags
	}

	// One word-boundary regex per term. The lists are small and inputs are
	// turn-length, so a combined regex would buy nothing.
	e.medicationRes = compileTerms(e.medications)
	e.symptomRes = compileTerms(e.symptoms)
	e.procedureRes = compileTerms(e.procedures)
	return e
}

func compileTerms(terms []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return res
}

// Entities scans text for all keyword categories, label-anchored vitals and
// red-flag phrases. It never fails; categories with no matches come back as
// empty slices.
func (e *Extractor) Entities(text string) Entities {
	out := Entities{
		Medications: []Entity{},
		Symptoms:    []Entity{},
		Procedures:  []Entity{},
		Vitals:      []VitalSign{},
		RedFlags:    []string{},
	}

	for i, re := range e.medicationRes {
		for _, m := range re.FindAllStringIndex(text, -1) {
			win := window(text, m[0], m[1], medicationWindow)
			out.Medications = append(out.Medications, Entity{
				Name:       strings.ToLower(e.medications[i]),
				Dosage:     dosageRe.FindString(win),
				Frequency:  strings.ToLower(frequencyRe.FindString(win)),
				Confidence: medicationConfidence,
				Start:      m[0],
				End:        m[1],
			})
		}
	}

	for i, re := range e.symptomRes {
		for _, m := range re.FindAllStringIndex(text, -1) {
			win := window(text, m[0], m[1], symptomWindow)
			out.Symptoms = append(out.Symptoms, Entity{
				Name:       strings.ToLower(e.symptoms[i]),
				Severity:   strings.ToLower(severityRe.FindString(win)),
				Duration:   strings.ToLower(durationRe.FindString(win)),
				Confidence: symptomConfidence,
				Start:      m[0],
				End:        m[1],
			})
		}
	}

	for i, re := range e.procedureRes {
		for _, m := range re.FindAllStringIndex(text, -1) {
			win := window(text, m[0], m[1], procedureWindow)
			out.Procedures = append(out.Procedures, Entity{
				Name:       strings.ToLower(e.procedures[i]),
				Timing:     strings.ToLower(timingRe.FindString(win)),
				Confidence: procedureConfidence,
				Start:      m[0],
				End:        m[1],
			})
		}
	}

	out.Vitals = append(out.Vitals, findVitals(text, bpVitalRe, "blood_pressure", 0.95)...)
	out.Vitals = append(out.Vitals, findVitals(text, hrVitalRe, "heart_rate", 0.9)...)
	out.Vitals = append(out.Vitals, findVitals(text, tempVitalRe, "temperature", 0.9)...)

	// Red flags match by plain substring so that phrases embedded in larger
	// words or hyphenations still surface. Presence is reported only;
	// escalation is the caller's concern.
	lower := strings.ToLower(text)
	for _, flag := range e.redFlags {
		if strings.Contains(lower, flag) {
			out.RedFlags = append(out.RedFlags, flag)
		}
	}

	return out
}

func findVitals(text string, re *regexp.Regexp, name string, confidence float64) []VitalSign {
	var out []VitalSign
	for _, m := range re.FindAllStringIndex(text, -1) {
		out = append(out, VitalSign{
			Name:       name,
			Value:      strings.TrimSpace(whitespaceRe.ReplaceAllString(text[m[0]:m[1]], " ")),
			Confidence: confidence,
			Start:      m[0],
			End:        m[1],
		})
	}
	return out
}

func window(text string, start, end, half int) string {
	lo := start - half
	if lo < 0 {
		lo = 0
	}
	hi := end + half
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
