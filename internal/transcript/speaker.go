package transcript

import "strings"

// Hint phrases for attributing unlabeled lines. These are tuned values kept
// verbatim for behavioral compatibility; this is a bag-of-phrases check, not
// NLP, and that simplification is deliberate (deterministic and explainable
// at the cost of recall).
var (
	clinicianHints = []string{
		"i recommend",
		"we should",
		"follow up",
		"prescribe",
		"let's",
		"your blood pressure",
		"the results",
		"i'd like you to",
		"take this",
		"any allergies",
		"how long have you",
	}

	patientHints = []string{
		"i feel",
		"i have",
		"my pain",
		"it hurts",
		"i've been",
		"i'm worried",
		"i noticed",
		"my medication",
		"i can't",
	}
)

// InferSpeaker attributes text to whichever hint list scores strictly
// higher. Ties (including zero hits on both sides) alternate from the
// previous speaker so that consecutive ambiguous lines read as a
// conversation rather than collapsing onto one voice.
func InferSpeaker(text string, previous Speaker) Speaker {
	lower := strings.ToLower(text)

	var clinician, patient int
	for _, h := range clinicianHints {
		if strings.Contains(lower, h) {
			clinician++
		}
	}
	for _, h := range patientHints {
		if strings.Contains(lower, h) {
			patient++
		}
	}

	switch {
	case clinician > patient:
		return SpeakerClinician
	case patient > clinician:
		return SpeakerPatient
	case previous == SpeakerClinician:
		return SpeakerPatient
	default:
		return SpeakerClinician
	}
}
