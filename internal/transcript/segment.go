// Package transcript turns raw conversation text into ordered,
// speaker-attributed segments. It accepts anything a caller may have on
// hand: a JSON array produced by a transcription service, pasted text with
// "Doctor:" style labels, or plain unlabeled prose. The output shape is
// stable regardless of which path produced it.
package transcript

// Speaker identifies who produced a segment of conversation.
type Speaker string

const (
	SpeakerClinician Speaker = "clinician"
	SpeakerPatient   Speaker = "patient"
)

// Segment is a single speaker turn. StartMS/EndMS are either carried over
// from structured input or synthesized from a reading-speed estimate; in the
// synthesized case consecutive segments never overlap.
type Segment struct {
	Speaker Speaker `json:"speaker"`
	StartMS int64   `json:"start_ms"`
	EndMS   int64   `json:"end_ms"`
	Text    string  `json:"text"`
}

// minTurnMS is the floor for a segment's duration. Declared end times that
// would make a turn shorter than this are recomputed.
const minTurnMS = 500
