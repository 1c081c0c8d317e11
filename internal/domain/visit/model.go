package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinscribe/clinscribe/internal/transcript"
)

// Visit statuses.
const (
	StatusScheduled   = "scheduled"
	StatusTranscribed = "transcribed"
	StatusCompleted   = "completed"
)

// SOAPNote is the structured clinical note attached to a visit.
type SOAPNote struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// Visit maps to the visit table. Segments and SOAP are stored as JSONB.
type Visit struct {
	ID            uuid.UUID            `json:"id"`
	PatientID     uuid.UUID            `json:"patient_id"`
	Status        string               `json:"status"`
	VisitDate     time.Time            `json:"visit_date"`
	TranscriptRaw string               `json:"transcript_raw,omitempty"`
	Segments      []transcript.Segment `json:"segments,omitempty"`
	Summary       *string              `json:"summary,omitempty"`
	SOAP          *SOAPNote            `json:"soap,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}
