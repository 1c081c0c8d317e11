package chat

import (
	"time"

	"github.com/google/uuid"
)

// Session audiences. The audience selects the system prompt and the tone of
// fallback replies.
const (
	AudienceClinician = "clinician"
	AudiencePatient   = "patient"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a conversation bound to a visit.
type Session struct {
	ID        uuid.UUID `json:"id"`
	VisitID   uuid.UUID `json:"visit_id"`
	Audience  string    `json:"audience"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn in a session.
type Message struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
