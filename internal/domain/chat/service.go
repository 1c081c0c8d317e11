package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinscribe/clinscribe/internal/domain/visit"
	"github.com/clinscribe/clinscribe/internal/extract"
	"github.com/clinscribe/clinscribe/internal/platform/ai"
)

// VisitSource provides the visit a session is grounded on. Satisfied by the
// visit service.
type VisitSource interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	Reading(ctx context.Context, id uuid.UUID) (*extract.Reading, error)
	FollowUps(ctx context.Context, id uuid.UUID) ([]extract.FollowUp, error)
}

type Service struct {
	repo       Repository
	visits     VisitSource
	ai         ai.Client
	messageCap int
}

func NewService(repo Repository, visits VisitSource, aiClient ai.Client, messageCap int) *Service {
	if aiClient == nil {
		aiClient = ai.Disabled{}
	}
	return &Service{repo: repo, visits: visits, ai: aiClient, messageCap: messageCap}
}

func (s *Service) CreateSession(ctx context.Context, visitID uuid.UUID, audience string) (*Session, error) {
	if audience != AudienceClinician && audience != AudiencePatient {
		return nil, fmt.Errorf("audience must be %q or %q", AudienceClinician, AudiencePatient)
	}
	if _, err := s.visits.GetVisit(ctx, visitID); err != nil {
		return nil, fmt.Errorf("visit not found")
	}
	sess := &Session{VisitID: visitID, Audience: audience}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *Service) ListSessionsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Session, error) {
	return s.repo.ListSessionsByVisit(ctx, visitID)
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *Service) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*Message, error) {
	return s.repo.ListMessages(ctx, sessionID)
}

// SendMessage generates the assistant turn and then persists both sides of
// the exchange. Generation happens before any write so a failed reply never
// leaves a dangling user message in the session. The cap counts both sides,
// so a full session rejects new user messages outright.
func (s *Service) SendMessage(ctx context.Context, sessionID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count >= s.messageCap {
		return nil, fmt.Errorf("session message limit reached (%d)", s.messageCap)
	}

	reply, err := s.reply(ctx, sess, content)
	if err != nil {
		return nil, err
	}

	userMsg := &Message{SessionID: sessionID, Role: RoleUser, Content: content}
	if err := s.repo.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	assistantMsg := &Message{SessionID: sessionID, Role: RoleAssistant, Content: reply}
	if err := s.repo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	return assistantMsg, nil
}

func (s *Service) reply(ctx context.Context, sess *Session, question string) (string, error) {
	v, err := s.visits.GetVisit(ctx, sess.VisitID)
	if err != nil {
		return "", err
	}

	text, aiErr := s.aiReply(ctx, sess, v, question)
	if aiErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if aiErr != nil && aiErr != ai.ErrNotConfigured {
		log.Warn().Err(aiErr).Str("session_id", sess.ID.String()).Msg("ai chat failed, using canned reply")
	}
	return s.fallbackReply(ctx, sess, v, question), nil
}

func (s *Service) aiReply(ctx context.Context, sess *Session, v *visit.Visit, question string) (string, error) {
	system := ai.ClinicianChatSystemPrompt
	if sess.Audience == AudiencePatient {
		system = ai.PatientChatSystemPrompt
	}

	msgs := []ai.Message{
		{Role: "system", Content: system + "\n\nVisit context:\n" + visitContext(v)},
	}
	history, err := s.repo.ListMessages(ctx, sess.ID)
	if err != nil {
		return "", err
	}
	for _, m := range history {
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}
	// The pending user turn is not persisted yet; append it explicitly.
	msgs = append(msgs, ai.Message{Role: RoleUser, Content: question})
	return s.ai.Chat(ctx, msgs)
}

// fallbackReply answers from stored visit data only. It routes on simple
// keyword intent and never invents clinical content.
func (s *Service) fallbackReply(ctx context.Context, sess *Session, v *visit.Visit, question string) string {
	q := strings.ToLower(question)

	if strings.Contains(q, "blood pressure") || strings.Contains(q, "bp") {
		if r, err := s.visits.Reading(ctx, v.ID); err == nil && r != nil {
			if sess.Audience == AudiencePatient {
				return fmt.Sprintf("Your blood pressure at this visit was %d/%d.", r.Systolic, r.Diastolic)
			}
			return fmt.Sprintf("Recorded blood pressure: %d/%d (source: %s).", r.Systolic, r.Diastolic, r.Source)
		}
		return "No blood pressure reading was recorded for this visit."
	}

	if strings.Contains(q, "follow") || strings.Contains(q, "appointment") || strings.Contains(q, "next visit") {
		fups, err := s.visits.FollowUps(ctx, v.ID)
		if err == nil && len(fups) > 0 {
			var lines []string
			for _, f := range fups {
				lines = append(lines, f.Text)
			}
			return "Follow-up items from this visit: " + strings.Join(lines, " ")
		}
		return "No follow-up instructions were recorded for this visit."
	}

	if v.Summary != nil && *v.Summary != "" {
		return "Here is the visit summary: " + *v.Summary
	}
	return "I can answer questions about this visit's blood pressure, follow-up instructions, and summary once they are available."
}

func visitContext(v *visit.Visit) string {
	var parts []string
	if v.Summary != nil && *v.Summary != "" {
		parts = append(parts, "Summary: "+*v.Summary)
	}
	if v.SOAP != nil {
		parts = append(parts, "Assessment: "+v.SOAP.Assessment, "Plan: "+v.SOAP.Plan)
	}
	if len(v.Segments) > 0 {
		var lines []string
		for _, seg := range v.Segments {
			lines = append(lines, string(seg.Speaker)+": "+seg.Text)
		}
		parts = append(parts, "Transcript:\n"+strings.Join(lines, "\n"))
	}
	if len(parts) == 0 {
		return "No visit documentation is available yet."
	}
	return strings.Join(parts, "\n\n")
}
