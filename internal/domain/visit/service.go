package visit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinscribe/clinscribe/internal/extract"
	"github.com/clinscribe/clinscribe/internal/platform/ai"
	"github.com/clinscribe/clinscribe/internal/transcript"
)

// ReadingPoint is one visit's blood pressure reading, used for trend history.
type ReadingPoint struct {
	VisitID   uuid.UUID       `json:"visit_id"`
	VisitDate time.Time       `json:"visit_date"`
	Reading   extract.Reading `json:"reading"`
}

// readingHistoryLimit caps how many visits back a trend reaches.
const readingHistoryLimit = 6

type Service struct {
	repo      Repository
	ai        ai.Client
	extractor *extract.Extractor
}

func NewService(repo Repository, aiClient ai.Client) *Service {
	if aiClient == nil {
		aiClient = ai.Disabled{}
	}
	return &Service{
		repo:      repo,
		ai:        aiClient,
		extractor: extract.NewExtractor(),
	}
}

func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = time.Now()
	}
	if v.Status == "" {
		v.Status = StatusScheduled
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListPatientVisits(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// IngestTranscript parses raw transcript text into speaker turns and stores
// both forms on the visit. Re-ingesting replaces the previous transcript and
// clears any summary or note derived from it.
func (s *Service) IngestTranscript(ctx context.Context, id uuid.UUID, raw string) (*Visit, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("transcript text is required")
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	segs := transcript.ParseText(raw)
	if len(segs) == 0 {
		return nil, fmt.Errorf("transcript contained no usable content")
	}

	v.TranscriptRaw = raw
	v.Segments = segs
	v.Summary = nil
	v.SOAP = nil
	v.Status = StatusTranscribed

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Summarize produces a plain-language visit summary. The AI path is
// preferred; when the client is unconfigured or fails, a deterministic
// summary is assembled from extracted signals instead.
func (s *Service) Summarize(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.visitWithTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	text, err := s.ai.Complete(ctx, ai.SummarySystemPrompt, transcriptText(v.Segments))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil && err != ai.ErrNotConfigured {
			log.Warn().Err(err).Str("visit_id", id.String()).Msg("ai summary failed, using extraction fallback")
		}
		text = s.fallbackSummary(v)
	}

	v.Summary = &text
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GenerateSOAP produces a structured SOAP note. AI output must be a strict
// JSON object; anything else falls back to the deterministic note.
func (s *Service) GenerateSOAP(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.visitWithTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	note := s.soapFromAI(ctx, v)
	if note == nil {
		note = s.fallbackSOAP(v)
	}

	v.SOAP = note
	v.Status = StatusCompleted
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Reading resolves the visit's blood pressure reading, preferring the SOAP
// note over the summary over the raw transcript. Nil means no valid reading
// anywhere.
func (s *Service) Reading(ctx context.Context, id uuid.UUID) (*extract.Reading, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return visitReading(v), nil
}

// ReadingHistory returns one reading per visit for the patient, ascending by
// visit date, capped at the most recent visits that produced a reading.
func (s *Service) ReadingHistory(ctx context.Context, patientID uuid.UUID) ([]ReadingPoint, error) {
	visits, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	// Visits arrive most recent first. Collect up to the limit, then
	// reverse so callers can chart left to right.
	points := []ReadingPoint{}
	for _, v := range visits {
		if len(points) == readingHistoryLimit {
			break
		}
		r := visitReading(v)
		if r == nil {
			continue
		}
		points = append(points, ReadingPoint{VisitID: v.ID, VisitDate: v.VisitDate, Reading: *r})
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// Entities runs keyword extraction over the visit transcript.
func (s *Service) Entities(ctx context.Context, id uuid.UUID) (*extract.Entities, error) {
	v, err := s.visitWithTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	ents := s.extractor.Entities(segmentText(v.Segments))
	return &ents, nil
}

// FollowUps lists action items mentioned in the visit transcript.
func (s *Service) FollowUps(ctx context.Context, id uuid.UUID) ([]extract.FollowUp, error) {
	v, err := s.visitWithTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	return extract.FollowUps(v.Segments), nil
}

func (s *Service) visitWithTranscript(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(v.Segments) == 0 {
		return nil, fmt.Errorf("visit has no transcript")
	}
	return v, nil
}

func (s *Service) soapFromAI(ctx context.Context, v *Visit) *SOAPNote {
	raw, err := s.ai.Complete(ctx, ai.SOAPSystemPrompt, transcriptText(v.Segments))
	if err != nil {
		if err != ai.ErrNotConfigured {
			log.Warn().Err(err).Str("visit_id", v.ID.String()).Msg("ai soap failed, using extraction fallback")
		}
		return nil
	}

	// Models sometimes wrap the object in prose or code fences. Take the
	// outermost brace span before decoding.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}
	var note SOAPNote
	if err := json.Unmarshal([]byte(raw[start:end+1]), &note); err != nil {
		log.Warn().Err(err).Str("visit_id", v.ID.String()).Msg("ai soap response was not valid json")
		return nil
	}
	if note.Subjective == "" && note.Objective == "" && note.Assessment == "" && note.Plan == "" {
		return nil
	}
	return &note
}

// fallbackSummary builds a summary strictly from extracted signals so it
// never states anything the transcript does not contain.
func (s *Service) fallbackSummary(v *Visit) string {
	text := segmentText(v.Segments)
	ents := s.extractor.Entities(text)

	var b strings.Builder
	b.WriteString("Visit on " + v.VisitDate.Format("January 2, 2006") + ".")

	if names := entityNames(ents.Symptoms); len(names) > 0 {
		b.WriteString(" Reported symptoms: " + strings.Join(names, ", ") + ".")
	}
	if names := entityNames(ents.Medications); len(names) > 0 {
		b.WriteString(" Medications discussed: " + strings.Join(names, ", ") + ".")
	}
	if r := visitReading(v); r != nil {
		b.WriteString(fmt.Sprintf(" Blood pressure recorded at %d/%d.", r.Systolic, r.Diastolic))
	}
	if len(ents.RedFlags) > 0 {
		b.WriteString(" Flagged concerns: " + strings.Join(ents.RedFlags, ", ") + ".")
	}
	if fups := extract.FollowUps(v.Segments); len(fups) > 0 {
		b.WriteString(fmt.Sprintf(" %d follow-up item(s) noted.", len(fups)))
	}
	return b.String()
}

func (s *Service) fallbackSOAP(v *Visit) *SOAPNote {
	text := segmentText(v.Segments)
	ents := s.extractor.Entities(text)

	note := &SOAPNote{
		Subjective: speakerText(v.Segments, transcript.SpeakerPatient),
		Objective:  "No vitals documented.",
		Assessment: "See transcript.",
		Plan:       "No plan documented.",
	}

	var objective []string
	for _, vs := range ents.Vitals {
		objective = append(objective, vs.Name+" "+vs.Value)
	}
	if r := visitReading(v); r != nil && len(objective) == 0 {
		objective = append(objective, fmt.Sprintf("blood pressure %d/%d", r.Systolic, r.Diastolic))
	}
	if len(objective) > 0 {
		note.Objective = "Recorded vitals: " + strings.Join(objective, "; ") + "."
	}

	var assessment []string
	if names := entityNames(ents.Symptoms); len(names) > 0 {
		assessment = append(assessment, "Symptoms: "+strings.Join(names, ", ")+".")
	}
	if len(ents.RedFlags) > 0 {
		assessment = append(assessment, "Red flags: "+strings.Join(ents.RedFlags, ", ")+".")
	}
	if len(assessment) > 0 {
		note.Assessment = strings.Join(assessment, " ")
	}

	var plan []string
	if names := entityNames(ents.Medications); len(names) > 0 {
		plan = append(plan, "Medications: "+strings.Join(names, ", ")+".")
	}
	for _, f := range extract.FollowUps(v.Segments) {
		plan = append(plan, f.Text)
	}
	if len(plan) > 0 {
		note.Plan = strings.Join(plan, " ")
	}

	if note.Subjective == "" {
		note.Subjective = "No patient statements recorded."
	}
	return note
}

// visitReading applies the source precedence without touching storage.
func visitReading(v *Visit) *extract.Reading {
	return extract.ResolveReading(soapText(v.SOAP), derefString(v.Summary), v.Segments)
}

func soapText(n *SOAPNote) string {
	if n == nil {
		return ""
	}
	return strings.Join([]string{n.Subjective, n.Objective, n.Assessment, n.Plan}, "\n")
}

// transcriptText renders segments with speaker labels for prompting.
func transcriptText(segs []transcript.Segment) string {
	lines := make([]string, 0, len(segs))
	for _, seg := range segs {
		lines = append(lines, string(seg.Speaker)+": "+seg.Text)
	}
	return strings.Join(lines, "\n")
}

// segmentText joins bare segment texts for extraction, without labels that
// would shift byte offsets into synthetic territory.
func segmentText(segs []transcript.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, "\n")
}

func speakerText(segs []transcript.Segment, who transcript.Speaker) string {
	var parts []string
	for _, seg := range segs {
		if seg.Speaker == who {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}

func entityNames(ents []extract.Entity) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range ents {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
