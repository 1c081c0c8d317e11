package visit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinscribe/clinscribe/internal/transcript"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const visitCols = `id, patient_id, status, visit_date, transcript_raw, segments, summary, soap, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	segments, soap, err := encodeJSONFields(v)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO visit (id, patient_id, status, visit_date, transcript_raw, segments, summary, soap)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.PatientID, v.Status, v.VisitDate, v.TranscriptRaw, segments, v.Summary, soap,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	segments, soap, err := encodeJSONFields(v)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE visit SET status=$2, visit_date=$3, transcript_raw=$4, segments=$5, summary=$6, soap=$7, updated_at=NOW()
		WHERE id=$1`,
		v.ID, v.Status, v.VisitDate, v.TranscriptRaw, segments, v.Summary, soap,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM visit WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visit`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visit
		ORDER BY visit_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	visits, err := collectVisits(rows)
	return visits, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE patient_id = $1 ORDER BY visit_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectVisits(rows)
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var out []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func encodeJSONFields(v *Visit) (segments, soap []byte, err error) {
	if v.Segments != nil {
		segments, err = json.Marshal(v.Segments)
		if err != nil {
			return nil, nil, fmt.Errorf("encode segments: %w", err)
		}
	}
	if v.SOAP != nil {
		soap, err = json.Marshal(v.SOAP)
		if err != nil {
			return nil, nil, fmt.Errorf("encode soap: %w", err)
		}
	}
	return segments, soap, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var (
		v        Visit
		segments []byte
		soap     []byte
	)
	err := row.Scan(&v.ID, &v.PatientID, &v.Status, &v.VisitDate, &v.TranscriptRaw,
		&segments, &v.Summary, &soap, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(segments) > 0 {
		var segs []transcript.Segment
		if err := json.Unmarshal(segments, &segs); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		v.Segments = segs
	}
	if len(soap) > 0 {
		var note SOAPNote
		if err := json.Unmarshal(soap, &note); err != nil {
			return nil, fmt.Errorf("decode soap: %w", err)
		}
		v.SOAP = &note
	}
	return &v, nil
}
