package visit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
	// ListByPatient returns the patient's visits ordered by visit date,
	// most recent first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Visit, error)
}
