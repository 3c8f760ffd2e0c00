package repository

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MedicalWardRepository totales materializados por (sala, medicamento, lote).
type MedicalWardRepository interface {
	Get(ctx context.Context, wardCode string, medicalCode int64, lotID string) (*entity.MedicalWard, error)
	// Add suma in/out a la fila, creándola si no existe.
	Add(ctx context.Context, wardCode string, medicalCode int64, lotID string, in, out decimal.Decimal) error
	ListByWardAndMedical(ctx context.Context, wardCode string, medicalCode int64) ([]*entity.MedicalWard, error)
	ListByWard(ctx context.Context, wardCode string) ([]*entity.MedicalWard, error)
}

// MovementWardRepository libro de movimientos de sala.
type MovementWardRepository interface {
	Create(ctx context.Context, m *entity.MovementWard) error
	GetByCode(ctx context.Context, code int64) (*entity.MovementWard, error)
	GetByMovementCode(ctx context.Context, movementCode int64) (*entity.MovementWard, error)
	ListByTransfer(ctx context.Context, transferID string) ([]*entity.MovementWard, error)
	// Update modifica solo descripción, unidades y paciente.
	Update(ctx context.Context, m *entity.MovementWard) error
	Delete(ctx context.Context, code int64) error
	// HasLater indica si existe otro asiento de la misma (sala, medicamento, lote) posterior a (date, code).
	HasLater(ctx context.Context, wardCode string, medicalCode int64, lotID string, date time.Time, code int64) (bool, error)
	ListByWard(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.MovementWard, error)
	ListByPatient(ctx context.Context, patientCode int64) ([]*entity.MovementWard, error)
}
