package repository

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
)

// MovementOrder ordenamientos de impresión del listado de movimientos.
type MovementOrder string

const (
	OrderByDate        MovementOrder = "date"
	OrderByWard        MovementOrder = "ward"
	OrderByPharmType   MovementOrder = "pharm_type"
	OrderByMovType     MovementOrder = "type"
	defaultSearchLimit               = 500
)

// MovementFilter conjunto completo de filtros; los campos vacíos no filtran.
type MovementFilter struct {
	MedicalCode  *int64
	MedicalType  string
	WardCode     string
	MovementType string
	MovFrom      *time.Time
	MovTo        *time.Time
	PrepFrom     *time.Time
	PrepTo       *time.Time
	DueFrom      *time.Time
	DueTo        *time.Time
	Order        MovementOrder
	Limit        int
}

// EffectiveLimit aplica el límite por defecto.
func (f MovementFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return defaultSearchLimit
	}
	return f.Limit
}

// MovementRepository define el puerto de persistencia del libro central.
type MovementRepository interface {
	// Create persiste el movimiento y asigna Code secuencial.
	Create(ctx context.Context, m *entity.Movement) error
	GetByCode(ctx context.Context, code int64) (*entity.Movement, error)
	// GetLastByMedical devuelve el último movimiento (fecha, código) del medicamento.
	GetLastByMedical(ctx context.Context, medicalCode int64) (*entity.Movement, error)
	// LastMovementDate fecha del último movimiento; medicalCode nil = todos los medicamentos.
	LastMovementDate(ctx context.Context, medicalCode *int64) (*time.Time, error)
	RefNoExists(ctx context.Context, refNo string) (bool, error)
	ListByRefNo(ctx context.Context, refNo string) ([]*entity.Movement, error)
	ListByWardAndDate(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.Movement, error)
	Search(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
	ListByLot(ctx context.Context, lotID string) ([]*entity.Movement, error)
	// ListByMedical en orden cronológico (fecha, código).
	ListByMedical(ctx context.Context, medicalCode int64) ([]*entity.Movement, error)
	// HasLater indica si existe otro movimiento del medicamento posterior a (date, code).
	HasLater(ctx context.Context, medicalCode int64, date time.Time, code int64) (bool, error)
	Delete(ctx context.Context, code int64) error
}
