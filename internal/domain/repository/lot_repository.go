package repository

import (
	"context"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository define el puerto de persistencia para lotes.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByMedicalAndCode(ctx context.Context, medicalCode int64, code string) (*entity.Lot, error)
	// ListAvailableByMedical devuelve los lotes con cantidad > 0 ordenados por vencimiento ascendente.
	// Dentro de una transacción bloquea las filas (SELECT FOR UPDATE).
	ListAvailableByMedical(ctx context.Context, medicalCode int64) ([]*entity.Lot, error)
	AddQuantity(ctx context.Context, id string, delta decimal.Decimal) error
}
