package repository

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
)

// MedicalStockRepository define el puerto de la tabla de saldos por medicamento.
type MedicalStockRepository interface {
	GetLatest(ctx context.Context, medicalCode int64) (*entity.MedicalStock, error)
	// GetAt devuelve la fila con mayor fecha <= date.
	GetAt(ctx context.Context, medicalCode int64, date time.Time) (*entity.MedicalStock, error)
	ListByMedical(ctx context.Context, medicalCode int64) ([]entity.MedicalStock, error)
	Upsert(ctx context.Context, row entity.MedicalStock) error
	ReplaceAll(ctx context.Context, medicalCode int64, rows []entity.MedicalStock) error
}
