package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

// Consultas del almacén central. No abren transacción.

// ListMovementsByWard movimientos con destino a la sala en el rango de fechas (ambos extremos opcionales).
func (uc *MovementLedgerUseCase) ListMovementsByWard(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.Movement, error) {
	return uc.read.Movements.ListByWardAndDate(ctx, wardCode, from, to)
}

// SearchMovements búsqueda por filtro completo con orden de impresión.
func (uc *MovementLedgerUseCase) SearchMovements(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	if f.Order == "" {
		f.Order = repository.OrderByDate
	}
	return uc.read.Movements.Search(ctx, f)
}

// ListMovementsByRefNo movimientos de un mismo documento.
func (uc *MovementLedgerUseCase) ListMovementsByRefNo(ctx context.Context, refNo string) ([]*entity.Movement, error) {
	return uc.read.Movements.ListByRefNo(ctx, refNo)
}

// LastMovementDate fecha del último movimiento; medicalCode nil = global.
func (uc *MovementLedgerUseCase) LastMovementDate(ctx context.Context, medicalCode *int64) (*time.Time, error) {
	return uc.read.Movements.LastMovementDate(ctx, medicalCode)
}

// ListMovementsByLot movimientos que tocaron un lote.
func (uc *MovementLedgerUseCase) ListMovementsByLot(ctx context.Context, lotID string) ([]*entity.Movement, error) {
	return uc.read.Movements.ListByLot(ctx, lotID)
}

// GetLotsByMedical lotes vigentes (disponible > 0) del medicamento, por vencimiento ascendente.
func (uc *MovementLedgerUseCase) GetLotsByMedical(ctx context.Context, medicalCode int64) ([]*entity.Lot, error) {
	return uc.read.Lots.ListAvailableByMedical(ctx, medicalCode)
}

// GetLot lote por identificador.
func (uc *MovementLedgerUseCase) GetLot(ctx context.Context, id string) (*entity.Lot, error) {
	lot, err := uc.read.Lots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, &domain.NotFoundError{Entity: "lote", Key: id}
	}
	return lot, nil
}

// GetValuation valoriza los lotes vigentes del medicamento a costo promedio ponderado.
func (uc *MovementLedgerUseCase) GetValuation(ctx context.Context, medicalCode int64) (inv.Valuation, error) {
	lots, err := uc.read.Lots.ListAvailableByMedical(ctx, medicalCode)
	if err != nil {
		return inv.Valuation{}, err
	}
	return inv.ValueLots(lots), nil
}

// GetBalanceTimeline cadena completa de saldos del medicamento, por fecha ascendente.
func (uc *MovementLedgerUseCase) GetBalanceTimeline(ctx context.Context, medicalCode int64) ([]entity.MedicalStock, error) {
	return uc.read.Balances.ListByMedical(ctx, medicalCode)
}

// GetBalanceAt saldo vigente del medicamento en la fecha dada.
func (uc *MovementLedgerUseCase) GetBalanceAt(ctx context.Context, medicalCode int64, date time.Time) (*entity.MedicalStock, error) {
	row, err := uc.read.Balances.GetAt(ctx, medicalCode, inv.Day(date))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.NotFoundError{Entity: "saldo del medicamento", Key: strconv.FormatInt(medicalCode, 10)}
	}
	return row, nil
}
