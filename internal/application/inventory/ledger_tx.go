package inventory

import (
	"context"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// Operaciones compartidas por el libro central y el de salas. Todas reciben los
// repositorios de la transacción en curso.

// applyBalance actualiza la tabla de saldos del medicamento con un delta con signo.
// El camino normal solo lee la fila vigente; una fecha retroactiva carga la cadena completa.
func applyBalance(ctx context.Context, repos StockRepos, v *inv.Validator, log *logger.Logger, m *entity.Movement) error {
	delta := m.SignedQuantity()
	latest, err := repos.Balances.GetLatest(ctx, m.MedicalCode)
	if err != nil {
		return err
	}
	var rows []entity.MedicalStock
	if latest != nil {
		rows = []entity.MedicalStock{*latest}
		if inv.Day(m.Date).Before(latest.BalanceDate) {
			if rows, err = repos.Balances.ListByMedical(ctx, m.MedicalCode); err != nil {
				return err
			}
		}
	}

	out, changed := inv.ApplyMovement(rows, m.MedicalCode, m.Date, delta)
	if neg := inv.FirstNegative(out, changed); neg != nil {
		log.Warn().
			Int64("medical", neg.MedicalCode).
			Time("balance_date", neg.BalanceDate).
			Str("balance", neg.Balance.String()).
			Str("ref_no", m.RefNo).
			Msg("saldo negativo en tabla de saldos")
		if !v.Policy().AllowNegativeStock {
			return domain.NewValidationError([]domain.Violation{v.NegativeBalance(neg)})
		}
	}
	for _, k := range changed {
		if err := repos.Balances.Upsert(ctx, out[k]); err != nil {
			return err
		}
	}
	return nil
}

// rebuildBalances recalcula la cadena completa del medicamento desde el libro.
func rebuildBalances(ctx context.Context, repos StockRepos, medicalCode int64) ([]entity.MedicalStock, error) {
	movs, err := repos.Movements.ListByMedical(ctx, medicalCode)
	if err != nil {
		return nil, err
	}
	deltas := make([]inv.DatedDelta, 0, len(movs))
	for _, m := range movs {
		deltas = append(deltas, inv.DatedDelta{Date: m.Date, Delta: m.SignedQuantity()})
	}
	rows := inv.Recompute(medicalCode, deltas)
	if err := repos.Balances.ReplaceAll(ctx, medicalCode, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// recordWardEntry persiste un asiento de sala y actualiza MedicalWard según su signo.
func recordWardEntry(ctx context.Context, repos StockRepos, mw *entity.MovementWard) error {
	if err := repos.WardMovements.Create(ctx, mw); err != nil {
		return err
	}
	in, out := wardDeltas(mw.Quantity)
	return repos.WardStock.Add(ctx, mw.WardCode, mw.MedicalCode, mw.LotID(), in, out)
}

// revertWardEntry elimina un asiento de sala y revierte su efecto en MedicalWard.
func revertWardEntry(ctx context.Context, repos StockRepos, mw *entity.MovementWard) error {
	if err := repos.WardMovements.Delete(ctx, mw.Code); err != nil {
		return err
	}
	in, out := wardDeltas(mw.Quantity)
	return repos.WardStock.Add(ctx, mw.WardCode, mw.MedicalCode, mw.LotID(), in.Neg(), out.Neg())
}

// wardDeltas positivo suma a in_quantity, negativo a out_quantity.
func wardDeltas(q decimal.Decimal) (in, out decimal.Decimal) {
	if q.IsNegative() {
		return decimal.Zero, q.Neg()
	}
	return q, decimal.Zero
}

// movementLaterFinder adapta el repositorio central a la guarda de borrado.
func movementLaterFinder(repos StockRepos, m *entity.Movement) inv.LaterFinder {
	return func(ctx context.Context, e inv.LedgerEntry) (bool, error) {
		return repos.Movements.HasLater(ctx, m.MedicalCode, e.Date, e.Code)
	}
}

// wardLaterFinder adapta el repositorio de sala a la guarda de borrado.
func wardLaterFinder(repos StockRepos, mw *entity.MovementWard) inv.LaterFinder {
	return func(ctx context.Context, e inv.LedgerEntry) (bool, error) {
		return repos.WardMovements.HasLater(ctx, mw.WardCode, mw.MedicalCode, mw.LotID(), e.Date, e.Code)
	}
}
