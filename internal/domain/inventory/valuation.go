package inventory

import (
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// Valuation valorización de los lotes vigentes de un medicamento.
type Valuation struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	TotalValue  decimal.Decimal
}

// ValueLots acumula los lotes con stock positivo con CostCalculator.
func ValueLots(lots []*entity.Lot) Valuation {
	qty, cost := decimal.Zero, decimal.Zero
	for _, l := range lots {
		if !l.HasStock() {
			continue
		}
		cost = CostCalculator(qty, cost, l.Quantity, l.Cost)
		qty = qty.Add(l.Quantity)
	}
	return Valuation{
		Quantity:    qty,
		AverageCost: cost.Round(4),
		TotalValue:  qty.Mul(cost).Round(2),
	}
}
