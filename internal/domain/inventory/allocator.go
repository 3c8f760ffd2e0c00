package inventory

import (
	"fmt"
	"sort"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Candidate lote candidato a descontar con su cantidad disponible en el almacén
// (central o sala) desde el que se descarga.
type Candidate struct {
	Lot       *entity.Lot
	Available decimal.Decimal
}

// Allocation cantidad tomada de un lote.
type Allocation struct {
	Lot      *entity.Lot
	Quantity decimal.Decimal
}

// ShortfallError la existencia total no cubre lo solicitado y la política no permite stock negativo.
type ShortfallError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("stock insuficiente: solicitado %s, disponible %s", e.Requested, e.Available)
}

func (e *ShortfallError) Is(target error) bool { return target == domain.ErrInsufficientStock }

// SortFEFO ordena por vencimiento ascendente (primero el que vence antes);
// desempata por fecha de preparación y código.
func SortFEFO(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].Lot, cands[j].Lot
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.PreparationDate.Equal(b.PreparationDate) {
			return a.PreparationDate.Before(b.PreparationDate)
		}
		return a.Code < b.Code
	})
}

// AllocateFEFO reparte requested entre los candidatos con disponible > 0, en orden FEFO,
// tomando min(pendiente, disponible) de cada uno. Si el total no alcanza:
//   - allowNegative: el último lote tocado absorbe el faltante (su disponible queda negativo);
//   - si no: *ShortfallError y ninguna asignación.
func AllocateFEFO(cands []Candidate, requested decimal.Decimal, allowNegative bool) ([]Allocation, error) {
	if !requested.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	usable := make([]Candidate, 0, len(cands))
	total := decimal.Zero
	for _, c := range cands {
		if c.Available.IsPositive() {
			usable = append(usable, c)
			total = total.Add(c.Available)
		}
	}
	SortFEFO(usable)

	if total.LessThan(requested) && (!allowNegative || len(usable) == 0) {
		return nil, &ShortfallError{Requested: requested, Available: total}
	}

	remaining := requested
	out := make([]Allocation, 0, len(usable))
	for _, c := range usable {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, c.Available)
		out = append(out, Allocation{Lot: c.Lot, Quantity: take})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		last := &out[len(out)-1]
		last.Quantity = last.Quantity.Add(remaining)
	}
	return out, nil
}
