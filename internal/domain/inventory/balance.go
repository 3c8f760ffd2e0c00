package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Day trunca una fecha al día de calendario (las filas de saldo son diarias).
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ElapsedDays días de calendario entre from y to.
func ElapsedDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ApplyMovement aplica un delta con signo en la fecha date sobre una cadena de saldos
// ordenada por fecha y devuelve la cadena resultante junto con los índices modificados.
//
// rows puede ser la cadena completa o solo su cola (p. ej. la fila vigente): el cálculo
// solo mira la fila anterior a date. Casos:
//   - cadena vacía: fila nueva con saldo = delta;
//   - ya existe fila en date: se suma delta en su lugar;
//   - date posterior a la última: la anterior apunta a date y se agrega la nueva;
//   - date retroactiva: se inserta/acumula y se corrige el saldo de todas las siguientes.
func ApplyMovement(rows []entity.MedicalStock, medicalCode int64, date time.Time, delta decimal.Decimal) ([]entity.MedicalStock, []int) {
	d := Day(date)
	out := make([]entity.MedicalStock, len(rows), len(rows)+1)
	copy(out, rows)

	i := sort.Search(len(out), func(k int) bool { return !out[k].BalanceDate.Before(d) })
	if i < len(out) && out[i].BalanceDate.Equal(d) {
		out[i].Balance = out[i].Balance.Add(delta)
	} else {
		prev := decimal.Zero
		if i > 0 {
			prev = out[i-1].Balance
		}
		out = append(out, entity.MedicalStock{})
		copy(out[i+1:], out[i:])
		out[i] = entity.MedicalStock{MedicalCode: medicalCode, BalanceDate: d, Balance: prev.Add(delta)}
	}
	for k := i + 1; k < len(out); k++ {
		out[k].Balance = out[k].Balance.Add(delta)
	}

	start := i
	if start > 0 {
		start--
	}
	changed := make([]int, 0, len(out)-start)
	for k := start; k < len(out); k++ {
		relink(out, k)
		changed = append(changed, k)
	}
	return out, changed
}

func relink(rows []entity.MedicalStock, k int) {
	if k == len(rows)-1 {
		rows[k].NextMovDate = nil
		rows[k].Days = nil
		return
	}
	next := rows[k+1].BalanceDate
	days := ElapsedDays(rows[k].BalanceDate, next)
	rows[k].NextMovDate = &next
	rows[k].Days = &days
}

// DatedDelta cantidad con signo en una fecha.
type DatedDelta struct {
	Date  time.Time
	Delta decimal.Decimal
}

// Recompute reconstruye la cadena completa desde cero con la misma aritmética de ApplyMovement.
func Recompute(medicalCode int64, deltas []DatedDelta) []entity.MedicalStock {
	sorted := make([]DatedDelta, len(deltas))
	copy(sorted, deltas)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var rows []entity.MedicalStock
	for _, dd := range sorted {
		rows, _ = ApplyMovement(rows, medicalCode, dd.Date, dd.Delta)
	}
	return rows
}

// FirstNegative devuelve la primera fila con saldo negativo entre los índices dados.
func FirstNegative(rows []entity.MedicalStock, idx []int) *entity.MedicalStock {
	for _, k := range idx {
		if rows[k].Balance.IsNegative() {
			return &rows[k]
		}
	}
	return nil
}
