package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/inventory"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func assertChain(t *testing.T, rows []entity.MedicalStock) {
	t.Helper()
	current := 0
	for i, r := range rows {
		if r.NextMovDate == nil {
			current++
			assert.Equal(t, len(rows)-1, i, "solo la última fila es vigente")
			assert.Nil(t, r.Days)
			continue
		}
		require.Less(t, i+1, len(rows))
		assert.True(t, r.NextMovDate.Equal(rows[i+1].BalanceDate))
		require.NotNil(t, r.Days)
		assert.Equal(t, inventory.ElapsedDays(r.BalanceDate, rows[i+1].BalanceDate), *r.Days)
	}
	if len(rows) > 0 {
		assert.Equal(t, 1, current, "exactamente una fila vigente")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyMovement: casos de la tabla de saldos
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_CadenaVacia(t *testing.T) {
	rows, changed := inventory.ApplyMovement(nil, 7, day("2024-01-10").Add(15*time.Hour), dec(10))
	require.Len(t, rows, 1)
	assert.Equal(t, []int{0}, changed)
	assert.True(t, rows[0].BalanceDate.Equal(day("2024-01-10")), "la fecha se trunca al día")
	assert.True(t, rows[0].Balance.Equal(dec(10)))
	assert.EqualValues(t, 7, rows[0].MedicalCode)
	assertChain(t, rows)
}

func TestApplyMovement_MismoDiaSumaEnLugar(t *testing.T) {
	rows, _ := inventory.ApplyMovement(nil, 7, day("2024-01-10"), dec(10))
	rows, changed := inventory.ApplyMovement(rows, 7, day("2024-01-10").Add(2*time.Hour), dec(-4))
	require.Len(t, rows, 1)
	assert.Equal(t, []int{0}, changed)
	assert.True(t, rows[0].Balance.Equal(dec(6)))
	assertChain(t, rows)
}

func TestApplyMovement_FechaPosteriorEncadena(t *testing.T) {
	rows, _ := inventory.ApplyMovement(nil, 7, day("2024-01-10"), dec(10))
	rows, changed := inventory.ApplyMovement(rows, 7, day("2024-01-15"), dec(-3))
	require.Len(t, rows, 2)
	assert.Equal(t, []int{0, 1}, changed)

	require.NotNil(t, rows[0].Days)
	assert.Equal(t, 5, *rows[0].Days)
	assert.True(t, rows[1].Balance.Equal(dec(7)))
	assertChain(t, rows)
}

func TestApplyMovement_SoloColaVigente(t *testing.T) {
	// El camino normal solo carga la fila vigente.
	latest := []entity.MedicalStock{{MedicalCode: 7, BalanceDate: day("2024-03-01"), Balance: dec(20)}}
	rows, changed := inventory.ApplyMovement(latest, 7, day("2024-03-04"), dec(5))
	require.Len(t, rows, 2)
	assert.Equal(t, []int{0, 1}, changed)
	assert.True(t, rows[1].Balance.Equal(dec(25)))
	assert.Equal(t, 3, *rows[0].Days)
}

func TestApplyMovement_RetroactivoCorrigeSiguientes(t *testing.T) {
	rows, _ := inventory.ApplyMovement(nil, 7, day("2024-01-10"), dec(10))
	rows, _ = inventory.ApplyMovement(rows, 7, day("2024-01-20"), dec(5))
	rows, changed := inventory.ApplyMovement(rows, 7, day("2024-01-15"), dec(-2))

	require.Len(t, rows, 3)
	assert.Equal(t, []int{0, 1, 2}, changed)
	assert.True(t, rows[1].BalanceDate.Equal(day("2024-01-15")))
	assert.True(t, rows[1].Balance.Equal(dec(8)))
	assert.True(t, rows[2].Balance.Equal(dec(13)))
	assertChain(t, rows)
}

func TestApplyMovement_NoModificaEntrada(t *testing.T) {
	orig, _ := inventory.ApplyMovement(nil, 7, day("2024-01-10"), dec(10))
	_, _ = inventory.ApplyMovement(orig, 7, day("2024-01-10"), dec(5))
	assert.True(t, orig[0].Balance.Equal(dec(10)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Recompute y saldos negativos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecompute_SaldoVigenteIgualSumaMovimientos(t *testing.T) {
	deltas := []inventory.DatedDelta{
		{Date: day("2024-02-01"), Delta: dec(-3)},
		{Date: day("2024-01-01"), Delta: dec(10)},
		{Date: day("2024-02-01"), Delta: dec(5)},
		{Date: day("2024-03-05"), Delta: dec(-12)},
	}
	rows := inventory.Recompute(9, deltas)
	require.Len(t, rows, 3)
	assertChain(t, rows)
	assert.True(t, rows[len(rows)-1].Balance.Equal(dec(0)))
	assert.True(t, rows[1].Balance.Equal(dec(12)))
}

func TestFirstNegative(t *testing.T) {
	rows, changed := inventory.ApplyMovement(nil, 7, day("2024-01-10"), dec(-1))
	neg := inventory.FirstNegative(rows, changed)
	require.NotNil(t, neg)
	assert.True(t, neg.Balance.Equal(dec(-1)))

	rows, changed = inventory.ApplyMovement(rows, 7, day("2024-01-11"), dec(3))
	assert.Nil(t, inventory.FirstNegative(rows, changed[1:]))
}

func TestElapsedDays(t *testing.T) {
	assert.Equal(t, 0, inventory.ElapsedDays(day("2024-01-01").Add(23*time.Hour), day("2024-01-01")))
	assert.Equal(t, 366, inventory.ElapsedDays(day("2024-01-01"), day("2025-01-01")))
}
