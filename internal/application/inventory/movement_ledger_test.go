package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/internal/infrastructure/memory"
	"github.com/jhoicas/medstock-api/pkg/i18n"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	medAmox     int64 = 1
	medParac    int64 = 2
	supplierID  int64 = 1
	patientCode int64 = 100
	wardA             = "A"
	wardB             = "B"
	typeCharge        = "CHG"
	typeDisch         = "DIS"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixture struct {
	store  *memory.Store
	clock  *fixedClock
	ledger *inventory.MovementLedgerUseCase
	wards  *inventory.WardStockUseCase
}

func newFixture(t *testing.T, tweak ...func(p *inv.Policy)) *fixture {
	t.Helper()
	policy := inv.DefaultPolicy()
	for _, fn := range tweak {
		fn(&policy)
	}

	store := memory.NewStore()
	cat := store.Catalog
	cat.AddMedicalType(entity.MedicalType{Code: "K", Description: "Comprimidos"})
	cat.AddMedical(entity.Medical{Code: medAmox, TypeCode: "K", Description: "Amoxicilina 500mg", PcsPerPack: 10})
	cat.AddMedical(entity.Medical{Code: medParac, TypeCode: "K", Description: "Paracetamol 1g", PcsPerPack: 20})
	cat.AddWard(entity.Ward{Code: wardA, Description: "Medicina interna"})
	cat.AddWard(entity.Ward{Code: wardB, Description: "Pediatría"})
	cat.AddSupplier(entity.Supplier{ID: supplierID, Name: "Droguería Central"})
	cat.AddPatient(entity.Patient{Code: patientCode, Name: "Ana Pérez"})
	cat.AddMovementType(entity.MovementType{Code: typeCharge, Description: "Carga de proveedor", Type: "+"})
	cat.AddMovementType(entity.MovementType{Code: typeDisch, Description: "Descarga a sala", Type: "-"})

	clock := &fixedClock{now: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)}
	v := inv.NewValidator(policy, i18n.New("es"))
	read := store.Repos()
	return &fixture{
		store:  store,
		clock:  clock,
		ledger: inventory.NewMovementLedgerUseCase(store, read, cat.Repositories(), v, clock, logger.Nop()),
		wards:  inventory.NewWardStockUseCase(store, read, cat.Repositories(), v, clock, logger.Nop()),
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func chargeInput(medical int64, lotCode, due, date string, n int64) inventory.MovementInput {
	sup := supplierID
	return inventory.MovementInput{
		MedicalCode: medical,
		TypeCode:    typeCharge,
		SupplierID:  &sup,
		Date:        day(date),
		Quantity:    qty(n),
		Lot: &inventory.LotInput{
			Code:            lotCode,
			PreparationDate: day(due).AddDate(-1, 0, 0),
			DueDate:         day(due),
			Cost:            decimal.RequireFromString("1.50"),
		},
		UserID: "farmacia",
	}
}

func dischargeInput(medical int64, ward, date string, n int64) inventory.MovementInput {
	return inventory.MovementInput{
		MedicalCode: medical,
		TypeCode:    typeDisch,
		WardCode:    ward,
		Date:        day(date),
		Quantity:    qty(n),
		UserID:      "farmacia",
	}
}

// seedExample carga L1 (+10, vence 2024-01-01) y L2 (+5, vence 2024-06-01) y descarga 12 a la sala A.
func seedExample(t *testing.T, f *fixture) []*entity.Movement {
	t.Helper()
	ctx := context.Background()
	_, err := f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medAmox, "L1", "2024-01-01", "2023-06-01", 10)}, "C1")
	require.NoError(t, err)
	_, err = f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medAmox, "L2", "2024-06-01", "2023-06-02", 5)}, "C2")
	require.NoError(t, err)
	out, err := f.ledger.Discharge(ctx, []inventory.MovementInput{dischargeInput(medAmox, wardA, "2023-06-03", 12)}, "R1")
	require.NoError(t, err)
	return out
}

func validationCodes(t *testing.T, err error) []string {
	t.Helper()
	ve, ok := domain.AsValidation(err)
	require.True(t, ok, "se esperaba ValidationError, llegó %v", err)
	return ve.Codes()
}

// ──────────────────────────────────────────────────────────────────────────────
// Descarga automática FEFO
// ──────────────────────────────────────────────────────────────────────────────

func TestDischarge_EjemploFEFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := seedExample(t, f)
	require.Len(t, out, 2, "un movimiento por lote tocado")
	assert.Equal(t, "L1", out[0].Lot.Code)
	assert.True(t, out[0].Quantity.Equal(qty(10)))
	assert.Equal(t, "L2", out[1].Lot.Code)
	assert.True(t, out[1].Quantity.Equal(qty(2)))
	for _, m := range out {
		assert.Equal(t, "R1", m.RefNo)
		assert.NotZero(t, m.Code)
	}
	assert.Greater(t, out[1].Code, out[0].Code, "códigos secuenciales")

	lots, err := f.ledger.GetLotsByMedical(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, lots, 1, "L1 agotado no aparece en lotes vigentes")
	assert.Equal(t, "L2", lots[0].Code)
	assert.True(t, lots[0].Quantity.Equal(qty(3)))

	l1, err := f.ledger.GetLot(ctx, out[0].Lot.ID)
	require.NoError(t, err, "el lote agotado se conserva")
	assert.True(t, l1.Quantity.IsZero())
}

func TestDischarge_AlimentaLaSala(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := seedExample(t, f)

	total, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	assert.True(t, total.Equal(qty(12)))

	entries, err := f.wards.GetMovementsToWard(ctx, wardA, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for i, e := range entries {
		require.NotNil(t, e.MovementCode, "la entrada de sala referencia la descarga")
		assert.Equal(t, out[i].Code, *e.MovementCode)
		assert.True(t, e.Quantity.IsPositive())
	}

	byWard, err := f.ledger.ListMovementsByWard(ctx, wardA, nil, nil)
	require.NoError(t, err)
	assert.Len(t, byWard, 2)
}

func TestDischarge_StockInsuficienteRechazaSinEfectos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	_, err := f.ledger.Discharge(ctx, []inventory.MovementInput{
		dischargeInput(medAmox, wardB, "2023-06-04", 1),
		dischargeInput(medAmox, wardB, "2023-06-04", 50),
	}, "R2")
	require.Error(t, err)
	assert.Equal(t, []string{i18n.InsufficientStock}, validationCodes(t, err))

	lots, err := f.ledger.GetLotsByMedical(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(qty(3)), "el primer descargo también se revierte")

	movs, err := f.ledger.ListMovementsByRefNo(ctx, "R2")
	require.NoError(t, err)
	assert.Empty(t, movs)

	latest, err := f.ledger.GetBalanceAt(ctx, medAmox, day("2023-06-30"))
	require.NoError(t, err)
	assert.True(t, latest.Balance.Equal(qty(3)))

	inB, err := f.wards.GetCurrentQuantityInWard(ctx, wardB, medAmox)
	require.NoError(t, err)
	assert.True(t, inB.IsZero())
}

func TestDischarge_PermiteNegativoConPolitica(t *testing.T) {
	f := newFixture(t, func(p *inv.Policy) { p.AllowNegativeStock = true })
	ctx := context.Background()

	_, err := f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medParac, "P1", "2025-01-01", "2024-01-10", 5)}, "C1")
	require.NoError(t, err)
	out, err := f.ledger.Discharge(ctx, []inventory.MovementInput{dischargeInput(medParac, wardA, "2024-01-11", 8)}, "R1")
	require.NoError(t, err)
	require.Len(t, out, 1, "el último lote absorbe el faltante")
	assert.True(t, out[0].Quantity.Equal(qty(8)))
	assert.True(t, out[0].Lot.Quantity.Equal(qty(-3)))

	rows, err := f.ledger.GetBalanceTimeline(ctx, medParac)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].Balance.Equal(qty(-3)), "el saldo negativo se expone, no se recorta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cargas y validación
// ──────────────────────────────────────────────────────────────────────────────

func TestCharge_ReutilizaLotePorCodigo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medAmox, "L1", "2024-01-01", "2023-06-01", 10)}, "C1")
	require.NoError(t, err)
	second, err := f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medAmox, "L1", "2024-01-01", "2023-06-02", 4)}, "C2")
	require.NoError(t, err)

	assert.Equal(t, first[0].Lot.ID, second[0].Lot.ID)
	lot, err := f.ledger.GetLot(ctx, first[0].Lot.ID)
	require.NoError(t, err)
	assert.True(t, lot.Quantity.Equal(qty(14)))

	movs, err := f.ledger.ListMovementsByLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 2)
}

func TestCharge_MismoLoteNuevoDosLineas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.ledger.Charge(ctx, []inventory.MovementInput{
		chargeInput(medAmox, "LX", "2024-01-01", "2023-06-01", 4),
		chargeInput(medAmox, "LX", "2024-01-01", "2023-06-01", 6),
	}, "C1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, out[0].Lot.ID, out[1].Lot.ID, "ambas líneas usan el mismo lote")

	lots, err := f.ledger.GetLotsByMedical(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Quantity.Equal(qty(10)))

	movs, err := f.ledger.ListMovementsByRefNo(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, movs, 2)
}

func TestCharge_LoteAutomatico(t *testing.T) {
	f := newFixture(t, func(p *inv.Policy) { p.AutomaticLotCharge = true })
	ctx := context.Background()

	in := chargeInput(medAmox, "", "2024-01-01", "2024-03-10", 6)
	in.Lot = nil
	out, err := f.ledger.Charge(ctx, []inventory.MovementInput{in}, "C1")
	require.NoError(t, err)
	require.Len(t, out, 1)

	lot := out[0].Lot
	require.NotNil(t, lot)
	assert.NotEmpty(t, lot.ID)
	assert.NotEmpty(t, lot.Code)
	assert.Equal(t, day("2024-03-10"), lot.PreparationDate)
	assert.Equal(t, day("2024-03-10").AddDate(0, 0, 730), lot.DueDate)
	assert.True(t, lot.Quantity.Equal(qty(6)))
}

func TestCharge_SinLoteRequiereLoteSiNoEsAutomatico(t *testing.T) {
	f := newFixture(t)
	in := chargeInput(medAmox, "", "2024-01-01", "2024-03-10", 6)
	in.Lot = nil

	_, err := f.ledger.Charge(context.Background(), []inventory.MovementInput{in}, "C1")
	assert.Equal(t, []string{i18n.LotRequired}, validationCodes(t, err))
}

func TestRecordMovement_FechaFuturaYAnteriorAlUltimo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.RecordMovement(ctx, chargeInput(medAmox, "L1", "2025-01-01", "2024-06-30", 10), "C1")
	require.NoError(t, err)

	// el reloj retrocede: la nueva fecha queda en el futuro y a la vez antes del último movimiento
	f.clock.now = day("2024-06-01")
	_, err = f.ledger.RecordMovement(ctx, chargeInput(medAmox, "L1", "2025-01-01", "2024-06-15", 1), "C2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	ve, _ := domain.AsValidation(err)
	assert.Equal(t, []string{i18n.DateInFuture, i18n.DateBeforeLast}, ve.Codes())
	assert.Len(t, ve.Messages(), 2)
}

func TestRecordMovement_AcumulaTodasLasViolaciones(t *testing.T) {
	f := newFixture(t)
	in := inventory.MovementInput{
		MedicalCode: 999,
		TypeCode:    typeCharge,
		Date:        day("2024-01-01"),
		Quantity:    qty(0),
	}

	_, err := f.ledger.RecordMovement(context.Background(), in, "")
	assert.Equal(t, []string{
		i18n.MedicalUnknown,
		i18n.RefNoRequired,
		i18n.QuantityPositive,
		i18n.SupplierRequired,
		i18n.LotRequired,
	}, validationCodes(t, err))
}

func TestRecordMovement_DescargaSinLote(t *testing.T) {
	f := newFixture(t)
	seedExample(t, f)

	_, err := f.ledger.RecordMovement(context.Background(), dischargeInput(medAmox, wardA, "2023-06-05", 1), "R9")
	assert.Equal(t, []string{i18n.LotRequired}, validationCodes(t, err))
}

func TestRecordMovements_RefNoUsado(t *testing.T) {
	f := newFixture(t)
	seedExample(t, f)

	_, err := f.ledger.RecordMovements(context.Background(), []inventory.MovementInput{
		chargeInput(medAmox, "L3", "2025-01-01", "2023-06-10", 1),
	}, "C1")
	assert.Equal(t, []string{i18n.RefNoUsed}, validationCodes(t, err))
}

func TestRecordMovements_LoteDeOtroMedicamento(t *testing.T) {
	f := newFixture(t)
	out := seedExample(t, f)

	in := dischargeInput(medParac, wardA, "2023-06-10", 1)
	in.Lot = &inventory.LotInput{ID: out[1].Lot.ID}
	_, err := f.ledger.RecordMovements(context.Background(), []inventory.MovementInput{in}, "R5")
	assert.Contains(t, validationCodes(t, err), i18n.LotMedicalMismatch)
}

func TestDischarge_TipoDeCargaRechazado(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Discharge(context.Background(), []inventory.MovementInput{
		chargeInput(medAmox, "L1", "2024-01-01", "2023-06-01", 1),
	}, "R1")
	assert.Contains(t, validationCodes(t, err), i18n.TypeMismatch)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de saldos
// ──────────────────────────────────────────────────────────────────────────────

func TestBalanceTimeline_CadenaYSuma(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	rows, err := f.ledger.GetBalanceTimeline(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	current := 0
	for _, r := range rows {
		if r.IsCurrent() {
			current++
		}
	}
	assert.Equal(t, 1, current, "una sola fila vigente")

	assert.True(t, rows[0].Balance.Equal(qty(10)))
	assert.True(t, rows[1].Balance.Equal(qty(15)))
	assert.True(t, rows[2].Balance.Equal(qty(3)), "la fila vigente es la suma de los movimientos")
	require.NotNil(t, rows[0].NextMovDate)
	assert.Equal(t, day("2023-06-02"), *rows[0].NextMovDate)
	assert.Equal(t, 1, *rows[0].Days)

	at, err := f.ledger.GetBalanceAt(ctx, medAmox, day("2023-06-02"))
	require.NoError(t, err)
	assert.True(t, at.Balance.Equal(qty(15)))

	_, err = f.ledger.GetBalanceAt(ctx, medAmox, day("2022-01-01"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecomputeBalances_IgualAlIncremental(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	before, err := f.ledger.GetBalanceTimeline(ctx, medAmox)
	require.NoError(t, err)
	rebuilt, err := f.ledger.RecomputeBalances(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, rebuilt, len(before))
	for i := range before {
		assert.Equal(t, before[i].BalanceDate, rebuilt[i].BalanceDate)
		assert.True(t, before[i].Balance.Equal(rebuilt[i].Balance), "fila %d", i)
		assert.Equal(t, before[i].IsCurrent(), rebuilt[i].IsCurrent())
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado administrativo
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteMovement_SoloElUltimo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	movs, err := f.ledger.ListMovementsByRefNo(ctx, "C1")
	require.NoError(t, err)
	_, err = f.ledger.DeleteMovement(ctx, movs[0].Code)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestDeleteLastMovement_RevierteLoteSaldoYSala(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := seedExample(t, f)

	deleted, err := f.ledger.DeleteLastMovement(ctx, medAmox)
	require.NoError(t, err)
	assert.Equal(t, out[1].Code, deleted.Code)

	lot, err := f.ledger.GetLot(ctx, out[1].Lot.ID)
	require.NoError(t, err)
	assert.True(t, lot.Quantity.Equal(qty(5)))

	rows, err := f.ledger.GetBalanceTimeline(ctx, medAmox)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[2].Balance.Equal(qty(5)))

	inA, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	assert.True(t, inA.Equal(qty(10)))
	entries, err := f.wards.GetMovementsToWard(ctx, wardA, nil, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteLastMovement_BloqueadoPorConsumoEnSala(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := seedExample(t, f)

	_, err := f.wards.NewMovementWard(ctx, inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		LotID:       out[1].Lot.ID,
		Date:        day("2023-06-05"),
		Quantity:    qty(-1),
		PatientCode: func() *int64 { p := patientCode; return &p }(),
	})
	require.NoError(t, err)

	_, err = f.ledger.DeleteLastMovement(ctx, medAmox)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	movs, err := f.ledger.ListMovementsByRefNo(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, movs, 2, "nada se borró")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestLastMovementDate_GlobalYPorMedicamento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)
	_, err := f.ledger.Charge(ctx, []inventory.MovementInput{chargeInput(medParac, "P1", "2025-01-01", "2023-07-01", 5)}, "C3")
	require.NoError(t, err)

	global, err := f.ledger.LastMovementDate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, day("2023-07-01"), *global)

	med := medAmox
	perMed, err := f.ledger.LastMovementDate(ctx, &med)
	require.NoError(t, err)
	assert.Equal(t, day("2023-06-03"), *perMed)
}

func TestGetValuation_PromedioPonderado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	val, err := f.ledger.GetValuation(ctx, medAmox)
	require.NoError(t, err)
	assert.True(t, val.Quantity.Equal(qty(3)))
	assert.True(t, val.TotalValue.Equal(decimal.RequireFromString("4.5")))
}

func TestGetLot_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.GetLot(context.Background(), "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
