package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/pkg/i18n"
)

func wardRow(t *testing.T, f *fixture, ward string, lotID string) *entity.MedicalWard {
	t.Helper()
	rows, err := f.wards.GetMedicalsWard(context.Background(), ward, false)
	require.NoError(t, err)
	for _, r := range rows {
		if r.LotID == lotID {
			return r
		}
	}
	return nil
}

func consume(t *testing.T, f *fixture, lotID, date string, n int64) *entity.MovementWard {
	t.Helper()
	out, err := f.wards.NewMovementWard(context.Background(), inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		LotID:       lotID,
		Date:        day(date),
		Description: "dosis",
		Quantity:    qty(-n),
		UserID:      "sala",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_EjemploAB(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := seedExample(t, f)
	l1 := out[0].Lot.ID

	before := wardRow(t, f, wardA, l1)
	require.NotNil(t, before)

	rows, err := f.wards.Transfer(ctx, inventory.TransferInput{
		From:        wardA,
		To:          wardB,
		MedicalCode: medAmox,
		Quantity:    qty(10),
		Date:        day("2023-06-04"),
		UserID:      "sala",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2, "una salida y una entrada")
	assert.Equal(t, rows[0].TransferID, rows[1].TransferID)
	assert.NotEmpty(t, rows[0].TransferID)
	assert.Equal(t, wardB, rows[0].WardTo)
	assert.Equal(t, wardA, rows[1].WardFrom)
	assert.Equal(t, l1, rows[0].LotID(), "FEFO toma primero L1")

	after := wardRow(t, f, wardA, l1)
	assert.True(t, after.OutQuantity.Sub(before.OutQuantity).Equal(qty(10)))
	inB := wardRow(t, f, wardB, l1)
	require.NotNil(t, inB)
	assert.True(t, inB.InQuantity.Equal(qty(10)))

	qa, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	qb, err := f.wards.GetCurrentQuantityInWard(ctx, wardB, medAmox)
	require.NoError(t, err)
	assert.True(t, qa.Add(qb).Equal(qty(12)), "el total A+B no cambia")
	assert.True(t, qb.Equal(qty(10)))
}

func TestTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	seedExample(t, f)
	ctx := context.Background()

	_, err := f.wards.Transfer(ctx, inventory.TransferInput{From: wardA, To: wardA, MedicalCode: medAmox, Quantity: qty(1), Date: day("2023-06-04")})
	assert.Equal(t, []string{i18n.WardSameOrigin}, validationCodes(t, err))

	_, err = f.wards.Transfer(ctx, inventory.TransferInput{From: wardA, To: "Z", MedicalCode: medAmox, Quantity: qty(1), Date: day("2023-06-04")})
	assert.Equal(t, []string{i18n.WardUnknown}, validationCodes(t, err))

	_, err = f.wards.Transfer(ctx, inventory.TransferInput{From: wardA, To: wardB, MedicalCode: medAmox, Quantity: qty(50), Date: day("2023-06-04")})
	assert.Equal(t, []string{i18n.InsufficientStock}, validationCodes(t, err))
}

func TestTransfer_CantidadCero_UnaSolaViolacion(t *testing.T) {
	f := newFixture(t)
	seedExample(t, f)

	_, err := f.wards.Transfer(context.Background(), inventory.TransferInput{From: wardA, To: wardB, MedicalCode: medAmox, Quantity: qty(0), Date: day("2023-06-04")})
	assert.Equal(t, []string{i18n.WardQuantityNonZero}, validationCodes(t, err))
}

func TestDeleteMovementWard_TrasladoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	rows, err := f.wards.Transfer(ctx, inventory.TransferInput{From: wardA, To: wardB, MedicalCode: medAmox, Quantity: qty(4), Date: day("2023-06-04")})
	require.NoError(t, err)

	deleted, err := f.wards.DeleteMovementWard(ctx, rows[0].Code)
	require.NoError(t, err)
	assert.Len(t, deleted, 2, "se borran ambas mitades")

	qa, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	qb, err := f.wards.GetCurrentQuantityInWard(ctx, wardB, medAmox)
	require.NoError(t, err)
	assert.True(t, qa.Equal(qty(12)))
	assert.True(t, qb.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Guarda de borrado
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteMovementWard_SoloElUltimoDeSuClave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l2 := seedExample(t, f)[1].Lot.ID

	c1 := consume(t, f, l2, "2023-06-05", 1)
	c2 := consume(t, f, l2, "2023-06-06", 1)

	_, err := f.wards.DeleteMovementWard(ctx, c1.Code)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, wardRow(t, f, wardA, l2).OutQuantity.Equal(qty(2)), "totales intactos")

	_, err = f.wards.DeleteMovementWard(ctx, c2.Code)
	require.NoError(t, err)
	assert.True(t, wardRow(t, f, wardA, l2).OutQuantity.Equal(qty(1)))

	_, err = f.wards.DeleteMovementWard(ctx, c1.Code)
	require.NoError(t, err)
	assert.True(t, wardRow(t, f, wardA, l2).OutQuantity.IsZero())
}

func TestDeleteMovementWard_MismaFechaDesempataPorCodigo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l2 := seedExample(t, f)[1].Lot.ID

	c1 := consume(t, f, l2, "2023-06-05", 1)
	consume(t, f, l2, "2023-06-05", 1)

	_, err := f.wards.DeleteMovementWard(ctx, c1.Code)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestDeleteMovementWard_EntradaDeFarmacia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	entries, err := f.wards.GetMovementsToWard(ctx, wardA, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	_, err = f.wards.DeleteMovementWard(ctx, entries[0].Code)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestDeleteMovementWard_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.wards.DeleteMovementWard(context.Background(), 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumos
// ──────────────────────────────────────────────────────────────────────────────

func TestNewMovementWard_ConsumoFEFOSinLote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	out, err := f.wards.NewMovementWard(ctx, inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		Date:        day("2023-06-05"),
		Description: "consumo diario",
		Quantity:    qty(-11),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "L1", out[0].Lot.Code)
	assert.True(t, out[0].Quantity.Equal(qty(-10)))
	assert.Equal(t, "L2", out[1].Lot.Code)
	assert.True(t, out[1].Quantity.Equal(qty(-1)))

	total, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	assert.True(t, total.Equal(qty(1)))

	holdings, err := f.wards.GetMedicalsWard(ctx, wardA, true)
	require.NoError(t, err)
	require.Len(t, holdings, 1, "las filas en cero se omiten")
	assert.Equal(t, out[1].Lot.ID, holdings[0].LotID)

	all, err := f.wards.GetMedicalsWard(ctx, wardA, false)
	require.NoError(t, err)
	assert.Len(t, all, 2, "las filas en cero no se borran")
}

func TestNewMovementWards_TodoONada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedExample(t, f)

	_, err := f.wards.NewMovementWards(ctx, []inventory.WardMovementInput{
		{WardCode: wardA, MedicalCode: medAmox, Date: day("2023-06-05"), Description: "uno", Quantity: qty(-2)},
		{WardCode: wardA, MedicalCode: medAmox, Date: day("2023-06-05"), Description: "dos", Quantity: qty(-20)},
	})
	assert.Equal(t, []string{i18n.InsufficientStock}, validationCodes(t, err))

	total, err := f.wards.GetCurrentQuantityInWard(ctx, wardA, medAmox)
	require.NoError(t, err)
	assert.True(t, total.Equal(qty(12)))
}

func TestNewMovementWard_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wards.NewMovementWard(ctx, inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		Date:        day("2023-06-05"),
		Quantity:    decimal.Zero,
	})
	assert.Equal(t, []string{i18n.WardDescriptionNeeded, i18n.WardQuantityNonZero}, validationCodes(t, err))

	_, err = f.wards.NewMovementWard(ctx, inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		Date:        day("2023-06-05"),
		Description: "carga manual",
		Quantity:    qty(3),
	})
	assert.Equal(t, []string{i18n.LotRequired}, validationCodes(t, err))

	_, err = f.wards.NewMovementWard(ctx, inventory.WardMovementInput{
		WardCode:    wardA,
		MedicalCode: medAmox,
		LotID:       "no-existe",
		Date:        day("2023-06-05"),
		Description: "carga manual",
		Quantity:    qty(3),
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateMovementWard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l2 := seedExample(t, f)[1].Lot.ID
	c := consume(t, f, l2, "2023-06-05", 1)

	_, err := f.wards.UpdateMovementWard(ctx, c.Code, inventory.UpdateWardInput{})
	assert.Equal(t, []string{i18n.WardDescriptionNeeded}, validationCodes(t, err))

	p := patientCode
	updated, err := f.wards.UpdateMovementWard(ctx, c.Code, inventory.UpdateWardInput{Units: "comp", PatientCode: &p})
	require.NoError(t, err)
	assert.Equal(t, "comp", updated.Units)
	assert.True(t, updated.Quantity.Equal(qty(-1)), "la cantidad no se modifica")

	byPatient, err := f.wards.GetMovementsToPatient(ctx, patientCode)
	require.NoError(t, err)
	require.Len(t, byPatient, 1)
	assert.Equal(t, c.Code, byPatient[0].Code)

	rows, err := f.wards.Transfer(ctx, inventory.TransferInput{From: wardA, To: wardB, MedicalCode: medAmox, Quantity: qty(1), Date: day("2023-06-06")})
	require.NoError(t, err)
	_, err = f.wards.UpdateMovementWard(ctx, rows[0].Code, inventory.UpdateWardInput{Description: "x", PatientCode: &p})
	assert.Equal(t, []string{i18n.WardTransferPatient}, validationCodes(t, err))
}
