package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/pkg/i18n"
)

var (
	charge    = entity.MovementType{Code: "charge", Description: "Carga", Type: "+"}
	discharge = entity.MovementType{Code: "discharge", Description: "Descarga", Type: "-"}
	now       = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
)

func newValidator(mut func(p *inventory.Policy)) *inventory.Validator {
	p := inventory.DefaultPolicy()
	if mut != nil {
		mut(&p)
	}
	return inventory.NewValidator(p, i18n.New("es"))
}


func validCharge() *entity.Movement {
	sup := int64(3)
	return &entity.Movement{
		MedicalCode: 1,
		Type:        charge,
		Date:        now.Add(-time.Hour),
		Quantity:    decimal.NewFromInt(10),
		SupplierID:  &sup,
		RefNo:       "R1",
		Lot: &entity.Lot{
			Code:            "L1",
			PreparationDate: day("2024-01-01"),
			DueDate:         day("2025-01-01"),
			Cost:            decimal.NewFromFloat(1.5),
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos del almacén central
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckMovement_CargaValida(t *testing.T) {
	v := newValidator(nil)
	assert.Empty(t, v.CheckMovement(validCharge(), inventory.OpCharge, now, nil))
}

func TestCheckMovement_FechaFuturaYAnteriorAlUltimo(t *testing.T) {
	v := newValidator(nil)
	m := validCharge()
	m.Date = now.Add(48 * time.Hour)
	last := now.Add(72 * time.Hour)

	out := v.CheckMovement(m, inventory.OpCharge, now, &last)
	if assert.Len(t, out, 2) {
		assert.Equal(t, i18n.DateInFuture, out[0].Code)
		assert.Equal(t, i18n.DateBeforeLast, out[1].Code)
	}
}

func TestCheckMovement_TodosLosCamposObligatorios(t *testing.T) {
	v := newValidator(nil)
	m := &entity.Movement{Date: now}

	out := v.CheckMovement(m, inventory.OpAny, now, nil)
	got := make([]string, 0, len(out))
	for _, vi := range out {
		got = append(got, vi.Code)
		assert.NotEmpty(t, vi.Message)
	}
	assert.Equal(t, []string{i18n.RefNoRequired, i18n.MedicalRequired, i18n.TypeRequired, i18n.QuantityPositive}, got)
}

func TestCheckMovement_CargaSinProveedorYSinLote(t *testing.T) {
	v := newValidator(func(p *inventory.Policy) { p.AutomaticLotCharge = false })
	m := validCharge()
	m.SupplierID = nil
	m.Lot = nil

	out := v.CheckMovement(m, inventory.OpCharge, now, nil)
	if assert.Len(t, out, 2) {
		assert.Equal(t, i18n.SupplierRequired, out[0].Code)
		assert.Equal(t, i18n.LotRequired, out[1].Code)
	}
}

func TestCheckMovement_CargaLoteAutomaticoNoExigeLote(t *testing.T) {
	v := newValidator(func(p *inventory.Policy) { p.AutomaticLotCharge = true })
	m := validCharge()
	m.Lot = nil
	assert.Empty(t, v.CheckMovement(m, inventory.OpCharge, now, nil))
}

func TestCheckMovement_DescargaRequiereSala(t *testing.T) {
	v := newValidator(nil)
	m := &entity.Movement{MedicalCode: 1, Type: discharge, Date: now, Quantity: decimal.NewFromInt(2), RefNo: "R2"}
	out := v.CheckMovement(m, inventory.OpDischarge, now, nil)
	if assert.Len(t, out, 1) {
		assert.Equal(t, i18n.WardRequired, out[0].Code)
	}
}

func TestCheckMovement_TipoNoCorrespondeALaOperacion(t *testing.T) {
	v := newValidator(nil)
	out := v.CheckMovement(validCharge(), inventory.OpDischarge, now, nil)
	if assert.Len(t, out, 1) {
		assert.Equal(t, i18n.TypeMismatch, out[0].Code)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckLot_Reglas(t *testing.T) {
	v := newValidator(func(p *inventory.Policy) {
		p.LotCodeMaxLength = 5
		p.LotCostRequired = true
	})
	lot := &entity.Lot{
		Code:            "DEMASIADO-LARGO",
		MedicalCode:     2,
		PreparationDate: day("2025-01-01"),
		DueDate:         day("2024-01-01"),
	}
	out := v.CheckLot(lot, 1)
	got := make([]string, 0, len(out))
	for _, vi := range out {
		got = append(got, vi.Code)
	}
	assert.Equal(t, []string{i18n.LotMedicalMismatch, i18n.LotCodeTooLong, i18n.LotDatesOrder, i18n.LotCostRequired}, got)
}

func TestCheckLot_FechasAusentes(t *testing.T) {
	v := newValidator(nil)
	out := v.CheckLot(&entity.Lot{Code: "L"}, 1)
	if assert.Len(t, out, 1) {
		assert.Equal(t, i18n.LotDatesRequired, out[0].Code)
	}
}

func TestCheckLot_LoteExistenteNoRevalidaFechas(t *testing.T) {
	v := newValidator(func(p *inventory.Policy) { p.LotCostRequired = true })
	assert.Empty(t, v.CheckLot(&entity.Lot{ID: "x", Code: "L", MedicalCode: 1}, 1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Salas
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckWardMovement_DescripcionSoloSinPaciente(t *testing.T) {
	v := newValidator(nil)
	m := &entity.MovementWard{WardCode: "A", MedicalCode: 1, Date: now, Quantity: decimal.NewFromInt(-1)}
	out := v.CheckWardMovement(m, now)
	if assert.Len(t, out, 1) {
		assert.Equal(t, i18n.WardDescriptionNeeded, out[0].Code)
	}

	p := int64(44)
	m.PatientCode = &p
	assert.Empty(t, v.CheckWardMovement(m, now))
}

func TestCheckWardMovement_CantidadCeroYSinMedicamento(t *testing.T) {
	v := newValidator(nil)
	m := &entity.MovementWard{WardCode: "A", Description: "consumo", Date: now}
	out := v.CheckWardMovement(m, now)
	if assert.Len(t, out, 2) {
		assert.Equal(t, i18n.MedicalRequired, out[0].Code)
		assert.Equal(t, i18n.WardQuantityNonZero, out[1].Code)
	}
}

func TestCheckTransfer(t *testing.T) {
	v := newValidator(nil)
	assert.Empty(t, v.CheckTransfer("A", "B", nil))
	p := int64(1)
	out := v.CheckTransfer("A", "A", &p)
	if assert.Len(t, out, 2) {
		assert.Equal(t, i18n.WardSameOrigin, out[0].Code)
		assert.Equal(t, i18n.WardTransferPatient, out[1].Code)
	}
}
