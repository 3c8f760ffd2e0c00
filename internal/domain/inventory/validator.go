package inventory

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/pkg/i18n"
)

// Operation operación que el llamador pretende (carga o descarga).
type Operation int

const (
	OpAny Operation = iota
	OpCharge
	OpDischarge
)

// Validator motor de validación previo a cualquier escritura. Cada regla incumplida
// agrega una violación; el llamador las devuelve todas juntas en un ValidationError.
type Validator struct {
	policy Policy
	tr     *i18n.Translator
}

// NewValidator construye el validador con la política y el traductor.
func NewValidator(policy Policy, tr *i18n.Translator) *Validator {
	return &Validator{policy: policy, tr: tr}
}

// Policy devuelve la política con la que se construyó.
func (v *Validator) Policy() Policy { return v.policy }

// Violation construye una violación localizada.
func (v *Validator) Violation(key string, args ...any) domain.Violation {
	return domain.Violation{Code: key, Message: v.tr.T(key, args...)}
}

// CheckMovement valida un movimiento del almacén central antes de asignar lotes.
// last es la fecha del último movimiento registrado del medicamento (nil si no hay).
func (v *Validator) CheckMovement(m *entity.Movement, op Operation, now time.Time, last *time.Time) []domain.Violation {
	var out []domain.Violation

	if m.Date.After(now) {
		out = append(out, v.Violation(i18n.DateInFuture))
	}
	if last != nil && m.Date.Before(*last) {
		out = append(out, v.Violation(i18n.DateBeforeLast, last.Format("2006-01-02 15:04")))
	}
	if m.RefNo == "" {
		out = append(out, v.Violation(i18n.RefNoRequired))
	}
	if m.MedicalCode == 0 {
		out = append(out, v.Violation(i18n.MedicalRequired))
	}
	if m.Type.Code == "" || m.Type.Type == "" {
		out = append(out, v.Violation(i18n.TypeRequired))
	} else if (op == OpCharge && !m.Type.IsCharge()) || (op == OpDischarge && !m.Type.IsDischarge()) {
		out = append(out, v.Violation(i18n.TypeMismatch, m.Type.Code))
	}
	if !m.Quantity.IsPositive() {
		out = append(out, v.Violation(i18n.QuantityPositive))
	}

	switch {
	case m.Type.IsCharge():
		if m.SupplierID == nil || *m.SupplierID == 0 {
			out = append(out, v.Violation(i18n.SupplierRequired))
		}
		if m.Lot == nil && !v.policy.AutomaticLotCharge {
			out = append(out, v.Violation(i18n.LotRequired))
		}
	case m.Type.IsDischarge():
		if m.WardCode == "" {
			out = append(out, v.Violation(i18n.WardRequired))
		}
		if m.Lot == nil && !v.policy.AutomaticLotDischarge {
			out = append(out, v.Violation(i18n.LotRequired))
		}
	}

	if m.Lot != nil {
		out = append(out, v.CheckLot(m.Lot, m.MedicalCode)...)
	}
	return out
}

// CheckLot valida un lote indicado explícitamente por el llamador.
func (v *Validator) CheckLot(lot *entity.Lot, medicalCode int64) []domain.Violation {
	var out []domain.Violation
	if lot.MedicalCode != 0 && medicalCode != 0 && lot.MedicalCode != medicalCode {
		out = append(out, v.Violation(i18n.LotMedicalMismatch, lot.Code))
	}
	if limit := v.policy.LotCodeMaxLength; limit > 0 && utf8.RuneCountInString(lot.Code) > limit {
		out = append(out, v.Violation(i18n.LotCodeTooLong, limit))
	}
	if !lot.IsNew() {
		// lote ya registrado: sus datos se validaron al crearlo
		return out
	}
	if lot.PreparationDate.IsZero() || lot.DueDate.IsZero() {
		out = append(out, v.Violation(i18n.LotDatesRequired))
	} else if lot.PreparationDate.After(lot.DueDate) {
		out = append(out, v.Violation(i18n.LotDatesOrder))
	}
	if v.policy.LotCostRequired && !lot.Cost.IsPositive() {
		out = append(out, v.Violation(i18n.LotCostRequired))
	}
	return out
}

// CheckWardMovement valida un asiento de sala (consumo, carga manual o mitad de traslado).
func (v *Validator) CheckWardMovement(m *entity.MovementWard, now time.Time) []domain.Violation {
	var out []domain.Violation
	if m.Date.After(now) {
		out = append(out, v.Violation(i18n.DateInFuture))
	}
	if m.WardCode == "" {
		out = append(out, v.Violation(i18n.WardRequired))
	}
	if m.MedicalCode == 0 {
		out = append(out, v.Violation(i18n.MedicalRequired))
	}
	if m.Description == "" && m.PatientCode == nil {
		out = append(out, v.Violation(i18n.WardDescriptionNeeded))
	}
	if m.Quantity.IsZero() {
		out = append(out, v.Violation(i18n.WardQuantityNonZero))
	}
	if m.Lot != nil {
		out = append(out, v.CheckLot(m.Lot, m.MedicalCode)...)
	}
	return out
}

// CheckTransfer reglas propias de un traslado entre salas.
func (v *Validator) CheckTransfer(from, to string, patient *int64) []domain.Violation {
	var out []domain.Violation
	if from != "" && from == to {
		out = append(out, v.Violation(i18n.WardSameOrigin))
	}
	if to == "" {
		out = append(out, v.Violation(i18n.WardRequired))
	}
	if patient != nil {
		out = append(out, v.Violation(i18n.WardTransferPatient))
	}
	return out
}

// Shortfall traduce un faltante del asignador a violación.
func (v *Validator) Shortfall(e *ShortfallError) domain.Violation {
	return v.Violation(i18n.InsufficientStock, e.Requested.String(), e.Available.String())
}

// NegativeBalance violación por saldo negativo en la tabla de saldos.
func (v *Validator) NegativeBalance(row *entity.MedicalStock) domain.Violation {
	return v.Violation(i18n.NegativeBalance, strconv.FormatInt(row.MedicalCode, 10), row.Balance.String())
}
