package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement movimiento del almacén central (carga o descarga). Inmutable una vez persistido.
type Movement struct {
	Code        int64 // secuencial, asignado por el libro
	MedicalCode int64
	Type        MovementType
	WardCode    string // vacío si no va a una sala
	Lot         *Lot
	Date        time.Time
	Quantity    decimal.Decimal // magnitud positiva; el signo lo da Type
	SupplierID  *int64
	RefNo       string
	CreatedBy   string
	CreatedAt   time.Time
}

// SignedQuantity devuelve la cantidad con el signo del tipo de movimiento.
func (m *Movement) SignedQuantity() decimal.Decimal {
	if m.Type.IsDischarge() {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// IsWardBound indica una descarga con destino a una sala.
func (m *Movement) IsWardBound() bool {
	return m.Type.IsDischarge() && m.WardCode != ""
}

// LotID devuelve el identificador del lote o "" si no hay lote.
func (m *Movement) LotID() string {
	if m.Lot == nil {
		return ""
	}
	return m.Lot.ID
}
