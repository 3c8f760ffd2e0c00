package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MedicalWard total materializado por (sala, medicamento, lote). Nunca se borra.
type MedicalWard struct {
	WardCode    string
	MedicalCode int64
	LotID       string
	InQuantity  decimal.Decimal
	OutQuantity decimal.Decimal
}

// Quantity cantidad actual = entradas - salidas.
func (w *MedicalWard) Quantity() decimal.Decimal { return w.InQuantity.Sub(w.OutQuantity) }

// MovementWard asiento del libro de sala. Quantity lleva signo desde la óptica de la sala:
// positivo suma a la sala (in_quantity), negativo resta (out_quantity).
type MovementWard struct {
	Code         int64
	Date         time.Time
	WardCode     string
	WardFrom     string // traslados: sala de origen (en el asiento de entrada)
	WardTo       string // traslados: sala de destino (en el asiento de salida)
	TransferID   string // agrupa los dos asientos de un traslado
	MovementCode *int64 // descarga del almacén central que originó la entrada
	Lot          *Lot
	MedicalCode  int64
	Description  string
	Quantity     decimal.Decimal
	Units        string
	PatientCode  *int64
	CreatedBy    string
	CreatedAt    time.Time
}

// LotID devuelve el identificador del lote o "".
func (m *MovementWard) LotID() string {
	if m.Lot == nil {
		return ""
	}
	return m.Lot.ID
}

// IsTransfer indica que el asiento es una mitad de un traslado entre salas.
func (m *MovementWard) IsTransfer() bool { return m.WardFrom != "" || m.WardTo != "" }
