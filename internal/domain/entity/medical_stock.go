package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MedicalStock fila de la tabla de saldos: saldo de un medicamento en una fecha.
// Las filas forman una cadena; solo la más reciente tiene NextMovDate nil.
type MedicalStock struct {
	MedicalCode int64
	BalanceDate time.Time
	Balance     decimal.Decimal
	NextMovDate *time.Time
	Days        *int // días transcurridos hasta NextMovDate
}

// IsCurrent indica si es la fila vigente de la cadena.
func (s *MedicalStock) IsCurrent() bool { return s.NextMovDate == nil }
