package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot lote fechado de un medicamento. ID es un identificador opaco (UUID);
// Code es el código comercial que se muestra al usuario.
type Lot struct {
	ID              string
	Code            string
	MedicalCode     int64
	PreparationDate time.Time
	DueDate         time.Time
	Cost            decimal.Decimal
	Quantity        decimal.Decimal // disponible en almacén central (cargas - descargas)
	CreatedAt       time.Time
}

// IsNew indica que el lote aún no fue persistido.
func (l *Lot) IsNew() bool { return l.ID == "" }

// HasStock indica si el lote aparece en los listados de lotes vigentes.
func (l *Lot) HasStock() bool { return l.Quantity.IsPositive() }
