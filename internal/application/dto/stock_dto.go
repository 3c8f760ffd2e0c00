package dto

import (
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRequest lote de un movimiento: por ID (existente), por código (se reutiliza
// si existe en el medicamento) o con datos completos para crearlo.
type LotRequest struct {
	ID              string          `json:"id,omitempty"`
	Code            string          `json:"code,omitempty"`
	PreparationDate time.Time       `json:"preparation_date"`
	DueDate         time.Time       `json:"due_date"`
	Cost            decimal.Decimal `json:"cost"`
}

// MovementRequest un movimiento del almacén central.
type MovementRequest struct {
	MedicalCode int64           `json:"medical_code"`
	TypeCode    string          `json:"type_code"`
	WardCode    string          `json:"ward_code,omitempty"`
	SupplierID  *int64          `json:"supplier_id,omitempty"`
	Date        time.Time       `json:"date"`
	Quantity    decimal.Decimal `json:"quantity"`
	Lot         *LotRequest     `json:"lot,omitempty"`
}

// MovementBatchRequest body para POST /api/stock/{charges,discharges,movements}.
type MovementBatchRequest struct {
	RefNo     string            `json:"ref_no"`
	Movements []MovementRequest `json:"movements"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	MedicalCode     int64           `json:"medical_code"`
	PreparationDate time.Time       `json:"preparation_date"`
	DueDate         time.Time       `json:"due_date"`
	Cost            decimal.Decimal `json:"cost"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// MovementResponse salida de un movimiento del almacén central.
type MovementResponse struct {
	Code            int64           `json:"code"`
	MedicalCode     int64           `json:"medical_code"`
	TypeCode        string          `json:"type_code"`
	TypeDescription string          `json:"type_description"`
	WardCode        string          `json:"ward_code,omitempty"`
	Lot             *LotResponse    `json:"lot,omitempty"`
	Date            time.Time       `json:"date"`
	Quantity        decimal.Decimal `json:"quantity"`
	SignedQuantity  decimal.Decimal `json:"signed_quantity"`
	SupplierID      *int64          `json:"supplier_id,omitempty"`
	RefNo           string          `json:"ref_no"`
	CreatedBy       string          `json:"created_by"`
}

// BalanceResponse fila de la tabla de saldos.
type BalanceResponse struct {
	MedicalCode int64           `json:"medical_code"`
	BalanceDate time.Time       `json:"balance_date"`
	Balance     decimal.Decimal `json:"balance"`
	NextMovDate *time.Time      `json:"next_mov_date,omitempty"`
	Days        *int            `json:"days,omitempty"`
}

// ValuationResponse valorización de los lotes vigentes.
type ValuationResponse struct {
	MedicalCode int64           `json:"medical_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// LastDateResponse fecha del último movimiento (nil si el libro está vacío).
type LastDateResponse struct {
	MedicalCode *int64     `json:"medical_code,omitempty"`
	LastDate    *time.Time `json:"last_date"`
}

// FromLot mapea la entidad.
func FromLot(l *entity.Lot) *LotResponse {
	if l == nil {
		return nil
	}
	return &LotResponse{
		ID:              l.ID,
		Code:            l.Code,
		MedicalCode:     l.MedicalCode,
		PreparationDate: l.PreparationDate,
		DueDate:         l.DueDate,
		Cost:            l.Cost,
		Quantity:        l.Quantity,
	}
}

// FromLots mapea una lista de lotes.
func FromLots(lots []*entity.Lot) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, *FromLot(l))
	}
	return out
}

// FromMovement mapea la entidad.
func FromMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		Code:            m.Code,
		MedicalCode:     m.MedicalCode,
		TypeCode:        m.Type.Code,
		TypeDescription: m.Type.Description,
		WardCode:        m.WardCode,
		Lot:             FromLot(m.Lot),
		Date:            m.Date,
		Quantity:        m.Quantity,
		SignedQuantity:  m.SignedQuantity(),
		SupplierID:      m.SupplierID,
		RefNo:           m.RefNo,
		CreatedBy:       m.CreatedBy,
	}
}

// FromMovements mapea una lista de movimientos.
func FromMovements(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

// FromBalance mapea una fila de saldos.
func FromBalance(s entity.MedicalStock) BalanceResponse {
	return BalanceResponse{
		MedicalCode: s.MedicalCode,
		BalanceDate: s.BalanceDate,
		Balance:     s.Balance,
		NextMovDate: s.NextMovDate,
		Days:        s.Days,
	}
}

// FromBalances mapea la cadena de saldos.
func FromBalances(rows []entity.MedicalStock) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromBalance(r))
	}
	return out
}
