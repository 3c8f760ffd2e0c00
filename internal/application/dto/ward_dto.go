package dto

import (
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// WardMovementRequest consumo (negativo) o ajuste (positivo, con lote) de sala.
type WardMovementRequest struct {
	MedicalCode int64           `json:"medical_code"`
	LotID       string          `json:"lot_id,omitempty"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Units       string          `json:"units,omitempty"`
	PatientCode *int64          `json:"patient_code,omitempty"`
}

// WardMovementBatchRequest body para POST /api/wards/:code/movements.
type WardMovementBatchRequest struct {
	Movements []WardMovementRequest `json:"movements"`
}

// TransferRequest body para POST /api/wards/transfers.
type TransferRequest struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	MedicalCode int64           `json:"medical_code"`
	LotID       string          `json:"lot_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

// UpdateWardMovementRequest campos editables de un asiento de sala.
type UpdateWardMovementRequest struct {
	Description string `json:"description"`
	Units       string `json:"units"`
	PatientCode *int64 `json:"patient_code,omitempty"`
}

// WardMovementResponse salida de un asiento de sala.
type WardMovementResponse struct {
	Code         int64           `json:"code"`
	Date         time.Time       `json:"date"`
	WardCode     string          `json:"ward_code"`
	WardFrom     string          `json:"ward_from,omitempty"`
	WardTo       string          `json:"ward_to,omitempty"`
	TransferID   string          `json:"transfer_id,omitempty"`
	MovementCode *int64          `json:"movement_code,omitempty"`
	MedicalCode  int64           `json:"medical_code"`
	Lot          *LotResponse    `json:"lot,omitempty"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	Units        string          `json:"units,omitempty"`
	PatientCode  *int64          `json:"patient_code,omitempty"`
	CreatedBy    string          `json:"created_by"`
}

// MedicalWardResponse existencia de un lote en la sala.
type MedicalWardResponse struct {
	WardCode    string          `json:"ward_code"`
	MedicalCode int64           `json:"medical_code"`
	LotID       string          `json:"lot_id"`
	InQuantity  decimal.Decimal `json:"in_quantity"`
	OutQuantity decimal.Decimal `json:"out_quantity"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// WardQuantityResponse cantidad actual de un medicamento en la sala.
type WardQuantityResponse struct {
	WardCode    string          `json:"ward_code"`
	MedicalCode int64           `json:"medical_code"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// FromMovementWard mapea la entidad.
func FromMovementWard(m *entity.MovementWard) WardMovementResponse {
	return WardMovementResponse{
		Code:         m.Code,
		Date:         m.Date,
		WardCode:     m.WardCode,
		WardFrom:     m.WardFrom,
		WardTo:       m.WardTo,
		TransferID:   m.TransferID,
		MovementCode: m.MovementCode,
		MedicalCode:  m.MedicalCode,
		Lot:          FromLot(m.Lot),
		Description:  m.Description,
		Quantity:     m.Quantity,
		Units:        m.Units,
		PatientCode:  m.PatientCode,
		CreatedBy:    m.CreatedBy,
	}
}

// FromMovementWards mapea una lista de asientos de sala.
func FromMovementWards(list []*entity.MovementWard) []WardMovementResponse {
	out := make([]WardMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovementWard(m))
	}
	return out
}

// FromMedicalWards mapea las existencias de sala.
func FromMedicalWards(list []*entity.MedicalWard) []MedicalWardResponse {
	out := make([]MedicalWardResponse, 0, len(list))
	for _, w := range list {
		out = append(out, MedicalWardResponse{
			WardCode:    w.WardCode,
			MedicalCode: w.MedicalCode,
			LotID:       w.LotID,
			InQuantity:  w.InQuantity,
			OutQuantity: w.OutQuantity,
			Quantity:    w.Quantity(),
		})
	}
	return out
}
