package entity

import "strings"

// Catálogos externos: este módulo los consulta, no es su dueño.

// MedicalType tipo farmacéutico (comprimidos, soluciones, material de curación...).
type MedicalType struct {
	Code        string
	Description string
}

// Medical insumo o medicamento del catálogo.
type Medical struct {
	Code        int64
	TypeCode    string
	ProductCode string
	Description string
	PcsPerPack  int
}

// Ward sala o sub-almacén del hospital.
type Ward struct {
	Code        string
	Description string
	IsPharmacy  bool
}

// Supplier proveedor u origen de una carga.
type Supplier struct {
	ID   int64
	Name string
}

// Patient identidad mínima del paciente para consumos en sala.
type Patient struct {
	Code int64
	Name string
}

// Signos de tipo de movimiento.
const (
	MovementSignCharge    = "+" // carga (entrada)
	MovementSignDischarge = "-" // descarga (salida)
)

// MovementType tipo de movimiento del catálogo; Type lleva el signo ("+", "-", "+A"...).
type MovementType struct {
	Code        string
	Description string
	Type        string
}

// IsCharge indica si el tipo suma stock al almacén central.
func (t MovementType) IsCharge() bool { return strings.HasPrefix(t.Type, MovementSignCharge) }

// IsDischarge indica si el tipo resta stock al almacén central.
func (t MovementType) IsDischarge() bool { return strings.HasPrefix(t.Type, MovementSignDischarge) }
