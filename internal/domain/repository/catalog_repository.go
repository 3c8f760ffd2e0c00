package repository

import (
	"context"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
)

// Puertos de lectura hacia los catálogos de otros subsistemas.
// Todas las búsquedas devuelven (nil, nil) cuando el registro no existe.

// MedicalRepository catálogo de medicamentos.
type MedicalRepository interface {
	GetByCode(ctx context.Context, code int64) (*entity.Medical, error)
}

// MedicalTypeRepository catálogo de tipos farmacéuticos.
type MedicalTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.MedicalType, error)
}

// WardRepository catálogo de salas.
type WardRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Ward, error)
}

// SupplierRepository catálogo de proveedores.
type SupplierRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
}

// PatientRepository identidad de pacientes.
type PatientRepository interface {
	GetByCode(ctx context.Context, code int64) (*entity.Patient, error)
}

// MovementTypeRepository catálogo código → signo.
type MovementTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.MovementType, error)
}

// Catalog agrupa los catálogos que consume el libro de stock.
type Catalog struct {
	Medicals      MedicalRepository
	MedicalTypes  MedicalTypeRepository
	Wards         WardRepository
	Suppliers     SupplierRepository
	Patients      PatientRepository
	MovementTypes MovementTypeRepository
}
