package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

// Catalog catálogos de solo lectura para el libro; se cargan con los métodos Add*.
// No participa de las transacciones del Store.
type Catalog struct {
	mu            sync.RWMutex
	medicals      map[int64]entity.Medical
	types         map[string]entity.MedicalType
	wards         map[string]entity.Ward
	suppliers     map[int64]entity.Supplier
	patients      map[int64]entity.Patient
	movementTypes map[string]entity.MovementType
}

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		medicals:      make(map[int64]entity.Medical),
		types:         make(map[string]entity.MedicalType),
		wards:         make(map[string]entity.Ward),
		suppliers:     make(map[int64]entity.Supplier),
		patients:      make(map[int64]entity.Patient),
		movementTypes: make(map[string]entity.MovementType),
	}
}

func (c *Catalog) AddMedical(m entity.Medical) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.medicals[m.Code] = m
}

func (c *Catalog) AddMedicalType(t entity.MedicalType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[t.Code] = t
}

func (c *Catalog) AddWard(w entity.Ward) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wards[w.Code] = w
}

func (c *Catalog) AddSupplier(s entity.Supplier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppliers[s.ID] = s
}

func (c *Catalog) AddPatient(p entity.Patient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patients[p.Code] = p
}

func (c *Catalog) AddMovementType(t entity.MovementType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movementTypes[t.Code] = t
}

// medicalTypes mapa medicamento → tipo farmacéutico, para filtros y orden de impresión.
func (c *Catalog) medicalTypes() map[int64]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]string, len(c.medicals))
	for code, m := range c.medicals {
		out[code] = m.TypeCode
	}
	return out
}

// Repositories expone el catálogo con las interfaces del dominio.
func (c *Catalog) Repositories() repository.Catalog {
	return repository.Catalog{
		Medicals:      medicalLookup{c},
		MedicalTypes:  medicalTypeLookup{c},
		Wards:         wardLookup{c},
		Suppliers:     supplierLookup{c},
		Patients:      patientLookup{c},
		MovementTypes: movementTypeLookup{c},
	}
}

// lookup devuelve una copia del valor o nil si no existe.
func lookup[K comparable, V any](c *Catalog, m map[K]V, k K) *V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := m[k]
	if !ok {
		return nil
	}
	return &v
}

type medicalLookup struct{ c *Catalog }

func (l medicalLookup) GetByCode(_ context.Context, code int64) (*entity.Medical, error) {
	return lookup(l.c, l.c.medicals, code), nil
}

type medicalTypeLookup struct{ c *Catalog }

func (l medicalTypeLookup) GetByCode(_ context.Context, code string) (*entity.MedicalType, error) {
	return lookup(l.c, l.c.types, code), nil
}

type wardLookup struct{ c *Catalog }

func (l wardLookup) GetByCode(_ context.Context, code string) (*entity.Ward, error) {
	return lookup(l.c, l.c.wards, code), nil
}

type supplierLookup struct{ c *Catalog }

func (l supplierLookup) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	return lookup(l.c, l.c.suppliers, id), nil
}

type patientLookup struct{ c *Catalog }

func (l patientLookup) GetByCode(_ context.Context, code int64) (*entity.Patient, error) {
	return lookup(l.c, l.c.patients, code), nil
}

type movementTypeLookup struct{ c *Catalog }

func (l movementTypeLookup) GetByCode(_ context.Context, code string) (*entity.MovementType, error) {
	return lookup(l.c, l.c.movementTypes, code), nil
}
