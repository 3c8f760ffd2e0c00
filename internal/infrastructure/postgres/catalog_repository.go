package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

var (
	_ repository.MedicalRepository      = (*CatalogRepo)(nil)
	_ repository.WardRepository         = (*wardCatalog)(nil)
	_ repository.MedicalTypeRepository  = (*medicalTypeCatalog)(nil)
	_ repository.SupplierRepository     = (*supplierCatalog)(nil)
	_ repository.PatientRepository      = (*patientCatalog)(nil)
	_ repository.MovementTypeRepository = (*movementTypeCatalog)(nil)
)

// CatalogRepo lecturas sobre los catálogos de otros subsistemas (solo lectura).
// Implementa MedicalRepository; el resto de catálogos se exponen vía Catalog().
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador de catálogos.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// Catalog agrupa los seis catálogos sobre q.
func Catalog(q Querier) repository.Catalog {
	r := NewCatalogRepository(q)
	return repository.Catalog{
		Medicals:      r,
		MedicalTypes:  (*medicalTypeCatalog)(r),
		Wards:         (*wardCatalog)(r),
		Suppliers:     (*supplierCatalog)(r),
		Patients:      (*patientCatalog)(r),
		MovementTypes: (*movementTypeCatalog)(r),
	}
}

// queryOne ejecuta la consulta y devuelve (nil, nil) si no hay fila.
func queryOne[T any](ctx context.Context, q Querier, what, query string, scan func(pgx.Row, *T) error, args ...any) (*T, error) {
	var v T
	if err := scan(q.QueryRow(ctx, query, args...), &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return &v, nil
}

func (r *CatalogRepo) GetByCode(ctx context.Context, code int64) (*entity.Medical, error) {
	return queryOne(ctx, r.q, "medical",
		`SELECT code, type_code, COALESCE(product_code, ''), description, pcs_per_pack FROM medicals WHERE code = $1`,
		func(row pgx.Row, m *entity.Medical) error {
			return row.Scan(&m.Code, &m.TypeCode, &m.ProductCode, &m.Description, &m.PcsPerPack)
		}, code)
}

type medicalTypeCatalog CatalogRepo

func (r *medicalTypeCatalog) GetByCode(ctx context.Context, code string) (*entity.MedicalType, error) {
	return queryOne(ctx, r.q, "medical type",
		`SELECT code, description FROM medical_types WHERE code = $1`,
		func(row pgx.Row, t *entity.MedicalType) error {
			return row.Scan(&t.Code, &t.Description)
		}, code)
}

type wardCatalog CatalogRepo

func (r *wardCatalog) GetByCode(ctx context.Context, code string) (*entity.Ward, error) {
	return queryOne(ctx, r.q, "ward",
		`SELECT code, description, is_pharmacy FROM wards WHERE code = $1`,
		func(row pgx.Row, w *entity.Ward) error {
			return row.Scan(&w.Code, &w.Description, &w.IsPharmacy)
		}, code)
}

type supplierCatalog CatalogRepo

func (r *supplierCatalog) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	return queryOne(ctx, r.q, "supplier",
		`SELECT id, name FROM suppliers WHERE id = $1`,
		func(row pgx.Row, s *entity.Supplier) error {
			return row.Scan(&s.ID, &s.Name)
		}, id)
}

type patientCatalog CatalogRepo

func (r *patientCatalog) GetByCode(ctx context.Context, code int64) (*entity.Patient, error) {
	return queryOne(ctx, r.q, "patient",
		`SELECT code, name FROM patients WHERE code = $1`,
		func(row pgx.Row, p *entity.Patient) error {
			return row.Scan(&p.Code, &p.Name)
		}, code)
}

type movementTypeCatalog CatalogRepo

func (r *movementTypeCatalog) GetByCode(ctx context.Context, code string) (*entity.MovementType, error) {
	return queryOne(ctx, r.q, "movement type",
		`SELECT code, description, type FROM movement_types WHERE code = $1`,
		func(row pgx.Row, t *entity.MovementType) error {
			return row.Scan(&t.Code, &t.Description, &t.Type)
		}, code)
}
