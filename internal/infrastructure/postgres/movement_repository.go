package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // placeholders $n
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

var psql = goqu.Dialect("postgres")

// MovementRepo libro central sobre PostgreSQL. Las lecturas se arman con goqu
// porque el filtro de búsqueda y los órdenes de impresión son dinámicos.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del libro central. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func movementSelect() *goqu.SelectDataset {
	return psql.From(goqu.T("movements").As("m")).
		Join(goqu.T("movement_types").As("t"), goqu.On(goqu.I("t.code").Eq(goqu.I("m.type_code")))).
		Join(goqu.T("lots").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("m.lot_id")))).
		Select(
			"m.code", "m.medical_code", "m.type_code", "t.description", "t.type", "m.ward_code",
			"l.id", "l.code", "l.medical_code", "l.preparation_date", "l.due_date", "l.cost", "l.quantity", "l.created_at",
			"m.date", "m.quantity", "m.supplier_id", "m.ref_no", "m.created_by", "m.created_at",
		)
}

func chronological() []exp.OrderedExpression {
	return []exp.OrderedExpression{goqu.I("m.date").Asc(), goqu.I("m.code").Asc()}
}

func scanMovement(row scanner) (*entity.Movement, error) {
	var (
		m    entity.Movement
		l    entity.Lot
		ward *string
	)
	err := row.Scan(
		&m.Code, &m.MedicalCode, &m.Type.Code, &m.Type.Description, &m.Type.Type, &ward,
		&l.ID, &l.Code, &l.MedicalCode, &l.PreparationDate, &l.DueDate, &l.Cost, &l.Quantity, &l.CreatedAt,
		&m.Date, &m.Quantity, &m.SupplierID, &m.RefNo, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.WardCode = deref(ward)
	m.Lot = &l
	return &m, nil
}

func (r *MovementRepo) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entity.Movement, error) {
	sql, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build movement query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MovementRepo) one(ctx context.Context, ds *goqu.SelectDataset) (*entity.Movement, error) {
	sql, args, err := ds.Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build movement query: %w", err)
	}
	m, err := scanMovement(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Create inserta el movimiento y asigna su código secuencial.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (medical_code, type_code, ward_code, lot_id, date, quantity, supplier_id, ref_no, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING code`
	err := r.q.QueryRow(ctx, query,
		m.MedicalCode, m.Type.Code, nullString(m.WardCode), m.LotID(), m.Date, m.Quantity,
		m.SupplierID, m.RefNo, m.CreatedBy, m.CreatedAt,
	).Scan(&m.Code)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

func (r *MovementRepo) GetByCode(ctx context.Context, code int64) (*entity.Movement, error) {
	return r.one(ctx, movementSelect().Where(goqu.I("m.code").Eq(code)))
}

func (r *MovementRepo) GetLastByMedical(ctx context.Context, medicalCode int64) (*entity.Movement, error) {
	return r.one(ctx, movementSelect().
		Where(goqu.I("m.medical_code").Eq(medicalCode)).
		Order(goqu.I("m.date").Desc(), goqu.I("m.code").Desc()))
}

// LastMovementDate fecha máxima del libro; medicalCode nil = todos los medicamentos.
func (r *MovementRepo) LastMovementDate(ctx context.Context, medicalCode *int64) (*time.Time, error) {
	ds := psql.From("movements").Select(goqu.MAX("date"))
	if medicalCode != nil {
		ds = ds.Where(goqu.C("medical_code").Eq(*medicalCode))
	}
	sql, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build last date query: %w", err)
	}
	var last *time.Time
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&last); err != nil {
		return nil, fmt.Errorf("last movement date: %w", err)
	}
	return last, nil
}

func (r *MovementRepo) RefNoExists(ctx context.Context, refNo string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movements WHERE ref_no = $1)`, refNo).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ref_no exists: %w", err)
	}
	return exists, nil
}

func (r *MovementRepo) ListByRefNo(ctx context.Context, refNo string) ([]*entity.Movement, error) {
	return r.list(ctx, movementSelect().Where(goqu.I("m.ref_no").Eq(refNo)).Order(chronological()...))
}

func (r *MovementRepo) ListByWardAndDate(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.Movement, error) {
	where := []exp.Expression{goqu.I("m.ward_code").Eq(wardCode)}
	where = append(where, dateRange("m.date", from, to)...)
	return r.list(ctx, movementSelect().Where(where...).Order(chronological()...))
}

// Search aplica el filtro completo y el orden de impresión pedido.
func (r *MovementRepo) Search(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	ds := movementSelect()
	if f.MedicalType != "" || f.Order == repository.OrderByPharmType {
		ds = ds.Join(goqu.T("medicals").As("md"), goqu.On(goqu.I("md.code").Eq(goqu.I("m.medical_code"))))
	}

	var where []exp.Expression
	if f.MedicalCode != nil {
		where = append(where, goqu.I("m.medical_code").Eq(*f.MedicalCode))
	}
	if f.MedicalType != "" {
		where = append(where, goqu.I("md.type_code").Eq(f.MedicalType))
	}
	if f.WardCode != "" {
		where = append(where, goqu.I("m.ward_code").Eq(f.WardCode))
	}
	if f.MovementType != "" {
		where = append(where, goqu.I("m.type_code").Eq(f.MovementType))
	}
	where = append(where, dateRange("m.date", f.MovFrom, f.MovTo)...)
	where = append(where, dateRange("l.preparation_date", f.PrepFrom, f.PrepTo)...)
	where = append(where, dateRange("l.due_date", f.DueFrom, f.DueTo)...)
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	var order []exp.OrderedExpression
	switch f.Order {
	case repository.OrderByWard:
		order = append(order, goqu.I("m.ward_code").Asc().NullsLast())
	case repository.OrderByPharmType:
		order = append(order, goqu.I("md.type_code").Asc(), goqu.I("m.medical_code").Asc())
	case repository.OrderByMovType:
		order = append(order, goqu.I("m.type_code").Asc())
	}
	order = append(order, chronological()...)

	return r.list(ctx, ds.Order(order...).Limit(uint(f.EffectiveLimit())))
}

func (r *MovementRepo) ListByLot(ctx context.Context, lotID string) ([]*entity.Movement, error) {
	return r.list(ctx, movementSelect().Where(goqu.I("m.lot_id").Eq(lotID)).Order(chronological()...))
}

func (r *MovementRepo) ListByMedical(ctx context.Context, medicalCode int64) ([]*entity.Movement, error) {
	return r.list(ctx, movementSelect().Where(goqu.I("m.medical_code").Eq(medicalCode)).Order(chronological()...))
}

// HasLater existe un movimiento del medicamento posterior a (date, code).
func (r *MovementRepo) HasLater(ctx context.Context, medicalCode int64, date time.Time, code int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM movements
			WHERE medical_code = $1 AND (date > $2 OR (date = $2 AND code > $3))
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, medicalCode, date, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("has later movement: %w", err)
	}
	return exists, nil
}

func (r *MovementRepo) Delete(ctx context.Context, code int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM movements WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movimiento %d: %w", code, domain.ErrNotFound)
	}
	return nil
}

// dateRange condiciones opcionales col >= from y col <= to.
func dateRange(col string, from, to *time.Time) []exp.Expression {
	var out []exp.Expression
	if from != nil {
		out = append(out, goqu.I(col).Gte(*from))
	}
	if to != nil {
		out = append(out, goqu.I(col).Lte(*to))
	}
	return out
}
