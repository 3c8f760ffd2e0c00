package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.MedicalWardRepository  = (*MedicalWardRepo)(nil)
	_ repository.MovementWardRepository = (*MovementWardRepo)(nil)
)

// ── medical_ward ─────────────────────────────────────────────────────────────

// MedicalWardRepo totales materializados por (sala, medicamento, lote).
type MedicalWardRepo struct {
	q Querier
}

// NewMedicalWardRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMedicalWardRepository(q Querier) *MedicalWardRepo {
	return &MedicalWardRepo{q: q}
}

const medicalWardColumns = `ward_code, medical_code, lot_id, in_quantity, out_quantity`

func scanMedicalWard(row scanner) (*entity.MedicalWard, error) {
	var w entity.MedicalWard
	if err := row.Scan(&w.WardCode, &w.MedicalCode, &w.LotID, &w.InQuantity, &w.OutQuantity); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *MedicalWardRepo) Get(ctx context.Context, wardCode string, medicalCode int64, lotID string) (*entity.MedicalWard, error) {
	query := `
		SELECT ` + medicalWardColumns + ` FROM medical_ward
		WHERE ward_code = $1 AND medical_code = $2 AND lot_id = $3`
	if _, inTx := r.q.(pgx.Tx); inTx {
		query += ` FOR UPDATE`
	}
	w, err := scanMedicalWard(r.q.QueryRow(ctx, query, wardCode, medicalCode, lotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get medical ward: %w", err)
	}
	return w, nil
}

// Add suma in/out a la fila, creándola si no existe.
func (r *MedicalWardRepo) Add(ctx context.Context, wardCode string, medicalCode int64, lotID string, in, out decimal.Decimal) error {
	query := `
		INSERT INTO medical_ward (` + medicalWardColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ward_code, medical_code, lot_id)
		DO UPDATE SET in_quantity = medical_ward.in_quantity + EXCLUDED.in_quantity,
		              out_quantity = medical_ward.out_quantity + EXCLUDED.out_quantity`
	if _, err := r.q.Exec(ctx, query, wardCode, medicalCode, lotID, in, out); err != nil {
		return fmt.Errorf("add medical ward: %w", err)
	}
	return nil
}

func (r *MedicalWardRepo) list(ctx context.Context, query string, args ...any) ([]*entity.MedicalWard, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medical ward: %w", err)
	}
	defer rows.Close()

	var out []*entity.MedicalWard
	for rows.Next() {
		w, err := scanMedicalWard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical ward: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *MedicalWardRepo) ListByWardAndMedical(ctx context.Context, wardCode string, medicalCode int64) ([]*entity.MedicalWard, error) {
	query := `
		SELECT ` + medicalWardColumns + ` FROM medical_ward
		WHERE ward_code = $1 AND medical_code = $2
		ORDER BY lot_id`
	if _, inTx := r.q.(pgx.Tx); inTx {
		query += ` FOR UPDATE`
	}
	return r.list(ctx, query, wardCode, medicalCode)
}

func (r *MedicalWardRepo) ListByWard(ctx context.Context, wardCode string) ([]*entity.MedicalWard, error) {
	query := `
		SELECT ` + medicalWardColumns + ` FROM medical_ward
		WHERE ward_code = $1
		ORDER BY medical_code, lot_id`
	return r.list(ctx, query, wardCode)
}

// ── movement_ward ────────────────────────────────────────────────────────────

// MovementWardRepo libro de sala.
type MovementWardRepo struct {
	q Querier
}

// NewMovementWardRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementWardRepository(q Querier) *MovementWardRepo {
	return &MovementWardRepo{q: q}
}

func movementWardSelect() *goqu.SelectDataset {
	return psql.From(goqu.T("movement_ward").As("w")).
		Join(goqu.T("lots").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("w.lot_id")))).
		Select(
			"w.code", "w.date", "w.ward_code", "w.ward_from", "w.ward_to", goqu.L("w.transfer_id::text"), "w.movement_code",
			"l.id", "l.code", "l.medical_code", "l.preparation_date", "l.due_date", "l.cost", "l.quantity", "l.created_at",
			"w.medical_code", "w.description", "w.quantity", "w.units", "w.patient_code", "w.created_by", "w.created_at",
		).
		Order(goqu.I("w.date").Asc(), goqu.I("w.code").Asc())
}

func scanMovementWard(row scanner) (*entity.MovementWard, error) {
	var (
		m                      entity.MovementWard
		l                      entity.Lot
		from, to, transferID *string
	)
	err := row.Scan(
		&m.Code, &m.Date, &m.WardCode, &from, &to, &transferID, &m.MovementCode,
		&l.ID, &l.Code, &l.MedicalCode, &l.PreparationDate, &l.DueDate, &l.Cost, &l.Quantity, &l.CreatedAt,
		&m.MedicalCode, &m.Description, &m.Quantity, &m.Units, &m.PatientCode, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.WardFrom = deref(from)
	m.WardTo = deref(to)
	m.TransferID = deref(transferID)
	m.Lot = &l
	return &m, nil
}

func (r *MovementWardRepo) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entity.MovementWard, error) {
	sql, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build movement ward query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query movement ward: %w", err)
	}
	defer rows.Close()

	var out []*entity.MovementWard
	for rows.Next() {
		m, err := scanMovementWard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement ward: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MovementWardRepo) one(ctx context.Context, ds *goqu.SelectDataset) (*entity.MovementWard, error) {
	sql, args, err := ds.Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build movement ward query: %w", err)
	}
	m, err := scanMovementWard(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement ward: %w", err)
	}
	return m, nil
}

// Create inserta el asiento y asigna su código.
func (r *MovementWardRepo) Create(ctx context.Context, m *entity.MovementWard) error {
	query := `
		INSERT INTO movement_ward (date, ward_code, ward_from, ward_to, transfer_id, movement_code, lot_id,
			medical_code, description, quantity, units, patient_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5::uuid, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING code`
	err := r.q.QueryRow(ctx, query,
		m.Date, m.WardCode, nullString(m.WardFrom), nullString(m.WardTo), nullString(m.TransferID), m.MovementCode, m.LotID(),
		m.MedicalCode, m.Description, m.Quantity, m.Units, m.PatientCode, m.CreatedBy, m.CreatedAt,
	).Scan(&m.Code)
	if err != nil {
		return fmt.Errorf("create movement ward: %w", err)
	}
	return nil
}

func (r *MovementWardRepo) GetByCode(ctx context.Context, code int64) (*entity.MovementWard, error) {
	return r.one(ctx, movementWardSelect().Where(goqu.I("w.code").Eq(code)))
}

func (r *MovementWardRepo) GetByMovementCode(ctx context.Context, movementCode int64) (*entity.MovementWard, error) {
	return r.one(ctx, movementWardSelect().Where(goqu.I("w.movement_code").Eq(movementCode)))
}

func (r *MovementWardRepo) ListByTransfer(ctx context.Context, transferID string) ([]*entity.MovementWard, error) {
	return r.list(ctx, movementWardSelect().Where(goqu.L("w.transfer_id = ?::uuid", transferID)))
}

// Update modifica solo descripción, unidades y paciente.
func (r *MovementWardRepo) Update(ctx context.Context, m *entity.MovementWard) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE movement_ward SET description = $2, units = $3, patient_code = $4 WHERE code = $1`,
		m.Code, m.Description, m.Units, m.PatientCode,
	)
	if err != nil {
		return fmt.Errorf("update movement ward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movimiento de sala %d: %w", m.Code, domain.ErrNotFound)
	}
	return nil
}

func (r *MovementWardRepo) Delete(ctx context.Context, code int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM movement_ward WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete movement ward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movimiento de sala %d: %w", code, domain.ErrNotFound)
	}
	return nil
}

// HasLater existe otro asiento de la misma clave posterior a (date, code).
func (r *MovementWardRepo) HasLater(ctx context.Context, wardCode string, medicalCode int64, lotID string, date time.Time, code int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM movement_ward
			WHERE ward_code = $1 AND medical_code = $2 AND lot_id = $3
			  AND (date > $4 OR (date = $4 AND code > $5))
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, wardCode, medicalCode, lotID, date, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("has later movement ward: %w", err)
	}
	return exists, nil
}

func (r *MovementWardRepo) ListByWard(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.MovementWard, error) {
	where := []exp.Expression{goqu.I("w.ward_code").Eq(wardCode)}
	where = append(where, dateRange("w.date", from, to)...)
	return r.list(ctx, movementWardSelect().Where(where...))
}

func (r *MovementWardRepo) ListByPatient(ctx context.Context, patientCode int64) ([]*entity.MovementWard, error) {
	return r.list(ctx, movementWardSelect().Where(goqu.I("w.patient_code").Eq(patientCode)))
}
