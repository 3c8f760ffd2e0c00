package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, code, medical_code, preparation_date, due_date, cost, quantity, created_at`

func scanLot(row scanner) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.Code, &l.MedicalCode, &l.PreparationDate, &l.DueDate, &l.Cost, &l.Quantity, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserta un lote nuevo con cantidad cero.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.Code, lot.MedicalCode, lot.PreparationDate, lot.DueDate, lot.Cost, lot.Quantity, lot.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s del medicamento %d: %w", lot.Code, lot.MedicalCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por su identificador; nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	if id == "" {
		return nil, nil
	}
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// GetByMedicalAndCode busca el lote por código dentro del medicamento.
func (r *LotRepo) GetByMedicalAndCode(ctx context.Context, medicalCode int64, code string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE medical_code = $1 AND code = $2`
	l, err := scanLot(r.q.QueryRow(ctx, query, medicalCode, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot by code: %w", err)
	}
	return l, nil
}

// ListAvailableByMedical lotes con disponible > 0 por vencimiento ascendente.
// Bloquea las filas (FOR UPDATE) cuando se ejecuta dentro de una transacción.
func (r *LotRepo) ListAvailableByMedical(ctx context.Context, medicalCode int64) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE medical_code = $1 AND quantity > 0
		ORDER BY due_date, preparation_date, code`
	if _, inTx := r.q.(pgx.Tx); inTx {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, medicalCode)
	if err != nil {
		return nil, fmt.Errorf("list available lots: %w", err)
	}
	defer rows.Close()

	var out []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddQuantity suma delta (con signo) al disponible del lote.
func (r *LotRepo) AddQuantity(ctx context.Context, id string, delta decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE lots SET quantity = quantity + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("update lot quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
