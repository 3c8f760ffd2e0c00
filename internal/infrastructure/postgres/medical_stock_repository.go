package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

var _ repository.MedicalStockRepository = (*MedicalStockRepo)(nil)

// MedicalStockRepo tabla de saldos diarios por medicamento.
type MedicalStockRepo struct {
	q Querier
}

// NewMedicalStockRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewMedicalStockRepository(q Querier) *MedicalStockRepo {
	return &MedicalStockRepo{q: q}
}

const stockColumns = `medical_code, balance_date, balance, next_mov_date, days`

func scanStock(row scanner) (*entity.MedicalStock, error) {
	var s entity.MedicalStock
	if err := row.Scan(&s.MedicalCode, &s.BalanceDate, &s.Balance, &s.NextMovDate, &s.Days); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MedicalStockRepo) get(ctx context.Context, query string, args ...any) (*entity.MedicalStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get medical stock: %w", err)
	}
	return s, nil
}

// GetLatest fila vigente (la de fecha mayor) del medicamento.
func (r *MedicalStockRepo) GetLatest(ctx context.Context, medicalCode int64) (*entity.MedicalStock, error) {
	query := `
		SELECT ` + stockColumns + ` FROM medical_stock
		WHERE medical_code = $1
		ORDER BY balance_date DESC LIMIT 1`
	return r.get(ctx, query, medicalCode)
}

// GetAt fila vigente en la fecha: la última con balance_date <= date.
func (r *MedicalStockRepo) GetAt(ctx context.Context, medicalCode int64, date time.Time) (*entity.MedicalStock, error) {
	query := `
		SELECT ` + stockColumns + ` FROM medical_stock
		WHERE medical_code = $1 AND balance_date <= $2
		ORDER BY balance_date DESC LIMIT 1`
	return r.get(ctx, query, medicalCode, date)
}

func (r *MedicalStockRepo) ListByMedical(ctx context.Context, medicalCode int64) ([]entity.MedicalStock, error) {
	query := `SELECT ` + stockColumns + ` FROM medical_stock WHERE medical_code = $1 ORDER BY balance_date`
	rows, err := r.q.Query(ctx, query, medicalCode)
	if err != nil {
		return nil, fmt.Errorf("list medical stock: %w", err)
	}
	defer rows.Close()

	var out []entity.MedicalStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medical stock: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Upsert inserta o reemplaza la fila (medical_code, balance_date).
func (r *MedicalStockRepo) Upsert(ctx context.Context, row entity.MedicalStock) error {
	query := `
		INSERT INTO medical_stock (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (medical_code, balance_date)
		DO UPDATE SET balance = EXCLUDED.balance, next_mov_date = EXCLUDED.next_mov_date, days = EXCLUDED.days`
	_, err := r.q.Exec(ctx, query, row.MedicalCode, row.BalanceDate, row.Balance, row.NextMovDate, row.Days)
	if err != nil {
		return fmt.Errorf("upsert medical stock: %w", err)
	}
	return nil
}

// ReplaceAll reemplaza la cadena completa del medicamento (recálculo administrativo).
func (r *MedicalStockRepo) ReplaceAll(ctx context.Context, medicalCode int64, rows []entity.MedicalStock) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM medical_stock WHERE medical_code = $1`, medicalCode); err != nil {
		return fmt.Errorf("clear medical stock: %w", err)
	}
	for _, row := range rows {
		if err := r.Upsert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
