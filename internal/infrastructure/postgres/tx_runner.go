package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL serializable.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un fallo de serialización (40001) se devuelve como conflicto: el llamador puede reintentar.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.StockRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(StockRepos(tx)); err != nil {
		return serializationConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return serializationConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// StockRepos repositorios del libro sobre q (pool para lecturas, tx dentro de Run).
func StockRepos(q Querier) inventory.StockRepos {
	return inventory.StockRepos{
		Lots:          NewLotRepository(q),
		Movements:     NewMovementRepository(q),
		Balances:      NewMedicalStockRepository(q),
		WardStock:     NewMedicalWardRepository(q),
		WardMovements: NewMovementWardRepository(q),
	}
}

func serializationConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return &domain.ConflictError{Entity: "transacción", Key: pgErr.Code, Reason: "acceso concurrente al libro, reintente"}
	}
	return err
}
