package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

// StockRepos repositorios del libro de stock atados a una misma transacción.
type StockRepos struct {
	Lots          repository.LotRepository
	Movements     repository.MovementRepository
	Balances      repository.MedicalStockRepository
	WardStock     repository.MedicalWardRepository
	WardMovements repository.MovementWardRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad del libro: si fn devuelve error no queda ningún efecto (lotes, saldos, salas).
// La implementación debe dar aislamiento serializable para que dos descargas concurrentes
// no asignen dos veces la misma cantidad de un lote.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos StockRepos) error) error
}

// Clock fuente de la hora actual.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj del sistema.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
