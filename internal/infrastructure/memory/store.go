// Package memory implementa los repositorios del libro de stock en memoria.
// Se usa en tests y con APP_STORE=memory; no persiste entre reinicios.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store almacén en memoria con transacciones simuladas: Run trabaja sobre una copia
// del estado y la publica solo si fn no devuelve error. Las transacciones se serializan.
type Store struct {
	mu   sync.Mutex
	data *state

	Catalog *Catalog
}

type wardKey struct {
	Ward    string
	Medical int64
	Lot     string
}

type state struct {
	lots         map[string]entity.Lot
	movements    map[int64]entity.Movement
	balances     map[int64][]entity.MedicalStock
	wardStock    map[wardKey]entity.MedicalWard
	wardMoves    map[int64]entity.MovementWard
	nextMovement int64
	nextWardMove int64
}

func newState() *state {
	return &state{
		lots:         make(map[string]entity.Lot),
		movements:    make(map[int64]entity.Movement),
		balances:     make(map[int64][]entity.MedicalStock),
		wardStock:    make(map[wardKey]entity.MedicalWard),
		wardMoves:    make(map[int64]entity.MovementWard),
		nextMovement: 1,
		nextWardMove: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		lots:         make(map[string]entity.Lot, len(s.lots)),
		movements:    make(map[int64]entity.Movement, len(s.movements)),
		balances:     make(map[int64][]entity.MedicalStock, len(s.balances)),
		wardStock:    make(map[wardKey]entity.MedicalWard, len(s.wardStock)),
		wardMoves:    make(map[int64]entity.MovementWard, len(s.wardMoves)),
		nextMovement: s.nextMovement,
		nextWardMove: s.nextWardMove,
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = append([]entity.MedicalStock(nil), v...)
	}
	for k, v := range s.wardStock {
		c.wardStock[k] = v
	}
	for k, v := range s.wardMoves {
		c.wardMoves[k] = v
	}
	return c
}

// NewStore crea un almacén vacío con catálogo vacío.
func NewStore() *Store {
	return &Store{data: newState(), Catalog: NewCatalog()}
}

// Repos repositorios de lectura fuera de transacción.
func (s *Store) Repos() inventory.StockRepos {
	return reposFor(&view{store: s})
}

// Run ejecuta fn sobre una copia del estado y la confirma si no hay error.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.StockRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(reposFor(&view{store: s, tx: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

func reposFor(v *view) inventory.StockRepos {
	return inventory.StockRepos{
		Lots:          &LotRepository{v: v},
		Movements:     &MovementRepository{v: v},
		Balances:      &MedicalStockRepository{v: v},
		WardStock:     &MedicalWardRepository{v: v},
		WardMovements: &MovementWardRepository{v: v},
	}
}

// view da acceso al estado: el de la transacción en curso (ya bajo el lock)
// o el confirmado, tomando el lock en cada operación.
type view struct {
	store *Store
	tx    *state
}

func (v *view) with(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

// lotRef devuelve una copia del lote vigente o nil.
func (st *state) lotRef(id string) *entity.Lot {
	if id == "" {
		return nil
	}
	l, ok := st.lots[id]
	if !ok {
		return nil
	}
	return &l
}
