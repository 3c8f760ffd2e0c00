package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.LotRepository          = (*LotRepository)(nil)
	_ repository.MovementRepository     = (*MovementRepository)(nil)
	_ repository.MedicalStockRepository = (*MedicalStockRepository)(nil)
)

// ── Lotes ────────────────────────────────────────────────────────────────────

// LotRepository lotes en memoria.
type LotRepository struct{ v *view }

func (r *LotRepository) Create(_ context.Context, lot *entity.Lot) error {
	return r.v.with(func(st *state) error {
		for _, l := range st.lots {
			if l.MedicalCode == lot.MedicalCode && l.Code == lot.Code {
				return fmt.Errorf("lote %s: %w", lot.Code, domain.ErrDuplicate)
			}
		}
		st.lots[lot.ID] = *lot
		return nil
	})
}

func (r *LotRepository) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	var out *entity.Lot
	err := r.v.with(func(st *state) error {
		out = st.lotRef(id)
		return nil
	})
	return out, err
}

func (r *LotRepository) GetByMedicalAndCode(_ context.Context, medicalCode int64, code string) (*entity.Lot, error) {
	var out *entity.Lot
	err := r.v.with(func(st *state) error {
		for _, l := range st.lots {
			if l.MedicalCode == medicalCode && l.Code == code {
				l := l
				out = &l
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *LotRepository) ListAvailableByMedical(_ context.Context, medicalCode int64) ([]*entity.Lot, error) {
	var out []*entity.Lot
	err := r.v.with(func(st *state) error {
		for _, l := range st.lots {
			if l.MedicalCode == medicalCode && l.HasStock() {
				l := l
				out = append(out, &l)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Code < out[j].Code
	})
	return out, err
}

func (r *LotRepository) AddQuantity(_ context.Context, id string, delta decimal.Decimal) error {
	return r.v.with(func(st *state) error {
		l, ok := st.lots[id]
		if !ok {
			return fmt.Errorf("lote %s: %w", id, domain.ErrNotFound)
		}
		l.Quantity = l.Quantity.Add(delta)
		st.lots[id] = l
		return nil
	})
}

// ── Movimientos ──────────────────────────────────────────────────────────────

// MovementRepository libro central en memoria.
type MovementRepository struct{ v *view }

func (r *MovementRepository) Create(_ context.Context, m *entity.Movement) error {
	return r.v.with(func(st *state) error {
		m.Code = st.nextMovement
		st.nextMovement++
		st.movements[m.Code] = *m
		return nil
	})
}

// materialize copia el movimiento con el lote vigente.
func (st *state) movement(m entity.Movement) *entity.Movement {
	if m.Lot != nil {
		if l := st.lotRef(m.Lot.ID); l != nil {
			m.Lot = l
		}
	}
	return &m
}

// collect devuelve los movimientos que cumplen keep, en orden cronológico (fecha, código).
func (r *MovementRepository) collect(keep func(m *entity.Movement) bool) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			mm := st.movement(m)
			if keep(mm) {
				out = append(out, mm)
			}
		}
		return nil
	})
	sortMovements(out)
	return out, err
}

func sortMovements(ms []*entity.Movement) {
	sort.Slice(ms, func(i, j int) bool {
		return inv.After(inv.MovementEntry(ms[j]), inv.MovementEntry(ms[i]))
	})
}

func (r *MovementRepository) GetByCode(_ context.Context, code int64) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.v.with(func(st *state) error {
		if m, ok := st.movements[code]; ok {
			out = st.movement(m)
		}
		return nil
	})
	return out, err
}

func (r *MovementRepository) GetLastByMedical(ctx context.Context, medicalCode int64) (*entity.Movement, error) {
	ms, err := r.ListByMedical(ctx, medicalCode)
	if err != nil || len(ms) == 0 {
		return nil, err
	}
	return ms[len(ms)-1], nil
}

func (r *MovementRepository) LastMovementDate(_ context.Context, medicalCode *int64) (*time.Time, error) {
	var last *time.Time
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if medicalCode != nil && m.MedicalCode != *medicalCode {
				continue
			}
			if last == nil || m.Date.After(*last) {
				d := m.Date
				last = &d
			}
		}
		return nil
	})
	return last, err
}

func (r *MovementRepository) RefNoExists(_ context.Context, refNo string) (bool, error) {
	found := false
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.RefNo == refNo {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *MovementRepository) ListByRefNo(_ context.Context, refNo string) ([]*entity.Movement, error) {
	return r.collect(func(m *entity.Movement) bool { return m.RefNo == refNo })
}

func (r *MovementRepository) ListByWardAndDate(_ context.Context, wardCode string, from, to *time.Time) ([]*entity.Movement, error) {
	return r.collect(func(m *entity.Movement) bool {
		return m.WardCode == wardCode && inRange(m.Date, from, to)
	})
}

func (r *MovementRepository) Search(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var types map[int64]string
	if f.MedicalType != "" || f.Order == repository.OrderByPharmType {
		types = r.v.store.Catalog.medicalTypes()
	}
	out, err := r.collect(func(m *entity.Movement) bool {
		if f.MedicalCode != nil && m.MedicalCode != *f.MedicalCode {
			return false
		}
		if f.MedicalType != "" && types[m.MedicalCode] != f.MedicalType {
			return false
		}
		if f.WardCode != "" && m.WardCode != f.WardCode {
			return false
		}
		if f.MovementType != "" && m.Type.Code != f.MovementType {
			return false
		}
		if !inRange(m.Date, f.MovFrom, f.MovTo) {
			return false
		}
		if f.PrepFrom != nil || f.PrepTo != nil || f.DueFrom != nil || f.DueTo != nil {
			if m.Lot == nil {
				return false
			}
			if !inRange(m.Lot.PreparationDate, f.PrepFrom, f.PrepTo) || !inRange(m.Lot.DueDate, f.DueFrom, f.DueTo) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	var key func(m *entity.Movement) string
	switch f.Order {
	case repository.OrderByWard:
		key = func(m *entity.Movement) string { return m.WardCode }
	case repository.OrderByPharmType:
		key = func(m *entity.Movement) string { return types[m.MedicalCode] }
	case repository.OrderByMovType:
		key = func(m *entity.Movement) string { return m.Type.Code }
	}
	if key != nil {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	}
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MovementRepository) ListByLot(_ context.Context, lotID string) ([]*entity.Movement, error) {
	return r.collect(func(m *entity.Movement) bool { return m.LotID() == lotID })
}

func (r *MovementRepository) ListByMedical(_ context.Context, medicalCode int64) ([]*entity.Movement, error) {
	return r.collect(func(m *entity.Movement) bool { return m.MedicalCode == medicalCode })
}

func (r *MovementRepository) HasLater(_ context.Context, medicalCode int64, date time.Time, code int64) (bool, error) {
	ref := inv.LedgerEntry{Date: date, Code: code}
	found := false
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.MedicalCode == medicalCode && inv.After(inv.LedgerEntry{Date: m.Date, Code: m.Code}, ref) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *MovementRepository) Delete(_ context.Context, code int64) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.movements[code]; !ok {
			return fmt.Errorf("movimiento %d: %w", code, domain.ErrNotFound)
		}
		delete(st.movements, code)
		return nil
	})
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// ── Tabla de saldos ──────────────────────────────────────────────────────────

// MedicalStockRepository tabla de saldos en memoria; cada cadena se guarda ordenada por fecha.
type MedicalStockRepository struct{ v *view }

func (r *MedicalStockRepository) GetLatest(_ context.Context, medicalCode int64) (*entity.MedicalStock, error) {
	var out *entity.MedicalStock
	err := r.v.with(func(st *state) error {
		rows := st.balances[medicalCode]
		if len(rows) > 0 {
			row := rows[len(rows)-1]
			out = &row
		}
		return nil
	})
	return out, err
}

func (r *MedicalStockRepository) GetAt(_ context.Context, medicalCode int64, date time.Time) (*entity.MedicalStock, error) {
	var out *entity.MedicalStock
	err := r.v.with(func(st *state) error {
		for _, row := range st.balances[medicalCode] {
			if row.BalanceDate.After(date) {
				break
			}
			row := row
			out = &row
		}
		return nil
	})
	return out, err
}

func (r *MedicalStockRepository) ListByMedical(_ context.Context, medicalCode int64) ([]entity.MedicalStock, error) {
	var out []entity.MedicalStock
	err := r.v.with(func(st *state) error {
		out = append(out, st.balances[medicalCode]...)
		return nil
	})
	return out, err
}

func (r *MedicalStockRepository) Upsert(_ context.Context, row entity.MedicalStock) error {
	return r.v.with(func(st *state) error {
		rows := st.balances[row.MedicalCode]
		i := sort.Search(len(rows), func(i int) bool { return !rows[i].BalanceDate.Before(row.BalanceDate) })
		if i < len(rows) && rows[i].BalanceDate.Equal(row.BalanceDate) {
			rows[i] = row
		} else {
			rows = append(rows, entity.MedicalStock{})
			copy(rows[i+1:], rows[i:])
			rows[i] = row
		}
		st.balances[row.MedicalCode] = rows
		return nil
	})
}

func (r *MedicalStockRepository) ReplaceAll(_ context.Context, medicalCode int64, rows []entity.MedicalStock) error {
	return r.v.with(func(st *state) error {
		if len(rows) == 0 {
			delete(st.balances, medicalCode)
			return nil
		}
		st.balances[medicalCode] = append([]entity.MedicalStock(nil), rows...)
		return nil
	})
}
