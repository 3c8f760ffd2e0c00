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
	_ repository.MedicalWardRepository  = (*MedicalWardRepository)(nil)
	_ repository.MovementWardRepository = (*MovementWardRepository)(nil)
)

// MedicalWardRepository totales por sala en memoria.
type MedicalWardRepository struct{ v *view }

func (r *MedicalWardRepository) Get(_ context.Context, wardCode string, medicalCode int64, lotID string) (*entity.MedicalWard, error) {
	var out *entity.MedicalWard
	err := r.v.with(func(st *state) error {
		if row, ok := st.wardStock[wardKey{wardCode, medicalCode, lotID}]; ok {
			out = &row
		}
		return nil
	})
	return out, err
}

func (r *MedicalWardRepository) Add(_ context.Context, wardCode string, medicalCode int64, lotID string, in, out decimal.Decimal) error {
	return r.v.with(func(st *state) error {
		k := wardKey{wardCode, medicalCode, lotID}
		row, ok := st.wardStock[k]
		if !ok {
			row = entity.MedicalWard{WardCode: wardCode, MedicalCode: medicalCode, LotID: lotID}
		}
		row.InQuantity = row.InQuantity.Add(in)
		row.OutQuantity = row.OutQuantity.Add(out)
		st.wardStock[k] = row
		return nil
	})
}

func (r *MedicalWardRepository) list(keep func(k wardKey) bool) ([]*entity.MedicalWard, error) {
	var out []*entity.MedicalWard
	err := r.v.with(func(st *state) error {
		for k, row := range st.wardStock {
			if keep(k) {
				row := row
				out = append(out, &row)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].MedicalCode != out[j].MedicalCode {
			return out[i].MedicalCode < out[j].MedicalCode
		}
		return out[i].LotID < out[j].LotID
	})
	return out, err
}

func (r *MedicalWardRepository) ListByWardAndMedical(_ context.Context, wardCode string, medicalCode int64) ([]*entity.MedicalWard, error) {
	return r.list(func(k wardKey) bool { return k.Ward == wardCode && k.Medical == medicalCode })
}

func (r *MedicalWardRepository) ListByWard(_ context.Context, wardCode string) ([]*entity.MedicalWard, error) {
	return r.list(func(k wardKey) bool { return k.Ward == wardCode })
}

// MovementWardRepository libro de sala en memoria.
type MovementWardRepository struct{ v *view }

func (r *MovementWardRepository) Create(_ context.Context, m *entity.MovementWard) error {
	return r.v.with(func(st *state) error {
		m.Code = st.nextWardMove
		st.nextWardMove++
		st.wardMoves[m.Code] = *m
		return nil
	})
}

func (st *state) wardMovement(m entity.MovementWard) *entity.MovementWard {
	if m.Lot != nil {
		if l := st.lotRef(m.Lot.ID); l != nil {
			m.Lot = l
		}
	}
	return &m
}

func (r *MovementWardRepository) collect(keep func(m *entity.MovementWard) bool) ([]*entity.MovementWard, error) {
	var out []*entity.MovementWard
	err := r.v.with(func(st *state) error {
		for _, m := range st.wardMoves {
			mm := st.wardMovement(m)
			if keep(mm) {
				out = append(out, mm)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return inv.After(inv.WardEntry(out[j]), inv.WardEntry(out[i]))
	})
	return out, err
}

func (r *MovementWardRepository) GetByCode(_ context.Context, code int64) (*entity.MovementWard, error) {
	var out *entity.MovementWard
	err := r.v.with(func(st *state) error {
		if m, ok := st.wardMoves[code]; ok {
			out = st.wardMovement(m)
		}
		return nil
	})
	return out, err
}

func (r *MovementWardRepository) GetByMovementCode(_ context.Context, movementCode int64) (*entity.MovementWard, error) {
	ms, err := r.collect(func(m *entity.MovementWard) bool {
		return m.MovementCode != nil && *m.MovementCode == movementCode
	})
	if err != nil || len(ms) == 0 {
		return nil, err
	}
	return ms[0], nil
}

func (r *MovementWardRepository) ListByTransfer(_ context.Context, transferID string) ([]*entity.MovementWard, error) {
	return r.collect(func(m *entity.MovementWard) bool { return m.TransferID == transferID })
}

func (r *MovementWardRepository) Update(_ context.Context, m *entity.MovementWard) error {
	return r.v.with(func(st *state) error {
		cur, ok := st.wardMoves[m.Code]
		if !ok {
			return fmt.Errorf("movimiento de sala %d: %w", m.Code, domain.ErrNotFound)
		}
		cur.Description = m.Description
		cur.Units = m.Units
		cur.PatientCode = m.PatientCode
		st.wardMoves[m.Code] = cur
		return nil
	})
}

func (r *MovementWardRepository) Delete(_ context.Context, code int64) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.wardMoves[code]; !ok {
			return fmt.Errorf("movimiento de sala %d: %w", code, domain.ErrNotFound)
		}
		delete(st.wardMoves, code)
		return nil
	})
}

func (r *MovementWardRepository) HasLater(_ context.Context, wardCode string, medicalCode int64, lotID string, date time.Time, code int64) (bool, error) {
	ref := inv.LedgerEntry{Date: date, Code: code}
	found := false
	err := r.v.with(func(st *state) error {
		for _, m := range st.wardMoves {
			if m.WardCode != wardCode || m.MedicalCode != medicalCode || m.LotID() != lotID {
				continue
			}
			if inv.After(inv.LedgerEntry{Date: m.Date, Code: m.Code}, ref) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *MovementWardRepository) ListByWard(_ context.Context, wardCode string, from, to *time.Time) ([]*entity.MovementWard, error) {
	return r.collect(func(m *entity.MovementWard) bool {
		return m.WardCode == wardCode && inRange(m.Date, from, to)
	})
}

func (r *MovementWardRepository) ListByPatient(_ context.Context, patientCode int64) ([]*entity.MovementWard, error) {
	return r.collect(func(m *entity.MovementWard) bool {
		return m.PatientCode != nil && *m.PatientCode == patientCode
	})
}
