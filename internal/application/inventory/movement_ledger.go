package inventory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	inv "github.com/jhoicas/medstock-api/internal/domain/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/jhoicas/medstock-api/pkg/i18n"
	"github.com/jhoicas/medstock-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// MovementLedgerUseCase registra movimientos del almacén central de forma transaccional:
// valida, asigna lotes (FEFO), persiste, actualiza lotes, saldos y, si la descarga va a una sala,
// el libro de la sala. Todo o nada por llamada.
type MovementLedgerUseCase struct {
	txRunner  TxRunner
	read      StockRepos
	catalog   repository.Catalog
	validator *inv.Validator
	clock     Clock
	log       *logger.Logger
}

// NewMovementLedgerUseCase construye el caso de uso. read son repositorios fuera de transacción
// para consultas y prevalidación.
func NewMovementLedgerUseCase(
	txRunner TxRunner,
	read StockRepos,
	catalog repository.Catalog,
	validator *inv.Validator,
	clock Clock,
	log *logger.Logger,
) *MovementLedgerUseCase {
	return &MovementLedgerUseCase{
		txRunner:  txRunner,
		read:      read,
		catalog:   catalog,
		validator: validator,
		clock:     clock,
		log:       log,
	}
}

// LotInput lote indicado por el llamador: por ID (existente) o por datos (nuevo / por código).
type LotInput struct {
	ID              string
	Code            string
	PreparationDate time.Time
	DueDate         time.Time
	Cost            decimal.Decimal
}

// MovementInput entrada para registrar un movimiento del almacén central.
// Quantity es la magnitud; el signo lo da el tipo de movimiento.
type MovementInput struct {
	MedicalCode int64
	TypeCode    string
	WardCode    string
	SupplierID  *int64
	Date        time.Time
	Quantity    decimal.Decimal
	Lot         *LotInput
	UserID      string
}

// RecordMovement persiste exactamente un movimiento validado (sin expansión FEFO:
// una descarga debe indicar su lote).
func (uc *MovementLedgerUseCase) RecordMovement(ctx context.Context, in MovementInput, refNo string) (*entity.Movement, error) {
	out, err := uc.record(ctx, []MovementInput{in}, refNo, inv.OpAny, false)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// RecordMovements inserta un lote de movimientos bajo un mismo refNo en una sola transacción.
func (uc *MovementLedgerUseCase) RecordMovements(ctx context.Context, batch []MovementInput, refNo string) ([]*entity.Movement, error) {
	return uc.record(ctx, batch, refNo, inv.OpAny, true)
}

// Charge punto de entrada de cargas: crea lotes automáticamente si la política lo indica.
func (uc *MovementLedgerUseCase) Charge(ctx context.Context, batch []MovementInput, refNo string) ([]*entity.Movement, error) {
	return uc.record(ctx, batch, refNo, inv.OpCharge, true)
}

// Discharge punto de entrada de descargas: sin lote, reparte FEFO entre los lotes vigentes.
func (uc *MovementLedgerUseCase) Discharge(ctx context.Context, batch []MovementInput, refNo string) ([]*entity.Movement, error) {
	return uc.record(ctx, batch, refNo, inv.OpDischarge, true)
}

func (uc *MovementLedgerUseCase) record(ctx context.Context, batch []MovementInput, refNo string, op inv.Operation, expand bool) ([]*entity.Movement, error) {
	refNo = strings.TrimSpace(refNo)
	if len(batch) == 0 {
		return nil, domain.NewValidationError([]domain.Violation{uc.validator.Violation(i18n.QuantityPositive)})
	}
	drafts, err := uc.prepare(ctx, batch, refNo, op, expand)
	if err != nil {
		return nil, err
	}

	var saved []*entity.Movement
	err = uc.txRunner.Run(ctx, func(repos StockRepos) error {
		saved = saved[:0]
		for _, d := range drafts {
			movs, err := uc.expand(ctx, repos, d)
			if err != nil {
				return err
			}
			for _, m := range movs {
				if err := uc.persist(ctx, repos, m); err != nil {
					return err
				}
				saved = append(saved, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("ref_no", refNo).
		Int("requests", len(batch)).
		Int("movements", len(saved)).
		Msg("movimientos registrados")
	return saved, nil
}

// prepare resuelve catálogos y lotes y ejecuta el motor de validación sobre todo el lote.
// Devuelve un único ValidationError con todas las violaciones, en orden.
func (uc *MovementLedgerUseCase) prepare(ctx context.Context, batch []MovementInput, refNo string, op inv.Operation, expand bool) ([]*entity.Movement, error) {
	now := uc.clock.Now()
	var violations []domain.Violation

	if refNo != "" {
		used, err := uc.read.Movements.RefNoExists(ctx, refNo)
		if err != nil {
			return nil, err
		}
		if used {
			violations = append(violations, uc.validator.Violation(i18n.RefNoUsed, refNo))
		}
	}

	lastByMedical := make(map[int64]*time.Time)
	drafts := make([]*entity.Movement, 0, len(batch))
	for _, in := range batch {
		m := &entity.Movement{
			MedicalCode: in.MedicalCode,
			WardCode:    strings.TrimSpace(in.WardCode),
			SupplierID:  in.SupplierID,
			Date:        in.Date,
			Quantity:    in.Quantity,
			RefNo:       refNo,
			CreatedBy:   in.UserID,
		}
		if m.Date.IsZero() {
			m.Date = now
		}

		vs, err := uc.resolveCatalog(ctx, m, in)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)

		if in.Lot != nil {
			lot, err := uc.resolveLot(ctx, in.MedicalCode, in.Lot)
			if err != nil {
				return nil, err
			}
			m.Lot = lot
		}

		last, ok := lastByMedical[m.MedicalCode]
		if !ok && m.MedicalCode != 0 {
			if last, err = uc.read.Movements.LastMovementDate(ctx, &m.MedicalCode); err != nil {
				return nil, err
			}
			lastByMedical[m.MedicalCode] = last
		}

		violations = append(violations, uc.validator.CheckMovement(m, op, now, last)...)
		if !expand && m.Type.IsDischarge() && m.Lot == nil && uc.validator.Policy().AutomaticLotDischarge {
			violations = append(violations, uc.validator.Violation(i18n.LotRequired))
		}
		drafts = append(drafts, m)
	}

	if err := domain.NewValidationError(violations); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (uc *MovementLedgerUseCase) resolveCatalog(ctx context.Context, m *entity.Movement, in MovementInput) ([]domain.Violation, error) {
	var out []domain.Violation
	if in.TypeCode != "" {
		mt, err := uc.catalog.MovementTypes.GetByCode(ctx, in.TypeCode)
		if err != nil {
			return nil, err
		}
		if mt != nil {
			m.Type = *mt
		}
	}
	if in.MedicalCode != 0 {
		med, err := uc.catalog.Medicals.GetByCode(ctx, in.MedicalCode)
		if err != nil {
			return nil, err
		}
		if med == nil {
			out = append(out, uc.validator.Violation(i18n.MedicalUnknown, strconv.FormatInt(in.MedicalCode, 10)))
		}
	}
	if m.WardCode != "" {
		w, err := uc.catalog.Wards.GetByCode(ctx, m.WardCode)
		if err != nil {
			return nil, err
		}
		if w == nil {
			out = append(out, uc.validator.Violation(i18n.WardUnknown, m.WardCode))
		}
	}
	if m.SupplierID != nil && *m.SupplierID != 0 {
		s, err := uc.catalog.Suppliers.GetByID(ctx, *m.SupplierID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			out = append(out, uc.validator.Violation(i18n.SupplierRequired))
		}
	}
	return out, nil
}

// resolveLot: por ID debe existir; por código se reutiliza el lote del medicamento si existe;
// si no, queda como lote nuevo a crear en la transacción.
func (uc *MovementLedgerUseCase) resolveLot(ctx context.Context, medicalCode int64, in *LotInput) (*entity.Lot, error) {
	if in.ID != "" {
		lot, err := uc.read.Lots.GetByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, &domain.NotFoundError{Entity: "lote", Key: in.ID}
		}
		return lot, nil
	}
	code := strings.TrimSpace(in.Code)
	if code != "" && medicalCode != 0 {
		lot, err := uc.read.Lots.GetByMedicalAndCode(ctx, medicalCode, code)
		if err != nil {
			return nil, err
		}
		if lot != nil {
			return lot, nil
		}
	}
	return &entity.Lot{
		Code:            code,
		MedicalCode:     medicalCode,
		PreparationDate: in.PreparationDate,
		DueDate:         in.DueDate,
		Cost:            in.Cost,
	}, nil
}

// expand convierte un borrador en movimientos concretos por lote, dentro de la transacción.
func (uc *MovementLedgerUseCase) expand(ctx context.Context, repos StockRepos, d *entity.Movement) ([]*entity.Movement, error) {
	policy := uc.validator.Policy()

	if d.Type.IsCharge() {
		m := *d
		if m.Lot == nil {
			m.Lot = uc.automaticLot(&m, policy)
		}
		return []*entity.Movement{&m}, nil
	}

	if d.Lot != nil {
		// lote explícito: se relee dentro de la tx para validar existencia
		lot, err := repos.Lots.GetByID(ctx, d.Lot.ID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, &domain.NotFoundError{Entity: "lote", Key: d.Lot.Code}
		}
		if lot.Quantity.LessThan(d.Quantity) && !policy.AllowNegativeStock {
			return nil, uc.shortfall(&inv.ShortfallError{Requested: d.Quantity, Available: lot.Quantity})
		}
		m := *d
		m.Lot = lot
		return []*entity.Movement{&m}, nil
	}

	lots, err := repos.Lots.ListAvailableByMedical(ctx, d.MedicalCode)
	if err != nil {
		return nil, err
	}
	cands := make([]inv.Candidate, 0, len(lots))
	for _, l := range lots {
		cands = append(cands, inv.Candidate{Lot: l, Available: l.Quantity})
	}
	allocs, err := inv.AllocateFEFO(cands, d.Quantity, policy.AllowNegativeStock)
	if err != nil {
		var se *inv.ShortfallError
		if errors.As(err, &se) {
			return nil, uc.shortfall(se)
		}
		return nil, err
	}
	out := make([]*entity.Movement, 0, len(allocs))
	for _, a := range allocs {
		m := *d
		m.Lot = a.Lot
		m.Quantity = a.Quantity
		out = append(out, &m)
	}
	return out, nil
}

func (uc *MovementLedgerUseCase) shortfall(se *inv.ShortfallError) error {
	return domain.NewValidationError([]domain.Violation{uc.validator.Shortfall(se)})
}

// automaticLot lote generado para una carga sin lote.
func (uc *MovementLedgerUseCase) automaticLot(m *entity.Movement, p inv.Policy) *entity.Lot {
	prep := inv.Day(m.Date)
	return &entity.Lot{
		Code:            strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12],
		MedicalCode:     m.MedicalCode,
		PreparationDate: prep,
		DueDate:         prep.AddDate(0, 0, p.DefaultShelfLifeDays),
		Cost:            decimal.Zero,
	}
}

// persist guarda un movimiento concreto y sus efectos: lote, saldos y sala.
func (uc *MovementLedgerUseCase) persist(ctx context.Context, repos StockRepos, m *entity.Movement) error {
	now := uc.clock.Now()
	if m.Lot.IsNew() && m.Lot.Code != "" {
		// otra línea del mismo lote pudo crearlo antes en esta transacción
		existing, err := repos.Lots.GetByMedicalAndCode(ctx, m.MedicalCode, m.Lot.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			m.Lot = existing
		}
	}
	if m.Lot.IsNew() {
		lot := *m.Lot
		lot.ID = uuid.New().String()
		lot.MedicalCode = m.MedicalCode
		lot.Quantity = decimal.Zero
		lot.CreatedAt = now
		if err := repos.Lots.Create(ctx, &lot); err != nil {
			return err
		}
		m.Lot = &lot
	}
	m.CreatedAt = now
	if err := repos.Movements.Create(ctx, m); err != nil {
		return err
	}
	if err := repos.Lots.AddQuantity(ctx, m.Lot.ID, m.SignedQuantity()); err != nil {
		return err
	}
	// reflejo en memoria para que el llamador vea la cantidad vigente del lote
	lot := *m.Lot
	lot.Quantity = lot.Quantity.Add(m.SignedQuantity())
	m.Lot = &lot

	if err := applyBalance(ctx, repos, uc.validator, uc.log, m); err != nil {
		return err
	}
	if !m.IsWardBound() {
		return nil
	}
	code := m.Code
	return recordWardEntry(ctx, repos, &entity.MovementWard{
		Date:         m.Date,
		WardCode:     m.WardCode,
		MovementCode: &code,
		Lot:          m.Lot,
		MedicalCode:  m.MedicalCode,
		Description:  "farmacia " + m.RefNo,
		Quantity:     m.Quantity,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    now,
	})
}

// DeleteMovement vía administrativa: elimina un movimiento solo si es el último de su
// medicamento (y, si alimentó una sala, si su asiento de sala es también el último).
// Revierte lote, sala y reconstruye la tabla de saldos.
func (uc *MovementLedgerUseCase) DeleteMovement(ctx context.Context, code int64) (*entity.Movement, error) {
	var deleted *entity.Movement
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		m, err := repos.Movements.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if m == nil {
			return &domain.NotFoundError{Entity: "movimiento", Key: strconv.FormatInt(code, 10)}
		}
		if err := uc.deleteInTx(ctx, repos, m); err != nil {
			return err
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("code", code).Int64("medical", deleted.MedicalCode).Msg("movimiento eliminado")
	return deleted, nil
}

// DeleteLastMovement elimina el último movimiento registrado del medicamento.
func (uc *MovementLedgerUseCase) DeleteLastMovement(ctx context.Context, medicalCode int64) (*entity.Movement, error) {
	var deleted *entity.Movement
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		m, err := repos.Movements.GetLastByMedical(ctx, medicalCode)
		if err != nil {
			return err
		}
		if m == nil {
			return &domain.NotFoundError{Entity: "movimiento del medicamento", Key: strconv.FormatInt(medicalCode, 10)}
		}
		if err := uc.deleteInTx(ctx, repos, m); err != nil {
			return err
		}
		deleted = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("code", deleted.Code).Int64("medical", medicalCode).Msg("último movimiento eliminado")
	return deleted, nil
}

func (uc *MovementLedgerUseCase) deleteInTx(ctx context.Context, repos StockRepos, m *entity.Movement) error {
	if err := inv.IsRemovable(ctx, inv.MovementEntry(m), movementLaterFinder(repos, m)); err != nil {
		uc.log.Debug().Err(err).Int64("code", m.Code).Msg("borrado rechazado")
		return err
	}
	if m.IsWardBound() {
		mirror, err := repos.WardMovements.GetByMovementCode(ctx, m.Code)
		if err != nil {
			return err
		}
		if mirror != nil {
			if err := inv.IsRemovable(ctx, inv.WardEntry(mirror), wardLaterFinder(repos, mirror)); err != nil {
				uc.log.Debug().Err(err).Int64("code", m.Code).Msg("borrado rechazado por la sala")
				return err
			}
			if err := revertWardEntry(ctx, repos, mirror); err != nil {
				return err
			}
		}
	}
	if err := repos.Movements.Delete(ctx, m.Code); err != nil {
		return err
	}
	if err := repos.Lots.AddQuantity(ctx, m.LotID(), m.SignedQuantity().Neg()); err != nil {
		return err
	}
	_, err := rebuildBalances(ctx, repos, m.MedicalCode)
	return err
}

// RecomputeBalances reconstruye la tabla de saldos del medicamento desde el libro.
func (uc *MovementLedgerUseCase) RecomputeBalances(ctx context.Context, medicalCode int64) ([]entity.MedicalStock, error) {
	var rows []entity.MedicalStock
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		var err error
		rows, err = rebuildBalances(ctx, repos, medicalCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("medical", medicalCode).Int("rows", len(rows)).Msg("tabla de saldos recalculada")
	return rows, nil
}
