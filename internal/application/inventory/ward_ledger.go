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

// WardStockUseCase libro de stock por sala: consumos, cargas manuales y traslados,
// con la tabla MedicalWard como total materializado por (sala, medicamento, lote).
type WardStockUseCase struct {
	txRunner  TxRunner
	read      StockRepos
	catalog   repository.Catalog
	validator *inv.Validator
	clock     Clock
	log       *logger.Logger
}

// NewWardStockUseCase construye el caso de uso.
func NewWardStockUseCase(
	txRunner TxRunner,
	read StockRepos,
	catalog repository.Catalog,
	validator *inv.Validator,
	clock Clock,
	log *logger.Logger,
) *WardStockUseCase {
	return &WardStockUseCase{
		txRunner:  txRunner,
		read:      read,
		catalog:   catalog,
		validator: validator,
		clock:     clock,
		log:       log,
	}
}

// WardMovementInput asiento de sala. Quantity con signo: positivo entra a la sala, negativo sale.
type WardMovementInput struct {
	WardCode    string
	MedicalCode int64
	LotID       string
	Date        time.Time
	Description string
	Quantity    decimal.Decimal
	Units       string
	PatientCode *int64
	UserID      string
}

// TransferInput traslado de una cantidad (magnitud positiva) entre dos salas.
type TransferInput struct {
	From        string
	To          string
	MedicalCode int64
	LotID       string
	Quantity    decimal.Decimal
	Date        time.Time
	Description string
	UserID      string
}

// UpdateWardInput campos editables de un asiento de sala.
type UpdateWardInput struct {
	Description string
	Units       string
	PatientCode *int64
}

// NewMovementWard registra un asiento de sala. Sin lote y con salida, reparte FEFO entre
// los lotes que la sala tiene (si la política lo permite); por eso puede devolver varios asientos.
func (uc *WardStockUseCase) NewMovementWard(ctx context.Context, in WardMovementInput) ([]*entity.MovementWard, error) {
	return uc.NewMovementWards(ctx, []WardMovementInput{in})
}

// NewMovementWards registra una lista de asientos en una sola transacción.
func (uc *WardStockUseCase) NewMovementWards(ctx context.Context, list []WardMovementInput) ([]*entity.MovementWard, error) {
	if len(list) == 0 {
		return nil, domain.NewValidationError([]domain.Violation{uc.validator.Violation(i18n.WardQuantityNonZero)})
	}
	now := uc.clock.Now()
	var violations []domain.Violation
	drafts := make([]*entity.MovementWard, 0, len(list))
	for _, in := range list {
		mw := &entity.MovementWard{
			Date:        in.Date,
			WardCode:    strings.TrimSpace(in.WardCode),
			MedicalCode: in.MedicalCode,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Units:       in.Units,
			PatientCode: in.PatientCode,
			CreatedBy:   in.UserID,
		}
		if mw.Date.IsZero() {
			mw.Date = now
		}
		vs, err := uc.resolve(ctx, mw, in.LotID)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
		violations = append(violations, uc.validator.CheckWardMovement(mw, now)...)
		if mw.Lot == nil && (mw.Quantity.IsPositive() || !uc.validator.Policy().AutomaticLotWardTransfer) {
			violations = append(violations, uc.validator.Violation(i18n.LotRequired))
		}
		drafts = append(drafts, mw)
	}
	if err := domain.NewValidationError(violations); err != nil {
		return nil, err
	}

	var saved []*entity.MovementWard
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		saved = saved[:0]
		for _, d := range drafts {
			rows, err := uc.allocate(ctx, repos, d.WardCode, d.MedicalCode, d.Lot, d.Quantity)
			if err != nil {
				return err
			}
			for _, r := range rows {
				mw := *d
				mw.Lot = r.Lot
				mw.Quantity = r.Quantity
				mw.CreatedAt = now
				if err := recordWardEntry(ctx, repos, &mw); err != nil {
					return err
				}
				saved = append(saved, &mw)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("entries", len(saved)).Msg("asientos de sala registrados")
	return saved, nil
}

// resolve completa sala, medicamento, lote y paciente desde los catálogos.
func (uc *WardStockUseCase) resolve(ctx context.Context, mw *entity.MovementWard, lotID string) ([]domain.Violation, error) {
	var out []domain.Violation
	if mw.WardCode != "" {
		vs, err := uc.checkWard(ctx, mw.WardCode)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	if mw.MedicalCode != 0 {
		med, err := uc.catalog.Medicals.GetByCode(ctx, mw.MedicalCode)
		if err != nil {
			return nil, err
		}
		if med == nil {
			out = append(out, uc.validator.Violation(i18n.MedicalUnknown, strconv.FormatInt(mw.MedicalCode, 10)))
		}
	}
	if lotID != "" {
		lot, err := uc.read.Lots.GetByID(ctx, lotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, &domain.NotFoundError{Entity: "lote", Key: lotID}
		}
		mw.Lot = lot
	}
	if err := uc.checkPatient(ctx, mw.PatientCode); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *WardStockUseCase) checkWard(ctx context.Context, code string) ([]domain.Violation, error) {
	w, err := uc.catalog.Wards.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return []domain.Violation{uc.validator.Violation(i18n.WardUnknown, code)}, nil
	}
	return nil, nil
}

func (uc *WardStockUseCase) checkPatient(ctx context.Context, code *int64) error {
	if code == nil {
		return nil
	}
	p, err := uc.catalog.Patients.GetByCode(ctx, *code)
	if err != nil {
		return err
	}
	if p == nil {
		return &domain.NotFoundError{Entity: "paciente", Key: strconv.FormatInt(*code, 10)}
	}
	return nil
}

// wardShare porción de un asiento atribuida a un lote.
type wardShare struct {
	Lot      *entity.Lot
	Quantity decimal.Decimal
}

// allocate resuelve los lotes de un asiento dentro de la transacción. Las entradas
// y las salidas con lote explícito pasan tal cual (la salida verifica el disponible de la sala);
// las salidas sin lote se reparten FEFO entre las filas MedicalWard de la sala.
func (uc *WardStockUseCase) allocate(ctx context.Context, repos StockRepos, ward string, medical int64, lot *entity.Lot, q decimal.Decimal) ([]wardShare, error) {
	allowNegative := uc.validator.Policy().AllowNegativeStock
	if q.IsPositive() {
		return []wardShare{{Lot: lot, Quantity: q}}, nil
	}
	requested := q.Neg()

	if lot != nil {
		row, err := repos.WardStock.Get(ctx, ward, medical, lot.ID)
		if err != nil {
			return nil, err
		}
		available := decimal.Zero
		if row != nil {
			available = row.Quantity()
		}
		if available.LessThan(requested) && !allowNegative {
			return nil, domain.NewValidationError([]domain.Violation{
				uc.validator.Shortfall(&inv.ShortfallError{Requested: requested, Available: available}),
			})
		}
		return []wardShare{{Lot: lot, Quantity: q}}, nil
	}

	rows, err := repos.WardStock.ListByWardAndMedical(ctx, ward, medical)
	if err != nil {
		return nil, err
	}
	cands := make([]inv.Candidate, 0, len(rows))
	for _, r := range rows {
		if !r.Quantity().IsPositive() {
			continue
		}
		l, err := repos.Lots.GetByID(ctx, r.LotID)
		if err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		cands = append(cands, inv.Candidate{Lot: l, Available: r.Quantity()})
	}
	allocs, err := inv.AllocateFEFO(cands, requested, allowNegative)
	if err != nil {
		var se *inv.ShortfallError
		if errors.As(err, &se) {
			return nil, domain.NewValidationError([]domain.Violation{uc.validator.Shortfall(se)})
		}
		return nil, err
	}
	out := make([]wardShare, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, wardShare{Lot: a.Lot, Quantity: a.Quantity.Neg()})
	}
	return out, nil
}

// Transfer traslada stock de la sala From a la sala To como un único evento:
// por cada lote afectado, una salida en From y una entrada en To con el mismo TransferID.
func (uc *WardStockUseCase) Transfer(ctx context.Context, in TransferInput) ([]*entity.MovementWard, error) {
	now := uc.clock.Now()
	in.From = strings.TrimSpace(in.From)
	in.To = strings.TrimSpace(in.To)
	if in.Date.IsZero() {
		in.Date = now
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "traslado " + in.From + " -> " + in.To
	}

	out := &entity.MovementWard{
		Date:        in.Date,
		WardCode:    in.From,
		WardTo:      in.To,
		MedicalCode: in.MedicalCode,
		Description: desc,
		Quantity:    in.Quantity.Neg(),
		CreatedBy:   in.UserID,
	}
	violations := uc.validator.CheckTransfer(in.From, in.To, nil)
	vs, err := uc.resolve(ctx, out, in.LotID)
	if err != nil {
		return nil, err
	}
	violations = append(violations, vs...)
	if in.To != "" && in.To != in.From {
		vs, err := uc.checkWard(ctx, in.To)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
	}
	violations = append(violations, uc.validator.CheckWardMovement(out, now)...)
	// cero ya lo informa CheckWardMovement
	if in.Quantity.IsNegative() {
		violations = append(violations, uc.validator.Violation(i18n.QuantityPositive))
	}
	if out.Lot == nil && !uc.validator.Policy().AutomaticLotWardTransfer {
		violations = append(violations, uc.validator.Violation(i18n.LotRequired))
	}
	if err := domain.NewValidationError(violations); err != nil {
		return nil, err
	}

	transferID := uuid.New().String()
	var saved []*entity.MovementWard
	err = uc.txRunner.Run(ctx, func(repos StockRepos) error {
		saved = saved[:0]
		shares, err := uc.allocate(ctx, repos, in.From, in.MedicalCode, out.Lot, out.Quantity)
		if err != nil {
			return err
		}
		for _, s := range shares {
			leave := *out
			leave.Lot = s.Lot
			leave.Quantity = s.Quantity
			leave.TransferID = transferID
			leave.CreatedAt = now
			arrive := entity.MovementWard{
				Date:        in.Date,
				WardCode:    in.To,
				WardFrom:    in.From,
				TransferID:  transferID,
				Lot:         s.Lot,
				MedicalCode: in.MedicalCode,
				Description: desc,
				Quantity:    s.Quantity.Neg(),
				CreatedBy:   in.UserID,
				CreatedAt:   now,
			}
			if err := recordWardEntry(ctx, repos, &leave); err != nil {
				return err
			}
			if err := recordWardEntry(ctx, repos, &arrive); err != nil {
				return err
			}
			saved = append(saved, &leave, &arrive)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("from", in.From).
		Str("to", in.To).
		Int64("medical", in.MedicalCode).
		Str("quantity", in.Quantity.String()).
		Str("transfer_id", transferID).
		Msg("traslado entre salas registrado")
	return saved, nil
}

// UpdateMovementWard modifica descripción, unidades y paciente; cantidades, lote y fechas son inmutables.
func (uc *WardStockUseCase) UpdateMovementWard(ctx context.Context, code int64, in UpdateWardInput) (*entity.MovementWard, error) {
	var updated *entity.MovementWard
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		mw, err := repos.WardMovements.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if mw == nil {
			return &domain.NotFoundError{Entity: "movimiento de sala", Key: strconv.FormatInt(code, 10)}
		}
		mw.Description = strings.TrimSpace(in.Description)
		mw.Units = in.Units
		mw.PatientCode = in.PatientCode

		var violations []domain.Violation
		if mw.Description == "" && mw.PatientCode == nil {
			violations = append(violations, uc.validator.Violation(i18n.WardDescriptionNeeded))
		}
		if mw.IsTransfer() && mw.PatientCode != nil {
			violations = append(violations, uc.validator.Violation(i18n.WardTransferPatient))
		}
		if err := domain.NewValidationError(violations); err != nil {
			return err
		}
		if err := uc.checkPatient(ctx, mw.PatientCode); err != nil {
			return err
		}
		if err := repos.WardMovements.Update(ctx, mw); err != nil {
			return err
		}
		updated = mw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMovementWard borra un asiento solo si es el último de su (sala, medicamento, lote).
// Un traslado se borra completo y cada mitad debe pasar la guarda. Las entradas generadas
// por una descarga de farmacia se borran desde el libro central.
func (uc *WardStockUseCase) DeleteMovementWard(ctx context.Context, code int64) ([]*entity.MovementWard, error) {
	var deleted []*entity.MovementWard
	err := uc.txRunner.Run(ctx, func(repos StockRepos) error {
		deleted = deleted[:0]
		mw, err := repos.WardMovements.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if mw == nil {
			return &domain.NotFoundError{Entity: "movimiento de sala", Key: strconv.FormatInt(code, 10)}
		}
		if mw.MovementCode != nil {
			return &domain.ConflictError{
				Entity: "movimiento de sala",
				Key:    strconv.FormatInt(code, 10),
				Reason: "generado por el movimiento de farmacia " + strconv.FormatInt(*mw.MovementCode, 10),
			}
		}

		entries := []*entity.MovementWard{mw}
		if mw.TransferID != "" {
			if entries, err = repos.WardMovements.ListByTransfer(ctx, mw.TransferID); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if err := inv.IsRemovable(ctx, inv.WardEntry(e), wardLaterFinder(repos, e)); err != nil {
				uc.log.Debug().Err(err).Int64("code", e.Code).Msg("borrado de sala rechazado")
				return err
			}
		}
		for _, e := range entries {
			if err := revertWardEntry(ctx, repos, e); err != nil {
				return err
			}
		}
		deleted = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("code", code).Int("entries", len(deleted)).Msg("asiento de sala eliminado")
	return deleted, nil
}

// GetCurrentQuantityInWard Σ in - out de todos los lotes del medicamento en la sala.
func (uc *WardStockUseCase) GetCurrentQuantityInWard(ctx context.Context, wardCode string, medicalCode int64) (decimal.Decimal, error) {
	rows, err := uc.read.WardStock.ListByWardAndMedical(ctx, wardCode, medicalCode)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.InQuantity).Sub(r.OutQuantity)
	}
	return total, nil
}

// GetMedicalsWard existencias de la sala por (medicamento, lote); stripEmpty omite las filas en cero.
func (uc *WardStockUseCase) GetMedicalsWard(ctx context.Context, wardCode string, stripEmpty bool) ([]*entity.MedicalWard, error) {
	rows, err := uc.read.WardStock.ListByWard(ctx, wardCode)
	if err != nil {
		return nil, err
	}
	if !stripEmpty {
		return rows, nil
	}
	out := make([]*entity.MedicalWard, 0, len(rows))
	for _, r := range rows {
		if !r.Quantity().IsZero() {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetMovementsToWard asientos de la sala en el rango de fechas (extremos opcionales).
func (uc *WardStockUseCase) GetMovementsToWard(ctx context.Context, wardCode string, from, to *time.Time) ([]*entity.MovementWard, error) {
	return uc.read.WardMovements.ListByWard(ctx, wardCode, from, to)
}

// GetMovementsToPatient consumos atribuidos al paciente.
func (uc *WardStockUseCase) GetMovementsToPatient(ctx context.Context, patientCode int64) ([]*entity.MovementWard, error) {
	return uc.read.WardMovements.ListByPatient(ctx, patientCode)
}
