package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/medstock-api/internal/application/dto"
	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

// StockHandler maneja el libro del almacén central (protegido).
type StockHandler struct {
	uc  *inventory.MovementLedgerUseCase
	log *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.MovementLedgerUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

type recordFunc func(ctx context.Context, batch []inventory.MovementInput, refNo string) ([]*entity.Movement, error)

func (h *StockHandler) record(c *fiber.Ctx, fn recordFunc) error {
	var in dto.MovementBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if len(in.Movements) == 0 {
		return badRequest(c, "VALIDATION", "movements no puede estar vacío")
	}
	userID := GetUserID(c)
	batch := make([]inventory.MovementInput, 0, len(in.Movements))
	for _, m := range in.Movements {
		batch = append(batch, toMovementInput(m, userID))
	}
	out, err := fn(c.UserContext(), batch, in.RefNo)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewList(dto.FromMovements(out)))
}

func toMovementInput(m dto.MovementRequest, userID string) inventory.MovementInput {
	in := inventory.MovementInput{
		MedicalCode: m.MedicalCode,
		TypeCode:    m.TypeCode,
		WardCode:    m.WardCode,
		SupplierID:  m.SupplierID,
		Date:        m.Date,
		Quantity:    m.Quantity,
		UserID:      userID,
	}
	if m.Lot != nil {
		in.Lot = &inventory.LotInput{
			ID:              m.Lot.ID,
			Code:            m.Lot.Code,
			PreparationDate: m.Lot.PreparationDate,
			DueDate:         m.Lot.DueDate,
			Cost:            m.Lot.Cost,
		}
	}
	return in
}

// RecordMovements godoc
// @Summary      Registrar movimientos (un movimiento por renglón, lote explícito)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementBatchRequest  true  "ref_no y movimientos"
// @Success      201   {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RecordMovements(c *fiber.Ctx) error {
	return h.record(c, h.uc.RecordMovements)
}

// Charge godoc
// @Summary      Cargas al almacén central
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementBatchRequest  true  "ref_no y cargas"
// @Success      201   {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/charges [post]
func (h *StockHandler) Charge(c *fiber.Ctx) error {
	return h.record(c, h.uc.Charge)
}

// Discharge godoc
// @Summary      Descargas del almacén central (FEFO si no se indica lote)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementBatchRequest  true  "ref_no y descargas"
// @Success      201   {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/discharges [post]
func (h *StockHandler) Discharge(c *fiber.Ctx) error {
	return h.record(c, h.uc.Discharge)
}

// Search godoc
// @Summary      Listado filtrado de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical_code  query  int     false  "Medicamento"
// @Param        medical_type  query  string  false  "Tipo farmacéutico"
// @Param        ward_code     query  string  false  "Sala"
// @Param        type_code     query  string  false  "Tipo de movimiento"
// @Param        from          query  string  false  "Fecha desde (YYYY-MM-DD)"
// @Param        to            query  string  false  "Fecha hasta (YYYY-MM-DD)"
// @Param        order         query  string  false  "date|ward|pharm_type|type"
// @Param        limit         query  int     false  "Máximo de filas"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Router       /api/stock/movements [get]
func (h *StockHandler) Search(c *fiber.Ctx) error {
	medical, ok := queryInt64(c, "medical_code")
	if !ok {
		return badRequest(c, "INVALID_QUERY", "medical_code inválido")
	}
	dates, bad := queryDates(c, "from", "to", "prep_from", "prep_to", "due_from", "due_to")
	if bad != "" {
		return badRequest(c, "INVALID_QUERY", bad+" debe ser YYYY-MM-DD")
	}
	f := repository.MovementFilter{
		MedicalCode:  medical,
		MedicalType:  c.Query("medical_type"),
		WardCode:     c.Query("ward_code"),
		MovementType: c.Query("type_code"),
		MovFrom:      dates[0],
		MovTo:        endOfDay(dates[1]),
		PrepFrom:     dates[2],
		PrepTo:       endOfDay(dates[3]),
		DueFrom:      dates[4],
		DueTo:        endOfDay(dates[5]),
		Order:        repository.MovementOrder(c.Query("order")),
		Limit:        c.QueryInt("limit", 0),
	}
	out, err := h.uc.SearchMovements(c.UserContext(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovements(out)))
}

// endOfDay convierte una fecha "hasta" en el último instante del día.
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

// ListByRefNo godoc
// @Summary      Movimientos de un documento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        ref_no  path  string  true  "Número de documento"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Router       /api/stock/movements/ref/{ref_no} [get]
func (h *StockHandler) ListByRefNo(c *fiber.Ctx) error {
	out, err := h.uc.ListMovementsByRefNo(c.UserContext(), c.Params("ref_no"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovements(out)))
}

// ListByWard godoc
// @Summary      Descargas del almacén central hacia una sala
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        ward  path   string  true   "Sala"
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Router       /api/stock/movements/ward/{ward} [get]
func (h *StockHandler) ListByWard(c *fiber.Ctx) error {
	dates, bad := queryDates(c, "from", "to")
	if bad != "" {
		return badRequest(c, "INVALID_QUERY", bad+" debe ser YYYY-MM-DD")
	}
	out, err := h.uc.ListMovementsByWard(c.UserContext(), c.Params("ward"), dates[0], endOfDay(dates[1]))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovements(out)))
}

// LastDate godoc
// @Summary      Fecha del último movimiento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical_code  query  int  false  "Medicamento (vacío = todos)"
// @Success      200  {object}  dto.LastDateResponse
// @Router       /api/stock/movements/last-date [get]
func (h *StockHandler) LastDate(c *fiber.Ctx) error {
	medical, ok := queryInt64(c, "medical_code")
	if !ok {
		return badRequest(c, "INVALID_QUERY", "medical_code inválido")
	}
	last, err := h.uc.LastMovementDate(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.LastDateResponse{MedicalCode: medical, LastDate: last})
}

// DeleteMovement godoc
// @Summary      Borrar un movimiento (solo el último de su medicamento)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        code  path  int  true  "Código del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/movements/{code} [delete]
func (h *StockHandler) DeleteMovement(c *fiber.Ctx) error {
	code, ok := paramInt64(c, "code")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "code debe ser numérico")
	}
	m, err := h.uc.DeleteMovement(c.UserContext(), code)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromMovement(m))
}

// DeleteLastMovement godoc
// @Summary      Borrar el último movimiento de un medicamento
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        medical  path  int  true  "Medicamento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/medicals/{medical}/last-movement [delete]
func (h *StockHandler) DeleteLastMovement(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	m, err := h.uc.DeleteLastMovement(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromMovement(m))
}

// Recompute godoc
// @Summary      Reconstruir la tabla de saldos de un medicamento
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        medical  path  int  true  "Medicamento"
// @Success      200  {object}  dto.ListResponse[dto.BalanceResponse]
// @Router       /api/stock/medicals/{medical}/recompute [post]
func (h *StockHandler) Recompute(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	rows, err := h.uc.RecomputeBalances(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromBalances(rows)))
}

// Lots godoc
// @Summary      Lotes vigentes de un medicamento (por vencimiento)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical  path  int  true  "Medicamento"
// @Success      200  {object}  dto.ListResponse[dto.LotResponse]
// @Router       /api/stock/medicals/{medical}/lots [get]
func (h *StockHandler) Lots(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	lots, err := h.uc.GetLotsByMedical(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromLots(lots)))
}

// Lot godoc
// @Summary      Obtener lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/lots/{id} [get]
func (h *StockHandler) Lot(c *fiber.Ctx) error {
	lot, err := h.uc.GetLot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLot(lot))
}

// LotMovements godoc
// @Summary      Movimientos de un lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Router       /api/stock/lots/{id}/movements [get]
func (h *StockHandler) LotMovements(c *fiber.Ctx) error {
	out, err := h.uc.ListMovementsByLot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovements(out)))
}

// Valuation godoc
// @Summary      Valorización a costo promedio de los lotes vigentes
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical  path  int  true  "Medicamento"
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/stock/medicals/{medical}/valuation [get]
func (h *StockHandler) Valuation(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	v, err := h.uc.GetValuation(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ValuationResponse{
		MedicalCode: medical,
		Quantity:    v.Quantity,
		AverageCost: v.AverageCost,
		TotalValue:  v.TotalValue,
	})
}

// Balances godoc
// @Summary      Cadena de saldos diarios
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical  path  int  true  "Medicamento"
// @Success      200  {object}  dto.ListResponse[dto.BalanceResponse]
// @Router       /api/stock/medicals/{medical}/balances [get]
func (h *StockHandler) Balances(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	rows, err := h.uc.GetBalanceTimeline(c.UserContext(), medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromBalances(rows)))
}

// BalanceAt godoc
// @Summary      Saldo vigente en una fecha
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        medical  path   int     true  "Medicamento"
// @Param        date     query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/medicals/{medical}/balance [get]
func (h *StockHandler) BalanceAt(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	date, ok := queryDate(c, "date")
	if !ok || date == nil {
		return badRequest(c, "INVALID_QUERY", "date debe ser YYYY-MM-DD")
	}
	row, err := h.uc.GetBalanceAt(c.UserContext(), medical, *date)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromBalance(*row))
}
