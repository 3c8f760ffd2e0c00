package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/medstock-api/internal/application/dto"
	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

// WardHandler maneja el libro de salas (protegido).
type WardHandler struct {
	uc  *inventory.WardStockUseCase
	log *logger.Logger
}

// NewWardHandler construye el handler.
func NewWardHandler(uc *inventory.WardStockUseCase, log *logger.Logger) *WardHandler {
	return &WardHandler{uc: uc, log: log}
}

// NewMovements godoc
// @Summary      Consumos de sala (FEFO si no se indica lote)
// @Tags         wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        ward  path  string                        true  "Sala"
// @Param        body  body  dto.WardMovementBatchRequest  true  "Asientos"
// @Success      201   {object}  dto.ListResponse[dto.WardMovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/wards/{ward}/movements [post]
func (h *WardHandler) NewMovements(c *fiber.Ctx) error {
	var in dto.WardMovementBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if len(in.Movements) == 0 {
		return badRequest(c, "VALIDATION", "movements no puede estar vacío")
	}
	ward, userID := c.Params("ward"), GetUserID(c)
	list := make([]inventory.WardMovementInput, 0, len(in.Movements))
	for _, m := range in.Movements {
		list = append(list, inventory.WardMovementInput{
			WardCode:    ward,
			MedicalCode: m.MedicalCode,
			LotID:       m.LotID,
			Date:        m.Date,
			Description: m.Description,
			Quantity:    m.Quantity,
			Units:       m.Units,
			PatientCode: m.PatientCode,
			UserID:      userID,
		})
	}
	out, err := h.uc.NewMovementWards(c.UserContext(), list)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewList(dto.FromMovementWards(out)))
}

// Transfer godoc
// @Summary      Traslado entre salas
// @Tags         wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Origen, destino, medicamento, cantidad"
// @Success      201   {object}  dto.ListResponse[dto.WardMovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/wards/transfers [post]
func (h *WardHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Transfer(c.UserContext(), inventory.TransferInput{
		From:        in.From,
		To:          in.To,
		MedicalCode: in.MedicalCode,
		LotID:       in.LotID,
		Quantity:    in.Quantity,
		Date:        in.Date,
		Description: in.Description,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewList(dto.FromMovementWards(out)))
}

// Update godoc
// @Summary      Editar descripción, unidades o paciente de un asiento de sala
// @Tags         wards
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  int                            true  "Código del asiento"
// @Param        body  body  dto.UpdateWardMovementRequest  true  "Campos editables"
// @Success      200   {object}  dto.WardMovementResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/wards/movements/{code} [put]
func (h *WardHandler) Update(c *fiber.Ctx) error {
	code, ok := paramInt64(c, "code")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "code debe ser numérico")
	}
	var in dto.UpdateWardMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	m, err := h.uc.UpdateMovementWard(c.UserContext(), code, inventory.UpdateWardInput{
		Description: in.Description,
		Units:       in.Units,
		PatientCode: in.PatientCode,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromMovementWard(m))
}

// Delete godoc
// @Summary      Borrar un asiento de sala (ambas mitades si es traslado)
// @Tags         wards
// @Security     Bearer
// @Produce      json
// @Param        code  path  int  true  "Código del asiento"
// @Success      200  {object}  dto.ListResponse[dto.WardMovementResponse]
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/wards/movements/{code} [delete]
func (h *WardHandler) Delete(c *fiber.Ctx) error {
	code, ok := paramInt64(c, "code")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "code debe ser numérico")
	}
	out, err := h.uc.DeleteMovementWard(c.UserContext(), code)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovementWards(out)))
}

// Medicals godoc
// @Summary      Existencias de la sala por lote
// @Tags         wards
// @Security     Bearer
// @Produce      json
// @Param        ward         path   string  true   "Sala"
// @Param        strip_empty  query  bool    false  "Omitir lotes en cero"
// @Success      200  {object}  dto.ListResponse[dto.MedicalWardResponse]
// @Router       /api/wards/{ward}/medicals [get]
func (h *WardHandler) Medicals(c *fiber.Ctx) error {
	out, err := h.uc.GetMedicalsWard(c.UserContext(), c.Params("ward"), c.QueryBool("strip_empty", false))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMedicalWards(out)))
}

// Quantity godoc
// @Summary      Cantidad actual de un medicamento en la sala
// @Tags         wards
// @Security     Bearer
// @Produce      json
// @Param        ward     path  string  true  "Sala"
// @Param        medical  path  int     true  "Medicamento"
// @Success      200  {object}  dto.WardQuantityResponse
// @Router       /api/wards/{ward}/medicals/{medical}/quantity [get]
func (h *WardHandler) Quantity(c *fiber.Ctx) error {
	medical, ok := paramInt64(c, "medical")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "medical debe ser numérico")
	}
	ward := c.Params("ward")
	q, err := h.uc.GetCurrentQuantityInWard(c.UserContext(), ward, medical)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WardQuantityResponse{WardCode: ward, MedicalCode: medical, Quantity: q})
}

// Movements godoc
// @Summary      Libro de la sala
// @Tags         wards
// @Security     Bearer
// @Produce      json
// @Param        ward  path   string  true   "Sala"
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  dto.ListResponse[dto.WardMovementResponse]
// @Router       /api/wards/{ward}/movements [get]
func (h *WardHandler) Movements(c *fiber.Ctx) error {
	dates, bad := queryDates(c, "from", "to")
	if bad != "" {
		return badRequest(c, "INVALID_QUERY", bad+" debe ser YYYY-MM-DD")
	}
	out, err := h.uc.GetMovementsToWard(c.UserContext(), c.Params("ward"), dates[0], endOfDay(dates[1]))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovementWards(out)))
}

// PatientMovements godoc
// @Summary      Consumos de sala de un paciente
// @Tags         wards
// @Security     Bearer
// @Produce      json
// @Param        patient  path  int  true  "Paciente"
// @Success      200  {object}  dto.ListResponse[dto.WardMovementResponse]
// @Router       /api/wards/patients/{patient}/movements [get]
func (h *WardHandler) PatientMovements(c *fiber.Ctx) error {
	patient, ok := paramInt64(c, "patient")
	if !ok {
		return badRequest(c, "INVALID_PARAM", "patient debe ser numérico")
	}
	out, err := h.uc.GetMovementsToPatient(c.UserContext(), patient)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewList(dto.FromMovementWards(out)))
}
