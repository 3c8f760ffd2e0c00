package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/medstock-api/internal/application/dto"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		details := make([]dto.ViolationDTO, 0, len(ve.Violations))
		for _, v := range ve.Violations {
			details = append(details, dto.ViolationDTO{Code: v.Code, Message: v.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "movimiento rechazado", Details: details})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// paramInt64 lee un parámetro de ruta numérico.
func paramInt64(c *fiber.Ctx, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Params(name), 10, 64)
	return n, err == nil
}

// queryInt64 lee un query param numérico opcional; ok=false si viene mal formado.
func queryInt64(c *fiber.Ctx, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// queryDate lee una fecha YYYY-MM-DD opcional.
func queryDate(c *fiber.Ctx, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// queryDates lee varios parámetros de fecha; devuelve el nombre del primero inválido.
func queryDates(c *fiber.Ctx, names ...string) ([]*time.Time, string) {
	out := make([]*time.Time, len(names))
	for i, n := range names {
		t, ok := queryDate(c, n)
		if !ok {
			return nil, n
		}
		out[i] = t
	}
	return out, ""
}
