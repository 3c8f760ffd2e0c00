package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// Violation es una regla de negocio incumplida: código estable + mensaje localizado.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError agrupa, en orden, todas las reglas incumplidas de una solicitud.
// Se devuelve antes de cualquier escritura; nunca hay persistencia parcial.
type ValidationError struct {
	Violations []Violation
}

// NewValidationError construye el error; devuelve nil si no hay violaciones.
func NewValidationError(v []Violation) error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validación: " + strings.Join(msgs, "; ")
}

// Messages devuelve solo los textos, en el orden en que se detectaron.
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Message
	}
	return out
}

// Codes devuelve los códigos de regla, en orden.
func (e *ValidationError) Codes() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Code
	}
	return out
}

// Is permite errors.Is(err, domain.ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ConflictError: la operación es válida en forma pero rompería el orden del libro
// (p. ej. borrar un movimiento que no es el último de su clave).
type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicto en %s %s: %s", e.Entity, e.Key, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError indica que la entidad requerida no existe.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AsValidation extrae el ValidationError si err lo contiene.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
