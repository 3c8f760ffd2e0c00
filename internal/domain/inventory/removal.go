package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
)

// Libros encadenados que admiten borrado del último asiento.
const (
	BookMovement     = "movement"      // libro central, clave = medicamento
	BookMovementWard = "movement_ward" // libro de sala, clave = (sala, medicamento, lote)
)

// LedgerEntry asiento visto por la guarda de borrado.
type LedgerEntry struct {
	Book string
	Key  string
	Code int64
	Date time.Time
}

// After indica si a va después de b en el orden del libro (fecha y luego código).
func After(a, b LedgerEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Code > b.Code
}

// MovementEntry asiento del libro central.
func MovementEntry(m *entity.Movement) LedgerEntry {
	return LedgerEntry{Book: BookMovement, Key: fmt.Sprintf("%d", m.MedicalCode), Code: m.Code, Date: m.Date}
}

// WardEntry asiento del libro de sala.
func WardEntry(m *entity.MovementWard) LedgerEntry {
	return LedgerEntry{
		Book: BookMovementWard,
		Key:  fmt.Sprintf("%s/%d/%s", m.WardCode, m.MedicalCode, m.LotID()),
		Code: m.Code,
		Date: m.Date,
	}
}

// LaterFinder informa si existe un asiento posterior a e con su misma clave.
type LaterFinder func(ctx context.Context, e LedgerEntry) (bool, error)

// IsRemovable es el único predicado de borrado para ambos libros: solo el último
// asiento cronológico de su clave puede eliminarse. Devuelve *domain.ConflictError si no.
func IsRemovable(ctx context.Context, e LedgerEntry, later LaterFinder) error {
	blocked, err := later(ctx, e)
	if err != nil {
		return err
	}
	if blocked {
		return &domain.ConflictError{
			Entity: e.Book,
			Key:    fmt.Sprintf("%d", e.Code),
			Reason: "existen asientos posteriores para " + e.Key,
		}
	}
	return nil
}
