package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/inventory"
)

func finder(entries ...inventory.LedgerEntry) inventory.LaterFinder {
	return func(_ context.Context, e inventory.LedgerEntry) (bool, error) {
		for _, o := range entries {
			if o.Book == e.Book && o.Key == e.Key && inventory.After(o, e) {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestIsRemovable(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first := inventory.LedgerEntry{Book: inventory.BookMovementWard, Key: "A/1/l1", Code: 1, Date: base}
	second := inventory.LedgerEntry{Book: inventory.BookMovementWard, Key: "A/1/l1", Code: 2, Date: base.Add(time.Hour)}
	otherKey := inventory.LedgerEntry{Book: inventory.BookMovementWard, Key: "B/1/l1", Code: 3, Date: base.Add(2 * time.Hour)}
	find := finder(first, second, otherKey)

	require.NoError(t, inventory.IsRemovable(ctx, second, find), "el último de su clave se puede borrar")

	err := inventory.IsRemovable(ctx, first, find)
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIsRemovable_MismaFechaDesempataPorCodigo(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := inventory.LedgerEntry{Book: inventory.BookMovement, Key: "1", Code: 10, Date: at}
	b := inventory.LedgerEntry{Book: inventory.BookMovement, Key: "1", Code: 11, Date: at}
	find := finder(a, b)

	assert.ErrorIs(t, inventory.IsRemovable(ctx, a, find), domain.ErrConflict)
	assert.NoError(t, inventory.IsRemovable(ctx, b, find))
}

func TestIsRemovable_PropagaErrorDelBuscador(t *testing.T) {
	boom := errors.New("db caída")
	err := inventory.IsRemovable(context.Background(), inventory.LedgerEntry{}, func(context.Context, inventory.LedgerEntry) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
