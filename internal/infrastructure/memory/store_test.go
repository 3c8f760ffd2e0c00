package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
)

var errBoom = errors.New("boom")

func TestRun_RollbackDescartaCambios(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(r inventory.StockRepos) error {
		require.NoError(t, r.Lots.Create(ctx, &entity.Lot{ID: "x", Code: "L1", MedicalCode: 1}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	lot, err := s.Repos().Lots.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, lot)
}

func TestRun_CommitPublicaCambios(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var code int64
	err := s.Run(ctx, func(r inventory.StockRepos) error {
		if err := r.Lots.Create(ctx, &entity.Lot{ID: "x", Code: "L1", MedicalCode: 1}); err != nil {
			return err
		}
		if err := r.Lots.AddQuantity(ctx, "x", decimal.NewFromInt(4)); err != nil {
			return err
		}
		m := &entity.Movement{MedicalCode: 1, Lot: &entity.Lot{ID: "x"}, Date: time.Now(), Quantity: decimal.NewFromInt(4)}
		if err := r.Movements.Create(ctx, m); err != nil {
			return err
		}
		code = m.Code
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), code)

	m, err := s.Repos().Movements.GetByCode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "L1", m.Lot.Code, "el movimiento devuelve el lote vigente")
	assert.True(t, m.Lot.Quantity.Equal(decimal.NewFromInt(4)))
}

func TestLotRepository_CodigoUnicoPorMedicamento(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	lots := s.Repos().Lots

	require.NoError(t, lots.Create(ctx, &entity.Lot{ID: "a", Code: "L1", MedicalCode: 1}))
	require.NoError(t, lots.Create(ctx, &entity.Lot{ID: "b", Code: "L1", MedicalCode: 2}))
	err := lots.Create(ctx, &entity.Lot{ID: "c", Code: "L1", MedicalCode: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestMovementRepository_SearchFiltraYOrdena(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.Catalog.AddMedical(entity.Medical{Code: 1, TypeCode: "S"})
	s.Catalog.AddMedical(entity.Medical{Code: 2, TypeCode: "K"})
	movs := s.Repos().Movements

	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	for _, m := range []*entity.Movement{
		{MedicalCode: 1, WardCode: "B", Type: entity.MovementType{Code: "DIS", Type: "-"}, Date: d(1)},
		{MedicalCode: 2, WardCode: "A", Type: entity.MovementType{Code: "DIS", Type: "-"}, Date: d(2)},
		{MedicalCode: 2, Type: entity.MovementType{Code: "CHG", Type: "+"}, Date: d(3)},
	} {
		require.NoError(t, movs.Create(ctx, m))
	}

	from := d(2)
	out, err := movs.Search(ctx, repository.MovementFilter{MovFrom: &from})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = movs.Search(ctx, repository.MovementFilter{MedicalType: "K", MovementType: "DIS"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].WardCode)

	out, err = movs.Search(ctx, repository.MovementFilter{Order: repository.OrderByPharmType})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].MedicalCode, "K antes que S")
	assert.Equal(t, int64(1), out[2].MedicalCode)

	out, err = movs.Search(ctx, repository.MovementFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestMedicalStockRepository_UpsertOrdenaPorFecha(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bal := s.Repos().Balances
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 3)

	require.NoError(t, bal.Upsert(ctx, entity.MedicalStock{MedicalCode: 1, BalanceDate: d2, Balance: decimal.NewFromInt(7)}))
	require.NoError(t, bal.Upsert(ctx, entity.MedicalStock{MedicalCode: 1, BalanceDate: d1, Balance: decimal.NewFromInt(5)}))
	require.NoError(t, bal.Upsert(ctx, entity.MedicalStock{MedicalCode: 1, BalanceDate: d2, Balance: decimal.NewFromInt(8)}))

	rows, err := bal.ListByMedical(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, d1, rows[0].BalanceDate)
	assert.True(t, rows[1].Balance.Equal(decimal.NewFromInt(8)))

	at, err := bal.GetAt(ctx, 1, d1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, at.Balance.Equal(decimal.NewFromInt(5)))
}
