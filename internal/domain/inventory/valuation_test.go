package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/inventory"
)

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(dec(10), dec(2), dec(10), dec(4))
	assert.True(t, got.Equal(dec(3)))
	assert.True(t, inventory.CostCalculator(dec(0), dec(0), dec(0), dec(9)).IsZero())
}

func TestValueLots_IgnoraLotesAgotados(t *testing.T) {
	lots := []*entity.Lot{
		{Code: "A", Quantity: dec(10), Cost: dec(2)},
		{Code: "B", Quantity: dec(30), Cost: dec(4)},
		{Code: "C", Quantity: dec(0), Cost: dec(100)},
	}
	v := inventory.ValueLots(lots)
	assert.True(t, v.Quantity.Equal(dec(40)))
	assert.True(t, v.AverageCost.Equal(decimal.NewFromFloat(3.5)))
	assert.True(t, v.TotalValue.Equal(dec(140)))
}
