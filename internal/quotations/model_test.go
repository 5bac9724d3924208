package quotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLineTotals(t *testing.T) {
	discount, tax, total := CalculateLineTotals(10, 100, 10, 18)

	assert.InDelta(t, 100.0, discount, 0.001)
	assert.InDelta(t, 162.0, tax, 0.001)
	assert.InDelta(t, 1062.0, total, 0.001)
}

func TestCalculateLineTotalsNoDiscountNoTax(t *testing.T) {
	discount, tax, total := CalculateLineTotals(3, 50, 0, 0)

	assert.Zero(t, discount)
	assert.Zero(t, tax)
	assert.InDelta(t, 150.0, total, 0.001)
}

func TestCalculateLineTotalsFullDiscount(t *testing.T) {
	discount, tax, total := CalculateLineTotals(2, 200, 100, 18)

	assert.InDelta(t, 400.0, discount, 0.001)
	assert.Zero(t, tax)
	assert.Zero(t, total)
}
