package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "฿1,234.50", FormatCurrency(1234.5))
	assert.Equal(t, "฿0.00", FormatCurrency(0))
	assert.Equal(t, "-฿12.00", FormatCurrency(-12))
	assert.Equal(t, "฿28.00", FormatDecimal(decimal.NewFromInt(28)))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "53.6%", FormatPercent(53.571))
}
