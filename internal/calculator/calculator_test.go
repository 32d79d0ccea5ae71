package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/model"
)

func TestHighestLowest_FirstOccurrence(t *testing.T) {
	bars := []model.PriceBar{
		{High: 5, Low: 1},
		{High: 9, Low: 3},
		{High: 9, Low: 1},
	}
	idx, high, err := HighestHigh(bars)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 9.0, high)

	idx, low, err := LowestLow(bars)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1.0, low)

	_, _, err = LowestLow(nil)
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	tests := []struct {
		name      string
		bars      []model.PriceBar
		high, low float64
	}{
		{"single bar", []model.PriceBar{{High: 4, Low: 2}}, 4, 2},
		{"two bars", []model.PriceBar{{High: 4, Low: 2}, {High: 6, Low: 3}}, 6, 2},
		{"extremes in the middle", []model.PriceBar{{High: 5, Low: 4}, {High: 9, Low: 1}, {High: 6, Low: 3}, {High: 7, Low: 2}}, 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, l, err := Range(tt.bars)
			require.NoError(t, err)
			assert.Equal(t, tt.high, h)
			assert.Equal(t, tt.low, l)
		})
	}

	_, _, err := Range(nil)
	assert.Error(t, err)
}
