package split

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellation(t *testing.T) {
	tests := []struct {
		name       string
		price, pct uint64
		penalty    uint64
		refund     uint64
	}{
		{"ten percent", 1000, 10, 100, 900},
		{"zero percent", 1000, 0, 0, 1000},
		{"full penalty", 1000, 100, 1000, 0},
		{"floors fractional penalty", 999, 10, 99, 900},
		{"one unit", 1, 50, 0, 1},
		{"zero price", 0, 30, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Cancellation(tt.price, tt.pct)
			require.NoError(t, err)
			assert.Equal(t, tt.penalty, parts.Kept)
			assert.Equal(t, tt.refund, parts.Passed)

			p, err := Penalty(tt.price, tt.pct)
			require.NoError(t, err)
			r, err := Refund(tt.price, tt.pct)
			require.NoError(t, err)
			assert.Equal(t, tt.penalty, p)
			assert.Equal(t, tt.refund, r)
		})
	}
}

func TestResale(t *testing.T) {
	parts, err := Resale(500, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), parts.Kept)
	assert.Equal(t, uint64(475), parts.Passed)

	r, err := Royalty(500, 5)
	require.NoError(t, err)
	s, err := SellerTake(500, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), r)
	assert.Equal(t, uint64(475), s)
}

func TestSplitsSumToAmount(t *testing.T) {
	amounts := []uint64{0, 1, 7, 99, 100, 101, 1_000_000, 123_456_789, math.MaxUint64 / 100}
	for _, amount := range amounts {
		for pct := uint64(0); pct <= MaxPercentage; pct++ {
			c, err := Cancellation(amount, pct)
			require.NoError(t, err)
			require.Equal(t, amount, c.Kept+c.Passed, "cancellation amount=%d pct=%d", amount, pct)
			require.LessOrEqual(t, c.Kept, amount)

			r, err := Resale(amount, pct)
			require.NoError(t, err)
			require.Equal(t, amount, r.Kept+r.Passed, "resale amount=%d pct=%d", amount, pct)
		}
	}
}

func TestShareOverflow(t *testing.T) {
	_, err := Share(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Penalty(math.MaxUint64/100+1, 100)
	assert.ErrorIs(t, err, ErrOverflow)

	got, err := Share(math.MaxUint64, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64/100), got)

	got, err = Share(math.MaxUint64, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestSharePercentageBound(t *testing.T) {
	_, err := Share(10, 101)
	assert.ErrorIs(t, err, ErrPercentage)
}
