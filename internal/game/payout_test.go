package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPool(t *testing.T) {
	tests := []struct {
		name          string
		pool          string
		symbol        string
		winners       int
		wantBonus     string
		wantRemainder string
	}{
		{
			name:          "even split",
			pool:          "200",
			symbol:        "BTC",
			winners:       1,
			wantBonus:     "200",
			wantRemainder: "0",
		},
		{
			name:          "rounds down to smallest unit",
			pool:          "1",
			symbol:        "BTC",
			winners:       3,
			wantBonus:     "0.33333333",
			wantRemainder: "0.00000001",
		},
		{
			name:          "eth precision",
			pool:          "1",
			symbol:        "ETH",
			winners:       3,
			wantBonus:     "0.333333333333333333",
			wantRemainder: "0.000000000000000001",
		},
		{
			name:          "unknown symbol falls back to eight places",
			pool:          "10",
			symbol:        "XYZ",
			winners:       3,
			wantBonus:     "3.33333333",
			wantRemainder: "0.00000001",
		},
		{
			name:          "zero winners keeps the whole pool",
			pool:          "500",
			symbol:        "TON",
			winners:       0,
			wantBonus:     "0",
			wantRemainder: "500",
		},
		{
			name:          "negative winners treated as zero",
			pool:          "500",
			symbol:        "TON",
			winners:       -1,
			wantBonus:     "0",
			wantRemainder: "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := decimal.NewFromString(tt.pool)
			require.NoError(t, err)

			bonus, remainder := SplitPool(pool, tt.symbol, tt.winners)

			assert.True(t, bonus.Equal(decimal.RequireFromString(tt.wantBonus)),
				"bonus = %s, want %s", bonus, tt.wantBonus)
			assert.True(t, remainder.Equal(decimal.RequireFromString(tt.wantRemainder)),
				"remainder = %s, want %s", remainder, tt.wantRemainder)
		})
	}
}

func TestSplitPoolConservation(t *testing.T) {
	pools := []string{"200", "1", "0.00000007", "999.123456789", "3"}
	for _, p := range pools {
		pool := decimal.RequireFromString(p)
		for winners := 1; winners <= 7; winners++ {
			bonus, remainder := SplitPool(pool, "BTC", winners)

			total := bonus.Mul(decimal.NewFromInt(int64(winners))).Add(remainder)
			assert.True(t, total.Equal(pool),
				"pool %s winners %d: %s*%d + %s != %s", p, winners, bonus, winners, remainder, p)
			assert.False(t, remainder.IsNegative(), "pool %s winners %d: negative remainder", p, winners)
		}
	}
}
