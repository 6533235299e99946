package game

import "github.com/shopspring/decimal"

// Smallest-unit precision per pool symbol, in decimal places.
var symbolPlaces = map[string]int32{
	"BTC": 8,
	"ETH": 18,
	"TON": 9,
}

const defaultPlaces int32 = 8

func placesFor(symbol string) int32 {
	if p, ok := symbolPlaces[symbol]; ok {
		return p
	}

	return defaultPlaces
}

// SplitPool divides the pool evenly among winners, rounding the per-winner
// bonus down to the symbol's smallest unit. The remainder is whatever the
// rounding left unallocated; it is never silently absorbed into payouts.
// With zero winners nothing is distributed and the whole pool remains.
func SplitPool(pool decimal.Decimal, symbol string, winners int) (bonus, remainder decimal.Decimal) {
	if winners <= 0 {
		return decimal.Zero, pool
	}

	bonus, remainder = pool.QuoRem(decimal.NewFromInt(int64(winners)), placesFor(symbol))

	return bonus, remainder
}
