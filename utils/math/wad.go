package math

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Wad is the 18-decimal fixed point unit. All reference-currency values
// and token amounts in the engine carry this scale.
var Wad = big.NewInt(params.Ether)

// NewWad returns n scaled up to 18 decimals.
func NewWad(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Wad)
}

// WadMul multiplies two wad-scaled values, rounding down.
// The intermediate product is arbitrary precision, so 18-decimal
// magnitudes up to 256-bit headroom cannot overflow.
func WadMul(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, Wad)
}

// WadDiv divides a by b at wad scale, rounding down.
// b must be non-zero; callers guard zero divisors with their own error.
func WadDiv(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, Wad)
	return p.Quo(p, b)
}

// Pct returns pct percent of amount, rounding down.
func Pct(amount *big.Int, pct int64) *big.Int {
	p := new(big.Int).Mul(amount, big.NewInt(pct))
	return p.Quo(p, big.NewInt(100))
}

// Min returns the smaller of a and b.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
