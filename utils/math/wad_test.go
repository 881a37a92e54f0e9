package math

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWadMul(t *testing.T) {
	// 1000 DAI at 0.001 ETH each is 1 ETH
	amount := NewWad(1000)
	price := big.NewInt(1e15)
	assert.Equal(t, NewWad(1), WadMul(amount, price))
}

func TestWadMulRoundsDown(t *testing.T) {
	// 1 * 0.5 wei truncates to zero
	got := WadMul(big.NewInt(1), big.NewInt(5e17))
	assert.Equal(t, 0, got.Sign())
}

func TestWadDiv(t *testing.T) {
	// 2 ETH worth of an asset priced at 2 ETH is 1 unit
	assert.Equal(t, NewWad(1), WadDiv(NewWad(2), NewWad(2)))
}

func TestWadDivRoundsDown(t *testing.T) {
	// 0.8 / 1.9 floors at the last decimal
	got := WadDiv(big.NewInt(8e17), big.NewInt(19e17))
	want, _ := new(big.Int).SetString("421052631578947368", 10)
	assert.Equal(t, want, got)
}

func TestPct(t *testing.T) {
	seize, _ := new(big.Int).SetString("421052631578947368", 10)
	bonus, _ := new(big.Int).SetString("21052631578947368", 10)
	assert.Equal(t, bonus, Pct(seize, 5))
	assert.Equal(t, NewWad(80), Pct(NewWad(100), 80))
}

func TestMin(t *testing.T) {
	a, b := big.NewInt(3), big.NewInt(7)
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, a, Min(b, a))
}
