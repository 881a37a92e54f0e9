package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	wbtc  = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	dai   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestUntouchedPositionIsZero(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Deposited(alice, wbtc).Sign())
	assert.Equal(t, 0, l.Borrowed(alice, wbtc).Sign())
}

func TestDepositAccounting(t *testing.T) {
	l := New()
	l.IncreaseDeposit(alice, wbtc, big.NewInt(100))
	l.IncreaseDeposit(alice, wbtc, big.NewInt(50))
	assert.Equal(t, big.NewInt(150), l.Deposited(alice, wbtc))

	require.NoError(t, l.DecreaseDeposit(alice, wbtc, big.NewInt(120)))
	assert.Equal(t, big.NewInt(30), l.Deposited(alice, wbtc))

	// pairs are independent
	assert.Equal(t, 0, l.Deposited(alice, dai).Sign())
	assert.Equal(t, 0, l.Deposited(bob, wbtc).Sign())
}

func TestDecreaseDepositUnderflow(t *testing.T) {
	l := New()
	l.IncreaseDeposit(alice, wbtc, big.NewInt(30))

	err := l.DecreaseDeposit(alice, wbtc, big.NewInt(31))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(30), l.Deposited(alice, wbtc), "failed decrease must not mutate")
}

func TestBorrowAccounting(t *testing.T) {
	l := New()
	l.IncreaseBorrowed(alice, dai, big.NewInt(1000))
	require.NoError(t, l.DecreaseBorrowed(alice, dai, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), l.Borrowed(alice, dai))

	err := l.DecreaseBorrowed(alice, dai, big.NewInt(601))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(600), l.Borrowed(alice, dai))
}

func TestDepositAndDebtAreSeparateFields(t *testing.T) {
	l := New()
	l.IncreaseDeposit(alice, dai, big.NewInt(500))
	l.IncreaseBorrowed(alice, dai, big.NewInt(200))

	assert.Equal(t, big.NewInt(500), l.Deposited(alice, dai))
	assert.Equal(t, big.NewInt(200), l.Borrowed(alice, dai))

	err := l.DecreaseBorrowed(alice, dai, big.NewInt(500))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestReadsReturnCopies(t *testing.T) {
	l := New()
	l.IncreaseDeposit(alice, wbtc, big.NewInt(10))

	l.Deposited(alice, wbtc).SetInt64(0)
	assert.Equal(t, big.NewInt(10), l.Deposited(alice, wbtc))
}
