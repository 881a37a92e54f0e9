package transfer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	dai   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestPullMovesFundsIntoPool(t *testing.T) {
	v := NewMemoryVault()
	v.Mint(dai, alice, big.NewInt(100))

	require.NoError(t, v.Pull(context.Background(), dai, alice, big.NewInt(60)))
	assert.Equal(t, big.NewInt(40), v.BalanceOf(dai, alice))
	assert.Equal(t, big.NewInt(60), v.PoolBalance(dai))
}

func TestPullRejectsOverdraw(t *testing.T) {
	v := NewMemoryVault()
	v.Mint(dai, alice, big.NewInt(100))

	err := v.Pull(context.Background(), dai, alice, big.NewInt(101))
	assert.ErrorIs(t, err, ErrTransferRejected)

	// nothing moved
	assert.Equal(t, big.NewInt(100), v.BalanceOf(dai, alice))
	assert.Equal(t, 0, v.PoolBalance(dai).Sign())
}

func TestPushMovesFundsOut(t *testing.T) {
	v := NewMemoryVault()
	v.FundPool(dai, big.NewInt(500))

	require.NoError(t, v.Push(context.Background(), dai, alice, big.NewInt(200)))
	assert.Equal(t, big.NewInt(200), v.BalanceOf(dai, alice))
	assert.Equal(t, big.NewInt(300), v.PoolBalance(dai))
}

func TestPushRejectsWhenPoolDry(t *testing.T) {
	v := NewMemoryVault()
	v.FundPool(dai, big.NewInt(10))

	err := v.Push(context.Background(), dai, alice, big.NewInt(11))
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.Equal(t, 0, v.BalanceOf(dai, alice).Sign())
	assert.Equal(t, big.NewInt(10), v.PoolBalance(dai))
}
