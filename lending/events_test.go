package lending

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogKeepsMostRecent(t *testing.T) {
	log, err := NewEventLog(3)
	require.NoError(t, err)

	for i := int64(1); i <= 5; i++ {
		log.Emit(Deposit{Account: deployer, Asset: dai, Amount: big.NewInt(i)})
	}

	events := log.Recent()
	require.Len(t, events, 3)

	// oldest of the retained window first
	assert.Equal(t, big.NewInt(3), events[0].(Deposit).Amount)
	assert.Equal(t, big.NewInt(5), events[2].(Deposit).Amount)
}

func TestEventLogEmpty(t *testing.T) {
	log, err := NewEventLog(8)
	require.NoError(t, err)
	assert.Empty(t, log.Recent())
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "Deposit", Deposit{}.Name())
	assert.Equal(t, "Withdraw", Withdraw{}.Name())
	assert.Equal(t, "Borrow", Borrow{}.Name())
	assert.Equal(t, "Repay", Repay{}.Name())
	assert.Equal(t, "Liquidate", Liquidate{}.Name())
}
