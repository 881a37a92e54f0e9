package oracle

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedSource(t *testing.T) {
	feed := common.HexToAddress("0xdeb288F737066589598e9214E782fa5A8eD689e8")
	src := NewFixedSource()

	_, err := src.CurrentPrice(context.Background(), feed)
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	src.SetPrice(feed, big.NewInt(2e18))
	price, err := src.CurrentPrice(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2e18), price)
}

func TestFixedSourceCopiesQuotes(t *testing.T) {
	feed := common.HexToAddress("0xdeb288F737066589598e9214E782fa5A8eD689e8")
	src := NewFixedSource()

	set := big.NewInt(1e15)
	src.SetPrice(feed, set)
	set.SetInt64(0)

	price, err := src.CurrentPrice(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), price)

	// mutating the returned quote must not poison the source
	price.SetInt64(42)
	again, err := src.CurrentPrice(context.Background(), feed)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), again)
}
