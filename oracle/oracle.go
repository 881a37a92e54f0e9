package oracle

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrOracleUnavailable is returned when a price feed cannot produce a
// usable quote. Callers abort the whole operation; a price is never
// substituted or retried.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// PriceSource quotes the current price of one asset unit in the
// reference currency (ETH), as an 18-decimal fixed point integer.
// Every call site reads fresh; quotes are never cached across
// operations.
type PriceSource interface {
	CurrentPrice(ctx context.Context, priceFeed common.Address) (*big.Int, error)
}
