package transfer

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrTransferRejected is returned when the transfer capability refuses
// or fails to move funds. The engine aborts the operation and leaves
// the ledger untouched.
var ErrTransferRejected = errors.New("transfer rejected")

// Vault is the external fund-moving capability. Implementations must be
// atomic: a call either moves the full amount or moves nothing. The
// engine itself never holds balances; it only records them.
type Vault interface {
	// Pull moves amount of asset from the account into the pool.
	Pull(ctx context.Context, asset, from common.Address, amount *big.Int) error
	// Push moves amount of asset from the pool out to the account.
	Push(ctx context.Context, asset, to common.Address, amount *big.Int) error
}
