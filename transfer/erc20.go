package transfer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const erc20ABI = `[
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"from","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// Backend is the slice of an Ethereum client the vault needs: sending
// transactions and waiting for their receipts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// ERC20Vault moves ERC-20 tokens between user wallets and the pool
// address on chain. Pull is transferFrom (requires the user's
// allowance), Push is a plain transfer signed by the pool key. A
// reverted transaction surfaces as ErrTransferRejected; nothing is
// retried.
type ERC20Vault struct {
	backend Backend
	opts    *bind.TransactOpts
	pool    common.Address
	parsed  abi.ABI
	logger  *zap.Logger
}

// NewERC20Vault creates an on-chain vault. opts must be keyed with the
// pool's signer and pool must match its address.
func NewERC20Vault(backend Backend, opts *bind.TransactOpts, pool common.Address, logger *zap.Logger) (*ERC20Vault, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &ERC20Vault{
		backend: backend,
		opts:    opts,
		pool:    pool,
		parsed:  parsed,
		logger:  logger,
	}, nil
}

// Pull moves amount of asset from the account into the pool.
func (v *ERC20Vault) Pull(ctx context.Context, asset, from common.Address, amount *big.Int) error {
	return v.transact(ctx, asset, "transferFrom", from, v.pool, amount)
}

// Push moves amount of asset from the pool out to the account.
func (v *ERC20Vault) Push(ctx context.Context, asset, to common.Address, amount *big.Int) error {
	return v.transact(ctx, asset, "transfer", to, amount)
}

func (v *ERC20Vault) transact(ctx context.Context, asset common.Address, method string, args ...interface{}) error {
	opts := *v.opts
	opts.Context = ctx

	token := bind.NewBoundContract(asset, v.parsed, v.backend, v.backend, nil)
	tx, err := token.Transact(&opts, method, args...)
	if err != nil {
		return fmt.Errorf("%w: %s on %s: %v", ErrTransferRejected, method, asset.Hex(), err)
	}

	receipt, err := bind.WaitMined(ctx, v.backend, tx)
	if err != nil {
		return fmt.Errorf("%w: waiting for %s: %v", ErrTransferRejected, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s tx %s reverted", ErrTransferRejected, method, tx.Hash().Hex())
	}

	v.logger.Debug("token transfer mined",
		zap.String("method", method),
		zap.String("asset", asset.Hex()),
		zap.String("tx", tx.Hash().Hex()),
	)
	return nil
}
