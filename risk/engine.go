package risk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/michaelpento.lv/lendvault/ledger"
	"github.com/michaelpento.lv/lendvault/registry"
	"github.com/michaelpento.lv/lendvault/valuation"
	umath "github.com/michaelpento.lv/lendvault/utils/math"
)

// LiquidationThresholdPct is the share of collateral value that may
// back debt. A position is safe while
// collateralValue * threshold / 100 >= debtValue.
const LiquidationThresholdPct = 80

// MinHealthFactor is the solvency floor: accounts at or above 1.0 (wad)
// are healthy, below it they are liquidatable.
var MinHealthFactor = umath.NewWad(1)

// MaxHealthFactor is the sentinel returned for accounts with no debt,
// standing in for "undefined risk" without dividing by zero.
var MaxHealthFactor = umath.NewWad(100)

// Engine computes account-level solvency from the ledger and fresh
// prices. Every call walks the full registered asset set; the set is
// small and curated, and fresh quotes matter more than speed here.
type Engine struct {
	registry  *registry.AssetRegistry
	ledger    *ledger.Ledger
	valuation *valuation.Service
}

// New creates a risk engine.
func New(reg *registry.AssetRegistry, led *ledger.Ledger, val *valuation.Service) *Engine {
	return &Engine{registry: reg, ledger: led, valuation: val}
}

// CollateralValue returns the ETH value of everything the account has
// deposited, summed over all registered assets.
func (e *Engine) CollateralValue(ctx context.Context, account common.Address) (*big.Int, error) {
	return e.sum(ctx, account, e.ledger.Deposited)
}

// DebtValue returns the ETH value of everything the account has
// borrowed, summed over all registered assets.
func (e *Engine) DebtValue(ctx context.Context, account common.Address) (*big.Int, error) {
	return e.sum(ctx, account, e.ledger.Borrowed)
}

// HealthFactor returns the account's current solvency ratio at wad
// scale.
func (e *Engine) HealthFactor(ctx context.Context, account common.Address) (*big.Int, error) {
	collateral, err := e.CollateralValue(ctx, account)
	if err != nil {
		return nil, err
	}
	debt, err := e.DebtValue(ctx, account)
	if err != nil {
		return nil, err
	}
	return HealthFactorFromValues(collateral, debt), nil
}

// IsLiquidatable reports whether the account sits below the solvency
// floor.
func (e *Engine) IsLiquidatable(ctx context.Context, account common.Address) (bool, error) {
	hf, err := e.HealthFactor(ctx, account)
	if err != nil {
		return false, err
	}
	return hf.Cmp(MinHealthFactor) < 0, nil
}

// HealthFactorFromValues computes the solvency ratio for the given ETH
// values: (collateral * threshold / 100) / debt at wad scale. Operations
// use it to project the ratio a mutation would produce before touching
// the ledger.
func HealthFactorFromValues(collateralValue, debtValue *big.Int) *big.Int {
	if debtValue.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor)
	}
	adjusted := umath.Pct(collateralValue, LiquidationThresholdPct)
	return umath.WadDiv(adjusted, debtValue)
}

func (e *Engine) sum(ctx context.Context, account common.Address, balance func(common.Address, common.Address) *big.Int) (*big.Int, error) {
	total := new(big.Int)
	for _, asset := range e.registry.Assets() {
		amount := balance(account, asset)
		if amount.Sign() == 0 {
			continue
		}
		value, err := e.valuation.ValueInReference(ctx, asset, amount)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}
