package valuation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/michaelpento.lv/lendvault/oracle"
	"github.com/michaelpento.lv/lendvault/registry"
	umath "github.com/michaelpento.lv/lendvault/utils/math"
)

// ErrZeroPrice is returned when a feed quotes zero. A zero divisor
// means the oracle is malfunctioning; the operation aborts rather than
// silently valuing the asset at nothing.
var ErrZeroPrice = errors.New("price feed returned zero")

// Service converts between asset amounts and their reference-currency
// (ETH) value. Both directions read a fresh quote per call and touch no
// ledger state.
type Service struct {
	registry *registry.AssetRegistry
	prices   oracle.PriceSource
}

// New creates a valuation service over the given registry and price
// source.
func New(reg *registry.AssetRegistry, prices oracle.PriceSource) *Service {
	return &Service{registry: reg, prices: prices}
}

// ValueInReference returns the ETH value of amount units of asset,
// rounding down.
func (s *Service) ValueInReference(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	price, err := s.currentPrice(ctx, asset)
	if err != nil {
		return nil, err
	}
	return umath.WadMul(amount, price), nil
}

// AmountFromReference returns how many units of asset are worth the
// given ETH value, rounding down.
func (s *Service) AmountFromReference(ctx context.Context, asset common.Address, referenceValue *big.Int) (*big.Int, error) {
	price, err := s.currentPrice(ctx, asset)
	if err != nil {
		return nil, err
	}
	if price.Sign() == 0 {
		return nil, fmt.Errorf("%w: asset %s", ErrZeroPrice, asset.Hex())
	}
	return umath.WadDiv(referenceValue, price), nil
}

func (s *Service) currentPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	feed, err := s.registry.PriceFeedOf(asset)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset.Hex(), err)
	}
	price, err := s.prices.CurrentPrice(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("price of %s: %w", asset.Hex(), err)
	}
	return price, nil
}
