package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// FixedSource serves prices set directly on it. It backs tests and the
// offline simulation path, where feeds are keyed the same way as on
// chain but the quote is controlled by the caller.
type FixedSource struct {
	mu     sync.RWMutex
	prices map[common.Address]*big.Int
}

// NewFixedSource creates an empty fixed price source.
func NewFixedSource() *FixedSource {
	return &FixedSource{prices: make(map[common.Address]*big.Int)}
}

// SetPrice sets the 18-decimal quote served for a feed.
func (s *FixedSource) SetPrice(priceFeed common.Address, price *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[priceFeed] = new(big.Int).Set(price)
}

// CurrentPrice returns the configured quote for the feed.
func (s *FixedSource) CurrentPrice(_ context.Context, priceFeed common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[priceFeed]
	if !ok {
		return nil, fmt.Errorf("%w: no price set for feed %s", ErrOracleUnavailable, priceFeed.Hex())
	}
	return new(big.Int).Set(price), nil
}
