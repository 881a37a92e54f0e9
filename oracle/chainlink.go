package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	umath "github.com/michaelpento.lv/lendvault/utils/math"
)

const aggregatorABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],
	 "stateMutability":"view","type":"function"}
]`

// ChainlinkSource reads AggregatorV3 feeds over an Ethereum RPC
// connection. Reads are rate limited so a hot validation path cannot
// hammer the RPC provider.
type ChainlinkSource struct {
	caller  bind.ContractCaller
	limiter *rate.Limiter
	logger  *zap.Logger

	parsed abi.ABI

	mu       sync.Mutex
	decimals map[common.Address]uint8
}

// NewChainlinkSource creates a price source backed by Chainlink
// aggregator contracts. limiter may be nil to disable rate limiting.
func NewChainlinkSource(caller bind.ContractCaller, limiter *rate.Limiter, logger *zap.Logger) (*ChainlinkSource, error) {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aggregator ABI: %w", err)
	}

	return &ChainlinkSource{
		caller:   caller,
		limiter:  limiter,
		logger:   logger,
		parsed:   parsed,
		decimals: make(map[common.Address]uint8),
	}, nil
}

// CurrentPrice returns the latest answer of the feed scaled to 18
// decimals. Non-positive answers are rejected as unavailable.
func (s *ChainlinkSource) CurrentPrice(ctx context.Context, priceFeed common.Address) (*big.Int, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", ErrOracleUnavailable, err)
		}
	}

	contract := bind.NewBoundContract(priceFeed, s.parsed, s.caller, nil, nil)

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "latestRoundData"); err != nil {
		return nil, fmt.Errorf("%w: latestRoundData %s: %v", ErrOracleUnavailable, priceFeed.Hex(), err)
	}
	answer, ok := out[1].(*big.Int)
	if !ok || answer.Sign() <= 0 {
		return nil, fmt.Errorf("%w: feed %s returned non-positive answer", ErrOracleUnavailable, priceFeed.Hex())
	}

	dec, err := s.feedDecimals(ctx, contract, priceFeed)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("price read",
		zap.String("feed", priceFeed.Hex()),
		zap.String("answer", answer.String()),
		zap.Uint8("decimals", dec),
	)

	// scale to wad: answer * 1e18 / 10^decimals
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(dec)), nil)
	price := new(big.Int).Mul(answer, umath.Wad)
	return price.Quo(price, scale), nil
}

// feedDecimals caches the static decimals() value per feed. The cache
// holds contract metadata, never quotes.
func (s *ChainlinkSource) feedDecimals(ctx context.Context, contract *bind.BoundContract, priceFeed common.Address) (uint8, error) {
	s.mu.Lock()
	dec, ok := s.decimals[priceFeed]
	s.mu.Unlock()
	if ok {
		return dec, nil
	}

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("%w: decimals %s: %v", ErrOracleUnavailable, priceFeed.Hex(), err)
	}
	dec, ok = out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: feed %s returned malformed decimals", ErrOracleUnavailable, priceFeed.Hex())
	}

	s.mu.Lock()
	s.decimals[priceFeed] = dec
	s.mu.Unlock()
	return dec, nil
}
