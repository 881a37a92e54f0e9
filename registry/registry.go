package registry

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownAsset is returned when an asset has not been whitelisted.
var ErrUnknownAsset = errors.New("asset not registered")

// AssetRegistry holds the whitelisted assets and the price feed backing
// each of them. Registration is an administrative action; once listed,
// an asset's feed binding is immutable.
type AssetRegistry struct {
	mu    sync.RWMutex
	feeds map[common.Address]common.Address
	order []common.Address
}

// New creates an empty registry.
func New() *AssetRegistry {
	return &AssetRegistry{
		feeds: make(map[common.Address]common.Address),
	}
}

// RegisterAsset whitelists an asset and binds it to a price feed.
// Registering an already listed asset is a no-op.
func (r *AssetRegistry) RegisterAsset(asset, priceFeed common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.feeds[asset]; ok {
		return
	}
	r.feeds[asset] = priceFeed
	r.order = append(r.order, asset)
}

// IsListed reports whether the asset has been registered.
func (r *AssetRegistry) IsListed(asset common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.feeds[asset]
	return ok
}

// PriceFeedOf returns the feed bound to the asset.
func (r *AssetRegistry) PriceFeedOf(asset common.Address) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	feed, ok := r.feeds[asset]
	if !ok {
		return common.Address{}, ErrUnknownAsset
	}
	return feed, nil
}

// Assets returns the listed assets in registration order.
func (r *AssetRegistry) Assets() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, len(r.order))
	copy(out, r.order)
	return out
}
