package chain

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain/cache"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

const gasPriceCacheKey = "gas-price-wei"

type gasPriceProvider struct {
	client Client
	cache  *cache.Cache
	expiry time.Duration
	logger log.Logger
}

var _ mvc.GasPriceProvider = &gasPriceProvider{}

// NewGasPriceProvider returns a gas price provider that caches the node's
// suggested gas price for the given expiry. The router reads the gas price
// once per invocation; the cache keeps repeated invocations from hammering
// the node.
func NewGasPriceProvider(client Client, expiry time.Duration, logger log.Logger) mvc.GasPriceProvider {
	return &gasPriceProvider{
		client: client,
		cache:  cache.New(),
		expiry: expiry,
		logger: logger,
	}
}

// GetGasPriceWei implements mvc.GasPriceProvider.
func (g *gasPriceProvider) GetGasPriceWei(ctx context.Context) (*big.Int, error) {
	if cached, found := g.cache.Get(gasPriceCacheKey); found {
		return cached.(*big.Int), nil
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("fetched gas price", zap.String("gas_price_wei", gasPrice.String()))

	g.cache.Set(gasPriceCacheKey, gasPrice, g.expiry)

	return gasPrice, nil
}
