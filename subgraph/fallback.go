package subgraph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

// fallbackProvider tries the configured providers in order and returns the
// first successful listing. The chain order is a deployment choice.
type fallbackProvider struct {
	providers []mvc.SubgraphProvider
	logger    log.Logger
}

// NewFallbackProvider chains the given providers. All providers must serve
// the same protocol.
func NewFallbackProvider(logger log.Logger, providers ...mvc.SubgraphProvider) mvc.SubgraphProvider {
	if len(providers) == 0 {
		panic("fallback provider requires at least one provider")
	}

	protocol := providers[0].Protocol()
	for _, provider := range providers[1:] {
		if provider.Protocol() != protocol {
			panic("fallback providers must share a protocol")
		}
	}

	return &fallbackProvider{
		providers: providers,
		logger:    logger,
	}
}

// Protocol implements mvc.SubgraphProvider.
func (p *fallbackProvider) Protocol() domain.Protocol {
	return p.providers[0].Protocol()
}

// ListPools implements mvc.SubgraphProvider.
func (p *fallbackProvider) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	var lastErr error

	for i, provider := range p.providers {
		pools, err := provider.ListPools(ctx, tokenIn, tokenOut, blockNumber)
		if err == nil {
			return pools, nil
		}

		lastErr = err
		p.logger.Info("subgraph provider failed, falling back",
			zap.Int("provider_index", i),
			zap.String("protocol", string(p.Protocol())),
			zap.Error(err))
	}

	return nil, fmt.Errorf("all subgraph providers exhausted: %w", lastErr)
}
