package subgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
)

// staticProvider serves a hardcoded seed set of well-known pools. It is the
// last resort in the fallback chain: with no indexer reachable, the router
// can still attempt the highest-liquidity pairs.
type staticProvider struct {
	protocol domain.Protocol
	pools    []domain.SubgraphPool
}

// NewStaticProvider creates a provider over the chain's well-known seed pools.
// For V3 the seed set is synthesized by pairing every base token with every
// other base token across all fee tiers; for V2 one pair per base token
// combination. TVL figures are synthetic and serve only to order the seeds.
func NewStaticProvider(chainID domain.ChainID, protocol domain.Protocol) mvc.SubgraphProvider {
	baseTokens := chain.BaseTokens(chainID)

	var pools []domain.SubgraphPool

	// Seed TVL decreases with position so earlier base pairs sort first.
	seedTVL := decimal.NewFromInt(int64(len(baseTokens) * len(baseTokens)))

	for i := 0; i < len(baseTokens); i++ {
		for j := i + 1; j < len(baseTokens); j++ {
			token0, token1 := baseTokens[i], baseTokens[j]
			if token1.SortsBefore(token0) {
				token0, token1 = token1, token0
			}

			tokenIDs := []string{
				strings.ToLower(token0.Address.Hex()),
				strings.ToLower(token1.Address.Hex()),
			}

			switch protocol {
			case domain.ProtocolV2:
				pools = append(pools, domain.SubgraphPool{
					ID:        syntheticPoolID(tokenIDs[0], tokenIDs[1], 0),
					Protocol:  domain.ProtocolV2,
					TokenIDs:  tokenIDs,
					TVLNative: seedTVL,
					TVLUSD:    seedTVL,
				})
			case domain.ProtocolV3:
				for _, fee := range domain.FeeTiers {
					pools = append(pools, domain.SubgraphPool{
						ID:        syntheticPoolID(tokenIDs[0], tokenIDs[1], fee),
						Protocol:  domain.ProtocolV3,
						TokenIDs:  tokenIDs,
						FeeTier:   fee,
						TVLNative: seedTVL,
						TVLUSD:    seedTVL,
					})
				}
			}

			seedTVL = seedTVL.Sub(decimal.NewFromInt(1))
		}
	}

	return &staticProvider{
		protocol: protocol,
		pools:    pools,
	}
}

// Protocol implements mvc.SubgraphProvider.
func (p *staticProvider) Protocol() domain.Protocol {
	return p.protocol
}

// ListPools implements mvc.SubgraphProvider.
func (p *staticProvider) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	return filterByTokens(p.pools, tokenIn, tokenOut), nil
}

// syntheticPoolID builds a deterministic placeholder pool ID for descriptors
// whose concrete address is resolved later by the pool metadata provider.
func syntheticPoolID(token0, token1 string, fee domain.FeeTier) string {
	if fee == 0 {
		return token0 + "-" + token1
	}
	return fmt.Sprintf("%s-%s-%d", token0, token1, fee)
}
