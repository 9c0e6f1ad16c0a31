package subgraph

import (
	"context"
	"net/http"
	"time"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/sorutil/sorhttp"
)

// uriProvider pulls a pre-built pool snapshot from a hosted JSON document.
type uriProvider struct {
	uri      string
	protocol domain.Protocol
	client   *http.Client
}

// NewURIProvider creates a snapshot-backed subgraph provider.
// The document is a JSON array of domain.SubgraphPool.
func NewURIProvider(uri string, protocol domain.Protocol, timeout time.Duration) mvc.SubgraphProvider {
	return &uriProvider{
		uri:      uri,
		protocol: protocol,
		client:   &http.Client{Timeout: timeout},
	}
}

// Protocol implements mvc.SubgraphProvider.
func (p *uriProvider) Protocol() domain.Protocol {
	return p.protocol
}

// ListPools implements mvc.SubgraphProvider.
func (p *uriProvider) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	pools, err := sorhttp.Get[[]domain.SubgraphPool](p.client, p.uri, "")
	if err != nil {
		return nil, err
	}

	// Snapshots may mix protocols; serve only this provider's share.
	owned := make([]domain.SubgraphPool, 0, len(*pools))
	for _, pool := range *pools {
		if pool.Protocol == p.protocol {
			owned = append(owned, pool)
		}
	}

	return filterByTokens(owned, tokenIn, tokenOut), nil
}
