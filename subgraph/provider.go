package subgraph

import (
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
)

// The subgraph layer lists known pools with coarse TVL for candidate
// selection. Pool math never reads subgraph data.

// poolResponse is the raw indexer pool entity shared by the protocol queries.
type poolResponse struct {
	ID      string           `json:"id"`
	Token0  tokenResponse    `json:"token0"`
	Token1  tokenResponse    `json:"token1"`
	FeeTier string           `json:"feeTier"`
	Tokens  []tokenResponse  `json:"tokens"`
	Wrapper *wrapperResponse `json:"wrapper"`

	Liquidity   string `json:"liquidity"`
	TotalShares string `json:"totalShares"`

	ReserveNative string `json:"reserveETH"`
	ReserveUSD    string `json:"reserveUSD"`

	TVLNative string `json:"totalValueLockedETH"`
	TVLUSD    string `json:"totalValueLockedUSD"`
}

type tokenResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

type wrapperResponse struct {
	ID string `json:"id"`
}

// graphqlRequest is the POST body sent to the indexer.
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphqlResponse is the indexer envelope.
type graphqlResponse struct {
	Data struct {
		Pools []poolResponse `json:"pools"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

var _ mvc.SubgraphProvider = &remoteProvider{}
var _ mvc.SubgraphProvider = &staticProvider{}
var _ mvc.SubgraphProvider = &uriProvider{}
var _ mvc.SubgraphProvider = &fallbackProvider{}

// filterByTokens narrows pools to those involving both given tokens when set.
func filterByTokens(pools []domain.SubgraphPool, tokenIn, tokenOut *domain.Token) []domain.SubgraphPool {
	if tokenIn == nil && tokenOut == nil {
		return pools
	}

	filtered := make([]domain.SubgraphPool, 0, len(pools))
	for _, pool := range pools {
		if tokenIn != nil && !pool.InvolvesAddress(tokenIn.Address) {
			continue
		}
		if tokenOut != nil && !pool.InvolvesAddress(tokenOut.Address) {
			continue
		}
		filtered = append(filtered, pool)
	}
	return filtered
}
