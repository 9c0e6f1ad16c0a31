package mvc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// TokenAccessor exposes resolved token metadata.
type TokenAccessor interface {
	GetTokenByAddress(address common.Address) (domain.Token, bool)
	GetTokenBySymbol(symbol string) (domain.Token, bool)
	GetAllTokens() []domain.Token
}

// TokensUsecase resolves token addresses to (symbol, decimals) metadata.
// Tokens whose symbol and decimals both fail to decode are dropped.
type TokensUsecase interface {
	GetTokens(ctx context.Context, addresses []common.Address, blockNumber uint64) (TokenAccessor, error)
}

// SubgraphProvider lists all known pools of one protocol with coarse TVL.
// tokenIn and tokenOut narrow the listing when the backing source supports it;
// nil means unfiltered.
type SubgraphProvider interface {
	ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error)
	Protocol() domain.Protocol
}

// QuoteFetcher computes on-chain quotes for (route, amount) pairs of a single
// protocol family. Result order matches the input routes and amounts.
type QuoteFetcher interface {
	// GetQuotesExactIn quotes swapping each amount of route input into route output.
	GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error)
	// GetQuotesExactOut quotes the input needed to receive each amount.
	// Returns domain.ErrUnsupportedTradeType for protocols that only
	// support exact-in quoting.
	GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error)
}
