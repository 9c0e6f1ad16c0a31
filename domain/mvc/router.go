package mvc

import (
	"context"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// RouterUsecase represent the router's usecases
type RouterUsecase interface {
	// GetQuote returns the highest-value routing plan for swapping the given
	// fixed amount into (or out of) the quote token.
	// Returns nil plan and domain.ErrNoRouteFound when no protocol produced a
	// viable route.
	// Returns error if:
	// - the chain is unsupported
	// - the input is invalid (equal tokens, non-positive amount)
	// - exact-out is requested with an explicit protocol list that includes
	//   a protocol other than V2 and V3
	// - all protocols failed to load
	GetQuote(ctx context.Context, amount domain.CurrencyAmount, quoteToken domain.Token, tradeType domain.TradeType, swapConfig *domain.SwapConfig, options *domain.RoutingOptions) (*domain.Quote, error)

	// GetCandidateRoutes returns the enumerated candidate routes for the given
	// token pair without quoting them.
	GetCandidateRoutes(ctx context.Context, tokenIn, tokenOut domain.Token, options *domain.RoutingOptions) ([]domain.Route, error)

	// GetConfig returns the router config.
	GetConfig() domain.RouterConfig
}

// BlockProvider resolves the latest chain height, used to pin an invocation
// to a single block when the caller did not.
type BlockProvider interface {
	GetLatestHeight(ctx context.Context) (uint64, error)
}
