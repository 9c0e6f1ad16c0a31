package usecase

import (
	"context"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/multicall"
)

// The quote fetchers simulate swaps through on-chain quoter contracts
// instead of re-implementing per-protocol pricing math off-chain. Each
// (route, amount) pair becomes one view call routed through the multicall
// halving batcher; reverted quotes surface as nil and are skipped by the
// split optimizer.

var quoteFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sor_quote_failures_total",
		Help: "Total number of (route, amount) pairs the on-chain quoter reverted on",
	},
	[]string{"protocol"},
)

func init() {
	prometheus.MustRegister(quoteFailures)
}

// quoteBatch executes the prepared calls and slots the decoded quotes back
// into per-route, per-amount order.
type quoteBatch struct {
	batcher *multicall.Batcher
	calls   []multicall.Call

	// decode turns one successful result into an AmountQuote body.
	decode func(result multicall.Result, routeIdx, amountIdx int) (*big.Int, *domain.V3QuoteData, uint64, bool)

	protocol domain.Protocol
}

// run executes the batch and assembles the RouteQuotes grid.
// calls must be laid out route-major: call i*len(amounts)+j quotes route i
// at amount j.
func (b *quoteBatch) run(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	results, _, err := b.batcher.Execute(ctx, b.calls, blockNumber)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RouteQuotes, 0, len(routes))
	for i, r := range routes {
		quotes := make([]domain.AmountQuote, 0, len(amounts))
		for j, amount := range amounts {
			result := results[i*len(amounts)+j]

			aq := domain.AmountQuote{Amount: amount}
			if result.Success && !result.Fatal {
				if quote, v3Data, gasEstimate, ok := b.decode(result, i, j); ok {
					aq.Quote = quote
					aq.GasEstimate = gasEstimate
					if v3Data != nil {
						aq.SqrtPriceX96AfterList = v3Data.SqrtPriceX96AfterList
						aq.InitializedTicksCrossedList = v3Data.InitializedTicksCrossedList
					}
				}
			}
			if aq.Quote == nil {
				quoteFailures.WithLabelValues(string(b.protocol)).Inc()
			}

			quotes = append(quotes, aq)
		}
		out = append(out, domain.RouteQuotes{Route: r, Quotes: quotes})
	}

	return out, nil
}
