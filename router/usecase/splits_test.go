package usecase_test

import (
	"math/big"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/router/usecase"
)

// quotedFixture builds a DP candidate whose quote scales with the fraction
// according to outPerPercent.
func quotedFixture(s *RouterTestSuite, r domain.Route, distribution int, outPerPercent map[int]int64) usecase.QuotedRoute {
	byPercent := make(map[int]domain.RouteWithQuote)
	for _, percent := range usecase.PercentGrid(distribution) {
		out, ok := outPerPercent[percent]
		if !ok {
			continue
		}
		quote := domain.NewCurrencyAmount(DAI, big.NewInt(out))
		byPercent[percent] = domain.RouteWithQuote{
			Route:               r,
			Percent:             percent,
			Amount:              domain.NewCurrencyAmount(USDC, big.NewInt(int64(percent))),
			Quote:               quote,
			QuoteAdjustedForGas: quote,
		}
	}
	return usecase.NewQuotedRoute(r, byPercent)
}

// linearQuotes fills every grid step with out = perPercent * percent.
func linearQuotes(distribution int, perPercent int64) map[int]int64 {
	out := make(map[int]int64)
	for p := distribution; p <= 100; p += distribution {
		out[p] = perPercent * int64(p)
	}
	return out
}

func (s *RouterTestSuite) TestGetBestSwapRoute_SingleRouteWins() {
	routeA := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	routeB := mustRoute(s, []domain.Pool{newV3Pool(2, USDC, DAI, domain.FeeTierMedium)}, []domain.Token{USDC, DAI})

	quoted := []usecase.QuotedRoute{
		quotedFixture(s, routeA, 25, linearQuotes(25, 100)),
		quotedFixture(s, routeB, 25, linearQuotes(25, 90)),
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, quoted, 25, 1, 3, false)
	s.Require().Len(best, 1)
	s.Require().Equal(routeA.ID(), best[0].Route.ID())
	s.Require().Equal(100, best[0].Percent)
}

func (s *RouterTestSuite) TestGetBestSwapRoute_SplitBeatsSingle() {
	// Route A degrades sharply above 50%; route B is linear. The best plan
	// splits 50/50.
	routeA := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	routeB := mustRoute(s, []domain.Pool{newV3Pool(2, USDC, DAI, domain.FeeTierMedium)}, []domain.Token{USDC, DAI})

	concaveA := map[int]int64{50: 6_000, 100: 7_000}
	linearB := map[int]int64{50: 5_000, 100: 5_500}

	quoted := []usecase.QuotedRoute{
		quotedFixture(s, routeA, 50, concaveA),
		quotedFixture(s, routeB, 50, linearB),
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, quoted, 50, 1, 3, false)
	s.Require().Len(best, 2)

	total := 0
	aggregate := int64(0)
	for _, rwq := range best {
		total += rwq.Percent
		aggregate += rwq.Quote.Quotient().Int64()
	}
	s.Require().Equal(100, total)
	s.Require().Equal(int64(11_000), aggregate)
}

func (s *RouterTestSuite) TestGetBestSwapRoute_FractionClosure() {
	routes := make([]usecase.QuotedRoute, 0, 4)
	for i := byte(1); i <= 4; i++ {
		r := mustRoute(s, []domain.Pool{newV3Pool(i, USDC, DAI, domain.FeeTier(100*uint32(i)))}, []domain.Token{USDC, DAI})
		routes = append(routes, quotedFixture(s, r, 10, linearQuotes(10, int64(i)*10)))
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, routes, 10, 1, 4, false)
	s.Require().NotNil(best)

	total := 0
	for _, rwq := range best {
		s.Require().Positive(rwq.Percent)
		s.Require().Zero(rwq.Percent % 10)
		total += rwq.Percent
	}
	s.Require().Equal(100, total)
	s.Require().LessOrEqual(len(best), 4)
}

func (s *RouterTestSuite) TestGetBestSwapRoute_ExactOutMinimizesInput() {
	routeA := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	routeB := mustRoute(s, []domain.Pool{newV3Pool(2, USDC, DAI, domain.FeeTierMedium)}, []domain.Token{USDC, DAI})

	quoted := []usecase.QuotedRoute{
		quotedFixture(s, routeA, 50, linearQuotes(50, 100)),
		quotedFixture(s, routeB, 50, linearQuotes(50, 90)),
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactOutput, quoted, 50, 1, 2, false)
	s.Require().Len(best, 1)
	// Exact-out prefers the smaller required input.
	s.Require().Equal(routeB.ID(), best[0].Route.ID())
}

func (s *RouterTestSuite) TestGetBestSwapRoute_ForceCrossProtocol() {
	v3Route := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	v2Route := mustRoute(s, []domain.Pool{newV2Pool(2, USDC, DAI)}, []domain.Token{USDC, DAI})

	// The single V3 route dominates, but the flag demands two protocols.
	quoted := []usecase.QuotedRoute{
		quotedFixture(s, v3Route, 50, linearQuotes(50, 100)),
		quotedFixture(s, v2Route, 50, linearQuotes(50, 10)),
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, quoted, 50, 1, 2, true)
	s.Require().Len(best, 2)

	protocols := map[domain.Protocol]struct{}{}
	for _, rwq := range best {
		protocols[rwq.Route.Protocol()] = struct{}{}
	}
	s.Require().Len(protocols, 2)
}

func (s *RouterTestSuite) TestGetBestSwapRoute_Deterministic() {
	routes := make([]usecase.QuotedRoute, 0, 3)
	for i := byte(1); i <= 3; i++ {
		r := mustRoute(s, []domain.Pool{newV3Pool(i, USDC, DAI, domain.FeeTier(100*uint32(i)))}, []domain.Token{USDC, DAI})
		routes = append(routes, quotedFixture(s, r, 25, linearQuotes(25, 50)))
	}

	first := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, routes, 25, 1, 3, false)
	second := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, routes, 25, 1, 3, false)

	s.Require().Equal(len(first), len(second))
	for i := range first {
		s.Require().Equal(first[i].Route.ID(), second[i].Route.ID())
		s.Require().Equal(first[i].Percent, second[i].Percent)
	}
}

func (s *RouterTestSuite) TestGetBestSwapRoute_NoFillPossible() {
	r := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})

	// Only a 50% quote exists; a single route cannot reach 100% and there is
	// no second route to split with.
	quoted := []usecase.QuotedRoute{
		quotedFixture(s, r, 50, map[int]int64{50: 100}),
	}

	best := usecase.GetBestSwapRoute(domain.TradeTypeExactInput, quoted, 50, 1, 3, false)
	s.Require().Nil(best)
}
