package usecase_test

import (
	"context"
	"math/big"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// seedDirectV3Market wires a single-protocol V3 market around USDC/DAI.
func (f *routerFixture) seedDirectV3Market() {
	direct := newV3Pool(1, USDC, DAI, domain.FeeTierLow)
	nativeUSD := newV3Pool(2, WETH, USDC, domain.FeeTierLow)
	nativeQuote := newV3Pool(3, WETH, DAI, domain.FeeTierLow)

	f.v3Subgraph.WithPools([]domain.SubgraphPool{
		subgraphDescriptor(direct, 9_000),
		subgraphDescriptor(nativeUSD, 8_000),
		subgraphDescriptor(nativeQuote, 7_000),
	})
	f.v3Pools.Pools = []*domain.V3Pool{direct, nativeUSD, nativeQuote}
	f.v2Subgraph.WithPools(nil)
	f.stableSubgraph.WithPools(nil)
}

func (s *RouterTestSuite) TestGetQuote_DirectSingleProtocol() {
	f := s.newRouterFixture(defaultTestConfig())
	f.seedDirectV3Market()

	// The quoter prices 99 out per 100 in.
	f.quotes.QuoteFunc = func(r domain.Route, amount domain.CurrencyAmount) *big.Int {
		raw := amount.Quotient()
		return new(big.Int).Quo(new(big.Int).Mul(raw, big.NewInt(99)), big.NewInt(100))
	}

	amount := domain.NewCurrencyAmount(USDC, big.NewInt(1_000_000_000))
	options := &domain.RoutingOptions{
		Protocols:       []domain.Protocol{domain.ProtocolV3},
		V3PoolSelection: defaultSelection(),
	}

	plan, err := f.router.GetQuote(context.Background(), amount, DAI, domain.TradeTypeExactInput, nil, options)
	s.Require().NoError(err)
	s.Require().NotNil(plan)

	s.Require().NotEmpty(plan.Routes)
	s.Require().LessOrEqual(len(plan.Routes), 3)

	total := 0
	for _, rwq := range plan.Routes {
		s.Require().Equal(domain.ProtocolV3, rwq.Route.Protocol())
		total += rwq.Percent
	}
	s.Require().Equal(100, total)

	s.Require().Positive(plan.Quote.Sign())
	s.Require().Positive(plan.QuoteGasAdjusted.Sign())
	s.Require().NotNil(plan.MethodParameters)
	s.Require().NotEmpty(plan.MethodParameters.Calldata)
	s.Require().Equal(uint64(19_000_000), plan.BlockNumber)
}

func (s *RouterTestSuite) TestGetQuote_NoLiquidity() {
	f := s.newRouterFixture(defaultTestConfig())
	f.v2Subgraph.WithPools(nil)
	f.v3Subgraph.WithPools(nil)
	f.stableSubgraph.WithPools(nil)

	amount := domain.NewCurrencyAmount(USDC, big.NewInt(1_000_000))
	_, err := f.router.GetQuote(context.Background(), amount, DAI, domain.TradeTypeExactInput, nil, &domain.RoutingOptions{
		V3PoolSelection: defaultSelection(),
	})
	s.Require().ErrorIs(err, domain.ErrNoRouteFound)
}

func (s *RouterTestSuite) TestGetQuote_InvalidInput() {
	f := s.newRouterFixture(defaultTestConfig())

	// Equal tokens.
	amount := domain.NewCurrencyAmount(USDC, big.NewInt(100))
	_, err := f.router.GetQuote(context.Background(), amount, USDC, domain.TradeTypeExactInput, nil, nil)
	s.Require().ErrorIs(err, domain.ErrInvalidInput)

	// Non-positive amount.
	zero := domain.NewCurrencyAmount(USDC, big.NewInt(0))
	_, err = f.router.GetQuote(context.Background(), zero, DAI, domain.TradeTypeExactInput, nil, nil)
	s.Require().ErrorIs(err, domain.ErrInvalidInput)
}

func (s *RouterTestSuite) TestGetQuote_ExactOutStableRejected() {
	f := s.newRouterFixture(defaultTestConfig())

	amount := domain.NewCurrencyAmount(DAI, big.NewInt(500))
	_, err := f.router.GetQuote(context.Background(), amount, USDC, domain.TradeTypeExactOutput, nil, &domain.RoutingOptions{
		Protocols: []domain.Protocol{domain.ProtocolStable},
	})
	s.Require().ErrorIs(err, domain.ErrUnsupportedTradeType)
}

func (s *RouterTestSuite) TestGetQuote_ExactOutViaV2() {
	f := s.newRouterFixture(defaultTestConfig())

	pair := newV2Pool(1, USDC, DAI)
	f.v2Subgraph.WithPools([]domain.SubgraphPool{subgraphDescriptor(pair, 5_000)})
	f.v2Pools.Pools = []*domain.V2Pool{pair}
	f.v3Subgraph.WithPools(nil)
	f.stableSubgraph.WithPools(nil)

	// The quoter reports the input needed as 101% of the requested output.
	f.quotes.QuoteFunc = func(r domain.Route, amount domain.CurrencyAmount) *big.Int {
		raw := amount.Quotient()
		return new(big.Int).Quo(new(big.Int).Mul(raw, big.NewInt(101)), big.NewInt(100))
	}

	// Exact-out 500 DAI paying USDC.
	amount := domain.NewCurrencyAmount(DAI, big.NewInt(500_000_000))
	plan, err := f.router.GetQuote(context.Background(), amount, USDC, domain.TradeTypeExactOutput, nil, &domain.RoutingOptions{
		Protocols:       []domain.Protocol{domain.ProtocolV2},
		V2PoolSelection: defaultSelection(),
		V3PoolSelection: defaultSelection(),
	})
	s.Require().NoError(err)
	s.Require().NotNil(plan)

	s.Require().Equal(domain.TradeTypeExactOutput, plan.TradeType)
	// The input needed, adjusted for gas, is at least the nominal quote.
	s.Require().GreaterOrEqual(plan.QuoteGasAdjusted.Cmp(plan.Quote), 0)
	s.Require().True(plan.Quote.Token.Equal(USDC))
}

func (s *RouterTestSuite) TestGetQuote_Deterministic() {
	f := s.newRouterFixture(defaultTestConfig())
	f.seedDirectV3Market()

	f.quotes.QuoteFunc = func(r domain.Route, amount domain.CurrencyAmount) *big.Int {
		return amount.Quotient()
	}

	amount := domain.NewCurrencyAmount(USDC, big.NewInt(1_000_000))
	options := func() *domain.RoutingOptions {
		return &domain.RoutingOptions{
			Protocols:       []domain.Protocol{domain.ProtocolV3},
			V3PoolSelection: defaultSelection(),
			BlockNumber:     19_000_000,
		}
	}

	first, err := f.router.GetQuote(context.Background(), amount, DAI, domain.TradeTypeExactInput, nil, options())
	s.Require().NoError(err)
	second, err := f.router.GetQuote(context.Background(), amount, DAI, domain.TradeTypeExactInput, nil, options())
	s.Require().NoError(err)

	s.Require().Equal(len(first.Routes), len(second.Routes))
	for i := range first.Routes {
		s.Require().Equal(first.Routes[i].Route.ID(), second.Routes[i].Route.ID())
		s.Require().Equal(first.Routes[i].Percent, second.Routes[i].Percent)
	}
	s.Require().Zero(first.Quote.Cmp(second.Quote))
}

func (s *RouterTestSuite) TestGetCandidateRoutes() {
	f := s.newRouterFixture(defaultTestConfig())
	f.seedDirectV3Market()

	routes, err := f.router.GetCandidateRoutes(context.Background(), USDC, DAI, &domain.RoutingOptions{
		Protocols:       []domain.Protocol{domain.ProtocolV3},
		V3PoolSelection: defaultSelection(),
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(routes)

	for _, r := range routes {
		s.Require().True(r.Input().Equal(USDC))
		s.Require().True(r.Output().Equal(DAI))
	}
}
