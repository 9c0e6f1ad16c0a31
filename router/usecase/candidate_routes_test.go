package usecase_test

import (
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/router/usecase"
)

func (s *RouterTestSuite) TestEnumerateRoutes_FindsDirectAndMultiHop() {
	pools := []domain.Pool{
		newV3Pool(1, USDC, WETH, domain.FeeTierMedium),
		newV3Pool(2, WETH, DAI, domain.FeeTierMedium),
		newV3Pool(3, USDC, DAI, domain.FeeTierLow),
	}

	routes := usecase.EnumerateRoutes(pools, USDC, DAI, 3, false, &log.NoOpLogger{})

	// Direct through pool 3 and two-hop through pools 1 and 2.
	s.Require().Len(routes, 2)

	for _, r := range routes {
		s.Require().True(r.Input().Equal(USDC))
		s.Require().True(r.Output().Equal(DAI))
		s.Require().LessOrEqual(len(r.Pools()), 3)

		// Adjacent pools share a token and no pool repeats.
		seen := map[string]struct{}{}
		path := r.TokenPath()
		for i, pool := range r.Pools() {
			s.Require().True(pool.InvolvesToken(path[i]))
			s.Require().True(pool.InvolvesToken(path[i+1]))
			_, dup := seen[pool.ID()]
			s.Require().False(dup)
			seen[pool.ID()] = struct{}{}
		}
	}
}

func (s *RouterTestSuite) TestEnumerateRoutes_HonorsHopLimit() {
	pools := []domain.Pool{
		newV3Pool(1, USDC, WETH, domain.FeeTierMedium),
		newV3Pool(2, WETH, USDT, domain.FeeTierMedium),
		newV3Pool(3, USDT, DAI, domain.FeeTierMedium),
	}

	s.Require().Empty(usecase.EnumerateRoutes(pools, USDC, DAI, 2, false, &log.NoOpLogger{}))
	s.Require().Len(usecase.EnumerateRoutes(pools, USDC, DAI, 3, false, &log.NoOpLogger{}), 1)
}

func (s *RouterTestSuite) TestEnumerateRoutes_MixedDiscriminator() {
	pools := []domain.Pool{
		newV3Pool(1, USDC, WETH, domain.FeeTierMedium),
		newV2Pool(2, WETH, DAI),
		newV3Pool(3, USDC, DAI, domain.FeeTierLow),
	}

	routes := usecase.EnumerateRoutes(pools, USDC, DAI, 3, true, &log.NoOpLogger{})

	// Only the V3+V2 two-hop survives; the direct single-protocol route is
	// filtered out.
	s.Require().Len(routes, 1)
	s.Require().Equal(domain.ProtocolMixed, routes[0].Protocol())
	s.Require().GreaterOrEqual(len(routes[0].Pools()), 2)
}

func (s *RouterTestSuite) TestEnumerateRoutes_StablePoolIdentityByPoolID() {
	// A three-token stable pool appears once even though it projects onto
	// multiple token pairs.
	stable := newStablePool(7, USDC, DAI, USDT)
	pools := []domain.Pool{stable}

	routes := usecase.EnumerateRoutes(pools, USDC, DAI, 3, false, &log.NoOpLogger{})
	s.Require().Len(routes, 1)
	s.Require().Len(routes[0].Pools(), 1)
}

func (s *RouterTestSuite) TestEnumerateRoutes_NoTokenRevisit() {
	pools := []domain.Pool{
		newV3Pool(1, USDC, WETH, domain.FeeTierMedium),
		newV3Pool(2, WETH, DAI, domain.FeeTierMedium),
		newV3Pool(3, DAI, USDC, domain.FeeTierMedium),
		newV3Pool(4, DAI, USDT, domain.FeeTierMedium),
	}

	routes := usecase.EnumerateRoutes(pools, USDC, USDT, 5, false, &log.NoOpLogger{})

	for _, r := range routes {
		seen := map[string]struct{}{}
		for _, token := range r.TokenPath() {
			_, dup := seen[token.Key()]
			s.Require().False(dup, "token revisited in %s", r)
			seen[token.Key()] = struct{}{}
		}
	}
}
