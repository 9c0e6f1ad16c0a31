package usecase_test

import (
	"github.com/shopspring/decimal"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/router/usecase"
)

func (s *RouterTestSuite) selectionFixtureUniverse() []domain.SubgraphPool {
	return []domain.SubgraphPool{
		subgraphDescriptor(newV3Pool(1, USDC, WETH, domain.FeeTierMedium), 9_000),
		subgraphDescriptor(newV3Pool(2, USDC, DAI, domain.FeeTierLow), 8_000),
		subgraphDescriptor(newV3Pool(3, WETH, DAI, domain.FeeTierMedium), 7_000),
		subgraphDescriptor(newV3Pool(4, USDT, WETH, domain.FeeTierMedium), 6_000),
		subgraphDescriptor(newV3Pool(5, USDT, DAI, domain.FeeTierLow), 5_000),
		subgraphDescriptor(newV3Pool(6, USDC, USDT, domain.FeeTierLowest), 4_000),
	}
}

func (s *RouterTestSuite) newSelectionContext(config domain.PoolSelectionConfig) usecase.SelectionContext {
	return usecase.NewSelectionContext(USDC, DAI, WETH, USDC, domain.TradeTypeExactInput, config, []domain.Token{WETH, USDC, DAI})
}

func (s *RouterTestSuite) TestSelectPools_DirectPoolIncluded() {
	selected := usecase.SelectPools(s.selectionFixtureUniverse(), s.newSelectionContext(defaultSelection()), domain.ProtocolV3, &log.NoOpLogger{})

	ids := map[string]struct{}{}
	for _, pool := range selected {
		ids[pool.ID] = struct{}{}
	}

	// The direct USDC/DAI pool must be among the candidates.
	direct := subgraphDescriptor(newV3Pool(2, USDC, DAI, domain.FeeTierLow), 0)
	_, found := ids[direct.ID]
	s.Require().True(found)

	// No duplicates across buckets.
	s.Require().Len(ids, len(selected))
}

func (s *RouterTestSuite) TestSelectPools_SyntheticDirectWhenUnknown() {
	// Universe with no direct USDC/DAI pool.
	universe := []domain.SubgraphPool{
		subgraphDescriptor(newV3Pool(1, USDC, WETH, domain.FeeTierMedium), 9_000),
		subgraphDescriptor(newV3Pool(3, WETH, DAI, domain.FeeTierMedium), 7_000),
	}

	selected := usecase.SelectPools(universe, s.newSelectionContext(defaultSelection()), domain.ProtocolV3, &log.NoOpLogger{})

	// One synthetic descriptor per fee tier.
	synthetic := 0
	for _, pool := range selected {
		if pool.TVLUSD.IsZero() && len(pool.TokenIDs) == 2 {
			synthetic++
		}
	}
	s.Require().Equal(len(domain.FeeTiers), synthetic)
}

func (s *RouterTestSuite) TestSelectPools_BlockedTokensFilteredUpFront() {
	universe := s.selectionFixtureUniverse()

	blockedCtx := usecase.NewSelectionContext(USDC, DAI, WETH, USDC, domain.TradeTypeExactInput, defaultSelection(),
		[]domain.Token{WETH, USDC, DAI}, USDT.Address)

	selected := usecase.SelectPools(universe, blockedCtx, domain.ProtocolV3, &log.NoOpLogger{})
	s.Require().NotEmpty(selected)

	for _, pool := range selected {
		for _, id := range pool.TokenIDs {
			s.Require().NotEqual(lowerHex(USDT.Address), id, "blocked token leaked into pool %s", pool.ID)
		}
	}
}

func (s *RouterTestSuite) TestSelectPools_MonotoneInCaps() {
	small := defaultSelection()
	small.TopN = 1
	small.TopNTokenInOut = 1
	small.TopNSecondHop = 1

	large := defaultSelection()
	large.TopN = 6
	large.TopNTokenInOut = 6
	large.TopNSecondHop = 6

	universe := s.selectionFixtureUniverse()

	smallSet := usecase.SelectPools(universe, s.newSelectionContext(small), domain.ProtocolV3, &log.NoOpLogger{})
	largeSet := usecase.SelectPools(universe, s.newSelectionContext(large), domain.ProtocolV3, &log.NoOpLogger{})

	largeIDs := map[string]struct{}{}
	for _, pool := range largeSet {
		largeIDs[pool.ID] = struct{}{}
	}

	// Raising caps can only enlarge the selected set.
	s.Require().GreaterOrEqual(len(largeSet), len(smallSet))
	for _, pool := range smallSet {
		_, found := largeIDs[pool.ID]
		s.Require().True(found, "pool %s lost when caps were raised", pool.ID)
	}
}

func (s *RouterTestSuite) TestSelectPools_TVLOrderingDeterministic() {
	// Two pools with identical TVL tie-break by ascending ID.
	poolA := subgraphDescriptor(newV3Pool(8, USDC, DAI, domain.FeeTierLow), 1_000)
	poolB := subgraphDescriptor(newV3Pool(9, USDC, DAI, domain.FeeTierMedium), 1_000)

	config := defaultSelection()
	config.TopNDirectSwaps = 1

	sctx := usecase.NewSelectionContext(USDC, DAI, WETH, USDC, domain.TradeTypeExactInput, config, nil)

	selected := usecase.SelectPools([]domain.SubgraphPool{poolB, poolA}, sctx, domain.ProtocolV3, &log.NoOpLogger{})

	var directs []string
	for _, pool := range selected {
		if !pool.TVLUSD.Equal(decimal.NewFromInt(1_000)) {
			continue
		}
		directs = append(directs, pool.ID)
	}
	s.Require().NotEmpty(directs)
	s.Require().Equal(poolA.ID, directs[0])
}

func (s *RouterTestSuite) TestSelectPools_StableWrapperCountsAsPoolToken() {
	// The wrapper token matches token-in, so the pool qualifies for the
	// token-in bucket even though token-in is not in its token list.
	wrapperPool := domain.SubgraphPool{
		ID:       "0x0000000000000000000000000000000000000000000000000000000000000077",
		Protocol: domain.ProtocolStable,
		TokenIDs: []string{lowerHex(DAI.Address), lowerHex(USDT.Address)},
		Wrapper:  lowerHex(USDC.Address),
		TVLUSD:   decimal.NewFromInt(500),
	}

	config := defaultSelection()
	sctx := usecase.NewSelectionContext(USDC, DAI, WETH, USDC, domain.TradeTypeExactInput, config, nil)

	selected := usecase.SelectPools([]domain.SubgraphPool{wrapperPool}, sctx, "", &log.NoOpLogger{})

	found := false
	for _, pool := range selected {
		if pool.ID == wrapperPool.ID {
			found = true
		}
	}
	s.Require().True(found)
}
