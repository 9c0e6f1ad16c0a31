package usecase_test

import (
	"math/big"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/router/usecase"
)

// referencePool returns a native/USDC pool priced at 1:1 in raw units.
func (s *RouterTestSuite) referencePool(n byte, tokenA, tokenB domain.Token) *domain.V3Pool {
	pool := newV3Pool(n, tokenA, tokenB, domain.FeeTierLow)
	// sqrtPriceX96 = 2^96 means token1/token0 = 1 in raw units.
	pool.SqrtPriceX96 = new(big.Int).Lsh(big.NewInt(1), 96)
	return pool
}

func (s *RouterTestSuite) TestEstimateGas_PerProtocol() {
	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(1), WETH, USDC, DAI, usecase.GasModelPools{}, 0)

	v3Route := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	v2Route := mustRoute(s, []domain.Pool{newV2Pool(2, USDC, DAI)}, []domain.Token{USDC, DAI})
	stableRoute := mustRoute(s, []domain.Pool{newStablePool(3, USDC, DAI)}, []domain.Token{USDC, DAI})

	// V3: base + one hop.
	s.Require().Equal(uint64(2_000+80), model.EstimateGas(v3Route, nil))
	// V2: base only for a single hop.
	s.Require().Equal(uint64(135_000), model.EstimateGas(v2Route, nil))
	// Stable: base + one hop.
	s.Require().Equal(uint64(120_000+70_000), model.EstimateGas(stableRoute, nil))
}

func (s *RouterTestSuite) TestEstimateGas_TickCrossings() {
	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(1), WETH, USDC, DAI, usecase.GasModelPools{}, 0)

	v3Route := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})

	withTicks := model.EstimateGas(v3Route, &domain.V3QuoteData{
		InitializedTicksCrossedList: []uint32{3},
	})
	s.Require().Equal(uint64(2_000+80+3*31_000), withTicks)
}

func (s *RouterTestSuite) TestEstimateGas_MixedPartitionsSections() {
	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(1), WETH, USDC, DAI, usecase.GasModelPools{}, 0)

	mixed := mustRoute(s, []domain.Pool{
		newV3Pool(1, USDC, WETH, domain.FeeTierMedium),
		newV3Pool(2, WETH, USDT, domain.FeeTierMedium),
		newStablePool(3, USDT, DAI),
	}, []domain.Token{USDC, WETH, USDT, DAI})

	// One V3 section of two hops plus one stable section of one hop.
	expected := uint64(2_000+2*80) + uint64(120_000+70_000)
	s.Require().Equal(expected, model.EstimateGas(mixed, nil))
}

func (s *RouterTestSuite) TestEstimateGas_AdditionalOverhead() {
	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(1), WETH, USDC, DAI, usecase.GasModelPools{}, 40_000)

	v3Route := mustRoute(s, []domain.Pool{newV3Pool(1, USDC, DAI, domain.FeeTierLow)}, []domain.Token{USDC, DAI})
	s.Require().Equal(uint64(40_000+2_000+80), model.EstimateGas(v3Route, nil))
}

func (s *RouterTestSuite) TestCosts_ConvertsThroughReferencePools() {
	usdNative := s.referencePool(10, WETH, USDC)
	nativeQuote := s.referencePool(11, WETH, DAI)

	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(2), WETH, USDC, DAI,
		usecase.NewGasModelPools(usdNative, nativeQuote), 0)

	quoteCost, usdCost, gasTokenCost := model.Costs(1_000)

	// 1000 gas at 2 wei = 2000 wei of native cost, converted 1:1 raw.
	s.Require().Equal(int64(2_000), quoteCost.Quotient().Int64())
	s.Require().True(quoteCost.Token.Equal(DAI))

	// 2000 raw USDC at 6 decimals.
	s.Require().Equal("0.002", usdCost.String())

	s.Require().Nil(gasTokenCost)
}

func (s *RouterTestSuite) TestCosts_MissingQuotePoolMeansZeroAdjustment() {
	model := usecase.NewGasModelForTest(domain.ChainMainnet, big.NewInt(2), WETH, USDC, DAI, usecase.GasModelPools{}, 0)

	quoteCost, usdCost, _ := model.Costs(1_000)
	s.Require().True(quoteCost.IsZero())
	s.Require().True(usdCost.IsZero())
}
