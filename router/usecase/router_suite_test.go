package usecase_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mocks"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/router/usecase"
	"github.com/Maia-DAO/smart-order-router/router/usecase/route"
)

type RouterTestSuite struct {
	suite.Suite
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

// Fixture tokens. WETH and USDC share addresses with the chain registry so
// wrapped-native and USD reference lookups resolve.
var (
	WETH = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH")
	USDC = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC")
	DAI = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), 18, "DAI")
	USDT = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), 6, "USDT")
)

func poolAddress(n byte) common.Address {
	var addr common.Address
	addr[0] = 0x70
	addr[19] = n
	return addr
}

func newV3Pool(n byte, tokenA, tokenB domain.Token, fee domain.FeeTier) *domain.V3Pool {
	token0, token1 := tokenA, tokenB
	if token1.SortsBefore(token0) {
		token0, token1 = token1, token0
	}
	return &domain.V3Pool{
		ChainID:      domain.ChainMainnet,
		PoolAddress:  poolAddress(n),
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		Liquidity:    big.NewInt(1_000_000),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
	}
}

func newV2Pool(n byte, tokenA, tokenB domain.Token) *domain.V2Pool {
	token0, token1 := tokenA, tokenB
	if token1.SortsBefore(token0) {
		token0, token1 = token1, token0
	}
	return &domain.V2Pool{
		ChainID:     domain.ChainMainnet,
		PoolAddress: poolAddress(n),
		Token0:      token0,
		Token1:      token1,
		Reserve0:    big.NewInt(1_000_000_000),
		Reserve1:    big.NewInt(1_000_000_000),
	}
}

func newStablePool(n byte, tokens ...domain.Token) *domain.StablePool {
	var id common.Hash
	id[31] = n
	balances := make([]*big.Int, len(tokens))
	factors := make([]*big.Int, len(tokens))
	for i := range tokens {
		balances[i] = big.NewInt(1_000_000_000)
		factors[i] = big.NewInt(1)
	}
	return &domain.StablePool{
		ChainID:        domain.ChainMainnet,
		PoolID:         id,
		PoolAddress:    poolAddress(n),
		TokensList:     tokens,
		Amplification:  big.NewInt(200),
		SwapFee:        big.NewInt(100_000_000_000_000),
		TotalShares:    big.NewInt(1_000_000),
		Balances:       balances,
		ScalingFactors: factors,
	}
}

func mustRoute(s *RouterTestSuite, pools []domain.Pool, tokenPath []domain.Token) domain.Route {
	r, err := route.NewRoute(pools, tokenPath)
	s.Require().NoError(err)
	return r
}

func subgraphDescriptor(pool domain.Pool, tvlUSD int64) domain.SubgraphPool {
	descriptor := domain.SubgraphPool{
		ID:       poolDescriptorID(pool),
		Protocol: pool.Protocol(),
		TVLUSD:   decimal.NewFromInt(tvlUSD),
	}
	for _, token := range pool.Tokens() {
		descriptor.TokenIDs = append(descriptor.TokenIDs, lowerHex(token.Address))
	}
	if v3, ok := pool.(*domain.V3Pool); ok {
		descriptor.FeeTier = v3.Fee
	}
	return descriptor
}

func poolDescriptorID(pool domain.Pool) string {
	switch typed := pool.(type) {
	case *domain.StablePool:
		return typed.PoolID.Hex()
	default:
		return lowerHex(pool.Address())
	}
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// fixtureTokens registers the fixture token metadata for the mock resolver.
func fixtureTokens() map[common.Address]domain.Token {
	return map[common.Address]domain.Token{
		WETH.Address: WETH,
		USDC.Address: USDC,
		DAI.Address:  DAI,
		USDT.Address: USDT,
	}
}

// routerFixture wires a router use case over mocks.
type routerFixture struct {
	v2Subgraph     *mocks.SubgraphProviderMock
	v3Subgraph     *mocks.SubgraphProviderMock
	stableSubgraph *mocks.SubgraphProviderMock

	v2Pools     *mocks.V2PoolProviderMock
	v3Pools     *mocks.V3PoolProviderMock
	stablePools *mocks.StablePoolProviderMock

	quotes *mocks.QuoteFetcherMock

	router mvc.RouterUsecase
}

func (s *RouterTestSuite) newRouterFixture(config domain.RouterConfig) *routerFixture {
	f := &routerFixture{
		v2Subgraph:     &mocks.SubgraphProviderMock{ProtocolValue: domain.ProtocolV2},
		v3Subgraph:     &mocks.SubgraphProviderMock{ProtocolValue: domain.ProtocolV3},
		stableSubgraph: &mocks.SubgraphProviderMock{ProtocolValue: domain.ProtocolStable},
		v2Pools:        &mocks.V2PoolProviderMock{},
		v3Pools:        &mocks.V3PoolProviderMock{},
		stablePools:    &mocks.StablePoolProviderMock{},
		quotes:         &mocks.QuoteFetcherMock{},
	}

	router, err := usecase.NewRouterUsecase(
		domain.ChainMainnet,
		config,
		f.v2Subgraph, f.v3Subgraph, f.stableSubgraph,
		f.v2Pools, f.v3Pools, f.stablePools,
		&mocks.TokensUsecaseMock{Tokens: fixtureTokens()},
		f.quotes, f.quotes, f.quotes, f.quotes,
		&mocks.GasPriceProviderMock{GasPriceWei: big.NewInt(0)},
		nil,
		&mocks.BlockProviderMock{Height: 19_000_000},
		&log.NoOpLogger{},
	)
	s.Require().NoError(err)
	f.router = router

	return f
}

func defaultTestConfig() domain.RouterConfig {
	return domain.RouterConfig{
		MaxSwapsPerPath:     3,
		MaxRoutes:           10,
		MinSplits:           1,
		MaxSplits:           3,
		DistributionPercent: 25,
	}
}

func defaultSelection() domain.PoolSelectionConfig {
	return domain.PoolSelectionConfig{
		TopN:                  4,
		TopNDirectSwaps:       2,
		TopNTokenInOut:        3,
		TopNSecondHop:         2,
		TopNWithEachBaseToken: 2,
		TopNWithBaseToken:     4,
	}
}
