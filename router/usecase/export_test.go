package usecase

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// Test-only exports.

var (
	EnumerateRoutes  = enumerateRoutes
	GetBestSwapRoute = getBestSwapRoute
	PercentGrid      = percentGrid
	SelectPools      = selectSubgraphPools
)

type QuotedRoute = quotedRoute

func NewQuotedRoute(r domain.Route, byPercent map[int]domain.RouteWithQuote) quotedRoute {
	return quotedRoute{route: r, byPercent: byPercent}
}

type SelectionContext = selectionContext

func NewSelectionContext(tokenIn, tokenOut, wrappedNative, usdToken domain.Token, tradeType domain.TradeType, config domain.PoolSelectionConfig, baseTokens []domain.Token, blockedTokens ...common.Address) selectionContext {
	blocked := make(map[string]struct{}, len(blockedTokens))
	for _, addr := range blockedTokens {
		blocked[addressHex(addr)] = struct{}{}
	}
	return selectionContext{
		tokenIn:       tokenIn,
		tokenOut:      tokenOut,
		wrappedNative: wrappedNative,
		usdToken:      usdToken,
		tradeType:     tradeType,
		config:        config,
		baseTokens:    baseTokens,
		blocked:       blocked,
	}
}

type GasModel = gasModel

func NewGasModelForTest(chainID domain.ChainID, gasPriceWei *big.Int, wrappedNative, usdToken, quoteToken domain.Token, pools gasModelPools, overhead uint64) *gasModel {
	return newGasModel(chainID, gasPriceWei, wrappedNative, usdToken, quoteToken, nil, pools, overhead)
}

type GasModelPools = gasModelPools

func NewGasModelPools(usdNative, nativeQuote *domain.V3Pool) gasModelPools {
	return gasModelPools{USDNativePool: usdNative, NativeQuotePool: nativeQuote}
}

func (g *gasModel) EstimateGas(r domain.Route, v3Data *domain.V3QuoteData) uint64 {
	return g.estimateGas(r, v3Data)
}

func (g *gasModel) Costs(gasUsed uint64) (domain.CurrencyAmount, decimal.Decimal, *domain.CurrencyAmount) {
	return g.costs(gasUsed)
}
