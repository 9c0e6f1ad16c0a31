package usecase

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// The gas model is a heuristic: per-protocol base and per-hop costs, tick
// crossing costs for concentrated hops, and additive overheads for tokens
// with expensive transfer hooks. Native-denominated costs convert to the
// quote token and USD over reference pool mid prices, never via swap
// simulation.

const (
	v3BaseSwapCost    = uint64(2_000)
	v3CostPerHop      = uint64(80)
	v3CostPerInitTick = uint64(31_000)

	v2BaseSwapCost = uint64(135_000)
	v2CostPerHop   = uint64(50_000)

	stableBaseSwapCost = uint64(120_000)
	stableCostPerHop   = uint64(70_000)

	stableWrapperBaseSwapCost = uint64(60_000)
	stableWrapperCostPerHop   = uint64(40_000)
)

// v3BaseSwapCostByChain overrides the default base cost where execution is
// metered differently.
var v3BaseSwapCostByChain = map[domain.ChainID]uint64{
	domain.ChainArbitrum: 5_000,
	domain.ChainOptimism: 3_000,
}

// stableTokenOverhead adds transfer cost for tokens that do bookkeeping on
// transfer, e.g. snapshotting governance power.
var stableTokenOverhead = map[domain.ChainID]map[common.Address]uint64{
	domain.ChainMainnet: {
		// stETH rebasing transfer.
		common.HexToAddress("0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"): 30_000,
	},
}

// gasModelPools are the reference pools located during candidate selection.
type gasModelPools struct {
	// USDNativePool converts native cost to USD.
	USDNativePool *domain.V3Pool
	// NativeQuotePool converts native cost to the quote token. When nil the
	// route still participates, just with a zero gas adjustment.
	NativeQuotePool *domain.V3Pool
	// NativeGasTokenPool converts native cost to the caller's gas token.
	NativeGasTokenPool *domain.V3Pool
}

// gasModel estimates per-route execution gas and its cost conversions.
type gasModel struct {
	chainID       domain.ChainID
	gasPriceWei   *big.Int
	wrappedNative domain.Token
	usdToken      domain.Token
	quoteToken    domain.Token
	gasToken      *domain.Token
	pools         gasModelPools

	additionalOverhead uint64
}

func newGasModel(
	chainID domain.ChainID,
	gasPriceWei *big.Int,
	wrappedNative, usdToken, quoteToken domain.Token,
	gasToken *domain.Token,
	pools gasModelPools,
	additionalOverhead uint64,
) *gasModel {
	return &gasModel{
		chainID:            chainID,
		gasPriceWei:        gasPriceWei,
		wrappedNative:      wrappedNative,
		usdToken:           usdToken,
		quoteToken:         quoteToken,
		gasToken:           gasToken,
		pools:              pools,
		additionalOverhead: additionalOverhead,
	}
}

// estimateGas models the execution gas of one route. Mixed routes partition
// into maximal same-protocol sections, each charged its own base cost.
func (g *gasModel) estimateGas(r domain.Route, v3Data *domain.V3QuoteData) uint64 {
	pools := r.Pools()

	total := g.additionalOverhead

	sectionStart := 0
	for sectionStart < len(pools) {
		protocol := pools[sectionStart].Protocol()

		sectionEnd := sectionStart + 1
		for sectionEnd < len(pools) && pools[sectionEnd].Protocol() == protocol {
			sectionEnd++
		}
		hops := uint64(sectionEnd - sectionStart)

		switch protocol {
		case domain.ProtocolV3:
			base := v3BaseSwapCost
			if override, ok := v3BaseSwapCostByChain[g.chainID]; ok {
				base = override
			}
			total += base + v3CostPerHop*hops
		case domain.ProtocolV2:
			total += v2BaseSwapCost + v2CostPerHop*(hops-1)
		case domain.ProtocolStable:
			total += stableBaseSwapCost + stableCostPerHop*hops
			total += g.stableTokenOverheads(pools[sectionStart:sectionEnd])
		case domain.ProtocolStableWrapper:
			total += stableWrapperBaseSwapCost + stableWrapperCostPerHop*hops
		}

		sectionStart = sectionEnd
	}

	// Initialized tick crossings dominate concentrated swap cost.
	if v3Data != nil {
		for _, crossed := range v3Data.InitializedTicksCrossedList {
			total += v3CostPerInitTick * uint64(crossed)
		}
	}

	return total
}

func (g *gasModel) stableTokenOverheads(pools []domain.Pool) uint64 {
	overheads, ok := stableTokenOverhead[g.chainID]
	if !ok {
		return 0
	}

	total := uint64(0)
	for _, pool := range pools {
		for _, token := range pool.Tokens() {
			if overhead, hit := overheads[token.Address]; hit {
				total += overhead
			}
		}
	}
	return total
}

// costs converts a gas amount into quote-token, USD and optional gas-token
// terms at the current gas price.
func (g *gasModel) costs(gasUsed uint64) (domain.CurrencyAmount, decimal.Decimal, *domain.CurrencyAmount) {
	costWei := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), g.gasPriceWei)
	nativeCost := domain.NewCurrencyAmount(g.wrappedNative, costWei)

	quoteCost := domain.ZeroAmount(g.quoteToken)
	if g.quoteToken.Equal(g.wrappedNative) {
		quoteCost = nativeCost
	} else if g.pools.NativeQuotePool != nil {
		quoteCost = convertByMidPrice(g.pools.NativeQuotePool, nativeCost, g.quoteToken)
	}

	usdCost := decimal.Zero
	if g.pools.USDNativePool != nil {
		usdAmount := convertByMidPrice(g.pools.USDNativePool, nativeCost, g.usdToken)
		usdCost = decimal.NewFromBigInt(usdAmount.Quotient(), -int32(g.usdToken.Decimals))
	}

	var gasTokenCost *domain.CurrencyAmount
	if g.gasToken != nil {
		switch {
		case g.gasToken.Equal(g.wrappedNative):
			converted := domain.NewCurrencyAmount(*g.gasToken, costWei)
			gasTokenCost = &converted
		case g.pools.NativeGasTokenPool != nil:
			converted := convertByMidPrice(g.pools.NativeGasTokenPool, nativeCost, *g.gasToken)
			gasTokenCost = &converted
		}
	}

	return quoteCost, usdCost, gasTokenCost
}

// convertByMidPrice converts an amount of one pool token into the other at
// the pool's current mid price. The concentrated pool price is
// (sqrtPriceX96)^2 / 2^192, quoting token1 per token0 in raw units.
func convertByMidPrice(pool *domain.V3Pool, amount domain.CurrencyAmount, target domain.Token) domain.CurrencyAmount {
	priceNum := new(big.Int).Mul(pool.SqrtPriceX96, pool.SqrtPriceX96)
	priceDen := new(big.Int).Lsh(big.NewInt(1), 192)

	num, den := amount.Fraction()

	if amount.Token.Equal(pool.Token0) {
		// token0 -> token1: multiply by price.
		return domain.NewCurrencyAmountFromFraction(target,
			new(big.Int).Mul(num, priceNum),
			new(big.Int).Mul(den, priceDen))
	}

	// token1 -> token0: divide by price.
	return domain.NewCurrencyAmountFromFraction(target,
		new(big.Int).Mul(num, priceDen),
		new(big.Int).Mul(den, priceNum))
}
