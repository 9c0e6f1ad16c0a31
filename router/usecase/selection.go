package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

// poolSelector picks a bounded candidate subset from the subgraph pool
// universe, bucket by bucket in priority order, then materializes the chosen
// pools through the on-chain metadata providers.
type poolSelector struct {
	chainID domain.ChainID

	v2Subgraph     mvc.SubgraphProvider
	v3Subgraph     mvc.SubgraphProvider
	stableSubgraph mvc.SubgraphProvider

	v2Provider     mvc.V2PoolProvider
	v3Provider     mvc.V3PoolProvider
	stableProvider mvc.StablePoolProvider

	tokensUsecase mvc.TokensUsecase

	logger log.Logger
}

// V3Candidates carries the materialized concentrated-liquidity candidates
// plus the reference pools located for the gas model.
type V3Candidates struct {
	Pools []*domain.V3Pool

	// USDNativePool converts native gas cost to USD. Nil when absent.
	USDNativePool *domain.V3Pool
	// NativeQuotePool converts native gas cost to the quote token.
	// Nil when absent; routes then participate with no gas adjustment.
	NativeQuotePool *domain.V3Pool
	// NativeGasTokenPool converts native gas cost to the caller-specified
	// gas token. Nil unless requested and found.
	NativeGasTokenPool *domain.V3Pool
}

// V2Candidates carries the materialized constant-product candidates.
type V2Candidates struct {
	Pools []*domain.V2Pool
}

// StableCandidates carries the materialized stable pools and wrapper edges.
type StableCandidates struct {
	Pools    []*domain.StablePool
	Wrappers []*domain.StableWrapperPool
}

func newPoolSelector(
	chainID domain.ChainID,
	v2Subgraph, v3Subgraph, stableSubgraph mvc.SubgraphProvider,
	v2Provider mvc.V2PoolProvider,
	v3Provider mvc.V3PoolProvider,
	stableProvider mvc.StablePoolProvider,
	tokensUsecase mvc.TokensUsecase,
	logger log.Logger,
) *poolSelector {
	return &poolSelector{
		chainID:        chainID,
		v2Subgraph:     v2Subgraph,
		v3Subgraph:     v3Subgraph,
		stableSubgraph: stableSubgraph,
		v2Provider:     v2Provider,
		v3Provider:     v3Provider,
		stableProvider: stableProvider,
		tokensUsecase:  tokensUsecase,
		logger:         logger,
	}
}

// selectionContext groups the inputs shared by every bucket.
type selectionContext struct {
	tokenIn       domain.Token
	tokenOut      domain.Token
	wrappedNative domain.Token
	usdToken      domain.Token
	gasToken      *domain.Token
	tradeType     domain.TradeType
	config        domain.PoolSelectionConfig
	baseTokens    []domain.Token
	blocked       map[string]struct{}
}

func (s *poolSelector) newSelectionContext(tokenIn, tokenOut domain.Token, tradeType domain.TradeType, config domain.PoolSelectionConfig, options *domain.RoutingOptions) (selectionContext, error) {
	wrappedNative, err := chain.WrappedNative(s.chainID)
	if err != nil {
		return selectionContext{}, err
	}
	usdToken, err := chain.USDToken(s.chainID)
	if err != nil {
		return selectionContext{}, err
	}

	blocked := make(map[string]struct{}, len(options.BlockedTokens))
	for _, addr := range options.BlockedTokens {
		blocked[addressHex(addr)] = struct{}{}
	}

	return selectionContext{
		tokenIn:       tokenIn,
		tokenOut:      tokenOut,
		wrappedNative: wrappedNative,
		usdToken:      usdToken,
		gasToken:      options.GasToken,
		tradeType:     tradeType,
		config:        config,
		baseTokens:    chain.BaseTokens(s.chainID),
		blocked:       blocked,
	}, nil
}

// SelectV3 picks and materializes the concentrated-liquidity candidates.
func (s *poolSelector) SelectV3(ctx context.Context, tokenIn, tokenOut domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions) (*V3Candidates, error) {
	sctx, err := s.newSelectionContext(tokenIn, tokenOut, tradeType, options.V3PoolSelection, options)
	if err != nil {
		return nil, err
	}

	subgraphPools, err := s.v3Subgraph.ListPools(ctx, nil, nil, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	selected := selectSubgraphPools(subgraphPools, sctx, domain.ProtocolV3, s.logger)

	// Token metadata for every referenced token resolves in one batch.
	accessor, err := s.resolveTokens(ctx, selected, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	params := make([]domain.V3PoolParams, 0, len(selected))
	for _, pool := range selected {
		tokens, ok := lookupPairTokens(pool, accessor)
		if !ok {
			continue
		}
		params = append(params, domain.V3PoolParams{TokenA: tokens[0], TokenB: tokens[1], Fee: pool.FeeTier})
	}

	loaded, err := s.v3Provider.GetPools(ctx, params, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	candidates := &V3Candidates{Pools: loaded.GetAllPools()}

	// Locate the gas model reference pools among the loaded candidates,
	// highest liquidity first.
	candidates.USDNativePool = bestV3PoolForPair(candidates.Pools, sctx.wrappedNative, sctx.usdToken)

	quoteSide := tokenOut
	if tradeType == domain.TradeTypeExactOutput {
		quoteSide = tokenIn
	}
	if !quoteSide.Equal(sctx.wrappedNative) {
		candidates.NativeQuotePool = bestV3PoolForPair(candidates.Pools, sctx.wrappedNative, quoteSide)
	}

	if sctx.gasToken != nil && !sctx.gasToken.Equal(sctx.wrappedNative) {
		candidates.NativeGasTokenPool = bestV3PoolForPair(candidates.Pools, sctx.wrappedNative, *sctx.gasToken)
	}

	s.logger.Debug("selected v3 candidate pools",
		zap.Int("subgraph_pools", len(subgraphPools)),
		zap.Int("selected", len(selected)),
		zap.Int("materialized", len(candidates.Pools)))

	return candidates, nil
}

// SelectV2 picks and materializes the constant-product candidates.
func (s *poolSelector) SelectV2(ctx context.Context, tokenIn, tokenOut domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions) (*V2Candidates, error) {
	sctx, err := s.newSelectionContext(tokenIn, tokenOut, tradeType, options.V2PoolSelection, options)
	if err != nil {
		return nil, err
	}

	subgraphPools, err := s.v2Subgraph.ListPools(ctx, nil, nil, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	selected := selectSubgraphPools(subgraphPools, sctx, domain.ProtocolV2, s.logger)

	accessor, err := s.resolveTokens(ctx, selected, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	params := make([]domain.V2PoolParams, 0, len(selected))
	for _, pool := range selected {
		tokens, ok := lookupPairTokens(pool, accessor)
		if !ok {
			continue
		}
		params = append(params, domain.V2PoolParams{TokenA: tokens[0], TokenB: tokens[1]})
	}

	loaded, err := s.v2Provider.GetPools(ctx, params, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("selected v2 candidate pools",
		zap.Int("subgraph_pools", len(subgraphPools)),
		zap.Int("selected", len(selected)),
		zap.Int("materialized", len(loaded.GetAllPools())))

	return &V2Candidates{Pools: loaded.GetAllPools()}, nil
}

// SelectStable picks and materializes the stable pool candidates together
// with their wrapper edges. Optimistic direct-pool injection is skipped for
// stable pools since their IDs are not derivable.
func (s *poolSelector) SelectStable(ctx context.Context, tokenIn, tokenOut domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions) (*StableCandidates, error) {
	sctx, err := s.newSelectionContext(tokenIn, tokenOut, tradeType, options.StablePoolSelection, options)
	if err != nil {
		return nil, err
	}

	subgraphPools, err := s.stableSubgraph.ListPools(ctx, nil, nil, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	selected := selectSubgraphPools(subgraphPools, sctx, "", s.logger)

	accessor, err := s.resolveTokens(ctx, selected, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	params := make([]domain.StablePoolParams, 0, len(selected))
	for _, pool := range selected {
		tokens := make([]domain.Token, 0, len(pool.TokenIDs))
		complete := true
		for _, id := range pool.TokenIDs {
			token, found := accessor.GetTokenByAddress(common.HexToAddress(id))
			if !found {
				complete = false
				break
			}
			tokens = append(tokens, token)
		}
		if !complete {
			continue
		}

		param := domain.StablePoolParams{PoolID: common.HexToHash(pool.ID), Tokens: tokens}
		if pool.Wrapper != "" {
			if wrapper, found := accessor.GetTokenByAddress(common.HexToAddress(pool.Wrapper)); found {
				param.Wrapper = &wrapper
			}
		}
		params = append(params, param)
	}

	loaded, err := s.stableProvider.GetPools(ctx, params, options.BlockNumber)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("selected stable candidate pools",
		zap.Int("subgraph_pools", len(subgraphPools)),
		zap.Int("selected", len(selected)),
		zap.Int("materialized", len(loaded.GetAllPools())))

	return &StableCandidates{
		Pools:    loaded.GetAllPools(),
		Wrappers: loaded.GetAllWrapperPools(),
	}, nil
}

// resolveTokens resolves metadata for every token referenced by the selected
// descriptors in a single batch.
func (s *poolSelector) resolveTokens(ctx context.Context, selected []domain.SubgraphPool, blockNumber uint64) (mvc.TokenAccessor, error) {
	addresses := make([]common.Address, 0, len(selected)*2)
	for _, pool := range selected {
		for _, id := range pool.TokenIDs {
			addresses = append(addresses, common.HexToAddress(id))
		}
		if pool.Wrapper != "" {
			addresses = append(addresses, common.HexToAddress(pool.Wrapper))
		}
	}

	return s.tokensUsecase.GetTokens(ctx, addresses, blockNumber)
}

func lookupPairTokens(pool domain.SubgraphPool, accessor mvc.TokenAccessor) ([2]domain.Token, bool) {
	if len(pool.TokenIDs) != 2 {
		return [2]domain.Token{}, false
	}

	tokenA, foundA := accessor.GetTokenByAddress(common.HexToAddress(pool.TokenIDs[0]))
	tokenB, foundB := accessor.GetTokenByAddress(common.HexToAddress(pool.TokenIDs[1]))
	if !foundA || !foundB {
		return [2]domain.Token{}, false
	}
	return [2]domain.Token{tokenA, tokenB}, true
}

// bestV3PoolForPair returns the highest-liquidity loaded pool containing both
// tokens, or nil.
func bestV3PoolForPair(pools []*domain.V3Pool, tokenA, tokenB domain.Token) *domain.V3Pool {
	var best *domain.V3Pool
	for _, pool := range pools {
		if !pool.InvolvesToken(tokenA) || !pool.InvolvesToken(tokenB) {
			continue
		}
		if best == nil || pool.Liquidity.Cmp(best.Liquidity) > 0 {
			best = pool
		}
	}
	return best
}

// selectSubgraphPools fills the candidate buckets in priority order under
// their configured caps. A running set of selected pool IDs keeps buckets
// from duplicating each other, so raising any cap can only enlarge the
// result. Ordering within a bucket is TVL descending, pool ID ascending on
// ties.
// optimisticProtocol enables synthetic direct-pool injection for the given
// protocol; empty disables it (stable pool IDs are not derivable).
func selectSubgraphPools(pools []domain.SubgraphPool, sctx selectionContext, optimisticProtocol domain.Protocol, logger log.Logger) []domain.SubgraphPool {
	tokenInHex := addressHex(sctx.tokenIn.Address)
	tokenOutHex := addressHex(sctx.tokenOut.Address)

	// Blocked tokens knock pools out before any bucket fills.
	filtered := make([]domain.SubgraphPool, 0, len(pools))
	for _, pool := range pools {
		if poolTouchesBlocked(pool, sctx.blocked) {
			continue
		}
		filtered = append(filtered, pool)
	}

	sortPoolsByTVL(filtered)

	selected := make([]domain.SubgraphPool, 0)
	addedIDs := make(map[string]struct{})

	add := func(pool domain.SubgraphPool) bool {
		if _, dup := addedIDs[pool.ID]; dup {
			return false
		}
		addedIDs[pool.ID] = struct{}{}
		selected = append(selected, pool)
		return true
	}

	// The original selector compares the stable wrapper token against the
	// token-in address in both the token-in and token-out loops. Kept as a
	// deliberate pool-inclusion rule; flagged for domain review in DESIGN.md.
	involves := func(pool domain.SubgraphPool, tokenHex string) bool {
		for _, id := range pool.TokenIDs {
			if id == tokenHex {
				return true
			}
		}
		return pool.Wrapper != "" && pool.Wrapper == tokenInHex
	}

	// topByBaseWithTokenIn / topByBaseWithTokenOut.
	fillBaseBucket := func(tokenHex string) {
		total := 0
		for _, base := range sctx.baseTokens {
			baseHex := addressHex(base.Address)
			if baseHex == tokenHex {
				continue
			}

			perBase := 0
			for _, pool := range filtered {
				if total >= sctx.config.TopNWithBaseToken || perBase >= sctx.config.TopNWithEachBaseToken {
					break
				}
				if !involves(pool, baseHex) || !involves(pool, tokenHex) {
					continue
				}
				if add(pool) {
					perBase++
					total++
				}
			}
		}
	}

	fillBaseBucket(tokenInHex)
	fillBaseBucket(tokenOutHex)

	// topByDirectSwapPool.
	directCount := 0
	for _, pool := range filtered {
		if directCount >= sctx.config.TopNDirectSwaps {
			break
		}
		if !involves(pool, tokenInHex) || !involves(pool, tokenOutHex) {
			continue
		}
		if add(pool) {
			directCount++
		}
	}

	// With no direct pool known to the indexer, inject optimistic synthetic
	// descriptors so the router still probes the deterministic addresses.
	if directCount == 0 && optimisticProtocol != "" && sctx.config.TopNDirectSwaps > 0 {
		for _, synthetic := range syntheticDirectPools(optimisticProtocol, tokenInHex, tokenOutHex) {
			add(synthetic)
		}
	}

	// topByEthQuoteTokenPool: one pool to convert gas into quote token units.
	quoteHex := tokenOutHex
	if sctx.tradeType == domain.TradeTypeExactOutput {
		quoteHex = tokenInHex
	}
	nativeHex := addressHex(sctx.wrappedNative.Address)
	if quoteHex != nativeHex {
		for _, pool := range filtered {
			if !involves(pool, nativeHex) || !involves(pool, quoteHex) {
				continue
			}
			if add(pool) {
				break
			}
		}
	}

	// The gas model always needs the native/USD reference.
	usdHex := addressHex(sctx.usdToken.Address)
	for _, pool := range filtered {
		if !involves(pool, nativeHex) || !involves(pool, usdHex) {
			continue
		}
		if add(pool) {
			break
		}
	}

	// The optional gas token reference.
	if sctx.gasToken != nil {
		gasHex := addressHex(sctx.gasToken.Address)
		if gasHex != nativeHex {
			for _, pool := range filtered {
				if !involves(pool, nativeHex) || !involves(pool, gasHex) {
					continue
				}
				if add(pool) {
					break
				}
			}
		}
	}

	// topByTVL.
	topTVLCount := 0
	for _, pool := range filtered {
		if topTVLCount >= sctx.config.TopN {
			break
		}
		if add(pool) {
			topTVLCount++
		}
	}

	// topByTVLUsingTokenIn / topByTVLUsingTokenOut, collecting the
	// counterpart tokens for second-hop expansion.
	fillTokenBucket := func(tokenHex string) []string {
		count := 0
		otherTokens := make([]string, 0)
		for _, pool := range filtered {
			if count >= sctx.config.TopNTokenInOut {
				break
			}
			if !involves(pool, tokenHex) {
				continue
			}
			if add(pool) {
				count++
			}
			for _, id := range pool.TokenIDs {
				if id != tokenHex {
					otherTokens = append(otherTokens, id)
				}
			}
		}
		return otherTokens
	}

	secondHopsIn := fillTokenBucket(tokenInHex)
	secondHopsOut := fillTokenBucket(tokenOutHex)

	// topByTVLUsingTokenInSecondHops / topByTVLUsingTokenOutSecondHops.
	avoid := make(map[string]struct{}, len(sctx.config.TokensToAvoidOnSecondHops))
	for _, addr := range sctx.config.TokensToAvoidOnSecondHops {
		avoid[addressHex(addr)] = struct{}{}
	}

	fillSecondHops := func(otherTokens []string) {
		for _, otherHex := range otherTokens {
			if _, avoided := avoid[otherHex]; avoided {
				continue
			}

			hopCap := sctx.config.TopNSecondHop
			if override, ok := sctx.config.TopNSecondHopForTokenAddress[common.HexToAddress(otherHex)]; ok {
				hopCap = override
			}

			count := 0
			for _, pool := range filtered {
				if count >= hopCap {
					break
				}
				if !involves(pool, otherHex) {
					continue
				}
				if add(pool) {
					count++
				}
			}
		}
	}

	fillSecondHops(secondHopsIn)
	fillSecondHops(secondHopsOut)

	logger.Debug("bucket selection complete",
		zap.Int("universe", len(pools)),
		zap.Int("selected", len(selected)))

	return selected
}

// syntheticDirectPools builds optimistic descriptors for a direct pool the
// indexer has never reported: every fee tier for V3, the single pair for V2.
func syntheticDirectPools(protocol domain.Protocol, tokenInHex, tokenOutHex string) []domain.SubgraphPool {
	token0Hex, token1Hex := tokenInHex, tokenOutHex
	if token1Hex < token0Hex {
		token0Hex, token1Hex = token1Hex, token0Hex
	}

	if protocol == domain.ProtocolV2 {
		return []domain.SubgraphPool{{
			ID:       token0Hex + "-" + token1Hex,
			Protocol: domain.ProtocolV2,
			TokenIDs: []string{token0Hex, token1Hex},
		}}
	}

	synthetic := make([]domain.SubgraphPool, 0, len(domain.FeeTiers))
	for _, fee := range domain.FeeTiers {
		synthetic = append(synthetic, domain.SubgraphPool{
			ID:       token0Hex + "-" + token1Hex + "-" + feeHex(fee),
			Protocol: domain.ProtocolV3,
			TokenIDs: []string{token0Hex, token1Hex},
			FeeTier:  fee,
		})
	}
	return synthetic
}

func feeHex(fee domain.FeeTier) string {
	switch fee {
	case domain.FeeTierLowest:
		return "100"
	case domain.FeeTierLow:
		return "500"
	case domain.FeeTierMedium:
		return "3000"
	default:
		return "10000"
	}
}

func poolTouchesBlocked(pool domain.SubgraphPool, blocked map[string]struct{}) bool {
	if len(blocked) == 0 {
		return false
	}
	for _, id := range pool.TokenIDs {
		if _, hit := blocked[id]; hit {
			return true
		}
	}
	if pool.Wrapper != "" {
		if _, hit := blocked[pool.Wrapper]; hit {
			return true
		}
	}
	return false
}

// sortPoolsByTVL orders by coarse USD TVL descending, pool ID ascending on
// ties, for deterministic bucket fills.
func sortPoolsByTVL(pools []domain.SubgraphPool) {
	sort.SliceStable(pools, func(i, j int) bool {
		cmp := pools[i].TVLUSD.Cmp(pools[j].TVLUSD)
		if cmp != 0 {
			return cmp > 0
		}
		return pools[i].ID < pools[j].ID
	})
}

func addressHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
