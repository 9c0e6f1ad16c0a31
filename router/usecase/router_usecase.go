package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/validator"
)

var _ mvc.RouterUsecase = &routerUseCaseImpl{}

type routerUseCaseImpl struct {
	chainID domain.ChainID
	config  domain.RouterConfig

	selector *poolSelector

	v2Quotes     mvc.QuoteFetcher
	v3Quotes     mvc.QuoteFetcher
	stableQuotes mvc.QuoteFetcher
	mixedQuotes  mvc.QuoteFetcher

	gasPrice mvc.GasPriceProvider
	l1Fee    mvc.L1FeeProvider
	blocks   mvc.BlockProvider

	paramsBuilder *methodParamsBuilder

	logger log.Logger
}

var (
	planCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sor_plans_total",
			Help: "Total number of routing plans computed, by outcome",
		},
		[]string{"outcome"},
	)
	protocolFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sor_protocol_failures_total",
			Help: "Total number of protocols that failed to contribute to a plan",
		},
		[]string{"protocol", "stage"},
	)
)

func init() {
	prometheus.MustRegister(planCounter)
	prometheus.MustRegister(protocolFailures)
}

// NewRouterUsecase will create a new router use case object.
// l1Fee may be nil on chains without an L1 data fee.
func NewRouterUsecase(
	chainID domain.ChainID,
	config domain.RouterConfig,
	v2Subgraph, v3Subgraph, stableSubgraph mvc.SubgraphProvider,
	v2Pools mvc.V2PoolProvider,
	v3Pools mvc.V3PoolProvider,
	stablePools mvc.StablePoolProvider,
	tokens mvc.TokensUsecase,
	v2Quotes, v3Quotes, stableQuotes, mixedQuotes mvc.QuoteFetcher,
	gasPrice mvc.GasPriceProvider,
	l1Fee mvc.L1FeeProvider,
	blocks mvc.BlockProvider,
	logger log.Logger,
) (mvc.RouterUsecase, error) {
	if !domain.IsSupportedChain(chainID) {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, chainID)
	}

	paramsBuilder, err := newMethodParamsBuilder(chainID)
	if err != nil {
		return nil, err
	}

	return &routerUseCaseImpl{
		chainID:       chainID,
		config:        config,
		selector:      newPoolSelector(chainID, v2Subgraph, v3Subgraph, stableSubgraph, v2Pools, v3Pools, stablePools, tokens, logger),
		v2Quotes:      v2Quotes,
		v3Quotes:      v3Quotes,
		stableQuotes:  stableQuotes,
		mixedQuotes:   mixedQuotes,
		gasPrice:      gasPrice,
		l1Fee:         l1Fee,
		blocks:        blocks,
		paramsBuilder: paramsBuilder,
		logger:        logger,
	}, nil
}

// GetConfig implements mvc.RouterUsecase.
func (r *routerUseCaseImpl) GetConfig() domain.RouterConfig {
	return r.config
}

// GetQuote implements mvc.RouterUsecase.
func (r *routerUseCaseImpl) GetQuote(ctx context.Context, amount domain.CurrencyAmount, quoteCurrency domain.Token, tradeType domain.TradeType, swapConfig *domain.SwapConfig, options *domain.RoutingOptions) (*domain.Quote, error) {
	if options == nil {
		options = &domain.RoutingOptions{}
	}

	protocolsDefaulted := len(options.Protocols) == 0
	options.ApplyDefaults(r.config)

	if err := validator.Validate(options); err != nil {
		return nil, err
	}

	tokenIn, tokenOut, nativeInput, err := r.validateAndNormalize(amount, quoteCurrency, tradeType, options, protocolsDefaulted)
	if err != nil {
		return nil, err
	}

	// Re-bind the fixed amount to the wrapped token if it was native.
	fixedToken := tokenIn
	if tradeType == domain.TradeTypeExactOutput {
		fixedToken = tokenOut
	}
	fixedRaw := amount.Quotient()
	fixedAmount := domain.NewCurrencyAmount(fixedToken, fixedRaw)

	quoteToken := tokenOut
	if tradeType == domain.TradeTypeExactOutput {
		quoteToken = tokenIn
	}

	// Pin the whole invocation to one block so concurrent reads agree.
	if options.BlockNumber == 0 {
		height, err := r.blocks.GetLatestHeight(ctx)
		if err != nil {
			return nil, r.asTimeout(ctx, err)
		}
		options.BlockNumber = height
	}

	// Gas price resolves concurrently with candidate selection.
	var (
		gasPriceWei *big.Int
		gasPriceErr error
		gasPriceWG  sync.WaitGroup
	)
	gasPriceWG.Add(1)
	go func() {
		defer gasPriceWG.Done()
		gasPriceWei, gasPriceErr = r.gasPrice.GetGasPriceWei(ctx)
	}()

	candidates, attempted, failed := r.selectCandidates(ctx, tokenIn, tokenOut, tradeType, options)
	if attempted > 0 && failed == attempted {
		planCounter.WithLabelValues("all_protocols_failed").Inc()
		return nil, r.asTimeout(ctx, fmt.Errorf("%w: all protocols failed to load candidate pools", domain.ErrInternalServerError))
	}

	gasPriceWG.Wait()
	if gasPriceErr != nil {
		return nil, r.asTimeout(ctx, gasPriceErr)
	}

	grid := percentGrid(options.DistributionPercent)
	amounts := make([]domain.CurrencyAmount, 0, len(grid))
	for _, percent := range grid {
		amounts = append(amounts, fixedAmount.MulPercent(percent))
	}

	quoted := r.fetchAllQuotes(ctx, candidates, tokenIn, tokenOut, tradeType, options, amounts)
	if len(quoted) == 0 {
		planCounter.WithLabelValues("no_route").Inc()
		return nil, r.asTimeout(ctx, domain.ErrNoRouteFound)
	}

	wrappedNative, err := chain.WrappedNative(r.chainID)
	if err != nil {
		return nil, err
	}
	usdToken, err := chain.USDToken(r.chainID)
	if err != nil {
		return nil, err
	}

	model := newGasModel(r.chainID, gasPriceWei, wrappedNative, usdToken, quoteToken, options.GasToken, gasModelPools{
		USDNativePool:      candidates.v3Reference.USDNativePool,
		NativeQuotePool:    candidates.v3Reference.NativeQuotePool,
		NativeGasTokenPool: candidates.v3Reference.NativeGasTokenPool,
	}, options.AdditionalGasOverhead)

	quotedRoutes := r.buildQuotedRoutes(quoted, grid, quoteToken, tradeType, model)

	best := getBestSwapRoute(tradeType, quotedRoutes, options.DistributionPercent, options.MinSplits, options.MaxSplits, options.ForceCrossProtocol)
	if best == nil {
		planCounter.WithLabelValues("no_route").Inc()
		return nil, r.asTimeout(ctx, domain.ErrNoRouteFound)
	}

	plan := r.assemblePlan(tradeType, fixedAmount, quoteToken, best, gasPriceWei, options)

	methodParams, err := r.paramsBuilder.build(tradeType, best, swapConfig, nativeInput)
	if err != nil {
		return nil, err
	}
	plan.MethodParameters = methodParams

	// Rollups charge an L1 data fee for the posted calldata; fold it into
	// the gas-adjusted figures for the winning plan.
	if r.chainID.HasL1Fee() && r.l1Fee != nil {
		if err := r.applyL1Fee(ctx, plan, model, methodParams.Calldata, options.BlockNumber); err != nil {
			r.logger.Warn("failed to apply l1 data fee, returning unadjusted plan", zap.Error(err))
		}
	}

	planCounter.WithLabelValues("ok").Inc()
	r.logger.Info("routing plan assembled",
		zap.Int("splits", len(plan.Routes)),
		zap.String("quote", plan.Quote.String()),
		zap.String("quote_gas_adjusted", plan.QuoteGasAdjusted.String()),
		zap.Uint64("block_number", plan.BlockNumber))

	return plan, nil
}

// GetCandidateRoutes implements mvc.RouterUsecase.
func (r *routerUseCaseImpl) GetCandidateRoutes(ctx context.Context, tokenIn, tokenOut domain.Token, options *domain.RoutingOptions) ([]domain.Route, error) {
	if options == nil {
		options = &domain.RoutingOptions{}
	}
	options.ApplyDefaults(r.config)

	candidates, attempted, failed := r.selectCandidates(ctx, tokenIn, tokenOut, domain.TradeTypeExactInput, options)
	if attempted > 0 && failed == attempted {
		return nil, r.asTimeout(ctx, fmt.Errorf("%w: all protocols failed to load candidate pools", domain.ErrInternalServerError))
	}

	routes := make([]domain.Route, 0)
	routes = append(routes, candidates.v2Routes...)
	routes = append(routes, candidates.v3Routes...)
	routes = append(routes, candidates.stableRoutes...)
	routes = append(routes, candidates.mixedRoutes...)

	return routes, nil
}

// validateAndNormalize checks the request and wraps native currencies at
// both ends, returning the wrapped token pair for internal math.
func (r *routerUseCaseImpl) validateAndNormalize(amount domain.CurrencyAmount, quoteCurrency domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions, protocolsDefaulted bool) (tokenIn, tokenOut domain.Token, nativeInput bool, err error) {
	if amount.Sign() <= 0 {
		return domain.Token{}, domain.Token{}, false, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}

	wrappedNative, err := chain.WrappedNative(r.chainID)
	if err != nil {
		return domain.Token{}, domain.Token{}, false, err
	}

	wrap := func(token domain.Token) domain.Token {
		if token.IsNative {
			return wrappedNative
		}
		return token
	}

	fixed := wrap(amount.Token)
	quote := wrap(quoteCurrency)

	if fixed.Equal(quote) {
		return domain.Token{}, domain.Token{}, false, fmt.Errorf("%w: token in and token out are equal", domain.ErrInvalidInput)
	}
	if fixed.ChainID != r.chainID || quote.ChainID != r.chainID {
		return domain.Token{}, domain.Token{}, false, fmt.Errorf("%w: token chain mismatch", domain.ErrUnsupportedChain)
	}

	if tradeType == domain.TradeTypeExactOutput {
		tokenIn, tokenOut = quote, fixed
		nativeInput = quoteCurrency.IsNative
	} else {
		tokenIn, tokenOut = fixed, quote
		nativeInput = amount.Token.IsNative
	}

	// Exact-out quoting exists only for the V2 and V3 quoters. An explicit
	// request for the other protocols must fail loudly rather than degrade;
	// the defaulted protocol set narrows to the capable ones.
	if tradeType == domain.TradeTypeExactOutput {
		if protocolsDefaulted {
			options.Protocols = []domain.Protocol{domain.ProtocolV2, domain.ProtocolV3}
		} else {
			for _, protocol := range options.Protocols {
				if protocol != domain.ProtocolV2 && protocol != domain.ProtocolV3 {
					return domain.Token{}, domain.Token{}, false, fmt.Errorf("%w: %s does not support exact-out", domain.ErrUnsupportedTradeType, protocol)
				}
			}
		}
	}

	return tokenIn, tokenOut, nativeInput, nil
}

// candidateSet carries the per-protocol selection and enumeration results.
type candidateSet struct {
	v2Routes     []domain.Route
	v3Routes     []domain.Route
	stableRoutes []domain.Route
	mixedRoutes  []domain.Route

	v3Reference V3Candidates
}

// selectCandidates loads candidate pools for every enabled protocol
// concurrently and enumerates the per-protocol routes. A protocol that
// fails degrades gracefully; the counts let the caller detect total failure.
func (r *routerUseCaseImpl) selectCandidates(ctx context.Context, tokenIn, tokenOut domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions) (candidateSet, int, int) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex

		set       candidateSet
		attempted int
		failed    int

		v3Cand     *V3Candidates
		v2Cand     *V2Candidates
		stableCand *StableCandidates
	)

	needV3 := options.HasProtocol(domain.ProtocolV3) || options.HasProtocol(domain.ProtocolMixed)
	needV2 := options.HasProtocol(domain.ProtocolV2)
	needStable := options.HasProtocol(domain.ProtocolStable) || options.HasProtocol(domain.ProtocolStableWrapper) || options.HasProtocol(domain.ProtocolMixed)

	// The gas model reference pools come from V3 selection, so it runs even
	// when V3 routing is disabled.
	wg.Add(1)
	go func() {
		defer wg.Done()
		candidates, err := r.selector.SelectV3(ctx, tokenIn, tokenOut, tradeType, options)
		mu.Lock()
		defer mu.Unlock()
		if needV3 {
			attempted++
		}
		if err != nil {
			protocolFailures.WithLabelValues(string(domain.ProtocolV3), "select").Inc()
			r.logger.Warn("v3 candidate selection failed", zap.Error(err))
			if needV3 {
				failed++
			}
			return
		}
		v3Cand = candidates
	}()

	if needV2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidates, err := r.selector.SelectV2(ctx, tokenIn, tokenOut, tradeType, options)
			mu.Lock()
			defer mu.Unlock()
			attempted++
			if err != nil {
				protocolFailures.WithLabelValues(string(domain.ProtocolV2), "select").Inc()
				r.logger.Warn("v2 candidate selection failed", zap.Error(err))
				failed++
				return
			}
			v2Cand = candidates
		}()
	}

	if needStable {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidates, err := r.selector.SelectStable(ctx, tokenIn, tokenOut, tradeType, options)
			mu.Lock()
			defer mu.Unlock()
			attempted++
			if err != nil {
				protocolFailures.WithLabelValues(string(domain.ProtocolStable), "select").Inc()
				r.logger.Warn("stable candidate selection failed", zap.Error(err))
				failed++
				return
			}
			stableCand = candidates
		}()
	}

	wg.Wait()

	if v3Cand != nil {
		set.v3Reference = *v3Cand
		if options.HasProtocol(domain.ProtocolV3) {
			pools := make([]domain.Pool, 0, len(v3Cand.Pools))
			for _, pool := range v3Cand.Pools {
				pools = append(pools, pool)
			}
			set.v3Routes = enumerateRoutes(pools, tokenIn, tokenOut, options.MaxSwapsPerPath, false, r.logger)
		}
	}

	if v2Cand != nil {
		pools := make([]domain.Pool, 0, len(v2Cand.Pools))
		for _, pool := range v2Cand.Pools {
			pools = append(pools, pool)
		}
		set.v2Routes = enumerateRoutes(pools, tokenIn, tokenOut, options.MaxSwapsPerPath, false, r.logger)
	}

	if stableCand != nil && (options.HasProtocol(domain.ProtocolStable) || options.HasProtocol(domain.ProtocolStableWrapper)) {
		pools := stablePoolSlice(stableCand, options.HasProtocol(domain.ProtocolStableWrapper))
		set.stableRoutes = enumerateRoutes(pools, tokenIn, tokenOut, options.MaxSwapsPerPath, false, r.logger)
	}

	// Mixed enumeration unions the concentrated and stable candidates.
	if options.HasProtocol(domain.ProtocolMixed) && v3Cand != nil && stableCand != nil {
		pools := make([]domain.Pool, 0, len(v3Cand.Pools))
		for _, pool := range v3Cand.Pools {
			pools = append(pools, pool)
		}
		pools = append(pools, stablePoolSlice(stableCand, true)...)
		set.mixedRoutes = enumerateRoutes(pools, tokenIn, tokenOut, options.MaxSwapsPerPath, true, r.logger)
	}

	return set, attempted, failed
}

func stablePoolSlice(candidates *StableCandidates, includeWrappers bool) []domain.Pool {
	pools := make([]domain.Pool, 0, len(candidates.Pools)+len(candidates.Wrappers))
	for _, pool := range candidates.Pools {
		pools = append(pools, pool)
	}
	if includeWrappers {
		for _, wrapper := range candidates.Wrappers {
			pools = append(pools, wrapper)
		}
	}
	return pools
}

// protocolQuoteResult pairs one protocol's fetched quotes with its error.
type protocolQuoteResult struct {
	protocol domain.Protocol
	quotes   []domain.RouteQuotes
	err      error
}

// fetchAllQuotes runs the per-protocol quote fetchers in parallel and merges
// the successful results. A failing protocol contributes nothing.
func (r *routerUseCaseImpl) fetchAllQuotes(ctx context.Context, candidates candidateSet, tokenIn, tokenOut domain.Token, tradeType domain.TradeType, options *domain.RoutingOptions, amounts []domain.CurrencyAmount) []domain.RouteQuotes {
	type job struct {
		protocol domain.Protocol
		routes   []domain.Route
		fetcher  mvc.QuoteFetcher
	}

	jobs := make([]job, 0, 4)
	if len(candidates.v2Routes) > 0 {
		jobs = append(jobs, job{domain.ProtocolV2, candidates.v2Routes, r.v2Quotes})
	}
	if len(candidates.v3Routes) > 0 {
		jobs = append(jobs, job{domain.ProtocolV3, candidates.v3Routes, r.v3Quotes})
	}
	if len(candidates.stableRoutes) > 0 {
		jobs = append(jobs, job{domain.ProtocolStable, candidates.stableRoutes, r.stableQuotes})
	}
	if len(candidates.mixedRoutes) > 0 {
		jobs = append(jobs, job{domain.ProtocolMixed, candidates.mixedRoutes, r.mixedQuotes})
	}

	results := make(chan protocolQuoteResult, len(jobs))

	for _, j := range jobs {
		j := j
		go func() {
			var (
				quotes []domain.RouteQuotes
				err    error
			)
			if tradeType == domain.TradeTypeExactOutput {
				quotes, err = j.fetcher.GetQuotesExactOut(ctx, j.routes, amounts, options.BlockNumber)
			} else {
				quotes, err = j.fetcher.GetQuotesExactIn(ctx, j.routes, amounts, options.BlockNumber)
			}
			results <- protocolQuoteResult{protocol: j.protocol, quotes: quotes, err: err}
		}()
	}

	merged := make([]domain.RouteQuotes, 0)
	for range jobs {
		result := <-results
		if result.err != nil {
			protocolFailures.WithLabelValues(string(result.protocol), "quote").Inc()
			r.logger.Warn("protocol quoting failed",
				zap.String("protocol", string(result.protocol)),
				zap.Error(result.err))
			continue
		}
		merged = append(merged, result.quotes...)
	}

	return merged
}

// buildQuotedRoutes converts the raw per-amount quotes into gas-adjusted
// DP candidates. Pairs the quoter reverted on are skipped.
func (r *routerUseCaseImpl) buildQuotedRoutes(quoted []domain.RouteQuotes, grid []int, quoteToken domain.Token, tradeType domain.TradeType, model *gasModel) []quotedRoute {
	out := make([]quotedRoute, 0, len(quoted))

	for _, rq := range quoted {
		byPercent := make(map[int]domain.RouteWithQuote, len(rq.Quotes))

		for j, aq := range rq.Quotes {
			if aq.Quote == nil {
				continue
			}

			var v3Data *domain.V3QuoteData
			if len(aq.SqrtPriceX96AfterList) > 0 || len(aq.InitializedTicksCrossedList) > 0 {
				v3Data = &domain.V3QuoteData{
					SqrtPriceX96AfterList:       aq.SqrtPriceX96AfterList,
					InitializedTicksCrossedList: aq.InitializedTicksCrossedList,
				}
			}

			gasEstimate := model.estimateGas(rq.Route, v3Data)
			gasCostQuote, gasCostUSD, gasCostGasToken := model.costs(gasEstimate)

			quoteAmount := domain.NewCurrencyAmount(quoteToken, aq.Quote)

			// Gas makes an exact-in output worth less and an exact-out
			// input cost more.
			var adjusted domain.CurrencyAmount
			if tradeType == domain.TradeTypeExactInput {
				adjusted = quoteAmount.Sub(gasCostQuote)
			} else {
				adjusted = quoteAmount.Add(gasCostQuote)
			}

			byPercent[grid[j]] = domain.RouteWithQuote{
				Route:               rq.Route,
				Percent:             grid[j],
				Amount:              aq.Amount,
				Quote:               quoteAmount,
				QuoteAdjustedForGas: adjusted,
				GasEstimate:         gasEstimate,
				GasCostInQuoteToken: gasCostQuote,
				GasCostInUSD:        gasCostUSD,
				GasCostInGasToken:   gasCostGasToken,
				V3Data:              v3Data,
			}
		}

		if len(byPercent) > 0 {
			out = append(out, quotedRoute{route: rq.Route, byPercent: byPercent})
		}
	}

	return out
}

// assemblePlan aggregates the winning sub-routes into the final plan.
func (r *routerUseCaseImpl) assemblePlan(tradeType domain.TradeType, fixedAmount domain.CurrencyAmount, quoteToken domain.Token, best []domain.RouteWithQuote, gasPriceWei *big.Int, options *domain.RoutingOptions) *domain.Quote {
	aggregateQuote := domain.ZeroAmount(quoteToken)
	aggregateAdjusted := domain.ZeroAmount(quoteToken)
	aggregateGasCost := domain.ZeroAmount(quoteToken)
	aggregateGasUSD := decimal.Zero
	var aggregateGas uint64

	var aggregateGasToken *domain.CurrencyAmount

	for _, rwq := range best {
		aggregateQuote = aggregateQuote.Add(rwq.Quote)
		aggregateAdjusted = aggregateAdjusted.Add(rwq.QuoteAdjustedForGas)
		aggregateGasCost = aggregateGasCost.Add(rwq.GasCostInQuoteToken)
		aggregateGasUSD = aggregateGasUSD.Add(rwq.GasCostInUSD)
		aggregateGas += rwq.GasEstimate

		if rwq.GasCostInGasToken != nil {
			if aggregateGasToken == nil {
				sum := *rwq.GasCostInGasToken
				aggregateGasToken = &sum
			} else {
				sum := aggregateGasToken.Add(*rwq.GasCostInGasToken)
				aggregateGasToken = &sum
			}
		}
	}

	return &domain.Quote{
		TradeType:                  tradeType,
		Amount:                     fixedAmount,
		Quote:                      aggregateQuote,
		QuoteGasAdjusted:           aggregateAdjusted,
		EstimatedGasUsed:           aggregateGas,
		EstimatedGasUsedUSD:        aggregateGasUSD,
		EstimatedGasUsedQuoteToken: aggregateGasCost,
		EstimatedGasUsedGasToken:   aggregateGasToken,
		GasPriceWei:                gasPriceWei,
		Routes:                     best,
		BlockNumber:                options.BlockNumber,
	}
}

// applyL1Fee folds the rollup data posting fee for the winning calldata into
// the plan's gas-adjusted figures.
func (r *routerUseCaseImpl) applyL1Fee(ctx context.Context, plan *domain.Quote, model *gasModel, calldata []byte, blockNumber uint64) error {
	l1FeeWei, err := r.l1Fee.GetL1Fee(ctx, calldata, blockNumber)
	if err != nil {
		return err
	}
	if l1FeeWei.Sign() == 0 || plan.GasPriceWei.Sign() == 0 {
		return nil
	}

	// Express the L1 fee as extra gas units at the L2 gas price, then run it
	// through the same conversion pools.
	extraGas := new(big.Int).Quo(l1FeeWei, plan.GasPriceWei).Uint64()
	if extraGas == 0 {
		return nil
	}

	costQuote, costUSD, costGasToken := model.costs(extraGas)

	plan.EstimatedGasUsed += extraGas
	plan.EstimatedGasUsedUSD = plan.EstimatedGasUsedUSD.Add(costUSD)
	plan.EstimatedGasUsedQuoteToken = plan.EstimatedGasUsedQuoteToken.Add(costQuote)
	if costGasToken != nil && plan.EstimatedGasUsedGasToken != nil {
		sum := plan.EstimatedGasUsedGasToken.Add(*costGasToken)
		plan.EstimatedGasUsedGasToken = &sum
	}

	if plan.TradeType == domain.TradeTypeExactInput {
		plan.QuoteGasAdjusted = plan.QuoteGasAdjusted.Sub(costQuote)
	} else {
		plan.QuoteGasAdjusted = plan.QuoteGasAdjusted.Add(costQuote)
	}

	return nil
}

// asTimeout maps a deadline expiry onto the typed timeout error; other
// errors pass through.
func (r *routerUseCaseImpl) asTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return err
}
