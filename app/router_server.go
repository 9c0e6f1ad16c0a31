package main

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/cache"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/middleware"
	"github.com/Maia-DAO/smart-order-router/multicall"
	poolsUseCase "github.com/Maia-DAO/smart-order-router/pools/usecase"
	routerHttpDelivery "github.com/Maia-DAO/smart-order-router/router/delivery/http"
	routerUseCase "github.com/Maia-DAO/smart-order-router/router/usecase"
	"github.com/Maia-DAO/smart-order-router/subgraph"
	tokensUseCase "github.com/Maia-DAO/smart-order-router/tokens/usecase"
)

// RouterServer defines an interface for the smart order router server.
// It wires the chain transport, providers and use cases and exposes the
// routing endpoints.
type RouterServer interface {
	GetRouterUsecase() mvc.RouterUsecase
	GetTokensUseCase() mvc.TokensUsecase
	GetLogger() log.Logger
	Shutdown(context.Context) error
	Start(context.Context) error
}

type routerServer struct {
	routerUsecase mvc.RouterUsecase
	tokensUseCase mvc.TokensUsecase
	e             *echo.Echo
	serverAddress string
	logger        log.Logger
}

// GetRouterUsecase implements RouterServer.
func (rs *routerServer) GetRouterUsecase() mvc.RouterUsecase {
	return rs.routerUsecase
}

// GetTokensUseCase implements RouterServer.
func (rs *routerServer) GetTokensUseCase() mvc.TokensUsecase {
	return rs.tokensUseCase
}

// GetLogger implements RouterServer.
func (rs *routerServer) GetLogger() log.Logger {
	return rs.logger
}

// Shutdown implements RouterServer.
func (rs *routerServer) Shutdown(ctx context.Context) error {
	return rs.e.Shutdown(ctx)
}

// Start implements RouterServer.
func (rs *routerServer) Start(context.Context) error {
	rs.logger.Info("Starting smart order router server", zap.String("address", rs.serverAddress))
	return rs.e.Start(rs.serverAddress)
}

// NewRouterServer creates a new smart order router server over the given
// chain client.
func NewRouterServer(config domain.Config, chainClient chain.Client, logger log.Logger) (RouterServer, error) {
	chainID := domain.ChainID(config.ChainID)

	// Setup echo server
	e := echo.New()
	goMiddleware := middleware.InitMiddleware(config.CORS, logger)
	e.Use(goMiddleware.CORS)
	e.Use(goMiddleware.RequestID)
	e.Use(goMiddleware.InstrumentMiddleware)

	// Multicall transport and halving batcher.
	multicallAddress := chain.MulticallAddress(chainID)
	if config.MulticallAddressOverride != "" {
		multicallAddress = common.HexToAddress(config.MulticallAddressOverride)
	}
	caller, err := multicall.NewCaller(chainClient, multicallAddress)
	if err != nil {
		return nil, err
	}
	batcher := multicall.NewBatcher(caller, multicall.BatcherConfig{
		InitialBatchSize: config.Quoter.InitialBatchSize,
		MaxRetries:       config.Quoter.MaxBatchRetries,
		Concurrency:      config.Quoter.Concurrency,
	}, logger)

	// Token metadata: on-chain resolution behind the memoizing wrapper.
	primaryTokens, err := tokensUseCase.NewTokensUsecase(chainID, caller, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := tokensUseCase.NewCachingTokensUsecase(chainID, primaryTokens, nil, logger)
	if err != nil {
		return nil, err
	}

	// Pool metadata providers behind the shared pool cache.
	poolCache := cache.New()
	poolCacheExpiry := time.Duration(config.Router.PoolCacheExpirySeconds) * time.Second

	v3Pools, err := poolsUseCase.NewV3PoolProvider(chainID, caller, logger)
	if err != nil {
		return nil, err
	}
	v2Pools, err := poolsUseCase.NewV2PoolProvider(chainID, caller, logger)
	if err != nil {
		return nil, err
	}
	stablePools, err := poolsUseCase.NewStablePoolProvider(chainID, caller, logger)
	if err != nil {
		return nil, err
	}

	if config.Router.RouteCacheEnabled {
		v3Pools = poolsUseCase.NewCachingV3PoolProvider(chainID, v3Pools, poolCache, poolCacheExpiry)
		v2Pools = poolsUseCase.NewCachingV2PoolProvider(chainID, v2Pools, poolCache, poolCacheExpiry)
		stablePools = poolsUseCase.NewCachingStablePoolProvider(chainID, stablePools, poolCache, poolCacheExpiry)
	}

	// Subgraph providers: V3 and V2 fall back to static seeds; the stable
	// provider has no fallback.
	subgraphTimeout := time.Duration(config.Router.SubgraphTimeoutSeconds) * time.Second
	const subgraphRetries = 2

	v3Subgraph := subgraph.NewFallbackProvider(logger,
		subgraph.NewRemoteProvider(config.V3SubgraphURL, domain.ProtocolV3, subgraphTimeout, subgraphRetries, logger),
		subgraph.NewStaticProvider(chainID, domain.ProtocolV3),
	)
	v2Subgraph := subgraph.NewFallbackProvider(logger,
		subgraph.NewRemoteProvider(config.V2SubgraphURL, domain.ProtocolV2, subgraphTimeout, subgraphRetries, logger),
		subgraph.NewStaticProvider(chainID, domain.ProtocolV2),
	)
	stableSubgraph := subgraph.NewRemoteProvider(config.StableSubgraphURL, domain.ProtocolStable, subgraphTimeout, subgraphRetries, logger)

	// Quote fetchers share the batcher.
	v3Quotes, err := routerUseCase.NewV3QuoteFetcher(chainID, batcher, config.Quoter.GasLimitPerCall, logger)
	if err != nil {
		return nil, err
	}
	v2Quotes, err := routerUseCase.NewV2QuoteFetcher(chainID, batcher, config.Quoter.GasLimitPerCall, logger)
	if err != nil {
		return nil, err
	}
	stableQuotes, err := routerUseCase.NewStableQuoteFetcher(chainID, batcher, config.Quoter.GasLimitPerCall, logger)
	if err != nil {
		return nil, err
	}
	mixedQuotes, err := routerUseCase.NewMixedQuoteFetcher(chainID, batcher, config.Quoter.GasLimitPerCall, logger)
	if err != nil {
		return nil, err
	}

	gasPrice := chain.NewGasPriceProvider(chainClient, 12*time.Second, logger)

	var l1Fee mvc.L1FeeProvider
	if chainID.HasL1Fee() {
		l1Fee, err = chain.NewL1FeeProvider(chainClient, chainID)
		if err != nil {
			return nil, err
		}
	}

	routerUsecase, err := routerUseCase.NewRouterUsecase(
		chainID,
		*config.Router,
		v2Subgraph, v3Subgraph, stableSubgraph,
		v2Pools, v3Pools, stablePools,
		tokens,
		v2Quotes, v3Quotes, stableQuotes, mixedQuotes,
		gasPrice,
		l1Fee,
		chainClient,
		logger,
	)
	if err != nil {
		return nil, err
	}

	routerHttpDelivery.NewRouterHandler(e, routerUsecase, tokens, logger)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return &routerServer{
		routerUsecase: routerUsecase,
		tokensUseCase: tokens,
		e:             e,
		serverAddress: config.ServerAddress,
		logger:        logger,
	}, nil
}
