package main

import (
	"github.com/Maia-DAO/smart-order-router/domain"
)

// DefaultConfig defines the default config for the smart order router server.
var DefaultConfig = domain.Config{
	ServerAddress: ":9062",

	LoggerFilename:     "sor.log",
	LoggerIsProduction: true,
	LoggerLevel:        "info",

	ChainID:           1,
	RPCEndpointEnvVar: "JSON_RPC_PROVIDER_MAINNET",

	V2SubgraphURL:     "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2",
	V3SubgraphURL:     "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3",
	StableSubgraphURL: "https://api.thegraph.com/subgraphs/name/balancer-labs/balancer-v2",

	Router: &domain.RouterConfig{
		MaxSwapsPerPath:     5,
		MaxRoutes:           16,
		MinSplits:           1,
		MaxSplits:           7,
		DistributionPercent: 5,
		ForceCrossProtocol:  false,

		RouteCacheEnabled:      true,
		PoolCacheExpirySeconds: 15,

		SubgraphTimeoutSeconds: 30,
	},

	Quoter: &domain.QuoterConfig{
		InitialBatchSize: 100,
		GasLimitPerCall:  2_000_000,
		MaxBatchRetries:  3,
		Concurrency:      8,
		TimeoutSeconds:   30,
	},

	CORS: &domain.CORSConfig{
		AllowedOrigin:  "*",
		AllowedHeaders: "Origin, Accept, Content-Type, X-Requested-With, X-Request-Id",
		AllowedMethods: "GET, POST, OPTIONS",
	},
}
