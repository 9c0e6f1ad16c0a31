package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Config defines the config for the smart order router service.
type Config struct {
	// Defines the web server configuration.
	ServerAddress string `mapstructure:"server-address"`

	// Defines the logger configuration.
	LoggerFilename     string `mapstructure:"logger-filename"`
	LoggerIsProduction bool   `mapstructure:"logger-is-production"`
	LoggerLevel        string `mapstructure:"logger-level"`

	// ChainID selects the chain served by this instance.
	ChainID uint64 `mapstructure:"chain-id"`

	// RPCEndpointEnvVar names the environment variable holding the node RPC URL.
	RPCEndpointEnvVar string `mapstructure:"rpc-endpoint-env-var"`

	// Subgraph URLs per protocol.
	V2SubgraphURL     string `mapstructure:"v2-subgraph-url"`
	V3SubgraphURL     string `mapstructure:"v3-subgraph-url"`
	StableSubgraphURL string `mapstructure:"stable-subgraph-url"`

	// MulticallAddressOverride overrides the default multicall contract address
	// when non-empty.
	MulticallAddressOverride string `mapstructure:"multicall-address-override"`

	// Router encapsulates the router config.
	Router *RouterConfig `mapstructure:"router"`

	// Quoter encapsulates the on-chain quoter batching config.
	Quoter *QuoterConfig `mapstructure:"quoter"`

	// OTEL encapsulates the tracing config.
	OTEL *OTELConfig `mapstructure:"otel"`

	CORS *CORSConfig `mapstructure:"cors"`
}

// RouterConfig defines the config for the router.
type RouterConfig struct {
	// MaxSwapsPerPath bounds the number of hops during route enumeration.
	MaxSwapsPerPath int `mapstructure:"max-swaps-per-path"`
	// MaxRoutes bounds the number of enumerated routes handed to quoting.
	MaxRoutes int `mapstructure:"max-routes"`
	// MinSplits and MaxSplits bound the split cardinality of the final plan.
	MinSplits int `mapstructure:"min-splits"`
	MaxSplits int `mapstructure:"max-splits"`
	// DistributionPercent is the granularity of split fractions.
	DistributionPercent int `mapstructure:"distribution-percent"`
	// ForceCrossProtocol rejects single-protocol plans when set.
	ForceCrossProtocol bool `mapstructure:"force-cross-protocol"`

	// RouteCacheEnabled enables the pool metadata cache.
	RouteCacheEnabled bool `mapstructure:"route-cache-enabled"`
	// PoolCacheExpirySeconds is the TTL for pool metadata cached at latest block.
	PoolCacheExpirySeconds int `mapstructure:"pool-cache-expiry-seconds"`

	// SubgraphTimeoutSeconds is the hard timeout for subgraph requests.
	SubgraphTimeoutSeconds int `mapstructure:"subgraph-timeout-seconds"`
}

// QuoterConfig defines batching knobs for the on-chain quoter transport.
type QuoterConfig struct {
	// InitialBatchSize is the starting number of calls per multicall batch.
	InitialBatchSize int `mapstructure:"initial-batch-size"`
	// GasLimitPerCall bounds the gas of each simulated quote.
	GasLimitPerCall uint64 `mapstructure:"gas-limit-per-call"`
	// MaxBatchRetries bounds the batch halving depth.
	MaxBatchRetries int `mapstructure:"max-batch-retries"`
	// Concurrency bounds parallel in-flight batches.
	Concurrency int `mapstructure:"concurrency"`
	// TimeoutSeconds is the hard timeout for one quoting round.
	TimeoutSeconds int `mapstructure:"timeout-seconds"`
}

// OTELConfig defines the tracing configuration.
type OTELConfig struct {
	DSN         string  `mapstructure:"dsn"`
	SampleRate  float64 `mapstructure:"sample-rate"`
	Environment string  `mapstructure:"environment"`
}

// CORSConfig defines the CORS headers served by the middleware.
type CORSConfig struct {
	AllowedOrigin  string `mapstructure:"allowed-origin"`
	AllowedHeaders string `mapstructure:"allowed-headers"`
	AllowedMethods string `mapstructure:"allowed-methods"`
}

// PoolSelectionConfig caps the candidate pool buckets per protocol.
type PoolSelectionConfig struct {
	// TopN is the cap for the overall top-TVL bucket.
	TopN int
	// TopNDirectSwaps caps pools containing both the input and output tokens.
	TopNDirectSwaps int
	// TopNTokenInOut caps the per-side buckets of pools containing the input
	// or the output token.
	TopNTokenInOut int
	// TopNSecondHop caps pools added for each counterpart token discovered by
	// the per-side buckets.
	TopNSecondHop int
	// TopNSecondHopForTokenAddress overrides TopNSecondHop for specific tokens.
	TopNSecondHopForTokenAddress map[common.Address]int
	// TopNWithEachBaseToken caps pools pairing one base token with the
	// input or output token.
	TopNWithEachBaseToken int
	// TopNWithBaseToken caps the total size of the base-token buckets.
	TopNWithBaseToken int
	// TokensToAvoidOnSecondHops excludes counterpart tokens from second-hop
	// expansion entirely.
	TokensToAvoidOnSecondHops []common.Address
}

// RoutingOptions are the per-invocation routing knobs. Zero values fall back
// to the service RouterConfig defaults via ApplyDefaults.
type RoutingOptions struct {
	// BlockNumber pins all chain reads to a block. Zero means latest.
	BlockNumber uint64

	V2PoolSelection     PoolSelectionConfig
	V3PoolSelection     PoolSelectionConfig
	StablePoolSelection PoolSelectionConfig

	MaxSwapsPerPath     int
	MinSplits           int
	MaxSplits           int
	DistributionPercent int
	ForceCrossProtocol  bool

	// Protocols restricts the considered liquidity sources. Empty means all.
	Protocols []Protocol

	// AdditionalGasOverhead is added to every route's gas estimate,
	// covering permits and wrap/unwrap at the edges.
	AdditionalGasOverhead uint64

	// GasToken requests the gas cost converted into this token on each route.
	GasToken *Token

	// BlockedTokens are excluded from candidate pool selection up front.
	BlockedTokens []common.Address
}

// DefaultPoolSelection is the bucket cap set used when the caller does not
// override a protocol's selection config.
var DefaultPoolSelection = PoolSelectionConfig{
	TopN:                  10,
	TopNDirectSwaps:       4,
	TopNTokenInOut:        10,
	TopNSecondHop:         6,
	TopNWithEachBaseToken: 3,
	TopNWithBaseToken:     6,
}

func (c PoolSelectionConfig) isZero() bool {
	return c.TopN == 0 && c.TopNDirectSwaps == 0 && c.TopNTokenInOut == 0 &&
		c.TopNSecondHop == 0 && c.TopNWithEachBaseToken == 0 && c.TopNWithBaseToken == 0
}

// ApplyDefaults fills the zero-valued options from the service config.
func (o *RoutingOptions) ApplyDefaults(config RouterConfig) {
	if o.MaxSwapsPerPath == 0 {
		o.MaxSwapsPerPath = config.MaxSwapsPerPath
	}
	if o.MinSplits == 0 {
		o.MinSplits = config.MinSplits
	}
	if o.MaxSplits == 0 {
		o.MaxSplits = config.MaxSplits
	}
	if o.DistributionPercent == 0 {
		o.DistributionPercent = config.DistributionPercent
	}
	if len(o.Protocols) == 0 {
		o.Protocols = []Protocol{ProtocolV2, ProtocolV3, ProtocolStable, ProtocolStableWrapper, ProtocolMixed}
	}
	if o.V2PoolSelection.isZero() {
		o.V2PoolSelection = DefaultPoolSelection
	}
	if o.V3PoolSelection.isZero() {
		o.V3PoolSelection = DefaultPoolSelection
	}
	if o.StablePoolSelection.isZero() {
		o.StablePoolSelection = DefaultPoolSelection
	}
	if !o.ForceCrossProtocol {
		o.ForceCrossProtocol = config.ForceCrossProtocol
	}
}

// Validate implements validator.Validator.
// Checks the options after defaults were applied.
func (o *RoutingOptions) Validate() error {
	if o.DistributionPercent <= 0 || 100%o.DistributionPercent != 0 {
		return fmt.Errorf("%w: distribution percent %d must divide 100", ErrInvalidInput, o.DistributionPercent)
	}
	if o.MinSplits < 1 || o.MaxSplits < o.MinSplits {
		return fmt.Errorf("%w: split window [%d, %d] is invalid", ErrInvalidInput, o.MinSplits, o.MaxSplits)
	}
	if o.MaxSwapsPerPath < 1 {
		return fmt.Errorf("%w: max swaps per path must be positive", ErrInvalidInput)
	}
	return nil
}

// HasProtocol returns true if the given protocol is enabled in the options.
func (o RoutingOptions) HasProtocol(p Protocol) bool {
	for _, enabled := range o.Protocols {
		if enabled == p {
			return true
		}
	}
	return false
}
