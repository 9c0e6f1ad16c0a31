package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

const tokenCacheSize = 8192

var (
	tokenCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sor_token_cache_hits_total",
			Help: "Total number of token metadata cache hits",
		},
	)
	tokenCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sor_token_cache_misses_total",
			Help: "Total number of token metadata cache misses",
		},
	)
)

func init() {
	prometheus.MustRegister(tokenCacheHits)
	prometheus.MustRegister(tokenCacheMisses)
}

// cachingTokensUsecase memoizes token metadata in an LRU bounded at
// tokenCacheSize entries. Entries do not expire, but the least recently used
// ones are evicted once the cache is full. It is seeded
// with the chain's well-known tokens at construction, forwards misses to the
// primary provider and then to the optional fallback provider.
type cachingTokensUsecase struct {
	primary  mvc.TokensUsecase
	fallback mvc.TokensUsecase

	cache  *lru.Cache[common.Address, domain.Token]
	logger log.Logger
}

var _ mvc.TokensUsecase = &cachingTokensUsecase{}

// NewCachingTokensUsecase wraps the given providers with an in-process
// memoization layer. fallback may be nil.
func NewCachingTokensUsecase(chainID domain.ChainID, primary, fallback mvc.TokensUsecase, logger log.Logger) (mvc.TokensUsecase, error) {
	cache, err := lru.New[common.Address, domain.Token](tokenCacheSize)
	if err != nil {
		return nil, err
	}

	// Seed well-known tokens so the hot path never leaves the process.
	for _, token := range chain.BaseTokens(chainID) {
		cache.Add(token.Address, token)
	}
	if wrapped, err := chain.WrappedNative(chainID); err == nil {
		cache.Add(wrapped.Address, wrapped)
	}

	return &cachingTokensUsecase{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		logger:   logger,
	}, nil
}

// GetTokens implements mvc.TokensUsecase.
// Token metadata is immutable, so cache entries never revalidate and the
// pinned block is used only for the initial resolution of a miss.
func (c *cachingTokensUsecase) GetTokens(ctx context.Context, addresses []common.Address, blockNumber uint64) (mvc.TokenAccessor, error) {
	accessor := newTokenAccessor()

	misses := make([]common.Address, 0)
	for _, address := range dedupeAddresses(addresses) {
		if token, found := c.cache.Get(address); found {
			tokenCacheHits.Inc()
			accessor.add(token)
			continue
		}
		tokenCacheMisses.Inc()
		misses = append(misses, address)
	}

	if len(misses) == 0 {
		return accessor, nil
	}

	resolved, err := c.resolveMisses(ctx, misses, blockNumber)
	if err != nil {
		return nil, err
	}

	for _, token := range resolved {
		c.cache.Add(token.Address, token)
		accessor.add(token)
	}

	return accessor, nil
}

func (c *cachingTokensUsecase) resolveMisses(ctx context.Context, misses []common.Address, blockNumber uint64) ([]domain.Token, error) {
	primaryAccessor, err := c.primary.GetTokens(ctx, misses, blockNumber)
	if err != nil {
		if c.fallback == nil {
			return nil, err
		}
		primaryAccessor = newTokenAccessor()
	}

	resolved := primaryAccessor.GetAllTokens()

	// Any address the primary dropped gets one more chance on the fallback.
	if c.fallback != nil && len(resolved) < len(misses) {
		unresolved := make([]common.Address, 0, len(misses)-len(resolved))
		for _, address := range misses {
			if _, found := primaryAccessor.GetTokenByAddress(address); !found {
				unresolved = append(unresolved, address)
			}
		}

		fallbackAccessor, err := c.fallback.GetTokens(ctx, unresolved, blockNumber)
		if err == nil {
			resolved = append(resolved, fallbackAccessor.GetAllTokens()...)
		}
	}

	return resolved, nil
}
