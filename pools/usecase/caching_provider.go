package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/cache"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
)

var (
	poolCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sor_pool_cache_hits_total",
			Help: "Total number of pool metadata cache hits",
		},
		[]string{"protocol"},
	)
	poolCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sor_pool_cache_misses_total",
			Help: "Total number of pool metadata cache misses",
		},
		[]string{"protocol"},
	)
)

func init() {
	prometheus.MustRegister(poolCacheHits)
	prometheus.MustRegister(poolCacheMisses)
}

// poolCacheKey formats the cache key for a pool. The block suffix is present
// only when the caller pins a block, so entries pinned to different blocks
// never collide and latest-block entries expire on their own.
func poolCacheKey(chainID domain.ChainID, key string, blockNumber uint64) string {
	if blockNumber > 0 {
		return fmt.Sprintf("pool-%d-%s-%d", chainID, key, blockNumber)
	}
	return fmt.Sprintf("pool-%d-%s", chainID, key)
}

// cachingV3PoolProvider caches pool state by (chain, pool key, block).
// Cache hits never revalidate.
type cachingV3PoolProvider struct {
	chainID domain.ChainID
	inner   mvc.V3PoolProvider
	cache   *cache.Cache
	expiry  time.Duration
}

var _ mvc.V3PoolProvider = &cachingV3PoolProvider{}

// NewCachingV3PoolProvider wraps the provider with a pool state cache.
func NewCachingV3PoolProvider(chainID domain.ChainID, inner mvc.V3PoolProvider, poolCache *cache.Cache, expiry time.Duration) mvc.V3PoolProvider {
	return &cachingV3PoolProvider{
		chainID: chainID,
		inner:   inner,
		cache:   poolCache,
		expiry:  expiry,
	}
}

// GetPoolAddress implements mvc.V3PoolProvider.
func (c *cachingV3PoolProvider) GetPoolAddress(tokenA, tokenB domain.Token, fee domain.FeeTier) common.Address {
	return c.inner.GetPoolAddress(tokenA, tokenB, fee)
}

// GetPools implements mvc.V3PoolProvider.
func (c *cachingV3PoolProvider) GetPools(ctx context.Context, params []domain.V3PoolParams, blockNumber uint64) (mvc.V3PoolAccessor, error) {
	accessor := newV3PoolAccessor()
	misses := make([]domain.V3PoolParams, 0, len(params))

	for _, param := range params {
		token0, token1 := sortTokens(param.TokenA, param.TokenB)
		key := poolCacheKey(c.chainID, v3PoolKey(token0.Address, token1.Address, param.Fee), blockNumber)

		if cached, found := c.cache.Get(key); found {
			poolCacheHits.WithLabelValues(string(domain.ProtocolV3)).Inc()
			accessor.add(cached.(*domain.V3Pool))
			continue
		}
		poolCacheMisses.WithLabelValues(string(domain.ProtocolV3)).Inc()
		misses = append(misses, param)
	}

	if len(misses) == 0 {
		return accessor, nil
	}

	loaded, err := c.inner.GetPools(ctx, misses, blockNumber)
	if err != nil {
		return nil, err
	}

	for _, pool := range loaded.GetAllPools() {
		key := poolCacheKey(c.chainID, v3PoolKey(pool.Token0.Address, pool.Token1.Address, pool.Fee), blockNumber)
		c.cache.Set(key, pool, c.expiry)
		accessor.add(pool)
	}

	return accessor, nil
}

// cachingV2PoolProvider mirrors cachingV3PoolProvider for pairs.
type cachingV2PoolProvider struct {
	chainID domain.ChainID
	inner   mvc.V2PoolProvider
	cache   *cache.Cache
	expiry  time.Duration
}

var _ mvc.V2PoolProvider = &cachingV2PoolProvider{}

// NewCachingV2PoolProvider wraps the provider with a pool state cache.
func NewCachingV2PoolProvider(chainID domain.ChainID, inner mvc.V2PoolProvider, poolCache *cache.Cache, expiry time.Duration) mvc.V2PoolProvider {
	return &cachingV2PoolProvider{
		chainID: chainID,
		inner:   inner,
		cache:   poolCache,
		expiry:  expiry,
	}
}

// GetPools implements mvc.V2PoolProvider.
func (c *cachingV2PoolProvider) GetPools(ctx context.Context, params []domain.V2PoolParams, blockNumber uint64) (mvc.V2PoolAccessor, error) {
	accessor := newV2PoolAccessor()
	misses := make([]domain.V2PoolParams, 0, len(params))

	for _, param := range params {
		token0, token1 := sortTokens(param.TokenA, param.TokenB)
		key := poolCacheKey(c.chainID, v2PoolKey(token0.Address, token1.Address), blockNumber)

		if cached, found := c.cache.Get(key); found {
			poolCacheHits.WithLabelValues(string(domain.ProtocolV2)).Inc()
			accessor.add(cached.(*domain.V2Pool))
			continue
		}
		poolCacheMisses.WithLabelValues(string(domain.ProtocolV2)).Inc()
		misses = append(misses, param)
	}

	if len(misses) == 0 {
		return accessor, nil
	}

	loaded, err := c.inner.GetPools(ctx, misses, blockNumber)
	if err != nil {
		return nil, err
	}

	for _, pool := range loaded.GetAllPools() {
		key := poolCacheKey(c.chainID, v2PoolKey(pool.Token0.Address, pool.Token1.Address), blockNumber)
		c.cache.Set(key, pool, c.expiry)
		accessor.add(pool)
	}

	return accessor, nil
}

// cachingStablePoolProvider caches stable pool state by pool ID. Wrapper
// pools ride along with their underlying pool entries.
type cachingStablePoolProvider struct {
	chainID domain.ChainID
	inner   mvc.StablePoolProvider
	cache   *cache.Cache
	expiry  time.Duration
}

var _ mvc.StablePoolProvider = &cachingStablePoolProvider{}

// NewCachingStablePoolProvider wraps the provider with a pool state cache.
func NewCachingStablePoolProvider(chainID domain.ChainID, inner mvc.StablePoolProvider, poolCache *cache.Cache, expiry time.Duration) mvc.StablePoolProvider {
	return &cachingStablePoolProvider{
		chainID: chainID,
		inner:   inner,
		cache:   poolCache,
		expiry:  expiry,
	}
}

// stableCacheEntry pairs a stable pool with its optional wrapper.
type stableCacheEntry struct {
	pool    *domain.StablePool
	wrapper *domain.StableWrapperPool
}

// GetPools implements mvc.StablePoolProvider.
func (c *cachingStablePoolProvider) GetPools(ctx context.Context, params []domain.StablePoolParams, blockNumber uint64) (mvc.StablePoolAccessor, error) {
	accessor := newStablePoolAccessor()
	misses := make([]domain.StablePoolParams, 0, len(params))

	for _, param := range params {
		key := poolCacheKey(c.chainID, param.PoolID.Hex(), blockNumber)

		if cached, found := c.cache.Get(key); found {
			poolCacheHits.WithLabelValues(string(domain.ProtocolStable)).Inc()
			entry := cached.(stableCacheEntry)
			accessor.add(entry.pool)
			if entry.wrapper != nil {
				accessor.addWrapper(entry.wrapper)
			}
			continue
		}
		poolCacheMisses.WithLabelValues(string(domain.ProtocolStable)).Inc()
		misses = append(misses, param)
	}

	if len(misses) == 0 {
		return accessor, nil
	}

	loaded, err := c.inner.GetPools(ctx, misses, blockNumber)
	if err != nil {
		return nil, err
	}

	wrappersByID := make(map[common.Hash]*domain.StableWrapperPool)
	for _, wrapper := range loaded.GetAllWrapperPools() {
		wrappersByID[wrapper.PoolID] = wrapper
		accessor.addWrapper(wrapper)
	}

	for _, pool := range loaded.GetAllPools() {
		key := poolCacheKey(c.chainID, pool.PoolID.Hex(), blockNumber)
		c.cache.Set(key, stableCacheEntry{pool: pool, wrapper: wrappersByID[pool.PoolID]}, c.expiry)
		accessor.add(pool)
	}

	return accessor, nil
}
