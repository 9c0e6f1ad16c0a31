package mvc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// V3PoolAccessor exposes the loaded concentrated-liquidity pools.
type V3PoolAccessor interface {
	GetPool(tokenA, tokenB common.Address, fee domain.FeeTier) (*domain.V3Pool, bool)
	GetAllPools() []*domain.V3Pool
}

// V2PoolAccessor exposes the loaded constant-product pools.
type V2PoolAccessor interface {
	GetPool(tokenA, tokenB common.Address) (*domain.V2Pool, bool)
	GetAllPools() []*domain.V2Pool
}

// StablePoolAccessor exposes the loaded stable pools and their wrappers.
type StablePoolAccessor interface {
	GetPool(poolID common.Hash) (*domain.StablePool, bool)
	GetAllPools() []*domain.StablePool
	GetAllWrapperPools() []*domain.StableWrapperPool
}

// V3PoolProvider loads concentrated-liquidity pool state from chain.
// Pools whose metadata call fails are dropped, never surfaced as errors.
type V3PoolProvider interface {
	GetPools(ctx context.Context, params []domain.V3PoolParams, blockNumber uint64) (V3PoolAccessor, error)
	// GetPoolAddress derives the deterministic pool address for the params.
	GetPoolAddress(tokenA, tokenB domain.Token, fee domain.FeeTier) common.Address
}

// V2PoolProvider loads constant-product pool state from chain.
type V2PoolProvider interface {
	GetPools(ctx context.Context, params []domain.V2PoolParams, blockNumber uint64) (V2PoolAccessor, error)
}

// StablePoolProvider loads stable pool state from the vault.
type StablePoolProvider interface {
	GetPools(ctx context.Context, params []domain.StablePoolParams, blockNumber uint64) (StablePoolAccessor, error)
}

// GasPriceProvider returns the current chain gas price in wei.
// Read once per routing invocation.
type GasPriceProvider interface {
	GetGasPriceWei(ctx context.Context) (*big.Int, error)
}

// L1FeeProvider estimates the rollup L1 data posting fee for the given
// calldata payload.
type L1FeeProvider interface {
	GetL1Fee(ctx context.Context, data []byte, blockNumber uint64) (*big.Int, error)
}
