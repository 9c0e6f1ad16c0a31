package usecase

import (
	"bytes"
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/multicall"
)

const v3PoolABI = `[
	{
		"inputs": [],
		"name": "slot0",
		"outputs": [
			{"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
			{"internalType": "int24", "name": "tick", "type": "int24"},
			{"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
			{"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
			{"internalType": "bool", "name": "unlocked", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "liquidity",
		"outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const poolStateGasLimit = 120_000

type v3PoolProvider struct {
	chainID   domain.ChainID
	factory   common.Address
	multicall multicall.Caller
	poolABI   abi.ABI
	logger    log.Logger
}

var _ mvc.V3PoolProvider = &v3PoolProvider{}

// NewV3PoolProvider creates a concentrated-liquidity pool state provider.
func NewV3PoolProvider(chainID domain.ChainID, caller multicall.Caller, logger log.Logger) (mvc.V3PoolProvider, error) {
	poolABI, err := abi.JSON(strings.NewReader(v3PoolABI))
	if err != nil {
		return nil, err
	}

	return &v3PoolProvider{
		chainID:   chainID,
		factory:   chain.V3FactoryAddress(chainID),
		multicall: caller,
		poolABI:   poolABI,
		logger:    logger,
	}, nil
}

// GetPoolAddress implements mvc.V3PoolProvider.
// The pool address is derived deterministically from
// (factory, token0, token1, fee), which lets the router probe pools the
// indexer has never reported.
func (p *v3PoolProvider) GetPoolAddress(tokenA, tokenB domain.Token, fee domain.FeeTier) common.Address {
	token0, token1 := sortTokens(tokenA, tokenB)

	addressType, _ := abi.NewType("address", "", nil)
	uint24Type, _ := abi.NewType("uint24", "", nil)

	saltArgs := abi.Arguments{{Type: addressType}, {Type: addressType}, {Type: uint24Type}}
	encoded, err := saltArgs.Pack(token0.Address, token1.Address, big.NewInt(int64(fee)))
	if err != nil {
		panic(err)
	}
	salt := crypto.Keccak256Hash(encoded)

	return deriveCreate2Address(p.factory, salt, chain.V3PoolInitCodeHash)
}

// GetPools implements mvc.V3PoolProvider.
// Pools whose state calls fail are dropped and logged, never fatal.
func (p *v3PoolProvider) GetPools(ctx context.Context, params []domain.V3PoolParams, blockNumber uint64) (mvc.V3PoolAccessor, error) {
	addresses := make([]common.Address, 0, len(params))
	for _, param := range params {
		addresses = append(addresses, p.GetPoolAddress(param.TokenA, param.TokenB, param.Fee))
	}

	slot0Results, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, addresses, p.poolABI, "slot0", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	liquidityResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, addresses, p.poolABI, "liquidity", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	accessor := newV3PoolAccessor()

	for i, param := range params {
		slot0, ok := p.decodeSlot0(slot0Results[i])
		if !ok {
			p.logger.Debug("dropping v3 pool with failed slot0",
				zap.String("address", addresses[i].Hex()))
			continue
		}

		liquidity, ok := p.decodeLiquidity(liquidityResults[i])
		if !ok {
			p.logger.Debug("dropping v3 pool with failed liquidity",
				zap.String("address", addresses[i].Hex()))
			continue
		}

		token0, token1 := sortTokens(param.TokenA, param.TokenB)

		accessor.add(&domain.V3Pool{
			ChainID:      p.chainID,
			PoolAddress:  addresses[i],
			Token0:       token0,
			Token1:       token1,
			Fee:          param.Fee,
			Liquidity:    liquidity,
			SqrtPriceX96: slot0.sqrtPriceX96,
			Tick:         slot0.tick,
		})
	}

	return accessor, nil
}

type slot0Data struct {
	sqrtPriceX96 *big.Int
	tick         int
}

func (p *v3PoolProvider) decodeSlot0(result multicall.Result) (slot0Data, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return slot0Data{}, false
	}

	unpacked, err := p.poolABI.Unpack("slot0", result.ReturnData)
	if err != nil || len(unpacked) < 2 {
		return slot0Data{}, false
	}

	sqrtPriceX96, ok := unpacked[0].(*big.Int)
	if !ok || sqrtPriceX96.Sign() == 0 {
		// An uninitialized pool reports a zero price and cannot be quoted.
		return slot0Data{}, false
	}

	tick, ok := unpacked[1].(*big.Int)
	if !ok {
		return slot0Data{}, false
	}

	return slot0Data{sqrtPriceX96: sqrtPriceX96, tick: int(tick.Int64())}, true
}

func (p *v3PoolProvider) decodeLiquidity(result multicall.Result) (*big.Int, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return nil, false
	}

	unpacked, err := p.poolABI.Unpack("liquidity", result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return nil, false
	}

	liquidity, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, false
	}
	return liquidity, true
}

// v3PoolAccessor indexes loaded pools by (token0, token1, fee).
type v3PoolAccessor struct {
	byKey map[string]*domain.V3Pool
	all   []*domain.V3Pool
}

var _ mvc.V3PoolAccessor = &v3PoolAccessor{}

func newV3PoolAccessor() *v3PoolAccessor {
	return &v3PoolAccessor{byKey: make(map[string]*domain.V3Pool)}
}

func (a *v3PoolAccessor) add(pool *domain.V3Pool) {
	a.byKey[v3PoolKey(pool.Token0.Address, pool.Token1.Address, pool.Fee)] = pool
	a.all = append(a.all, pool)
}

// GetPool implements mvc.V3PoolAccessor.
func (a *v3PoolAccessor) GetPool(tokenA, tokenB common.Address, fee domain.FeeTier) (*domain.V3Pool, bool) {
	if bytes.Compare(tokenB.Bytes(), tokenA.Bytes()) < 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	pool, found := a.byKey[v3PoolKey(tokenA, tokenB, fee)]
	return pool, found
}

// GetAllPools implements mvc.V3PoolAccessor.
func (a *v3PoolAccessor) GetAllPools() []*domain.V3Pool {
	return a.all
}

func v3PoolKey(token0, token1 common.Address, fee domain.FeeTier) string {
	return strings.ToLower(token0.Hex()) + "-" + strings.ToLower(token1.Hex()) + "-" + feeTierKey(fee)
}

func feeTierKey(fee domain.FeeTier) string {
	switch fee {
	case domain.FeeTierLowest:
		return "100"
	case domain.FeeTierLow:
		return "500"
	case domain.FeeTierMedium:
		return "3000"
	case domain.FeeTierHigh:
		return "10000"
	default:
		return "0"
	}
}

// sortTokens returns the pair in canonical order: token0 is the smaller
// 20-byte address value, matching the on-chain token0/token1 assignment.
func sortTokens(tokenA, tokenB domain.Token) (domain.Token, domain.Token) {
	if tokenB.SortsBefore(tokenA) {
		return tokenB, tokenA
	}
	return tokenA, tokenB
}

// deriveCreate2Address computes the deterministic deployment address.
func deriveCreate2Address(deployer common.Address, salt common.Hash, initCodeHash common.Hash) common.Address {
	payload := make([]byte, 0, 85)
	payload = append(payload, 0xff)
	payload = append(payload, deployer.Bytes()...)
	payload = append(payload, salt.Bytes()...)
	payload = append(payload, initCodeHash.Bytes()...)

	return common.BytesToAddress(crypto.Keccak256(payload)[12:])
}
