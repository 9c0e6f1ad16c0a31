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

const v2PairABI = `[
	{
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

type v2PoolProvider struct {
	chainID   domain.ChainID
	factory   common.Address
	multicall multicall.Caller
	pairABI   abi.ABI
	logger    log.Logger
}

var _ mvc.V2PoolProvider = &v2PoolProvider{}

// NewV2PoolProvider creates a constant-product pool state provider.
func NewV2PoolProvider(chainID domain.ChainID, caller multicall.Caller, logger log.Logger) (mvc.V2PoolProvider, error) {
	pairABI, err := abi.JSON(strings.NewReader(v2PairABI))
	if err != nil {
		return nil, err
	}

	return &v2PoolProvider{
		chainID:   chainID,
		factory:   chain.V2FactoryAddress(chainID),
		multicall: caller,
		pairABI:   pairABI,
		logger:    logger,
	}, nil
}

// GetPools implements mvc.V2PoolProvider.
// Pairs whose reserve call fails are dropped and logged, never fatal.
func (p *v2PoolProvider) GetPools(ctx context.Context, params []domain.V2PoolParams, blockNumber uint64) (mvc.V2PoolAccessor, error) {
	addresses := make([]common.Address, 0, len(params))
	for _, param := range params {
		addresses = append(addresses, p.pairAddress(param.TokenA, param.TokenB))
	}

	reserveResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, addresses, p.pairABI, "getReserves", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	accessor := newV2PoolAccessor()

	for i, param := range params {
		reserve0, reserve1, ok := p.decodeReserves(reserveResults[i])
		if !ok {
			p.logger.Debug("dropping v2 pair with failed reserves",
				zap.String("address", addresses[i].Hex()))
			continue
		}

		// getReserves reports reserves in the pair's token0/token1 order;
		// sortTokens reproduces that same by-value ordering, so reserve0
		// stays bound to token0.
		token0, token1 := sortTokens(param.TokenA, param.TokenB)

		accessor.add(&domain.V2Pool{
			ChainID:     p.chainID,
			PoolAddress: addresses[i],
			Token0:      token0,
			Token1:      token1,
			Reserve0:    reserve0,
			Reserve1:    reserve1,
		})
	}

	return accessor, nil
}

// pairAddress derives the deterministic pair address from the factory.
func (p *v2PoolProvider) pairAddress(tokenA, tokenB domain.Token) common.Address {
	token0, token1 := sortTokens(tokenA, tokenB)

	salt := crypto.Keccak256Hash(append(token0.Address.Bytes(), token1.Address.Bytes()...))

	return deriveCreate2Address(p.factory, salt, chain.V2PoolInitCodeHash)
}

func (p *v2PoolProvider) decodeReserves(result multicall.Result) (*big.Int, *big.Int, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return nil, nil, false
	}

	unpacked, err := p.pairABI.Unpack("getReserves", result.ReturnData)
	if err != nil || len(unpacked) < 2 {
		return nil, nil, false
	}

	reserve0, ok0 := unpacked[0].(*big.Int)
	reserve1, ok1 := unpacked[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, false
	}

	// A drained pair cannot be quoted.
	if reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return nil, nil, false
	}

	return reserve0, reserve1, true
}

// v2PoolAccessor indexes loaded pairs by (token0, token1).
type v2PoolAccessor struct {
	byKey map[string]*domain.V2Pool
	all   []*domain.V2Pool
}

var _ mvc.V2PoolAccessor = &v2PoolAccessor{}

func newV2PoolAccessor() *v2PoolAccessor {
	return &v2PoolAccessor{byKey: make(map[string]*domain.V2Pool)}
}

func (a *v2PoolAccessor) add(pool *domain.V2Pool) {
	a.byKey[v2PoolKey(pool.Token0.Address, pool.Token1.Address)] = pool
	a.all = append(a.all, pool)
}

// GetPool implements mvc.V2PoolAccessor.
func (a *v2PoolAccessor) GetPool(tokenA, tokenB common.Address) (*domain.V2Pool, bool) {
	if bytes.Compare(tokenB.Bytes(), tokenA.Bytes()) < 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	pool, found := a.byKey[v2PoolKey(tokenA, tokenB)]
	return pool, found
}

// GetAllPools implements mvc.V2PoolAccessor.
func (a *v2PoolAccessor) GetAllPools() []*domain.V2Pool {
	return a.all
}

func v2PoolKey(token0, token1 common.Address) string {
	return strings.ToLower(token0.Hex()) + "-" + strings.ToLower(token1.Hex())
}
