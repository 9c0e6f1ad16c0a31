package usecase

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/multicall"
)

const stableVaultABI = `[
	{
		"inputs": [{"internalType": "bytes32", "name": "poolId", "type": "bytes32"}],
		"name": "getPoolTokens",
		"outputs": [
			{"internalType": "address[]", "name": "tokens", "type": "address[]"},
			{"internalType": "uint256[]", "name": "balances", "type": "uint256[]"},
			{"internalType": "uint256", "name": "lastChangeBlock", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

const stablePoolABI = `[
	{
		"inputs": [],
		"name": "getAmplificationParameter",
		"outputs": [
			{"internalType": "uint256", "name": "value", "type": "uint256"},
			{"internalType": "bool", "name": "isUpdating", "type": "bool"},
			{"internalType": "uint256", "name": "precision", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getSwapFeePercentage",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getScalingFactors",
		"outputs": [{"internalType": "uint256[]", "name": "", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getRate",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

type stablePoolProvider struct {
	chainID   domain.ChainID
	vault     common.Address
	multicall multicall.Caller
	vaultABI  abi.ABI
	poolABI   abi.ABI
	logger    log.Logger
}

var _ mvc.StablePoolProvider = &stablePoolProvider{}

// NewStablePoolProvider creates a stable pool state provider over the vault.
func NewStablePoolProvider(chainID domain.ChainID, caller multicall.Caller, logger log.Logger) (mvc.StablePoolProvider, error) {
	vaultABI, err := abi.JSON(strings.NewReader(stableVaultABI))
	if err != nil {
		return nil, err
	}
	poolABI, err := abi.JSON(strings.NewReader(stablePoolABI))
	if err != nil {
		return nil, err
	}

	return &stablePoolProvider{
		chainID:   chainID,
		vault:     chain.StableVaultAddress(chainID),
		multicall: caller,
		vaultABI:  vaultABI,
		poolABI:   poolABI,
		logger:    logger,
	}, nil
}

// GetPools implements mvc.StablePoolProvider.
// Any pool with a failed state read is dropped, never fatal. Wrapper pools
// are materialized alongside their underlying pools when the wrapper's rate
// resolves.
func (p *stablePoolProvider) GetPools(ctx context.Context, params []domain.StablePoolParams, blockNumber uint64) (mvc.StablePoolAccessor, error) {
	// Vault holds per-pool token balances, keyed by pool ID.
	paramSets := make([][]interface{}, 0, len(params))
	for _, param := range params {
		paramSets = append(paramSets, []interface{}{[32]byte(param.PoolID)})
	}

	tokenResults, _, err := p.multicall.AggregateSameFunctionOneContractManyParams(ctx, p.vault, p.vaultABI, "getPoolTokens", paramSets, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	// Pool-level parameters live on the pool contract, derived from the
	// leading 20 bytes of the pool ID.
	poolAddresses := make([]common.Address, 0, len(params))
	for _, param := range params {
		poolAddresses = append(poolAddresses, common.BytesToAddress(param.PoolID.Bytes()[:20]))
	}

	ampResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, poolAddresses, p.poolABI, "getAmplificationParameter", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}
	feeResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, poolAddresses, p.poolABI, "getSwapFeePercentage", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}
	supplyResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, poolAddresses, p.poolABI, "totalSupply", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}
	scalingResults, _, err := p.multicall.AggregateSameFunctionManyContracts(ctx, poolAddresses, p.poolABI, "getScalingFactors", nil, poolStateGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	// Wrapper rates resolve on the wrapper token contract.
	wrapperAddresses := make([]common.Address, 0)
	wrapperIndex := make(map[int]int)
	for i, param := range params {
		if param.Wrapper != nil {
			wrapperIndex[i] = len(wrapperAddresses)
			wrapperAddresses = append(wrapperAddresses, param.Wrapper.Address)
		}
	}

	var rateResults []multicall.Result
	if len(wrapperAddresses) > 0 {
		rateResults, _, err = p.multicall.AggregateSameFunctionManyContracts(ctx, wrapperAddresses, p.poolABI, "getRate", nil, poolStateGasLimit, blockNumber)
		if err != nil {
			return nil, err
		}
	}

	accessor := newStablePoolAccessor()

	for i, param := range params {
		balances, ok := p.decodePoolTokens(tokenResults[i], len(param.Tokens))
		if !ok {
			p.logger.Debug("dropping stable pool with failed vault read",
				zap.String("pool_id", param.PoolID.Hex()))
			continue
		}

		amplification, ok := p.decodeFirstBigInt(ampResults[i], "getAmplificationParameter")
		if !ok {
			p.logger.Debug("dropping stable pool with failed amplification read",
				zap.String("pool_id", param.PoolID.Hex()))
			continue
		}

		swapFee, ok := p.decodeFirstBigInt(feeResults[i], "getSwapFeePercentage")
		if !ok {
			continue
		}

		totalShares, ok := p.decodeFirstBigInt(supplyResults[i], "totalSupply")
		if !ok {
			continue
		}

		scalingFactors, ok := p.decodeBigIntSlice(scalingResults[i], "getScalingFactors")
		if !ok {
			continue
		}

		pool := &domain.StablePool{
			ChainID:        p.chainID,
			PoolID:         param.PoolID,
			PoolAddress:    poolAddresses[i],
			TokensList:     param.Tokens,
			Amplification:  amplification,
			SwapFee:        swapFee,
			TotalShares:    totalShares,
			Balances:       balances,
			ScalingFactors: scalingFactors,
		}
		accessor.add(pool)

		// The wrapper edge joins the pool share token with the vault token.
		if param.Wrapper != nil {
			rateIdx := wrapperIndex[i]
			rate, ok := p.decodeFirstBigInt(rateResults[rateIdx], "getRate")
			if !ok {
				p.logger.Debug("dropping stable wrapper with failed rate read",
					zap.String("pool_id", param.PoolID.Hex()))
				continue
			}

			shareToken := domain.NewToken(p.chainID, poolAddresses[i], 18, "")
			accessor.addWrapper(&domain.StableWrapperPool{
				ChainID:     p.chainID,
				PoolID:      param.PoolID,
				PoolAddress: param.Wrapper.Address,
				ShareToken:  shareToken,
				VaultToken:  *param.Wrapper,
				Rate:        rate,
			})
		}
	}

	return accessor, nil
}

func (p *stablePoolProvider) decodePoolTokens(result multicall.Result, expectedTokens int) ([]*big.Int, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return nil, false
	}

	unpacked, err := p.vaultABI.Unpack("getPoolTokens", result.ReturnData)
	if err != nil || len(unpacked) < 2 {
		return nil, false
	}

	balances, ok := unpacked[1].([]*big.Int)
	if !ok || len(balances) != expectedTokens {
		return nil, false
	}
	return balances, true
}

func (p *stablePoolProvider) decodeFirstBigInt(result multicall.Result, fn string) (*big.Int, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return nil, false
	}

	unpacked, err := p.poolABI.Unpack(fn, result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return nil, false
	}

	value, ok := unpacked[0].(*big.Int)
	return value, ok
}

func (p *stablePoolProvider) decodeBigIntSlice(result multicall.Result, fn string) ([]*big.Int, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return nil, false
	}

	unpacked, err := p.poolABI.Unpack(fn, result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return nil, false
	}

	values, ok := unpacked[0].([]*big.Int)
	return values, ok
}

// stablePoolAccessor indexes loaded stable pools by pool ID.
type stablePoolAccessor struct {
	byID     map[common.Hash]*domain.StablePool
	all      []*domain.StablePool
	wrappers []*domain.StableWrapperPool
}

var _ mvc.StablePoolAccessor = &stablePoolAccessor{}

func newStablePoolAccessor() *stablePoolAccessor {
	return &stablePoolAccessor{byID: make(map[common.Hash]*domain.StablePool)}
}

func (a *stablePoolAccessor) add(pool *domain.StablePool) {
	a.byID[pool.PoolID] = pool
	a.all = append(a.all, pool)
}

func (a *stablePoolAccessor) addWrapper(pool *domain.StableWrapperPool) {
	a.wrappers = append(a.wrappers, pool)
}

// GetPool implements mvc.StablePoolAccessor.
func (a *stablePoolAccessor) GetPool(poolID common.Hash) (*domain.StablePool, bool) {
	pool, found := a.byID[poolID]
	return pool, found
}

// GetAllPools implements mvc.StablePoolAccessor.
func (a *stablePoolAccessor) GetAllPools() []*domain.StablePool {
	return a.all
}

// GetAllWrapperPools implements mvc.StablePoolAccessor.
func (a *stablePoolAccessor) GetAllWrapperPools() []*domain.StableWrapperPool {
	return a.wrappers
}
