package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/multicall"
)

const stableQuoterABI = `[
	{
		"inputs": [
			{"internalType": "uint8", "name": "kind", "type": "uint8"},
			{
				"components": [
					{"internalType": "bytes32", "name": "poolId", "type": "bytes32"},
					{"internalType": "uint256", "name": "assetInIndex", "type": "uint256"},
					{"internalType": "uint256", "name": "assetOutIndex", "type": "uint256"},
					{"internalType": "uint256", "name": "amount", "type": "uint256"},
					{"internalType": "bytes", "name": "userData", "type": "bytes"}
				],
				"internalType": "struct IVault.BatchSwapStep[]",
				"name": "swaps",
				"type": "tuple[]"
			},
			{"internalType": "address[]", "name": "assets", "type": "address[]"},
			{
				"components": [
					{"internalType": "address", "name": "sender", "type": "address"},
					{"internalType": "bool", "name": "fromInternalBalance", "type": "bool"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "bool", "name": "toInternalBalance", "type": "bool"}
				],
				"internalType": "struct IVault.FundManagement",
				"name": "funds",
				"type": "tuple"
			}
		],
		"name": "queryBatchSwap",
		"outputs": [{"internalType": "int256[]", "name": "", "type": "int256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// swapKindGivenIn is the vault's exact-in batch swap kind.
const swapKindGivenIn = uint8(0)

type batchSwapStep struct {
	PoolId        [32]byte
	AssetInIndex  *big.Int
	AssetOutIndex *big.Int
	Amount        *big.Int
	UserData      []byte
}

type fundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}

// stableQuoteFetcher quotes stable and wrapper routes through the vault's
// batch swap query. Exact-in only; exact-out is unsupported upstream and is
// surfaced as such instead of silently degrading.
type stableQuoteFetcher struct {
	vault           common.Address
	vaultABI        abi.ABI
	batcher         *multicall.Batcher
	gasLimitPerCall uint64
	logger          log.Logger
}

var _ mvc.QuoteFetcher = &stableQuoteFetcher{}

// NewStableQuoteFetcher creates the stable pool quote fetcher.
func NewStableQuoteFetcher(chainID domain.ChainID, batcher *multicall.Batcher, gasLimitPerCall uint64, logger log.Logger) (mvc.QuoteFetcher, error) {
	vaultABI, err := abi.JSON(strings.NewReader(stableQuoterABI))
	if err != nil {
		return nil, err
	}

	return &stableQuoteFetcher{
		vault:           chain.StableVaultAddress(chainID),
		vaultABI:        vaultABI,
		batcher:         batcher,
		gasLimitPerCall: gasLimitPerCall,
		logger:          logger,
	}, nil
}

// GetQuotesExactIn implements mvc.QuoteFetcher.
func (f *stableQuoteFetcher) GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	calls := make([]multicall.Call, 0, len(routes)*len(amounts))

	for _, r := range routes {
		assets, steps, err := encodeBatchSwap(r)
		if err != nil {
			return nil, err
		}

		for _, amount := range amounts {
			// The first step carries the amount; later steps consume the
			// previous step's output.
			steps[0].Amount = amount.Quotient()

			callData, err := f.vaultABI.Pack("queryBatchSwap", swapKindGivenIn, steps, assets, fundManagement{})
			if err != nil {
				return nil, err
			}
			calls = append(calls, multicall.Call{
				Target:   f.vault,
				CallData: callData,
				GasLimit: f.gasLimitPerCall,
			})
		}
	}

	batch := &quoteBatch{
		batcher:  f.batcher,
		calls:    calls,
		protocol: domain.ProtocolStable,
		decode: func(result multicall.Result, routeIdx, amountIdx int) (*big.Int, *domain.V3QuoteData, uint64, bool) {
			unpacked, err := f.vaultABI.Unpack("queryBatchSwap", result.ReturnData)
			if err != nil || len(unpacked) == 0 {
				return nil, nil, 0, false
			}

			deltas, ok := unpacked[0].([]*big.Int)
			if !ok || len(deltas) == 0 {
				return nil, nil, 0, false
			}

			// The vault reports amounts leaving it as negative deltas.
			out := new(big.Int).Neg(deltas[len(deltas)-1])
			if out.Sign() <= 0 {
				return nil, nil, 0, false
			}
			return out, nil, 0, true
		},
	}

	return batch.run(ctx, routes, amounts, blockNumber)
}

// GetQuotesExactOut implements mvc.QuoteFetcher.
func (f *stableQuoteFetcher) GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return nil, fmt.Errorf("%w: stable pools quote exact-in only", domain.ErrUnsupportedTradeType)
}

// encodeBatchSwap turns a route into vault batch swap steps over its token
// path. Wrapper hops ride through their pool ID like any other step.
func encodeBatchSwap(r domain.Route) ([]common.Address, []batchSwapStep, error) {
	tokens := r.TokenPath()
	pools := r.Pools()

	assets := make([]common.Address, 0, len(tokens))
	for _, token := range tokens {
		assets = append(assets, token.Address)
	}

	steps := make([]batchSwapStep, 0, len(pools))
	for i, pool := range pools {
		var poolID common.Hash
		switch typed := pool.(type) {
		case *domain.StablePool:
			poolID = typed.PoolID
		case *domain.StableWrapperPool:
			poolID = typed.PoolID
		default:
			return nil, nil, fmt.Errorf("pool %s is not quotable through the vault", pool.ID())
		}

		steps = append(steps, batchSwapStep{
			PoolId:        poolID,
			AssetInIndex:  big.NewInt(int64(i)),
			AssetOutIndex: big.NewInt(int64(i + 1)),
			Amount:        big.NewInt(0),
			UserData:      []byte{},
		})
	}

	return assets, steps, nil
}
