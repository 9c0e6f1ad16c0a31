package usecase

import (
	"context"
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

const v3QuoterABI = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "path", "type": "bytes"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"}
		],
		"name": "quoteExactInput",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160[]", "name": "sqrtPriceX96AfterList", "type": "uint160[]"},
			{"internalType": "uint32[]", "name": "initializedTicksCrossedList", "type": "uint32[]"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes", "name": "path", "type": "bytes"},
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"}
		],
		"name": "quoteExactOutput",
		"outputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint160[]", "name": "sqrtPriceX96AfterList", "type": "uint160[]"},
			{"internalType": "uint32[]", "name": "initializedTicksCrossedList", "type": "uint32[]"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// v3QuoteFetcher simulates concentrated-liquidity swaps through the quoter
// contract. Supports both trade directions.
type v3QuoteFetcher struct {
	quoter          common.Address
	quoterABI       abi.ABI
	batcher         *multicall.Batcher
	gasLimitPerCall uint64
	logger          log.Logger
}

var _ mvc.QuoteFetcher = &v3QuoteFetcher{}

// NewV3QuoteFetcher creates the concentrated-liquidity quote fetcher.
func NewV3QuoteFetcher(chainID domain.ChainID, batcher *multicall.Batcher, gasLimitPerCall uint64, logger log.Logger) (mvc.QuoteFetcher, error) {
	quoterABI, err := abi.JSON(strings.NewReader(v3QuoterABI))
	if err != nil {
		return nil, err
	}

	return &v3QuoteFetcher{
		quoter:          chain.QuoterAddress(chainID),
		quoterABI:       quoterABI,
		batcher:         batcher,
		gasLimitPerCall: gasLimitPerCall,
		logger:          logger,
	}, nil
}

// GetQuotesExactIn implements mvc.QuoteFetcher.
func (f *v3QuoteFetcher) GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return f.getQuotes(ctx, routes, amounts, blockNumber, "quoteExactInput", false)
}

// GetQuotesExactOut implements mvc.QuoteFetcher.
// The path is encoded output-first per the quoter's exact-output convention.
func (f *v3QuoteFetcher) GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return f.getQuotes(ctx, routes, amounts, blockNumber, "quoteExactOutput", true)
}

func (f *v3QuoteFetcher) getQuotes(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64, fn string, reversePath bool) ([]domain.RouteQuotes, error) {
	calls := make([]multicall.Call, 0, len(routes)*len(amounts))

	for _, r := range routes {
		path := EncodeV3Path(r, reversePath)
		for _, amount := range amounts {
			callData, err := f.quoterABI.Pack(fn, path, amount.Quotient())
			if err != nil {
				return nil, err
			}
			calls = append(calls, multicall.Call{
				Target:   f.quoter,
				CallData: callData,
				GasLimit: f.gasLimitPerCall,
			})
		}
	}

	batch := &quoteBatch{
		batcher:  f.batcher,
		calls:    calls,
		protocol: domain.ProtocolV3,
		decode: func(result multicall.Result, routeIdx, amountIdx int) (*big.Int, *domain.V3QuoteData, uint64, bool) {
			unpacked, err := f.quoterABI.Unpack(fn, result.ReturnData)
			if err != nil || len(unpacked) < 4 {
				return nil, nil, 0, false
			}

			quote, ok := unpacked[0].(*big.Int)
			if !ok {
				return nil, nil, 0, false
			}

			sqrtPrices, _ := unpacked[1].([]*big.Int)
			ticksCrossed, _ := unpacked[2].([]uint32)
			gasEstimate, _ := unpacked[3].(*big.Int)

			v3Data := &domain.V3QuoteData{
				SqrtPriceX96AfterList:       sqrtPrices,
				InitializedTicksCrossedList: ticksCrossed,
			}

			var gas uint64
			if gasEstimate != nil {
				gas = gasEstimate.Uint64()
			}

			return quote, v3Data, gas, true
		},
	}

	return batch.run(ctx, routes, amounts, blockNumber)
}

// EncodeV3Path packs a route into the quoter path layout:
// token (20 bytes) | fee (3 bytes) | token | ... Reversed for exact-output.
func EncodeV3Path(r domain.Route, reverse bool) []byte {
	pools := r.Pools()
	tokens := r.TokenPath()

	path := make([]byte, 0, len(tokens)*20+len(pools)*3)

	if reverse {
		path = append(path, tokens[len(tokens)-1].Address.Bytes()...)
		for i := len(pools) - 1; i >= 0; i-- {
			path = append(path, feeBytes(poolFeeTier(pools[i]))...)
			path = append(path, tokens[i].Address.Bytes()...)
		}
		return path
	}

	path = append(path, tokens[0].Address.Bytes()...)
	for i, pool := range pools {
		path = append(path, feeBytes(poolFeeTier(pool))...)
		path = append(path, tokens[i+1].Address.Bytes()...)
	}
	return path
}

func poolFeeTier(pool domain.Pool) domain.FeeTier {
	if v3, ok := pool.(*domain.V3Pool); ok {
		return v3.Fee
	}
	return 0
}

func feeBytes(fee domain.FeeTier) []byte {
	return []byte{byte(fee >> 16), byte(fee >> 8), byte(fee)}
}
