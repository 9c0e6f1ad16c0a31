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

const mixedQuoterABI = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "path", "type": "bytes"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"}
		],
		"name": "quoteExactInput",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160[]", "name": "v3SqrtPriceX96AfterList", "type": "uint160[]"},
			{"internalType": "uint32[]", "name": "v3InitializedTicksCrossedList", "type": "uint32[]"},
			{"internalType": "uint256", "name": "v3SwapGasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Mixed-path hop flags occupying the 3-byte fee slot. Concentrated hops
// carry their real fee; other protocols are tagged with reserved values the
// quoter dispatches on.
const (
	mixedHopFlagV2     = uint32(0x800000)
	mixedHopFlagStable = uint32(0xA00000)
)

// mixedQuoteFetcher quotes routes spanning multiple pool protocols through
// the mixed quoter contract. Exact-in only, mirroring the contract surface.
type mixedQuoteFetcher struct {
	quoter          common.Address
	quoterABI       abi.ABI
	batcher         *multicall.Batcher
	gasLimitPerCall uint64
	logger          log.Logger
}

var _ mvc.QuoteFetcher = &mixedQuoteFetcher{}

// NewMixedQuoteFetcher creates the mixed-route quote fetcher.
func NewMixedQuoteFetcher(chainID domain.ChainID, batcher *multicall.Batcher, gasLimitPerCall uint64, logger log.Logger) (mvc.QuoteFetcher, error) {
	quoterABI, err := abi.JSON(strings.NewReader(mixedQuoterABI))
	if err != nil {
		return nil, err
	}

	return &mixedQuoteFetcher{
		quoter:          chain.MixedQuoterAddress(chainID),
		quoterABI:       quoterABI,
		batcher:         batcher,
		gasLimitPerCall: gasLimitPerCall,
		logger:          logger,
	}, nil
}

// GetQuotesExactIn implements mvc.QuoteFetcher.
func (f *mixedQuoteFetcher) GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	calls := make([]multicall.Call, 0, len(routes)*len(amounts))

	for _, r := range routes {
		path, err := encodeMixedPath(r)
		if err != nil {
			return nil, err
		}

		for _, amount := range amounts {
			callData, err := f.quoterABI.Pack("quoteExactInput", path, amount.Quotient())
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
		protocol: domain.ProtocolMixed,
		decode: func(result multicall.Result, routeIdx, amountIdx int) (*big.Int, *domain.V3QuoteData, uint64, bool) {
			unpacked, err := f.quoterABI.Unpack("quoteExactInput", result.ReturnData)
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

			var gas uint64
			if gasEstimate != nil {
				gas = gasEstimate.Uint64()
			}

			return quote, &domain.V3QuoteData{
				SqrtPriceX96AfterList:       sqrtPrices,
				InitializedTicksCrossedList: ticksCrossed,
			}, gas, true
		},
	}

	return batch.run(ctx, routes, amounts, blockNumber)
}

// GetQuotesExactOut implements mvc.QuoteFetcher.
func (f *mixedQuoteFetcher) GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return nil, fmt.Errorf("%w: mixed routes quote exact-in only", domain.ErrUnsupportedTradeType)
}

// encodeMixedPath packs a route into the mixed quoter layout:
// token | flag (3 bytes) | [poolId (32 bytes)] | token | ...
// Concentrated hops put their fee tier in the flag slot; constant-product
// hops the V2 flag; stable and wrapper hops the stable flag followed by the
// 32-byte pool ID.
func encodeMixedPath(r domain.Route) ([]byte, error) {
	pools := r.Pools()
	tokens := r.TokenPath()

	path := make([]byte, 0, len(tokens)*20+len(pools)*35)
	path = append(path, tokens[0].Address.Bytes()...)

	for i, pool := range pools {
		switch typed := pool.(type) {
		case *domain.V3Pool:
			path = append(path, feeBytes(typed.Fee)...)
		case *domain.V2Pool:
			path = append(path, flagBytes(mixedHopFlagV2)...)
		case *domain.StablePool:
			path = append(path, flagBytes(mixedHopFlagStable)...)
			path = append(path, typed.PoolID.Bytes()...)
		case *domain.StableWrapperPool:
			path = append(path, flagBytes(mixedHopFlagStable)...)
			path = append(path, typed.PoolID.Bytes()...)
		default:
			return nil, fmt.Errorf("pool %s has no mixed path encoding", pool.ID())
		}

		path = append(path, tokens[i+1].Address.Bytes()...)
	}

	return path, nil
}

func flagBytes(flag uint32) []byte {
	return []byte{byte(flag >> 16), byte(flag >> 8), byte(flag)}
}
