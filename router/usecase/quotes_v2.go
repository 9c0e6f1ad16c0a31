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

const v2RouterABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"}
		],
		"name": "getAmountsOut",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"}
		],
		"name": "getAmountsIn",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// v2RouterByChain maps each chain to the constant-product router carrying
// the on-chain amount helpers used for quoting.
var v2RouterByChain = map[domain.ChainID]common.Address{
	domain.ChainMainnet:  common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
	domain.ChainOptimism: common.HexToAddress("0x4A7b5Da61326A6379179b40d00F57E5bbDC962c2"),
	domain.ChainArbitrum: common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
	domain.ChainSepolia:  common.HexToAddress("0xeE567Fe1712Faf6149d80dA1E6934E354124CfE3"),
}

// v2QuoteFetcher quotes constant-product routes through the router's
// on-chain amount helpers. Supports both trade directions.
type v2QuoteFetcher struct {
	router          common.Address
	routerABI       abi.ABI
	batcher         *multicall.Batcher
	gasLimitPerCall uint64
	logger          log.Logger
}

var _ mvc.QuoteFetcher = &v2QuoteFetcher{}

// NewV2QuoteFetcher creates the constant-product quote fetcher.
func NewV2QuoteFetcher(chainID domain.ChainID, batcher *multicall.Batcher, gasLimitPerCall uint64, logger log.Logger) (mvc.QuoteFetcher, error) {
	routerABI, err := abi.JSON(strings.NewReader(v2RouterABI))
	if err != nil {
		return nil, err
	}

	router, ok := v2RouterByChain[chainID]
	if !ok {
		router = chain.SwapRouterAddress(chainID)
	}

	return &v2QuoteFetcher{
		router:          router,
		routerABI:       routerABI,
		batcher:         batcher,
		gasLimitPerCall: gasLimitPerCall,
		logger:          logger,
	}, nil
}

// GetQuotesExactIn implements mvc.QuoteFetcher.
func (f *v2QuoteFetcher) GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return f.getQuotes(ctx, routes, amounts, blockNumber, "getAmountsOut")
}

// GetQuotesExactOut implements mvc.QuoteFetcher.
func (f *v2QuoteFetcher) GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return f.getQuotes(ctx, routes, amounts, blockNumber, "getAmountsIn")
}

func (f *v2QuoteFetcher) getQuotes(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64, fn string) ([]domain.RouteQuotes, error) {
	calls := make([]multicall.Call, 0, len(routes)*len(amounts))

	for _, r := range routes {
		path := make([]common.Address, 0, len(r.TokenPath()))
		for _, token := range r.TokenPath() {
			path = append(path, token.Address)
		}

		for _, amount := range amounts {
			callData, err := f.routerABI.Pack(fn, amount.Quotient(), path)
			if err != nil {
				return nil, err
			}
			calls = append(calls, multicall.Call{
				Target:   f.router,
				CallData: callData,
				GasLimit: f.gasLimitPerCall,
			})
		}
	}

	batch := &quoteBatch{
		batcher:  f.batcher,
		calls:    calls,
		protocol: domain.ProtocolV2,
		decode: func(result multicall.Result, routeIdx, amountIdx int) (*big.Int, *domain.V3QuoteData, uint64, bool) {
			unpacked, err := f.routerABI.Unpack(fn, result.ReturnData)
			if err != nil || len(unpacked) == 0 {
				return nil, nil, 0, false
			}

			chained, ok := unpacked[0].([]*big.Int)
			if !ok || len(chained) == 0 {
				return nil, nil, 0, false
			}

			// getAmountsOut reports the output last; getAmountsIn the
			// required input first.
			if fn == "getAmountsOut" {
				return chained[len(chained)-1], nil, 0, true
			}
			return chained[0], nil, 0, true
		},
	}

	return batch.run(ctx, routes, amounts, blockNumber)
}
