package usecase

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/chain"
	"github.com/Maia-DAO/smart-order-router/domain"
)

// Call-data assembly for the on-chain swap router. Each sub-route becomes
// one router call; the calls are wrapped into the router's deadline-checked
// multicall. The caller submits the returned parameters as-is.

const swapRouterABIJSON = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "bytes", "name": "path", "type": "bytes"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"}
				],
				"internalType": "struct IV3SwapRouter.ExactInputParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactInput",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{
				"components": [
					{"internalType": "bytes", "name": "path", "type": "bytes"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
					{"internalType": "uint256", "name": "amountInMaximum", "type": "uint256"}
				],
				"internalType": "struct IV3SwapRouter.ExactOutputParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactOutput",
		"outputs": [{"internalType": "uint256", "name": "amountIn", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint256", "name": "amountInMax", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"}
		],
		"name": "swapTokensForExactTokens",
		"outputs": [{"internalType": "uint256", "name": "amountIn", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "deadline", "type": "uint256"},
			{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}
		],
		"name": "multicall",
		"outputs": [{"internalType": "bytes[]", "name": "results", "type": "bytes[]"}],
		"stateMutability": "payable",
		"type": "function"
	}
]`

const defaultSlippageBps = 50

type methodParamsBuilder struct {
	chainID   domain.ChainID
	routerABI abi.ABI
}

func newMethodParamsBuilder(chainID domain.ChainID) (*methodParamsBuilder, error) {
	routerABI, err := abi.JSON(strings.NewReader(swapRouterABIJSON))
	if err != nil {
		return nil, err
	}
	return &methodParamsBuilder{chainID: chainID, routerABI: routerABI}, nil
}

type exactInputParams struct {
	Path             []byte
	Recipient        common.Address
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

type exactOutputParams struct {
	Path            []byte
	Recipient       common.Address
	AmountOut       *big.Int
	AmountInMaximum *big.Int
}

// build assembles the router call parameters for the winning plan.
// nativeInput reports that the input currency is native and gets wrapped by
// the router; the attached value is then the sum of the sub-route inputs
// (exact-in) or of their slippage-raised maxima (exact-out).
func (b *methodParamsBuilder) build(
	tradeType domain.TradeType,
	routes []domain.RouteWithQuote,
	swapConfig *domain.SwapConfig,
	nativeInput bool,
) (*domain.MethodParameters, error) {
	if swapConfig == nil {
		swapConfig = &domain.SwapConfig{}
	}

	slippageBps := swapConfig.SlippageBps
	if slippageBps <= 0 {
		slippageBps = defaultSlippageBps
	}

	calls := make([][]byte, 0, len(routes))
	value := big.NewInt(0)

	for _, rwq := range routes {
		callData, err := b.encodeRouteCall(tradeType, rwq, swapConfig.Recipient, slippageBps)
		if err != nil {
			return nil, err
		}
		calls = append(calls, callData)

		if nativeInput {
			if tradeType == domain.TradeTypeExactInput {
				value.Add(value, rwq.Amount.Quotient())
			} else {
				value.Add(value, applySlippageUp(rwq.Quote.Quotient(), slippageBps))
			}
		}
	}

	deadline := new(big.Int).SetUint64(swapConfig.Deadline)
	calldata, err := b.routerABI.Pack("multicall", deadline, calls)
	if err != nil {
		return nil, err
	}

	return &domain.MethodParameters{
		Calldata: calldata,
		Value:    value,
		To:       chain.SwapRouterAddress(b.chainID),
	}, nil
}

func (b *methodParamsBuilder) encodeRouteCall(tradeType domain.TradeType, rwq domain.RouteWithQuote, recipient common.Address, slippageBps int) ([]byte, error) {
	r := rwq.Route

	switch r.Protocol() {
	case domain.ProtocolV2:
		path := make([]common.Address, 0, len(r.TokenPath()))
		for _, token := range r.TokenPath() {
			path = append(path, token.Address)
		}

		if tradeType == domain.TradeTypeExactInput {
			return b.routerABI.Pack("swapExactTokensForTokens",
				rwq.Amount.Quotient(),
				applySlippageDown(rwq.Quote.Quotient(), slippageBps),
				path,
				recipient)
		}
		return b.routerABI.Pack("swapTokensForExactTokens",
			rwq.Amount.Quotient(),
			applySlippageUp(rwq.Quote.Quotient(), slippageBps),
			path,
			recipient)

	case domain.ProtocolV3:
		if tradeType == domain.TradeTypeExactInput {
			return b.routerABI.Pack("exactInput", exactInputParams{
				Path:             EncodeV3Path(r, false),
				Recipient:        recipient,
				AmountIn:         rwq.Amount.Quotient(),
				AmountOutMinimum: applySlippageDown(rwq.Quote.Quotient(), slippageBps),
			})
		}
		return b.routerABI.Pack("exactOutput", exactOutputParams{
			Path:            EncodeV3Path(r, true),
			Recipient:       recipient,
			AmountOut:       rwq.Amount.Quotient(),
			AmountInMaximum: applySlippageUp(rwq.Quote.Quotient(), slippageBps),
		})

	case domain.ProtocolStable, domain.ProtocolStableWrapper, domain.ProtocolMixed:
		// Stable and mixed sections execute through the mixed path encoding.
		path, err := encodeMixedPath(r)
		if err != nil {
			return nil, err
		}
		return b.routerABI.Pack("exactInput", exactInputParams{
			Path:             path,
			Recipient:        recipient,
			AmountIn:         rwq.Amount.Quotient(),
			AmountOutMinimum: applySlippageDown(rwq.Quote.Quotient(), slippageBps),
		})

	default:
		return nil, fmt.Errorf("route %s has no call encoding", r.ID())
	}
}

func applySlippageDown(amount *big.Int, slippageBps int) *big.Int {
	scaled := new(big.Int).Mul(amount, big.NewInt(int64(10_000-slippageBps)))
	return scaled.Quo(scaled, big.NewInt(10_000))
}

func applySlippageUp(amount *big.Int, slippageBps int) *big.Int {
	scaled := new(big.Int).Mul(amount, big.NewInt(int64(10_000+slippageBps)))
	return scaled.Quo(scaled, big.NewInt(10_000))
}
