package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TradeType fixes which side of the trade carries the exact amount.
type TradeType int

const (
	TradeTypeExactInput TradeType = iota
	TradeTypeExactOutput
)

// String implements fmt.Stringer.
func (t TradeType) String() string {
	if t == TradeTypeExactOutput {
		return "EXACT_OUTPUT"
	}
	return "EXACT_INPUT"
}

// Route is an ordered non-empty sequence of pools connecting an input token
// to an output token. Adjacent pools share a token and the route never
// revisits a pool or a token. Routes are immutable once constructed.
type Route interface {
	// Pools returns the hop pools in order.
	Pools() []Pool
	// TokenPath returns the token path, input first, output last.
	// Its length is len(Pools())+1.
	TokenPath() []Token
	// Input returns the route's input token.
	Input() Token
	// Output returns the route's output token.
	Output() Token
	// Protocol returns the route protocol: the shared pool protocol, or
	// ProtocolMixed when the route draws pools from two or more protocols.
	Protocol() Protocol
	// ID returns a deterministic route identity derived from its pool IDs.
	ID() string

	String() string
}

// V3QuoteData carries the quoter side channel used by the gas model.
type V3QuoteData struct {
	// SqrtPriceX96AfterList holds the post-swap sqrt price per hop.
	SqrtPriceX96AfterList []*big.Int
	// InitializedTicksCrossedList holds the initialized ticks crossed per hop.
	InitializedTicksCrossedList []uint32
}

// RouteWithQuote is a route carrying a fraction of the whole trade, together
// with its on-chain quote for that fraction and the gas-adjusted conversions.
type RouteWithQuote struct {
	Route Route
	// Percent is the integer share of the trade carried by this route,
	// a multiple of the configured distribution percent.
	Percent int
	// Amount is the fractional trade amount quoted over this route.
	Amount CurrencyAmount
	// Quote is the raw on-chain quote for Amount, bound to the quote token.
	Quote CurrencyAmount
	// QuoteAdjustedForGas is Quote minus the gas cost for exact-in,
	// Quote plus the gas cost for exact-out.
	QuoteAdjustedForGas CurrencyAmount
	// GasEstimate is the modeled gas for executing this route.
	GasEstimate uint64
	// GasCostInQuoteToken is the gas cost converted via the native/quote
	// reference pool. Zero when no reference pool exists.
	GasCostInQuoteToken CurrencyAmount
	// GasCostInUSD is the gas cost converted via the native/USD reference pool.
	GasCostInUSD decimal.Decimal
	// GasCostInGasToken is set only when the caller specified a gas token.
	GasCostInGasToken *CurrencyAmount

	// V3Data is present for V3 routes only.
	V3Data *V3QuoteData
}

// MethodParameters is the encoded call a caller may submit to the on-chain
// router contract. Assembled by the downstream SDK boundary.
type MethodParameters struct {
	Calldata []byte         `json:"calldata"`
	Value    *big.Int       `json:"value"`
	To       common.Address `json:"to"`
}

// Quote is the final routing plan: an ordered list of sub-routes whose
// percents sum to exactly 100, with aggregate and gas-adjusted amounts.
type Quote struct {
	TradeType TradeType
	// Amount is the fixed side of the trade as given by the caller.
	Amount CurrencyAmount
	// Quote is the aggregate quote across all sub-routes.
	Quote CurrencyAmount
	// QuoteGasAdjusted is the aggregate quote adjusted by the total gas cost.
	QuoteGasAdjusted CurrencyAmount

	EstimatedGasUsed           uint64
	EstimatedGasUsedUSD        decimal.Decimal
	EstimatedGasUsedQuoteToken CurrencyAmount
	EstimatedGasUsedGasToken   *CurrencyAmount
	GasPriceWei                *big.Int

	Routes      []RouteWithQuote
	BlockNumber uint64

	MethodParameters *MethodParameters
}

// SwapConfig carries the parameters consumed only by the call-data assembly.
type SwapConfig struct {
	Recipient         common.Address
	SlippageBps       int
	Deadline          uint64
	SwapRouterVersion int
	Permit            []byte
}
