package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// V3PoolParams identifies a concentrated-liquidity pool to probe on chain.
// The pool address is derivable from (factory, token0, token1, fee), so
// unknown pools can be probed optimistically.
type V3PoolParams struct {
	TokenA Token
	TokenB Token
	Fee    FeeTier
}

// V2PoolParams identifies a constant-product pool to probe on chain.
type V2PoolParams struct {
	TokenA Token
	TokenB Token
}

// StablePoolParams identifies a stable pool to load from the vault.
type StablePoolParams struct {
	PoolID common.Hash
	Tokens []Token
	// Wrapper, when set, registers the wrapped vault token paired with the
	// pool's share token.
	Wrapper *Token
}

// AmountQuote is the on-chain quote for one (route, amount) pair.
// A nil Quote means the quoter reverted for this amount and the pair is
// skipped by the split optimizer.
type AmountQuote struct {
	Amount CurrencyAmount
	Quote  *big.Int

	// SqrtPriceX96AfterList and InitializedTicksCrossedList are returned by
	// the V3 quoter only and feed the gas model.
	SqrtPriceX96AfterList       []*big.Int
	InitializedTicksCrossedList []uint32

	// GasEstimate is the quoter-reported simulation gas, when available.
	GasEstimate uint64
}

// RouteQuotes pairs a route with its per-amount quotes, input-order aligned
// with the requested amounts.
type RouteQuotes struct {
	Route  Route
	Quotes []AmountQuote
}
