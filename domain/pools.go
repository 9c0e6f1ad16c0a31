package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol tags the liquidity source variant of a pool or a route.
type Protocol string

const (
	ProtocolV2            Protocol = "V2"
	ProtocolV3            Protocol = "V3"
	ProtocolStable        Protocol = "STABLE"
	ProtocolStableWrapper Protocol = "STABLE_WRAPPER"
	// ProtocolMixed tags routes drawing pools from at least two distinct
	// protocols. No single pool ever carries this tag.
	ProtocolMixed Protocol = "MIXED"
)

// FeeTier is a discrete concentrated-liquidity swap fee level,
// expressed in hundredths of a basis point.
type FeeTier uint32

const (
	FeeTierLowest FeeTier = 100
	FeeTierLow    FeeTier = 500
	FeeTierMedium FeeTier = 3000
	FeeTierHigh   FeeTier = 10000
)

// FeeTiers lists all supported fee tiers in increasing order.
var FeeTiers = []FeeTier{FeeTierLowest, FeeTierLow, FeeTierMedium, FeeTierHigh}

// Pool is the uniform capability set every pool variant exposes.
// Dispatch on the variant via Protocol(), never via reflection.
type Pool interface {
	// Tokens returns the pool's tokens in canonical order.
	Tokens() []Token
	// InvolvesToken returns true if the pool contains the given token.
	InvolvesToken(t Token) bool
	// Other returns the counterpart token for a two-token pool, or the first
	// token that is not t for multi-token pools. Errors if t is not in the pool.
	Other(t Token) (Token, error)
	// Address returns the pool's on-chain address.
	Address() common.Address
	// Protocol returns the pool's variant tag.
	Protocol() Protocol
	// ID returns the canonical pool identity used to deduplicate pools during
	// enumeration: the address hex for V2/V3, the 32-byte pool ID hex for
	// Stable and StableWrapper.
	ID() string
}

var (
	_ Pool = &V3Pool{}
	_ Pool = &V2Pool{}
	_ Pool = &StablePool{}
	_ Pool = &StableWrapperPool{}
)

// V3Pool is a concentrated-liquidity pool.
type V3Pool struct {
	ChainID      ChainID
	PoolAddress  common.Address
	Token0       Token
	Token1       Token
	Fee          FeeTier
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
	Tick         int
}

// Tokens implements Pool.
func (p *V3Pool) Tokens() []Token { return []Token{p.Token0, p.Token1} }

// InvolvesToken implements Pool.
func (p *V3Pool) InvolvesToken(t Token) bool {
	return p.Token0.Equal(t) || p.Token1.Equal(t)
}

// Other implements Pool.
func (p *V3Pool) Other(t Token) (Token, error) {
	return otherOfPair(p.Token0, p.Token1, t)
}

// Address implements Pool.
func (p *V3Pool) Address() common.Address { return p.PoolAddress }

// Protocol implements Pool.
func (p *V3Pool) Protocol() Protocol { return ProtocolV3 }

// ID implements Pool.
func (p *V3Pool) ID() string { return p.PoolAddress.Hex() }

// V2Pool is a constant-product pool.
type V2Pool struct {
	ChainID     ChainID
	PoolAddress common.Address
	Token0      Token
	Token1      Token
	Reserve0    *big.Int
	Reserve1    *big.Int
}

// Tokens implements Pool.
func (p *V2Pool) Tokens() []Token { return []Token{p.Token0, p.Token1} }

// InvolvesToken implements Pool.
func (p *V2Pool) InvolvesToken(t Token) bool {
	return p.Token0.Equal(t) || p.Token1.Equal(t)
}

// Other implements Pool.
func (p *V2Pool) Other(t Token) (Token, error) {
	return otherOfPair(p.Token0, p.Token1, t)
}

// Address implements Pool.
func (p *V2Pool) Address() common.Address { return p.PoolAddress }

// Protocol implements Pool.
func (p *V2Pool) Protocol() Protocol { return ProtocolV2 }

// ID implements Pool.
func (p *V2Pool) ID() string { return p.PoolAddress.Hex() }

// StablePool is a multi-token stable-swap pool identified by a 32-byte pool ID.
type StablePool struct {
	ChainID     ChainID
	PoolID      common.Hash
	PoolAddress common.Address
	// TokensList is the ordered token list as registered on the vault.
	TokensList []Token
	// Amplification is the stable-swap amplification parameter.
	Amplification *big.Int
	// SwapFee is the pool swap fee in 1e18 fixed point.
	SwapFee *big.Int
	// TotalShares is the total supply of pool share tokens.
	TotalShares *big.Int
	// Balances holds the per-token vault balances, aligned with TokensList.
	Balances []*big.Int
	// ScalingFactors align token decimals for invariant math, aligned with TokensList.
	ScalingFactors []*big.Int
}

// Tokens implements Pool.
func (p *StablePool) Tokens() []Token { return p.TokensList }

// InvolvesToken implements Pool.
func (p *StablePool) InvolvesToken(t Token) bool {
	for _, token := range p.TokensList {
		if token.Equal(t) {
			return true
		}
	}
	return false
}

// Other implements Pool.
func (p *StablePool) Other(t Token) (Token, error) {
	if !p.InvolvesToken(t) {
		return Token{}, fmt.Errorf("token %s is not in pool %s", t, p.PoolID)
	}
	for _, token := range p.TokensList {
		if !token.Equal(t) {
			return token, nil
		}
	}
	return Token{}, fmt.Errorf("pool %s has no counterpart for %s", p.PoolID, t)
}

// Address implements Pool.
func (p *StablePool) Address() common.Address { return p.PoolAddress }

// Protocol implements Pool.
func (p *StablePool) Protocol() Protocol { return ProtocolStable }

// ID implements Pool.
func (p *StablePool) ID() string { return p.PoolID.Hex() }

// StableWrapperPool connects a stable pool's share token with its wrapped
// vault token at a share/asset exchange rate.
type StableWrapperPool struct {
	ChainID     ChainID
	PoolID      common.Hash
	PoolAddress common.Address
	// ShareToken is the underlying stable pool's LP share token.
	ShareToken Token
	// VaultToken is the wrapped vault token.
	VaultToken Token
	// Rate is the share/asset exchange rate in 1e18 fixed point.
	Rate *big.Int
}

// Tokens implements Pool.
func (p *StableWrapperPool) Tokens() []Token { return []Token{p.ShareToken, p.VaultToken} }

// InvolvesToken implements Pool.
func (p *StableWrapperPool) InvolvesToken(t Token) bool {
	return p.ShareToken.Equal(t) || p.VaultToken.Equal(t)
}

// Other implements Pool.
func (p *StableWrapperPool) Other(t Token) (Token, error) {
	return otherOfPair(p.ShareToken, p.VaultToken, t)
}

// Address implements Pool.
func (p *StableWrapperPool) Address() common.Address { return p.PoolAddress }

// Protocol implements Pool.
func (p *StableWrapperPool) Protocol() Protocol { return ProtocolStableWrapper }

// ID implements Pool.
func (p *StableWrapperPool) ID() string { return p.PoolID.Hex() }

func otherOfPair(token0, token1, t Token) (Token, error) {
	switch {
	case token0.Equal(t):
		return token1, nil
	case token1.Equal(t):
		return token0, nil
	default:
		return Token{}, fmt.Errorf("token %s is not in pool", t)
	}
}
