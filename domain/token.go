package domain

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ChainID identifies a supported EVM chain.
type ChainID uint64

const (
	ChainMainnet  ChainID = 1
	ChainOptimism ChainID = 10
	ChainArbitrum ChainID = 42161
	ChainSepolia  ChainID = 11155111
)

// SupportedChainIDs lists the chains the router serves, in registration order.
var SupportedChainIDs = []ChainID{ChainMainnet, ChainOptimism, ChainArbitrum, ChainSepolia}

// IsSupportedChain returns true if the given chain is served by the router.
func IsSupportedChain(chainID ChainID) bool {
	for _, id := range SupportedChainIDs {
		if id == chainID {
			return true
		}
	}
	return false
}

// HasL1Fee returns true for rollup chains that charge an L1 data posting fee
// on top of L2 execution gas.
func (c ChainID) HasL1Fee() bool {
	return c == ChainOptimism
}

// Token is an immutable ERC-20 descriptor. Two tokens are equal iff their
// chain IDs and addresses match; symbols are display-only.
type Token struct {
	ChainID  ChainID        `json:"chain_id"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`

	// IsNative is set on the per-chain native currency placeholder.
	// The router never swaps the native currency directly; it operates on
	// the wrapped twin and records wrap/unwrap at the trade edges.
	IsNative bool `json:"is_native,omitempty"`
}

// NewToken returns a token with the given parameters.
func NewToken(chainID ChainID, address common.Address, decimals uint8, symbol string) Token {
	return Token{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
	}
}

// Equal returns true if the tokens identify the same asset.
func (t Token) Equal(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// SortsBefore returns true if this token's address sorts before the other's
// by 20-byte address value, the canonical token0/token1 ordering. Both
// tokens must be on the same chain.
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0
}

// String implements fmt.Stringer.
func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// Key returns the canonical map key for the token.
func (t Token) Key() string {
	return fmt.Sprintf("%d-%s", t.ChainID, t.Address.Hex())
}
