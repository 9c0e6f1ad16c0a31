package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SubgraphPool is the minimal pool descriptor used for candidate selection.
// It is never used for swap math; coarse TVL figures drive the TVL sort only.
type SubgraphPool struct {
	// ID is the pool address hex for V2/V3, the 32-byte pool ID hex for Stable.
	ID string `json:"id"`

	Protocol Protocol `json:"protocol"`

	// TokenIDs are the lowercased addresses of the pool tokens.
	TokenIDs []string `json:"token_ids"`

	// TVLNative and TVLUSD are coarse figures reported by the indexer.
	TVLNative decimal.Decimal `json:"tvl_native"`
	TVLUSD    decimal.Decimal `json:"tvl_usd"`

	// FeeTier is set for V3 pools.
	FeeTier FeeTier `json:"fee_tier,omitempty"`

	// Reserve is set for V2 pools.
	Reserve decimal.Decimal `json:"reserve,omitempty"`

	// TotalShares is set for Stable pools.
	TotalShares decimal.Decimal `json:"total_shares,omitempty"`

	// Wrapper is the optional wrapped vault token address paired with a
	// Stable pool's share token. Empty when the pool has no wrapper.
	Wrapper string `json:"wrapper,omitempty"`
}

// InvolvesAddress returns true if the pool references the given token address.
// For Stable pools the optional wrapper token counts as part of the token set.
func (p SubgraphPool) InvolvesAddress(addr common.Address) bool {
	hex := addressKey(addr)
	for _, id := range p.TokenIDs {
		if id == hex {
			return true
		}
	}
	return p.Wrapper != "" && p.Wrapper == hex
}

// addressKey normalizes an address for subgraph comparisons.
func addressKey(addr common.Address) string {
	return "0x" + common.Bytes2Hex(addr.Bytes())
}
