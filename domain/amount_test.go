package domain_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain"
)

var testToken = domain.NewToken(domain.ChainMainnet,
	common.HexToAddress("0x00000000000000000000000000000000000000aa"), 18, "TEST")

func TestCurrencyAmount_ExactFractions(t *testing.T) {
	amount := domain.NewCurrencyAmount(testToken, big.NewInt(1000))

	// 1000 * 33% = 330 exactly.
	third := amount.MulPercent(33)
	require.Equal(t, int64(330), third.Quotient().Int64())

	// Percent splits recombine without loss: 33% + 67% = 100%.
	rest := amount.MulPercent(67)
	sum := third.Add(rest)
	require.Zero(t, sum.Cmp(amount))
}

func TestCurrencyAmount_TruncationOnlyAtQuotient(t *testing.T) {
	amount := domain.NewCurrencyAmount(testToken, big.NewInt(10))

	// 10/3 keeps the exact rational; Quotient truncates.
	third := domain.NewCurrencyAmountFromFraction(testToken, big.NewInt(10), big.NewInt(3))
	require.Equal(t, int64(3), third.Quotient().Int64())

	// 3 * (10/3) = 10 exactly.
	sum := third.Add(third).Add(third)
	require.Zero(t, sum.Cmp(amount))
}

func TestCurrencyAmount_CmpCrossMultiplies(t *testing.T) {
	half := domain.NewCurrencyAmountFromFraction(testToken, big.NewInt(1), big.NewInt(2))
	twoQuarters := domain.NewCurrencyAmountFromFraction(testToken, big.NewInt(2), big.NewInt(4))
	third := domain.NewCurrencyAmountFromFraction(testToken, big.NewInt(1), big.NewInt(3))

	require.Zero(t, half.Cmp(twoQuarters))
	require.Equal(t, 1, half.Cmp(third))
	require.Equal(t, -1, third.Cmp(half))
}

func TestCurrencyAmount_AddRejectsTokenMismatch(t *testing.T) {
	other := domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0x00000000000000000000000000000000000000bb"), 6, "OTHER")

	a := domain.NewCurrencyAmount(testToken, big.NewInt(1))
	b := domain.NewCurrencyAmount(other, big.NewInt(1))

	require.Panics(t, func() { a.Add(b) })
}

func TestCurrencyAmount_Sub(t *testing.T) {
	a := domain.NewCurrencyAmount(testToken, big.NewInt(100))
	b := domain.NewCurrencyAmount(testToken, big.NewInt(30))

	require.Equal(t, int64(70), a.Sub(b).Quotient().Int64())
	require.Equal(t, -1, b.Sub(a).Sign())
}

func TestToken_SortsBeforeByAddressValue(t *testing.T) {
	// Ordering is by 20-byte address value, never by the checksummed hex
	// rendering whose mixed case does not sort numerically.
	addresses := []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000Aa"),
		common.HexToAddress("0x00000000000000000000000000000000000000aB"),
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
	}

	for i, a := range addresses {
		for j, b := range addresses {
			tokenA := domain.NewToken(domain.ChainMainnet, a, 18, "A")
			tokenB := domain.NewToken(domain.ChainMainnet, b, 18, "B")

			expected := bytes.Compare(a.Bytes(), b.Bytes()) < 0
			require.Equal(t, expected, tokenA.SortsBefore(tokenB), "addresses %d and %d", i, j)
		}
	}

	// The canonical mainnet USDC/WETH assignment: USDC is token0.
	usdc := domain.NewToken(domain.ChainMainnet, addresses[2], 6, "USDC")
	weth := domain.NewToken(domain.ChainMainnet, addresses[3], 18, "WETH")
	require.True(t, usdc.SortsBefore(weth))
	require.False(t, weth.SortsBefore(usdc))
}

func TestToken_EqualityByChainAndAddress(t *testing.T) {
	same := domain.NewToken(domain.ChainMainnet, testToken.Address, 6, "RENAMED")
	require.True(t, testToken.Equal(same))

	otherChain := domain.NewToken(domain.ChainArbitrum, testToken.Address, 18, "TEST")
	require.False(t, testToken.Equal(otherChain))
}
