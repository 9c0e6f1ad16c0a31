package domain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain"
)

func addr(last byte) common.Address {
	var a common.Address
	a[19] = last
	return a
}

func TestPoolCapabilities_V3(t *testing.T) {
	token0 := domain.NewToken(domain.ChainMainnet, addr(1), 6, "USDC")
	token1 := domain.NewToken(domain.ChainMainnet, addr(2), 18, "WETH")
	stranger := domain.NewToken(domain.ChainMainnet, addr(9), 18, "X")

	pool := &domain.V3Pool{
		PoolAddress:  addr(0x10),
		Token0:       token0,
		Token1:       token1,
		Fee:          domain.FeeTierMedium,
		Liquidity:    big.NewInt(1),
		SqrtPriceX96: big.NewInt(1),
	}

	require.Equal(t, domain.ProtocolV3, pool.Protocol())
	require.Len(t, pool.Tokens(), 2)
	require.True(t, pool.InvolvesToken(token0))
	require.False(t, pool.InvolvesToken(stranger))

	other, err := pool.Other(token0)
	require.NoError(t, err)
	require.True(t, other.Equal(token1))

	_, err = pool.Other(stranger)
	require.Error(t, err)

	require.Equal(t, pool.PoolAddress.Hex(), pool.ID())
}

func TestPoolCapabilities_StableIdentityByPoolID(t *testing.T) {
	tokens := []domain.Token{
		domain.NewToken(domain.ChainMainnet, addr(1), 6, "USDC"),
		domain.NewToken(domain.ChainMainnet, addr(2), 18, "DAI"),
		domain.NewToken(domain.ChainMainnet, addr(3), 6, "USDT"),
	}

	var id common.Hash
	id[31] = 7

	pool := &domain.StablePool{
		PoolID:      id,
		PoolAddress: addr(0x20),
		TokensList:  tokens,
	}

	// Stable identity is the pool ID, not the address.
	require.Equal(t, id.Hex(), pool.ID())
	require.Equal(t, domain.ProtocolStable, pool.Protocol())

	other, err := pool.Other(tokens[1])
	require.NoError(t, err)
	require.True(t, other.Equal(tokens[0]))
}

func TestPoolCapabilities_StableWrapper(t *testing.T) {
	share := domain.NewToken(domain.ChainMainnet, addr(4), 18, "bpt")
	vault := domain.NewToken(domain.ChainMainnet, addr(5), 18, "wbpt")

	var id common.Hash
	id[31] = 9

	pool := &domain.StableWrapperPool{
		PoolID:     id,
		ShareToken: share,
		VaultToken: vault,
		Rate:       big.NewInt(1),
	}

	require.Equal(t, domain.ProtocolStableWrapper, pool.Protocol())

	other, err := pool.Other(share)
	require.NoError(t, err)
	require.True(t, other.Equal(vault))
}

func TestSubgraphPool_WrapperCountsAsToken(t *testing.T) {
	wrapper := addr(6)
	pool := domain.SubgraphPool{
		TokenIDs: []string{"0x" + common.Bytes2Hex(addr(1).Bytes())},
		Wrapper:  "0x" + common.Bytes2Hex(wrapper.Bytes()),
	}

	require.True(t, pool.InvolvesAddress(addr(1)))
	require.True(t, pool.InvolvesAddress(wrapper))
	require.False(t, pool.InvolvesAddress(addr(9)))
}
