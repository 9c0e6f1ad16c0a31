package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/multicall"
	poolsusecase "github.com/Maia-DAO/smart-order-router/pools/usecase"
)

var (
	usdcMainnet = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC")
	wethMainnet = domain.NewToken(domain.ChainMainnet,
		common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), 18, "WETH")
)

func TestV3PoolProvider_DerivesCanonicalPoolAddress(t *testing.T) {
	provider, err := poolsusecase.NewV3PoolProvider(domain.ChainMainnet, nil, &log.NoOpLogger{})
	require.NoError(t, err)

	// The USDC/WETH 0.3% pool has a well-known deployment address.
	address := provider.GetPoolAddress(usdcMainnet, wethMainnet, domain.FeeTierMedium)
	require.Equal(t, common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"), address)

	// Argument order must not matter.
	flipped := provider.GetPoolAddress(wethMainnet, usdcMainnet, domain.FeeTierMedium)
	require.Equal(t, address, flipped)
}

// stateMulticall serves slot0/liquidity/getReserves with canned values and
// records the probed addresses.
type stateMulticall struct {
	t *testing.T

	probed map[string][]common.Address

	failing map[common.Address]struct{}
}

func newStateMulticall(t *testing.T) *stateMulticall {
	return &stateMulticall{
		t:      t,
		probed: make(map[string][]common.Address),
	}
}

func (m *stateMulticall) Aggregate(ctx context.Context, calls []multicall.Call, blockNumber uint64) ([]multicall.Result, uint64, error) {
	panic("not used")
}

func (m *stateMulticall) AggregateSameFunctionManyContracts(ctx context.Context, addresses []common.Address, contractABI abi.ABI, fn string, params []interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]multicall.Result, uint64, error) {
	m.probed[fn] = append(m.probed[fn], addresses...)

	results := make([]multicall.Result, 0, len(addresses))
	for _, address := range addresses {
		if _, fails := m.failing[address]; fails {
			results = append(results, multicall.Result{Success: false, Reason: "execution reverted"})
			continue
		}

		var (
			data []byte
			err  error
		)
		switch fn {
		case "slot0":
			data, err = contractABI.Methods["slot0"].Outputs.Pack(
				newBig("79228162514264337593543950336"), // 1.0 in sqrtPriceX96
				newBig("0"), uint16(0), uint16(1), uint16(1), uint8(0), true)
		case "liquidity":
			data, err = contractABI.Methods["liquidity"].Outputs.Pack(newBig("1000000000000000000"))
		case "getReserves":
			data, err = contractABI.Methods["getReserves"].Outputs.Pack(
				newBig("500000000000"), newBig("250000000000000000000"), uint32(0))
		default:
			m.t.Fatalf("unexpected function %s", fn)
		}
		require.NoError(m.t, err)
		results = append(results, multicall.Result{Success: true, ReturnData: data})
	}

	return results, blockNumber, nil
}

func (m *stateMulticall) AggregateSameFunctionOneContractManyParams(ctx context.Context, addr common.Address, contractABI abi.ABI, fn string, paramSets [][]interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]multicall.Result, uint64, error) {
	panic("not used")
}

func TestV2PoolProvider_LoadsReservesAtDerivedAddress(t *testing.T) {
	caller := newStateMulticall(t)

	provider, err := poolsusecase.NewV2PoolProvider(domain.ChainMainnet, caller, &log.NoOpLogger{})
	require.NoError(t, err)

	accessor, err := provider.GetPools(context.Background(), []domain.V2PoolParams{
		{TokenA: usdcMainnet, TokenB: wethMainnet},
	}, 0)
	require.NoError(t, err)

	pools := accessor.GetAllPools()
	require.Len(t, pools, 1)

	// The USDC/WETH pair has a well-known deployment address.
	require.Equal(t, common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"), pools[0].PoolAddress)
	require.Equal(t, "500000000000", pools[0].Reserve0.String())

	got, found := accessor.GetPool(wethMainnet.Address, usdcMainnet.Address)
	require.True(t, found)
	require.Equal(t, pools[0], got)
}

func TestV3PoolProvider_DropsFailedPools(t *testing.T) {
	caller := newStateMulticall(t)

	provider, err := poolsusecase.NewV3PoolProvider(domain.ChainMainnet, caller, &log.NoOpLogger{})
	require.NoError(t, err)

	badAddress := provider.GetPoolAddress(usdcMainnet, wethMainnet, domain.FeeTierHigh)
	caller.failing = map[common.Address]struct{}{badAddress: {}}

	accessor, err := provider.GetPools(context.Background(), []domain.V3PoolParams{
		{TokenA: usdcMainnet, TokenB: wethMainnet, Fee: domain.FeeTierMedium},
		{TokenA: usdcMainnet, TokenB: wethMainnet, Fee: domain.FeeTierHigh},
	}, 0)
	require.NoError(t, err)

	pools := accessor.GetAllPools()
	require.Len(t, pools, 1)
	require.Equal(t, domain.FeeTierMedium, pools[0].Fee)
}

func newBig(value string) *big.Int {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big int literal " + value)
	}
	return parsed
}
