package multicall_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/multicall"
)

func TestDecodeRevertReason(t *testing.T) {
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)

	args := abi.Arguments{{Type: stringType}}
	encoded, err := args.Pack("SPL")
	require.NoError(t, err)

	// Error(string) selector followed by the ABI-encoded reason.
	payload := append([]byte{0x08, 0xc3, 0x79, 0xa0}, encoded...)

	require.Equal(t, "SPL", multicall.DecodeRevertReason(payload))
}

func TestDecodeRevertReason_Malformed(t *testing.T) {
	require.Empty(t, multicall.DecodeRevertReason(nil))
	require.Empty(t, multicall.DecodeRevertReason([]byte{0x01, 0x02}))
	require.Empty(t, multicall.DecodeRevertReason([]byte{0x08, 0xc3, 0x79, 0xa0, 0xff}))
}
