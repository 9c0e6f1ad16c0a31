package multicall

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// interfaceMulticallABI is the multicall variant carrying a per-call gas
// limit and reporting per-call gas usage.
const interfaceMulticallABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "target", "type": "address"},
					{"internalType": "uint256", "name": "gasLimit", "type": "uint256"},
					{"internalType": "bytes", "name": "callData", "type": "bytes"}
				],
				"internalType": "struct UniswapInterfaceMulticall.Call[]",
				"name": "calls",
				"type": "tuple[]"
			}
		],
		"name": "multicall",
		"outputs": [
			{"internalType": "uint256", "name": "blockNumber", "type": "uint256"},
			{
				"components": [
					{"internalType": "bool", "name": "success", "type": "bool"},
					{"internalType": "uint256", "name": "gasUsed", "type": "uint256"},
					{"internalType": "bytes", "name": "returnData", "type": "bytes"}
				],
				"internalType": "struct UniswapInterfaceMulticall.Result[]",
				"name": "returnData",
				"type": "tuple[]"
			}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Call is one read-only contract call routed through the multicall contract.
type Call struct {
	Target   common.Address
	CallData []byte
	GasLimit uint64
}

// Result is the outcome of one call. Individual call failures never abort
// the enclosing batch.
type Result struct {
	Success    bool
	GasUsed    uint64
	ReturnData []byte
	// Fatal is set when the call was abandoned: its batch failed as a
	// single call or after the batch halving depth was exhausted.
	Fatal bool
	// Reason carries the decoded revert reason when available.
	Reason string
}

// Caller executes read-only contract calls in as few RPC round-trips as
// practical, preserving input order of results.
type Caller interface {
	// Aggregate packs the given calls into one multicall round-trip.
	Aggregate(ctx context.Context, calls []Call, blockNumber uint64) ([]Result, uint64, error)

	// AggregateSameFunctionManyContracts calls fn with the same params on
	// every given contract address.
	AggregateSameFunctionManyContracts(ctx context.Context, addresses []common.Address, contractABI abi.ABI, fn string, params []interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]Result, uint64, error)

	// AggregateSameFunctionOneContractManyParams calls fn on addr once per
	// parameter set.
	AggregateSameFunctionOneContractManyParams(ctx context.Context, addr common.Address, contractABI abi.ABI, fn string, paramSets [][]interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]Result, uint64, error)
}

type multicallProvider struct {
	caller           ethereum.ContractCaller
	multicallAddress common.Address
	multicallABI     abi.ABI
}

var _ Caller = &multicallProvider{}

// mcResult mirrors the multicall Result tuple for ABI conversion.
type mcResult struct {
	Success    bool
	GasUsed    *big.Int
	ReturnData []byte
}

// mcCall mirrors the multicall Call tuple for ABI packing.
type mcCall struct {
	Target   common.Address
	GasLimit *big.Int
	CallData []byte
}

// NewCaller creates a multicall caller bound to the given contract.
func NewCaller(caller ethereum.ContractCaller, multicallAddress common.Address) (Caller, error) {
	parsedABI, err := abi.JSON(strings.NewReader(interfaceMulticallABI))
	if err != nil {
		return nil, err
	}

	return &multicallProvider{
		caller:           caller,
		multicallAddress: multicallAddress,
		multicallABI:     parsedABI,
	}, nil
}

// Aggregate implements Caller.
func (m *multicallProvider) Aggregate(ctx context.Context, calls []Call, blockNumber uint64) ([]Result, uint64, error) {
	packedCalls := make([]mcCall, 0, len(calls))
	for _, call := range calls {
		packedCalls = append(packedCalls, mcCall{
			Target:   call.Target,
			GasLimit: new(big.Int).SetUint64(call.GasLimit),
			CallData: call.CallData,
		})
	}

	input, err := m.multicallABI.Pack("multicall", packedCalls)
	if err != nil {
		return nil, 0, err
	}

	msg := ethereum.CallMsg{
		To:   &m.multicallAddress,
		Data: input,
	}

	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}

	output, err := m.caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, 0, domain.RpcError{Reason: err.Error(), Selector: "multicall"}
	}

	unpacked, err := m.multicallABI.Unpack("multicall", output)
	if err != nil {
		return nil, 0, err
	}

	resolvedBlock, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected multicall block number type %T", unpacked[0])
	}

	rawResults := *abi.ConvertType(unpacked[1], new([]mcResult)).(*[]mcResult)
	if len(rawResults) != len(calls) {
		return nil, 0, fmt.Errorf("multicall returned %d results for %d calls", len(rawResults), len(calls))
	}

	results := make([]Result, 0, len(rawResults))
	for _, raw := range rawResults {
		result := Result{
			Success:    raw.Success,
			GasUsed:    raw.GasUsed.Uint64(),
			ReturnData: raw.ReturnData,
		}
		if !raw.Success {
			result.Reason = DecodeRevertReason(raw.ReturnData)
		}
		results = append(results, result)
	}

	return results, resolvedBlock.Uint64(), nil
}

// AggregateSameFunctionManyContracts implements Caller.
func (m *multicallProvider) AggregateSameFunctionManyContracts(ctx context.Context, addresses []common.Address, contractABI abi.ABI, fn string, params []interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]Result, uint64, error) {
	callData, err := contractABI.Pack(fn, params...)
	if err != nil {
		return nil, 0, err
	}

	calls := make([]Call, 0, len(addresses))
	for _, addr := range addresses {
		calls = append(calls, Call{
			Target:   addr,
			CallData: callData,
			GasLimit: gasLimitPerCall,
		})
	}

	return m.Aggregate(ctx, calls, blockNumber)
}

// AggregateSameFunctionOneContractManyParams implements Caller.
func (m *multicallProvider) AggregateSameFunctionOneContractManyParams(ctx context.Context, addr common.Address, contractABI abi.ABI, fn string, paramSets [][]interface{}, gasLimitPerCall uint64, blockNumber uint64) ([]Result, uint64, error) {
	calls := make([]Call, 0, len(paramSets))
	for _, params := range paramSets {
		callData, err := contractABI.Pack(fn, params...)
		if err != nil {
			return nil, 0, err
		}

		calls = append(calls, Call{
			Target:   addr,
			CallData: callData,
			GasLimit: gasLimitPerCall,
		})
	}

	return m.Aggregate(ctx, calls, blockNumber)
}

// revertSelector is the 4-byte selector of Error(string).
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// DecodeRevertReason extracts the human-readable reason from an
// Error(string) revert payload. Returns empty string for other payloads.
func DecodeRevertReason(data []byte) string {
	if len(data) < 4 || !strings.HasPrefix(common.Bytes2Hex(data), common.Bytes2Hex(revertSelector)) {
		return ""
	}

	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		return ""
	}

	args := abi.Arguments{{Type: stringType}}
	decoded, err := args.Unpack(data[4:])
	if err != nil || len(decoded) == 0 {
		return ""
	}

	reason, ok := decoded[0].(string)
	if !ok {
		return ""
	}
	return reason
}
