package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
)

const gasPriceOracleABI = `[
	{
		"inputs": [{"internalType": "bytes", "name": "_data", "type": "bytes"}],
		"name": "getL1Fee",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

type l1FeeProvider struct {
	client  Client
	chainID domain.ChainID
	oracle  abi.ABI
}

var _ mvc.L1FeeProvider = &l1FeeProvider{}

// NewL1FeeProvider returns an L1 data fee estimator backed by the rollup's
// gas price oracle predeploy.
func NewL1FeeProvider(client Client, chainID domain.ChainID) (mvc.L1FeeProvider, error) {
	if !chainID.HasL1Fee() {
		return nil, fmt.Errorf("chain %d does not charge an L1 data fee", chainID)
	}

	oracle, err := abi.JSON(strings.NewReader(gasPriceOracleABI))
	if err != nil {
		return nil, err
	}

	return &l1FeeProvider{
		client:  client,
		chainID: chainID,
		oracle:  oracle,
	}, nil
}

// GetL1Fee implements mvc.L1FeeProvider.
func (p *l1FeeProvider) GetL1Fee(ctx context.Context, data []byte, blockNumber uint64) (*big.Int, error) {
	input, err := p.oracle.Pack("getL1Fee", data)
	if err != nil {
		return nil, err
	}

	oracleAddress := GasPriceOracleAddress(p.chainID)
	msg := ethereum.CallMsg{
		To:   &oracleAddress,
		Data: input,
	}

	var block *big.Int
	if blockNumber > 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}

	output, err := p.client.CallContract(ctx, msg, block)
	if err != nil {
		return nil, domain.RpcError{Reason: err.Error(), Selector: "getL1Fee"}
	}

	results, err := p.oracle.Unpack("getL1Fee", output)
	if err != nil {
		return nil, err
	}

	fee, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getL1Fee output type %T", results[0])
	}

	return fee, nil
}
