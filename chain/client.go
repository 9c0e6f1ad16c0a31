package chain

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// Client is the node RPC surface the router depends on.
type Client interface {
	ethereum.ContractCaller

	GetLatestHeight(ctx context.Context) (uint64, error)

	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

type ethChainClient struct {
	*ethclient.Client
}

var _ Client = &ethChainClient{}

// NewClient dials the node RPC endpoint configured for the chain.
// The endpoint is indirected through the chain's environment variable.
func NewClient(chainID domain.ChainID) (Client, error) {
	envVar := RPCEnvVar(chainID)
	if envVar == "" {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, chainID)
	}

	endpoint := os.Getenv(envVar)
	if endpoint == "" {
		return nil, fmt.Errorf("environment variable %s is not set", envVar)
	}

	return NewClientWithEndpoint(endpoint)
}

// NewClientWithEndpoint dials the given node RPC endpoint directly.
func NewClientWithEndpoint(endpoint string) (Client, error) {
	ethClient, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, err
	}

	return &ethChainClient{Client: ethClient}, nil
}

// GetLatestHeight implements Client.
func (c *ethChainClient) GetLatestHeight(ctx context.Context) (uint64, error) {
	return c.BlockNumber(ctx)
}
