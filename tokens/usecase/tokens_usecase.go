package usecase

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/multicall"
)

const erc20ABI = `[
	{
		"inputs": [],
		"name": "symbol",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// erc20Bytes32ABI covers legacy tokens returning their symbol as bytes32.
const erc20Bytes32ABI = `[
	{
		"inputs": [],
		"name": "symbol",
		"outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const tokenMetadataGasLimit = 100_000

var droppedTokens = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "sor_token_metadata_dropped_total",
		Help: "Total number of tokens dropped because symbol and decimals both failed to decode",
	},
)

func init() {
	prometheus.MustRegister(droppedTokens)
}

type tokensUseCase struct {
	chainID   domain.ChainID
	multicall multicall.Caller
	logger    log.Logger

	erc20ABI        abi.ABI
	erc20Bytes32ABI abi.ABI
}

var _ mvc.TokensUsecase = &tokensUseCase{}

// NewTokensUsecase will create a new tokens use case object resolving token
// metadata through the multicall contract.
func NewTokensUsecase(chainID domain.ChainID, caller multicall.Caller, logger log.Logger) (mvc.TokensUsecase, error) {
	parsedERC20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, err
	}
	parsedBytes32, err := abi.JSON(strings.NewReader(erc20Bytes32ABI))
	if err != nil {
		return nil, err
	}

	return &tokensUseCase{
		chainID:         chainID,
		multicall:       caller,
		logger:          logger,
		erc20ABI:        parsedERC20,
		erc20Bytes32ABI: parsedBytes32,
	}, nil
}

// GetTokens implements mvc.TokensUsecase.
// Addresses are deduplicated before resolution. Tokens whose symbol and
// decimals both fail to decode are dropped from the accessor.
func (t *tokensUseCase) GetTokens(ctx context.Context, addresses []common.Address, blockNumber uint64) (mvc.TokenAccessor, error) {
	unique := dedupeAddresses(addresses)

	symbolResults, _, err := t.multicall.AggregateSameFunctionManyContracts(ctx, unique, t.erc20ABI, "symbol", nil, tokenMetadataGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	decimalsResults, _, err := t.multicall.AggregateSameFunctionManyContracts(ctx, unique, t.erc20ABI, "decimals", nil, tokenMetadataGasLimit, blockNumber)
	if err != nil {
		return nil, err
	}

	// Legacy tokens answer symbol() with a bytes32 payload; retry the
	// failures with the alternate decoding.
	bytes32Retry := make([]common.Address, 0)
	bytes32Index := make(map[common.Address]int)
	for i, result := range symbolResults {
		if !result.Success || len(result.ReturnData) == 0 {
			bytes32Index[unique[i]] = len(bytes32Retry)
			bytes32Retry = append(bytes32Retry, unique[i])
		}
	}

	var bytes32Results []multicall.Result
	if len(bytes32Retry) > 0 {
		bytes32Results, _, err = t.multicall.AggregateSameFunctionManyContracts(ctx, bytes32Retry, t.erc20Bytes32ABI, "symbol", nil, tokenMetadataGasLimit, blockNumber)
		if err != nil {
			return nil, err
		}
	}

	accessor := newTokenAccessor()

	for i, address := range unique {
		symbol, symbolOK := t.decodeSymbol(symbolResults[i])

		if !symbolOK {
			if retryIdx, retried := bytes32Index[address]; retried {
				symbol, symbolOK = t.decodeSymbolBytes32(bytes32Results[retryIdx])
			}
		}

		decimals, decimalsOK := t.decodeDecimals(decimalsResults[i])

		// A token with neither a symbol nor decimals is unusable.
		if !symbolOK && !decimalsOK {
			droppedTokens.Inc()
			t.logger.Info("dropping token with undecodable metadata",
				zap.String("address", address.Hex()))
			continue
		}

		accessor.add(domain.NewToken(t.chainID, address, decimals, symbol))
	}

	return accessor, nil
}

func (t *tokensUseCase) decodeSymbol(result multicall.Result) (string, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return "", false
	}

	unpacked, err := t.erc20ABI.Unpack("symbol", result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return "", false
	}

	symbol, ok := unpacked[0].(string)
	if !ok || symbol == "" {
		return "", false
	}
	return symbol, true
}

func (t *tokensUseCase) decodeSymbolBytes32(result multicall.Result) (string, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return "", false
	}

	unpacked, err := t.erc20Bytes32ABI.Unpack("symbol", result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return "", false
	}

	raw, ok := unpacked[0].([32]byte)
	if !ok {
		return "", false
	}

	// Decode as UTF-8 up to the first NUL.
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	if end == 0 {
		return "", false
	}
	return string(raw[:end]), true
}

func (t *tokensUseCase) decodeDecimals(result multicall.Result) (uint8, bool) {
	if !result.Success || len(result.ReturnData) == 0 {
		return 0, false
	}

	unpacked, err := t.erc20ABI.Unpack("decimals", result.ReturnData)
	if err != nil || len(unpacked) == 0 {
		return 0, false
	}

	decimals, ok := unpacked[0].(uint8)
	if !ok {
		return 0, false
	}
	return decimals, true
}

func dedupeAddresses(addresses []common.Address) []common.Address {
	seen := make(map[common.Address]struct{}, len(addresses))
	unique := make([]common.Address, 0, len(addresses))
	for _, address := range addresses {
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		unique = append(unique, address)
	}
	return unique
}

// tokenAccessor indexes resolved tokens by address and symbol.
type tokenAccessor struct {
	byAddress map[common.Address]domain.Token
	bySymbol  map[string]domain.Token
	all       []domain.Token
}

var _ mvc.TokenAccessor = &tokenAccessor{}

func newTokenAccessor() *tokenAccessor {
	return &tokenAccessor{
		byAddress: make(map[common.Address]domain.Token),
		bySymbol:  make(map[string]domain.Token),
	}
}

func (a *tokenAccessor) add(token domain.Token) {
	a.byAddress[token.Address] = token
	if token.Symbol != "" {
		a.bySymbol[strings.ToLower(token.Symbol)] = token
	}
	a.all = append(a.all, token)
}

// GetTokenByAddress implements mvc.TokenAccessor.
func (a *tokenAccessor) GetTokenByAddress(address common.Address) (domain.Token, bool) {
	token, found := a.byAddress[address]
	return token, found
}

// GetTokenBySymbol implements mvc.TokenAccessor.
func (a *tokenAccessor) GetTokenBySymbol(symbol string) (domain.Token, bool) {
	token, found := a.bySymbol[strings.ToLower(symbol)]
	return token, found
}

// GetAllTokens implements mvc.TokenAccessor.
func (a *tokenAccessor) GetAllTokens() []domain.Token {
	return a.all
}
