package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
)

var _ mvc.SubgraphProvider = &SubgraphProviderMock{}

type SubgraphProviderMock struct {
	ProtocolValue domain.Protocol
	ListPoolsFunc func(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error)
}

func (m *SubgraphProviderMock) ListPools(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
	if m.ListPoolsFunc != nil {
		return m.ListPoolsFunc(ctx, tokenIn, tokenOut, blockNumber)
	}
	return nil, nil
}

func (m *SubgraphProviderMock) Protocol() domain.Protocol {
	return m.ProtocolValue
}

// WithPools makes the mock serve a fixed pool listing.
func (m *SubgraphProviderMock) WithPools(pools []domain.SubgraphPool) {
	m.ListPoolsFunc = func(ctx context.Context, tokenIn, tokenOut *domain.Token, blockNumber uint64) ([]domain.SubgraphPool, error) {
		return pools, nil
	}
}

var _ mvc.V3PoolProvider = &V3PoolProviderMock{}

type V3PoolProviderMock struct {
	Pools           []*domain.V3Pool
	GetPoolsFunc    func(ctx context.Context, params []domain.V3PoolParams, blockNumber uint64) (mvc.V3PoolAccessor, error)
	GetPoolAddrFunc func(tokenA, tokenB domain.Token, fee domain.FeeTier) common.Address
}

func (m *V3PoolProviderMock) GetPools(ctx context.Context, params []domain.V3PoolParams, blockNumber uint64) (mvc.V3PoolAccessor, error) {
	if m.GetPoolsFunc != nil {
		return m.GetPoolsFunc(ctx, params, blockNumber)
	}
	return &V3PoolAccessorMock{Pools: m.Pools}, nil
}

func (m *V3PoolProviderMock) GetPoolAddress(tokenA, tokenB domain.Token, fee domain.FeeTier) common.Address {
	if m.GetPoolAddrFunc != nil {
		return m.GetPoolAddrFunc(tokenA, tokenB, fee)
	}
	return common.Address{}
}

var _ mvc.V3PoolAccessor = &V3PoolAccessorMock{}

type V3PoolAccessorMock struct {
	Pools []*domain.V3Pool
}

func (m *V3PoolAccessorMock) GetPool(tokenA, tokenB common.Address, fee domain.FeeTier) (*domain.V3Pool, bool) {
	for _, pool := range m.Pools {
		if pool.Fee != fee {
			continue
		}
		if (pool.Token0.Address == tokenA && pool.Token1.Address == tokenB) ||
			(pool.Token0.Address == tokenB && pool.Token1.Address == tokenA) {
			return pool, true
		}
	}
	return nil, false
}

func (m *V3PoolAccessorMock) GetAllPools() []*domain.V3Pool {
	return m.Pools
}

var _ mvc.V2PoolProvider = &V2PoolProviderMock{}

type V2PoolProviderMock struct {
	Pools        []*domain.V2Pool
	GetPoolsFunc func(ctx context.Context, params []domain.V2PoolParams, blockNumber uint64) (mvc.V2PoolAccessor, error)
}

func (m *V2PoolProviderMock) GetPools(ctx context.Context, params []domain.V2PoolParams, blockNumber uint64) (mvc.V2PoolAccessor, error) {
	if m.GetPoolsFunc != nil {
		return m.GetPoolsFunc(ctx, params, blockNumber)
	}
	return &V2PoolAccessorMock{Pools: m.Pools}, nil
}

var _ mvc.V2PoolAccessor = &V2PoolAccessorMock{}

type V2PoolAccessorMock struct {
	Pools []*domain.V2Pool
}

func (m *V2PoolAccessorMock) GetPool(tokenA, tokenB common.Address) (*domain.V2Pool, bool) {
	for _, pool := range m.Pools {
		if (pool.Token0.Address == tokenA && pool.Token1.Address == tokenB) ||
			(pool.Token0.Address == tokenB && pool.Token1.Address == tokenA) {
			return pool, true
		}
	}
	return nil, false
}

func (m *V2PoolAccessorMock) GetAllPools() []*domain.V2Pool {
	return m.Pools
}

var _ mvc.StablePoolProvider = &StablePoolProviderMock{}

type StablePoolProviderMock struct {
	Pools    []*domain.StablePool
	Wrappers []*domain.StableWrapperPool
}

func (m *StablePoolProviderMock) GetPools(ctx context.Context, params []domain.StablePoolParams, blockNumber uint64) (mvc.StablePoolAccessor, error) {
	return &StablePoolAccessorMock{Pools: m.Pools, Wrappers: m.Wrappers}, nil
}

var _ mvc.StablePoolAccessor = &StablePoolAccessorMock{}

type StablePoolAccessorMock struct {
	Pools    []*domain.StablePool
	Wrappers []*domain.StableWrapperPool
}

func (m *StablePoolAccessorMock) GetPool(poolID common.Hash) (*domain.StablePool, bool) {
	for _, pool := range m.Pools {
		if pool.PoolID == poolID {
			return pool, true
		}
	}
	return nil, false
}

func (m *StablePoolAccessorMock) GetAllPools() []*domain.StablePool {
	return m.Pools
}

func (m *StablePoolAccessorMock) GetAllWrapperPools() []*domain.StableWrapperPool {
	return m.Wrappers
}

var _ mvc.TokensUsecase = &TokensUsecaseMock{}

type TokensUsecaseMock struct {
	Tokens map[common.Address]domain.Token
}

func (m *TokensUsecaseMock) GetTokens(ctx context.Context, addresses []common.Address, blockNumber uint64) (mvc.TokenAccessor, error) {
	accessor := &TokenAccessorMock{ByAddress: make(map[common.Address]domain.Token)}
	for _, address := range addresses {
		if token, found := m.Tokens[address]; found {
			accessor.ByAddress[address] = token
		}
	}
	return accessor, nil
}

var _ mvc.TokenAccessor = &TokenAccessorMock{}

type TokenAccessorMock struct {
	ByAddress map[common.Address]domain.Token
}

func (m *TokenAccessorMock) GetTokenByAddress(address common.Address) (domain.Token, bool) {
	token, found := m.ByAddress[address]
	return token, found
}

func (m *TokenAccessorMock) GetTokenBySymbol(symbol string) (domain.Token, bool) {
	for _, token := range m.ByAddress {
		if token.Symbol == symbol {
			return token, true
		}
	}
	return domain.Token{}, false
}

func (m *TokenAccessorMock) GetAllTokens() []domain.Token {
	tokens := make([]domain.Token, 0, len(m.ByAddress))
	for _, token := range m.ByAddress {
		tokens = append(tokens, token)
	}
	return tokens
}

var _ mvc.QuoteFetcher = &QuoteFetcherMock{}

// QuoteFetcherMock quotes every (route, amount) pair 1:1, returning the
// amount's integer part, or via QuoteFunc when set.
type QuoteFetcherMock struct {
	// QuoteFunc overrides per-(route, amount) quoting when set. A nil
	// return marks the pair as reverted.
	QuoteFunc func(r domain.Route, amount domain.CurrencyAmount) *big.Int

	ExactOutErr error
}

func (m *QuoteFetcherMock) GetQuotesExactIn(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	return m.quoteAll(routes, amounts), nil
}

func (m *QuoteFetcherMock) GetQuotesExactOut(ctx context.Context, routes []domain.Route, amounts []domain.CurrencyAmount, blockNumber uint64) ([]domain.RouteQuotes, error) {
	if m.ExactOutErr != nil {
		return nil, m.ExactOutErr
	}
	return m.quoteAll(routes, amounts), nil
}

func (m *QuoteFetcherMock) quoteAll(routes []domain.Route, amounts []domain.CurrencyAmount) []domain.RouteQuotes {
	out := make([]domain.RouteQuotes, 0, len(routes))
	for _, r := range routes {
		quotes := make([]domain.AmountQuote, 0, len(amounts))
		for _, amount := range amounts {
			aq := domain.AmountQuote{Amount: amount}
			if m.QuoteFunc != nil {
				aq.Quote = m.QuoteFunc(r, amount)
			} else {
				aq.Quote = amount.Quotient()
			}
			quotes = append(quotes, aq)
		}
		out = append(out, domain.RouteQuotes{Route: r, Quotes: quotes})
	}
	return out
}

var _ mvc.GasPriceProvider = &GasPriceProviderMock{}

type GasPriceProviderMock struct {
	GasPriceWei *big.Int
}

func (m *GasPriceProviderMock) GetGasPriceWei(ctx context.Context) (*big.Int, error) {
	if m.GasPriceWei == nil {
		return big.NewInt(0), nil
	}
	return m.GasPriceWei, nil
}

var _ mvc.BlockProvider = &BlockProviderMock{}

type BlockProviderMock struct {
	Height uint64
}

func (m *BlockProviderMock) GetLatestHeight(ctx context.Context) (uint64, error) {
	return m.Height, nil
}

var _ mvc.L1FeeProvider = &L1FeeProviderMock{}

type L1FeeProviderMock struct {
	Fee *big.Int
}

func (m *L1FeeProviderMock) GetL1Fee(ctx context.Context, data []byte, blockNumber uint64) (*big.Int, error) {
	if m.Fee == nil {
		return big.NewInt(0), nil
	}
	return m.Fee, nil
}
