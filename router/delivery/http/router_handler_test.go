package http_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mocks"
	"github.com/Maia-DAO/smart-order-router/log"
	routerhttp "github.com/Maia-DAO/smart-order-router/router/delivery/http"
)

// routerUsecaseMock scripts the quote endpoint behavior.
type routerUsecaseMock struct {
	plan *domain.Quote
	err  error

	lastTradeType domain.TradeType
}

func (m *routerUsecaseMock) GetQuote(ctx context.Context, amount domain.CurrencyAmount, quoteToken domain.Token, tradeType domain.TradeType, swapConfig *domain.SwapConfig, options *domain.RoutingOptions) (*domain.Quote, error) {
	m.lastTradeType = tradeType
	return m.plan, m.err
}

func (m *routerUsecaseMock) GetCandidateRoutes(ctx context.Context, tokenIn, tokenOut domain.Token, options *domain.RoutingOptions) ([]domain.Route, error) {
	return nil, m.err
}

func (m *routerUsecaseMock) GetConfig() domain.RouterConfig {
	return domain.RouterConfig{}
}

func newHandlerFixture(t *testing.T, usecase *routerUsecaseMock) *echo.Echo {
	e := echo.New()
	routerhttp.NewRouterHandler(e, usecase, &mocks.TokensUsecaseMock{}, &log.NoOpLogger{})
	return e
}

func quoteURLWithAmount(amount, extra string) string {
	return "/router/quote?chainId=1" +
		"&tokenIn=0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48" +
		"&tokenOut=0x6B175474E89094C44Da98b954EedeAC495271d0F" +
		"&amount=" + amount + extra
}

func quoteURL(extra string) string {
	return quoteURLWithAmount("1000000", extra)
}

func testPlan() *domain.Quote {
	usdc := domain.NewToken(domain.ChainMainnet,
		[20]byte{0xa0}, 6, "USDC")
	dai := domain.NewToken(domain.ChainMainnet,
		[20]byte{0x6b}, 18, "DAI")

	return &domain.Quote{
		TradeType:        domain.TradeTypeExactInput,
		Amount:           domain.NewCurrencyAmount(usdc, big.NewInt(1_000_000)),
		Quote:            domain.NewCurrencyAmount(dai, big.NewInt(990_000)),
		QuoteGasAdjusted: domain.NewCurrencyAmount(dai, big.NewInt(980_000)),
		GasPriceWei:      big.NewInt(12),
		BlockNumber:      19_000_000,
	}
}

func TestGetQuote_OK(t *testing.T) {
	usecase := &routerUsecaseMock{plan: testPlan()}
	e := newHandlerFixture(t, usecase)

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, quoteURL(""), nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"quote":"990000"`)
	require.Equal(t, domain.TradeTypeExactInput, usecase.lastTradeType)
}

func TestGetQuote_ExactOutFlag(t *testing.T) {
	usecase := &routerUsecaseMock{plan: testPlan()}
	e := newHandlerFixture(t, usecase)

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, quoteURL("&exactOut=true"), nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, domain.TradeTypeExactOutput, usecase.lastTradeType)
}

func TestGetQuote_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{"no route", domain.ErrNoRouteFound, http.StatusNotFound},
		{"unsupported chain", domain.ErrUnsupportedChain, http.StatusBadRequest},
		{"timeout", domain.ErrTimeout, http.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newHandlerFixture(t, &routerUsecaseMock{err: tc.err})

			recorder := httptest.NewRecorder()
			e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, quoteURL(""), nil))

			require.Equal(t, tc.expected, recorder.Code)
		})
	}
}

func TestGetQuote_InvalidParams(t *testing.T) {
	e := newHandlerFixture(t, &routerUsecaseMock{plan: testPlan()})

	// Malformed token address.
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet,
		"/router/quote?chainId=1&tokenIn=nonsense&tokenOut=0x6B175474E89094C44Da98b954EedeAC495271d0F&amount=5", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// Negative amount.
	recorder = httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, quoteURLWithAmount("-5", ""), nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
