package http

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/domain/mvc"
	"github.com/Maia-DAO/smart-order-router/log"
)

// RouterHandler represent the httphandler for the router
type RouterHandler struct {
	RUsecase mvc.RouterUsecase
	TUsecase mvc.TokensUsecase
	logger   log.Logger
}

const routerResource = "/router"

func formatRouterResource(resource string) string {
	return routerResource + resource
}

// NewRouterHandler will initialize the router/ resources endpoint
func NewRouterHandler(e *echo.Echo, us mvc.RouterUsecase, tu mvc.TokensUsecase, logger log.Logger) {
	handler := &RouterHandler{
		RUsecase: us,
		TUsecase: tu,
		logger:   logger,
	}
	e.GET(formatRouterResource("/quote"), handler.GetQuote)
	e.GET(formatRouterResource("/routes"), handler.GetCandidateRoutes)
}

// GetQuote returns the best routing plan it can compute for the given token
// pair and amount. `exactOut=true` fixes the output side instead of the
// input side.
func (a *RouterHandler) GetQuote(c echo.Context) error {
	ctx := c.Request().Context()

	request, err := parseQuoteRequest(c)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}

	// Enrich the parsed addresses with resolved metadata so amounts render
	// with the right decimals downstream.
	accessor, err := a.TUsecase.GetTokens(ctx, []common.Address{request.amount.Token.Address, request.quoteToken.Address}, request.options.BlockNumber)
	if err == nil {
		if token, found := accessor.GetTokenByAddress(request.amount.Token.Address); found {
			request.amount = domain.NewCurrencyAmount(token, request.amount.Quotient())
		}
		if token, found := accessor.GetTokenByAddress(request.quoteToken.Address); found {
			request.quoteToken = token
		}
	}

	plan, err := a.RUsecase.GetQuote(ctx, request.amount, request.quoteToken, request.tradeType, nil, request.options)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}

	return c.JSON(200, newQuoteResponse(plan))
}

// GetCandidateRoutes returns the enumerated candidate routes for the given
// token pair without quoting them.
func (a *RouterHandler) GetCandidateRoutes(c echo.Context) error {
	ctx := c.Request().Context()

	tokenIn, err := parseToken(c, "tokenIn")
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}
	tokenOut, err := parseToken(c, "tokenOut")
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}

	routes, err := a.RUsecase.GetCandidateRoutes(ctx, tokenIn, tokenOut, nil)
	if err != nil {
		return c.JSON(domain.GetStatusCode(err), domain.ResponseError{Message: err.Error()})
	}

	response := make([]candidateRouteResponse, 0, len(routes))
	for _, r := range routes {
		response = append(response, newCandidateRouteResponse(r))
	}

	return c.JSON(200, response)
}

type quoteRequest struct {
	amount     domain.CurrencyAmount
	quoteToken domain.Token
	tradeType  domain.TradeType
	options    *domain.RoutingOptions
}

func parseQuoteRequest(c echo.Context) (quoteRequest, error) {
	tokenIn, err := parseToken(c, "tokenIn")
	if err != nil {
		return quoteRequest{}, err
	}
	tokenOut, err := parseToken(c, "tokenOut")
	if err != nil {
		return quoteRequest{}, err
	}

	rawAmount := c.QueryParam("amount")
	amount, ok := new(big.Int).SetString(rawAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return quoteRequest{}, domain.ErrInvalidInput
	}

	tradeType := domain.TradeTypeExactInput
	if exactOutStr := c.QueryParam("exactOut"); exactOutStr != "" {
		exactOut, err := strconv.ParseBool(exactOutStr)
		if err != nil {
			return quoteRequest{}, domain.ErrInvalidInput
		}
		if exactOut {
			tradeType = domain.TradeTypeExactOutput
		}
	}

	options := &domain.RoutingOptions{}
	if blockStr := c.QueryParam("blockNumber"); blockStr != "" {
		block, err := strconv.ParseUint(blockStr, 10, 64)
		if err != nil {
			return quoteRequest{}, domain.ErrInvalidInput
		}
		options.BlockNumber = block
	}
	if splitsStr := c.QueryParam("maxSplits"); splitsStr != "" {
		splits, err := strconv.Atoi(splitsStr)
		if err != nil || splits < 1 {
			return quoteRequest{}, domain.ErrInvalidInput
		}
		options.MaxSplits = splits
	}

	fixedToken, quoteToken := tokenIn, tokenOut
	if tradeType == domain.TradeTypeExactOutput {
		fixedToken, quoteToken = tokenOut, tokenIn
	}

	return quoteRequest{
		amount:     domain.NewCurrencyAmount(fixedToken, amount),
		quoteToken: quoteToken,
		tradeType:  tradeType,
		options:    options,
	}, nil
}

func parseToken(c echo.Context, param string) (domain.Token, error) {
	raw := c.QueryParam(param)
	if !common.IsHexAddress(raw) {
		return domain.Token{}, domain.ErrInvalidInput
	}

	// Only the address identity is parsed here; GetQuote resolves decimals
	// and symbol afterwards through the tokens use case.
	chainIDStr := c.QueryParam("chainId")
	chainID, err := strconv.ParseUint(chainIDStr, 10, 64)
	if err != nil {
		return domain.Token{}, domain.ErrInvalidInput
	}

	return domain.Token{
		ChainID: domain.ChainID(chainID),
		Address: common.HexToAddress(raw),
	}, nil
}

// quoteResponse is the JSON shape served for a plan.
type quoteResponse struct {
	TradeType        string                `json:"trade_type"`
	Amount           string                `json:"amount"`
	Quote            string                `json:"quote"`
	QuoteGasAdjusted string                `json:"quote_gas_adjusted"`
	GasEstimate      uint64                `json:"gas_estimate"`
	GasCostUSD       string                `json:"gas_cost_usd"`
	GasPriceWei      string                `json:"gas_price_wei"`
	BlockNumber      uint64                `json:"block_number"`
	Routes           []splitRouteResponse  `json:"routes"`
	MethodParameters *methodParamsResponse `json:"method_parameters,omitempty"`
}

type splitRouteResponse struct {
	Percent  int      `json:"percent"`
	Protocol string   `json:"protocol"`
	Pools    []string `json:"pools"`
	Amount   string   `json:"amount"`
	Quote    string   `json:"quote"`
}

type methodParamsResponse struct {
	Calldata string `json:"calldata"`
	Value    string `json:"value"`
	To       string `json:"to"`
}

func newQuoteResponse(plan *domain.Quote) quoteResponse {
	response := quoteResponse{
		TradeType:        plan.TradeType.String(),
		Amount:           plan.Amount.Quotient().String(),
		Quote:            plan.Quote.Quotient().String(),
		QuoteGasAdjusted: plan.QuoteGasAdjusted.Quotient().String(),
		GasEstimate:      plan.EstimatedGasUsed,
		GasCostUSD:       plan.EstimatedGasUsedUSD.String(),
		GasPriceWei:      plan.GasPriceWei.String(),
		BlockNumber:      plan.BlockNumber,
	}

	for _, rwq := range plan.Routes {
		pools := make([]string, 0, len(rwq.Route.Pools()))
		for _, pool := range rwq.Route.Pools() {
			pools = append(pools, pool.ID())
		}
		response.Routes = append(response.Routes, splitRouteResponse{
			Percent:  rwq.Percent,
			Protocol: string(rwq.Route.Protocol()),
			Pools:    pools,
			Amount:   rwq.Amount.Quotient().String(),
			Quote:    rwq.Quote.Quotient().String(),
		})
	}

	if plan.MethodParameters != nil {
		response.MethodParameters = &methodParamsResponse{
			Calldata: "0x" + common.Bytes2Hex(plan.MethodParameters.Calldata),
			Value:    plan.MethodParameters.Value.String(),
			To:       plan.MethodParameters.To.Hex(),
		}
	}

	return response
}

type candidateRouteResponse struct {
	Protocol string   `json:"protocol"`
	Tokens   []string `json:"tokens"`
	Pools    []string `json:"pools"`
}

func newCandidateRouteResponse(r domain.Route) candidateRouteResponse {
	response := candidateRouteResponse{Protocol: string(r.Protocol())}
	for _, token := range r.TokenPath() {
		response.Tokens = append(response.Tokens, token.Address.Hex())
	}
	for _, pool := range r.Pools() {
		response.Pools = append(response.Pools, pool.ID())
	}
	return response
}
