package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedChain will throw if the requested chain is not served by the router
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrUnsupportedTradeType will throw if exact-out is requested for a protocol that only quotes exact-in
	ErrUnsupportedTradeType = errors.New("unsupported trade type")
	// ErrNoRouteFound will throw if no protocol produced a viable route
	ErrNoRouteFound = errors.New("no route found")
	// ErrTimeout will throw if the invocation deadline expired before a plan was assembled
	ErrTimeout = errors.New("routing deadline exceeded")
	// ErrInvalidInput will throw if the given request parameters are not valid
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
)

// RpcError is a per-call transport failure surfaced by the multicall layer.
type RpcError struct {
	Reason   string
	Selector string
}

func (e RpcError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("rpc failure for %s: %s", e.Selector, e.Reason)
	}
	return fmt.Sprintf("rpc failure: %s", e.Reason)
}

// GetStatusCode returns the HTTP status code for the given error.
func GetStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedChain), errors.Is(err, ErrUnsupportedTradeType):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRouteFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}
