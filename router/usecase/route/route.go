package route

import (
	"fmt"
	"strings"

	"github.com/Maia-DAO/smart-order-router/domain"
)

var _ domain.Route = &RouteImpl{}

// RouteImpl is an immutable pool path from an input token to an output token.
type RouteImpl struct {
	pools     []domain.Pool
	tokenPath []domain.Token
	protocol  domain.Protocol
}

// NewRoute constructs a route over the given pools following tokenPath.
// tokenPath carries one more entry than pools; entry i and i+1 are the input
// and output token of hop i.
// Returns error if:
// - the route is empty or the path length does not line up
// - a hop pool does not involve both its path tokens
// - a pool or a token repeats within the route
func NewRoute(pools []domain.Pool, tokenPath []domain.Token) (*RouteImpl, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("route must contain at least one pool")
	}
	if len(tokenPath) != len(pools)+1 {
		return nil, fmt.Errorf("token path length %d does not match %d pools", len(tokenPath), len(pools))
	}

	seenPools := make(map[string]struct{}, len(pools))
	seenTokens := make(map[string]struct{}, len(tokenPath))

	for i, pool := range pools {
		if !pool.InvolvesToken(tokenPath[i]) || !pool.InvolvesToken(tokenPath[i+1]) {
			return nil, fmt.Errorf("pool %s does not connect %s and %s", pool.ID(), tokenPath[i], tokenPath[i+1])
		}

		if _, dup := seenPools[pool.ID()]; dup {
			return nil, fmt.Errorf("pool %s repeats within the route", pool.ID())
		}
		seenPools[pool.ID()] = struct{}{}
	}

	for _, token := range tokenPath {
		key := token.Key()
		if _, dup := seenTokens[key]; dup {
			return nil, fmt.Errorf("token %s repeats within the route", token)
		}
		seenTokens[key] = struct{}{}
	}

	return &RouteImpl{
		pools:     pools,
		tokenPath: tokenPath,
		protocol:  routeProtocol(pools),
	}, nil
}

// routeProtocol derives the route tag: the shared protocol of all pools, or
// Mixed when the pools span two or more protocols.
func routeProtocol(pools []domain.Pool) domain.Protocol {
	protocol := pools[0].Protocol()
	for _, pool := range pools[1:] {
		if pool.Protocol() != protocol {
			return domain.ProtocolMixed
		}
	}
	return protocol
}

// Pools implements domain.Route.
func (r *RouteImpl) Pools() []domain.Pool {
	return r.pools
}

// TokenPath implements domain.Route.
func (r *RouteImpl) TokenPath() []domain.Token {
	return r.tokenPath
}

// Input implements domain.Route.
func (r *RouteImpl) Input() domain.Token {
	return r.tokenPath[0]
}

// Output implements domain.Route.
func (r *RouteImpl) Output() domain.Token {
	return r.tokenPath[len(r.tokenPath)-1]
}

// Protocol implements domain.Route.
func (r *RouteImpl) Protocol() domain.Protocol {
	return r.protocol
}

// ID implements domain.Route.
func (r *RouteImpl) ID() string {
	ids := make([]string, 0, len(r.pools))
	for _, pool := range r.pools {
		ids = append(ids, pool.ID())
	}
	return strings.Join(ids, "/")
}

// String implements domain.Route.
func (r *RouteImpl) String() string {
	var builder strings.Builder

	builder.WriteString(r.Input().String())
	for i, pool := range r.pools {
		builder.WriteString(fmt.Sprintf(" -[%s %s]-> %s", pool.Protocol(), pool.ID(), r.tokenPath[i+1]))
	}

	return builder.String()
}
