package usecase

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Maia-DAO/smart-order-router/domain"
	"github.com/Maia-DAO/smart-order-router/log"
	"github.com/Maia-DAO/smart-order-router/router/usecase/route"
)

// enumerateRoutes finds every simple path from tokenIn to tokenOut of length
// at most maxSwapsPerPath over the candidate pools. Depth-first with
// backtracking; no pool repeats within a path (stable pools compare by pool
// ID so the same pool never enters under two token-pair projections) and no
// token is revisited.
//
// requireMixed additionally filters the result to routes drawing on at least
// two pools of two distinct protocols; single-protocol routes belong to
// their per-protocol enumerations.
func enumerateRoutes(pools []domain.Pool, tokenIn, tokenOut domain.Token, maxSwapsPerPath int, requireMixed bool, logger log.Logger) []domain.Route {
	if maxSwapsPerPath <= 0 || len(pools) == 0 {
		return nil
	}

	search := &routeSearch{
		pools:         pools,
		tokenOut:      tokenOut,
		maxHops:       maxSwapsPerPath,
		visitedPools:  make(map[string]struct{}),
		visitedTokens: make(map[string]struct{}),
	}

	search.visitedTokens[tokenIn.Key()] = struct{}{}
	search.walk(tokenIn, nil, nil)

	routes := search.routes
	if requireMixed {
		mixed := make([]domain.Route, 0, len(routes))
		for _, r := range routes {
			if r.Protocol() == domain.ProtocolMixed {
				mixed = append(mixed, r)
			}
		}
		routes = mixed
	}

	// Deterministic output order regardless of pool input order.
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].ID() < routes[j].ID()
	})

	logger.Debug("enumerated candidate routes",
		zap.Int("pools", len(pools)),
		zap.Int("routes", len(routes)),
		zap.Bool("mixed_only", requireMixed))

	return routes
}

type routeSearch struct {
	pools    []domain.Pool
	tokenOut domain.Token
	maxHops  int

	visitedPools  map[string]struct{}
	visitedTokens map[string]struct{}

	routes []domain.Route
}

// walk extends the current path from the given token.
func (s *routeSearch) walk(current domain.Token, pathPools []domain.Pool, pathTokens []domain.Token) {
	if len(pathPools) >= s.maxHops {
		return
	}

	for _, pool := range s.pools {
		if _, used := s.visitedPools[pool.ID()]; used {
			continue
		}
		if !pool.InvolvesToken(current) {
			continue
		}

		for _, next := range pool.Tokens() {
			if next.Equal(current) {
				continue
			}
			if _, seen := s.visitedTokens[next.Key()]; seen {
				continue
			}

			if next.Equal(s.tokenOut) {
				fullPools := append(append([]domain.Pool{}, pathPools...), pool)
				s.emit(fullPools, pathTokens, current, next)
				continue
			}

			s.visitedPools[pool.ID()] = struct{}{}
			s.visitedTokens[next.Key()] = struct{}{}

			s.walk(next, append(pathPools, pool), append(pathTokens, current))

			delete(s.visitedPools, pool.ID())
			delete(s.visitedTokens, next.Key())
		}
	}
}

// emit materializes a finished path into an immutable route.
func (s *routeSearch) emit(pools []domain.Pool, pathTokens []domain.Token, current, last domain.Token) {
	tokenPath := make([]domain.Token, 0, len(pools)+1)
	tokenPath = append(tokenPath, pathTokens...)
	tokenPath = append(tokenPath, current, last)

	built, err := route.NewRoute(pools, tokenPath)
	if err != nil {
		// Construction re-validates the walk's invariants; a failure here is
		// a bug in the search, not an input condition.
		panic(err)
	}

	s.routes = append(s.routes, built)
}
