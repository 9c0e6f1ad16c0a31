package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Maia-DAO/smart-order-router/domain"
)

// The split optimizer is a bounded subset-sum dynamic program over the
// percent grid. dp[s][p] holds the best known plan using exactly s
// sub-routes summing to exactly p percent; transitions extend a plan by one
// (route, fraction) pair without reusing a route. The final plan is the best
// dp[s][100] within the split-count window. The search is a heuristic: it is
// optimal over the enumerated (route, fraction) pool, not globally.

// splitPlan is one DP state: an ordered set of gas-adjusted sub-routes.
type splitPlan struct {
	routes []domain.RouteWithQuote
}

// percentGrid returns the quoted fraction steps: distributionPercent,
// 2*distributionPercent, ..., 100.
func percentGrid(distributionPercent int) []int {
	grid := make([]int, 0, 100/distributionPercent)
	for p := distributionPercent; p <= 100; p += distributionPercent {
		grid = append(grid, p)
	}
	return grid
}

// quotedRoute indexes one route's fetched quotes by fraction for DP
// transitions; (route, fraction) pairs the quoter reverted on are absent.
type quotedRoute struct {
	route domain.Route
	// byPercent maps a fraction to the gas-adjusted route quote.
	byPercent map[int]domain.RouteWithQuote
}

// getBestSwapRoute runs the split DP and returns the winning plan's routes,
// or nil when no combination fills exactly 100 percent.
//
// For exact-in a larger gas-adjusted aggregate is better; for exact-out the
// aggregate is the input needed and smaller is better. Ties break toward
// fewer splits, then ascending route IDs for determinism.
func getBestSwapRoute(
	tradeType domain.TradeType,
	quoted []quotedRoute,
	distributionPercent int,
	minSplits, maxSplits int,
	forceCrossProtocol bool,
) []domain.RouteWithQuote {
	if len(quoted) == 0 {
		return nil
	}
	if minSplits < 1 {
		minSplits = 1
	}

	// Deterministic transition order.
	sort.Slice(quoted, func(i, j int) bool {
		return quoted[i].route.ID() < quoted[j].route.ID()
	})

	type stateKey struct {
		splits  int
		percent int
	}
	dp := make(map[stateKey]*splitPlan)
	dp[stateKey{0, 0}] = &splitPlan{}

	better := func(a, b *splitPlan) bool {
		return comparePlans(tradeType, a, b) < 0
	}

	for s := 1; s <= maxSplits; s++ {
		for p := distributionPercent; p <= 100; p += distributionPercent {
			var best *splitPlan

			for _, qr := range quoted {
				for fraction, rwq := range qr.byPercent {
					if fraction > p {
						continue
					}

					prev, ok := dp[stateKey{s - 1, p - fraction}]
					if !ok {
						continue
					}
					if planContainsRoute(prev, qr.route) {
						continue
					}

					extended := &splitPlan{routes: append(append([]domain.RouteWithQuote{}, prev.routes...), rwq)}
					if best == nil || better(extended, best) {
						best = extended
					}
				}
			}

			if best != nil {
				dp[stateKey{s, p}] = best
			}
		}
	}

	pick := func(crossOnly bool) *splitPlan {
		var winner *splitPlan
		for s := minSplits; s <= maxSplits; s++ {
			plan, ok := dp[stateKey{s, 100}]
			if !ok {
				continue
			}
			if crossOnly && !isCrossProtocol(plan) {
				continue
			}
			if winner == nil || better(plan, winner) {
				winner = plan
			}
		}
		return winner
	}

	winner := pick(forceCrossProtocol)
	if winner == nil {
		return nil
	}

	// Deterministic sub-route order within the plan.
	sort.Slice(winner.routes, func(i, j int) bool {
		return winner.routes[i].Route.ID() < winner.routes[j].Route.ID()
	})

	return winner.routes
}

// comparePlans returns negative when a is strictly better than b, positive
// when worse, zero when indistinguishable.
func comparePlans(tradeType domain.TradeType, a, b *splitPlan) int {
	aggregateA := planAdjustedAggregate(a)
	aggregateB := planAdjustedAggregate(b)

	cmp := aggregateA.Cmp(aggregateB)
	if cmp != 0 {
		// Exact-in wants the larger adjusted output; exact-out the smaller
		// adjusted input.
		if tradeType == domain.TradeTypeExactInput {
			return -cmp
		}
		return cmp
	}

	if len(a.routes) != len(b.routes) {
		if len(a.routes) < len(b.routes) {
			return -1
		}
		return 1
	}

	return strings.Compare(planID(a), planID(b))
}

func planAdjustedAggregate(plan *splitPlan) domain.CurrencyAmount {
	aggregate := plan.routes[0].QuoteAdjustedForGas
	for _, rwq := range plan.routes[1:] {
		aggregate = aggregate.Add(rwq.QuoteAdjustedForGas)
	}
	return aggregate
}

func planContainsRoute(plan *splitPlan, r domain.Route) bool {
	for _, rwq := range plan.routes {
		if rwq.Route.ID() == r.ID() {
			return true
		}
	}
	return false
}

func planID(plan *splitPlan) string {
	ids := make([]string, 0, len(plan.routes))
	for _, rwq := range plan.routes {
		ids = append(ids, fmt.Sprintf("%s@%d", rwq.Route.ID(), rwq.Percent))
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func isCrossProtocol(plan *splitPlan) bool {
	if len(plan.routes) < 2 {
		return false
	}
	first := plan.routes[0].Route.Protocol()
	for _, rwq := range plan.routes[1:] {
		if rwq.Route.Protocol() != first {
			return true
		}
	}
	return false
}
