package services

import (
	"context"
	"math/rand"
	"time"

	"van-route-service/internal/domain"
)

// improve runs local search on sol until the deadline passes, the
// context is cancelled, or nothing is left to try. Between exhausted
// sweeps it perturbs the solution and keeps searching, tracking the
// best feasible solution seen. sol holds the best result on return.
//
// Moves never violate capacity, and when the spread policy applies
// they never empty a route, so every intermediate solution stays
// feasible.
func (p *fleetProblem) improve(ctx context.Context, sol *solution, deadline time.Time, rng *rand.Rand) {
	best := sol.clone()
	bestCost := p.cost(best)

	for {
		for p.withinBudget(ctx, deadline) {
			improved := p.twoOptPass(sol)
			improved = p.relocatePass(sol) || improved
			improved = p.exchangePass(sol) || improved
			if !improved {
				break
			}
		}

		if c := p.cost(sol); c < bestCost {
			best = sol.clone()
			bestCost = c
		}

		if !p.withinBudget(ctx, deadline) {
			break
		}
		if !p.perturb(sol, rng) {
			// No route can give up a stop; further sweeps would only
			// revisit the same solution until the deadline.
			break
		}
	}

	sol.orders = best.orders
	sol.loads = best.loads
}

func (p *fleetProblem) withinBudget(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() == nil && time.Now().Before(deadline)
}

// twoOptPass reverses segments within each route. Durations are
// asymmetric, so the whole route is re-costed rather than only the two
// cut legs.
func (p *fleetProblem) twoOptPass(sol *solution) bool {
	improved := false
	for v := range sol.orders {
		order := sol.orders[v]
		if len(order) < 2 {
			continue
		}
		base := p.routeSeconds(order)
		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				reverse(order[i : j+1])
				if d := p.routeSeconds(order); d < base {
					base = d
					improved = true
				} else {
					reverse(order[i : j+1])
				}
			}
		}
	}
	return improved
}

// relocatePass moves one stop to the best position on another route.
func (p *fleetProblem) relocatePass(sol *solution) bool {
	improved := false
	for a := range sol.orders {
		if p.spread && len(sol.orders[a]) <= 1 {
			continue
		}
		for i := 0; i < len(sol.orders[a]); i++ {
			before := p.cost(sol)
			s := p.remove(sol, a, i)
			stop := &p.stops[s]

			moved := false
			for b := range sol.orders {
				if b == a || !p.fits(b, sol.loads[b], stop) {
					continue
				}
				for pos := 0; pos <= len(sol.orders[b]); pos++ {
					p.insert(sol, b, pos, s)
					if p.cost(sol) < before {
						moved = true
						break
					}
					p.remove(sol, b, pos)
				}
				if moved {
					break
				}
			}
			if moved {
				improved = true
				i--
				if p.spread && len(sol.orders[a]) <= 1 {
					break
				}
				continue
			}
			p.insert(sol, a, i, s)
		}
	}
	return improved
}

// exchangePass swaps a pair of stops between two routes.
func (p *fleetProblem) exchangePass(sol *solution) bool {
	improved := false
	for a := 0; a < len(sol.orders); a++ {
		for b := a + 1; b < len(sol.orders); b++ {
			for i := 0; i < len(sol.orders[a]); i++ {
				for j := 0; j < len(sol.orders[b]); j++ {
					if !p.swapFits(sol, a, i, b, j) {
						continue
					}
					before := p.cost(sol)
					p.swap(sol, a, i, b, j)
					if p.cost(sol) < before {
						improved = true
					} else {
						p.swap(sol, a, i, b, j)
					}
				}
			}
		}
	}
	return improved
}

func (p *fleetProblem) swapFits(sol *solution, a, i, b, j int) bool {
	s1 := &p.stops[sol.orders[a][i]]
	s2 := &p.stops[sol.orders[b][j]]

	la := p.loadWithout(sol.loads[a], s1)
	lb := p.loadWithout(sol.loads[b], s2)
	return p.fits(a, la, s2) && p.fits(b, lb, s1)
}

func (p *fleetProblem) loadWithout(load vanLoad, s *domain.Stop) vanLoad {
	if s.RequiresAccessibility {
		load.access -= s.Load()
	} else {
		load.standard -= s.Load()
	}
	return load
}

func (p *fleetProblem) swap(sol *solution, a, i, b, j int) {
	s1, s2 := sol.orders[a][i], sol.orders[b][j]
	sol.orders[a][i], sol.orders[b][j] = s2, s1

	sol.loads[a] = p.loadWithout(sol.loads[a], &p.stops[s1])
	sol.loads[b] = p.loadWithout(sol.loads[b], &p.stops[s2])
	sol.loads[a] = p.loadWith(sol.loads[a], &p.stops[s2])
	sol.loads[b] = p.loadWith(sol.loads[b], &p.stops[s1])
}

func (p *fleetProblem) loadWith(load vanLoad, s *domain.Stop) vanLoad {
	if s.RequiresAccessibility {
		load.access += s.Load()
	} else {
		load.standard += s.Load()
	}
	return load
}

// perturb kicks the solution out of a local optimum: a couple of stops
// are pulled off their routes and reinserted at random feasible
// positions. The next improvement sweep repairs the damage; best-seen
// tracking in improve protects against a bad kick. Returns false when
// no route could donate a stop, meaning the kick did nothing.
func (p *fleetProblem) perturb(sol *solution, rng *rand.Rand) bool {
	kicked := false
	for k := 0; k < 2; k++ {
		a := p.randomDonor(sol, rng)
		if a == -1 {
			return kicked
		}
		kicked = true
		i := rng.Intn(len(sol.orders[a]))
		s := p.remove(sol, a, i)
		stop := &p.stops[s]

		vans := rng.Perm(len(sol.orders))
		for _, b := range vans {
			if !p.fits(b, sol.loads[b], stop) {
				continue
			}
			p.insert(sol, b, rng.Intn(len(sol.orders[b])+1), s)
			stop = nil
			break
		}
		if stop != nil {
			p.insert(sol, a, i, s)
		}
	}
	return kicked
}

func (p *fleetProblem) randomDonor(sol *solution, rng *rand.Rand) int {
	candidates := make([]int, 0, len(sol.orders))
	for v, order := range sol.orders {
		min := 1
		if p.spread {
			min = 2
		}
		if len(order) >= min {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[rng.Intn(len(candidates))]
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
