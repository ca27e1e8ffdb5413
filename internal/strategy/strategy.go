package strategy

import (
	"fmt"
	"sort"
)

// Pairing is a single scheduled meeting between two teams.
type Pairing struct {
	Home string
	Away string
}

// Strategy decides the order in which round-robin pairings are played.
type Strategy interface {
	Arrange(pairings []Pairing) []Pairing
}

// Default is the strategy used when none is configured.
const Default = "avoid_back_to_back"

var registry = map[string]Strategy{
	"avoid_back_to_back": &AvoidBackToBack{},
	"round_order":        &RoundOrder{},
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
	return s, nil
}

// Names lists the registered strategies in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RoundRobin enumerates every pair of teams once per repeat round.
// Even rounds put the lower-indexed team at home, odd rounds flip it.
func RoundRobin(teams []string, repeat int) []Pairing {
	if len(teams) < 2 || repeat <= 0 {
		return nil
	}

	pairings := make([]Pairing, 0, repeat*len(teams)*(len(teams)-1)/2)
	for r := 0; r < repeat; r++ {
		for i := 0; i < len(teams); i++ {
			for j := i + 1; j < len(teams); j++ {
				if r%2 == 0 {
					pairings = append(pairings, Pairing{Home: teams[i], Away: teams[j]})
				} else {
					pairings = append(pairings, Pairing{Home: teams[j], Away: teams[i]})
				}
			}
		}
	}
	return pairings
}

// RoundOrder keeps pairings in the order RoundRobin enumerates them.
type RoundOrder struct{}

// Arrange returns a copy of pairings in enumeration order.
func (s *RoundOrder) Arrange(pairings []Pairing) []Pairing {
	out := make([]Pairing, len(pairings))
	copy(out, pairings)
	return out
}

// AvoidBackToBack greedily picks, at each step, the remaining pairing with
// the fewest teams already placed. Ties go to the earliest pairing in the
// remaining list, so the output is fully determined by the input order.
type AvoidBackToBack struct{}

// Arrange returns pairings reordered to reduce back-to-back matches.
func (s *AvoidBackToBack) Arrange(pairings []Pairing) []Pairing {
	remaining := make([]Pairing, len(pairings))
	copy(remaining, pairings)

	ordered := make([]Pairing, 0, len(pairings))
	used := make(map[string]bool)

	for len(remaining) > 0 {
		best := -1
		bestScore := -1
		for i, p := range remaining {
			score := 0
			if used[p.Home] {
				score++
			}
			if used[p.Away] {
				score++
			}
			if best < 0 || score < bestScore {
				best = i
				bestScore = score
			}
		}

		if best < 0 {
			// No candidate found: restart the used set from the head of the list.
			p := remaining[0]
			remaining = remaining[1:]
			ordered = append(ordered, p)
			clear(used)
			used[p.Home] = true
			used[p.Away] = true
			continue
		}

		p := remaining[best]
		ordered = append(ordered, p)
		used[p.Home] = true
		used[p.Away] = true
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return ordered
}
