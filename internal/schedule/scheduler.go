package schedule

import (
	"fmt"
	"strings"

	"github.com/derekprior/futto/internal/strategy"
)

// Match is a numbered pairing in the tournament order.
type Match struct {
	Number int
	Home   string
	Away   string
}

// Label is the display form used on sheets and in logs, e.g. "Match 3".
func (m Match) Label() string {
	return fmt.Sprintf("Match %d", m.Number)
}

// Involves reports whether team plays in this match.
func (m Match) Involves(team string) bool {
	return m.Home == team || m.Away == team
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Matches    int
	Home       int
	Away       int
	BackToBack int
}

// Schedule is the ordered, numbered match list for one tournament
// configuration. It is never modified after Build returns.
type Schedule struct {
	teams    []string
	repeat   int
	strategy string
	matches  []Match
}

// Generate builds a schedule with the default ordering strategy.
func Generate(teams []string, repeat int) *Schedule {
	s, _ := strategy.Get(strategy.Default)
	return build(teams, repeat, strategy.Default, s)
}

// Build enumerates the round-robin pairings for teams, orders them with strat
// and numbers the result from 1.
func Build(teams []string, repeat int, strategyName string) (*Schedule, error) {
	strat, err := strategy.Get(strategyName)
	if err != nil {
		return nil, err
	}
	return build(teams, repeat, strategyName, strat), nil
}

func build(teams []string, repeat int, name string, strat strategy.Strategy) *Schedule {
	ordered := strat.Arrange(strategy.RoundRobin(teams, repeat))

	matches := make([]Match, len(ordered))
	for i, p := range ordered {
		matches[i] = Match{Number: i + 1, Home: p.Home, Away: p.Away}
	}

	t := make([]string, len(teams))
	copy(t, teams)
	return &Schedule{teams: t, repeat: repeat, strategy: name, matches: matches}
}

// Len returns the number of matches.
func (s *Schedule) Len() int {
	return len(s.matches)
}

// Teams returns the teams the schedule was built for, in configuration order.
func (s *Schedule) Teams() []string {
	out := make([]string, len(s.teams))
	copy(out, s.teams)
	return out
}

// Repeat returns how many times every pair meets.
func (s *Schedule) Repeat() int {
	return s.repeat
}

// Matches returns a copy of the match list in play order.
func (s *Schedule) Matches() []Match {
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// Match looks up a match by its 1-based number.
func (s *Schedule) Match(number int) (Match, bool) {
	if number < 1 || number > len(s.matches) {
		return Match{}, false
	}
	return s.matches[number-1], true
}

// Next returns the match following number, if any.
func (s *Schedule) Next(number int) (Match, bool) {
	return s.Match(number + 1)
}

// Key identifies the tournament this schedule belongs to. Two schedules with
// the same key have the same matches in the same order.
func (s *Schedule) Key() string {
	return fmt.Sprintf("teams=%s;repeat=%d;strategy=%s", strings.Join(s.teams, "|"), s.repeat, s.strategy)
}

// Metrics reports per-team counts and a warning for every pair of adjacent
// matches that share a team.
func (s *Schedule) Metrics() ([]string, map[string]*TeamMetrics) {
	metrics := make(map[string]*TeamMetrics)
	for _, team := range s.teams {
		metrics[team] = &TeamMetrics{}
	}

	for _, m := range s.matches {
		if h, ok := metrics[m.Home]; ok {
			h.Matches++
			h.Home++
		}
		if a, ok := metrics[m.Away]; ok {
			a.Matches++
			a.Away++
		}
	}

	var warnings []string
	for i := 1; i < len(s.matches); i++ {
		prev, cur := s.matches[i-1], s.matches[i]
		for _, team := range []string{cur.Home, cur.Away} {
			if !prev.Involves(team) {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("%s plays matches %d and %d back-to-back",
				team, prev.Number, cur.Number))
			if m, ok := metrics[team]; ok {
				m.BackToBack++
			}
		}
	}

	return warnings, metrics
}
