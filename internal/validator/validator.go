package validator

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/futto/internal/config"
	"github.com/derekprior/futto/internal/excel"
)

// Violation represents a problem found in a schedule workbook.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks it against the round-robin
// rules implied by the config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	matches, err := excel.ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	return Check(cfg, matches), nil
}

// Check runs every rule over matches read from a workbook.
func Check(cfg *config.Config, matches []excel.SheetMatch) []Violation {
	var violations []Violation

	// Hard rules
	violations = append(violations, checkTeams(cfg, matches)...)
	violations = append(violations, checkNumbering(matches)...)
	violations = append(violations, checkPairCounts(cfg, matches)...)

	// Guidelines
	violations = append(violations, checkBackToBack(matches)...)
	violations = append(violations, checkHomeAwayBalance(matches)...)

	return violations
}

func checkTeams(cfg *config.Config, matches []excel.SheetMatch) []Violation {
	known := make(map[string]bool)
	for _, team := range cfg.Teams() {
		known[team] = true
	}

	var violations []Violation
	for _, m := range matches {
		if m.Home == m.Away {
			violations = append(violations, Violation{
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("match %d: %s cannot play itself", m.Number, m.Home),
			})
		}
		for _, team := range []string{m.Home, m.Away} {
			if !known[team] {
				violations = append(violations, Violation{
					Row:     m.Row,
					Type:    "error",
					Message: fmt.Sprintf("match %d: unknown team %q", m.Number, team),
				})
			}
		}
	}
	return violations
}

func checkNumbering(matches []excel.SheetMatch) []Violation {
	var violations []Violation
	for i, m := range matches {
		if m.Number != i+1 {
			violations = append(violations, Violation{
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("match number %d out of sequence, expected %d", m.Number, i+1),
			})
		}
	}
	return violations
}

type pairKey struct{ a, b string }

func normalizePair(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func checkPairCounts(cfg *config.Config, matches []excel.SheetMatch) []Violation {
	counts := make(map[pairKey]int)
	for _, m := range matches {
		if m.Home == m.Away {
			continue
		}
		counts[normalizePair(m.Home, m.Away)]++
	}

	var violations []Violation
	teams := cfg.Teams()
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			pk := normalizePair(teams[i], teams[j])
			if counts[pk] != cfg.RepeatMatches {
				violations = append(violations, Violation{
					Type: "error",
					Message: fmt.Sprintf("%s vs %s scheduled %d times (want %d)",
						pk.a, pk.b, counts[pk], cfg.RepeatMatches),
				})
			}
		}
	}
	return violations
}

func checkBackToBack(matches []excel.SheetMatch) []Violation {
	var violations []Violation
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		for _, team := range []string{cur.Home, cur.Away} {
			if team == prev.Home || team == prev.Away {
				violations = append(violations, Violation{
					Row:     cur.Row,
					Type:    "warning",
					Message: fmt.Sprintf("%s plays matches %d and %d back-to-back", team, prev.Number, cur.Number),
				})
			}
		}
	}
	return violations
}

func checkHomeAwayBalance(matches []excel.SheetMatch) []Violation {
	home := make(map[pairKey]map[string]int)
	for _, m := range matches {
		if m.Home == m.Away {
			continue
		}
		pk := normalizePair(m.Home, m.Away)
		if home[pk] == nil {
			home[pk] = make(map[string]int)
		}
		home[pk][m.Home]++
	}

	var violations []Violation
	for pk, counts := range home {
		diff := counts[pk.a] - counts[pk.b]
		if diff < -1 || diff > 1 {
			violations = append(violations, Violation{
				Type: "warning",
				Message: fmt.Sprintf("%s vs %s home/away imbalance: %s hosts %d, %s hosts %d",
					pk.a, pk.b, pk.a, counts[pk.a], pk.b, counts[pk.b]),
			})
		}
	}
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Message < violations[j].Message
	})
	return violations
}
