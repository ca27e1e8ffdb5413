package standings

import (
	"fmt"
	"sort"
	"time"
)

const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// Result is the final score of a played match.
type Result struct {
	MatchNumber int
	Home        string
	Away        string
	HomeScore   int
	AwayScore   int
	PlayedAt    time.Time
}

// Score renders the result as "2 - 1".
func (r Result) Score() string {
	return fmt.Sprintf("%d - %d", r.HomeScore, r.AwayScore)
}

// Row is one team's line in the league table.
type Row struct {
	Team         string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

// GoalDifference is goals scored minus goals conceded.
func (r Row) GoalDifference() int {
	return r.GoalsFor - r.GoalsAgainst
}

// Compute builds the league table for teams from results. Results naming a
// team outside teams do not create rows. Rows are ordered by points, then
// goal difference, then goals scored; remaining ties keep the order of teams.
func Compute(teams []string, results []Result) []Row {
	rows := make([]Row, len(teams))
	index := make(map[string]*Row, len(teams))
	for i, team := range teams {
		rows[i] = Row{Team: team}
		index[team] = &rows[i]
	}

	for _, r := range results {
		if home, ok := index[r.Home]; ok {
			home.add(r.HomeScore, r.AwayScore)
		}
		if away, ok := index[r.Away]; ok {
			away.add(r.AwayScore, r.HomeScore)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDifference() != rows[j].GoalDifference() {
			return rows[i].GoalDifference() > rows[j].GoalDifference()
		}
		return rows[i].GoalsFor > rows[j].GoalsFor
	})
	return rows
}

func (r *Row) add(scored, conceded int) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		r.Won++
		r.Points += PointsWin
	case scored == conceded:
		r.Drawn++
		r.Points += PointsDraw
	default:
		r.Lost++
		r.Points += PointsLoss
	}
}
