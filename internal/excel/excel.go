package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/futto/internal/config"
	"github.com/derekprior/futto/internal/schedule"
	"github.com/derekprior/futto/internal/standings"
)

const (
	ScheduleSheet  = "Schedule"
	StandingsSheet = "Standings"

	unplayed = "vs"
)

var (
	scheduleHeaders  = []string{"Match", "Kickoff", "Home", "Score", "Away", "Played"}
	standingsHeaders = []string{"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"}
	teamHeaders      = []string{"Match", "Kickoff", "Opponent", "Home/Away", "Score", "Result"}
)

// Generate creates a workbook with the schedule, the current standings and
// one sheet per team. Results are attached to matches by match number.
func Generate(cfg *config.Config, sched *schedule.Schedule, slots []schedule.Slot, results []standings.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeScheduleSheet(f, sched, slots, results); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}

	if err := writeStandingsSheet(f, standings.Compute(cfg.Teams(), results)); err != nil {
		return nil, fmt.Errorf("writing standings sheet: %w", err)
	}

	if err := writeTeamSheets(f, cfg.Teams(), sched.Matches(), kickoffs(slots), results); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// SheetMatch is one row of the Schedule sheet as read back from a workbook.
type SheetMatch struct {
	Row     int
	Number  int
	Kickoff string
	Home    string
	Away    string
	Result  *standings.Result
}

// ReadMatches parses the Schedule sheet. A score cell of "H - A" marks the
// match as played; "vs" or an empty cell means it has not been played.
func ReadMatches(f *excelize.File) ([]SheetMatch, error) {
	rows, err := f.GetRows(ScheduleSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ScheduleSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", ScheduleSheet)
	}

	var matches []SheetMatch
	for i, row := range rows {
		if i == 0 || len(row) < 5 || row[0] == "" {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid match number %q", i+1, row[0])
		}
		m := SheetMatch{
			Row:     i + 1,
			Number:  num,
			Kickoff: row[1],
			Home:    strings.TrimSpace(row[2]),
			Away:    strings.TrimSpace(row[4]),
		}
		home, away, ok, err := parseScore(row[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if ok {
			r := standings.Result{
				MatchNumber: num,
				Home:        m.Home,
				Away:        m.Away,
				HomeScore:   home,
				AwayScore:   away,
			}
			if len(row) > 5 && row[5] != "" {
				if t, err := time.ParseInLocation(playedLayout, row[5], time.Local); err == nil {
					r.PlayedAt = t
				}
			}
			m.Result = &r
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// UpdateStandings recomputes the Standings and team sheets of the workbook at
// path from the scores entered on its Schedule sheet.
func UpdateStandings(path string, cfg *config.Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	matches, err := ReadMatches(f)
	if err != nil {
		return err
	}

	var results []standings.Result
	var sched []schedule.Match
	kick := make(map[int]string)
	for _, m := range matches {
		sched = append(sched, schedule.Match{Number: m.Number, Home: m.Home, Away: m.Away})
		kick[m.Number] = m.Kickoff
		if m.Result != nil {
			results = append(results, *m.Result)
		}
	}

	for _, name := range f.GetSheetList() {
		if name != ScheduleSheet {
			if err := f.DeleteSheet(name); err != nil {
				return fmt.Errorf("removing sheet %q: %w", name, err)
			}
		}
	}

	if err := writeStandingsSheet(f, standings.Compute(cfg.Teams(), results)); err != nil {
		return fmt.Errorf("writing standings sheet: %w", err)
	}
	if err := writeTeamSheets(f, cfg.Teams(), sched, kick, results); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}

	return f.Save()
}

const (
	kickoffLayout = "15:04"
	playedLayout  = "2006-01-02 15:04"
)

func kickoffs(slots []schedule.Slot) map[int]string {
	m := make(map[int]string, len(slots))
	for _, s := range slots {
		m[s.Number] = s.Kickoff.Format(kickoffLayout)
	}
	return m
}

func resultsByNumber(results []standings.Result) map[int]standings.Result {
	m := make(map[int]standings.Result, len(results))
	for _, r := range results {
		m[r.MatchNumber] = r
	}
	return m
}

func parseScore(cell string) (home, away int, ok bool, err error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, unplayed) {
		return 0, 0, false, nil
	}
	h, a, found := strings.Cut(cell, "-")
	if !found {
		return 0, 0, false, fmt.Errorf("invalid score %q", cell)
	}
	home, errH := strconv.Atoi(strings.TrimSpace(h))
	away, errA := strconv.Atoi(strings.TrimSpace(a))
	if errH != nil || errA != nil || home < 0 || away < 0 {
		return 0, 0, false, fmt.Errorf("invalid score %q", cell)
	}
	return home, away, true, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#2E7D32"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style, err := headerStyle(f); err == nil {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeScheduleSheet(f *excelize.File, sched *schedule.Schedule, slots []schedule.Slot, results []standings.Result) error {
	sheet := ScheduleSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, scheduleHeaders)

	kick := kickoffs(slots)
	played := resultsByNumber(results)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, m := range sched.Matches() {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), m.Number)
		f.SetCellValue(sheet, cellRef(2, row), kick[m.Number])
		f.SetCellValue(sheet, cellRef(3, row), m.Home)
		f.SetCellValue(sheet, cellRef(5, row), m.Away)
		if r, ok := played[m.Number]; ok {
			f.SetCellValue(sheet, cellRef(4, row), r.Score())
			if !r.PlayedAt.IsZero() {
				f.SetCellValue(sheet, cellRef(6, row), r.PlayedAt.Local().Format(playedLayout))
			}
		} else {
			f.SetCellValue(sheet, cellRef(4, row), unplayed)
			f.SetCellValue(sheet, cellRef(6, row), "-")
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(scheduleHeaders), row), cellStyle)
		}
	}

	widths := map[string]float64{"A": 10, "B": 12, "C": 24, "D": 12, "E": 24, "F": 22}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	// Unplayed matches are shaded so the remaining fixtures stand out.
	lastRow := sched.Len() + 1
	if lastRow > 1 {
		pending, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFF2CC"}},
		})
		f.SetConditionalFormat(sheet, fmt.Sprintf("A2:F%d", lastRow), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: fmt.Sprintf(`$D2="%s"`, unplayed),
				Format:   &pending,
			},
		})
	}

	idx, err := f.GetSheetIndex(sheet)
	if err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return nil
}

func writeStandingsSheet(f *excelize.File, rows []standings.Row) error {
	sheet := StandingsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, standingsHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, r := range rows {
		row := i + 2
		values := []any{i + 1, r.Team, r.Played, r.Won, r.Drawn, r.Lost, r.GoalsFor, r.GoalsAgainst, r.GoalDifference(), r.Points}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), cellStyle)
		}
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "J", 8)
	return nil
}

func writeTeamSheets(f *excelize.File, teams []string, matches []schedule.Match, kick map[int]string, results []standings.Result) error {
	played := resultsByNumber(results)
	names := teamSheetNames(teams)

	for _, team := range teams {
		sheet := names[team]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("team %q: %w", team, err)
		}
		writeHeaders(f, sheet, teamHeaders)

		row := 2
		for _, m := range matches {
			if !m.Involves(team) {
				continue
			}
			opponent, homeAway := m.Away, "Home"
			if m.Away == team {
				opponent, homeAway = m.Home, "Away"
			}

			score, outcome := unplayed, ""
			if r, ok := played[m.Number]; ok {
				score = r.Score()
				outcome = outcomeFor(team, r)
			}

			values := []any{m.Number, kick[m.Number], opponent, homeAway, score, outcome}
			for col, v := range values {
				f.SetCellValue(sheet, cellRef(col+1, row), v)
			}
			row++
		}

		widths := map[string]float64{"A": 10, "B": 12, "C": 24, "D": 14, "E": 12, "F": 10}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func outcomeFor(team string, r standings.Result) string {
	scored, conceded := r.HomeScore, r.AwayScore
	if r.Away == team {
		scored, conceded = r.AwayScore, r.HomeScore
	}
	switch {
	case scored > conceded:
		return "W"
	case scored == conceded:
		return "D"
	default:
		return "L"
	}
}

const maxSheetName = 31

// reservedSheets are names a team sheet must never take. excelize matches
// sheet names case-insensitively.
var reservedSheets = []string{ScheduleSheet, StandingsSheet, "Sheet1"}

// sheetName makes a team name usable as a sheet name: Excel limits names to
// 31 characters and rejects a handful of punctuation marks.
func sheetName(team string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, team)
	for _, reserved := range reservedSheets {
		if strings.EqualFold(name, reserved) {
			name = "Team " + name
			break
		}
	}
	return truncateRunes(name, maxSheetName)
}

// teamSheetNames assigns every team a distinct sheet name. Names that clash
// after sanitizing get a numeric suffix.
func teamSheetNames(teams []string) map[string]string {
	used := make(map[string]bool)
	for _, reserved := range reservedSheets {
		used[strings.ToLower(reserved)] = true
	}

	names := make(map[string]string, len(teams))
	for _, team := range teams {
		base := sheetName(team)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" %d", n)
			name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[team] = name
	}
	return names
}

func truncateRunes(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
