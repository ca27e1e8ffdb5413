package excel

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/futto/internal/config"
	"github.com/derekprior/futto/internal/schedule"
	"github.com/derekprior/futto/internal/standings"
)

func testData(t *testing.T) (*config.Config, *schedule.Schedule, []schedule.Slot, []standings.Result) {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(`
team_count: 4
team_names: [Falcons, Wolves, Sharks, Bears]
match_duration: 10m
break_duration: 5m
`))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	sched := schedule.Generate(cfg.Teams(), cfg.RepeatMatches)
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)
	slots := schedule.GenerateSlots(sched, start, cfg.Match(), cfg.Break())

	// Falcons-Wolves, Sharks-Bears, ...
	results := []standings.Result{
		{MatchNumber: 1, Home: "Falcons", Away: "Wolves", HomeScore: 2, AwayScore: 1, PlayedAt: start.Add(10 * time.Minute)},
		{MatchNumber: 2, Home: "Sharks", Away: "Bears", HomeScore: 0, AwayScore: 0, PlayedAt: start.Add(25 * time.Minute)},
	}
	return cfg, sched, slots, results
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, sched, slots, results := testData(t)

	f, err := Generate(cfg, sched, slots, results)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has Schedule sheet", func(t *testing.T) {
		idx, err := f.GetSheetIndex(ScheduleSheet)
		if err != nil {
			t.Fatalf("GetSheetIndex error: %v", err)
		}
		if idx < 0 {
			t.Error("Schedule sheet not found")
		}
	})

	t.Run("schedule sheet headers", func(t *testing.T) {
		val, _ := f.GetCellValue(ScheduleSheet, "A1")
		if val != "Match" {
			t.Errorf("A1 = %q, want Match", val)
		}
		val, _ = f.GetCellValue(ScheduleSheet, "E1")
		if val != "Away" {
			t.Errorf("E1 = %q, want Away", val)
		}
	})

	t.Run("schedule rows", func(t *testing.T) {
		rows, _ := f.GetRows(ScheduleSheet)
		if len(rows) != 7 {
			t.Fatalf("rows = %d, want 7 (header + 6 matches)", len(rows))
		}
		first := rows[1]
		if first[0] != "1" || first[1] != "09:00" || first[2] != "Falcons" || first[3] != "2 - 1" || first[4] != "Wolves" {
			t.Errorf("row 2 = %v", first)
		}
		second := rows[2]
		if second[1] != "09:15" {
			t.Errorf("second kickoff = %q, want 09:15", second[1])
		}
		if rows[3][3] != "vs" {
			t.Errorf("unplayed score = %q, want vs", rows[3][3])
		}
	})

	t.Run("standings sheet", func(t *testing.T) {
		rows, _ := f.GetRows(StandingsSheet)
		if len(rows) != 5 {
			t.Fatalf("rows = %d, want 5", len(rows))
		}
		if rows[1][1] != "Falcons" || rows[1][9] != "3" {
			t.Errorf("leader = %v, want Falcons on 3 points", rows[1])
		}
		if rows[4][1] != "Wolves" {
			t.Errorf("last = %v, want Wolves", rows[4])
		}
	})

	t.Run("has per-team sheets", func(t *testing.T) {
		for _, team := range cfg.Teams() {
			idx, err := f.GetSheetIndex(team)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("sheet for %s not found", team)
			}
		}
	})

	t.Run("team sheet has its matches", func(t *testing.T) {
		rows, _ := f.GetRows("Falcons")
		if len(rows) != 4 {
			t.Fatalf("Falcons rows = %d, want 4 (header + 3 matches)", len(rows))
		}
		if rows[1][2] != "Wolves" || rows[1][3] != "Home" || rows[1][5] != "W" {
			t.Errorf("Falcons first match = %v", rows[1])
		}
		wolves, _ := f.GetRows("Wolves")
		if wolves[1][3] != "Away" || wolves[1][5] != "L" {
			t.Errorf("Wolves first match = %v", wolves[1])
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestReadMatches(t *testing.T) {
	cfg, sched, slots, results := testData(t)
	f, err := Generate(cfg, sched, slots, results)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	matches, err := ReadMatches(f)
	if err != nil {
		t.Fatalf("ReadMatches() error: %v", err)
	}
	if len(matches) != 6 {
		t.Fatalf("matches = %d, want 6", len(matches))
	}
	if matches[0].Result == nil || matches[0].Result.HomeScore != 2 || matches[0].Result.AwayScore != 1 {
		t.Errorf("match 1 result = %+v, want 2 - 1", matches[0].Result)
	}
	if matches[0].Result.PlayedAt.IsZero() {
		t.Error("match 1 played at should be read back")
	}
	if matches[2].Result != nil {
		t.Errorf("match 3 should be unplayed, got %+v", matches[2].Result)
	}

	t.Run("invalid score", func(t *testing.T) {
		f.SetCellValue(ScheduleSheet, "D4", "two-one")
		if _, err := ReadMatches(f); err == nil {
			t.Error("expected error for invalid score")
		}
	})
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		cell       string
		home, away int
		ok, err    bool
	}{
		{"2 - 1", 2, 1, true, false},
		{"0-0", 0, 0, true, false},
		{"vs", 0, 0, false, false},
		{"", 0, 0, false, false},
		{"3", 0, 0, false, true},
		{"a - b", 0, 0, false, true},
	}
	for _, tc := range cases {
		home, away, ok, err := parseScore(tc.cell)
		if (err != nil) != tc.err || ok != tc.ok || home != tc.home || away != tc.away {
			t.Errorf("parseScore(%q) = %d, %d, %v, %v", tc.cell, home, away, ok, err)
		}
	}
}

func TestUpdateStandings(t *testing.T) {
	cfg, sched, slots, _ := testData(t)
	f, err := Generate(cfg, sched, slots, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	// Hand-entered score for match 2 (Sharks v Bears)
	f.SetCellValue(ScheduleSheet, "D3", "1 - 4")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	if err := UpdateStandings(path, cfg); err != nil {
		t.Fatalf("UpdateStandings() error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	rows, _ := f2.GetRows(StandingsSheet)
	if len(rows) < 2 || rows[1][1] != "Bears" || rows[1][9] != "3" {
		t.Errorf("leader = %v, want Bears on 3 points", rows[1])
	}

	bears, _ := f2.GetRows("Bears")
	found := false
	for _, row := range bears[1:] {
		if len(row) >= 6 && row[4] == "1 - 4" && row[5] == "W" {
			found = true
		}
	}
	if !found {
		t.Error("Bears sheet should show the 1 - 4 win")
	}
}

func TestSheetName(t *testing.T) {
	cases := map[string]string{
		"Falcons":                               "Falcons",
		"A/B":                                   "A_B",
		"Schedule":                              "Team Schedule",
		"sheet1":                                "Team sheet1",
		"A very long team name that overflows!": "A very long team name that over",
	}
	for in, want := range cases {
		if got := sheetName(in); got != want {
			t.Errorf("sheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	cfg, sched, slots, results := testData(t)
	f, err := Generate(cfg, sched, slots, results)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	val, _ := f2.GetCellValue(ScheduleSheet, "A1")
	if val != "Match" {
		t.Errorf("re-read A1 = %q, want Match", val)
	}
}

func TestTeamSheetNamesDoNotCollide(t *testing.T) {
	cases := map[string][]string{
		"reserved names":  {"schedule", "STANDINGS", "Sheet1"},
		"sanitized clash": {"A/B", "A?B", "C"},
		"long clash":      {"A very long team name that overflows!", "A very long team name that overflows?"},
	}
	for name, teams := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.LoadFromBytes([]byte("team_count: 3\n"))
			if err != nil {
				t.Fatalf("loading config: %v", err)
			}
			cfg.TeamNames = teams
			cfg.TeamCount = len(teams)

			sched := schedule.Generate(cfg.Teams(), 1)
			slots := schedule.GenerateSlots(sched, time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local), cfg.Match(), cfg.Break())
			f, err := Generate(cfg, sched, slots, nil)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}

			path := filepath.Join(t.TempDir(), "schedule.xlsx")
			if err := f.SaveAs(path); err != nil {
				t.Fatalf("SaveAs error: %v", err)
			}
			if err := UpdateStandings(path, cfg); err != nil {
				t.Fatalf("UpdateStandings() error: %v", err)
			}

			f2, err := excelize.OpenFile(path)
			if err != nil {
				t.Fatalf("OpenFile error: %v", err)
			}
			defer f2.Close()

			if _, err := ReadMatches(f2); err != nil {
				t.Errorf("ReadMatches() error: %v", err)
			}
			sheets := f2.GetSheetList()
			if want := 2 + len(cfg.Teams()); len(sheets) != want {
				t.Errorf("sheets = %v, want %d", sheets, want)
			}
			for _, s := range sheets {
				if len([]rune(s)) > 31 {
					t.Errorf("sheet name %q longer than 31 runes", s)
				}
			}

			names := teamSheetNames(cfg.Teams())
			for _, team := range cfg.Teams() {
				rows, err := f2.GetRows(names[team])
				if err != nil {
					t.Fatalf("GetRows(%q) error: %v", names[team], err)
				}
				if len(rows) != len(cfg.Teams()) {
					t.Errorf("%s sheet %q rows = %d, want header + %d matches", team, names[team], len(rows), len(cfg.Teams())-1)
				}
			}
		})
	}
}
