package validator

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derekprior/futto/internal/config"
	"github.com/derekprior/futto/internal/excel"
	"github.com/derekprior/futto/internal/schedule"
)

func fullTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(`
team_count: 5
team_names: [Falcons, Wolves, Sharks, Bears, Lions]
repeat_matches: 2
`))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	return cfg
}

func TestValidateGeneratedSchedule(t *testing.T) {
	cfg := fullTestConfig(t)
	sched := schedule.Generate(cfg.Teams(), cfg.RepeatMatches)
	slots := schedule.GenerateSlots(sched, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), cfg.Match(), cfg.Break())

	f, err := excel.Generate(cfg, sched, slots, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	t.Run("no hard rule violations", func(t *testing.T) {
		for _, v := range violations {
			if v.Type == "error" {
				t.Errorf("hard violation: %s", v.Message)
			}
		}
	})

	t.Run("back-to-back warnings agree with schedule metrics", func(t *testing.T) {
		want, _ := sched.Metrics()
		got := 0
		for _, v := range violations {
			if v.Type == "warning" && strings.Contains(v.Message, "back-to-back") {
				got++
			}
		}
		if got != len(want) {
			t.Errorf("back-to-back warnings = %d, want %d", got, len(want))
		}
	})

	t.Run("home/away balanced", func(t *testing.T) {
		for _, v := range violations {
			if strings.Contains(v.Message, "imbalance") {
				t.Errorf("unexpected warning: %s", v.Message)
			}
		}
	})
}

func matchesFor(pairs ...string) []excel.SheetMatch {
	var ms []excel.SheetMatch
	for i, p := range pairs {
		home, away, _ := strings.Cut(p, "-")
		ms = append(ms, excel.SheetMatch{Row: i + 2, Number: i + 1, Home: home, Away: away})
	}
	return ms
}

func smallConfig(t *testing.T, repeat int) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte("team_count: 3\nteam_names: [A, B, C]\n"))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.RepeatMatches = repeat
	return cfg
}

func countType(vs []Violation, typ, substr string) int {
	n := 0
	for _, v := range vs {
		if v.Type == typ && strings.Contains(v.Message, substr) {
			n++
		}
	}
	return n
}

func TestCheck(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		vs := Check(smallConfig(t, 1), matchesFor("A-B", "A-C", "B-C"))
		if n := countType(vs, "error", ""); n != 0 {
			t.Errorf("errors = %d, want 0: %v", n, vs)
		}
		if n := countType(vs, "warning", "back-to-back"); n != 2 {
			t.Errorf("back-to-back warnings = %d, want 2", n)
		}
	})

	t.Run("self match", func(t *testing.T) {
		vs := Check(smallConfig(t, 1), matchesFor("A-B", "A-C", "B-C", "C-C"))
		if countType(vs, "error", "cannot play itself") != 1 {
			t.Errorf("expected self-match error: %v", vs)
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		vs := Check(smallConfig(t, 1), matchesFor("A-B", "A-Z", "B-C"))
		if countType(vs, "error", `unknown team "Z"`) != 1 {
			t.Errorf("expected unknown team error: %v", vs)
		}
		if countType(vs, "error", "A vs C scheduled 0 times") != 1 {
			t.Errorf("expected missing pair error: %v", vs)
		}
	})

	t.Run("duplicate pair", func(t *testing.T) {
		vs := Check(smallConfig(t, 1), matchesFor("A-B", "B-A", "A-C", "B-C"))
		if countType(vs, "error", "A vs B scheduled 2 times (want 1)") != 1 {
			t.Errorf("expected duplicate pair error: %v", vs)
		}
	})

	t.Run("numbering", func(t *testing.T) {
		ms := matchesFor("A-B", "A-C", "B-C")
		ms[2].Number = 5
		vs := Check(smallConfig(t, 1), ms)
		if countType(vs, "error", "out of sequence") != 1 {
			t.Errorf("expected numbering error: %v", vs)
		}
	})

	t.Run("home/away imbalance", func(t *testing.T) {
		vs := Check(smallConfig(t, 2), matchesFor("A-B", "A-B", "A-C", "C-A", "B-C", "C-B"))
		if countType(vs, "warning", "A vs B home/away imbalance") != 1 {
			t.Errorf("expected imbalance warning: %v", vs)
		}
		if countType(vs, "error", "") != 0 {
			t.Errorf("imbalance should not be an error: %v", vs)
		}
	})
}
