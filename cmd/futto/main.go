package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/derekprior/futto/internal/config"
	"github.com/derekprior/futto/internal/excel"
	"github.com/derekprior/futto/internal/schedule"
	"github.com/derekprior/futto/internal/standings"
	"github.com/derekprior/futto/internal/store"
	"github.com/derekprior/futto/internal/validator"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "futto",
		Short: "Futsal round-robin tournament manager",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var outputFile, startAt string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate the match order from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			start, err := parseKickoff(startAt, time.Now())
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), t, start, outputFile)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&startAt, "start", "", "First kickoff as HH:MM (default: now)")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule workbook against the config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}
	scheduleCmd.AddCommand(generateCmd, validateCmd)

	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the live match clock",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), t, func(st *store.Store) error {
				return runLive(cmd.Context(), t, st, os.Stdin)
			})
		},
	}

	recordCmd := &cobra.Command{
		Use:          "record <match> <home-score> <away-score>",
		Short:        "Record or correct the score of a match",
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), t, func(st *store.Store) error {
				return runRecord(cmd.Context(), t, st, args)
			})
		},
	}

	resultsCmd := &cobra.Command{
		Use:          "results",
		Short:        "List recorded results",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), t, func(st *store.Store) error {
				results, err := st.Results(cmd.Context())
				if err != nil {
					return err
				}
				printResults(t.sched, results)
				return nil
			})
		},
	}

	standingsCmd := &cobra.Command{
		Use:          "standings",
		Short:        "Show the league table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), t, func(st *store.Store) error {
				results, err := st.Results(cmd.Context())
				if err != nil {
					return err
				}
				printStandings(standings.Compute(t.cfg.Teams(), results))
				return nil
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:          "reset",
		Short:        "End the tournament and delete all recorded results",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := loadTournament(configFile)
			if err != nil {
				return err
			}
			st, err := store.Open(t.cfg.Storage.Path, t.log)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("resetting: %w", err)
			}
			fmt.Printf("✓ Results cleared from %s\n", t.cfg.Storage.Path)
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, scheduleCmd, runCmd, recordCmd, resultsCmd, standingsCmd, resetCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// tournament bundles what every command derives from the config file.
type tournament struct {
	cfg   *config.Config
	sched *schedule.Schedule
	log   zerolog.Logger
}

func loadTournament(configFlag string) (*tournament, error) {
	configPath, err := resolveConfigPath(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	sched, err := schedule.Build(cfg.Teams(), cfg.RepeatMatches, cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &tournament{cfg: cfg, sched: sched, log: newLogger(cfg.LogLevel())}, nil
}

func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// withStore opens the results store, binds it to the tournament and runs fn.
func withStore(ctx context.Context, t *tournament, fn func(*store.Store) error) error {
	st, err := store.Open(t.cfg.Storage.Path, t.log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Bind(ctx, t.sched.Key()); err != nil {
		return fmt.Errorf("%s: %w", t.cfg.Storage.Path, err)
	}
	return fn(st)
}

// parseKickoff resolves an HH:MM flag to a time on the same day as now.
// An empty value means now, truncated to the minute.
func parseKickoff(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now.Truncate(time.Minute), nil
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start %q, expected HH:MM", value)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Futsal Tournament Configuration
# ===============================
# Every team plays every other team repeat_matches times.

name: "Sunday Futsal Cup"

# Between 2 and 6 teams. Only the first team_count names are used; missing
# or blank names become "Team 1", "Team 2", ...
team_count: 4
team_names: [Falcons, Wolves, Sharks, Bears]

# Durations use Go syntax: 90s, 10m, 1h.
match_duration: 10m
break_duration: 5m

# How many times each pair of teams meets (1 to 3). Home and away swap on
# every repeat.
repeat_matches: 1

# "avoid_back_to_back" reorders matches so teams rest between games.
# "round_order" keeps the plain round-robin order.
strategy: avoid_back_to_back

# Results are kept here until "futto reset".
storage:
  path: futto.db

# debug, info, warn or error
log:
  level: info
`

func runGenerate(ctx context.Context, t *tournament, start time.Time, outputPath string) error {
	slots := schedule.GenerateSlots(t.sched, start, t.cfg.Match(), t.cfg.Break())

	fmt.Printf("Scheduling %d matches for %d teams...\n", t.sched.Len(), len(t.sched.Teams()))
	fmt.Printf("\n  %5s %6s  %s\n", "Match", "Time", "Fixture")
	for i, m := range t.sched.Matches() {
		fmt.Printf("  %5d %6s  %s vs %s\n", m.Number, slots[i].Kickoff.Format("15:04"), m.Home, m.Away)
	}
	fmt.Printf("\nLast match ends at %s\n", schedule.Finish(slots, start).Format("15:04"))

	warnings, metrics := t.sched.Metrics()
	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-15s %7s %4s %4s %12s\n", "Team", "Matches", "Home", "Away", "Back-to-back")
	for _, team := range t.sched.Teams() {
		m := metrics[team]
		fmt.Printf("  %-15s %7d %4d %4d %12d\n", team, m.Matches, m.Home, m.Away, m.BackToBack)
	}

	if len(warnings) > 0 {
		fmt.Printf("\nBack-to-back matches (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No back-to-back matches")
	}

	results, err := storedResults(ctx, t)
	if err != nil {
		return err
	}

	f, err := excel.Generate(t.cfg, t.sched, slots, results)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	return nil
}

// storedResults returns results recorded for this tournament. A missing
// store or one belonging to another tournament yields none.
func storedResults(ctx context.Context, t *tournament) ([]standings.Result, error) {
	if _, err := os.Stat(t.cfg.Storage.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var results []standings.Result
	err := withStore(ctx, t, func(st *store.Store) error {
		var err error
		results, err = st.Results(ctx)
		return err
	})
	if errors.Is(err, store.ErrTournamentMismatch) {
		t.log.Warn().Err(err).Msg("skipping stored results")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading stored results: %w", err)
	}
	return results, nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	rules := 0
	guidelines := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			rules++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			guidelines++
			fmt.Printf("⚠ Guideline violation: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", rules, guidelines)

	// Rebuild standings and team sheets from the scores on the Schedule sheet
	if err := excel.UpdateStandings(schedulePath, cfg); err != nil {
		return fmt.Errorf("updating standings: %w", err)
	}
	fmt.Printf("✓ Standings updated in %s\n", schedulePath)

	if rules > 0 {
		return fmt.Errorf("%d rule violations found", rules)
	}
	return nil
}

func runRecord(ctx context.Context, t *tournament, st *store.Store, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid match number %q", args[0])
	}
	m, ok := t.sched.Match(number)
	if !ok {
		return fmt.Errorf("match %d does not exist (1-%d)", number, t.sched.Len())
	}

	home, err := parseGoals(args[1])
	if err != nil {
		return err
	}
	away, err := parseGoals(args[2])
	if err != nil {
		return err
	}

	r := standings.Result{
		MatchNumber: m.Number,
		Home:        m.Home,
		Away:        m.Away,
		HomeScore:   home,
		AwayScore:   away,
		PlayedAt:    time.Now(),
	}
	if err := st.SaveResult(ctx, r); err != nil {
		return err
	}
	fmt.Printf("✓ Match %d: %s %s %s\n", r.MatchNumber, r.Home, r.Score(), r.Away)
	return nil
}

func parseGoals(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid score %q: must be a whole number of goals", s)
	}
	return n, nil
}

func printResults(sched *schedule.Schedule, results []standings.Result) {
	if len(results) == 0 {
		fmt.Println("No results recorded yet")
		return
	}
	fmt.Printf("  %5s  %-15s %7s  %-15s %s\n", "Match", "Home", "Score", "Away", "Played")
	for _, r := range results {
		fmt.Printf("  %5d  %-15s %7s  %-15s %s\n", r.MatchNumber, r.Home, r.Score(), r.Away, r.PlayedAt.Format("15:04"))
	}
	fmt.Printf("\n%d of %d matches played\n", len(results), sched.Len())
}

func printStandings(rows []standings.Row) {
	fmt.Printf("  %3s  %-15s %2s %2s %2s %2s %3s %3s %4s %3s\n",
		"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for i, r := range rows {
		fmt.Printf("  %3d  %-15s %2d %2d %2d %2d %3d %3d %+4d %3d\n",
			i+1, r.Team, r.Played, r.Won, r.Drawn, r.Lost, r.GoalsFor, r.GoalsAgainst, r.GoalDifference(), r.Points)
	}
}
