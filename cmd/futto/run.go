package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/derekprior/futto/internal/match"
	"github.com/derekprior/futto/internal/standings"
	"github.com/derekprior/futto/internal/store"
)

const liveHelp = `Commands: s start/pause, h+ h- home goal, a+ a- away goal, q quit`

func runLive(ctx context.Context, t *tournament, st *store.Store, in io.Reader) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recorded, err := st.Results(ctx)
	if err != nil {
		return err
	}
	startAt := 1
	if n := len(recorded); n > 0 {
		startAt = recorded[n-1].MatchNumber + 1
	}
	if _, ok := t.sched.Match(startAt); !ok {
		fmt.Printf("✓ All %d matches played\n\n", t.sched.Len())
		printStandings(standings.Compute(t.cfg.Teams(), recorded))
		return nil
	}

	sess := match.NewSession(t.sched, match.Options{
		MatchDuration: t.cfg.Match(),
		BreakDuration: t.cfg.Break(),
		StartAt:       startAt,
		Recorder:      st,
		Whistle:       func() { fmt.Print("\a") },
		Logger:        t.log,
	})
	if startAt > 1 {
		t.log.Info().Int("match", startAt).Msg("resuming after recorded results")
	}

	fmt.Println(liveHelp)
	go readCommands(in, sess, cancel)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx, ticker.C) }()

	refresh := time.NewTicker(200 * time.Millisecond)
	defer refresh.Stop()

	var last match.State
	shown := false
	for {
		select {
		case err := <-done:
			fmt.Println()
			if err != nil && ctx.Err() == nil {
				return err
			}
			all, err := st.Results(context.Background())
			if err != nil {
				return err
			}
			fmt.Println()
			printStandings(standings.Compute(t.cfg.Teams(), all))
			return nil
		case <-refresh.C:
			state := sess.State()
			if shown && state == last {
				continue
			}
			if shown && state.Current.Number != last.Current.Number {
				fmt.Println()
			}
			fmt.Printf("\r%s", statusLine(state, sess))
			last, shown = state, true
		}
	}
}

func statusLine(s match.State, sess *match.Session) string {
	clock := "paused"
	if s.Running {
		clock = "running"
	}
	switch s.Phase {
	case match.PhaseMatch:
		return fmt.Sprintf("Match %d/%d  %s %d - %d %s  %s (%s)   ",
			s.Current.Number, s.Total, s.Current.Home, s.HomeScore, s.AwayScore, s.Current.Away,
			match.FormatClock(s.Remaining), clock)
	case match.PhaseBreak:
		line := fmt.Sprintf("Break  %s (%s)", match.FormatClock(s.Remaining), clock)
		if next, ok := sess.NextMatch(); ok {
			line += fmt.Sprintf("  next: %s vs %s", next.Home, next.Away)
		}
		return line + "   "
	default:
		return "Tournament finished"
	}
}

// readCommands applies operator input to the session until quit or EOF.
func readCommands(in io.Reader, sess *match.Session, quit context.CancelFunc) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !applyCommand(sess, scanner.Text()) {
			quit()
			return
		}
	}
}

// applyCommand runs one operator command and reports whether the session
// should continue.
func applyCommand(sess *match.Session, line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s":
		sess.Toggle()
	case "h+":
		sess.AdjustScore(match.Home, 1)
	case "h-":
		sess.AdjustScore(match.Home, -1)
	case "a+":
		sess.AdjustScore(match.Away, 1)
	case "a-":
		sess.AdjustScore(match.Away, -1)
	case "q", "quit":
		return false
	case "":
	default:
		fmt.Printf("\n%s\n", liveHelp)
	}
	return true
}
