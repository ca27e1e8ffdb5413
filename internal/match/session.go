package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/derekprior/futto/internal/schedule"
	"github.com/derekprior/futto/internal/standings"
)

// Phase is the state of the tournament clock.
type Phase int

const (
	PhaseMatch Phase = iota
	PhaseBreak
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseMatch:
		return "match"
	case PhaseBreak:
		return "break"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Side selects a team within the current match.
type Side int

const (
	Home Side = iota
	Away
)

// Recorder persists finished matches.
type Recorder interface {
	SaveResult(ctx context.Context, r standings.Result) error
}

// Options configures a Session.
type Options struct {
	MatchDuration time.Duration
	BreakDuration time.Duration

	// StartAt is the number of the first match to play. Zero means 1.
	StartAt int

	Recorder Recorder
	// Whistle is called on kickoff, full time and at the end of each break.
	Whistle func()
	Now     func() time.Time
	Logger  zerolog.Logger
}

// State is a snapshot of the session.
type State struct {
	Phase     Phase
	Running   bool
	Remaining time.Duration
	Current   schedule.Match
	HomeScore int
	AwayScore int
	Total     int
}

// Session runs the match/break clock over a precomputed schedule.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	sched    *schedule.Schedule
	matchDur time.Duration
	breakDur time.Duration
	recorder Recorder
	whistle  func()
	now      func() time.Time
	log      zerolog.Logger

	phase     Phase
	running   bool
	remaining time.Duration
	current   schedule.Match
	homeScore int
	awayScore int
	results   []standings.Result
}

// NewSession returns a paused session positioned at opts.StartAt.
func NewSession(sched *schedule.Schedule, opts Options) *Session {
	s := &Session{
		sched:    sched,
		matchDur: opts.MatchDuration,
		breakDur: opts.BreakDuration,
		recorder: opts.Recorder,
		whistle:  opts.Whistle,
		now:      opts.Now,
		log:      opts.Logger.With().Str("component", "match").Logger(),
	}
	if s.breakDur < 0 {
		s.breakDur = 0
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.whistle == nil {
		s.whistle = func() {}
	}

	start := opts.StartAt
	if start < 1 {
		start = 1
	}
	if m, ok := sched.Match(start); ok {
		s.phase = PhaseMatch
		s.current = m
		s.remaining = s.matchDur
	} else {
		s.phase = PhaseFinished
	}
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Phase:     s.phase,
		Running:   s.running,
		Remaining: s.remaining,
		Current:   s.current,
		HomeScore: s.homeScore,
		AwayScore: s.awayScore,
		Total:     s.sched.Len(),
	}
}

// NextMatch returns the match after the current one.
func (s *Session) NextMatch() (schedule.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFinished {
		return schedule.Match{}, false
	}
	return s.sched.Next(s.current.Number)
}

// Results returns the matches finished during this session.
func (s *Session) Results() []standings.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]standings.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Toggle starts or pauses the clock and reports whether it is now running.
// A finished session never starts.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseFinished {
		return false
	}
	s.running = !s.running
	if s.running {
		s.whistle()
	}
	s.log.Debug().Bool("running", s.running).Stringer("phase", s.phase).Msg("clock toggled")
	return s.running
}

// AdjustScore adds delta to one side's score. Scores only change while a
// match is in progress and never go below zero.
func (s *Session) AdjustScore(side Side, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseMatch {
		return
	}
	score := &s.homeScore
	if side == Away {
		score = &s.awayScore
	}
	*score = max(0, *score+delta)
}

// Tick advances the clock by elapsed while it is running. When a phase runs
// out the session moves on: full time records the result and starts the
// break, the end of a break kicks off the next match. A recorder failure is
// returned after the clock has advanced.
func (s *Session) Tick(ctx context.Context, elapsed time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.phase == PhaseFinished {
		return nil
	}

	s.remaining -= elapsed
	var errs []error
	for s.remaining <= 0 && s.phase != PhaseFinished {
		if err := s.advance(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.remaining < 0 {
		s.remaining = 0
	}
	if len(errs) > 0 {
		return fmt.Errorf("recording results: %w", errs[0])
	}
	return nil
}

func (s *Session) advance(ctx context.Context) error {
	switch s.phase {
	case PhaseMatch:
		r := standings.Result{
			MatchNumber: s.current.Number,
			Home:        s.current.Home,
			Away:        s.current.Away,
			HomeScore:   s.homeScore,
			AwayScore:   s.awayScore,
			PlayedAt:    s.now(),
		}
		s.results = append(s.results, r)
		s.whistle()
		s.log.Info().
			Int("match", r.MatchNumber).
			Str("home", r.Home).
			Str("away", r.Away).
			Str("score", r.Score()).
			Msg("full time")

		var err error
		if s.recorder != nil {
			if err = s.recorder.SaveResult(ctx, r); err != nil {
				s.log.Error().Err(err).Int("match", r.MatchNumber).Msg("saving result failed")
			}
		}

		if _, ok := s.sched.Next(s.current.Number); !ok {
			s.phase = PhaseFinished
			s.running = false
			s.remaining = 0
			s.log.Info().Int("matches", s.sched.Len()).Msg("tournament finished")
			return err
		}
		s.phase = PhaseBreak
		s.remaining += s.breakDur
		return err

	case PhaseBreak:
		next, _ := s.sched.Next(s.current.Number)
		s.current = next
		s.homeScore = 0
		s.awayScore = 0
		s.phase = PhaseMatch
		s.remaining += s.matchDur
		s.whistle()
		s.log.Info().
			Int("match", next.Number).
			Str("home", next.Home).
			Str("away", next.Away).
			Msg("kickoff")
	}
	return nil
}

// Run ticks the clock once per second of ticks until the tournament finishes
// or ctx is done.
func (s *Session) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		if s.State().Phase == PhaseFinished {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			// Recorder failures are logged where they happen.
			_ = s.Tick(ctx, time.Second)
		}
	}
}

// FormatClock renders d as minutes and seconds, e.g. "9:05".
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
