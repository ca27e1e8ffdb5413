package schedule

import (
	"time"
)

// Slot is the planned time window for one match.
type Slot struct {
	Number  int
	Kickoff time.Time
	End     time.Time
}

// GenerateSlots lays the matches out back to back from start, separated by
// breakDuration. Negative durations are treated as zero.
func GenerateSlots(s *Schedule, start time.Time, matchDuration, breakDuration time.Duration) []Slot {
	if matchDuration < 0 {
		matchDuration = 0
	}
	if breakDuration < 0 {
		breakDuration = 0
	}

	slots := make([]Slot, 0, s.Len())
	kickoff := start
	for _, m := range s.matches {
		slots = append(slots, Slot{
			Number:  m.Number,
			Kickoff: kickoff,
			End:     kickoff.Add(matchDuration),
		})
		kickoff = kickoff.Add(matchDuration + breakDuration)
	}
	return slots
}

// Finish returns when the last match ends, or start if there are no slots.
func Finish(slots []Slot, start time.Time) time.Time {
	if len(slots) == 0 {
		return start
	}
	return slots[len(slots)-1].End
}
