package trainer

import "time"

// Outcome is how an episode ended.
type Outcome int

const (
	OutcomeTruncated Outcome = iota // step cap reached
	OutcomeWon
	OutcomeLost
)

// String returns "won", "lost" or "truncated".
func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "won":
		return OutcomeWon, true
	case "lost":
		return OutcomeLost, true
	case "truncated":
		return OutcomeTruncated, true
	default:
		return 0, false
	}
}

// EpisodeResult describes one finished episode.
type EpisodeResult struct {
	Episode     int // 1-based, in claim order
	Worker      int
	Steps       int
	Reward      float64
	Outcome     Outcome
	Exploration float64 // epsilon at the end of the episode
	Duration    time.Duration
}

// Summary aggregates a run.
type Summary struct {
	Episodes         int
	Wins             int
	Losses           int
	Truncated        int
	TotalReward      float64
	TotalSteps       int
	FinalExploration float64
	Duration         time.Duration
}

func (s *Summary) add(r EpisodeResult) {
	s.Episodes++
	s.TotalReward += r.Reward
	s.TotalSteps += r.Steps
	switch r.Outcome {
	case OutcomeWon:
		s.Wins++
	case OutcomeLost:
		s.Losses++
	default:
		s.Truncated++
	}
}

// WinRate returns Wins/Episodes, or 0 for an empty run.
func (s Summary) WinRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Episodes)
}

// AvgReward returns the mean episode reward, or 0 for an empty run.
func (s Summary) AvgReward() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Episodes)
}

// AvgSteps returns the mean episode length, or 0 for an empty run.
func (s Summary) AvgSteps() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.TotalSteps) / float64(s.Episodes)
}
