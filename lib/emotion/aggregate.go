package emotion

import (
	"fmt"
	"math"
	"time"
)

// ScoreMode selects how the weighted sum becomes a 0-100 score.
type ScoreMode string

const (
	// ModeBaseline adds the clamped weighted sum to a fixed baseline.
	ModeBaseline ScoreMode = "baseline"
	// ModeMinMax rescales the weighted sum between its lowest and highest
	// possible values for the same entries.
	ModeMinMax ScoreMode = "minmax"
)

func ParseScoreMode(s string) (ScoreMode, error) {
	switch ScoreMode(s) {
	case ModeBaseline, "":
		return ModeBaseline, nil
	case ModeMinMax:
		return ModeMinMax, nil
	}
	return "", fmt.Errorf("unknown score mode %q", s)
}

type Weights map[Label]float64

type ScoreConfig struct {
	Mode              ScoreMode
	Baseline          float64
	WindowDays        int
	DecayFloor        float64
	MaxPerEntryChange float64
	Weights           Weights
}

// CalendarProfile scores the trailing two weeks shown on the calendar page.
func CalendarProfile() ScoreConfig {
	return ScoreConfig{
		Mode:              ModeBaseline,
		Baseline:          100,
		WindowDays:        14,
		DecayFloor:        0.1,
		MaxPerEntryChange: 5,
		Weights: Weights{
			Angry:   -3,
			Fear:    -4,
			Sad:     -5,
			Happy:   5,
			Tender:  3,
			Neutral: 1,
		},
	}
}

// MyPageProfile scores the trailing thirty days shown on the profile page.
func MyPageProfile() ScoreConfig {
	return ScoreConfig{
		Mode:              ModeBaseline,
		Baseline:          100,
		WindowDays:        30,
		DecayFloor:        0.1,
		MaxPerEntryChange: 5,
		Weights: Weights{
			Angry:   -4,
			Fear:    -2,
			Sad:     -3,
			Happy:   4,
			Tender:  2,
			Neutral: 1,
		},
	}
}

// Sample is the part of a diary entry the aggregator reads.
type Sample struct {
	Date       time.Time
	Label      Label
	Confidence float64
}

// WindowStart is the oldest calendar day that still counts towards the score.
func (c ScoreConfig) WindowStart(today time.Time) time.Time {
	y, m, d := today.Date()
	return time.Date(y, m, d-c.WindowDays, 0, 0, 0, 0, time.UTC)
}

// Decay is the weight multiplier for an entry written daysAgo days before today.
func (c ScoreConfig) Decay(daysAgo int) float64 {
	if c.WindowDays <= 0 {
		return 1
	}
	f := float64(c.WindowDays-daysAgo) / float64(c.WindowDays)
	return math.Min(1, math.Max(c.DecayFloor, f))
}

// Score reduces samples to one value in [0,100]. Samples outside the window
// are ignored and an empty window scores the baseline.
func (c ScoreConfig) Score(samples []Sample, today time.Time) float64 {
	var (
		count    int
		total    float64
		decaySum float64
	)
	for _, s := range samples {
		daysAgo := daysBetween(s.Date, today)
		if daysAgo > c.WindowDays {
			continue
		}
		count++
		w, ok := c.Weights[s.Label]
		if !ok {
			continue
		}
		decay := c.Decay(daysAgo)
		total += w * clamp(s.Confidence, 0, 1) * decay
		decaySum += decay
	}

	if count == 0 {
		return round(clamp(c.Baseline, 0, 100), 1)
	}

	if c.Mode == ModeMinMax {
		return c.minMax(total, decaySum)
	}

	limit := float64(count) * c.MaxPerEntryChange
	adjustment := clamp(total, -limit, limit)
	return round(clamp(c.Baseline+adjustment, 0, 100), 1)
}

func (c ScoreConfig) minMax(total, decaySum float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, w := range c.Weights {
		lo = math.Min(lo, w)
		hi = math.Max(hi, w)
	}
	// a confidence of 0 contributes nothing, so 0 is always reachable
	lo = math.Min(lo, 0) * decaySum
	hi = math.Max(hi, 0) * decaySum
	if hi-lo == 0 {
		return 50
	}
	return round(clamp((total-lo)/(hi-lo), 0, 1)*100, 1)
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
