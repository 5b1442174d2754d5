package emotion

import (
	"math"
	"testing"
	"time"
)

var today = time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return today.AddDate(0, 0, -n)
}

func TestScoreScenarioClampsToHundred(t *testing.T) {
	t.Parallel()

	cfg := ScoreConfig{
		Mode:              ModeBaseline,
		Baseline:          100,
		WindowDays:        14,
		DecayFloor:        0.1,
		MaxPerEntryChange: 5,
		Weights:           Weights{Happy: 5, Sad: -5},
	}
	if cfg.Decay(0) != 1 || cfg.Decay(7) != 0.5 {
		t.Fatalf("decay(0)=%v decay(7)=%v", cfg.Decay(0), cfg.Decay(7))
	}

	samples := []Sample{
		{Date: daysAgo(7), Label: Sad, Confidence: 0.8},
		{Date: today, Label: Happy, Confidence: 0.9},
	}
	if got := cfg.Score(samples, today); got != 100 {
		t.Fatalf("score=%v", got)
	}

	// same entries from a lower baseline expose the 2.5 adjustment
	cfg.Baseline = 50
	if got := cfg.Score(samples, today); got != 52.5 {
		t.Fatalf("score=%v", got)
	}
}

func TestScoreEmptyWindowReturnsBaseline(t *testing.T) {
	t.Parallel()

	for _, mode := range []ScoreMode{ModeBaseline, ModeMinMax} {
		cfg := CalendarProfile()
		cfg.Mode = mode
		cfg.Baseline = 70
		if got := cfg.Score(nil, today); got != 70 {
			t.Fatalf("%s: score=%v", mode, got)
		}
		old := []Sample{{Date: daysAgo(40), Label: Sad, Confidence: 1}}
		if got := cfg.Score(old, today); got != 70 {
			t.Fatalf("%s: out-of-window score=%v", mode, got)
		}
	}
}

func TestScoreClampsTotalAdjustment(t *testing.T) {
	t.Parallel()

	cfg := CalendarProfile()
	cfg.Baseline = 50
	samples := []Sample{
		{Date: today, Label: Sad, Confidence: 1},
		{Date: daysAgo(1), Label: Sad, Confidence: 1},
	}
	cfg.Weights = Weights{Sad: -100}
	// two entries may move the score at most 2 * 5 points
	if got := cfg.Score(samples, today); got != 40 {
		t.Fatalf("score=%v", got)
	}
}

func TestScoreStaysInRangeForAdversarialInput(t *testing.T) {
	t.Parallel()

	weights := []float64{-1e9, -5, 0, 5, 1e9, math.Inf(1), math.Inf(-1)}
	confs := []float64{-3, 0, 0.5, 1, 7, math.NaN()}
	for _, mode := range []ScoreMode{ModeBaseline, ModeMinMax} {
		for _, w := range weights {
			for _, c := range confs {
				cfg := CalendarProfile()
				cfg.Mode = mode
				cfg.MaxPerEntryChange = math.Inf(1)
				cfg.Weights = Weights{Angry: w, Happy: -w}
				samples := []Sample{
					{Date: today, Label: Angry, Confidence: c},
					{Date: daysAgo(3), Label: Happy, Confidence: c},
					{Date: today.AddDate(0, 0, 2), Label: Angry, Confidence: c},
				}
				got := cfg.Score(samples, today)
				if math.IsNaN(got) || got < 0 || got > 100 {
					t.Fatalf("mode=%s w=%v c=%v score=%v", mode, w, c, got)
				}
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := MyPageProfile()
	samples := []Sample{
		{Date: daysAgo(2), Label: Fear, Confidence: 0.7},
		{Date: daysAgo(20), Label: Happy, Confidence: 0.9},
		{Date: today, Label: Neutral, Confidence: 0.3},
	}
	first := cfg.Score(samples, today)
	reversed := []Sample{samples[2], samples[1], samples[0]}
	if second := cfg.Score(reversed, today); second != first {
		t.Fatalf("first=%v second=%v", first, second)
	}
	if again := cfg.Score(samples, today); again != first {
		t.Fatalf("first=%v again=%v", first, again)
	}
}

func TestDecayFloor(t *testing.T) {
	t.Parallel()

	cfg := CalendarProfile()
	if got := cfg.Decay(14); got != 0.1 {
		t.Fatalf("decay(14)=%v", got)
	}
	if got := cfg.Decay(13); got != 0.1 {
		t.Fatalf("decay(13)=%v", got)
	}
	if got := cfg.Decay(10); math.Abs(got-4.0/14) > 1e-9 {
		t.Fatalf("decay(10)=%v", got)
	}
	if got := cfg.Decay(-2); got != 1 {
		t.Fatalf("decay(-2)=%v", got)
	}
}

func TestMinMaxNormalization(t *testing.T) {
	t.Parallel()

	cfg := ScoreConfig{
		Mode:       ModeMinMax,
		Baseline:   0,
		WindowDays: 14,
		DecayFloor: 0.1,
		Weights:    Weights{Happy: 5, Sad: -5},
	}
	all := func(l Label) []Sample {
		return []Sample{{Date: today, Label: l, Confidence: 1}, {Date: daysAgo(7), Label: l, Confidence: 1}}
	}
	if got := cfg.Score(all(Happy), today); got != 100 {
		t.Fatalf("happy=%v", got)
	}
	if got := cfg.Score(all(Sad), today); got != 0 {
		t.Fatalf("sad=%v", got)
	}
	mixed := []Sample{{Date: today, Label: Happy, Confidence: 1}, {Date: today, Label: Sad, Confidence: 1}}
	if got := cfg.Score(mixed, today); got != 50 {
		t.Fatalf("mixed=%v", got)
	}
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	got := CalendarProfile().WindowStart(time.Date(2024, time.March, 5, 18, 30, 0, 0, time.UTC))
	want := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("WindowStart=%v", got)
	}
}

func TestParseScoreMode(t *testing.T) {
	t.Parallel()

	if m, err := ParseScoreMode(""); err != nil || m != ModeBaseline {
		t.Fatalf("m=%v err=%v", m, err)
	}
	if m, err := ParseScoreMode("minmax"); err != nil || m != ModeMinMax {
		t.Fatalf("m=%v err=%v", m, err)
	}
	if _, err := ParseScoreMode("median"); err == nil {
		t.Fatal("expected error")
	}
}
