package emotion

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type stubClassifier struct {
	out Classification
	err error
	got string
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	s.got = text
	return s.out, s.err
}

type stubCommenter struct {
	out   string
	err   error
	label Label
	text  string
	block bool
}

func (s *stubCommenter) Comment(ctx context.Context, text string, label Label) (string, error) {
	s.text, s.label = text, label
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.out, s.err
}

func dist(a, f, h, t, s float64) Distribution {
	return Distribution{Angry: a, Fear: f, Happy: h, Tender: t, Sad: s}
}

func TestScoreBelowThresholdOverridesLabelOnly(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil, nil, EngineConfig{ConfidenceThreshold: 0.65})
	for _, conf := range []float64{0, 0.1, 0.5, 0.6499} {
		raw := Classification{Label: Sad, Confidence: conf, Distribution: dist(0.1, 0.1, 0.1, 0.1, conf)}
		got, ok := e.Score(raw)
		if !ok {
			t.Fatalf("conf=%v rejected", conf)
		}
		if got.Label != Neutral || got.ImageKey != DefaultImageKey {
			t.Fatalf("conf=%v label=%s image=%s", conf, got.Label, got.ImageKey)
		}
		if got.Confidence != conf {
			t.Fatalf("confidence changed: %v -> %v", conf, got.Confidence)
		}
		if got.Distribution[Sad] != conf || got.Distribution[Angry] != 0.1 {
			t.Fatalf("distribution changed: %v", got.Distribution)
		}
	}
}

func TestScoreAtOrAboveThresholdKeepsPrediction(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil, nil, EngineConfig{ConfidenceThreshold: 0.65})
	for _, l := range RawLabels {
		for _, conf := range []float64{0.65, 0.8, 1} {
			got, ok := e.Score(Classification{Label: l, Confidence: conf, Distribution: Distribution{l: conf}})
			if !ok {
				t.Fatalf("%s@%v rejected", l, conf)
			}
			if got.Label != l || got.ImageKey != l.ImageKey() {
				t.Fatalf("%s@%v -> %s/%s", l, conf, got.Label, got.ImageKey)
			}
		}
	}
}

func TestScoreFillsMissingDistributionKeys(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil, nil, DefaultEngineConfig())
	got, ok := e.Score(Classification{Label: Happy, Confidence: 0.9, Distribution: Distribution{Happy: 0.9, "Bored": 0.1}})
	if !ok {
		t.Fatal("rejected")
	}
	if len(got.Distribution) != len(RawLabels) {
		t.Fatalf("distribution=%v", got.Distribution)
	}
	if _, ok := got.Distribution["Bored"]; ok {
		t.Fatal("unknown label kept")
	}
	if got.Distribution[Fear] != 0 {
		t.Fatalf("Fear=%v", got.Distribution[Fear])
	}
}

func TestScoreRejectsInvalidOutput(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil, nil, DefaultEngineConfig())
	cases := map[string]Classification{
		"neutral raw label": {Label: Neutral, Confidence: 0.9},
		"unknown label":     {Label: "Bored", Confidence: 0.9},
		"empty label":       {},
		"confidence > 1":    {Label: Happy, Confidence: 1.2},
		"nan confidence":    {Label: Happy, Confidence: math.NaN()},
		"negative prob":     {Label: Happy, Confidence: 0.9, Distribution: Distribution{Sad: -0.1}},
	}
	for name, raw := range cases {
		got, ok := e.Score(raw)
		if ok {
			t.Fatalf("%s: accepted", name)
		}
		if got.Label != Neutral || got.Confidence != 0 || got.ImageKey != DefaultImageKey {
			t.Fatalf("%s: fallback=%+v", name, got)
		}
	}
}

func TestAnalyzeUsesFinalLabelForComment(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{out: Classification{Label: Angry, Confidence: 0.4, Distribution: dist(0.4, 0.3, 0.1, 0.1, 0.1)}}
	m := &stubCommenter{out: "That sounds like a heavy day."}
	e := NewEngine(c, m, DefaultEngineConfig())
	e.pick = func(int) int { return 0 }

	got := e.Analyze(context.Background(), "Mina", "I waited two hours for the bus!! @#$")
	if got.Label != Neutral {
		t.Fatalf("label=%s", got.Label)
	}
	if m.label != Neutral {
		t.Fatalf("commenter saw label %s", m.label)
	}
	if strings.ContainsAny(m.text, "@#$") {
		t.Fatalf("commenter input not cleaned: %q", m.text)
	}
	want := "Mina" + IntroTemplates[0] + " That sounds like a heavy day. " + WarmthTemplates[Neutral][0]
	if got.Comment != want {
		t.Fatalf("comment=%q", got.Comment)
	}
	if got.Confidence != 0.4 || got.Distribution[Angry] != 0.4 {
		t.Fatalf("analysis=%+v", got)
	}
}

func TestAnalyzeFallsBackWhenClassifierFails(t *testing.T) {
	t.Parallel()

	m := &stubCommenter{out: "unused"}
	e := NewEngine(&stubClassifier{err: errors.New("connection refused")}, m, DefaultEngineConfig())

	got := e.Analyze(context.Background(), "Mina", "a quiet day")
	want := Fallback()
	if got.Label != want.Label || got.Confidence != 0 || got.ImageKey != want.ImageKey || got.Comment != FallbackComment("Mina") {
		t.Fatalf("got=%+v", got)
	}
	for _, l := range RawLabels {
		if v, ok := got.Distribution[l]; !ok || v != 0 {
			t.Fatalf("distribution=%v", got.Distribution)
		}
	}
	if m.text != "" {
		t.Fatal("commenter called after classifier failure")
	}
}

func TestAnalyzeEmptyTextSkipsClassifier(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{out: Classification{Label: Happy, Confidence: 1}}
	got := NewEngine(c, nil, DefaultEngineConfig()).Analyze(context.Background(), "Mina", "   ")
	if got.Label != Neutral || c.got != "" {
		t.Fatalf("got=%+v classifier saw %q", got, c.got)
	}
}

func TestAnalyzeCommentFailureKeepsClassification(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{out: Classification{Label: Happy, Confidence: 0.95, Distribution: dist(0, 0, 0.95, 0.05, 0)}}
	m := &stubCommenter{block: true}
	e := NewEngine(c, m, EngineConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	got := e.Analyze(context.Background(), "Mina", "picnic in the park")
	if time.Since(start) > time.Second {
		t.Fatal("comment timeout not applied")
	}
	if got.Label != Happy || got.ImageKey != "happy.png" {
		t.Fatalf("got=%+v", got)
	}
	if got.Comment != FallbackComment("Mina") || !strings.Contains(got.Comment, "Mina") {
		t.Fatalf("comment=%q", got.Comment)
	}
}

func TestAnalyzeTruncatesLongComments(t *testing.T) {
	t.Parallel()

	c := &stubClassifier{out: Classification{Label: Tender, Confidence: 0.9, Distribution: dist(0, 0, 0, 0.9, 0.1)}}
	m := &stubCommenter{out: strings.Repeat("가", 80)}
	got := NewEngine(c, m, EngineConfig{MaxCommentRunes: 50}).Analyze(context.Background(), "Mina", "text")
	if !strings.Contains(got.Comment, " "+strings.Repeat("가", 50)+"... ") || strings.Contains(got.Comment, strings.Repeat("가", 51)) {
		t.Fatalf("comment=%q", got.Comment)
	}
}

type sleepyClassifier struct {
	delay time.Duration
	out   Classification
}

func (s sleepyClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	time.Sleep(s.delay)
	return s.out, nil
}

func TestAnalyzeDoesNotWaitForSlowClassifier(t *testing.T) {
	t.Parallel()

	c := sleepyClassifier{delay: 500 * time.Millisecond, out: Classification{Label: Happy, Confidence: 0.9, Distribution: dist(0, 0, 0.9, 0.1, 0)}}
	m := &stubCommenter{out: "unused"}
	e := NewEngine(c, m, EngineConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	got := e.Analyze(context.Background(), "Mina", "a long walk")
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("waited %s for a classifier past its deadline", elapsed)
	}
	if got.Label != Neutral || got.Confidence != 0 || got.Comment != FallbackComment("Mina") {
		t.Fatalf("late result stored: %+v", got)
	}
	if m.text != "" {
		t.Fatal("commenter called after classifier timeout")
	}
}

func TestAnalyzeComposesNamedCommentForLabel(t *testing.T) {
	t.Parallel()

	for _, l := range RawLabels {
		c := &stubClassifier{out: Classification{Label: l, Confidence: 0.95, Distribution: Distribution{l: 0.95}}}
		e := NewEngine(c, &stubCommenter{out: "What a day."}, DefaultEngineConfig())

		got := e.Analyze(context.Background(), "Mina", "today")
		if !strings.HasPrefix(got.Comment, "Mina, ") || !strings.Contains(got.Comment, " What a day. ") {
			t.Fatalf("%s: comment=%q", l, got.Comment)
		}
		found := false
		for _, w := range WarmthTemplates[l] {
			if strings.HasSuffix(got.Comment, w) {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: no %s closing phrase in %q", l, l, got.Comment)
		}
	}
}

func TestComposeCommentUnknownLabelUsesNeutralWarmth(t *testing.T) {
	t.Parallel()

	got := composeComment("", "Okay.", "Bored", func(int) int { return 1 })
	want := "you" + IntroTemplates[1] + " Okay. " + WarmthTemplates[Neutral][1]
	if got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestNewEngineZeroThresholdTakesDefault(t *testing.T) {
	t.Parallel()

	e := NewEngine(nil, nil, EngineConfig{})
	got, ok := e.Score(Classification{Label: Sad, Confidence: 0.6, Distribution: Distribution{Sad: 0.6}})
	if !ok || got.Label != Neutral {
		t.Fatalf("zero threshold: got=%+v ok=%v", got, ok)
	}
	got, _ = NewEngine(nil, nil, EngineConfig{ConfidenceThreshold: 0.01}).Score(Classification{Label: Sad, Confidence: 0.6, Distribution: Distribution{Sad: 0.6}})
	if got.Label != Sad {
		t.Fatalf("low threshold: label=%s", got.Label)
	}
}
