package emotion

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfidenceThreshold = 0.65
	DefaultTimeout             = 15 * time.Second
	DefaultMaxCommentRunes     = 50
	DefaultMaxInputRunes       = 100
)

// Classification is what a classifier predicts for one text.
type Classification struct {
	Label        Label
	Confidence   float64
	Distribution Distribution
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

type Commenter interface {
	Comment(ctx context.Context, text string, label Label) (string, error)
}

// Analysis is the normalized record stored on a diary entry.
type Analysis struct {
	Label        Label        `json:"emotion_label"`
	Confidence   float64      `json:"emotion_score"`
	Distribution Distribution `json:"overall_emotion_score"`
	ImageKey     string       `json:"emotion_emoji"`
	Comment      string       `json:"ai_comment"`
}

// Fallback is the analysis stored when classification is unavailable.
func Fallback() Analysis {
	return Analysis{
		Label:        Neutral,
		Confidence:   0,
		Distribution: ZeroDistribution(),
		ImageKey:     DefaultImageKey,
		Comment:      FallbackComment(""),
	}
}

// EngineConfig fields left at zero or below take the Default values. A
// ConfidenceThreshold of zero therefore means 0.65, not "never override";
// use a small positive threshold to keep nearly every prediction.
type EngineConfig struct {
	ConfidenceThreshold float64
	Timeout             time.Duration
	MaxCommentRunes     int
	MaxInputRunes       int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Timeout:             DefaultTimeout,
		MaxCommentRunes:     DefaultMaxCommentRunes,
		MaxInputRunes:       DefaultMaxInputRunes,
	}
}

type Engine struct {
	classifier Classifier
	commenter  Commenter
	cfg        EngineConfig
	pick       func(n int) int
}

func NewEngine(classifier Classifier, commenter Commenter, cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxCommentRunes <= 0 {
		cfg.MaxCommentRunes = def.MaxCommentRunes
	}
	if cfg.MaxInputRunes <= 0 {
		cfg.MaxInputRunes = def.MaxInputRunes
	}
	return &Engine{classifier: classifier, commenter: commenter, cfg: cfg, pick: randomIndex}
}

// Score applies the confidence override to a raw classification. Below the
// threshold the label and image become Neutral/default while confidence and
// distribution are kept for aggregation. It reports false for output that
// cannot be stored.
func (e *Engine) Score(raw Classification) (Analysis, bool) {
	if !raw.Label.IsRaw() || math.IsNaN(raw.Confidence) || raw.Confidence < 0 || raw.Confidence > 1 {
		return Fallback(), false
	}
	dist, ok := raw.Distribution.Complete()
	if !ok {
		return Fallback(), false
	}

	a := Analysis{
		Label:        raw.Label,
		Confidence:   raw.Confidence,
		Distribution: dist,
		ImageKey:     raw.Label.ImageKey(),
	}
	if raw.Confidence < e.cfg.ConfidenceThreshold {
		a.Label = Neutral
		a.ImageKey = DefaultImageKey
	}
	return a, true
}

// Analyze classifies text and writes a comment addressed to name. It never
// fails: collaborator errors fall back to Fallback values.
func (e *Engine) Analyze(ctx context.Context, name, text string) Analysis {
	log := logrus.WithField("chars", len([]rune(text)))

	raw, err := e.classify(ctx, text)
	if err != nil {
		log.Warn(err)
		return fallbackFor(name)
	}
	a, ok := e.Score(raw)
	if !ok {
		log.Warnf("discarding invalid classification %+v", raw)
		return fallbackFor(name)
	}

	generated, err := e.comment(ctx, text, a.Label)
	if err != nil {
		log.Warn(err)
		a.Comment = FallbackComment(name)
		return a
	}
	a.Comment = composeComment(name, generated, a.Label, e.pick)
	return a
}

func fallbackFor(name string) Analysis {
	a := Fallback()
	a.Comment = FallbackComment(name)
	return a
}

// withDeadline returns ctx.Err() once ctx expires, whether or not call has
// returned. A result that lands after the deadline is discarded.
func withDeadline[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call(ctx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return r.v, r.err
	}
}

func (e *Engine) classify(ctx context.Context, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, apperr.Unavailable("classifier", apperr.Validation("empty text"))
	}
	if e.classifier == nil {
		return Classification{}, apperr.Unavailable("classifier", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := withDeadline(ctx, func(ctx context.Context) (Classification, error) {
		return e.classifier.Classify(ctx, text)
	})
	if err != nil {
		if apperr.Is(err, apperr.KindUnavailable) {
			return Classification{}, err
		}
		return Classification{}, apperr.Unavailable("classifier", err)
	}
	return raw, nil
}

var commentNoise = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?]`)

func (e *Engine) comment(ctx context.Context, text string, label Label) (string, error) {
	if e.commenter == nil {
		return "", apperr.Unavailable("comment generator", nil)
	}

	cleaned := strings.Join(strings.Fields(commentNoise.ReplaceAllString(text, "")), " ")
	cleaned = truncateRunes(cleaned, e.cfg.MaxInputRunes, "")

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := withDeadline(ctx, func(ctx context.Context) (string, error) {
		return e.commenter.Comment(ctx, cleaned, label)
	})
	if err != nil {
		if apperr.Is(err, apperr.KindUnavailable) {
			return "", err
		}
		return "", apperr.Unavailable("comment generator", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.Unavailable("comment generator", apperr.Validation("empty comment"))
	}
	return truncateRunes(out, e.cfg.MaxCommentRunes, "..."), nil
}

func truncateRunes(s string, max int, suffix string) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + suffix
}
