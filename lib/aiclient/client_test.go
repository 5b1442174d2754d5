package aiclient

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/emotion"
	"github.com/oliverisaac/grooming/types"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

func TestParseClassification(t *testing.T) {
	t.Parallel()

	got, err := parseClassification(`{"angry":0.1,"fear":0.1,"happy":1.2,"tender":0.4,"sad":0.2}`)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if got.Label != emotion.Happy || math.Abs(got.Confidence-0.6) > 1e-9 {
		t.Fatalf("got=%+v", got)
	}
	var sum float64
	for _, l := range emotion.RawLabels {
		sum += got.Distribution[l]
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("distribution sum=%v", sum)
	}
	if _, ok := got.Distribution[emotion.Neutral]; ok {
		t.Fatalf("neutral is never a raw label: %v", got.Distribution)
	}
}

func TestParseClassificationRejects(t *testing.T) {
	t.Parallel()

	for _, out := range []string{
		"",
		"I cannot help with that",
		`{"angry":0,"fear":0,"happy":0,"tender":0,"sad":0}`,
		`{"angry":-0.5,"fear":0,"happy":1,"tender":0,"sad":0}`,
		`{"angry":0.2,"fear":`,
	} {
		if _, err := parseClassification(out); err == nil {
			t.Fatalf("%q accepted", out)
		}
	}
}

func TestDecodeModelJSONExtractsObject(t *testing.T) {
	t.Parallel()

	var out classificationResponse
	err := decodeModelJSON("Here you go:\n```json\n{\"angry\":0,\"fear\":0,\"happy\":0,\"tender\":0,\"sad\":1}\n```", &out)
	if err != nil || out.Sad != 1 {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestClassificationSchemaIsStrict(t *testing.T) {
	t.Parallel()

	if classificationSchema[additionalPropertiesKey] != false {
		t.Fatalf("schema allows extra properties: %v", classificationSchema)
	}
	required, _ := classificationSchema[requiredKey].([]string)
	if len(required) != len(emotion.RawLabels) {
		t.Fatalf("required=%v", classificationSchema[requiredKey])
	}
}

type fakeResponder struct {
	errs  []error
	calls int
}

func (f *fakeResponder) New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &responses.Response{}, nil
}

func TestCallWithRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := &fakeResponder{errs: []error{errors.New("500 Internal Server Error")}}
	if _, err := callWithRetry(ctx, f, responses.ResponseNewParams{}); err != nil || f.calls != 2 {
		t.Fatalf("server error: calls=%d err=%v", f.calls, err)
	}

	f = &fakeResponder{errs: []error{errors.New("401 invalid api key")}}
	if _, err := callWithRetry(ctx, f, responses.ResponseNewParams{}); err == nil || f.calls != 1 {
		t.Fatalf("auth error: calls=%d err=%v", f.calls, err)
	}
}

func TestCallWithRetryHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeResponder{errs: []error{errors.New("429 Too Many Requests")}}
	_, err := callWithRetry(ctx, f, responses.ResponseNewParams{})
	if !errors.Is(err, context.Canceled) || f.calls != 1 {
		t.Fatalf("calls=%d err=%v", f.calls, err)
	}
}

func TestUnavailableFeedsEngineFallback(t *testing.T) {
	t.Parallel()

	classifier, commenter := FromConfig(types.Config{})
	if _, err := classifier.Classify(context.Background(), "hello"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("Classify: err=%v", err)
	}
	if _, err := commenter.Comment(context.Background(), "hello", emotion.Happy); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("Comment: err=%v", err)
	}

	got := emotion.NewEngine(classifier, commenter, emotion.DefaultEngineConfig()).Analyze(context.Background(), "", "hello")
	want := emotion.Fallback()
	if got.Label != want.Label || got.Confidence != 0 || got.ImageKey != want.ImageKey || got.Comment != want.Comment {
		t.Fatalf("got=%+v", got)
	}
}
