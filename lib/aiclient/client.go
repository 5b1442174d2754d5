package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/emotion"
	"github.com/oliverisaac/grooming/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sirupsen/logrus"
)

const classifyPrompt = `You classify the emotion of a short personal diary entry.
Return a probability for each of the five emotions angry, fear, happy, tender and sad.
Probabilities are between 0 and 1 and should sum to 1.
Tender covers warmth, gratitude, calm and affection.`

const commentPrompt = `You are a warm friend reading someone's diary.
Reply with one or two short sentences of empathy for what they wrote.
The detected emotion is given for context. Do not give advice, do not use emoji.
Keep the reply under 50 characters.`

// classificationResponse is the structured output of the classifier model.
type classificationResponse struct {
	Angry  float64 `json:"angry" jsonschema:"minimum=0,maximum=1"`
	Fear   float64 `json:"fear" jsonschema:"minimum=0,maximum=1"`
	Happy  float64 `json:"happy" jsonschema:"minimum=0,maximum=1"`
	Tender float64 `json:"tender" jsonschema:"minimum=0,maximum=1"`
	Sad    float64 `json:"sad" jsonschema:"minimum=0,maximum=1"`
}

var classificationSchema = generateSchema[classificationResponse]()

// Classifier asks a model for a probability over the raw labels.
type Classifier struct {
	responses responder
	model     string
}

// Commenter asks a model for a short empathetic reply.
type Commenter struct {
	responses responder
	model     string
}

func NewClassifier(client *openai.Client, model string) *Classifier {
	return &Classifier{responses: &client.Responses, model: model}
}

func NewCommenter(client *openai.Client, model string) *Commenter {
	return &Commenter{responses: &client.Responses, model: model}
}

func (c *Classifier) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(classifyPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EmotionDistribution",
					Schema:      classificationSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Emotion probabilities JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := callWithRetry(ctx, c.responses, params)
	if err != nil {
		return emotion.Classification{}, apperr.Unavailable("classifier", err)
	}
	out, err := parseClassification(resp.OutputText())
	if err != nil {
		return emotion.Classification{}, apperr.Unavailable("classifier", err)
	}
	return out, nil
}

// parseClassification renormalizes the model's probabilities to sum to one
// and picks the most likely label.
func parseClassification(outputText string) (emotion.Classification, error) {
	var out classificationResponse
	if err := decodeModelJSON(outputText, &out); err != nil {
		return emotion.Classification{}, err
	}

	raw := map[emotion.Label]float64{
		emotion.Angry:  out.Angry,
		emotion.Fear:   out.Fear,
		emotion.Happy:  out.Happy,
		emotion.Tender: out.Tender,
		emotion.Sad:    out.Sad,
	}
	var sum float64
	for l, p := range raw {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return emotion.Classification{}, fmt.Errorf("invalid probability %v for %s", p, l)
		}
		sum += p
	}
	if sum == 0 {
		return emotion.Classification{}, fmt.Errorf("model returned no probability mass")
	}

	ret := emotion.Classification{Distribution: emotion.Distribution{}}
	for _, l := range emotion.RawLabels {
		p := raw[l] / sum
		ret.Distribution[l] = p
		if p > ret.Confidence {
			ret.Label = l
			ret.Confidence = p
		}
	}
	return ret, nil
}

func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start != -1 && end == -1 {
		return io.ErrUnexpectedEOF
	}
	if start == -1 || end <= start {
		return fmt.Errorf("no json object found in model output")
	}
	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

func (c *Commenter) Comment(ctx context.Context, text string, label emotion.Label) (string, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(120),
		Instructions:    openai.String(commentPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(fmt.Sprintf("Emotion: %s\nDiary: %s", label, text), responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := callWithRetry(ctx, c.responses, params)
	if err != nil {
		return "", apperr.Unavailable("comment generator", err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}

// Unavailable stands in for both collaborators when no model is configured.
// Every call fails so the engine stores its fallback analysis.
type Unavailable struct {
	Cause error
}

func (u Unavailable) Classify(ctx context.Context, text string) (emotion.Classification, error) {
	return emotion.Classification{}, apperr.Unavailable("classifier", u.Cause)
}

func (u Unavailable) Comment(ctx context.Context, text string, label emotion.Label) (string, error) {
	return "", apperr.Unavailable("comment generator", u.Cause)
}

// FromConfig builds the collaborators once at startup.
func FromConfig(cfg types.Config) (emotion.Classifier, emotion.Commenter) {
	if !cfg.AIEnabled() {
		logrus.Warn("Using unavailable emotion collaborators")
		u := Unavailable{Cause: fmt.Errorf("OPENAI_API_KEY is not set")}
		return u, u
	}
	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
	return NewClassifier(&client, cfg.ClassifierModel), NewCommenter(&client, cfg.CommentModel)
}
