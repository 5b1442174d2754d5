package aiclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sirupsen/logrus"
)

// responder is the part of the Responses API the adapters call.
type responder interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

const maxRetries = 3

// Diary requests are interactive, so waits are short and the caller's
// deadline always wins.
var (
	rateLimitWaitTimes   = []time.Duration{1 * time.Second, 3 * time.Second}
	serverErrorWaitTimes = []time.Duration{500 * time.Millisecond, 2 * time.Second}
)

func callWithRetry(ctx context.Context, r responder, params responses.ResponseNewParams) (*responses.Response, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := r.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		var wait time.Duration
		switch {
		case attempt >= maxRetries-1:
			return nil, err
		case isRateLimitError(err):
			wait = rateLimitWaitTimes[attempt]
		case isServerError(err):
			wait = serverErrorWaitTimes[attempt]
		default:
			return nil, err
		}

		logrus.WithField("attempt", attempt+1).Debugf("retrying model call in %s: %v", wait, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
