package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(Conflict("already answered today"), "submitting answer")
	if got := KindOf(err); got != KindConflict {
		t.Fatalf("KindOf=%v", got)
	}
	if got := KindOf(err).HTTPStatus(); got != http.StatusConflict {
		t.Fatalf("status=%d", got)
	}
	if Message(err) != "already answered today" {
		t.Fatalf("Message=%q", Message(err))
	}
}

func TestUnknownErrorsAreInternal(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Fatalf("KindOf=%v", KindOf(err))
	}
	if Message(err) != "internal server error" {
		t.Fatalf("Message=%q", Message(err))
	}
	if Is(nil, KindInternal) {
		t.Fatal("nil error must not match any kind")
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: timeout")
	err := Unavailable("classifier", cause)
	if !Is(err, KindUnavailable) {
		t.Fatalf("kind=%v", KindOf(err))
	}
	if errors.Cause(errors.Unwrap(err)) != cause {
		t.Fatalf("cause lost: %v", err)
	}
	if KindUnavailable.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("status=%d", KindUnavailable.HTTPStatus())
	}
}
