package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", &Error{Message: "boom"}, "boom"},
		{"with op", Validation("analysis.Analyze", "transcript is empty"), "analysis.Analyze: transcript is empty"},
		{"with cause", Extraction("ffmpeg.Extract", errors.New("exit status 1"), "ffmpeg failed"), "ffmpeg.Extract: ffmpeg failed: exit status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := Transcription("whispercpp.Transcribe", nil, "empty transcript")
	wrapped := fmt.Errorf("run: %w", base)

	if got := KindOf(wrapped); got != KindTranscription {
		t.Fatalf("KindOf = %v, want %v", got, KindTranscription)
	}
	if !Is(wrapped, KindTranscription) {
		t.Fatalf("expected Is to match transcription")
	}
	if Is(nil, KindInternal) {
		t.Fatalf("nil error must not match any kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("plain errors are internal")
	}
}

func TestClassify(t *testing.T) {
	typed := Validation("x", "bad url")
	if got := Classify(typed, KindAcquisition, "y", "fetch failed"); got != typed {
		t.Fatalf("typed errors must pass through unchanged, got %v", got)
	}

	got := Classify(context.DeadlineExceeded, KindAcquisition, "usecase.acquire", "fetch failed")
	if KindOf(got) != KindAcquisition {
		t.Fatalf("expected acquisition kind, got %v", KindOf(got))
	}
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be preserved")
	}
	if Classify(nil, KindAnalysis, "", "") != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("", "x"), http.StatusBadRequest},
		{NotFound("", nil, "x"), http.StatusNotFound},
		{Acquisition("", nil, "x"), http.StatusUnprocessableEntity},
		{Extraction("", nil, "x"), http.StatusInternalServerError},
		{Transcription("", nil, "x"), http.StatusBadGateway},
		{Analysis("", nil, "x"), http.StatusBadGateway},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	err := Internal("store.Save", errors.New("pq: password authentication failed"), "save failed")
	if got := PublicMessage(err); got != "internal server error" {
		t.Fatalf("unexpected public message: %q", got)
	}
	if got := PublicMessage(Validation("", "idea is required")); got != "idea is required" {
		t.Fatalf("unexpected public message: %q", got)
	}
}
