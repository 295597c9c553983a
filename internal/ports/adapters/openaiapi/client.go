package openaiapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/hookscan/internal/ports/adapters/endpoint"
	"github.com/forPelevin/hookscan/internal/redact"
)

const DefaultBaseURL = "https://api.openai.com/v1"

var DefaultAllowedHosts = []string{"api.openai.com"}

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func newClient(o Options) *openai.Client {
	cfg := openai.DefaultConfig(o.APIKey)
	cfg.BaseURL = endpoint.Normalize(o.BaseURL, DefaultBaseURL)
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

type upstreamError struct {
	msg string
	err error
}

func (e *upstreamError) Error() string { return e.msg }
func (e *upstreamError) Unwrap() error { return e.err }

// describe turns a go-openai error into redacted text: structured bodies
// yield their message, anything else the raw body.
func describe(err error, apiKey string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &upstreamError{
			msg: fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, redact.Secrets(apiErr.Message, apiKey)),
			err: err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := redact.Body(reqErr.Body, apiKey)
		if body == "" && reqErr.Err != nil {
			body = redact.Secrets(reqErr.Err.Error(), apiKey)
		}
		return &upstreamError{msg: fmt.Sprintf("status %d: %s", reqErr.HTTPStatusCode, body), err: err}
	}
	return &upstreamError{msg: redact.Secrets(err.Error(), apiKey), err: err}
}
