package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/redact"
	"github.com/forPelevin/hookscan/internal/types"
)

const DefaultModel = "gemini-2.0-flash"

var _ ports.Completer = (*Adapter)(nil)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Adapter struct {
	client  *genai.Client
	key     string
	model   string
	timeout time.Duration
}

func New(ctx context.Context, o Options) (*Adapter, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     o.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
	if o.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(o.BaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %s", redact.Secrets(err.Error(), o.APIKey))
	}
	model := o.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Adapter{client: client, key: o.APIKey, model: model, timeout: timeout}, nil
}

func (a *Adapter) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	var (
		system   []*genai.Part
		contents []*genai.Content
	)
	for _, m := range req.Messages {
		switch m.Role {
		case types.RoleSystem:
			system = append(system, genai.NewPartFromText(m.Content))
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(m.Content)}, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(m.Content)}, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromParts(system, genai.RoleUser)
	}
	if len(contents) == 0 {
		return "", errors.New("gemini: no user content")
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.client.Models.GenerateContent(reqCtx, model, contents, cfg)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("gemini timeout after %s (model=%s)", a.timeout, model)
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gemini status %d: %s", apiErr.Code, redact.Truncate(redact.Secrets(apiErr.Message, a.key), 400))
		}
		return "", fmt.Errorf("gemini: %s", redact.Secrets(err.Error(), a.key))
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}
