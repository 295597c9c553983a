package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

const DefaultChatModel = "gpt-4o-mini"

var _ ports.Completer = (*Chat)(nil)

// Chat is a Completer backed by the chat completions endpoint.
type Chat struct {
	cli   *openai.Client
	key   string
	model string
}

func NewChat(o Options, model string) *Chat {
	if model == "" {
		model = DefaultChatModel
	}
	return &Chat{cli: newClient(o), key: o.APIKey, model: model}
}

func (c *Chat) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	if isReasoningModel(model) {
		// reasoning models reject max_tokens and any non-default temperature
		creq.MaxTokens = 0
		creq.MaxCompletionTokens = req.MaxOutputTokens
		creq.Temperature = 0
	}
	if req.JSONMode {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.cli.CreateChatCompletion(ctx, creq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openai chat timeout (model=%s): %w", model, ctx.Err())
		}
		return "", fmt.Errorf("openai chat: %w", describe(err, c.key))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
