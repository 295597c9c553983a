package openaiapi

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

const DefaultTranscribeModel = openai.Whisper1

var _ ports.Transcriber = (*Transcriber)(nil)

// Transcriber is the cloud speech-recognition backend.
type Transcriber struct {
	cli      *openai.Client
	key      string
	model    string
	language string
}

func NewTranscriber(o Options, model, language string) *Transcriber {
	if model == "" {
		model = DefaultTranscribeModel
	}
	if strings.EqualFold(language, "auto") {
		language = ""
	}
	return &Transcriber{cli: newClient(o), key: o.APIKey, model: model, language: language}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio types.AudioAsset) (string, error) {
	const op = "openaiapi.Transcribe"

	resp, err := t.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audio.LocalPath,
		Language: t.language,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperr.Transcription(op, ctxErr, "transcription request timed out")
		}
		return "", apperr.Transcription(op, describe(err, t.key), "transcription request failed")
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", apperr.Transcription(op, nil, "transcription API returned an empty transcript")
	}
	return text, nil
}
