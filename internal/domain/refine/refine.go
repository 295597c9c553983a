package refine

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

const (
	temperature = 0.3
	maxTokens   = 2000
)

const systemPrompt = "Eres un experto en corrección de transcripciones de audio. " +
	"Tu tarea es corregir errores de transcripción, mejorar la gramática y hacer el texto más claro, " +
	"manteniendo el sentido original."

// Refiner cleans up raw transcripts. It never fails: any backend problem
// degrades to the input text.
type Refiner struct {
	llm   ports.Completer
	model string
	log   logrus.FieldLogger
}

func New(llm ports.Completer, model string, log logrus.FieldLogger) *Refiner {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Refiner{llm: llm, model: model, log: log}
}

func (r *Refiner) Refine(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" || r.llm == nil {
		return raw
	}

	out, err := r.llm.Complete(ctx, types.CompletionRequest{
		Model: r.model,
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: systemPrompt},
			{Role: types.RoleUser, Content: userPrompt(raw)},
		},
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		r.log.WithError(err).Warn("transcript refinement failed, keeping raw text")
		return raw
	}
	out = strings.TrimSpace(out)
	if out == "" {
		r.log.Warn("transcript refinement returned empty text, keeping raw text")
		return raw
	}
	return out
}

func userPrompt(raw string) string {
	return "Corrige y mejora la siguiente transcripción de audio. " +
		"Corrige errores de transcripción, mejora la gramática y la puntuación, " +
		"pero mantén el contenido y el sentido original.\n\n" +
		"TRANSCRIPCIÓN ORIGINAL:\n" + raw + "\n\n" +
		"Responde SOLO con el texto corregido, sin explicaciones adicionales."
}
