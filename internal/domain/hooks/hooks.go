package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/llmjson"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/redact"
	"github.com/forPelevin/hookscan/internal/types"
)

const (
	// Count is the number of hooks returned by Generate.
	Count = 5

	temperature = 0.9
	maxTokens   = 1500
)

type Generator struct {
	llm   ports.Completer
	model string
	log   logrus.FieldLogger
}

func New(llm ports.Completer, model string, log logrus.FieldLogger) *Generator {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Generator{llm: llm, model: model, log: log}
}

// Generate asks the model for one hook per category and returns the five
// best, ordered by retention score (ties keep model order).
func (g *Generator) Generate(ctx context.Context, req types.HookRequest) ([]types.GeneratedHook, error) {
	const op = "hooks.Generate"

	if strings.TrimSpace(req.Idea) == "" {
		return nil, apperr.Validation(op, "idea is empty")
	}

	out, err := g.llm.Complete(ctx, types.CompletionRequest{
		Model: g.model,
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: systemPrompt},
			{Role: types.RoleUser, Content: userPrompt(req)},
		},
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
		JSONMode:        true,
	})
	if err != nil {
		return nil, apperr.Analysis(op, err, "completion failed")
	}
	if strings.TrimSpace(out) == "" {
		return nil, apperr.Analysis(op, llmjson.ErrEmpty, "empty completion")
	}

	raw, err := decodeHooks(out)
	if err != nil {
		return nil, apperr.Analysis(op,
			fmt.Errorf("%w (completion: %q)", err, redact.Truncate(out, 200)),
			"malformed JSON in completion")
	}

	hooks := make([]types.GeneratedHook, 0, len(raw))
	for _, h := range raw {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		score := EstimateRetention(text)
		if h.Score != nil {
			score = clamp(*h.Score, 0, 100)
		} else {
			g.log.WithField("type", h.Type).Debug("hook without retention score, using estimate")
		}
		hooks = append(hooks, types.GeneratedHook{
			Text:           text,
			Type:           types.ParseHookCategory(h.Type),
			RetentionScore: score,
			Description:    strings.TrimSpace(h.Description),
		})
	}
	if len(hooks) < Count {
		return nil, apperr.Analysis(op, fmt.Errorf("got %d usable hooks, want %d", len(hooks), Count), "incomplete hook list")
	}

	Rank(hooks)
	return hooks[:Count], nil
}

// Rank sorts hooks by retention score, highest first, keeping the relative
// order of equal scores.
func Rank(hooks []types.GeneratedHook) {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].RetentionScore > hooks[j].RetentionScore
	})
}

// rawHook is one model-provided entry; "hook" is accepted as an alias of
// "text".
type rawHook struct {
	Text        string
	Type        string
	Score       *float64
	Description string
}

func (h *rawHook) UnmarshalJSON(b []byte) error {
	var v struct {
		Text        string          `json:"text"`
		Hook        string          `json:"hook"`
		Type        string          `json:"type"`
		Score       json.RawMessage `json:"retention_score"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	h.Text = v.Text
	if h.Text == "" {
		h.Text = v.Hook
	}
	h.Type = v.Type
	h.Description = v.Description
	score, err := parseScore(v.Score)
	if err != nil {
		return err
	}
	h.Score = score
	return nil
}

// parseScore accepts a number, a numeric string (optionally with a trailing
// %), or null/absent. Non-finite values count as absent.
func parseScore(b json.RawMessage) (*float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("retention_score: unexpected value %s", redact.Truncate(string(b), 40))
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("retention_score: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

func decodeHooks(out string) ([]rawHook, error) {
	clean, err := llmjson.Extract(out)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(clean, "[") {
		var list []rawHook
		if err := json.Unmarshal([]byte(clean), &list); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Hooks []rawHook `json:"hooks"`
	}
	if err := json.Unmarshal([]byte(clean), &wrapped); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if wrapped.Hooks == nil {
		return nil, errors.New(`missing key "hooks"`)
	}
	return wrapped.Hooks, nil
}
