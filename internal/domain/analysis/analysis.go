package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/llmjson"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/redact"
	"github.com/forPelevin/hookscan/internal/types"
)

const (
	temperature = 0.5
	maxTokens   = 1000
)

var blankRunRE = regexp.MustCompile(`_{3,}`)

type Refiner interface {
	Refine(ctx context.Context, raw string) string
}

// Analyzer extracts a hook and a script template from a transcript.
type Analyzer struct {
	llm     ports.Completer
	refiner Refiner
	model   string
	log     logrus.FieldLogger
}

// New builds an Analyzer. refiner may be nil to skip the defensive
// re-refinement pass.
func New(llm ports.Completer, refiner Refiner, model string, log logrus.FieldLogger) *Analyzer {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Analyzer{llm: llm, refiner: refiner, model: model, log: log}
}

type rawAnalysis struct {
	Hook *struct {
		General     *string `json:"general"`
		UsedInVideo *string `json:"used_in_video"`
		Type        *string `json:"type"`
	} `json:"hook"`
	ScriptBase *string `json:"script_base"`
}

func (a *Analyzer) Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error) {
	const op = "analysis.Analyze"

	if strings.TrimSpace(transcript) == "" {
		return types.AnalysisResult{}, apperr.Validation(op, "transcript is empty")
	}
	if a.refiner != nil {
		transcript = a.refiner.Refine(ctx, transcript)
	}

	out, err := a.llm.Complete(ctx, types.CompletionRequest{
		Model: a.model,
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: systemPrompt},
			{Role: types.RoleUser, Content: userPrompt(transcript)},
		},
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
		JSONMode:        true,
	})
	if err != nil {
		return types.AnalysisResult{}, apperr.Analysis(op, err, "completion failed")
	}
	if strings.TrimSpace(out) == "" {
		return types.AnalysisResult{}, apperr.Analysis(op, llmjson.ErrEmpty, "empty completion")
	}

	var raw rawAnalysis
	if err := llmjson.Decode(out, &raw); err != nil {
		return types.AnalysisResult{}, apperr.Analysis(op,
			fmt.Errorf("%w (completion: %q)", err, redact.Truncate(out, 200)),
			"malformed JSON in completion")
	}

	res, err := validate(raw)
	if err != nil {
		return types.AnalysisResult{}, apperr.Analysis(op, err, "non-conforming analysis")
	}
	a.log.WithFields(logrus.Fields{"hook_type": res.Hook.Type, "category": res.Hook.Category}).Debug("analysis parsed")
	return res, nil
}

func validate(raw rawAnalysis) (types.AnalysisResult, error) {
	if raw.Hook == nil {
		return types.AnalysisResult{}, errors.New(`missing key "hook"`)
	}
	fields := []struct {
		name string
		v    *string
	}{
		{"hook.general", raw.Hook.General},
		{"hook.used_in_video", raw.Hook.UsedInVideo},
		{"hook.type", raw.Hook.Type},
		{"script_base", raw.ScriptBase},
	}
	for _, f := range fields {
		if f.v == nil {
			return types.AnalysisResult{}, fmt.Errorf("missing key %q", f.name)
		}
		if strings.TrimSpace(*f.v) == "" {
			return types.AnalysisResult{}, fmt.Errorf("blank value for %q", f.name)
		}
	}

	hook := types.Hook{
		General:     normalizeBlanks(*raw.Hook.General),
		UsedInVideo: normalizeBlanks(*raw.Hook.UsedInVideo),
		Type:        strings.TrimSpace(*raw.Hook.Type),
	}
	hook.Category = types.ParseHookType(hook.Type)
	script := normalizeBlanks(*raw.ScriptBase)

	if !strings.Contains(hook.General, types.BlankToken) {
		return types.AnalysisResult{}, errors.New("hook.general has no blank placeholder")
	}
	if strings.Contains(hook.UsedInVideo, types.BlankToken) {
		return types.AnalysisResult{}, errors.New("hook.used_in_video must not contain a blank placeholder")
	}
	if !strings.Contains(script, types.BlankToken) {
		return types.AnalysisResult{}, errors.New("script_base has no blank placeholder")
	}
	return types.AnalysisResult{Hook: hook, ScriptBase: script}, nil
}

// normalizeBlanks rewrites every run of three or more underscores to the
// canonical placeholder and trims the text.
func normalizeBlanks(s string) string {
	return strings.TrimSpace(blankRunRE.ReplaceAllString(s, types.BlankToken))
}
