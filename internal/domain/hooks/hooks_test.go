package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/types"
)

type fakeCompleter struct {
	out   string
	err   error
	calls int
	last  types.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req types.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

const fiveHooks = `{"hooks":[
 {"text":"Esto me cambió la vida","type":"emotional","retention_score":70,"description":"emoción"},
 {"text":"3 datos que nadie te dice","type":"rational","retention_score":"88","description":"datos"},
 {"text":"No vas a creer esto","type":"sorpresa","retention_score":88,"description":"sorpresa"},
 {"text":"El gym está sobrevalorado","type":"controversial","retention_score":150,"description":"polémica"},
 {"text":"¿Sabías por qué fallas?","type":"curiosity","retention_score":-4,"description":"curiosidad"}
]}`

func TestGenerate_RanksFiveHooks(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{out: fiveHooks}
	got, err := New(llm, "gpt-test", nil).Generate(context.Background(), types.HookRequest{Idea: "rutina de gym", Niche: "Fitness", Platform: "TikTok"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != Count {
		t.Fatalf("expected %d hooks, got %d", Count, len(got))
	}

	wantTexts := []string{
		"El gym está sobrevalorado",
		"3 datos que nadie te dice",
		"No vas a creer esto",
		"Esto me cambió la vida",
		"¿Sabías por qué fallas?",
	}
	wantScores := []float64{100, 88, 88, 70, 0}
	for i := range got {
		if got[i].Text != wantTexts[i] || got[i].RetentionScore != wantScores[i] {
			t.Fatalf("hook %d = %+v, want text %q score %v", i, got[i], wantTexts[i], wantScores[i])
		}
	}
	if got[2].Type != types.CategorySurprise {
		t.Fatalf("expected Spanish type to map to surprise, got %q", got[2].Type)
	}

	req := llm.last
	if !req.JSONMode || req.Temperature != 0.9 || req.MaxOutputTokens != 1500 {
		t.Fatalf("unexpected request: %+v", req)
	}
	prompt := req.Messages[1].Content
	for _, want := range []string{"rutina de gym", "NICHO: Fitness", "TikTok"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}
}

func TestGenerate_NonIncreasingScores(t *testing.T) {
	t.Parallel()

	outs := []string{
		fiveHooks,
		`[{"text":"a","type":"x","retention_score":1},{"text":"b","retention_score":2},{"text":"c","retention_score":3},{"text":"d","retention_score":4},{"text":"e","retention_score":5},{"text":"f","retention_score":6}]`,
		`{"hooks":[{"hook":"a"},{"hook":"b ¿por qué?"},{"hook":"c nunca"},{"hook":"d 3 errores"},{"hook":"e"}]}`,
	}
	for _, out := range outs {
		got, err := New(&fakeCompleter{out: out}, "", nil).Generate(context.Background(), types.HookRequest{Idea: "idea"})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(got) != Count {
			t.Fatalf("expected %d hooks, got %d", Count, len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].RetentionScore > got[i-1].RetentionScore {
				t.Fatalf("scores not sorted: %+v", got)
			}
		}
		for _, h := range got {
			if h.RetentionScore < 0 || h.RetentionScore > 100 {
				t.Fatalf("score out of range: %+v", h)
			}
		}
	}
}

func TestGenerate_MoreThanFiveKeepsBest(t *testing.T) {
	out := `[{"text":"a","retention_score":1},{"text":"b","retention_score":2},{"text":"c","retention_score":3},{"text":"d","retention_score":4},{"text":"e","retention_score":5},{"text":"f","retention_score":6}]`
	got, err := New(&fakeCompleter{out: out}, "", nil).Generate(context.Background(), types.HookRequest{Idea: "idea"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got[0].Text != "f" || got[4].Text != "b" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
	if got[0].Type != types.CategoryOther {
		t.Fatalf("missing type must map to other, got %q", got[0].Type)
	}
}

func TestGenerate_BlankIdea(t *testing.T) {
	llm := &fakeCompleter{out: fiveHooks}
	_, err := New(llm, "", nil).Generate(context.Background(), types.HookRequest{Idea: "  "})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if llm.calls != 0 {
		t.Fatalf("backend must not be called for a blank idea")
	}
}

func TestGenerate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		out     string
		err     error
		wantSub string
	}{
		{name: "backend error", err: errors.New("timeout"), wantSub: "completion failed"},
		{name: "empty", out: " ", wantSub: "empty completion"},
		{name: "not json", out: "aquí tienes tus hooks", wantSub: "malformed JSON"},
		{name: "no hooks key", out: `{"items":[]}`, wantSub: `missing key "hooks"`},
		{name: "bad score", out: `{"hooks":[{"text":"a","retention_score":"alto"}]}`, wantSub: "malformed JSON"},
		{name: "too few", out: `{"hooks":[{"text":"a","retention_score":1},{"text":" ","retention_score":2}]}`, wantSub: "incomplete hook list"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(&fakeCompleter{out: tt.out, err: tt.err}, "", nil).Generate(context.Background(), types.HookRequest{Idea: "idea"})
			if !apperr.Is(err, apperr.KindAnalysis) {
				t.Fatalf("expected analysis error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("expected %q in %q", tt.wantSub, err.Error())
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		absent bool
	}{
		{in: `85`, want: 85},
		{in: `"72.5"`, want: 72.5},
		{in: `" 90% "`, want: 90},
		{in: `null`, absent: true},
		{in: ``, absent: true},
		{in: `""`, absent: true},
		{in: `"NaN"`, absent: true},
		{in: `"Inf"`, absent: true},
		{in: `"-Infinity"`, absent: true},
	}
	for _, tt := range tests {
		got, err := parseScore([]byte(tt.in))
		if err != nil {
			t.Fatalf("parseScore(%s): %v", tt.in, err)
		}
		if tt.absent {
			if got != nil {
				t.Fatalf("parseScore(%s) = %v, want absent", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Fatalf("parseScore(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGenerate_NonFiniteScoreFallsBackToEstimate(t *testing.T) {
	t.Parallel()

	llm := &fakeCompleter{out: `{"hooks":[
 {"text":"a","type":"emotional","retention_score":"NaN"},
 {"text":"b","type":"rational","retention_score":50},
 {"text":"c","type":"surprise","retention_score":90},
 {"text":"d","type":"controversial","retention_score":10},
 {"text":"e","type":"curiosity","retention_score":"Inf"}
]}`}
	got, err := New(llm, "gpt-test", nil).Generate(context.Background(), types.HookRequest{Idea: "rutina"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, h := range got {
		if math.IsNaN(h.RetentionScore) || h.RetentionScore < 0 || h.RetentionScore > 100 {
			t.Fatalf("hook %d score out of range: %v", i, h.RetentionScore)
		}
		if i > 0 && h.RetentionScore > got[i-1].RetentionScore {
			t.Fatalf("scores not non-increasing at %d: %+v", i, got)
		}
	}
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got[0].Text != "c" {
		t.Fatalf("expected the 90 hook first, got %q", got[0].Text)
	}
}

func TestClamp_NaN(t *testing.T) {
	if got := clamp(math.NaN(), 0, 100); got != 0 {
		t.Fatalf("clamp(NaN) = %v, want 0", got)
	}
}

func TestRank_Stable(t *testing.T) {
	hooks := []types.GeneratedHook{
		{Text: "a", RetentionScore: 50},
		{Text: "b", RetentionScore: 80},
		{Text: "c", RetentionScore: 50},
		{Text: "d", RetentionScore: 80},
	}
	Rank(hooks)
	got := ""
	for _, h := range hooks {
		got += h.Text
	}
	if got != "bdac" {
		t.Fatalf("Rank order = %q, want %q", got, "bdac")
	}
}
