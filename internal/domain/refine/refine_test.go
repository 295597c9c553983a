package refine

import (
	"context"
	"errors"
	"strings"
	"testing"

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

func TestRefine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		out       string
		err       error
		want      string
		wantCalls int
	}{
		{name: "corrected", raw: "hoy les muestro mi rutina", out: "  Hoy les muestro mi rutina.\n", want: "Hoy les muestro mi rutina.", wantCalls: 1},
		{name: "backend error keeps raw", raw: "hoy les muestro mi rutina", err: errors.New("status 500"), want: "hoy les muestro mi rutina", wantCalls: 1},
		{name: "empty completion keeps raw", raw: "hola", out: "   ", want: "hola", wantCalls: 1},
		{name: "blank input skips call", raw: "  \n", want: "  \n", wantCalls: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			llm := &fakeCompleter{out: tt.out, err: tt.err}
			got := New(llm, "m", nil).Refine(context.Background(), tt.raw)
			if got != tt.want {
				t.Fatalf("Refine = %q, want %q", got, tt.want)
			}
			if llm.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", llm.calls, tt.wantCalls)
			}
		})
	}
}

func TestRefine_RequestShape(t *testing.T) {
	llm := &fakeCompleter{out: "ok"}
	New(llm, "gpt-test", nil).Refine(context.Background(), "texto crudo")

	req := llm.last
	if req.Model != "gpt-test" || req.Temperature != 0.3 || req.MaxOutputTokens != 2000 || req.JSONMode {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != types.RoleSystem {
		t.Fatalf("expected system + user messages, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "texto crudo") {
		t.Fatalf("user prompt must carry the transcript: %q", req.Messages[1].Content)
	}
}

func TestRefine_NilBackendKeepsRaw(t *testing.T) {
	if got := New(nil, "", nil).Refine(context.Background(), "hola"); got != "hola" {
		t.Fatalf("Refine = %q", got)
	}
}
