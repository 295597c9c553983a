package whispercpp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/types"
)

func TestTranscribe(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}

	cases := []struct {
		name     string
		script   string
		want     string
		wantKind apperr.Kind
		wantErr  string
	}{
		{
			name: "reads txt output",
			script: `while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then out="$2"; fi
  shift
done
printf ' hoy les muestro\n mi rutina \n' > "$out.txt"`,
			want: "hoy les muestro mi rutina",
		},
		{
			name:   "falls back to stdout",
			script: `echo "[00:00:00.000 --> 00:00:02.000]   hola a todos"`,
			want:   "hola a todos",
		},
		{
			name:     "empty output",
			script:   `echo "   "`,
			wantKind: apperr.KindTranscription,
			wantErr:  "empty transcript",
		},
		{
			name:     "blank audio only",
			script:   `echo "[BLANK_AUDIO]"`,
			wantKind: apperr.KindTranscription,
			wantErr:  "empty transcript",
		},
		{
			name:     "non-zero exit",
			script:   `echo "error: failed to open model" >&2; exit 3`,
			wantKind: apperr.KindTranscription,
			wantErr:  "failed to open model",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tmp := t.TempDir()
			bin := filepath.Join(tmp, "whisper-cli")
			if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+tc.script+"\n"), 0o755); err != nil {
				t.Fatalf("write script: %v", err)
			}
			wav := filepath.Join(tmp, "a.wav")
			if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
				t.Fatalf("write wav: %v", err)
			}

			got, err := New(bin, "model.bin", "es").Transcribe(context.Background(), types.AudioAsset{LocalPath: wav})
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error, got text %q", got)
				}
				if !apperr.Is(err, tc.wantKind) {
					t.Fatalf("expected kind %v, got %v", tc.wantKind, err)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected %q in %q", tc.wantErr, err.Error())
				}
				if got != "" {
					t.Fatalf("expected empty text on error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("transcribe: %v", err)
			}
			if got != tc.want {
				t.Fatalf("transcript = %q, want %q", got, tc.want)
			}
			if _, err := os.Stat(filepath.Join(tmp, "a.whisper.txt")); !os.IsNotExist(err) {
				t.Fatalf("expected side file to be removed, stat err=%v", err)
			}
		})
	}
}

func TestTranscribe_MissingBinary(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	wav := filepath.Join(tmp, "a.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	_, err := New(filepath.Join(tmp, "missing"), "m.bin", "es").Transcribe(context.Background(), types.AudioAsset{LocalPath: wav})
	if !apperr.Is(err, apperr.KindTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestCleanTranscript(t *testing.T) {
	in := "[00:00:00.000 --> 00:00:01.500]  Hola.\n\n[00:00:01.500 --> 00:00:03.000]  ¿Qué tal?\n"
	if got := cleanTranscript(in); got != "Hola. ¿Qué tal?" {
		t.Fatalf("cleanTranscript = %q", got)
	}
}
