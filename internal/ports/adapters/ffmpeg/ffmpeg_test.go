package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/types"
)

func TestExtract_MissingBinary(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	video := filepath.Join(tmp, "clip.mp4")
	if err := os.WriteFile(video, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	a := New(filepath.Join(tmp, "no-such-ffmpeg"), "")
	_, err := a.Extract(context.Background(), types.VideoAsset{LocalPath: video})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !apperr.Is(err, apperr.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected a clear message, got %q", err.Error())
	}
	if _, err := os.Stat(filepath.Join(tmp, "clip.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected no wav file, stat err=%v", err)
	}
}

func TestExtract_FailureRemovesPartialWav(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	tmp := t.TempDir()
	bin := writeScript(t, tmp, "ffmpeg", `for last; do :; done
printf 'partial' > "$last"
echo "Invalid data found when processing input" >&2
exit 1`)
	video := filepath.Join(tmp, "clip.mp4")

	_, err := New(bin, "").Extract(context.Background(), types.VideoAsset{LocalPath: video})
	if !apperr.Is(err, apperr.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected tool diagnostics in error, got %q", err.Error())
	}
	if _, err := os.Stat(filepath.Join(tmp, "clip.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected partial wav to be removed, stat err=%v", err)
	}
}

func TestExtract_Success(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	tmp := t.TempDir()
	argsFile := filepath.Join(tmp, "args.txt")
	bin := writeScript(t, tmp, "ffmpeg", `echo "$@" > "`+argsFile+`"
for last; do :; done
printf 'RIFF....WAVE' > "$last"`)
	video := filepath.Join(tmp, "abc.mp4")

	audio, err := New(bin, "").Extract(context.Background(), types.VideoAsset{LocalPath: video})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if audio.LocalPath != filepath.Join(tmp, "abc.wav") {
		t.Fatalf("unexpected audio path: %s", audio.LocalPath)
	}
	if audio.SampleRate != 16000 || audio.Channels != 1 {
		t.Fatalf("unexpected audio format: %+v", audio)
	}
	b, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	for _, want := range []string{"-vn", "-ac 1", "-ar 16000", "-f wav"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("expected %q in ffmpeg args: %s", want, b)
		}
	}
}

func TestExtract_EmptyVideoPath(t *testing.T) {
	_, err := New("", "").Extract(context.Background(), types.VideoAsset{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProbeDuration(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	tmp := t.TempDir()
	probe := writeScript(t, tmp, "ffprobe", `echo "12.500000"`)

	d, err := New("", probe).ProbeDuration(context.Background(), "x.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if d != 12500*time.Millisecond {
		t.Fatalf("unexpected duration: %v", d)
	}
}

func TestAudioPathFor(t *testing.T) {
	tests := map[string]string{
		"/tmp/a/b.mp4":  "/tmp/a/b.wav",
		"/tmp/a/b.webm": "/tmp/a/b.wav",
		"/tmp/a/b.wav":  "/tmp/a/b.16k.wav",
		"/tmp/a/b":      "/tmp/a/b.wav",
	}
	for in, want := range tests {
		if got := audioPathFor(in); got != want {
			t.Fatalf("audioPathFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
}
