package whispercpp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/redact"
	"github.com/forPelevin/hookscan/internal/types"
)

var _ ports.Transcriber = (*Adapter)(nil)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

var timestampRE = regexp.MustCompile(`(?m)^\s*\[[0-9:.]+\s*-->\s*[0-9:.]+\]\s*`)

func (a *Adapter) Transcribe(ctx context.Context, audio types.AudioAsset) (string, error) {
	const op = "whispercpp.Transcribe"

	bin, err := exec.LookPath(a.bin)
	if err != nil {
		return "", apperr.Transcription(op, err, fmt.Sprintf("whisper-cli not found at %s", a.bin))
	}
	if _, err := os.Stat(audio.LocalPath); err != nil {
		return "", apperr.Transcription(op, err, "audio file is missing")
	}

	outPrefix := strings.TrimSuffix(audio.LocalPath, filepath.Ext(audio.LocalPath)) + ".whisper"
	txtPath := outPrefix + ".txt"
	defer os.Remove(txtPath)

	args := []string{
		"-m", a.model,
		"-f", audio.LocalPath,
		"-l", a.language,
		"-nt",
		"-otxt",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperr.Transcription(op, ctxErr, "whisper-cli timed out")
		}
		return "", apperr.Transcription(op, fmt.Errorf("%w\n%s", err, redact.Tail(stderr.String(), 2000)), "whisper-cli failed")
	}

	text := ""
	if b, err := os.ReadFile(txtPath); err == nil {
		text = string(b)
	} else {
		text = string(stdout)
	}
	text = cleanTranscript(text)
	if text == "" {
		return "", apperr.Transcription(op, nil, "whisper-cli produced an empty transcript")
	}
	return text, nil
}

// cleanTranscript joins whisper's per-segment lines into one paragraph.
func cleanTranscript(s string) string {
	s = timestampRE.ReplaceAllString(s, "")
	lines := strings.Split(s, "\n")
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || l == "[BLANK_AUDIO]" {
			continue
		}
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}
