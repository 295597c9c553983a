//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func probeDurationSeconds(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// buildSpeechClip renders text with espeak-ng and muxes it under a black
// 720x1280 video, the shape of a typical short.
func buildSpeechClip(dir, text string, seconds int) (string, error) {
	wav := dir + "/speech.wav"
	if b, err := exec.Command("espeak-ng", "-v", "es", "-w", wav, text).CombinedOutput(); err != nil {
		return "", fmt.Errorf("espeak-ng: %w\n%s", err, string(b))
	}
	out := dir + "/clip.mp4"
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=720x1280:d=%d", seconds),
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg fixture: %w\n%s", err, string(b))
	}
	return out, nil
}
