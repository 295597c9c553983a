package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/redact"
	"github.com/forPelevin/hookscan/internal/types"
)

const (
	sampleRate = 16000
	channels   = 1
)

var (
	_ ports.AudioExtractor = (*Adapter)(nil)
	_ ports.DurationProber = (*Adapter)(nil)
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Extract writes a mono 16kHz wav next to the video.
func (a *Adapter) Extract(ctx context.Context, video types.VideoAsset) (types.AudioAsset, error) {
	const op = "ffmpeg.Extract"

	if strings.TrimSpace(video.LocalPath) == "" {
		return types.AudioAsset{}, apperr.Validation(op, "video path is empty")
	}
	bin, err := exec.LookPath(a.ffmpeg)
	if err != nil {
		return types.AudioAsset{}, apperr.Extraction(op, err, fmt.Sprintf("ffmpeg not found (%s): install it or set ffmpeg.path", a.ffmpeg))
	}

	wav := audioPathFor(video.LocalPath)
	if err := a.extractAudioMono16k(ctx, bin, video.LocalPath, wav); err != nil {
		_ = os.Remove(wav)
		return types.AudioAsset{}, apperr.Extraction(op, err, "audio extraction failed")
	}
	if fi, err := os.Stat(wav); err != nil || fi.Size() == 0 {
		_ = os.Remove(wav)
		return types.AudioAsset{}, apperr.Extraction(op, err, "ffmpeg produced no audio")
	}
	return types.AudioAsset{LocalPath: wav, SampleRate: sampleRate, Channels: channels}, nil
}

func (a *Adapter) extractAudioMono16k(ctx context.Context, bin, inVideo, outWav string) error {
	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-i", inVideo,
		"-vn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg extract audio: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, redact.Tail(string(b), 2000))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("ffprobe not found (%s): %w", a.ffprobe, err)
		}
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func audioPathFor(videoPath string) string {
	ext := filepath.Ext(videoPath)
	if strings.EqualFold(ext, ".wav") {
		return strings.TrimSuffix(videoPath, ext) + ".16k.wav"
	}
	return strings.TrimSuffix(videoPath, ext) + ".wav"
}
