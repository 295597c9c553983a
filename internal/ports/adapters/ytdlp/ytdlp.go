package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

const defaultFormat = "mp4/bestvideo*+bestaudio/best"

var _ ports.MediaAcquirer = (*Adapter)(nil)

type Adapter struct {
	bin    string
	format string
}

type Metadata struct {
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Extractor string  `json:"extractor_key"`
}

func New(binPath, format string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if format == "" {
		format = defaultFormat
	}
	return &Adapter{bin: binPath, format: format}
}

// Acquire downloads rawURL into dir as <uuid>.mp4.
func (a *Adapter) Acquire(ctx context.Context, rawURL, dir string) (types.VideoAsset, error) {
	const op = "ytdlp.Acquire"

	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return types.VideoAsset{}, apperr.Validation(op, err.Error())
	}
	bin, err := exec.LookPath(a.bin)
	if err != nil {
		return types.VideoAsset{}, apperr.Acquisition(op, err, fmt.Sprintf("yt-dlp not found (%s)", a.bin))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.VideoAsset{}, apperr.Internal(op, err, "create download dir")
	}

	out := filepath.Join(dir, uuid.NewString()+".mp4")
	cmd := exec.CommandContext(ctx, bin,
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--no-progress",
		"-f", a.format,
		"--merge-output-format", "mp4",
		"-o", out,
		"--", rawURL,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		removePartial(out)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.VideoAsset{}, apperr.Acquisition(op, ctxErr, "download timed out")
		}
		return types.VideoAsset{}, apperr.Acquisition(op, fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(b))), "download failed")
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		removePartial(out)
		return types.VideoAsset{}, apperr.Acquisition(op, err, "yt-dlp produced no file")
	}
	return types.VideoAsset{LocalPath: out, SourceURL: rawURL}, nil
}

// Metadata looks up title and duration without downloading.
func (a *Adapter) Metadata(ctx context.Context, rawURL string) (Metadata, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Metadata{}, err
	}
	cmd := exec.CommandContext(ctx, a.bin,
		"--dump-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--", rawURL,
	)
	b, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	m.Title = strings.TrimSpace(m.Title)
	return m, nil
}

func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("invalid url %q: http or https is required", rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: host is required", rawURL)
	}
	return nil
}

func removePartial(out string) {
	_ = os.Remove(out)
	_ = os.Remove(out + ".part")
	_ = os.Remove(out + ".ytdl")
}
