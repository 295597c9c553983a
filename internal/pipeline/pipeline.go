package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/config"
	"github.com/forPelevin/hookscan/internal/domain/analysis"
	"github.com/forPelevin/hookscan/internal/domain/hooks"
	"github.com/forPelevin/hookscan/internal/domain/refine"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hookscan/internal/ports/adapters/gemini"
	"github.com/forPelevin/hookscan/internal/ports/adapters/openaiapi"
	"github.com/forPelevin/hookscan/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hookscan/internal/ports/adapters/s3archive"
	"github.com/forPelevin/hookscan/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/hookscan/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/hookscan/internal/types"
	"github.com/forPelevin/hookscan/internal/usecase"
)

const (
	metadataTimeout = 30 * time.Second
	archiveTimeout  = 30 * time.Second
	maxSlugLen      = 48
)

type runner interface {
	Run(ctx context.Context, in usecase.Input) (usecase.Result, error)
}

type metadataLookup interface {
	Metadata(ctx context.Context, rawURL string) (ytdlp.Metadata, error)
}

type hookGenerator interface {
	Generate(ctx context.Context, req types.HookRequest) ([]types.GeneratedHook, error)
}

// Analysis is what one successful pipeline invocation returns to callers.
type Analysis struct {
	Transcript    string     `json:"transcript"`
	Hook          types.Hook `json:"hook"`
	ScriptBase    string     `json:"script_base"`
	VideoTitle    string     `json:"video_title,omitempty"`
	VideoDuration *int       `json:"video_duration,omitempty"`
}

// archivedAnalysis is the document written to the archive after DONE.
type archivedAnalysis struct {
	RunID     string    `json:"run_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Analysis
}

type Pipeline struct {
	log         logrus.FieldLogger
	uc          runner
	meta        metadataLookup
	prober      ports.DurationProber
	hooks       hookGenerator
	archive     ports.Archiver
	downloadDir string
	keep        bool
	hookTimeout time.Duration
	now         func() time.Time
}

// New builds every adapter the configuration selects.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	acq := ytdlp.New(cfg.Media.YtDlpPath, cfg.Media.YtDlpFormat)
	media := ffmpeg.New(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

	var asr ports.Transcriber
	switch cfg.Transcription.Backend {
	case config.BackendCloud:
		asr = openaiapi.NewTranscriber(openaiapi.Options{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Timeout: cfg.Timeouts.Transcribe,
		}, cfg.LLM.OpenAI.TranscribeModel, cfg.Transcription.Language)
	default:
		asr = whispercpp.New(cfg.Transcription.WhisperCLIPath, cfg.Transcription.WhisperModelPath, cfg.Transcription.Language)
	}

	llm, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.CompletionModel()

	refiner := refine.New(llm, model, log)
	var preRefine analysis.Refiner
	analyzeTimeout := cfg.Timeouts.Complete
	if cfg.LLM.RefineBeforeAnalysis {
		preRefine = refiner
		analyzeTimeout *= 2
	}

	uc := usecase.New(usecase.Deps{
		Acquirer:    acq,
		Extractor:   media,
		Transcriber: asr,
		Refiner:     refiner,
		Analyzer:    analysis.New(llm, preRefine, model, log),
		Log:         log,
	}, usecase.Timeouts{
		Acquire:    cfg.Timeouts.Acquire,
		Extract:    cfg.Timeouts.Extract,
		Transcribe: cfg.Timeouts.Transcribe,
		Refine:     cfg.Timeouts.Complete,
		Analyze:    analyzeTimeout,
	})

	p := &Pipeline{
		log:         log,
		uc:          uc,
		meta:        acq,
		prober:      media,
		hooks:       hooks.New(llm, model, log),
		downloadDir: cfg.Media.DownloadDir,
		keep:        cfg.Media.KeepDownloads,
		hookTimeout: cfg.Timeouts.Complete,
		now:         time.Now,
	}

	if cfg.Archive.Enabled {
		a, err := s3archive.New(ctx, s3archive.Config{
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			Bucket:    cfg.Archive.Bucket,
			Prefix:    cfg.Archive.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		p.archive = a
	}
	return p, nil
}

// NewCompleter returns the completion backend for cfg.LLM.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (ports.Completer, error) {
	l := cfg.LLM
	switch l.Provider {
	case config.ProviderOpenRouter:
		return openrouter.New(l.OpenRouter.APIKey, l.OpenRouter.Model, l.OpenRouter.BaseURL, cfg.Timeouts.Complete), nil
	case config.ProviderGemini:
		g, err := gemini.New(ctx, gemini.Options{
			APIKey:  l.Gemini.APIKey,
			Model:   l.Gemini.Model,
			BaseURL: l.Gemini.BaseURL,
			Timeout: cfg.Timeouts.Complete,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return g, nil
	case config.ProviderOpenAI, "":
		return openaiapi.NewChat(openaiapi.Options{
			APIKey:  l.OpenAI.APIKey,
			BaseURL: l.OpenAI.BaseURL,
			Timeout: cfg.Timeouts.Complete,
		}, l.OpenAI.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", l.Provider)
	}
}

// Analyze runs one invocation in its own work dir under the download dir.
// The work dir, video included, is removed afterwards unless downloads are
// kept.
func (p *Pipeline) Analyze(ctx context.Context, rawURL string) (Analysis, error) {
	const op = "pipeline.Analyze"

	rawURL = strings.TrimSpace(rawURL)
	if err := ytdlp.ValidateURL(rawURL); err != nil {
		return Analysis{}, apperr.Validation(op, err.Error())
	}

	now := p.now().UTC()
	workDir, err := createRunDir(p.downloadDir, func() string { return buildRunDir(p.downloadDir, rawURL, now) })
	if err != nil {
		return Analysis{}, apperr.Internal(op, err, "create work dir")
	}
	log := p.log.WithFields(logrus.Fields{"url": rawURL, "run": filepath.Base(workDir)})
	if !p.keep {
		defer func() {
			if err := os.RemoveAll(workDir); err != nil {
				log.WithError(err).Warn("failed to remove work dir")
			}
		}()
	}

	metaCtx, cancelMeta := context.WithTimeout(ctx, metadataTimeout)
	defer cancelMeta()
	metaCh := make(chan ytdlp.Metadata, 1)
	if p.meta != nil {
		go func() {
			m, err := p.meta.Metadata(metaCtx, rawURL)
			if err != nil {
				log.WithError(err).Debug("metadata lookup failed")
			}
			metaCh <- m
		}()
	} else {
		metaCh <- ytdlp.Metadata{}
	}

	start := time.Now()
	res, err := p.uc.Run(ctx, usecase.Input{URL: rawURL, WorkDir: workDir})
	if err != nil {
		return Analysis{}, err
	}
	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("analysis done")

	out := Analysis{
		Transcript: res.Transcript,
		Hook:       res.Analysis.Hook,
		ScriptBase: res.Analysis.ScriptBase,
	}
	m := <-metaCh
	out.VideoTitle = m.Title
	if m.Duration > 0 {
		d := int(math.Round(m.Duration))
		out.VideoDuration = &d
	} else if p.prober != nil && res.Video.LocalPath != "" {
		if d, err := p.prober.ProbeDuration(ctx, res.Video.LocalPath); err == nil {
			secs := int(math.Round(d.Seconds()))
			out.VideoDuration = &secs
		} else {
			log.WithError(err).Debug("duration probe failed")
		}
	}

	p.archiveResult(ctx, log, archivedAnalysis{
		RunID:     filepath.Base(workDir),
		URL:       rawURL,
		CreatedAt: now,
		Analysis:  out,
	})
	return out, nil
}

// GenerateHooks produces ranked hook candidates for an idea.
func (p *Pipeline) GenerateHooks(ctx context.Context, req types.HookRequest) ([]types.GeneratedHook, error) {
	if p.hookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.hookTimeout)
		defer cancel()
	}
	return p.hooks.Generate(ctx, req)
}

func (p *Pipeline) archiveResult(ctx context.Context, log logrus.FieldLogger, doc archivedAnalysis) {
	if p.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	key := doc.CreatedAt.Format("2006/01/02") + "/" + doc.RunID + ".json"
	if err := p.archive.Put(ctx, key, doc); err != nil {
		log.WithError(err).Warn("archive failed")
		return
	}
	log.WithField("key", key).Debug("analysis archived")
}

// buildRunDir names a per-invocation work dir after the URL's host and path.
func buildRunDir(root, rawURL string, now time.Time) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = normalizePathSegment(strings.TrimPrefix(strings.ToLower(u.Host), "www.") + " " + u.Path)
	}
	if len(name) > maxSlugLen {
		name = strings.TrimRight(name[:maxSlugLen], "-")
	}
	if name == "" {
		name = "video"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d|%s", rawURL, now.UTC().UnixNano(), uuid.NewString())
	suffix := hash(runSeed)[:6]
	return filepath.Join(root, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

// createRunDir creates a fresh directory named by next under root. An
// existing directory is never reused, since the run that owns it removes it.
func createRunDir(root string, next func() string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	for i := 0; i < 3; i++ {
		dir := next()
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", errors.New("no unused run directory name")
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
