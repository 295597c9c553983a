package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

type Refiner interface {
	Refine(ctx context.Context, raw string) string
}

type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (types.AnalysisResult, error)
}

type Deps struct {
	Acquirer    ports.MediaAcquirer
	Extractor   ports.AudioExtractor
	Transcriber ports.Transcriber
	Refiner     Refiner
	Analyzer    Analyzer
	Log         logrus.FieldLogger
}

// Timeouts bound each stage; zero means no stage-level deadline.
type Timeouts struct {
	Acquire    time.Duration
	Extract    time.Duration
	Transcribe time.Duration
	Refine     time.Duration
	Analyze    time.Duration
}

type Usecase struct {
	d Deps
	t Timeouts
}

func New(d Deps, t Timeouts) Usecase {
	if d.Log == nil {
		l := logrus.New()
		l.Out = io.Discard
		d.Log = l
	}
	return Usecase{d: d, t: t}
}

type Input struct {
	URL     string
	WorkDir string
	// OnStage is called on every state transition, terminal ones included.
	OnStage func(types.Stage)
}

type Result struct {
	State         types.Stage          `json:"state"`
	FailedStage   types.Stage          `json:"failed_stage,omitempty"`
	Video         types.VideoAsset     `json:"video"`
	Audio         types.AudioAsset     `json:"audio"`
	RawTranscript string               `json:"raw_transcript,omitempty"`
	Transcript    string               `json:"transcript,omitempty"`
	Analysis      types.AnalysisResult `json:"analysis"`
}

// Run drives one invocation through ACQUIRING, EXTRACTING, TRANSCRIBING,
// REFINING and ANALYZING. The first failing stage moves the run to FAILED
// with that stage's typed error. The extracted audio never outlives
// TRANSCRIBING; the video is left for the caller.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	res := Result{}
	log := u.d.Log.WithField("url", in.URL)
	enter := func(s types.Stage) {
		res.State = s
		log.WithField("stage", s).Debug("stage")
		if in.OnStage != nil {
			in.OnStage(s)
		}
	}
	fail := func(s types.Stage, err error) (Result, error) {
		res.FailedStage = s
		enter(types.StageFailed)
		log.WithFields(logrus.Fields{"stage": s, "kind": apperr.KindOf(err)}).WithError(err).Warn("pipeline failed")
		return res, err
	}

	enter(types.StageAcquiring)
	if strings.TrimSpace(in.URL) == "" {
		return fail(types.StageAcquiring, apperr.Validation("usecase.Run", "url is empty"))
	}
	err := u.run(ctx, types.StageAcquiring, u.t.Acquire, func(ctx context.Context) error {
		v, err := u.d.Acquirer.Acquire(ctx, in.URL, in.WorkDir)
		res.Video = v
		return err
	})
	if err != nil {
		return fail(types.StageAcquiring, err)
	}

	enter(types.StageExtracting)
	err = u.run(ctx, types.StageExtracting, u.t.Extract, func(ctx context.Context) error {
		a, err := u.d.Extractor.Extract(ctx, res.Video)
		res.Audio = a
		return err
	})
	if err != nil {
		return fail(types.StageExtracting, err)
	}

	enter(types.StageTranscribing)
	err = u.run(ctx, types.StageTranscribing, u.t.Transcribe, func(ctx context.Context) error {
		defer u.removeAudio(log, res.Audio)
		text, err := u.d.Transcriber.Transcribe(ctx, res.Audio)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return apperr.Transcription("usecase.Run", nil, "empty transcript")
		}
		res.RawTranscript = text
		return nil
	})
	if err != nil {
		return fail(types.StageTranscribing, err)
	}

	enter(types.StageRefining)
	res.Transcript = res.RawTranscript
	if u.d.Refiner != nil {
		_ = u.run(ctx, types.StageRefining, u.t.Refine, func(ctx context.Context) error {
			res.Transcript = u.d.Refiner.Refine(ctx, res.RawTranscript)
			return nil
		})
	}

	enter(types.StageAnalyzing)
	err = u.run(ctx, types.StageAnalyzing, u.t.Analyze, func(ctx context.Context) error {
		a, err := u.d.Analyzer.Analyze(ctx, res.Transcript)
		res.Analysis = a
		return err
	})
	if err != nil {
		return fail(types.StageAnalyzing, err)
	}

	enter(types.StageDone)
	return res, nil
}

// run executes one stage under its timeout and types any error it returns.
func (u Usecase) run(ctx context.Context, s types.Stage, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	op := "usecase." + strings.ToLower(string(s))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var typed *apperr.Error
		if !errors.As(err, &typed) {
			return apperr.E(kindFor(s), op, err, fmt.Sprintf("timed out after %s", timeout))
		}
	}
	return apperr.Classify(err, kindFor(s), op, "stage failed")
}

func (u Usecase) removeAudio(log logrus.FieldLogger, a types.AudioAsset) {
	if a.LocalPath == "" {
		return
	}
	if err := os.Remove(a.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).WithField("path", a.LocalPath).Warn("remove audio")
	}
}

func kindFor(s types.Stage) apperr.Kind {
	switch s {
	case types.StageAcquiring:
		return apperr.KindAcquisition
	case types.StageExtracting:
		return apperr.KindExtraction
	case types.StageTranscribing:
		return apperr.KindTranscription
	case types.StageAnalyzing:
		return apperr.KindAnalysis
	default:
		return apperr.KindInternal
	}
}
