package ports

import (
	"context"
	"time"

	"github.com/forPelevin/hookscan/internal/types"
)

type MediaAcquirer interface {
	Acquire(ctx context.Context, url, dir string) (types.VideoAsset, error)
}

type AudioExtractor interface {
	Extract(ctx context.Context, video types.VideoAsset) (types.AudioAsset, error)
}

type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio types.AudioAsset) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, req types.CompletionRequest) (string, error)
}

type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, rec types.AnalysisRecord) (types.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, userID string, page types.Page) ([]types.AnalysisRecord, int, error)
}

type HookStore interface {
	SaveHook(ctx context.Context, rec types.HookRecord) (types.HookRecord, error)
	ListHooks(ctx context.Context, userID string, page types.Page) ([]types.HookRecord, int, error)
}

type Archiver interface {
	Put(ctx context.Context, key string, v any) error
}
