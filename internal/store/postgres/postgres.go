// Package postgres stores analyses and hooks in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/store"
	"github.com/forPelevin/hookscan/internal/types"
)

var _ store.Store = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS video_analyses (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        video_url TEXT NOT NULL,
        transcript TEXT,
        hook JSONB,
        script_base TEXT,
        video_title TEXT,
        video_duration INTEGER,
        platform TEXT,
        metadata JSONB,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_video_analyses_user_created ON video_analyses(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS viral_hooks (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        idea_input TEXT NOT NULL,
        hook_text TEXT NOT NULL,
        hook_type TEXT,
        retention_score DOUBLE PRECISION,
        niche TEXT,
        metadata JSONB,
        notes TEXT,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_viral_hooks_user_created ON viral_hooks(user_id, created_at DESC)`,
}

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects to databaseURL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	const op = "postgres.Open"

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperr.Internal(op, err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Internal(op, err, "failed to connect to database")
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, apperr.Internal(op, errors.Wrap(err, "ensure schema"), "failed to apply schema")
		}
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) SaveAnalysis(ctx context.Context, rec types.AnalysisRecord) (types.AnalysisRecord, error) {
	const op = "postgres.SaveAnalysis"

	rec, err := store.PrepareAnalysis(op, rec, s.now())
	if err != nil {
		return types.AnalysisRecord{}, err
	}
	hook, err := store.EncodeJSON(rec.Hook)
	if err != nil {
		return types.AnalysisRecord{}, apperr.Validation(op, "hook is not valid JSON")
	}
	meta, err := store.EncodeJSON(rec.Metadata)
	if err != nil {
		return types.AnalysisRecord{}, apperr.Validation(op, "metadata is not valid JSON")
	}

	_, err = s.pool.Exec(ctx, `
        INSERT INTO video_analyses (
            id, user_id, video_url, transcript, hook, script_base,
            video_title, video_duration, platform, metadata, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID,
		rec.UserID,
		rec.VideoURL,
		nullable(rec.Transcript),
		jsonParam(hook),
		nullable(rec.ScriptBase),
		nullable(rec.VideoTitle),
		rec.VideoDuration,
		nullable(rec.Platform),
		jsonParam(meta),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return types.AnalysisRecord{}, apperr.Internal(op, errors.Wrap(err, "insert video_analyses"), "failed to save analysis")
	}
	return rec, nil
}

func (s *Store) ListAnalyses(ctx context.Context, userID string, page types.Page) ([]types.AnalysisRecord, int, error) {
	const op = "postgres.ListAnalyses"

	userID, err := store.RequireUser(op, userID)
	if err != nil {
		return nil, 0, err
	}
	page = store.NormalizePage(page)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM video_analyses WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "count video_analyses"), "failed to list analyses")
	}

	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, video_url, transcript, hook, script_base,
               video_title, video_duration, platform, metadata, created_at, updated_at
        FROM video_analyses
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "query video_analyses"), "failed to list analyses")
	}
	out, err := pgx.CollectRows(rows, scanAnalysis)
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "scan video_analyses"), "failed to list analyses")
	}
	return out, total, nil
}

func scanAnalysis(row pgx.CollectableRow) (types.AnalysisRecord, error) {
	var (
		rec                                     types.AnalysisRecord
		transcript, scriptBase, title, platform *string
		hook, meta                              []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.VideoURL,
		&transcript,
		&hook,
		&scriptBase,
		&title,
		&rec.VideoDuration,
		&platform,
		&meta,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return rec, err
	}
	rec.Transcript = deref(transcript)
	rec.ScriptBase = deref(scriptBase)
	rec.VideoTitle = deref(title)
	rec.Platform = deref(platform)
	var err error
	if rec.Hook, err = store.DecodeJSON(hook); err != nil {
		return rec, err
	}
	rec.Metadata, err = store.DecodeJSON(meta)
	return rec, err
}

func (s *Store) SaveHook(ctx context.Context, rec types.HookRecord) (types.HookRecord, error) {
	const op = "postgres.SaveHook"

	rec, err := store.PrepareHook(op, rec, s.now())
	if err != nil {
		return types.HookRecord{}, err
	}
	meta, err := store.EncodeJSON(rec.Metadata)
	if err != nil {
		return types.HookRecord{}, apperr.Validation(op, "metadata is not valid JSON")
	}

	_, err = s.pool.Exec(ctx, `
        INSERT INTO viral_hooks (
            id, user_id, idea_input, hook_text, hook_type, retention_score,
            niche, metadata, notes, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID,
		rec.UserID,
		rec.IdeaInput,
		rec.HookText,
		nullable(rec.HookType),
		rec.RetentionScore,
		nullable(rec.Niche),
		jsonParam(meta),
		nullable(rec.Notes),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return types.HookRecord{}, apperr.Internal(op, errors.Wrap(err, "insert viral_hooks"), "failed to save hook")
	}
	return rec, nil
}

func (s *Store) ListHooks(ctx context.Context, userID string, page types.Page) ([]types.HookRecord, int, error) {
	const op = "postgres.ListHooks"

	userID, err := store.RequireUser(op, userID)
	if err != nil {
		return nil, 0, err
	}
	page = store.NormalizePage(page)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM viral_hooks WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "count viral_hooks"), "failed to list hooks")
	}

	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, idea_input, hook_text, hook_type, retention_score,
               niche, metadata, notes, created_at, updated_at
        FROM viral_hooks
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "query viral_hooks"), "failed to list hooks")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.HookRecord, error) {
		var (
			rec                    types.HookRecord
			hookType, niche, notes *string
			meta                   []byte
		)
		if err := row.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.IdeaInput,
			&rec.HookText,
			&hookType,
			&rec.RetentionScore,
			&niche,
			&meta,
			&notes,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return rec, err
		}
		rec.HookType = deref(hookType)
		rec.Niche = deref(niche)
		rec.Notes = deref(notes)
		var err error
		rec.Metadata, err = store.DecodeJSON(meta)
		return rec, err
	})
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "scan viral_hooks"), "failed to list hooks")
	}
	return out, total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// jsonParam sends encoded JSON as text so pgx casts it to jsonb.
func jsonParam(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
