// Package sqlite is the default persistence driver for analyses and hooks.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/store"
	"github.com/forPelevin/hookscan/internal/types"
)

var _ store.Store = (*Store)(nil)

const saveAttempts = 3

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveAnalysis(ctx context.Context, rec types.AnalysisRecord) (types.AnalysisRecord, error) {
	const op = "sqlite.SaveAnalysis"

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
	var duration sql.NullInt64
	if rec.VideoDuration != nil {
		duration = sql.NullInt64{Int64: int64(*rec.VideoDuration), Valid: true}
	}

	err = s.withLockRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, insertAnalysisQuery,
			rec.ID,
			rec.UserID,
			rec.VideoURL,
			nullString(rec.Transcript),
			nullBytes(hook),
			nullString(rec.ScriptBase),
			nullString(rec.VideoTitle),
			duration,
			nullString(rec.Platform),
			nullBytes(meta),
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return types.AnalysisRecord{}, apperr.Internal(op, errors.Wrap(err, "insert video_analyses"), "failed to save analysis")
	}
	return rec, nil
}

func (s *Store) ListAnalyses(ctx context.Context, userID string, page types.Page) ([]types.AnalysisRecord, int, error) {
	const op = "sqlite.ListAnalyses"

	userID, err := store.RequireUser(op, userID)
	if err != nil {
		return nil, 0, err
	}
	page = store.NormalizePage(page)

	var total int
	if err := s.db.QueryRowContext(ctx, countAnalysesQuery, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "count video_analyses"), "failed to list analyses")
	}

	rows, err := s.db.QueryContext(ctx, listAnalysesQuery, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "query video_analyses"), "failed to list analyses")
	}
	defer rows.Close()

	out := make([]types.AnalysisRecord, 0, page.Limit)
	for rows.Next() {
		var (
			rec                                     types.AnalysisRecord
			transcript, scriptBase, title, platform sql.NullString
			hook, meta                              []byte
			duration                                sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.VideoURL,
			&transcript,
			&hook,
			&scriptBase,
			&title,
			&duration,
			&platform,
			&meta,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Internal(op, errors.Wrap(err, "scan video_analyses"), "failed to list analyses")
		}
		rec.Transcript = transcript.String
		rec.ScriptBase = scriptBase.String
		rec.VideoTitle = title.String
		rec.Platform = platform.String
		if duration.Valid {
			d := int(duration.Int64)
			rec.VideoDuration = &d
		}
		if rec.Hook, err = store.DecodeJSON(hook); err != nil {
			return nil, 0, apperr.Internal(op, err, "failed to list analyses")
		}
		if rec.Metadata, err = store.DecodeJSON(meta); err != nil {
			return nil, 0, apperr.Internal(op, err, "failed to list analyses")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "iterate video_analyses"), "failed to list analyses")
	}
	return out, total, nil
}

func (s *Store) SaveHook(ctx context.Context, rec types.HookRecord) (types.HookRecord, error) {
	const op = "sqlite.SaveHook"

	rec, err := store.PrepareHook(op, rec, s.now())
	if err != nil {
		return types.HookRecord{}, err
	}
	meta, err := store.EncodeJSON(rec.Metadata)
	if err != nil {
		return types.HookRecord{}, apperr.Validation(op, "metadata is not valid JSON")
	}
	var score sql.NullFloat64
	if rec.RetentionScore != nil {
		score = sql.NullFloat64{Float64: *rec.RetentionScore, Valid: true}
	}

	err = s.withLockRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, insertHookQuery,
			rec.ID,
			rec.UserID,
			rec.IdeaInput,
			rec.HookText,
			nullString(rec.HookType),
			score,
			nullString(rec.Niche),
			nullBytes(meta),
			nullString(rec.Notes),
			rec.CreatedAt,
			rec.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return types.HookRecord{}, apperr.Internal(op, errors.Wrap(err, "insert viral_hooks"), "failed to save hook")
	}
	return rec, nil
}

func (s *Store) ListHooks(ctx context.Context, userID string, page types.Page) ([]types.HookRecord, int, error) {
	const op = "sqlite.ListHooks"

	userID, err := store.RequireUser(op, userID)
	if err != nil {
		return nil, 0, err
	}
	page = store.NormalizePage(page)

	var total int
	if err := s.db.QueryRowContext(ctx, countHooksQuery, userID).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "count viral_hooks"), "failed to list hooks")
	}

	rows, err := s.db.QueryContext(ctx, listHooksQuery, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "query viral_hooks"), "failed to list hooks")
	}
	defer rows.Close()

	out := make([]types.HookRecord, 0, page.Limit)
	for rows.Next() {
		var (
			rec                    types.HookRecord
			hookType, niche, notes sql.NullString
			score                  sql.NullFloat64
			meta                   []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.IdeaInput,
			&rec.HookText,
			&hookType,
			&score,
			&niche,
			&meta,
			&notes,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Internal(op, errors.Wrap(err, "scan viral_hooks"), "failed to list hooks")
		}
		rec.HookType = hookType.String
		rec.Niche = niche.String
		rec.Notes = notes.String
		if score.Valid {
			v := score.Float64
			rec.RetentionScore = &v
		}
		if rec.Metadata, err = store.DecodeJSON(meta); err != nil {
			return nil, 0, apperr.Internal(op, err, "failed to list hooks")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(op, errors.Wrap(err, "iterate viral_hooks"), "failed to list hooks")
	}
	return out, total, nil
}

func (s *Store) withLockRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < saveAttempts; i++ {
		if err = fn(); err == nil || !isLockError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return errors.Wrapf(err, "still locked after %d attempts", saveAttempts)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
