// Package store holds the record rules shared by the persistence drivers.
package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/ports"
	"github.com/forPelevin/hookscan/internal/types"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Store is what the HTTP layer needs from a persistence driver.
type Store interface {
	ports.AnalysisStore
	ports.HookStore
	Close() error
}

// PrepareAnalysis validates rec and stamps it with a fresh ID and timestamps.
func PrepareAnalysis(op string, rec types.AnalysisRecord, now time.Time) (types.AnalysisRecord, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.VideoURL = strings.TrimSpace(rec.VideoURL)
	if rec.UserID == "" {
		return rec, apperr.Validation(op, "user_id is required")
	}
	if rec.VideoURL == "" {
		return rec, apperr.Validation(op, "video_url is required")
	}
	if rec.VideoDuration != nil && *rec.VideoDuration < 0 {
		return rec, apperr.Validation(op, "video_duration must not be negative")
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = now.UTC()
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}

// PrepareHook validates rec and stamps it with a fresh ID and timestamps.
func PrepareHook(op string, rec types.HookRecord, now time.Time) (types.HookRecord, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.IdeaInput = strings.TrimSpace(rec.IdeaInput)
	rec.HookText = strings.TrimSpace(rec.HookText)
	switch {
	case rec.UserID == "":
		return rec, apperr.Validation(op, "user_id is required")
	case rec.IdeaInput == "":
		return rec, apperr.Validation(op, "idea_input is required")
	case rec.HookText == "":
		return rec, apperr.Validation(op, "hook_text is required")
	}
	if rec.RetentionScore != nil && (*rec.RetentionScore < 0 || *rec.RetentionScore > 100) {
		return rec, apperr.Validation(op, "retention_score must be between 0 and 100")
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = now.UTC()
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}

// NormalizePage clamps limit to 1..MaxLimit (DefaultLimit when unset) and
// offset to >= 0.
func NormalizePage(p types.Page) types.Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// RequireUser rejects list queries without a user.
func RequireUser(op, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperr.Validation(op, "user_id is required")
	}
	return userID, nil
}

// EncodeJSON marshals an optional JSON object column. Nil maps are stored as NULL.
func EncodeJSON(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode json column")
	}
	return b, nil
}

// DecodeJSON is the inverse of EncodeJSON.
func DecodeJSON(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "decode json column")
	}
	return m, nil
}
