package store

import (
	"testing"
	"time"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/types"
)

func TestPrepareAnalysis(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	neg := -1

	tests := []struct {
		name    string
		rec     types.AnalysisRecord
		wantErr string
	}{
		{name: "ok", rec: types.AnalysisRecord{UserID: " u1 ", VideoURL: "https://youtu.be/x"}},
		{name: "blank user", rec: types.AnalysisRecord{UserID: "  ", VideoURL: "https://youtu.be/x"}, wantErr: "user_id is required"},
		{name: "blank url", rec: types.AnalysisRecord{UserID: "u1"}, wantErr: "video_url is required"},
		{name: "negative duration", rec: types.AnalysisRecord{UserID: "u1", VideoURL: "u", VideoDuration: &neg}, wantErr: "video_duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareAnalysis("test", tt.rec, now)
			if tt.wantErr != "" {
				if !apperr.Is(err, apperr.KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if got.ID == "" || got.UserID != "u1" {
				t.Fatalf("unexpected record %+v", got)
			}
			if !got.CreatedAt.Equal(now) || got.CreatedAt.Location() != time.UTC || !got.UpdatedAt.Equal(got.CreatedAt) {
				t.Fatalf("unexpected timestamps %v %v", got.CreatedAt, got.UpdatedAt)
			}
		})
	}
}

func TestPrepareHook(t *testing.T) {
	over := 101.0
	ok := types.HookRecord{UserID: "u", IdeaInput: "idea", HookText: "hook"}

	if _, err := PrepareHook("test", ok, time.Now()); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for _, bad := range []types.HookRecord{
		{IdeaInput: "idea", HookText: "hook"},
		{UserID: "u", HookText: "hook"},
		{UserID: "u", IdeaInput: "idea", HookText: " "},
		{UserID: "u", IdeaInput: "idea", HookText: "hook", RetentionScore: &over},
	} {
		if _, err := PrepareHook("test", bad, time.Now()); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%+v: expected validation error, got %v", bad, err)
		}
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		in, want types.Page
	}{
		{types.Page{}, types.Page{Limit: DefaultLimit}},
		{types.Page{Limit: 500, Offset: -3}, types.Page{Limit: MaxLimit}},
		{types.Page{Limit: 10, Offset: 20}, types.Page{Limit: 10, Offset: 20}},
	}
	for _, tt := range tests {
		if got := NormalizePage(tt.in); got != tt.want {
			t.Fatalf("NormalizePage(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestJSONColumns(t *testing.T) {
	b, err := EncodeJSON(nil)
	if err != nil || b != nil {
		t.Fatalf("nil map must encode to NULL, got %q %v", b, err)
	}
	m, err := DecodeJSON([]byte(`{"general":"Deja de ____"}`))
	if err != nil || m["general"] != "Deja de ____" {
		t.Fatalf("decode: %v %v", m, err)
	}
	if _, err := DecodeJSON([]byte(`[1`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
