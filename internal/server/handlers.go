package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hookscan/internal/apperr"
	"github.com/forPelevin/hookscan/internal/pipeline"
	"github.com/forPelevin/hookscan/internal/store"
	"github.com/forPelevin/hookscan/internal/types"
)

const storeDisabled = "persistence is disabled"

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	Status string `json:"status"`
	pipeline.Analysis
}

type saveAnalysisRequest struct {
	UserID        string         `json:"user_id"`
	VideoURL      string         `json:"video_url"`
	Transcript    string         `json:"transcript"`
	Hook          map[string]any `json:"hook"`
	ScriptBase    string         `json:"script_base"`
	VideoTitle    string         `json:"video_title"`
	VideoDuration *int           `json:"video_duration"`
	Platform      string         `json:"platform"`
	Metadata      map[string]any `json:"metadata"`
}

type saveAnalysisResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	AnalysisID string `json:"analysis_id"`
}

type generateHooksRequest struct {
	Idea     string `json:"idea"`
	Nicho    string `json:"nicho"`
	Niche    string `json:"niche"`
	Platform string `json:"platform"`
}

type generateHooksResponse struct {
	Status string                `json:"status"`
	Hooks  []types.GeneratedHook `json:"hooks"`
}

type saveHookRequest struct {
	UserID         string         `json:"user_id"`
	IdeaInput      string         `json:"idea_input"`
	HookText       string         `json:"hook_text"`
	HookType       string         `json:"hook_type"`
	RetentionScore *float64       `json:"retention_score"`
	Niche          string         `json:"niche"`
	Metadata       map[string]any `json:"metadata"`
	Notes          string         `json:"notes"`
}

type saveHookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	HookID  string `json:"hook_id"`
}

type listResponse[T any] struct {
	Status string `json:"status"`
	Data   []T    `json:"data"`
	Total  int    `json:"total"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"

	var req analyzeRequest
	if err := s.readJSON(w, r, op, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.respondError(w, r, apperr.Validation(op, "url is required"))
		return
	}

	res, err := s.svc.Analyze(r.Context(), req.URL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, analyzeResponse{Status: "success", Analysis: res})
}

func (s *Server) handleGenerateHooks(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGenerateHooks"

	var req generateHooksRequest
	if err := s.readJSON(w, r, op, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	niche := req.Niche
	if strings.TrimSpace(niche) == "" {
		niche = req.Nicho
	}

	hooks, err := s.svc.GenerateHooks(r.Context(), types.HookRequest{
		Idea:     req.Idea,
		Niche:    niche,
		Platform: req.Platform,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, generateHooksResponse{Status: "success", Hooks: hooks})
}

func (s *Server) handleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveAnalysis"

	if s.store == nil {
		s.respondUnavailable(w, r, storeDisabled)
		return
	}
	var req saveAnalysisRequest
	if err := s.readJSON(w, r, op, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.store.SaveAnalysis(r.Context(), types.AnalysisRecord{
		UserID:        req.UserID,
		VideoURL:      req.VideoURL,
		Transcript:    req.Transcript,
		Hook:          req.Hook,
		ScriptBase:    req.ScriptBase,
		VideoTitle:    req.VideoTitle,
		VideoDuration: req.VideoDuration,
		Platform:      req.Platform,
		Metadata:      req.Metadata,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.log.WithFields(logrus.Fields{"request_id": RequestIDFrom(r.Context()), "analysis_id": rec.ID}).Info("analysis saved")
	s.respond(w, r, http.StatusOK, saveAnalysisResponse{
		Status:     "success",
		Message:    "analysis saved",
		AnalysisID: rec.ID,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListAnalyses"

	if s.store == nil {
		s.respondUnavailable(w, r, storeDisabled)
		return
	}
	userID, page, err := listParams(r, op)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs, total, err := s.store.ListAnalyses(r.Context(), userID, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, listResponse[types.AnalysisRecord]{Status: "success", Data: recs, Total: total})
}

func (s *Server) handleSaveHook(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveHook"

	if s.store == nil {
		s.respondUnavailable(w, r, storeDisabled)
		return
	}
	var req saveHookRequest
	if err := s.readJSON(w, r, op, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.store.SaveHook(r.Context(), types.HookRecord{
		UserID:         req.UserID,
		IdeaInput:      req.IdeaInput,
		HookText:       req.HookText,
		HookType:       req.HookType,
		RetentionScore: req.RetentionScore,
		Niche:          req.Niche,
		Metadata:       req.Metadata,
		Notes:          req.Notes,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, saveHookResponse{
		Status:  "success",
		Message: "hook saved",
		HookID:  rec.ID,
	})
}

func (s *Server) handleListHooks(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListHooks"

	if s.store == nil {
		s.respondUnavailable(w, r, storeDisabled)
		return
	}
	userID, page, err := listParams(r, op)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	recs, total, err := s.store.ListHooks(r.Context(), userID, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, listResponse[types.HookRecord]{Status: "success", Data: recs, Total: total})
}

// listParams reads user_id, limit (1..100, default 50) and offset (>= 0).
func listParams(r *http.Request, op string) (string, types.Page, error) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		return "", types.Page{}, apperr.Validation(op, "user_id is required")
	}
	page := types.Page{Limit: store.DefaultLimit}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > store.MaxLimit {
			return "", types.Page{}, apperr.Validation(op, "limit must be an integer between 1 and 100")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return "", types.Page{}, apperr.Validation(op, "offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return userID, page, nil
}
