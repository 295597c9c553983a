package types

import (
	"strings"
	"time"
)

// BlankToken marks a user-fillable slot in generated text.
const BlankToken = "____"

type VideoAsset struct {
	LocalPath string `json:"local_path"`
	SourceURL string `json:"source_url"`
}

type AudioAsset struct {
	LocalPath  string `json:"local_path"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type Hook struct {
	General     string   `json:"general"`
	UsedInVideo string   `json:"used_in_video"`
	Type        string   `json:"type"`
	Category    HookType `json:"category"`
}

type AnalysisResult struct {
	Hook       Hook   `json:"hook"`
	ScriptBase string `json:"script_base"`
}

// HookType classifies the free-text hook type returned for a video analysis.
type HookType string

const (
	HookEmotional     HookType = "emotional"
	HookSurprise      HookType = "surprise"
	HookCuriosity     HookType = "curiosity"
	HookChallenge     HookType = "challenge"
	HookContradiction HookType = "contradiction"
	HookRational      HookType = "rational"
	HookControversial HookType = "controversial"
	HookOther         HookType = "other"
)

var hookTypeSynonyms = map[string]HookType{
	"emotional":     HookEmotional,
	"emocional":     HookEmotional,
	"emotivo":       HookEmotional,
	"surprise":      HookSurprise,
	"sorpresa":      HookSurprise,
	"curiosity":     HookCuriosity,
	"curiosidad":    HookCuriosity,
	"challenge":     HookChallenge,
	"reto":          HookChallenge,
	"desafio":       HookChallenge,
	"desafío":       HookChallenge,
	"contradiction": HookContradiction,
	"contradiccion": HookContradiction,
	"contradicción": HookContradiction,
	"rational":      HookRational,
	"racional":      HookRational,
	"controversial": HookControversial,
	"polemico":      HookControversial,
	"polémico":      HookControversial,
}

// ParseHookType maps a model-provided label to a HookType. Compound labels
// such as "curiosidad / sorpresa" resolve to their first known word.
func ParseHookType(s string) HookType {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := hookTypeSynonyms[s]; ok {
		return t
	}
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '-' || r == '(' || r == ')' || r == '+'
	}) {
		if t, ok := hookTypeSynonyms[w]; ok {
			return t
		}
	}
	return HookOther
}

// HookCategory is one of the five rhetorical categories requested from the
// hook generator.
type HookCategory string

const (
	CategoryEmotional     HookCategory = "emotional"
	CategoryRational      HookCategory = "rational"
	CategorySurprise      HookCategory = "surprise"
	CategoryControversial HookCategory = "controversial"
	CategoryCuriosity     HookCategory = "curiosity"
	CategoryOther         HookCategory = "other"
)

var HookCategories = []HookCategory{
	CategoryEmotional,
	CategoryRational,
	CategorySurprise,
	CategoryControversial,
	CategoryCuriosity,
}

func ParseHookCategory(s string) HookCategory {
	switch ParseHookType(s) {
	case HookEmotional:
		return CategoryEmotional
	case HookRational:
		return CategoryRational
	case HookSurprise:
		return CategorySurprise
	case HookControversial:
		return CategoryControversial
	case HookCuriosity:
		return CategoryCuriosity
	default:
		return CategoryOther
	}
}

type GeneratedHook struct {
	Text           string       `json:"text"`
	Type           HookCategory `json:"type"`
	RetentionScore float64      `json:"retention_score"`
	Description    string       `json:"description,omitempty"`
}

type HookRequest struct {
	Idea     string
	Niche    string
	Platform string
}

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
)

// ParsePlatform is case-insensitive; ok is false for blank or unknown input.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiktok":
		return PlatformTikTok, true
	case "instagram":
		return PlatformInstagram, true
	case "twitter", "x":
		return PlatformTwitter, true
	case "linkedin":
		return PlatformLinkedIn, true
	case "facebook":
		return PlatformFacebook, true
	default:
		return "", false
	}
}

// Stage is a pipeline state.
type Stage string

const (
	StageAcquiring    Stage = "ACQUIRING"
	StageExtracting   Stage = "EXTRACTING"
	StageTranscribing Stage = "TRANSCRIBING"
	StageRefining     Stage = "REFINING"
	StageAnalyzing    Stage = "ANALYZING"
	StageDone         Stage = "DONE"
	StageFailed       Stage = "FAILED"
)

func (s Stage) Terminal() bool { return s == StageDone || s == StageFailed }

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type CompletionRequest struct {
	Model           string
	Messages        []Message
	Temperature     float32
	MaxOutputTokens int
	JSONMode        bool
}

type Page struct {
	Limit  int
	Offset int
}

type AnalysisRecord struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	VideoURL      string         `json:"video_url"`
	Transcript    string         `json:"transcript,omitempty"`
	Hook          map[string]any `json:"hook,omitempty"`
	ScriptBase    string         `json:"script_base,omitempty"`
	VideoTitle    string         `json:"video_title,omitempty"`
	VideoDuration *int           `json:"video_duration,omitempty"`
	Platform      string         `json:"platform,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type HookRecord struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	IdeaInput      string         `json:"idea_input"`
	HookText       string         `json:"hook_text"`
	HookType       string         `json:"hook_type,omitempty"`
	RetentionScore *float64       `json:"retention_score,omitempty"`
	Niche          string         `json:"niche,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
