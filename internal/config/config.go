package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/hookscan/internal/ports/adapters/endpoint"
	"github.com/forPelevin/hookscan/internal/ports/adapters/openaiapi"
	"github.com/forPelevin/hookscan/internal/ports/adapters/openrouter"
)

const (
	BackendLocal = "local"
	BackendCloud = "cloud"

	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Media         MediaConfig         `yaml:"media"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	LLM           LLMConfig           `yaml:"llm"`
	Timeouts      TimeoutConfig       `yaml:"timeouts"`
	Store         StoreConfig         `yaml:"store"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Janitor       JanitorConfig       `yaml:"janitor"`
}

type ServerConfig struct {
	Host            string          `yaml:"host"`
	Port            int             `yaml:"port"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	CORS            CORSConfig      `yaml:"cors"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	BurstSize         int  `yaml:"burst_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File enables a rotating log file next to stdout.
	File string `yaml:"file"`
}

type MediaConfig struct {
	DownloadDir   string `yaml:"download_dir"`
	KeepDownloads bool   `yaml:"keep_downloads"`
	YtDlpPath     string `yaml:"ytdlp_path"`
	YtDlpFormat   string `yaml:"ytdlp_format"`
	FFmpegPath    string `yaml:"ffmpeg_path"`
	FFprobePath   string `yaml:"ffprobe_path"`
}

type TranscriptionConfig struct {
	Backend          string `yaml:"backend"`
	WhisperCLIPath   string `yaml:"whisper_cli_path"`
	WhisperModelPath string `yaml:"whisper_model_path"`
	Language         string `yaml:"language"`
}

type LLMConfig struct {
	Provider             string           `yaml:"provider"`
	RefineBeforeAnalysis bool             `yaml:"refine_before_analysis"`
	OpenAI               OpenAIConfig     `yaml:"openai"`
	OpenRouter           OpenRouterConfig `yaml:"openrouter"`
	Gemini               GeminiConfig     `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKey          string   `yaml:"api_key"`
	Model           string   `yaml:"model"`
	TranscribeModel string   `yaml:"transcribe_model"`
	BaseURL         string   `yaml:"base_url"`
	AllowedHosts    []string `yaml:"allowed_hosts"`
}

type OpenRouterConfig struct {
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type TimeoutConfig struct {
	Acquire    time.Duration `yaml:"acquire"`
	Extract    time.Duration `yaml:"extract"`
	Transcribe time.Duration `yaml:"transcribe"`
	Complete   time.Duration `yaml:"complete"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
}

type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type JanitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	MaxAge   time.Duration `yaml:"max_age"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    20 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
				MaxAge:         86400,
			},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerMinute: 30, BurstSize: 5},
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Media: MediaConfig{
			DownloadDir: "downloads",
			YtDlpPath:   "yt-dlp",
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Transcription: TranscriptionConfig{
			Backend:          BackendLocal,
			WhisperCLIPath:   "./whisper.cpp/build/bin/whisper-cli",
			WhisperModelPath: "./whisper.cpp/models/ggml-base.bin",
			Language:         "es",
		},
		LLM: LLMConfig{
			Provider:             ProviderOpenAI,
			RefineBeforeAnalysis: true,
			OpenAI: OpenAIConfig{
				Model:           openaiapi.DefaultChatModel,
				TranscribeModel: openaiapi.DefaultTranscribeModel,
			},
			OpenRouter: OpenRouterConfig{Model: openrouter.DefaultModel},
			Gemini:     GeminiConfig{Model: "gemini-2.0-flash"},
		},
		Timeouts: TimeoutConfig{
			Acquire:    5 * time.Minute,
			Extract:    2 * time.Minute,
			Transcribe: 10 * time.Minute,
			Complete:   90 * time.Second,
		},
		Store: StoreConfig{Driver: DriverSQLite, SQLitePath: "data/hookscan.db"},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "0 */15 * * * *",
			MaxAge:   time.Hour,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $CONFIG_FILE, or config.yaml; a missing file is skipped), then the
// environment. A .env file is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = getEnv("CONFIG_FILE", "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("HOST", s.Host)
	s.Port = getEnvAsInt("PORT", s.Port)
	s.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", s.WriteTimeout)
	s.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.CORS.AllowedOrigins = getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", s.CORS.AllowedOrigins)
	s.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", s.RateLimit.Enabled)
	s.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", s.RateLimit.RequestsPerMinute)
	s.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", s.RateLimit.BurstSize)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	m := &c.Media
	m.DownloadDir = getEnv("DOWNLOAD_DIR", m.DownloadDir)
	m.KeepDownloads = getEnvAsBool("KEEP_DOWNLOADS", m.KeepDownloads)
	m.YtDlpPath = getEnv("YTDLP_PATH", m.YtDlpPath)
	m.YtDlpFormat = getEnv("YTDLP_FORMAT", m.YtDlpFormat)
	m.FFmpegPath = getEnv("FFMPEG_PATH", m.FFmpegPath)
	m.FFprobePath = getEnv("FFPROBE_PATH", m.FFprobePath)

	t := &c.Transcription
	t.Backend = getEnv("TRANSCRIPTION_BACKEND", t.Backend)
	t.WhisperCLIPath = getEnv("WHISPER_CLI_PATH", t.WhisperCLIPath)
	t.WhisperModelPath = getEnv("WHISPER_MODEL_PATH", t.WhisperModelPath)
	t.Language = getEnv("WHISPER_LANGUAGE", t.Language)

	l := &c.LLM
	l.Provider = getEnv("LLM_PROVIDER", l.Provider)
	l.RefineBeforeAnalysis = getEnvAsBool("REFINE_BEFORE_ANALYSIS", l.RefineBeforeAnalysis)
	l.OpenAI.APIKey = getEnv("OPENAI_API_KEY", l.OpenAI.APIKey)
	l.OpenAI.Model = getEnv("OPENAI_MODEL", l.OpenAI.Model)
	l.OpenAI.TranscribeModel = getEnv("OPENAI_TRANSCRIBE_MODEL", l.OpenAI.TranscribeModel)
	l.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", l.OpenAI.BaseURL)
	l.OpenAI.AllowedHosts = getEnvAsStringSlice("OPENAI_ALLOWED_HOSTS", l.OpenAI.AllowedHosts)
	l.OpenRouter.APIKey = getEnv("OPENROUTER_API_KEY", l.OpenRouter.APIKey)
	l.OpenRouter.Model = getEnv("OPENROUTER_MODEL", l.OpenRouter.Model)
	l.OpenRouter.BaseURL = getEnv("OPENROUTER_BASE_URL", l.OpenRouter.BaseURL)
	l.OpenRouter.AllowedHosts = getEnvAsStringSlice("OPENROUTER_ALLOWED_HOSTS", l.OpenRouter.AllowedHosts)
	l.Gemini.APIKey = getEnv("GEMINI_API_KEY", l.Gemini.APIKey)
	l.Gemini.Model = getEnv("GEMINI_MODEL", l.Gemini.Model)
	l.Gemini.BaseURL = getEnv("GEMINI_BASE_URL", l.Gemini.BaseURL)

	to := &c.Timeouts
	to.Acquire = getEnvAsDuration("ACQUIRE_TIMEOUT", to.Acquire)
	to.Extract = getEnvAsDuration("EXTRACT_TIMEOUT", to.Extract)
	to.Transcribe = getEnvAsDuration("TRANSCRIBE_TIMEOUT", to.Transcribe)
	to.Complete = getEnvAsDuration("COMPLETE_TIMEOUT", to.Complete)

	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.PostgresURL = getEnv("DATABASE_URL", c.Store.PostgresURL)

	a := &c.Archive
	a.Enabled = getEnvAsBool("ARCHIVE_ENABLED", a.Enabled)
	a.Endpoint = getEnv("S3_ENDPOINT", a.Endpoint)
	a.Region = getEnv("S3_REGION", a.Region)
	a.Bucket = getEnv("S3_BUCKET", a.Bucket)
	a.Prefix = getEnv("S3_PREFIX", a.Prefix)
	a.AccessKey = getEnv("S3_ACCESS_KEY", a.AccessKey)
	a.SecretKey = getEnv("S3_SECRET_KEY", a.SecretKey)

	c.Janitor.Enabled = getEnvAsBool("JANITOR_ENABLED", c.Janitor.Enabled)
	c.Janitor.Schedule = getEnv("JANITOR_SCHEDULE", c.Janitor.Schedule)
	c.Janitor.MaxAge = getEnvAsDuration("JANITOR_MAX_AGE", c.Janitor.MaxAge)
}

// Addr is the HTTP listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CompletionModel is the model configured for the selected provider.
func (c *Config) CompletionModel() string {
	switch c.LLM.Provider {
	case ProviderOpenRouter:
		return c.LLM.OpenRouter.Model
	case ProviderGemini:
		return c.LLM.Gemini.Model
	default:
		return c.LLM.OpenAI.Model
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rate limit requests per minute must be positive")
	}
	if strings.TrimSpace(c.Media.DownloadDir) == "" {
		return errors.New("download dir is required (set DOWNLOAD_DIR or media.download_dir)")
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive bucket is required when the archive is enabled (set S3_BUCKET or archive.bucket)")
	}
	if c.Janitor.Enabled {
		if strings.TrimSpace(c.Janitor.Schedule) == "" {
			return errors.New("janitor schedule is required when the janitor is enabled")
		}
		if c.Janitor.MaxAge <= 0 {
			return errors.New("janitor max age must be positive")
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Transcription.WhisperModelPath) == "" {
			return errors.New("whisper model path is required for the local backend (set WHISPER_MODEL_PATH)")
		}
	case BackendCloud:
		if c.LLM.OpenAI.APIKey == "" {
			return errors.New("OpenAI API key is required for the cloud transcription backend (set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown transcription backend %q (want %s or %s)", c.Transcription.Backend, BackendLocal, BackendCloud)
	}
	return nil
}

func (c *Config) validateLLM() error {
	l := c.LLM
	switch l.Provider {
	case ProviderOpenAI:
		if l.OpenAI.APIKey == "" {
			return errors.New("OpenAI API key is required (set OPENAI_API_KEY or llm.openai.api_key)")
		}
	case ProviderOpenRouter:
		if l.OpenRouter.APIKey == "" {
			return errors.New("OpenRouter API key is required (set OPENROUTER_API_KEY or llm.openrouter.api_key)")
		}
		if err := openrouter.ValidateBaseURL(l.OpenRouter.BaseURL, l.OpenRouter.AllowedHosts); err != nil {
			return err
		}
	case ProviderGemini:
		if l.Gemini.APIKey == "" {
			return errors.New("Gemini API key is required (set GEMINI_API_KEY or llm.gemini.api_key)")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", l.Provider)
	}
	if l.OpenAI.BaseURL != "" && (l.Provider == ProviderOpenAI || c.Transcription.Backend == BackendCloud) {
		if err := endpoint.Validate("OPENAI_BASE_URL", endpoint.Normalize(l.OpenAI.BaseURL, openaiapi.DefaultBaseURL),
			l.OpenAI.AllowedHosts, openaiapi.DefaultAllowedHosts); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("sqlite path is required (set SQLITE_PATH)")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Store.PostgresURL) == "" {
			return errors.New("database URL is required for the postgres store (set DATABASE_URL)")
		}
	case DriverNone:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return defaultValue
}
