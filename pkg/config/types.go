package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment  string           `mapstructure:"environment"`
	Server       ServerConfig     `mapstructure:"server"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Processing   ProcessingConfig `mapstructure:"processing"`
	Media        MediaConfig      `mapstructure:"media"`
	SpeechFlow   SpeechFlowConfig `mapstructure:"speechflow"`
	Whisper      WhisperConfig    `mapstructure:"whisper"`
	Fallback     FallbackConfig   `mapstructure:"fallback"`
	Gemini       GeminiConfig     `mapstructure:"gemini"`
	Storage      StorageConfig    `mapstructure:"storage"`
	Cache        CacheConfig      `mapstructure:"cache"`
	RateLimiting RateLimitConfig  `mapstructure:"rate_limiting"`
	Security     SecurityConfig   `mapstructure:"security"`
	Auth         AuthConfig       `mapstructure:"auth"`
	Plans        PlansConfig      `mapstructure:"plans"`
	Logging      LoggingConfig    `mapstructure:"logging"`
	Features     FeaturesConfig   `mapstructure:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path                  string        `mapstructure:"path"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	Verbose               bool          `mapstructure:"verbose"`
}

// ProcessingConfig contains background job and media engine settings
type ProcessingConfig struct {
	Workers       int           `mapstructure:"workers"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxQueueSize  int           `mapstructure:"max_queue_size"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
	JobRetention  int           `mapstructure:"job_retention_days"`
	StaleJobAfter time.Duration `mapstructure:"stale_job_after"`
}

// MediaConfig contains settings for probing and downloading uploaded media
type MediaConfig struct {
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxDownloadSize int64         `mapstructure:"max_download_size"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// SpeechFlowConfig contains the primary transcription provider settings
type SpeechFlowConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	KeyID        string        `mapstructure:"key_id"`
	KeySecret    string        `mapstructure:"key_secret"`
	Lang         string        `mapstructure:"lang"`
	ResultType   int           `mapstructure:"result_type"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Deadline     time.Duration `mapstructure:"deadline"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// WhisperConfig contains OpenAI Whisper API settings
type WhisperConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	APIURL   string        `mapstructure:"api_url"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FallbackConfig configures the last-resort placeholder transcript
type FallbackConfig struct {
	Delay time.Duration `mapstructure:"delay"`
	Text  string        `mapstructure:"text"`
}

// GeminiConfig contains generative language model settings
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains storage settings
type StorageConfig struct {
	TempDir         string        `mapstructure:"temp_dir"`
	MaxTempAge      time.Duration `mapstructure:"max_temp_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	ReactionsTTL    time.Duration `mapstructure:"reactions_ttl"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled   bool           `mapstructure:"enabled"`
	Endpoints map[string]int `mapstructure:"endpoints"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	EnableCORS  bool     `mapstructure:"enable_cors"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	CORSMethods []string `mapstructure:"cors_methods"`
	CORSHeaders []string `mapstructure:"cors_headers"`
}

// AuthConfig contains bearer token validation settings
type AuthConfig struct {
	JWKSURL  string `mapstructure:"jwks_url"`
	Issuer   string `mapstructure:"issuer"`
	DevMode  bool   `mapstructure:"dev_mode"`
	DevToken string `mapstructure:"dev_token"`
	DevUser  string `mapstructure:"dev_user"`
}

// PlansConfig contains subscription plan limits
type PlansConfig struct {
	FreeSiteLimit  int `mapstructure:"free_site_limit"`
	BasicPostLimit int `mapstructure:"basic_post_limit"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Caller bool   `mapstructure:"caller"`
}

// FeaturesConfig contains feature flags
type FeaturesConfig struct {
	EnableAsyncGeneration bool `mapstructure:"enable_async_generation"`
	EnableWhisperFallback bool `mapstructure:"enable_whisper_fallback"`
	MaintenanceMode       bool `mapstructure:"maintenance_mode"`
}
