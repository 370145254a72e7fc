package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BLOG_SERVER_PORT
const EnvPrefix = "BLOG"

// DefaultConfigFile is read when present; defaults and env vars cover everything else
const DefaultConfigFile = "./config/settings.yaml"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = load(DefaultConfigFile)
	})
	return initErr
}

// load wires defaults, env overrides and the optional config file into viper
func load(configFile string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Clean(configFile)
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars apply
		if !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// Set overrides a config value, used by CLI flags bound after Init
func Set(key string, value any) {
	viper.Set(key, value)
}

// IsProduction reports whether the environment is production
func IsProduction() bool {
	env := viper.GetString("environment")
	return env == "production" || env == "prod"
}

func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("%d is not a valid port", port))
	}

	if viper.GetString("database.path") == "" {
		return apperrors.ConfigError("database.path", "required")
	}

	if err := validateAPIKeys(); err != nil {
		return err
	}

	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}

	if viper.GetInt("processing.max_queue_size") <= 0 {
		viper.Set("processing.max_queue_size", 100)
	}

	if viper.GetDuration("speechflow.poll_interval") <= 0 {
		viper.Set("speechflow.poll_interval", 3*time.Second)
	}

	return nil
}

var placeholders = []string{
	"YOUR_KEY_HERE",
	"YOUR_SECRET_HERE",
	"YOUR_API_KEY",
	"YOUR_API_SECRET",
	"changeme",
	"CHANGEME",
	"",
}

func isPlaceholder(value string) bool {
	for _, p := range placeholders {
		if value == p {
			return true
		}
	}
	return false
}

// validateAPIKeys rejects placeholder credentials in production and warns elsewhere
func validateAPIKeys() error {
	required := []struct {
		name string
		keys []string
	}{
		{"SpeechFlow", []string{"speechflow.key_id", "speechflow.key_secret"}},
		{"Gemini", []string{"gemini.api_key"}},
	}

	for _, r := range required {
		for _, key := range r.keys {
			if !isPlaceholder(viper.GetString(key)) {
				continue
			}
			if IsProduction() {
				return apperrors.ConfigError(key, fmt.Sprintf("%s credentials cannot use a placeholder value in production", r.name))
			}
			log.Warn("credential is using a placeholder value", "provider", r.name, "key", key)
			break
		}
	}

	if IsProduction() && viper.GetBool("auth.dev_mode") {
		return apperrors.ConfigError("auth.dev_mode", "cannot be enabled in production")
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("%d is not a valid port", c.Server.Port))
	}

	if c.Database.Path == "" {
		return apperrors.ConfigError("database.path", "required")
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}

	if c.Processing.MaxQueueSize <= 0 {
		c.Processing.MaxQueueSize = 100
	}

	if c.SpeechFlow.PollInterval <= 0 {
		c.SpeechFlow.PollInterval = 3 * time.Second
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_body_bytes", 1048576)

	// Database
	viper.SetDefault("database.path", "./data/blog.db")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.verbose", false)

	// Processing
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.poll_interval", 2*time.Second)
	viper.SetDefault("processing.max_queue_size", 100)
	viper.SetDefault("processing.job_timeout", 30*time.Minute)
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 5*time.Minute)
	viper.SetDefault("processing.job_retention_days", 7)
	viper.SetDefault("processing.stale_job_after", time.Hour)

	// Media
	viper.SetDefault("media.probe_timeout", 15*time.Second)
	viper.SetDefault("media.download_timeout", 5*time.Minute)
	viper.SetDefault("media.max_download_size", 500*1024*1024)
	viper.SetDefault("media.user_agent", "BlogAPI/1.0")

	// SpeechFlow
	viper.SetDefault("speechflow.base_url", "https://api.speechflow.io")
	viper.SetDefault("speechflow.lang", "en")
	viper.SetDefault("speechflow.result_type", 4)
	viper.SetDefault("speechflow.poll_interval", 3*time.Second)
	viper.SetDefault("speechflow.max_attempts", 200)
	viper.SetDefault("speechflow.deadline", 15*time.Minute)
	viper.SetDefault("speechflow.timeout", 30*time.Second)

	// Whisper
	viper.SetDefault("whisper.api_url", "https://api.openai.com/v1/audio/transcriptions")
	viper.SetDefault("whisper.model", "whisper-1")
	viper.SetDefault("whisper.language", "en")
	viper.SetDefault("whisper.timeout", 5*time.Minute)

	// Fallback
	viper.SetDefault("fallback.delay", 5*time.Second)
	viper.SetDefault("fallback.text", "This is a fallback transcription. Please implement a real fallback service.")

	// Gemini
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("gemini.model", "gemini-pro")
	viper.SetDefault("gemini.timeout", 2*time.Minute)

	// Storage
	viper.SetDefault("storage.temp_dir", "./tmp")
	viper.SetDefault("storage.max_temp_age", 6*time.Hour)
	viper.SetDefault("storage.cleanup_interval", 1*time.Hour)
	viper.SetDefault("storage.public_base_url", "")

	// Cache
	viper.SetDefault("cache.default_ttl", 10*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 5*time.Minute)
	viper.SetDefault("cache.reactions_ttl", 1*time.Minute)

	// Rate limiting
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.endpoints", map[string]int{
		"generate": 6,
		"default":  120,
	})

	// Security
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.cors_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors_headers", []string{"Content-Type", "Authorization"})

	// Auth
	viper.SetDefault("auth.jwks_url", "")
	viper.SetDefault("auth.issuer", "")
	viper.SetDefault("auth.dev_mode", false)
	viper.SetDefault("auth.dev_token", "dev-token")
	viper.SetDefault("auth.dev_user", "dev-user")

	// Plans
	viper.SetDefault("plans.free_site_limit", 1)
	viper.SetDefault("plans.basic_post_limit", 3)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.caller", false)

	// Features
	viper.SetDefault("features.enable_async_generation", true)
	viper.SetDefault("features.enable_whisper_fallback", true)
	viper.SetDefault("features.maintenance_mode", false)
}
