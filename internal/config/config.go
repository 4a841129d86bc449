package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Processing ProcessingConfig
	Prompts    PromptsConfig
	History    HistoryConfig
	Export     ExportConfig
	S3         S3Config
	OCR        OCRConfig
	Speech     SpeechConfig
	CORS       CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig holds settings for a single AI provider.
type ProviderConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// KnownProviders lists the provider names the analyzer factory understands.
var KnownProviders = []string{"openai", "claude", "gemini", "deepseek"}

// AIConfig holds AI provider settings with multi-provider support.
type AIConfig struct {
	DefaultProvider string                    `mapstructure:"default_provider"`
	Fallback        []string                  `mapstructure:"fallback"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
}

// Provider returns the config for the named provider with its name filled in.
func (a *AIConfig) Provider(name string) (*ProviderConfig, bool) {
	p, ok := a.Providers[name]
	if !ok {
		return nil, false
	}
	p.Provider = name
	return &p, true
}

// Chain returns the default provider followed by the configured fallbacks,
// de-duplicated and limited to providers that carry an API key.
func (a *AIConfig) Chain() []*ProviderConfig {
	seen := make(map[string]bool)
	var chain []*ProviderConfig
	for _, name := range append([]string{a.DefaultProvider}, a.Fallback...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		p, ok := a.Provider(name)
		if !ok || p.APIKey == "" {
			continue
		}
		chain = append(chain, p)
	}
	return chain
}

// ProcessingConfig holds file splitting, combining and caching settings.
type ProcessingConfig struct {
	ChunkSize          int     `mapstructure:"chunk_size"`
	SplitMethod        string  `mapstructure:"split_method"`
	AutoSplit          bool    `mapstructure:"auto_split"`
	MinSplitSizeMB     float64 `mapstructure:"min_split_size_mb"`
	CombineStrategy    string  `mapstructure:"combine_strategy"`
	Parallelism        int     `mapstructure:"parallelism"`
	EnableCache        bool    `mapstructure:"enable_cache"`
	CacheSize          int     `mapstructure:"cache_size"`
	AnalyzeTimeoutSecs int     `mapstructure:"analyze_timeout_secs"`
	MaxUploadSizeMB    int64   `mapstructure:"max_upload_size_mb"`
}

// MinSplitSizeBytes converts the split threshold to bytes.
func (p *ProcessingConfig) MinSplitSizeBytes() int64 {
	return int64(p.MinSplitSizeMB * 1024 * 1024)
}

// PromptsConfig points at the optional custom analysis types file.
type PromptsConfig struct {
	CustomTypesPath string `mapstructure:"custom_types_path"`
}

// HistoryConfig holds the embedded history store settings.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig selects where stored exports are written.
type ExportConfig struct {
	Sink string `mapstructure:"sink"`
	Dir  string `mapstructure:"dir"`
}

// OCRConfig holds tesseract settings.
type OCRConfig struct {
	Languages []string `mapstructure:"languages"`
}

// SpeechConfig holds speech-to-text client settings.
type SpeechConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	BaseURL     string `mapstructure:"base_url"`
	Language    string `mapstructure:"language"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate rejects processing settings the pipeline cannot honour.
func (c *Config) Validate() error {
	switch c.Processing.SplitMethod {
	case "page", "token":
	default:
		return fmt.Errorf("invalid processing.split_method %q: expected page or token", c.Processing.SplitMethod)
	}
	switch c.Processing.CombineStrategy {
	case "sequential", "summarize":
	default:
		return fmt.Errorf("invalid processing.combine_strategy %q: expected sequential or summarize", c.Processing.CombineStrategy)
	}
	if c.Processing.ChunkSize < 1 {
		return fmt.Errorf("invalid processing.chunk_size %d: must be at least 1", c.Processing.ChunkSize)
	}
	if c.Processing.Parallelism < 1 {
		return fmt.Errorf("invalid processing.parallelism %d: must be at least 1", c.Processing.Parallelism)
	}
	switch c.Export.Sink {
	case "local", "s3":
	default:
		return fmt.Errorf("invalid export.sink %q: expected local or s3", c.Export.Sink)
	}
	return nil
}

// Load reads configuration from an optional config file and environment
// variables with the DOCANALYST_ prefix. An empty path searches ./config.yaml
// and ./config/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCANALYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// AI defaults
	v.SetDefault("ai.default_provider", "openai")
	v.SetDefault("ai.fallback", "")
	for _, name := range KnownProviders {
		v.SetDefault("ai.providers."+name+".api_key", "")
		v.SetDefault("ai.providers."+name+".model", "")
		v.SetDefault("ai.providers."+name+".base_url", "")
		v.SetDefault("ai.providers."+name+".timeout_secs", 120)
		v.SetDefault("ai.providers."+name+".max_tokens", 4096)
		v.SetDefault("ai.providers."+name+".temperature", 0.7)
	}

	// Processing defaults
	v.SetDefault("processing.chunk_size", 3)
	v.SetDefault("processing.split_method", "page")
	v.SetDefault("processing.auto_split", false)
	v.SetDefault("processing.min_split_size_mb", 0.5)
	v.SetDefault("processing.combine_strategy", "sequential")
	v.SetDefault("processing.parallelism", 1)
	v.SetDefault("processing.enable_cache", true)
	v.SetDefault("processing.cache_size", 64)
	v.SetDefault("processing.analyze_timeout_secs", 120)
	v.SetDefault("processing.max_upload_size_mb", 50)

	v.SetDefault("prompts.custom_types_path", "")
	v.SetDefault("history.path", "data/history.db")
	v.SetDefault("export.sink", "local")
	v.SetDefault("export.dir", "exports")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docanalyst-exports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	v.SetDefault("ocr.languages", "eng")

	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.base_url", "")
	v.SetDefault("speech.language", "")
	v.SetDefault("speech.timeout_secs", 300)

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "DOCANALYST_SERVER_PORT",
		"server.read_timeout":             "DOCANALYST_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "DOCANALYST_SERVER_WRITE_TIMEOUT",
		"server.environment":              "DOCANALYST_SERVER_ENVIRONMENT",
		"log.level":                       "DOCANALYST_LOG_LEVEL",
		"log.format":                      "DOCANALYST_LOG_FORMAT",
		"ai.default_provider":             "DOCANALYST_AI_DEFAULT_PROVIDER",
		"ai.fallback":                     "DOCANALYST_AI_FALLBACK",
		"processing.chunk_size":           "DOCANALYST_PROCESSING_CHUNK_SIZE",
		"processing.split_method":         "DOCANALYST_PROCESSING_SPLIT_METHOD",
		"processing.auto_split":           "DOCANALYST_PROCESSING_AUTO_SPLIT",
		"processing.min_split_size_mb":    "DOCANALYST_PROCESSING_MIN_SPLIT_SIZE_MB",
		"processing.combine_strategy":     "DOCANALYST_PROCESSING_COMBINE_STRATEGY",
		"processing.parallelism":          "DOCANALYST_PROCESSING_PARALLELISM",
		"processing.enable_cache":         "DOCANALYST_PROCESSING_ENABLE_CACHE",
		"processing.cache_size":           "DOCANALYST_PROCESSING_CACHE_SIZE",
		"processing.analyze_timeout_secs": "DOCANALYST_PROCESSING_ANALYZE_TIMEOUT_SECS",
		"processing.max_upload_size_mb":   "DOCANALYST_PROCESSING_MAX_UPLOAD_SIZE_MB",
		"prompts.custom_types_path":       "DOCANALYST_PROMPTS_CUSTOM_TYPES_PATH",
		"history.path":                    "DOCANALYST_HISTORY_PATH",
		"export.sink":                     "DOCANALYST_EXPORT_SINK",
		"export.dir":                      "DOCANALYST_EXPORT_DIR",
		"s3.region":                       "DOCANALYST_S3_REGION",
		"s3.bucket":                       "DOCANALYST_S3_BUCKET",
		"s3.endpoint":                     "DOCANALYST_S3_ENDPOINT",
		"s3.access_key":                   "DOCANALYST_S3_ACCESS_KEY",
		"s3.secret_key":                   "DOCANALYST_S3_SECRET_KEY",
		"s3.presign_expiry":               "DOCANALYST_S3_PRESIGN_EXPIRY",
		"ocr.languages":                   "DOCANALYST_OCR_LANGUAGES",
		"speech.api_key":                  "DOCANALYST_SPEECH_API_KEY",
		"speech.model":                    "DOCANALYST_SPEECH_MODEL",
		"speech.base_url":                 "DOCANALYST_SPEECH_BASE_URL",
		"speech.language":                 "DOCANALYST_SPEECH_LANGUAGE",
		"speech.timeout_secs":             "DOCANALYST_SPEECH_TIMEOUT_SECS",
		"cors.allowed_origins":            "DOCANALYST_CORS_ALLOWED_ORIGINS",
	}
	for _, name := range KnownProviders {
		prefix := "DOCANALYST_AI_PROVIDERS_" + strings.ToUpper(name) + "_"
		envBindings["ai.providers."+name+".api_key"] = prefix + "API_KEY"
		envBindings["ai.providers."+name+".model"] = prefix + "MODEL"
		envBindings["ai.providers."+name+".base_url"] = prefix + "BASE_URL"
		envBindings["ai.providers."+name+".timeout_secs"] = prefix + "TIMEOUT_SECS"
		envBindings["ai.providers."+name+".max_tokens"] = prefix + "MAX_TOKENS"
		envBindings["ai.providers."+name+".temperature"] = prefix + "TEMPERATURE"
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// PaaS hosts set a PORT env var. Use it if DOCANALYST_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCANALYST_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.AI = AIConfig{
		DefaultProvider: v.GetString("ai.default_provider"),
		Fallback:        stringList(v, "ai.fallback"),
		Providers:       make(map[string]ProviderConfig, len(KnownProviders)),
	}
	for _, name := range KnownProviders {
		key := "ai.providers." + name + "."
		cfg.AI.Providers[name] = ProviderConfig{
			Provider:    name,
			APIKey:      v.GetString(key + "api_key"),
			Model:       v.GetString(key + "model"),
			BaseURL:     v.GetString(key + "base_url"),
			TimeoutSecs: v.GetInt(key + "timeout_secs"),
			MaxTokens:   v.GetInt(key + "max_tokens"),
			Temperature: v.GetFloat64(key + "temperature"),
		}
	}

	cfg.Processing = ProcessingConfig{
		ChunkSize:          v.GetInt("processing.chunk_size"),
		SplitMethod:        v.GetString("processing.split_method"),
		AutoSplit:          v.GetBool("processing.auto_split"),
		MinSplitSizeMB:     v.GetFloat64("processing.min_split_size_mb"),
		CombineStrategy:    v.GetString("processing.combine_strategy"),
		Parallelism:        v.GetInt("processing.parallelism"),
		EnableCache:        v.GetBool("processing.enable_cache"),
		CacheSize:          v.GetInt("processing.cache_size"),
		AnalyzeTimeoutSecs: v.GetInt("processing.analyze_timeout_secs"),
		MaxUploadSizeMB:    v.GetInt64("processing.max_upload_size_mb"),
	}

	cfg.Prompts = PromptsConfig{CustomTypesPath: v.GetString("prompts.custom_types_path")}
	cfg.History = HistoryConfig{Path: v.GetString("history.path")}
	cfg.Export = ExportConfig{
		Sink: v.GetString("export.sink"),
		Dir:  v.GetString("export.dir"),
	}

	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}

	cfg.OCR = OCRConfig{Languages: stringList(v, "ocr.languages")}
	cfg.Speech = SpeechConfig{
		APIKey:      v.GetString("speech.api_key"),
		Model:       v.GetString("speech.model"),
		BaseURL:     v.GetString("speech.base_url"),
		Language:    v.GetString("speech.language"),
		TimeoutSecs: v.GetInt("speech.timeout_secs"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: stringList(v, "cors.allowed_origins")}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringList reads a key that may hold either a YAML list or a
// comma-separated string (the form environment variables use).
func stringList(v *viper.Viper, key string) []string {
	if _, ok := v.Get(key).([]interface{}); ok {
		return v.GetStringSlice(key)
	}
	return splitList(v.GetString(key))
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
