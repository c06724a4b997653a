package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	OpenAIBaseURL           string
	OpenAIAPIKey            string
	AnalysisModel           string
	ScoringModel            string
	ConsultationModel       string
	MetadataModel           string
	AnalysisMaxTokens       int
	ScoringMaxTokens        int
	ConsultationMaxTokens   int
	MetadataMaxTokens       int

	OCRBaseURL    string
	OCRAPIKey     string
	OCRLanguage   string
	OCRStrategy   string
	OCRTimeout    time.Duration
	OCRMinPDFText int

	PipelineTimeout time.Duration

	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int
	QueueWait         time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls int

	SeedDemoCases bool
}

// Load reads the environment, then overlays an optional YAML file named by
// CONFIG_FILE. Environment values win over file values so deployments can
// override a checked-in config without editing it.
func Load() (Config, error) {
	cfg := Config{
		APIPort:   mustEnv("API_PORT", "8080"),
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		OpenAIBaseURL:         mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:          mustEnv("OPENAI_API_KEY", ""),
		AnalysisModel:         mustEnv("ANALYSIS_MODEL", "gpt-4o"),
		ScoringModel:          mustEnv("SCORING_MODEL", "gpt-4o-mini"),
		ConsultationModel:     mustEnv("CONSULTATION_MODEL", "gpt-4o"),
		MetadataModel:         mustEnv("METADATA_MODEL", "gpt-4o-mini"),
		AnalysisMaxTokens:     mustEnvInt("ANALYSIS_MAX_TOKENS", 2500),
		ScoringMaxTokens:      mustEnvInt("SCORING_MAX_TOKENS", 300),
		ConsultationMaxTokens: mustEnvInt("CONSULTATION_MAX_TOKENS", 1000),
		MetadataMaxTokens:     mustEnvInt("METADATA_MAX_TOKENS", 300),

		OCRBaseURL:    mustEnv("OCR_BASE_URL", "https://api.unstructuredapp.io"),
		OCRAPIKey:     mustEnv("OCR_API_KEY", ""),
		OCRLanguage:   mustEnv("OCR_LANGUAGE", "pol"),
		OCRStrategy:   mustEnv("OCR_STRATEGY", "hi_res"),
		OCRTimeout:    mustEnvDuration("OCR_TIMEOUT", 12*time.Second),
		OCRMinPDFText: mustEnvInt("OCR_MIN_PDF_TEXT", 80),

		PipelineTimeout: mustEnvDuration("PIPELINE_TIMEOUT", 5*time.Minute),

		RateLimitRPS:   mustEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: mustEnvInt("RATE_LIMIT_BURST", 20),
		MaxConcurrent:  mustEnvInt("MAX_CONCURRENT_ANALYSES", 4),
		QueueWait:      mustEnvDuration("QUEUE_WAIT", 2*time.Second),

		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeout:      mustEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		SeedDemoCases: mustEnvBool("SEED_DEMO_CASES", true),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// fileConfig mirrors the subset of Config that makes sense in a checked-in
// file. Credentials stay in the environment.
type fileConfig struct {
	APIPort   string `yaml:"api_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	OpenAIBaseURL     string `yaml:"openai_base_url"`
	AnalysisModel     string `yaml:"analysis_model"`
	ScoringModel      string `yaml:"scoring_model"`
	ConsultationModel string `yaml:"consultation_model"`
	MetadataModel     string `yaml:"metadata_model"`

	OCRBaseURL  string `yaml:"ocr_base_url"`
	OCRLanguage string `yaml:"ocr_language"`
	OCRStrategy string `yaml:"ocr_strategy"`
	OCRTimeout  string `yaml:"ocr_timeout"`

	PipelineTimeout string `yaml:"pipeline_timeout"`

	SeedDemoCases *bool `yaml:"seed_demo_cases"`
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlayString := func(dst *string, envKey, fileValue string) {
		if fileValue != "" && os.Getenv(envKey) == "" {
			*dst = fileValue
		}
	}
	overlayString(&cfg.APIPort, "API_PORT", fc.APIPort)
	overlayString(&cfg.LogLevel, "LOG_LEVEL", fc.LogLevel)
	overlayString(&cfg.LogFormat, "LOG_FORMAT", fc.LogFormat)
	overlayString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL", fc.OpenAIBaseURL)
	overlayString(&cfg.AnalysisModel, "ANALYSIS_MODEL", fc.AnalysisModel)
	overlayString(&cfg.ScoringModel, "SCORING_MODEL", fc.ScoringModel)
	overlayString(&cfg.ConsultationModel, "CONSULTATION_MODEL", fc.ConsultationModel)
	overlayString(&cfg.MetadataModel, "METADATA_MODEL", fc.MetadataModel)
	overlayString(&cfg.OCRBaseURL, "OCR_BASE_URL", fc.OCRBaseURL)
	overlayString(&cfg.OCRLanguage, "OCR_LANGUAGE", fc.OCRLanguage)
	overlayString(&cfg.OCRStrategy, "OCR_STRATEGY", fc.OCRStrategy)

	if fc.OCRTimeout != "" && os.Getenv("OCR_TIMEOUT") == "" {
		d, err := time.ParseDuration(fc.OCRTimeout)
		if err != nil {
			return fmt.Errorf("parse ocr_timeout in %s: %w", path, err)
		}
		cfg.OCRTimeout = d
	}
	if fc.PipelineTimeout != "" && os.Getenv("PIPELINE_TIMEOUT") == "" {
		d, err := time.ParseDuration(fc.PipelineTimeout)
		if err != nil {
			return fmt.Errorf("parse pipeline_timeout in %s: %w", path, err)
		}
		cfg.PipelineTimeout = d
	}
	if fc.SeedDemoCases != nil && os.Getenv("SEED_DEMO_CASES") == "" {
		cfg.SeedDemoCases = *fc.SeedDemoCases
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
