package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the root application configuration, loaded from TOML with
// environment overrides (RESPONDEO_* variables).
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Blob       BlobConfig       `toml:"blob"`
	Claude     ClaudeConfig     `toml:"claude"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Sheets     SheetsConfig     `toml:"sheets"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Processing ProcessingConfig `toml:"processing"`
	Proposal   ProposalConfig   `toml:"proposal"`
	Logging    LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// BlobConfig configures the S3-compatible object store that holds uploaded
// source documents and generated artifacts.
type BlobConfig struct {
	Endpoint  string `toml:"endpoint" validate:"required"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket" validate:"required"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens" validate:"min=1"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature" validate:"min=0,max=1"`
	RateLimit   float64 `toml:"rate_limit" validate:"min=0"`
}

type EmbeddingsConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension" validate:"min=1"`
	BatchSize int    `toml:"batch_size" validate:"min=1,max=64"`
}

// SheetsConfig configures read-only access to Google Sheets uploads.
type SheetsConfig struct {
	CredentialsFile string `toml:"credentials_file"`
}

type PipelineConfig struct {
	ChunkMaxTokens       int     `toml:"chunk_max_tokens" validate:"min=1"`
	ChunkOverlapTokens   int     `toml:"chunk_overlap_tokens" validate:"min=0"`
	AnswerBatchSize      int     `toml:"answer_batch_size" validate:"min=1"`
	MaxConcurrency       int     `toml:"max_concurrency" validate:"min=1"`
	RetrievalTopK        int     `toml:"retrieval_top_k" validate:"min=1"`
	RetrievalMinScore    float64 `toml:"retrieval_min_score" validate:"min=0,max=1"`
	DedupeThreshold      float64 `toml:"dedupe_threshold" validate:"min=0,max=1"`
	StageTimeout         string  `toml:"stage_timeout"`
	ScheduleStageTimeout string  `toml:"schedule_stage_timeout"`
}

// ProcessingConfig drives the periodic knowledge base re-embed sweep.
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
	Limit    int    `toml:"limit"`
}

// ProposalConfig holds the bidding organization's identity and win
// strategy used when rendering Win-Plan and RFI response artifacts.
type ProposalConfig struct {
	CompanyName     string   `toml:"company_name"`
	SolutionName    string   `toml:"solution_name"`
	OverviewFile    string   `toml:"overview_file"`
	FontDir         string   `toml:"font_dir"`
	WinThemes       []string `toml:"win_themes"`
	Differentiators []string `toml:"differentiators"`
	RiskAreas       []string `toml:"risk_areas"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`
	Output []string `toml:"output"`
}

// NewDefaultConfig returns the configuration defaults applied before any
// file or environment values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/respondeo",
				ResetOnStartup: false,
			},
		},
		Blob: BlobConfig{
			Endpoint: "localhost:9000",
			Bucket:   "respondeo",
			UseSSL:   false,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Timeout:     "120s",
			Temperature: 0.2,
			RateLimit:   2,
		},
		Embeddings: EmbeddingsConfig{
			Model:     "text-embedding-004",
			Dimension: 768,
			BatchSize: 64,
		},
		Pipeline: PipelineConfig{
			ChunkMaxTokens:       4000,
			ChunkOverlapTokens:   200,
			AnswerBatchSize:      20,
			MaxConcurrency:       4,
			RetrievalTopK:        5,
			RetrievalMinScore:    0.30,
			DedupeThreshold:      0.95,
			StageTimeout:         "120s",
			ScheduleStageTimeout: "180s",
		},
		Processing: ProcessingConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
			Limit:    100,
		},
		Proposal: ProposalConfig{
			CompanyName:  "IBM",
			SolutionName: "OpenPages with Watson",
			WinThemes: []string{
				"One platform, total visibility: consolidate fragmented GRC into unified enterprise-wide insight",
				"AI-driven risk intelligence: move from reactive compliance to predictive risk management",
				"Proven at scale: thousands of implementations and regulatory certifications de-risk the buying decision",
			},
			Differentiators: []string{
				"Unified GRC platform with integrated modules, eliminating siloed point solutions",
				"AI-powered insights via watsonx.ai for predictive risk analytics",
				"Highly configurable workflows, forms, and dashboards without custom development",
				"Flexible deployment: SaaS, on-premises, or hybrid",
			},
			RiskAreas: []string{
				"Pricing competitiveness against lower-cost niche tools",
				"Implementation timeline for full platform deployment",
				"Migration cost where the client has an incumbent GRC tool",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadConfig builds the effective configuration: defaults, then the first
// readable TOML file from paths, then environment overrides, then validation.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range discoverConfigPaths(paths) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		break
	}

	applyEnvOverrides(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// discoverConfigPaths returns candidate config files in priority order:
// explicit paths first, then respondeo.toml beside the executable and in
// the working directory.
func discoverConfigPaths(explicit []string) []string {
	paths := make([]string, 0, len(explicit)+2)
	paths = append(paths, explicit...)

	if execPath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(execPath), "respondeo.toml"))
	}
	paths = append(paths, "respondeo.toml")

	return paths
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RESPONDEO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RESPONDEO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RESPONDEO_STORAGE_PATH"); v != "" {
		cfg.Storage.Badger.Path = v
	}
	if v := os.Getenv("RESPONDEO_BLOB_ENDPOINT"); v != "" {
		cfg.Blob.Endpoint = v
	}
	if v := os.Getenv("RESPONDEO_BLOB_ACCESS_KEY"); v != "" {
		cfg.Blob.AccessKey = v
	}
	if v := os.Getenv("RESPONDEO_BLOB_SECRET_KEY"); v != "" {
		cfg.Blob.SecretKey = v
	}
	if v := os.Getenv("RESPONDEO_BLOB_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("RESPONDEO_CLAUDE_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Claude.APIKey == "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("RESPONDEO_EMBEDDINGS_API_KEY"); v != "" {
		cfg.Embeddings.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" && cfg.Embeddings.APIKey == "" {
		cfg.Embeddings.APIKey = v
	}
	if v := os.Getenv("RESPONDEO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RESPONDEO_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = strings.Split(v, ",")
	}
}
