package config

import (
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Init initializes the viper instance
func Init() {
	v = viper.New()
}

// Viper returns the viper instance
func Viper() *viper.Viper {
	return v
}

// Server configuration
type Server struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Log configuration
type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

// LLM configuration for the AI backend
type LLM struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	URL         string        `mapstructure:"url" yaml:"url"` // Custom LLM service URL
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Engine configuration for run limits and backend retries
type Engine struct {
	MaxSteps int   `mapstructure:"max_steps" yaml:"max_steps"` // 0 means derive from graph size
	Retry    Retry `mapstructure:"retry" yaml:"retry"`
}

type Retry struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// Storage configuration
type Storage struct {
	WorkflowsDir string `mapstructure:"workflows_dir" yaml:"workflows_dir"`
	RunDB        string `mapstructure:"run_db" yaml:"run_db"`
}

// Tracing configuration - execution observation and reporting
type Tracing struct {
	Enabled  bool             `mapstructure:"enabled" yaml:"enabled"`
	Markdown MarkdownConfig   `mapstructure:"markdown" yaml:"markdown"`
	Log      LogTracingConfig `mapstructure:"log" yaml:"log"`
}

type MarkdownConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

type LogTracingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // minimal, standard, detailed
}

// Config represents the application configuration
type Config struct {
	Server  Server  `mapstructure:"server" yaml:"server"`
	Log     Log     `mapstructure:"log" yaml:"log"`
	LLM     LLM     `mapstructure:"llm" yaml:"llm"`
	Engine  Engine  `mapstructure:"engine" yaml:"engine"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	Tracing Tracing `mapstructure:"tracing" yaml:"tracing"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := Viper().Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = "./log"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Temperature == 0 && !Viper().IsSet("llm.temperature") {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Engine.Retry.Attempts == 0 && !Viper().IsSet("engine.retry.attempts") {
		cfg.Engine.Retry.Attempts = 2
	}
	if cfg.Engine.Retry.Backoff == 0 {
		cfg.Engine.Retry.Backoff = 500 * time.Millisecond
	}
	if cfg.Storage.WorkflowsDir == "" {
		cfg.Storage.WorkflowsDir = "./workflows"
	}
	if cfg.Storage.RunDB == "" {
		cfg.Storage.RunDB = "./data/runs.db"
	}

	// Set default tracing config
	// Only set defaults if keys were not explicitly set in config
	if !Viper().IsSet("tracing.enabled") {
		cfg.Tracing.Enabled = true
	}
	if !Viper().IsSet("tracing.markdown.enabled") {
		cfg.Tracing.Markdown.Enabled = false
	}
	if cfg.Tracing.Markdown.OutputDir == "" {
		cfg.Tracing.Markdown.OutputDir = "./data/reports"
	}
	if cfg.Tracing.Log.Level == "" {
		cfg.Tracing.Log.Level = "standard"
	}

	return cfg, nil
}
