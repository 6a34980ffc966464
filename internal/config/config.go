package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/cu-eval/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service" mapstructure:"service"`
	Poll     PollConfig     `yaml:"poll" mapstructure:"poll"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Evaluate EvaluateConfig `yaml:"evaluate" mapstructure:"evaluate"`
	Pricing  cost.Rates     `yaml:"pricing" mapstructure:"pricing"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ServiceConfig configures the Content Understanding resource.
type ServiceConfig struct {
	Endpoint          string  `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	APIVersion        string  `yaml:"api_version" mapstructure:"api_version"`
	AnalyzerID        string  `yaml:"analyzer_id" mapstructure:"analyzer_id"`
	Mode              string  `yaml:"mode" mapstructure:"mode"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-request HTTP timeout.
func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// PollConfig configures operation polling.
type PollConfig struct {
	IntervalSecs int `yaml:"interval_secs" mapstructure:"interval_secs"`
	CapSecs      int `yaml:"cap_secs" mapstructure:"cap_secs"`
	TimeoutMins  int `yaml:"timeout_mins" mapstructure:"timeout_mins"`
}

// PathsConfig locates the benchmark inputs and outputs.
type PathsConfig struct {
	Input      string `yaml:"input" mapstructure:"input"`
	TestData   string `yaml:"test_data" mapstructure:"test_data"`
	Output     string `yaml:"output" mapstructure:"output"`
	SchemaFile string `yaml:"schema_file" mapstructure:"schema_file"`
}

// EvaluateConfig configures the run driver.
type EvaluateConfig struct {
	Concurrency      int  `yaml:"concurrency" mapstructure:"concurrency"`
	RecreateAnalyzer bool `yaml:"recreate_analyzer" mapstructure:"recreate_analyzer"`
}

// ReportConfig configures optional report artifacts.
type ReportConfig struct {
	XLSX bool `yaml:"xlsx" mapstructure:"xlsx"`
}

// StoreConfig configures the run history store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the history API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

const maxConcurrency = 32

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CUEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	rates := cost.DefaultRates()
	v.SetDefault("service.endpoint", "")
	v.SetDefault("service.api_key", "")
	v.SetDefault("service.api_version", "2025-05-01-preview")
	v.SetDefault("service.analyzer_id", "myAnalyzer")
	v.SetDefault("service.mode", "standard")
	v.SetDefault("service.requests_per_second", 1.0)
	v.SetDefault("service.timeout_secs", 60)
	v.SetDefault("poll.interval_secs", 3)
	v.SetDefault("poll.cap_secs", 15)
	v.SetDefault("poll.timeout_mins", 10)
	v.SetDefault("paths.input", "input")
	v.SetDefault("paths.test_data", "test_data")
	v.SetDefault("paths.output", "output")
	v.SetDefault("paths.schema_file", "schema.json")
	v.SetDefault("evaluate.concurrency", 1)
	v.SetDefault("evaluate.recreate_analyzer", true)
	v.SetDefault("pricing.content_per_1k_pages", rates.ContentPer1KPages)
	v.SetDefault("pricing.standard.input", rates.Standard.Input)
	v.SetDefault("pricing.standard.output", rates.Standard.Output)
	v.SetDefault("pricing.standard.contextualization", rates.Standard.Contextualization)
	v.SetDefault("pricing.pro.input", rates.Pro.Input)
	v.SetDefault("pricing.pro.output", rates.Pro.Output)
	v.SetDefault("pricing.pro.contextualization", rates.Pro.Contextualization)
	v.SetDefault("report.xlsx", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cu-eval.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the given command depends on. Known
// commands are run, cost, report, runs and serve.
func (c *Config) Validate(command string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch command {
	case "run":
		requireSetting(add, "service.endpoint", c.Service.Endpoint)
		requireSetting(add, "service.api_key", c.Service.APIKey)
		if c.Service.AnalyzerID == "" {
			add("service.analyzer_id is required")
		}
		if c.Paths.SchemaFile == "" {
			add("paths.schema_file is required")
		}
		if c.Evaluate.Concurrency < 1 || c.Evaluate.Concurrency > maxConcurrency {
			add("evaluate.concurrency must be between 1 and %d", maxConcurrency)
		}
		if c.Poll.IntervalSecs <= 0 || c.Poll.CapSecs <= 0 || c.Poll.TimeoutMins <= 0 {
			add("poll intervals and timeout must be > 0")
		}
		if c.Service.RequestsPerSecond < 0 {
			add("service.requests_per_second must be >= 0")
		}
		c.validateMode(add)
		c.validatePricing(add)
		c.validateStore(add)
	case "cost", "report":
		c.validateMode(add)
		c.validatePricing(add)
	case "runs":
		c.validateStore(add)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			add("server.port must be > 0 and <= 65535")
		}
		c.validateStore(add)
	default:
		return eris.Errorf("config: unknown mode %q", command)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// requireSetting flags empty values and unedited <YOUR-...> placeholders.
func requireSetting(add func(string, ...any), key, value string) {
	switch {
	case value == "":
		add("%s is required", key)
	case strings.HasPrefix(value, "<YOUR-"):
		add("%s still holds a placeholder", key)
	}
}

func (c *Config) validateMode(add func(string, ...any)) {
	switch strings.ToLower(strings.TrimSpace(c.Service.Mode)) {
	case "standard", "pro", "":
	default:
		add("service.mode must be standard or pro")
	}
}

func (c *Config) validatePricing(add func(string, ...any)) {
	p := c.Pricing
	for _, v := range []float64{
		p.ContentPer1KPages,
		p.Standard.Input, p.Standard.Output, p.Standard.Contextualization,
		p.Pro.Input, p.Pro.Output, p.Pro.Contextualization,
	} {
		if v < 0 {
			add("pricing values must be >= 0")
			return
		}
	}
}

func (c *Config) validateStore(add func(string, ...any)) {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
