package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// ErrMissingCredentials is returned when a required credential is not configured
var ErrMissingCredentials = errors.New("missing credentials")

// environment variables used as credentials source
const (
	EnvElasticUsername = "ELASTIC_USERNAME"
	EnvElasticPassword = "ELASTIC_PASSWORD"
	EnvNewsAPIKey      = "NEWS_API_KEY"
	EnvHFToken         = "HF_API_TOKEN"
	EnvOpenAIKey       = "OPENAI_API_KEY"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		BaseURL string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public base URL used in RSS links"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Store      StoreConfig      `yaml:"store" json:"store" jsonschema:"description=Document store configuration"`
	Headlines  HeadlinesConfig  `yaml:"headlines" json:"headlines" jsonschema:"description=Headlines feed configuration"`
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Full-text extraction for short feed content"`
	Enrichment EnrichmentConfig `yaml:"enrichment" json:"enrichment" jsonschema:"description=Summarization and classification settings"`

	Schedule struct {
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"default=0s,description=Run collect and enrich periodically from the server process, 0 disables"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=In-process scheduling"`
}

// StoreConfig holds document store settings, one connection surface for all components
type StoreConfig struct {
	Backend string        `yaml:"backend" json:"backend" jsonschema:"enum=elastic,enum=sqlite,default=elastic,description=Store backend"`
	Index   string        `yaml:"index" json:"index" jsonschema:"default=news,description=Index (or table) name"`
	Elastic ElasticConfig `yaml:"elastic" json:"elastic" jsonschema:"description=Elasticsearch connection"`
	SQLite  SQLiteConfig  `yaml:"sqlite" json:"sqlite" jsonschema:"description=SQLite connection"`
}

// ElasticConfig holds Elasticsearch connection settings
type ElasticConfig struct {
	Addresses  []string      `yaml:"addresses" json:"addresses" jsonschema:"description=Node addresses, ignored when cloud_id is set"`
	CloudID    string        `yaml:"cloud_id" json:"cloud_id" jsonschema:"description=Elastic Cloud deployment id"`
	Username   string        `yaml:"username" json:"username" jsonschema:"description=Basic auth user, defaults to ELASTIC_USERNAME"`
	Password   string        `yaml:"password" json:"-" jsonschema:"-"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries" jsonschema:"default=3,description=Retries on failed requests"`
}

// SQLiteConfig holds settings for the embedded store
type SQLiteConfig struct {
	DSN          string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newsagg.db?cache=shared&mode=rwc&_txlock=immediate,description=Database connection string"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=1,description=Maximum number of open connections"`
}

// HeadlinesConfig holds headlines feed settings
type HeadlinesConfig struct {
	Source     string            `yaml:"source" json:"source" jsonschema:"enum=newsapi,enum=rss,default=newsapi,description=Feed type"`
	Endpoint   string            `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://newsapi.org/v2/top-headlines,description=Top headlines endpoint"`
	APIKey     string            `yaml:"api_key" json:"-" jsonschema:"-"`
	Categories []string          `yaml:"categories" json:"categories" jsonschema:"description=Feed categories to collect"`
	Language   string            `yaml:"language" json:"language" jsonschema:"default=en,description=Article language"`
	Country    string            `yaml:"country" json:"country" jsonschema:"default=us,description=Article country"`
	PageSize   int               `yaml:"page_size" json:"page_size" jsonschema:"default=20,minimum=1,maximum=100,description=Headlines per category"`
	Timeout    time.Duration     `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	Feeds      map[string]string `yaml:"feeds" json:"feeds" jsonschema:"description=RSS feed URL per category, used with source=rss"`
	DedupByURL bool              `yaml:"dedup_by_url" json:"dedup_by_url" jsonschema:"default=false,description=Skip articles whose url is already stored"`
}

// ExtractionConfig holds full-text extraction settings
type ExtractionConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Fetch full text when feed content is too short"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per article"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Newsagg/1.0,description=User agent for HTTP requests"`
}

// EnrichmentConfig holds settings of the enrichment pipeline and its models
type EnrichmentConfig struct {
	BatchSize          int       `yaml:"batch_size" json:"batch_size" jsonschema:"default=10,minimum=1,description=Articles processed per run"`
	Provider           string    `yaml:"provider" json:"provider" jsonschema:"enum=huggingface,enum=openai,enum=none,default=huggingface,description=Model provider"`
	HypothesisTemplate string    `yaml:"hypothesis_template" json:"hypothesis_template" jsonschema:"default=This text is about {}.,description=Zero-shot hypothesis template"`
	HuggingFace        HFConfig  `yaml:"huggingface" json:"huggingface" jsonschema:"description=Hugging Face inference settings"`
	LLM                LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=OpenAI-compatible settings"`
}

// HFConfig holds Hugging Face inference API settings
type HFConfig struct {
	Endpoint        string        `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://api-inference.huggingface.co,description=Inference API base URL"`
	Token           string        `yaml:"token" json:"-" jsonschema:"-"`
	SummaryModel    string        `yaml:"summary_model" json:"summary_model" jsonschema:"default=facebook/bart-large-cnn,description=Summarization model"`
	ClassifierModel string        `yaml:"classifier_model" json:"classifier_model" jsonschema:"default=facebook/bart-large-mnli,description=Zero-shot classification model"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=60s,description=Request timeout"`
}

// LLMConfig holds OpenAI-compatible API settings
type LLMConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey   string        `yaml:"api_key" json:"-" jsonschema:"-"`
	Model    string        `yaml:"model" json:"model" jsonschema:"default=gpt-4o-mini,description=Model name"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
}

// default feed categories, same as newsapi category names
var defaultCategories = []string{"business", "technology", "science", "health", "entertainment"}

// Load reads configuration from a YAML file, empty path means defaults only.
// Credentials not set in the file are taken from environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:8080"
	}

	// store
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "elastic"
	}
	if cfg.Store.Index == "" {
		cfg.Store.Index = "news"
	}
	if len(cfg.Store.Elastic.Addresses) == 0 && cfg.Store.Elastic.CloudID == "" {
		cfg.Store.Elastic.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Store.Elastic.Timeout == 0 {
		cfg.Store.Elastic.Timeout = 30 * time.Second
	}
	if cfg.Store.Elastic.MaxRetries == 0 {
		cfg.Store.Elastic.MaxRetries = 3
	}
	if cfg.Store.SQLite.DSN == "" {
		cfg.Store.SQLite.DSN = "file:newsagg.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Store.SQLite.MaxOpenConns == 0 {
		cfg.Store.SQLite.MaxOpenConns = 1
	}

	// headlines
	if cfg.Headlines.Source == "" {
		cfg.Headlines.Source = "newsapi"
	}
	if cfg.Headlines.Endpoint == "" {
		cfg.Headlines.Endpoint = "https://newsapi.org/v2/top-headlines"
	}
	if len(cfg.Headlines.Categories) == 0 {
		if cfg.Headlines.Source == "rss" && len(cfg.Headlines.Feeds) > 0 {
			for c := range cfg.Headlines.Feeds {
				cfg.Headlines.Categories = append(cfg.Headlines.Categories, c)
			}
			sort.Strings(cfg.Headlines.Categories)
		} else {
			cfg.Headlines.Categories = append([]string(nil), defaultCategories...)
		}
	}
	if cfg.Headlines.Language == "" {
		cfg.Headlines.Language = "en"
	}
	if cfg.Headlines.Country == "" {
		cfg.Headlines.Country = "us"
	}
	if cfg.Headlines.PageSize == 0 {
		cfg.Headlines.PageSize = 20
	}
	if cfg.Headlines.Timeout == 0 {
		cfg.Headlines.Timeout = 30 * time.Second
	}

	// extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.UserAgent == "" {
		cfg.Extraction.UserAgent = "Newsagg/1.0"
	}

	// enrichment
	if cfg.Enrichment.BatchSize == 0 {
		cfg.Enrichment.BatchSize = 10
	}
	if cfg.Enrichment.Provider == "" {
		cfg.Enrichment.Provider = "huggingface"
	}
	if cfg.Enrichment.HypothesisTemplate == "" {
		cfg.Enrichment.HypothesisTemplate = "This text is about {}."
	}
	if cfg.Enrichment.HuggingFace.Endpoint == "" {
		cfg.Enrichment.HuggingFace.Endpoint = "https://api-inference.huggingface.co"
	}
	if cfg.Enrichment.HuggingFace.SummaryModel == "" {
		cfg.Enrichment.HuggingFace.SummaryModel = "facebook/bart-large-cnn"
	}
	if cfg.Enrichment.HuggingFace.ClassifierModel == "" {
		cfg.Enrichment.HuggingFace.ClassifierModel = "facebook/bart-large-mnli"
	}
	if cfg.Enrichment.HuggingFace.Timeout == 0 {
		cfg.Enrichment.HuggingFace.Timeout = 60 * time.Second
	}
	if cfg.Enrichment.LLM.Model == "" {
		cfg.Enrichment.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Enrichment.LLM.Timeout == 0 {
		cfg.Enrichment.LLM.Timeout = 30 * time.Second
	}
}

// applyEnv fills credentials missing in the file from environment
func applyEnv(cfg *Config) {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&cfg.Store.Elastic.Username, EnvElasticUsername)
	fill(&cfg.Store.Elastic.Password, EnvElasticPassword)
	fill(&cfg.Headlines.APIKey, EnvNewsAPIKey)
	fill(&cfg.Enrichment.HuggingFace.Token, EnvHFToken)
	fill(&cfg.Enrichment.LLM.APIKey, EnvOpenAIKey)
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Headlines.PageSize < 1 || cfg.Headlines.PageSize > 100 {
		return fmt.Errorf("headlines.page_size must be between 1 and 100")
	}
	if cfg.Headlines.Source == "rss" {
		for _, c := range cfg.Headlines.Categories {
			if cfg.Headlines.Feeds[c] == "" {
				return fmt.Errorf("headlines.feeds has no url for category %q", c)
			}
		}
	}
	if cfg.Enrichment.BatchSize < 1 {
		return fmt.Errorf("enrichment.batch_size must be at least 1")
	}
	if !strings.Contains(cfg.Enrichment.HypothesisTemplate, "{}") {
		return fmt.Errorf("enrichment.hypothesis_template must contain {} placeholder")
	}
	if cfg.Enrichment.Provider == "openai" && cfg.Enrichment.LLM.Endpoint == "" && cfg.Enrichment.LLM.APIKey == "" {
		return fmt.Errorf("enrichment.llm requires endpoint or api key")
	}
	if cfg.Extraction.Enabled && cfg.Extraction.Timeout < time.Second {
		return fmt.Errorf("extraction timeout must be at least 1 second")
	}
	return nil
}

// RequireStoreCredentials checks credentials needed to connect to the store
func (c *Config) RequireStoreCredentials() error {
	if c.Store.Backend != "elastic" {
		return nil
	}
	if c.Store.Elastic.Username == "" || c.Store.Elastic.Password == "" {
		return fmt.Errorf("%w: elasticsearch username and password (%s, %s)", ErrMissingCredentials,
			EnvElasticUsername, EnvElasticPassword)
	}
	return nil
}

// RequireHeadlinesKey checks the headlines API key, rss feeds don't need one
func (c *Config) RequireHeadlinesKey() error {
	if c.Headlines.Source != "newsapi" {
		return nil
	}
	if c.Headlines.APIKey == "" {
		return fmt.Errorf("%w: news api key (%s)", ErrMissingCredentials, EnvNewsAPIKey)
	}
	return nil
}

// Secrets returns configured secret values to be masked in logs
func (c *Config) Secrets() []string {
	var res []string
	for _, s := range []string{c.Store.Elastic.Password, c.Headlines.APIKey, c.Enrichment.HuggingFace.Token, c.Enrichment.LLM.APIKey} {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetBaseURL returns public base URL of the server
func (c *Config) GetBaseURL() string {
	return c.Server.BaseURL
}
