// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPubMedBaseURL   = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultPubMedTool      = "webfaqmcp"
	DefaultCuratedSheetURL = "https://docs.google.com/spreadsheets/d/1jE9m65m_fCQRZcfFfTVMxifmJKaE6J4WPKY9CrRtOkg/edit?usp=sharing"
	DefaultCuratedCSVURL   = "https://docs.google.com/spreadsheets/d/1jE9m65m_fCQRZcfFfTVMxifmJKaE6J4WPKY9CrRtOkg/export?format=csv&gid=1981029180"

	CuratedBackendSheet         = "sheet"
	CuratedBackendElasticsearch = "elasticsearch"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // the per-environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// APIS_PUBMED_EMAIL overrides apis.pubmed.email, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known variables when the
// YAML leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.PubMed.Email == "" {
		if val := os.Getenv("PUBMED_EMAIL"); val != "" {
			cfg.APIs.PubMed.Email = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Notifications.SNS.TopicARN == "" {
		if val := os.Getenv("QUALITY_ALERT_TOPIC_ARN"); val != "" {
			cfg.Notifications.SNS.TopicARN = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "telehealth-agent"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	pm := &cfg.APIs.PubMed
	if pm.BaseURL == "" {
		pm.BaseURL = DefaultPubMedBaseURL
	}
	if pm.Tool == "" {
		pm.Tool = DefaultPubMedTool
	}
	if pm.Timeout == 0 {
		pm.Timeout = 10000
	}
	if pm.MaxResultsPerQuery == 0 {
		pm.MaxResultsPerQuery = 2
	}

	faq := &cfg.APIs.CuratedFAQ
	if faq.CSVURL == "" {
		faq.CSVURL = DefaultCuratedCSVURL
	}
	if faq.SheetURL == "" {
		faq.SheetURL = DefaultCuratedSheetURL
	}
	if faq.Backend == "" {
		faq.Backend = CuratedBackendSheet
	}
	if faq.Index == "" {
		faq.Index = "curated_faqs"
	}
	if faq.Timeout == 0 {
		faq.Timeout = 10000
	}

	th := &cfg.Telehealth
	if th.RetryThreshold == 0 {
		th.RetryThreshold = 7.0
	}
	if th.MaxQueries == 0 {
		th.MaxQueries = 2
	}
	if th.RelevanceThreshold == 0 {
		th.RelevanceThreshold = 0.3
	}
	if th.AlertThreshold == 0 {
		th.AlertThreshold = 50
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.APIs.PubMed.BaseURL == "" {
		return fmt.Errorf("apis.pubmed.base_url is required")
	}
	if cfg.APIs.PubMed.MaxResultsPerQuery < 1 {
		return fmt.Errorf("apis.pubmed.max_results_per_query must be positive")
	}

	switch cfg.APIs.CuratedFAQ.Backend {
	case CuratedBackendSheet:
	case CuratedBackendElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch curated_faq backend")
		}
	default:
		return fmt.Errorf("apis.curated_faq.backend must be %q or %q", CuratedBackendSheet, CuratedBackendElasticsearch)
	}

	th := cfg.Telehealth
	if th.RetryThreshold < 0 || th.RetryThreshold > 100 {
		return fmt.Errorf("telehealth.retry_threshold must be within [0,100]")
	}
	if th.MaxQueries < 1 {
		return fmt.Errorf("telehealth.max_queries must be positive")
	}
	if th.RelevanceThreshold < 0 || th.RelevanceThreshold > 1 {
		return fmt.Errorf("telehealth.relevance_threshold must be within [0,1]")
	}

	if cfg.Notifications.Enabled && cfg.Notifications.SNS.TopicARN == "" && len(cfg.Notifications.Email.To) == 0 {
		return fmt.Errorf("notifications.enabled requires sns.topic_arn or email.to")
	}
	if len(cfg.Notifications.Email.To) > 0 && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email.to is set")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
