package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Backends accepted for GRAPH_BACKEND.
const (
	BackendMemory    = "memory"
	BackendNeo4j     = "neo4j"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port        string   `yaml:"port" validate:"required,numeric"`
	APIKey      string   `yaml:"api_key"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Graph store
	Backend         string `yaml:"backend" validate:"oneof=memory neo4j pathstore"`
	Neo4jURI        string `yaml:"neo4j_uri" validate:"required_if=Backend neo4j"`
	Neo4jUser       string `yaml:"neo4j_user"`
	Neo4jPassword   string `yaml:"neo4j_password"`
	Neo4jDatabase   string `yaml:"neo4j_database"`
	PathstoreURL    string `yaml:"pathstore_url" validate:"required_if=Backend pathstore"`
	PathstoreAPIKey string `yaml:"pathstore_api_key" validate:"required_if=Backend pathstore"`
	PathstorePrefix string `yaml:"pathstore_prefix"`

	// Worker pool
	WorkerCount        int `yaml:"worker_count" validate:"gt=0"`
	MaxQueueSize       int `yaml:"max_queue_size" validate:"gt=0"`
	MaxConcurrentStore int `yaml:"max_concurrent_store" validate:"gt=0"`
	StoreBatchSize     int `yaml:"store_batch_size" validate:"gt=0"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes" validate:"gt=0"`

	// Parsing and export defaults
	Strict      bool   `yaml:"strict"`
	Charset     string `yaml:"charset" validate:"omitempty,oneof=auto utf-8 ansi"`
	SkipPrivate bool   `yaml:"skip_private"`

	// Job state
	JobTTL      time.Duration `yaml:"job_ttl" validate:"gt=0"`
	StatsWindow time.Duration `yaml:"stats_window" validate:"gt=0"`

	// Drop directory watched for .ged files; empty disables the watcher.
	WatchDir string `yaml:"watch_dir"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:     "8090",
		LogLevel: "info",

		Backend:         BackendMemory,
		Neo4jURI:        "bolt://neo4j:7687",
		Neo4jUser:       "neo4j",
		Neo4jPassword:   "password",
		PathstoreURL:    "http://localhost:8080",
		PathstorePrefix: "gedgraph",

		WorkerCount:        4,
		MaxQueueSize:       100,
		MaxConcurrentStore: 10,
		StoreBatchSize:     200,

		MaxUploadBytes: 52428800, // 50MB

		Strict:  true,
		Charset: "auto",

		JobTTL:      1 * time.Hour,
		StatsWindow: 1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// GEDGRAPH_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("GEDGRAPH_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("GEDGRAPH_API_KEY", c.APIKey)
	c.CORSOrigins = envList("CORS_ORIGINS", c.CORSOrigins)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)

	c.Backend = envOr("GRAPH_BACKEND", c.Backend)
	c.Neo4jURI = envOr("NEO4J_URI", c.Neo4jURI)
	c.Neo4jUser = envOr("NEO4J_USER", c.Neo4jUser)
	c.Neo4jPassword = envOr("NEO4J_PASSWORD", c.Neo4jPassword)
	c.Neo4jDatabase = envOr("NEO4J_DATABASE", c.Neo4jDatabase)
	c.PathstoreURL = envOr("PATHSTORE_URL", c.PathstoreURL)
	c.PathstoreAPIKey = envOr("PATHSTORE_API_KEY", c.PathstoreAPIKey)
	c.PathstorePrefix = envOr("PATHSTORE_PREFIX", c.PathstorePrefix)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxConcurrentStore = envInt("MAX_CONCURRENT_STORE", c.MaxConcurrentStore)
	c.StoreBatchSize = envInt("STORE_BATCH_SIZE", c.StoreBatchSize)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	c.Strict = envBool("GEDCOM_STRICT", c.Strict)
	c.Charset = envOr("GEDCOM_CHARSET", c.Charset)
	c.SkipPrivate = envBool("SKIP_PRIVATE", c.SkipPrivate)

	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.StatsWindow = envDuration("STATS_WINDOW", c.StatsWindow)

	c.WatchDir = envOr("WATCH_DIR", c.WatchDir)
}

var validate = validator.New()

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
