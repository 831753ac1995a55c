package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendSupabase Backend = "supabase"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Spendwise"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Backend Backend `envconfig:"BACKEND" default:"memory"`

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"spendwise"`
	}

	Supabase struct {
		URL          string        `envconfig:"SUPABASE_URL"`
		Key          string        `envconfig:"SUPABASE_KEY"`
		Table        string        `envconfig:"SUPABASE_TABLE" default:"documents"`
		PollInterval time.Duration `envconfig:"SUPABASE_POLL_INTERVAL" default:"5s"`
	}

	Drafts struct {
		Path string `envconfig:"DRAFTS_PATH" default:"data/drafts.db"`
		Key  string `envconfig:"DRAFTS_KEY" default:"pending_transactions"`
	}

	Connectivity struct {
		ProbeURL string        `envconfig:"CONNECTIVITY_PROBE_URL"`
		Interval time.Duration `envconfig:"CONNECTIVITY_INTERVAL" default:"5s"`
		Timeout  time.Duration `envconfig:"CONNECTIVITY_TIMEOUT" default:"3s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
		Token     string `envconfig:"AUTH_TOKEN"`
	}

	Gemini struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
		Model  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// ProbeURL returns the reachability target: the configured URL, or the
// document store endpoint when none is set.
func (c *Config) ProbeURL() string {
	if c.Connectivity.ProbeURL != "" {
		return c.Connectivity.ProbeURL
	}

	if c.Backend == BackendSupabase {
		return c.Supabase.URL
	}

	return ""
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return fmt.Errorf("supabase backend requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Drafts.Path == "" {
		return fmt.Errorf("DRAFTS_PATH must not be empty")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
