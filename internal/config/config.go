package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		// URL, when set, takes precedence over the individual fields.
		URL string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Admin struct {
		Username string `yaml:"username" env:"ADMIN_USERNAME"`
		// PasswordHash is a bcrypt hash; the plain password is never stored.
		PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	} `yaml:"admin"`

	Grader struct {
		StatementTimeout string `yaml:"statement_timeout" env:"GRADER_STATEMENT_TIMEOUT"`
		Parallelism      int    `yaml:"parallelism" env:"GRADER_PARALLELISM"`
		MaxSQLLength     int    `yaml:"max_sql_length" env:"GRADER_MAX_SQL_LENGTH"`
	} `yaml:"grader"`

	Reports struct {
		Directory string `yaml:"directory" env:"REPORTS_DIR"`
		BaseURL   string `yaml:"base_url" env:"REPORTS_BASE_URL"`
	} `yaml:"reports"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables.
// A missing file is not an error; defaults and the environment still apply.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "company_db"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "sqlguide"

	config.Admin.Username = "admin"

	config.Grader.StatementTimeout = "5s"
	config.Grader.Parallelism = 4
	config.Grader.MaxSQLLength = 20000

	config.Reports.Directory = "reports"
	config.Reports.BaseURL = "/reports"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid. All problems are
// reported together.
func validateConfig(config *Config) error {
	var errs []error

	if config.Database.URL == "" && config.Database.Host == "" {
		errs = append(errs, errors.New("database host is required"))
	}
	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		errs = append(errs, fmt.Errorf("invalid database connection lifetime: %w", err))
	}
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		errs = append(errs, fmt.Errorf("invalid JWT access token expiration format: %w", err))
	}
	if d, err := time.ParseDuration(config.Grader.StatementTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("grader statement timeout must be a positive duration, got %q", config.Grader.StatementTimeout))
	}
	if config.Grader.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("grader parallelism must be at least 1, got %d", config.Grader.Parallelism))
	}
	if config.Grader.MaxSQLLength < 1 {
		errs = append(errs, fmt.Errorf("grader max SQL length must be positive, got %d", config.Grader.MaxSQLLength))
	}
	switch config.Server.Mode {
	case "development", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown server mode %q", config.Server.Mode))
	}

	return errors.Join(errs...)
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if c.Admin.Username == "" || c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("admin username and password hash are required"))
	}
	return errors.Join(errs...)
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "production"
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
