package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/airmap-service/internal/dataset"
	"github.com/kjstillabower/airmap-service/internal/interpolation"
)

// Data backends.
const (
	BackendCSV      = "csv"
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
)

// Config holds service configuration loaded from YAML, .env and the environment.
type Config struct {
	ServerPort     string
	LogLevel       string
	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	DataBackend string
	Columns     dataset.Columns

	CSVPath string

	HTTPURL        string
	HTTPTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	DatabaseURL      string
	PostgresTable    string
	PostgresMaxConns int32

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	Variables     []dataset.Variable
	Interpolation interpolation.Config

	OverloadWindow      time.Duration
	OverloadDenials     int
	DegradedWindow      time.Duration
	DegradedErrorPct    int
	DegradedMinRequests int
	IdleWindow          time.Duration
	MinimumLifespan     time.Duration
}

type resolutionConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type fileConfig struct {
	LogLevel string `yaml:"log_level"`

	Server struct {
		Port           string `yaml:"port"`
		RequestTimeout string `yaml:"request_timeout"`
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Data struct {
		Backend string          `yaml:"backend"`
		Columns dataset.Columns `yaml:"columns"`
		CSV struct {
			Path string `yaml:"path"`
		} `yaml:"csv"`
		HTTP struct {
			URL            string `yaml:"url"`
			Timeout        string `yaml:"timeout"`
			RetryAttempts  int    `yaml:"retry_attempts"`
			RetryBaseDelay string `yaml:"retry_base_delay"`
			RetryMaxDelay  string `yaml:"retry_max_delay"`
		} `yaml:"http"`
		Postgres struct {
			Table    string `yaml:"table"`
			MaxConns int32  `yaml:"max_conns"`
		} `yaml:"postgres"`
	} `yaml:"data"`

	Reliability struct {
		CircuitBreaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Variables []dataset.Variable `yaml:"variables"`

	Interpolation struct {
		Buffer            *float64         `yaml:"buffer"`
		IDWPower          *float64         `yaml:"idw_power"`
		IDWEpsilon        *float64         `yaml:"idw_epsilon"`
		IDWResolution     resolutionConfig `yaml:"idw_resolution"`
		KrigingResolution resolutionConfig `yaml:"kriging_resolution"`
		Variogram         string           `yaml:"variogram"`
		Lags              int              `yaml:"lags"`
		Workers           int              `yaml:"workers"`
	} `yaml:"interpolation"`

	Health struct {
		OverloadWindow      string `yaml:"overload_window"`
		OverloadDenials     int    `yaml:"overload_denials"`
		DegradedWindow      string `yaml:"degraded_window"`
		DegradedErrorPct    int    `yaml:"degraded_error_pct"`
		DegradedMinRequests int    `yaml:"degraded_min_requests"`
		IdleWindow          string `yaml:"idle_window"`
		MinimumLifespan     string `yaml:"minimum_lifespan"`
	} `yaml:"health"`
}

// Load reads an optional .env file, then config/{ENV_NAME}.yaml (default dev),
// then applies environment overrides. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := fromFile(&fc)
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromFile(fc *fileConfig) *Config {
	cfg := &Config{}

	cfg.LogLevel = strings.TrimSpace(fc.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	cfg.RequestTimeout = parseDuration(fc.Server.RequestTimeout, 30*time.Second)
	cfg.RateLimitRPS = fc.Server.RateLimitRPS
	if cfg.RateLimitRPS < 0 {
		cfg.RateLimitRPS = 0
	}
	cfg.RateLimitBurst = fc.Server.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 2 * cfg.RateLimitRPS
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.DataBackend = strings.ToLower(strings.TrimSpace(fc.Data.Backend))
	if cfg.DataBackend == "" {
		cfg.DataBackend = BackendCSV
	}
	cfg.Columns = dataset.DefaultColumns()
	if c := fc.Data.Columns; c.Name != "" {
		cfg.Columns.Name = c.Name
	}
	if c := fc.Data.Columns; c.Latitude != "" {
		cfg.Columns.Latitude = c.Latitude
	}
	if c := fc.Data.Columns; c.Longitude != "" {
		cfg.Columns.Longitude = c.Longitude
	}
	if c := fc.Data.Columns; c.Date != "" {
		cfg.Columns.Date = c.Date
	}

	cfg.CSVPath = fc.Data.CSV.Path
	if cfg.CSVPath == "" {
		cfg.CSVPath = "data/measurements.csv"
	}
	cfg.HTTPURL = fc.Data.HTTP.URL
	cfg.HTTPTimeout = parseDuration(fc.Data.HTTP.Timeout, 5*time.Second)
	cfg.RetryAttempts = fc.Data.HTTP.RetryAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Data.HTTP.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Data.HTTP.RetryMaxDelay, 2*time.Second)
	cfg.PostgresTable = fc.Data.Postgres.Table
	if cfg.PostgresTable == "" {
		cfg.PostgresTable = "measurements"
	}
	cfg.PostgresMaxConns = fc.Data.Postgres.MaxConns

	cb := fc.Reliability.CircuitBreaker
	cfg.CircuitBreakerEnabled = true
	if cb.Enabled != nil {
		cfg.CircuitBreakerEnabled = *cb.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = cb.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = cb.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(cb.Timeout, 30*time.Second)

	cfg.Variables = fc.Variables
	if len(cfg.Variables) == 0 {
		cfg.Variables = dataset.DefaultVariables()
	}

	ic := interpolation.DefaultConfig()
	fi := fc.Interpolation
	if fi.Buffer != nil {
		ic.Buffer = *fi.Buffer
	}
	if fi.IDWPower != nil {
		ic.IDWPower = *fi.IDWPower
	}
	if fi.IDWEpsilon != nil {
		ic.IDWEpsilon = *fi.IDWEpsilon
	}
	if fi.IDWResolution.X != 0 || fi.IDWResolution.Y != 0 {
		ic.IDWResolution = interpolation.Resolution{X: fi.IDWResolution.X, Y: fi.IDWResolution.Y}
	}
	if fi.KrigingResolution.X != 0 || fi.KrigingResolution.Y != 0 {
		ic.KrigingResolution = interpolation.Resolution{X: fi.KrigingResolution.X, Y: fi.KrigingResolution.Y}
	}
	if fi.Variogram != "" {
		ic.Variogram = interpolation.VariogramModel(strings.ToLower(strings.TrimSpace(fi.Variogram)))
	}
	if fi.Lags != 0 {
		ic.Lags = fi.Lags
	}
	if fi.Workers > 0 {
		ic.Workers = fi.Workers
	}
	cfg.Interpolation = ic

	h := fc.Health
	cfg.OverloadWindow = parseDuration(h.OverloadWindow, 60*time.Second)
	cfg.OverloadDenials = h.OverloadDenials
	if cfg.OverloadDenials <= 0 {
		cfg.OverloadDenials = 50
	}
	cfg.DegradedWindow = parseDuration(h.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = h.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}
	cfg.DegradedMinRequests = h.DegradedMinRequests
	if cfg.DegradedMinRequests <= 0 {
		cfg.DegradedMinRequests = 5
	}
	cfg.IdleWindow = parseDurationOrZero(h.IdleWindow, 0)
	cfg.MinimumLifespan = parseDuration(h.MinimumLifespan, 5*time.Minute)

	return cfg
}

// applyEnv overrides file values with non-empty environment variables.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("SERVER_PORT")); v != "" {
		cfg.ServerPort = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("DATA_BACKEND")); v != "" {
		cfg.DataBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("DATA_CSV_PATH")); v != "" {
		cfg.CSVPath = v
	}
	if v := strings.TrimSpace(os.Getenv("DATA_HTTP_URL")); v != "" {
		cfg.HTTPURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
}

// parseDuration parses s and returns defaultVal when s is empty, malformed or <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses s, returning defaultVal on empty string or parse error.
// Zero and negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate checks cross-field constraints after defaults and overrides.
func validate(cfg *Config) error {
	switch cfg.DataBackend {
	case BackendCSV:
		if strings.TrimSpace(cfg.CSVPath) == "" {
			return fmt.Errorf("data.csv.path is required for the csv backend")
		}
	case BackendHTTP:
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return fmt.Errorf("DATA_HTTP_URL required for the http backend (set env or data.http.url)")
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL required for the postgres backend")
		}
	default:
		return fmt.Errorf("data.backend must be csv, http or postgres, got %q", cfg.DataBackend)
	}
	if _, err := dataset.NewRegistry(cfg.Variables); err != nil {
		return fmt.Errorf("variables: %w", err)
	}
	if err := cfg.Interpolation.Validate(); err != nil {
		return fmt.Errorf("interpolation: %w", err)
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		cfg.RetryMaxDelay = cfg.RetryBaseDelay
	}
	return nil
}
