package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StorageBackend selects the persistence implementation for tickets and
// feedback. Resolved exactly once at process start.
type StorageBackend string

const (
	BackendFile     StorageBackend = "file"
	BackendPostgres StorageBackend = "postgres"
)

// Config aggregates runtime configuration for both binaries.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Bot      BotConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer-token parameters for the ticket API.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// StorageConfig selects and parameterizes the ticket/feedback backend.
type StorageConfig struct {
	Backend          StorageBackend
	TicketFilePath   string
	FeedbackFilePath string
}

// BotConfig holds the bot process settings: downstream endpoints, the two
// OAuth connection names, and dialog timeouts.
type BotConfig struct {
	Port                 string
	AppID                string
	AppPassword          string
	LoginURL             string
	TicketAPIBaseURL     string
	GraphBaseURL         string
	TokenServiceBaseURL  string
	GraphConnection      string
	TicketConnection     string
	CreateTimeoutSeconds int
	ListPageSize         int
	DialogStateTTLMin    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := StorageBackend(getEnv("TICKET_STORAGE_BACKEND", string(BackendFile)))
	switch backend {
	case BackendFile, BackendPostgres:
	default:
		return nil, fmt.Errorf("invalid TICKET_STORAGE_BACKEND: %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "teams-support-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Storage: StorageConfig{
			Backend:          backend,
			TicketFilePath:   getEnv("TICKET_FILE_PATH", "data/tickets.json"),
			FeedbackFilePath: getEnv("FEEDBACK_FILE_PATH", "data/feedback.json"),
		},
		Bot: BotConfig{
			Port:                 getEnv("BOT_PORT", "3978"),
			AppID:                os.Getenv("BOT_APP_ID"),
			AppPassword:          os.Getenv("BOT_APP_PASSWORD"),
			LoginURL:             getEnv("BOT_LOGIN_URL", "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"),
			TicketAPIBaseURL:     getEnv("TICKET_API_BASE_URL", "http://127.0.0.1:8080"),
			GraphBaseURL:         getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
			TokenServiceBaseURL:  getEnv("TOKEN_SERVICE_BASE_URL", "https://api.botframework.com"),
			GraphConnection:      getEnv("GRAPH_CONNECTION_NAME", "GraphConnection"),
			TicketConnection:     getEnv("TICKET_CONNECTION_NAME", "TicketConnection"),
			CreateTimeoutSeconds: getEnvAsInt("TICKET_CREATE_TIMEOUT_SECONDS", 30),
			ListPageSize:         getEnvAsInt("TICKET_LIST_PAGE_SIZE", 5),
			DialogStateTTLMin:    getEnvAsInt("DIALOG_STATE_TTL_MINUTES", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Addr returns the bot's HTTP bind address.
func (b BotConfig) Addr(host string) string {
	return fmt.Sprintf("%s:%s", host, b.Port)
}

// CreateTimeout bounds a single ticket creation attempt.
func (b BotConfig) CreateTimeout() time.Duration {
	if b.CreateTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(b.CreateTimeoutSeconds) * time.Second
}

// DialogStateTTL bounds how long a suspended dialog survives between turns.
func (b BotConfig) DialogStateTTL() time.Duration {
	if b.DialogStateTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(b.DialogStateTTLMin) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
