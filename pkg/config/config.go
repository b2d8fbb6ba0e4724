package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevTokenSecret is the development-only fallback for TOKEN_SECRET.
	DevTokenSecret = "finbox-receipt-scanner-secret-key"
	// DevSessionSecret is the development-only fallback for JWT_SECRET_KEY.
	DevSessionSecret = "finbox-session-secret-change-in-production"

	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"

	LLMProviderGemini   = "gemini"
	LLMProviderGigaChat = "gigachat"
)

var (
	ErrInsecureTokenSecret   = errors.New("TOKEN_SECRET must be set in production")
	ErrInsecureSessionSecret = errors.New("JWT_SECRET_KEY must be set in production")
	ErrMemoryStorage         = errors.New("memory storage is not allowed in production")
	ErrUnknownStorageDriver  = errors.New("unknown storage driver")
	ErrUnknownLLMProvider    = errors.New("unknown LLM provider")
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Token    TokenConfig
	LLM      LLMConfig
	Gemini   GeminiConfig
	GigaChat GigaChatConfig
	Receipt  ReceiptConfig
	Logger   LoggerConfig
}

type AppConfig struct {
	Env string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// JWTConfig configures web session tokens.
type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// TokenConfig configures desktop companion credentials.
type TokenConfig struct {
	Secret string
}

type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type ReceiptConfig struct {
	MaxBytes int64
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same (Docker/K8s)
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "60"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	aiTimeout, _ := strconv.Atoi(getEnv("AI_REQUEST_TIMEOUT", "30"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	maxReceipt, _ := strconv.ParseInt(getEnv("RECEIPT_MAX_BYTES", "5242880"), 10, 64)
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true"

	cfg := &Config{
		App: AppConfig{
			Env: strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		},
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "3000"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
			SQLitePath: getEnv("SQLITE_PATH", "finbox.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "finbox"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(maxConns),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", DevSessionSecret),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Token: TokenConfig{
			Secret: getEnv("TOKEN_SECRET", DevTokenSecret),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderGemini)),
			Timeout:  time.Duration(aiTimeout) * time.Second,
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			ChatModel:   getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
			VisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-2.0-flash"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Receipt: ReceiptConfig{
			MaxBytes: maxReceipt,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that must never reach production.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverSQLite, StorageDriverMemory:
	default:
		return ErrUnknownStorageDriver
	}

	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderGigaChat:
	default:
		return ErrUnknownLLMProvider
	}

	if !c.IsProduction() {
		return nil
	}
	if c.Token.Secret == "" || c.Token.Secret == DevTokenSecret {
		return ErrInsecureTokenSecret
	}
	if c.JWT.SecretKey == "" || c.JWT.SecretKey == DevSessionSecret {
		return ErrInsecureSessionSecret
	}
	if c.Storage.Driver == StorageDriverMemory {
		return ErrMemoryStorage
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// UsesDevSecrets reports whether either signing secret is the built-in fallback.
func (c *Config) UsesDevSecrets() bool {
	return c.Token.Secret == DevTokenSecret || c.JWT.SecretKey == DevSessionSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
