package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("TOKEN_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, DevTokenSecret, cfg.Token.Secret)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, int64(5<<20), cfg.Receipt.MaxBytes)
	assert.True(t, cfg.UsesDevSecrets())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("AI_REQUEST_TIMEOUT", "5")
	t.Setenv("LLM_PROVIDER", "gigachat")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, LLMProviderGigaChat, cfg.LLM.Provider)
}

func TestLoadRefusesFallbackSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "")
	t.Setenv("JWT_SECRET_KEY", "session-secret")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInsecureTokenSecret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:     AppConfig{Env: EnvProduction},
			Storage: StorageConfig{Driver: StorageDriverPostgres},
			LLM:     LLMConfig{Provider: LLMProviderGemini},
			JWT:     JWTConfig{SecretKey: "session"},
			Token:   TokenConfig{Secret: "desktop"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid production", mutate: func(c *Config) {}},
		{name: "dev token secret", mutate: func(c *Config) { c.Token.Secret = DevTokenSecret }, wantErr: ErrInsecureTokenSecret},
		{name: "dev session secret", mutate: func(c *Config) { c.JWT.SecretKey = DevSessionSecret }, wantErr: ErrInsecureSessionSecret},
		{name: "memory storage", mutate: func(c *Config) { c.Storage.Driver = StorageDriverMemory }, wantErr: ErrMemoryStorage},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mysql" }, wantErr: ErrUnknownStorageDriver},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "openai" }, wantErr: ErrUnknownLLMProvider},
		{
			name: "development allows fallbacks",
			mutate: func(c *Config) {
				c.App.Env = EnvDevelopment
				c.Token.Secret = DevTokenSecret
				c.Storage.Driver = StorageDriverMemory
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetEnv(t *testing.T) {
	assert.Equal(t, "default", getEnv("FINBOX_NONEXISTENT_VAR", "default"))

	t.Setenv("FINBOX_TEST_VAR", "test_value")
	assert.Equal(t, "test_value", getEnv("FINBOX_TEST_VAR", "default"))
}
