package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_TYPE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_NAME", "greenhouse")
	t.Setenv("DB_USER", "app")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("LOG_LEVEL", "DEBUG")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadConfigSqliteNeedsNoUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_NAME", "greenhouse.db")
	t.Setenv("DB_USER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)

	t.Setenv("DB_TYPE", "postgres")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestOpenDBRejectsUnknownType(t *testing.T) {
	_, err := OpenDB(&Config{DBType: "oracle"})
	assert.Error(t, err)
}
