package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Parse()
	require.NoError(t, err)
	require.True(t, cfg.IsDev())
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "gearguard", cfg.Database.DBName)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL())
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL())
	require.Equal(t, "*", cfg.GetAllowedOrigins())
	require.Equal(t, 15*time.Second, cfg.LockTTL)
}

func TestParse_ModePrefix(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "ignored")
	t.Setenv("PROD_JWT_SECRET", "a")
	t.Setenv("PROD_JWT_REFRESH_SECRET", "b")
	t.Setenv("ALLOWED_ORIGINS", "https://board.example.com")

	cfg, err := Parse()
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, "a", cfg.JWT.Secret)
	require.Equal(t, "https://board.example.com", cfg.GetAllowedOrigins())
}

func TestParse_ProdRequiresSecrets(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	_, err := Parse()
	require.Error(t, err)
}

func TestParse_InvalidMode(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Parse()
	require.ErrorContains(t, err, "invalid APP_MODE")
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "1", DBName: "d"})
	require.Equal(t, "u:p@tcp(h:1)/d?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func TestNewLogger_Level(t *testing.T) {
	log, err := NewLogger(&Config{AppMode: ModeProd, LogLevel: "warn"})
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zap.InfoLevel))
	require.True(t, log.Core().Enabled(zap.WarnLevel))
}
