package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"gearguard/internal/config"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
}

func newAuthApp(cfg *config.Config, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(cfg), guard, func(c *fiber.Ctx) error {
		viewer, ok := CurrentViewer(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(viewer)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	app := newAuthApp(cfg, TechnicianOrManager())

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.GenerateAccessToken(7, "alice", string(domain.RoleTechnician), cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// cookie works too
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "access_token="+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleMiddleware_Forbidden(t *testing.T) {
	cfg := testConfig()
	app := newAuthApp(cfg, ManagerOnly())

	token, err := jwt.GenerateAccessToken(7, "alice", string(domain.RoleTechnician), cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "upstream down") })

	_, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(fiber.StatusBadGateway), entries[1].ContextMap()["status"])
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/board", NoCacheHeaders(), func(c *fiber.Ctx) error { return c.SendString("[]") })
	app.Get("/centers", CacheControl(time.Hour), func(c *fiber.Ctx) error { return c.SendString("[]") })

	resp, err := app.Test(httptest.NewRequest("GET", "/board", nil))
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")

	resp, err = app.Test(httptest.NewRequest("GET", "/centers", nil))
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
}
