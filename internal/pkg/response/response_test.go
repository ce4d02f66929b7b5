package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, app *fiber.App, path string) (int, Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body Response
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body, resp.Header.Get(fiber.HeaderXRequestID)
}

func TestError_CarriesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return "req-42" },
	}))
	app.Get("/busy", func(c *fiber.Ctx) error {
		return Conflict(c, "Request is being changed by someone else")
	})

	status, body, header := decode(t, app, "/busy")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Request is being changed by someone else", body.Error)
	assert.Equal(t, "req-42", body.RequestID)
	assert.Equal(t, "req-42", header)
}

func TestError_WithoutRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/missing", func(c *fiber.Ctx) error {
		return NotFound(c, "Request not found")
	})

	status, body, _ := decode(t, app, "/missing")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Empty(t, body.RequestID)
}

func TestSuccess_OmitsRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return Success(c, "ok", fiber.Map{"id": "r1"})
	})

	status, body, header := decode(t, app, "/ok")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Empty(t, body.RequestID)
	assert.NotEmpty(t, header)
}
