package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newApp(c *Checker) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/healthz", Liveness)
	app.Get("/readyz", c.Readiness)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLiveness(t *testing.T) {
	code, body := get(t, newApp(NewChecker(zerolog.Nop())), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ok")
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusOK })
	c.Register("cache", func(ctx context.Context) Status { return StatusOK })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_OneDown(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusOK })
	c.Register("cache", func(ctx context.Context) Status { return StatusDown })

	assert.False(t, c.IsReady(context.Background()))
}

func TestChecker_Degraded_StillReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("db", func(ctx context.Context) Status { return StatusDegraded })

	assert.True(t, c.IsReady(context.Background()))
}

func TestChecker_NoChecks(t *testing.T) {
	assert.True(t, NewChecker(zerolog.Nop()).IsReady(context.Background()))
}

func TestPingCheck(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, StatusOK, PingCheck(fakePinger{})(ctx))
	assert.Equal(t, StatusDown, PingCheck(fakePinger{err: errors.New("closed")})(ctx))
}

func TestReadiness_Healthy(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("store", PingCheck(fakePinger{}))

	code, body := get(t, newApp(c), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"ready"`)
}

func TestReadiness_NotReady(t *testing.T) {
	c := NewChecker(zerolog.Nop())
	c.Register("store", PingCheck(fakePinger{err: errors.New("closed")}))

	code, body := get(t, newApp(c), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "not_ready")
}
