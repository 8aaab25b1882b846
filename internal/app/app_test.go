package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/goliatone/go-leave-auth/config"
	"github.com/goliatone/go-leave-auth/internal/app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.DSN = "file::memory:"
	cfg.Auth.SigningKey = "0123456789abcdef0123456789abcdef"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_RequiresSigningKey(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.SigningKey = ""

	_, err := app.New(context.Background(), cfg, nopLogger{})
	assert.True(t, auth.HasTextCode(err, auth.TextCodeMissingSigningKey))
}

func TestNew_RequiresDefaultRoleInCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.DefaultRole = "Employee"

	_, err := app.New(context.Background(), cfg, nopLogger{})
	assert.True(t, auth.HasTextCode(err, auth.TextCodeMissingDefaultRole), "got %v", err)
}

func TestNew_SeededCatalogPassesStartupChecks(t *testing.T) {
	a := newTestApp(t, testConfig())

	assert.NotNil(t, a.HTTP())
	assert.NotNil(t, a.Authenticator())
}

func TestOpenDB_UnsupportedDialect(t *testing.T) {
	_, err := app.OpenDB(context.Background(), config.DatabaseConfig{Dialect: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestMigrateAndSchemaVersion(t *testing.T) {
	ctx := context.Background()
	db, err := app.OpenDB(ctx, config.DatabaseConfig{Dialect: config.DialectSQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, app.Migrate(ctx, db, config.DialectSQLite))

	version, err := app.SchemaVersion(ctx, db, config.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	repo := auth.NewRepositoryManager(db)
	assert.NoError(t, app.CheckDefaultRole(ctx, repo, "User"))
	assert.True(t, auth.HasTextCode(app.CheckDefaultRole(ctx, repo, "Nope"), auth.TextCodeMissingDefaultRole))
}

func TestHTTPServer(t *testing.T) {
	a := newTestApp(t, testConfig())
	srv := a.HTTP()

	t.Run("health", func(t *testing.T) {
		resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("cors preflight for the browser client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:4200")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		resp, err := srv.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:4200", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id", func(t *testing.T) {
		resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.NoError(t, err)
		_, err = uuid.Parse(resp.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("unknown route uses the envelope", func(t *testing.T) {
		resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var env auth.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.False(t, env.Success)
	})

	t.Run("register then login", func(t *testing.T) {
		post := func(path string, body any) *http.Response {
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			resp, err := srv.Test(req, -1)
			require.NoError(t, err)
			return resp
		}

		resp := post("/auth/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "pw123456",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = post("/auth/login", map[string]string{
			"username": "alice",
			"password": "pw123456",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var env struct {
			Data auth.TokenBundle `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		assert.Equal(t, []string{"User"}, env.Data.Roles)

		req := httptest.NewRequest(http.MethodGet, "/auth/roles", nil)
		req.Header.Set("Authorization", "Bearer "+env.Data.Token)
		resp, err := srv.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLogActivitySink(t *testing.T) {
	sink := app.NewLogActivitySink(nopLogger{})
	assert.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{
		EventType: auth.ActivityEventLoginSuccess,
		UserID:    "1",
	}))
}
