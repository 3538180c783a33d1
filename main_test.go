package main

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewApp boots the full application against an in-memory SQLite
// database and checks that the wiring (config, migrations, routes) holds
// together without a real PostgreSQL or RabbitMQ around.
func TestNewApp(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file::memory:?cache=shared")
	t.Setenv("UPLOAD_DIR", filepath.Join(t.TempDir(), "uploads"))
	t.Setenv("RABBITMQ_URL", "")

	app, mqClient, err := NewApp()
	require.NoError(t, err)
	assert.Nil(t, mqClient, "no broker configured, events disabled")

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])

	// The public listing works against the empty freshly-migrated table.
	resp, err = app.Test(httptest.NewRequest("GET", "/games/public/popular", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var page map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.EqualValues(t, 0, page["total"])
}
