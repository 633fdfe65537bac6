package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/compass/internal/application/auth"
)

func TestServerConfig_ApplyDefaults(t *testing.T) {
	t.Run("applies all defaults for zero config", func(t *testing.T) {
		cfg := ServerConfig{}
		cfg.applyDefaults()

		assert.Equal(t, DefaultPort, cfg.Port)
		assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
		assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
		assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
		assert.Equal(t, DefaultReadHeaderTimeout, cfg.ReadHeaderTimeout)
		assert.Equal(t, DefaultMaxHeaderBytes, cfg.MaxHeaderBytes)
		assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.MaxBodyBytes)
	})

	t.Run("preserves non-zero values", func(t *testing.T) {
		cfg := ServerConfig{
			Port:           "9000",
			MaxHeaderBytes: 2048,
			MaxBodyBytes:   4096,
		}
		cfg.applyDefaults()

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 2048, cfg.MaxHeaderBytes)
		assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
		assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	})
}

func TestAPIServer_Routing(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	authenticator, err := auth.NewAuthenticator(auth.Config{
		Secret: strings.Repeat("s", 32),
	}, func() time.Time { return now })
	require.NoError(t, err)

	token, err := authenticator.IssueToken("alice", time.Hour)
	require.NoError(t, err)

	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, _ := auth.OwnerFrom(r.Context())
		body, _ := io.ReadAll(r.Body)
		_, _ = io.WriteString(w, owner+":"+r.URL.Path+":"+string(body))
	})

	srv := NewAPIServer(api, authenticator, ServerConfig{MaxBodyBytes: 32})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	send := func(t *testing.T, method, path, bearer, body string) (int, string) {
		t.Helper()
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		out, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(out)
	}

	t.Run("health needs no token", func(t *testing.T) {
		status, body := send(t, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"status":"ok"}`, body)
	})

	t.Run("api requires a token", func(t *testing.T) {
		status, _ := send(t, http.MethodGet, "/api/tasks", "", "")
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = send(t, http.MethodGet, "/api/tasks", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("token subject becomes the owner", func(t *testing.T) {
		status, body := send(t, http.MethodPost, "/api/tasks", token, `{"title":"x"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, `alice:/api/tasks:{"title":"x"}`, body)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		status, body := send(t, http.MethodPost, "/api/tasks", token, strings.Repeat("x", 64))
		assert.Equal(t, http.StatusRequestEntityTooLarge, status)
		assert.Contains(t, body, "PAYLOAD_TOO_LARGE")
	})
}
