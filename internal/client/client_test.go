package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-io/smapi/pkg/smapi"
)

// newFullBackend serves the session endpoints of a V3 backend plus one volume
// instance, so the assembled client can be exercised end to end.
func newFullBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"version": "3.2", "major": 3})
	})

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "access",
			"refresh_token": "refresh",
		})
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/instances/volume::vol-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_ = json.NewEncoder(w).Encode(smapi.Record{"id": "vol-1", "name": "data"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestClient_EndToEnd(t *testing.T) {
	t.Parallel()

	server := newFullBackend(t)
	ctx := context.Background()

	cli, err := New(ctx, &smapi.Config{
		Username:  "admin",
		Password:  "secret",
		VerifyTLS: true,
	}, server.URL)
	require.NoError(t, err)

	assert.Equal(t, smapi.APIVersionUnknown, cli.APIVersion())

	version, err := cli.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, smapi.APIVersionV3, version)
	assert.Equal(t, smapi.APIVersionV3, cli.APIVersion())

	record, err := cli.Entities().Get(ctx, "volume", "vol-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "data", record.Name())

	require.NoError(t, cli.Logout(ctx))
	assert.Equal(t, smapi.APIVersionUnknown, cli.APIVersion())
}

func TestClient_LazySession(t *testing.T) {
	t.Parallel()

	server := newFullBackend(t)
	ctx := context.Background()

	cli, err := New(ctx, &smapi.Config{
		Username:  "admin",
		Password:  "secret",
		VerifyTLS: true,
	}, server.URL)
	require.NoError(t, err)

	// No explicit EnsureSession: the first entity call logs in on demand.
	record, err := cli.Entities().Get(ctx, "volume", "vol-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "vol-1", record.ID())
	assert.Equal(t, smapi.APIVersionV3, cli.APIVersion())
}

func TestClient_CacheConfig(t *testing.T) {
	t.Parallel()

	server := newFullBackend(t)
	ctx := context.Background()

	cli, err := New(ctx, &smapi.Config{
		Username:  "admin",
		Password:  "secret",
		VerifyTLS: true,
		Cache: &smapi.CacheConfig{
			Type:   smapi.CacheTypeMemory,
			Memory: &smapi.MemoryCacheConfig{MaxSize: 10},
		},
	}, server.URL)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cli.Entities().Get(ctx, "volume", "vol-1", nil)
		require.NoError(t, err)
	}
}

func TestBuildTLSConfig(t *testing.T) {
	t.Parallel()

	t.Run("default policy when verification is on", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := buildTLSConfig(&smapi.Config{VerifyTLS: true})
		require.NoError(t, err)
		assert.Nil(t, tlsConfig)
	})

	t.Run("verification off", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := buildTLSConfig(&smapi.Config{VerifyTLS: false})
		require.NoError(t, err)
		require.NotNil(t, tlsConfig)
		assert.True(t, tlsConfig.InsecureSkipVerify)
	})

	t.Run("missing CA bundle", func(t *testing.T) {
		t.Parallel()

		_, err := buildTLSConfig(&smapi.Config{
			VerifyTLS:  true,
			CACertPath: "/nonexistent/ca.pem",
		})
		assert.Error(t, err)
	})

	t.Run("CA bundle without certificates", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := buildTLSConfig(&smapi.Config{
			VerifyTLS:  true,
			CACertPath: path,
		})
		assert.Error(t, err)
	})
}
