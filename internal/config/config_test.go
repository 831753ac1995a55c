package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendMemory, cfg.Backend)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "data/drafts.db", cfg.Drafts.Path)
	assert.Equal(t, "pending_transactions", cfg.Drafts.Key)
	assert.Equal(t, 5*time.Second, cfg.Connectivity.Interval)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "postgres://postgres:@localhost:5432/spendwise?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Supabase(t *testing.T) {
	t.Setenv("BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("SUPABASE_POLL_INTERVAL", "2s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.BackendSupabase, cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.Supabase.PollInterval)
	assert.Equal(t, "https://example.supabase.co", cfg.ProbeURL())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "UnknownBackend", env: map[string]string{"BACKEND": "firebase"}},
		{name: "SupabaseWithoutKey", env: map[string]string{"BACKEND": "supabase", "SUPABASE_URL": "https://x"}},
		{name: "BadDuration", env: map[string]string{"CONNECTIVITY_INTERVAL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestProbeURL_Explicit(t *testing.T) {
	t.Setenv("CONNECTIVITY_PROBE_URL", "https://probe.example")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://probe.example", cfg.ProbeURL())
}
