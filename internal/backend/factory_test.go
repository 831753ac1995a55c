package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/backend"
	"github.com/MrJamesThe3rd/spendwise/internal/config"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/memory"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/supabase"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(c *config.Config)
		check   func(t *testing.T, r *backend.Result)
		wantErr bool
	}{
		{
			name: "Memory",
			cfg:  func(c *config.Config) { c.Backend = config.BackendMemory },
			check: func(t *testing.T, r *backend.Result) {
				assert.IsType(t, &memory.Store{}, r.Store)
			},
		},
		{
			name: "Supabase",
			cfg: func(c *config.Config) {
				c.Backend = config.BackendSupabase
				c.Supabase.URL = "http://localhost:54321"
				c.Supabase.Key = "anon"
			},
			check: func(t *testing.T, r *backend.Result) {
				assert.IsType(t, &supabase.Store{}, r.Store)
			},
		},
		{
			name:    "Unknown",
			cfg:     func(c *config.Config) { c.Backend = "sheets" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			tt.cfg(&cfg)

			r, err := backend.Open(context.Background(), &cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, r.Cleanup)

			defer r.Cleanup()

			tt.check(t, r)
		})
	}
}
