package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "default", cfg.Ingest.Profile)
	assert.Equal(t, "company", cfg.Ingest.Apollo.CompanyName)
	assert.Equal(t, "website_url", cfg.Ingest.Apollo.Website)
	assert.True(t, cfg.Icebreaker.Enabled)
	assert.Equal(t, "relay", cfg.Icebreaker.Provider)
	assert.Equal(t, "anthropic", cfg.Icebreaker.DirectBackend)
	assert.Equal(t, DefaultFallbackTemplate, cfg.Icebreaker.FallbackTemplate)
	assert.Equal(t, 30, cfg.Icebreaker.RelayTimeoutSecs)
	assert.Equal(t, 5, cfg.Icebreaker.RelayBreakerThreshold)
	assert.Equal(t, 5, cfg.Icebreaker.BatchConcurrency)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Anthropic.Model)
	assert.Equal(t, int64(100), cfg.Anthropic.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Anthropic.Temperature, 0.001)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://api.instantly.ai/api/v1", cfg.Instantly.BaseURL)
	assert.Equal(t, 50, cfg.Dispatch.BatchSize)
	assert.Equal(t, 500, cfg.Dispatch.LeadDelayMs)
	assert.Equal(t, 2000, cfg.Dispatch.BatchPauseMs)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, ".", cfg.Report.Dir)
	assert.Equal(t, "Status", cfg.Notion.StatusProperty)
	assert.Equal(t, 24, cfg.Monitor.WindowHours)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.Monitor.Model)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
icebreaker:
  provider: direct
  direct_backend: gemini
dispatch:
  batch_size: 10
instantly:
  campaigns:
    enterprise-direct-pitch: camp-ent
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "direct", cfg.Icebreaker.Provider)
	assert.Equal(t, "gemini", cfg.Icebreaker.DirectBackend)
	assert.Equal(t, 10, cfg.Dispatch.BatchSize)
	assert.Equal(t, "camp-ent", cfg.Instantly.Campaigns["enterprise-direct-pitch"])
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Dispatch.LeadDelayMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
dispatch:
  batch_size: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("COLDREACH_DISPATCH_BATCH_SIZE", "25")
	t.Setenv("COLDREACH_INSTANTLY_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Dispatch.BatchSize)
	assert.Equal(t, "env-key", cfg.Instantly.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("COLDREACH_ANTHROPIC_KEY=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("COLDREACH_ANTHROPIC_KEY") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Anthropic.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{name: "json info", cfg: LogConfig{Level: "info", Format: "json"}},
		{name: "console debug", cfg: LogConfig{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: LogConfig{Level: "loud", Format: "json"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
}

func validConfig() *Config {
	return &Config{
		Icebreaker: IcebreakerConfig{
			Enabled:       true,
			Provider:      "relay",
			DirectBackend: "anthropic",
			RelayURL:      "https://relay.example.com/hook",
		},
		Instantly: InstantlyConfig{Key: "inst-key"},
		Dispatch:  DispatchConfig{BatchSize: 50},
		Store:     StoreConfig{Driver: "none"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		opts        ValidateOptions
		wantMissing []string
		wantErr     bool
	}{
		{name: "valid relay", mutate: func(*Config) {}},
		{
			name:        "missing instantly key",
			mutate:      func(c *Config) { c.Instantly.Key = "" },
			wantMissing: []string{"COLDREACH_INSTANTLY_KEY (required: lead dispatch)"},
		},
		{
			name:   "dry run skips instantly key",
			mutate: func(c *Config) { c.Instantly.Key = "" },
			opts:   ValidateOptions{DryRun: true},
		},
		{
			name:        "relay without url",
			mutate:      func(c *Config) { c.Icebreaker.RelayURL = "" },
			wantMissing: []string{"COLDREACH_ICEBREAKER_RELAY_URL (required: relay provider)"},
		},
		{
			name:        "direct anthropic without key",
			mutate:      func(c *Config) { c.Icebreaker.Provider = "direct" },
			wantMissing: []string{"COLDREACH_ANTHROPIC_KEY (required: anthropic backend)"},
		},
		{
			name: "direct gemini without key",
			mutate: func(c *Config) {
				c.Icebreaker.Provider = "direct"
				c.Icebreaker.DirectBackend = "gemini"
			},
			wantMissing: []string{"COLDREACH_GEMINI_KEY (required: gemini backend)"},
		},
		{
			name: "disabled icebreaker needs no provider credentials",
			mutate: func(c *Config) {
				c.Icebreaker.Enabled = false
				c.Icebreaker.RelayURL = ""
			},
		},
		{
			name: "offline skips all credentials",
			mutate: func(c *Config) {
				c.Instantly.Key = ""
				c.Icebreaker.RelayURL = ""
			},
			opts: ValidateOptions{Offline: true},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Icebreaker.Provider = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Dispatch.BatchSize = 0 },
			wantErr: true,
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
			},
			wantMissing: []string{"COLDREACH_STORE_DATABASE_URL (required: postgres ledger)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate(tt.opts)

			switch {
			case tt.wantErr:
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrMissingCredential))
			case len(tt.wantMissing) > 0:
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMissingCredential)
				var credErr *CredentialError
				require.ErrorAs(t, err, &credErr)
				assert.Equal(t, tt.wantMissing, credErr.Missing)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	cfg.Anthropic.Key = "sk-ant-1234567890"
	cfg.Instantly.Key = "short"
	cfg.Notify.SlackWebhookURL = "https://hooks.slack.com/services/T000/B000/XXXX"

	r := cfg.Redacted()

	assert.Equal(t, "sk-a****", r.Anthropic.Key)
	assert.Equal(t, "****", r.Instantly.Key)
	assert.Equal(t, "http****", r.Notify.SlackWebhookURL)
	assert.Equal(t, "", r.Gemini.Key)
	// Original untouched
	assert.Equal(t, "sk-ant-1234567890", cfg.Anthropic.Key)
}
