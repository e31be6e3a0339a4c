package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingCredential is matched by every *CredentialError.
var ErrMissingCredential = errors.New("missing credential")

// CredentialError lists the env vars that must be set before a run can start.
type CredentialError struct {
	Missing []string
}

func (e *CredentialError) Error() string {
	return "config: missing required credentials:\n  " + strings.Join(e.Missing, "\n  ") +
		"\n\nSet these env vars or use --offline for stub mode"
}

// Is lets errors.Is match ErrMissingCredential.
func (e *CredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// ValidateOptions relaxes checks for modes that make no network calls.
type ValidateOptions struct {
	// DryRun skips the sending-platform credential.
	DryRun bool
	// Offline skips every credential.
	Offline bool
}

// Validate checks that the credentials required by the selected provider and
// platform combination are present.
func (c *Config) Validate(opts ValidateOptions) error {
	switch c.Icebreaker.Provider {
	case "relay", "direct", "none":
	default:
		return eris.Errorf("config: unknown icebreaker.provider %q (want relay, direct or none)", c.Icebreaker.Provider)
	}
	switch c.Icebreaker.DirectBackend {
	case "anthropic", "gemini":
	default:
		return eris.Errorf("config: unknown icebreaker.direct_backend %q (want anthropic or gemini)", c.Icebreaker.DirectBackend)
	}
	switch c.Store.Driver {
	case "none", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Dispatch.BatchSize <= 0 {
		return eris.Errorf("config: dispatch.batch_size must be positive, got %d", c.Dispatch.BatchSize)
	}

	if opts.Offline {
		return nil
	}

	var missing []string
	if !opts.DryRun && c.Instantly.Key == "" {
		missing = append(missing, "COLDREACH_INSTANTLY_KEY (required: lead dispatch)")
	}
	if c.Icebreaker.Enabled {
		switch c.Icebreaker.Provider {
		case "relay":
			if c.Icebreaker.RelayURL == "" {
				missing = append(missing, "COLDREACH_ICEBREAKER_RELAY_URL (required: relay provider)")
			}
		case "direct":
			missing = append(missing, c.directKeyMissing()...)
		}
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		missing = append(missing, "COLDREACH_STORE_DATABASE_URL (required: postgres ledger)")
	}

	if len(missing) > 0 {
		return &CredentialError{Missing: missing}
	}
	return nil
}

func (c *Config) directKeyMissing() []string {
	switch c.Icebreaker.DirectBackend {
	case "gemini":
		if c.Gemini.Key == "" {
			return []string{"COLDREACH_GEMINI_KEY (required: gemini backend)"}
		}
	default:
		if c.Anthropic.Key == "" {
			return []string{"COLDREACH_ANTHROPIC_KEY (required: anthropic backend)"}
		}
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	c.Anthropic.Key = redact(c.Anthropic.Key)
	c.Gemini.Key = redact(c.Gemini.Key)
	c.Instantly.Key = redact(c.Instantly.Key)
	c.Notion.Token = redact(c.Notion.Token)
	c.Store.DatabaseURL = redact(c.Store.DatabaseURL)
	c.Notify.SlackWebhookURL = redact(c.Notify.SlackWebhookURL)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
