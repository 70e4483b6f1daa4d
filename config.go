package sessionvault

import (
	"errors"
	"time"
)

// Config carries all Manager tuning. Configure once at build time and treat
// as immutable afterwards.
type Config struct {
	Provider    ProviderConfig
	Session     SessionConfig
	SecureStore SecureStoreConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig tunes identity-provider interaction.
type ProviderConfig struct {
	// TokenLifetime is the assumed credential lifetime used when the
	// provider token carries no readable expiry. The provider does not
	// signal lifetime; expiry is computed client-side.
	TokenLifetime time.Duration
	// VerifyTimeout bounds a normal-mode validity check end to end.
	VerifyTimeout time.Duration
	// FastVerifyTimeout bounds a fast-mode validity check.
	FastVerifyTimeout time.Duration
	// PreloadTimeout bounds background session preloading.
	PreloadTimeout time.Duration
	// MaxAttempts is the provider-call retry budget (transient errors only).
	MaxAttempts int
	// BackoffBase scales the linear inter-attempt delay (attempt × base).
	BackoffBase time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes snapshot caching and corruption handling.
type SessionConfig struct {
	// StorageKey is the kv key of the combined credential envelope.
	StorageKey string
	// SnapshotTTL is how long the in-memory session snapshot is served
	// without re-reading storage.
	SnapshotTTL time.Duration
	// VerifyResultTTL is how long a verification verdict is reused in
	// fast mode.
	VerifyResultTTL time.Duration
	// ClockSkewTolerance is how far LastRefresh may sit in the future
	// before the record counts as corrupt.
	ClockSkewTolerance time.Duration
	// CleanupDelay debounces asynchronous corruption cleanup.
	CleanupDelay time.Duration
}

/*
====================================
SECURE STORE CONFIG
====================================
*/

// SecureStoreConfig tunes the fallback obfuscation path.
type SecureStoreConfig struct {
	// FallbackSecret seeds the obfuscation keystream when the keychain is
	// unusable. Empty disables the fallback path entirely.
	FallbackSecret []byte
	// FallbackSalt salts the keystream derivation.
	FallbackSalt []byte
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics table.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			TokenLifetime:     time.Hour,
			VerifyTimeout:     20 * time.Second,
			FastVerifyTimeout: 8 * time.Second,
			PreloadTimeout:    5 * time.Second,
			MaxAttempts:       3,
			BackoffBase:       time.Second,
		},
		Session: SessionConfig{
			StorageKey:         "cred:envelope",
			SnapshotTTL:        30 * time.Second,
			VerifyResultTTL:    30 * time.Second,
			ClockSkewTolerance: 2 * time.Minute,
			CleanupDelay:       100 * time.Millisecond,
		},
		SecureStore: SecureStoreConfig{
			FallbackSalt: []byte("sessionvault.fallback.v1"),
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.SecureStore.FallbackSecret != nil {
		out.SecureStore.FallbackSecret = append([]byte(nil), cfg.SecureStore.FallbackSecret...)
	}
	if cfg.SecureStore.FallbackSalt != nil {
		out.SecureStore.FallbackSalt = append([]byte(nil), cfg.SecureStore.FallbackSalt...)
	}
	return out
}

// Validate rejects configurations the Manager cannot run with.
func (c Config) Validate() error {
	if c.Provider.TokenLifetime <= 0 {
		return errors.New("provider token lifetime must be positive")
	}
	if c.Provider.VerifyTimeout <= 0 || c.Provider.FastVerifyTimeout <= 0 {
		return errors.New("verify timeouts must be positive")
	}
	if c.Provider.FastVerifyTimeout > c.Provider.VerifyTimeout {
		return errors.New("fast verify timeout must not exceed the normal timeout")
	}
	if c.Provider.MaxAttempts < 1 {
		return errors.New("provider max attempts must be at least 1")
	}
	if c.Provider.BackoffBase < 0 {
		return errors.New("backoff base must not be negative")
	}
	if c.Session.StorageKey == "" {
		return errors.New("session storage key must not be empty")
	}
	if c.Session.SnapshotTTL < 0 || c.Session.VerifyResultTTL < 0 {
		return errors.New("session cache TTLs must not be negative")
	}
	if c.Session.ClockSkewTolerance < 0 {
		return errors.New("clock skew tolerance must not be negative")
	}
	if c.Session.CleanupDelay < 0 {
		return errors.New("cleanup delay must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
