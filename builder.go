package sessionvault

import (
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/kestrelhq/sessionvault/kv"
	"github.com/kestrelhq/sessionvault/securestore"
)

// Builder assembles a [Manager]. Construct at the application's composition
// root and pass the built Manager by reference; there is no global instance.
type Builder struct {
	config Config

	redis    *redis.Client
	store    kv.Store
	keychain securestore.Keychain
	provider IdentityProvider
	sink     AuditSink
}

// New creates a Builder with default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the persistent kv layer.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore sets an explicit kv store, overriding WithRedis.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithKeychain sets the keychain sealing persisted credentials.
func (b *Builder) WithKeychain(kc securestore.Keychain) *Builder {
	b.keychain = kc
	return b
}

// WithProvider sets the identity provider.
func (b *Builder) WithProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the audit event sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

const kvNamespace = "sv"

// Build validates the configuration, probes the keychain, and returns a
// ready Manager.
func (b *Builder) Build() (*Manager, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("identity provider is required")
	}

	store := b.store
	ownsStore := false
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("a kv store or redis client is required")
		}
		store = kv.NewRedisStore(b.redis, kvNamespace)
		ownsStore = true
	}

	keychain := b.keychain
	if keychain == nil {
		generated, err := securestore.GenerateStaticKeychain()
		if err != nil {
			// No key material at all: the secure store degrades to
			// the fallback path below.
			log.Print("sessionvault: keychain generation failed")
			keychain = securestore.UnavailableKeychain{}
		} else {
			keychain = generated
		}
	}

	var fallback *securestore.FallbackStore
	if len(b.config.SecureStore.FallbackSecret) > 0 {
		fallback = securestore.NewFallbackStore(
			b.config.SecureStore.FallbackSecret,
			b.config.SecureStore.FallbackSalt,
		)
	}

	metrics := NewMetrics(b.config.Metrics)
	secure := securestore.NewStore(store, keychain, fallback)
	if !secure.Healthy() {
		metrics.Inc(MetricFallbackEngaged)
	}

	m := &Manager{
		config:   b.config,
		provider: b.provider,
		secure:   secure,
		kv:       store,
		audit:    newAuditDispatcher(b.config.Audit, b.sink),
		metrics:  metrics,
		ownsKV:   ownsStore,
	}
	m.now = defaultClock

	if !secure.Healthy() {
		m.emit(AuditEvent{
			EventType: AuditFallbackStorage,
			Success:   false,
		})
	}

	return m, nil
}
