package sessionvault

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kestrelhq/sessionvault/idtoken"
	"github.com/kestrelhq/sessionvault/internal/errkind"
	"github.com/kestrelhq/sessionvault/kv"
	"github.com/kestrelhq/sessionvault/securestore"
	"github.com/kestrelhq/sessionvault/session"
)

func defaultClock() time.Time { return time.Now() }

// cachedState is the Manager's mutable state, replaced wholesale under the
// mutex so readers always see a coherent snapshot+timestamp pair.
type cachedState struct {
	snapshot   *session.Data
	snapshotAt time.Time

	verdict    bool
	verdictAt  time.Time
	hasVerdict bool
}

// Manager orchestrates the cached session: persistence through the secure
// store, verification and refresh against the identity provider, and the
// short-TTL in-memory caches.
//
// Concurrent validity checks may each reach the provider independently;
// there is deliberately no single-flight deduplication (wasteful but
// idempotent).
type Manager struct {
	config   Config
	provider IdentityProvider
	secure   *securestore.Store
	kv       kv.Store
	audit    *auditDispatcher
	metrics  *Metrics

	// ownsKV marks a store the builder created internally; caller-supplied
	// stores stay caller-owned.
	ownsKV bool

	mu    sync.Mutex
	state cachedState

	cleanupMu      sync.Mutex
	cleanupTimer   *time.Timer
	cleanupPending bool

	now func() time.Time
}

// Close drains the audit dispatcher, cancels pending cleanup, and shuts
// down the backing store when the builder created it.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.cleanupMu.Lock()
	if m.cleanupTimer != nil {
		m.cleanupTimer.Stop()
	}
	m.cleanupMu.Unlock()

	if m.audit != nil {
		m.audit.Close()
	}
	if m.ownsKV && m.kv != nil {
		_ = m.kv.Close()
	}
}

// MetricsSnapshot exposes the metrics table for exporters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports audit events lost to buffer pressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// StorageHealthy reports whether credentials are sealed (true) or riding
// the low-assurance fallback path (false).
func (m *Manager) StorageHealthy() bool {
	return m != nil && m.secure.Healthy()
}

func (m *Manager) emit(event AuditEvent) {
	if m.audit == nil {
		return
	}
	event.Timestamp = m.now()
	m.audit.EmitEvent(context.Background(), event)
}

// SaveSession obtains a fresh credential from the provider, builds and
// validates a session snapshot, and persists both as one envelope record.
func (m *Manager) SaveSession(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	identity, err := m.provider.CurrentUser(ctx)
	if err != nil {
		m.metrics.Inc(MetricSaveFailure)
		return err
	}
	if identity == nil {
		m.metrics.Inc(MetricSaveFailure)
		return ErrNoIdentity
	}

	token, err := m.provider.IDToken(ctx, true)
	if err != nil {
		m.metrics.Inc(MetricSaveFailure)
		return err
	}
	if token == "" {
		// An empty credential would read back as a corrupt record.
		m.metrics.Inc(MetricSaveFailure)
		return ErrSessionInvalid
	}

	now := m.now()
	data := &session.Data{
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		TokenExpiry: m.tokenExpiry(token, now),
		LastRefresh: now,
		Provider:    identity.Provider,
	}
	if !data.ValidAt(now) {
		m.metrics.Inc(MetricSaveFailure)
		return ErrSessionInvalid
	}

	if err := m.persistEnvelope(ctx, token, data); err != nil {
		m.metrics.Inc(MetricSaveFailure)
		m.emit(AuditEvent{
			EventType: AuditSessionSaved,
			UserRef:   truncateRef(data.UserID),
			ErrorKind: errkind.Classify(err).String(),
		})
		return err
	}

	m.metrics.Inc(MetricSaveSuccess)
	m.emit(AuditEvent{
		EventType: AuditSessionSaved,
		UserRef:   truncateRef(data.UserID),
		Success:   true,
	})
	return nil
}

// tokenExpiry computes the credential expiry client-side: the token's own
// exp claim when it parses as a JWT, the configured fixed lifetime
// otherwise.
func (m *Manager) tokenExpiry(token string, now time.Time) time.Time {
	if claims, err := idtoken.Peek(token); err == nil {
		return claims.Expiry
	}
	return now.Add(m.config.Provider.TokenLifetime)
}

func (m *Manager) persistEnvelope(ctx context.Context, token string, data *session.Data) error {
	payload, err := session.EncodeEnvelope(&session.Envelope{
		Token:   token,
		Session: *data,
	})
	if err != nil {
		return err
	}
	if err := m.secure.StoreToken(ctx, m.config.Session.StorageKey, string(payload)); err != nil {
		return err
	}

	// Replace the whole state: a verdict cached for the previous session
	// must not apply to the one just persisted.
	m.mu.Lock()
	m.state = cachedState{
		snapshot:   data,
		snapshotAt: m.now(),
	}
	m.mu.Unlock()
	return nil
}

// StoredSession returns the persisted session snapshot. With useCache the
// in-memory snapshot is served while fresh. Corrupt records schedule an
// asynchronous cleanup and surface as ErrSessionCorrupt; an absent record is
// ErrNoSession.
func (m *Manager) StoredSession(ctx context.Context, useCache bool) (*session.Data, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	now := m.now()

	if useCache {
		m.mu.Lock()
		if m.state.snapshot != nil && now.Sub(m.state.snapshotAt) < m.config.Session.SnapshotTTL {
			snap := m.state.snapshot
			m.mu.Unlock()
			return snap, nil
		}
		m.mu.Unlock()
	}

	envelope, err := m.readEnvelope(ctx)
	if err != nil {
		return nil, err
	}

	data := &envelope.Session
	m.mu.Lock()
	m.state.snapshot = data
	m.state.snapshotAt = now
	m.mu.Unlock()

	return data, nil
}

// readEnvelope reads and integrity-checks the persisted record without
// touching the snapshot cache.
func (m *Manager) readEnvelope(ctx context.Context) (*session.Envelope, error) {
	raw, ok, err := m.secure.RetrieveToken(ctx, m.config.Session.StorageKey)
	if err != nil {
		return nil, errkind.New(errkind.KindStorage, errors.Join(ErrStoreUnavailable, err))
	}
	if !ok {
		return nil, ErrNoSession
	}

	envelope, err := session.DecodeEnvelope([]byte(raw))
	if err != nil {
		m.corruptionDetected("decode")
		return nil, ErrSessionCorrupt
	}

	now := m.now()
	data := &envelope.Session
	switch {
	case !data.ValidAt(now):
		m.corruptionDetected("invalid")
		return nil, ErrSessionCorrupt
	case data.LastRefresh.After(now.Add(m.config.Session.ClockSkewTolerance)):
		m.corruptionDetected("refresh_in_future")
		return nil, ErrSessionCorrupt
	case envelope.Token == "":
		m.corruptionDetected("empty_token")
		return nil, ErrSessionCorrupt
	}

	return envelope, nil
}

// BearerToken returns the raw provider credential for backend calls, or an
// error when no usable session exists.
func (m *Manager) BearerToken(ctx context.Context) (string, error) {
	if m == nil {
		return "", ErrManagerNotReady
	}
	envelope, err := m.readEnvelope(ctx)
	if err != nil {
		return "", err
	}
	if envelope.Session.ExpiredAt(m.now()) {
		return "", ErrSessionExpired
	}
	return envelope.Token, nil
}

// corruptionDetected counts the event and schedules a debounced async
// cleanup so repeated failed reads do not loop on the same dead record.
func (m *Manager) corruptionDetected(reason string) {
	m.metrics.Inc(MetricCorruptionDetected)
	m.emit(AuditEvent{
		EventType: AuditSessionCorrupt,
		Metadata:  map[string]string{"reason": reason},
	})

	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()
	if m.cleanupPending {
		return
	}
	m.cleanupPending = true
	m.cleanupTimer = time.AfterFunc(m.config.Session.CleanupDelay, func() {
		if err := m.ClearSession(context.Background()); err != nil {
			log.Print("sessionvault: corruption cleanup failed")
		}
		m.emit(AuditEvent{EventType: AuditCorruptionCleanup, Success: true})

		m.cleanupMu.Lock()
		m.cleanupPending = false
		m.cleanupMu.Unlock()
	})
}

// ClearSession deletes the persisted record and resets the in-memory
// caches. Idempotent.
func (m *Manager) ClearSession(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	err := m.secure.DeleteToken(ctx, m.config.Session.StorageKey)

	m.mu.Lock()
	m.state = cachedState{}
	m.mu.Unlock()

	if err != nil {
		return err
	}

	m.metrics.Inc(MetricSessionCleared)
	m.emit(AuditEvent{EventType: AuditSessionCleared, Success: true})
	return nil
}

// TokenExists reports whether a persisted credential record is present.
func (m *Manager) TokenExists(ctx context.Context) (bool, error) {
	if m == nil {
		return false, ErrManagerNotReady
	}
	return m.secure.TokenExists(ctx, m.config.Session.StorageKey)
}

// Preload warms the snapshot cache in the background, bounded by the
// configured preload timeout. Best effort; errors are discarded.
func (m *Manager) Preload() {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.config.Provider.PreloadTimeout)
		defer cancel()
		_, _ = m.StoredSession(ctx, false)
	}()
}

func (m *Manager) setVerdict(valid bool) {
	m.mu.Lock()
	m.state.verdict = valid
	m.state.verdictAt = m.now()
	m.state.hasVerdict = true
	m.mu.Unlock()
}

func (m *Manager) cachedVerdict() (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.hasVerdict {
		return false, false
	}
	if m.now().Sub(m.state.verdictAt) >= m.config.Session.VerifyResultTTL {
		return false, false
	}
	return m.state.verdict, true
}
