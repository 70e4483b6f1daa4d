package sessionvault

import (
	"context"
	"errors"
	"time"

	"github.com/kestrelhq/sessionvault/internal/errkind"
	"github.com/kestrelhq/sessionvault/internal/retry"
)

// IsSessionValid reports whether the current session is usable. Fast mode
// prefers the cached verdict and a shorter deadline over strict freshness.
func (m *Manager) IsSessionValid(ctx context.Context, fast bool) bool {
	return m.Validate(ctx, fast).Valid
}

// Validate runs the full validity state machine and reports how the check
// was resolved.
func (m *Manager) Validate(ctx context.Context, fast bool) ValidationResult {
	if m == nil {
		return ValidationResult{State: StateNoSession}
	}
	started := m.now()
	defer func() {
		m.metrics.Observe(MetricValidateLatency, time.Since(started))
	}()

	if fast {
		if verdict, ok := m.cachedVerdict(); ok {
			m.metrics.Inc(MetricValidateCacheHit)
			return ValidationResult{Valid: verdict, State: StateCachedValid}
		}
	}

	deadline := m.config.Provider.VerifyTimeout
	if fast {
		deadline = m.config.Provider.FastVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	result := m.validate(ctx)
	m.setVerdict(result.Valid)

	if result.Valid {
		m.metrics.Inc(MetricValidateSuccess)
	} else {
		m.metrics.Inc(MetricValidateDenied)
	}
	m.emit(AuditEvent{
		EventType: AuditSessionVerified,
		State:     result.State.String(),
		Success:   result.Valid,
	})

	return result
}

func (m *Manager) validate(ctx context.Context) ValidationResult {
	data, err := m.StoredSession(ctx, true)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionCorrupt):
			return ValidationResult{State: StateCorrupted}
		default:
			return ValidationResult{State: StateNoSession}
		}
	}

	now := m.now()
	if data.ExpiringSoonAt(now) {
		// Expired or about to: the refresh outcome decides.
		if err := m.RefreshSession(ctx); err != nil {
			return ValidationResult{State: StateLocallyExpired}
		}
		return ValidationResult{Valid: true, State: StateRefreshed}
	}

	switch verifyErr := m.verifyRemote(ctx, data.UserID); {
	case verifyErr == nil:
		return ValidationResult{Valid: true, State: StateRemoteVerified}

	case errkind.Retryable(verifyErr):
		// Provider unreachable. Locally unexpired tokens keep working
		// offline; expired ones are denied.
		if !data.ExpiredAt(m.now()) {
			m.metrics.Inc(MetricValidateOffline)
			return ValidationResult{Valid: true, State: StateOfflineValid}
		}
		return ValidationResult{State: StateLocallyExpired}

	default:
		// Explicit rejection or identity mismatch invalidates the
		// persisted session.
		_ = m.ClearSession(ctx)
		return ValidationResult{State: StateDenied}
	}
}

// verifyRemote confirms the provider still recognizes the persisted user.
// Transient failures are retried within the attempt budget; a mismatch or
// rejection returns a non-retryable error.
func (m *Manager) verifyRemote(ctx context.Context, userID string) error {
	attempt := 0
	return retry.Do(ctx, m.config.Provider.MaxAttempts, m.config.Provider.BackoffBase, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			m.metrics.Inc(MetricProviderRetry)
		}

		identity, err := m.provider.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if identity == nil {
			return ErrNoIdentity
		}
		if identity.UserID != userID {
			return ErrIdentityMismatch
		}
		return nil
	})
}
