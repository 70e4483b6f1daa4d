package sessionvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelhq/sessionvault/internal/errkind"
	"github.com/kestrelhq/sessionvault/internal/retry"
)

// RefreshSession forces a new credential from the provider and re-persists
// the session envelope. Exhausted transient failures keep an unexpired
// local session alive (offline tolerance); any other failure clears it.
func (m *Manager) RefreshSession(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	data, err := m.StoredSession(ctx, true)
	if err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		return err
	}

	var token string
	attempt := 0
	fetchErr := retry.Do(ctx, m.config.Provider.MaxAttempts, m.config.Provider.BackoffBase, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			m.metrics.Inc(MetricProviderRetry)
		}
		fresh, err := m.provider.IDToken(ctx, true)
		if err != nil {
			return err
		}
		token = fresh
		return nil
	})

	switch {
	case fetchErr == nil:
		// Fall through to persist below.

	case errkind.Retryable(fetchErr):
		if !data.ExpiredAt(m.now()) {
			// Provider unreachable but the local token still works:
			// stay logged in and try again later.
			m.metrics.Inc(MetricRefreshOfflineKept)
			m.emit(AuditEvent{
				EventType: AuditSessionRefreshed,
				UserRef:   truncateRef(data.UserID),
				State:     StateOfflineValid.String(),
				ErrorKind: errkind.Classify(fetchErr).String(),
				Success:   true,
			})
			return nil
		}
		m.metrics.Inc(MetricRefreshFailure)
		return fmt.Errorf("%w: %w", ErrSessionExpired, ErrProviderUnavailable)

	default:
		// Non-transient rejection invalidates the session outright.
		m.metrics.Inc(MetricRefreshFailure)
		_ = m.ClearSession(ctx)
		m.emit(AuditEvent{
			EventType: AuditSessionRefreshed,
			UserRef:   truncateRef(data.UserID),
			ErrorKind: errkind.Classify(fetchErr).String(),
		})
		if errors.Is(fetchErr, ErrNoIdentity) || errors.Is(fetchErr, ErrIdentityMismatch) {
			return fetchErr
		}
		return errors.Join(ErrProviderDenied, fetchErr)
	}

	if token == "" {
		m.metrics.Inc(MetricRefreshFailure)
		return ErrSessionInvalid
	}
	next := data.WithRefreshedToken(m.tokenExpiry(token, m.now()))
	if !next.Valid() {
		m.metrics.Inc(MetricRefreshFailure)
		return ErrSessionInvalid
	}
	if err := m.persistEnvelope(ctx, token, next); err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		return err
	}

	m.metrics.Inc(MetricRefreshSuccess)
	m.emit(AuditEvent{
		EventType: AuditSessionRefreshed,
		UserRef:   truncateRef(next.UserID),
		Success:   true,
	})
	return nil
}
