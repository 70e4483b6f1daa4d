package errkind

import (
	"context"
	"errors"
	"net"
)

// Kind categorizes a failure for retry and invalidation decisions.
type Kind uint8

const (
	// KindUnknown marks errors with no recognizable category. Never retried.
	KindUnknown Kind = iota
	// KindNetwork marks transport-level failures (DNS, connection refused,
	// unreachable host). Retryable.
	KindNetwork
	// KindTimeout marks deadline and socket-timeout failures. Retryable,
	// and eligible for the offline-valid degradation.
	KindTimeout
	// KindStorage marks persistent key-value layer failures.
	KindStorage
	// KindCrypto marks keychain and cipher failures.
	KindCrypto
	// KindData marks malformed or corrupt persisted payloads.
	KindData
	// KindDenied marks an explicit rejection by the identity provider.
	// Never retried; invalidates the session.
	KindDenied
)

// String returns the wire-stable name of the kind, used in audit events.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStorage:
		return "storage"
	case KindCrypto:
		return "crypto"
	case KindData:
		return "data"
	case KindDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Error tags an underlying error with a Kind. It unwraps to the cause.
type Error struct {
	K     Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.K.String()
	}
	return e.K.String() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// New wraps err with an explicit kind. Returns nil when err is nil.
func New(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{K: k, Cause: err}
}

// Classify resolves the kind of an arbitrary error. Tagged errors win;
// otherwise the error chain is inspected structurally.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.K
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}

	return KindUnknown
}

// Retryable reports whether the error belongs to a transient category.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindNetwork, KindTimeout:
		return true
	default:
		return false
	}
}
