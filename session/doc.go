// Package session provides the immutable session snapshot model and its JSON
// codec.
//
// # Validity
//
// A [Data] value records who is authenticated and until when. Decoding
// success does not imply validity: callers must run [Data.Valid] (or
// [Data.ValidAt]) before trusting a decoded value. Validation checks
// structure and temporal consistency and never panics.
//
// # Envelope
//
// The persisted credential record is a single [Envelope] holding the raw
// provider token together with the session snapshot. Storing both as one
// record removes the window where one of two independent writes fails.
//
// # Architecture boundaries
//
// This package owns the model and codec only. It does NOT touch storage,
// ciphers, or the identity provider — those belong to securestore and the
// Manager.
package session
