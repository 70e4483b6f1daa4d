package session

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMalformed is returned when a persisted payload cannot be decoded.
var ErrMalformed = errors.New("malformed session payload")

const envelopeFormatVersionCurrent = 1

type wireData struct {
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	TokenExpiry int64  `json:"tokenExpiry"`
	LastRefresh int64  `json:"lastRefresh"`
	Provider    string `json:"authProvider"`
}

type wireEnvelope struct {
	Version int      `json:"v"`
	Token   string   `json:"token"`
	Session wireData `json:"session"`
}

func toWire(d *Data) wireData {
	return wireData{
		UserID:      d.UserID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		TokenExpiry: d.TokenExpiry.UnixMilli(),
		LastRefresh: d.LastRefresh.UnixMilli(),
		Provider:    d.Provider,
	}
}

func fromWire(w wireData) *Data {
	d := &Data{
		UserID:      w.UserID,
		Email:       w.Email,
		DisplayName: w.DisplayName,
		Provider:    w.Provider,
	}
	if w.TokenExpiry != 0 {
		d.TokenExpiry = time.UnixMilli(w.TokenExpiry)
	}
	if w.LastRefresh != 0 {
		d.LastRefresh = time.UnixMilli(w.LastRefresh)
	}
	return d
}

// Encode serializes a snapshot to its JSON wire form.
func Encode(d *Data) ([]byte, error) {
	if d == nil {
		return nil, ErrMalformed
	}
	return json.Marshal(toWire(d))
}

// Decode parses a snapshot from JSON. A decode error means the payload is
// corrupt; a nil error does NOT mean the snapshot is valid — callers must
// still run [Data.Valid].
func Decode(payload []byte) (*Data, error) {
	var w wireData
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return fromWire(w), nil
}

// Envelope is the single persisted credential record: the raw provider
// token and the session snapshot, committed together.
type Envelope struct {
	Token   string
	Session Data
}

// EncodeEnvelope serializes an envelope with its format version.
func EncodeEnvelope(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, ErrMalformed
	}
	return json.Marshal(wireEnvelope{
		Version: envelopeFormatVersionCurrent,
		Token:   e.Token,
		Session: toWire(&e.Session),
	})
}

// DecodeEnvelope parses a persisted envelope. Unknown future format
// versions are rejected as malformed rather than misread.
func DecodeEnvelope(payload []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if w.Version != envelopeFormatVersionCurrent {
		return nil, ErrMalformed
	}
	return &Envelope{
		Token:   w.Token,
		Session: *fromWire(w.Session),
	}, nil
}
