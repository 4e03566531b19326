package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and brokers return
// these (optionally wrapped); services translate them into domain errors.
//
//   - ErrNotFound: row or key does not exist
//   - ErrConflict: a uniqueness constraint was hit (e.g. campaign_id + email)
//   - ErrInvalidState: row is in the wrong state for the requested write
//   - ErrUnavailable: backing service is down or timed out
//   - ErrLocked: another worker holds the lock for this resource
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrLocked       = errors.New("locked")
)
