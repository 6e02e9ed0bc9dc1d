package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and remote clients
// return these (optionally wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: record absent from a store, cache miss, or the remote source has no data
//   - ErrConflict: concurrent modification or a write that contradicts stored state
//   - ErrAlreadyUsed: unique constraint (e.g. a document already registered)
//   - ErrExpired: cached value outlived its TTL
//   - ErrInvalidState: misconfiguration or an argument a store cannot accept
//   - ErrUnavailable: remote dependency unreachable or failing transport-side
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
