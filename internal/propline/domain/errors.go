package domain

import "errors"

// Transient/upstream error kinds (spec §4.1, §7).
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrCircuitOpen         = errors.New("circuit open")
)

// Mapping/normalization error kinds (spec §4.2, §4.4). ErrUnknownPropCategory
// is part of the declared error vocabulary (spec §7 lists UNKNOWN_PROP_CATEGORY
// as an outbound error code) but is not raised by propmapper.Map itself: a
// taxonomy miss is non-fatal there (§4.3) and resolves to PropTypeUnknown
// instead of this error.
var (
	ErrUnknownPropCategory = errors.New("unknown prop category")
	ErrUnknownTeam         = errors.New("unknown team")
	ErrInsufficientPayout  = errors.New("insufficient payout data")
	ErrInvalidLine         = errors.New("invalid line")
)

// Cache/store error kinds (spec §7).
var (
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrStoreUnavailable = errors.New("durable store unavailable")
)

// MappingError carries the raw context needed for operator diagnostics
// without leaking a stack trace across the package boundary (spec §4.4:
// "All errors surface with full raw context for diagnostic logs").
type MappingError struct {
	Err      error
	Provider string
	RawProp  RawProp
}

func (e *MappingError) Error() string {
	return e.Err.Error() + ": provider=" + e.Provider + " external_prop_id=" + e.RawProp.ExternalPropID
}

func (e *MappingError) Unwrap() error { return e.Err }
