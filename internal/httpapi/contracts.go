// Package httpapi implements the Query Surface (spec §4.8 and §6): a
// read-only JSON API over the Cache Manager and durable store.
package httpapi

import "time"

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is the error arm of Envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PropDTO is the wire shape of a CanonicalProp.
type PropDTO struct {
	LineHash       string     `json:"line_hash"`
	PropType       string     `json:"prop_type"`
	Sport          string     `json:"sport"`
	ExternalPlayer string     `json:"external_player_id,omitempty"`
	ProviderID     string     `json:"provider_id"`
	PlayerName     string     `json:"player_name"`
	TeamCode       string     `json:"team_code"`
	Position       string     `json:"position"`
	OfferedLine    string     `json:"offered_line"`
	Payout         PayoutDTO  `json:"payout"`
	ExternalPropID string     `json:"external_prop_id"`
	GameID         string     `json:"game_id"`
	GameStatus     string     `json:"game_status"`
	GameStartTS    time.Time  `json:"game_start_ts"`
	IngestedTS     time.Time  `json:"ingested_ts"`
}

// PayoutDTO is the wire shape of a PayoutSchema.
type PayoutDTO struct {
	Type            string  `json:"type"`
	VariantCode     string  `json:"variant_code"`
	OverMultiplier  string  `json:"over_multiplier"`
	UnderMultiplier string  `json:"under_multiplier"`
	BoostMultiplier *string `json:"boost_multiplier,omitempty"`
	LowConfidence   bool    `json:"low_confidence"`
}

// PaginationInfo describes a page of results. ListProps uses offset
// pagination only (Page, Size, Total); there is no keyset mode, and
// NextCursor is never set.
type PaginationInfo struct {
	Page       int    `json:"page,omitempty"`
	Size       int    `json:"size"`
	Total      int    `json:"total"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListPropsResponse is the body of GET /api/props.
type ListPropsResponse struct {
	Props      []PropDTO      `json:"props"`
	Pagination PaginationInfo `json:"pagination"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Providers map[string]ProviderHealth `json:"providers"`
	Cache     CacheHealth               `json:"cache"`
	Store     string                    `json:"store"`
}

// ProviderHealth reports one provider's circuit state.
type ProviderHealth struct {
	CircuitState string `json:"circuit_state"`
}

// CacheHealth holds cache hit-ratio fields for the health body. Handlers.Health
// does not fill it, so both fields are always reported as zero.
type CacheHealth struct {
	L1HitRatio float64 `json:"l1_hit_ratio"`
	L1Entries  int     `json:"l1_entries"`
}

// TaxonomyMissesResponse is the body of GET /api/admin/taxonomy/misses.
type TaxonomyMissesResponse struct {
	Misses []TaxonomyMissDTO `json:"misses"`
}

// TaxonomyMissDTO is one unrecognized prop category observation.
type TaxonomyMissDTO struct {
	ProviderID  string `json:"provider_id"`
	Sport       string `json:"sport"`
	RawCategory string `json:"raw_category"`
	Count       int    `json:"count"`
}
