// Package store implements the durable store (supplemental to spec.md, but
// required by §6 "Persisted state" and §7 "Durable store failure"): a
// write-idempotent, upsert-only log of CanonicalProps keyed by line_hash.
package store

import (
	"context"
	"time"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// UpsertResult mirrors the Deduplicator's result vocabulary (spec §4.5) so
// a durable-store race resolves to the same taxonomy the in-memory path
// uses.
type UpsertResult string

const (
	UpsertInserted  UpsertResult = "INSERTED"
	UpsertDuplicate UpsertResult = "DUPLICATE"
)

// PropsStore persists CanonicalProps keyed by line_hash, with secondary
// access by sport and by game_id (spec §6: "Durable store holds
// CanonicalProps keyed by line_hash with (sport, game_id, ingested_ts)
// secondary indices").
type PropsStore interface {
	Upsert(ctx context.Context, prop domain.CanonicalProp) (UpsertResult, error)
	GetByHash(ctx context.Context, lineHash string) (*domain.CanonicalProp, error)
	ListBySport(ctx context.Context, sport domain.Sport, since time.Time, limit int) ([]domain.CanonicalProp, error)
	ListByGame(ctx context.Context, gameID string) ([]domain.CanonicalProp, error)
	HealthCheck(ctx context.Context) error
}
