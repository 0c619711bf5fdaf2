package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// postgresStore implements PropsStore against a Postgres schema with a
// unique index on line_hash; a race between two writers racing to insert
// the same hash is resolved by catching the unique-violation and retrying
// as an update, turning what would otherwise be an error into an idempotent
// Duplicate result.
type postgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore builds a PropsStore over db. Every call is bounded by
// timeout via context.WithTimeout.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) PropsStore {
	return &postgresStore{db: db, timeout: timeout}
}

// propRow is the wire shape stored in Postgres; PayoutSchema's opaque
// provider_format map and decimal fields are flattened to JSONB/numeric
// columns.
type propRow struct {
	LineHash        string          `db:"line_hash"`
	PropType        string          `db:"prop_type"`
	Sport           string          `db:"sport"`
	ExternalPlayer  string          `db:"external_player_id"`
	ProviderID      string          `db:"provider_id"`
	PlayerName      string          `db:"player_name"`
	TeamCode        string          `db:"team_code"`
	Position        string          `db:"position"`
	OfferedLine     string          `db:"offered_line"`
	PayoutType      string          `db:"payout_type"`
	VariantCode     string          `db:"variant_code"`
	OverMultiplier  string          `db:"over_multiplier"`
	UnderMultiplier string          `db:"under_multiplier"`
	BoostMultiplier sql.NullString  `db:"boost_multiplier"`
	ProviderFormat  []byte          `db:"provider_format"`
	LowConfidence   bool            `db:"low_confidence"`
	ExternalPropID  string          `db:"external_prop_id"`
	GameID          string          `db:"game_id"`
	GameStatus      string          `db:"game_status"`
	GameStartTS     time.Time       `db:"game_start_ts"`
	IngestedTS      time.Time       `db:"ingested_ts"`
	Superseded      bool            `db:"superseded"`
}

// Upsert implements PropsStore.Upsert (spec §6/§7): a plain INSERT that, on
// a unique_violation against line_hash, falls back to an UPDATE of the
// mutable game-state columns and reports Duplicate rather than surfacing
// the race as an error.
func (s *postgresStore) Upsert(ctx context.Context, prop domain.CanonicalProp) (UpsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := toRow(prop)
	if err != nil {
		return "", fmt.Errorf("encode canonical prop: %w", err)
	}

	const insertQuery = `
		INSERT INTO props (
			line_hash, prop_type, sport, external_player_id, provider_id,
			player_name, team_code, position, offered_line, payout_type,
			variant_code, over_multiplier, under_multiplier, boost_multiplier,
			provider_format, low_confidence, external_prop_id, game_id,
			game_status, game_start_ts, ingested_ts, superseded
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22
		)`

	_, err = s.db.ExecContext(ctx, insertQuery,
		row.LineHash, row.PropType, row.Sport, row.ExternalPlayer, row.ProviderID,
		row.PlayerName, row.TeamCode, row.Position, row.OfferedLine, row.PayoutType,
		row.VariantCode, row.OverMultiplier, row.UnderMultiplier, row.BoostMultiplier,
		row.ProviderFormat, row.LowConfidence, row.ExternalPropID, row.GameID,
		row.GameStatus, row.GameStartTS, row.IngestedTS, row.Superseded,
	)
	if err == nil {
		return UpsertInserted, nil
	}

	pqErr, isPQ := err.(*pq.Error)
	if !isPQ || pqErr.Code != "23505" {
		return "", fmt.Errorf("insert prop: %w", err)
	}

	const updateQuery = `
		UPDATE props SET
			player_name = $2, team_code = $3, game_status = $4,
			game_start_ts = $5, superseded = $6
		WHERE line_hash = $1`

	_, err = s.db.ExecContext(ctx, updateQuery,
		row.LineHash, row.PlayerName, row.TeamCode, row.GameStatus,
		row.GameStartTS, row.Superseded,
	)
	if err != nil {
		return "", fmt.Errorf("update prop after unique violation: %w", err)
	}
	return UpsertDuplicate, nil
}

func (s *postgresStore) GetByHash(ctx context.Context, lineHash string) (*domain.CanonicalProp, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `SELECT * FROM props WHERE line_hash = $1`
	var row propRow
	if err := s.db.GetContext(ctx, &row, query, lineHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get prop by hash: %w", err)
	}
	prop, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

func (s *postgresStore) ListBySport(ctx context.Context, sport domain.Sport, since time.Time, limit int) ([]domain.CanonicalProp, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT * FROM props
		WHERE sport = $1 AND ingested_ts >= $2
		ORDER BY ingested_ts DESC
		LIMIT $3`

	var rows []propRow
	if err := s.db.SelectContext(ctx, &rows, query, string(sport), since, limit); err != nil {
		return nil, fmt.Errorf("list props by sport: %w", err)
	}
	return fromRows(rows)
}

func (s *postgresStore) ListByGame(ctx context.Context, gameID string) ([]domain.CanonicalProp, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `SELECT * FROM props WHERE game_id = $1 ORDER BY ingested_ts DESC`
	var rows []propRow
	if err := s.db.SelectContext(ctx, &rows, query, gameID); err != nil {
		return nil, fmt.Errorf("list props by game: %w", err)
	}
	return fromRows(rows)
}

func (s *postgresStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func toRow(p domain.CanonicalProp) (propRow, error) {
	formatJSON, err := json.Marshal(p.Payout.ProviderFormat)
	if err != nil {
		return propRow{}, err
	}

	var boost sql.NullString
	if p.Payout.BoostMultiplier != nil {
		boost = sql.NullString{String: p.Payout.BoostMultiplier.String(), Valid: true}
	}

	return propRow{
		LineHash:        p.LineHash,
		PropType:        string(p.PropType),
		Sport:           string(p.Sport),
		ExternalPlayer:  p.ExternalPlayer,
		ProviderID:      p.ProviderID,
		PlayerName:      p.PlayerName,
		TeamCode:        p.TeamCode,
		Position:        p.Position,
		OfferedLine:     p.OfferedLine.String(),
		PayoutType:      string(p.Payout.Type),
		VariantCode:     string(p.Payout.VariantCode),
		OverMultiplier:  p.Payout.OverMultiplier.String(),
		UnderMultiplier: p.Payout.UnderMultiplier.String(),
		BoostMultiplier: boost,
		ProviderFormat:  formatJSON,
		LowConfidence:   p.Payout.LowConfidence,
		ExternalPropID:  p.ExternalPropID,
		GameID:          p.GameID,
		GameStatus:      string(p.GameStatus),
		GameStartTS:     p.GameStartTS,
		IngestedTS:      p.IngestedTS,
		Superseded:      p.Superseded,
	}, nil
}

func fromRow(row propRow) (domain.CanonicalProp, error) {
	offeredLine, err := decimal.NewFromString(row.OfferedLine)
	if err != nil {
		return domain.CanonicalProp{}, fmt.Errorf("decode offered_line: %w", err)
	}
	overMult, err := decimal.NewFromString(row.OverMultiplier)
	if err != nil {
		return domain.CanonicalProp{}, fmt.Errorf("decode over_multiplier: %w", err)
	}
	underMult, err := decimal.NewFromString(row.UnderMultiplier)
	if err != nil {
		return domain.CanonicalProp{}, fmt.Errorf("decode under_multiplier: %w", err)
	}

	var boostMult *decimal.Decimal
	if row.BoostMultiplier.Valid {
		b, err := decimal.NewFromString(row.BoostMultiplier.String)
		if err != nil {
			return domain.CanonicalProp{}, fmt.Errorf("decode boost_multiplier: %w", err)
		}
		boostMult = &b
	}

	var providerFormat map[string]any
	if len(row.ProviderFormat) > 0 {
		if err := json.Unmarshal(row.ProviderFormat, &providerFormat); err != nil {
			return domain.CanonicalProp{}, fmt.Errorf("decode provider_format: %w", err)
		}
	}

	return domain.CanonicalProp{
		LineHash:       row.LineHash,
		PropType:       domain.PropType(row.PropType),
		Sport:          domain.Sport(row.Sport),
		ExternalPlayer: row.ExternalPlayer,
		ProviderID:     row.ProviderID,
		PlayerName:     row.PlayerName,
		TeamCode:       row.TeamCode,
		Position:       row.Position,
		OfferedLine:    offeredLine,
		Payout: domain.PayoutSchema{
			Type:            domain.PayoutType(row.PayoutType),
			VariantCode:     domain.VariantCode(row.VariantCode),
			OverMultiplier:  overMult,
			UnderMultiplier: underMult,
			BoostMultiplier: boostMult,
			ProviderFormat:  providerFormat,
			LowConfidence:   row.LowConfidence,
		},
		ExternalPropID: row.ExternalPropID,
		GameID:         row.GameID,
		GameStatus:     domain.GameStatus(row.GameStatus),
		GameStartTS:    row.GameStartTS,
		IngestedTS:     row.IngestedTS,
		Superseded:     row.Superseded,
	}, nil
}

func fromRows(rows []propRow) ([]domain.CanonicalProp, error) {
	out := make([]domain.CanonicalProp, 0, len(rows))
	for _, r := range rows {
		p, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
