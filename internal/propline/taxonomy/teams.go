package taxonomy

import (
	"strings"
	"sync/atomic"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/domain"
)

// TeamResolver maps a sport-scoped team full name (or already-short code) to
// its canonical short code, with a partial-match fallback for provider
// variants of a team's name (spec §4.4 step 1).
type TeamResolver struct {
	current atomic.Pointer[teamTables]
}

type teamTables struct {
	bySport map[domain.Sport]map[string]string // normalized full name -> code
}

// NewTeamResolver builds a resolver from an initial TaxonomyConfig.
func NewTeamResolver(cfg *config.TaxonomyConfig) *TeamResolver {
	r := &TeamResolver{}
	r.Reload(cfg)
	return r
}

// Reload atomically swaps in a new team table built from cfg.
func (r *TeamResolver) Reload(cfg *config.TaxonomyConfig) {
	t := &teamTables{bySport: make(map[domain.Sport]map[string]string)}
	for _, e := range cfg.Teams {
		sport := domain.Sport(e.Sport)
		if t.bySport[sport] == nil {
			t.bySport[sport] = make(map[string]string)
		}
		t.bySport[sport][normalize(e.FullName)] = strings.ToUpper(e.Code)
	}
	r.current.Store(t)
}

// Resolve returns the canonical short code for raw (a provider's team_code
// or full name field). On no exact match it tries a substring partial match
// within the sport's table; on total miss it returns raw itself, uppercased,
// with ok=false so callers can flag (UnknownTeam is a warning, not a hard
// error, per §4.4).
func (r *TeamResolver) Resolve(sport domain.Sport, raw string) (code string, ok bool) {
	t := r.current.Load()
	table := t.bySport[sport]
	if table == nil {
		return strings.ToUpper(raw), false
	}

	norm := normalize(raw)
	if code, found := table[norm]; found {
		return code, true
	}

	// Already a short code (2-3 chars, matches a table value directly).
	upper := strings.ToUpper(raw)
	for _, code := range table {
		if code == upper {
			return code, true
		}
	}

	// Partial-match fallback: raw is a substring of, or contains, some
	// known full name (handles provider abbreviation drift).
	for fullName, code := range table {
		if strings.Contains(fullName, norm) || strings.Contains(norm, fullName) {
			return code, true
		}
	}

	return upper, false
}
