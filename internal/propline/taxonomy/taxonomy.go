// Package taxonomy implements the Taxonomy Service (spec §4.3): mapping
// provider-native prop-category strings, scoped by sport and optionally by
// provider, onto the canonical PropType enum.
package taxonomy

import (
	"strings"
	"sync/atomic"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/domain"
)

type providerKey struct {
	providerID, sport, category string
}

type globalKey struct {
	sport, category string
}

// tables is the immutable snapshot swapped in on reload. Built once from a
// TaxonomyConfig and never mutated afterward.
type tables struct {
	provider map[providerKey]domain.PropType
	global   map[globalKey]domain.PropType
}

// Service resolves prop categories to canonical types. Reload swaps the
// active tables atomically so in-flight Normalize calls are never torn.
type Service struct {
	current atomic.Pointer[tables]
	misses  *MissRecorder
}

// NewService builds a Service from an initial TaxonomyConfig.
func NewService(cfg *config.TaxonomyConfig) *Service {
	s := &Service{misses: NewMissRecorder()}
	s.Reload(cfg)
	return s
}

// Reload atomically swaps in a new taxonomy snapshot built from cfg.
func (s *Service) Reload(cfg *config.TaxonomyConfig) {
	s.current.Store(build(cfg))
}

func build(cfg *config.TaxonomyConfig) *tables {
	t := &tables{
		provider: make(map[providerKey]domain.PropType, len(cfg.ProviderMappings)),
		global:   make(map[globalKey]domain.PropType, len(cfg.GlobalMappings)),
	}
	for _, m := range cfg.ProviderMappings {
		t.provider[providerKey{m.ProviderID, m.Sport, normalize(m.PropCategory)}] = domain.PropType(m.PropType)
	}
	for _, m := range cfg.GlobalMappings {
		t.global[globalKey{m.Sport, normalize(m.PropCategory)}] = domain.PropType(m.PropType)
	}
	return t
}

// Normalize implements the §4.3 contract: provider-scoped lookup, then
// global sport-scoped lookup, then UNKNOWN with a recorded miss.
func (s *Service) Normalize(propCategory string, sport domain.Sport, providerID string) domain.PropType {
	t := s.current.Load()
	norm := normalize(propCategory)

	if pt, ok := t.provider[providerKey{providerID, string(sport), norm}]; ok {
		return pt
	}
	if pt, ok := t.global[globalKey{string(sport), norm}]; ok {
		return pt
	}

	s.misses.Record(Miss{ProviderID: providerID, Sport: sport, RawCategory: propCategory})
	return domain.PropTypeUnknown
}

// Misses exposes the recorder so an admin hook or log sink can read its
// snapshot.
func (s *Service) Misses() *MissRecorder { return s.misses }

// normalize applies spec §4.3's global-lookup key normalization: lowercase,
// strip punctuation, collapse whitespace, strip "player "/"team " prefixes.
func normalize(category string) string {
	lower := strings.ToLower(category)

	var b strings.Builder
	lastSpace := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ', r == '\t', r == '\n', r == '-', r == '_':
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastSpace = true
		default:
			// punctuation: drop entirely
		}
	}
	norm := strings.TrimSpace(b.String())
	norm = strings.TrimPrefix(norm, "player ")
	norm = strings.TrimPrefix(norm, "team ")
	return norm
}
