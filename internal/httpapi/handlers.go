package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sportsdata/propline/internal/config"
	"github.com/sportsdata/propline/internal/propline/cache"
	"github.com/sportsdata/propline/internal/propline/domain"
	"github.com/sportsdata/propline/internal/propline/providers"
	"github.com/sportsdata/propline/internal/propline/store"
	"github.com/sportsdata/propline/internal/propline/taxonomy"
)

// Handlers groups every endpoint's dependencies, matching the teacher's
// single-struct handler-manager shape.
type Handlers struct {
	cache     *cache.Manager
	store     store.PropsStore
	circuits  *providers.CircuitManager
	taxonomy  *taxonomy.Service
	teams     *taxonomy.TeamResolver
	metrics   *MetricsRegistry
}

// NewHandlers builds a Handlers bound to the running pipeline's
// collaborators.
func NewHandlers(mgr *cache.Manager, st store.PropsStore, circuits *providers.CircuitManager, tax *taxonomy.Service, teams *taxonomy.TeamResolver, metrics *MetricsRegistry) *Handlers {
	return &Handlers{cache: mgr, store: st, circuits: circuits, taxonomy: tax, teams: teams, metrics: metrics}
}

// ListProps implements GET /api/props (spec §4.8 ListProps).
func (h *Handlers) ListProps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sport := domain.Sport(q.Get("sport"))
	if sport == "" {
		writeError(w, http.StatusBadRequest, "missing_sport", "sport query parameter is required")
		return
	}

	page := parseIntDefault(q.Get("page"), 1)
	size := parseIntDefault(q.Get("size"), 50)

	var propTypes []domain.PropType
	if raw := q.Get("prop_types"); raw != "" {
		for _, s := range splitCSV(raw) {
			propTypes = append(propTypes, domain.PropType(s))
		}
	}

	filters := cache.QueryFilters{
		PropTypes:                   propTypes,
		IncludeAll:                  parseBool(q.Get("include_all")),
		PlayerPosition:              q.Get("position"),
		IncludePositionIncompatible: parseBool(q.Get("include_incompatible")),
		IncludeUnknownPropType:      parseBool(q.Get("include_unknown")),
	}
	props, total := h.cache.Query(sport, filters, page, size)

	if etag := pageETag(props); etag != "" {
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	resp := ListPropsResponse{
		Props: toPropDTOs(props),
		Pagination: PaginationInfo{
			Page:  page,
			Size:  size,
			Total: total,
		},
	}
	writeData(w, http.StatusOK, resp)
}

// GetProp implements GET /api/props/{line_hash}.
func (h *Handlers) GetProp(w http.ResponseWriter, r *http.Request, lineHash string) {
	if prop, ok := h.cache.Get(r.Context(), lineHash); ok {
		writeData(w, http.StatusOK, toPropDTO(prop))
		return
	}

	if h.store != nil {
		prop, err := h.store.GetByHash(r.Context(), lineHash)
		if err == nil && prop != nil {
			writeData(w, http.StatusOK, toPropDTO(*prop))
			return
		}
	}

	writeError(w, http.StatusNotFound, "not_found", "no prop with that line_hash")
}

// GetByGame implements GET /api/games/{game_id}/props: all SCHEDULED props
// for a game, read from the durable store via ListByGame. It responds 503
// when no store is configured.
func (h *Handlers) GetByGame(w http.ResponseWriter, r *http.Request, gameID string) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "durable store not configured")
		return
	}
	props, err := h.store.ListByGame(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	scheduled := make([]domain.CanonicalProp, 0, len(props))
	for _, p := range props {
		if p.GameStatus == domain.GameScheduled {
			scheduled = append(scheduled, p)
		}
	}
	writeData(w, http.StatusOK, toPropDTOs(scheduled))
}

// Health implements GET /api/health (spec §6).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Providers: map[string]ProviderHealth{},
		Store:     "unknown",
	}

	for id, state := range h.circuits.AllStates() {
		resp.Providers[id] = ProviderHealth{CircuitState: state.String()}
	}

	if h.store != nil {
		if err := h.store.HealthCheck(r.Context()); err != nil {
			resp.Store = "unavailable"
			resp.Status = "degraded"
		} else {
			resp.Store = "ok"
		}
	}

	writeData(w, http.StatusOK, resp)
}

// ReloadTaxonomy implements POST /api/admin/taxonomy/reload (spec §6).
func (h *Handlers) ReloadTaxonomy(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing_path", "path query parameter is required")
		return
	}
	cfg, err := config.LoadTaxonomyConfig(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "load_failed", err.Error())
		return
	}
	h.taxonomy.Reload(cfg)
	h.teams.Reload(cfg)
	writeData(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// InvalidateCache implements POST /api/admin/cache/invalidate (spec §6).
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("line_hash") != "":
		h.cache.Invalidate(r.Context(), q.Get("line_hash"))
	case q.Get("sport") != "":
		h.cache.InvalidateBySport(domain.Sport(q.Get("sport")))
	case q.Get("game_id") != "":
		h.cache.InvalidateByGame(q.Get("game_id"))
	default:
		writeError(w, http.StatusBadRequest, "missing_target", "one of line_hash, sport, game_id is required")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// TaxonomyMisses implements GET /api/admin/taxonomy/misses.
func (h *Handlers) TaxonomyMisses(w http.ResponseWriter, r *http.Request) {
	misses := h.taxonomy.Misses().Snapshot()
	dtos := make([]TaxonomyMissDTO, len(misses))
	for i, m := range misses {
		dtos[i] = TaxonomyMissDTO{
			ProviderID:  m.ProviderID,
			Sport:       string(m.Sport),
			RawCategory: m.RawCategory,
			Count:       m.Count,
		}
	}
	writeData(w, http.StatusOK, TaxonomyMissesResponse{Misses: dtos})
}

// NotFound is the router's catch-all 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: false, Error: &APIError{Code: code, Message: message}})
}

// pageETag implements spec §6's conditional-GET contract: the ETag is
// computed from the greatest ingested_ts across the returned page, so a
// page is considered unchanged only when every prop in it is unchanged.
func pageETag(props []domain.CanonicalProp) string {
	if len(props) == 0 {
		return ""
	}
	var max time.Time
	for _, p := range props {
		if p.IngestedTS.After(max) {
			max = p.IngestedTS
		}
	}
	return fmt.Sprintf(`"%d"`, max.UnixNano())
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
