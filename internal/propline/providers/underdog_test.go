package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsdata/propline/internal/propline/domain"
)

func TestUnderdogClient_FetchScheduledGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches", r.URL.Path)
		assert.Equal(t, "mlb", r.URL.Query().Get("sport"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[
			{"match_id":"m1","state":"scheduled","scheduled_at":"2026-07-30T19:00:00Z","home":"SF","away":"LAD"},
			{"match_id":"m2","state":"final","scheduled_at":"2026-07-29T19:00:00Z","home":"NYY","away":"BOS"}
		]}`))
	}))
	defer srv.Close()

	client := NewUnderdogClient(srv.URL, srv.Client())
	games, err := client.FetchScheduledGames(context.Background(), domain.SportMLB)
	require.NoError(t, err)
	require.Len(t, games, 1, "the final match must be filtered out")
	assert.Equal(t, "m1", games[0].GameID)
}

func TestUnderdogClient_FetchProps_DecimalOddsPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/over_unders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"over_unders":[
			{"id":"ou1","player_id":"pl1","player_name":"Player One","team":"SF","position":"SP",
			 "stat_name":"strikeouts","stat_value":5.5,"over_price":1.909,"under_price":1.870,
			 "match_id":"m1","match_state":"scheduled","updated_at":"2026-07-30T12:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewUnderdogClient(srv.URL, srv.Client())
	props, err := client.FetchProps(context.Background(), domain.SportMLB, []string{"m1"}, MarketPlayerProps)
	require.NoError(t, err)
	require.Len(t, props, 1)

	p := props[0]
	assert.Equal(t, "underdog", p.ProviderID)
	assert.Equal(t, domain.PayoutStandard, p.PayoutType)
	assert.Equal(t, 1.909, *p.OverOdds)
	assert.Equal(t, 1.870, *p.UnderOdds)
	assert.Equal(t, domain.GameScheduled, p.GameStatus)
}

func TestUnderdogClient_FetchProps_TeamMarketReturnsEmpty(t *testing.T) {
	client := NewUnderdogClient("http://unused.invalid", http.DefaultClient)
	props, err := client.FetchProps(context.Background(), domain.SportMLB, []string{"m1"}, MarketTeamProps)
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestUnderdogClient_UpstreamServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewUnderdogClient(srv.URL, srv.Client())
	_, err := client.FetchScheduledGames(context.Background(), domain.SportMLB)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
