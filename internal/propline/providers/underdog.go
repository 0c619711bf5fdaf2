package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sportsdata/propline/internal/propline/domain"
)

// UnderdogClient adapts Underdog's decimal-odds payout encoding (e.g. over
// 1.909, spec §4.2 boundary case) into domain.RawProp.
type UnderdogClient struct {
	baseURL string
	http    *http.Client
}

// NewUnderdogClient builds a client against baseURL.
func NewUnderdogClient(baseURL string, hc *http.Client) *UnderdogClient {
	return &UnderdogClient{baseURL: baseURL, http: hc}
}

func (c *UnderdogClient) ProviderID() string { return "underdog" }

type udMatch struct {
	ID        string    `json:"match_id"`
	State     string    `json:"state"`
	StartTime time.Time `json:"scheduled_at"`
	Home      string    `json:"home"`
	Away      string    `json:"away"`
}

type udMatchesResponse struct {
	Matches []udMatch `json:"matches"`
}

func (c *UnderdogClient) FetchScheduledGames(ctx context.Context, sport domain.Sport) ([]Game, error) {
	url := fmt.Sprintf("%s/matches?sport=%s", c.baseURL, strings.ToLower(string(sport)))
	var body udMatchesResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(body.Matches))
	for _, m := range body.Matches {
		if !strings.EqualFold(m.State, "scheduled") {
			continue
		}
		games = append(games, Game{
			GameID: m.ID, Sport: sport, Status: domain.GameScheduled,
			StartTS: m.StartTime, HomeTeam: m.Home, AwayTeam: m.Away,
		})
	}
	return games, nil
}

type udOU struct {
	ID         string  `json:"id"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Team       string  `json:"team"`
	Position   string  `json:"position"`
	StatName   string  `json:"stat_name"`
	Line       float64 `json:"stat_value"`
	OverDecimal  float64 `json:"over_price"`
	UnderDecimal float64 `json:"under_price"`
	MatchID    string  `json:"match_id"`
	MatchState string  `json:"match_state"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type udOUResponse struct {
	OverUnders []udOU `json:"over_unders"`
}

func (c *UnderdogClient) FetchProps(ctx context.Context, sport domain.Sport, gameIDs []string, market MarketType) ([]domain.RawProp, error) {
	if market == MarketTeamProps {
		return nil, nil
	}
	url := fmt.Sprintf("%s/over_unders?sport=%s&matches=%s", c.baseURL, strings.ToLower(string(sport)), strings.Join(gameIDs, ","))
	var body udOUResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	raws := make([]domain.RawProp, 0, len(body.OverUnders))
	for _, o := range body.OverUnders {
		over, under := o.OverDecimal, o.UnderDecimal
		raws = append(raws, domain.RawProp{
			ProviderID:       c.ProviderID(),
			ExternalPropID:   o.ID,
			ExternalPlayerID: o.PlayerID,
			PlayerName:       o.PlayerName,
			TeamCode:         o.Team,
			Position:         o.Position,
			PropCategory:     o.StatName,
			LineValue:        o.Line,
			PayoutType:       domain.PayoutStandard,
			OverOdds:         &over,
			UnderOdds:        &under,
			UpdatedTS:        o.UpdatedAt,
			Sport:            sport,
			GameID:           o.MatchID,
			GameStatus:       mapGameStatus(o.MatchState),
		})
	}
	return raws, nil
}

func (c *UnderdogClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if err := ClassifyHTTPStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
