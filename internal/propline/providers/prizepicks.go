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

// PrizePicksClient adapts PrizePicks' multiplier-based payout encoding into
// domain.RawProp (spec Scenario A: PrizePicks quotes direct multipliers,
// e.g. over 3.0x / under 2.5x).
type PrizePicksClient struct {
	baseURL string
	http    *http.Client
}

// NewPrizePicksClient builds a client against baseURL using the given
// *http.Client (injected so tests can point it at an httptest.Server).
func NewPrizePicksClient(baseURL string, hc *http.Client) *PrizePicksClient {
	return &PrizePicksClient{baseURL: baseURL, http: hc}
}

func (c *PrizePicksClient) ProviderID() string { return "prizepicks" }

type ppGame struct {
	ID        string    `json:"id"`
	Sport     string    `json:"sport"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
	Home      string    `json:"home_team"`
	Away      string    `json:"away_team"`
}

type ppGamesResponse struct {
	Games []ppGame `json:"games"`
}

func (c *PrizePicksClient) FetchScheduledGames(ctx context.Context, sport domain.Sport) ([]Game, error) {
	url := fmt.Sprintf("%s/games?sport=%s&status=scheduled", c.baseURL, strings.ToLower(string(sport)))
	var body ppGamesResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	games := make([]Game, 0, len(body.Games))
	for _, g := range body.Games {
		if !strings.EqualFold(g.Status, "scheduled") {
			continue
		}
		games = append(games, Game{
			GameID:   g.ID,
			Sport:    sport,
			Status:   domain.GameScheduled,
			StartTS:  g.StartTime,
			HomeTeam: g.Home,
			AwayTeam: g.Away,
		})
	}
	return games, nil
}

type ppProp struct {
	ID             string  `json:"id"`
	PlayerID       string  `json:"player_id"`
	PlayerName     string  `json:"player_name"`
	Team           string  `json:"team"`
	Position       string  `json:"position"`
	StatType       string  `json:"stat_type"`
	Line           float64 `json:"line_score"`
	OverMultiplier float64 `json:"over_multiplier"`
	UnderMultiplier float64 `json:"under_multiplier"`
	FlexAllowed    bool    `json:"flex_allowed"`
	GameID         string  `json:"game_id"`
	GameStatus     string  `json:"game_status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ppPropsResponse struct {
	Props []ppProp `json:"props"`
}

func (c *PrizePicksClient) FetchProps(ctx context.Context, sport domain.Sport, gameIDs []string, market MarketType) ([]domain.RawProp, error) {
	if market == MarketTeamProps {
		return nil, nil // PrizePicks, in this adapter, only offers player props
	}

	url := fmt.Sprintf("%s/props?sport=%s&games=%s", c.baseURL, strings.ToLower(string(sport)), strings.Join(gameIDs, ","))
	var body ppPropsResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	raws := make([]domain.RawProp, 0, len(body.Props))
	for _, p := range body.Props {
		over, under := p.OverMultiplier, p.UnderMultiplier
		payoutType := domain.PayoutStandard
		if p.FlexAllowed {
			payoutType = domain.PayoutFlex
		}
		raws = append(raws, domain.RawProp{
			ProviderID:       c.ProviderID(),
			ExternalPropID:   p.ID,
			ExternalPlayerID: p.PlayerID,
			PlayerName:       p.PlayerName,
			TeamCode:         p.Team,
			Position:         p.Position,
			PropCategory:     p.StatType,
			LineValue:        p.Line,
			PayoutType:       payoutType,
			OverOdds:         &over,
			UnderOdds:        &under,
			UpdatedTS:        p.UpdatedAt,
			Sport:            sport,
			GameID:           p.GameID,
			GameStatus:       mapGameStatus(p.GameStatus),
		})
	}
	return raws, nil
}

func (c *PrizePicksClient) getJSON(ctx context.Context, url string, out any) error {
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

func mapGameStatus(s string) domain.GameStatus {
	switch strings.ToUpper(s) {
	case "LIVE", "IN_PROGRESS":
		return domain.GameLive
	case "FINAL", "COMPLETE":
		return domain.GameFinal
	default:
		return domain.GameScheduled
	}
}
