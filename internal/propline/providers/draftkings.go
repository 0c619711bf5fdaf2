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

// DraftKingsClient adapts DraftKings' American-odds payout encoding into
// domain.RawProp (spec Scenario A: DraftKings quotes e.g. over -110 / under
// +110).
type DraftKingsClient struct {
	baseURL string
	http    *http.Client
}

// NewDraftKingsClient builds a client against baseURL.
func NewDraftKingsClient(baseURL string, hc *http.Client) *DraftKingsClient {
	return &DraftKingsClient{baseURL: baseURL, http: hc}
}

func (c *DraftKingsClient) ProviderID() string { return "draftkings" }

type dkEvent struct {
	EventID   string    `json:"eventId"`
	Status    string    `json:"eventStatus"`
	StartTime time.Time `json:"startDate"`
	Home      string    `json:"homeTeamName"`
	Away      string    `json:"awayTeamName"`
}

type dkEventsResponse struct {
	Events []dkEvent `json:"events"`
}

func (c *DraftKingsClient) FetchScheduledGames(ctx context.Context, sport domain.Sport) ([]Game, error) {
	url := fmt.Sprintf("%s/v1/leagues/%s/events", c.baseURL, strings.ToLower(string(sport)))
	var body dkEventsResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	games := make([]Game, 0, len(body.Events))
	for _, e := range body.Events {
		if !strings.EqualFold(e.Status, "Scheduled") {
			continue
		}
		games = append(games, Game{
			GameID:   e.EventID,
			Sport:    sport,
			Status:   domain.GameScheduled,
			StartTS:  e.StartTime,
			HomeTeam: e.Home,
			AwayTeam: e.Away,
		})
	}
	return games, nil
}

type dkOffer struct {
	OfferID      string  `json:"offerId"`
	PlayerID     string  `json:"playerId"`
	PlayerName   string  `json:"playerName"`
	TeamAbbrev   string  `json:"teamAbbreviation"`
	PositionCode string  `json:"positionCode"`
	MarketName   string  `json:"marketName"` // e.g. "Player Points"
	Line         float64 `json:"line"`
	OverAmerican int     `json:"overAmericanOdds"`
	UnderAmerican int    `json:"underAmericanOdds"`
	IsBoosted    bool    `json:"isBoosted"`
	EventID      string  `json:"eventId"`
	EventStatus  string  `json:"eventStatus"`
	UpdatedAt    time.Time `json:"lastUpdated"`
}

type dkOffersResponse struct {
	Offers []dkOffer `json:"offers"`
}

func (c *DraftKingsClient) FetchProps(ctx context.Context, sport domain.Sport, gameIDs []string, market MarketType) ([]domain.RawProp, error) {
	marketSegment := "player-props"
	if market == MarketTeamProps {
		marketSegment = "team-props"
	}
	url := fmt.Sprintf("%s/v1/leagues/%s/%s?events=%s", c.baseURL, strings.ToLower(string(sport)), marketSegment, strings.Join(gameIDs, ","))
	var body dkOffersResponse
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, err
	}

	raws := make([]domain.RawProp, 0, len(body.Offers))
	for _, o := range body.Offers {
		over, under := float64(o.OverAmerican), float64(o.UnderAmerican)
		payoutType := domain.PayoutStandard
		if o.IsBoosted {
			payoutType = domain.PayoutBoost
		}
		position := o.PositionCode
		if market == MarketTeamProps {
			position = domain.TeamPosition
		}
		raws = append(raws, domain.RawProp{
			ProviderID:       c.ProviderID(),
			ExternalPropID:   o.OfferID,
			ExternalPlayerID: o.PlayerID,
			PlayerName:       o.PlayerName,
			TeamCode:         o.TeamAbbrev,
			Position:         position,
			PropCategory:     o.MarketName,
			LineValue:        o.Line,
			PayoutType:       payoutType,
			OverOdds:         &over,
			UnderOdds:        &under,
			UpdatedTS:        o.UpdatedAt,
			Sport:            sport,
			GameID:           o.EventID,
			GameStatus:       mapGameStatus(o.EventStatus),
		})
	}
	return raws, nil
}

func (c *DraftKingsClient) getJSON(ctx context.Context, url string, out any) error {
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
