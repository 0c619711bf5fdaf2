package httpapi

import "github.com/sportsdata/propline/internal/propline/domain"

func toPropDTO(p domain.CanonicalProp) PropDTO {
	var boost *string
	if p.Payout.BoostMultiplier != nil {
		s := p.Payout.BoostMultiplier.Round(3).String()
		boost = &s
	}

	return PropDTO{
		LineHash:       p.LineHash,
		PropType:       string(p.PropType),
		Sport:          string(p.Sport),
		ExternalPlayer: p.ExternalPlayer,
		ProviderID:     p.ProviderID,
		PlayerName:     p.PlayerName,
		TeamCode:       p.TeamCode,
		Position:       p.Position,
		OfferedLine:    p.OfferedLine.Round(1).String(),
		Payout: PayoutDTO{
			Type:            string(p.Payout.Type),
			VariantCode:     string(p.Payout.VariantCode),
			OverMultiplier:  p.Payout.OverMultiplier.Round(3).String(),
			UnderMultiplier: p.Payout.UnderMultiplier.Round(3).String(),
			BoostMultiplier: boost,
			LowConfidence:   p.Payout.LowConfidence,
		},
		ExternalPropID: p.ExternalPropID,
		GameID:         p.GameID,
		GameStatus:     string(p.GameStatus),
		GameStartTS:    p.GameStartTS,
		IngestedTS:     p.IngestedTS,
	}
}

func toPropDTOs(props []domain.CanonicalProp) []PropDTO {
	out := make([]PropDTO, len(props))
	for i, p := range props {
		out[i] = toPropDTO(p)
	}
	return out
}
