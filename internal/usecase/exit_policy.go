package usecase

import "github.com/vitos/crypto_signal_trader/internal/domain"

// TakeProfitPolicy selects the bracket's take-profit price from a signal's
// targets.
type TakeProfitPolicy interface {
	TakeProfitPrice(targets []domain.TargetInfo, buyPrice float64) (float64, bool)
}

// FixedLevelTakeProfit uses the target at one configured level and reports
// failure when the signal does not define it.
type FixedLevelTakeProfit struct {
	Level int
}

func (p FixedLevelTakeProfit) TakeProfitPrice(targets []domain.TargetInfo, buyPrice float64) (float64, bool) {
	return domain.TargetPrice(targets, p.Level)
}

// HighestTargetTakeProfit uses the highest defined target. A signal without
// targets falls back to 50% above the buy price so a replacement bracket can
// still be placed.
type HighestTargetTakeProfit struct{}

func (HighestTargetTakeProfit) TakeProfitPrice(targets []domain.TargetInfo, buyPrice float64) (float64, bool) {
	var best float64
	for _, t := range targets {
		if t.Price > best {
			best = t.Price
		}
	}
	if best > 0 {
		return best, true
	}
	if buyPrice > 0 {
		return buyPrice * 1.5, true
	}
	return 0, false
}

// TrailingPolicy proposes a stop-loss candidate from current price action.
// Candidates are ratchet-only: the caller applies one only when it is
// strictly above the live stop, so the applied stop sequence never loosens.
type TrailingPolicy interface {
	Candidate(buyPrice float64, targets []domain.TargetInfo, currentPrice float64) (float64, bool)
}

// LevelMapTrailing maps a trigger target level to a destination target level:
// once the price reaches the trigger's target, the stop moves to the
// destination target's price. Destination level 0 is synthetic and resolves
// to the buy price (breakeven). When several triggers are satisfied the
// highest destination price wins.
type LevelMapTrailing struct {
	Triggers map[int]int
}

func (p LevelMapTrailing) Candidate(buyPrice float64, targets []domain.TargetInfo, currentPrice float64) (float64, bool) {
	levelPrices := map[int]float64{0: buyPrice}
	for _, t := range targets {
		levelPrices[t.Level] = t.Price
	}

	var best float64
	found := false
	for trigger, dest := range p.Triggers {
		triggerPrice, ok := levelPrices[trigger]
		if !ok || trigger == 0 || currentPrice < triggerPrice {
			continue
		}
		destPrice, ok := levelPrices[dest]
		if !ok {
			continue
		}
		if !found || destPrice > best {
			best = destPrice
			found = true
		}
	}
	return best, found
}

// PercentAboveTrailing moves the stop to a target's price once the market
// trades a configured percentage above it. Targets below MinLevel never
// become stops.
type PercentAboveTrailing struct {
	TriggerPct float64
	MinLevel   int
}

func (p PercentAboveTrailing) Candidate(buyPrice float64, targets []domain.TargetInfo, currentPrice float64) (float64, bool) {
	var best float64
	found := false
	for _, t := range targets {
		if t.Level < p.MinLevel || t.Price <= 0 {
			continue
		}
		if currentPrice >= t.Price*(1+p.TriggerPct) {
			if !found || t.Price > best {
				best = t.Price
				found = true
			}
		}
	}
	return best, found
}
