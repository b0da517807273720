package domain

// TargetInfo is one take-profit level of a signal. Levels are 1-based and,
// for a long position, prices increase with the level.
type TargetInfo struct {
	Level            int      `json:"level"`
	Price            float64  `json:"price"`
	PercentageChange *float64 `json:"percentage_change,omitempty"`
	Status           string   `json:"status,omitempty"`
}

// StopLossInfo is one protective level of a signal. Level 1 is the tightest
// stop, closest to the entry price.
type StopLossInfo struct {
	Level            int      `json:"level"`
	Price            float64  `json:"price"`
	PercentageChange *float64 `json:"percentage_change,omitempty"`
	Status           string   `json:"status,omitempty"`
}

// Signal is a parsed trade signal as delivered by the ingestion boundary.
// It is immutable once stored. Timestamp keeps its ISO-8601 wire form; only
// the freshness gate parses it, so a malformed value fails exactly there.
type Signal struct {
	CoinPair   string         `json:"coin_pair"`
	EntryPrice float64        `json:"entry_price"`
	RiskLevel  string         `json:"risk_level,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Targets    []TargetInfo   `json:"targets"`
	StopLosses []StopLossInfo `json:"stop_losses"`
}

// TargetPrice returns the price of the target at the given level.
func TargetPrice(targets []TargetInfo, level int) (float64, bool) {
	for _, t := range targets {
		if t.Level == level {
			return t.Price, true
		}
	}
	return 0, false
}
