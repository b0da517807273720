package domain

type DecisionStatus string

const (
	DecisionBuy  DecisionStatus = "BUY"
	DecisionSkip DecisionStatus = "SKIP"
	DecisionFail DecisionStatus = "FAIL"
)

// Decision is the outcome of one signal evaluation. It is a report, not
// mutable state: a signal can be re-evaluated on a later cycle and produce a
// fresh Decision.
type Decision struct {
	Decision     DecisionStatus `json:"decision"`
	CoinPair     string         `json:"coin_pair"`
	Reason       string         `json:"reason"`
	CurrentPrice float64        `json:"current_price,omitempty"`
	EntryPrice   float64        `json:"entry_price,omitempty"`
	RiskLevel    string         `json:"risk_level,omitempty"`
	Targets      []TargetInfo   `json:"targets,omitempty"`
	StopLosses   []StopLossInfo `json:"stop_losses,omitempty"`

	// Terminal marks a FAIL that re-evaluation can never fix (bad shape,
	// expired signal). Transient failures such as market-data errors leave
	// it false so the caller retries on the next cycle.
	Terminal bool `json:"-"`
}
