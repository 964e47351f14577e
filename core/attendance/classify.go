// Package attendance turns raw attendance counters into percentages, risk tiers,
// threshold projections and report summaries. Everything in here is pure.
package attendance

// Tier is a coarse classification of an attendance percentage.
type Tier string

const (
	TierSafe     Tier = "safe"
	TierWarning  Tier = "warning"
	TierAtRisk   Tier = "at_risk"
	TierCritical Tier = "critical"
)

// Tier breakpoints, lower bounds inclusive.
const (
	SafeFrom    = 85.0
	WarningFrom = 75.0
	AtRiskFrom  = 65.0
)

// Tiers lists every tier from the safest to the riskiest.
var Tiers = []Tier{TierSafe, TierWarning, TierAtRisk, TierCritical}

var tierColors = map[Tier]string{
	TierSafe:     "green",
	TierWarning:  "yellow",
	TierAtRisk:   "orange",
	TierCritical: "red",
}

// Color is the display color of the tier.
func (t Tier) Color() string { return tierColors[t] }

// Rank orders tiers by risk: 0 for safe up to 3 for critical.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return len(Tiers)
}

// Classification is a percentage with the tier it falls in and that tier's display color.
type Classification struct {
	Percentage float64 `json:"percentage"`
	Tier       Tier    `json:"tier"`
	Color      string  `json:"color"`
}

// Percentage returns 100 * attended / total, or 0 when there is no session yet.
func Percentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}

func TierOf(percentage float64) Tier {
	switch {
	case percentage >= SafeFrom:
		return TierSafe
	case percentage >= WarningFrom:
		return TierWarning
	case percentage >= AtRiskFrom:
		return TierAtRisk
	default:
		return TierCritical
	}
}

// Classify computes the percentage and risk tier of a counter.
// Counters are not validated: attended > total simply yields more than 100%.
func Classify(attended, total int) Classification {
	pct := Percentage(attended, total)
	tier := TierOf(pct)
	return Classification{
		Percentage: pct,
		Tier:       tier,
		Color:      tier.Color(),
	}
}
