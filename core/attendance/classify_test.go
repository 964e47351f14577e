package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		attended int
		total    int
		wantPct  float64
		wantTier Tier
	}{
		{name: "no session", attended: 0, total: 0, wantPct: 0, wantTier: TierCritical},
		{name: "all attended", attended: 10, total: 10, wantPct: 100, wantTier: TierSafe},
		{name: "safe lower bound", attended: 85, total: 100, wantPct: 85, wantTier: TierSafe},
		{name: "just under safe", attended: 84, total: 100, wantPct: 84, wantTier: TierWarning},
		{name: "warning lower bound", attended: 30, total: 40, wantPct: 75, wantTier: TierWarning},
		{name: "just under warning", attended: 74, total: 100, wantPct: 74, wantTier: TierAtRisk},
		{name: "at risk lower bound", attended: 65, total: 100, wantPct: 65, wantTier: TierAtRisk},
		{name: "just under at risk", attended: 64, total: 100, wantPct: 64, wantTier: TierCritical},
		{name: "nothing attended", attended: 0, total: 12, wantPct: 0, wantTier: TierCritical},
		{name: "attended > total is not rejected", attended: 12, total: 10, wantPct: 120, wantTier: TierSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.attended, tt.total)
			assert.InDelta(t, tt.wantPct, got.Percentage, 1e-9)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantTier.Color(), got.Color)
		})
	}
}

func TestClassify_percentageBounds(t *testing.T) {
	for total := 1; total <= 60; total++ {
		for attended := 0; attended <= total; attended++ {
			pct := Classify(attended, total).Percentage
			if pct < 0 || pct > 100*float64(attended)/float64(total)+1e-9 {
				t.Fatalf("Classify(%d, %d).Percentage = %v out of bounds", attended, total, pct)
			}
		}
	}
}

func TestTier_ColorAndRank(t *testing.T) {
	assert.Equal(t, "green", TierSafe.Color())
	assert.Equal(t, "yellow", TierWarning.Color())
	assert.Equal(t, "orange", TierAtRisk.Color())
	assert.Equal(t, "red", TierCritical.Color())

	assert.Less(t, TierSafe.Rank(), TierWarning.Rank())
	assert.Less(t, TierWarning.Rank(), TierAtRisk.Rank())
	assert.Less(t, TierAtRisk.Rank(), TierCritical.Rank())
}
