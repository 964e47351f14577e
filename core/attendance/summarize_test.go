package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(id string, attended, total int) SubjectStatus {
	return SubjectStatus{ID: id, Name: "Subject " + id, Attended: attended, Total: total, Classification: Classify(attended, total)}
}

func TestSummarize_empty(t *testing.T) {
	sum := Summarize(nil, nil)
	assert.Nil(t, sum.Best)
	assert.Nil(t, sum.Worst)
	assert.Equal(t, Classify(0, 0), sum.Overall)
	assert.Zero(t, sum.TotalAbsences)
	assert.Zero(t, sum.CurrentStreak)
	assert.Zero(t, sum.LongestStreak)
	assert.Len(t, sum.TierCounts, len(Tiers))
}

func TestSummarize_bestAndWorst(t *testing.T) {
	subjects := []SubjectStatus{
		status("math", 30, 40),    // 75
		status("physics", 9, 10),  // 90
		status("history", 6, 10),  // 60
		status("biology", 18, 20), // 90, tie with physics
		status("art", 12, 20),     // 60, tie with history
	}
	orig := make([]SubjectStatus, len(subjects))
	copy(orig, subjects)

	sum := Summarize(subjects, nil)
	require.NotNil(t, sum.Best)
	require.NotNil(t, sum.Worst)
	assert.Equal(t, "physics", sum.Best.ID)
	assert.Equal(t, "history", sum.Worst.ID)
	assert.Equal(t, 75, sum.TotalAttended)
	assert.Equal(t, 100, sum.TotalSessions)
	assert.Equal(t, Classify(75, 100), sum.Overall)
	assert.Equal(t, map[Tier]int{TierSafe: 2, TierWarning: 1, TierAtRisk: 0, TierCritical: 2}, sum.TierCounts)

	// inputs are left untouched
	assert.Equal(t, orig, subjects)
	sum.Best.Name = "changed"
	assert.Equal(t, "Subject physics", subjects[1].Name)
}

func TestSummarize_streaks(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name         string
		logs         []LogFact
		wantAbsences int
		wantCurrent  int
		wantLongest  int
	}{
		{name: "no logs"},
		{
			name: "all present",
			logs: []LogFact{
				{SubjectID: "a", Date: day(1), Outcome: OutcomePresent},
				{SubjectID: "b", Date: day(2), Outcome: OutcomePresent},
			},
			wantCurrent: 2, wantLongest: 2,
		},
		{
			name: "absence breaks the streak",
			logs: []LogFact{
				{SubjectID: "a", Date: day(1), Outcome: OutcomePresent},
				{SubjectID: "a", Date: day(2), Outcome: OutcomePresent},
				{SubjectID: "a", Date: day(3), Outcome: OutcomePresent},
				{SubjectID: "b", Date: day(4), Outcome: OutcomeAbsent},
				{SubjectID: "a", Date: day(5), Outcome: OutcomePresent},
			},
			wantAbsences: 1, wantCurrent: 1, wantLongest: 3,
		},
		{
			name: "excluded sessions are ignored",
			logs: []LogFact{
				{SubjectID: "a", Date: day(1), Outcome: OutcomePresent},
				{SubjectID: "a", Date: day(2), Outcome: OutcomeExcluded},
				{SubjectID: "a", Date: day(3), Outcome: OutcomePresent},
			},
			wantCurrent: 2, wantLongest: 2,
		},
		{
			name: "unordered logs are sorted by date",
			logs: []LogFact{
				{SubjectID: "a", Date: day(5), Outcome: OutcomeAbsent},
				{SubjectID: "a", Date: day(1), Outcome: OutcomePresent},
				{SubjectID: "a", Date: day(2), Outcome: OutcomePresent},
			},
			wantAbsences: 1, wantCurrent: 0, wantLongest: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var orig []LogFact
			orig = append(orig, tt.logs...)

			sum := Summarize(nil, tt.logs)
			assert.Equal(t, tt.wantAbsences, sum.TotalAbsences)
			assert.Equal(t, tt.wantCurrent, sum.CurrentStreak)
			assert.Equal(t, tt.wantLongest, sum.LongestStreak)
			assert.Equal(t, orig, tt.logs)
		})
	}
}
