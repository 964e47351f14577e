package attendance

import (
	"sort"
	"time"
)

// Outcome is how a logged session counts toward a streak.
type Outcome string

const (
	OutcomePresent  Outcome = "present"
	OutcomeAbsent   Outcome = "absent"
	OutcomeExcluded Outcome = "excluded" // e.g. a cancelled class
)

// LogFact is one logged session, as needed for streaks and absences.
type LogFact struct {
	SubjectID string
	Date      time.Time
	Outcome   Outcome
}

// SubjectStatus is one subject's counters and classification, as fed to Summarize.
type SubjectStatus struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Attended       int            `json:"attended"`
	Total          int            `json:"total"`
	Classification Classification `json:"classification"`
}

// Summary aggregates a student's subjects and attendance history for the dashboard.
type Summary struct {
	Best          *SubjectStatus `json:"best"`
	Worst         *SubjectStatus `json:"worst"`
	Overall       Classification `json:"overall"`
	TotalAttended int            `json:"total_attended"`
	TotalSessions int            `json:"total_sessions"`
	TotalAbsences int            `json:"total_absences"`
	CurrentStreak int            `json:"current_streak"`
	LongestStreak int            `json:"longest_streak"`
	TierCounts    map[Tier]int   `json:"tier_counts"`
}

// Summarize aggregates subject statuses and log facts into report figures.
// Best and worst go to the first subject holding the max / min percentage.
// Streaks count consecutive attended sessions across all subjects in date order;
// excluded sessions neither extend nor break them. Inputs are left untouched.
func Summarize(subjects []SubjectStatus, logs []LogFact) Summary {
	sum := Summary{TierCounts: make(map[Tier]int, len(Tiers))}
	for _, tier := range Tiers {
		sum.TierCounts[tier] = 0
	}

	for i := range subjects {
		subj := subjects[i]
		if sum.Best == nil || subj.Classification.Percentage > sum.Best.Classification.Percentage {
			best := subj
			sum.Best = &best
		}
		if sum.Worst == nil || subj.Classification.Percentage < sum.Worst.Classification.Percentage {
			worst := subj
			sum.Worst = &worst
		}
		sum.TotalAttended += subj.Attended
		sum.TotalSessions += subj.Total
		sum.TierCounts[subj.Classification.Tier]++
	}
	sum.Overall = Classify(sum.TotalAttended, sum.TotalSessions)

	ordered := make([]LogFact, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	var run int
	for _, fact := range ordered {
		switch fact.Outcome {
		case OutcomePresent:
			run++
			if run > sum.LongestStreak {
				sum.LongestStreak = run
			}
		case OutcomeAbsent:
			sum.TotalAbsences++
			run = 0
		}
	}
	sum.CurrentStreak = run
	return sum
}
