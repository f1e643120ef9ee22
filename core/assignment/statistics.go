package assignment

import (
	"time"

	"github.com/iepapp/iep/core"
)

// computeStatistics derives Statistics from assignments, class enrollment counts and graded scores.
// Drafts are not expected to receive submissions.
func computeStatistics(assignments []Assignment, enrollments map[string]int, scores []Score, now time.Time) Statistics {
	var stats Statistics
	published := make(map[string]bool, len(assignments))

	for _, a := range assignments {
		stats.TotalAssignments++
		switch a.Status {
		case StatusDraft:
			stats.DraftAssignments++
			continue
		case StatusActive:
			stats.ActiveAssignments++
		case StatusClosed:
			stats.ClosedAssignments++
		}
		if a.IsOverdue(now) {
			stats.OverdueAssignments++
		}
		published[a.ID] = true
		stats.ExpectedSubmissions += enrollments[a.ClassID]
	}

	var pctSum float64
	for _, s := range scores {
		if !published[s.AssignmentID] {
			continue
		}
		stats.GradedSubmissions++
		pctSum += core.Percentage(s.Score, s.MaxScore)
	}
	if stats.GradedSubmissions > 0 {
		stats.AverageScore = core.Round2(pctSum / float64(stats.GradedSubmissions))
	}

	rate := core.Percentage(float64(stats.GradedSubmissions), float64(stats.ExpectedSubmissions))
	if rate > 100 { // students graded then unenrolled
		rate = 100
	}
	stats.CompletionRate = core.Round2(rate)
	return stats
}
