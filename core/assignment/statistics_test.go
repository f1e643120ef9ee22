package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatistics(t *testing.T) {
	now := time.Date(2024, time.November, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	assignments := []Assignment{
		{ID: "a1", ClassID: "c1", Status: StatusActive, DueDate: past, MaxScore: 100},   // overdue
		{ID: "a2", ClassID: "c1", Status: StatusActive, DueDate: future, MaxScore: 50},  //
		{ID: "a3", ClassID: "c2", Status: StatusClosed, DueDate: past, MaxScore: 10},    // closed is never overdue
		{ID: "a4", ClassID: "c2", Status: StatusDraft, DueDate: future, MaxScore: 100},  // no submissions expected
	}
	enrollments := map[string]int{"c1": 3, "c2": 2}

	tests := []struct {
		name   string
		asgs   []Assignment
		scores []Score
		want   Statistics
	}{
		{name: "no assignments", want: Statistics{}},
		{
			name: "no grades", asgs: assignments,
			want: Statistics{
				TotalAssignments: 4, ActiveAssignments: 2, DraftAssignments: 1, ClosedAssignments: 1, OverdueAssignments: 1,
				ExpectedSubmissions: 8,
			},
		},
		{
			name: "graded", asgs: assignments,
			scores: []Score{
				{AssignmentID: "a1", StudentID: "s1", Score: 80, MaxScore: 100},
				{AssignmentID: "a1", StudentID: "s2", Score: 70, MaxScore: 100},
				{AssignmentID: "a2", StudentID: "s1", Score: 50, MaxScore: 50},
				{AssignmentID: "a4", StudentID: "s4", Score: 10, MaxScore: 100}, // draft: ignored
			},
			want: Statistics{
				TotalAssignments: 4, ActiveAssignments: 2, DraftAssignments: 1, ClosedAssignments: 1, OverdueAssignments: 1,
				GradedSubmissions: 3, ExpectedSubmissions: 8,
				AverageScore:   83.33, // (80 + 70 + 100) / 3
				CompletionRate: 37.5,  // 3 / 8
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeStatistics(tt.asgs, enrollments, tt.scores, now))
		})
	}
}
