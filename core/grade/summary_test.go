package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	grades := []Grade{
		{ClassID: "math", Score: 80, MaxScore: 100},
		{ClassID: "math", Score: 45, MaxScore: 50},
		{ClassID: "art", Score: 7, MaxScore: 10},
	}

	got := summarize("s1", grades)
	assert.Equal(t, "s1", got.StudentID)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 80.0, got.AveragePercentage) // (80 + 90 + 70) / 3
	assert.Equal(t, []ClassSummary{
		{ClassID: "art", Count: 1, AveragePercentage: 70},
		{ClassID: "math", Count: 2, AveragePercentage: 85},
	}, got.Classes)

	empty := summarize("s2", nil)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, 0.0, empty.AveragePercentage)
	assert.Empty(t, empty.Classes)
}
