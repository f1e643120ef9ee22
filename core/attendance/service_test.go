package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	rec := func(status string) Record { return Record{Status: status} }

	tests := []struct {
		name    string
		records []Record
		want    Summary
	}{
		{name: "empty", want: Summary{}},
		{
			name:    "mixed",
			records: []Record{rec(StatusPresent), rec(StatusPresent), rec(StatusLate), rec(StatusAbsent), rec(StatusExcused), rec(StatusAbsent)},
			want:    Summary{Total: 6, Present: 2, Absent: 2, Late: 1, Excused: 1, AttendanceRate: 50},
		},
		{
			name:    "rounded",
			records: []Record{rec(StatusPresent), rec(StatusAbsent), rec(StatusAbsent)},
			want:    Summary{Total: 3, Present: 1, Absent: 2, AttendanceRate: 33.33},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarize(tt.records))
		})
	}
}
