package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func entry(id, class, teacher, room string, day int, start, end string) Entry {
	return Entry{
		ID: id, ClassID: class, TeacherID: null.NewString(teacher, teacher != ""), Room: room,
		Weekday: day, StartTime: start, EndTime: end,
	}
}

func TestEntryOverlaps(t *testing.T) {
	a := entry("a", "c1", "", "", 1, "09:00", "10:00")
	tests := []struct {
		name string
		b    Entry
		want bool
	}{
		{"same slot", entry("b", "c2", "", "", 1, "09:00", "10:00"), true},
		{"inside", entry("b", "c2", "", "", 1, "09:15", "09:45"), true},
		{"straddles start", entry("b", "c2", "", "", 1, "08:30", "09:01"), true},
		{"back to back", entry("b", "c2", "", "", 1, "10:00", "11:00"), false},
		{"ends at start", entry("b", "c2", "", "", 1, "08:00", "09:00"), false},
		{"other day", entry("b", "c2", "", "", 2, "09:00", "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(a))
		})
	}
}

func TestFindConflicts(t *testing.T) {
	entries := []Entry{
		entry("math", "c1", "t1", "101", 1, "09:00", "10:00"),
		entry("art", "c2", "t1", "102", 1, "09:30", "10:30"),     // teacher t1 busy
		entry("music", "c3", "t2", "101", 1, "09:45", "10:15"),   // room 101 busy
		entry("history", "c1", "t3", "103", 1, "10:00", "11:00"), // back to back with math
		entry("bio", "c4", "", "", 1, "09:00", "10:00"),          // nothing shared
		entry("chem", "c1", "t4", "104", 2, "09:00", "10:00"),
		entry("physics", "c1", "t4", "104", 2, "09:30", "10:30"), // class, teacher and room with chem
	}

	assert.Equal(t, []Conflict{
		{EntryID: "math", ConflictingID: "art", Weekday: 1, Reasons: []string{ReasonTeacher}},
		{EntryID: "math", ConflictingID: "music", Weekday: 1, Reasons: []string{ReasonRoom}},
		{EntryID: "chem", ConflictingID: "physics", Weekday: 2, Reasons: []string{ReasonClass, ReasonTeacher, ReasonRoom}},
	}, findConflicts(entries))

	assert.Empty(t, findConflicts(nil))
}

func TestConflictsWith(t *testing.T) {
	existing := []Entry{
		entry("math", "c1", "t1", "101", 1, "09:00", "10:00"),
		entry("art", "c2", "t2", "102", 1, "09:00", "10:00"),
	}
	e := entry("new", "c1", "t2", "", 1, "09:30", "10:30")
	got := conflictsWith(e, existing)
	assert.Equal(t, []Conflict{
		{EntryID: "new", ConflictingID: "math", Weekday: 1, Reasons: []string{ReasonClass}},
		{EntryID: "new", ConflictingID: "art", Weekday: 1, Reasons: []string{ReasonTeacher}},
	}, got)

	// updating an entry never conflicts with itself
	assert.Empty(t, conflictsWith(existing[0], existing[:1]))
}
