package schedule

import "sort"

func conflictReasons(a, b Entry) []string {
	if a.ID == b.ID || !a.Overlaps(b) {
		return nil
	}
	var reasons []string
	if a.ClassID == b.ClassID {
		reasons = append(reasons, ReasonClass)
	}
	if a.TeacherID.Valid && b.TeacherID.Valid && a.TeacherID.String == b.TeacherID.String {
		reasons = append(reasons, ReasonTeacher)
	}
	if a.Room != "" && a.Room == b.Room {
		reasons = append(reasons, ReasonRoom)
	}
	return reasons
}

// conflictsWith lists the entries of `others` conflicting with `e`.
func conflictsWith(e Entry, others []Entry) []Conflict {
	var out []Conflict
	for _, o := range others {
		if reasons := conflictReasons(e, o); len(reasons) > 0 {
			out = append(out, Conflict{EntryID: e.ID, ConflictingID: o.ID, Weekday: e.Weekday, Reasons: reasons})
		}
	}
	return out
}

// findConflicts lists every conflicting pair once, ordered by weekday then start time.
func findConflicts(entries []Entry) []Conflict {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		if sorted[i].StartTime != sorted[j].StartTime {
			return sorted[i].StartTime < sorted[j].StartTime
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]Conflict, 0)
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if b.Weekday != a.Weekday || b.StartTime >= a.EndTime {
				break
			}
			if reasons := conflictReasons(a, b); len(reasons) > 0 {
				out = append(out, Conflict{EntryID: a.ID, ConflictingID: b.ID, Weekday: a.Weekday, Reasons: reasons})
			}
		}
	}
	return out
}
