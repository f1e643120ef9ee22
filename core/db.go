package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderByClause renders orderings as a SQL ORDER BY list, falling back to `def` when empty.
// Fields must have been whitelisted by the caller.
func OrderByClause(orderings []DBOrdering, def string) string {
	if len(orderings) == 0 {
		return def
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
