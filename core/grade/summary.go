package grade

import (
	"sort"

	"github.com/iepapp/iep/core"
)

func summarize(studentID string, grades []Grade) Summary {
	sum := Summary{StudentID: studentID, Classes: make([]ClassSummary, 0)}
	type acc struct {
		count int
		pct   float64
	}
	perClass := make(map[string]*acc)
	var total float64

	for _, g := range grades {
		pct := g.Percentage()
		total += pct
		sum.Count++

		a, ok := perClass[g.ClassID]
		if !ok {
			a = &acc{}
			perClass[g.ClassID] = a
		}
		a.count++
		a.pct += pct
	}
	if sum.Count > 0 {
		sum.AveragePercentage = core.Round2(total / float64(sum.Count))
	}
	for classID, a := range perClass {
		sum.Classes = append(sum.Classes, ClassSummary{
			ClassID:           classID,
			Count:             a.count,
			AveragePercentage: core.Round2(a.pct / float64(a.count)),
		})
	}
	sort.Slice(sum.Classes, func(i, j int) bool { return sum.Classes[i].ClassID < sum.Classes[j].ClassID })
	return sum
}
