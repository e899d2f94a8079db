package report

import (
	"sort"

	"quarta/internal/core"
)

// MemberSummary backs the inactive-members dashboard card.
type MemberSummary struct {
	Active           int
	Inactive         int
	RetentionRate    float64 // percentage of members still active
	RecentlyInactive []core.Student
}

// SummarizeMembers counts active vs inactive students and lists the most
// recently deactivated ones, newest first, capped at limit.
func SummarizeMembers(students []core.Student, limit int) MemberSummary {
	var sum MemberSummary
	for _, s := range students {
		if s.Active {
			sum.Active++
		} else {
			sum.Inactive++
			sum.RecentlyInactive = append(sum.RecentlyInactive, s)
		}
	}
	if total := sum.Active + sum.Inactive; total > 0 {
		sum.RetentionRate = float64(sum.Active) * 100.0 / float64(total)
	}
	sort.SliceStable(sum.RecentlyInactive, func(i, j int) bool {
		return sum.RecentlyInactive[j].InactiveDate.Before(sum.RecentlyInactive[i].InactiveDate.Time)
	})
	if limit > 0 && len(sum.RecentlyInactive) > limit {
		sum.RecentlyInactive = sum.RecentlyInactive[:limit]
	}
	return sum
}
