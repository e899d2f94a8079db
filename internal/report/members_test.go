package report

import (
	"testing"
	"time"

	"quarta/internal/core"
)

func TestSummarizeMembers(t *testing.T) {
	students := []core.Student{
		{ID: 1, Name: "Ana", Active: true},
		{ID: 2, Name: "Bruno", Active: true},
		{ID: 3, Name: "Carla", Active: true},
		{ID: 4, Name: "Davi", InactiveReason: "moved", InactiveDate: core.NewDate(2024, time.January, 10)},
		{ID: 5, Name: "Elisa", InactiveReason: "injury", InactiveDate: core.NewDate(2024, time.April, 2)},
	}

	sum := SummarizeMembers(students, 5)
	if sum.Active != 3 || sum.Inactive != 2 {
		t.Errorf("counts = %d active, %d inactive", sum.Active, sum.Inactive)
	}
	if sum.RetentionRate != 60.0 {
		t.Errorf("retention = %v", sum.RetentionRate)
	}
	if len(sum.RecentlyInactive) != 2 || sum.RecentlyInactive[0].Name != "Elisa" {
		t.Errorf("recently inactive = %+v", sum.RecentlyInactive)
	}

	capped := SummarizeMembers(students, 1)
	if len(capped.RecentlyInactive) != 1 || capped.RecentlyInactive[0].Name != "Elisa" {
		t.Errorf("capped list = %+v", capped.RecentlyInactive)
	}
}

func TestSummarizeMembersEmpty(t *testing.T) {
	sum := SummarizeMembers(nil, 5)
	if sum.Active != 0 || sum.Inactive != 0 || sum.RetentionRate != 0 {
		t.Errorf("empty summary = %+v", sum)
	}
}
