package report

import (
	"testing"
	"time"

	"quarta/internal/core"
	"quarta/internal/store"
)

func mark(id int64, name string, day int, present bool) store.AttendanceRecord {
	return store.AttendanceRecord{
		Attendance: core.Attendance{
			StudentID: id,
			ClassDate: core.NewDate(2024, time.March, day),
			Present:   present,
		},
		StudentName: name,
	}
}

func TestAttendanceStats(t *testing.T) {
	rows := []store.AttendanceRecord{
		mark(1, "Ana", 6, true),
		mark(2, "Bruno", 6, false),
		mark(1, "Ana", 13, true),
		mark(2, "Bruno", 13, false),
		mark(1, "Ana", 20, false),
		mark(2, "Bruno", 20, false),
		mark(1, "Ana", 27, true),
	}

	stats := AttendanceStats(rows)
	if len(stats) != 2 {
		t.Fatalf("len = %d", len(stats))
	}

	ana := stats[0]
	if ana.StudentName != "Ana" || ana.Present != 3 || ana.Total != 4 {
		t.Errorf("ana = %+v", ana)
	}
	if ana.Rate != 75.0 {
		t.Errorf("ana rate = %v", ana.Rate)
	}
	if ana.ConsecutiveAbsences != 0 || ana.Alert {
		t.Errorf("ana streak = %d alert = %v", ana.ConsecutiveAbsences, ana.Alert)
	}

	bruno := stats[1]
	if bruno.Present != 0 || bruno.Total != 3 || bruno.Rate != 0 {
		t.Errorf("bruno = %+v", bruno)
	}
	if bruno.ConsecutiveAbsences != 3 || !bruno.Alert {
		t.Errorf("bruno streak = %d alert = %v", bruno.ConsecutiveAbsences, bruno.Alert)
	}
}

func TestAttendanceStreakResetsOnPresence(t *testing.T) {
	rows := []store.AttendanceRecord{
		mark(1, "Ana", 1, false),
		mark(1, "Ana", 8, false),
		mark(1, "Ana", 15, false),
		mark(1, "Ana", 22, true),
		mark(1, "Ana", 29, false),
	}
	stats := AttendanceStats(rows)
	if stats[0].ConsecutiveAbsences != 1 || stats[0].Alert {
		t.Errorf("streak after presence = %d alert = %v", stats[0].ConsecutiveAbsences, stats[0].Alert)
	}
}

func TestAttendanceStatsEmpty(t *testing.T) {
	if got := AttendanceStats(nil); len(got) != 0 {
		t.Errorf("expected no stats, got %d", len(got))
	}
}
