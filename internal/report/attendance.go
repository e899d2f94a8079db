package report

import (
	"sort"

	"quarta/internal/store"
)

// consecutive absences beyond this trigger the dashboard alert
const absenceAlertThreshold = 2

// AttendanceStat summarizes one student's marks inside the queried window.
type AttendanceStat struct {
	StudentID           int64
	StudentName         string
	Present             int
	Total               int
	Rate                float64 // percentage, 0 when Total == 0
	ConsecutiveAbsences int     // trailing streak ending at the latest mark
	Alert               bool
}

// AttendanceStats groups marks per student and computes presence counts,
// percentage, and the trailing consecutive-absence streak. Rows are
// expected in class-date order (the store contract); students come out in
// name order.
func AttendanceStats(rows []store.AttendanceRecord) []AttendanceStat {
	type acc struct {
		stat   AttendanceStat
		streak int
	}
	byStudent := make(map[int64]*acc)
	order := make([]int64, 0)

	for _, r := range rows {
		a := byStudent[r.StudentID]
		if a == nil {
			a = &acc{stat: AttendanceStat{StudentID: r.StudentID, StudentName: r.StudentName}}
			byStudent[r.StudentID] = a
			order = append(order, r.StudentID)
		}
		a.stat.Total++
		if r.Present {
			a.stat.Present++
			a.streak = 0
		} else {
			a.streak++
		}
	}

	out := make([]AttendanceStat, 0, len(order))
	for _, id := range order {
		a := byStudent[id]
		a.stat.ConsecutiveAbsences = a.streak
		if a.stat.Total > 0 {
			a.stat.Rate = float64(a.stat.Present) * 100.0 / float64(a.stat.Total)
		}
		a.stat.Alert = a.streak > absenceAlertThreshold
		out = append(out, a.stat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StudentName < out[j].StudentName
	})
	return out
}
