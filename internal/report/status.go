// Package report holds the pure reporting computations: member standing
// derivation, monthly financial aggregation, and attendance statistics.
// Nothing here touches storage; callers pass pre-fetched rows.
package report

import (
	"sort"

	"quarta/internal/core"
	"quarta/internal/store"
)

// Standing is the closed set of payment standings a member can display.
type Standing int

const (
	StandingNone Standing = iota
	StandingCurrent
	StandingPending
	StandingOverdue
)

// Label returns the display text for the standing.
func (s Standing) Label() string {
	switch s {
	case StandingCurrent:
		return "Em dia"
	case StandingPending:
		return "Pendente"
	case StandingOverdue:
		return "Atrasado"
	default:
		return "Sem pagamentos"
	}
}

// BadgeClass returns the CSS class the templates use for the standing badge.
func (s Standing) BadgeClass() string {
	switch s {
	case StandingCurrent:
		return "badge-ok"
	case StandingPending:
		return "badge-warn"
	case StandingOverdue:
		return "badge-danger"
	default:
		return "badge-muted"
	}
}

// DeriveStanding reduces one student's payments to a standing and a flag
// for the dashboard highlight. The payment with the greatest due date wins;
// when several share it, the last one in input order is taken, so a fixed
// input order gives a fixed answer. Only overdue and no-payments need
// attention; pending does not.
func DeriveStanding(payments []core.Payment) (Standing, bool) {
	if len(payments) == 0 {
		return StandingNone, true
	}
	latest := payments[0]
	for _, p := range payments[1:] {
		if !p.DueDate.Before(latest.DueDate.Time) {
			latest = p
		}
	}
	switch latest.Status {
	case core.PaymentPaid:
		return StandingCurrent, false
	case core.PaymentPending:
		return StandingPending, false
	case core.PaymentOverdue:
		return StandingOverdue, true
	default:
		return StandingNone, true
	}
}

// StudentStanding pairs a student with their derived standing for the
// dashboard list.
type StudentStanding struct {
	Student        core.Student
	Standing       Standing
	NeedsAttention bool
}

// StudentStandings derives a standing per student from the given payment
// window. Students are returned in name order regardless of input order.
func StudentStandings(students []core.Student, payments []store.PaymentRecord) []StudentStanding {
	byStudent := make(map[int64][]core.Payment)
	for _, p := range payments {
		byStudent[p.StudentID] = append(byStudent[p.StudentID], p.Payment)
	}
	out := make([]StudentStanding, 0, len(students))
	for _, s := range students {
		standing, attention := DeriveStanding(byStudent[s.ID])
		out = append(out, StudentStanding{Student: s, Standing: standing, NeedsAttention: attention})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Student.Name < out[j].Student.Name
	})
	return out
}
