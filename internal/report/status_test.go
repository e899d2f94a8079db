package report

import (
	"testing"
	"time"

	"quarta/internal/core"
	"quarta/internal/store"
)

func pay(studentID int64, due core.Date, status core.PaymentStatus) core.Payment {
	p := core.Payment{StudentID: studentID, Amount: core.Money{Cents: 10000}, DueDate: due, Status: status}
	if status == core.PaymentPaid {
		p.PaymentDate = due
	}
	return p
}

func TestDeriveStanding(t *testing.T) {
	jan := core.NewDate(2024, time.January, 1)
	feb := core.NewDate(2024, time.February, 1)

	tests := []struct {
		name          string
		payments      []core.Payment
		want          Standing
		wantAttention bool
	}{
		{
			name:          "empty history",
			payments:      nil,
			want:          StandingNone,
			wantAttention: true,
		},
		{
			name:          "latest due wins over older paid",
			payments:      []core.Payment{pay(1, jan, core.PaymentPaid), pay(1, feb, core.PaymentOverdue)},
			want:          StandingOverdue,
			wantAttention: true,
		},
		{
			name:          "input order does not matter",
			payments:      []core.Payment{pay(1, feb, core.PaymentOverdue), pay(1, jan, core.PaymentPaid)},
			want:          StandingOverdue,
			wantAttention: true,
		},
		{
			name:          "latest paid is current",
			payments:      []core.Payment{pay(1, jan, core.PaymentOverdue), pay(1, feb, core.PaymentPaid)},
			want:          StandingCurrent,
			wantAttention: false,
		},
		{
			name:          "pending is not flagged",
			payments:      []core.Payment{pay(1, feb, core.PaymentPending)},
			want:          StandingPending,
			wantAttention: false,
		},
		{
			name:          "equal due dates take the later row",
			payments:      []core.Payment{pay(1, feb, core.PaymentPaid), pay(1, feb, core.PaymentPending)},
			want:          StandingPending,
			wantAttention: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, attention := DeriveStanding(tt.payments)
			if got != tt.want || attention != tt.wantAttention {
				t.Errorf("DeriveStanding() = (%v, %v), want (%v, %v)", got, attention, tt.want, tt.wantAttention)
			}
		})
	}
}

func TestStandingLabels(t *testing.T) {
	labels := map[Standing]string{
		StandingCurrent: "Em dia",
		StandingPending: "Pendente",
		StandingOverdue: "Atrasado",
		StandingNone:    "Sem pagamentos",
	}
	for s, want := range labels {
		if s.Label() != want {
			t.Errorf("Label(%d) = %q, want %q", s, s.Label(), want)
		}
		if s.BadgeClass() == "" {
			t.Errorf("BadgeClass(%d) empty", s)
		}
	}
}

func TestStudentStandings(t *testing.T) {
	feb := core.NewDate(2024, time.February, 1)
	students := []core.Student{
		{ID: 2, Name: "Bruno", Active: true},
		{ID: 1, Name: "Ana", Active: true},
		{ID: 3, Name: "Carla", Active: true},
	}
	payments := []store.PaymentRecord{
		{Payment: pay(1, feb, core.PaymentPaid), StudentName: "Ana"},
		{Payment: pay(2, feb, core.PaymentOverdue), StudentName: "Bruno"},
	}

	got := StudentStandings(students, payments)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Student.Name != "Ana" || got[0].Standing != StandingCurrent || got[0].NeedsAttention {
		t.Errorf("Ana = %+v", got[0])
	}
	if got[1].Student.Name != "Bruno" || got[1].Standing != StandingOverdue || !got[1].NeedsAttention {
		t.Errorf("Bruno = %+v", got[1])
	}
	if got[2].Student.Name != "Carla" || got[2].Standing != StandingNone || !got[2].NeedsAttention {
		t.Errorf("Carla = %+v", got[2])
	}
}
