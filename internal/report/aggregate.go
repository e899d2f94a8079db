package report

import (
	"quarta/internal/core"
	"quarta/internal/store"
)

// MonthBucket is one calendar month's financial summary.
type MonthBucket struct {
	Key      core.MonthKey
	Revenue  core.Money // paid payments + additional income
	Expenses core.Money // court + extra expenses
	Balance  core.Money // always Revenue - Expenses

	Paid    core.Money
	Pending core.Money
	Overdue core.Money

	StudentsPaid   int // distinct students fully in paid state this month
	StudentsUnpaid int // distinct students with a pending or overdue due
}

// Summarize buckets the four row collections into exactly len(months)
// summaries, in the order the months slice gives (callers pass
// core.TrailingMonths, which is ascending). Rows whose bucketing month is
// not in the window are dropped; months with no rows keep zeroed sums.
// Amounts are summed as given, validation happens at the write boundary.
func Summarize(months []core.MonthKey, payments []store.PaymentRecord, court []core.CourtExpense, extra []core.ExtraExpense, income []core.AdditionalIncome) []MonthBucket {
	index := make(map[core.MonthKey]int, len(months))
	buckets := make([]MonthBucket, len(months))
	for i, k := range months {
		index[k] = i
		buckets[i].Key = k
	}

	type studentSet = map[int64]bool
	paidStudents := make([]studentSet, len(months))
	unpaidStudents := make([]studentSet, len(months))
	for i := range months {
		paidStudents[i] = make(studentSet)
		unpaidStudents[i] = make(studentSet)
	}

	for _, p := range payments {
		i, ok := index[p.Month()]
		if !ok {
			continue
		}
		switch p.Status {
		case core.PaymentPaid:
			buckets[i].Paid = buckets[i].Paid.Add(p.Amount)
			buckets[i].Revenue = buckets[i].Revenue.Add(p.Amount)
			paidStudents[i][p.StudentID] = true
		case core.PaymentPending:
			buckets[i].Pending = buckets[i].Pending.Add(p.Amount)
			unpaidStudents[i][p.StudentID] = true
		case core.PaymentOverdue:
			buckets[i].Overdue = buckets[i].Overdue.Add(p.Amount)
			unpaidStudents[i][p.StudentID] = true
		}
	}
	for _, e := range court {
		if i, ok := index[core.MonthOf(e.DueDate.Time)]; ok {
			buckets[i].Expenses = buckets[i].Expenses.Add(e.Amount)
		}
	}
	for _, e := range extra {
		if i, ok := index[core.MonthOf(e.Date.Time)]; ok {
			buckets[i].Expenses = buckets[i].Expenses.Add(e.Amount)
		}
	}
	for _, in := range income {
		if i, ok := index[core.MonthOf(in.Date.Time)]; ok {
			buckets[i].Revenue = buckets[i].Revenue.Add(in.Amount)
		}
	}

	for i := range buckets {
		buckets[i].Balance = buckets[i].Revenue.Sub(buckets[i].Expenses)
		// a student both paid and owing this month counts on both sides
		buckets[i].StudentsPaid = len(paidStudents[i])
		buckets[i].StudentsUnpaid = len(unpaidStudents[i])
	}
	return buckets
}

// Totals collapses a bucket window into headline figures for the
// dashboard cards.
type Totals struct {
	Revenue  core.Money
	Expenses core.Money
	Balance  core.Money
}

func SumBuckets(buckets []MonthBucket) Totals {
	var t Totals
	for _, b := range buckets {
		t.Revenue = t.Revenue.Add(b.Revenue)
		t.Expenses = t.Expenses.Add(b.Expenses)
	}
	t.Balance = t.Revenue.Sub(t.Expenses)
	return t
}
