package report

import (
	"reflect"
	"testing"
	"time"

	"quarta/internal/core"
	"quarta/internal/store"
)

func TestSummarizeWindowShape(t *testing.T) {
	ref := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	for _, n := range []int{1, 6, 12} {
		months := core.TrailingMonths(ref, n)
		buckets := Summarize(months, nil, nil, nil, nil)
		if len(buckets) != n {
			t.Fatalf("n=%d: got %d buckets", n, len(buckets))
		}
		for i := 1; i < len(buckets); i++ {
			if !buckets[i-1].Key.Before(buckets[i].Key) {
				t.Errorf("n=%d: buckets not ascending at %d: %v, %v", n, i, buckets[i-1].Key, buckets[i].Key)
			}
		}
		for _, b := range buckets {
			if b.Revenue.Cents != 0 || b.Expenses.Cents != 0 || b.Balance.Cents != 0 {
				t.Errorf("empty window bucket %v has nonzero sums: %+v", b.Key, b)
			}
		}
	}
}

func TestSummarizeMarchEndToEnd(t *testing.T) {
	ref := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 6)
	march := core.NewDate(2024, time.March, 1)

	payments := []store.PaymentRecord{
		{Payment: pay(1, march, core.PaymentPaid), StudentName: "Ana"},
	}
	court := []core.CourtExpense{
		{Amount: core.Money{Cents: 4000}, DueDate: march},
	}

	buckets := Summarize(months, payments, court, nil, nil)
	b := buckets[len(buckets)-1]
	if b.Key != (core.MonthKey{Year: 2024, Month: time.March}) {
		t.Fatalf("last bucket = %v", b.Key)
	}
	if b.Revenue.Cents != 10000 || b.Expenses.Cents != 4000 || b.Balance.Cents != 6000 {
		t.Errorf("march bucket = revenue %d expenses %d balance %d", b.Revenue.Cents, b.Expenses.Cents, b.Balance.Cents)
	}
	if b.StudentsPaid != 1 || b.StudentsUnpaid != 0 {
		t.Errorf("student counts = %d paid, %d unpaid", b.StudentsPaid, b.StudentsUnpaid)
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 6)

	var payments []store.PaymentRecord
	var court []core.CourtExpense
	var extra []core.ExtraExpense
	var income []core.AdditionalIncome
	for i, k := range months {
		first := k.First()
		payments = append(payments, store.PaymentRecord{Payment: pay(int64(i+1), first, core.PaymentPaid)})
		court = append(court, core.CourtExpense{Amount: core.Money{Cents: int64(1000 * (i + 1))}, DueDate: first})
		extra = append(extra, core.ExtraExpense{Amount: core.Money{Cents: 250}, Date: first, Description: "net"})
		income = append(income, core.AdditionalIncome{Amount: core.Money{Cents: 777}, Date: first, Description: "raffle"})
	}

	for _, b := range Summarize(months, payments, court, extra, income) {
		if b.Balance != b.Revenue.Sub(b.Expenses) {
			t.Errorf("bucket %v: balance %d != revenue %d - expenses %d", b.Key, b.Balance.Cents, b.Revenue.Cents, b.Expenses.Cents)
		}
	}
}

func TestSummarizeDropsOutOfWindowRows(t *testing.T) {
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 3) // apr, may, jun

	outOfWindow := []store.PaymentRecord{
		{Payment: pay(1, core.NewDate(2024, time.March, 1), core.PaymentPaid)},
		{Payment: pay(1, core.NewDate(2024, time.July, 1), core.PaymentPaid)},
	}
	income := []core.AdditionalIncome{
		{Amount: core.Money{Cents: 100}, Date: core.NewDate(2023, time.May, 1), Description: "old"},
	}

	for _, b := range Summarize(months, outOfWindow, nil, nil, income) {
		if b.Revenue.Cents != 0 {
			t.Errorf("bucket %v picked up an out-of-window row", b.Key)
		}
	}
}

func TestSummarizeSameMonthNameDifferentYears(t *testing.T) {
	// May 2023 and May 2024 must land in different buckets.
	ref := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 13)

	payments := []store.PaymentRecord{
		{Payment: pay(1, core.NewDate(2023, time.May, 1), core.PaymentPaid)},
		{Payment: pay(2, core.NewDate(2024, time.May, 1), core.PaymentPaid)},
	}

	buckets := Summarize(months, payments, nil, nil, nil)
	if buckets[0].Revenue.Cents != 10000 {
		t.Errorf("2023-05 bucket revenue = %d", buckets[0].Revenue.Cents)
	}
	if buckets[12].Revenue.Cents != 10000 {
		t.Errorf("2024-05 bucket revenue = %d", buckets[12].Revenue.Cents)
	}
}

func TestSummarizeStatusSubtotalsAndStudentCounts(t *testing.T) {
	ref := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 1)
	march := core.NewDate(2024, time.March, 1)

	payments := []store.PaymentRecord{
		{Payment: pay(1, march, core.PaymentPaid)},
		{Payment: pay(2, march, core.PaymentPending)},
		{Payment: pay(3, march, core.PaymentOverdue)},
		{Payment: pay(3, march, core.PaymentOverdue)}, // same student twice
	}

	b := Summarize(months, payments, nil, nil, nil)[0]
	if b.Paid.Cents != 10000 || b.Pending.Cents != 10000 || b.Overdue.Cents != 20000 {
		t.Errorf("subtotals = paid %d pending %d overdue %d", b.Paid.Cents, b.Pending.Cents, b.Overdue.Cents)
	}
	if b.StudentsPaid != 1 {
		t.Errorf("StudentsPaid = %d", b.StudentsPaid)
	}
	if b.StudentsUnpaid != 2 {
		t.Errorf("StudentsUnpaid = %d, distinct count expected", b.StudentsUnpaid)
	}
	// pending payments do not count as revenue
	if b.Revenue.Cents != 10000 {
		t.Errorf("Revenue = %d", b.Revenue.Cents)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	ref := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	months := core.TrailingMonths(ref, 6)
	march := core.NewDate(2024, time.March, 1)

	payments := []store.PaymentRecord{
		{Payment: pay(1, march, core.PaymentPaid)},
		{Payment: pay(2, march, core.PaymentPending)},
	}
	court := []core.CourtExpense{{Amount: core.Money{Cents: 4000}, DueDate: march}}

	first := Summarize(months, payments, court, nil, nil)
	second := Summarize(months, payments, court, nil, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same snapshot differ:\n%+v\n%+v", first, second)
	}
}

func TestSumBuckets(t *testing.T) {
	buckets := []MonthBucket{
		{Revenue: core.Money{Cents: 100}, Expenses: core.Money{Cents: 30}},
		{Revenue: core.Money{Cents: 50}, Expenses: core.Money{Cents: 80}},
	}
	got := SumBuckets(buckets)
	if got.Revenue.Cents != 150 || got.Expenses.Cents != 110 || got.Balance.Cents != 40 {
		t.Errorf("SumBuckets = %+v", got)
	}
}
