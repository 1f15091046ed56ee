package core

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeScenario(t *testing.T) {
	expenses := []Expense{
		{Amount: 1200, Category: "Food", PaymentType: PaymentCash, Date: "2024-01-10", Store: "market"},
	}
	incomes := []Income{
		{Amount: 5000, Source: "Sueldo", Date: "2024-01-15", Description: "salary"},
	}

	s := Summarize(expenses, incomes, date(2024, 1, 1), date(2024, 1, 31))

	if s.TotalIncomes != 5000 {
		t.Fatalf("totalIncomes = %v, want 5000", s.TotalIncomes)
	}
	if s.TotalExpenses != 1200 {
		t.Fatalf("totalExpenses = %v, want 1200", s.TotalExpenses)
	}
	wantCat := []NameValue{{Name: "Food", Value: 1200}}
	if !reflect.DeepEqual(s.ByCategory, wantCat) {
		t.Fatalf("byCategory = %v, want %v", s.ByCategory, wantCat)
	}
	wantPay := []NameValue{{Name: "Efectivo", Value: 1200}}
	if !reflect.DeepEqual(s.ByPaymentType, wantPay) {
		t.Fatalf("byPaymentType = %v, want %v", s.ByPaymentType, wantPay)
	}
	wantSrc := []NameValue{{Name: "Sueldo", Value: 5000}}
	if !reflect.DeepEqual(s.IncomesBySource, wantSrc) {
		t.Fatalf("incomesBySource = %v, want %v", s.IncomesBySource, wantSrc)
	}
}

func TestSummarizeDateFiltering(t *testing.T) {
	expenses := []Expense{
		{Amount: 10, Date: "2024-01-01", Category: "a"}, // on from boundary
		{Amount: 20, Date: "2024-01-31", Category: "a"}, // on to boundary
		{Amount: 40, Date: "2024-02-01", Category: "a"}, // outside
		{Amount: 80, Date: "not-a-date", Category: "a"}, // unparseable, skipped
		{Amount: 160, Date: "", Category: "a"},          // empty, skipped
	}

	s := Summarize(expenses, nil, date(2024, 1, 1), date(2024, 1, 31))
	if s.TotalExpenses != 30 {
		t.Fatalf("totalExpenses = %v, want 30", s.TotalExpenses)
	}
}

func TestSummarizeGroupingSumsMatchTotals(t *testing.T) {
	expenses := []Expense{
		{Amount: 100, Date: "2024-03-01", Category: "Food", PaymentType: PaymentCash},
		{Amount: 50, Date: "2024-03-02", Category: "", PaymentType: PaymentDebit},
		{Amount: 25.5, Date: "2024-03-03", Category: "Food", PaymentType: "voucher"},
		{Amount: 4.5, Date: "2024-03-04", Category: "Transport"},
	}
	incomes := []Income{
		{Amount: 300, Date: "2024-03-05", Source: "Sueldo"},
		{Amount: 200, Date: "2024-03-06", Source: ""},
		{Amount: 100, Date: "2024-03-07", Source: "Otros"},
	}

	s := Summarize(expenses, incomes, date(2024, 3, 1), date(2024, 3, 31))

	sum := func(pairs []NameValue) float64 {
		var total float64
		for _, p := range pairs {
			total += p.Value
		}
		return total
	}
	if got := sum(s.ByCategory); got != s.TotalExpenses {
		t.Fatalf("byCategory sums to %v, total is %v", got, s.TotalExpenses)
	}
	if got := sum(s.ByPaymentType); got != s.TotalExpenses {
		t.Fatalf("byPaymentType sums to %v, total is %v", got, s.TotalExpenses)
	}
	if got := sum(s.IncomesBySource); got != s.TotalIncomes {
		t.Fatalf("incomesBySource sums to %v, total is %v", got, s.TotalIncomes)
	}
}

func TestSummarizeGroupingLabels(t *testing.T) {
	expenses := []Expense{
		{Amount: 1, Date: "2024-01-01", Category: "", PaymentType: ""},
		{Amount: 2, Date: "2024-01-02", Category: "Food", PaymentType: PaymentCredit},
		{Amount: 4, Date: "2024-01-03", Category: "Food", PaymentType: "wire"},
	}

	s := Summarize(expenses, nil, date(2024, 1, 1), date(2024, 1, 31))

	wantCat := []NameValue{{Name: "Unknown", Value: 1}, {Name: "Food", Value: 6}}
	if !reflect.DeepEqual(s.ByCategory, wantCat) {
		t.Fatalf("byCategory = %v, want %v", s.ByCategory, wantCat)
	}
	wantPay := []NameValue{
		{Name: "Other", Value: 1},   // missing payment type
		{Name: "Credito", Value: 2}, // translated
		{Name: "Otro", Value: 4},    // untranslated code
	}
	if !reflect.DeepEqual(s.ByPaymentType, wantPay) {
		t.Fatalf("byPaymentType = %v, want %v", s.ByPaymentType, wantPay)
	}
}

func TestSummarizeInsertionOrder(t *testing.T) {
	expenses := []Expense{
		{Amount: 1, Date: "2024-01-05", Category: "Zoo"},
		{Amount: 1, Date: "2024-01-01", Category: "Apples"},
		{Amount: 1, Date: "2024-01-03", Category: "Zoo"},
	}

	s := Summarize(expenses, nil, date(2024, 1, 1), date(2024, 1, 31))
	if len(s.ByCategory) != 2 || s.ByCategory[0].Name != "Zoo" || s.ByCategory[1].Name != "Apples" {
		t.Fatalf("expected first-seen order [Zoo Apples], got %v", s.ByCategory)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	expenses := []Expense{
		{Amount: 3, Date: "2024-01-01", Category: "a", PaymentType: PaymentCash},
		{Amount: 7, Date: "2024-01-02", Category: "b", PaymentType: PaymentDebit},
	}
	incomes := []Income{{Amount: 11, Date: "2024-01-03", Source: "Otros"}}

	first := Summarize(expenses, incomes, date(2024, 1, 1), date(2024, 1, 31))
	second := Summarize(expenses, incomes, date(2024, 1, 1), date(2024, 1, 31))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summarize is not idempotent: %v vs %v", first, second)
	}
}

func TestSummarizeDefaultsToEpochAndNow(t *testing.T) {
	expenses := []Expense{
		{Amount: 5, Date: "1971-06-01", Category: "old"},
		{Amount: 9, Date: "2024-01-01", Category: "recent"},
	}

	s := Summarize(expenses, nil, time.Time{}, time.Time{})
	if s.TotalExpenses != 14 {
		t.Fatalf("totalExpenses = %v, want 14 (all records up to now)", s.TotalExpenses)
	}
}

func TestSummarizeCoercesBadAmounts(t *testing.T) {
	expenses := []Expense{
		{Amount: math.NaN(), Date: "2024-01-01", Category: "a"},
		{Amount: math.Inf(1), Date: "2024-01-02", Category: "a"},
		{Amount: 12, Date: "2024-01-03", Category: "a"},
	}

	s := Summarize(expenses, nil, date(2024, 1, 1), date(2024, 1, 31))
	if s.TotalExpenses != 12 {
		t.Fatalf("totalExpenses = %v, want 12", s.TotalExpenses)
	}
}
