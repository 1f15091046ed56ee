package services

import (
	"context"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/jsonstore"
)

func newCreditService(t *testing.T) *CreditService {
	t.Helper()
	store, err := jsonstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewCreditService(store, 40)
}

func fptr(f float64) *float64 { return &f }

func TestRecordPaymentCreatesLinkedExpense(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(t)

	entry, err := svc.RecordPayment(ctx, CreditPaymentInput{
		PaymentDate:          "2024-06-10",
		PendingAmountPesos:   fptr(900),
		PendingAmountDollars: fptr(9),
		PayedAmountPesos:     fptr(1000),
		PayedAmountDollars:   fptr(10),
		Observations:         "june statement",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("entry must get an id")
	}
	if entry.Observations != "june statement" {
		t.Fatalf("observations lost: %+v", entry)
	}

	expenses, err := svc.store.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected one linked expense, got %d", len(expenses))
	}
	linked := expenses[0]
	if linked.Amount != 1400 {
		t.Errorf("linked amount = %v, want 1000 + 10*40 = 1400", linked.Amount)
	}
	if linked.PaymentType != core.PaymentDebit || linked.Store != core.LinkedExpenseStore || linked.Category != core.LinkedExpenseCategory {
		t.Errorf("unexpected linked expense: %+v", linked)
	}
	if linked.SourceEntryID != entry.ID {
		t.Errorf("linked expense must reference the entry, got %q", linked.SourceEntryID)
	}
}

func TestRecordPaymentDefaultsPayedToZero(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(t)

	entry, err := svc.RecordPayment(ctx, CreditPaymentInput{
		PaymentDate:          "2024-06-10",
		PendingAmountPesos:   fptr(500),
		PendingAmountDollars: fptr(0),
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if entry.PayedAmountPesos != 0 || entry.PayedAmountDollars != 0 {
		t.Fatalf("missing payed amounts must default to zero: %+v", entry)
	}

	expenses, _ := svc.store.ListExpenses(ctx)
	if len(expenses) != 1 || expenses[0].Amount != 0 {
		t.Fatalf("linked expense for zero payment must have amount 0: %+v", expenses)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(t)

	tests := []struct {
		name  string
		input CreditPaymentInput
	}{
		{"missing date", CreditPaymentInput{PendingAmountPesos: fptr(1), PendingAmountDollars: fptr(1)}},
		{"bad date", CreditPaymentInput{PaymentDate: "junk", PendingAmountPesos: fptr(1), PendingAmountDollars: fptr(1)}},
		{"missing pending pesos", CreditPaymentInput{PaymentDate: "2024-06-10", PendingAmountDollars: fptr(1)}},
		{"missing pending dollars", CreditPaymentInput{PaymentDate: "2024-06-10", PendingAmountPesos: fptr(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordPayment(ctx, tt.input); !core.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	entries, _ := svc.store.ListCreditEntries(ctx)
	if len(entries) != 0 {
		t.Fatalf("rejected payments must not persist, found %d entries", len(entries))
	}
}

func TestMonthlySummary(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(t)

	for _, in := range []CreditPaymentInput{
		{PaymentDate: "2024-06-05", PendingAmountPesos: fptr(900), PendingAmountDollars: fptr(9), PayedAmountPesos: fptr(100)},
		{PaymentDate: "2024-06-20", PendingAmountPesos: fptr(700), PendingAmountDollars: fptr(7), PayedAmountPesos: fptr(200)},
		{PaymentDate: "2024-07-01", PendingAmountPesos: fptr(1), PendingAmountDollars: fptr(1), PayedAmountPesos: fptr(999)},
	} {
		if _, err := svc.RecordPayment(ctx, in); err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}

	summary, err := svc.MonthlySummary(ctx, "2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if len(summary.FilteredPayments) != 2 {
		t.Fatalf("expected 2 filtered payments, got %d", len(summary.FilteredPayments))
	}
	if summary.Summary.TotalPayedPesos != 300 {
		t.Errorf("total payed pesos = %v, want 300", summary.Summary.TotalPayedPesos)
	}
	if summary.Summary.TotalPendingPesos != 900 || summary.Summary.TotalPendingDollars != 9 {
		t.Errorf("pending totals must come from the first matching entry: %+v", summary.Summary)
	}
}

func TestMonthlySummaryValidation(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(t)

	if _, err := svc.MonthlySummary(ctx, "", "2024-06-30"); !core.IsValidation(err) {
		t.Errorf("missing from must fail validation, got %v", err)
	}
	if _, err := svc.MonthlySummary(ctx, "2024-06-01", ""); !core.IsValidation(err) {
		t.Errorf("missing to must fail validation, got %v", err)
	}
	if _, err := svc.MonthlySummary(ctx, "not-a-date", "2024-06-30"); !core.IsValidation(err) {
		t.Errorf("bad from must fail validation, got %v", err)
	}
}
