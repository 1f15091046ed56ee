package services

import (
	"context"
	"fmt"

	"finanzas/internal/backend"
	"finanzas/internal/core"
)

// CreditPaymentInput carries a raw credit card payment request. Pending
// amounts are pointers so missing fields can be told apart from zero.
type CreditPaymentInput struct {
	PaymentDate          string
	PendingAmountPesos   *float64
	PendingAmountDollars *float64
	PayedAmountPesos     *float64
	PayedAmountDollars   *float64
	Observations         string
}

// CreditService records credit card payments together with the debit
// expense that mirrors them in the expense history.
type CreditService struct {
	store  backend.Store
	fxRate float64
}

func NewCreditService(store backend.Store, fxRate float64) *CreditService {
	if fxRate <= 0 {
		fxRate = core.DefaultFXRate
	}
	return &CreditService{
		store:  store,
		fxRate: fxRate,
	}
}

// RecordPayment validates the input and persists the entry plus its
// linked expense as one unit. Missing payed amounts count as zero.
func (s *CreditService) RecordPayment(ctx context.Context, input CreditPaymentInput) (core.CreditCardEntry, error) {
	if err := core.ValidateCreditEntryInput(input.PaymentDate, input.PendingAmountPesos, input.PendingAmountDollars); err != nil {
		return core.CreditCardEntry{}, err
	}

	entry := core.CreditCardEntry{
		PaymentDate:          input.PaymentDate,
		PendingAmountPesos:   core.CoerceAmount(*input.PendingAmountPesos),
		PendingAmountDollars: core.CoerceAmount(*input.PendingAmountDollars),
		PayedAmountPesos:     core.CoerceAmount(deref(input.PayedAmountPesos)),
		PayedAmountDollars:   core.CoerceAmount(deref(input.PayedAmountDollars)),
		Observations:         input.Observations,
	}

	persisted, err := s.store.AppendCreditEntryWithExpense(ctx, entry, core.LinkedExpense(entry, s.fxRate))
	if err != nil {
		return core.CreditCardEntry{}, fmt.Errorf("record credit payment: %w", err)
	}

	return persisted, nil
}

// MonthlySummary aggregates entries whose payment date falls in the window
func (s *CreditService) MonthlySummary(ctx context.Context, from, to string) (core.CreditMonthlySummary, error) {
	if from == "" {
		return core.CreditMonthlySummary{}, core.MissingField("fromDate")
	}
	if to == "" {
		return core.CreditMonthlySummary{}, core.MissingField("toDate")
	}
	fromTime, err := core.ParseDate(from)
	if err != nil {
		return core.CreditMonthlySummary{}, &core.ValidationError{Field: "fromDate", Reason: "invalid date format"}
	}
	toTime, err := core.ParseDate(to)
	if err != nil {
		return core.CreditMonthlySummary{}, &core.ValidationError{Field: "toDate", Reason: "invalid date format"}
	}

	entries, err := s.store.ListCreditEntries(ctx)
	if err != nil {
		return core.CreditMonthlySummary{}, fmt.Errorf("list credit entries: %w", err)
	}

	return core.SummarizeCreditEntries(entries, fromTime, toTime), nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
