package core

import "time"

// DefaultFXRate converts the dollar portion of a card payment into pesos
// when synthesizing the linked expense. Fixed by policy, overridable via
// configuration.
const DefaultFXRate = 40.0

// Linked-expense constants per the card-payment rule.
const (
	LinkedExpenseStore    = "credit card payment"
	LinkedExpenseCategory = "Other"
)

// CreditTotals are the reduced amounts over a filtered set of entries.
//
// TotalPendingPesos and TotalPendingDollars carry the values of the first
// matching entry in stored order, not a min or max over the window. That is
// the documented behavior of the running system; whether it should be
// keyed by date instead is an open product question, so it is reproduced
// here unchanged.
type CreditTotals struct {
	TotalPendingPesos   float64 `json:"totalPendingPesos"`
	TotalPendingDollars float64 `json:"totalPendingDollars"`
	TotalPayedPesos     float64 `json:"totalPayedPesos"`
	TotalPayedDollars   float64 `json:"totalPayedDollars"`
}

// CreditMonthlySummary is the payload of the monthly credit-card summary.
type CreditMonthlySummary struct {
	FilteredPayments []CreditCardEntry `json:"filteredPayments"`
	Summary          CreditTotals      `json:"summary"`
}

// ValidateCreditEntryInput checks the fields a new entry must carry.
// Pending amounts are required; payed amounts default to zero upstream.
func ValidateCreditEntryInput(paymentDate string, pendingPesos, pendingDollars *float64) error {
	if paymentDate == "" {
		return MissingField("paymentDate")
	}
	if _, err := ParseDate(paymentDate); err != nil {
		return &ValidationError{Field: "paymentDate", Reason: "invalid date format"}
	}
	if pendingPesos == nil {
		return MissingField("pendingAmountPesos")
	}
	if pendingDollars == nil {
		return MissingField("pendingAmountDollars")
	}
	return nil
}

// LinkedExpense builds the expense synthesized by a card payment:
// payed pesos plus payed dollars at the given FX rate, recorded as a debit
// against the "Other" category on the entry's payment date. Fire-once at
// creation time; later updates to the entry do not touch this expense.
func LinkedExpense(entry CreditCardEntry, fxRate float64) Expense {
	return Expense{
		Amount:        CoerceAmount(entry.PayedAmountPesos) + CoerceAmount(entry.PayedAmountDollars)*fxRate,
		Store:         LinkedExpenseStore,
		PaymentType:   PaymentDebit,
		Date:          entry.PaymentDate,
		Category:      LinkedExpenseCategory,
		SourceEntryID: entry.ID,
	}
}

// SummarizeCreditEntries filters entries by paymentDate in [from, to]
// inclusive and reduces them to totals. Pure function; parameter presence is
// validated by the caller.
func SummarizeCreditEntries(entries []CreditCardEntry, from, to time.Time) CreditMonthlySummary {
	out := CreditMonthlySummary{FilteredPayments: []CreditCardEntry{}}
	for _, entry := range entries {
		if !inRange(entry.PaymentDate, from, to) {
			continue
		}
		if len(out.FilteredPayments) == 0 {
			out.Summary.TotalPendingPesos = entry.PendingAmountPesos
			out.Summary.TotalPendingDollars = entry.PendingAmountDollars
		}
		out.Summary.TotalPayedPesos += CoerceAmount(entry.PayedAmountPesos)
		out.Summary.TotalPayedDollars += CoerceAmount(entry.PayedAmountDollars)
		out.FilteredPayments = append(out.FilteredPayments, entry)
	}
	return out
}
