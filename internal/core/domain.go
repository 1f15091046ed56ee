package core

import (
	"math"
	"strings"
	"time"
)

const (
	PaymentCash   PaymentType = "cash"
	PaymentDebit  PaymentType = "debit"
	PaymentCredit PaymentType = "credit"
)

const (
	AlertCategory AlertType = "category"
	AlertGeneral  AlertType = "general"
)

// Income sources accepted on write. Free-form sources already present in the
// store are tolerated on read.
const (
	SourceSalary IncomeSource = "Sueldo"
	SourceOther  IncomeSource = "Otros"
)

type (
	PaymentType  string
	AlertType    string
	IncomeSource string

	// Expense is a single recorded outgoing. Dates travel as ISO-8601
	// strings; records with dates the aggregation cannot parse are skipped,
	// never rejected.
	Expense struct {
		ID          string      `json:"id"`
		Amount      float64     `json:"amount"`
		Store       string      `json:"store"`
		PaymentType PaymentType `json:"paymentType"`
		Date        string      `json:"date"`
		Category    string      `json:"category"`
		// SourceEntryID links an expense synthesized by a credit-card
		// payment back to its originating entry.
		SourceEntryID string `json:"sourceCreditCardEntryId,omitempty"`
	}

	Income struct {
		ID          string  `json:"id"`
		Amount      float64 `json:"amount"`
		Source      string  `json:"source"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
	}

	// CreditCardEntry is one payment-cycle record for the credit card.
	CreditCardEntry struct {
		ID                   string  `json:"id"`
		PaymentDate          string  `json:"paymentDate"`
		PendingAmountPesos   float64 `json:"pendingAmountPesos"`
		PendingAmountDollars float64 `json:"pendingAmountDollars"`
		PayedAmountPesos     float64 `json:"payedAmountPesos"`
		PayedAmountDollars   float64 `json:"payedAmountDollars"`
		Observations         string  `json:"observations"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// Alert is a spending limit. CategoryID absent means the alert watches
	// total spend across all categories.
	Alert struct {
		ID          int64     `json:"id"`
		CategoryID  *int64    `json:"categoryId,omitempty"`
		LimitAmount float64   `json:"limitAmount"`
		Type        AlertType `json:"type"`
	}
)

// Patch types carry partial updates; nil fields are left untouched.
type (
	ExpensePatch struct {
		Amount      *float64     `json:"amount"`
		Store       *string      `json:"store"`
		PaymentType *PaymentType `json:"paymentType"`
		Date        *string      `json:"date"`
		Category    *string      `json:"category"`
	}

	IncomePatch struct {
		Amount      *float64 `json:"amount"`
		Source      *string  `json:"source"`
		Date        *string  `json:"date"`
		Description *string  `json:"description"`
	}

	CreditCardEntryPatch struct {
		PaymentDate          *string  `json:"paymentDate"`
		PendingAmountPesos   *float64 `json:"pendingAmountPesos"`
		PendingAmountDollars *float64 `json:"pendingAmountDollars"`
		PayedAmountPesos     *float64 `json:"payedAmountPesos"`
		PayedAmountDollars   *float64 `json:"payedAmountDollars"`
		Observations         *string  `json:"observations"`
	}

	AlertPatch struct {
		CategoryID  *int64     `json:"categoryId"`
		LimitAmount *float64   `json:"limitAmount"`
		Type        *AlertType `json:"type"`
	}
)

// IsValid reports whether pt is one of the accepted payment types.
func (pt PaymentType) IsValid() bool {
	switch pt {
	case PaymentCash, PaymentDebit, PaymentCredit:
		return true
	}
	return false
}

func (at AlertType) IsValid() bool {
	return at == AlertCategory || at == AlertGeneral
}

// ParseDate parses a date from its wire form. Plain dates and full RFC 3339
// timestamps are both accepted, matching what clients historically sent.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CoerceAmount maps NaN and infinities to 0 so one malformed record cannot
// poison a whole aggregation.
func CoerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (e Expense) Validate() error {
	if e.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if strings.TrimSpace(e.Store) == "" {
		return MissingField("store")
	}
	if !e.PaymentType.IsValid() {
		return &ValidationError{Field: "paymentType", Reason: "must be one of cash, debit, credit"}
	}
	if e.Date != "" {
		if _, err := ParseDate(e.Date); err != nil {
			return &ValidationError{Field: "date", Reason: "invalid date format"}
		}
	}
	return nil
}

func (in Income) Validate() error {
	if in.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return MissingField("description")
	}
	switch IncomeSource(in.Source) {
	case SourceSalary, SourceOther:
	default:
		return &ValidationError{Field: "source", Reason: `must be either "Sueldo" or "Otros"`}
	}
	if in.Date != "" {
		if _, err := ParseDate(in.Date); err != nil {
			return &ValidationError{Field: "date", Reason: "invalid date format"}
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return MissingField("name")
	}
	return nil
}

func (a Alert) Validate() error {
	if a.LimitAmount < 0 {
		return &ValidationError{Field: "limitAmount", Reason: "must not be negative"}
	}
	if !a.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: "must be either category or general"}
	}
	if a.Type == AlertCategory && a.CategoryID == nil {
		return MissingField("categoryId")
	}
	return nil
}

// Apply merges non-nil patch fields into the expense.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Store != nil {
		e.Store = *p.Store
	}
	if p.PaymentType != nil {
		e.PaymentType = *p.PaymentType
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

func (p IncomePatch) Apply(in Income) Income {
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Source != nil {
		in.Source = *p.Source
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in
}

func (p CreditCardEntryPatch) Apply(e CreditCardEntry) CreditCardEntry {
	if p.PaymentDate != nil {
		e.PaymentDate = *p.PaymentDate
	}
	if p.PendingAmountPesos != nil {
		e.PendingAmountPesos = *p.PendingAmountPesos
	}
	if p.PendingAmountDollars != nil {
		e.PendingAmountDollars = *p.PendingAmountDollars
	}
	if p.PayedAmountPesos != nil {
		e.PayedAmountPesos = *p.PayedAmountPesos
	}
	if p.PayedAmountDollars != nil {
		e.PayedAmountDollars = *p.PayedAmountDollars
	}
	if p.Observations != nil {
		e.Observations = *p.Observations
	}
	return e
}

func (p AlertPatch) Apply(a Alert) Alert {
	if p.CategoryID != nil {
		a.CategoryID = p.CategoryID
	}
	if p.LimitAmount != nil {
		a.LimitAmount = *p.LimitAmount
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	return a
}
