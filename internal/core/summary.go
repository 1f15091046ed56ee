package core

import "time"

// NameValue is one grouped total, emitted in first-seen order.
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Summary aggregates expenses and incomes over a date window.
type Summary struct {
	TotalExpenses   float64     `json:"totalExpenses"`
	TotalIncomes    float64     `json:"totalIncomes"`
	ByCategory      []NameValue `json:"byCategory"`
	ByPaymentType   []NameValue `json:"byPaymentType"`
	IncomesBySource []NameValue `json:"incomesBySource"`
}

// DefaultPaymentTypeLabels maps internal payment-type codes to the display
// labels the dashboard groups by. Passed as configuration rather than kept
// as mutable package state.
var DefaultPaymentTypeLabels = map[PaymentType]string{
	PaymentCash:   "Efectivo",
	PaymentDebit:  "Debito",
	PaymentCredit: "Credito",
}

const (
	labelUnknown            = "Unknown"
	labelMissingPaymentType = "Other"
	labelUntranslated       = "Otro"
)

// grouping accumulates sums keyed by label, remembering insertion order.
type grouping struct {
	order  []string
	totals map[string]float64
}

func newGrouping() *grouping {
	return &grouping{totals: make(map[string]float64)}
}

func (g *grouping) add(label string, amount float64) {
	if _, seen := g.totals[label]; !seen {
		g.order = append(g.order, label)
	}
	g.totals[label] += amount
}

func (g *grouping) pairs() []NameValue {
	out := make([]NameValue, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, NameValue{Name: name, Value: g.totals[name]})
	}
	return out
}

// InDateRange reports whether the record's date falls within [from, to]
// inclusive. Records whose date does not parse are excluded. A zero from
// means "since epoch"; a zero to means "up to now".
func InDateRange(date string, from, to time.Time) bool {
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	if to.IsZero() {
		to = time.Now()
	}
	return inRange(date, from, to)
}

func inRange(date string, from, to time.Time) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	return !t.Before(from) && !t.After(to)
}

// Summarize computes totals and groupings over the records whose date falls
// within [from, to] inclusive, using the default payment-type labels. A zero
// from means "since epoch"; a zero to means "up to now". Pure and
// deterministic given its inputs.
func Summarize(expenses []Expense, incomes []Income, from, to time.Time) Summary {
	return SummarizeWithLabels(expenses, incomes, from, to, DefaultPaymentTypeLabels)
}

// SummarizeWithLabels is Summarize with an explicit payment-type translation
// table. Codes missing from the table group under "Otro"; records without a
// payment type group under "Other".
func SummarizeWithLabels(expenses []Expense, incomes []Income, from, to time.Time, labels map[PaymentType]string) Summary {
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}
	if to.IsZero() {
		to = time.Now()
	}

	var s Summary
	byCategory := newGrouping()
	byPaymentType := newGrouping()
	bySource := newGrouping()

	for _, e := range expenses {
		if !inRange(e.Date, from, to) {
			continue
		}
		amount := CoerceAmount(e.Amount)
		s.TotalExpenses += amount

		category := e.Category
		if category == "" {
			category = labelUnknown
		}
		byCategory.add(category, amount)
		byPaymentType.add(paymentTypeLabel(e.PaymentType, labels), amount)
	}

	for _, in := range incomes {
		if !inRange(in.Date, from, to) {
			continue
		}
		amount := CoerceAmount(in.Amount)
		s.TotalIncomes += amount

		source := in.Source
		if source == "" {
			source = labelUnknown
		}
		bySource.add(source, amount)
	}

	s.ByCategory = byCategory.pairs()
	s.ByPaymentType = byPaymentType.pairs()
	s.IncomesBySource = bySource.pairs()
	return s
}

func paymentTypeLabel(pt PaymentType, labels map[PaymentType]string) string {
	if pt == "" {
		return labelMissingPaymentType
	}
	if label, ok := labels[pt]; ok {
		return label
	}
	return labelUntranslated
}
