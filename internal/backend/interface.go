package backend

import (
	"context"

	"finanzas/internal/core"
)

// ExpenseStore is the record-store contract for expenses.
// Append assigns an id when the record carries none; Replace and Remove fail
// with core.ErrNotFound when the id is absent.
type ExpenseStore interface {
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	AppendExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ReplaceExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error)
	RemoveExpense(ctx context.Context, id string) (core.Expense, error)
}

type IncomeStore interface {
	ListIncomes(ctx context.Context) ([]core.Income, error)
	AppendIncome(ctx context.Context, in core.Income) (core.Income, error)
	ReplaceIncome(ctx context.Context, id string, patch core.IncomePatch) (core.Income, error)
	RemoveIncome(ctx context.Context, id string) (core.Income, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	AppendCategory(ctx context.Context, c core.Category) (core.Category, error)
}

type AlertStore interface {
	ListAlerts(ctx context.Context) ([]core.Alert, error)
	AppendAlert(ctx context.Context, a core.Alert) (core.Alert, error)
	ReplaceAlert(ctx context.Context, id int64, patch core.AlertPatch) (core.Alert, error)
	RemoveAlert(ctx context.Context, id int64) (core.Alert, error)
}

// CreditStore manages credit-card entries. New entries are only created
// through AppendCreditEntryWithExpense, which must persist the entry and its
// linked expense atomically: either both land, or the failure surfaces as
// core.ErrPartialLinkage when the entry alone became durable.
type CreditStore interface {
	ListCreditEntries(ctx context.Context) ([]core.CreditCardEntry, error)
	AppendCreditEntryWithExpense(ctx context.Context, entry core.CreditCardEntry, linked core.Expense) (core.CreditCardEntry, error)
	ReplaceCreditEntry(ctx context.Context, id string, patch core.CreditCardEntryPatch) (core.CreditCardEntry, error)
	RemoveCreditEntry(ctx context.Context, id string) (core.CreditCardEntry, error)
}

// Store is the unified record store serving all entity collections.
type Store interface {
	ExpenseStore
	IncomeStore
	CategoryStore
	AlertStore
	CreditStore

	Close() error
}
