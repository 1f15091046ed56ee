// Package jsonstore persists each record collection as one JSON array file
// under a data directory, mirroring the layout the tracker has always used
// (expenses.json, incomes.json, ...). Every read-modify-write sequence runs
// under a per-collection mutex so concurrent requests cannot lose updates.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

// collection is one entity's records plus the file that backs them.
type collection[T any] struct {
	mu      sync.Mutex
	path    string
	records []T
}

func openCollection[T any](path string) (*collection[T], error) {
	c := &collection[T]{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}

// persist writes the records to a temp file and renames it into place so a
// crash mid-write never truncates the collection.
func (c *collection[T]) persist() error {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (c *collection[T]) list() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

func (c *collection[T]) append(record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	if err := c.persist(); err != nil {
		c.records = c.records[:len(c.records)-1]
		return err
	}
	return nil
}

// replace swaps the first record matching the predicate using apply.
// Returns core.ErrNotFound when nothing matches.
func (c *collection[T]) replace(match func(T) bool, apply func(T) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	for i, record := range c.records {
		if !match(record) {
			continue
		}
		updated := apply(record)
		c.records[i] = updated
		if err := c.persist(); err != nil {
			c.records[i] = record
			return zero, err
		}
		return updated, nil
	}
	return zero, core.ErrNotFound
}

// remove deletes the first record matching the predicate and returns it.
func (c *collection[T]) remove(match func(T) bool) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	for i, record := range c.records {
		if !match(record) {
			continue
		}
		removed := record
		c.records = append(c.records[:i], c.records[i+1:]...)
		if err := c.persist(); err != nil {
			c.records = append(c.records[:i], append([]T{removed}, c.records[i:]...)...)
			return zero, err
		}
		return removed, nil
	}
	return zero, core.ErrNotFound
}

// Store is the flat-file record store for all entity collections.
type Store struct {
	dir        string
	expenses   *collection[core.Expense]
	incomes    *collection[core.Income]
	categories *collection[core.Category]
	alerts     *collection[core.Alert]
	credit     *collection[core.CreditCardEntry]
}

// Open loads (or initializes) the collections under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	expenses, err := openCollection[core.Expense](filepath.Join(dir, "expenses.json"))
	if err != nil {
		return nil, err
	}
	incomes, err := openCollection[core.Income](filepath.Join(dir, "incomes.json"))
	if err != nil {
		return nil, err
	}
	categories, err := openCollection[core.Category](filepath.Join(dir, "categories.json"))
	if err != nil {
		return nil, err
	}
	alerts, err := openCollection[core.Alert](filepath.Join(dir, "alerts.json"))
	if err != nil {
		return nil, err
	}
	credit, err := openCollection[core.CreditCardEntry](filepath.Join(dir, "credit-card.json"))
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:        dir,
		expenses:   expenses,
		incomes:    incomes,
		categories: categories,
		alerts:     alerts,
		credit:     credit,
	}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	return s.expenses.list(), nil
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := s.expenses.append(e); err != nil {
		return core.Expense{}, &core.StoreError{Op: "append expense", Err: err}
	}
	return e, nil
}

func (s *Store) ReplaceExpense(_ context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	updated, err := s.expenses.replace(
		func(e core.Expense) bool { return e.ID == id },
		patch.Apply,
	)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, &core.StoreError{Op: "replace expense", Err: err}
	}
	return updated, err
}

func (s *Store) RemoveExpense(_ context.Context, id string) (core.Expense, error) {
	removed, err := s.expenses.remove(func(e core.Expense) bool { return e.ID == id })
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, &core.StoreError{Op: "remove expense", Err: err}
	}
	return removed, err
}

func (s *Store) ListIncomes(_ context.Context) ([]core.Income, error) {
	return s.incomes.list(), nil
}

func (s *Store) AppendIncome(_ context.Context, in core.Income) (core.Income, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if err := s.incomes.append(in); err != nil {
		return core.Income{}, &core.StoreError{Op: "append income", Err: err}
	}
	return in, nil
}

func (s *Store) ReplaceIncome(_ context.Context, id string, patch core.IncomePatch) (core.Income, error) {
	updated, err := s.incomes.replace(
		func(in core.Income) bool { return in.ID == id },
		patch.Apply,
	)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Income{}, &core.StoreError{Op: "replace income", Err: err}
	}
	return updated, err
}

func (s *Store) RemoveIncome(_ context.Context, id string) (core.Income, error) {
	removed, err := s.incomes.remove(func(in core.Income) bool { return in.ID == id })
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Income{}, &core.StoreError{Op: "remove income", Err: err}
	}
	return removed, err
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	return s.categories.list(), nil
}

func (s *Store) AppendCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()

	var maxID int64
	for _, existing := range s.categories.records {
		if existing.Name == c.Name {
			return core.Category{}, &core.ValidationError{Field: "name", Reason: "category already exists"}
		}
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	if c.ID == 0 {
		c.ID = maxID + 1
	}
	s.categories.records = append(s.categories.records, c)
	if err := s.categories.persist(); err != nil {
		s.categories.records = s.categories.records[:len(s.categories.records)-1]
		return core.Category{}, &core.StoreError{Op: "append category", Err: err}
	}
	return c, nil
}

func (s *Store) ListAlerts(_ context.Context) ([]core.Alert, error) {
	return s.alerts.list(), nil
}

func (s *Store) AppendAlert(_ context.Context, a core.Alert) (core.Alert, error) {
	s.alerts.mu.Lock()
	defer s.alerts.mu.Unlock()

	if a.ID == 0 {
		var maxID int64
		for _, existing := range s.alerts.records {
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		a.ID = maxID + 1
	}
	s.alerts.records = append(s.alerts.records, a)
	if err := s.alerts.persist(); err != nil {
		s.alerts.records = s.alerts.records[:len(s.alerts.records)-1]
		return core.Alert{}, &core.StoreError{Op: "append alert", Err: err}
	}
	return a, nil
}

func (s *Store) ReplaceAlert(_ context.Context, id int64, patch core.AlertPatch) (core.Alert, error) {
	updated, err := s.alerts.replace(
		func(a core.Alert) bool { return a.ID == id },
		patch.Apply,
	)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Alert{}, &core.StoreError{Op: "replace alert", Err: err}
	}
	return updated, err
}

func (s *Store) RemoveAlert(_ context.Context, id int64) (core.Alert, error) {
	removed, err := s.alerts.remove(func(a core.Alert) bool { return a.ID == id })
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Alert{}, &core.StoreError{Op: "remove alert", Err: err}
	}
	return removed, err
}

func (s *Store) ListCreditEntries(_ context.Context) ([]core.CreditCardEntry, error) {
	return s.credit.list(), nil
}

// AppendCreditEntryWithExpense persists the entry and its linked expense.
// The entry lands first; if the expense write then fails, the entry write is
// compensated away. Only when that compensation also fails does the caller
// see ErrPartialLinkage, meaning the entry is durable without its expense.
func (s *Store) AppendCreditEntryWithExpense(ctx context.Context, entry core.CreditCardEntry, linked core.Expense) (core.CreditCardEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if linked.ID == "" {
		linked.ID = uuid.NewString()
	}
	linked.SourceEntryID = entry.ID

	if err := s.credit.append(entry); err != nil {
		return core.CreditCardEntry{}, &core.StoreError{Op: "append credit entry", Err: err}
	}

	if err := s.expenses.append(linked); err != nil {
		if _, rbErr := s.credit.remove(func(e core.CreditCardEntry) bool { return e.ID == entry.ID }); rbErr != nil {
			slog.ErrorContext(ctx, "Linked expense write failed and entry rollback failed",
				"entry_id", entry.ID, "expense_error", err, "rollback_error", rbErr)
			return entry, fmt.Errorf("%w: %v", core.ErrPartialLinkage, err)
		}
		return core.CreditCardEntry{}, &core.StoreError{Op: "append linked expense", Err: err}
	}
	return entry, nil
}

func (s *Store) ReplaceCreditEntry(_ context.Context, id string, patch core.CreditCardEntryPatch) (core.CreditCardEntry, error) {
	updated, err := s.credit.replace(
		func(e core.CreditCardEntry) bool { return e.ID == id },
		patch.Apply,
	)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.CreditCardEntry{}, &core.StoreError{Op: "replace credit entry", Err: err}
	}
	return updated, err
}

func (s *Store) RemoveCreditEntry(_ context.Context, id string) (core.CreditCardEntry, error) {
	removed, err := s.credit.remove(func(e core.CreditCardEntry) bool { return e.ID == id })
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.CreditCardEntry{}, &core.StoreError{Op: "remove credit entry", Err: err}
	}
	return removed, err
}
