package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finanzas/internal/core"
)

// SQLiteStore is the relational record store. A single writer connection
// serializes read-modify-write sequences; aggregation reads go through the
// same pool.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc.org/sqlite handles one writer at a time; a single pooled
	// connection closes the lost-update window between read and write.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func storeErr(op string, err error) error {
	return &core.StoreError{Op: op, Err: err}
}

func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, store, payment_type, date, category, source_credit_entry_id
		FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Store, &e.PaymentType, &e.Date, &e.Category, &e.SourceEntryID); err != nil {
			return nil, storeErr("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list expenses", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, store, payment_type, date, category, source_credit_entry_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount, e.Store, string(e.PaymentType), e.Date, e.Category, e.SourceEntryID)
	if err != nil {
		return core.Expense{}, storeErr("append expense", err)
	}
	slog.InfoContext(ctx, "Expense saved", "id", e.ID, "amount", e.Amount, "category", e.Category)
	return e, nil
}

func (s *SQLiteStore) ReplaceExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var e core.Expense
	err = tx.QueryRowContext(ctx, `
		SELECT id, amount, store, payment_type, date, category, source_credit_entry_id
		FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Amount, &e.Store, &e.PaymentType, &e.Date, &e.Category, &e.SourceEntryID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, storeErr("load expense", err)
	}

	e = patch.Apply(e)
	_, err = tx.ExecContext(ctx, `
		UPDATE expenses SET amount = ?, store = ?, payment_type = ?, date = ?, category = ?
		WHERE id = ?`,
		e.Amount, e.Store, string(e.PaymentType), e.Date, e.Category, id)
	if err != nil {
		return core.Expense{}, storeErr("update expense", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, storeErr("commit expense update", err)
	}
	return e, nil
}

func (s *SQLiteStore) RemoveExpense(ctx context.Context, id string) (core.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var e core.Expense
	err = tx.QueryRowContext(ctx, `
		SELECT id, amount, store, payment_type, date, category, source_credit_entry_id
		FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.Amount, &e.Store, &e.PaymentType, &e.Date, &e.Category, &e.SourceEntryID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, storeErr("load expense", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return core.Expense{}, storeErr("delete expense", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, storeErr("commit expense delete", err)
	}
	return e, nil
}

func (s *SQLiteStore) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, source, date, description FROM incomes ORDER BY rowid`)
	if err != nil {
		return nil, storeErr("list incomes", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var in core.Income
		if err := rows.Scan(&in.ID, &in.Amount, &in.Source, &in.Date, &in.Description); err != nil {
			return nil, storeErr("scan income", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list incomes", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incomes (id, amount, source, date, description) VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.Amount, in.Source, in.Date, in.Description)
	if err != nil {
		return core.Income{}, storeErr("append income", err)
	}
	return in, nil
}

func (s *SQLiteStore) ReplaceIncome(ctx context.Context, id string, patch core.IncomePatch) (core.Income, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Income{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var in core.Income
	err = tx.QueryRowContext(ctx, `
		SELECT id, amount, source, date, description FROM incomes WHERE id = ?`, id).
		Scan(&in.ID, &in.Amount, &in.Source, &in.Date, &in.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.ErrNotFound
	}
	if err != nil {
		return core.Income{}, storeErr("load income", err)
	}

	in = patch.Apply(in)
	_, err = tx.ExecContext(ctx, `
		UPDATE incomes SET amount = ?, source = ?, date = ?, description = ? WHERE id = ?`,
		in.Amount, in.Source, in.Date, in.Description, id)
	if err != nil {
		return core.Income{}, storeErr("update income", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Income{}, storeErr("commit income update", err)
	}
	return in, nil
}

func (s *SQLiteStore) RemoveIncome(ctx context.Context, id string) (core.Income, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Income{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var in core.Income
	err = tx.QueryRowContext(ctx, `
		SELECT id, amount, source, date, description FROM incomes WHERE id = ?`, id).
		Scan(&in.ID, &in.Amount, &in.Source, &in.Date, &in.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.ErrNotFound
	}
	if err != nil {
		return core.Income{}, storeErr("load income", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id); err != nil {
		return core.Income{}, storeErr("delete income", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Income{}, storeErr("commit income delete", err)
	}
	return in, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storeErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, c.Name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.Category{}, &core.ValidationError{Field: "name", Reason: "category already exists"}
		}
		return core.Category{}, storeErr("append category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, storeErr("category id", err)
	}
	c.ID = id
	return c, nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context) ([]core.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, category_id, limit_amount, type FROM alerts ORDER BY id`)
	if err != nil {
		return nil, storeErr("list alerts", err)
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		var a core.Alert
		var categoryID sql.NullInt64
		if err := rows.Scan(&a.ID, &categoryID, &a.LimitAmount, &a.Type); err != nil {
			return nil, storeErr("scan alert", err)
		}
		if categoryID.Valid {
			v := categoryID.Int64
			a.CategoryID = &v
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list alerts", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendAlert(ctx context.Context, a core.Alert) (core.Alert, error) {
	var categoryID sql.NullInt64
	if a.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *a.CategoryID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (category_id, limit_amount, type) VALUES (?, ?, ?)`,
		categoryID, a.LimitAmount, string(a.Type))
	if err != nil {
		return core.Alert{}, storeErr("append alert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Alert{}, storeErr("alert id", err)
	}
	a.ID = id
	return a, nil
}

func (s *SQLiteStore) ReplaceAlert(ctx context.Context, id int64, patch core.AlertPatch) (core.Alert, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Alert{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var a core.Alert
	var categoryID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT id, category_id, limit_amount, type FROM alerts WHERE id = ?`, id).
		Scan(&a.ID, &categoryID, &a.LimitAmount, &a.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Alert{}, core.ErrNotFound
	}
	if err != nil {
		return core.Alert{}, storeErr("load alert", err)
	}
	if categoryID.Valid {
		v := categoryID.Int64
		a.CategoryID = &v
	}

	a = patch.Apply(a)
	var newCategoryID sql.NullInt64
	if a.CategoryID != nil {
		newCategoryID = sql.NullInt64{Int64: *a.CategoryID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE alerts SET category_id = ?, limit_amount = ?, type = ? WHERE id = ?`,
		newCategoryID, a.LimitAmount, string(a.Type), id)
	if err != nil {
		return core.Alert{}, storeErr("update alert", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Alert{}, storeErr("commit alert update", err)
	}
	return a, nil
}

func (s *SQLiteStore) RemoveAlert(ctx context.Context, id int64) (core.Alert, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Alert{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var a core.Alert
	var categoryID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT id, category_id, limit_amount, type FROM alerts WHERE id = ?`, id).
		Scan(&a.ID, &categoryID, &a.LimitAmount, &a.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Alert{}, core.ErrNotFound
	}
	if err != nil {
		return core.Alert{}, storeErr("load alert", err)
	}
	if categoryID.Valid {
		v := categoryID.Int64
		a.CategoryID = &v
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id); err != nil {
		return core.Alert{}, storeErr("delete alert", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Alert{}, storeErr("commit alert delete", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListCreditEntries(ctx context.Context) ([]core.CreditCardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payment_date, pending_amount_pesos, pending_amount_dollars,
		       payed_amount_pesos, payed_amount_dollars, observations
		FROM credit_card_entries ORDER BY rowid`)
	if err != nil {
		return nil, storeErr("list credit entries", err)
	}
	defer rows.Close()

	var out []core.CreditCardEntry
	for rows.Next() {
		var e core.CreditCardEntry
		if err := rows.Scan(&e.ID, &e.PaymentDate, &e.PendingAmountPesos, &e.PendingAmountDollars,
			&e.PayedAmountPesos, &e.PayedAmountDollars, &e.Observations); err != nil {
			return nil, storeErr("scan credit entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list credit entries", err)
	}
	return out, nil
}

// AppendCreditEntryWithExpense writes the entry and its linked expense in a
// single transaction, so the caller never observes one without the other.
func (s *SQLiteStore) AppendCreditEntryWithExpense(ctx context.Context, entry core.CreditCardEntry, linked core.Expense) (core.CreditCardEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if linked.ID == "" {
		linked.ID = uuid.NewString()
	}
	linked.SourceEntryID = entry.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_card_entries
			(id, payment_date, pending_amount_pesos, pending_amount_dollars,
			 payed_amount_pesos, payed_amount_dollars, observations)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.PaymentDate, entry.PendingAmountPesos, entry.PendingAmountDollars,
		entry.PayedAmountPesos, entry.PayedAmountDollars, entry.Observations)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("append credit entry", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, store, payment_type, date, category, source_credit_entry_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		linked.ID, linked.Amount, linked.Store, string(linked.PaymentType), linked.Date, linked.Category, linked.SourceEntryID)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("append linked expense", err)
	}

	if err := tx.Commit(); err != nil {
		return core.CreditCardEntry{}, storeErr("commit credit entry", err)
	}

	slog.InfoContext(ctx, "Credit entry recorded with linked expense",
		"entry_id", entry.ID, "expense_id", linked.ID, "amount", linked.Amount)
	return entry, nil
}

func (s *SQLiteStore) ReplaceCreditEntry(ctx context.Context, id string, patch core.CreditCardEntryPatch) (core.CreditCardEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var e core.CreditCardEntry
	err = tx.QueryRowContext(ctx, `
		SELECT id, payment_date, pending_amount_pesos, pending_amount_dollars,
		       payed_amount_pesos, payed_amount_dollars, observations
		FROM credit_card_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.PaymentDate, &e.PendingAmountPesos, &e.PendingAmountDollars,
			&e.PayedAmountPesos, &e.PayedAmountDollars, &e.Observations)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCardEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.CreditCardEntry{}, storeErr("load credit entry", err)
	}

	e = patch.Apply(e)
	_, err = tx.ExecContext(ctx, `
		UPDATE credit_card_entries
		SET payment_date = ?, pending_amount_pesos = ?, pending_amount_dollars = ?,
		    payed_amount_pesos = ?, payed_amount_dollars = ?, observations = ?
		WHERE id = ?`,
		e.PaymentDate, e.PendingAmountPesos, e.PendingAmountDollars,
		e.PayedAmountPesos, e.PayedAmountDollars, e.Observations, id)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("update credit entry", err)
	}
	if err := tx.Commit(); err != nil {
		return core.CreditCardEntry{}, storeErr("commit credit entry update", err)
	}
	return e, nil
}

func (s *SQLiteStore) RemoveCreditEntry(ctx context.Context, id string) (core.CreditCardEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CreditCardEntry{}, storeErr("begin tx", err)
	}
	defer tx.Rollback()

	var e core.CreditCardEntry
	err = tx.QueryRowContext(ctx, `
		SELECT id, payment_date, pending_amount_pesos, pending_amount_dollars,
		       payed_amount_pesos, payed_amount_dollars, observations
		FROM credit_card_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.PaymentDate, &e.PendingAmountPesos, &e.PendingAmountDollars,
			&e.PayedAmountPesos, &e.PayedAmountDollars, &e.Observations)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCardEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.CreditCardEntry{}, storeErr("load credit entry", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM credit_card_entries WHERE id = ?`, id); err != nil {
		return core.CreditCardEntry{}, storeErr("delete credit entry", err)
	}
	if err := tx.Commit(); err != nil {
		return core.CreditCardEntry{}, storeErr("commit credit entry delete", err)
	}
	return e, nil
}
