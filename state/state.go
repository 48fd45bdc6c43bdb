package state

// Package state holds the expense record types and one data-access object per
// table. DAOs are bound to an Env, which is either the shared connection or an
// open engine transaction; the database package hands them out.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/database/events"
)

const (
	BooksTable        = "books"
	CategoriesTable   = "categories"
	AccountsTable     = "accounts"
	TransactionsTable = "transactions"
	AiReportsTable    = "ai_reports"
	BudgetsTable      = "budgets"
)

// Table is the on-disk definition of one record type: the table name plus the
// statements that create it and its indexes.
type Table struct {
	Name string
	DDL  []string
}

// Tables returns every record type in creation order (referenced tables
// first).
func Tables() []Table {
	return []Table{
		booksTable,
		categoriesTable,
		accountsTable,
		transactionsTable,
		aiReportsTable,
		budgetsTable,
	}
}

// ChangeSink is told which tables a successful write touched. Outside a
// transaction it publishes straight away; inside one it defers until commit.
type ChangeSink interface {
	TablesChanged(tables ...string)
}

// Env carries what a DAO needs to run queries.
type Env struct {
	// Ext runs one-shot queries and writes; a *sqlx.DB or a *sqlx.Tx.
	Ext sqlx.ExtContext
	// Live re-runs live queries; always the shared connection, never a
	// transaction, since live queries outlive it.
	Live   sqlx.QueryerContext
	Events *events.EventState
	Sink   ChangeSink
	Log    zerolog.Logger
}

// TransactionType is the type flag shared by categories and transactions.
type TransactionType int

const (
	TypeExpense TransactionType = 0
	TypeIncome  TransactionType = 1
)

func (t TransactionType) String() string {
	switch t {
	case TypeExpense:
		return "expense"
	case TypeIncome:
		return "income"
	default:
		return fmt.Sprintf("TransactionType(%d)", int(t))
	}
}

// -- Shared helpers --

func insertRecord(ctx context.Context, env Env, table, query string, rec interface{}) (int64, error) {
	result, err := sqlx.NamedExecContext(ctx, env.Ext, query, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get id of new %s row: %w", table, err)
	}
	env.Sink.TablesChanged(table)
	env.Log.Debug().Str("table", table).Int64("id", id).Msg("inserted row")
	return id, nil
}

// updateRecord runs a named UPDATE keyed by id.
func updateRecord(ctx context.Context, env Env, table, query string, rec interface{}) error {
	result, err := sqlx.NamedExecContext(ctx, env.Ext, query, rec)
	return execWrite(env, table, "update", result, err)
}

// deleteById deletes one row. Tables whose rows follow it through a foreign
// key action are listed in cascaded and published along with table.
func deleteById(ctx context.Context, env Env, table string, id int64, cascaded ...string) error {
	result, err := env.Ext.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	return execWrite(env, table, "delete", result, err, cascaded...)
}

// execWrite checks the outcome of an UPDATE or DELETE. A statement that
// matched nothing is not an error and publishes nothing.
func execWrite(env Env, table, op string, result sql.Result, err error, cascaded ...string) error {
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", op, table, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected > 0 {
		env.Sink.TablesChanged(append([]string{table}, cascaded...)...)
		env.Log.Debug().Str("table", table).Str("op", op).Int64("rows", rowsAffected).Msg("wrote rows")
	}
	return nil
}

// getOne returns nil, nil when no row matches.
func getOne[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*T, error) {
	var rec T
	err := sqlx.GetContext(ctx, q, &rec, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// selectAll always returns a non-nil slice.
func selectAll[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) ([]T, error) {
	recs := []T{}
	if err := sqlx.SelectContext(ctx, q, &recs, query, args...); err != nil {
		return nil, err
	}
	return recs, nil
}

func getSum(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (int64, error) {
	var total int64
	if err := sqlx.GetContext(ctx, q, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}
