package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomyedwab/smartexpense/state"
)

// Tx hands out DAOs bound to one engine transaction.
type Tx struct {
	env state.Env
}

// deferredSink remembers touched tables until the transaction commits.
type deferredSink struct {
	tables map[string]struct{}
}

func (s *deferredSink) TablesChanged(tables ...string) {
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}
}

func (s *deferredSink) changed() []string {
	names := make([]string, 0, len(s.tables))
	for t := range s.tables {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

// RunInTransaction runs fn inside one engine transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Live queries hear
// about the writes only after the commit.
func (db *Database) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	sink := &deferredSink{tables: make(map[string]struct{})}
	env := db.env()
	env.Ext = sqlTx
	env.Sink = sink

	if err := fn(&Tx{env: env}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if tables := sink.changed(); len(tables) > 0 {
		db.eventState.Publish(tables...)
	}
	return nil
}

func (tx *Tx) BookDao() *state.BookDao {
	return state.NewBookDao(tx.env)
}

func (tx *Tx) CategoryDao() *state.CategoryDao {
	return state.NewCategoryDao(tx.env)
}

func (tx *Tx) AccountDao() *state.AccountDao {
	return state.NewAccountDao(tx.env)
}

func (tx *Tx) TransactionDao() *state.TransactionDao {
	return state.NewTransactionDao(tx.env)
}

func (tx *Tx) AiReportDao() *state.AiReportDao {
	return state.NewAiReportDao(tx.env)
}

func (tx *Tx) BudgetDao() *state.BudgetDao {
	return state.NewBudgetDao(tx.env)
}
