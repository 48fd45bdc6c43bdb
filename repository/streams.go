package repository

import (
	"context"
	"time"

	"github.com/tomyedwab/smartexpense/state"
)

// Derived live streams. Each one re-reads the transactions in [start, end]
// after every committed write to the tables it depends on and delivers the
// recomputed value.

func (r *ExpenseRepository) periodTransactions(ctx context.Context, start, end int64) ([]state.Transaction, error) {
	return r.db.TransactionDao().GetTransactionsByPeriod(ctx, start, end)
}

// ObserveMonthlyStats streams the totals of [start, end], labelled with the
// local month of start.
func (r *ExpenseRepository) ObserveMonthlyStats(ctx context.Context, start, end int64) *state.LiveQuery[MonthlyStats] {
	first := r.timeOf(start)
	return state.Watch(ctx, r.db.Events(), r.log, func(ctx context.Context) (MonthlyStats, error) {
		txs, err := r.periodTransactions(ctx, start, end)
		if err != nil {
			return MonthlyStats{}, err
		}
		stats := MonthlyStats{
			Year:          first.Year(),
			Month:         int(first.Month()),
			CategoryStats: expensesByCategory(txs),
		}
		for _, t := range txs {
			switch t.Type {
			case state.TypeExpense:
				stats.Expense += t.Amount
			case state.TypeIncome:
				stats.Income += t.Amount
			}
		}
		stats.Balance = stats.Income - stats.Expense
		return stats, nil
	}, state.TransactionsTable)
}

// ObserveCategoryExpenses streams expense totals per category for
// [start, end], largest first. Renaming or deleting a category also
// re-emits.
func (r *ExpenseRepository) ObserveCategoryExpenses(ctx context.Context, start, end int64) *state.LiveQuery[[]CategoryExpense] {
	return state.Watch(ctx, r.db.Events(), r.log, func(ctx context.Context) ([]CategoryExpense, error) {
		txs, err := r.periodTransactions(ctx, start, end)
		if err != nil {
			return nil, err
		}
		categories, err := r.db.CategoryDao().GetAllCategories(ctx)
		if err != nil {
			return nil, err
		}
		return joinCategories(expensesByCategory(txs), categories), nil
	}, state.TransactionsTable, state.CategoriesTable)
}

// ObserveDailyExpenseTrend streams expense totals per day of the local month
// holding start. Index 0 is the first of the month.
func (r *ExpenseRepository) ObserveDailyExpenseTrend(ctx context.Context, start, end int64) *state.LiveQuery[[]int64] {
	first := r.timeOf(start)
	days := daysIn(first.Year(), first.Month(), r.loc)
	return state.Watch(ctx, r.db.Events(), r.log, func(ctx context.Context) ([]int64, error) {
		txs, err := r.periodTransactions(ctx, start, end)
		if err != nil {
			return nil, err
		}
		trend := make([]int64, days)
		for _, t := range txs {
			if t.Type != state.TypeExpense {
				continue
			}
			day := r.timeOf(t.RecordTime).Day()
			if day >= 1 && day <= days {
				trend[day-1] += t.Amount
			}
		}
		return trend, nil
	}, state.TransactionsTable)
}

// ObserveMonthlyExpenseTrend streams expense totals per local calendar month.
// Index 0 is January.
func (r *ExpenseRepository) ObserveMonthlyExpenseTrend(ctx context.Context, start, end int64) *state.LiveQuery[[]int64] {
	return state.Watch(ctx, r.db.Events(), r.log, func(ctx context.Context) ([]int64, error) {
		txs, err := r.periodTransactions(ctx, start, end)
		if err != nil {
			return nil, err
		}
		trend := make([]int64, 12)
		for _, t := range txs {
			if t.Type != state.TypeExpense {
				continue
			}
			trend[r.timeOf(t.RecordTime).Month()-1] += t.Amount
		}
		return trend, nil
	}, state.TransactionsTable)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
