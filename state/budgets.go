package state

import (
	"context"
	"fmt"
)

// TotalBudgetCategory names the budget row that holds a month's overall
// limit.
const TotalBudgetCategory = "Total Budget"

// Budget is a spending limit for one category (or the whole book, see
// TotalBudgetCategory) in one calendar month. Amounts are minor units.
type Budget struct {
	ID           int64  `db:"id" json:"id"`
	Category     string `db:"category" json:"category"`
	BudgetAmount int64  `db:"budget_amount" json:"budget_amount"`
	SpentAmount  int64  `db:"spent_amount" json:"spent_amount"`
	Year         int    `db:"year" json:"year"`
	Month        int    `db:"month" json:"month"`
	Note         string `db:"note" json:"note"`
	CreateTime   int64  `db:"create_time" json:"create_time"`
	UpdateTime   int64  `db:"update_time" json:"update_time"`
}

// Remaining is the unspent part of the budget; negative when overspent.
func (b *Budget) Remaining() int64 {
	return b.BudgetAmount - b.SpentAmount
}

var budgetsTable = Table{
	Name: BudgetsTable,
	DDL: []string{
		`CREATE TABLE IF NOT EXISTS budgets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			budget_amount INTEGER NOT NULL,
			spent_amount INTEGER NOT NULL DEFAULT 0,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
			note TEXT NOT NULL DEFAULT '',
			create_time INTEGER NOT NULL,
			update_time INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_period ON budgets(year, month, category)`,
	},
}

const budgetColumns = `id, category, budget_amount, spent_amount, year, month, note, create_time, update_time`

type BudgetDao struct {
	env Env
}

func NewBudgetDao(env Env) *BudgetDao {
	return &BudgetDao{env: env}
}

func (d *BudgetDao) Insert(ctx context.Context, b *Budget) (int64, error) {
	return insertRecord(ctx, d.env, BudgetsTable, `
		INSERT INTO budgets (category, budget_amount, spent_amount, year, month, note, create_time, update_time)
		VALUES (:category, :budget_amount, :spent_amount, :year, :month, :note, :create_time, :update_time)`, b)
}

func (d *BudgetDao) Update(ctx context.Context, b *Budget) error {
	return updateRecord(ctx, d.env, BudgetsTable, `
		UPDATE budgets
		SET category = :category, budget_amount = :budget_amount, spent_amount = :spent_amount,
			year = :year, month = :month, note = :note, create_time = :create_time, update_time = :update_time
		WHERE id = :id`, b)
}

func (d *BudgetDao) Delete(ctx context.Context, b *Budget) error {
	return deleteById(ctx, d.env, BudgetsTable, b.ID)
}

func (d *BudgetDao) GetAllBudgets(ctx context.Context) ([]Budget, error) {
	return selectAll[Budget](ctx, d.env.Ext,
		`SELECT `+budgetColumns+` FROM budgets ORDER BY year DESC, month DESC, id`)
}

func (d *BudgetDao) GetBudgetsByMonth(ctx context.Context, year, month int) ([]Budget, error) {
	return selectAll[Budget](ctx, d.env.Ext,
		`SELECT `+budgetColumns+` FROM budgets WHERE year = $1 AND month = $2 ORDER BY id`, year, month)
}

func (d *BudgetDao) GetBudgetByCategoryAndMonth(ctx context.Context, category string, year, month int) (*Budget, error) {
	return getOne[Budget](ctx, d.env.Ext,
		`SELECT `+budgetColumns+` FROM budgets
		WHERE category = $1 AND year = $2 AND month = $3 ORDER BY id LIMIT 1`, category, year, month)
}

// GetTotalBudgetByMonth returns the month's overall budget amount, zero when
// none is set.
func (d *BudgetDao) GetTotalBudgetByMonth(ctx context.Context, year, month int) (int64, error) {
	total, err := getSum(ctx, d.env.Ext, `
		SELECT COALESCE(SUM(budget_amount), 0) FROM budgets
		WHERE category = $1 AND year = $2 AND month = $3`, TotalBudgetCategory, year, month)
	if err != nil {
		return 0, fmt.Errorf("failed to get total budget: %w", err)
	}
	return total, nil
}

// GetRemainingBudgetByMonth returns the overall budget minus what has been
// spent against it, zero when no overall budget is set.
func (d *BudgetDao) GetRemainingBudgetByMonth(ctx context.Context, year, month int) (int64, error) {
	remaining, err := getSum(ctx, d.env.Ext, `
		SELECT COALESCE(SUM(budget_amount - spent_amount), 0) FROM budgets
		WHERE category = $1 AND year = $2 AND month = $3`, TotalBudgetCategory, year, month)
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining budget: %w", err)
	}
	return remaining, nil
}

func (d *BudgetDao) DeleteByCategoryAndMonth(ctx context.Context, category string, year, month int) error {
	result, err := d.env.Ext.ExecContext(ctx,
		`DELETE FROM budgets WHERE category = $1 AND year = $2 AND month = $3`, category, year, month)
	return execWrite(d.env, BudgetsTable, "delete", result, err)
}

// ObserveBudgetsByMonth is a live query over one month's budgets.
func (d *BudgetDao) ObserveBudgetsByMonth(ctx context.Context, year, month int) *LiveQuery[[]Budget] {
	return Watch(ctx, d.env.Events, d.env.Log, func(ctx context.Context) ([]Budget, error) {
		return selectAll[Budget](ctx, d.env.Live,
			`SELECT `+budgetColumns+` FROM budgets WHERE year = $1 AND month = $2 ORDER BY id`, year, month)
	}, BudgetsTable)
}
