package repository

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/tomyedwab/smartexpense/database"
	"github.com/tomyedwab/smartexpense/logger"
	"github.com/tomyedwab/smartexpense/state"
)

var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func setupTestRepo(t *testing.T, loc *time.Location) *ExpenseRepository {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{
		Path:                           path.Join(t.TempDir(), "test_repo.db"),
		FallbackToDestructiveMigration: true,
		Logger:                         logger.Nop(),
	})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	repo := New(db, loc)
	repo.now = func() time.Time { return testNow }
	return repo
}

// fixture holds one book with an account and a category
type fixture struct {
	repo      *ExpenseRepository
	book      int64
	account   int64
	category  int64
	salary    int64
	recordMar int64
}

func setupFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo := setupTestRepo(t, time.UTC)
	f := fixture{repo: repo, recordMar: testNow.UnixMilli()}

	var err error
	if f.book, err = repo.InsertBook(ctx, &state.Book{Name: "Household"}); err != nil {
		t.Fatalf("InsertBook failed: %v", err)
	}
	if f.account, err = repo.InsertAccount(ctx, &state.Account{Name: "Cash", Balance: 10000}); err != nil {
		t.Fatalf("InsertAccount failed: %v", err)
	}
	if f.category, err = repo.InsertCategory(ctx, &state.Category{Name: "Food", Type: state.TypeExpense}); err != nil {
		t.Fatalf("InsertCategory failed: %v", err)
	}
	if f.salary, err = repo.InsertCategory(ctx, &state.Category{Name: "Salary", Type: state.TypeIncome}); err != nil {
		t.Fatalf("InsertCategory failed: %v", err)
	}
	if _, err := repo.InsertBudget(ctx, &state.Budget{Category: "Food", BudgetAmount: 50000, Year: 2024, Month: 3}); err != nil {
		t.Fatalf("InsertBudget failed: %v", err)
	}
	if _, err := repo.SetTotalBudgetForMonth(ctx, 2024, 3, 200000, 0); err != nil {
		t.Fatalf("SetTotalBudgetForMonth failed: %v", err)
	}
	return f
}

func (f fixture) balance(t *testing.T) int64 {
	t.Helper()
	a, err := f.repo.GetAccountById(context.Background(), f.account)
	if err != nil || a == nil {
		t.Fatalf("GetAccountById failed: %v, %v", a, err)
	}
	return a.Balance
}

func (f fixture) spent(t *testing.T, category string, year, month int) int64 {
	t.Helper()
	b, err := f.repo.GetBudgetByCategoryAndMonth(context.Background(), category, year, month)
	if err != nil || b == nil {
		t.Fatalf("GetBudgetByCategoryAndMonth(%s) failed: %v, %v", category, b, err)
	}
	return b.SpentAmount
}

func (f fixture) expense(amount int64) *state.Transaction {
	return &state.Transaction{
		BookID:     f.book,
		AccountID:  &f.account,
		CategoryID: &f.category,
		Amount:     amount,
		Type:       state.TypeExpense,
		RecordTime: f.recordMar,
	}
}

func TestInsertTransactionAppliesEffects(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if _, err := f.repo.InsertTransaction(ctx, f.expense(1200)); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if b := f.balance(t); b != 8800 {
		t.Errorf("Expected balance 8800, got %d", b)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 1200 {
		t.Errorf("Expected Food spent 1200, got %d", s)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 1200 {
		t.Errorf("Expected total spent 1200, got %d", s)
	}
	remaining, err := f.repo.GetRemainingBudgetByMonth(ctx, 2024, 3)
	if err != nil || remaining != 198800 {
		t.Errorf("Expected remaining 198800, got %d, %v", remaining, err)
	}

	income := &state.Transaction{
		BookID:     f.book,
		AccountID:  &f.account,
		CategoryID: &f.salary,
		Amount:     5000,
		Type:       state.TypeIncome,
		RecordTime: f.recordMar,
	}
	if _, err := f.repo.InsertTransaction(ctx, income); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if b := f.balance(t); b != 13800 {
		t.Errorf("Expected balance 13800 after income, got %d", b)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 1200 {
		t.Errorf("Income must not count against the budget, got spent %d", s)
	}
}

func TestInsertTransactionOtherMonthLeavesBudgetAlone(t *testing.T) {
	f := setupFixture(t)
	tx := f.expense(700)
	tx.RecordTime = time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	if _, err := f.repo.InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 0 {
		t.Errorf("Expected March budget untouched, got %d", s)
	}
	if b := f.balance(t); b != 9300 {
		t.Errorf("Expected balance 9300, got %d", b)
	}
}

func TestInsertTransactionRollsBackOnFailure(t *testing.T) {
	f := setupFixture(t)
	tx := f.expense(700)
	tx.BookID = 999 // no such book

	if _, err := f.repo.InsertTransaction(context.Background(), tx); err == nil {
		t.Fatal("Expected a foreign key error")
	}
	if b := f.balance(t); b != 10000 {
		t.Errorf("Expected balance untouched, got %d", b)
	}
}

func TestDeleteTransactionReversesEffects(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	id, err := f.repo.InsertTransaction(ctx, f.expense(1500))
	if err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	// Someone lowered the recorded spending by hand
	if err := f.repo.UpdateBudgetSpentAmount(ctx, "Food", 2024, 3, 1000); err != nil {
		t.Fatalf("UpdateBudgetSpentAmount failed: %v", err)
	}

	if err := f.repo.DeleteTransaction(ctx, &state.Transaction{ID: id}); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	if got, _ := f.repo.GetTransactionById(ctx, id); got != nil {
		t.Error("Expected the transaction to be deleted")
	}
	if b := f.balance(t); b != 10000 {
		t.Errorf("Expected balance restored to 10000, got %d", b)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 0 {
		t.Errorf("Expected Food spent clamped at 0, got %d", s)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 0 {
		t.Errorf("Expected total spent 0, got %d", s)
	}

	// Deleting again is a no-op
	if err := f.repo.DeleteTransaction(ctx, &state.Transaction{ID: id}); err != nil {
		t.Errorf("Second delete failed: %v", err)
	}
	if b := f.balance(t); b != 10000 {
		t.Errorf("Second delete changed the balance to %d", b)
	}
}

func TestDeleteBookReversesEffects(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if _, err := f.repo.InsertTransaction(ctx, f.expense(3000)); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if err := f.repo.DeleteBook(ctx, &state.Book{ID: f.book}); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}

	txs, err := f.repo.GetTransactionsByBook(ctx, f.book)
	if err != nil {
		t.Fatalf("GetTransactionsByBook failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Expected the book's transactions to be gone, got %d", len(txs))
	}
	// The account and budgets live outside the book
	if b := f.balance(t); b != 10000 {
		t.Errorf("Expected balance restored to 10000, got %d", b)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 0 {
		t.Errorf("Expected Food spent 0, got %d", s)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 0 {
		t.Errorf("Expected total spent 0, got %d", s)
	}
}

func TestDeleteCategoryReversesBudgetCharges(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	id, err := f.repo.InsertTransaction(ctx, f.expense(3000))
	if err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	if err := f.repo.DeleteCategory(ctx, &state.Category{ID: f.category}); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 0 {
		t.Errorf("Expected Food spent 0, got %d", s)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 0 {
		t.Errorf("Expected total spent 0, got %d", s)
	}
	if b := f.balance(t); b != 7000 {
		t.Errorf("Expected the balance to stay at 7000, got %d", b)
	}

	stored, err := f.repo.GetTransactionById(ctx, id)
	if err != nil || stored == nil {
		t.Fatalf("GetTransactionById failed: %v, %v", stored, err)
	}
	if stored.CategoryID != nil {
		t.Errorf("Expected an uncategorized transaction, got category %d", *stored.CategoryID)
	}

	// A later delete only restores the balance
	if err := f.repo.DeleteTransaction(ctx, stored); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	if b := f.balance(t); b != 10000 {
		t.Errorf("Expected balance restored to 10000, got %d", b)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 0 {
		t.Errorf("Expected total spent 0, got %d", s)
	}

	// Deleting a missing category does nothing
	if err := f.repo.DeleteCategory(ctx, &state.Category{ID: f.category}); err != nil {
		t.Errorf("Second DeleteCategory failed: %v", err)
	}
}

func TestUpdateTransactionReappliesEffects(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	tx := f.expense(1000)
	id, err := f.repo.InsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	changed := *tx
	changed.ID = id
	changed.Amount = 400
	if err := f.repo.UpdateTransaction(ctx, &changed); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if b := f.balance(t); b != 9600 {
		t.Errorf("Expected balance 9600, got %d", b)
	}
	if s := f.spent(t, "Food", 2024, 3); s != 400 {
		t.Errorf("Expected Food spent 400, got %d", s)
	}

	// Turning it into income moves it out of the budget
	changed.Type = state.TypeIncome
	if err := f.repo.UpdateTransaction(ctx, &changed); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if b := f.balance(t); b != 10400 {
		t.Errorf("Expected balance 10400, got %d", b)
	}
	if s := f.spent(t, state.TotalBudgetCategory, 2024, 3); s != 0 {
		t.Errorf("Expected total spent 0, got %d", s)
	}

	missing := *tx
	missing.ID = 9999
	if err := f.repo.UpdateTransaction(ctx, &missing); !errors.Is(err, ErrNoSuchRecord) {
		t.Errorf("Expected ErrNoSuchRecord, got %v", err)
	}
}

func TestAccountBalanceOperations(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if err := f.repo.ChangeAccountBalance(ctx, f.account, -2500); err != nil {
		t.Fatalf("ChangeAccountBalance failed: %v", err)
	}
	if b := f.balance(t); b != 7500 {
		t.Errorf("Expected 7500, got %d", b)
	}
	if err := f.repo.SetAccountBalance(ctx, f.account, 123); err != nil {
		t.Fatalf("SetAccountBalance failed: %v", err)
	}
	if b := f.balance(t); b != 123 {
		t.Errorf("Expected 123, got %d", b)
	}
	if err := f.repo.SetAccountBalance(ctx, 4242, 1); !errors.Is(err, ErrNoSuchRecord) {
		t.Errorf("Expected ErrNoSuchRecord, got %v", err)
	}

	if err := f.repo.DeleteAccountById(ctx, f.account); err != nil {
		t.Fatalf("DeleteAccountById failed: %v", err)
	}
	if a, err := f.repo.GetAccountById(ctx, f.account); err != nil || a != nil {
		t.Errorf("Expected account gone, got %v, %v", a, err)
	}
	if err := f.repo.DeleteAccountById(ctx, f.account); err != nil {
		t.Errorf("Deleting a missing account should be a no-op: %v", err)
	}
}

func TestSetTotalBudgetForMonthReplaces(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if _, err := f.repo.SetTotalBudgetForMonth(ctx, 2024, 3, 300000, 4500); err != nil {
		t.Fatalf("SetTotalBudgetForMonth failed: %v", err)
	}
	budgets, err := f.repo.GetBudgetsByMonth(ctx, 2024, 3)
	if err != nil {
		t.Fatalf("GetBudgetsByMonth failed: %v", err)
	}
	totals := 0
	for _, b := range budgets {
		if b.Category == state.TotalBudgetCategory {
			totals++
			if b.BudgetAmount != 300000 || b.SpentAmount != 4500 {
				t.Errorf("Unexpected total budget %+v", b)
			}
			if b.CreateTime != testNow.UnixMilli() {
				t.Errorf("Expected create time to be stamped, got %d", b.CreateTime)
			}
		}
	}
	if totals != 1 {
		t.Errorf("Expected exactly one total budget row, got %d", totals)
	}
	total, err := f.repo.GetTotalBudgetByMonth(ctx, 2024, 3)
	if err != nil || total != 300000 {
		t.Errorf("Expected total 300000, got %d, %v", total, err)
	}
}

func TestUpdateBudgetSpentAmountMissingIsNoOp(t *testing.T) {
	f := setupFixture(t)
	if err := f.repo.UpdateBudgetSpentAmount(context.Background(), "Travel", 2024, 3, 10); err != nil {
		t.Errorf("Expected no error for a missing budget, got %v", err)
	}
}

func TestInitializeDefaultDataIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t, time.UTC)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.InitializeDefaultData(ctx); err != nil {
			t.Fatalf("InitializeDefaultData failed: %v", err)
		}
	}

	books, err := repo.GetAllBooks(ctx)
	if err != nil {
		t.Fatalf("GetAllBooks failed: %v", err)
	}
	if len(books) != 1 || books[0].Name != DefaultBookName || !books[0].IsDefault {
		t.Errorf("Expected one default book, got %v", books)
	}
	categories, err := repo.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("GetAllCategories failed: %v", err)
	}
	if len(categories) != len(defaultCategories) {
		t.Errorf("Expected %d categories, got %d", len(defaultCategories), len(categories))
	}
	accounts, err := repo.GetAllAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAllAccounts failed: %v", err)
	}
	if len(accounts) != len(defaultAccounts) {
		t.Errorf("Expected %d accounts, got %d", len(defaultAccounts), len(accounts))
	}
	for _, a := range accounts {
		if a.Color == 0 {
			t.Errorf("Expected default account %s to get a color", a.Name)
		}
	}
}

func TestInitializeDefaultDataKeepsExistingGroups(t *testing.T) {
	repo := setupTestRepo(t, time.UTC)
	ctx := context.Background()
	if _, err := repo.InsertAccount(ctx, &state.Account{Name: "Brokerage"}); err != nil {
		t.Fatalf("InsertAccount failed: %v", err)
	}
	if err := repo.InitializeDefaultData(ctx); err != nil {
		t.Fatalf("InitializeDefaultData failed: %v", err)
	}
	accounts, err := repo.GetAllAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAllAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected the existing account only, got %d accounts", len(accounts))
	}
	book, err := repo.GetDefaultBook(ctx)
	if err != nil || book == nil {
		t.Errorf("Expected a default book, got %v, %v", book, err)
	}
}

func TestGetAllTransactionsSnapshot(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	for _, amount := range []int64{100, 200} {
		if _, err := f.repo.InsertTransaction(ctx, f.expense(amount)); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
	}
	txs, err := f.repo.GetAllTransactions(ctx)
	if err != nil {
		t.Fatalf("GetAllTransactions failed: %v", err)
	}
	// Same record time, so the newer id comes first
	if len(txs) != 2 || txs[0].Amount != 200 {
		t.Errorf("Unexpected transactions %v", txs)
	}
	if n := f.repo.db.Events().SubscriberCount(); n != 0 {
		t.Errorf("Expected the snapshot to release its subscription, got %d", n)
	}
}
