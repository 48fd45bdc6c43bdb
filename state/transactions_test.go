package state

import (
	"context"
	"testing"
)

func insertTx(t *testing.T, dao *TransactionDao, tx Transaction) int64 {
	t.Helper()
	id, err := dao.Insert(context.Background(), &tx)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

func recordTimes(txs []Transaction) []int64 {
	times := make([]int64, len(txs))
	for i, tx := range txs {
		times[i] = tx.RecordTime
	}
	return times
}

func TestTransactionInsertAndFetch(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")

	accountID, err := NewAccountDao(env).Insert(ctx, &Account{Name: "Cash"})
	if err != nil {
		t.Fatalf("Failed to insert account: %v", err)
	}

	in := Transaction{
		ID:         12345, // ignored
		BookID:     bookID,
		AccountID:  &accountID,
		Amount:     1999,
		Type:       TypeIncome,
		RecordTime: 1700000000000,
		Remark:     "refund",
	}
	id1 := insertTx(t, dao, in)
	id2 := insertTx(t, dao, in)
	if id1 == id2 {
		t.Fatalf("Expected unique ids, got %d twice", id1)
	}

	got, err := dao.GetTransactionById(ctx, id1)
	if err != nil {
		t.Fatalf("GetTransactionById failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the inserted transaction")
	}

	want := in
	want.ID = id1
	if got.ID != want.ID || got.BookID != want.BookID || got.Amount != want.Amount ||
		got.Type != want.Type || got.RecordTime != want.RecordTime || got.Remark != want.Remark {
		t.Errorf("Fetched %+v, want %+v", *got, want)
	}
	if got.AccountID == nil || *got.AccountID != accountID {
		t.Errorf("Expected account %d, got %v", accountID, got.AccountID)
	}
	if got.CategoryID != nil {
		t.Errorf("Expected no category, got %d", *got.CategoryID)
	}

	missing, err := dao.GetTransactionById(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for a missing id, got %v, %v", missing, err)
	}
}

func TestTransactionTypeConstraint(t *testing.T) {
	env := setupTestEnv(t)
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")

	_, err := dao.Insert(context.Background(), &Transaction{BookID: bookID, Amount: 1, Type: TransactionType(2), RecordTime: 1})
	if err == nil {
		t.Error("Expected the type check constraint to reject type 2")
	}
}

func TestTransactionTotalsExample(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")

	insertTx(t, dao, Transaction{Amount: 500, Type: TypeExpense, RecordTime: 1000, BookID: bookID})
	insertTx(t, dao, Transaction{Amount: 300, Type: TypeIncome, RecordTime: 2000, BookID: bookID})

	expense, err := dao.GetTotalExpense(ctx, 0, 5000)
	if err != nil {
		t.Fatalf("GetTotalExpense failed: %v", err)
	}
	if expense != 500 {
		t.Errorf("Expected expense 500, got %d", expense)
	}

	income, err := dao.GetTotalIncome(ctx, 0, 5000)
	if err != nil {
		t.Fatalf("GetTotalIncome failed: %v", err)
	}
	if income != 300 {
		t.Errorf("Expected income 300, got %d", income)
	}

	q := dao.GetAllTransactions(ctx)
	defer q.Close()
	all := next(t, q)
	if len(all) != 2 || all[0].RecordTime != 2000 || all[1].RecordTime != 1000 {
		t.Errorf("Expected newest first [2000 1000], got %v", recordTimes(all))
	}
}

func TestTransactionTotalsRangeAndDefault(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")

	// Empty table sums to zero
	if total, err := dao.GetTotalExpense(ctx, 0, 1<<62); err != nil || total != 0 {
		t.Errorf("Expected 0, nil on empty table, got %d, %v", total, err)
	}

	insertTx(t, dao, Transaction{Amount: 10, Type: TypeExpense, RecordTime: 100, BookID: bookID})
	insertTx(t, dao, Transaction{Amount: 20, Type: TypeExpense, RecordTime: 200, BookID: bookID})
	insertTx(t, dao, Transaction{Amount: 40, Type: TypeExpense, RecordTime: 300, BookID: bookID})
	insertTx(t, dao, Transaction{Amount: 80, Type: TypeIncome, RecordTime: 200, BookID: bookID})

	tests := []struct {
		start, end int64
		expense    int64
		income     int64
	}{
		{100, 300, 70, 80}, // both ends inclusive
		{101, 299, 20, 80},
		{200, 200, 20, 80},
		{301, 400, 0, 0},
	}
	for _, tt := range tests {
		expense, err := dao.GetTotalExpense(ctx, tt.start, tt.end)
		if err != nil {
			t.Fatalf("GetTotalExpense failed: %v", err)
		}
		income, err := dao.GetTotalIncome(ctx, tt.start, tt.end)
		if err != nil {
			t.Fatalf("GetTotalIncome failed: %v", err)
		}
		if expense != tt.expense || income != tt.income {
			t.Errorf("[%d,%d]: got expense %d income %d, want %d %d",
				tt.start, tt.end, expense, income, tt.expense, tt.income)
		}
	}
}

func TestTransactionSnapshotQueries(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	book1 := mustInsertBook(t, env, "Household")
	book2 := mustInsertBook(t, env, "Travel")

	insertTx(t, dao, Transaction{Amount: 1, RecordTime: 100, BookID: book1})
	tieA := insertTx(t, dao, Transaction{Amount: 2, RecordTime: 200, BookID: book1})
	tieB := insertTx(t, dao, Transaction{Amount: 3, RecordTime: 200, BookID: book2})
	insertTx(t, dao, Transaction{Amount: 4, RecordTime: 300, BookID: book2})

	byBook, err := dao.GetTransactionsByBook(ctx, book1)
	if err != nil {
		t.Fatalf("GetTransactionsByBook failed: %v", err)
	}
	if len(byBook) != 2 || byBook[0].RecordTime != 200 || byBook[1].RecordTime != 100 {
		t.Errorf("Unexpected book 1 transactions %v", recordTimes(byBook))
	}

	period, err := dao.GetTransactionsByPeriod(ctx, 200, 300)
	if err != nil {
		t.Fatalf("GetTransactionsByPeriod failed: %v", err)
	}
	if len(period) != 3 {
		t.Fatalf("Expected 3 transactions in [200,300], got %d", len(period))
	}
	// Equal timestamps: higher id first
	if period[1].ID != tieB || period[2].ID != tieA {
		t.Errorf("Expected tie order [%d %d], got [%d %d]", tieB, tieA, period[1].ID, period[2].ID)
	}

	both, err := dao.GetTransactionsByPeriodAndBook(ctx, 150, 400, book2)
	if err != nil {
		t.Fatalf("GetTransactionsByPeriodAndBook failed: %v", err)
	}
	if len(both) != 2 || both[0].RecordTime != 300 || both[1].RecordTime != 200 {
		t.Errorf("Unexpected book 2 period transactions %v", recordTimes(both))
	}

	none, err := dao.GetTransactionsByPeriod(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetTransactionsByPeriod failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Expected an empty, non-nil slice, got %v", none)
	}

	// Later writes show up in a new read only
	added := insertTx(t, dao, Transaction{Amount: 5, RecordTime: 250, BookID: book1})
	fresh, err := dao.GetTransactionsByPeriod(ctx, 200, 300)
	if err != nil {
		t.Fatalf("GetTransactionsByPeriod failed: %v", err)
	}
	if len(fresh) != 4 || fresh[1].ID != added {
		t.Fatalf("Expected the new transaction second in a fresh read, got %v", recordTimes(fresh))
	}
	kept := append([]Transaction{fresh[0]}, fresh[2:]...)
	for i := range period {
		held, got := period[i], kept[i]
		if held.ID != got.ID || held.Amount != got.Amount || held.RecordTime != got.RecordTime {
			t.Errorf("Row %d differs: held %+v, fresh %+v", i, held, got)
		}
	}

	byCategory, err := dao.GetTransactionsByCategory(ctx, 42)
	if err != nil {
		t.Fatalf("GetTransactionsByCategory failed: %v", err)
	}
	if len(byCategory) != 0 {
		t.Errorf("Expected no transactions for an unknown category, got %d", len(byCategory))
	}
}

func TestTransactionLiveQueries(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")

	all := dao.GetAllTransactions(ctx)
	defer all.Close()
	between := dao.GetTransactionsBetween(ctx, 1000, 2000)
	defer between.Close()

	if got := next(t, all); len(got) != 0 {
		t.Fatalf("Expected empty initial result, got %d rows", len(got))
	}
	if got := next(t, between); len(got) != 0 {
		t.Fatalf("Expected empty initial result, got %d rows", len(got))
	}

	inRange := Transaction{Amount: 100, RecordTime: 1500, BookID: bookID}
	inRange.ID = insertTx(t, dao, inRange)

	if got := next(t, all); len(got) != 1 || got[0].ID != inRange.ID {
		t.Fatalf("Expected the new row in the live result, got %v", got)
	}
	if got := next(t, between); len(got) != 1 || got[0].Amount != 100 {
		t.Fatalf("Expected the new row in the live range, got %v", got)
	}

	// Update re-emits with the new values
	inRange.Amount = 250
	if err := dao.Update(ctx, &inRange); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := next(t, all); len(got) != 1 || got[0].Amount != 250 {
		t.Fatalf("Expected updated amount 250, got %v", got)
	}
	if got := next(t, between); len(got) != 1 || got[0].Amount != 250 {
		t.Fatalf("Expected updated amount 250 in range, got %v", got)
	}

	// Delete removes the row from every live result
	if err := dao.Delete(ctx, &inRange); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := next(t, all); len(got) != 0 {
		t.Fatalf("Expected deleted row to disappear, got %v", got)
	}
	if got := next(t, between); len(got) != 0 {
		t.Fatalf("Expected deleted row to disappear from range, got %v", got)
	}

	// Writes to other tables leave the transaction queries alone
	mustInsertBook(t, env, "Travel")
	expectQuiet(t, all)
}

func TestTransactionUpdateDeleteMissingAreNoOps(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	dao := NewTransactionDao(env)
	bookID := mustInsertBook(t, env, "Household")
	keep := insertTx(t, dao, Transaction{Amount: 7, RecordTime: 1, BookID: bookID})
	before := env.Events.CurrentEventId()

	ghost := &Transaction{ID: 424242, BookID: bookID, Amount: 1, RecordTime: 1}
	if err := dao.Update(ctx, ghost); err != nil {
		t.Errorf("Update of a missing row should not fail: %v", err)
	}
	if err := dao.Delete(ctx, ghost); err != nil {
		t.Errorf("Delete of a missing row should not fail: %v", err)
	}
	if env.Events.CurrentEventId() != before {
		t.Error("No-op writes should not publish changes")
	}

	got, err := dao.GetTransactionById(ctx, keep)
	if err != nil || got == nil || got.Amount != 7 {
		t.Errorf("Existing row was disturbed: %v, %v", got, err)
	}
}
