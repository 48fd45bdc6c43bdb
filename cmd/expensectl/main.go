package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/config"
	"github.com/tomyedwab/smartexpense/database"
	"github.com/tomyedwab/smartexpense/logger"
	"github.com/tomyedwab/smartexpense/reports"
	"github.com/tomyedwab/smartexpense/repository"
	"github.com/tomyedwab/smartexpense/state"
)

type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	repo *repository.ExpenseRepository
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	commands := map[string]func(context.Context, *app, []string) error{
		"init":    runInit,
		"add":     runAdd,
		"list":    runList,
		"delete":  runDelete,
		"stats":   runStats,
		"budget":  runBudget,
		"account": runAccount,
		"report":  runReport,
		"watch":   runWatch,
	}

	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage()
		return
	}
	run, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	db, err := database.GetDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath()).Msg("Failed to open database")
	}

	a := &app{cfg: cfg, log: log, repo: repository.New(db, cfg.Location)}
	err = run(ctx, a, os.Args[2:])
	// The process is exiting, so nothing else uses the shared handle.
	db.Close()
	if err != nil {
		log.Error().Err(err).Str("command", name).Msg("Command failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Smart Expense CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  expensectl <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  init      Create the default book, categories and accounts")
	fmt.Println("  add       Record an expense or income")
	fmt.Println("  list      List transactions")
	fmt.Println("  delete    Delete a transaction and undo its effects")
	fmt.Println("  stats     Show today's or a month's totals")
	fmt.Println("  budget    Show or set a month's budgets")
	fmt.Println("  account   Show accounts or set a balance")
	fmt.Println("  report    Generate or list reports")
	fmt.Println("  watch     Print a month's totals whenever they change")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'expensectl <command> -h' for more information on a command.")
}

func runInit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Parse(args)

	if err := a.repo.InitializeDefaultData(ctx); err != nil {
		return err
	}
	fmt.Println("Default data is in place.")
	return nil
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	amount := fs.String("amount", "", "Amount in major units, e.g. 12.50")
	income := fs.Bool("income", false, "Record income instead of an expense")
	category := fs.String("category", "", "Category name")
	account := fs.String("account", "", "Account name")
	remark := fs.String("remark", "", "Free-text note")
	at := fs.String("at", "", "Record time as YYYY-MM-DD or RFC 3339 (default now)")
	fs.Parse(args)

	if *amount == "" {
		return errors.New("-amount is required")
	}
	minor, err := repository.ParseAmount(*amount)
	if err != nil {
		return err
	}
	if minor <= 0 {
		return errors.New("-amount must be positive")
	}

	book, err := a.repo.GetDefaultBook(ctx)
	if err != nil {
		return err
	}
	if book == nil {
		return errors.New("no book yet, run 'expensectl init' first")
	}

	tx := &state.Transaction{
		BookID: book.ID,
		Amount: minor,
		Type:   state.TypeExpense,
		Remark: *remark,
	}
	if *income {
		tx.Type = state.TypeIncome
	}

	recorded := time.Now()
	if *at != "" {
		if recorded, err = parseTime(*at, a.cfg.Location); err != nil {
			return err
		}
	}
	tx.RecordTime = recorded.UnixMilli()

	if *category != "" {
		c, err := a.repo.GetCategoryByName(ctx, *category, tx.Type)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("no %s category named %q", tx.Type, *category)
		}
		tx.CategoryID = &c.ID
	}
	if *account != "" {
		id, err := findAccount(ctx, a.repo, *account)
		if err != nil {
			return err
		}
		tx.AccountID = &id
	}

	id, err := a.repo.InsertTransaction(ctx, tx)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s %s as transaction %d.\n", tx.Type, repository.FormatAmount(minor), id)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	date := fs.String("date", "", "Only list one day (YYYY-MM-DD)")
	month := fs.String("month", "", "Only list one month (YYYY-MM)")
	fs.Parse(args)

	var txs []state.Transaction
	var err error
	switch {
	case *date != "":
		txs, err = a.repo.GetTransactionsByDate(ctx, *date, nil)
	case *month != "":
		year, m, perr := parseMonth(*month)
		if perr != nil {
			return perr
		}
		start, end := a.repo.MonthRange(year, m)
		txs, err = a.repo.GetTransactionsByPeriod(ctx, start, end, nil)
	default:
		txs, err = a.repo.GetAllTransactions(ctx)
	}
	if err != nil {
		return err
	}

	names, err := categoryNames(ctx, a.repo)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tTYPE\tAMOUNT\tCATEGORY\tREMARK")
	for _, t := range txs {
		category := "-"
		if t.CategoryID != nil {
			category = names[*t.CategoryID]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			time.UnixMilli(t.RecordTime).In(a.cfg.Location).Format("2006-01-02 15:04"),
			t.Type,
			repository.FormatAmount(t.Amount),
			category,
			t.Remark,
		)
	}
	return w.Flush()
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "Transaction ID")
	fs.Parse(args)

	if *id == 0 {
		return errors.New("-id is required")
	}
	existing, err := a.repo.GetTransactionById(ctx, *id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("transaction %d: %w", *id, repository.ErrNoSuchRecord)
	}
	if err := a.repo.DeleteTransaction(ctx, existing); err != nil {
		return err
	}
	fmt.Printf("Deleted transaction %d.\n", *id)
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	month := fs.String("month", "", "Month to summarise (YYYY-MM); default is today")
	fs.Parse(args)

	if *month == "" {
		today, err := a.repo.GetTodayStats(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", today.Date.Format("Mon 2 Jan 2006"))
		fmt.Printf("  Income:  %s\n", repository.FormatAmount(today.Income))
		fmt.Printf("  Expense: %s\n", repository.FormatAmount(today.Expense))
		fmt.Printf("  Balance: %s\n", repository.FormatAmount(today.Balance))
		return nil
	}

	year, m, err := parseMonth(*month)
	if err != nil {
		return err
	}
	stats, err := a.repo.GetMonthlyStats(ctx, year, m)
	if err != nil {
		return err
	}
	start, end := a.repo.MonthRange(year, m)
	categories, err := a.repo.GetCategoryExpenses(ctx, start, end, nil)
	if err != nil {
		return err
	}

	fmt.Printf("%04d-%02d\n", stats.Year, stats.Month)
	fmt.Printf("  Income:  %s\n", repository.FormatAmount(stats.Income))
	fmt.Printf("  Expense: %s\n", repository.FormatAmount(stats.Expense))
	fmt.Printf("  Balance: %s\n", repository.FormatAmount(stats.Balance))
	for _, c := range categories {
		fmt.Printf("    %-16s %s\n", c.Category.Name, repository.FormatAmount(c.Amount))
	}
	return nil
}

func runBudget(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	month := fs.String("month", "", "Budget month (YYYY-MM); default is the current month")
	category := fs.String("category", state.TotalBudgetCategory, "Budget category")
	set := fs.String("set", "", "Set the budget amount in major units")
	fs.Parse(args)

	year, m := nowIn(a.cfg.Location)
	if *month != "" {
		var err error
		if year, m, err = parseMonth(*month); err != nil {
			return err
		}
	}

	if *set != "" {
		amount, err := repository.ParseAmount(*set)
		if err != nil {
			return err
		}
		if *category == state.TotalBudgetCategory {
			if _, err := a.repo.SetTotalBudgetForMonth(ctx, year, m, amount, 0); err != nil {
				return err
			}
		} else if err := setCategoryBudget(ctx, a.repo, *category, year, m, amount); err != nil {
			return err
		}
	}

	budgets, err := a.repo.GetBudgetsByMonth(ctx, year, m)
	if err != nil {
		return err
	}
	remaining, err := a.repo.GetRemainingBudgetByMonth(ctx, year, m)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tBUDGET\tSPENT\tREMAINING\n")
	for _, b := range budgets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			b.Category,
			repository.FormatAmount(b.BudgetAmount),
			repository.FormatAmount(b.SpentAmount),
			repository.FormatAmount(b.Remaining()),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Remaining overall for %04d-%02d: %s\n", year, m, repository.FormatAmount(remaining))
	return nil
}

func setCategoryBudget(ctx context.Context, repo *repository.ExpenseRepository, category string, year, month int, amount int64) error {
	existing, err := repo.GetBudgetByCategoryAndMonth(ctx, category, year, month)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.BudgetAmount = amount
		return repo.UpdateBudget(ctx, existing)
	}
	_, err = repo.InsertBudget(ctx, &state.Budget{
		Category:     category,
		BudgetAmount: amount,
		Year:         year,
		Month:        month,
	})
	return err
}

func runAccount(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("account", flag.ExitOnError)
	name := fs.String("name", "", "Account to change")
	balance := fs.String("balance", "", "Set the balance in major units")
	add := fs.String("add", "", "Create a new account with this name")
	remove := fs.Bool("delete", false, "Delete the account named by -name")
	fs.Parse(args)

	switch {
	case *add != "":
		if _, err := a.repo.InsertAccount(ctx, &state.Account{Name: *add}); err != nil {
			return err
		}
	case *name != "":
		id, err := findAccount(ctx, a.repo, *name)
		if err != nil {
			return err
		}
		if *remove {
			if err := a.repo.DeleteAccountById(ctx, id); err != nil {
				return err
			}
			break
		}
		if *balance == "" {
			return errors.New("-balance or -delete is required with -name")
		}
		amount, err := repository.ParseAmount(*balance)
		if err != nil {
			return err
		}
		if err := a.repo.SetAccountBalance(ctx, id, amount); err != nil {
			return err
		}
	}

	overview, err := a.repo.GetAssetOverview(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tCATEGORY\tBALANCE")
	for _, item := range overview.Accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Kind, item.Category, item.Amount.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Assets: %s  Liabilities: %s  Net: %s\n",
		repository.FormatAmount(overview.TotalAssets),
		repository.FormatAmount(overview.TotalLiabilities),
		repository.FormatAmount(overview.NetAssets),
	)
	return nil
}

func runReport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	month := fs.String("month", "", "Generate a monthly report (YYYY-MM)")
	year := fs.Int("year", 0, "Generate a yearly report")
	list := fs.Bool("list", false, "List stored reports")
	fs.Parse(args)

	book, err := a.repo.GetDefaultBook(ctx)
	if err != nil {
		return err
	}
	if book == nil {
		return errors.New("no book yet, run 'expensectl init' first")
	}

	if *list || (*month == "" && *year == 0) {
		stored, err := a.repo.GetReportsByBook(ctx, book.ID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tTITLE\tMODEL\tCREATED")
		for _, r := range stored {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.ReportType, r.Title, r.Model,
				time.UnixMilli(r.CreateTime).In(a.cfg.Location).Format(time.DateTime))
		}
		return w.Flush()
	}

	gen, err := newGenerator(ctx, a.cfg)
	if err != nil {
		return err
	}
	svc := reports.NewService(a.repo, gen, a.log)

	var report *state.AiReport
	if *month != "" {
		y, m, err := parseMonth(*month)
		if err != nil {
			return err
		}
		report, err = svc.Monthly(ctx, &book.ID, y, m)
		if err != nil {
			return err
		}
	} else {
		report, err = svc.Yearly(ctx, &book.ID, *year)
		if err != nil {
			return err
		}
	}
	fmt.Printf("Report %d (%s)\n\n%s\n", report.ID, report.Model, report.Content)
	return nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (reports.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return reports.SummaryGenerator{}, nil
	}
	return reports.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.ReportModel)
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	month := fs.String("month", "", "Month to watch (YYYY-MM); default is the current month")
	fs.Parse(args)

	year, m := nowIn(a.cfg.Location)
	if *month != "" {
		var err error
		if year, m, err = parseMonth(*month); err != nil {
			return err
		}
	}

	start, end := a.repo.MonthRange(year, m)
	q := a.repo.ObserveMonthlyStats(ctx, start, end)
	defer q.Close()

	a.log.Info().Int("year", year).Int("month", m).Msg("Watching monthly totals, Ctrl-C to stop")
	for stats := range q.Updates() {
		fmt.Printf("%s  %04d-%02d  income %s  expense %s  balance %s\n",
			time.Now().Format(time.TimeOnly),
			stats.Year, stats.Month,
			repository.FormatAmount(stats.Income),
			repository.FormatAmount(stats.Expense),
			repository.FormatAmount(stats.Balance),
		)
	}
	return q.Err()
}
