package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomyedwab/smartexpense/repository"
)

func parseMonth(s string) (int, int, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t.Year(), int(t.Month()), nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func nowIn(loc *time.Location) (int, int) {
	now := time.Now().In(loc)
	return now.Year(), int(now.Month())
}

func findAccount(ctx context.Context, repo *repository.ExpenseRepository, name string) (int64, error) {
	accounts, err := repo.GetAllAccounts(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Name, name) {
			return a.ID, nil
		}
	}
	return 0, fmt.Errorf("account %q: %w", name, repository.ErrNoSuchRecord)
}

func categoryNames(ctx context.Context, repo *repository.ExpenseRepository) (map[int64]string, error) {
	categories, err := repo.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}
