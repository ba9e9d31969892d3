package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "centime.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, email string) core.User {
	t.Helper()
	u := core.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func seedCategory(t *testing.T, repo *Repository, userID uuid.UUID, name string) core.Category {
	t.Helper()
	now := time.Now().UTC()
	c := core.Category{ID: uuid.New(), Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func createExpense(t *testing.T, repo *Repository, e core.Expense) {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.CreateExpense(ctx, e); err != nil {
		tx.Rollback()
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := openTestRepo(t)
	seedUser(t, repo, "dup@example.com")

	err := repo.CreateUser(context.Background(), core.User{
		ID: uuid.New(), Email: "dup@example.com", Name: "Other", PasswordHash: "y",
		CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	repo := openTestRepo(t)
	want := seedUser(t, repo, "who@example.com")

	got, err := repo.GetUserByEmail(context.Background(), "who@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID || got.Name != want.Name || got.PasswordHash != want.PasswordHash {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if _, err := repo.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestCategoryNameUniquePerUser(t *testing.T) {
	repo := openTestRepo(t)
	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	seedCategory(t, repo, alice.ID, "groceries")

	now := time.Now().UTC()
	err := repo.CreateCategory(context.Background(), core.Category{
		ID: uuid.New(), Name: "groceries", UserID: alice.ID, CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, core.ErrCategoryNameExists) {
		t.Errorf("same user err = %v, want ErrCategoryNameExists", err)
	}

	// Another user may reuse the name.
	err = repo.CreateCategory(context.Background(), core.Category{
		ID: uuid.New(), Name: "groceries", UserID: bob.ID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Errorf("other user err = %v, want nil", err)
	}
}

func TestCreateExpenseUnknownCategory(t *testing.T) {
	repo := openTestRepo(t)
	user := seedUser(t, repo, "u@example.com")

	ctx := context.Background()
	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()

	err = tx.CreateExpense(ctx, core.Expense{
		ID: uuid.New(), Amount: core.Money{Cents: 100}, Description: "x",
		UserID: user.ID, CategoryID: uuid.New(), Date: core.NewDate(2026, 1, 2),
	})
	if !errors.Is(err, core.ErrCategoryNotFound) {
		t.Errorf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	user := seedUser(t, repo, "u@example.com")
	cat := seedCategory(t, repo, user.ID, "food")

	method := "card"
	want := core.Expense{
		ID:            uuid.New(),
		Amount:        core.Money{Cents: 1234},
		Description:   "lunch",
		UserID:        user.ID,
		CategoryID:    cat.ID,
		Date:          core.NewDate(2026, 8, 30),
		PaymentMethod: &method,
		IsRecurring:   true,
		Tags:          []string{"work", "travel"},
	}
	createExpense(t, repo, want)

	got, err := repo.GetExpense(context.Background(), want.ID, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != want.Amount || got.Description != want.Description ||
		got.Date.String() != "2026-08-30" || !got.IsRecurring {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.PaymentMethod == nil || *got.PaymentMethod != "card" {
		t.Errorf("payment method = %v, want card", got.PaymentMethod)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" {
		t.Errorf("tags = %v", got.Tags)
	}

	// Ownership is part of the lookup key.
	if _, err := repo.GetExpense(context.Background(), want.ID, uuid.New()); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("foreign user err = %v, want ErrExpenseNotFound", err)
	}
}

func TestListExpensesNewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	user := seedUser(t, repo, "u@example.com")
	cat := seedCategory(t, repo, user.ID, "food")

	first := uuid.New()
	second := uuid.New()
	for _, id := range []uuid.UUID{first, second} {
		createExpense(t, repo, core.Expense{
			ID: id, Amount: core.Money{Cents: 100}, Description: "e",
			UserID: user.ID, CategoryID: cat.ID, Date: core.NewDate(2026, 1, 1),
		})
		time.Sleep(5 * time.Millisecond)
	}

	got, err := repo.ListExpenses(context.Background(), user.ID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != second || got[1].ID != first {
		t.Errorf("order = %v, want [%s %s]", got, second, first)
	}

	// Updating the older one moves it to the front.
	ctx := context.Background()
	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	old, err := tx.GetExpense(ctx, first, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	old.Description = "edited"
	if err := tx.UpdateExpense(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err = repo.ListExpenses(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != first {
		t.Errorf("front = %s, want %s", got[0].ID, first)
	}
}

func TestSumExpenses(t *testing.T) {
	repo := openTestRepo(t)
	user := seedUser(t, repo, "u@example.com")
	food := seedCategory(t, repo, user.ID, "food")
	rent := seedCategory(t, repo, user.ID, "rent")

	ctx := context.Background()

	total, err := repo.SumExpenses(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total.Cents != 0 {
		t.Errorf("empty total = %d, want 0", total.Cents)
	}

	createExpense(t, repo, core.Expense{
		ID: uuid.New(), Amount: core.Money{Cents: 1000}, Description: "a",
		UserID: user.ID, CategoryID: food.ID, Date: core.NewDate(2026, 1, 1),
	})
	createExpense(t, repo, core.Expense{
		ID: uuid.New(), Amount: core.Money{Cents: 500}, Description: "b",
		UserID: user.ID, CategoryID: rent.ID, Date: core.NewDate(2026, 1, 2),
	})

	total, err = repo.SumExpenses(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total.Cents != 1500 {
		t.Errorf("total = %d, want 1500", total.Cents)
	}

	byCat, err := repo.SumExpensesByCategory(ctx, user.ID, food.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byCat.Cents != 1000 {
		t.Errorf("category total = %d, want 1000", byCat.Cents)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo := openTestRepo(t)
	user := seedUser(t, repo, "u@example.com")
	cat := seedCategory(t, repo, user.ID, "food")

	id := uuid.New()
	createExpense(t, repo, core.Expense{
		ID: id, Amount: core.Money{Cents: 100}, Description: "e",
		UserID: user.ID, CategoryID: cat.ID, Date: core.NewDate(2026, 1, 1),
	})

	ctx := context.Background()
	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.DeleteExpense(ctx, id, user.ID); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetExpense(ctx, id, user.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("err = %v, want ErrExpenseNotFound", err)
	}

	tx, err = repo.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := tx.DeleteExpense(ctx, id, user.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Errorf("double delete err = %v, want ErrExpenseNotFound", err)
	}
}
