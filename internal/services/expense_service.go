package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"centime/internal/cache"
	"centime/internal/core"
	"centime/internal/events"
	"centime/internal/kv"
	"centime/internal/log"
	"centime/internal/storage"
)

// PageSize is the fixed page length for every list endpoint.
const PageSize int64 = 10

// ExpensesTotal pairs one page of expenses with the scope's running
// total; the two are cached and served together.
type ExpensesTotal struct {
	Expenses []core.Expense `json:"expenses"`
	Total    core.Money     `json:"total"`
}

// ExpensesTotalResult is the list response, flagging whether the page
// came from the cache.
type ExpensesTotalResult struct {
	ExpensesTotal ExpensesTotal `json:"expenses_total"`
	Cached        bool          `json:"cached"`
}

// ExpenseResult is the single-item response with its cache flag.
type ExpenseResult struct {
	Cached  bool         `json:"cached"`
	Expense core.Expense `json:"expense"`
}

// ExpenseService orchestrates expense writes and the versioned read
// cache over them.
type ExpenseService struct {
	repo      *storage.Repository
	pages     *cache.Versioned[ExpensesTotal]
	single    *cache.Versioned[core.Expense]
	totals    *cache.Aggregate
	inv       cache.Invalidator
	publisher *events.Publisher
	log       *log.Logger
}

// NewExpenseService wires the service. A zero cacheTTL falls back to
// the cache package default.
func NewExpenseService(repo *storage.Repository, store kv.Store, publisher *events.Publisher, cacheTTL time.Duration, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		pages:     cache.NewVersioned[ExpensesTotal](store, cache.MsgpackCodec[ExpensesTotal]{}, cacheTTL, logger),
		single:    cache.NewVersioned[core.Expense](store, cache.MsgpackCodec[core.Expense]{}, cacheTTL, logger),
		totals:    cache.NewAggregate(store, cacheTTL, logger),
		inv:       cache.NewInvalidator(store),
		publisher: publisher,
		log:       logger.WithComponent(log.ComponentExpense),
	}
}

// invalidation enumerates the cache scopes one expense write touches:
// both list generations rotate, both aggregates and the single-item
// entry are deleted.
func invalidation(userID, categoryID uuid.UUID, expenseID *uuid.UUID) cache.Invalidation {
	inv := cache.Invalidation{
		Bump: []string{
			cache.ExpensesVersionKey(userID),
			cache.CategoryFilterVersionKey(userID, categoryID),
		},
		Del: []string{
			cache.TotalExpensesKey(userID),
			cache.CategoryTotalKey(userID, categoryID),
		},
	}
	if expenseID != nil {
		inv.Del = append(inv.Del, cache.SingleExpenseKey(userID, *expenseID))
	}
	return inv
}

// Add records a new expense. The row insert and the cache invalidation
// commit or fail together: the invalidation batch runs inside the open
// transaction, and its failure rolls the insert back.
func (s *ExpenseService) Add(ctx context.Context, userID uuid.UUID, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:            uuid.New(),
		Amount:        in.Amount,
		Description:   in.Description,
		UserID:        userID,
		CategoryID:    in.CategoryID,
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		IsRecurring:   in.IsRecurring,
		Tags:          in.Tags,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return core.Expense{}, core.Internal(err)
	}
	defer tx.Rollback()

	if err := tx.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, domainErr(err)
	}
	if err := s.inv.Apply(ctx, invalidation(userID, e.CategoryID, nil)); err != nil {
		return core.Expense{}, core.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, core.Internal(err)
	}

	s.notify(ctx, events.ActionCreated, e.ID, userID)
	s.log.InfoContext(ctx, "expense created",
		log.FieldUserID, userID, log.FieldExpenseID, e.ID)
	return e, nil
}

// List returns one page of the user's expenses, newest first, together
// with the all-expenses running total.
func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID, page int64) (ExpensesTotalResult, error) {
	page = normalizePage(page)

	gen, genErr := s.pages.Generation(ctx, cache.ExpensesVersionKey(userID))
	var key string
	if genErr == nil {
		key = cache.ExpensesPageKey(userID, page, gen)
		if cached, ok := s.pages.Get(ctx, key); ok {
			return ExpensesTotalResult{ExpensesTotal: cached, Cached: true}, nil
		}
	} else {
		s.log.WarnContext(ctx, "expense cache unavailable, reading from store",
			log.FieldUserID, userID, log.FieldError, genErr)
	}

	expenses, err := s.repo.ListExpenses(ctx, userID, PageSize, (page-1)*PageSize)
	if err != nil {
		return ExpensesTotalResult{}, domainErr(err)
	}
	total, err := s.totalAll(ctx, userID)
	if err != nil {
		return ExpensesTotalResult{}, err
	}

	result := ExpensesTotal{Expenses: expenses, Total: total}
	if genErr == nil {
		s.pages.Put(ctx, key, result)
	}
	return ExpensesTotalResult{ExpensesTotal: result, Cached: false}, nil
}

// FilterByCategory is List narrowed to one category, with its own
// generation scope and per-category total.
func (s *ExpenseService) FilterByCategory(ctx context.Context, userID, categoryID uuid.UUID, page int64) (ExpensesTotalResult, error) {
	page = normalizePage(page)

	gen, genErr := s.pages.Generation(ctx, cache.CategoryFilterVersionKey(userID, categoryID))
	var key string
	if genErr == nil {
		key = cache.CategoryFilterPageKey(userID, categoryID, gen, page)
		if cached, ok := s.pages.Get(ctx, key); ok {
			return ExpensesTotalResult{ExpensesTotal: cached, Cached: true}, nil
		}
	} else {
		s.log.WarnContext(ctx, "expense cache unavailable, reading from store",
			log.FieldUserID, userID, log.FieldError, genErr)
	}

	expenses, err := s.repo.ListExpensesByCategory(ctx, userID, categoryID, PageSize, (page-1)*PageSize)
	if err != nil {
		return ExpensesTotalResult{}, domainErr(err)
	}
	total, err := s.totalByCategory(ctx, userID, categoryID)
	if err != nil {
		return ExpensesTotalResult{}, err
	}

	result := ExpensesTotal{Expenses: expenses, Total: total}
	if genErr == nil {
		s.pages.Put(ctx, key, result)
	}
	return ExpensesTotalResult{ExpensesTotal: result, Cached: false}, nil
}

// GetByID returns one expense through the single-item cache.
func (s *ExpenseService) GetByID(ctx context.Context, userID, expenseID uuid.UUID) (ExpenseResult, error) {
	key := cache.SingleExpenseKey(userID, expenseID)
	if cached, ok := s.single.Get(ctx, key); ok {
		return ExpenseResult{Cached: true, Expense: cached}, nil
	}

	e, err := s.repo.GetExpense(ctx, expenseID, userID)
	if err != nil {
		return ExpenseResult{}, domainErr(err)
	}
	s.single.Put(ctx, key, e)
	return ExpenseResult{Cached: false, Expense: e}, nil
}

// TotalAll returns the user's running total across all expenses.
func (s *ExpenseService) TotalAll(ctx context.Context, userID uuid.UUID) (core.Money, error) {
	return s.totalAll(ctx, userID)
}

// Edit replaces an expense's mutable fields. When the edit moves the
// expense between categories, both categories' list generations and
// totals are invalidated in the same batch.
func (s *ExpenseService) Edit(ctx context.Context, userID, expenseID uuid.UUID, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return core.Expense{}, core.Internal(err)
	}
	defer tx.Rollback()

	old, err := tx.GetExpense(ctx, expenseID, userID)
	if err != nil {
		return core.Expense{}, domainErr(err)
	}

	e := core.Expense{
		ID:            expenseID,
		Amount:        in.Amount,
		Description:   in.Description,
		UserID:        userID,
		CategoryID:    in.CategoryID,
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		IsRecurring:   in.IsRecurring,
		Tags:          in.Tags,
	}
	if err := tx.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, domainErr(err)
	}

	inv := invalidation(userID, e.CategoryID, &expenseID)
	if old.CategoryID != e.CategoryID {
		inv.Bump = append(inv.Bump, cache.CategoryFilterVersionKey(userID, old.CategoryID))
		inv.Del = append(inv.Del, cache.CategoryTotalKey(userID, old.CategoryID))
	}
	if err := s.inv.Apply(ctx, inv); err != nil {
		return core.Expense{}, core.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, core.Internal(err)
	}

	s.notify(ctx, events.ActionUpdated, expenseID, userID)
	s.log.InfoContext(ctx, "expense updated",
		log.FieldUserID, userID, log.FieldExpenseID, expenseID)
	return e, nil
}

// Delete removes an expense and returns its id.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID uuid.UUID) (uuid.UUID, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return uuid.Nil, core.Internal(err)
	}
	defer tx.Rollback()

	old, err := tx.GetExpense(ctx, expenseID, userID)
	if err != nil {
		return uuid.Nil, domainErr(err)
	}
	if err := tx.DeleteExpense(ctx, expenseID, userID); err != nil {
		return uuid.Nil, domainErr(err)
	}
	if err := s.inv.Apply(ctx, invalidation(userID, old.CategoryID, &expenseID)); err != nil {
		return uuid.Nil, core.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, core.Internal(err)
	}

	s.notify(ctx, events.ActionDeleted, expenseID, userID)
	s.log.InfoContext(ctx, "expense deleted",
		log.FieldUserID, userID, log.FieldExpenseID, expenseID)
	return expenseID, nil
}

func (s *ExpenseService) totalAll(ctx context.Context, userID uuid.UUID) (core.Money, error) {
	key := cache.TotalExpensesKey(userID)
	if raw, ok := s.totals.Get(ctx, key); ok {
		if total, err := core.ParseTotal(raw); err == nil {
			return total, nil
		}
		s.log.WarnContext(ctx, "dropping unparseable cached total", log.FieldCacheKey, key)
	}

	total, err := s.repo.SumExpenses(ctx, userID)
	if err != nil {
		return core.Money{}, domainErr(err)
	}
	s.totals.Put(ctx, key, total.String())
	return total, nil
}

func (s *ExpenseService) totalByCategory(ctx context.Context, userID, categoryID uuid.UUID) (core.Money, error) {
	key := cache.CategoryTotalKey(userID, categoryID)
	if raw, ok := s.totals.Get(ctx, key); ok {
		if total, err := core.ParseTotal(raw); err == nil {
			return total, nil
		}
		s.log.WarnContext(ctx, "dropping unparseable cached total", log.FieldCacheKey, key)
	}

	total, err := s.repo.SumExpensesByCategory(ctx, userID, categoryID)
	if err != nil {
		return core.Money{}, domainErr(err)
	}
	s.totals.Put(ctx, key, total.String())
	return total, nil
}

func (s *ExpenseService) notify(ctx context.Context, action events.Action, id, userID uuid.UUID) {
	msg := events.NewChangeMessage(events.EntityExpense, action, id, userID)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "failed to publish expense event",
			log.FieldExpenseID, id, log.FieldError, err)
	}
}

func normalizePage(page int64) int64 {
	if page < 1 {
		return 1
	}
	return page
}
