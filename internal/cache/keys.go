package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache keys live in one place so the key space stays coherent.
//
// Version (generation) keys hold the monotonic counter for one cache
// scope; page keys embed the observed generation, so bumping the
// counter makes every older page unreachable. Aggregate and
// single-item keys carry no generation and are deleted explicitly.

// ExpensesVersionKey is the generation counter for a user's full
// expense list.
func ExpensesVersionKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:expenses:version", userID)
}

// CategoryFilterVersionKey is the generation counter for a user's
// expenses filtered by one category.
func CategoryFilterVersionKey(userID, categoryID uuid.UUID) string {
	return fmt.Sprintf("user:%s:filter:category:%s:expenses:version", userID, categoryID)
}

// CategoriesVersionKey is the generation counter for a user's category
// list.
func CategoriesVersionKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:categories:version", userID)
}

// ExpensesPageKey addresses one page of the full expense list at one
// generation.
func ExpensesPageKey(userID uuid.UUID, page int64, gen string) string {
	return fmt.Sprintf("user:%s:p:%d:v:%s:expenses", userID, page, gen)
}

// CategoryFilterPageKey addresses one page of a category-filtered
// expense list at one generation.
func CategoryFilterPageKey(userID, categoryID uuid.UUID, gen string, page int64) string {
	return fmt.Sprintf("user:%s:filter:category:%s:v:%s:p:%d", userID, categoryID, gen, page)
}

// CategoriesPageKey addresses one page of the category list at one
// generation.
func CategoriesPageKey(userID uuid.UUID, gen string, page int64) string {
	return fmt.Sprintf("user:%s:categories:v:%s:p:%d", userID, gen, page)
}

// TotalExpensesKey caches the running sum over all of a user's
// expenses. No generation: invalidated by deletion.
func TotalExpensesKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:total:expenses", userID)
}

// CategoryTotalKey caches the running sum over one category.
func CategoryTotalKey(userID, categoryID uuid.UUID) string {
	return fmt.Sprintf("user:%s:filter:category:%s:total:expenses", userID, categoryID)
}

// SingleExpenseKey caches one expense by id. No generation:
// invalidated by deletion on that item's own update or delete.
func SingleExpenseKey(userID, expenseID uuid.UUID) string {
	return fmt.Sprintf("user:%s:expense:%s", userID, expenseID)
}
