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

// CategoriesResult is one cached page of a user's categories.
type CategoriesResult struct {
	Categories []core.Category `json:"categories"`
	Cached     bool            `json:"cached"`
}

// CategoryService handles category creation and the cached listing.
type CategoryService struct {
	repo      *storage.Repository
	pages     *cache.Versioned[[]core.Category]
	inv       cache.Invalidator
	publisher *events.Publisher
	log       *log.Logger
}

// NewCategoryService wires the service. A zero cacheTTL falls back to
// the cache package default.
func NewCategoryService(repo *storage.Repository, store kv.Store, publisher *events.Publisher, cacheTTL time.Duration, logger *log.Logger) *CategoryService {
	return &CategoryService{
		repo:      repo,
		pages:     cache.NewVersioned[[]core.Category](store, cache.MsgpackCodec[[]core.Category]{}, cacheTTL, logger),
		inv:       cache.NewInvalidator(store),
		publisher: publisher,
		log:       logger.WithComponent(log.ComponentCategory),
	}
}

// Add creates a category. The insert and the list invalidation share
// one transactional boundary: a failed bump aborts the insert.
func (s *CategoryService) Add(ctx context.Context, userID uuid.UUID, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	now := time.Now().UTC()
	c := core.Category{
		ID:        uuid.New(),
		Name:      in.Name,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return core.Category{}, core.Internal(err)
	}
	defer tx.Rollback()

	if err := tx.CreateCategory(ctx, c); err != nil {
		return core.Category{}, domainErr(err)
	}
	inv := cache.Invalidation{Bump: []string{cache.CategoriesVersionKey(userID)}}
	if err := s.inv.Apply(ctx, inv); err != nil {
		return core.Category{}, core.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return core.Category{}, core.Internal(err)
	}

	s.notify(ctx, events.ActionCreated, c.ID, userID)
	s.log.InfoContext(ctx, "category created",
		log.FieldUserID, userID, log.FieldCategory, c.ID)
	return c, nil
}

// List returns one page of the user's categories through the
// generation-keyed cache. A cache-layer failure degrades to a direct
// store read.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID, page int64) (CategoriesResult, error) {
	page = normalizePage(page)

	gen, genErr := s.pages.Generation(ctx, cache.CategoriesVersionKey(userID))
	var key string
	if genErr == nil {
		key = cache.CategoriesPageKey(userID, gen, page)
		if categories, ok := s.pages.Get(ctx, key); ok {
			return CategoriesResult{Categories: categories, Cached: true}, nil
		}
	} else {
		s.log.WarnContext(ctx, "category cache unavailable, reading from store",
			log.FieldUserID, userID, log.FieldError, genErr)
	}

	categories, err := s.repo.ListCategories(ctx, userID, PageSize, (page-1)*PageSize)
	if err != nil {
		return CategoriesResult{}, domainErr(err)
	}

	if genErr == nil {
		s.pages.Put(ctx, key, categories)
	}
	return CategoriesResult{Categories: categories, Cached: false}, nil
}

func (s *CategoryService) notify(ctx context.Context, action events.Action, id, userID uuid.UUID) {
	msg := events.NewChangeMessage(events.EntityCategory, action, id, userID)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "failed to publish category event",
			log.FieldCategory, id, log.FieldError, err)
	}
}
