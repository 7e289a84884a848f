package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// PortfolioCache is the optional read-through cache for aggregated
// portfolios. Implementations must degrade, not fail: a miss or a transport
// problem surfaces as ok=false and the engine recomputes.
type PortfolioCache interface {
	Get(ctx context.Context, userID string) (domain.Portfolio, bool)
	Set(ctx context.Context, userID string, p domain.Portfolio)
	Invalidate(ctx context.Context, userID string)
}

// Reconciler is the record reconciliation and migration engine. It owns no
// persistence; all reads and writes go through the store client.
type Reconciler struct {
	store  store.Client
	cache  PortfolioCache
	logger *slog.Logger
	nowFn  func() time.Time
}

// NewReconciler constructs the engine. The cache may be nil.
func NewReconciler(st store.Client, cache PortfolioCache, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:  st,
		cache:  cache,
		logger: logger,
		nowFn:  time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *Reconciler) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

// ListUsers loads and normalizes the full user_profiles collection,
// preserving store order.
func (r *Reconciler) ListUsers(ctx context.Context) ([]domain.User, error) {
	raws, err := r.store.List(ctx, store.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(raws))
	for _, raw := range raws {
		users = append(users, NormalizeUser(raw))
	}
	return users, nil
}

// GetUser loads and normalizes a single user profile.
func (r *Reconciler) GetUser(ctx context.Context, userID string) (domain.User, error) {
	raw, err := r.store.Get(ctx, store.CollectionUsers, userID)
	if err != nil {
		if IsNotFound(err) {
			return domain.User{}, &NotFoundError{Collection: store.CollectionUsers, ID: userID}
		}
		return domain.User{}, err
	}
	user := NormalizeUser(raw)
	user.ID = userID
	return user, nil
}

// findUserByEmail scans the user list for the first user whose normalized
// email matches. Returns false when no user matches or the email is blank.
func findUserByEmail(users []domain.User, email string) (domain.User, bool) {
	needle := NormalizeEmail(email)
	if needle == "" {
		return domain.User{}, false
	}
	for _, u := range users {
		if u.Email == needle {
			return u, true
		}
	}
	return domain.User{}, false
}

func (r *Reconciler) cacheGet(ctx context.Context, userID string) (domain.Portfolio, bool) {
	if r.cache == nil {
		return domain.Portfolio{}, false
	}
	return r.cache.Get(ctx, userID)
}

func (r *Reconciler) cacheSet(ctx context.Context, userID string, p domain.Portfolio) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, userID, p)
}

func (r *Reconciler) invalidatePortfolio(ctx context.Context, userID string) {
	if r.cache == nil || userID == "" {
		return
	}
	r.cache.Invalidate(ctx, userID)
}
