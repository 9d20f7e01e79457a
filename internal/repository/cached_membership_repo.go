package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/mansoorceksport/memberships/internal/domain"
	"golang.org/x/sync/singleflight"
)

const defaultMembershipCacheTTL = time.Minute

// CachedMembershipRepository wraps a MembershipRepository with Redis caching of List
type CachedMembershipRepository struct {
	store domain.MembershipRepository
	cache *RedisCacheRepository
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedMembershipRepository creates a new cached membership repository
func NewCachedMembershipRepository(store domain.MembershipRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedMembershipRepository {
	if ttl <= 0 {
		ttl = defaultMembershipCacheTTL
	}
	return &CachedMembershipRepository{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

// Create stores a membership and invalidates the cached list
func (r *CachedMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	if err := r.store.Create(ctx, membership); err != nil {
		return err
	}

	_ = r.cache.Delete(ctx, membershipListKey)
	return nil
}

// GetByID is a pass-through
func (r *CachedMembershipRepository) GetByID(ctx context.Context, id int64) (*domain.Membership, error) {
	return r.store.GetByID(ctx, id)
}

// List serves the membership list from cache, loading it once per miss
func (r *CachedMembershipRepository) List(ctx context.Context) ([]*domain.Membership, error) {
	var memberships []*domain.Membership
	if err := r.cache.Get(ctx, membershipListKey, &memberships); err == nil {
		return memberships, nil
	}

	v, err, _ := r.group.Do(membershipListKey, func() (interface{}, error) {
		result, err := r.store.List(ctx)
		if err != nil {
			return nil, err
		}
		// Store in cache (ignore cache errors)
		_ = r.cache.Set(ctx, membershipListKey, result, r.ttl)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Membership), nil
}

// CachedMembershipPeriodRepository wraps a MembershipPeriodRepository with per-membership caching
type CachedMembershipPeriodRepository struct {
	store domain.MembershipPeriodRepository
	cache *RedisCacheRepository
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedMembershipPeriodRepository creates a new cached period repository
func NewCachedMembershipPeriodRepository(store domain.MembershipPeriodRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedMembershipPeriodRepository {
	if ttl <= 0 {
		ttl = defaultMembershipCacheTTL
	}
	return &CachedMembershipPeriodRepository{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

// CreateMany stores periods and invalidates the cached lists of their memberships
func (r *CachedMembershipPeriodRepository) CreateMany(ctx context.Context, periods []*domain.MembershipPeriod) error {
	if err := r.store.CreateMany(ctx, periods); err != nil {
		return err
	}

	seen := make(map[int64]bool)
	var keys []string
	for _, p := range periods {
		if !seen[p.MembershipID] {
			seen[p.MembershipID] = true
			keys = append(keys, periodCacheKey(p.MembershipID))
		}
	}
	_ = r.cache.Delete(ctx, keys...)
	return nil
}

// ListByMembership serves a membership's periods from cache when possible
func (r *CachedMembershipPeriodRepository) ListByMembership(ctx context.Context, membershipID int64) ([]*domain.MembershipPeriod, error) {
	key := periodCacheKey(membershipID)

	var periods []*domain.MembershipPeriod
	if err := r.cache.Get(ctx, key, &periods); err == nil {
		return periods, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		result, err := r.store.ListByMembership(ctx, membershipID)
		if err != nil {
			return nil, err
		}
		_ = r.cache.Set(ctx, key, result, r.ttl)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.MembershipPeriod), nil
}

func periodCacheKey(membershipID int64) string {
	return membershipPeriodKeyPrefix + strconv.FormatInt(membershipID, 10)
}
