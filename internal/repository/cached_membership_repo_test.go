package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMembershipStore struct {
	*MemoryMembershipRepository
	listCalls int
}

func (s *countingMembershipStore) List(ctx context.Context) ([]*domain.Membership, error) {
	s.listCalls++
	return s.MemoryMembershipRepository.List(ctx)
}

type countingPeriodStore struct {
	*MemoryMembershipPeriodRepository
	listCalls int
}

func (s *countingPeriodStore) ListByMembership(ctx context.Context, membershipID int64) ([]*domain.MembershipPeriod, error) {
	s.listCalls++
	return s.MemoryMembershipPeriodRepository.ListByMembership(ctx, membershipID)
}

func setupCache(t *testing.T) (*RedisCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheRepository(client), mr
}

func TestCachedMembershipRepository_ListIsCachedUntilCreate(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupCache(t)
	store := &countingMembershipStore{MemoryMembershipRepository: NewMemoryMembershipRepository()}
	repo := NewCachedMembershipRepository(store, cache, time.Minute)

	require.NoError(t, repo.Create(ctx, newMembership("first")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists(membershipListKey))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, "first", list[0].Name)
	assert.True(t, list[0].ValidFrom.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, repo.Create(ctx, newMembership("second")))
	assert.False(t, mr.Exists(membershipListKey))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, store.listCalls)
}

func TestCachedMembershipRepository_ExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupCache(t)
	store := &countingMembershipStore{MemoryMembershipRepository: NewMemoryMembershipRepository()}
	repo := NewCachedMembershipRepository(store, cache, 10*time.Second)

	_, err := repo.List(ctx)
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestCachedMembershipPeriodRepository(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupCache(t)
	store := &countingPeriodStore{MemoryMembershipPeriodRepository: NewMemoryMembershipPeriodRepository()}
	repo := NewCachedMembershipPeriodRepository(store, cache, time.Minute)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	periods, err := repo.ListByMembership(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, periods)
	assert.True(t, mr.Exists(periodCacheKey(7)))

	require.NoError(t, repo.CreateMany(ctx, []*domain.MembershipPeriod{
		{ID: 1, UUID: "p1", MembershipID: 7, Start: start, End: start.AddDate(0, 1, 0), State: domain.PeriodStatePlanned},
	}))
	assert.False(t, mr.Exists(periodCacheKey(7)))

	for i := 0; i < 3; i++ {
		periods, err = repo.ListByMembership(ctx, 7)
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.Equal(t, "p1", periods[0].UUID)
	}
	assert.Equal(t, 2, store.listCalls)
}

func TestRedisCacheRepository_InvalidateMemberships(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupCache(t)

	require.NoError(t, cache.Set(ctx, membershipListKey, []string{"x"}, time.Minute))
	require.NoError(t, cache.Set(ctx, periodCacheKey(1), []string{"y"}, time.Minute))
	require.NoError(t, cache.Set(ctx, periodCacheKey(2), []string{"z"}, time.Minute))
	require.NoError(t, cache.Set(ctx, "unrelated", "keep", time.Minute))

	require.NoError(t, cache.InvalidateMemberships(ctx))

	assert.False(t, mr.Exists(membershipListKey))
	assert.False(t, mr.Exists(periodCacheKey(1)))
	assert.False(t, mr.Exists(periodCacheKey(2)))
	assert.True(t, mr.Exists("unrelated"))

	var dest []string
	assert.ErrorIs(t, cache.Get(ctx, membershipListKey, &dest), ErrCacheMiss)
}
