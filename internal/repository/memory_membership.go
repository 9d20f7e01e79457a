package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mansoorceksport/memberships/internal/domain"
)

// MemoryMembershipRepository implements domain.MembershipRepository with an insertion-ordered map
type MemoryMembershipRepository struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	byID   map[int64]*domain.Membership
}

// NewMemoryMembershipRepository creates an empty in-memory membership store
func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{
		byID: make(map[int64]*domain.Membership),
	}
}

// Create assigns the next sequential ID and appends the membership under a single lock
func (r *MemoryMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	membership.ID = r.nextID
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now().UTC()
	}

	stored := *membership
	r.byID[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *MemoryMembershipRepository) GetByID(ctx context.Context, id int64) (*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (r *MemoryMembershipRepository) List(ctx context.Context) ([]*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := make([]*domain.Membership, 0, len(r.order))
	for _, id := range r.order {
		m := *r.byID[id]
		memberships = append(memberships, &m)
	}
	return memberships, nil
}

// MemoryMembershipPeriodRepository implements domain.MembershipPeriodRepository in memory
type MemoryMembershipPeriodRepository struct {
	mu           sync.RWMutex
	byMembership map[int64][]*domain.MembershipPeriod
}

// NewMemoryMembershipPeriodRepository creates an empty in-memory period store
func NewMemoryMembershipPeriodRepository() *MemoryMembershipPeriodRepository {
	return &MemoryMembershipPeriodRepository{
		byMembership: make(map[int64][]*domain.MembershipPeriod),
	}
}

func (r *MemoryMembershipPeriodRepository) CreateMany(ctx context.Context, periods []*domain.MembershipPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range periods {
		stored := *p
		r.byMembership[p.MembershipID] = append(r.byMembership[p.MembershipID], &stored)
	}
	return nil
}

func (r *MemoryMembershipPeriodRepository) ListByMembership(ctx context.Context, membershipID int64) ([]*domain.MembershipPeriod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byMembership[membershipID]
	periods := make([]*domain.MembershipPeriod, 0, len(stored))
	for _, p := range stored {
		out := *p
		periods = append(periods, &out)
	}
	return periods, nil
}
