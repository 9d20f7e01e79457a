package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/sirupsen/logrus"
)

const snapshotContentType = "application/json"

// ImportSummary reports what an import wrote
type ImportSummary struct {
	Memberships int
	Periods     int
	// IDMap maps membership IDs from the snapshot to the IDs assigned by storage
	IDMap map[int64]int64
}

// SnapshotService moves the membership store to and from JSON snapshots
type SnapshotService struct {
	memberships domain.MembershipRepository
	periods     domain.MembershipPeriodRepository
	tx          domain.Transactor
	clock       domain.Clock
	ids         domain.IDGenerator
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(
	memberships domain.MembershipRepository,
	periods domain.MembershipPeriodRepository,
	tx domain.Transactor,
	clock domain.Clock,
	ids domain.IDGenerator,
) *SnapshotService {
	if tx == nil {
		tx = domain.NoopTransactor{}
	}
	return &SnapshotService{
		memberships: memberships,
		periods:     periods,
		tx:          tx,
		clock:       clock,
		ids:         ids,
	}
}

// Export reads every membership and period into a snapshot
func (s *SnapshotService) Export(ctx context.Context) (*domain.MembershipSnapshot, error) {
	memberships, err := s.memberships.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	snapshot := &domain.MembershipSnapshot{
		ExportedAt:        s.clock.Now(),
		Memberships:       memberships,
		MembershipPeriods: []*domain.MembershipPeriod{},
	}
	for _, m := range memberships {
		periods, err := s.periods.ListByMembership(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list periods of membership %d: %w", m.ID, err)
		}
		snapshot.MembershipPeriods = append(snapshot.MembershipPeriods, periods...)
	}
	return snapshot, nil
}

// ExportTo writes the current store as a JSON snapshot under key and returns its URL
func (s *SnapshotService) ExportTo(ctx context.Context, files domain.FileRepository, key string) (string, error) {
	snapshot, err := s.Export(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	url, err := files.Upload(ctx, data, key, snapshotContentType)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"key":         key,
		"memberships": len(snapshot.Memberships),
		"periods":     len(snapshot.MembershipPeriods),
	}).Info("[Snapshot] exported")
	return url, nil
}

// DecodeSnapshot parses a JSON snapshot document
func DecodeSnapshot(data []byte) (*domain.MembershipSnapshot, error) {
	var snapshot domain.MembershipSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return &snapshot, nil
}

// ImportFrom downloads the snapshot stored under key and imports it
func (s *SnapshotService) ImportFrom(ctx context.Context, files domain.FileRepository, key string) (*ImportSummary, error) {
	data, err := files.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, snapshot)
}

// Import appends the snapshot's memberships in their original order.
// Storage assigns fresh sequential IDs; periods are re-pointed at the new IDs and keep their
// sequence numbers. Stored states are kept as recorded.
func (s *SnapshotService) Import(ctx context.Context, snapshot *domain.MembershipSnapshot) (*ImportSummary, error) {
	if err := checkSnapshot(snapshot); err != nil {
		return nil, err
	}

	summary := &ImportSummary{IDMap: make(map[int64]int64, len(snapshot.Memberships))}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, src := range snapshot.Memberships {
			m := *src
			if m.UUID == "" {
				m.UUID = s.ids.NewID()
			}
			if m.ValidUntil.IsZero() {
				m.ValidUntil = domain.CalculateValidUntil(m.ValidFrom, m.BillingPeriods, m.BillingInterval)
			}
			if m.State == "" {
				m.State = domain.ClassifyState(m.ValidFrom, m.ValidUntil, s.clock.Now())
			}
			if err := s.memberships.Create(ctx, &m); err != nil {
				return err
			}
			summary.IDMap[src.ID] = m.ID
			summary.Memberships++
		}

		var periods []*domain.MembershipPeriod
		for _, src := range snapshot.MembershipPeriods {
			p := *src
			p.MembershipID = summary.IDMap[src.MembershipID]
			if p.UUID == "" {
				p.UUID = s.ids.NewID()
			}
			if p.State == "" {
				p.State = domain.PeriodStatePlanned
			}
			periods = append(periods, &p)
		}
		if err := s.periods.CreateMany(ctx, periods); err != nil {
			return err
		}
		summary.Periods = len(periods)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import snapshot: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"memberships": summary.Memberships,
		"periods":     summary.Periods,
	}).Info("[Snapshot] imported")
	return summary, nil
}

func checkSnapshot(snapshot *domain.MembershipSnapshot) error {
	if snapshot == nil {
		return domain.ErrInvalidSnapshot
	}

	known := make(map[int64]bool, len(snapshot.Memberships))
	for _, m := range snapshot.Memberships {
		if m == nil || m.Name == "" {
			return fmt.Errorf("%w: membership without name", domain.ErrInvalidSnapshot)
		}
		if known[m.ID] {
			return fmt.Errorf("%w: duplicate membership id %d", domain.ErrInvalidSnapshot, m.ID)
		}
		known[m.ID] = true
	}
	for _, p := range snapshot.MembershipPeriods {
		if p == nil || !known[p.MembershipID] {
			return fmt.Errorf("%w: period references unknown membership", domain.ErrInvalidSnapshot)
		}
	}
	return nil
}
