package service

import (
	"context"
	"testing"

	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFiles struct {
	objects map[string][]byte
}

func (f *memoryFiles) Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error) {
	f.objects[filename] = file
	return "mem://" + filename, nil
}

func (f *memoryFiles) Download(ctx context.Context, filename string) ([]byte, error) {
	data, ok := f.objects[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func TestSnapshotService_ExportThenImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _, _ := newTestService()
	for _, in := range []domain.CreateMembershipInput{
		{Name: "Monthly", RecurringPrice: 30, PaymentMethod: "cash", BillingInterval: "monthly", BillingPeriods: 6, ValidFrom: "2024-01-01"},
		{Name: "Yearly", RecurringPrice: 300, BillingInterval: "yearly", BillingPeriods: 2, ValidFrom: "2022-03-01"},
	} {
		_, err := source.Create(ctx, in)
		require.NoError(t, err)
	}

	exporter := NewSnapshotService(source.memberships, source.periods, nil, domain.FixedClock(testNow), &sequenceIDs{})
	files := &memoryFiles{objects: map[string][]byte{}}

	url, err := exporter.ExportTo(ctx, files, "snapshots/latest.json")
	require.NoError(t, err)
	assert.Equal(t, "mem://snapshots/latest.json", url)

	// Target store already holds one membership, so imported IDs shift
	target, _, _ := newTestService()
	_, err = target.Create(ctx, domain.CreateMembershipInput{Name: "Existing", RecurringPrice: 10, BillingInterval: "monthly", BillingPeriods: 6})
	require.NoError(t, err)

	importer := NewSnapshotService(target.memberships, target.periods, nil, domain.FixedClock(testNow), &sequenceIDs{})
	summary, err := importer.ImportFrom(ctx, files, "snapshots/latest.json")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Memberships)
	assert.Equal(t, 8, summary.Periods)
	assert.Equal(t, map[int64]int64{1: 2, 2: 3}, summary.IDMap)

	want, err := source.List(ctx)
	require.NoError(t, err)
	got, err := target.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, row := range got[1:] {
		src := want[i]
		assert.Equal(t, src.Membership.UUID, row.Membership.UUID)
		assert.Equal(t, src.Membership.Name, row.Membership.Name)
		assert.Equal(t, src.Membership.State, row.Membership.State)
		assert.True(t, src.Membership.ValidUntil.Equal(row.Membership.ValidUntil))
		require.Len(t, row.Periods, len(src.Periods))
		for j, p := range row.Periods {
			assert.Equal(t, src.Periods[j].ID, p.ID)
			assert.Equal(t, src.Periods[j].UUID, p.UUID)
			assert.Equal(t, row.Membership.ID, p.MembershipID)
			assert.True(t, src.Periods[j].Start.Equal(p.Start))
		}
	}
}

func TestSnapshotService_ImportFillsDerivedFields(t *testing.T) {
	ctx := context.Background()
	svc, memberships, periods := newTestService()
	importer := NewSnapshotService(memberships, periods, nil, domain.FixedClock(testNow), &sequenceIDs{})

	// Layout of the legacy data files: no uuids, no validUntil, no state
	data := []byte(`{
		"memberships": [
			{"id": 1, "name": "Legacy", "user": 2000, "recurringPrice": 150, "paymentMethod": "creditCard",
			 "billingInterval": "monthly", "billingPeriods": 12, "validFrom": "2023-01-01T00:00:00Z"}
		],
		"membershipPeriods": [
			{"id": 1, "membershipId": 1, "start": "2023-01-01T00:00:00Z", "end": "2023-02-01T00:00:00Z"}
		]
	}`)
	snapshot, err := DecodeSnapshot(data)
	require.NoError(t, err)

	_, err = importer.Import(ctx, snapshot)
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	m := rows[0].Membership
	assert.NotEmpty(t, m.UUID)
	assert.Equal(t, "2024-01-01T00:00:00Z", m.ValidUntil.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, domain.MembershipStateExpired, m.State)
	require.Len(t, rows[0].Periods, 1)
	assert.Equal(t, domain.PeriodStatePlanned, rows[0].Periods[0].State)
	assert.NotEmpty(t, rows[0].Periods[0].UUID)
}

func TestSnapshotService_RejectsInconsistentSnapshots(t *testing.T) {
	ctx := context.Background()
	_, memberships, periods := newTestService()
	importer := NewSnapshotService(memberships, periods, nil, domain.FixedClock(testNow), &sequenceIDs{})

	tests := []struct {
		name     string
		snapshot *domain.MembershipSnapshot
	}{
		{"nil", nil},
		{"orphan period", &domain.MembershipSnapshot{
			Memberships:       []*domain.Membership{{ID: 1, Name: "A"}},
			MembershipPeriods: []*domain.MembershipPeriod{{ID: 1, MembershipID: 2}},
		}},
		{"duplicate ids", &domain.MembershipSnapshot{
			Memberships: []*domain.Membership{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}},
		}},
		{"nameless membership", &domain.MembershipSnapshot{
			Memberships: []*domain.Membership{{ID: 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.Import(ctx, tt.snapshot)
			assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
		})
	}

	list, err := memberships.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDecodeSnapshot_InvalidJSON(t *testing.T) {
	_, err := DecodeSnapshot([]byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestSnapshotService_ImportFromMissingKey(t *testing.T) {
	_, memberships, periods := newTestService()
	importer := NewSnapshotService(memberships, periods, nil, domain.FixedClock(testNow), &sequenceIDs{})

	_, err := importer.ImportFrom(context.Background(), &memoryFiles{objects: map[string][]byte{}}, "missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
