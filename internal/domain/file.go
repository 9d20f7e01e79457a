package domain

import (
	"context"
	"time"
)

// FileRepository defines the interface for object storage of membership snapshots
type FileRepository interface {
	// Upload saves a file and returns its access URL
	Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error)
	// Download returns the content stored under filename, or ErrNotFound
	Download(ctx context.Context, filename string) ([]byte, error)
}

// MembershipSnapshot is the JSON document layout used to import and export the store.
// Periods reference memberships by the membership ID inside the same snapshot.
type MembershipSnapshot struct {
	ExportedAt        time.Time           `json:"exportedAt,omitempty"`
	Memberships       []*Membership       `json:"memberships"`
	MembershipPeriods []*MembershipPeriod `json:"membershipPeriods"`
}
