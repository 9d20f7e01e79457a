package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mansoorceksport/memberships/internal/domain"
	"github.com/oklog/ulid/v2"
)

// Supported identifier formats
const (
	FormatUUID = "uuid"
	FormatULID = "ulid"
)

// UUIDGenerator issues random (version 4) UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// ULIDGenerator issues lexicographically sortable ULIDs
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}

// New returns the generator for format
func New(format string) (domain.IDGenerator, error) {
	switch strings.ToLower(format) {
	case "", FormatUUID:
		return UUIDGenerator{}, nil
	case FormatULID:
		return ULIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported id format %q", format)
	}
}
