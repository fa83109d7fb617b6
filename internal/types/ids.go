package types

import "github.com/google/uuid"

// IdentityID represents a UUIDv7 identity identifier.
// String alias enables type safety while maintaining JSON string serialization.
type IdentityID string

// CycleID represents a UUIDv7 decision-cycle identifier, used to correlate
// logs and error reports belonging to one fetch-evaluate-transition pass.
type CycleID string

// NewIdentityID generates a UUIDv7 identity identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewIdentityID() IdentityID {
	return IdentityID(uuid.Must(uuid.NewV7()).String())
}

// NewCycleID generates a UUIDv7 decision-cycle identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewCycleID() CycleID {
	return CycleID(uuid.Must(uuid.NewV7()).String())
}

// ParseIdentityID validates and converts a string to IdentityID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseIdentityID(s string) (IdentityID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return IdentityID(s), nil
}
