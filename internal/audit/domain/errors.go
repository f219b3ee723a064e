package domain

import (
	"github.com/allisson/compliance/internal/errors"
)

// Audit trail errors.
var (
	// ErrEntryNotFound indicates an entry with the specified ID was not found.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "audit entry not found")
)
