// Package store defines the organization-scoped persistence boundary.
// Every operation takes the owning orgID as an explicit parameter; no
// implementation may resolve data across organizations.
package store

import "errors"

var (
	// ErrNotFound means no row matched within the given organization.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateHash means a credential insert collided with an existing
	// secret hash in the same organization.
	ErrDuplicateHash = errors.New("duplicate secret hash")
)
