package services

import "fmt"

// Owned is implemented by entities that only their owner may mutate.
type Owned interface {
	OwnerID() string
}

// authorizeOwner is the single ownership predicate applied before every product and
// order mutation.
func authorizeOwner(resource Owned, callerID string) error {
	if callerID == "" || resource.OwnerID() != callerID {
		return fmt.Errorf("user %q does not own the resource: %w", callerID, ErrForbidden)
	}
	return nil
}
