package state

import "context"

// TransactionScope runs operations against the current snapshot.
//
// Execute gives fn a private working copy. If fn returns nil the copy becomes
// the current snapshot; otherwise it is discarded and nothing is visible.
// View gives fn read access to the current snapshot; fn must not mutate it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(s *Snapshot) error) error
	View(ctx context.Context, fn func(s *Snapshot) error) error
}
