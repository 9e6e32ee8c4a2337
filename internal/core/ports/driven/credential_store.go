package driven

import (
	"context"

	"github.com/trailstone/osgraph/internal/core/domain"
)

// CredentialStore persists session credentials keyed by source id.
//
// Implementations must tolerate an empty, corrupt, or absent store: Load
// returns (nil, nil) in all of those cases so first-run and damaged-state
// behave as "no token yet", never as a fatal error.
type CredentialStore interface {
	// Load retrieves the credential for a source. A missing or unreadable
	// entry yields (nil, nil).
	Load(ctx context.Context, source string) (*domain.SessionCredential, error)

	// Save stores the credential for a source, replacing any previous one.
	Save(ctx context.Context, source string, cred *domain.SessionCredential) error
}
