package memory

import (
	"context"
	"sync"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore is an in-memory implementation of driven.CredentialStore.
// Credentials are lost on restart, which forces a fresh login per process.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]domain.SessionCredential
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		creds: make(map[string]domain.SessionCredential),
	}
}

// Load retrieves the credential for a source. A missing credential is
// (nil, nil), not an error.
func (s *CredentialStore) Load(_ context.Context, source string) (*domain.SessionCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[source]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

// Save stores or replaces the credential for a source.
func (s *CredentialStore) Save(_ context.Context, source string, cred *domain.SessionCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[source] = *cred
	return nil
}
