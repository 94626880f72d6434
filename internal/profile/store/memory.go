package store

import (
	"context"
	"sync"

	"marina/internal/profile/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
)

// InMemoryBoatman keeps boatman profiles in a mutex-guarded map.
type InMemoryBoatman struct {
	mu        sync.RWMutex
	profiles  map[id.BoatmanID]*models.Boatman
	byAccount map[id.AccountID]id.BoatmanID
}

// NewInMemoryBoatman constructs an empty in-memory boatman store.
func NewInMemoryBoatman() *InMemoryBoatman {
	return &InMemoryBoatman{
		profiles:  make(map[id.BoatmanID]*models.Boatman),
		byAccount: make(map[id.AccountID]id.BoatmanID),
	}
}

// CreateIfAccountFree inserts the profile unless the owning account already
// has one, in which case it returns ErrAlreadyUsed.
func (s *InMemoryBoatman) CreateIfAccountFree(_ context.Context, profile *models.Boatman) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byAccount[profile.AccountID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	s.byAccount[profile.AccountID] = profile.ID
	return nil
}

// FindByID returns a copy of the profile or ErrNotFound.
func (s *InMemoryBoatman) FindByID(_ context.Context, boatmanID id.BoatmanID) (*models.Boatman, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[boatmanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

// FindByAccount returns the profile owned by the account or ErrNotFound.
func (s *InMemoryBoatman) FindByAccount(_ context.Context, accountID id.AccountID) (*models.Boatman, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	boatmanID, ok := s.byAccount[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.profiles[boatmanID]
	return &copied, nil
}

// Update overwrites an existing profile or returns ErrNotFound.
func (s *InMemoryBoatman) Update(_ context.Context, profile *models.Boatman) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

// InMemoryAgency keeps agency profiles in a mutex-guarded map.
type InMemoryAgency struct {
	mu        sync.RWMutex
	profiles  map[id.AgencyID]*models.Agency
	byAccount map[id.AccountID]id.AgencyID
}

// NewInMemoryAgency constructs an empty in-memory agency store.
func NewInMemoryAgency() *InMemoryAgency {
	return &InMemoryAgency{
		profiles:  make(map[id.AgencyID]*models.Agency),
		byAccount: make(map[id.AccountID]id.AgencyID),
	}
}

// CreateIfAccountFree inserts the profile unless the owning account already
// has one, in which case it returns ErrAlreadyUsed.
func (s *InMemoryAgency) CreateIfAccountFree(_ context.Context, profile *models.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byAccount[profile.AccountID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	s.byAccount[profile.AccountID] = profile.ID
	return nil
}

// FindByID returns a copy of the profile or ErrNotFound.
func (s *InMemoryAgency) FindByID(_ context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[agencyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

// FindByAccount returns the profile owned by the account or ErrNotFound.
func (s *InMemoryAgency) FindByAccount(_ context.Context, accountID id.AccountID) (*models.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agencyID, ok := s.byAccount[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.profiles[agencyID]
	return &copied, nil
}

// Update overwrites an existing profile or returns ErrNotFound.
func (s *InMemoryAgency) Update(_ context.Context, profile *models.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}
