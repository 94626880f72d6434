package store

import (
	"context"
	"sort"
	"sync"

	"marina/internal/approval/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
)

// InMemory keeps approval requests in a mutex-guarded map.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

// NewInMemory constructs an empty in-memory approval request store.
func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

// Create inserts a new request. Request IDs are assigned once at creation
// and never reused, so a duplicate insert is a conflict.
func (s *InMemory) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

// FindByID returns a copy of the request or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

// Update overwrites an existing request or returns ErrNotFound.
func (s *InMemory) Update(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

// List returns requests newest first, optionally filtered by status.
func (s *InMemory) List(_ context.Context, status *models.RequestStatus) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0, len(s.requests))
	for _, request := range s.requests {
		if status != nil && request.Status != *status {
			continue
		}
		copied := *request
		out = append(out, &copied)
	}
	sortNewestFirst(out)
	return out, nil
}

// Search returns one page of requests newest first, optionally filtered by
// status, along with the total match count. Pages are 1-based.
func (s *InMemory) Search(ctx context.Context, status *models.RequestStatus, page, perPage int) ([]*models.Request, int, error) {
	matches, err := s.List(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	total := len(matches)
	start := (page - 1) * perPage
	if start >= total {
		return []*models.Request{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func sortNewestFirst(requests []*models.Request) {
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID.String() < requests[j].ID.String()
		}
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}
