package repository

import (
	"context"
	"sync"
	"time"

	"policynav-backend/models"
)

// MemorySessionRepository keeps sessions in process memory. Sessions idle for
// longer than the TTL are treated as missing; a zero TTL keeps them forever.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionRepository creates an in-memory session repository
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a new session, replacing any previous one with the same id
func (r *MemorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	r.sessions[session.ID] = *session
	r.evictLocked(now)
	return nil
}

// GetByID returns a copy of the stored session
func (r *MemorySessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok || r.expired(session, r.now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Update overwrites an existing session
func (r *MemorySessionRepository) Update(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	existing, ok := r.sessions[session.ID]
	if !ok || r.expired(existing, now) {
		return ErrSessionNotFound
	}
	session.CreatedAt = existing.CreatedAt
	session.UpdatedAt = now
	r.sessions[session.ID] = *session
	return nil
}

// Delete removes a session; deleting a missing session is not an error
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) expired(s models.Session, now time.Time) bool {
	return r.ttl > 0 && now.Sub(s.UpdatedAt) > r.ttl
}

func (r *MemorySessionRepository) evictLocked(now time.Time) {
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
		}
	}
}
