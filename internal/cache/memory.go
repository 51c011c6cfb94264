package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tubestats/tubestats/internal/models"
)

// Memory is a process-local Store. A zero TTL keeps entries until invalidated.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*models.Snapshot
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]*models.Snapshot),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, channelID string) (*models.Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.entries[channelID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if expired(snap.FetchedAt, m.ttl, m.now()) {
		m.mu.Lock()
		if cur, ok := m.entries[channelID]; ok && cur == snap {
			delete(m.entries, channelID)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return clone(snap), nil
}

func (m *Memory) Put(_ context.Context, channelID string, snap *models.Snapshot) error {
	m.mu.Lock()
	m.entries[channelID] = clone(snap)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, channelID string) error {
	m.mu.Lock()
	delete(m.entries, channelID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len reports the number of cached channels, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// clone copies the video slice so callers never share backing arrays with the cache.
func clone(snap *models.Snapshot) *models.Snapshot {
	cp := *snap
	cp.Videos = append([]models.VideoRecord(nil), snap.Videos...)
	return &cp
}
