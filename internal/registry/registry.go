// Package registry holds the in-memory session registry.
package registry

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

const shardCount = 32

type entry struct {
	record domain.SessionRecord
	seq    uint64
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]entry
}

// Registry maps session ids to dataset sources. Each key is guarded by its
// shard's lock, so independent sessions do not contend. It is process
// lifetime only.
type Registry struct {
	shards [shardCount]*shard
	seq    atomic.Uint64
	count  atomic.Int64
	now    func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{now: time.Now}
	for i := range r.shards {
		r.shards[i] = &shard{sessions: make(map[string]entry)}
	}
	return r
}

func (r *Registry) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return r.shards[h.Sum32()%shardCount]
}

// Create registers datasetSource under sessionID, generating a fresh id when
// sessionID is empty. Re-registering an existing id overwrites its source and
// keeps its original position in List.
func (r *Registry) Create(datasetSource, sessionID string) (string, error) {
	if strings.TrimSpace(datasetSource) == "" {
		return "", fmt.Errorf("dataset source is required")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s := r.shardFor(sessionID)
	now := r.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		existing.record.DatasetSource = datasetSource
		existing.record.UpdatedAt = now
		s.sessions[sessionID] = existing
		return sessionID, nil
	}
	s.sessions[sessionID] = entry{
		record: domain.SessionRecord{
			SessionID:     sessionID,
			DatasetSource: datasetSource,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		seq: r.seq.Add(1),
	}
	r.count.Add(1)
	return sessionID, nil
}

// Get returns the session record for sessionID.
func (r *Registry) Get(sessionID string) (domain.SessionRecord, bool) {
	s := r.shardFor(sessionID)
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	return e.record, ok
}

// Source returns the dataset source registered for sessionID.
func (r *Registry) Source(sessionID string) (string, bool) {
	rec, ok := r.Get(sessionID)
	return rec.DatasetSource, ok
}

// Delete removes sessionID and reports whether it existed.
func (r *Registry) Delete(sessionID string) bool {
	s := r.shardFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	r.count.Add(-1)
	return true
}

// List returns up to limit sessions in insertion order. A non-positive limit
// returns every session.
func (r *Registry) List(limit int) []domain.SessionRecord {
	var all []entry
	for _, s := range r.shards {
		s.mu.RLock()
		for _, e := range s.sessions {
			all = append(all, e)
		}
		s.mu.RUnlock()
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	records := make([]domain.SessionRecord, len(all))
	for i, e := range all {
		records[i] = e.record
	}
	return records
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Clear removes every session.
func (r *Registry) Clear() {
	for _, s := range r.shards {
		s.mu.Lock()
		r.count.Add(-int64(len(s.sessions)))
		s.sessions = make(map[string]entry)
		s.mu.Unlock()
	}
}
