package matchmaking

import (
	"sort"
	"sync"
	"time"

	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

type bucketKey struct {
	Mode        entities.GameMode
	TimeControl string
}

// bucket holds the live entries for one (mode, timeControl) pair. The
// lock is a one-slot semaphore so acquisition can time out; everything
// that mutates entries holds it, which is what makes pairing atomic:
// an entry visible to one pass cannot be committed by another.
type bucket struct {
	key     bucketKey
	sem     chan struct{}
	entries map[string]*entities.QueueEntry
}

func newBucket(key bucketKey) *bucket {
	return &bucket{
		key:     key,
		sem:     make(chan struct{}, 1),
		entries: make(map[string]*entities.QueueEntry),
	}
}

func (b *bucket) lock() { b.sem <- struct{}{} }

func (b *bucket) lockTimeout(d time.Duration) error {
	if d <= 0 {
		b.lock()
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	}
}

func (b *bucket) unlock() { <-b.sem }

// QueueStore is the single source of truth for who is waiting for
// what. Entries are keyed by userId with at most one live entry per
// user across all buckets.
//
// Lock order: bucket lock before umu, never the reverse. mu only
// guards the bucket map and is never held across a bucket lock wait.
type QueueStore struct {
	mu      sync.RWMutex
	buckets map[bucketKey]*bucket

	umu   sync.Mutex
	users map[string]bucketKey

	lockTimeout time.Duration
}

func NewQueueStore(lockTimeout time.Duration) *QueueStore {
	return &QueueStore{
		buckets:     make(map[bucketKey]*bucket),
		users:       make(map[string]bucketKey),
		lockTimeout: lockTimeout,
	}
}

func (s *QueueStore) getOrCreateBucket(key bucketKey) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[key]; ok {
		return b
	}
	b = newBucket(key)
	s.buckets[key] = b
	return b
}

func (s *QueueStore) bucketFor(key bucketKey) *bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets[key]
}

func (s *QueueStore) bucketKeys() []bucketKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]bucketKey, 0, len(s.buckets))
	for key := range s.buckets {
		keys = append(keys, key)
	}
	return keys
}

// Insert adds an entry, failing with ErrAlreadyQueued if the user has
// a live entry in any bucket.
func (s *QueueStore) Insert(entry entities.QueueEntry) error {
	b := s.getOrCreateBucket(bucketKey{entry.Mode, entry.TimeControl})
	if err := b.lockTimeout(s.lockTimeout); err != nil {
		return err
	}
	defer b.unlock()
	return s.insertLocked(b, entry)
}

// insertLocked requires b's lock to be held.
func (s *QueueStore) insertLocked(b *bucket, entry entities.QueueEntry) error {
	s.umu.Lock()
	if _, exists := s.users[entry.UserId]; exists {
		s.umu.Unlock()
		return ErrAlreadyQueued
	}
	s.users[entry.UserId] = b.key
	s.umu.Unlock()

	stored := entry
	b.entries[entry.UserId] = &stored
	return nil
}

// reinsertBlocking restores a reserved entry after a rollback. It
// waits for the bucket lock instead of timing out: losing the entry
// here would drop the player from the queue.
func (s *QueueStore) reinsertBlocking(entry entities.QueueEntry) error {
	b := s.getOrCreateBucket(bucketKey{entry.Mode, entry.TimeControl})
	b.lock()
	defer b.unlock()
	return s.insertLocked(b, entry)
}

// Remove deletes the user's entry if present. Idempotent.
func (s *QueueStore) Remove(userId string) (entities.QueueEntry, bool) {
	for {
		s.umu.Lock()
		key, ok := s.users[userId]
		s.umu.Unlock()
		if !ok {
			return entities.QueueEntry{}, false
		}

		b := s.bucketFor(key)
		if b == nil {
			return entities.QueueEntry{}, false
		}
		b.lock()
		// The entry may have been paired or moved between the index
		// read and taking the bucket lock; re-check and retry.
		entry, ok := b.entries[userId]
		if !ok {
			b.unlock()
			s.umu.Lock()
			stillHere := false
			if current, exists := s.users[userId]; exists && current == key {
				stillHere = true
			}
			s.umu.Unlock()
			if !stillHere {
				continue
			}
			return entities.QueueEntry{}, false
		}
		removed := *entry
		s.removeLocked(b, userId)
		b.unlock()
		return removed, true
	}
}

// removeLocked requires b's lock to be held.
func (s *QueueStore) removeLocked(b *bucket, userId string) {
	delete(b.entries, userId)
	s.umu.Lock()
	delete(s.users, userId)
	s.umu.Unlock()
}

// ExpandRadius grows the user's search radius. No-op if the entry is
// gone (already matched or left).
func (s *QueueStore) ExpandRadius(userId string, delta int) {
	s.umu.Lock()
	key, ok := s.users[userId]
	s.umu.Unlock()
	if !ok {
		return
	}
	b := s.bucketFor(key)
	if b == nil {
		return
	}
	b.lock()
	defer b.unlock()
	if entry, ok := b.entries[userId]; ok {
		entry.SearchRadius += delta
		entry.ExpansionCount++
	}
}

// Get returns a copy of the user's entry.
func (s *QueueStore) Get(userId string) (entities.QueueEntry, bool) {
	s.umu.Lock()
	key, ok := s.users[userId]
	s.umu.Unlock()
	if !ok {
		return entities.QueueEntry{}, false
	}
	b := s.bucketFor(key)
	if b == nil {
		return entities.QueueEntry{}, false
	}
	b.lock()
	defer b.unlock()
	entry, ok := b.entries[userId]
	if !ok {
		return entities.QueueEntry{}, false
	}
	return *entry, true
}

// Position returns the user's 1-based rank by queue age within their
// bucket, or 0 if absent.
func (s *QueueStore) Position(userId string) int {
	s.umu.Lock()
	key, ok := s.users[userId]
	s.umu.Unlock()
	if !ok {
		return 0
	}
	b := s.bucketFor(key)
	if b == nil {
		return 0
	}
	b.lock()
	defer b.unlock()
	entry, ok := b.entries[userId]
	if !ok {
		return 0
	}
	position := 1
	for _, other := range b.entries {
		if other.UserId != userId && other.QueuedAt.Before(entry.QueuedAt) {
			position++
		}
	}
	return position
}

// SnapshotBucket returns a point-in-time copy of a bucket's entries,
// oldest first.
func (s *QueueStore) SnapshotBucket(mode entities.GameMode, timeControl string) []entities.QueueEntry {
	b := s.bucketFor(bucketKey{mode, timeControl})
	if b == nil {
		return nil
	}
	b.lock()
	snapshot := make([]entities.QueueEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		snapshot = append(snapshot, *entry)
	}
	b.unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].QueuedAt.Before(snapshot[j].QueuedAt)
	})
	return snapshot
}

// Len reports the total number of live entries.
func (s *QueueStore) Len() int {
	s.umu.Lock()
	defer s.umu.Unlock()
	return len(s.users)
}

// entriesLocked returns the live entries of b oldest first. Requires
// b's lock to be held.
func (b *bucket) entriesLocked() []*entities.QueueEntry {
	entries := make([]*entities.QueueEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuedAt.Before(entries[j].QueuedAt)
	})
	return entries
}
