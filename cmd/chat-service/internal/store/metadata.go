package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
)

const lockRetryDelay = 100 * time.Millisecond

// MetadataStore persists the chat_id -> metadata mapping in a single JSON
// file guarded by a cross-process file lock. Lock timeouts and write failures
// degrade softly: a timed-out Load returns an empty mapping and a failed Save
// drops the update, both logged. The lock serializes access to the file, not
// logical per-chat updates; concurrent load-mutate-save cycles can still
// clobber each other (last writer wins).
type MetadataStore struct {
	path        string
	lockTimeout time.Duration

	// One flock handle is shared by every request goroutine, so in-process
	// access has to be serialized around it.
	mu   sync.Mutex
	lock *flock.Flock
}

func NewMetadataStore(path, lockPath string, lockTimeout time.Duration) *MetadataStore {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &MetadataStore{
		path:        path,
		lockTimeout: lockTimeout,
		lock:        flock.New(lockPath),
	}
}

func (s *MetadataStore) acquire() bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		log.Printf("Timeout esperando lock para %s", s.path)
		return false
	}
	return true
}

// Load reads the full mapping. On lock timeout or unreadable content it
// returns an empty mapping, never nil.
func (s *MetadataStore) Load() map[string]models.ChatMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acquire() {
		return map[string]models.ChatMetadata{}
	}
	defer s.lock.Unlock()

	var loaded map[string]models.ChatMetadata
	if !ReadJSONFile(s.path, &loaded) || loaded == nil {
		return map[string]models.ChatMetadata{}
	}
	return loaded
}

// Save writes the full mapping. Failures are logged and the update is
// dropped; the caller gets no error signal.
func (s *MetadataStore) Save(metadata map[string]models.ChatMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.acquire() {
		return
	}
	defer s.lock.Unlock()

	if WriteJSONFile(s.path, metadata) {
		log.Printf("Metadata guardada en %s (%d chats)", s.path, len(metadata))
	}
}

func (s *MetadataStore) Get(chatID string) (models.ChatMetadata, bool) {
	meta, ok := s.Load()[chatID]
	return meta, ok
}

func (s *MetadataStore) Update(chatID string, meta models.ChatMetadata) {
	all := s.Load()
	all[chatID] = meta
	s.Save(all)
}

// Delete removes one entry. Returns false when the chat had no metadata.
func (s *MetadataStore) Delete(chatID string) bool {
	all := s.Load()
	if _, ok := all[chatID]; !ok {
		return false
	}
	delete(all, chatID)
	s.Save(all)
	return true
}
