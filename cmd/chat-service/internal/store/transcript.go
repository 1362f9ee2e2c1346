package store

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
)

// TranscriptStore keeps one JSON file per conversation, named {chat_id}.json,
// holding the ordered message list. Transcript files carry no lock of their
// own; concurrent writers to the same chat race with last-write-wins.
type TranscriptStore struct {
	dir          string
	systemPrompt string
}

func NewTranscriptStore(dir, systemPrompt string) *TranscriptStore {
	return &TranscriptStore{dir: dir, systemPrompt: systemPrompt}
}

func (s *TranscriptStore) filePath(chatID string) string {
	return filepath.Join(s.dir, chatID+".json")
}

// Load returns the stored messages for a chat. Missing files, non-list
// documents, messages with an unknown role and user/assistant messages
// without content all surface as absent. A stored empty list is normalized
// to a single system message instead.
func (s *TranscriptStore) Load(chatID string) ([]models.Message, bool) {
	var messages []models.Message
	if !ReadJSONFile(s.filePath(chatID), &messages) {
		return nil, false
	}

	if len(messages) == 0 {
		return []models.Message{{Role: models.RoleSystem, Content: s.systemPrompt}}, true
	}

	for i, m := range messages {
		if !m.Role.Valid() {
			log.Printf("Chat %s corrupto: mensaje %d con role inválido %q", chatID, i, m.Role)
			return nil, false
		}
		// The system message gets its content rewritten on load; every
		// other message must carry some.
		if m.Role != models.RoleSystem && m.Content == "" {
			log.Printf("Chat %s corrupto: mensaje %d sin contenido", chatID, i)
			return nil, false
		}
	}
	return messages, true
}

// Save writes the message list verbatim; normalization is the caller's job.
func (s *TranscriptStore) Save(chatID string, messages []models.Message) bool {
	return WriteJSONFile(s.filePath(chatID), messages)
}

// Delete removes the transcript file. Returns false if it did not exist.
func (s *TranscriptStore) Delete(chatID string) bool {
	path := s.filePath(chatID)
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Error eliminando archivo %s: %v", path, err)
		}
		return false
	}
	log.Printf("Archivo eliminado: %s", path)
	return true
}

func (s *TranscriptStore) Exists(chatID string) bool {
	_, err := os.Stat(s.filePath(chatID))
	return err == nil
}
