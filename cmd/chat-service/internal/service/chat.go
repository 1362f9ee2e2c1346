package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
	"github.com/SergioCalderon101/Project-Synapse/config"
)

// DefaultTitle is the placeholder every new chat starts with. Automatic
// title generation only ever replaces this exact value.
const DefaultTitle = "Nuevo Chat"

var (
	ErrChatNotFound         = errors.New("chat no encontrado")
	ErrAssistantUnavailable = errors.New("asistente AI no disponible")
)

// Assistant is the external model-call collaborator.
type Assistant interface {
	ChatCompletion(ctx context.Context, messages []models.Message, model string) (string, error)
	GenerateTitle(ctx context.Context, messages []models.Message) (string, error)
}

// Chat is a loaded conversation as returned to callers: the context-limited
// message view plus its title.
type Chat struct {
	ChatID   string
	Messages []models.Message
	Title    string
}

// MessageResult is the outcome of processing one user message.
type MessageResult struct {
	Reply     string
	Timestamp string
	NewTitle  string // empty when the title did not change
}

// ChatService orchestrates the transcript store, the metadata store, the
// context window policy and the assistant collaborator.
type ChatService struct {
	transcripts *store.TranscriptStore
	metadata    *store.MetadataStore
	assistant   Assistant
	cfg         *config.AppConfig
}

func NewChatService(transcripts *store.TranscriptStore, metadata *store.MetadataStore, assistant Assistant, cfg *config.AppConfig) *ChatService {
	return &ChatService{
		transcripts: transcripts,
		metadata:    metadata,
		assistant:   assistant,
		cfg:         cfg,
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *ChatService) systemMessage() models.Message {
	return models.Message{Role: models.RoleSystem, Content: s.cfg.Chat.SystemPrompt}
}

// ensureSystemMessage guarantees the transcript starts with the configured
// system prompt, inserting or rewriting it in place as needed.
func (s *ChatService) ensureSystemMessage(messages []models.Message) []models.Message {
	if len(messages) == 0 || messages[0].Role != models.RoleSystem {
		return append([]models.Message{s.systemMessage()}, messages...)
	}
	if messages[0].Content != s.cfg.Chat.SystemPrompt {
		messages[0].Content = s.cfg.Chat.SystemPrompt
	}
	return messages
}

// CreateChat starts a new conversation: a fresh UUID, a one-message
// transcript and a metadata record. The two writes are independent, not
// transactional; persistence failures are logged by the stores.
func (s *ChatService) CreateChat() *Chat {
	chatID := uuid.New().String()
	messages := []models.Message{s.systemMessage()}

	s.transcripts.Save(chatID, messages)

	now := nowISO()
	s.metadata.Update(chatID, models.ChatMetadata{
		ID:          chatID,
		Title:       DefaultTitle,
		CreatedAt:   now,
		LastUpdated: now,
	})

	log.Printf("Nuevo chat creado: %s", chatID)
	return &Chat{ChatID: chatID, Messages: messages, Title: DefaultTitle}
}

// GetChat loads a conversation. The returned view is system-normalized and
// context-limited. A missing metadata entry falls back to a placeholder
// title instead of failing.
func (s *ChatService) GetChat(chatID string) (*Chat, bool) {
	messages, ok := s.transcripts.Load(chatID)
	if !ok {
		return nil, false
	}

	messages = s.ensureSystemMessage(messages)
	messages = ApplyContextLimit(messages, s.cfg.Chat.MaxContextLength)

	title := placeholderTitle(chatID)
	if meta, ok := s.metadata.Get(chatID); ok {
		title = meta.Title
	}

	return &Chat{ChatID: chatID, Messages: messages, Title: title}, true
}

func placeholderTitle(chatID string) string {
	if len(chatID) > 8 {
		chatID = chatID[:8]
	}
	return fmt.Sprintf("Chat %s...", chatID)
}

// GetHistory returns all chat metadata, most recently updated first.
func (s *ChatService) GetHistory() []models.ChatMetadata {
	metadata := s.metadata.Load()
	history := make([]models.ChatMetadata, 0, len(metadata))
	for _, meta := range metadata {
		history = append(history, meta)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].LastUpdated > history[j].LastUpdated
	})
	return history
}

// DeleteChat removes the transcript file and the metadata entry. Each
// deletion is attempted independently; either one succeeding counts as
// success, both absent is not-found.
func (s *ChatService) DeleteChat(chatID string) bool {
	metadataDeleted := s.metadata.Delete(chatID)
	fileDeleted := s.transcripts.Delete(chatID)

	if metadataDeleted || fileDeleted {
		log.Printf("Chat %s eliminado.", chatID)
		return true
	}
	return false
}

// ProcessMessage runs the core workflow: append the user message, call the
// assistant with the context-limited window, append the reply to the full
// transcript, refresh metadata (generating a title when due) and persist.
// Persistence failures are logged but do not block the reply; the in-memory
// result is authoritative for the response.
func (s *ChatService) ProcessMessage(ctx context.Context, chatID, userMessage, model string) (*MessageResult, error) {
	messages, ok := s.transcripts.Load(chatID)
	if !ok {
		log.Printf("Chat inexistente o corrupto: %s", chatID)
		return nil, ErrChatNotFound
	}
	messages = s.ensureSystemMessage(messages)

	// The exchange outlives the HTTP request: a client disconnect does not
	// cancel an in-flight model call, and the reply is still persisted.
	ctx = context.WithoutCancel(ctx)

	validatedModel := s.cfg.OpenAI.ValidateModel(model)
	log.Printf("Procesando mensaje (chat: %s, modelo: %s)", chatID, validatedModel)

	messages = append(messages, models.Message{Role: models.RoleUser, Content: userMessage})

	window := ApplyContextLimit(messages, s.cfg.Chat.MaxContextLength)
	reply, err := s.assistant.ChatCompletion(ctx, window, validatedModel)
	if err != nil {
		log.Printf("Llamada API fallida (chat: %s): %v", chatID, err)
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	messages = append(messages, models.Message{Role: models.RoleAssistant, Content: reply})

	newTitle := s.updateTitleIfNeeded(ctx, chatID, messages)

	if !s.transcripts.Save(chatID, ApplyContextLimit(messages, s.cfg.Chat.MaxContextLength)) {
		log.Printf("Error guardando mensajes después de respuesta (chat: %s)", chatID)
	}

	log.Printf("Respuesta enviada (chat: %s, modelo: %s)", chatID, validatedModel)
	return &MessageResult{Reply: reply, Timestamp: nowISO(), NewTitle: newTitle}, nil
}

// updateTitleIfNeeded refreshes last_updated and, when the chat still has
// the placeholder title and enough history, asks the assistant for a real
// one. A failed or rejected title is silent; the placeholder stays for the
// next qualifying message.
func (s *ChatService) updateTitleIfNeeded(ctx context.Context, chatID string, messages []models.Message) string {
	meta, ok := s.metadata.Get(chatID)
	if !ok {
		log.Printf("Metadata no encontrada para %s", chatID)
		return ""
	}

	nonSystem := 0
	for _, m := range messages {
		if m.Role != models.RoleSystem {
			nonSystem++
		}
	}

	var newTitle string
	if meta.Title == DefaultTitle && nonSystem >= s.cfg.Chat.TitleMinMessages-1 {
		log.Printf("Generando título para chat %s...", chatID)
		title, err := s.assistant.GenerateTitle(ctx, messages)
		if err != nil || title == "" {
			log.Printf("Fallo al generar título para %s", chatID)
		} else {
			meta.Title = title
			newTitle = title
		}
	}

	meta.LastUpdated = nowISO()
	s.metadata.Update(chatID, meta)
	return newTitle
}
