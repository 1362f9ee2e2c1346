package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/service"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
	"github.com/SergioCalderon101/Project-Synapse/config"
)

type SendMessageRequest struct {
	Mensaje string `json:"mensaje"`
	Modelo  string `json:"modelo"`
}

// Validate trims the message and enforces the configured length bounds.
func (r *SendMessageRequest) Validate(minLength, maxLength int) error {
	r.Mensaje = strings.TrimSpace(r.Mensaje)
	if utf8.RuneCountInString(r.Mensaje) < minLength {
		return errors.New("Mensaje vacío.")
	}
	if utf8.RuneCountInString(r.Mensaje) > maxLength {
		return fmt.Errorf("Mensaje demasiado largo. Máximo %d caracteres.", maxLength)
	}
	return nil
}

type MessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ChatID   string            `json:"chat_id"`
	Messages []MessageResponse `json:"messages"`
	Title    string            `json:"title"`
}

type SendMessageResponse struct {
	Respuesta string `json:"respuesta"`
	Timestamp string `json:"timestamp"`
	NewTitle  string `json:"new_title,omitempty"`
}

func toMessageResponses(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type ChatHandler struct {
	chats *service.ChatService
	cfg   *config.AppConfig
}

func NewChatHandler(chats *service.ChatService, cfg *config.AppConfig) *ChatHandler {
	return &ChatHandler{chats: chats, cfg: cfg}
}

func validChatID(chatID string) bool {
	_, err := uuid.Parse(chatID)
	return err == nil
}

// CreateChat handles POST /chat.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	chat := h.chats.CreateChat()
	c.JSON(http.StatusCreated, ChatResponse{
		ChatID:   chat.ChatID,
		Messages: toMessageResponses(chat.Messages),
		Title:    chat.Title,
	})
}

// LoadChat handles GET /chat/:chatId.
func (h *ChatHandler) LoadChat(c *gin.Context) {
	chatID := c.Param("chatId")
	if !validChatID(chatID) {
		log.Printf("Chat ID inválido rechazado: %s", chatID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID inválido. Debe ser un UUID válido."})
		return
	}

	chat, ok := h.chats.GetChat(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Chat no encontrado: %s", chatID)})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		ChatID:   chat.ChatID,
		Messages: toMessageResponses(chat.Messages),
		Title:    chat.Title,
	})
}

// SendMessage handles POST /chat/:chatId.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID := c.Param("chatId")
	if !validChatID(chatID) {
		log.Printf("Chat ID inválido rechazado: %s", chatID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID inválido. Debe ser un UUID válido."})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("JSON inválido en request (chat: %s): %v", chatID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formato JSON inválido."})
		return
	}
	if err := req.Validate(h.cfg.Chat.MinMessageLength, h.cfg.Chat.MaxMessageLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.chats.ProcessMessage(c.Request.Context(), chatID, req.Mensaje, req.Modelo)
	if err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Chat no encontrado: %s", chatID)})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error contactando asistente AI."})
		return
	}

	c.JSON(http.StatusOK, SendMessageResponse{
		Respuesta: result.Reply,
		Timestamp: result.Timestamp,
		NewTitle:  result.NewTitle,
	})
}

// DeleteChat handles DELETE /chat/:chatId.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID := c.Param("chatId")
	if !validChatID(chatID) {
		log.Printf("Chat ID inválido rechazado: %s", chatID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID inválido. Debe ser un UUID válido."})
		return
	}

	if !h.chats.DeleteChat(chatID) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Chat no encontrado: %s", chatID)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Chat %s eliminado.", chatID)})
}
