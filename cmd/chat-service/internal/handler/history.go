package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/service"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
)

type HistoryResponse struct {
	History []models.ChatMetadata `json:"history"`
}

type HistoryHandler struct {
	chats *service.ChatService
}

func NewHistoryHandler(chats *service.ChatService) *HistoryHandler {
	return &HistoryHandler{chats: chats}
}

// GetHistory handles GET /history: all chat metadata, most recent first.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{History: h.chats.GetHistory()})
}
