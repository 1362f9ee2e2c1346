package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/service"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
	"github.com/SergioCalderon101/Project-Synapse/config"
)

type fakeAssistant struct {
	reply    string
	replyErr error
	title    string
	titleErr error
}

func (f *fakeAssistant) ChatCompletion(_ context.Context, _ []models.Message, _ string) (string, error) {
	return f.reply, f.replyErr
}

func (f *fakeAssistant) GenerateTitle(_ context.Context, _ []models.Message) (string, error) {
	return f.title, f.titleErr
}

func newTestRouter(t *testing.T, fake *fakeAssistant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.AppConfig{
		OpenAI: config.OpenAIConfig{
			ChatModel:       "gpt-3.5-turbo",
			TitleModel:      "gpt-3.5-turbo",
			SupportedModels: []string{"gpt-3.5-turbo", "gpt-4o"},
		},
		Chat: config.ChatConfig{
			SystemPrompt:     "Eres un asistente de prueba.",
			MaxContextLength: 12,
			MaxTitleLength:   40,
			TitleMinMessages: 5,
			MaxMessageLength: 4000,
			MinMessageLength: 1,
		},
	}

	transcripts := store.NewTranscriptStore(dir, cfg.Chat.SystemPrompt)
	metadata := store.NewMetadataStore(
		filepath.Join(dir, "chats_metadata.json"),
		filepath.Join(dir, "metadata.lock"),
		time.Second,
	)
	chats := service.NewChatService(transcripts, metadata, fake, cfg)

	chatHandler := NewChatHandler(chats, cfg)
	historyHandler := NewHistoryHandler(chats)

	r := gin.New()
	api := r.Group("/api/v1")
	chat := api.Group("/chat")
	{
		chat.POST("", chatHandler.CreateChat)
		chat.GET("/:chatId", chatHandler.LoadChat)
		chat.POST("/:chatId", chatHandler.SendMessage)
		chat.DELETE("/:chatId", chatHandler.DeleteChat)
	}
	api.GET("/history", historyHandler.GetHistory)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func createChat(t *testing.T, r *gin.Engine) ChatResponse {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/v1/chat", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /chat = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp ChatResponse
	decodeBody(t, w, &resp)
	return resp
}

func TestCreateChatEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "hola"})

	resp := createChat(t, r)
	if _, err := uuid.Parse(resp.ChatID); err != nil {
		t.Errorf("chat_id %q is not a UUID: %v", resp.ChatID, err)
	}
	if resp.Title != service.DefaultTitle {
		t.Errorf("title = %q, want %q", resp.Title, service.DefaultTitle)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want one system message", resp.Messages)
	}
}

func TestLoadChatEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "hola"})
	created := createChat(t, r)

	w := doRequest(t, r, http.MethodGet, "/api/v1/chat/"+created.ChatID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /chat/:id = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp ChatResponse
	decodeBody(t, w, &resp)
	if resp.ChatID != created.ChatID {
		t.Errorf("chat_id = %q, want %q", resp.ChatID, created.ChatID)
	}
}

func TestLoadChatInvalidID(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{})
	w := doRequest(t, r, http.MethodGet, "/api/v1/chat/no-es-un-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("GET with bad id = %d, want 400", w.Code)
	}
}

func TestLoadChatNotFound(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{})
	w := doRequest(t, r, http.MethodGet, "/api/v1/chat/"+uuid.New().String(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET missing chat = %d, want 404", w.Code)
	}
}

func TestSendMessageEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "respuesta de prueba"})
	created := createChat(t, r)

	w := doRequest(t, r, http.MethodPost, "/api/v1/chat/"+created.ChatID,
		SendMessageRequest{Mensaje: "hola", Modelo: "gpt-4o"})
	if w.Code != http.StatusOK {
		t.Fatalf("POST message = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp SendMessageResponse
	decodeBody(t, w, &resp)
	if resp.Respuesta != "respuesta de prueba" {
		t.Errorf("respuesta = %q", resp.Respuesta)
	}
	if resp.Timestamp == "" {
		t.Error("timestamp missing")
	}
	if resp.NewTitle != "" {
		t.Errorf("new_title = %q on first exchange, want empty", resp.NewTitle)
	}
}

func TestSendMessageValidation(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "hola"})
	created := createChat(t, r)
	path := "/api/v1/chat/" + created.ChatID

	tests := []struct {
		name     string
		body     SendMessageRequest
		wantCode int
		wantErr  string
	}{
		{"empty message", SendMessageRequest{Mensaje: ""}, http.StatusBadRequest, "Mensaje vacío."},
		{"whitespace only", SendMessageRequest{Mensaje: "   "}, http.StatusBadRequest, "Mensaje vacío."},
		{"too long", SendMessageRequest{Mensaje: strings.Repeat("a", 4001)}, http.StatusBadRequest, "Mensaje demasiado largo. Máximo 4000 caracteres."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, path, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			decodeBody(t, w, &body)
			if body["error"] != tt.wantErr {
				t.Errorf("error = %q, want %q", body["error"], tt.wantErr)
			}
		})
	}
}

func TestSendMessageBadJSON(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{})
	created := createChat(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/"+created.ChatID,
		strings.NewReader("{mensaje sin comillas}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON = %d, want 400", w.Code)
	}
}

func TestSendMessageChatNotFound(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "hola"})
	w := doRequest(t, r, http.MethodPost, "/api/v1/chat/"+uuid.New().String(),
		SendMessageRequest{Mensaje: "hola"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST to missing chat = %d, want 404", w.Code)
	}
}

func TestSendMessageAssistantDown(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{replyErr: fmt.Errorf("timeout")})
	created := createChat(t, r)

	w := doRequest(t, r, http.MethodPost, "/api/v1/chat/"+created.ChatID,
		SendMessageRequest{Mensaje: "hola"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("assistant failure = %d, want 503", w.Code)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["error"] != "Error contactando asistente AI." {
		t.Errorf("error = %q", body["error"])
	}
}

func TestDeleteChatEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{})
	created := createChat(t, r)
	path := "/api/v1/chat/" + created.ChatID

	w := doRequest(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE = %d, want 200: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decodeBody(t, w, &body)
	want := fmt.Sprintf("Chat %s eliminado.", created.ChatID)
	if body["message"] != want {
		t.Errorf("message = %q, want %q", body["message"], want)
	}

	// Already gone.
	w = doRequest(t, r, http.MethodDelete, path, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second DELETE = %d, want 404", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeAssistant{reply: "hola"})

	first := createChat(t, r)
	second := createChat(t, r)

	w := doRequest(t, r, http.MethodGet, "/api/v1/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /history = %d, want 200", w.Code)
	}
	var resp HistoryResponse
	decodeBody(t, w, &resp)
	if len(resp.History) != 2 {
		t.Fatalf("history has %d entries, want 2", len(resp.History))
	}
	ids := map[string]bool{resp.History[0].ID: true, resp.History[1].ID: true}
	if !ids[first.ChatID] || !ids[second.ChatID] {
		t.Errorf("history ids = %v, want both created chats", ids)
	}
}
