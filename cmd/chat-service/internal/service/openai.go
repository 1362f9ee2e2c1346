package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
	"github.com/SergioCalderon101/Project-Synapse/config"
)

const (
	titleSystemPrompt = "Eres un experto en resumir conversaciones concisamente."
	genericTitle      = "conversación sobre"
	titleHistorySize  = 6
)

// OpenAIService talks to the Chat Completions API with two parameter sets:
// one for regular replies and a lower-temperature, short-output one for
// title synthesis.
type OpenAIService struct {
	client *openai.Client
	cfg    config.OpenAIConfig
	chat   config.ChatConfig
}

func NewOpenAIService(cfg *config.AppConfig) *OpenAIService {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg.OpenAI,
		chat:   cfg.Chat,
	}
}

func toChatMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func (s *OpenAIService) callAPI(ctx context.Context, req openai.ChatCompletionRequest, purpose string) (string, error) {
	log.Printf("Enviando %d mensajes a OpenAI (%s, modelo: %s)", len(req.Messages), purpose, req.Model)

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Printf("Error API OpenAI (%s, %s): %v", purpose, req.Model, err)
		return "", fmt.Errorf("openai (%s): %w", purpose, err)
	}

	if len(resp.Choices) == 0 {
		log.Printf("Respuesta inválida de OpenAI (%s, %s)", purpose, req.Model)
		return "", errors.New("respuesta vacía de OpenAI")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		log.Printf("Respuesta inválida de OpenAI (%s, %s)", purpose, req.Model)
		return "", errors.New("respuesta vacía de OpenAI")
	}
	return reply, nil
}

// ChatCompletion requests an assistant reply for the windowed message list.
func (s *OpenAIService) ChatCompletion(ctx context.Context, messages []models.Message, model string) (string, error) {
	return s.callAPI(ctx, openai.ChatCompletionRequest{
		Model:            model,
		Messages:         toChatMessages(messages),
		Temperature:      float32(s.cfg.Temperature),
		MaxTokens:        s.cfg.MaxTokens,
		TopP:             float32(s.cfg.TopP),
		FrequencyPenalty: float32(s.cfg.FrequencyPenalty),
		PresencePenalty:  float32(s.cfg.PresencePenalty),
	}, "chat")
}

// GenerateTitle synthesizes a short title from the last few user/assistant
// messages. It returns "" with a nil error when the model produced a title
// too short or too generic to keep; callers treat that as "no title".
func (s *OpenAIService) GenerateTitle(ctx context.Context, messages []models.Message) (string, error) {
	var relevant []models.Message
	for _, m := range messages {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			relevant = append(relevant, m)
		}
	}
	if len(relevant) > titleHistorySize {
		relevant = relevant[len(relevant)-titleHistorySize:]
	}
	if len(relevant) == 0 {
		log.Printf("No hay mensajes relevantes para generar título.")
		return "", nil
	}

	titleMessages := make([]models.Message, 0, len(relevant)+2)
	titleMessages = append(titleMessages, models.Message{
		Role:    models.RoleSystem,
		Content: titleSystemPrompt,
	})
	titleMessages = append(titleMessages, relevant...)
	titleMessages = append(titleMessages, models.Message{
		Role: models.RoleUser,
		Content: fmt.Sprintf(
			"Genera un título muy corto y descriptivo (máx ~5 palabras, %d chars) para esta conversación. Responde SOLO con el título.",
			s.chat.MaxTitleLength,
		),
	})

	raw, err := s.callAPI(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.TitleModel,
		Messages:    toChatMessages(titleMessages),
		Temperature: float32(s.cfg.TitleTemperature),
		MaxTokens:   s.cfg.TitleMaxTokens,
	}, "title")
	if err != nil {
		return "", err
	}

	title := cleanTitle(raw, s.chat.MaxTitleLength)
	if title == "" {
		log.Printf("Título rechazado: %q (genérico/corto)", raw)
		return "", nil
	}
	log.Printf("Título generado: %q", title)
	return title, nil
}

// cleanTitle strips quotes, truncates to maxLength runes and rejects titles
// that are too short or start with the generic filler phrase.
func cleanTitle(raw string, maxLength int) string {
	title := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if runes := []rune(title); len(runes) > maxLength {
		title = string(runes[:maxLength])
	}

	if utf8.RuneCountInString(title) <= 3 {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(title), genericTitle) {
		return ""
	}
	return title
}
