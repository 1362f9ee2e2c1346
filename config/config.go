package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSystemPrompt is the canonical system message injected at the head of
// every transcript. Older stored prompts are rewritten to this on load.
const DefaultSystemPrompt = `Eres Synapse AI, un asistente inteligente, adaptable y profesional. Tu propósito es proporcionar ayuda útil, precisa y contextualmente apropiada a cada usuario.

Principios fundamentales:
- Analiza la intención real detrás de cada pregunta antes de responder.
- Adapta el nivel de detalle y el tono al contexto de la conversación.
- Si no sabes algo, dilo con claridad en lugar de inventar.
- Responde en el idioma en el que escribe el usuario.`

type AppConfig struct {
	ServerName  string `mapstructure:"server_name" yaml:"server_name"`
	Version     string `mapstructure:"version" yaml:"version"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`

	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	OpenAI  OpenAIConfig  `mapstructure:"openai" yaml:"openai"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Consul  ConsulConfig  `mapstructure:"consul" yaml:"consul"`
	CORS    CORSConfig    `mapstructure:"cors" yaml:"cors"`
}

type StorageConfig struct {
	DataDir     string        `mapstructure:"data_dir" yaml:"data_dir"`
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
}

// MetadataFile is the single mapping file shared by every conversation.
func (c StorageConfig) MetadataFile() string {
	return filepath.Join(c.DataDir, "chats_metadata.json")
}

func (c StorageConfig) LockFile() string {
	return filepath.Join(c.DataDir, "metadata.lock")
}

type OpenAIConfig struct {
	APIKey          string   `mapstructure:"api_key" yaml:"api_key"`
	BaseURL         string   `mapstructure:"base_url" yaml:"base_url"`
	ChatModel       string   `mapstructure:"chat_model" yaml:"chat_model"`
	TitleModel      string   `mapstructure:"title_model" yaml:"title_model"`
	SupportedModels []string `mapstructure:"supported_models" yaml:"supported_models"`

	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TopP             float64 `mapstructure:"top_p" yaml:"top_p"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty" yaml:"frequency_penalty"`
	PresencePenalty  float64 `mapstructure:"presence_penalty" yaml:"presence_penalty"`

	TitleTemperature float64 `mapstructure:"title_temperature" yaml:"title_temperature"`
	TitleMaxTokens   int     `mapstructure:"title_max_tokens" yaml:"title_max_tokens"`
}

// ValidateModel clamps the requested model to the supported list. Unknown
// values fall back to the configured chat model, never an error.
func (c OpenAIConfig) ValidateModel(model string) string {
	for _, m := range c.SupportedModels {
		if model == m {
			return model
		}
	}
	return c.ChatModel
}

type ChatConfig struct {
	SystemPrompt     string `mapstructure:"system_prompt" yaml:"system_prompt"`
	MaxContextLength int    `mapstructure:"max_context_length" yaml:"max_context_length"`
	MaxTitleLength   int    `mapstructure:"max_title_length" yaml:"max_title_length"`
	TitleMinMessages int    `mapstructure:"title_min_messages" yaml:"title_min_messages"`
	MaxMessageLength int    `mapstructure:"max_message_length" yaml:"max_message_length"`
	MinMessageLength int    `mapstructure:"min_message_length" yaml:"min_message_length"`
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	Address      string `mapstructure:"address" yaml:"address"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Password     string `mapstructure:"password" yaml:"password"`
	Database     int    `mapstructure:"database" yaml:"database"`
	RateLimitQPS int    `mapstructure:"rate_limit_qps" yaml:"rate_limit_qps"`
}

type ConsulConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Address    string `mapstructure:"address" yaml:"address"`
	Scheme     string `mapstructure:"scheme" yaml:"scheme"`
	Datacenter string `mapstructure:"datacenter" yaml:"datacenter"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins" yaml:"origins"`
}

func LoadConfig() (*AppConfig, error) {
	setDefaults()

	viper.SetConfigFile("config/config.yml")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional; defaults plus env are enough to run.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server_name", "chat-service")
	viper.SetDefault("version", "1.0.0")
	viper.SetDefault("environment", "development")
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", 5000)

	viper.SetDefault("storage.data_dir", "data/chats")
	viper.SetDefault("storage.lock_timeout", 5*time.Second)

	viper.SetDefault("openai.api_key", os.Getenv("OPENAI_APIKEY"))
	viper.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	viper.SetDefault("openai.title_model", "gpt-3.5-turbo")
	viper.SetDefault("openai.supported_models", []string{
		"gpt-3.5-turbo",
		"gpt-4o",
		"gpt-4",
		"gpt-4o-mini",
	})
	viper.SetDefault("openai.temperature", 0.6)
	viper.SetDefault("openai.max_tokens", 2000)
	viper.SetDefault("openai.top_p", 0.9)
	viper.SetDefault("openai.frequency_penalty", 0.1)
	viper.SetDefault("openai.presence_penalty", 0.1)
	viper.SetDefault("openai.title_temperature", 0.3)
	viper.SetDefault("openai.title_max_tokens", 20)

	viper.SetDefault("chat.system_prompt", DefaultSystemPrompt)
	viper.SetDefault("chat.max_context_length", 12)
	viper.SetDefault("chat.max_title_length", 40)
	viper.SetDefault("chat.title_min_messages", 5)
	viper.SetDefault("chat.max_message_length", 4000)
	viper.SetDefault("chat.min_message_length", 1)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.rate_limit_qps", 10)

	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.address", "localhost:8500")
	viper.SetDefault("consul.scheme", "http")
	viper.SetDefault("consul.datacenter", "dc1")

	viper.SetDefault("cors.origins", []string{"*"})
}
