package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/handler"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/middleware"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/service"
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store"
	"github.com/SergioCalderon101/Project-Synapse/config"
	"github.com/SergioCalderon101/Project-Synapse/pkg/registry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error cargando configuración: %v", err)
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	transcripts := store.NewTranscriptStore(cfg.Storage.DataDir, cfg.Chat.SystemPrompt)
	metadata := store.NewMetadataStore(cfg.Storage.MetadataFile(), cfg.Storage.LockFile(), cfg.Storage.LockTimeout)
	assistant := service.NewOpenAIService(cfg)
	chats := service.NewChatService(transcripts, metadata, assistant, cfg)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS.Origins))

	chatHandler := handler.NewChatHandler(chats, cfg)
	historyHandler := handler.NewHistoryHandler(chats)

	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":    "healthy",
				"service":   cfg.ServerName,
				"timestamp": time.Now(),
			})
		})
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		chat := api.Group("/chat")
		{
			// Only the chat surface is rate limited; the consul health
			// check must not count against the bucket.
			if cfg.Redis.Enabled {
				redisClient := redis.NewClient(&redis.Options{
					Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Address, cfg.Redis.Port),
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.Database,
				})
				chat.Use(middleware.RateLimit(redisClient, cfg.Redis.RateLimitQPS))
			}

			chat.POST("", chatHandler.CreateChat)
			chat.GET("/:chatId", chatHandler.LoadChat)
			chat.POST("/:chatId", chatHandler.SendMessage)
			chat.DELETE("/:chatId", chatHandler.DeleteChat)
		}

		api.GET("/history", historyHandler.GetHistory)
	}

	if cfg.Consul.Enabled {
		registerService(cfg)
	}

	log.Printf("Servicio %s v%s escuchando en %s:%d", cfg.ServerName, cfg.Version, cfg.Host, cfg.Port)
	log.Fatal(r.Run(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
}

func registerService(cfg *config.AppConfig) {
	localIP, err := registry.GetLocalIP()
	if err != nil {
		log.Printf("No se pudo obtener la IP local, se omite consul: %v", err)
		return
	}

	consulCfg := &registry.ConsulConfig{
		Address:    cfg.Consul.Address,
		Scheme:     cfg.Consul.Scheme,
		Datacenter: cfg.Consul.Datacenter,
	}
	serviceCfg := &registry.ServiceConfig{
		ID:      registry.GenerateServiceID(cfg.ServerName, cfg.Port),
		Name:    cfg.ServerName,
		Tags:    []string{cfg.ServerName, "api", "v1"},
		Address: localIP,
		Port:    cfg.Port,
		HealthCheck: &registry.HealthCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/api/v1/health", localIP, cfg.Port),
			Interval:                       10 * time.Second,
			Timeout:                        3 * time.Second,
			DeregisterCriticalServiceAfter: 30 * time.Second,
		},
	}

	manager, err := registry.NewServiceManager(consulCfg, serviceCfg)
	if err != nil {
		log.Printf("No se pudo inicializar consul, el servicio sigue sin registro: %v", err)
		return
	}
	if err := manager.Start(); err != nil {
		log.Printf("Registro en consul fallido: %v", err)
	}
}
