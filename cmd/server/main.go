package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidechat/relay/internal/chat"
	"github.com/tidechat/relay/internal/server"
)

func main() {
	fmt.Println("Starting relay server...")

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	log.Printf("relay starting")
	log.Printf("  port:             %s", cfg.Port)
	log.Printf("  allowed_origins:  %v", cfg.AllowedOrigins)
	log.Printf("  max_message_size: %d", cfg.MaxMessageSize)
	log.Printf("  rate_limit:       %d per %s", cfg.RateLimitBurst, cfg.RateLimitRefill)

	registry := chat.NewRegistry()
	conversations := chat.NewConversationStore()
	router := chat.NewRouter(registry, conversations)

	hub := server.NewHub(router, cfg)
	go hub.Run()

	handlers := server.NewHandlers(hub, cfg)
	httpServer := server.CreateServer(cfg.Port, handlers.Routes())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			log.Printf("hub shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.StartServer(httpServer); err != nil {
		log.Fatal(err)
	}
}
