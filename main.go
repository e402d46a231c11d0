package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/pepelbot/internal/bot"
	"github.com/example/pepelbot/internal/database"
	"github.com/example/pepelbot/internal/registry"
	"github.com/joho/godotenv"
)

func main() {
	// .env является необязательным
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключаемся к базе данных
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Registry is shared by the message handlers and the weekly broadcast
	reg := registry.New(database.NewSubscriberRepository())
	if err := reg.Load(ctx); err != nil {
		log.Fatalf("Failed to load user registry: %v", err)
	}
	log.Printf("Loaded %d registered users", reg.Len())

	b, err := bot.New(reg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	log.Println("ПепелВасилич запущен. Статистика пылает.")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped successfully")
}
