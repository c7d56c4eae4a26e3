package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/cadence/internal/ai"
	"github.com/hray3182/cadence/internal/api"
	"github.com/hray3182/cadence/internal/bot"
	"github.com/hray3182/cadence/internal/cache"
	"github.com/hray3182/cadence/internal/config"
	"github.com/hray3182/cadence/internal/database"
	"github.com/hray3182/cadence/internal/planner"
	"github.com/hray3182/cadence/internal/repository"
	"github.com/hray3182/cadence/internal/scheduler"
	"github.com/jmhodges/clock"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	clk := clock.New()
	userRepo := repository.NewUserRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	c := cache.New(cache.DefaultConfig, clk)
	defer c.Close()
	p := planner.New(reminderRepo, groupRepo, c, clk, cfg.Timezone)

	// Initialize AI client (optional)
	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, natural language input disabled")
	}

	tgAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram API: %v", err)
	}
	tgAPI.Debug = cfg.DevMode

	// Create and start scheduler
	sched := scheduler.New(tgAPI, reminderRepo, clk, cfg.Timezone, cfg.NotifySchedule)
	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	// HTTP API (optional)
	if cfg.APIToken != "" {
		if _, err := userRepo.GetByID(ctx, cfg.APIUserID); errors.Is(err, repository.ErrNotFound) {
			if _, err := userRepo.GetOrCreate(ctx, cfg.APIUserID, "api"); err != nil {
				log.Fatalf("Failed to register API user: %v", err)
			}
		} else if err != nil {
			log.Fatalf("Failed to look up API user: %v", err)
		}
		srv := api.New(p, cfg.APIToken, cfg.APIUserID)
		go func() {
			if err := srv.Run(ctx, cfg.HTTPListen); err != nil {
				log.Printf("HTTP API error: %v", err)
			}
		}()
	} else {
		log.Println("API_TOKEN not set, HTTP API disabled")
	}

	b := bot.New(tgAPI, userRepo, p, aiClient, cfg.DevMode)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Println("Starting bot...")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot error: %v", err)
	}
}
