package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/headless-pm/taskflow/internal/api"
	"github.com/headless-pm/taskflow/internal/auth"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/mailer"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/service"
	"github.com/headless-pm/taskflow/internal/storage"
	tokens "github.com/headless-pm/taskflow/pkg/auth"
	"github.com/headless-pm/taskflow/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to optional config file (overrides env vars)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	fileStorage, err := storage.NewFileStorage(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	secret, err := jwtSecret(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}
	tokenManager, err := tokens.NewTokenManager(secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize tokens: %v", err)
	}

	emailQueue := mailer.NewQueue(mailer.New(cfg.Email), cfg.Email.Workers)
	emailQueue.Start()
	defer emailQueue.Stop()

	notifier := service.NewNotifier(emailQueue)
	handler := api.NewHandler(api.Services{
		Projects:      service.NewProjectService(db, notifier),
		Tasks:         service.NewTaskService(db, fileStorage, notifier, models.TaskStatus(cfg.Workflow.ReviewStatus)),
		Tickets:       service.NewTicketService(db, fileStorage, notifier),
		Messages:      service.NewMessagingService(db),
		Notifications: service.NewNotificationService(db),
		Users:         service.NewUserService(db),
	}, tokenManager)

	router := api.SetupRouter(handler, auth.Middleware(db, tokenManager), cfg.Server.CORSOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("API endpoints: http://%s/api (requires authentication)", addr)
	log.Printf("Proof submissions move tasks to %q", cfg.Workflow.ReviewStatus)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// jwtSecret returns the configured secret, or a random one when none is set.
func jwtSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	log.Println("WARNING: JWT_SECRET not set. Generating a temporary secret; tokens will not survive a restart.")
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
