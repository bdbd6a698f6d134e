package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wenwu/saas-platform/panel-service/internal/config"
	"github.com/wenwu/saas-platform/panel-service/internal/db"
	"github.com/wenwu/saas-platform/panel-service/internal/http"
	"github.com/wenwu/saas-platform/panel-service/internal/repository"
	"github.com/wenwu/saas-platform/panel-service/internal/service"
)

func main() {
	log.Println("Starting Panel Service...")

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Run schema migrations before opening the pool
	if cfg.Database.Migrate {
		if err := db.Migrate(cfg, "migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize database
	pool, err := db.NewPool(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	nodeRepo := repository.NewNodeRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)
	serverRepo := repository.NewServerRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// Initialize services
	capacity := service.NewCapacityTracker(nodeRepo)
	ledger := service.NewLedgerService(txRepo)

	serverService := service.NewServerService(
		serverRepo,
		packageRepo,
		nodeRepo,
		capacity,
		ledger,
		activityRepo,
	)

	adminService := service.NewAdminService(
		userRepo,
		nodeRepo,
		packageRepo,
		serverRepo,
		ledger,
		activityRepo,
	)

	paymentService := service.NewPaymentService(paymentRepo, ledger, activityRepo)
	ticketService := service.NewTicketService(ticketRepo, activityRepo)
	statsService := service.NewStatsService(statsRepo, userRepo, serverRepo, ticketRepo)

	// Initialize HTTP server
	handler := http.NewHandler(
		serverService,
		adminService,
		ledger,
		paymentService,
		ticketService,
		statsService,
		activityRepo,
	)
	server := http.NewServer(cfg, handler)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("Server starting on %s", addr)
		if err := server.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server exited")
}
