package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"paperledger/configs"
	"paperledger/internal/adapter"
	"paperledger/internal/database"
	delivery "paperledger/internal/delivery/http"
	"paperledger/internal/infra"
	"paperledger/internal/repository"
	"paperledger/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Monetary fields serialize as JSON numbers, matching the API contract.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := configs.Load()
	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)

	// Initialize adapters
	quotes := adapter.NewQuoteClient(
		cfg.Quotes.BaseURL,
		cfg.Quotes.AccessToken,
		time.Duration(cfg.Quotes.TimeoutSeconds)*time.Second,
	)
	catalog := adapter.NewInstrumentCatalog(cfg.Catalog.URL, cfg.Catalog.Path)

	// Initialize services
	valuationService := service.NewValuationService(
		portfolioRepo, userRepo, quotes,
		time.Duration(cfg.Quotes.TimeoutSeconds)*time.Second,
	)
	positionService := service.NewPositionService(portfolioRepo)
	exportService := service.NewExportService(portfolioRepo, catalog)

	startingCash, err := decimal.NewFromString(cfg.Ledger.StartingCash)
	if err != nil {
		log.Fatalf("Invalid STARTING_CASH %q: %v", cfg.Ledger.StartingCash, err)
	}

	// Initialize catalog refresh scheduler
	scheduler := infra.NewScheduler(catalog, cfg.Catalog.RefreshCron)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:      delivery.NewAuthHandler(userRepo, startingCash),
		PortfolioHandler: delivery.NewPortfolioHandler(valuationService, positionService, exportService),
		MarketHandler:    delivery.NewMarketHandler(quotes, catalog),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Paperledger starting on %s [env: %s]", addr, cfg.Server.Env)
	log.Printf("Quote source: %s (timeout %ds)", cfg.Quotes.BaseURL, cfg.Quotes.TimeoutSeconds)

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
