package http

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"paperledger/internal/domain"
)

// MarketHandler handles quote-source token administration and instrument
// catalog refreshes. The core only ever sees the injected adapters; this
// handler is the one place runtime credential state changes.
type MarketHandler struct {
	quotes  domain.QuoteSource
	catalog domain.InstrumentCatalog
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(quotes domain.QuoteSource, catalog domain.InstrumentCatalog) *MarketHandler {
	return &MarketHandler{
		quotes:  quotes,
		catalog: catalog,
	}
}

// Status reports whether an access token is loaded
// GET /api/market/status
func (h *MarketHandler) Status(c echo.Context) error {
	token := os.Getenv("QUOTE_ACCESS_TOKEN")
	return SuccessResponse(c, map[string]interface{}{
		"access_token_loaded":  token != "",
		"access_token_preview": tokenPreview(token),
	})
}

// ReloadToken re-reads the access token from .env, swaps it into the quote
// client, and pulls a fresh instrument catalog
// POST /api/market/reload-token
func (h *MarketHandler) ReloadToken(c echo.Context) error {
	// Overload so an edited .env wins over the stale process environment.
	if err := godotenv.Overload(); err != nil {
		log.Printf("[WARN] .env not reloaded: %v", err)
	}

	token := os.Getenv("QUOTE_ACCESS_TOKEN")
	if token == "" {
		return BadRequestResponse(c, "QUOTE_ACCESS_TOKEN missing in .env")
	}

	h.quotes.Reload(token)

	catalogStatus := "refreshed"
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()
	if err := h.catalog.Refresh(ctx); err != nil {
		log.Printf("[WARN] Catalog refresh failed during token reload: %v", err)
		catalogStatus = "refresh failed"
	}

	return SuccessMessageResponse(c, "Access token reloaded", map[string]interface{}{
		"access_token_preview": tokenPreview(token),
		"instruments":          catalogStatus,
	})
}

// RefreshInstruments downloads the latest instrument catalog
// POST /api/market/refresh-instruments
func (h *MarketHandler) RefreshInstruments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	if err := h.catalog.Refresh(ctx); err != nil {
		log.Printf("ERROR: Manual catalog refresh failed: %v", err)
		return InternalServerErrorResponse(c, "Failed to refresh instruments")
	}

	return SuccessMessageResponse(c, "Instrument list updated", nil)
}

func tokenPreview(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 6 {
		return token + "..."
	}
	return token[:6] + "..."
}
