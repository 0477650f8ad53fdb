package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"paperledger/internal/delivery/http/dto"
	"paperledger/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PortfolioHandler handles portfolio-related requests
type PortfolioHandler struct {
	valuation domain.ValuationService
	positions domain.PositionService
	exporter  domain.ExportService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	valuation domain.ValuationService,
	positions domain.PositionService,
	exporter domain.ExportService,
) *PortfolioHandler {
	return &PortfolioHandler{
		valuation: valuation,
		positions: positions,
		exporter:  exporter,
	}
}

// GetPortfolio returns the user's cash and live-valued open positions
// GET /api/portfolio/:username
func (h *PortfolioHandler) GetPortfolio(c echo.Context) error {
	username := c.Param("username")

	// Generous bound: valuation polls the quote source once per symbol.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	valuation, err := h.valuation.Valuate(ctx, username)
	if err != nil {
		log.Printf("ERROR: Portfolio valuation failed for %s: %v", username, err)
		return InternalServerErrorResponse(c, "Server error in portfolio")
	}

	return c.JSON(http.StatusOK, dto.PortfolioResponse{
		Cash:   valuation.Cash,
		Open:   valuation.Open,
		Closed: []struct{}{},
	})
}

// Upload accepts a position workbook and appends/merges its rows
// POST /api/portfolio/:username/upload
func (h *PortfolioHandler) Upload(c echo.Context) error {
	username := c.Param("username")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return BadRequestResponse(c, "Missing upload file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Printf("ERROR: Failed to open upload for %s: %v", username, err)
		return InternalServerErrorResponse(c, "Upload failed")
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	count, err := h.positions.ImportWorkbook(ctx, username, src)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return BadRequestResponse(c, ve.Reason)
		}
		log.Printf("ERROR: Upload failed for %s: %v", username, err)
		return InternalServerErrorResponse(c, "Upload failed")
	}

	return c.JSON(http.StatusOK, dto.UploadResponse{Rows: count})
}

// Cancel closes a position and refunds its cost basis to cash
// POST /api/portfolio/:username/cancel/:symbol
func (h *PortfolioHandler) Cancel(c echo.Context) error {
	username := c.Param("username")
	symbol := c.Param("symbol")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	refund, err := h.positions.Cancel(ctx, username, symbol)
	if err != nil {
		if errors.Is(err, domain.ErrPositionNotFound) {
			return NotFoundResponse(c, "Position not found")
		}
		log.Printf("ERROR: Cancel failed for %s/%s: %v", username, symbol, err)
		return InternalServerErrorResponse(c, "Server error in cancel")
	}

	return c.JSON(http.StatusOK, dto.CancelResponse{
		Success: true,
		Refund:  refund,
	})
}

// Download streams the three-sheet upload workbook
// GET /api/portfolio/:username/download
func (h *PortfolioHandler) Download(c echo.Context) error {
	username := c.Param("username")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	data, err := h.exporter.ExportWorkbook(ctx, username)
	if err != nil {
		log.Printf("ERROR: Workbook export failed for %s: %v", username, err)
		return InternalServerErrorResponse(c, "Failed to generate workbook")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="Portfolio_upload_book_%s.xlsx"`, username))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
