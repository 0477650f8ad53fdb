package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"paperledger/internal/domain"
)

const (
	sheetInstructions = "Instructions"
	sheetPortfolio    = "Portfolio"
	sheetInstruments  = "instruments"

	// Market segment stamped on every exported row. The re-upload template
	// defaults everything to BSE; users adjust in the sheet.
	defaultSegment = "BSE"
)

// instructionRows is the static help sheet shipped with every export.
var instructionRows = []string{
	"** Please search the script you want to manually add in the Instruments tab",
	"** Copy the tradingsymbol and paste in the Portfolio sheet",
	"** If the formulas in Name & Segment are not applied automatically, fill-down from the above cells",
	"** By default the segment would appear as BSE if the same symbol name is used in both BSE or NSE",
	"** Greyed cells should not be updated or modified, only Yellow colored cells should be touched",
}

// portfolioHeader is the column layout of the re-upload template sheet.
var portfolioHeader = []interface{}{
	"Symbol", "Name", "Segment", "Qty", "Avg Price",
	"Entry Price", "Stoploss", "Target", "Live", "Investment",
}

// ExportService renders a user's holdings into the three-sheet upload
// workbook: static instructions, a re-upload template seeded from cost
// basis, and a dump of the instrument catalog.
type ExportService struct {
	portfolioRepo domain.PortfolioRepository
	catalog       domain.InstrumentCatalog
}

// NewExportService creates a new ExportService
func NewExportService(portfolioRepo domain.PortfolioRepository, catalog domain.InstrumentCatalog) *ExportService {
	return &ExportService{
		portfolioRepo: portfolioRepo,
		catalog:       catalog,
	}
}

// ExportWorkbook builds the workbook for one user. A missing instrument
// catalog degrades that one sheet to a placeholder row; it never fails the
// whole export.
func (s *ExportService) ExportWorkbook(ctx context.Context, username string) ([]byte, error) {
	positions, err := s.portfolioRepo.ListOpen(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeInstructions(f); err != nil {
		return nil, err
	}
	if err := s.writePortfolio(f, positions); err != nil {
		return nil, err
	}
	if err := s.writeInstruments(f); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeInstructions(f *excelize.File) error {
	// Reuse the default sheet so Instructions is the first tab.
	if err := f.SetSheetName("Sheet1", sheetInstructions); err != nil {
		return fmt.Errorf("failed to create instructions sheet: %w", err)
	}
	for i, line := range instructionRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build instructions cell: %w", err)
		}
		if err := f.SetCellStr(sheetInstructions, cell, line); err != nil {
			return fmt.Errorf("failed to write instructions: %w", err)
		}
	}
	return nil
}

// writePortfolio emits the re-upload template: entry and live price are both
// seeded from average cost, not current market value. This sheet round-trips
// through the import path, so it mirrors the import schema.
func (s *ExportService) writePortfolio(f *excelize.File, positions []*domain.Position) error {
	if _, err := f.NewSheet(sheetPortfolio); err != nil {
		return fmt.Errorf("failed to create portfolio sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetPortfolio, "A1", &portfolioHeader); err != nil {
		return fmt.Errorf("failed to write portfolio header: %w", err)
	}

	rowIdx := 2
	for _, pos := range positions {
		symbol := strings.ToUpper(strings.TrimSpace(pos.Symbol))
		if symbol == "" || pos.Qty <= 0 || !pos.AvgCost.IsPositive() {
			continue
		}

		avg := pos.AvgCost.InexactFloat64()
		row := []interface{}{
			symbol,
			"", // Name: enriched by the sheet's own formulas
			defaultSegment,
			pos.Qty,
			avg,
			avg, // Entry Price
			0,   // Stoploss
			0,   // Target
			avg, // Live
			pos.CostBasis().InexactFloat64(),
		}

		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return fmt.Errorf("failed to build portfolio cell: %w", err)
		}
		if err := f.SetSheetRow(sheetPortfolio, cell, &row); err != nil {
			return fmt.Errorf("failed to write portfolio row: %w", err)
		}
		rowIdx++
	}
	return nil
}

func (s *ExportService) writeInstruments(f *excelize.File) error {
	if _, err := f.NewSheet(sheetInstruments); err != nil {
		return fmt.Errorf("failed to create instruments sheet: %w", err)
	}

	rows, err := s.catalog.ReadAll()
	if err != nil {
		log.Printf("[WARN] Instrument catalog unavailable for export: %v", err)
		rows = [][]string{{"error"}, {"instrument catalog unavailable"}}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build instruments cell: %w", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetInstruments, cell, &values); err != nil {
			return fmt.Errorf("failed to write instruments row: %w", err)
		}
	}
	return nil
}
