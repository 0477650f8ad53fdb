package adapter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"paperledger/internal/domain"
)

// CSVInstrumentCatalog implements InstrumentCatalog backed by the daily
// instruments CSV published by the market-data feed. Refresh overwrites the
// local copy; readers always see the last successful download.
type CSVInstrumentCatalog struct {
	url        string
	path       string
	httpClient *http.Client
}

// NewInstrumentCatalog creates a new CSVInstrumentCatalog
func NewInstrumentCatalog(url, path string) *CSVInstrumentCatalog {
	return &CSVInstrumentCatalog{
		url:  url,
		path: path,
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // the full dump is a few MB
		},
	}
}

// Refresh downloads the latest instruments file and overwrites the local copy
func (c *CSVInstrumentCatalog) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create instruments request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("instruments download failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	tmp := c.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create instruments file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write instruments file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close instruments file: %w", err)
	}

	// Rename so readers never observe a half-written file.
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace instruments file: %w", err)
	}

	log.Printf("[OK] Instrument catalog updated: %s", c.path)
	return nil
}

// ReadAll returns all catalog rows, header row first
func (c *CSVInstrumentCatalog) ReadAll() ([][]string, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCatalogUnavailable
		}
		return nil, fmt.Errorf("failed to open instrument catalog: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // upstream rows are ragged on occasion

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse instrument catalog: %w", err)
	}
	return rows, nil
}
