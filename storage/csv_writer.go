package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"purehill-revenue/models"
	"purehill-revenue/utils"
)

// CSVWriter handles writing raw rate rows to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// WriteRawRates writes raw rows to the CSV file using the standard column header
func (w *CSVWriter) WriteRawRates(rates []*models.RawRate) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(rawColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rates {
		if err := writer.Write(rawValues(r)); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", r.HotelName, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.Info("Raw rates written to: %s (%d rows)", w.filePath, len(rates))
	return nil
}
