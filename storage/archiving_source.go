package storage

import (
	"context"

	"purehill-revenue/models"
	"purehill-revenue/utils"
)

// ArchivingSource keeps a CSV copy of every batch its inner source yields.
// Archive failures are logged and never fail the fetch.
type ArchivingSource struct {
	inner  RawSource
	writer *CSVWriter
	logger *utils.Logger
}

var _ RawSource = (*ArchivingSource)(nil)

// NewArchivingSource wraps inner so that each successful batch is written to writer
func NewArchivingSource(inner RawSource, writer *CSVWriter, logger *utils.Logger) *ArchivingSource {
	return &ArchivingSource{inner: inner, writer: writer, logger: logger}
}

func (s *ArchivingSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	rates, err := s.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.writer.WriteRawRates(rates); err != nil {
		s.logger.Error("Failed to archive raw batch: %v", err)
	}
	return rates, nil
}
