package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"purehill-revenue/models"
	"purehill-revenue/utils"
)

// CSVSource reads raw rate rows from a CSV export with a named header row
type CSVSource struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVSource creates a new CSVSource
func NewCSVSource(filePath string, logger *utils.Logger) *CSVSource {
	return &CSVSource{filePath: filePath, logger: logger}
}

var _ RawSource = (*CSVSource)(nil)

// Fetch reads the whole file. Any read or header problem fails the batch as a whole.
func (s *CSVSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer file.Close()

	rates, err := ReadRawCSV(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.filePath, err)
	}
	s.logger.Debug("Read %d raw rows from %s", len(rates), s.filePath)
	return rates, nil
}

// ReadRawCSV parses raw rows from r. Columns are located by header name, so order does not matter.
func ReadRawCSV(ctx context.Context, r io.Reader) ([]*models.RawRate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV: missing header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range rawColumns {
		if _, ok := pos[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing CSV columns: %s", strings.Join(missing, ", "))
	}

	field := func(rec []string, col string) string {
		i := pos[col]
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var rates []*models.RawRate
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rates = append(rates, &models.RawRate{
			HotelName:   field(rec, "hotel_name"),
			StayDate:    field(rec, "stay_date"),
			RoomType:    field(rec, "room_type"),
			Channel:     field(rec, "channel"),
			Price:       field(rec, "price"),
			CollectedAt: field(rec, "collected_at"),
		})
	}
	return rates, nil
}
