package ota

import (
	"context"
	"fmt"
	"time"

	"purehill-revenue/config"
	"purehill-revenue/models"
	"purehill-revenue/storage"
	"purehill-revenue/utils"

	"github.com/chromedp/chromedp"
)

// extractRowsJS collects every element tagged data-rate-row. Each row carries its values in
// children tagged data-field; a missing collected_at falls back to the page load time.
const extractRowsJS = `
	(function() {
		var rows = [];
		document.querySelectorAll('[data-rate-row]').forEach(function(row) {
			var rec = {};
			row.querySelectorAll('[data-field]').forEach(function(cell) {
				rec[cell.getAttribute('data-field')] = (cell.innerText || '').trim();
			});
			rows.push(rec);
		});
		return rows;
	})()
`

type rowData struct {
	HotelName   string `json:"hotel_name"`
	StayDate    string `json:"stay_date"`
	RoomType    string `json:"room_type"`
	Channel     string `json:"channel"`
	Price       string `json:"price"`
	CollectedAt string `json:"collected_at"`
}

// PageSource renders rate pages in a headless browser and reads the rate rows they contain.
// It only materializes a batch for the engine; scheduling and anti-bot handling live elsewhere.
type PageSource struct {
	urls        []string
	maxRetries  int
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter
}

var _ storage.RawSource = (*PageSource)(nil)

// NewPageSource creates a new PageSource over the configured rate page URLs
func NewPageSource(cfg *config.Config, logger *utils.Logger) *PageSource {
	return &PageSource{
		urls:        cfg.RatePageURLs,
		maxRetries:  cfg.MaxRetries,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(cfg.RateLimitMs),
	}
}

// newContext creates a fresh chromedp context (one browser, one tab at a time)
func (s *PageSource) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Fetch loads every page. A page that still fails after retries fails the whole batch,
// so a refresh never runs on a partial set of channels.
func (s *PageSource) Fetch(ctx context.Context) ([]*models.RawRate, error) {
	if len(s.urls) == 0 {
		return nil, fmt.Errorf("no rate pages configured")
	}

	browserCtx, cancel := s.newContext(ctx)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 10*time.Minute)
	defer cancelTimeout()

	var all []*models.RawRate
	for _, url := range s.urls {
		if err := s.rateLimiter.Wait(browserCtx); err != nil {
			return nil, err
		}
		rows, err := s.scrapePage(browserCtx, url)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", url, err)
		}
		all = append(all, rows...)
		s.logger.Info("Page '%s': collected %d rows (total so far: %d)", url, len(rows), len(all))
	}
	return all, nil
}

// scrapePage navigates to a rate page and extracts its rows
func (s *PageSource) scrapePage(ctx context.Context, pageURL string) ([]*models.RawRate, error) {
	var rates []*models.RawRate

	err := utils.RetryWithBackoff(ctx, s.maxRetries, func() error {
		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady(`body`, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("navigate failed: %w", err)
		}
		loadedAt := time.Now().Format(time.RFC3339)

		var rows []rowData
		if err := chromedp.Run(ctx, chromedp.Evaluate(extractRowsJS, &rows)); err != nil {
			return fmt.Errorf("row JS failed: %w", err)
		}

		rates = rates[:0]
		for _, r := range rows {
			collected := r.CollectedAt
			if collected == "" {
				collected = loadedAt
			}
			rates = append(rates, &models.RawRate{
				HotelName:   r.HotelName,
				StayDate:    r.StayDate,
				RoomType:    r.RoomType,
				Channel:     r.Channel,
				Price:       r.Price,
				CollectedAt: collected,
			})
		}
		return nil
	}, s.logger)

	return rates, err
}
