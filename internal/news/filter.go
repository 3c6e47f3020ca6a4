// Package news implements a headline-based risk-off gate. It polls RSS feeds
// and blocks trading for a cool-off window whenever a headline matches one of
// the configured keywords.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"neurabot/config"
)

// Filter tracks block state derived from recent headlines. Refresh is called
// by the bot loop; Blocked is a cheap local check.
type Filter struct {
	cfg        config.NewsConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu            sync.Mutex
	globalBlockAt time.Time
	symbolBlockAt map[string]time.Time
}

func NewFilter(cfg config.NewsConfig, logger *zap.Logger) *Filter {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Filter{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		now:           time.Now,
		symbolBlockAt: make(map[string]time.Time),
	}
}

// Refresh fetches all feeds and updates the block state. Individual feed
// failures are logged and skipped; the call only fails when the context dies.
func (f *Filter) Refresh(ctx context.Context) error {
	var headlines []string
	for _, url := range f.cfg.Feeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		titles, err := f.fetchFeed(ctx, url)
		if err != nil {
			f.logger.Warn("news feed fetch failed", zap.String("url", url), zap.Error(err))
			continue
		}
		headlines = append(headlines, titles...)
	}

	f.updateFromHeadlines(headlines)
	return nil
}

// Blocked reports whether trading for the symbol is currently gated. Matches
// are treated as global risk-off events; the per-symbol state exists for
// future symbol-scoped keywords.
func (f *Filter) Blocked(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if !f.globalBlockAt.IsZero() && now.Sub(f.globalBlockAt) < f.cfg.CoolOff {
		return true
	}
	if at, ok := f.symbolBlockAt[symbol]; ok && now.Sub(at) < f.cfg.CoolOff {
		return true
	}
	return false
}

func (f *Filter) fetchFeed(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	return extractTitles(resp.Body)
}

// extractTitles pulls every <title> element out of an RSS/Atom document.
func extractTitles(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var titles []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return titles, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "title" {
			continue
		}
		var title string
		if err := dec.DecodeElement(&title, &start); err != nil {
			continue
		}
		if title = strings.TrimSpace(title); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func (f *Filter) updateFromHeadlines(headlines []string) {
	matched := false
	for _, title := range headlines {
		lower := strings.ToLower(title)
		for _, kw := range f.cfg.BlockKeywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = true
				f.logger.Info("risk-off headline matched",
					zap.String("keyword", kw),
					zap.String("headline", title))
				break
			}
		}
		if matched {
			break
		}
	}

	if matched {
		f.mu.Lock()
		f.globalBlockAt = f.now()
		f.mu.Unlock()
	}
}
