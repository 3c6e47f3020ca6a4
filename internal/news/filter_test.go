package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neurabot/config"
)

func rssBody(titles ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>feed</title>`)
	for _, t := range titles {
		fmt.Fprintf(&b, "<item><title>%s</title><link>http://x</link></item>", t)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func feedServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
}

func newTestFilter(feeds []string) *Filter {
	return NewFilter(config.NewsConfig{
		Feeds:          feeds,
		BlockKeywords:  []string{"hack", "SEC lawsuit"},
		CoolOff:        30 * time.Minute,
		RequestTimeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestExtractTitles(t *testing.T) {
	titles, err := extractTitles(strings.NewReader(rssBody("First headline", "  Second  ", "")))
	require.NoError(t, err)
	// The channel-level <title> counts too; only blank ones are dropped.
	assert.Equal(t, []string{"feed", "First headline", "Second"}, titles)
}

func TestRefresh_KeywordBlocksTrading(t *testing.T) {
	srv := feedServer(rssBody("Markets calm today", "Major exchange HACK drains wallets"))
	defer srv.Close()

	f := newTestFilter([]string{srv.URL})
	require.NoError(t, f.Refresh(context.Background()))

	assert.True(t, f.Blocked("BTC"))
	assert.True(t, f.Blocked("DOGE"), "keyword matches block globally")
}

func TestRefresh_NoMatchKeepsTradingOpen(t *testing.T) {
	srv := feedServer(rssBody("Markets calm today", "ETF inflows continue"))
	defer srv.Close()

	f := newTestFilter([]string{srv.URL})
	require.NoError(t, f.Refresh(context.Background()))

	assert.False(t, f.Blocked("BTC"))
}

func TestBlocked_CoolOffExpires(t *testing.T) {
	srv := feedServer(rssBody("SEC lawsuit targets exchange"))
	defer srv.Close()

	f := newTestFilter([]string{srv.URL})

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return current }

	require.NoError(t, f.Refresh(context.Background()))
	assert.True(t, f.Blocked("BTC"))

	current = current.Add(29 * time.Minute)
	assert.True(t, f.Blocked("BTC"), "still inside cool-off")

	current = current.Add(2 * time.Minute)
	assert.False(t, f.Blocked("BTC"), "cool-off elapsed")
}

func TestRefresh_FeedFailureSkipped(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := feedServer(rssBody("token hack reported"))
	defer good.Close()

	f := newTestFilter([]string{bad.URL, good.URL})
	require.NoError(t, f.Refresh(context.Background()), "one dead feed must not fail the refresh")
	assert.True(t, f.Blocked("BTC"), "remaining feeds still apply")
}

func TestRefresh_CancelledContext(t *testing.T) {
	f := newTestFilter([]string{"http://127.0.0.1:0/never"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, f.Refresh(ctx))
}
