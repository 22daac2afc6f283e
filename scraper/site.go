package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"bookflipfinder/config"
	"bookflipfinder/models"
)

// SiteSource scrapes a catalog-style bookstore over HTTP. It expects a
// search page listing product pods that link to detail pages carrying
// the ISBN (UPC), price, and availability.
type SiteSource struct {
	store   *models.Store
	cfg     *config.Config
	metrics *Metrics

	// transport overrides the HTTP transport, used by tests.
	transport http.RoundTripper
}

// NewSiteSource builds a colly-backed source for one store.
func NewSiteSource(store *models.Store, cfg *config.Config, metrics *Metrics) (*SiteSource, error) {
	parsed, err := url.Parse(store.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("store base url must include a host")
	}
	if store.SearchURLTemplate == "" {
		return nil, fmt.Errorf("store %s has no search url template", store.Code)
	}
	return &SiteSource{store: store, cfg: cfg, metrics: metrics}, nil
}

// WithTransport replaces the HTTP transport. Tests inject an httpmock
// transport here.
func (s *SiteSource) WithTransport(rt http.RoundTripper) {
	s.transport = rt
}

// ScrapeISBN searches the store for the ISBN and returns the first
// matching listing, or nil when the store does not carry it.
func (s *SiteSource) ScrapeISBN(ctx context.Context, isbn string) (*models.ScrapedBookPrice, error) {
	results, err := s.SearchBooks(ctx, isbn, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	listing := results[0]
	if listing.ISBN == "" {
		listing.ISBN = isbn
	}
	return listing, nil
}

// SearchBooks runs a search and follows up to maxResults product links,
// parsing each detail page into a payload. A failed detail page is
// logged and skipped; only a failed search page fails the call.
func (s *SiteSource) SearchBooks(ctx context.Context, query string, maxResults int) ([]*models.ScrapedBookPrice, error) {
	if maxResults <= 0 {
		maxResults = 1
	}
	searchURL := strings.ReplaceAll(s.store.SearchURLTemplate, "{query}", url.QueryEscape(query))

	links, err := s.collectLinks(ctx, searchURL, maxResults)
	if err != nil {
		return nil, models.UpstreamError{Store: s.store.Code, Err: err}
	}

	results := make([]*models.ScrapedBookPrice, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		listing, err := s.fetchListing(ctx, link)
		if err != nil {
			slog.Warn("detail page failed",
				slog.String("store", s.store.Code),
				slog.String("url", link),
				slog.Any("error", err),
			)
			continue
		}
		if listing != nil {
			results = append(results, listing)
		}
	}
	s.metrics.IncListings(s.store.Code, len(results))
	return results, nil
}

// collectLinks fetches the search page and returns absolute product
// links, retrying retryable failures with capped exponential backoff.
func (s *SiteSource) collectLinks(ctx context.Context, searchURL string, maxResults int) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncRetries()
			select {
			case <-time.After(s.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		links, err := s.fetchLinks(ctx, searchURL, maxResults)
		if err == nil {
			return links, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (s *SiteSource) fetchLinks(ctx context.Context, searchURL string, maxResults int) ([]string, error) {
	c, errCap := s.newCollector(ctx)

	var (
		mu    sync.Mutex
		links []string
	)
	c.OnHTML("article.product_pod h3 a", func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(links) >= maxResults {
			return
		}
		if href := e.Attr("href"); href != "" {
			links = append(links, e.Request.AbsoluteURL(href))
		}
	})

	if err := c.Visit(searchURL); err != nil {
		// OnError sees the HTTP status; its classification wins.
		if captured := errCap.take(); captured != nil {
			return nil, captured
		}
		return nil, classifyError(err, 0)
	}
	c.Wait()
	if err := errCap.take(); err != nil {
		return nil, err
	}
	return links, nil
}

func (s *SiteSource) fetchListing(ctx context.Context, pageURL string) (*models.ScrapedBookPrice, error) {
	c, errCap := s.newCollector(ctx)

	var listing *models.ScrapedBookPrice
	c.OnHTML("div.product_page", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText("div.product_main h1"))
		if title == "" {
			return
		}
		price, ok := ParsePrice(e.ChildText("div.product_main p.price_color"))
		if !ok {
			return
		}

		isbn := ""
		e.ForEach("table tr", func(_ int, row *colly.HTMLElement) {
			if strings.TrimSpace(row.ChildText("th")) == "UPC" {
				isbn = strings.TrimSpace(row.ChildText("td"))
			}
		})

		listing = &models.ScrapedBookPrice{
			ISBN:         isbn,
			Title:        title,
			Author:       strings.TrimSpace(e.ChildText("div.product_main p.author")),
			Category:     strings.TrimSpace(e.ChildText("ul.breadcrumb li:nth-child(3) a")),
			Description:  strings.TrimSpace(e.ChildText("#product_description ~ p")),
			ImageURL:     e.Request.AbsoluteURL(e.ChildAttr("div.item.active img", "src")),
			Price:        price,
			Currency:     "USD",
			Availability: NormalizeAvailability(e.ChildText("div.product_main p.availability")),
			Condition:    models.ConditionNew,
			URL:          pageURL,
		}
	})

	if err := c.Visit(pageURL); err != nil {
		if captured := errCap.take(); captured != nil {
			return nil, captured
		}
		return nil, classifyError(err, 0)
	}
	c.Wait()
	if err := errCap.take(); err != nil {
		return nil, err
	}
	return listing, nil
}

// errCapture holds the first classified error seen by a collector.
type errCapture struct {
	mu  sync.Mutex
	err error
}

func (ec *errCapture) set(err error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.err == nil {
		ec.err = err
	}
}

func (ec *errCapture) take() error {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.err
}

func (s *SiteSource) newCollector(ctx context.Context) (*colly.Collector, *errCapture) {
	parsed, _ := url.Parse(s.store.BaseURL)

	userAgent := s.store.UserAgent
	if userAgent == "" {
		userAgent = s.cfg.UserAgent
	}

	c := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(s.cfg.ScrapeTimeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	} else {
		c.WithTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   s.cfg.ScrapeTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	}

	capture := &errCapture{}
	c.OnRequest(func(r *colly.Request) {
		if err := ctx.Err(); err != nil {
			r.Abort()
			capture.set(err)
			return
		}
		r.Ctx.Put("start", time.Now())
		s.metrics.IncRequest(s.store.Code)
	})
	c.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.metrics.ObserveDuration(time.Since(start))
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		classified := classifyError(err, statusCode)
		s.metrics.IncError(s.store.Code, errorTypeLabel(classified))
		capture.set(classified)
	})

	return c, capture
}

// backoff doubles the configured base per attempt, capped at the
// configured maximum.
func (s *SiteSource) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := s.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base * time.Duration(1<<(attempt-1))
	if max := s.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}
