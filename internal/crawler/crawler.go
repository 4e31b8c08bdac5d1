package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/fetcher"
	"github.com/securelex/securelex/internal/model"
	"github.com/securelex/securelex/internal/registry"
)

// maxTopErrors caps the error list in crawl diagnostics.
const maxTopErrors = 5

// Crawler performs the diagnostic multi-page audit. Discovery prefers
// the sitemap; without one it falls back to links on the start page.
//
// Design decision: The crawl is sequential, not concurrent. The page
// cap is small and the point is politeness to the audited site, so
// parallel fetching would only buy a few seconds while looking like a
// scrape.
type Crawler struct {
	// fetcher performs the page fetches, carrying over the SSRF guard
	// and body cap of a single-page audit.
	fetcher *fetcher.Fetcher

	// maxPages limits the total number of pages fetched.
	maxPages int

	// budget is the wall-clock limit for the whole crawl.
	budget time.Duration

	logger *slog.Logger
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithMaxPages sets the page cap.
func WithMaxPages(n int) CrawlerOption {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithBudget sets the wall-clock limit.
func WithBudget(d time.Duration) CrawlerOption {
	return func(c *Crawler) {
		c.budget = d
	}
}

// WithCrawlerLogger sets the logger.
func WithCrawlerLogger(logger *slog.Logger) CrawlerOption {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler around the given fetcher.
func New(f *fetcher.Fetcher, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		fetcher:  f,
		maxPages: config.DefaultCrawlMaxPages,
		budget:   config.DefaultCrawlBudget,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// queueItem is one URL awaiting a fetch.
type queueItem struct {
	url    string
	source model.PageSource
}

// Crawl audits up to maxPages pages under the wall-clock budget and
// returns marker checks over their combined HTML. The result is always
// non-nil; a crawl cut short by the budget reports what it completed.
func (c *Crawler) Crawl(ctx context.Context, startURL string) *model.CrawlAuditResult {
	start := time.Now()

	parsed, err := url.Parse(startURL)
	if err != nil || parsed.Host == "" {
		return &model.CrawlAuditResult{
			Pages:    []model.PageInfo{{URL: startURL, Error: "Invalid URL"}},
			Checks:   []model.CrawlCheckResult{},
			Operator: model.OperatorInfo{NeedsCompanyDetails: true, Confidence: model.ConfidenceNone},
			Stats:    model.CrawlStats{PagesFailed: 1, ElapsedMs: time.Since(start).Milliseconds(), TopErrors: []string{"Invalid URL"}},
		}
	}

	queue := make([]queueItem, 0, c.maxPages)
	sitemapURLs := c.fetchSitemap(ctx, parsed)
	if len(sitemapURLs) > 0 {
		c.logger.Debug("sitemap discovered", "urls", len(sitemapURLs))
		for _, u := range sitemapURLs {
			if len(queue) >= c.maxPages {
				break
			}
			queue = append(queue, queueItem{url: u, source: model.SourceSitemap})
		}
	} else {
		queue = append(queue, queueItem{url: startURL, source: model.SourceStart})
	}

	var (
		pages    []model.PageInfo
		allHTML  []string
		errs     []string
		visited  = make(map[string]bool)
		failures int
	)

	for i := 0; i < len(queue); i++ {
		item := queue[i]
		if visited[item.url] {
			continue
		}
		if len(pages) >= c.maxPages {
			break
		}
		if time.Since(start) > c.budget {
			errs = append(errs, "Timeout exceeded")
			break
		}
		visited[item.url] = true

		fetchCtx, cancel := context.WithTimeout(ctx, config.DefaultCrawlFetchTimeout)
		snap := c.fetcher.Fetch(fetchCtx, item.url)
		cancel()

		pages = append(pages, model.PageInfo{
			URL:            item.url,
			StatusCode:     snap.StatusCode,
			Bytes:          len(snap.HTML),
			Error:          snap.Error,
			DiscoveredFrom: item.source,
		})

		if snap.Failed() {
			failures++
			errs = append(errs, item.url+": "+snap.Error)
			continue
		}
		if snap.HTML == "" {
			continue
		}
		allHTML = append(allHTML, snap.HTML)

		// Without a sitemap the start page seeds the rest of the crawl.
		if item.source == model.SourceStart && len(sitemapURLs) == 0 {
			links := ExtractLinks(strings.NewReader(snap.HTML), parsed)
			for _, link := range links {
				if len(queue) >= c.maxPages {
					break
				}
				if !visited[link] {
					queue = append(queue, queueItem{url: link, source: model.SourceLinks})
				}
			}
		}
	}

	combined := strings.Join(allHTML, "\n")
	mainURL := startURL
	if len(pages) > 0 {
		mainURL = pages[0].URL
	}

	checks := []model.CrawlCheckResult{
		CheckPrivacyPolicyMarkers(combined, mainURL),
		CheckConsentMarkers(combined, mainURL),
		CheckCookieBannerMarkers(combined, mainURL),
		CheckContactMarkers(combined, mainURL),
	}

	if len(errs) > maxTopErrors {
		errs = errs[:maxTopErrors]
	}

	result := &model.CrawlAuditResult{
		Pages:    pages,
		Checks:   checks,
		Operator: registry.ExtractOperator(combined),
		Stats: model.CrawlStats{
			PagesCrawled: len(pages) - failures,
			PagesFailed:  failures,
			ElapsedMs:    time.Since(start).Milliseconds(),
			TopErrors:    errs,
		},
	}

	c.logger.Info("crawl finished",
		"url", startURL,
		"pages", result.Stats.PagesCrawled,
		"failed", result.Stats.PagesFailed,
		"elapsed_ms", result.Stats.ElapsedMs)

	return result
}

// fetchSitemap probes the conventional sitemap locations and returns
// the listed URLs, if any.
func (c *Crawler) fetchSitemap(ctx context.Context, base *url.URL) []string {
	origin := base.Scheme + "://" + base.Host
	for _, sitemapURL := range []string{origin + "/sitemap.xml", origin + "/sitemap_index.xml"} {
		fetchCtx, cancel := context.WithTimeout(ctx, config.DefaultSitemapTimeout)
		snap := c.fetcher.Fetch(fetchCtx, sitemapURL)
		cancel()

		if snap.Failed() || snap.StatusCode != 200 || snap.HTML == "" {
			continue
		}
		if urls := ParseSitemap(strings.NewReader(snap.HTML)); len(urls) > 0 {
			return urls
		}
	}
	return nil
}
