package model

// PageSource says how the crawler discovered a page.
type PageSource string

const (
	// SourceStart is the start page supplied by the caller.
	SourceStart PageSource = "start"

	// SourceSitemap means the URL came from /sitemap.xml.
	SourceSitemap PageSource = "sitemap"

	// SourceLinks means the URL was extracted from a same-host link.
	SourceLinks PageSource = "links"
)

// PageInfo summarizes one crawled page.
type PageInfo struct {
	URL            string     `json:"url"`
	StatusCode     int        `json:"status"`
	Bytes          int        `json:"bytes"`
	Error          string     `json:"error,omitempty"`
	DiscoveredFrom PageSource `json:"discovered_from,omitempty"`
}

// CrawlCheckResult is a marker-based check outcome over the combined
// HTML of all crawled pages. Unlike CheckResult it keeps the individual
// matched markers, trading per-page attribution for multi-page recall.
type CrawlCheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Details string      `json:"details"`

	// URLs are the pages that contributed evidence.
	URLs []string `json:"urls"`

	// Markers are the human-readable labels of every matched pattern.
	Markers []string `json:"markers"`
}

// CrawlStats carries crawl diagnostics for troubleshooting.
type CrawlStats struct {
	PagesCrawled int      `json:"pages_crawled"`
	PagesFailed  int      `json:"pages_failed"`
	ElapsedMs    int64    `json:"time_ms"`
	TopErrors    []string `json:"top_errors,omitempty"`
}

// CrawlAuditResult is the outcome of the diagnostic multi-page audit.
// Partial results are always returned: a crawl aborted by its wall-clock
// budget still reports the pages and checks it completed.
type CrawlAuditResult struct {
	Pages    []PageInfo         `json:"pages"`
	Checks   []CrawlCheckResult `json:"checks"`
	Operator OperatorInfo       `json:"operator"`
	Stats    CrawlStats         `json:"debug"`
}
