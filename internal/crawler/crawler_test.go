package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/securelex/securelex/internal/fetcher"
	"github.com/securelex/securelex/internal/model"
)

func newTestCrawler(srv *httptest.Server, opts ...CrawlerOption) *Crawler {
	f := fetcher.New(
		fetcher.WithHTTPClient(srv.Client()),
		fetcher.WithAllowPrivateHosts(),
	)
	return New(f, opts...)
}

// TestCrawlWithSitemap tests sitemap-driven discovery.
func TestCrawlWithSitemap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset><url><loc>%s/</loc></url><url><loc>%s/privacy</loc></url></urlset>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Главная. ИНН: 7707083893</body></html>`)
	})
	mux.HandleFunc("/privacy", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Политика конфиденциальности. Согласие на обработку персональных данных.</body></html>`)
	})

	c := newTestCrawler(srv)
	result := c.Crawl(context.Background(), srv.URL)

	if result.Stats.PagesCrawled != 2 {
		t.Fatalf("PagesCrawled = %d, pages = %+v", result.Stats.PagesCrawled, result.Pages)
	}
	for _, page := range result.Pages {
		if page.DiscoveredFrom != model.SourceSitemap {
			t.Errorf("page %s discovered from %q, expected sitemap", page.URL, page.DiscoveredFrom)
		}
	}

	var policy model.CrawlCheckResult
	for _, check := range result.Checks {
		if check.Name == "Политика ПДн" {
			policy = check
		}
	}
	if policy.Status != model.StatusPassed {
		t.Errorf("policy check = %+v, markers should match across combined pages", policy)
	}

	if result.Operator.TaxID != "7707083893" {
		t.Errorf("Operator.TaxID = %q", result.Operator.TaxID)
	}
}

// TestCrawlLinkFallback tests link discovery when no sitemap exists.
func TestCrawlLinkFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", http.NotFound)
	mux.HandleFunc("/sitemap_index.xml", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/about">О нас</a>
<a href="/contacts">Контакты</a>
<a href="https://external.example.com/">внешняя</a>
<a href="mailto:info@example.ru">почта</a>
</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>ООО «Ромашка»</body></html>`)
	})
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Контакты: info@example.ru, +7 (495) 123-45-67</body></html>`)
	})

	c := newTestCrawler(srv)
	result := c.Crawl(context.Background(), srv.URL+"/")

	// Start page plus the two same-host links; the external and mailto
	// links are skipped.
	if result.Stats.PagesCrawled != 3 {
		t.Fatalf("PagesCrawled = %d, pages = %+v", result.Stats.PagesCrawled, result.Pages)
	}

	var contacts model.CrawlCheckResult
	for _, check := range result.Checks {
		if check.Name == "Контакты/реквизиты" {
			contacts = check
		}
	}
	if contacts.Status != model.StatusPassed {
		t.Errorf("contacts check = %+v", contacts)
	}
	if len(contacts.Markers) == 0 || !strings.HasPrefix(contacts.Markers[0], "телефон:") {
		t.Errorf("Markers = %v, expected the phone marker first", contacts.Markers)
	}
}

// TestCrawlMaxPages tests the page cap.
func TestCrawlMaxPages(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", http.NotFound)
	mux.HandleFunc("/sitemap_index.xml", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := 0; i < 20; i++ {
			fmt.Fprintf(&b, `<a href="/page-%d">p</a>`, i)
		}
		b.WriteString("</body></html>")
		fmt.Fprint(w, b.String())
	})

	c := newTestCrawler(srv, WithMaxPages(3))
	result := c.Crawl(context.Background(), srv.URL+"/")

	if len(result.Pages) != 3 {
		t.Errorf("pages = %d, expected the cap of 3", len(result.Pages))
	}
}

// TestCrawlBudget tests that a slow site cannot stretch the crawl
// beyond its wall-clock budget and that partial results survive.
func TestCrawlBudget(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", http.NotFound)
	mux.HandleFunc("/sitemap_index.xml", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			time.Sleep(300 * time.Millisecond)
		}
		fmt.Fprint(w, `<html><body><a href="/a">a</a><a href="/b">b</a><a href="/c">c</a></body></html>`)
	})

	c := newTestCrawler(srv, WithBudget(250*time.Millisecond))
	result := c.Crawl(context.Background(), srv.URL+"/")

	if len(result.Pages) == 0 {
		t.Fatal("partial results must be returned when the budget expires")
	}
	if len(result.Pages) >= 4 {
		t.Errorf("pages = %d, budget should have cut the crawl short", len(result.Pages))
	}

	found := false
	for _, e := range result.Stats.TopErrors {
		if e == "Timeout exceeded" {
			found = true
		}
	}
	if !found {
		t.Errorf("TopErrors = %v, expected the budget marker", result.Stats.TopErrors)
	}
}

// TestCrawlInvalidURL tests the degenerate result for a bad target.
func TestCrawlInvalidURL(t *testing.T) {
	t.Parallel()

	f := fetcher.New()
	c := New(f)
	result := c.Crawl(context.Background(), "::not-a-url")

	if result.Stats.PagesFailed != 1 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if len(result.Pages) != 1 || result.Pages[0].Error != "Invalid URL" {
		t.Errorf("Pages = %+v", result.Pages)
	}
}

// TestCrawlCountsFailures tests failed page accounting.
func TestCrawlCountsFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	srvURL := srv.URL
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%s/ok</loc></url><url><loc>http://host.invalid/missing</loc></url></urlset>`, srvURL)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>ok</body></html>")
	})

	c := newTestCrawler(srv)
	result := c.Crawl(context.Background(), srv.URL)

	if result.Stats.PagesCrawled != 1 || result.Stats.PagesFailed != 1 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if len(result.Stats.TopErrors) != 1 {
		t.Errorf("TopErrors = %v", result.Stats.TopErrors)
	}
}

// TestExtractLinks tests same-host link extraction and normalization.
func TestExtractLinks(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.ru/")
	html := `<html><body>
<a href="/about">a</a>
<a href="/about#team">duplicate via fragment</a>
<a href="/search?q=1">query dropped</a>
<a href="contacts">relative</a>
<a href="https://example.ru/pricing">absolute same host</a>
<a href="https://other.ru/">other host</a>
<a href="javascript:void(0)">js</a>
<a href="mailto:a@b.ru">mail</a>
<a href="tel:+74951234567">tel</a>
</body></html>`

	links := ExtractLinks(strings.NewReader(html), base)

	expected := []string{
		"https://example.ru/about",
		"https://example.ru/search",
		"https://example.ru/contacts",
		"https://example.ru/pricing",
	}
	if len(links) != len(expected) {
		t.Fatalf("links = %v, expected %v", links, expected)
	}
	for i, want := range expected {
		if links[i] != want {
			t.Errorf("links[%d] = %q, expected %q", i, links[i], want)
		}
	}
}

// TestParseSitemap tests loc extraction from urlset and sitemapindex.
func TestParseSitemap(t *testing.T) {
	t.Parallel()

	t.Run("urlset", func(t *testing.T) {
		t.Parallel()
		xml := `<?xml version="1.0"?><urlset>
<url><loc>https://example.ru/</loc></url>
<url><loc> https://example.ru/about </loc></url>
<url><loc>ftp://example.ru/skip</loc></url>
</urlset>`
		urls := ParseSitemap(strings.NewReader(xml))
		if len(urls) != 2 || urls[1] != "https://example.ru/about" {
			t.Errorf("urls = %v", urls)
		}
	})

	t.Run("sitemapindex", func(t *testing.T) {
		t.Parallel()
		xml := `<sitemapindex><sitemap><loc>https://example.ru/sitemap-pages.xml</loc></sitemap></sitemapindex>`
		urls := ParseSitemap(strings.NewReader(xml))
		if len(urls) != 1 {
			t.Errorf("urls = %v", urls)
		}
	})

	t.Run("caps entries", func(t *testing.T) {
		t.Parallel()
		var b strings.Builder
		b.WriteString("<urlset>")
		for i := 0; i < 100; i++ {
			fmt.Fprintf(&b, "<url><loc>https://example.ru/p%d</loc></url>", i)
		}
		b.WriteString("</urlset>")
		urls := ParseSitemap(strings.NewReader(b.String()))
		if len(urls) != 30 {
			t.Errorf("len = %d, expected the cap of 30", len(urls))
		}
	})
}

// TestMarkerChecks tests the combined-HTML marker checks.
func TestMarkerChecks(t *testing.T) {
	t.Parallel()

	t.Run("consent passes without forms", func(t *testing.T) {
		t.Parallel()
		check := CheckConsentMarkers("<html><body>Просто текст</body></html>", "https://example.ru")
		if check.Status != model.StatusPassed {
			t.Errorf("check = %+v", check)
		}
		if len(check.Markers) != 1 || check.Markers[0] != "нет форм" {
			t.Errorf("Markers = %v", check.Markers)
		}
	})

	t.Run("consent fails with bare form", func(t *testing.T) {
		t.Parallel()
		check := CheckConsentMarkers(`<form action="/subscribe"><input type="email"></form>`, "https://example.ru")
		if check.Status != model.StatusFailed {
			t.Errorf("check = %+v", check)
		}
	})

	t.Run("cookie banner js indicators downgrade to warning", func(t *testing.T) {
		t.Parallel()
		check := CheckCookieBannerMarkers(`<script>function setCookie(n,v){}</script>`, "https://example.ru")
		if check.Status != model.StatusWarning {
			t.Errorf("check = %+v", check)
		}
		if len(check.Markers) != 1 || check.Markers[0] != "JS indicators present" {
			t.Errorf("Markers = %v", check.Markers)
		}
	})

	t.Run("cookie banner explicit markers pass", func(t *testing.T) {
		t.Parallel()
		check := CheckCookieBannerMarkers(`<div>Мы используем cookie для работы сайта</div>`, "https://example.ru")
		if check.Status != model.StatusPassed {
			t.Errorf("check = %+v", check)
		}
	})
}
