package crawler

import (
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/securelex/securelex/internal/config"
)

// ExtractLinks returns same-host links found in the HTML, normalized to
// scheme://host/path and deduplicated, capped at config.MaxLinksPerPage.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because it correctly handles malformed HTML, which is the norm on the
// small-business sites this tool audits.
func ExtractLinks(content io.Reader, base *url.URL) []string {
	doc, err := html.Parse(content)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link := resolveLink(getAttr(n, "href"), base); link != "" && !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(links) > config.MaxLinksPerPage {
		links = links[:config.MaxLinksPerPage]
	}
	return links
}

// resolveLink resolves an href against the base URL and keeps only
// same-host HTTP(S) links. Query strings and fragments are dropped so
// /page, /page?a=1, and /page#top deduplicate to one URL.
func resolveLink(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
		return ""
	}

	resolved.RawQuery = ""
	resolved.Fragment = ""
	return resolved.Scheme + "://" + resolved.Host + resolved.Path
}

// ParseSitemap extracts URLs from sitemap XML, capped at
// config.MaxSitemapURLs. Both urlset and sitemapindex documents work:
// every <loc> element counts, whatever its parent. Non-HTTP entries are
// dropped.
func ParseSitemap(content io.Reader) []string {
	decoder := xml.NewDecoder(content)
	urls := make([]string, 0)

	var inLoc bool
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			inLoc = t.Name.Local == "loc"
		case xml.EndElement:
			inLoc = false
		case xml.CharData:
			if !inLoc {
				continue
			}
			loc := strings.TrimSpace(string(t))
			if strings.HasPrefix(loc, "http") {
				urls = append(urls, loc)
			}
			if len(urls) >= config.MaxSitemapURLs {
				return urls
			}
		}
	}
	return urls
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
