// Package crawler implements the diagnostic multi-page audit.
//
// A crawl discovers pages through the site's sitemap (falling back to
// links on the start page), fetches them under a wall-clock budget, and
// runs marker checks over the combined HTML of every page that
// answered. Marker checks report which patterns matched, so a human can
// verify a verdict instead of trusting a boolean.
//
// The crawl is diagnostic, not exhaustive: page and time caps keep it
// polite, and partial results are always returned.
package crawler
