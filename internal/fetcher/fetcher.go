package fetcher

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/model"
)

// ErrPrivateAddress is returned by NormalizeURL when the target host is a
// loopback or private address. Auditing internal infrastructure through
// this tool would be an SSRF vector, so such targets are refused outright.
var ErrPrivateAddress = errors.New("target resolves to a private or loopback address")

// Fetcher retrieves website snapshots over HTTP/HTTPS.
//
// Design decision: We use a struct with a shared http.Client rather than
// passing a client on each call because:
//  1. Client configuration (timeouts, TLS) should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with mock transport
type Fetcher struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// userAgent identifies the audit bot in requests.
	userAgent string

	// maxBodyBytes caps the response body size. Content beyond the cap
	// is dropped; the buffered prefix is kept and analyzed.
	maxBodyBytes int64

	// timeout is the per-request timeout.
	timeout time.Duration

	// allowPrivate disables the private-address guard. Intended for
	// auditing staging environments on internal networks.
	allowPrivate bool

	// logger records fetch progress and failures.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
//
// Design decision: The default identifies the audit bot openly rather
// than imitating a browser. Site operators should be able to recognize
// and allow audit traffic; the audit measures what a disclosed bot sees.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodyBytes sets the maximum response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. Used by tests to inject
// httptest servers and by the crawler to share a client across fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithAllowPrivateHosts disables the private-address guard, allowing
// loopback and RFC 1918 targets. Off by default; meant for auditing
// staging deployments that only exist on an internal network.
func WithAllowPrivateHosts() Option {
	return func(f *Fetcher) {
		f.allowPrivate = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with sensible defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:    config.DefaultUserAgent,
		maxBodyBytes: config.DefaultMaxBodyBytes,
		timeout:      config.DefaultFetchTimeout,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
			// Expired and self-signed certificates are audit findings,
			// not fetch failures. Validity is recorded separately.
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		}
	}

	return f
}

// NormalizeURL validates the target and returns it with an https scheme
// applied when none was given. It refuses loopback and private hosts.
func NormalizeURL(rawURL string) (string, error) {
	return normalizeURL(rawURL, false)
}

func normalizeURL(rawURL string, allowPrivate bool) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("empty URL")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: no host", rawURL)
	}
	if !allowPrivate && isPrivateHost(u.Hostname()) {
		return "", fmt.Errorf("%w: %s", ErrPrivateAddress, u.Hostname())
	}
	return u.String(), nil
}

// isPrivateHost reports whether the hostname names loopback or private
// address space. Only IP literals are tested against the ranges: a
// public domain whose leading labels happen to be numeric ("127.net",
// "192.168.example.com") must stay auditable. The check runs on the
// hostname before any DNS resolution happens.
func isPrivateHost(host string) bool {
	h := strings.ToLower(host)
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// Fetch retrieves a snapshot of the target website.
//
// Design decision: Fetch never returns an error. An unreachable or
// misbehaving site is an audit finding, so failures are recorded in the
// snapshot's Error field and the snapshot is always usable downstream.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *model.WebsiteSnapshot {
	start := time.Now()

	normalized, err := normalizeURL(rawURL, f.allowPrivate)
	if err != nil {
		return &model.WebsiteSnapshot{
			URL:   rawURL,
			Error: err.Error(),
		}
	}

	snap := &model.WebsiteSnapshot{URL: normalized}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		snap.Error = fmt.Sprintf("failed to create request: %v", err)
		return snap
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		snap.Error = err.Error()
		snap.ResponseTime = time.Since(start)
		f.logger.Debug("fetch failed", "url", normalized, "error", err)
		return snap
	}
	defer resp.Body.Close()

	snap.StatusCode = resp.StatusCode
	snap.Headers = lowerHeaders(resp.Header)

	if resp.TLS != nil {
		snap.TLS = extractTLSInfo(resp.TLS)
	}

	body, err := readCapped(resp.Body, f.maxBodyBytes)
	if err != nil {
		// A truncated body is still worth analyzing; only record
		// the error when nothing was read at all.
		if len(body) == 0 {
			snap.Error = fmt.Sprintf("failed to read body: %v", err)
		}
	}

	snap.HTML = decodeBody(body, resp.Header.Get("Content-Type"))
	snap.ResponseTime = time.Since(start)

	f.logger.Debug("fetch complete",
		"url", normalized,
		"status", snap.StatusCode,
		"bytes", len(snap.HTML),
		"elapsed", snap.ResponseTime,
	)
	return snap
}

// readCapped reads at most limit bytes from r. When the limit is hit or
// the read fails midway, the bytes read so far are returned.
//
// Design decision: We buffer and keep the prefix rather than discarding
// partially-read bodies because compliance markers (meta tags, policy
// links, consent banners) overwhelmingly live near the top of the page.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	buffered := bufio.NewReader(io.LimitReader(r, limit))
	body, err := io.ReadAll(buffered)
	if err != nil {
		return body, err
	}
	return body, nil
}

// decodeBody converts the raw body to UTF-8. Russian sites still serve
// windows-1251 with some regularity; everything else is passed through.
func decodeBody(body []byte, contentType string) string {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "windows-1251") || strings.Contains(ct, "cp1251") {
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(body)
		if err == nil {
			return string(decoded)
		}
	}
	return string(body)
}

// lowerHeaders flattens an http.Header into a map with lower-cased keys.
// Multi-valued headers are joined with ", " per RFC 9110 semantics.
func lowerHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return out
}

// extractTLSInfo records the certificate facts the rule suite needs.
func extractTLSInfo(state *tls.ConnectionState) *model.TLSInfo {
	info := &model.TLSInfo{}

	switch state.Version {
	case tls.VersionTLS10:
		info.Protocol = "TLS 1.0"
	case tls.VersionTLS11:
		info.Protocol = "TLS 1.1"
	case tls.VersionTLS12:
		info.Protocol = "TLS 1.2"
	case tls.VersionTLS13:
		info.Protocol = "TLS 1.3"
	default:
		info.Protocol = "Unknown"
	}

	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		info.Issuer = strings.Join(cert.Issuer.Organization, ", ")
		if info.Issuer == "" {
			info.Issuer = cert.Issuer.CommonName
		}
		info.ExpiresAt = cert.NotAfter
		now := time.Now()
		info.Valid = now.After(cert.NotBefore) && now.Before(cert.NotAfter)
	}

	return info
}
