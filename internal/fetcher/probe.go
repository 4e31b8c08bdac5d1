package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/securelex/securelex/internal/config"
)

// ProbeResult is the verdict of a pre-flight existence probe.
type ProbeResult struct {
	// Exists reports whether something answers at the target.
	Exists bool

	// Reason is a human-readable classification of the probe outcome,
	// e.g. "dns_error", "connection_refused", "timeout", "tls_error",
	// "responded".
	Reason string
}

// Probe checks whether anything answers at the target URL before a full
// audit is attempted.
//
// Design decision: Errors are classified rather than treated uniformly.
// DNS failures, refused connections, and timeouts mean no site exists
// there, so the audit should stop with a clear message. A TLS handshake
// error means a server IS listening; that site gets audited (and the
// broken TLS becomes a finding).
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	normalized, err := normalizeURL(rawURL, f.allowPrivate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, config.DefaultProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, normalized, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyProbeError(err), nil
	}
	resp.Body.Close()

	return &ProbeResult{Exists: true, Reason: "responded"}, nil
}

// classifyProbeError maps a transport error to an existence verdict.
func classifyProbeError(err error) *ProbeResult {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ProbeResult{Exists: false, Reason: "dns_error"}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &ProbeResult{Exists: false, Reason: "connection_refused"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProbeResult{Exists: false, Reason: "timeout"}
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &ProbeResult{Exists: false, Reason: "timeout"}
	}

	// TLS failures mean a server answered the TCP handshake.
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || isTLSErrorString(err) {
		return &ProbeResult{Exists: true, Reason: "tls_error"}
	}

	// Unclassified transport errors lean toward non-existence: the
	// audit's reachability check will surface anything we got wrong.
	return &ProbeResult{Exists: false, Reason: "unreachable"}
}

// isTLSErrorString catches TLS alert errors that the crypto/tls package
// returns as plain errors without a distinguishing type.
func isTLSErrorString(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "x509:") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "handshake failure")
}
