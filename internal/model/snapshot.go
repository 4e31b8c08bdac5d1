package model

import "time"

// WebsiteSnapshot is the fetched state of one page. It is created by the
// safe fetcher, consumed read-only by the rule suite, and discarded after
// the pipeline run; only derived CheckResults and evidence snippets
// survive into the report.
//
// Design decision: network failure is represented by the Error field
// rather than an error return. Every fetch resolves to a snapshot, and
// callers branch on Error presence. This keeps the rule suite total (it
// can always emit a reachability finding) and keeps SSRF rejections,
// timeouts, and DNS failures on one code path.
type WebsiteSnapshot struct {
	// URL is the requested URL as given by the caller.
	URL string `json:"url"`

	// HTML is the response body, capped at the fetcher's byte ceiling.
	// It may be a truncated prefix of the real document.
	HTML string `json:"-"`

	// StatusCode is the HTTP status, or zero when no response was
	// received (parse failure, SSRF rejection, network error).
	StatusCode int `json:"status_code"`

	// Headers maps lower-cased header names to their values.
	// Multi-valued headers are joined with ", ".
	Headers map[string]string `json:"headers,omitempty"`

	// TLS describes the peer certificate when the transport exposed it.
	// Nil on plain HTTP and when the information was unavailable;
	// absence is not an error.
	TLS *TLSInfo `json:"tls,omitempty"`

	// ResponseTime is the wall-clock latency of the fetch.
	ResponseTime time.Duration `json:"response_time"`

	// Error describes why the fetch failed. Empty on success.
	Error string `json:"error,omitempty"`
}

// Header returns the value of the named header. Lookup is
// case-insensitive because Headers keys are stored lower-cased.
func (s *WebsiteSnapshot) Header(name string) string {
	if s.Headers == nil {
		return ""
	}
	return s.Headers[lowerASCII(name)]
}

// Failed reports whether the fetch produced no usable response.
func (s *WebsiteSnapshot) Failed() bool {
	return s.Error != ""
}

// TLSInfo is an opportunistic description of the peer certificate,
// extracted when the underlying transport exposes connection state.
type TLSInfo struct {
	// Valid is true when a certificate chain was presented and the
	// handshake completed.
	Valid bool `json:"valid"`

	// Issuer is the certificate issuer's organization or common name.
	Issuer string `json:"issuer,omitempty"`

	// ExpiresAt is the server certificate's NotAfter time.
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// Protocol is the negotiated TLS version, e.g. "TLS 1.3".
	Protocol string `json:"protocol,omitempty"`
}

// lowerASCII lower-cases ASCII letters without allocating for the common
// already-lowercase case. Header names are ASCII per RFC 9110.
func lowerASCII(s string) string {
	lower := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			lower = false
			break
		}
	}
	if lower {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
