package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
)

// TestProbeResponds tests that any HTTP answer counts as existing.
func TestProbeResponds(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(WithHTTPClient(srv.Client()), WithAllowPrivateHosts())
	result, err := f.Probe(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !result.Exists {
		t.Error("a responding server must be classified as existing")
	}
	if result.Reason != "responded" {
		t.Errorf("Reason = %q, expected %q", result.Reason, "responded")
	}
}

// TestProbePrivateTarget tests that the SSRF guard applies to probes.
func TestProbePrivateTarget(t *testing.T) {
	t.Parallel()

	f := New()
	if _, err := f.Probe(context.Background(), "http://127.0.0.1:1"); !errors.Is(err, ErrPrivateAddress) {
		t.Errorf("expected ErrPrivateAddress, got %v", err)
	}
}

// TestClassifyProbeError tests the transport error taxonomy.
func TestClassifyProbeError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		err        error
		wantExists bool
		wantReason string
	}{
		{
			name:       "dns failure means no site",
			err:        &net.DNSError{Err: "no such host", Name: "missing.example.ru", IsNotFound: true},
			wantExists: false,
			wantReason: "dns_error",
		},
		{
			name:       "connection refused means no site",
			err:        &net.OpError{Op: "dial", Err: &net.OpError{Err: syscall.ECONNREFUSED}},
			wantExists: false,
			wantReason: "connection_refused",
		},
		{
			name:       "timeout means no site",
			err:        &timeoutError{},
			wantExists: false,
			wantReason: "timeout",
		},
		{
			name:       "tls record error means site exists",
			err:        tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"},
			wantExists: true,
			wantReason: "tls_error",
		},
		{
			name:       "certificate error means site exists",
			err:        errors.New(`x509: certificate signed by unknown authority`),
			wantExists: true,
			wantReason: "tls_error",
		},
		{
			name:       "tls alert string means site exists",
			err:        errors.New("remote error: tls: handshake failure"),
			wantExists: true,
			wantReason: "tls_error",
		},
		{
			name:       "unknown transport error means no site",
			err:        errors.New("EOF"),
			wantExists: false,
			wantReason: "unreachable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := classifyProbeError(tc.err)
			if result.Exists != tc.wantExists {
				t.Errorf("Exists = %v, expected %v", result.Exists, tc.wantExists)
			}
			if result.Reason != tc.wantReason {
				t.Errorf("Reason = %q, expected %q", result.Reason, tc.wantReason)
			}
		})
	}
}

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return false }
