package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/securelex/securelex/internal/model"
)

// memoryCache is an in-memory Cache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*model.RegistryCacheEntry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*model.RegistryCacheEntry)}
}

func (m *memoryCache) GetEntry(ctx context.Context, taxID string, maxAge time.Duration) (*model.RegistryCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[taxID]
	if !ok || time.Since(entry.LastCheckedAt) > maxAge {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (m *memoryCache) UpsertEntry(ctx context.Context, entry *model.RegistryCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *entry
	clone.LastCheckedAt = time.Now()
	m.entries[entry.TaxID] = &clone
	return nil
}

const registryPage = `<html><body>
<table><tbody>
<tr><td>1</td><td>ООО "Ромашка"</td><td>77-17-003759</td><td>12.05.2017</td><td>ИНН 7707083893</td></tr>
</tbody></table>
</body></html>`

// TestCheckByTaxIDInvalid tests rejection of malformed identifiers.
func TestCheckByTaxIDInvalid(t *testing.T) {
	t.Parallel()

	c := NewChecker(newMemoryCache())
	for _, taxID := range []string{"", "12345", "12345678901234"} {
		result := c.CheckByTaxID(context.Background(), taxID)
		if result.Err != "invalid_inn" {
			t.Errorf("CheckByTaxID(%q).Err = %q, expected invalid_inn", taxID, result.Err)
		}
		if result.Status != model.RegistryFailed || result.Confidence != model.ConfidenceNone {
			t.Errorf("CheckByTaxID(%q) = %+v", taxID, result)
		}
	}
}

// TestCheckByTaxIDFound tests a registry hit parsed from the results table.
func TestCheckByTaxIDFound(t *testing.T) {
	t.Parallel()

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("inn") != "7707083893" {
			t.Errorf("inn query = %q", r.URL.Query().Get("inn"))
		}
		w.Write([]byte(registryPage))
	}))
	defer server.Close()

	cache := newMemoryCache()
	c := NewChecker(cache, WithRegistryURL(server.URL), WithCheckerHTTPClient(server.Client()))

	result := c.CheckByTaxID(context.Background(), "ИНН 7707083893")
	if result.Status != model.RegistryPassed || !result.IsRegistered {
		t.Fatalf("result = %+v", result)
	}
	if result.Confidence != model.ConfidenceHigh {
		t.Errorf("Confidence = %q", result.Confidence)
	}
	if result.CompanyName != `ООО "Ромашка"` {
		t.Errorf("CompanyName = %q", result.CompanyName)
	}
	if result.RegistrationNumber != "77-17-003759" || result.RegistrationDate != "12.05.2017" {
		t.Errorf("registration fields = %q, %q", result.RegistrationNumber, result.RegistrationDate)
	}
	if result.FromCache {
		t.Error("first lookup must not be served from cache")
	}

	// The verdict is now cached: a second lookup skips the network.
	result = c.CheckByTaxID(context.Background(), "7707083893")
	if !result.FromCache {
		t.Error("second lookup must be served from cache")
	}
	if !strings.Contains(result.Details, `ООО "Ромашка"`) {
		t.Errorf("cached Details = %q", result.Details)
	}
	if requests != 1 {
		t.Errorf("registry requests = %d, expected 1", requests)
	}
}

// TestCheckByTaxIDNotFound tests that negative verdicts are cached too.
func TestCheckByTaxIDNotFound(t *testing.T) {
	t.Parallel()

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`<html><body><p>Ничего не найдено</p></body></html>`))
	}))
	defer server.Close()

	cache := newMemoryCache()
	c := NewChecker(cache, WithRegistryURL(server.URL), WithCheckerHTTPClient(server.Client()))

	result := c.CheckByTaxID(context.Background(), "5027089703")
	if result.Status != model.RegistryFailed || result.IsRegistered {
		t.Fatalf("result = %+v", result)
	}
	if result.Confidence != model.ConfidenceMedium {
		t.Errorf("Confidence = %q", result.Confidence)
	}

	result = c.CheckByTaxID(context.Background(), "5027089703")
	if !result.FromCache {
		t.Error("negative verdicts must be cached")
	}
	if requests != 1 {
		t.Errorf("registry requests = %d, expected 1", requests)
	}
}

// TestCheckByTaxIDServerError tests the degraded result on upstream
// failure and that the failure is cached.
func TestCheckByTaxIDServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cache := newMemoryCache()
	c := NewChecker(cache, WithRegistryURL(server.URL), WithCheckerHTTPClient(server.Client()))

	result := c.CheckByTaxID(context.Background(), "7736050003")
	if result.Status != model.RegistryWarning {
		t.Errorf("Status = %q", result.Status)
	}
	if result.Err != "http_503" {
		t.Errorf("Err = %q", result.Err)
	}

	entry, err := cache.GetEntry(context.Background(), "7736050003", time.Hour)
	if err != nil || entry == nil {
		t.Fatalf("failed lookup must be cached, got (%+v, %v)", entry, err)
	}
	if entry.IsRegistered {
		t.Error("failed lookup must cache a negative verdict")
	}
}

// TestCheckByTaxIDTextFallback tests the plain-text match outside a table.
func TestCheckByTaxIDTextFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div>Оператор с ИНН 7707049388 зарегистрирован</div></body></html>`))
	}))
	defer server.Close()

	c := NewChecker(newMemoryCache(), WithRegistryURL(server.URL), WithCheckerHTTPClient(server.Client()))

	result := c.CheckByTaxID(context.Background(), "7707049388")
	if !result.IsRegistered {
		t.Fatalf("result = %+v", result)
	}
	if result.CompanyName != "Найдено на странице (детали недоступны)" {
		t.Errorf("CompanyName = %q", result.CompanyName)
	}
}

// TestCheckByName tests the name search paths.
func TestCheckByName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("title"), "Ромашка") {
			w.Write([]byte(`<html><body>ООО "Ромашка" в реестре</body></html>`))
			return
		}
		w.Write([]byte(`<html><body>Ничего не найдено</body></html>`))
	}))
	defer server.Close()

	c := NewChecker(nil, WithRegistryURL(server.URL), WithCheckerHTTPClient(server.Client()))

	result := c.CheckByName(context.Background(), `ООО "Ромашка"`)
	if !result.IsRegistered || result.Confidence != model.ConfidenceLow {
		t.Errorf("result = %+v", result)
	}

	result = c.CheckByName(context.Background(), `ООО "Вектор"`)
	if result.IsRegistered {
		t.Errorf("result = %+v", result)
	}

	result = c.CheckByName(context.Background(), "ab")
	if result.Err != "invalid_name" {
		t.Errorf("Err = %q", result.Err)
	}
}
