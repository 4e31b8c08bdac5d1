package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/securelex/securelex/internal/config"
	"github.com/securelex/securelex/internal/model"
)

// DefaultRegistryURL is the public search page of the operator registry.
const DefaultRegistryURL = "https://pd.rkn.gov.ru/operators-registry/operators-list/"

// DefaultLookupTimeout bounds one registry page fetch.
const DefaultLookupTimeout = 15 * time.Second

var nonDigits = regexp.MustCompile(`\D`)

// Cache is the persistence surface the Checker needs. Satisfied by
// database.RegistryDB; tests substitute an in-memory implementation.
type Cache interface {
	GetEntry(ctx context.Context, taxID string, maxAge time.Duration) (*model.RegistryCacheEntry, error)
	UpsertEntry(ctx context.Context, entry *model.RegistryCacheEntry) error
}

// Checker resolves operator identifiers against the registry search
// page, consulting the cache first.
type Checker struct {
	cache       Cache
	client      *http.Client
	registryURL string
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithRegistryURL overrides the registry search page. Used by tests.
func WithRegistryURL(rawURL string) CheckerOption {
	return func(c *Checker) {
		c.registryURL = rawURL
	}
}

// WithCheckerHTTPClient replaces the HTTP client.
func WithCheckerHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		c.client = client
	}
}

// WithCacheTTL overrides the cache freshness window.
func WithCacheTTL(ttl time.Duration) CheckerOption {
	return func(c *Checker) {
		c.cacheTTL = ttl
	}
}

// WithCheckerLogger sets the logger.
func WithCheckerLogger(logger *slog.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a Checker backed by the given cache. A nil cache
// is allowed: every lookup then goes to the network.
func NewChecker(cache Cache, opts ...CheckerOption) *Checker {
	c := &Checker{
		cache:       cache,
		registryURL: DefaultRegistryURL,
		cacheTTL:    config.RegistryCacheTTL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultLookupTimeout}
	}
	return c
}

// CheckByTaxID resolves an ИНН against the registry. The result is
// always non-nil; lookup failures are reported in the result's Err
// field, never as a Go error, so a flaky registry cannot fail an audit.
func (c *Checker) CheckByTaxID(ctx context.Context, taxID string) *model.RegistryCheckResult {
	clean := nonDigits.ReplaceAllString(taxID, "")
	if len(clean) != 10 && len(clean) != 12 {
		return &model.RegistryCheckResult{
			Status:     model.RegistryFailed,
			Confidence: model.ConfidenceNone,
			Used:       model.IdentifierTaxID,
			Query:      model.RegistryQuery{TaxID: taxID},
			Details:    "Некорректный ИНН (должен быть 10 или 12 цифр)",
			Err:        "invalid_inn",
		}
	}

	if cached := c.fromCache(ctx, clean); cached != nil {
		return cached
	}

	searchURL := c.registryURL + "?inn=" + url.QueryEscape(clean)
	found, companyName, regNumber, regDate, lookupErr := c.fetchRegistryPage(ctx, searchURL, clean)
	if lookupErr != nil {
		c.logger.Warn("registry lookup failed", "inn", clean, "error", lookupErr)
		c.saveEntry(ctx, clean, false, "", "", "", map[string]string{
			"error":     lookupErr.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return &model.RegistryCheckResult{
			Status:     model.RegistryWarning,
			Confidence: model.ConfidenceNone,
			Used:       model.IdentifierTaxID,
			Query:      model.RegistryQuery{TaxID: clean},
			Details:    "Не удалось проверить реестр РКН (сервис временно недоступен)",
			Err:        lookupErr.Error(),
		}
	}

	c.saveEntry(ctx, clean, found, companyName, regNumber, regDate, map[string]string{
		"search_url": searchURL,
		"timestamp":  time.Now().Format(time.RFC3339),
	})

	if found {
		details := "Организация зарегистрирована в реестре операторов ПД"
		if companyName != "" {
			details += " (" + companyName + ")"
		}
		return &model.RegistryCheckResult{
			Status:             model.RegistryPassed,
			Confidence:         model.ConfidenceHigh,
			Used:               model.IdentifierTaxID,
			Query:              model.RegistryQuery{TaxID: clean},
			Details:            details,
			IsRegistered:       true,
			CompanyName:        companyName,
			RegistrationNumber: regNumber,
			RegistrationDate:   regDate,
			Evidence:           &model.RegistryEvidence{TaxIDFound: clean, NameFound: companyName, URLs: []string{searchURL}},
		}
	}

	return &model.RegistryCheckResult{
		Status:     model.RegistryFailed,
		Confidence: model.ConfidenceMedium,
		Used:       model.IdentifierTaxID,
		Query:      model.RegistryQuery{TaxID: clean},
		Details:    "Организация не найдена в реестре операторов персональных данных Роскомнадзора",
	}
}

// CheckByName resolves a company name against the registry. Name
// matches are low confidence and never cached: the same name renders
// differently across pages, so a cache keyed by it would mostly miss.
func (c *Checker) CheckByName(ctx context.Context, companyName string) *model.RegistryCheckResult {
	name := strings.TrimSpace(companyName)
	if len([]rune(name)) < 3 {
		return &model.RegistryCheckResult{
			Status:     model.RegistryFailed,
			Confidence: model.ConfidenceNone,
			Used:       model.IdentifierName,
			Query:      model.RegistryQuery{Name: companyName},
			Details:    "Некорректное название организации",
			Err:        "invalid_name",
		}
	}

	searchURL := c.registryURL + "?title=" + url.QueryEscape(name)
	doc, status, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		c.logger.Warn("registry name lookup failed", "name", name, "error", err)
		return &model.RegistryCheckResult{
			Status:     model.RegistryWarning,
			Confidence: model.ConfidenceNone,
			Used:       model.IdentifierName,
			Query:      model.RegistryQuery{Name: name},
			Details:    "Не удалось проверить реестр РКН",
			Err:        err.Error(),
		}
	}
	if status != http.StatusOK {
		return &model.RegistryCheckResult{
			Status:     model.RegistryWarning,
			Confidence: model.ConfidenceNone,
			Used:       model.IdentifierName,
			Query:      model.RegistryQuery{Name: name},
			Details:    "Не удалось проверить реестр РКН",
			Err:        fmt.Sprintf("http_%d", status),
		}
	}

	pageText := strings.ToLower(doc.Find("body").Text())
	if strings.Contains(pageText, strings.ToLower(name)) {
		return &model.RegistryCheckResult{
			Status:       model.RegistryWarning,
			Confidence:   model.ConfidenceLow,
			Used:         model.IdentifierName,
			Query:        model.RegistryQuery{Name: name},
			Details:      "Организация предположительно найдена в реестре (поиск по названию)",
			IsRegistered: true,
			CompanyName:  name,
			Evidence:     &model.RegistryEvidence{NameFound: name, URLs: []string{searchURL}},
		}
	}

	return &model.RegistryCheckResult{
		Status:     model.RegistryFailed,
		Confidence: model.ConfidenceLow,
		Used:       model.IdentifierName,
		Query:      model.RegistryQuery{Name: name},
		Details:    "Организация не найдена в реестре (поиск по названию)",
	}
}

// fromCache serves a cached verdict if one is fresh.
func (c *Checker) fromCache(ctx context.Context, taxID string) *model.RegistryCheckResult {
	if c.cache == nil {
		return nil
	}
	entry, err := c.cache.GetEntry(ctx, taxID, c.cacheTTL)
	if err != nil {
		c.logger.Warn("registry cache lookup failed", "inn", taxID, "error", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	c.logger.Debug("registry cache hit", "inn", taxID, "registered", entry.IsRegistered)

	result := &model.RegistryCheckResult{
		Used:               model.IdentifierTaxID,
		Query:              model.RegistryQuery{TaxID: taxID},
		IsRegistered:       entry.IsRegistered,
		CompanyName:        entry.CompanyName,
		RegistrationNumber: entry.RegistrationNumber,
		RegistrationDate:   entry.RegistrationDate,
		FromCache:          true,
	}
	if entry.IsRegistered {
		result.Status = model.RegistryPassed
		result.Confidence = model.ConfidenceHigh
		name := entry.CompanyName
		if name == "" {
			name = "ИНН: " + taxID
		}
		result.Details = "Организация найдена в реестре РКН (" + name + ")"
	} else {
		result.Status = model.RegistryFailed
		result.Confidence = model.ConfidenceMedium
		result.Details = "Организация не найдена в реестре операторов ПД"
	}
	return result
}

// saveEntry persists a lookup outcome. Cache write failures are logged
// and swallowed: a broken cache must not break the lookup.
func (c *Checker) saveEntry(ctx context.Context, taxID string, registered bool, companyName, regNumber, regDate string, raw map[string]string) {
	if c.cache == nil {
		return
	}
	rawJSON, _ := json.Marshal(raw) //nolint:errcheck // map[string]string cannot fail
	entry := &model.RegistryCacheEntry{
		TaxID:              taxID,
		IsRegistered:       registered,
		CompanyName:        companyName,
		RegistrationNumber: regNumber,
		RegistrationDate:   regDate,
		RawData:            string(rawJSON),
	}
	if err := c.cache.UpsertEntry(ctx, entry); err != nil {
		c.logger.Warn("registry cache save failed", "inn", taxID, "error", err)
	}
}

// fetchRegistryPage scans the registry search results for the tax id.
// The registry renders results as a table; the row containing the id
// carries the company name, registration number, and date in adjacent
// cells. A plain-text match outside any table still counts as found.
func (c *Checker) fetchRegistryPage(ctx context.Context, searchURL, taxID string) (found bool, companyName, regNumber, regDate string, err error) {
	doc, status, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return false, "", "", "", err
	}
	if status != http.StatusOK {
		return false, "", "", "", fmt.Errorf("http_%d", status)
	}

	doc.Find("table tbody tr, .registry-table tr, .operators-list tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(row.Text()), taxID) {
			return true
		}
		found = true

		cells := row.Find("td")
		if cells.Length() >= 2 {
			companyName = strings.TrimSpace(cells.Eq(1).Text())
			if companyName == "" {
				companyName = strings.TrimSpace(cells.Eq(0).Text())
			}
		}
		if cells.Length() >= 3 {
			regNumber = strings.TrimSpace(cells.Eq(2).Text())
		}
		if cells.Length() >= 4 {
			regDate = strings.TrimSpace(cells.Eq(3).Text())
		}
		return false
	})

	if !found && strings.Contains(doc.Find("body").Text(), taxID) {
		found = true
		companyName = "Найдено на странице (детали недоступны)"
	}

	return found, companyName, regNumber, regDate, nil
}

// fetchDocument fetches and parses one registry page.
func (c *Checker) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch registry: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse registry page: %w", err)
	}
	return doc, resp.StatusCode, nil
}
