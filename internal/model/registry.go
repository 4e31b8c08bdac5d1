package model

import "time"

// RegistryStatus is the outcome class of an operator registry cross-check.
type RegistryStatus string

const (
	// RegistryPassed means the operator was found in the registry.
	RegistryPassed RegistryStatus = "passed"

	// RegistryWarning means the lookup completed but the result is
	// inconclusive (e.g. a name-only match).
	RegistryWarning RegistryStatus = "warning"

	// RegistryFailed means the operator is definitely not registered.
	RegistryFailed RegistryStatus = "failed"

	// RegistryPending means an identifier was extracted from the site
	// but the registry confirmation must be completed out-of-band.
	// The engine never blocks on a pending check.
	RegistryPending RegistryStatus = "pending"

	// RegistryNotChecked means no usable identifier was available.
	RegistryNotChecked RegistryStatus = "not_checked"
)

// RegistryConfidence grades how trustworthy a cross-check result is.
type RegistryConfidence string

const (
	ConfidenceHigh   RegistryConfidence = "high"
	ConfidenceMedium RegistryConfidence = "medium"
	ConfidenceLow    RegistryConfidence = "low"
	ConfidenceNone   RegistryConfidence = "none"
)

// RegistryIdentifier names which identifier kind a cross-check used.
type RegistryIdentifier string

const (
	// IdentifierTaxID is the Russian ИНН (10 digits for organizations,
	// 12 for individual entrepreneurs).
	IdentifierTaxID RegistryIdentifier = "inn"

	// IdentifierName is a company-name search, lower confidence than a
	// tax-id match.
	IdentifierName RegistryIdentifier = "name"

	// IdentifierManual means the caller supplied the identifier.
	IdentifierManual RegistryIdentifier = "manual"

	// IdentifierNone means no identifier was found or supplied.
	IdentifierNone RegistryIdentifier = "none"
)

// RegistryQuery records the query issued to the registry.
type RegistryQuery struct {
	TaxID string `json:"inn,omitempty"`
	Name  string `json:"name,omitempty"`
}

// RegistryEvidence records what the cross-check matched and where.
type RegistryEvidence struct {
	// TaxIDFound is the ИНН matched on the audited page or in the
	// registry response.
	TaxIDFound string `json:"inn_found,omitempty"`

	// NameFound is the matched company name.
	NameFound string `json:"name_found,omitempty"`

	// URLs are the source pages backing the match.
	URLs []string `json:"urls,omitempty"`
}

// RegistryCheckResult is the outcome of the operator cross-check against
// the regulator's personal-data operator registry.
type RegistryCheckResult struct {
	Status     RegistryStatus     `json:"status"`
	Confidence RegistryConfidence `json:"confidence"`
	Used       RegistryIdentifier `json:"used"`
	Query      RegistryQuery      `json:"query"`

	// Details is a human-readable explanation, in Russian.
	Details string `json:"details"`

	// IsRegistered is true when the operator appears in the registry.
	IsRegistered bool `json:"is_registered"`

	// CompanyName, RegistrationNumber, and RegistrationDate are filled
	// when a matching registry row exposed them.
	CompanyName        string `json:"company_name,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	RegistrationDate   string `json:"registration_date,omitempty"`

	// NeedsCompanyDetails signals that the caller must supply operator
	// details to complete the check.
	NeedsCompanyDetails bool `json:"needs_company_details,omitempty"`

	// FromCache is true when the result was served from the local cache
	// without a network call.
	FromCache bool `json:"from_cache"`

	// Evidence backs the result for manual review.
	Evidence *RegistryEvidence `json:"evidence,omitempty"`

	// Err is a machine-readable failure code ("invalid_inn",
	// "http_503", ...). Empty on success.
	Err string `json:"error,omitempty"`
}

// RegistryCacheEntry is the persisted row for one tax identifier.
// Entries are upserted on every lookup, including negative and failed
// lookups, so repeated misses do not re-fetch within the TTL. The engine
// never deletes entries; eviction is an external concern.
type RegistryCacheEntry struct {
	// TaxID is the ИНН the entry is keyed by, digits only.
	TaxID string

	// IsRegistered is the cached registry verdict.
	IsRegistered bool

	// CompanyName, RegistrationNumber, and RegistrationDate mirror the
	// registry row when one was found.
	CompanyName        string
	RegistrationNumber string
	RegistrationDate   string

	// RawData is an opaque payload describing the lookup (search URL,
	// failure details). Stored as JSON text.
	RawData string

	// LastCheckedAt is when the registry was last queried for this id.
	// An entry older than the cache TTL is treated as absent.
	LastCheckedAt time.Time
}

// OperatorInfo is what the engine could scrape about the site operator
// from audited page content.
type OperatorInfo struct {
	// TaxID is the ИНН found on the page, if any.
	TaxID string `json:"inn,omitempty"`

	// OGRN is the primary state registration number found, if any.
	OGRN string `json:"ogrn,omitempty"`

	// Name is the company name found ("ООО ..." or "ИП ..."), if any.
	Name string `json:"name,omitempty"`

	// NeedsCompanyDetails is true when neither ИНН nor ОГРН was found.
	NeedsCompanyDetails bool `json:"needs_company_details"`

	// Confidence grades the extraction: both numbers plus a name is
	// high, a number alone is medium, a name alone is low.
	Confidence RegistryConfidence `json:"confidence"`
}
