package model

// Evidence bucket size and snippet limits.
//
// Design decision: the bundle is a bounded *sample* of evidence, not an
// exhaustive audit trail. Capping each bucket at a fixed size bounds the
// report payload deterministically regardless of page size; overflow is
// recorded in the bucket's Truncated flag rather than guessed from
// length by consumers.
const (
	// MaxEvidencePerBucket is the maximum number of items per bucket.
	MaxEvidencePerBucket = 10

	// MaxSnippetLen is the maximum length of an evidence text snippet.
	MaxSnippetLen = 350

	// MaxMarkerLen is the maximum length of a single matched marker.
	MaxMarkerLen = 200
)

// EvidenceItem is one retained finding inside a bucket.
type EvidenceItem struct {
	// ID is a category-scoped sequence id, e.g. "policy-3".
	ID string `json:"id"`

	// URL is the page the finding originates from.
	URL string `json:"url,omitempty"`

	// TextSnippet is the truncated human-readable rationale.
	TextSnippet string `json:"text_snippet,omitempty"`

	// Markers are the raw matched fragments, individually truncated.
	Markers []string `json:"markers,omitempty"`

	// RawStatus is the originating check's status.
	RawStatus CheckStatus `json:"raw_status,omitempty"`

	// Category is the originating check's category.
	Category CheckCategory `json:"category,omitempty"`
}

// EvidenceBucket is one named, ordered, capped sequence of items.
type EvidenceBucket struct {
	// Items holds at most MaxEvidencePerBucket entries in the order the
	// originating checks were produced.
	Items []EvidenceItem `json:"items"`

	// Truncated is true when at least one matching finding was dropped
	// because the bucket was already full.
	Truncated bool `json:"truncated,omitempty"`
}

// EvidenceBundle groups retained findings into five fixed buckets.
// It is built once from the full CheckResult set after Level-1 (and
// optionally Level-2) completes.
type EvidenceBundle struct {
	Policy    EvidenceBucket `json:"policy"`
	Consent   EvidenceBucket `json:"consent"`
	Cookies   EvidenceBucket `json:"cookies"`
	Contacts  EvidenceBucket `json:"contacts"`
	Technical EvidenceBucket `json:"technical"`
}
