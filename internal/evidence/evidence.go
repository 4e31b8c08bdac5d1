package evidence

import (
	"fmt"
	"strings"

	"github.com/securelex/securelex/internal/model"
)

// bucketName identifies one of the five fixed buckets.
type bucketName string

const (
	bucketPolicy    bucketName = "policy"
	bucketConsent   bucketName = "consent"
	bucketCookies   bucketName = "cookies"
	bucketContacts  bucketName = "contacts"
	bucketTechnical bucketName = "technical"
	bucketNone      bucketName = ""
)

// BuildBundle groups check results into the five evidence buckets.
// Classification order matters: the first matching bucket wins, so a
// check named "cookie consent" lands in consent, not cookies.
func BuildBundle(checks []model.CheckResult, sourceURL string) *model.EvidenceBundle {
	bundle := &model.EvidenceBundle{}

	for _, check := range checks {
		name := classify(check)
		if name == bucketNone {
			continue
		}

		bucket := bucketFor(bundle, name)
		if len(bucket.Items) >= model.MaxEvidencePerBucket {
			bucket.Truncated = true
			continue
		}

		item := model.EvidenceItem{
			ID:          fmt.Sprintf("%s-%d", name, len(bucket.Items)+1),
			URL:         sourceURL,
			TextSnippet: truncateSnippet(firstNonEmpty(check.Details, check.Description), model.MaxSnippetLen),
			RawStatus:   check.Status,
			Category:    check.Category,
		}
		if check.Evidence != "" {
			item.Markers = []string{truncateSnippet(check.Evidence, model.MaxMarkerLen)}
		}
		bucket.Items = append(bucket.Items, item)
	}

	return bundle
}

// classify maps a check to its bucket by category and name keywords.
func classify(check model.CheckResult) bucketName {
	name := strings.ToLower(check.Name)
	category := strings.ToLower(string(check.Category))

	switch {
	case category == "fz152" || containsAny(name, "политик", "privacy", "конфиденциальност"):
		return bucketPolicy
	case containsAny(name, "согласи", "consent", "пдн"):
		return bucketConsent
	case category == "cookies" || containsAny(name, "cookie", "куки"):
		return bucketCookies
	case category == "fz149" || containsAny(name, "контакт", "реквизит", "инн", "огрн"):
		return bucketContacts
	case category == "security" || category == "technical" || containsAny(name, "https", "header", "ssl"):
		return bucketTechnical
	default:
		return bucketNone
	}
}

// bucketFor returns a pointer to the named bucket inside the bundle.
func bucketFor(bundle *model.EvidenceBundle, name bucketName) *model.EvidenceBucket {
	switch name {
	case bucketPolicy:
		return &bundle.Policy
	case bucketConsent:
		return &bundle.Consent
	case bucketCookies:
		return &bundle.Cookies
	case bucketContacts:
		return &bundle.Contacts
	default:
		return &bundle.Technical
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncateSnippet bounds a snippet to maxLen runes with an ellipsis
// marker. Rune-based so Cyrillic text is never cut mid-character.
func truncateSnippet(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
