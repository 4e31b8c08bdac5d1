package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/securelex/securelex/internal/model"
)

// Identifier patterns for Russian legal entities. The ИНН is 10 digits
// for organizations and 12 for individual entrepreneurs; the ОГРН is 13
// digits (15 for the ОГРНИП variant).
var (
	taxIDPattern = regexp.MustCompile(`(?i)инн\s*:?\s*(\d{10,12})`)
	ogrnPattern  = regexp.MustCompile(`(?i)огрн\s*:?\s*(\d{13,15})`)

	oooNamePattern = regexp.MustCompile(`(?i)ооо\s*["«]([^"»]{2,50})["»]`)
	ipNamePattern  = regexp.MustCompile(`(?i)ип\s+([а-яё]+\s+[а-яё]+\s*[а-яё]*)`)

	// looseNamePattern tolerates missing quotes around the ООО name.
	// Used only for the pending-check query, where a low-confidence
	// guess is better than nothing.
	looseNamePattern = regexp.MustCompile(`(?i)ооо\s*["«]?([^"»]{2,50})["»]?|ип\s+([а-яё]+\s+[а-яё]+)`)
)

// ExtractOperator scrapes operator identifiers from page content.
// Confidence grades the haul: all three identifiers is high, a number
// alone is medium, a name alone is low.
func ExtractOperator(html string) model.OperatorInfo {
	info := model.OperatorInfo{Confidence: model.ConfidenceNone}

	if m := taxIDPattern.FindStringSubmatch(html); m != nil {
		info.TaxID = m[1]
	}
	if m := ogrnPattern.FindStringSubmatch(html); m != nil {
		info.OGRN = m[1]
	}
	if m := oooNamePattern.FindStringSubmatch(html); m != nil {
		info.Name = `ООО "` + m[1] + `"`
	} else if m := ipNamePattern.FindStringSubmatch(html); m != nil {
		info.Name = "ИП " + strings.TrimSpace(m[1])
	}

	switch {
	case info.TaxID != "" && info.OGRN != "" && info.Name != "":
		info.Confidence = model.ConfidenceHigh
	case info.TaxID != "" || info.OGRN != "":
		info.Confidence = model.ConfidenceMedium
	case info.Name != "":
		info.Confidence = model.ConfidenceLow
	}

	info.NeedsCompanyDetails = info.TaxID == "" && info.OGRN == ""
	return info
}

// BuildPendingCheck inspects page content and returns the registry
// check placeholder embedded in an audit report. The actual registry
// confirmation runs out-of-band; the audit never blocks on it.
func BuildPendingCheck(html, pageURL string) *model.RegistryCheckResult {
	var taxID string
	if m := taxIDPattern.FindStringSubmatch(html); m != nil {
		taxID = m[1]
	}

	if taxID != "" {
		return &model.RegistryCheckResult{
			Status:     model.RegistryPending,
			Confidence: model.ConfidenceHigh,
			Used:       model.IdentifierTaxID,
			Query:      model.RegistryQuery{TaxID: taxID},
			Details:    fmt.Sprintf("ИНН найден: %s. Требуется проверка в реестре РКН.", taxID),
			Evidence: &model.RegistryEvidence{
				TaxIDFound: taxID,
				URLs:       []string{pageURL},
			},
		}
	}

	var name string
	if m := looseNamePattern.FindStringSubmatch(html); m != nil {
		if m[1] != "" {
			name = strings.TrimSpace(m[1])
		} else {
			name = strings.TrimSpace(m[2])
		}
	}

	if name != "" {
		return &model.RegistryCheckResult{
			Status:              model.RegistryPending,
			Confidence:          model.ConfidenceLow,
			Used:                model.IdentifierName,
			Query:               model.RegistryQuery{Name: name},
			Details:             fmt.Sprintf("Название организации: %s. ИНН не найден, точность низкая.", name),
			NeedsCompanyDetails: true,
			Evidence: &model.RegistryEvidence{
				NameFound: name,
				URLs:      []string{pageURL},
			},
		}
	}

	return &model.RegistryCheckResult{
		Status:              model.RegistryNotChecked,
		Confidence:          model.ConfidenceNone,
		Used:                model.IdentifierNone,
		Details:             "ИНН и название организации не найдены на странице. Требуется ручной ввод данных.",
		NeedsCompanyDetails: true,
	}
}
