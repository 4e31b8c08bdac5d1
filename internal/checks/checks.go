package checks

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/securelex/securelex/internal/model"
)

// CheckReachability is the short-circuit rule emitted when the snapshot
// carries a fetch error. When it fires, no content rule runs.
func CheckReachability(snap *model.WebsiteSnapshot) model.CheckResult {
	return model.CheckResult{
		ID:          "ERR-001",
		Name:        "Доступность сайта",
		Category:    model.CategoryTechnical,
		Status:      model.StatusFailed,
		Description: "Проверка доступности сайта",
		Details:     fmt.Sprintf("Ошибка при загрузке: %s", snap.Error),
	}
}

// CheckHTTPS verifies the audited page was served over HTTPS.
// Absence of transport encryption is a hard failure: personal data
// submitted over plain HTTP is transmitted in the clear.
func CheckHTTPS(snap *model.WebsiteSnapshot) model.CheckResult {
	isHTTPS := strings.HasPrefix(snap.URL, "https://")
	result := model.CheckResult{
		ID:          "SEC-001",
		Name:        "HTTPS/SSL сертификат",
		Category:    model.CategorySecurity,
		Description: "Проверка безопасного HTTPS соединения",
	}

	if isHTTPS && snap.StatusCode > 0 {
		result.Status = model.StatusPassed
		result.Details = "Сайт использует HTTPS"
		if snap.TLS != nil && snap.TLS.Protocol != "" {
			result.Details = fmt.Sprintf("Сайт использует HTTPS (%s)", snap.TLS.Protocol)
		}
		if snap.TLS != nil && !snap.TLS.ExpiresAt.IsZero() {
			result.Evidence = fmt.Sprintf("Сертификат действителен до %s", snap.TLS.ExpiresAt.Format("2006-01-02"))
		}
	} else {
		result.Status = model.StatusFailed
		result.Details = "Сайт не использует HTTPS - данные передаются без шифрования"
	}
	return result
}

// CheckSecurityHeaders evaluates the recommended response headers.
// Missing headers degrade security but do not eliminate it, so each
// absence is a warning, never a failure.
func CheckSecurityHeaders(snap *model.WebsiteSnapshot) []model.CheckResult {
	results := make([]model.CheckResult, 0, 7)

	hsts := snap.Header("strict-transport-security")
	results = append(results, headerCheck("SEC-002", "HSTS Header",
		"HTTP Strict Transport Security", hsts != "",
		fmt.Sprintf("HSTS настроен: %s", truncate(hsts, 100)),
		"HSTS не настроен - браузер может использовать небезопасное HTTP соединение"))

	csp := snap.Header("content-security-policy")
	results = append(results, headerCheck("SEC-003", "Content Security Policy",
		"Политика безопасности контента", csp != "",
		"CSP настроен для защиты от XSS и инъекций",
		"CSP не настроен - сайт уязвим для XSS атак"))

	xfo := snap.Header("x-frame-options")
	results = append(results, headerCheck("SEC-004", "X-Frame-Options",
		"Защита от clickjacking", xfo != "",
		fmt.Sprintf("Защита от встраивания: %s", xfo),
		"Защита от clickjacking не настроена"))

	// X-Content-Type-Options only counts when set to its one valid value.
	xcto := snap.Header("x-content-type-options")
	results = append(results, headerCheck("SEC-005", "X-Content-Type-Options",
		"Защита от MIME sniffing", strings.EqualFold(xcto, "nosniff"),
		"Защита от MIME sniffing активна",
		"Защита от MIME sniffing не настроена"))

	rp := snap.Header("referrer-policy")
	results = append(results, headerCheck("SEC-006", "Referrer-Policy",
		"Контроль передачи referrer", rp != "",
		fmt.Sprintf("Referrer-Policy: %s", rp),
		"Заголовок Referrer-Policy не найден"))

	pp := snap.Header("permissions-policy")
	results = append(results, headerCheck("SEC-007", "Permissions-Policy",
		"Контроль доступа к API браузера", pp != "",
		fmt.Sprintf("Permissions-Policy: %s", truncate(pp, 100)),
		"Заголовок Permissions-Policy не найден"))

	return results
}

// headerCheck builds a passed/warning result for a header presence rule.
func headerCheck(id, name, description string, present bool, okDetails, missingDetails string) model.CheckResult {
	result := model.CheckResult{
		ID:          id,
		Name:        name,
		Category:    model.CategorySecurity,
		Description: description,
	}
	if present {
		result.Status = model.StatusPassed
		result.Details = okDetails
	} else {
		result.Status = model.StatusWarning
		result.Details = missingDetails
	}
	return result
}

// CheckPrivacyPolicy looks for privacy policy markers. Absence is a
// hard failure: ФЗ-152 requires a published processing policy.
func CheckPrivacyPolicy(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "PDN-001",
		Name:        "Политика конфиденциальности",
		Category:    model.CategoryFZ152,
		Description: "Наличие и доступность политики конфиденциальности (ФЗ-152)",
	}
	if HasPrivacyPolicy(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Ссылка на политику конфиденциальности найдена"
	} else {
		result.Status = model.StatusFailed
		result.Details = "Политика конфиденциальности не найдена на странице"
	}
	return result
}

// CheckConsent looks for a consent mechanism near data-collection forms.
// A page without forms has nothing to consent to and passes vacuously.
func CheckConsent(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "PDN-002",
		Name:        "Согласие на обработку ПДн",
		Category:    model.CategoryFZ152,
		Description: "Проверка наличия чекбокса согласия в формах (ФЗ-152 ст.9)",
	}

	if !HasDataCollectionForm(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Формы сбора данных не обнаружены на странице"
		return result
	}

	if HasConsentMarkers(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Механизм получения согласия на обработку ПДн найден"
	} else {
		result.Status = model.StatusFailed
		result.Details = "В формах отсутствует явное согласие на обработку персональных данных"
	}
	return result
}

// CheckCookieBanner looks for cookie notice markers. Banners are often
// client-rendered and invisible to static analysis, so absence is a
// warning, not a failure.
func CheckCookieBanner(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "COOK-001",
		Name:        "Cookie-баннер",
		Category:    model.CategoryCookies,
		Description: "Уведомление об использовании cookies",
	}
	if HasCookieBanner(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Cookie-баннер обнаружен"
	} else {
		result.Status = model.StatusWarning
		result.Details = "Cookie-баннер не обнаружен - возможно нарушение требований ФЗ-152"
	}
	return result
}

// CheckContactInfo looks for operator contact markers (ФЗ-149).
func CheckContactInfo(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "INF-001",
		Name:        "Контактная информация",
		Category:    model.CategoryFZ149,
		Description: "Наличие контактных данных оператора (ФЗ-149)",
	}
	if HasContactInfo(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Контактная информация найдена"
	} else {
		result.Status = model.StatusWarning
		result.Details = "Контактная информация не найдена на странице"
	}
	return result
}

// CheckCompanyRequisites looks for legal entity identifiers.
func CheckCompanyRequisites(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "INF-002",
		Name:        "Реквизиты компании",
		Category:    model.CategoryFZ149,
		Description: "Наличие юридических реквизитов (ИНН, ОГРН)",
	}
	if HasCompanyRequisites(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Юридические реквизиты найдены"
	} else {
		result.Status = model.StatusWarning
		result.Details = "Юридические реквизиты (ИНН/ОГРН) не найдены"
	}
	return result
}

// CheckTermsOfService looks for terms-of-service markers.
func CheckTermsOfService(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "LEG-001",
		Name:        "Пользовательское соглашение",
		Category:    model.CategoryLegal,
		Description: "Наличие условий использования сервиса",
	}
	if HasTermsOfService(snap.HTML) {
		result.Status = model.StatusPassed
		result.Details = "Ссылка на пользовательское соглашение найдена"
	} else {
		result.Status = model.StatusWarning
		result.Details = "Пользовательское соглашение не найдено"
	}
	return result
}

// CheckTrackers detects third-party analytics signatures. Presence is
// informational: a tracker is not itself a violation but implies an
// obligation to disclose, so each detection emits its own warning.
func CheckTrackers(snap *model.WebsiteSnapshot) []model.CheckResult {
	var results []model.CheckResult

	if googleAnalyticsPattern.MatchString(snap.HTML) {
		results = append(results, model.CheckResult{
			ID:          "COOK-002",
			Name:        "Google Analytics",
			Category:    model.CategoryCookies,
			Status:      model.StatusWarning,
			Description: "Использование Google Analytics",
			Details:     "Google Analytics обнаружен - требуется согласие пользователя по ФЗ-152",
		})
	}

	if yandexMetrikaPattern.MatchString(snap.HTML) {
		results = append(results, model.CheckResult{
			ID:          "COOK-003",
			Name:        "Яндекс.Метрика",
			Category:    model.CategoryCookies,
			Status:      model.StatusWarning,
			Description: "Использование Яндекс.Метрики",
			Details:     "Яндекс.Метрика обнаружена - рекомендуется получить согласие на трекинг",
		})
	}

	if facebookPixelPattern.MatchString(snap.HTML) {
		results = append(results, model.CheckResult{
			ID:          "COOK-004",
			Name:        "Facebook Pixel",
			Category:    model.CategoryCookies,
			Status:      model.StatusWarning,
			Description: "Использование Facebook Pixel",
			Details:     "Facebook Pixel обнаружен - требуется согласие пользователя",
		})
	}

	return results
}

// CheckMixedContent flags plain-HTTP subresources on an HTTPS page.
// Mixed content breaks the transport security guarantee, so it is a
// hard failure.
func CheckMixedContent(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "SEC-008",
		Name:        "Смешанный контент",
		Category:    model.CategorySecurity,
		Description: "Проверка загрузки ресурсов по HTTP на HTTPS странице",
	}
	if HasMixedContent(snap.HTML) {
		result.Status = model.StatusFailed
		result.Details = "Обнаружен смешанный контент (HTTP ресурсы на HTTPS странице)"
	} else {
		result.Status = model.StatusPassed
		result.Details = "Смешанный контент не обнаружен"
	}
	return result
}

// CheckInsecureForms flags forms whose action submits over plain HTTP.
//
// Design decision: This rule parses the DOM with goquery instead of a
// regular expression because the action attribute can appear anywhere
// inside the form tag and regexp false-positives on commented markup.
func CheckInsecureForms(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "SEC-009",
		Name:        "Безопасность форм",
		Category:    model.CategorySecurity,
		Description: "Проверка отправки форм по защищённому соединению",
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		// Unparseable markup is ambiguous; defer to manual review.
		result.Status = model.StatusWarning
		result.Details = "Не удалось разобрать HTML для анализа форм"
		return result
	}

	insecure := doc.Find(`form[action^="http:"]`).Length()
	if insecure > 0 {
		result.Status = model.StatusFailed
		result.Details = "Найдены формы, отправляющие данные через HTTP"
		result.Evidence = fmt.Sprintf("Небезопасных форм: %d", insecure)
	} else {
		result.Status = model.StatusPassed
		result.Details = "Все формы безопасны"
	}
	return result
}

// CheckServerInfo flags server software disclosure headers.
func CheckServerInfo(snap *model.WebsiteSnapshot) model.CheckResult {
	result := model.CheckResult{
		ID:          "INF-003",
		Name:        "Скрытие информации о сервере",
		Category:    model.CategoryTechnical,
		Description: "Проверка раскрытия информации о серверном ПО",
	}

	server := snap.Header("server")
	poweredBy := snap.Header("x-powered-by")
	if server == "" && poweredBy == "" {
		result.Status = model.StatusPassed
		result.Details = "Информация о сервере скрыта"
		return result
	}

	result.Status = model.StatusWarning
	result.Details = "Рекомендуется скрыть информацию о сервере"
	result.Evidence = fmt.Sprintf("Server: %s, X-Powered-By: %s",
		valueOr(server, "N/A"), valueOr(poweredBy, "N/A"))
	return result
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
