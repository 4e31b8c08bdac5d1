package crawler

import (
	"regexp"
	"strings"

	"github.com/securelex/securelex/internal/model"
)

// labeledPattern pairs a pattern with the human-readable marker label
// reported as evidence when it matches.
type labeledPattern struct {
	pattern *regexp.Regexp
	label   string
}

var privacyPolicyMarkers = []labeledPattern{
	{regexp.MustCompile(`(?i)политик[аи|уыей]\s*конфиденциальности`), "политика конфиденциальности"},
	{regexp.MustCompile(`(?i)privacy\s*policy`), "privacy policy"},
	{regexp.MustCompile(`(?i)обработк[аиуеой]\s*персональных\s*данных`), "обработка ПДн"},
	{regexp.MustCompile(`(?i)защит[аиуеой]\s*персональных\s*данных`), "защита ПДн"},
	{regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*privacy[^"']*["']`), "ссылка /privacy"},
	{regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*policy[^"']*["']`), "ссылка /policy"},
	{regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*конфиденциальност[^"']*["']`), "ссылка конфиденциальность"},
}

var consentFormPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<form[^>]*>`),
	regexp.MustCompile(`(?i)<input[^>]*type\s*=\s*["'](email|tel|phone|text)["']`),
}

var consentMarkers = []labeledPattern{
	{regexp.MustCompile(`(?i)согласи[еяюо]\s*(на\s*)?(обработку|передачу)`), "согласие на обработку"},
	{regexp.MustCompile(`(?i)даю\s*согласие`), "даю согласие"},
	{regexp.MustCompile(`(?i)принимаю\s*(условия|политику)`), "принимаю условия"},
	{regexp.MustCompile(`(?i)type\s*=\s*["']checkbox["'][^>]*согласи`), "checkbox согласие"},
	{regexp.MustCompile(`(?i)персональных?\s*данных?`), "персональные данные"},
}

var cookieBannerMarkers = []labeledPattern{
	{regexp.MustCompile(`(?i)cookie\s*banner`), "cookie banner class/id"},
	{regexp.MustCompile(`(?i)cookie\s*consent`), "cookie consent"},
	{regexp.MustCompile(`(?i)accept.*cookie|принять.*cookie`), "accept cookie"},
	{regexp.MustCompile(`(?i)использу[ео][тм]\s*cookie`), "используем cookie"},
	{regexp.MustCompile(`(?i)мы\s*используем\s*cookie`), "мы используем cookie"},
	{regexp.MustCompile(`(?i)файл[аов]*\s*cookie`), "файлы cookie"},
}

var cookieJSIndicators = regexp.MustCompile(`(?i)setCookie|getCookie|cookieConsent|gdpr|gtag.*consent`)

var (
	phonePlusSevenPattern = regexp.MustCompile(`\+7\s*\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}`)
	phoneEightPattern     = regexp.MustCompile(`8\s*\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}`)
	emailPattern          = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	contactSectionPattern = regexp.MustCompile(`(?i)контакт|связаться|обратная\s*связь`)
)

// matchMarkers returns the labels of every matching pattern.
func matchMarkers(html string, patterns []labeledPattern) []string {
	found := make([]string, 0)
	for _, lp := range patterns {
		if lp.pattern.MatchString(html) {
			found = append(found, lp.label)
		}
	}
	return found
}

// CheckPrivacyPolicyMarkers looks for privacy policy markers in the
// combined HTML of a crawl.
func CheckPrivacyPolicyMarkers(html, mainURL string) model.CrawlCheckResult {
	found := matchMarkers(html, privacyPolicyMarkers)

	status := model.StatusFailed
	details := "Маркеры политики ПДн не найдены. Искались: политика конфиденциальности, privacy policy, обработка ПДн, ссылки /privacy, /policy"
	if len(found) > 0 {
		status = model.StatusPassed
		details = "Найдены маркеры: " + strings.Join(found, ", ")
	}

	return model.CrawlCheckResult{
		Name:    "Политика ПДн",
		Status:  status,
		Details: details,
		URLs:    []string{mainURL},
		Markers: found,
	}
}

// CheckConsentMarkers verifies that pages with data-collecting forms
// also mention consent. Pages without forms vacuously pass.
func CheckConsentMarkers(html, mainURL string) model.CrawlCheckResult {
	hasForm := false
	for _, p := range consentFormPatterns {
		if p.MatchString(html) {
			hasForm = true
			break
		}
	}

	if !hasForm {
		return model.CrawlCheckResult{
			Name:    "Согласие в формах",
			Status:  model.StatusPassed,
			Details: "Формы с email/phone/name не обнаружены на странице",
			URLs:    []string{mainURL},
			Markers: []string{"нет форм"},
		}
	}

	found := matchMarkers(html, consentMarkers)
	if len(found) > 0 {
		return model.CrawlCheckResult{
			Name:    "Согласие в формах",
			Status:  model.StatusPassed,
			Details: "Найдены маркеры согласия рядом с формами: " + strings.Join(found, ", "),
			URLs:    []string{mainURL},
			Markers: found,
		}
	}

	return model.CrawlCheckResult{
		Name:    "Согласие в формах",
		Status:  model.StatusFailed,
		Details: "Формы найдены, но маркеры согласия (согласие/персональн) не обнаружены",
		URLs:    []string{mainURL},
		Markers: []string{"форма без согласия"},
	}
}

// CheckCookieBannerMarkers looks for a cookie notice. A JS-only banner
// cannot be confirmed from static HTML, so JS signals downgrade the
// verdict to a warning instead of a pass.
func CheckCookieBannerMarkers(html, mainURL string) model.CrawlCheckResult {
	found := matchMarkers(html, cookieBannerMarkers)

	var status model.CheckStatus
	var details string
	switch {
	case len(found) > 0:
		status = model.StatusPassed
		details = "Cookie-баннер обнаружен: " + strings.Join(found, ", ")
	case cookieJSIndicators.MatchString(html):
		status = model.StatusWarning
		details = "Возможен JS-баннер (найдены JS-сигналы), но статический HTML не содержит явных маркеров"
		found = append(found, "JS indicators present")
	default:
		status = model.StatusWarning
		details = "Cookie-баннер не обнаружен в статическом HTML. Возможно рендерится через JS"
	}

	return model.CrawlCheckResult{
		Name:    "Cookie баннер",
		Status:  status,
		Details: details,
		URLs:    []string{mainURL},
		Markers: found,
	}
}

// CheckContactMarkers looks for contact details across the crawl.
func CheckContactMarkers(html, mainURL string) model.CrawlCheckResult {
	found := make([]string, 0)

	phone := phonePlusSevenPattern.FindString(html)
	if phone != "" {
		found = append(found, "телефон: "+phone)
	} else if phone8 := phoneEightPattern.FindString(html); phone8 != "" {
		found = append(found, "телефон: "+phone8)
	}
	if email := emailPattern.FindString(html); email != "" {
		found = append(found, "email: "+email)
	}
	if contactSectionPattern.MatchString(html) {
		found = append(found, "раздел контактов")
	}

	status := model.StatusWarning
	details := "Контактная информация (email/телефон/адрес) не найдена"
	if len(found) > 0 {
		status = model.StatusPassed
		details = "Найдено: " + strings.Join(found, "; ")
	}

	return model.CrawlCheckResult{
		Name:    "Контакты/реквизиты",
		Status:  status,
		Details: details,
		URLs:    []string{mainURL},
		Markers: found,
	}
}
