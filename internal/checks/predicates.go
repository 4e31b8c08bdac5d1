package checks

import "regexp"

// Marker pattern sets. Each set backs exactly one predicate below so the
// patterns can be tuned independently of rule logic.
var (
	// privacyPolicyPatterns match policy-page links and policy language
	// in Russian and English.
	privacyPolicyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)политик[аиуыей]\s*конфиденциальности`),
		regexp.MustCompile(`(?i)privacy\s*policy`),
		regexp.MustCompile(`(?i)обработк[аиуеой]\s*персональных\s*данных`),
		regexp.MustCompile(`(?i)защит[аиуеой]\s*персональных\s*данных`),
		regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*privacy[^"']*["']`),
		regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*policy[^"']*["']`),
		regexp.MustCompile(`(?i)href\s*=\s*["'][^"']*конфиденциальност[^"']*["']`),
	}

	// consentPatterns match consent language near data-collection forms.
	consentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)согласи[еяюо]\s*(на\s*)?(обработку|передачу)`),
		regexp.MustCompile(`(?i)даю\s*согласие`),
		regexp.MustCompile(`(?i)принимаю\s*(условия|политику)`),
		regexp.MustCompile(`(?i)consent`),
		regexp.MustCompile(`(?i)type\s*=\s*["']checkbox["'][^>]*согласи`),
		regexp.MustCompile(`(?i)согласи[^"']*type\s*=\s*["']checkbox["']`),
		regexp.MustCompile(`(?i)персональных?\s*данных?`),
	}

	// formPatterns detect forms that collect user data.
	formPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<form[^>]*>`),
		regexp.MustCompile(`(?i)<input[^>]*type\s*=\s*["'](text|email|tel|phone)["']`),
	}

	// cookieBannerPatterns match cookie notice language.
	cookieBannerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)cookie`),
		regexp.MustCompile(`(?i)куки`),
		regexp.MustCompile(`(?i)файл[аов]*\s*cookie`),
		regexp.MustCompile(`(?i)cookie\s*banner`),
		regexp.MustCompile(`(?i)cookie\s*consent`),
		regexp.MustCompile(`(?i)accept\s*cookie`),
		regexp.MustCompile(`(?i)принять\s*cookie`),
		regexp.MustCompile(`(?i)использу[ео][тм]\s*cookie`),
		regexp.MustCompile(`(?i)мы\s*используем\s*cookie`),
	}

	// contactPatterns match Russian phone formats, emails, and contact
	// section language.
	contactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+7\s*\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}`),
		regexp.MustCompile(`8\s*\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}`),
		regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		regexp.MustCompile(`(?i)телефон`),
		regexp.MustCompile(`(?i)email`),
		regexp.MustCompile(`(?i)контакт`),
		regexp.MustCompile(`(?i)связаться`),
	}

	// requisitePatterns match legal entity identifiers (ИНН, ОГРН, КПП)
	// and entity-name forms.
	requisitePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)инн\s*:?\s*\d{10,12}`),
		regexp.MustCompile(`(?i)огрн\s*:?\s*\d{13,15}`),
		regexp.MustCompile(`(?i)кпп\s*:?\s*\d{9}`),
		regexp.MustCompile(`(?i)юридический\s*адрес`),
		regexp.MustCompile(`(?i)ооо\s*["«]?[^"»]{2,50}["»]?`),
		regexp.MustCompile(`(?i)ип\s+[а-яё]+`),
	}

	// termsPatterns match terms-of-service and public offer language.
	termsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)пользовательское\s*соглашение`),
		regexp.MustCompile(`(?i)terms\s*(of\s*)?service`),
		regexp.MustCompile(`(?i)условия\s*использования`),
		regexp.MustCompile(`(?i)правила\s*(пользования|сервиса)`),
		regexp.MustCompile(`(?i)оферт[аыу]`),
		regexp.MustCompile(`(?i)договор\s*оферт`),
	}

	// Tracker signatures. Each tracker gets its own pattern so each
	// detection emits its own finding.
	googleAnalyticsPattern = regexp.MustCompile(`(?i)google-analytics\.com|gtag|ga\s*\(|GoogleAnalyticsObject`)
	yandexMetrikaPattern   = regexp.MustCompile(`(?i)mc\.yandex\.ru|ym\s*\(|yandex.*metrika`)
	facebookPixelPattern   = regexp.MustCompile(`(?i)facebook\.net|fbq\s*\(|fb-pixel`)

	// mixedContentPattern matches HTTP subresources embedded in a page.
	mixedContentPattern = regexp.MustCompile(`(?i)src=["']http://`)
)

// matchesAny reports whether any pattern in the set matches the HTML.
func matchesAny(patterns []*regexp.Regexp, html string) bool {
	for _, p := range patterns {
		if p.MatchString(html) {
			return true
		}
	}
	return false
}

// HasPrivacyPolicy reports whether the page carries privacy policy
// markers or links.
func HasPrivacyPolicy(html string) bool {
	return matchesAny(privacyPolicyPatterns, html)
}

// HasConsentMarkers reports whether the page carries personal-data
// consent language.
func HasConsentMarkers(html string) bool {
	return matchesAny(consentPatterns, html)
}

// HasDataCollectionForm reports whether the page contains a form or a
// text/email/tel input.
func HasDataCollectionForm(html string) bool {
	return matchesAny(formPatterns, html)
}

// HasCookieBanner reports whether the page carries cookie notice markers.
func HasCookieBanner(html string) bool {
	return matchesAny(cookieBannerPatterns, html)
}

// HasContactInfo reports whether the page carries contact markers.
func HasContactInfo(html string) bool {
	return matchesAny(contactPatterns, html)
}

// HasCompanyRequisites reports whether the page carries legal entity
// identifiers.
func HasCompanyRequisites(html string) bool {
	return matchesAny(requisitePatterns, html)
}

// HasTermsOfService reports whether the page carries terms-of-service
// markers.
func HasTermsOfService(html string) bool {
	return matchesAny(termsPatterns, html)
}

// HasMixedContent reports whether the page embeds plain-HTTP resources.
func HasMixedContent(html string) bool {
	return mixedContentPattern.MatchString(html)
}
