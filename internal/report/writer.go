package report

import (
	"io"

	"github.com/securelex/securelex/internal/model"
)

// Writer defines the interface for report output.
// Implementations write audit results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the audit report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.AuditReport) (int, error)

	// WriteCrawl outputs a diagnostic crawl result.
	WriteCrawl(result *model.CrawlAuditResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.AuditReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteCrawl outputs the crawl result to all configured Writers.
func (m *MultiWriter) WriteCrawl(result *model.CrawlAuditResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCrawl(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severityText renders a severity tier for humans, in Russian like the
// rest of the report.
func severityText(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "высокий риск"
	case model.SeverityMedium:
		return "средний риск"
	case model.SeverityLow:
		return "низкий риск"
	default:
		return string(s)
	}
}

// categoryText renders a check category for humans.
func categoryText(c model.CheckCategory) string {
	switch c {
	case model.CategorySecurity:
		return "Безопасность"
	case model.CategoryFZ152:
		return "ФЗ-152"
	case model.CategoryFZ149:
		return "ФЗ-149"
	case model.CategoryCookies:
		return "Cookies"
	case model.CategoryLegal:
		return "Правовые документы"
	case model.CategoryTechnical:
		return "Техническое"
	case model.CategoryAIAnalysis:
		return "ИИ-анализ"
	default:
		return string(c)
	}
}

// statusIcon returns the marker shown next to a check status.
func statusIcon(s model.CheckStatus) string {
	switch s {
	case model.StatusPassed:
		return "✅"
	case model.StatusWarning:
		return "⚠️"
	case model.StatusFailed:
		return "❌"
	default:
		return "?"
	}
}
