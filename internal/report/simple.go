package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/securelex/securelex/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the audit report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScore(&sb, report)
	w.writeChecks(&sb, report)
	w.writeRegistry(&sb, report)
	w.writeRecommendations(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with audit information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      ОТЧЕТ SECURELEX\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Сайт:        %s\n", report.URL))
	sb.WriteString(fmt.Sprintf("Дата:        %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Критериев:   %d\n", report.TotalCount))
	sb.WriteString("\n")
}

// writeScore writes the compliance score section.
func (w *SimpleWriter) writeScore(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ИТОГОВАЯ ОЦЕНКА\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Соответствие:  %d%%\n", report.ScorePercent))
	sb.WriteString(fmt.Sprintf("  Уровень риска: %s\n", severityText(report.Severity)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Пройдено:      %d\n", report.PassedCount))
	sb.WriteString(fmt.Sprintf("  Предупреждений: %d\n", report.WarningCount))
	sb.WriteString(fmt.Sprintf("  Нарушений:     %d\n", report.FailedCount))
	sb.WriteString("\n")

	if report.Summary != "" {
		sb.WriteString("  " + report.Summary + "\n\n")
	}
}

// writeChecks writes every check result, failures first.
func (w *SimpleWriter) writeChecks(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Checks) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("РЕЗУЛЬТАТЫ ПРОВЕРОК\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, status := range []model.CheckStatus{model.StatusFailed, model.StatusWarning, model.StatusPassed} {
		for _, check := range report.Checks {
			if check.Status != status {
				continue
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s — %s (%s)\n",
				statusMarker(check.Status), check.ID, check.Name, categoryText(check.Category)))
			if check.Details != "" {
				sb.WriteString(fmt.Sprintf("      %s\n", check.Details))
			}
			if w.verbose && check.Evidence != "" {
				sb.WriteString(fmt.Sprintf("      Фрагмент: %s\n", check.Evidence))
			}
		}
	}
	sb.WriteString("\n")
}

// statusMarker is the ASCII indicator used in terminal output.
func statusMarker(s model.CheckStatus) string {
	switch s {
	case model.StatusPassed:
		return "+"
	case model.StatusWarning:
		return "!"
	case model.StatusFailed:
		return "x"
	default:
		return "?"
	}
}

// writeRegistry writes the operator registry cross-check section.
func (w *SimpleWriter) writeRegistry(sb *strings.Builder, report *model.AuditReport) {
	if report.RegistryCheck == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("РЕЕСТР ОПЕРАТОРОВ РКН\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	check := report.RegistryCheck
	sb.WriteString(fmt.Sprintf("  Статус:   %s\n", string(check.Status)))
	if check.Query.TaxID != "" {
		sb.WriteString(fmt.Sprintf("  ИНН:      %s\n", check.Query.TaxID))
	}
	if check.CompanyName != "" {
		sb.WriteString(fmt.Sprintf("  Оператор: %s\n", check.CompanyName))
	}
	sb.WriteString(fmt.Sprintf("  %s\n", check.Details))
	sb.WriteString("\n")
}

// writeRecommendations writes the remediation suggestions.
func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("РЕКОМЕНДАЦИИ\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, rec := range report.Recommendations {
		sb.WriteString(fmt.Sprintf("  * %s\n", rec))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Отчет сформирован SecureLex\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteCrawl outputs the diagnostic crawl result in human-readable form.
func (w *SimpleWriter) WriteCrawl(result *model.CrawlAuditResult) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                 ДИАГНОСТИЧЕСКИЙ ОБХОД САЙТА\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Страниц обработано: %d\n", result.Stats.PagesCrawled))
	sb.WriteString(fmt.Sprintf("Страниц с ошибками: %d\n", result.Stats.PagesFailed))
	sb.WriteString(fmt.Sprintf("Время:              %d мс\n", result.Stats.ElapsedMs))
	for _, e := range result.Stats.TopErrors {
		sb.WriteString(fmt.Sprintf("  ! %s\n", e))
	}
	sb.WriteString("\n")

	for _, check := range result.Checks {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", statusMarker(check.Status), check.Name))
		sb.WriteString(fmt.Sprintf("      %s\n", check.Details))
	}
	sb.WriteString("\n")

	if result.Operator.Name != "" || result.Operator.TaxID != "" {
		sb.WriteString("Оператор:\n")
		if result.Operator.Name != "" {
			sb.WriteString(fmt.Sprintf("  Название: %s\n", result.Operator.Name))
		}
		if result.Operator.TaxID != "" {
			sb.WriteString(fmt.Sprintf("  ИНН:      %s\n", result.Operator.TaxID))
		}
		sb.WriteString("\n")
	}

	if w.verbose {
		sb.WriteString("Страницы:\n")
		for _, page := range result.Pages {
			line := fmt.Sprintf("  %d %s (%d байт, %s)", page.StatusCode, page.URL, page.Bytes, page.DiscoveredFrom)
			if page.Error != "" {
				line += " — " + page.Error
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}
