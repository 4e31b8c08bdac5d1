package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/securelex/securelex/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the audit report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScore(md, report)
	w.writeChecks(md, report)
	w.writeRegistry(md, report)
	w.writeRecommendations(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with audit information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("Отчет SecureLex")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Параметр", "Значение"},
		Rows: [][]string{
			{"Сайт", "`" + report.URL + "`"},
			{"Дата проверки", report.ProcessedAt.Format("2006-01-02 15:04:05 MST")},
			{"Критериев проверено", strconv.Itoa(report.TotalCount)},
			{"Соответствие", strconv.Itoa(report.ScorePercent) + "%"},
			{"Уровень риска", severityText(report.Severity)},
		},
	})
	md.PlainText("")
}

// writeScore writes the status summary section with a distribution chart.
func (w *MarkdownWriter) writeScore(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Сводка")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Статус", "Количество"},
		Rows: [][]string{
			{"✅ Пройдено", strconv.Itoa(report.PassedCount)},
			{"⚠️ Предупреждения", strconv.Itoa(report.WarningCount)},
			{"❌ Нарушения", strconv.Itoa(report.FailedCount)},
			{"**Всего**", "**" + strconv.Itoa(report.TotalCount) + "**"},
		},
	})
	md.PlainText("")

	if report.TotalCount > 0 {
		w.writePieChart(md, report)
	}

	if report.Summary != "" {
		md.Blockquote(report.Summary)
		md.PlainText("")
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.AuditReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Распределение результатов"),
		piechart.WithShowData(true),
	)

	if report.PassedCount > 0 {
		chart.LabelAndIntValue("Пройдено", uint64(report.PassedCount))
	}
	if report.WarningCount > 0 {
		chart.LabelAndIntValue("Предупреждения", uint64(report.WarningCount))
	}
	if report.FailedCount > 0 {
		chart.LabelAndIntValue("Нарушения", uint64(report.FailedCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the severity tier.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport) {
	switch report.Severity {
	case model.SeverityHigh:
		md.Cautionf(
			"Высокий уровень риска: %d нарушений требуют немедленного устранения.",
			report.FailedCount,
		)
	case model.SeverityMedium:
		md.Warningf(
			"Средний уровень риска: %d нарушений и %d предупреждений следует исправить.",
			report.FailedCount, report.WarningCount,
		)
	default:
		md.Tip("Низкий уровень риска: сайт соответствует большинству проверенных требований.")
	}
	md.PlainText("")
}

// writeChecks writes every check result grouped by category.
func (w *MarkdownWriter) writeChecks(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Результаты проверок")
	md.PlainText("")

	if len(report.Checks) == 0 {
		md.PlainText("Проверки не выполнялись.")
		md.PlainText("")
		return
	}

	categories := []model.CheckCategory{
		model.CategorySecurity,
		model.CategoryFZ152,
		model.CategoryFZ149,
		model.CategoryCookies,
		model.CategoryLegal,
		model.CategoryTechnical,
		model.CategoryAIAnalysis,
	}

	for _, category := range categories {
		var rows [][]string
		for _, check := range report.Checks {
			if check.Category != category {
				continue
			}
			rows = append(rows, []string{
				check.ID,
				check.Name,
				statusIcon(check.Status),
				truncateString(check.Details, 80),
			})
		}
		if len(rows) == 0 {
			continue
		}

		md.H3(categoryText(category))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Код", "Проверка", "Статус", "Детали"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeRegistry writes the operator registry cross-check section.
func (w *MarkdownWriter) writeRegistry(md *markdown.Markdown, report *model.AuditReport) {
	if report.RegistryCheck == nil {
		return
	}
	check := report.RegistryCheck

	md.H2("Реестр операторов РКН")
	md.PlainText("")

	rows := [][]string{
		{"Статус", string(check.Status)},
		{"Достоверность", string(check.Confidence)},
	}
	if check.Query.TaxID != "" {
		rows = append(rows, []string{"ИНН", check.Query.TaxID})
	}
	if check.CompanyName != "" {
		rows = append(rows, []string{"Оператор", check.CompanyName})
	}
	if check.RegistrationNumber != "" {
		rows = append(rows, []string{"Номер в реестре", check.RegistrationNumber})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Параметр", "Значение"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainText(check.Details)
	md.PlainText("")
}

// writeRecommendations writes the remediation suggestions.
func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Recommendations) == 0 {
		return
	}

	md.H2("Рекомендации")
	md.PlainText("")
	md.BulletList(report.Recommendations...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Отчет сформирован SecureLex*")
}

// WriteCrawl outputs the diagnostic crawl result in Markdown format.
func (w *MarkdownWriter) WriteCrawl(result *model.CrawlAuditResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Диагностический обход сайта")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Параметр", "Значение"},
		Rows: [][]string{
			{"Страниц обработано", strconv.Itoa(result.Stats.PagesCrawled)},
			{"Страниц с ошибками", strconv.Itoa(result.Stats.PagesFailed)},
			{"Время, мс", strconv.FormatInt(result.Stats.ElapsedMs, 10)},
		},
	})
	md.PlainText("")

	if len(result.Checks) > 0 {
		rows := make([][]string, 0, len(result.Checks))
		for _, check := range result.Checks {
			rows = append(rows, []string{
				check.Name,
				statusIcon(check.Status),
				truncateString(check.Details, 80),
			})
		}
		md.H2("Маркерные проверки")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Проверка", "Статус", "Детали"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(result.Pages) > 0 {
		rows := make([][]string, 0, len(result.Pages))
		for _, page := range result.Pages {
			status := strconv.Itoa(page.StatusCode)
			if page.Error != "" {
				status = page.Error
			}
			rows = append(rows, []string{
				"`" + truncateString(page.URL, 60) + "`",
				status,
				string(page.DiscoveredFrom),
			})
		}
		md.H2("Страницы")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Статус", "Источник"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// truncateString truncates a string to maxLen runes with an ellipsis.
// Rune-based because most report text is Cyrillic.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
