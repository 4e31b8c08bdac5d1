package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/securelex/securelex/internal/model"
)

// systemPrompt instructs the provider to act as a compliance expert and
// answer in the structured JSON contract.
const systemPrompt = `Ты - эксперт по соответствию сайтов требованиям ФЗ-152 (О персональных данных) и ФЗ-149 (Об информации).

Проанализируй HTML страницы и результаты автоматических проверок. Определи:
1. Есть ли нарушения законодательства о персональных данных
2. Соответствует ли сайт требованиям по cookies и согласию
3. Достаточна ли политика конфиденциальности

Ответь в JSON формате:
{
  "summary": "Краткое резюме соответствия сайта (2-3 предложения на русском)",
  "recommendations": ["Рекомендация 1", "Рекомендация 2", ...],
  "additional_issues": [
    {
      "id": "AI-001",
      "name": "Название проблемы",
      "status": "warning или failed",
      "details": "Описание проблемы"
    }
  ]
}`

// buildUserPrompt assembles the per-audit prompt: the target URL, the
// non-passing Level-1 findings, and the evidence bundle as JSON.
func buildUserPrompt(url string, bundle *model.EvidenceBundle, level1 []model.CheckResult) string {
	var findings strings.Builder
	for _, check := range level1 {
		if check.Status == model.StatusPassed {
			continue
		}
		fmt.Fprintf(&findings, "- %s: %s - %s\n", check.Name, check.Status, check.Details)
	}

	evidenceJSON, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		evidenceJSON = []byte("{}")
	}

	return fmt.Sprintf(`URL сайта: %s

Результаты автоматических проверок:
%s
Структурированные данные аудита (Evidence Bundle):
%s`, url, findings.String(), evidenceJSON)
}
