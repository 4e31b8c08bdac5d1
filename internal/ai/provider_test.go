package ai

import (
	"reflect"
	"strings"
	"testing"
)

// TestDecodeLenient tests the three-stage JSON recovery.
func TestDecodeLenient(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		raw      string
		expected *Result
	}{
		{
			name: "strict json",
			raw:  `{"summary":"Сайт соответствует","recommendations":["Добавьте HSTS"],"additional_issues":[]}`,
			expected: &Result{
				Summary:          "Сайт соответствует",
				Recommendations:  []string{"Добавьте HSTS"},
				AdditionalIssues: []Issue{},
			},
		},
		{
			name: "json wrapped in markdown fence",
			raw:  "```json\n{\"summary\":\"Нарушения найдены\"}\n```",
			expected: &Result{
				Summary: "Нарушения найдены",
			},
		},
		{
			name: "json with leading prose",
			raw:  `Вот результат анализа: {"summary":"Анализ готов","recommendations":["Исправьте баннер"]}`,
			expected: &Result{
				Summary:         "Анализ готов",
				Recommendations: []string{"Исправьте баннер"},
			},
		},
		{
			name: "plain prose becomes the summary",
			raw:  "Сайт в целом соответствует требованиям, но политика устарела.",
			expected: &Result{
				Summary: "Сайт в целом соответствует требованиям, но политика устарела.",
			},
		},
		{
			name:     "empty answer",
			raw:      "   \n",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := decodeLenient(tc.raw)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("decodeLenient(%q) = %+v, expected %+v", tc.raw, got, tc.expected)
			}
		})
	}
}

// TestQualityScore tests the tri-hybrid ranking heuristic.
func TestQualityScore(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		result   *Result
		expected int
	}{
		{
			name:     "nil result",
			result:   nil,
			expected: 0,
		},
		{
			name:     "short summary only",
			result:   &Result{Summary: "ok"},
			expected: 0,
		},
		{
			name:     "substantive summary",
			result:   &Result{Summary: "Развернутое резюме по итогам проверки"},
			expected: 1,
		},
		{
			name: "exactly 20 characters scores nothing",
			// The threshold is strictly more than 20 characters.
			result:   &Result{Summary: strings.Repeat("а", 20)},
			expected: 0,
		},
		{
			name: "cyrillic summary counted in characters not bytes",
			// 22 characters, 42 bytes.
			result:   &Result{Summary: "аудит сайта завершился"},
			expected: 1,
		},
		{
			name: "recommendations and issues",
			result: &Result{
				Summary:         "Развернутое резюме по итогам проверки",
				Recommendations: []string{"a", "b", "c"},
				AdditionalIssues: []Issue{
					{Name: "x"},
					{Name: "y"},
				},
			},
			expected: 8,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.result.QualityScore(); got != tc.expected {
				t.Errorf("QualityScore() = %d, expected %d", got, tc.expected)
			}
		})
	}
}
