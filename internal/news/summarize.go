package news

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/model"
)

// FallbackCategory is assigned when classification fails or yields an
// unknown label.
const FallbackCategory = "Wiadomości z Branży"

// allowedCategories is the fixed label set presented to the model.
var allowedCategories = map[string]bool{
	"Modele LLM":         true,
	"Generator Wideo":    true,
	"Produktywność":      true,
	"Robotyka":           true,
	"Badania Naukowe":    true,
	FallbackCategory:     true,
	"Inne":               true,
}

// Generator is the slice of the textgen chain the summarizer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, out any) (string, error)
}

// Summarizer annotates news items with Polish summary points and a
// category. It never fails: broken model output degrades to a
// deterministic summary built from the item itself.
type Summarizer struct {
	gen Generator
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(gen Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

type summaryPayload struct {
	SummaryPoints []string `json:"summary_points"`
	Category      string   `json:"category"`
}

// Summarize fills SummaryPoints and Category on a copy of the item.
func (s *Summarizer) Summarize(ctx context.Context, item model.NewsItem) model.NewsItem {
	var payload summaryPayload
	backend, err := s.gen.Generate(ctx, buildSummaryPrompt(&item), &payload)
	if err != nil {
		zap.L().Warn("news: summarization failed, using fallback",
			zap.String("title", item.Title), zap.Error(err))
		return fallbackSummary(item)
	}
	zap.L().Debug("news: item summarized",
		zap.String("title", item.Title), zap.String("backend", backend))
	return normalizeSummary(item, payload)
}

func buildSummaryPrompt(item *model.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Jesteś Ekspertem i Analitykiem AI. Przeanalizuj poniższą treść z platformy %s (%s).\n\n",
		orDefault(item.SourcePlatform, "unknown"), orDefault(item.AuthorOrChannel, "unknown"))
	fmt.Fprintf(&b, "Tytuł: %s\n", orDefault(item.Title, "Brak tytułu"))
	fmt.Fprintf(&b, "Treść: %s\n\n", item.RawContent)
	b.WriteString("Zadanie:\n")
	b.WriteString("1. Wygeneruj 3-5 zwięzłych punktów podsumowujących kluczowe informacje W JĘZYKU POLSKIM.\n")
	b.WriteString(`2. Skategoryzuj newsa do JEDNEJ z tych kategorii (również po polsku):
   "Modele LLM", "Generator Wideo", "Produktywność", "Robotyka", "Badania Naukowe", "Wiadomości z Branży", "Inne".

Zwróć WYŁĄCZNIE JSON w postaci:
{
    "summary_points": ["punkt 1", "punkt 2"],
    "category": "Nazwa Kategorii"
}`)
	return b.String()
}

// normalizeSummary cleans model output; empty points fall through to the
// deterministic summary.
func normalizeSummary(item model.NewsItem, payload summaryPayload) model.NewsItem {
	var points []string
	for _, p := range payload.SummaryPoints {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
	}
	if len(points) > 5 {
		points = points[:5]
	}
	if len(points) == 0 {
		return fallbackSummary(item)
	}

	category := strings.TrimSpace(payload.Category)
	if !allowedCategories[category] {
		category = FallbackCategory
	}

	item.SummaryPoints = points
	item.Category = category
	return item
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// fallbackSummary builds a summary without any model: source/author line,
// topic line, then up to two sentences lifted from the raw content.
func fallbackSummary(item model.NewsItem) model.NewsItem {
	title := strings.TrimSpace(orDefault(item.Title, "Brak tytułu"))
	source := orDefault(item.SourcePlatform, "źródło")
	author := orDefault(item.AuthorOrChannel, "nieznany autor")

	points := []string{
		fmt.Sprintf("Źródło: %s, autor/kanał: %s.", source, author),
		fmt.Sprintf("Temat: %s.", title),
	}

	if raw := strings.TrimSpace(item.RawContent); raw != "" {
		normalized := whitespaceRe.ReplaceAllString(raw, " ")
		snippets := sentenceSplitRe.Split(normalized, -1)
		taken := 0
		for _, snippet := range snippets {
			snippet = strings.Trim(snippet, " -•\t")
			if snippet == "" {
				continue
			}
			if r := []rune(snippet); len(r) > 180 {
				snippet = string(r[:177]) + "..."
			}
			points = append(points, snippet)
			if taken++; taken == 2 {
				break
			}
		}
	}

	if len(points) < 3 {
		points = append(points, "Brak pełnej treści do analizy — warto otworzyć oryginalny materiał.")
	}
	if len(points) > 5 {
		points = points[:5]
	}

	item.SummaryPoints = points
	if item.Category == "" || item.Category == "Uncategorized" {
		item.Category = FallbackCategory
	}
	return item
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
