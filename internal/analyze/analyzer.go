// Package analyze classifies social comments into pain signals.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// ErrMarkerUnavailable is recorded on the result when every backend failed.
const ErrMarkerUnavailable = "AI analysis unavailable"

// Generator is the slice of the textgen chain the analyzer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, out any) (string, error)
}

// Analyzer turns comment texts into a confidence-weighted pain score.
// It never returns an error: total backend failure yields a zero result
// with an error marker.
type Analyzer struct {
	gen Generator
	cfg config.AnalyzeConfig
}

// New creates an Analyzer backed by the given text-gen chain.
func New(gen Generator, cfg config.AnalyzeConfig) *Analyzer {
	if cfg.MinCommentLen == 0 {
		cfg.MinCommentLen = 6
	}
	if cfg.MaxCommentLen == 0 {
		cfg.MaxCommentLen = 500
	}
	if cfg.MaxComments == 0 {
		cfg.MaxComments = 50
	}
	return &Analyzer{gen: gen, cfg: cfg}
}

// rawResult mirrors the JSON contract with the classification backends.
type rawResult struct {
	PainScore int            `json:"pain_score"`
	Signals   []model.Signal `json:"signals"`
	Summary   string         `json:"summary"`
	Err       string         `json:"error"`
}

// Analyze classifies the given texts (caption first, then comments).
// Texts outside the length bounds are dropped before submission; only the
// first MaxComments valid texts are sent. An empty valid set short-circuits
// to a zero result without touching any backend.
func (a *Analyzer) Analyze(ctx context.Context, texts []string) model.AnalysisResult {
	valid := a.filter(texts)
	if len(valid) == 0 {
		return model.AnalysisResult{PainScore: 0, Signals: []model.Signal{}}
	}

	var raw rawResult
	backend, err := a.gen.Generate(ctx, buildPrompt(valid), &raw)
	if err != nil {
		zap.L().Warn("analyze: all classification backends failed", zap.Error(err))
		return model.AnalysisResult{
			PainScore: 0,
			Signals:   []model.Signal{},
			Err:       ErrMarkerUnavailable,
		}
	}

	zap.L().Debug("analyze: classification complete",
		zap.String("backend", backend),
		zap.Int("comments", len(valid)),
		zap.Int("pain_score", raw.PainScore),
	)

	signals := raw.Signals
	if signals == nil {
		signals = []model.Signal{}
	}

	return model.AnalysisResult{
		PainScore: clamp(raw.PainScore, 0, 10),
		Signals:   signals,
		Summary:   raw.Summary,
		Err:       raw.Err,
	}
}

// filter keeps texts strictly between the character bounds, capped at
// MaxComments. Bounds count runes, not bytes; Polish comments are routinely
// multi-byte.
func (a *Analyzer) filter(texts []string) []string {
	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		n := utf8.RuneCountInString(t)
		if n < a.cfg.MinCommentLen || n > a.cfg.MaxCommentLen {
			continue
		}
		valid = append(valid, t)
		if len(valid) >= a.cfg.MaxComments {
			break
		}
	}
	return valid
}

func buildPrompt(comments []string) string {
	var sb strings.Builder
	for _, c := range comments {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`Act as a Business Lead Qualifier. Analyze the following social media comments for a business.
Identify "Pain Signals" (Booking, Pricing, Order, Availability).

Comments:
%s
Return ONLY a JSON object:
{
  "pain_score": 0-10,
  "signals": [{ "category": "Booking/Pricing/Order/Availability", "text": "comment", "confidence": "high/medium/low" }],
  "summary": "explanation"
}`, sb.String())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
