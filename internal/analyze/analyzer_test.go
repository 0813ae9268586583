package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// mockGenerator implements Generator and records every call.
type mockGenerator struct {
	payload string
	err     error
	calls   int
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, out any) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if err := json.Unmarshal([]byte(m.payload), out); err != nil {
		return "", err
	}
	return "mock", nil
}

func newAnalyzer(gen Generator) *Analyzer {
	return New(gen, config.AnalyzeConfig{MinCommentLen: 6, MaxCommentLen: 500, MaxComments: 50})
}

func TestAnalyze_EmptyInputSkipsBackend(t *testing.T) {
	gen := &mockGenerator{payload: `{"pain_score": 9}`}
	a := newAnalyzer(gen)

	got := a.Analyze(context.Background(), nil)

	assert.Equal(t, 0, got.PainScore)
	assert.Empty(t, got.Signals)
	assert.Empty(t, got.Err)
	assert.Equal(t, 0, gen.calls, "backend must not be called for empty input")
}

func TestAnalyze_AllCommentsFilteredSkipsBackend(t *testing.T) {
	gen := &mockGenerator{payload: `{"pain_score": 9}`}
	a := newAnalyzer(gen)

	got := a.Analyze(context.Background(), []string{
		"wow",  // too short
		"ok!",  // too short
		strings.Repeat("x", 501), // too long
	})

	assert.Equal(t, 0, got.PainScore)
	assert.Empty(t, got.Signals)
	assert.Equal(t, 0, gen.calls)
}

func TestAnalyze_LengthBoundsCountRunes(t *testing.T) {
	gen := &mockGenerator{payload: `{"pain_score": 2, "signals": []}`}
	a := newAnalyzer(gen)

	// Six Polish letters, more than six bytes.
	a.Analyze(context.Background(), []string{"żółćąę"})

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0], "żółćąę")
}

func TestAnalyze_CapsSubmittedComments(t *testing.T) {
	gen := &mockGenerator{payload: `{"pain_score": 4, "signals": []}`}
	a := newAnalyzer(gen)

	texts := make([]string, 80)
	for i := range texts {
		texts[i] = strings.Repeat("a", 10+i%5)
	}
	a.Analyze(context.Background(), texts)

	require.Equal(t, 1, gen.calls)
	lines := strings.Count(gen.prompts[0], "\n- ") + 1
	assert.LessOrEqual(t, lines, 51) // 50 comments plus prompt framing slack
}

func TestAnalyze_ParsesSignals(t *testing.T) {
	gen := &mockGenerator{payload: `{
		"pain_score": 7,
		"signals": [
			{"category": "Booking", "text": "Jak się można zapisać?", "confidence": "high"},
			{"category": "Pricing", "text": "Jaka cena za hybrydę?", "confidence": "medium"}
		],
		"summary": "booking and pricing inquiries"
	}`}
	a := newAnalyzer(gen)

	got := a.Analyze(context.Background(), []string{"Jaka cena za hybrydę?", "Jak się można zapisać?"})

	assert.Equal(t, 7, got.PainScore)
	require.Len(t, got.Signals, 2)
	assert.Equal(t, model.SignalBooking, got.Signals[0].Category)
	assert.Equal(t, model.ConfidenceHigh, got.Signals[0].Confidence)
	assert.Equal(t, "booking and pricing inquiries", got.Summary)
}

func TestAnalyze_ClampsPainScore(t *testing.T) {
	gen := &mockGenerator{payload: `{"pain_score": 42, "signals": []}`}
	a := newAnalyzer(gen)

	got := a.Analyze(context.Background(), []string{"Czy macie wolny termin na piątek?"})

	assert.Equal(t, 10, got.PainScore)
}

func TestAnalyze_DegradesWhenAllBackendsFail(t *testing.T) {
	gen := &mockGenerator{err: errors.New("all backends failed")}
	a := newAnalyzer(gen)

	got := a.Analyze(context.Background(), []string{"Czy macie wolny termin?"})

	assert.Equal(t, 0, got.PainScore)
	assert.Empty(t, got.Signals)
	assert.Equal(t, ErrMarkerUnavailable, got.Err)
}
