// Package pipeline sequences the four lead-gen stages and hands surviving
// leads to persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/collect"
	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// Stage names the orchestrator's state machine steps.
type Stage string

const (
	StageCollecting Stage = "collecting"
	StageProcessing Stage = "processing" // per-candidate analyze/enrich/score loop
	StageFiltering  Stage = "filtering"
	StageDone       Stage = "done"
)

// CandidateCollector retrieves candidates across enabled platforms.
type CandidateCollector interface {
	Collect(ctx context.Context, q collect.Query, enabled []model.Platform) []model.Candidate
}

// Analyzer classifies comment texts into a pain score.
type Analyzer interface {
	Analyze(ctx context.Context, texts []string) model.AnalysisResult
}

// Enricher scores a profile's automation gap.
type Enricher interface {
	Enrich(ctx context.Context, profile model.Profile) model.EnrichmentResult
}

// Scorer combines the sub-scores into one priority score.
type Scorer interface {
	Score(painScore, likes, comments, gapScore int) model.ScoreResult
}

// LeadSaver persists a batch of leads with an idempotent upsert.
type LeadSaver interface {
	UpsertLeads(ctx context.Context, leads []model.Lead) (int, error)
}

// Request describes one pipeline invocation.
type Request struct {
	Niche    string
	Location string
	Sources  []model.Platform
	MaxPosts int
}

// Result summarizes one pipeline run.
type Result struct {
	Niche      string       `json:"niche"`
	Location   string       `json:"location,omitempty"`
	Collected  int          `json:"collected"`
	Leads      []model.Lead `json:"leads"`
	Saved      int          `json:"saved"`
	SaveFailed bool         `json:"save_failed,omitempty"`
}

// Pipeline is the lead-gen orchestrator. Candidates are processed strictly
// sequentially; nothing shares mutable state across candidates.
type Pipeline struct {
	collector CandidateCollector
	analyzer  Analyzer
	enricher  Enricher
	scorer    Scorer
	saver     LeadSaver

	saveThreshold float64
	dumpWriter    io.Writer // fallback output channel when persistence fails
}

// New creates a Pipeline.
func New(collector CandidateCollector, analyzer Analyzer, enricher Enricher, scorer Scorer, saver LeadSaver, cfg config.PipelineConfig) *Pipeline {
	threshold := cfg.SaveThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &Pipeline{
		collector:     collector,
		analyzer:      analyzer,
		enricher:      enricher,
		scorer:        scorer,
		saver:         saver,
		saveThreshold: threshold,
		dumpWriter:    os.Stdout,
	}
}

// WithDumpWriter overrides the fallback dump destination (for tests).
func (p *Pipeline) WithDumpWriter(w io.Writer) *Pipeline {
	p.dumpWriter = w
	return p
}

// Run executes one collect -> analyze -> enrich -> score -> filter pass.
// Per-candidate errors skip that candidate only; a persistence failure is
// reported but does not fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	log := zap.L().With(zap.String("niche", req.Niche), zap.String("location", req.Location))

	sources := req.Sources
	if len(sources) == 0 {
		sources = []model.Platform{model.PlatformInstagram}
	}

	log.Info("pipeline: stage change", zap.String("stage", string(StageCollecting)))
	candidates := p.collector.Collect(ctx, collect.Query{
		Niche:    req.Niche,
		Location: req.Location,
		MaxPosts: req.MaxPosts,
	}, sources)
	log.Info("pipeline: collection complete", zap.Int("candidates", len(candidates)))

	result := &Result{
		Niche:     req.Niche,
		Location:  req.Location,
		Collected: len(candidates),
		Leads:     []model.Lead{},
	}

	log.Info("pipeline: stage change", zap.String("stage", string(StageProcessing)))
	var scored []model.Lead
	for i := range candidates {
		scored = append(scored, p.processCandidate(ctx, &candidates[i]))
	}

	log.Info("pipeline: stage change", zap.String("stage", string(StageFiltering)))
	for _, lead := range scored {
		if lead.Scoring.Score >= p.saveThreshold {
			result.Leads = append(result.Leads, lead)
		}
	}
	log.Info("pipeline: filtering complete",
		zap.Int("scored", len(scored)),
		zap.Int("retained", len(result.Leads)),
		zap.Float64("threshold", p.saveThreshold),
	)

	if len(result.Leads) > 0 {
		saved, err := p.saver.UpsertLeads(ctx, result.Leads)
		if err != nil {
			log.Error("pipeline: persistence failed, dumping leads", zap.Error(err))
			result.SaveFailed = true
			p.dumpLeads(result.Leads)
		} else {
			result.Saved = saved
		}
	}

	log.Info("pipeline: stage change", zap.String("stage", string(StageDone)),
		zap.Int("leads", len(result.Leads)),
		zap.Int("saved", result.Saved),
	)
	return result, nil
}

// processCandidate runs the analyze/enrich/score sequence for one
// candidate. Each merge is additive; no stage removes prior fields.
func (p *Pipeline) processCandidate(ctx context.Context, cand *model.Candidate) model.Lead {
	analysis := p.analyzer.Analyze(ctx, cand.CommentTexts())

	// The profile carries the bio link scraped with the post, so the
	// enricher sees more than the bare "no link" branch.
	profile := model.Profile{
		Username: cand.OwnerUsername,
		BioLink:  cand.BioLink,
	}
	enrichment := p.enricher.Enrich(ctx, profile)

	scoring := p.scorer.Score(analysis.PainScore, cand.LikesCount, cand.CommentsCount, enrichment.AutomationGapScore)

	zap.L().Debug("pipeline: candidate scored",
		zap.String("url", cand.URL),
		zap.Int("pain", analysis.PainScore),
		zap.Int("gap", enrichment.AutomationGapScore),
		zap.Float64("score", scoring.Score),
		zap.String("priority", string(scoring.Priority)),
	)

	return model.Lead{
		Candidate:  *cand,
		Analysis:   analysis,
		Enrichment: enrichment,
		Scoring:    scoring,
	}
}

// dumpLeads prints a truncated JSON dump of the first few leads so a
// failed save never loses the whole run.
func (p *Pipeline) dumpLeads(leads []model.Lead) {
	const maxDump = 2
	dump := leads
	if len(dump) > maxDump {
		dump = dump[:maxDump]
	}
	fmt.Fprintf(p.dumpWriter, "Fallback JSON output (%d of %d leads):\n", len(dump), len(leads))
	enc := json.NewEncoder(p.dumpWriter)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		zap.L().Error("pipeline: fallback dump failed", zap.Error(err))
	}
}
