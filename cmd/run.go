package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/internal/pipeline"
	"github.com/flowassist/flow-cli/internal/store"
)

var (
	runNiche    string
	runLocation string
	runSources  []string
	runMaxPosts int
	runDryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lead generation pipeline for a niche",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		platforms, err := parsePlatforms(runSources)
		if err != nil {
			return err
		}

		var saver pipeline.LeadSaver = discardSaver{}
		if !runDryRun {
			st, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()
			saver = st
		}

		p := buildPipeline(ctx, saver)

		req := pipeline.Request{
			Niche:    runNiche,
			Location: runLocation,
			Sources:  platforms,
			MaxPosts: runMaxPosts,
		}

		result, err := p.Run(ctx, req)
		if err != nil {
			return err
		}

		if runDryRun {
			out, err := json.MarshalIndent(result.Leads, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		zap.L().Info("pipeline finished",
			zap.String("niche", result.Niche),
			zap.Int("collected", result.Collected),
			zap.Int("qualified", len(result.Leads)),
			zap.Int("saved", result.Saved),
		)
		return nil
	},
}

// parsePlatforms validates --sources values against the known platforms.
func parsePlatforms(names []string) ([]model.Platform, error) {
	platforms := make([]model.Platform, 0, len(names))
	for _, n := range names {
		p := model.ParsePlatform(n)
		if p == "" {
			return nil, fmt.Errorf("unknown source %q (expected instagram, tiktok, or facebook)", n)
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

type discardSaver struct{}

func (discardSaver) UpsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	return len(leads), nil
}

func init() {
	runCmd.Flags().StringVar(&runNiche, "niche", "", "business niche to search (required)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "location filter")
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "platforms to collect from (default instagram)")
	runCmd.Flags().IntVar(&runMaxPosts, "max-posts", 0, "max posts per platform (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print qualified leads as JSON without saving")
	runCmd.MarkFlagRequired("niche")
	rootCmd.AddCommand(runCmd)
}
