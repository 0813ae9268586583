package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/store"
)

var newsDryRun bool

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch and summarize AI news from Reddit and YouTube",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := buildNewsRunner(ctx, st)
		if err != nil {
			return err
		}
		runner.WithOutput(cmd.OutOrStdout())

		report, err := runner.Run(ctx, newsDryRun)
		if err != nil {
			return err
		}

		zap.L().Info("news run finished",
			zap.Int("reddit", report.RedditItems),
			zap.Int("youtube", report.YouTubeItems),
			zap.Int("saved", report.Saved),
			zap.Bool("save_failed", report.SaveFailed),
		)
		return nil
	},
}

func init() {
	newsCmd.Flags().BoolVar(&newsDryRun, "dry-run", false, "print summarized items as JSON without saving")
	rootCmd.AddCommand(newsCmd)
}
