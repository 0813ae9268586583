package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowassist/flow-cli/internal/media"
)

var convertCmd = &cobra.Command{
	Use:   "convert <url>",
	Short: "Download a video and convert it to audio",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv := media.NewConverter(cfg.Media)
		path, err := conv.Convert(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
