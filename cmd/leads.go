package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/export"
	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/internal/store"
	"github.com/flowassist/flow-cli/pkg/notion"
)

var (
	leadsPlatform string
	leadsPriority string
	leadsMinScore float64
	leadsLimit    int
	leadsJSON     bool

	exportFormat string
	exportOut    string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and export saved leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx, leadsFilter())
		if err != nil {
			return err
		}

		if leadsJSON {
			out, err := json.MarshalIndent(leads, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY\tPLATFORM\tSCORE\tPRIORITY\tURL")
		for i := range leads {
			l := &leads[i]
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%s\n",
				l.CompanyName(), l.Platform, l.Scoring.Score, l.Scoring.Priority, l.URL)
		}
		return w.Flush()
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved leads to xlsx or Notion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx, leadsFilter())
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			zap.L().Info("no leads match the filter, nothing to export")
			return nil
		}

		switch exportFormat {
		case "xlsx":
			if err := export.WriteXLSX(exportOut, leads); err != nil {
				return err
			}
			zap.L().Info("xlsx export complete", zap.String("file", exportOut), zap.Int("leads", len(leads)))
			return nil
		case "notion":
			client := notion.NewClient(cfg.Notion.Token)
			exporter, err := export.NewNotionExporter(client, cfg.Notion.LeadDB)
			if err != nil {
				return err
			}
			report := exporter.Export(ctx, leads)
			zap.L().Info("notion export complete",
				zap.Int("created", report.Created),
				zap.Int("updated", report.Updated),
				zap.Int("failed", report.Failed),
			)
			return nil
		default:
			return eris.Errorf("unknown export format %q (expected xlsx or notion)", exportFormat)
		}
	},
}

func leadsFilter() store.LeadFilter {
	return store.LeadFilter{
		Platform: model.ParsePlatform(leadsPlatform),
		Priority: model.Priority(leadsPriority),
		MinScore: leadsMinScore,
		Limit:    leadsLimit,
	}
}

func init() {
	for _, c := range []*cobra.Command{leadsListCmd, leadsExportCmd} {
		c.Flags().StringVar(&leadsPlatform, "platform", "", "filter by platform")
		c.Flags().StringVar(&leadsPriority, "priority", "", "filter by priority (HOT, WARM, LOW)")
		c.Flags().Float64Var(&leadsMinScore, "min-score", 0, "minimum score")
		c.Flags().IntVar(&leadsLimit, "limit", 0, "max rows (default 100)")
	}
	leadsListCmd.Flags().BoolVar(&leadsJSON, "json", false, "print as JSON")
	leadsExportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format: xlsx or notion")
	leadsExportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file for xlsx export")

	leadsCmd.AddCommand(leadsListCmd, leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}
