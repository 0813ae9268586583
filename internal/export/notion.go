package export

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/pkg/notion"
)

// NotionExporter mirrors leads into a Notion database, one page per
// company. Re-exports update the existing page instead of duplicating it.
type NotionExporter struct {
	client notion.Client
	dbID   string
}

// NewNotionExporter creates a NotionExporter targeting the given database.
func NewNotionExporter(client notion.Client, dbID string) (*NotionExporter, error) {
	if dbID == "" {
		return nil, eris.New("export: missing notion database id")
	}
	return &NotionExporter{client: client, dbID: dbID}, nil
}

// ExportReport counts the outcome of one export pass.
type ExportReport struct {
	Created int
	Updated int
	Failed  int
}

// Export writes each lead to Notion. Per-lead failures are logged and
// counted; the rest of the batch still exports.
func (e *NotionExporter) Export(ctx context.Context, leads []model.Lead) *ExportReport {
	report := &ExportReport{}
	for i := range leads {
		lead := &leads[i]
		created, err := e.exportOne(ctx, lead)
		if err != nil {
			zap.L().Warn("export: lead export failed",
				zap.String("company", lead.CompanyName()), zap.Error(err))
			report.Failed++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report
}

func (e *NotionExporter) exportOne(ctx context.Context, lead *model.Lead) (created bool, err error) {
	existing, err := e.findPage(ctx, lead.CompanyName())
	if err != nil {
		return false, err
	}

	props := e.leadProperties(lead)
	if existing != "" {
		_, err = e.client.UpdatePage(ctx, existing, &notionapi.PageUpdateRequest{Properties: props})
		return false, err
	}
	_, err = e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(e.dbID)},
		Properties: props,
	})
	return true, err
}

// findPage returns the page ID of an existing lead page, or "".
func (e *NotionExporter) findPage(ctx context.Context, company string) (string, error) {
	resp, err := e.client.QueryDatabase(ctx, e.dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Company",
			RichText: &notionapi.TextFilterCondition{Equals: company},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", eris.Wrapf(err, "export: find page for %s", company)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return string(resp.Results[0].ID), nil
}

func (e *NotionExporter) leadProperties(lead *model.Lead) notionapi.Properties {
	return notionapi.Properties{
		"Company": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: lead.CompanyName()}}},
		},
		"Platform": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(lead.Platform)},
		},
		"Priority": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(lead.Scoring.Priority)},
		},
		"Score": notionapi.NumberProperty{
			Number: lead.Scoring.Score,
		},
		"Post URL": notionapi.URLProperty{
			URL: lead.URL,
		},
		"Summary": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: notionSummary(lead)}}},
		},
	}
}

func notionSummary(lead *model.Lead) string {
	summary := lead.Analysis.Summary
	if summary == "" {
		summary = fmt.Sprintf("pain %d, automation gap %d",
			lead.Analysis.PainScore, lead.Enrichment.AutomationGapScore)
	}
	return summary
}
