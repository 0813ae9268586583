// Package export turns scored leads into deliverables: an XLSX workbook
// or pages in a Notion database.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/flowassist/flow-cli/internal/model"
)

var xlsxHeader = []string{
	"Company", "Platform", "Post URL", "Bio Link",
	"Score", "Priority", "Pain Score", "Automation Gap",
	"Likes", "Comments", "Signals", "Gap Details",
}

// WriteXLSX writes all leads into a single-sheet workbook at path.
func WriteXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range xlsxHeader {
		header.AddCell().Value = col
	}

	for i := range leads {
		addLeadRow(sheet, &leads[i])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addLeadRow(sheet *xlsx.Sheet, lead *model.Lead) {
	row := sheet.AddRow()
	row.AddCell().Value = lead.CompanyName()
	row.AddCell().Value = string(lead.Platform)
	row.AddCell().Value = lead.URL
	row.AddCell().Value = lead.BioLink
	row.AddCell().SetFloatWithFormat(lead.Scoring.Score, "0.0")
	row.AddCell().Value = string(lead.Scoring.Priority)
	row.AddCell().SetInt(lead.Analysis.PainScore)
	row.AddCell().SetInt(lead.Enrichment.AutomationGapScore)
	row.AddCell().SetInt(lead.LikesCount)
	row.AddCell().SetInt(lead.CommentsCount)
	row.AddCell().Value = formatSignals(lead.Analysis.Signals)
	row.AddCell().Value = strings.Join(lead.Enrichment.GapDetails, "; ")
}

func formatSignals(signals []model.Signal) string {
	parts := make([]string, 0, len(signals))
	for _, sig := range signals {
		parts = append(parts, fmt.Sprintf("%s (%s)", sig.Category, sig.Confidence))
	}
	return strings.Join(parts, "; ")
}
