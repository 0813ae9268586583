package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/flowassist/flow-cli/internal/model"
)

func exportLead(owner string, score float64) model.Lead {
	return model.Lead{
		Candidate: model.Candidate{
			Platform:      model.PlatformInstagram,
			URL:           "https://instagram.com/p/" + owner,
			OwnerUsername: owner,
			BioLink:       "https://linktr.ee/" + owner,
			LikesCount:    120,
			CommentsCount: 14,
		},
		Analysis: model.AnalysisResult{
			PainScore: 7,
			Signals: []model.Signal{
				{Category: model.SignalBooking, Text: "how do I book?", Confidence: model.ConfidenceHigh},
			},
		},
		Enrichment: model.EnrichmentResult{
			AutomationGapScore: 7,
			GapDetails:         []string{"Uses LinkTree (potential for better system)"},
		},
		Scoring: model.ScoreResult{Score: score, Priority: model.PriorityWarm},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	err := WriteXLSX(path, []model.Lead{exportLead("studio_a", 63.5), exportLead("studio_b", 22)})
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 3, "header plus two leads")

	header := sheet.Rows[0]
	assert.Equal(t, "Company", header.Cells[0].String())
	assert.Equal(t, "Score", header.Cells[4].String())

	first := sheet.Rows[1]
	assert.Equal(t, "studio_a", first.Cells[0].String())
	assert.Equal(t, "instagram", first.Cells[1].String())
	assert.Equal(t, "https://linktr.ee/studio_a", first.Cells[3].String())
	assert.Equal(t, "WARM", first.Cells[5].String())
	assert.Equal(t, "Booking (high)", first.Cells[10].String())
	assert.Contains(t, first.Cells[11].String(), "LinkTree")
}

func TestWriteXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets[0].Rows, 1, "header only")
}
