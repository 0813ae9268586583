package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

func newEnricher() *Enricher {
	return New(config.EnrichConfig{FetchTimeoutSecs: 2})
}

func TestEnrich_NoBioLink(t *testing.T) {
	got := newEnricher().Enrich(context.Background(), model.Profile{Username: "super_salon"})

	assert.Equal(t, 5, got.AutomationGapScore)
	require.Len(t, got.GapDetails, 1)
	assert.Equal(t, NoteNoBioLink, got.GapDetails[0])
}

func TestEnrich_EmptyStringBioLink(t *testing.T) {
	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: "   "})

	assert.Equal(t, 5, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteNoBioLink)
}

func TestEnrich_LinkTree(t *testing.T) {
	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: "https://linktr.ee/super_salon"})

	assert.Equal(t, 2, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteLinkTree)
}

func TestEnrich_BookingSystemGoesNegative(t *testing.T) {
	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: "https://booksy.com/pl-pl/salon"})

	assert.Equal(t, -5, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteBookingSystem)
}

func TestEnrich_WebsiteWithBookingKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Salon</h1><a href="/booking">Umów wizytę</a></body></html>`))
	}))
	defer srv.Close()

	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: srv.URL})

	assert.Equal(t, 0, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteHasKeywords)
}

func TestEnrich_InformationalWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>O nas. Galeria. Kontakt telefoniczny.</p></body></html>`))
	}))
	defer srv.Close()

	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: srv.URL})

	assert.Equal(t, 0, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteInfoOnly)
}

func TestEnrich_KeywordsInsideScriptIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script>var a = "book now";</script><p>Galeria</p></body></html>`))
	}))
	defer srv.Close()

	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: srv.URL})

	assert.Contains(t, got.GapDetails, NoteInfoOnly)
}

func TestEnrich_UnreachableWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	got := newEnricher().Enrich(context.Background(), model.Profile{BioLink: srv.URL})

	assert.Equal(t, 0, got.AutomationGapScore)
	assert.Contains(t, got.GapDetails, NoteUnreachable)
}

func TestEnrich_ScoreNeverExceedsTen(t *testing.T) {
	// Single rules cannot exceed 10 today; the clamp is the documented
	// invariant, so pin it regardless.
	got := newEnricher().Enrich(context.Background(), model.Profile{})
	assert.LessOrEqual(t, got.AutomationGapScore, 10)
}
