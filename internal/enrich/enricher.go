// Package enrich inspects a lead's public profile for automation-readiness
// gaps.
package enrich

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

const maxGapScore = 10

// Gap notes emitted by the rule set.
const (
	NoteNoBioLink     = "No bio link found"
	NoteLinkTree      = "Generic link tree (check if booking inside)"
	NoteBookingSystem = "Has booking system (Low potential)"
	NoteHasKeywords   = "Website has booking keywords"
	NoteInfoOnly      = "Website seems informational only (No booking CTA found)"
	NoteUnreachable   = "Website unreachable or error"
)

// linkAggregatorDomains are generic link-in-bio services; a lead hiding
// behind one may still have a booking tool inside, so only a small gap.
var linkAggregatorDomains = []string{"linktr.ee", "beacons.ai"}

// bookingDomains are known scheduling platforms; their presence means the
// lead already automated booking.
var bookingDomains = []string{"booksy", "calendly", "vagaro"}

// bookingKeywords flag a booking CTA on a custom website, in either of the
// two market languages.
var bookingKeywords = []string{"book now", "rezerwacja", "umów"}

// Enricher scores the automation gap of a lead's public profile.
type Enricher struct {
	client *http.Client
}

// New creates an Enricher with a bounded website-fetch timeout.
func New(cfg config.EnrichConfig) *Enricher {
	timeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Enricher{
		client: &http.Client{Timeout: timeout},
	}
}

// Enrich applies the gap rules to a profile. Scores accumulate additively
// and clamp to at most 10; no floor is enforced, so a lead with a booking
// system can go negative. Never returns an error.
func (e *Enricher) Enrich(ctx context.Context, profile model.Profile) model.EnrichmentResult {
	gapScore := 0
	details := []string{}

	link := strings.TrimSpace(profile.BioLink)
	switch {
	case link == "":
		gapScore += 5
		details = append(details, NoteNoBioLink)

	case containsAny(link, linkAggregatorDomains):
		gapScore += 2
		details = append(details, NoteLinkTree)

	case containsAny(link, bookingDomains):
		gapScore -= 5
		details = append(details, NoteBookingSystem)

	default:
		details = append(details, e.analyzeWebsite(ctx, link))
	}

	return model.EnrichmentResult{
		AutomationGapScore: min(gapScore, maxGapScore),
		GapDetails:         details,
	}
}

// analyzeWebsite fetches a custom website and looks for a booking CTA in
// the visible text. Fetch failures are a note, not an error.
func (e *Enricher) analyzeWebsite(ctx context.Context, url string) string {
	text, err := e.fetchVisibleText(ctx, url)
	if err != nil {
		zap.L().Warn("enrich: could not analyze website",
			zap.String("url", url),
			zap.Error(err),
		)
		return NoteUnreachable
	}

	if containsAny(text, bookingKeywords) {
		return NoteHasKeywords
	}
	return NoteInfoOnly
}

func (e *Enricher) fetchVisibleText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "enrich: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; FlowAssistBot/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "enrich: fetch website")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("enrich: website returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "enrich: parse html")
	}
	doc.Find("script, style, noscript").Remove()

	return strings.ToLower(doc.Text()), nil
}

func containsAny(haystack string, needles []string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}
