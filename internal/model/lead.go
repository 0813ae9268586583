// Package model defines the records flowing through the lead-gen pipeline.
package model

import (
	"encoding/json"
	"time"
)

// Platform identifies the social network a candidate was collected from.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
)

// ParsePlatform maps a string to a known Platform. Returns "" for unknown.
func ParsePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformInstagram, PlatformTikTok, PlatformFacebook:
		return Platform(s)
	}
	return ""
}

// Comment is a single raw comment attached to a collected post.
type Comment struct {
	Text      string    `json:"text"`
	Owner     string    `json:"owner"`
	Likes     int       `json:"likes"`
	Timestamp time.Time `json:"timestamp"`
}

// Candidate is a raw social post produced by the collector. Fields written
// at collection time are never overwritten by later stages; the pipeline
// only merges stage annotations in.
type Candidate struct {
	Platform      Platform  `json:"platform"`
	SourceID      string    `json:"source_id"`
	URL           string    `json:"url"`
	Caption       string    `json:"caption"`
	OwnerUsername string    `json:"owner_username"`
	BioLink       string    `json:"bio_link,omitempty"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Timestamp     time.Time `json:"timestamp"`
	Comments      []Comment `json:"comments,omitempty"`

	// Raw is the untouched scraper payload, kept for debugging and
	// downstream enrichment.
	Raw json.RawMessage `json:"raw_data,omitempty"`
}

// CommentTexts returns the caption followed by every comment body, the
// exact input shape the analyzer expects.
func (c *Candidate) CommentTexts() []string {
	texts := make([]string, 0, len(c.Comments)+1)
	if c.Caption != "" {
		texts = append(texts, c.Caption)
	}
	for _, cm := range c.Comments {
		texts = append(texts, cm.Text)
	}
	return texts
}

// SignalCategory classifies a detected pain signal.
type SignalCategory string

const (
	SignalBooking      SignalCategory = "Booking"
	SignalPricing      SignalCategory = "Pricing"
	SignalOrder        SignalCategory = "Order"
	SignalAvailability SignalCategory = "Availability"
)

// Confidence grades how certain the classifier is about a signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Signal is one classified customer inquiry.
type Signal struct {
	Category   SignalCategory `json:"category"`
	Text       string         `json:"text"`
	Confidence Confidence     `json:"confidence"`
}

// AnalysisResult is the analyzer's annotation for one candidate.
// PainScore is always within [0,10].
type AnalysisResult struct {
	PainScore int      `json:"pain_score"`
	Signals   []Signal `json:"signals"`
	Summary   string   `json:"summary,omitempty"`
	Err       string   `json:"error,omitempty"`
}

// EnrichmentResult is the enricher's annotation. The gap score accumulates
// additively and is clamped to at most 10; it may be negative.
type EnrichmentResult struct {
	AutomationGapScore int      `json:"automation_gap_score"`
	GapDetails         []string `json:"gap_details"`
}

// Priority buckets a final score for display.
type Priority string

const (
	PriorityHot  Priority = "HOT"
	PriorityWarm Priority = "WARM"
	PriorityLow  Priority = "LOW"
)

// ScoreBreakdown exposes the three weighted sub-scores for auditability.
type ScoreBreakdown struct {
	Pain       float64 `json:"pain"`
	Engagement float64 `json:"engagement"`
	Gap        float64 `json:"gap"`
}

// ScoreResult is the scorer's terminal annotation. Score is within [0,100].
type ScoreResult struct {
	Score     float64        `json:"score"`
	Priority  Priority       `json:"priority"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// Profile is the public-profile view handed to the enricher.
type Profile struct {
	Username string `json:"username"`
	BioLink  string `json:"bio_link,omitempty"`
}

// Lead is a fully merged candidate that survived the save threshold.
type Lead struct {
	Candidate
	Analysis   AnalysisResult   `json:"analysis"`
	Enrichment EnrichmentResult `json:"enrichment"`
	Scoring    ScoreResult      `json:"scoring"`
}

// CompanyName is the upsert key component for persistence; the owner
// username is the closest thing to a company identifier a scrape yields.
func (l *Lead) CompanyName() string {
	if l.OwnerUsername != "" {
		return l.OwnerUsername
	}
	return "Unknown"
}
