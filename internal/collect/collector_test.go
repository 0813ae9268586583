package collect

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/model"
)

func TestHashtags_NicheOnly(t *testing.T) {
	assert.Equal(t, []string{"paznokcie"}, Hashtags("paznokcie", ""))
}

func TestHashtags_NicheAndLocation(t *testing.T) {
	assert.Equal(t, []string{"paznokcie", "paznokciewarszawa"}, Hashtags("paznokcie", "warszawa"))
}

func TestHashtags_FoldsCaseAndStripsSpaces(t *testing.T) {
	assert.Equal(t, []string{"nailart", "nailartnewyork"}, Hashtags("Nail Art", "New York"))
}

func TestHashtags_BlankLocationIgnored(t *testing.T) {
	assert.Equal(t, []string{"fryzjer"}, Hashtags("fryzjer", "   "))
}

func TestHashtags_Deduplicates(t *testing.T) {
	// Niche already carrying the location collapses to a single tag.
	tags := Hashtags("paznokcie warszawa", "")
	assert.Equal(t, []string{"paznokciewarszawa"}, tags)
}

// stubSource implements Source for orchestration tests.
type stubSource struct {
	platform   model.Platform
	candidates []model.Candidate
	err        error
	calls      int
}

func (s *stubSource) Platform() model.Platform { return s.platform }
func (s *stubSource) Collect(_ context.Context, _ Query) ([]model.Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

func TestCollector_OnlyEnabledSources(t *testing.T) {
	ig := &stubSource{platform: model.PlatformInstagram, candidates: []model.Candidate{{SourceID: "a"}}}
	tt := &stubSource{platform: model.PlatformTikTok, candidates: []model.Candidate{{SourceID: "b"}}}

	c := New(ig, tt)
	got := c.Collect(context.Background(), Query{Niche: "paznokcie"}, []model.Platform{model.PlatformInstagram})

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].SourceID)
	assert.Equal(t, 0, tt.calls)
}

func TestCollector_SourceFailureDoesNotAbortOthers(t *testing.T) {
	ig := &stubSource{platform: model.PlatformInstagram, err: errors.New("apify down")}
	fb := &stubSource{platform: model.PlatformFacebook, candidates: []model.Candidate{{SourceID: "fb1"}}}

	c := New(ig, fb)
	got := c.Collect(context.Background(), Query{Niche: "fryzjer"},
		[]model.Platform{model.PlatformInstagram, model.PlatformFacebook})

	require.Len(t, got, 1)
	assert.Equal(t, "fb1", got[0].SourceID)
	assert.Equal(t, 1, ig.calls)
}

// fakeApify implements apify.Client, recording calls per actor.
type fakeApify struct {
	// respond returns the dataset JSON for one call.
	respond func(actorID string, input map[string]any) (string, error)
	calls   []fakeCall
}

type fakeCall struct {
	actorID string
	input   map[string]any
}

func (f *fakeApify) RunActorSync(_ context.Context, actorID string, input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	f.calls = append(f.calls, fakeCall{actorID: actorID, input: m})

	body, err := f.respond(actorID, m)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeApify) hashtagQueries(actorID string) []string {
	var tags []string
	for _, c := range f.calls {
		if c.actorID != actorID {
			continue
		}
		if hs, ok := c.input["hashtags"].([]any); ok {
			for _, h := range hs {
				tags = append(tags, h.(string))
			}
		}
	}
	return tags
}
