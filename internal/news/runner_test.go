package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/internal/registry"
)

type stubFetcher struct {
	items []model.NewsItem
	got   []string
}

func (s *stubFetcher) Fetch(_ context.Context, identifiers []string) []model.NewsItem {
	s.got = identifiers
	return s.items
}

type stubNewsSaver struct {
	err   error
	got   []model.NewsItem
	calls int
}

func (s *stubNewsSaver) InsertNewsItems(_ context.Context, items []model.NewsItem) (int, error) {
	s.calls++
	s.got = items
	if s.err != nil {
		return 0, s.err
	}
	return len(items), nil
}

func testRunner(reddit, youtube Fetcher, saver NewsSaver) *Runner {
	gen := &stubGenerator{payload: `{"summary_points": ["punkt"], "category": "Inne"}`}
	reg := registry.New(nil, "")
	return NewRunner(reddit, youtube, NewSummarizer(gen), reg, saver, 5)
}

func TestRun_MergesBothPlatformsAndSaves(t *testing.T) {
	reddit := &stubFetcher{items: []model.NewsItem{newsItem("reddit post", "")}}
	yt := &stubFetcher{items: []model.NewsItem{
		{SourcePlatform: "youtube", Title: "video", URL: "https://youtube.com/watch?v=1"},
	}}
	saver := &stubNewsSaver{}

	report, err := testRunner(reddit, yt, saver).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.RedditItems)
	assert.Equal(t, 1, report.YouTubeItems)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Saved)
	require.Len(t, saver.got, 2)
	for _, item := range saver.got {
		assert.Equal(t, []string{"punkt"}, item.SummaryPoints, "every saved item is summarized")
	}

	// The default registry feeds the built-in source lists to the fetchers.
	assert.Equal(t, registry.DefaultSubreddits, reddit.got)
	assert.Equal(t, registry.DefaultYouTubeChannels, yt.got)
}

func TestRun_NilYouTubeFetcher(t *testing.T) {
	reddit := &stubFetcher{items: []model.NewsItem{newsItem("post", "")}}
	saver := &stubNewsSaver{}

	report, err := testRunner(reddit, nil, saver).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, report.YouTubeItems)
	assert.Equal(t, 1, report.Saved)
}

func TestRun_NoItemsSkipsSave(t *testing.T) {
	saver := &stubNewsSaver{}
	report, err := testRunner(&stubFetcher{}, &stubFetcher{}, saver).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
	assert.Zero(t, saver.calls)
}

func TestRun_DryRunPrintsJSONWithoutSaving(t *testing.T) {
	reddit := &stubFetcher{items: []model.NewsItem{newsItem("dry post", "")}}
	saver := &stubNewsSaver{}

	var buf bytes.Buffer
	r := testRunner(reddit, nil, saver).WithOutput(&buf)

	report, err := r.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Zero(t, saver.calls)
	assert.Zero(t, report.Saved)

	var printed []model.NewsItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	require.Len(t, printed, 1)
	assert.Equal(t, "dry post", printed[0].Title)
	assert.Equal(t, "Inne", printed[0].Category)
}

func TestRun_SaveFailureDumpsItems(t *testing.T) {
	reddit := &stubFetcher{items: []model.NewsItem{
		newsItem("one", ""), newsItem("two", ""), newsItem("three", ""),
	}}
	saver := &stubNewsSaver{err: errors.New("db down")}

	var buf bytes.Buffer
	r := testRunner(reddit, nil, saver).WithOutput(&buf)

	report, err := r.Run(context.Background(), false)
	require.NoError(t, err, "a failed save must not fail the run")
	assert.True(t, report.SaveFailed)
	assert.Contains(t, buf.String(), "2 of 3 items")
}

func TestSummarizeAll_PreservesOrder(t *testing.T) {
	gen := &stubGenerator{payload: `{"summary_points": ["p"], "category": "Inne"}`}
	r := NewRunner(&stubFetcher{}, nil, NewSummarizer(gen), registry.New(nil, ""), &stubNewsSaver{}, 3)

	items := []model.NewsItem{newsItem("a", ""), newsItem("b", ""), newsItem("c", "")}
	processed := r.summarizeAll(context.Background(), items)

	require.Len(t, processed, 3)
	assert.Equal(t, "a", processed[0].Title)
	assert.Equal(t, "b", processed[1].Title)
	assert.Equal(t, "c", processed[2].Title)
}
