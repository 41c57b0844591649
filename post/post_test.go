package post

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/richtext"
)

func decode(t *testing.T, raw string) content.RawDocument {
	t.Helper()
	var d content.RawDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func TestMapSummaryCopiesRecognizedFields(t *testing.T) {
	d := decode(t, `{"uid":"a","id":"X1","type":"post","tags":["go"],
		"first_publication_date":"2021-01-01",
		"data":{"title":"T1","subtitle":"S1","author":"Au1","banner":{"url":"https://b"},"seo":"ignored"}}`)

	s := MapSummary(d)

	assert.Equal(t, "a", s.ID)
	require.NotNil(t, s.PublishedAt)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), *s.PublishedAt)
	assert.Equal(t, "T1", s.Title)
	assert.Equal(t, "S1", s.Subtitle)
	assert.Equal(t, "Au1", s.Author)
	assert.Empty(t, s.Problems)

	// Only the narrowed shape survives serialization.
	b, err := json.Marshal(s)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.ElementsMatch(t, []string{"id", "published_at", "title", "subtitle", "author"}, keys(fields))
}

func TestMapSummaryContentServiceTimestamp(t *testing.T) {
	d := decode(t, `{"uid":"a","first_publication_date":"2021-03-25T19:25:28+0000","data":{}}`)
	s := MapSummary(d)
	require.NotNil(t, s.PublishedAt)
	assert.True(t, s.PublishedAt.Equal(time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)))
}

func TestMapSummaryToleratesMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		problem FieldProblem
	}{
		{"null date", `{"uid":"a","first_publication_date":null,"data":{}}`, FieldProblem{"first_publication_date", ReasonMissing}},
		{"absent date", `{"uid":"a","data":{}}`, FieldProblem{"first_publication_date", ReasonMissing}},
		{"invalid date", `{"uid":"a","first_publication_date":"yesterday","data":{}}`, FieldProblem{"first_publication_date", ReasonInvalid}},
		{"missing uid", `{"first_publication_date":"2021-01-01","data":{}}`, FieldProblem{"uid", ReasonMissing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MapSummary(decode(t, tt.raw))
			assert.Contains(t, s.Problems, tt.problem)
			assert.True(t, s.HasProblem(tt.problem.Field))
			assert.Empty(t, s.Title)
		})
	}
}

func TestMapDetail(t *testing.T) {
	d := decode(t, `{"uid":"a","first_publication_date":"2021-01-01",
		"data":{"title":"T","subtitle":"S","author":"A","banner":{"url":"https://img/b.png","alt":"x"},
		"content":[{"heading":"Intro","body":[{"type":"paragraph","text":"one two three","spans":[]}]},
		           {"heading":"More","body":[]}]}}`)

	det := MapDetail(d)

	assert.Equal(t, "a", det.ID)
	assert.Equal(t, "https://img/b.png", det.BannerURL)
	require.Len(t, det.Content, 2)
	assert.Equal(t, "Intro", det.Content[0].Heading)
	assert.Equal(t, []richtext.Block{{Type: "paragraph", Text: "one two three", Spans: []richtext.Span{}}}, det.Content[0].Body)
	assert.Equal(t, "More", det.Content[1].Heading)
}

func TestMapDetailWithoutBannerOrContent(t *testing.T) {
	det := MapDetail(decode(t, `{"uid":"a","data":{"title":"T"}}`))
	assert.Empty(t, det.BannerURL)
	assert.Empty(t, det.Content)
}

func TestMapDetailDoesNotAliasBody(t *testing.T) {
	d := decode(t, `{"uid":"a","data":{"content":[{"heading":"H","body":[{"type":"paragraph","text":"x"}]}]}}`)
	det := MapDetail(d)
	d.Data.Content[0].Body[0].Text = "changed"
	assert.Equal(t, "x", det.Content[0].Body[0].Text)
}

func TestReadingTime(t *testing.T) {
	words := make([]byte, 0, 401*2)
	for i := 0; i < 401; i++ {
		words = append(words, 'w', ' ')
	}
	det := Detail{Content: []Section{{Body: []richtext.Block{{Type: "paragraph", Text: string(words)}}}}}
	assert.Equal(t, 3, ReadingTime(det))
	assert.Equal(t, 1, ReadingTime(Detail{}))
}

func TestSummaryLink(t *testing.T) {
	assert.Equal(t, "/post/a/", Summary{ID: "a"}.Link())
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
