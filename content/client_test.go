package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves a two-page "post" listing plus uid lookups.
type fakeAPI struct {
	srv      *httptest.Server
	searches atomic.Int32
	lastURL  atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"refs":[{"id":"master","ref":"REF1","isMasterRef":true}]}`)
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		f.lastURL.Store(r.URL.String())
		q := r.URL.Query()
		if q.Get("ref") != "REF1" {
			http.Error(w, "bad ref", http.StatusBadRequest)
			return
		}
		switch {
		case strings.Contains(q.Get("q"), "my.post.uid"):
			if strings.Contains(q.Get("q"), `"missing"`) {
				fmt.Fprint(w, `{"page":1,"total_pages":0,"next_page":null,"results":[]}`)
				return
			}
			fmt.Fprint(w, `{"page":1,"total_pages":1,"next_page":null,"results":[
				{"uid":"a","type":"post","first_publication_date":"2021-03-25T19:25:28+0000",
				 "data":{"title":"T1","subtitle":"S1","author":"Au1","banner":{"url":"https://img/b.png"},
				 "content":[{"heading":"H","body":[{"type":"paragraph","text":"hi","spans":[]}]}],
				 "seo":{"x":1}}}]}`)
		case q.Get("page") == "2":
			fmt.Fprint(w, `{"page":2,"total_pages":2,"next_page":null,"results":[
				{"uid":"b","type":"post","first_publication_date":"2021-01-02","data":{"title":"T2","subtitle":"S2","author":"Au2"}}]}`)
		case q.Get("page") == "boom":
			fmt.Fprint(w, `{"page":`)
		default:
			next := "http://" + r.Host + "/api/v2/documents/search?ref=REF1&q=" + url.QueryEscape(q.Get("q")) + "&page=2&pageSize=" + q.Get("pageSize") + "&access_token=secret"
			b, _ := json.Marshal(next)
			fmt.Fprintf(w, `{"page":1,"total_pages":2,"next_page":%s,"results":[
				{"uid":"a","type":"post","first_publication_date":"2021-01-01","data":{"title":"T1","subtitle":"S1","author":"Au1"}}]}`, b)
		}
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeAPI, opts ...ClientOption) *Client {
	t.Helper()
	c, err := NewClient(f.srv.URL, append([]ClientOption{WithHTTPClient(f.srv.Client())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestQueryAndNext(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f, WithAccessToken("secret"))
	ctx := context.Background()

	first, err := c.Query(ctx, PostListing(5))
	require.NoError(t, err)
	require.Len(t, first.Results, 1)
	assert.Equal(t, "a", first.Results[0].UID)
	assert.False(t, first.Next.Exhausted())

	sent := f.lastURL.Load().(string)
	assert.Contains(t, sent, "pageSize=5")
	assert.Contains(t, sent, "fetch=post.title%2Cpost.subtitle%2Cpost.author")
	assert.Contains(t, sent, "access_token=secret")
	assert.NotContains(t, sent, "orderings", "the listing keeps the repository's default order")

	second, err := c.Next(ctx, first.Next)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "b", second.Results[0].UID)
	assert.True(t, second.Next.Exhausted())
}

func TestCursorCarriesNoHostOrToken(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f, WithAccessToken("secret"))

	first, err := c.Query(context.Background(), PostListing(5))
	require.NoError(t, err)

	vals, err := c.decodeCursor(first.Next)
	require.NoError(t, err)
	assert.Empty(t, vals.Get("access_token"))
	assert.Equal(t, "2", vals.Get("page"))
	assert.NotContains(t, string(first.Next), "127.0.0.1")
}

func TestCursorIsSealed(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f, WithCursorKey([]byte("k1")))
	ctx := context.Background()

	first, err := c.Query(ctx, PostListing(5))
	require.NoError(t, err)
	for _, leak := range []string{"REF1", "page", "post.title", "at(document.type"} {
		assert.NotContains(t, string(first.Next), leak)
	}

	same := newTestClient(t, f, WithCursorKey([]byte("k1")))
	_, err = same.Next(ctx, first.Next)
	assert.NoError(t, err, "a client with the same key accepts the cursor")

	searches := f.searches.Load()
	other := newTestClient(t, f, WithCursorKey([]byte("k2")))
	_, err = other.Next(ctx, first.Next)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	tampered := []byte(first.Next)
	tampered[len(tampered)/2] ^= 1
	_, err = c.Next(ctx, Cursor(tampered))
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.Equal(t, searches, f.searches.Load(), "rejected cursors must not reach the content service")
}

func TestNextRejectsHandWrittenQuery(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f, WithAccessToken("secret"))

	raw := url.Values{
		"ref":      {"PREVIEW-REF"},
		"q":        {`[[at(document.type,"internal_memo")]]`},
		"page":     {"2"},
		"pageSize": {"100"},
	}.Encode()
	forged := Cursor(base64.RawURLEncoding.EncodeToString([]byte(raw)))

	_, err := c.Next(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assert.Zero(t, f.searches.Load())
}

func TestNextExhaustedDoesNotFetch(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	_, err := c.Next(context.Background(), "")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, f.searches.Load())
}

func TestNextInvalidCursor(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	for _, cur := range []Cursor{"%%%", Cursor("bm9wYWdl")} {
		_, err := c.Next(context.Background(), cur)
		assert.ErrorIs(t, err, ErrInvalidCursor, "cursor %q", cur)
	}
	assert.Zero(t, f.searches.Load())
}

func TestMalformedResponse(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	cur, err := c.encodeCursor(ptr("https://elsewhere.example/api/v2/documents/search?ref=REF1&page=boom"))
	require.NoError(t, err)

	_, err = c.Next(context.Background(), cur)
	assert.ErrorIs(t, err, ErrMalformed)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "next", fe.Op)
	assert.True(t, strings.HasPrefix(fe.URL, f.srv.URL), "cursor must be resolved against the configured host")
}

func TestUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithAccessToken("secret"))
	require.NoError(t, err)

	_, err = c.Query(context.Background(), PostListing(5))
	assert.ErrorIs(t, err, ErrUpstream)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
	assert.NotContains(t, fe.Error(), "secret")
}

func TestGetByUID(t *testing.T) {
	f := newFakeAPI(t)
	c := newTestClient(t, f)

	doc, err := c.GetByUID(context.Background(), "post", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.UID)
	require.NotNil(t, doc.Data.Banner)
	assert.Equal(t, "https://img/b.png", doc.Data.Banner.URL)
	require.Len(t, doc.Data.Content, 1)
	assert.Equal(t, Text("H"), doc.Data.Content[0].Heading)
	assert.Contains(t, doc.Data.Extra, "seo")

	_, err = c.GetByUID(context.Background(), "post", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestTextDecoding(t *testing.T) {
	tests := []struct {
		in   string
		want Text
	}{
		{`"plain"`, "plain"},
		{`null`, ""},
		{`[{"type":"heading1","text":"Rich","spans":[]},{"type":"paragraph","text":"title","spans":[]}]`, "Rich title"},
		{`42`, ""},
	}
	for _, tt := range tests {
		var got Text
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRawDataRoundTripKeepsExtra(t *testing.T) {
	var d RawData
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","tags_extra":[1,2]}`), &d))
	assert.Equal(t, Text("T"), d.Title)
	assert.JSONEq(t, `[1,2]`, string(d.Extra["tags_extra"]))

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tags_extra":[1,2]`)
}

func ptr(s string) *string { return &s }
