package headlessblog

import (
	"context"
	"fmt"
	"sync"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/richtext"
)

// fakeSource is an in-memory content.Source. Cursors are the keys of pages.
type fakeSource struct {
	mu       sync.Mutex
	first    content.RawPage
	pages    map[content.Cursor]content.RawPage
	docs     map[string]content.RawDocument
	down     bool
	failNext map[content.Cursor]bool
	queries  int
	nexts    int
	gets     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:    make(map[content.Cursor]content.RawPage),
		docs:     make(map[string]content.RawDocument),
		failNext: make(map[content.Cursor]bool),
	}
}

func (f *fakeSource) Query(_ context.Context, _ content.Query) (content.RawPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.down {
		return content.RawPage{}, &content.FetchError{Op: "query", Kind: content.ErrUpstream, Status: 503}
	}
	return f.first, nil
}

func (f *fakeSource) Next(_ context.Context, cur content.Cursor) (content.RawPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nexts++
	if cur.Exhausted() {
		return content.RawPage{}, content.ErrExhausted
	}
	if f.down || f.failNext[cur] {
		return content.RawPage{}, &content.FetchError{Op: "next", Kind: content.ErrUpstream, Status: 503}
	}
	p, ok := f.pages[cur]
	if !ok {
		return content.RawPage{}, fmt.Errorf("%w: %q", content.ErrInvalidCursor, cur)
	}
	return p, nil
}

func (f *fakeSource) GetByUID(_ context.Context, _ string, uid string) (content.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.down {
		return content.RawDocument{}, &content.FetchError{Op: "get", Kind: content.ErrUpstream, Status: 503}
	}
	d, ok := f.docs[uid]
	if !ok {
		return content.RawDocument{}, content.ErrNotFound
	}
	return d, nil
}

func (f *fakeSource) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeSource) counts() (queries, nexts, gets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries, f.nexts, f.gets
}

func rawDoc(uid, title string) content.RawDocument {
	date := "2021-03-15T19:25:28+0000"
	return content.RawDocument{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 "post",
		FirstPublicationDate: &date,
		Data: content.RawData{
			Title:    content.Text(title),
			Subtitle: content.Text("Sobre " + title),
			Author:   "Danilo Vieira",
			Content: []content.RawSection{{
				Heading: "Introdução",
				Body: []richtext.Block{
					{Type: richtext.TypeParagraph, Text: "Texto de " + title},
				},
			}},
		},
	}
}

// listing wires three pages: [a] -> [b] -> [c], with next cursors c2 and c3.
func listing() *fakeSource {
	f := newFakeSource()
	a, b, c := rawDoc("post-a", "Post A"), rawDoc("post-b", "Post B"), rawDoc("post-c", "Post C")
	f.first = content.RawPage{Page: 1, TotalPages: 3, Next: "c2", Results: []content.RawDocument{a}}
	f.pages["c2"] = content.RawPage{Page: 2, TotalPages: 3, Next: "c3", Results: []content.RawDocument{b}}
	f.pages["c3"] = content.RawPage{Page: 3, TotalPages: 3, Results: []content.RawDocument{c}}
	for _, d := range []content.RawDocument{a, b, c} {
		f.docs[d.UID] = d
	}
	return f
}
