// Package feed holds the "load more" pagination state of one listing page
// view and the reducer that advances it.
//
// Posts are never de-duplicated: if the content service returns the same
// document on two pages it is listed twice.
package feed

import (
	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/post"
)

// State is the listing as one page view currently shows it.
type State struct {
	Posts []post.Summary `json:"posts"`
	Next  content.Cursor `json:"next"`
}

// HasMore reports whether another page can be requested.
func (s State) HasMore() bool { return !s.Next.Exhausted() }

// Start builds the state for a freshly rendered listing.
func Start(page content.RawPage) State {
	return Append(State{}, page)
}

// Append maps the page's documents onto the end of s.Posts and takes the
// page's cursor as the new Next. It never fetches.
func Append(s State, page content.RawPage) State {
	mapped := post.MapSummaries(page.Results)
	posts := make([]post.Summary, 0, len(s.Posts)+len(mapped))
	posts = append(posts, s.Posts...)
	posts = append(posts, mapped...)
	return State{Posts: posts, Next: page.Next}
}

// Event is something that happened to a pending "load more".
type Event interface {
	isEvent()
}

// PageLoaded carries a page fetched by following the cursor From.
type PageLoaded struct {
	From content.Cursor
	Page content.RawPage
}

// LoadFailed reports that following the cursor From did not produce a page.
type LoadFailed struct {
	From content.Cursor
	Err  error
}

func (PageLoaded) isEvent() {}
func (LoadFailed) isEvent() {}

// OutcomeKind classifies what Reduce did with an event.
type OutcomeKind int

const (
	// Appended means posts were added and Next advanced.
	Appended OutcomeKind = iota
	// Stale means the event answered a cursor the state has already moved past.
	Stale
	// Exhausted means the state had no next page to load.
	Exhausted
	// Failed means the fetch failed; the state is unchanged.
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Appended:
		return "appended"
	case Stale:
		return "stale"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome describes the effect of one Reduce call.
type Outcome struct {
	Kind  OutcomeKind
	Added []post.Summary
	Err   error
}

// Reduce applies ev to s. Only an event answering the current Next cursor can
// change the state, so responses arriving out of order are dropped instead of
// overwriting newer state.
func Reduce(s State, ev Event) (State, Outcome) {
	switch ev := ev.(type) {
	case PageLoaded:
		if !s.HasMore() {
			return s, Outcome{Kind: Exhausted}
		}
		if ev.From != s.Next {
			return s, Outcome{Kind: Stale}
		}
		next := Append(s, ev.Page)
		return next, Outcome{Kind: Appended, Added: next.Posts[len(s.Posts):]}
	case LoadFailed:
		if ev.From != s.Next {
			return s, Outcome{Kind: Stale, Err: ev.Err}
		}
		return s, Outcome{Kind: Failed, Err: ev.Err}
	}
	return s, Outcome{Kind: Stale}
}
