package content

import (
	"crypto/sha256"
	"fmt"
	"net/url"

	"github.com/gorilla/securecookie"
)

// Cursor points at the next page of a query. It is sealed by the Client that
// issued it: callers cannot read it, and a cursor the client did not produce
// (or one that was altered) is rejected with ErrInvalidCursor. The zero value
// means there are no more pages.
type Cursor string

// Exhausted reports whether the cursor points nowhere.
func (c Cursor) Exhausted() bool { return c == "" }

// cursorParams are the search parameters a cursor may carry.
var cursorParams = []string{"ref", "q", "page", "pageSize", "fetch", "orderings", "lang"}

const cursorName = "cursor"

// newCursorCodec derives separate signing and encryption keys from secret.
func newCursorCodec(secret []byte) *securecookie.SecureCookie {
	hashKey := sha256.Sum256(append([]byte("headlessblog cursor hash\x00"), secret...))
	blockKey := sha256.Sum256(append([]byte("headlessblog cursor block\x00"), secret...))
	sc := securecookie.New(hashKey[:], blockKey[:])
	sc.SetSerializer(securecookie.JSONEncoder{})
	// Cursors live in snapshots and in open tabs; they do not expire.
	sc.MaxAge(0)
	return sc
}

// encodeCursor turns an upstream next_page URL into a sealed cursor, keeping
// only the search parameters. A nil or empty URL yields the zero cursor.
func (c *Client) encodeCursor(next *string) (Cursor, error) {
	if next == nil || *next == "" {
		return "", nil
	}
	u, err := url.Parse(*next)
	if err != nil {
		return "", fmt.Errorf("parse next page: %w", err)
	}
	src := u.Query()
	kept := url.Values{}
	for _, k := range cursorParams {
		if vs, ok := src[k]; ok {
			kept[k] = vs
		}
	}
	if kept.Get("page") == "" {
		return "", fmt.Errorf("next page %q has no page parameter", u.Path)
	}
	sealed, err := c.cursors.Encode(cursorName, kept.Encode())
	if err != nil {
		return "", fmt.Errorf("seal cursor: %w", err)
	}
	return Cursor(sealed), nil
}

// decodeCursor opens a cursor this client issued and returns its search
// parameters.
func (c *Client) decodeCursor(cur Cursor) (url.Values, error) {
	var raw string
	if err := c.cursors.Decode(cursorName, string(cur), &raw); err != nil {
		return nil, ErrInvalidCursor
	}
	vals, err := url.ParseQuery(raw)
	if err != nil || vals.Get("page") == "" {
		return nil, ErrInvalidCursor
	}
	for k := range vals {
		if !allowedCursorParam(k) {
			return nil, ErrInvalidCursor
		}
	}
	return vals, nil
}

func allowedCursorParam(k string) bool {
	for _, p := range cursorParams {
		if p == k {
			return true
		}
	}
	return false
}
