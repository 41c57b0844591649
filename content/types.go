// Package content talks to the headless content service: it runs document
// queries, follows next-page cursors and fetches single documents by uid.
package content

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/eringen/headlessblog/richtext"
)

// RawDocument is the content service's representation of one document.
type RawDocument struct {
	ID                   string   `json:"id"`
	UID                  string   `json:"uid"`
	Type                 string   `json:"type"`
	Tags                 []string `json:"tags,omitempty"`
	Lang                 string   `json:"lang,omitempty"`
	FirstPublicationDate *string  `json:"first_publication_date"`
	LastPublicationDate  *string  `json:"last_publication_date"`
	Data                 RawData  `json:"data"`
}

// RawData is the document's data bag. Fields the blog does not know about are
// kept in Extra.
type RawData struct {
	Title    Text                       `json:"title"`
	Subtitle Text                       `json:"subtitle"`
	Author   Text                       `json:"author"`
	Banner   *RawImage                  `json:"banner,omitempty"`
	Content  []RawSection               `json:"content,omitempty"`
	Extra    map[string]json.RawMessage `json:"-"`
}

var knownDataFields = map[string]bool{
	"title": true, "subtitle": true, "author": true, "banner": true, "content": true,
}

func (d *RawData) UnmarshalJSON(b []byte) error {
	type plain RawData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for k, v := range all {
		if knownDataFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[k] = v
	}
	*d = RawData(p)
	return nil
}

func (d RawData) MarshalJSON() ([]byte, error) {
	type plain RawData
	b, err := json.Marshal(plain(d))
	if err != nil || len(d.Extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

type RawImage struct {
	URL        string               `json:"url"`
	Alt        string               `json:"alt,omitempty"`
	Dimensions *richtext.Dimensions `json:"dimensions,omitempty"`
}

// RawSection is one heading plus its rich-text body.
type RawSection struct {
	Heading Text             `json:"heading"`
	Body    []richtext.Block `json:"body"`
}

// Text is a plain text field. The content service sends it either as a JSON
// string or as a rich-text array; both decode to the joined text. null
// decodes to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case b[0] == '[':
		var blocks []richtext.Block
		if err := json.Unmarshal(b, &blocks); err != nil {
			return err
		}
		parts := make([]string, 0, len(blocks))
		for _, blk := range blocks {
			if blk.Text != "" {
				parts = append(parts, blk.Text)
			}
		}
		*t = Text(strings.Join(parts, " "))
		return nil
	}
	*t = ""
	return nil
}

func (t Text) String() string { return string(t) }

// RawPage is one page of query results.
type RawPage struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Next       Cursor        `json:"next"`
	Results    []RawDocument `json:"results"`
}

// searchResponse is the wire shape of a documents search.
type searchResponse struct {
	Page            int           `json:"page"`
	ResultsPerPage  int           `json:"results_per_page"`
	TotalResultSize int           `json:"total_results_size"`
	TotalPages      int           `json:"total_pages"`
	NextPage        *string       `json:"next_page"`
	PrevPage        *string       `json:"prev_page"`
	Results         []RawDocument `json:"results"`
}

// apiResponse is the wire shape of the API entry point; only refs are used.
type apiResponse struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}
