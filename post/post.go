// Package post narrows raw content documents into the view models the pages
// render.
package post

import (
	"strings"
	"time"

	"github.com/eringen/headlessblog/content"
	"github.com/eringen/headlessblog/richtext"
)

// Summary is what the listing shows for a post.
type Summary struct {
	ID          string         `json:"id"`
	PublishedAt *time.Time     `json:"published_at"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	Author      string         `json:"author"`
	Problems    []FieldProblem `json:"problems,omitempty"`
}

// Detail is a full post.
type Detail struct {
	Summary
	BannerURL string    `json:"banner_url"`
	Content   []Section `json:"content"`
}

// Section is a heading followed by rich-text body blocks.
type Section struct {
	Heading string           `json:"heading"`
	Body    []richtext.Block `json:"body"`
}

// FieldProblem records a raw field that was missing or unusable. Mapping
// never fails; problems travel with the value so pages can show a fallback.
type FieldProblem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// HasProblem reports whether field was flagged during mapping.
func (s Summary) HasProblem(field string) bool {
	for _, p := range s.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

// Link is the detail page path.
func (s Summary) Link() string {
	return "/post/" + s.ID + "/"
}

var timeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02",
}

// MapSummary copies the listing fields of d and drops everything else.
func MapSummary(d content.RawDocument) Summary {
	s := Summary{
		ID:       d.UID,
		Title:    d.Data.Title.String(),
		Subtitle: d.Data.Subtitle.String(),
		Author:   d.Data.Author.String(),
	}
	if s.ID == "" {
		s.Problems = append(s.Problems, FieldProblem{Field: "uid", Reason: ReasonMissing})
	}
	switch {
	case d.FirstPublicationDate == nil || strings.TrimSpace(*d.FirstPublicationDate) == "":
		s.Problems = append(s.Problems, FieldProblem{Field: "first_publication_date", Reason: ReasonMissing})
	default:
		if t, ok := parseTime(*d.FirstPublicationDate); ok {
			s.PublishedAt = &t
		} else {
			s.Problems = append(s.Problems, FieldProblem{Field: "first_publication_date", Reason: ReasonInvalid})
		}
	}
	return s
}

// MapSummaries maps every document in order.
func MapSummaries(docs []content.RawDocument) []Summary {
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, MapSummary(d))
	}
	return out
}

// MapDetail copies the detail fields of d and drops everything else.
func MapDetail(d content.RawDocument) Detail {
	det := Detail{Summary: MapSummary(d)}
	if d.Data.Banner != nil {
		det.BannerURL = d.Data.Banner.URL
	}
	if len(d.Data.Content) > 0 {
		det.Content = make([]Section, 0, len(d.Data.Content))
		for _, sec := range d.Data.Content {
			body := make([]richtext.Block, len(sec.Body))
			copy(body, sec.Body)
			det.Content = append(det.Content, Section{Heading: sec.Heading.String(), Body: body})
		}
	}
	return det
}

// ReadingTime estimates minutes to read the post at 200 words per minute,
// never less than one.
func ReadingTime(d Detail) int {
	words := 0
	for _, sec := range d.Content {
		words += len(strings.Fields(sec.Heading))
		words += len(strings.Fields(richtext.PlainText(sec.Body)))
	}
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
