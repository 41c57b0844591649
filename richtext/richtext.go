// Package richtext renders structured rich-text blocks from the content
// service as HTML. The result is a Markup value, which only this package can
// construct, so callers never inject an unescaped string into a page.
package richtext

import (
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Block types understood by Render.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types understood by Render.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Block is one unit of structured text: a paragraph, heading, list item,
// preformatted section, image or embed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Oembed     `json:"oembed,omitempty"`
}

// Span marks a styled range of a block's text. Start and End are rune offsets.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the link target of a hyperlink span or the name of a label.
type SpanData struct {
	URL    string `json:"url,omitempty"`
	Target string `json:"target,omitempty"`
	Label  string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Oembed struct {
	EmbedURL string `json:"embed_url"`
	Title    string `json:"title,omitempty"`
}

// Markup is HTML produced by Render. Its contents are escaped and its URLs
// filtered; the zero value renders nothing.
type Markup struct {
	html string
}

// String returns the HTML source.
func (m Markup) String() string { return m.html }

// IsEmpty reports whether rendering produced no output.
func (m Markup) IsEmpty() bool { return m.html == "" }

// Component exposes the markup to templ views.
func (m Markup) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, m.html)
		return err
	})
}

// Render converts blocks to HTML. Consecutive list items are grouped into a
// single list.
func Render(blocks []Block) Markup {
	var b strings.Builder
	list := ""
	closeList := func() {
		if list != "" {
			b.WriteString("</" + list + ">")
			list = ""
		}
	}
	for _, blk := range blocks {
		switch blk.Type {
		case TypeListItem, TypeOListItem:
			want := "ul"
			if blk.Type == TypeOListItem {
				want = "ol"
			}
			if list != want {
				closeList()
				b.WriteString("<" + want + ">")
				list = want
			}
			b.WriteString("<li>")
			b.WriteString(formatSpans(blk.Text, blk.Spans))
			b.WriteString("</li>")
			continue
		}
		closeList()
		switch {
		case blk.Type == TypeParagraph:
			b.WriteString("<p>")
			b.WriteString(formatSpans(blk.Text, blk.Spans))
			b.WriteString("</p>")
		case blk.Type == TypePreformatted:
			b.WriteString("<pre>")
			b.WriteString(html.EscapeString(blk.Text))
			b.WriteString("</pre>")
		case headingLevel(blk.Type) > 0:
			tag := "h" + strconv.Itoa(headingLevel(blk.Type))
			b.WriteString("<" + tag + ">")
			b.WriteString(formatSpans(blk.Text, blk.Spans))
			b.WriteString("</" + tag + ">")
		case blk.Type == TypeImage:
			writeImage(&b, blk)
		case blk.Type == TypeEmbed:
			writeEmbed(&b, blk)
		}
	}
	closeList()
	return Markup{html: b.String()}
}

// PlainText joins the text of all blocks with newlines.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		if blk.Text != "" {
			parts = append(parts, blk.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func headingLevel(t string) int {
	if len(t) != len("heading1") || !strings.HasPrefix(t, "heading") {
		return 0
	}
	n := int(t[len(t)-1] - '0')
	if n < 1 || n > 6 {
		return 0
	}
	return n
}

func writeImage(b *strings.Builder, blk Block) {
	src := SafeURL(blk.URL)
	if src == "" {
		return
	}
	b.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(blk.Alt) + `"`)
	if d := blk.Dimensions; d != nil && d.Width > 0 && d.Height > 0 {
		b.WriteString(` width="` + strconv.Itoa(d.Width) + `" height="` + strconv.Itoa(d.Height) + `"`)
	}
	b.WriteString(` loading="lazy" decoding="async"/></p>`)
}

// writeEmbed renders an embed as a link; the provider's HTML is never trusted.
func writeEmbed(b *strings.Builder, blk Block) {
	if blk.Oembed == nil {
		return
	}
	href := SafeURL(blk.Oembed.EmbedURL)
	if href == "" {
		return
	}
	label := blk.Oembed.Title
	if label == "" {
		label = blk.Oembed.EmbedURL
	}
	b.WriteString(`<div class="embed"><a href="` + href + `" target="_blank" rel="noopener noreferrer">` + html.EscapeString(label) + `</a></div>`)
}

// formatSpans escapes text and wraps the styled ranges. Spans that overlap
// without nesting are clipped to the enclosing span.
func formatSpans(text string, spans []Span) string {
	runes := []rune(text)
	if len(spans) == 0 {
		return escapeText(string(runes))
	}

	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End || openTag(s) == "" {
			continue
		}
		valid = append(valid, s)
	}
	// Outer spans first: earlier start, then longer range.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	var b strings.Builder
	var stack []Span
	pos, next := 0, 0
	for {
		// Close every span ending here, innermost first.
		for len(stack) > 0 && stack[len(stack)-1].End <= pos {
			b.WriteString(closeTag(stack[len(stack)-1]))
			stack = stack[:len(stack)-1]
		}
		for next < len(valid) && valid[next].Start == pos {
			s := valid[next]
			next++
			if len(stack) > 0 && s.End > stack[len(stack)-1].End {
				s.End = stack[len(stack)-1].End
			}
			b.WriteString(openTag(s))
			stack = append(stack, s)
		}
		if pos >= len(runes) {
			break
		}
		end := len(runes)
		if len(stack) > 0 && stack[len(stack)-1].End < end {
			end = stack[len(stack)-1].End
		}
		if next < len(valid) && valid[next].Start < end {
			end = valid[next].Start
		}
		b.WriteString(escapeText(string(runes[pos:end])))
		pos = end
	}
	return b.String()
}

func escapeText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br />")
}

func openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanLabel:
		if s.Data == nil || s.Data.Label == "" {
			return "<span>"
		}
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`
	case SpanHyperlink:
		if s.Data == nil {
			return "<span>"
		}
		href := SafeURL(s.Data.URL)
		if href == "" {
			return "<span>"
		}
		attrs := ""
		if s.Data.Target == "_blank" {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>`
	}
	return ""
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		if s.Data == nil || SafeURL(s.Data.URL) == "" {
			return "</span>"
		}
		return "</a>"
	}
	return "</span>"
}

// SafeURL validates and escapes a URL for use in an HTML attribute. It returns
// "" for anything other than relative, http, https, mailto and tel URLs.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
