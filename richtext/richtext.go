// Package richtext renders the lightly formatted text the content API stores
// in bios and project descriptions: paragraphs, bullet lists, and inline
// bold, italic, code and links.
package richtext

import (
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reBullet     = regexp.MustCompile(`^\s*[-*]\s+`)
)

// Component returns a templ.Component that renders text as HTML.
func Component(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, Render(text))
		return err
	})
}

// Render converts text to HTML. Blank lines separate paragraphs; lines
// starting with "- " or "* " form a list.
func Render(text string) string {
	var r renderer
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		switch {
		case strings.TrimSpace(line) == "":
			r.closeBlock()
		case reBullet.MatchString(line):
			r.open("ul")
			r.b.WriteString("<li>")
			r.b.WriteString(Inline(reBullet.ReplaceAllString(line, "")))
			r.b.WriteString("</li>")
		default:
			if r.block == "p" {
				r.b.WriteString("<br/>")
			} else {
				r.open("p")
			}
			r.b.WriteString(Inline(strings.TrimSpace(line)))
		}
	}
	r.closeBlock()
	return r.b.String()
}

type renderer struct {
	b     strings.Builder
	block string // "", "p" or "ul"
}

func (r *renderer) open(tag string) {
	if r.block == tag {
		return
	}
	r.closeBlock()
	r.b.WriteString("<" + tag + ">")
	r.block = tag
}

func (r *renderer) closeBlock() {
	if r.block != "" {
		r.b.WriteString("</" + r.block + ">")
		r.block = ""
	}
}

// Inline escapes s and applies inline formatting.
func Inline(s string) string {
	escaped := html.EscapeString(s)

	// Code spans are swapped out first so their content is left alone.
	var spans []string
	escaped = reInlineCode.ReplaceAllStringFunc(escaped, func(m string) string {
		inner := reInlineCode.FindStringSubmatch(m)[1]
		spans = append(spans, "<code>"+inner+"</code>")
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + match[1] + `</a>`
	})

	escaped = outsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		return reItalic.ReplaceAllString(seg, "<em>$1</em>")
	})

	for i, span := range spans {
		escaped = strings.Replace(escaped, "\x00"+strconv.Itoa(i)+"\x00", span, 1)
	}
	return escaped
}

// outsideTags applies fn to the text between HTML tags only.
func outsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for len(s) > 0 {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// SafeURL returns an attribute-safe URL, or "" for anything that is not a
// same-origin path, fragment, http(s), mailto or tel.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	if strings.HasPrefix(val, "/") {
		// "//host" and "/\host" are scheme-relative in browsers.
		if len(val) > 1 && (val[1] == '/' || val[1] == '\\') {
			return ""
		}
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil || u.Scheme == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}
