package richtext

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"a **b** *c*", "a <strong>b</strong> <em>c</em>"},
		{"`**raw**`", "<code>**raw**</code>"},
		{"<script>", "&lt;script&gt;"},
		{"[site](https://example.com)", `<a href="https://example.com" target="_blank" rel="noopener noreferrer">site</a>`},
		{"[bad](javascript:void)", "bad"},
	}
	for _, tt := range tests {
		if got := Inline(tt.input); got != tt.expected {
			t.Errorf("Inline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestInlineLinkKeepsUnderscoresInURL(t *testing.T) {
	got := Inline("[x](https://example.com/*a*/b)")
	if strings.Contains(got, "<em>") {
		t.Errorf("formatting leaked into href: %q", got)
	}
}

func TestRenderParagraphsAndLists(t *testing.T) {
	in := "First line\nsecond line\n\n- one\n- **two**\n\nLast"
	want := "<p>First line<br/>second line</p><ul><li>one</li><li><strong>two</strong></li></ul><p>Last</p>"
	if got := Render(in); got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(""); got != "" {
		t.Errorf("Render(\"\") = %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/about", "/about"},
		{"#top", "#top"},
		{"/", "/"},
		{"//evil.example/x", ""},
		{"/\\evil.example", ""},
		{" //evil.example", ""},
		{"https://example.com?a=1&b=2", "https://example.com?a=1&amp;b=2"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:void(0)", ""},
		{"example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.in); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInlineDropsSchemeRelativeLink(t *testing.T) {
	got := Inline("[home](//evil.example)")
	if got != "home" {
		t.Errorf("Inline = %q, want plain text", got)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Component("hello *world*").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "<p>hello <em>world</em></p>" {
		t.Errorf("got %q", buf.String())
	}
}
