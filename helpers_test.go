package folio

import (
	"testing"

	"github.com/dnnweb/folio/contentapi"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"projects", "abc"}, "https://example.com/projects/abc/"},
		{"https://example.com/", []string{"projects"}, "https://example.com/projects/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	tests := map[string]string{
		"+62 812-3456-7890": "https://api.whatsapp.com/send?phone=6281234567890&text=Hi%2C%20There%F0%9F%91%8B",
		"6281234567890":     "https://api.whatsapp.com/send?phone=6281234567890&text=Hi%2C%20There%F0%9F%91%8B",
		"":                  "",
		"n/a":               "",
	}
	for in, want := range tests {
		if got := WhatsAppLink(in); got != want {
			t.Errorf("WhatsAppLink(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGithubHandle(t *testing.T) {
	tests := []struct {
		url, fallback, want string
	}{
		{"https://github.com/octocat", "x", "octocat"},
		{"https://github.com/octocat/", "x", "octocat"},
		{"", "fallback", "fallback"},
		{"https://github.com/", "fallback", "fallback"},
	}
	for _, tt := range tests {
		if got := GithubHandle(tt.url, tt.fallback); got != tt.want {
			t.Errorf("GithubHandle(%q, %q) = %q, want %q", tt.url, tt.fallback, got, tt.want)
		}
	}
	if got := GithubURL("", "octocat"); got != "https://github.com/octocat" {
		t.Errorf("GithubURL = %q", got)
	}
	if got := GithubURL("https://github.com/x", "octocat"); got != "https://github.com/x" {
		t.Errorf("GithubURL = %q", got)
	}
}

func TestPublishedProjects(t *testing.T) {
	projects := []contentapi.Project{
		{ID: "c", Order: 3, Status: contentapi.StatusPublished},
		{ID: "draft", Order: 0, Status: contentapi.StatusDraft},
		{ID: "a", Order: 1},
		{ID: "b", Order: 1, Status: contentapi.StatusPublished},
	}
	got := PublishedProjects(projects)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d projects, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
	if _, ok := FindProject(got, "draft"); ok {
		t.Error("draft should not be published")
	}
}

func TestActiveStacks(t *testing.T) {
	off := false
	stacks := []contentapi.TechStack{
		{Name: "Go", Order: 2},
		{Name: "Old", Order: 0, IsActive: &off},
		{Name: "React", Order: 1},
	}
	got := ActiveStacks(stacks)
	if len(got) != 2 || got[0].Name != "React" || got[1].Name != "Go" {
		t.Errorf("ActiveStacks = %+v", got)
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{" go ", "", "  ", "web"})
	if len(got) != 2 || got[0] != "go" || got[1] != "web" {
		t.Errorf("FilterEmpty = %q", got)
	}
}
