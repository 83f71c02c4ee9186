package folio

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/dnnweb/folio/contentapi"
)

// whatsAppGreeting is the prefilled message, "Hi, There👋".
const whatsAppGreeting = "Hi%2C%20There%F0%9F%91%8B"

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PhoneDigits strips everything but digits from a phone number.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink returns a click-to-chat link for phone, or "" when phone has no digits.
func WhatsAppLink(phone string) string {
	digits := PhoneDigits(phone)
	if digits == "" {
		return ""
	}
	return "https://api.whatsapp.com/send?phone=" + digits + "&text=" + whatsAppGreeting
}

// GithubHandle returns the display handle for a GitHub profile URL.
func GithubHandle(profileURL, fallback string) string {
	if profileURL == "" {
		return fallback
	}
	handle := strings.TrimPrefix(profileURL, "https://github.com/")
	handle = strings.Trim(handle, "/")
	if handle == "" {
		return fallback
	}
	return handle
}

// GithubURL returns profileURL, or a profile URL built from handle.
func GithubURL(profileURL, handle string) string {
	if profileURL != "" {
		return profileURL
	}
	if handle == "" {
		return ""
	}
	return "https://github.com/" + url.PathEscape(handle)
}

// PublishedProjects returns the published projects ordered by their
// display order. Ties keep the API order.
func PublishedProjects(projects []contentapi.Project) []contentapi.Project {
	out := make([]contentapi.Project, 0, len(projects))
	for _, p := range projects {
		if p.Published() {
			out = append(out, p)
		}
	}
	SortProjects(out)
	return out
}

// SortProjects orders projects by Order ascending, keeping the API order for ties.
func SortProjects(projects []contentapi.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Order < projects[j].Order
	})
}

// ActiveStacks returns the active tech stacks ordered by their display order.
func ActiveStacks(stacks []contentapi.TechStack) []contentapi.TechStack {
	out := make([]contentapi.TechStack, 0, len(stacks))
	for _, s := range stacks {
		if s.Active() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// FindProject returns the project with id.
func FindProject(projects []contentapi.Project, id string) (contentapi.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return contentapi.Project{}, false
}
