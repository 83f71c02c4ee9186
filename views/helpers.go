package views

import (
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// Error texts shown when a section cannot be loaded.
const (
	HeroError      = "Failed to load personal information. Please check API connection."
	ContactError   = "Failed to load contact information. Please check API connection."
	PortfolioError = "Failed to load projects. Please check API connection."
	StacksError    = "Failed to load tech stacks. Please check API connection."
)

// SectionNames lists the landing page sections in display order.
var SectionNames = []string{"hero", "stacks", "portfolio", "contact"}

// ErrorText returns the error message for the named section.
func ErrorText(section string) string {
	switch section {
	case "hero":
		return HeroError
	case "contact":
		return ContactError
	case "portfolio":
		return PortfolioError
	case "stacks":
		return StacksError
	}
	return "Failed to load content. Please check API connection."
}

const skeletonStacks = 7

func sectionURL(name string) string { return "/sections/" + name + "/" }

func projectURL(id string) templ.SafeURL {
	return templ.SafeURL("/projects/" + url.PathEscape(id) + "/")
}

func selectURL(id string) templ.SafeURL {
	return templ.SafeURL("/?project=" + url.QueryEscape(id) + "#portfolio")
}

func selectPartialURL(id string) string {
	return "/sections/portfolio/?project=" + url.QueryEscape(id)
}

// stackIcons maps well-known stack names to simple-icons slugs.
var stackIcons = map[string]string{
	"React":      "react",
	"Node.js":    "nodedotjs",
	"TypeScript": "typescript",
	"MongoDB":    "mongodb",
	"Next JS":    "nextdotjs",
	"Nest JS":    "nestjs",
	"Astro JS":   "astro",
}

// StackIcon returns the icon URL for a stack. Known names use the shared
// icon set tinted with color; others fall back to the API icon.
func StackIcon(name, color, fallback string) string {
	slug, ok := stackIcons[name]
	if !ok {
		return fallback
	}
	u := "https://cdn.simpleicons.org/" + slug
	if c := strings.TrimPrefix(strings.TrimSpace(color), "#"); c != "" {
		u += "/" + url.PathEscape(c)
	}
	return u
}

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
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

// WebsiteJsonLD produces a Schema.org WebSite block.
func WebsiteJsonLD(name, siteURL, description string) JSONLD {
	data := JSONLD{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
		"url":      buildURL(siteURL),
	}
	if description != "" {
		data["description"] = description
	}
	return data
}

// PersonJsonLD produces a Schema.org Person block for the site owner.
func PersonJsonLD(name, jobTitle, siteURL, image string, sameAs []string) JSONLD {
	data := JSONLD{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     name,
		"url":      buildURL(siteURL),
	}
	if jobTitle != "" {
		data["jobTitle"] = jobTitle
	}
	if image != "" {
		data["image"] = image
	}
	var links []string
	for _, s := range sameAs {
		if s != "" {
			links = append(links, s)
		}
	}
	if len(links) > 0 {
		data["sameAs"] = links
	}
	return data
}

// CreativeWorkJsonLD describes a single project page.
func CreativeWorkJsonLD(p ProjectCard, pageURL, author string) JSONLD {
	data := JSONLD{
		"@context": "https://schema.org",
		"@type":    "CreativeWork",
		"name":     p.Title,
		"url":      pageURL,
	}
	if p.Year > 0 {
		data["dateCreated"] = p.Year
	}
	if p.ImageURL != "" {
		data["image"] = p.ImageURL
	}
	if author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": author}
	}
	return data
}
