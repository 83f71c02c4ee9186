package views

import (
	chatpkg "github.com/dnnweb/folio/chat"
	"github.com/dnnweb/folio/status"
)

// Meta carries per-page SEO metadata into the <head> template.
type Meta struct {
	Title       string
	Description string
	Keywords    string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	TwitterCard string
	Favicon     string
	JSONLD      []JSONLD
}

// JSONLD is one Schema.org block, rendered as an ld+json script.
type JSONLD map[string]any

// SectionState is the render state of a page section.
type SectionState int

const (
	Loading SectionState = iota
	Failed
	Ready
)

// Section is one block of the landing page. Exactly one of the body
// pointers is set when State is Ready.
type Section struct {
	Name    string // hero, contact, portfolio or stacks
	State   SectionState
	Message string // error text when Failed
	Stale   bool   // served from the last good snapshot

	Hero      *Hero
	Contact   *Contact
	Portfolio *Portfolio
	Stacks    *Stacks
}

// Hero is the introduction block.
type Hero struct {
	Name      string
	Title     string
	Bio       string // rich text
	AvatarURL string
	Alt       string
	CVURL     string
}

// Contact lists the ways to reach the owner.
type Contact struct {
	Name         string
	WhatsAppURL  string
	Phone        string
	Email        string
	Location     string
	GithubURL    string
	GithubHandle string
	LinkedinURL  string
}

// ProjectCard is a project ready for display.
type ProjectCard struct {
	ID          string
	Title       string
	Description string // rich text
	Year        int
	ImageURL    string
	Alt         string
	GithubURL   string
	WebsiteURL  string
	Draft       bool
}

// Portfolio is the project gallery with one project expanded.
type Portfolio struct {
	Projects []ProjectCard
	Selected *ProjectCard
}

// StackItem is a tech stack with its resolved icon.
type StackItem struct {
	Name    string
	IconURL string
	Color   string
}

// Stacks is the tech-stack showcase.
type Stacks struct {
	Items []StackItem
}

// ChatWidget configures the chat panel.
type ChatWidget struct {
	Questions    []string
	WelcomeDelay int // milliseconds
	Messages     []chatpkg.Message
	Pending      bool
}

// StatusBadge is the API indicator plus how often the browser refreshes it.
type StatusBadge struct {
	Snapshot status.Snapshot
	Interval int // milliseconds
}

// HomePage is the full landing page.
type HomePage struct {
	SiteName  string
	Meta      Meta
	Sections  []Section
	Status    StatusBadge
	Chat      ChatWidget
	CSRFToken string
}

// ProjectPage is the standalone page of one project.
type ProjectPage struct {
	SiteName  string
	Meta      Meta
	Project   ProjectCard
	Others    []ProjectCard
	Status    StatusBadge
	CSRFToken string
}

// StatusRow is one line of the admin status history.
type StatusRow struct {
	Snapshot status.Snapshot
	Time     string
}

// AdminDashboard is the admin overview.
type AdminDashboard struct {
	SiteName  string
	Message   string
	Error     string
	Projects  []ProjectCard
	Total     int
	Status    status.Snapshot
	History   []StatusRow
	Views     int
	Visitors  int
	BotViews  int
	Analytics bool
	CSRFToken string
}
