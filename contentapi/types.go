package contentapi

// Project is a portfolio entry as served by the content API.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	Image       string `json:"image"`
	GithubURL   string `json:"githubUrl,omitempty"`
	WebsiteURL  string `json:"websiteUrl,omitempty"`
	Alt         string `json:"alt"`
	Status      string `json:"status"` // "draft" or "published"
	Order       int    `json:"order"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Published reports whether the project is visible to the public.
// An empty status is treated as published since older API builds omit it.
func (p Project) Published() bool {
	return p.Status == "" || p.Status == StatusPublished
}

// TechStack is one entry of the tech-stack showcase.
type TechStack struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Order     int    `json:"order"`
	IsActive  *bool  `json:"isActive,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Active reports whether the stack should be shown. A missing flag counts as active.
func (t TechStack) Active() bool {
	return t.IsActive == nil || *t.IsActive
}

// SocialMedia holds optional profile links.
type SocialMedia struct {
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// PersonalInfo is the site owner's profile.
type PersonalInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Bio         string      `json:"bio"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Location    string      `json:"location"`
	Avatar      string      `json:"avatar"`
	SocialMedia SocialMedia `json:"socialMedia"`
	UpdatedAt   string      `json:"updatedAt"`
}

// SEOSettings carries the metadata rendered into the document head.
type SEOSettings struct {
	ID              string   `json:"id"`
	SiteTitle       string   `json:"siteTitle"`
	SiteDescription string   `json:"siteDescription"`
	Keywords        []string `json:"keywords"`
	OGImage         string   `json:"ogImage"`
	TwitterCard     string   `json:"twitterCard"` // "summary" or "summary_large_image"
	Favicon         string   `json:"favicon"`
	UpdatedAt       string   `json:"updatedAt"`
}

// ProjectPage is a page of projects plus the envelope's paging fields.
// Total, Page and Limit are zero when the API answered with a bare array.
type ProjectPage struct {
	Data  []Project `json:"data"`
	Total int       `json:"total,omitempty"`
	Page  int       `json:"page,omitempty"`
	Limit int       `json:"limit,omitempty"`
}

// Project status filters accepted by the projects endpoint.
const (
	StatusAll       = "all"
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// ProjectQuery selects a page of projects.
type ProjectQuery struct {
	Page   int    // default 1
	Limit  int    // default 10
	All    bool   // ignore paging and return everything
	Status string // "", "all", "published" or "draft"
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}
