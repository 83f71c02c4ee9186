package folio

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dnnweb/folio/chat"
	"github.com/dnnweb/folio/contentapi"
	"github.com/dnnweb/folio/status"
	"github.com/dnnweb/folio/views"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	sections := loadingSections()
	if !a.Config.LazySections {
		sections = a.loadSections(ctx, c.QueryParam("project"))
	}
	page := views.HomePage{
		SiteName:  a.Config.Name,
		Meta:      a.pageMeta(ctx, "", BuildURL(a.Config.URL), "website"),
		Sections:  sections,
		Status:    a.statusBadge(),
		Chat:      a.chatWidget(c),
		CSRFToken: CsrfToken(c),
	}
	return Render(c, a.Views.Home(page))
}

func (a *App) handleSection(c echo.Context) error {
	name := c.Param("name")
	if !validSection(name) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	s := a.loadSection(c.Request().Context(), name, c.QueryParam("project"))
	return Render(c, a.Views.Section(s))
}

func (a *App) handleProject(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	projects, _, err := a.Cache.Projects(ctx)
	if err != nil {
		return err
	}
	published := PublishedProjects(projects)
	p, ok := FindProject(published, id)
	if token, admin := a.adminSession(c); !ok && admin {
		// drafts are only listed with a token
		p, ok = a.findAnyProject(ctx, token, id)
	}
	if !ok {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}

	card := a.projectCard(p)
	pageURL := BuildURL(a.Config.URL, "projects", p.ID)
	meta := a.pageMeta(ctx, p.Title, pageURL, "article")
	if plain := plainText(p.Description); plain != "" {
		meta.Description = plain
	}
	if card.ImageURL != "" {
		meta.Image = absoluteURL(a.Config.URL, card.ImageURL)
	}
	ld := card
	ld.ImageURL = absoluteURL(a.Config.URL, card.ImageURL)
	meta.JSONLD = []views.JSONLD{views.CreativeWorkJsonLD(ld, pageURL, a.Config.Author)}

	others := make([]views.ProjectCard, 0, len(published))
	for _, o := range published {
		if o.ID != p.ID {
			others = append(others, a.projectCard(o))
		}
	}
	return Render(c, a.Views.Project(views.ProjectPage{
		SiteName:  a.Config.Name,
		Meta:      meta,
		Project:   card,
		Others:    others,
		Status:    a.statusBadge(),
		CSRFToken: CsrfToken(c),
	}))
}

func (a *App) findAnyProject(ctx context.Context, token, id string) (contentapi.Project, bool) {
	page, err := a.API.WithToken(token).PublishedProjects(ctx, contentapi.ProjectQuery{All: true, Status: contentapi.StatusAll})
	if err != nil {
		a.logger.Warnf("admin project lookup: %v", err)
		return contentapi.Project{}, false
	}
	return FindProject(page.Data, id)
}

// statusJSON is the machine-readable form of the indicator.
type statusJSON struct {
	status.Snapshot
	Text  string `json:"text"`
	Color string `json:"color"`
}

func (a *App) handleStatus(c echo.Context) error {
	snap := a.Monitor.Snapshot()
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return c.JSON(http.StatusOK, statusJSON{Snapshot: snap, Text: snap.Text(), Color: snap.Color()})
	}
	return Render(c, a.Views.Status(a.statusBadge()))
}

func (a *App) statusBadge() views.StatusBadge {
	return views.StatusBadge{
		Snapshot: a.Monitor.Snapshot(),
		Interval: int(a.Monitor.Interval().Milliseconds()),
	}
}

func (a *App) chatWidget(c echo.Context) views.ChatWidget {
	w := views.ChatWidget{
		Questions:    a.Config.ChatQuestions,
		WelcomeDelay: int(a.Config.WelcomeDelay.Milliseconds()),
	}
	id, err := conversationID(c, false, chat.NewConversationID)
	if err != nil || id == "" {
		return w
	}
	msgs, err := a.Chat.History(id)
	if err != nil {
		c.Logger().Errorf("chat history: %v", err)
		return w
	}
	w.Messages = msgs
	w.Pending = a.Chat.Pending(id)
	return w
}

func (a *App) handleChatHistory(c echo.Context) error {
	return Render(c, a.Views.ChatMessages(a.chatWidget(c)))
}

func (a *App) handleChatSend(c echo.Context) error {
	if !a.chatLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many messages. Try again later.")
	}
	id, err := conversationID(c, true, chat.NewConversationID)
	if err != nil {
		return err
	}
	_, err = a.Chat.Send(c.Request().Context(), id, c.FormValue("message"))
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return c.String(http.StatusBadRequest, "Message is required.")
	case errors.Is(err, chat.ErrBusy):
		return c.String(http.StatusConflict, "Still waiting for the previous reply.")
	case err != nil:
		return err
	}
	if !isPartial(c) {
		return c.Redirect(http.StatusSeeOther, "/#chat")
	}
	return a.handleChatHistory(c)
}

func (a *App) handleChatWelcome(c echo.Context) error {
	if !a.chatLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many messages. Try again later.")
	}
	id, err := conversationID(c, true, chat.NewConversationID)
	if err != nil {
		return err
	}
	if _, err := a.Chat.Welcome(c.Request().Context(), id); err != nil && !errors.Is(err, chat.ErrBusy) {
		return err
	}
	return a.handleChatHistory(c)
}

func (a *App) handleSitemap(c echo.Context) error {
	projects, _, err := a.Cache.Projects(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, PublishedProjects(projects))
}

func (a *App) handleFeed(c echo.Context) error {
	projects, _, err := a.Cache.Projects(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, PublishedProjects(projects))
}

func (a *App) handleFavicon(c echo.Context) error {
	if file := filepath.Join(a.staticDir, "favicon.svg"); fileExists(file) {
		return c.File(file)
	}
	b, err := EmbeddedAssets.ReadFile("embedded/favicon.svg")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", b)
}

func (a *App) handleRobots(c echo.Context) error {
	if file := filepath.Join(a.staticDir, "robots.txt"); fileExists(file) {
		return c.File(file)
	}
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /chat/\nDisallow: /status/\nDisallow: /sections/\n\nSitemap: " +
		strings.TrimSuffix(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// pageMeta builds the head metadata from the API's SEO settings, falling
// back to the site config while the API is unavailable.
func (a *App) pageMeta(ctx context.Context, title, pageURL, ogType string) views.Meta {
	m := views.Meta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         pageURL,
		OGType:      ogType,
		TwitterCard: "summary",
	}
	if seo, _, err := a.Cache.SEO(ctx); err == nil {
		if seo.SiteTitle != "" {
			m.Title = seo.SiteTitle
		}
		if seo.SiteDescription != "" {
			m.Description = seo.SiteDescription
		}
		m.Keywords = strings.Join(FilterEmpty(seo.Keywords), ", ")
		m.Image = seo.OGImage
		m.Favicon = seo.Favicon
		if seo.TwitterCard != "" {
			m.TwitterCard = seo.TwitterCard
		}
	} else {
		a.logger.Debugf("seo fallback: %v", err)
	}
	if title != "" {
		m.Title = title + " | " + m.Title
	}

	m.JSONLD = []views.JSONLD{views.WebsiteJsonLD(a.Config.Name, a.Config.URL, m.Description)}
	if info, _, err := a.Cache.PersonalInfo(ctx); err == nil && info.Name != "" {
		sm := info.SocialMedia
		m.JSONLD = append(m.JSONLD, views.PersonJsonLD(info.Name, info.Title, a.Config.URL,
			absoluteURL(a.Config.URL, a.media.URL(info.Avatar)),
			[]string{sm.Github, sm.Linkedin, sm.Twitter, sm.Instagram}))
	}
	return m
}

// absoluteURL resolves a site-relative URL against base.
func absoluteURL(base, u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(u, "/")
}

// plainText flattens a description to a single line for meta tags.
func plainText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer("**", "", "`", "").Replace(s)
	if r := []rune(s); len(r) > 160 {
		return string(r[:157]) + "..."
	}
	return s
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
