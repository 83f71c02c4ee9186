package folio

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dnnweb/folio/analytics"
	"github.com/dnnweb/folio/contentapi"
	"github.com/dnnweb/folio/views"
)

const statusHistoryRows = 20

var (
	errTokenMismatch = errors.New("token does not match ADMIN_TOKEN")
	// errOpenAPI means the API answered the admin listing without a token,
	// so it cannot tell a real token from a made-up one.
	errOpenAPI = errors.New("content API serves all projects without a token; set ADMIN_TOKEN")
)

var adminQuery = contentapi.ProjectQuery{All: true, Status: contentapi.StatusAll}

// verifyAdminToken accepts token when it equals the configured AdminToken.
// Without one, the API must refuse the admin listing anonymously and
// serve it with the token.
func (a *App) verifyAdminToken(ctx context.Context, token string) error {
	if a.Config.AdminToken != "" {
		if !tokenEqual(token, a.Config.AdminToken) {
			return errTokenMismatch
		}
		return nil
	}
	_, err := a.API.WithToken("").PublishedProjects(ctx, adminQuery)
	switch code := contentapi.StatusCode(err); {
	case err == nil:
		return errOpenAPI
	case code != http.StatusUnauthorized && code != http.StatusForbidden:
		return fmt.Errorf("anonymous listing: %w", err)
	}
	_, err = a.API.WithToken(token).PublishedProjects(ctx, adminQuery)
	return err
}

func tokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// adminSession returns the session's token while it is still accepted.
func (a *App) adminSession(c echo.Context) (string, bool) {
	token := adminToken(c)
	if token == "" {
		return "", false
	}
	if a.Config.AdminToken != "" && !tokenEqual(token, a.Config.AdminToken) {
		return "", false
	}
	return token, true
}

func (a *App) handleAdmin(c echo.Context) error {
	token, ok := a.adminSession(c)
	if !ok {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, token, c.QueryParam("msg"))
}

// handleAdminLogin accepts a content API token once verifyAdminToken
// approves it.
func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	token := strings.TrimSpace(c.FormValue("token"))
	if token == "" {
		a.loginLimiter.Record(ip)
		return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	if err := a.verifyAdminToken(c.Request().Context(), token); err != nil {
		a.loginLimiter.Record(ip)
		c.Logger().Warnf("admin login from %s rejected: %v", ip, err)
		return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	a.loginLimiter.Reset(ip)
	if err := setAdminToken(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminToken(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminInvalidate(c echo.Context) error {
	if _, ok := a.adminSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=Content+cache+cleared.")
}

func (a *App) handleAdminAnalytics(c echo.Context) error {
	if _, ok := a.adminSession(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if a.analytics == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return a.analytics.Summary(c)
}

func (a *App) renderAdminDashboard(c echo.Context, token, msg string) error {
	ctx := c.Request().Context()
	d := views.AdminDashboard{
		SiteName:  a.Config.Name,
		Message:   msg,
		Status:    a.Monitor.Snapshot(),
		Analytics: a.analyticsStore != nil,
		CSRFToken: CsrfToken(c),
	}

	page, err := a.API.WithToken(token).PublishedProjects(ctx, adminQuery)
	switch {
	case contentapi.IsUnauthorized(err):
		// the token was revoked since login
		if err := clearAdminToken(c); err != nil {
			return err
		}
		return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
	case err != nil:
		d.Error = "Could not load projects: " + err.Error()
	default:
		SortProjects(page.Data)
		for _, p := range page.Data {
			d.Projects = append(d.Projects, a.projectCard(p))
		}
		d.Total = page.Total
		if d.Total == 0 {
			d.Total = len(page.Data)
		}
	}

	history, err := a.Store.StatusHistory(statusHistoryRows)
	if err != nil {
		return err
	}
	for _, h := range history {
		d.History = append(d.History, views.StatusRow{Snapshot: h, Time: h.CheckedAt.Local().Format("2006-01-02 15:04:05")})
	}

	if a.analyticsStore != nil {
		from, to := analytics.PeriodRange("week", time.Now().UTC())
		sum, err := a.analyticsStore.Summarize(from, to)
		if err != nil {
			c.Logger().Errorf("analytics summary: %v", err)
		} else {
			d.Views, d.Visitors, d.BotViews = sum.TotalViews, sum.UniqueVisitors, sum.BotViews
		}
	}
	return Render(c, a.Views.AdminDashboard(d))
}
