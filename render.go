package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/dnnweb/folio/views"
)

// ViewFuncs holds the components the handlers render. DefaultViews returns
// the built-in set; sites can swap any of them with WithViews.
type ViewFuncs struct {
	Home           func(p views.HomePage) templ.Component
	Section        func(s views.Section) templ.Component
	Project        func(p views.ProjectPage) templ.Component
	Status         func(b views.StatusBadge) templ.Component
	ChatMessages   func(w views.ChatWidget) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(d views.AdminDashboard) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// DefaultViews returns the components from the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.Home,
		Section:        views.SectionPartial,
		Project:        views.Project,
		Status:         views.Status,
		ChatMessages:   views.ChatMessages,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.Dashboard,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// isPartial reports whether the request came from site.js asking for a fragment.
func isPartial(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
