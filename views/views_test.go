package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	chatpkg "github.com/dnnweb/folio/chat"
	"github.com/dnnweb/folio/status"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func readySections() []Section {
	card := ProjectCard{ID: "p1", Title: "Folio", Description: "A site", Year: 2024, ImageURL: "/media/p1.png", Alt: "Folio"}
	return []Section{
		{Name: "hero", State: Ready, Hero: &Hero{Name: "Jane", Title: "Engineer", Bio: "Hi", AvatarURL: "/media/a.png", Alt: "Jane", CVURL: "https://cv.example"}},
		{Name: "stacks", State: Ready, Stacks: &Stacks{Items: []StackItem{{Name: "React", IconURL: StackIcon("React", "61DAFB", ""), Color: "61DAFB"}}}},
		{Name: "portfolio", State: Ready, Stale: true, Portfolio: &Portfolio{Projects: []ProjectCard{card}, Selected: &card}},
		{Name: "contact", State: Ready, Contact: &Contact{Name: "Jane", Email: "jane@example.com", WhatsAppURL: "https://api.whatsapp.com/send?phone=62", Phone: "62"}},
	}
}

func TestHomeRenders(t *testing.T) {
	page := HomePage{
		SiteName: "Folio",
		Meta: Meta{
			Title:  "Folio",
			URL:    "https://folio.example/",
			OGType: "website",
			JSONLD: []JSONLD{WebsiteJsonLD("Folio", "https://folio.example", "desc")},
		},
		Sections: readySections(),
		Status:   StatusBadge{Snapshot: status.Snapshot{State: status.Connected}, Interval: 30000},
		Chat: ChatWidget{
			Questions:    chatpkg.TemplateQuestions,
			WelcomeDelay: 2000,
			Messages:     []chatpkg.Message{{ID: "m1", Message: "Welcome!", Timestamp: time.Now()}},
		},
		CSRFToken: "tok",
	}
	out := render(t, Home(page))
	for _, want := range []string{
		"<title>Folio</title>",
		`content="tok"`,
		"<h1>Jane</h1>",
		"<p>Hi</p>",
		"cdn.simpleicons.org/react/61DAFB",
		"Showing saved content",
		"Welcome!",
		"API Connected",
		`"@type":"WebSite"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("home missing %q", want)
		}
	}
}

func TestSectionStates(t *testing.T) {
	loading := render(t, SectionPartial(Section{Name: "stacks", State: Loading}))
	if strings.Count(loading, "stack-item pulse") != 7 {
		t.Errorf("expected 7 stack skeletons:\n%s", loading)
	}

	failed := render(t, SectionPartial(Section{Name: "hero", State: Failed, Message: ErrorText("hero")}))
	if !strings.Contains(failed, HeroError) || !strings.Contains(failed, `data-retry="/sections/hero/"`) {
		t.Errorf("unexpected error state:\n%s", failed)
	}

	empty := render(t, SectionPartial(Section{Name: "portfolio", State: Ready, Portfolio: &Portfolio{}}))
	if !strings.Contains(empty, "No projects yet") {
		t.Errorf("expected empty portfolio message:\n%s", empty)
	}
}

func TestStatusBadge(t *testing.T) {
	out := render(t, Status(StatusBadge{
		Snapshot: status.Snapshot{State: status.Disconnected, Detail: "HTTP 502: Bad Gateway from upstream"},
		Interval: 30000,
	}))
	for _, want := range []string{"dot-red", "API Disconnected", "(HTTP 502: Bad Gatewa...)", `data-interval="30000"`} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestAdminViews(t *testing.T) {
	login := render(t, AdminLogin(true, "tok"))
	if !strings.Contains(login, `name="token"`) || !strings.Contains(login, `value="tok"`) {
		t.Errorf("unexpected login form:\n%s", login)
	}

	dash := render(t, Dashboard(AdminDashboard{
		SiteName:  "Folio",
		Projects:  []ProjectCard{{ID: "d", Title: "Draft", Draft: true}},
		Total:     1,
		Status:    status.Snapshot{State: status.Unauthorized},
		History:   []StatusRow{{Snapshot: status.Snapshot{State: status.Connected}, Time: "2026-01-01 10:00:00"}},
		Analytics: true,
		Views:     12,
	}))
	for _, want := range []string{"Projects (1)", "draft", "API Requires Auth", "2026-01-01 10:00:00", "<strong>12</strong>"} {
		if !strings.Contains(dash, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestErrorPages(t *testing.T) {
	if out := render(t, NotFound()); !strings.Contains(out, "Not found") {
		t.Error("not-found page")
	}
	if out := render(t, ServerError()); !strings.Contains(out, "Something went wrong") {
		t.Error("server-error page")
	}
}

func TestJsonLD(t *testing.T) {
	v := PersonJsonLD("Jane", "Engineer", "https://folio.example", "", []string{"", "https://github.com/jane"})
	if v["@type"] != "Person" || v["url"] != "https://folio.example" {
		t.Errorf("unexpected person: %v", v)
	}
	if links, _ := v["sameAs"].([]string); len(links) != 1 {
		t.Errorf("sameAs = %v", v["sameAs"])
	}
	if _, ok := v["image"]; ok {
		t.Error("empty image should be omitted")
	}

	out := render(t, head("Folio", Meta{JSONLD: []JSONLD{v}}, ""))
	if !strings.Contains(out, `<script type="application/ld+json">`) || !strings.Contains(out, `"name":"Jane"`) {
		t.Errorf("JSON-LD script missing:\n%s", out)
	}
}

func TestRichTextInSections(t *testing.T) {
	out := render(t, SectionPartial(Section{Name: "hero", State: Ready, Hero: &Hero{
		Name: "Jane",
		Bio:  "I build **fast** sites.\n\n- [home](//evil.example)\n- <script>x</script>",
	}}))
	for _, want := range []string{"<strong>fast</strong>", "<li>home</li>", "&lt;script&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("bio missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "evil.example") || strings.Contains(out, "<script>") {
		t.Errorf("unsafe bio markup rendered:\n%s", out)
	}
}

func TestPortfolioSelection(t *testing.T) {
	a := ProjectCard{ID: "a", Title: "Alpha", Description: "About *alpha*"}
	b := ProjectCard{ID: "b b", Title: "Beta", Description: "About beta"}
	pf := Portfolio{Projects: []ProjectCard{a, b}, Selected: &a}
	if !pf.IsSelected("a") || pf.IsSelected("b b") || (Portfolio{}).IsSelected("a") {
		t.Fatal("IsSelected")
	}
	out := render(t, SectionPartial(Section{Name: "portfolio", State: Ready, Portfolio: &pf}))
	for _, want := range []string{
		`<li class="selected">`,
		"<em>alpha</em>",
		`href="/?project=b+b#portfolio"`,
		`data-partial="/sections/portfolio/?project=b+b"`,
		`href="/projects/a/"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("portfolio missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "About beta") {
		t.Error("unselected project should stay collapsed")
	}
}

func TestChatMessageClasses(t *testing.T) {
	out := render(t, ChatMessages(ChatWidget{
		Messages: []chatpkg.Message{
			{ID: "1", Message: "hi <b>", IsUser: true, Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
			{ID: "2", Message: "hello"},
		},
		Pending: true,
	}))
	for _, want := range []string{
		`class="chat-message user" data-id="1"`,
		`class="chat-message bot" data-id="2"`,
		"<p>hi &lt;b&gt;</p>",
		`datetime="2026-01-02T03:04:05Z"`,
		"chat-message bot typing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestStackIcon(t *testing.T) {
	if got := StackIcon("Node.js", "#339933", "x"); got != "https://cdn.simpleicons.org/nodedotjs/339933" {
		t.Errorf("StackIcon = %q", got)
	}
	if got := StackIcon("Elixir", "", "https://api.example/icon.svg"); got != "https://api.example/icon.svg" {
		t.Errorf("StackIcon fallback = %q", got)
	}
}
