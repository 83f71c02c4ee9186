package folio

import (
	"context"
	"sync"

	"github.com/dnnweb/folio/contentapi"
	"github.com/dnnweb/folio/views"
)

// validSection reports whether name is a landing page section.
func validSection(name string) bool {
	for _, n := range views.SectionNames {
		if n == name {
			return true
		}
	}
	return false
}

// loadSections fetches every section concurrently. A failing section does
// not affect the others.
func (a *App) loadSections(ctx context.Context, selected string) []views.Section {
	out := make([]views.Section, len(views.SectionNames))
	var wg sync.WaitGroup
	for i, name := range views.SectionNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			out[i] = a.loadSection(ctx, name, selected)
		}(i, name)
	}
	wg.Wait()
	return out
}

// loadingSections returns skeletons that the browser fills in.
func loadingSections() []views.Section {
	out := make([]views.Section, len(views.SectionNames))
	for i, name := range views.SectionNames {
		out[i] = views.Section{Name: name, State: views.Loading}
	}
	return out
}

func (a *App) loadSection(ctx context.Context, name, selected string) views.Section {
	s := views.Section{Name: name}
	var err error
	switch name {
	case "hero":
		var info contentapi.PersonalInfo
		info, s.Stale, err = a.Cache.PersonalInfo(ctx)
		if err == nil {
			s.Hero = a.heroView(info)
		}
	case "contact":
		var info contentapi.PersonalInfo
		info, s.Stale, err = a.Cache.PersonalInfo(ctx)
		if err == nil {
			s.Contact = a.contactView(info)
		}
	case "portfolio":
		var projects []contentapi.Project
		projects, s.Stale, err = a.Cache.Projects(ctx)
		if err == nil {
			s.Portfolio = a.portfolioView(PublishedProjects(projects), selected)
		}
	case "stacks":
		var stacks []contentapi.TechStack
		stacks, s.Stale, err = a.Cache.TechStacks(ctx)
		if err == nil {
			s.Stacks = a.stacksView(ActiveStacks(stacks))
			if len(s.Stacks.Items) == 0 {
				s.State, s.Message = views.Failed, views.StacksError
				return s
			}
		}
	}
	if err != nil {
		a.logger.Errorf("load %s section: %v", name, err)
		s.State, s.Message = views.Failed, views.ErrorText(name)
		return s
	}
	s.State = views.Ready
	return s
}

func (a *App) heroView(info contentapi.PersonalInfo) *views.Hero {
	return &views.Hero{
		Name:      info.Name,
		Title:     info.Title,
		Bio:       info.Bio,
		AvatarURL: a.media.URL(info.Avatar),
		Alt:       info.Name + " - " + info.Title,
		CVURL:     a.Config.CVURL,
	}
}

func (a *App) contactView(info contentapi.PersonalInfo) *views.Contact {
	phone := info.Phone
	if phone == "" {
		phone = a.Config.DefaultPhone
	}
	github := info.SocialMedia.Github
	return &views.Contact{
		Name:         info.Name,
		WhatsAppURL:  WhatsAppLink(phone),
		Phone:        phone,
		Email:        info.Email,
		Location:     info.Location,
		GithubURL:    GithubURL(github, a.Config.DefaultGithub),
		GithubHandle: GithubHandle(github, a.Config.DefaultGithub),
		LinkedinURL:  info.SocialMedia.Linkedin,
	}
}

func (a *App) projectCard(p contentapi.Project) views.ProjectCard {
	alt := p.Alt
	if alt == "" {
		alt = p.Title
	}
	return views.ProjectCard{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Year:        p.Year,
		ImageURL:    a.media.URL(p.Image),
		Alt:         alt,
		GithubURL:   p.GithubURL,
		WebsiteURL:  p.WebsiteURL,
		Draft:       !p.Published(),
	}
}

// portfolioView expands the project with id selected, or the first one.
func (a *App) portfolioView(projects []contentapi.Project, selected string) *views.Portfolio {
	pf := &views.Portfolio{Projects: make([]views.ProjectCard, 0, len(projects))}
	for _, p := range projects {
		pf.Projects = append(pf.Projects, a.projectCard(p))
	}
	if len(pf.Projects) == 0 {
		return pf
	}
	pf.Selected = &pf.Projects[0]
	for i := range pf.Projects {
		if pf.Projects[i].ID == selected {
			pf.Selected = &pf.Projects[i]
			break
		}
	}
	return pf
}

func (a *App) stacksView(stacks []contentapi.TechStack) *views.Stacks {
	st := &views.Stacks{Items: make([]views.StackItem, 0, len(stacks))}
	for _, s := range stacks {
		st.Items = append(st.Items, views.StackItem{
			Name:    s.Name,
			IconURL: views.StackIcon(s.Name, s.Color, a.API.AssetURL(s.Icon)),
			Color:   s.Color,
		})
	}
	return st
}
